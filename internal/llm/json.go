package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSONObject pulls the first complete JSON object out of model
// output that may be wrapped in prose or a markdown code fence. Used by
// providers without a native structured-output mode.
func extractJSONObject(text string) ([]byte, error) {
	s := strings.TrimSpace(text)

	// Strip a ```json ... ``` fence if present.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					candidate := []byte(s[start : i+1])
					if !json.Valid(candidate) {
						return nil, fmt.Errorf("invalid JSON object in response")
					}
					return candidate, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("unterminated JSON object in response")
}
