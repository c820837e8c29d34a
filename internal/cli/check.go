package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nkarpov/claimsift/internal/model"
	"github.com/nkarpov/claimsift/internal/pipeline"
	"github.com/nkarpov/claimsift/internal/verdict"
)

var (
	checkTimeout   time.Duration
	checkMode      string
	checkK         int
	checkJSON      bool
	checkNoVerdict bool
	checkEnrich    bool
	checkWorkers   int
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [message]",
	Short: "Check a message: extract claims, retrieve and judge evidence",
	Long: `Check runs the full pipeline over a message:
- Extract explicit and implied claims (with polarising flags)
- Frame short, neutral search queries per claim
- Retrieve candidate sources and score them against trust lists
- Keep only trustworthy, relevant sources per claim
- Merge the kept sources into a ranked evidence list

The message is taken from the argument, or from stdin when omitted.

Example:
  claimsift check "Crime in the capital doubled last year"
  cat message.txt | claimsift check --json
  claimsift check "..." --mode local -k 8 --no-verdict`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 3*time.Minute, "overall check timeout")
	checkCmd.Flags().StringVar(&checkMode, "mode", "default", "retrieval mode (default, official, balanced, local)")
	checkCmd.Flags().IntVarP(&checkK, "top", "k", 0, "flat evidence list size (0 = configured default)")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the evidence bundle as JSON")
	checkCmd.Flags().BoolVar(&checkNoVerdict, "no-verdict", false, "skip verdict synthesis, print evidence only")
	checkCmd.Flags().BoolVar(&checkEnrich, "enrich", false, "fetch pages to fill empty snippets (robots-respecting)")
	checkCmd.Flags().IntVar(&checkWorkers, "workers", 0, "claims processed in parallel (0 = configured default)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	text, err := readMessage(args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("empty message: pass text as an argument or on stdin")
	}

	mode, err := model.ModeByName(checkMode)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Fetch.EnrichSnippets = checkEnrich
	if checkWorkers > 0 {
		cfg.Concurrency.ClaimWorkers = checkWorkers
	}

	logger := newLogger()
	client := buildClient(cfg, logger)
	store := buildStore(cfg)
	provider := buildProvider(cfg, store, logger)

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	p := pipeline.NewPipeline(cfg, client, provider,
		pipeline.WithMode(mode),
		pipeline.WithLogger(logger),
	)

	plan, bundle := p.Check(ctx, text, checkK)

	if verbose {
		fmt.Fprintf(os.Stderr, "Jurisdiction: %s\n", plan.Jurisdiction)
		fmt.Fprintf(os.Stderr, "Claims: %d\n", len(plan.Claims))
		fmt.Fprintf(os.Stderr, "Evidence: %d\n\n", len(bundle.Flat))
	}

	if checkJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(bundle); err != nil {
			return fmt.Errorf("encode bundle: %w", err)
		}
		if checkNoVerdict {
			return nil
		}
	}

	if !checkNoVerdict {
		w := verdict.NewWriter(client, cfg.LLM.Models.For("verdict"), logger)
		fmt.Println(w.Write(ctx, text, plan, bundle))
		return nil
	}

	printBundle(plan, bundle)
	return nil
}

// readMessage takes the message from the lone argument or stdin.
func readMessage(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// printBundle renders the evidence bundle as plain text for --no-verdict
// runs without --json.
func printBundle(plan *model.Plan, bundle *model.EvidenceBundle) {
	for _, ce := range bundle.PerClaim {
		fmt.Printf("Claim %s: %s\n", ce.ClaimID, ce.ClaimText)
		if len(ce.Sources) == 0 {
			fmt.Printf("  (no sources) %s\n", ce.Note)
			continue
		}
		for i, s := range ce.Sources {
			fmt.Printf("  [C%s-S%d] %s\n    %s\n    tier %d: %s\n", ce.ClaimID, i+1, s.Title, s.URL, s.TrustTier, s.TrustReason)
		}
		if ce.Note != "" {
			fmt.Printf("  note: %s\n", ce.Note)
		}
	}

	if len(bundle.Flat) > 0 {
		fmt.Println("\nTop evidence:")
		for _, s := range bundle.Flat {
			fmt.Printf("  %d  %-28s %s\n", s.TrustTier, s.Domain, s.URL)
		}
	}
}
