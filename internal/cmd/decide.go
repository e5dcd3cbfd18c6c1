package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dativo-io/parley/internal/caseid"
	"github.com/dativo-io/parley/internal/cases"
	"github.com/dativo-io/parley/internal/config"
	"github.com/dativo-io/parley/internal/intent"
	"github.com/dativo-io/parley/internal/pipeline"
	"github.com/dativo-io/parley/internal/policy"
)

var decideCase string

var decideCmd = &cobra.Command{
	Use:   "decide [utterance]",
	Short: "Run one utterance through the intent pipeline",
	Long: `Classify a single utterance, authorize the intent, and print the
decision and spoken response as JSON.

Uses the configured LLM provider for classification and the local case
database for status lookups. No call transfer is performed; an allowed
escalation reports the escalation-unavailable response instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecide,
}

func init() {
	decideCmd.Flags().StringVar(&decideCase, "case", "", "case number (extracted from the utterance when omitted)")
	rootCmd.AddCommand(decideCmd)
}

func runDecide(cmd *cobra.Command, args []string) error {
	ctx, span := tracer.Start(cmd.Context(), "decide")
	defer span.End()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	provider, err := resolveProvider(cfg)
	if err != nil {
		return err
	}
	classifier := intent.NewClassifier(provider, cfg.LLMModel)

	engine, err := policy.NewEngine(ctx)
	if err != nil {
		return fmt.Errorf("loading authorization policy: %w", err)
	}

	store, err := cases.NewStore(cfg.CasesDBPath())
	if err != nil {
		return fmt.Errorf("opening case store: %w", err)
	}
	defer store.Close()
	if err := store.SeedDemo(ctx); err != nil {
		return fmt.Errorf("seeding demo cases: %w", err)
	}

	utterance := strings.Join(args, " ")
	caseNumber := decideCase
	if caseNumber == "" {
		caseNumber, _ = caseid.Extract(utterance)
	}

	// No transferer: this is an offline dry run of the decision path.
	pipe := pipeline.New(classifier, engine, store, nil, cfg.SupportPhoneNumber)
	result := pipe.Run(ctx, utterance, caseNumber, "")

	out := map[string]interface{}{
		"intent":     string(result.Intent),
		"decision":   string(result.Decision),
		"trust_tier": string(result.TrustTier),
		"response":   result.ResponseText,
		"escalated":  result.Escalated,
	}
	if caseNumber != "" {
		out["case_number"] = caseNumber
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
