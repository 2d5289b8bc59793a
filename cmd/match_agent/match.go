package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daniel/expert-match/internal/observability"
	"github.com/daniel/expert-match/internal/types"
)

var matchCmd = &cobra.Command{
	Use:   "match <case-id>",
	Short: "Rank doctors for a medical case",
	Long:  "Scores every candidate doctor against the case using graph relationships, embedding similarity, and historical performance, and prints the ranked matches.",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatch,
}

var (
	matchMaxResults  int
	matchMinScore    float64
	matchSpecialties []string
	matchTelehealth  bool
	matchJSON        bool
)

func init() {
	matchCmd.Flags().IntVarP(&matchMaxResults, "max-results", "n", 0, "Maximum number of matches to return")
	matchCmd.Flags().Float64Var(&matchMinScore, "min-score", -1, "Minimum overall score (0-100)")
	matchCmd.Flags().StringSliceVar(&matchSpecialties, "specialty", nil, "Restrict candidates to these specialties")
	matchCmd.Flags().BoolVar(&matchTelehealth, "telehealth", false, "Require telehealth availability")
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "Print results as JSON")

	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := withCorrelation(cmd.Context())

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	opts := types.MatchOptions{
		MaxResults:           matchMaxResults,
		PreferredSpecialties: matchSpecialties,
		RequireTelehealth:    matchTelehealth,
	}
	if matchMinScore >= 0 {
		opts.MinScore = &matchMinScore
	}

	matches, err := rt.orchestrator.MatchDoctors(ctx, args[0], opts)
	if err != nil {
		return fmt.Errorf("failed to match doctors: %w", err)
	}

	if matchJSON {
		return printJSON(matches)
	}
	observability.NewPrinter(os.Stdout).PrintDoctorMatches(args[0], matches)
	return nil
}

// withCorrelation tags a CLI invocation so its log lines share one id.
func withCorrelation(ctx context.Context) context.Context {
	return observability.WithCorrelationID(ctx, observability.NewCorrelationID())
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
