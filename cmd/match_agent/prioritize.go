package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daniel/expert-match/internal/observability"
)

var prioritizeJSON bool

var prioritizeCmd = &cobra.Command{
	Use:   "prioritize <case-id>",
	Short: "Compute the queue priority for a medical case",
	Long:  "Combines urgency, case complexity, and specialist availability into a single priority score for triage ordering.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrioritize,
}

func init() {
	prioritizeCmd.Flags().BoolVar(&prioritizeJSON, "json", false, "Print results as JSON")
	rootCmd.AddCommand(prioritizeCmd)
}

func runPrioritize(cmd *cobra.Command, args []string) error {
	ctx := withCorrelation(cmd.Context())

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	score, err := rt.orchestrator.PrioritizeCase(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to prioritize case: %w", err)
	}

	if prioritizeJSON {
		return printJSON(score)
	}
	observability.NewPrinter(os.Stdout).PrintPriority(args[0], score)
	return nil
}
