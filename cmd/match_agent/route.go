package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daniel/expert-match/internal/observability"
	"github.com/daniel/expert-match/internal/types"
)

var routeCmd = &cobra.Command{
	Use:   "route <case-id>",
	Short: "Rank facilities for a medical case",
	Long:  "Scores facilities on complexity fit, roster outcomes, capacity, and distance, and prints the ranked routing options.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoute,
}

var (
	routeMaxResults   int
	routeMinScore     float64
	routeCapabilities []string
	routeMaxDistance  float64
	routeOriginLat    float64
	routeOriginLon    float64
	routeJSON         bool
)

func init() {
	routeCmd.Flags().IntVarP(&routeMaxResults, "max-results", "n", 0, "Maximum number of facilities to return")
	routeCmd.Flags().Float64Var(&routeMinScore, "min-score", -1, "Minimum overall score (0-100)")
	routeCmd.Flags().StringSliceVar(&routeCapabilities, "capability", nil, "Require facilities to have these capabilities")
	routeCmd.Flags().Float64Var(&routeMaxDistance, "max-distance-km", 0, "Exclude facilities farther than this from the origin")
	routeCmd.Flags().Float64Var(&routeOriginLat, "origin-lat", 0, "Patient latitude for the distance score")
	routeCmd.Flags().Float64Var(&routeOriginLon, "origin-lon", 0, "Patient longitude for the distance score")
	routeCmd.Flags().BoolVar(&routeJSON, "json", false, "Print results as JSON")

	rootCmd.AddCommand(routeCmd)
}

func runRoute(cmd *cobra.Command, args []string) error {
	ctx := withCorrelation(cmd.Context())

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	opts := types.RoutingOptions{
		MaxResults:           routeMaxResults,
		RequiredCapabilities: routeCapabilities,
	}
	if routeMinScore >= 0 {
		opts.MinScore = &routeMinScore
	}
	if routeMaxDistance > 0 {
		opts.MaxDistanceKm = &routeMaxDistance
	}
	if cmd.Flags().Changed("origin-lat") && cmd.Flags().Changed("origin-lon") {
		opts.OriginLat = &routeOriginLat
		opts.OriginLon = &routeOriginLon
	}

	matches, err := rt.orchestrator.MatchFacilities(ctx, args[0], opts)
	if err != nil {
		return fmt.Errorf("failed to route case: %w", err)
	}

	if routeJSON {
		return printJSON(matches)
	}
	observability.NewPrinter(os.Stdout).PrintFacilityMatches(args[0], matches)
	return nil
}
