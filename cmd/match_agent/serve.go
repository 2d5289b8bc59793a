package main

import (
	"github.com/spf13/cobra"

	"github.com/daniel/expert-match/internal/jobs"
	"github.com/daniel/expert-match/internal/server"
	"github.com/daniel/expert-match/internal/server/ratelimit"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  "Start an HTTP server exposing matching, routing, prioritization, and async job endpoints.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	port := rt.cfg.Port
	if servePort > 0 {
		port = servePort
	}

	srv := server.New(rt.orchestrator, jobs.NewRegistry(0), server.Config{
		Port:        port,
		JWTSecret:   rt.cfg.JWTSecret,
		AuthEnabled: rt.cfg.AuthEnabled,
		RateLimit:   ratelimit.DefaultConfig(),
	}, rt.logger)

	return srv.Start()
}
