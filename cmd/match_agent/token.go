package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/daniel/expert-match/internal/config"
	"github.com/daniel/expert-match/internal/server"
)

var tokenExpiration time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Issue a bearer token for the API",
	Long:  "Signs a JWT with the configured secret so clients can call the server when auth is enabled.",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenExpiration, "expires-in", 24*time.Hour, "Token lifetime")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(_ *cobra.Command, args []string) error {
	cfg := &config.Config{}
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.LoadEnv()
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is not configured")
	}

	token, err := server.NewJWTService(cfg.JWTSecret, tokenExpiration).GenerateToken(args[0])
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
