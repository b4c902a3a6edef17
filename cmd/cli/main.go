package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL string
	apiKey string
)

var rootCmd = &cobra.Command{
	Use:   "pickleball-cli",
	Short: "Operator CLI for division drawings and schedules",
	Long: `A command-line interface for the operator endpoints of the division
registration server: running drawings, generating schedules and managing the waitlist.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", envOr("API_URL", "http://localhost:8080"), "Base URL of the server")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("OPERATOR_API_KEY"), "Operator key sent as "+operatorHeader)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'\n", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
