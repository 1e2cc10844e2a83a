package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag    string
	apiKeyFlag string
	ownerFlag  string
	rootCmd    = &cobra.Command{
		Use:   "pantryctl",
		Short: "CLI client for the pantry service REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Pantry service base URL")
	rootCmd.PersistentFlags().StringVarP(&apiKeyFlag, "api-key", "k", os.Getenv("PANTRY_API_KEY"), "API key (defaults to PANTRY_API_KEY)")
	rootCmd.PersistentFlags().StringVarP(&ownerFlag, "owner", "o", "", "Owner ID to act on (admin keys only)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
