package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "commerce-proxy",
		Short: "Commerce API proxy service",
		Long:  "Run a caching, rate-limit-aware proxy in front of the commerce platform API",
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
