// Package main provides the entry point for the interview coach HTTP API
// server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "interview_server",
	Short: "AI-assisted mock interview API server",
	Long:  "Interview coach runs AI-assisted mock interviews: it analyzes a candidate's resume, generates interview questions, scores free-text answers and aggregates session analytics over a REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
