package main

import (
	"os"

	"github.com/spf13/cobra"

	contentcmder "github.com/lecternlabs/lectern/cmd/lectern/content"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lectern",
		Short: "Lectern command line tools",
		Long: `Command line tools for the lectern lecture summarizer.

The lectern server (lecternd) ingests lecture audio and transcripts,
streams five-level summaries, and stores the results in a local
SQLite database. This tool inspects that database.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(contentcmder.NewContentCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
