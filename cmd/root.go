package cmd

import (
	"fmt"
	"log"
	"os"

	"clipcut/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "clipcut",
	Short: "ClipCut is a timeline-driven video editor backend.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting ClipCut server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
