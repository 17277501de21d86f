package cmd

import (
	"github.com/kerosiinikone/pixelbubble/workers/stylize"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the image service for a UI shell",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stylize.Serve(cmd.Context(), Cfg, nil)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
