package cli

import (
	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run one surge evaluation pass and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().EvaluateOnce(cmd.Context())
	},
}
