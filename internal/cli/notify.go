package cli

import (
	"github.com/spf13/cobra"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Deliver pending surge alerts and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().NotifyOnce(cmd.Context())
	},
}
