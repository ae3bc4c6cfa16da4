package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"crypto-sentinel/internal/app"
)

var (
	showLimit int
)

var showCmd = &cobra.Command{
	Use:   "show <address> [api-key]",
	Short: "Display recent transfers with their classification flags",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}
		if err := applyAPIKey(args); err != nil {
			return err
		}

		opts := app.ShowOptions{
			Address: args[0],
			Limit:   showLimit,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of transfers of each kind to display")
}
