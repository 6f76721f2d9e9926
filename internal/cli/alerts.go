package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"futureswatch/internal/app"
)

var (
	alertsLimit int
	alertsPrune time.Duration
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Display recently journaled alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if alertsLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		return getApp().Alerts(cmd.Context(), app.AlertsOptions{Limit: alertsLimit, PruneOlderThan: alertsPrune})
	},
}

func init() {
	alertsCmd.Flags().IntVar(&alertsLimit, "limit", 20, "Number of alerts to display")
	alertsCmd.Flags().DurationVar(&alertsPrune, "prune-older-than", 0, "Delete alerts older than this age before listing (e.g. 720h)")
}
