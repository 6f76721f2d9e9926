package cli

import (
	"github.com/spf13/cobra"

	"futureswatch/internal/app"
)

var (
	simulateDirection string
	simulatePrice     float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一次突破并触发告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SimulateAlert(cmd.Context(), app.SimulateOptions{
			Direction: simulateDirection,
			Price:     simulatePrice,
		})
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateDirection, "direction", "LONG", "LONG 或 SHORT")
	simulateCmd.Flags().Float64Var(&simulatePrice, "price", 8000, "盘整区间基准价")
}
