package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"futureswatch/internal/app"
)

var (
	replayFile    string
	replayStep    time.Duration
	replayJournal bool
	replayNotify  bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "回放录制的行情 CSV 并打印告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayFile == "" {
			return errors.New("--file 不能为空")
		}

		opts := app.ReplayOptions{
			File:    replayFile,
			Step:    replayStep,
			Journal: replayJournal,
			Notify:  replayNotify,
		}
		return getApp().Replay(cmd.Context(), opts)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayFile, "file", "", "CSV with columns tick,symbol,name,open,high,low,last")
	replayCmd.Flags().DurationVar(&replayStep, "step", 0, "Simulated time between ticks (defaults to scheduler.fast_interval)")
	replayCmd.Flags().BoolVar(&replayJournal, "journal", false, "Write replayed rows and alerts to the database")
	replayCmd.Flags().BoolVar(&replayNotify, "notify", false, "Send replayed alerts through configured channels")
}
