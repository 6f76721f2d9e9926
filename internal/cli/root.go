package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"futureswatch/internal/app"
	"futureswatch/internal/config"
	"futureswatch/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	groupName string
	focus     string
	appHandle *app.App
)

var rootCmd = &cobra.Command{
	Use:   "futureswatch",
	Short: "Watch domestic futures quotes for breakouts and spread anomalies",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appHandle != nil {
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if groupName != "" || focus != "" {
			if groupName != "" {
				cfg.Engine.Group = groupName
			}
			if focus != "" {
				cfg.Engine.Focus = focus
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		logger := logging.NewLogger(cfg.Logging)
		appHandle = app.NewApp(cfg, logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")
	rootCmd.PersistentFlags().StringVar(&groupName, "group", "", "Instrument group to watch (e.g. 2605, 2609)")
	rootCmd.PersistentFlags().StringVar(&focus, "focus", "", "Instrument label evaluated for breakouts")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(simulateCmd)
}

func getApp() *app.App {
	if appHandle == nil {
		panic("application not initialized; PersistentPreRunE not executed")
	}
	return appHandle
}
