package main

import (
	"fmt"
	"os"

	"carprice/internal/cfg"
	"carprice/internal/common"
	"carprice/internal/logging"
	"carprice/internal/ml"

	"github.com/spf13/cobra"
)

var (
	cfgPath  string
	logLevel string

	settings cfg.Settings
)

var rootCmd = &cobra.Command{
	Use:           "carprice",
	Short:         "Used car price estimation service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgPath != "" {
			if err := os.Setenv(common.EnvConfigFile, cfgPath); err != nil {
				return err
			}
		}
		s, err := cfg.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			s.LogLevel = logLevel
		}
		if err := logging.Setup(s.LogLevel, s.LogFormat); err != nil {
			return err
		}
		settings = s
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "YAML configuration file (overrides CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
}

func modelConfig(s cfg.Settings) ml.Config {
	c := ml.DefaultConfig()
	c.Samples = s.Samples
	c.Seed = s.Seed
	c.Boosting = s.Boosting
	return c
}
