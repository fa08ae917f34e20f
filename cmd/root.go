package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aldrones/groundrisk/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "groundrisk",
	Short: "Population exposure analysis for drone flight plans",
	Long: "Intersects the safety-margin layers of a flight plan with the IBGE Census 2022 " +
		"statistical grid and checks the resulting population densities against the " +
		"ground-risk limits.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
