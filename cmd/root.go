package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/citylab/decayscope/internal/config"
)

var cfg *config.Config

var (
	flagCrime      string
	flagUnfit      string
	flagVacant     string
	flagViolations string
	flagOut        string
)

var rootCmd = &cobra.Command{
	Use:   "decayscope",
	Short: "Urban decay and crime spatial-statistical analysis",
	Long:  "Loads the city's crime, unfit-property, vacancy, and code-violation exports, then runs proximity joins, neighborhood classification, Granger causality tests, and hotspot models.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if flagCrime != "" {
			cfg.Inputs.CrimePath = flagCrime
		}
		if flagUnfit != "" {
			cfg.Inputs.UnfitPath = flagUnfit
		}
		if flagVacant != "" {
			cfg.Inputs.VacantPath = flagVacant
		}
		if flagViolations != "" {
			cfg.Inputs.ViolationsPath = flagViolations
		}
		if flagOut != "" {
			cfg.Output.Path = flagOut
		}

		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagCrime, "crime", "", "crime events CSV path (overrides config)")
	pf.StringVar(&flagUnfit, "unfit", "", "unfit properties CSV path (overrides config)")
	pf.StringVar(&flagVacant, "vacant", "", "vacant property registry CSV path (overrides config)")
	pf.StringVar(&flagViolations, "violations", "", "code violations CSV path (overrides config)")
	pf.StringVarP(&flagOut, "out", "o", "", "write JSON results to this file instead of stdout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
