package main

import (
	"github.com/spf13/cobra"

	"github.com/citylab/decayscope/internal/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full analysis pipeline",
	Long:  "Loads all four datasets and runs every stage: violation tiering, spatial joins, neighborhood classification, causality tests, hotspot models, and the aggregate report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := pipeline.NewRunner(cfg)
		res, err := runner.Run(cmd.Context())
		if err != nil {
			return err
		}
		return writeResult(res)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
