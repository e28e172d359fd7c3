package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/citylab/decayscope/internal/hotspot"
)

var hotspotCmd = &cobra.Command{
	Use:   "hotspot",
	Short: "Train and evaluate the severity and grid hotspot models",
	RunE: func(cmd *cobra.Command, args []string) error {
		decay, err := loadDecayFeatures()
		if err != nil {
			zap.L().Warn("decay features unavailable, proximity features default to zero", zap.Error(err))
		}
		violations, err := loadTieredViolations()
		if err != nil {
			zap.L().Warn("violations unavailable, violation features default to zero", zap.Error(err))
		}
		events, err := loadTaggedEvents(decay, violations)
		if err != nil {
			return err
		}

		hc := cfg.Hotspot
		out := struct {
			Severity *hotspot.SeverityReport `json:"severity,omitempty"`
			Grid     *hotspot.HotspotReport  `json:"grid,omitempty"`
		}{}

		severity, err := hotspot.TrainSeverityModel(events, hotspot.SeverityConfig{
			Forest: hotspot.ForestConfig{
				NumTrees: hc.NumTrees,
				MaxDepth: hc.MaxDepth,
				MinLeaf:  hc.MinLeaf,
				Seed:     hc.Seed,
			},
			TestFraction:   0.25,
			TopImportances: hc.TopImportances,
		})
		if err != nil {
			zap.L().Warn("severity model skipped", zap.Error(err))
		} else {
			out.Severity = severity
		}

		grid, err := hotspot.TrainHotspotModel(events, hotspot.GridConfig{
			CellSize:         hc.GridCellSize,
			ClusterThreshold: hc.ClusterThreshold,
			TopN:             hc.TopCells,
			Logistic:         hotspot.DefaultLogisticConfig(),
		})
		if err != nil {
			zap.L().Warn("grid model skipped", zap.Error(err))
		} else {
			out.Grid = grid
		}

		return writeResult(out)
	},
}

func init() {
	rootCmd.AddCommand(hotspotCmd)
}
