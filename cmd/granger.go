package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/citylab/decayscope/internal/causal"
	"github.com/citylab/decayscope/internal/loader"
	"github.com/citylab/decayscope/internal/model"
	"github.com/citylab/decayscope/internal/report"
)

var grangerCmd = &cobra.Command{
	Use:   "granger",
	Short: "Run Granger causality tests between decay and crime series",
	Long:  "Tests whether monthly unfit-property citations predict monthly crime (small-series variant) and whether code violations and crime predict each other (bidirectional variant).",
	RunE: func(cmd *cobra.Command, args []string) error {
		events, _, err := loader.LoadCrimeFile(cfg.Inputs.CrimePath)
		if err != nil {
			return err
		}
		crimeTimes := make([]time.Time, 0, len(events))
		for _, ev := range events {
			crimeTimes = append(crimeTimes, ev.Timestamp)
		}
		crimeSeries := model.MonthlyCounts(crimeTimes)

		out := struct {
			Unfit      *causal.Result         `json:"unfit,omitempty"`
			Violations *causal.Result         `json:"violations,omitempty"`
			Tiers      map[int]*causal.Result `json:"tiers,omitempty"`
		}{}

		if unfit, _, err := loader.LoadUnfitFile(cfg.Inputs.UnfitPath); err == nil {
			times := make([]time.Time, 0, len(unfit))
			for _, f := range unfit {
				times = append(times, f.Date)
			}
			out.Unfit = causal.TestCausality(
				model.MonthlyCounts(times), crimeSeries,
				"unfit properties", "crime",
				causal.SmallSeriesOptions(),
			)
		}

		if violations, err := loadTieredViolations(); err == nil {
			times := make([]time.Time, 0, len(violations))
			for _, v := range violations {
				times = append(times, v.Date)
			}
			out.Violations = causal.TestCausality(
				model.MonthlyCounts(times), crimeSeries,
				"code violations", "crime",
				causal.BidirectionalOptions(),
			)

			tierSeries := report.MonthlyTierSeries(violations)
			if len(tierSeries) > 0 {
				out.Tiers = make(map[int]*causal.Result, len(tierSeries))
				for tierNum, series := range tierSeries {
					out.Tiers[tierNum] = causal.TestCausality(
						series, crimeSeries,
						fmt.Sprintf("tier %d violations", tierNum), "crime",
						causal.SmallSeriesOptions(),
					)
				}
			}
		}

		return writeResult(out)
	},
}

func init() {
	rootCmd.AddCommand(grangerCmd)
}
