package main

import (
	"github.com/spf13/cobra"

	"github.com/citylab/decayscope/internal/report"
)

var tiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "Summarize code violations by severity tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		violations, err := loadTieredViolations()
		if err != nil {
			return err
		}

		out := struct {
			Total      int                    `json:"total"`
			Mix        []report.CategoryCount `json:"mix"`
			ByYearTier []report.YearTierCount `json:"by_year_tier"`
			ByZip      []report.CategoryCount `json:"by_zip"`
			OpenClosed report.OpenClosedSplit `json:"open_closed"`
		}{
			Total:      len(violations),
			Mix:        report.TierMix(violations),
			ByYearTier: report.ViolationsByYearTier(violations),
		}

		full := report.Build(nil, nil, nil, violations)
		out.ByZip = full.ViolationsByZip
		out.OpenClosed = full.ViolationsOpenClosed

		return writeResult(out)
	},
}

func init() {
	rootCmd.AddCommand(tiersCmd)
}
