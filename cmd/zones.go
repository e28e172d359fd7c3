package main

import (
	"github.com/spf13/cobra"

	"github.com/citylab/decayscope/internal/decayindex"
	"github.com/citylab/decayscope/internal/model"
	"github.com/citylab/decayscope/internal/zone"
)

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Classify ZIP codes into decay/crime zone types",
	RunE: func(cmd *cobra.Command, args []string) error {
		decay, err := loadDecayFeatures()
		if err != nil {
			return err
		}
		events, err := loadTaggedEvents(decay, nil)
		if err != nil {
			return err
		}

		stats := decayindex.Stats(events)
		abandoned, zips := decayindex.AbandonmentZones(events, decay)

		out := struct {
			Zones            []model.ZipAggregate      `json:"zones"`
			Proximity        decayindex.ProximityStats `json:"proximity"`
			AbandonmentZips  []string                  `json:"abandonment_zips,omitempty"`
			AbandonmentByZip []decayindex.ZipVacancy   `json:"abandonment_by_zip,omitempty"`
		}{
			Zones:            zone.Classify(events, decay),
			Proximity:        stats,
			AbandonmentZips:  zips,
			AbandonmentByZip: decayindex.VacancyByZip(abandoned),
		}
		return writeResult(out)
	},
}

func init() {
	rootCmd.AddCommand(zonesCmd)
}
