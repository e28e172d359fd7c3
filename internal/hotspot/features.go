// Package hotspot trains and evaluates the two supervised models: a
// class-balanced random forest predicting serious incidents from temporal and
// proximity features, and a grid-cell logistic model predicting where
// end-of-year crime clusters will form.
package hotspot

import (
	"time"

	"github.com/citylab/decayscope/internal/model"
)

// SeriousSeverityThreshold is the minimum severity treated as a positive
// label by the severity classifier.
const SeriousSeverityThreshold = 3

// Dataset is an encoded feature matrix with parallel binary labels. Rows
// align with the input events; Names aligns with the feature columns.
type Dataset struct {
	Features [][]float64
	Labels   []int
	Names    []string
}

func (d *Dataset) Len() int { return len(d.Labels) }

// subset returns a view of the dataset restricted to the given row indices.
func (d *Dataset) subset(idx []int) *Dataset {
	out := &Dataset{Names: d.Names}
	out.Features = make([][]float64, len(idx))
	out.Labels = make([]int, len(idx))
	for i, j := range idx {
		out.Features[i] = d.Features[j]
		out.Labels[i] = d.Labels[j]
	}
	return out
}

var (
	seasons     = []string{"winter", "spring", "summer", "fall"}
	timesOfDay  = []string{"night", "morning", "afternoon", "evening"}
	weekdayName = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}
)

func seasonOf(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "fall"
	}
}

func timeOfDayOf(hour int) string {
	switch {
	case hour < 6:
		return "night"
	case hour < 12:
		return "morning"
	case hour < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// EncodeSeverity builds the severity-classifier design matrix: one-hot
// season, time-of-day bucket, and weekday columns plus the numeric temporal
// and proximity features. Missing values encode as zero. The label is 1 when
// the event severity is at or above SeriousSeverityThreshold.
func EncodeSeverity(events []model.CrimeEvent) *Dataset {
	names := make([]string, 0, len(seasons)+len(timesOfDay)+len(weekdayName)+9)
	for _, s := range seasons {
		names = append(names, "season_"+s)
	}
	for _, t := range timesOfDay {
		names = append(names, "time_of_day_"+t)
	}
	for _, w := range weekdayName {
		names = append(names, "weekday_"+w)
	}
	names = append(names,
		"hour", "month", "is_weekend",
		"near_unfit", "near_vacant", "near_decay",
		"violation_count", "violation_severity_score", "has_critical_violation",
	)

	ds := &Dataset{Names: names}
	ds.Features = make([][]float64, 0, len(events))
	ds.Labels = make([]int, 0, len(events))

	for _, ev := range events {
		row := make([]float64, len(names))
		col := 0

		season, tod := "", ""
		weekday := -1
		month := 0.0
		if !ev.Timestamp.IsZero() {
			season = seasonOf(ev.Timestamp.Month())
			weekday = int(ev.Timestamp.Weekday())
			month = float64(ev.Timestamp.Month())
		}
		tod = timeOfDayOf(ev.Hour)

		for _, s := range seasons {
			row[col] = boolFeature(s == season)
			col++
		}
		for _, t := range timesOfDay {
			row[col] = boolFeature(t == tod)
			col++
		}
		for i := range weekdayName {
			row[col] = boolFeature(i == weekday)
			col++
		}

		row[col] = float64(ev.Hour)
		col++
		row[col] = month
		col++
		row[col] = boolFeature(weekday == 0 || weekday == 6)
		col++
		row[col] = boolFeature(ev.NearUnfit)
		col++
		row[col] = boolFeature(ev.NearVacant)
		col++
		row[col] = boolFeature(ev.NearDecay)
		col++
		row[col] = float64(ev.ViolationCount)
		col++
		row[col] = float64(ev.ViolationSeverityScore)
		col++
		row[col] = boolFeature(ev.HasCriticalViolation)

		label := 0
		if ev.Severity >= SeriousSeverityThreshold {
			label = 1
		}
		ds.Features = append(ds.Features, row)
		ds.Labels = append(ds.Labels, label)
	}
	return ds
}
