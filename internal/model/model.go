// Package model defines the canonical typed records produced by the loaders
// and consumed by every analysis stage. All values are built once per run and
// treated as read-only afterwards.
package model

import (
	"math"
	"sort"
	"time"
)

// GeoPoint is a location in decimal degrees. Records with a missing or
// non-finite coordinate are dropped at the loader boundary and never reach
// the analysis core.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether both coordinates are finite and inside the
// plausible lat/lon range.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180 && !(p.Lat == 0 && p.Lon == 0)
}

// FeatureKind distinguishes the two sources of physical decay points.
type FeatureKind string

const (
	KindUnfitProperty  FeatureKind = "Unfit Property"
	KindVacantProperty FeatureKind = "Vacant Property"
)

// DecayFeature is one point-located record of physical property
// deterioration: either an unfit-property citation or a vacancy
// registration.
type DecayFeature struct {
	ID       string      `json:"id"`
	Geo      GeoPoint    `json:"geo"`
	ZipCode  string      `json:"zip_code"`
	Kind     FeatureKind `json:"kind"`
	IsActive bool        `json:"is_active"`
	Tier     int         `json:"tier,omitempty"` // only set for violation-sourced features
	Date     time.Time   `json:"date,omitempty"` // citation date; zero for vacancy registrations
}

// DecayZone is the 4-way proximity label attached to each crime event.
type DecayZone string

const (
	ZoneNeither        DecayZone = "Neither"
	ZoneNearUnfitOnly  DecayZone = "Near Unfit Only"
	ZoneNearVacantOnly DecayZone = "Near Vacant Only"
	ZoneNearBoth       DecayZone = "Near Both"
)

// DecayZoneFor derives the zone label from the two proximity flags.
func DecayZoneFor(nearUnfit, nearVacant bool) DecayZone {
	switch {
	case nearUnfit && nearVacant:
		return ZoneNearBoth
	case nearUnfit:
		return ZoneNearUnfitOnly
	case nearVacant:
		return ZoneNearVacantOnly
	default:
		return ZoneNeither
	}
}

// CrimeEvent is one reported incident. The proximity and violation fields
// are derived attributes attached once by the spatial join stage.
type CrimeEvent struct {
	ID            string    `json:"id"`
	Geo           GeoPoint  `json:"geo"`
	Timestamp     time.Time `json:"timestamp"`
	Hour          int       `json:"hour"`
	CrimeType     string    `json:"crime_type"`
	Severity      int       `json:"severity"`
	QualityOfLife bool      `json:"quality_of_life"`

	ZipCode string `json:"zip_code,omitempty"` // assigned via nearest decay centroid

	NearUnfit  bool      `json:"near_unfit"`
	NearVacant bool      `json:"near_vacant"`
	NearDecay  bool      `json:"near_decay"` // invariant: NearUnfit || NearVacant
	DecayZone  DecayZone `json:"decay_zone"`

	ViolationCount         int  `json:"violation_count"`
	ViolationSeverityScore int  `json:"violation_severity_score"`
	HasCriticalViolation   bool `json:"has_critical_violation"`
}

// ViolationStatus is the resolution state of a code violation.
type ViolationStatus string

const (
	StatusOpen   ViolationStatus = "Open"
	StatusClosed ViolationStatus = "Closed"
)

// ViolationRecord is one code-violation citation after tier assignment.
// Tier-0 (administrative) records are filtered out before downstream use.
type ViolationRecord struct {
	ID            string          `json:"id"`
	Geo           GeoPoint        `json:"geo"`
	ZipCode       string          `json:"zip_code"`
	Neighborhood  string          `json:"neighborhood,omitempty"`
	ComplaintType string          `json:"complaint_type"`
	ViolationText string          `json:"violation_text"`
	Tier          int             `json:"tier"` // 3=Structural/Critical, 2=Systems Failure, 1=Environmental Neglect
	Status        ViolationStatus `json:"status"`
	Date          time.Time       `json:"date"`
}

// IsOpen reports whether the violation is unresolved.
func (v ViolationRecord) IsOpen() bool { return v.Status == StatusOpen }

// TierLabel returns the human severity label for a tier value. The numeric
// values are inverted relative to the label numbering: tier 3 carries the
// "Tier 1 — Structural / Critical" label. Downstream severity scoring sums
// the numeric values, so the inversion is part of the external contract.
func TierLabel(tier int) string {
	switch tier {
	case 3:
		return "Structural / Critical"
	case 2:
		return "Systems Failure"
	case 1:
		return "Environmental Neglect"
	default:
		return "Excluded"
	}
}

// ZoneType is the composite classification of a ZIP code.
type ZoneType string

const (
	ZoneTypeA   ZoneType = "Type A — Crime-Blight Feedback"
	ZoneTypeB   ZoneType = "Type B — Economic Abandonment"
	ZoneTypeC   ZoneType = "Type C — Infrastructure Decay"
	ZoneLowRisk ZoneType = "Low Risk / Monitoring"
)

// ZipAggregate is one row of the neighborhood classification: per-ZIP crime
// and decay statistics with the zone taxonomy and composite risk score.
type ZipAggregate struct {
	ZipCode       string   `json:"zip_code"`
	CrimeCount    int      `json:"crime_count"`
	UnfitCount    int      `json:"unfit_count"`
	VacantCount   int      `json:"vacant_count"`
	DecayScore    int      `json:"decay_score"` // unfit + vacant
	UnfitRatio    float64  `json:"unfit_ratio"`
	TotalUnfit    int      `json:"total_unfit"`
	OpenUnfit     int      `json:"open_unfit"`
	PctUnresolved float64  `json:"pct_unresolved"`
	ZoneType      ZoneType `json:"zone_type"`
	RiskScore     float64  `json:"risk_score"` // 0-100 composite
}

// MonthlyCount is one period of a monthly time series. Period is the first
// instant of the month in UTC.
type MonthlyCount struct {
	Period time.Time `json:"period"`
	Count  float64   `json:"count"`
}

// MonthlySeries is a monthly count series ordered by period.
type MonthlySeries []MonthlyCount

// MonthOf truncates t to the first instant of its month in UTC.
func MonthOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthlyCounts groups timestamps into an ordered monthly series.
func MonthlyCounts(times []time.Time) MonthlySeries {
	byMonth := make(map[time.Time]float64)
	for _, t := range times {
		if t.IsZero() {
			continue
		}
		byMonth[MonthOf(t)]++
	}
	series := make(MonthlySeries, 0, len(byMonth))
	for period, n := range byMonth {
		series = append(series, MonthlyCount{Period: period, Count: n})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Period.Before(series[j].Period) })
	return series
}
