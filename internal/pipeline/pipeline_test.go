package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citylab/decayscope/internal/config"
	"github.com/citylab/decayscope/internal/tier"
)

const (
	hotLat = 43.0475
	hotLon = -76.1475
)

// writeFixtures generates a three-year synthetic city: one chronic block
// with year-round crime, unfit citations, vacancies, and code violations,
// plus quiet blocks with sparse activity.
func writeFixtures(t *testing.T) config.InputConfig {
	t.Helper()
	dir := t.TempDir()

	var crime strings.Builder
	crime.WriteString("dateend,timestart,lat,long,code_defined,severity,qualityoflife\n")
	for year := 2023; year <= 2025; year++ {
		for month := 1; month <= 12; month++ {
			for d := 0; d < 4; d++ {
				severity := 1
				if d%2 == 0 {
					severity = 4
				}
				fmt.Fprintf(&crime, "%d-%02d-%02d 13:00:00,1300,%f,%f,LARCENY,%d,false\n",
					year, month, 3+d*5, hotLat, hotLon, severity)
			}
		}
		for cell := 0; cell < 8; cell++ {
			fmt.Fprintf(&crime, "%d-02-10 09:30:00,0930,%f,%f,HARASSMENT,1,true\n",
				year, hotLat+0.02*float64(cell+1), hotLon)
		}
	}

	var unfit strings.Builder
	unfit.WriteString("violation_date,latitude,longitude,zip,status_type_name\n")
	for year := 2023; year <= 2025; year++ {
		for month := 1; month <= 12; month++ {
			status := "Open"
			if month%3 == 0 {
				status = "Closed"
			}
			fmt.Fprintf(&unfit, "%d-%02d-05,%f,%f,13205,%s\n", year, month, hotLat, hotLon, status)
			if month >= 6 && month <= 8 {
				fmt.Fprintf(&unfit, "%d-%02d-20,%f,%f,13205,Open\n", year, month, hotLat, hotLon)
			}
		}
	}

	var vacant strings.Builder
	vacant.WriteString("latitude,longitude,zip,vpr_valid\n")
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&vacant, "%f,%f,13205,N\n", hotLat+0.0001*float64(i), hotLon)
	}

	var violations strings.Builder
	violations.WriteString("violation_date,complaint_type_name,violation,latitude,longitude,complaint_zip,status_type_name,neighborhood\n")
	for year := 2023; year <= 2025; year++ {
		for month := 1; month <= 12; month++ {
			fmt.Fprintf(&violations, "%d-%02d-08,Fire Safety,SPMC 308.1 rubbish accumulation,%f,%f,13205,Open,Southside\n",
				year, month, hotLat, hotLon)
			fmt.Fprintf(&violations, "%d-%02d-18,Property Maintenance-Int,504.1 plumbing fixture leak,%f,%f,13205,Closed,Southside\n",
				year, month, hotLat, hotLon)
			if month >= 10 {
				fmt.Fprintf(&violations, "%d-%02d-22,Vacant Lot,27-72 overgrowth at rear lot,%f,%f,13205,Open,Southside\n",
					year, month, hotLat, hotLon)
			}
		}
	}

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}
	return config.InputConfig{
		CrimePath:      write("crime.csv", crime.String()),
		UnfitPath:      write("unfit.csv", unfit.String()),
		VacantPath:     write("vacant.csv", vacant.String()),
		ViolationsPath: write("violations.csv", violations.String()),
	}
}

func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{Inputs: writeFixtures(t)}
	cfg.Hotspot.NumTrees = 30
	cfg.Hotspot.MaxDepth = 8
	cfg.Hotspot.MinLeaf = 3
	cfg.Hotspot.Seed = 42
	cfg.Hotspot.TopImportances = 10
	cfg.Hotspot.GridCellSize = 0.005
	cfg.Hotspot.ClusterThreshold = 5
	cfg.Hotspot.TopCells = 10
	return cfg
}

func TestRun_EndToEnd(t *testing.T) {
	rn := NewRunner(testConfig(t))
	res, err := rn.Run(context.Background())
	require.NoError(t, err)

	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err)
	assert.False(t, res.FinishedAt.Before(res.StartedAt))
	assert.Empty(t, res.Errors)
	require.Len(t, res.Diagnostics, 4)
	assert.Equal(t, "crime", res.Diagnostics[0].Dataset)

	// Every hot-block event sits within 100m of unfit and vacant features.
	require.NotNil(t, res.Proximity)
	assert.Equal(t, 168, res.Proximity.Events)
	assert.Equal(t, 144, res.Proximity.NearBothN)

	require.NotEmpty(t, res.Zones)
	assert.Equal(t, "13205", res.Zones[0].ZipCode)

	// All vacancies sit in the single (low-crime-by-definition) ZIP.
	assert.Equal(t, []string{"13205"}, res.AbandonmentZips)
	require.Len(t, res.AbandonmentByZip, 1)
	assert.Equal(t, "13205", res.AbandonmentByZip[0].ZipCode)
	assert.Equal(t, 5, res.AbandonmentByZip[0].Vacancies)

	// 36 overlapping months for both causal variants.
	require.NotNil(t, res.UnfitCausality)
	assert.True(t, res.UnfitCausality.OK)
	require.NotNil(t, res.ViolationCausality)
	assert.True(t, res.ViolationCausality.OK)
	assert.NotNil(t, res.ViolationCausality.AtoB)
	assert.NotNil(t, res.ViolationCausality.BtoA)

	// The fixture violations split across tiers 1 and 2; each tier series
	// gets its own small-series causality result.
	require.Len(t, res.TierCausality, 2)
	require.NotNil(t, res.TierCausality[1])
	assert.True(t, res.TierCausality[1].OK)
	require.NotNil(t, res.TierCausality[2])
	assert.True(t, res.TierCausality[2].OK)

	require.NotNil(t, res.Severity)
	assert.Positive(t, res.Severity.TrainSize)
	require.NotNil(t, res.Hotspots)
	assert.Equal(t, []int{2023, 2024, 2025}, res.Hotspots.Years)
	require.NotEmpty(t, res.Hotspots.Top)
	assert.InDelta(t, hotLat, res.Hotspots.Top[0].LatCenter, 0.005)

	require.NotNil(t, res.Report)
	assert.Equal(t, 168, res.Report.KPI.TotalCrimes)
	assert.Equal(t, 81, res.Report.KPI.TotalViolations)
}

func TestRun_MemoizesByContentHash(t *testing.T) {
	rn := NewRunner(testConfig(t))

	first, err := rn.Run(context.Background())
	require.NoError(t, err)
	second, err := rn.Run(context.Background())
	require.NoError(t, err)

	// Identical inputs return the cached result, same run ID included.
	assert.Same(t, first, second)
}

func TestRun_CacheInvalidatesOnInputChange(t *testing.T) {
	cfg := testConfig(t)
	rn := NewRunner(cfg)

	first, err := rn.Run(context.Background())
	require.NoError(t, err)

	// Append one crime row; the content hash changes and the run recomputes.
	f, err := os.OpenFile(cfg.Inputs.CrimePath, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = fmt.Fprintf(f, "2025-06-01 10:00:00,1000,%f,%f,LARCENY,2,false\n", hotLat, hotLon)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	second, err := rn.Run(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Proximity.Events+1, second.Proximity.Events)
}

func TestRun_MissingDatasetDegrades(t *testing.T) {
	cfg := testConfig(t)
	cfg.Inputs.ViolationsPath = filepath.Join(t.TempDir(), "missing.csv")
	rn := NewRunner(cfg)

	res, err := rn.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "load_violations", res.Errors[0].Section)

	// Violation-free run: zones and the unfit causality still compute, the
	// bidirectional test reports insufficient data as a structured result.
	assert.NotEmpty(t, res.Zones)
	require.NotNil(t, res.ViolationCausality)
	assert.False(t, res.ViolationCausality.OK)
	assert.Contains(t, res.ViolationCausality.Reason, "insufficient data")
}

func TestRun_NothingLoadable(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	cfg.Inputs = config.InputConfig{
		CrimePath:      filepath.Join(dir, "a.csv"),
		UnfitPath:      filepath.Join(dir, "b.csv"),
		VacantPath:     filepath.Join(dir, "c.csv"),
		ViolationsPath: filepath.Join(dir, "d.csv"),
	}
	rn := NewRunner(cfg)

	_, err := rn.Run(context.Background())
	assert.Error(t, err)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rn := NewRunner(testConfig(t))
	_, err := rn.Run(ctx)
	assert.Error(t, err)
}

func TestRulesFor(t *testing.T) {
	defaults := RulesFor(config.TierConfig{})
	assert.Equal(t, tier.DefaultRuleSet(), defaults)

	custom := RulesFor(config.TierConfig{Tier3: []string{"graffiti"}})
	assert.Equal(t, []string{"graffiti"}, custom.Tier3)
	assert.Equal(t, tier.DefaultRuleSet().Tier1, custom.Tier1)
}

func TestContentKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0644))

	k1 := contentKey(path)
	require.NotEmpty(t, k1)
	assert.Equal(t, k1, contentKey(path))

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,3\n"), 0644))
	assert.NotEqual(t, k1, contentKey(path))

	// Unreadable inputs disable memoization.
	assert.Empty(t, contentKey(filepath.Join(dir, "missing.csv")))
}
