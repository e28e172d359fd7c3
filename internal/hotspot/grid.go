package hotspot

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/citylab/decayscope/internal/model"
)

// GridConfig controls the grid hotspot model.
type GridConfig struct {
	// CellSize is the grid resolution in decimal degrees. 0.005 is roughly a
	// 400-500 m block at mid latitudes.
	CellSize float64
	// ClusterThreshold is the minimum October-December crime count for a
	// cell to be labelled a cluster.
	ClusterThreshold int
	// TopN is how many highest-risk cells to report.
	TopN     int
	Logistic LogisticConfig
}

func DefaultGridConfig() GridConfig {
	return GridConfig{
		CellSize:         0.005,
		ClusterThreshold: 5,
		TopN:             10,
		Logistic:         DefaultLogisticConfig(),
	}
}

// GridCell is one scored cell of the hotspot report. RiskScore is the mean
// predicted cluster probability across the modelled years.
type GridCell struct {
	LatCenter       float64 `json:"lat_center"`
	LonCenter       float64 `json:"lon_center"`
	RiskScore       float64 `json:"risk_score"`
	AvgFutureCrimes float64 `json:"avg_future_crimes"`
	Years           int     `json:"years"`
}

// HotspotReport holds every scored cell plus the top-N persistent hotspots.
type HotspotReport struct {
	Cells []GridCell `json:"cells"`
	Top   []GridCell `json:"top"`
	Years []int      `json:"years"`
}

type cellKey struct{ row, col int }

type cellYear struct {
	histCount    float64
	seriousCount float64
	futureCount  float64
}

func cellOf(lat, lon, size float64) cellKey {
	return cellKey{row: int(math.Floor(lat / size)), col: int(math.Floor(lon / size))}
}

// TrainHotspotModel fits one class-balanced logistic model per calendar
// year: January-September cell features (crime count and serious share)
// against an October-December cluster label, then averages predicted risk
// across years. Years whose labels collapse to a single class are skipped.
func TrainHotspotModel(events []model.CrimeEvent, cfg GridConfig) (*HotspotReport, error) {
	byYear := make(map[int]map[cellKey]*cellYear)
	for _, ev := range events {
		if ev.Timestamp.IsZero() || !ev.Geo.Valid() {
			continue
		}
		year := ev.Timestamp.UTC().Year()
		cells, ok := byYear[year]
		if !ok {
			cells = make(map[cellKey]*cellYear)
			byYear[year] = cells
		}
		key := cellOf(ev.Geo.Lat, ev.Geo.Lon, cfg.CellSize)
		cy := cells[key]
		if cy == nil {
			cy = &cellYear{}
			cells[key] = cy
		}
		month := ev.Timestamp.UTC().Month()
		switch {
		case month <= 9:
			cy.histCount++
			if ev.Severity >= SeriousSeverityThreshold {
				cy.seriousCount++
			}
		default:
			cy.futureCount++
		}
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	type agg struct {
		riskSum   float64
		futureSum float64
		years     int
	}
	totals := make(map[cellKey]*agg)
	var modelled []int

	for _, year := range years {
		cells := byYear[year]
		keys := make([]cellKey, 0, len(cells))
		for k := range cells {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].row != keys[j].row {
				return keys[i].row < keys[j].row
			}
			return keys[i].col < keys[j].col
		})

		X := make([][]float64, 0, len(keys))
		y := make([]int, 0, len(keys))
		for _, k := range keys {
			cy := cells[k]
			seriousShare := 0.0
			if cy.histCount > 0 {
				seriousShare = cy.seriousCount / cy.histCount
			}
			X = append(X, []float64{cy.histCount, seriousShare})
			label := 0
			if cy.futureCount >= float64(cfg.ClusterThreshold) {
				label = 1
			}
			y = append(y, label)
		}

		lr, err := TrainLogistic(X, y, cfg.Logistic)
		if err != nil {
			zap.L().Warn("hotspot: grid year skipped",
				zap.Int("year", year), zap.Error(err))
			continue
		}
		modelled = append(modelled, year)

		for i, k := range keys {
			a := totals[k]
			if a == nil {
				a = &agg{}
				totals[k] = a
			}
			a.riskSum += lr.PredictProba(X[i])
			a.futureSum += cells[k].futureCount
			a.years++
		}
	}

	if len(modelled) == 0 {
		return nil, eris.New("hotspot: no year had both cluster and non-cluster cells")
	}

	report := &HotspotReport{Years: modelled}
	for k, a := range totals {
		report.Cells = append(report.Cells, GridCell{
			LatCenter:       (float64(k.row) + 0.5) * cfg.CellSize,
			LonCenter:       (float64(k.col) + 0.5) * cfg.CellSize,
			RiskScore:       a.riskSum / float64(a.years),
			AvgFutureCrimes: a.futureSum / float64(a.years),
			Years:           a.years,
		})
	}
	sort.SliceStable(report.Cells, func(i, j int) bool {
		if report.Cells[i].RiskScore != report.Cells[j].RiskScore {
			return report.Cells[i].RiskScore > report.Cells[j].RiskScore
		}
		if report.Cells[i].LatCenter != report.Cells[j].LatCenter {
			return report.Cells[i].LatCenter < report.Cells[j].LatCenter
		}
		return report.Cells[i].LonCenter < report.Cells[j].LonCenter
	})

	top := cfg.TopN
	if top > len(report.Cells) {
		top = len(report.Cells)
	}
	report.Top = report.Cells[:top]

	zap.L().Info("hotspot: grid model trained",
		zap.Ints("years", modelled),
		zap.Int("cells", len(report.Cells)),
	)
	return report, nil
}
