package hotspot

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citylab/decayscope/internal/model"
)

func TestSeasonOf(t *testing.T) {
	assert.Equal(t, "winter", seasonOf(time.January))
	assert.Equal(t, "winter", seasonOf(time.December))
	assert.Equal(t, "spring", seasonOf(time.April))
	assert.Equal(t, "summer", seasonOf(time.July))
	assert.Equal(t, "fall", seasonOf(time.October))
}

func TestTimeOfDayOf(t *testing.T) {
	assert.Equal(t, "night", timeOfDayOf(0))
	assert.Equal(t, "night", timeOfDayOf(5))
	assert.Equal(t, "morning", timeOfDayOf(6))
	assert.Equal(t, "afternoon", timeOfDayOf(13))
	assert.Equal(t, "evening", timeOfDayOf(18))
	assert.Equal(t, "evening", timeOfDayOf(23))
}

func TestEncodeSeverity(t *testing.T) {
	// Wednesday July 16 2025, 14:30, serious, near a vacant parcel.
	ev := model.CrimeEvent{
		Timestamp:              time.Date(2025, 7, 16, 14, 30, 0, 0, time.UTC),
		Hour:                   14,
		Severity:               4,
		NearVacant:             true,
		NearDecay:              true,
		ViolationCount:         3,
		ViolationSeverityScore: 7,
	}
	ds := EncodeSeverity([]model.CrimeEvent{ev})
	require.Equal(t, 1, ds.Len())
	require.Len(t, ds.Names, 24)
	require.Len(t, ds.Features[0], 24)
	assert.Equal(t, 1, ds.Labels[0])

	byName := make(map[string]float64, len(ds.Names))
	for j, name := range ds.Names {
		byName[name] = ds.Features[0][j]
	}
	assert.Equal(t, 1.0, byName["season_summer"])
	assert.Equal(t, 0.0, byName["season_winter"])
	assert.Equal(t, 1.0, byName["time_of_day_afternoon"])
	assert.Equal(t, 1.0, byName["weekday_wednesday"])
	assert.Equal(t, 14.0, byName["hour"])
	assert.Equal(t, 7.0, byName["month"])
	assert.Equal(t, 0.0, byName["is_weekend"])
	assert.Equal(t, 0.0, byName["near_unfit"])
	assert.Equal(t, 1.0, byName["near_vacant"])
	assert.Equal(t, 1.0, byName["near_decay"])
	assert.Equal(t, 3.0, byName["violation_count"])
	assert.Equal(t, 7.0, byName["violation_severity_score"])
	assert.Equal(t, 0.0, byName["has_critical_violation"])
}

func TestEncodeSeverity_MissingTimestamp(t *testing.T) {
	ds := EncodeSeverity([]model.CrimeEvent{{Severity: 1}})
	byName := make(map[string]float64, len(ds.Names))
	for j, name := range ds.Names {
		byName[name] = ds.Features[0][j]
	}
	for _, s := range seasons {
		assert.Zero(t, byName["season_"+s])
	}
	for _, w := range weekdayName {
		assert.Zero(t, byName["weekday_"+w])
	}
	assert.Zero(t, byName["month"])
	assert.Equal(t, 0, ds.Labels[0])
}

func syntheticDataset(n int) *Dataset {
	// Label is determined by feature 0; the other columns are deterministic
	// pseudo-noise so splits on them still partition the rows.
	ds := &Dataset{Names: []string{"signal", "noise_a", "noise_b", "noise_c"}}
	for i := 0; i < n; i++ {
		label := i % 2
		jitter := math.Mod(float64(i)*0.61803, 0.4)
		row := []float64{
			float64(label) + jitter - 0.2,
			math.Mod(float64(i)*1.618, 1),
			math.Mod(float64(i)*2.414, 1),
			math.Mod(float64(i)*3.302, 1),
		}
		ds.Features = append(ds.Features, row)
		ds.Labels = append(ds.Labels, label)
	}
	return ds
}

func TestStratifiedSplit(t *testing.T) {
	ds := syntheticDataset(40)
	train, test := StratifiedSplit(ds, 0.25, 42)

	assert.Equal(t, 40, train.Len()+test.Len())
	assert.Equal(t, 10, test.Len())

	countPos := func(d *Dataset) int {
		n := 0
		for _, y := range d.Labels {
			n += y
		}
		return n
	}
	assert.Equal(t, 5, countPos(test))
	assert.Equal(t, 15, countPos(train))

	// Same seed reproduces the same split.
	train2, test2 := StratifiedSplit(ds, 0.25, 42)
	assert.Equal(t, train.Labels, train2.Labels)
	assert.Equal(t, test.Features, test2.Features)
}

func TestClassBalancedWeights(t *testing.T) {
	w, err := classBalancedWeights([]int{1, 0, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, w[0], 1e-9)
	assert.InDelta(t, 4.0/6.0, w[1], 1e-9)

	_, err = classBalancedWeights([]int{1, 1, 1})
	assert.Error(t, err)
}

func TestTrainForest_SeparableSignal(t *testing.T) {
	ds := syntheticDataset(200)
	forest, err := TrainForest(ds, ForestConfig{NumTrees: 50, MaxDepth: 8, MinLeaf: 2, Seed: 7})
	require.NoError(t, err)

	correct := 0
	for i, row := range ds.Features {
		if forest.Predict(row) == ds.Labels[i] {
			correct++
		}
	}
	assert.GreaterOrEqual(t, float64(correct)/float64(ds.Len()), 0.9)

	imp := forest.Importances()
	sum := 0.0
	for _, v := range imp {
		sum += v
		assert.GreaterOrEqual(t, imp[0], v)
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestTrainForest_SingleClass(t *testing.T) {
	ds := &Dataset{Names: []string{"x"}}
	for i := 0; i < 20; i++ {
		ds.Features = append(ds.Features, []float64{float64(i)})
		ds.Labels = append(ds.Labels, 1)
	}
	_, err := TrainForest(ds, DefaultForestConfig())
	assert.Error(t, err)
}

func TestTrainLogistic_Separable(t *testing.T) {
	var X [][]float64
	var y []int
	for i := 0; i < 100; i++ {
		label := i % 2
		X = append(X, []float64{float64(label)*10 + math.Mod(float64(i)*0.618, 1)})
		y = append(y, label)
	}

	lr, err := TrainLogistic(X, y, DefaultLogisticConfig())
	require.NoError(t, err)

	assert.Greater(t, lr.PredictProba([]float64{10}), 0.9)
	assert.Less(t, lr.PredictProba([]float64{0}), 0.1)
	assert.Equal(t, 1, lr.Predict([]float64{10}))
	assert.Equal(t, 0, lr.Predict([]float64{0}))
}

func TestEvaluate(t *testing.T) {
	actual := []int{1, 1, 1, 0, 0}
	predicted := []int{1, 0, 1, 0, 1}

	ev := Evaluate(actual, predicted)
	assert.InDelta(t, 0.6, ev.Accuracy, 1e-9)
	assert.Equal(t, [2][2]int{{1, 1}, {1, 2}}, ev.Confusion)

	require.Len(t, ev.Classes, 2)
	pos := ev.Classes[1]
	assert.InDelta(t, 2.0/3.0, pos.Precision, 1e-9)
	assert.InDelta(t, 2.0/3.0, pos.Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, pos.F1, 1e-9)
	assert.Equal(t, 3, pos.Support)

	neg := ev.Classes[0]
	assert.InDelta(t, 0.5, neg.Precision, 1e-9)
	assert.InDelta(t, 0.5, neg.Recall, 1e-9)
}

func TestEvaluate_Empty(t *testing.T) {
	ev := Evaluate(nil, nil)
	assert.Zero(t, ev.Accuracy)
}

func severityEvents(n int) []model.CrimeEvent {
	// Serious incidents co-occur with critical violations, so the forest has
	// a clean signal to recover.
	events := make([]model.CrimeEvent, 0, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		serious := i%2 == 0
		ev := model.CrimeEvent{
			Timestamp: base.Add(time.Duration(i) * 13 * time.Hour),
			Hour:      (i * 5) % 24,
			Severity:  1,
		}
		if serious {
			ev.Severity = 4
			ev.HasCriticalViolation = true
			ev.ViolationSeverityScore = 6 + i%3
			ev.ViolationCount = 2
			ev.NearUnfit = true
			ev.NearDecay = true
		}
		events = append(events, ev)
	}
	return events
}

func TestTrainSeverityModel(t *testing.T) {
	report, err := TrainSeverityModel(severityEvents(200), DefaultSeverityConfig())
	require.NoError(t, err)

	assert.Equal(t, 150, report.TrainSize)
	assert.Equal(t, 50, report.TestSize)
	assert.InDelta(t, 0.5, report.PositiveShare, 1e-9)
	assert.GreaterOrEqual(t, report.Eval.Accuracy, 0.9)

	require.NotEmpty(t, report.Importances)
	assert.LessOrEqual(t, len(report.Importances), 10)
	for i := 1; i < len(report.Importances); i++ {
		assert.GreaterOrEqual(t, report.Importances[i-1].Weight, report.Importances[i].Weight)
	}
}

func TestTrainSeverityModel_TooFewEvents(t *testing.T) {
	_, err := TrainSeverityModel(severityEvents(10), DefaultSeverityConfig())
	assert.Error(t, err)
}

func gridEvents() []model.CrimeEvent {
	// One chronic cell with heavy year-round activity, eight quiet cells
	// with sparse activity and no Q4 crime.
	var events []model.CrimeEvent
	hotLat, hotLon := 43.0475, -76.1475
	for year := 2023; year <= 2025; year++ {
		for i := 0; i < 45; i++ {
			events = append(events, model.CrimeEvent{
				Geo:       model.GeoPoint{Lat: hotLat, Lon: hotLon},
				Timestamp: time.Date(year, time.Month(1+i%9), 1+i%27, 12, 0, 0, 0, time.UTC),
				Severity:  1 + 3*(i%2),
			})
		}
		for i := 0; i < 20; i++ {
			events = append(events, model.CrimeEvent{
				Geo:       model.GeoPoint{Lat: hotLat, Lon: hotLon},
				Timestamp: time.Date(year, time.Month(10+i%3), 1+i%27, 12, 0, 0, 0, time.UTC),
				Severity:  2,
			})
		}
		for cell := 0; cell < 8; cell++ {
			for i := 0; i < 2; i++ {
				events = append(events, model.CrimeEvent{
					Geo:       model.GeoPoint{Lat: hotLat + 0.01*float64(cell+1), Lon: hotLon},
					Timestamp: time.Date(year, time.Month(2+i), 5, 12, 0, 0, 0, time.UTC),
					Severity:  1,
				})
			}
		}
	}
	return events
}

func TestTrainHotspotModel(t *testing.T) {
	report, err := TrainHotspotModel(gridEvents(), DefaultGridConfig())
	require.NoError(t, err)

	assert.Equal(t, []int{2023, 2024, 2025}, report.Years)
	require.NotEmpty(t, report.Top)
	assert.LessOrEqual(t, len(report.Top), 10)

	hot := report.Top[0]
	assert.InDelta(t, 43.0475, hot.LatCenter, 1e-9)
	assert.InDelta(t, -76.1475, hot.LonCenter, 1e-9)
	assert.InDelta(t, 20.0, hot.AvgFutureCrimes, 1e-9)
	assert.Equal(t, 3, hot.Years)

	// The chronic cell outranks every quiet cell.
	for _, c := range report.Cells[1:] {
		assert.Greater(t, hot.RiskScore, c.RiskScore)
	}
}

func TestTrainHotspotModel_NoUsableYears(t *testing.T) {
	// Every cell quiet in Q4: single-class labels each year.
	var events []model.CrimeEvent
	for i := 0; i < 30; i++ {
		events = append(events, model.CrimeEvent{
			Geo:       model.GeoPoint{Lat: 43.0 + 0.01*float64(i%5), Lon: -76.1},
			Timestamp: time.Date(2024, time.Month(1+i%9), 3, 12, 0, 0, 0, time.UTC),
		})
	}
	_, err := TrainHotspotModel(events, DefaultGridConfig())
	assert.Error(t, err)
}

func TestCellOf(t *testing.T) {
	k := cellOf(43.0475, -76.1475, 0.005)
	assert.Equal(t, 8609, k.row)
	assert.Equal(t, -15230, k.col)

	// Negative coordinates floor toward minus infinity.
	assert.Equal(t, cellKey{row: -1, col: -1}, cellOf(-0.001, -0.001, 0.005))
}
