// Package pipeline orchestrates the full analysis run: load the four civic
// datasets, tier the violations, enrich crime events with spatial context,
// then run the zone, causality, classifier, and reporting stages. Each stage
// degrades independently; a failed dataset or model records a section error
// and the rest of the run continues.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/citylab/decayscope/internal/causal"
	"github.com/citylab/decayscope/internal/config"
	"github.com/citylab/decayscope/internal/decayindex"
	"github.com/citylab/decayscope/internal/hotspot"
	"github.com/citylab/decayscope/internal/loader"
	"github.com/citylab/decayscope/internal/model"
	"github.com/citylab/decayscope/internal/report"
	"github.com/citylab/decayscope/internal/spatial"
	"github.com/citylab/decayscope/internal/tier"
	"github.com/citylab/decayscope/internal/zone"
)

// SectionError records one failed stage of a run.
type SectionError struct {
	Section string `json:"section"`
	Message string `json:"message"`
}

// RunResult is the complete output of one pipeline run.
type RunResult struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Diagnostics []loader.Diagnostics `json:"diagnostics"`

	Proximity        *decayindex.ProximityStats `json:"proximity,omitempty"`
	AbandonmentZips  []string                   `json:"abandonment_zips,omitempty"`
	AbandonmentByZip []decayindex.ZipVacancy    `json:"abandonment_by_zip,omitempty"`
	Zones            []model.ZipAggregate       `json:"zones,omitempty"`

	UnfitCausality     *causal.Result         `json:"unfit_causality,omitempty"`
	ViolationCausality *causal.Result         `json:"violation_causality,omitempty"`
	TierCausality      map[int]*causal.Result `json:"tier_causality,omitempty"`

	Severity *hotspot.SeverityReport `json:"severity,omitempty"`
	Hotspots *hotspot.HotspotReport  `json:"hotspots,omitempty"`

	Report *report.Report `json:"report,omitempty"`

	Errors []SectionError `json:"errors,omitempty"`
}

func (r *RunResult) fail(section string, err error) {
	zap.L().Warn("pipeline: section failed",
		zap.String("section", section), zap.Error(err))
	r.Errors = append(r.Errors, SectionError{Section: section, Message: err.Error()})
}

// Runner executes analysis runs and memoizes results by input content hash.
type Runner struct {
	cfg   *config.Config
	cache *resultCache
}

func NewRunner(cfg *config.Config) *Runner {
	return &Runner{cfg: cfg, cache: newResultCache()}
}

// RulesFor overlays any configured keyword overrides on the default tier
// rule set.
func RulesFor(tc config.TierConfig) tier.RuleSet {
	rules := tier.DefaultRuleSet()
	if len(tc.Exclude) > 0 {
		rules.Exclude = tc.Exclude
	}
	if len(tc.Tier1) > 0 {
		rules.Tier1 = tc.Tier1
	}
	if len(tc.Tier2) > 0 {
		rules.Tier2 = tc.Tier2
	}
	if len(tc.Tier3) > 0 {
		rules.Tier3 = tc.Tier3
	}
	if len(tc.KeepComplaintTypes) > 0 {
		rules.KeepComplaintTypes = tc.KeepComplaintTypes
	}
	return rules
}

// Run executes the full pipeline. It returns an error only when nothing can
// be analyzed at all; individual stage failures land in RunResult.Errors.
func (rn *Runner) Run(ctx context.Context) (*RunResult, error) {
	in := rn.cfg.Inputs
	key := contentKey(in.CrimePath, in.UnfitPath, in.VacantPath, in.ViolationsPath)
	if key != "" {
		if cached, ok := rn.cache.get(key); ok {
			return cached, nil
		}
	}

	res, err := rn.runOnce(ctx)
	if err != nil {
		return nil, err
	}
	if key != "" {
		rn.cache.put(key, res)
	}
	return res, nil
}

func (rn *Runner) runOnce(ctx context.Context) (*RunResult, error) {
	res := &RunResult{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	zap.L().Info("pipeline: run started", zap.String("run_id", res.RunID))

	events, unfit, vacant, violations := rn.load(res)
	if events == nil && unfit == nil && vacant == nil && violations == nil {
		return nil, eris.New("pipeline: no dataset could be loaded")
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: run cancelled")
	}

	engine, err := tier.NewEngine(RulesFor(rn.cfg.Tier))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: tier rules")
	}
	violations = engine.Apply(violations)

	decay := decayindex.Union(unfit, vacant)
	events = spatial.TagProximity(events, decay)
	events = spatial.TagViolations(events, violations)
	events = spatial.AssignZips(events, decayindex.Centroids(decay))
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: run cancelled")
	}

	stats := decayindex.Stats(events)
	res.Proximity = &stats
	abandoned, zips := decayindex.AbandonmentZones(events, decay)
	res.AbandonmentZips = zips
	res.AbandonmentByZip = decayindex.VacancyByZip(abandoned)
	res.Zones = zone.Classify(events, decay)

	rn.runCausality(res, events, unfit, violations)
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: run cancelled")
	}

	rn.runClassifiers(res, events)
	res.Report = report.Build(events, unfit, vacant, violations)

	res.FinishedAt = time.Now().UTC()
	zap.L().Info("pipeline: run finished",
		zap.String("run_id", res.RunID),
		zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)),
		zap.Int("section_errors", len(res.Errors)),
	)
	return res, nil
}

// load reads whichever input files it can; a failed dataset records a
// section error and contributes nothing downstream.
func (rn *Runner) load(res *RunResult) (events []model.CrimeEvent, unfit, vacant []model.DecayFeature, violations []model.ViolationRecord) {
	in := rn.cfg.Inputs

	events, diag, err := loader.LoadCrimeFile(in.CrimePath)
	res.Diagnostics = append(res.Diagnostics, diag)
	if err != nil {
		res.fail("load_crime", err)
	}

	unfit, diag, err = loader.LoadUnfitFile(in.UnfitPath)
	res.Diagnostics = append(res.Diagnostics, diag)
	if err != nil {
		res.fail("load_unfit", err)
	}

	vacant, diag, err = loader.LoadVacantFile(in.VacantPath)
	res.Diagnostics = append(res.Diagnostics, diag)
	if err != nil {
		res.fail("load_vacant", err)
	}

	violations, diag, err = loader.LoadViolationsFile(in.ViolationsPath)
	res.Diagnostics = append(res.Diagnostics, diag)
	if err != nil {
		res.fail("load_violations", err)
	}
	return events, unfit, vacant, violations
}

func (rn *Runner) runCausality(res *RunResult, events []model.CrimeEvent, unfit []model.DecayFeature, violations []model.ViolationRecord) {
	crimeSeries := crimeMonthly(events)

	unfitTimes := make([]time.Time, 0, len(unfit))
	for _, f := range unfit {
		unfitTimes = append(unfitTimes, f.Date)
	}
	res.UnfitCausality = causal.TestCausality(
		model.MonthlyCounts(unfitTimes), crimeSeries,
		"unfit properties", "crime",
		causal.SmallSeriesOptions(),
	)

	violationTimes := make([]time.Time, 0, len(violations))
	for _, v := range violations {
		violationTimes = append(violationTimes, v.Date)
	}
	res.ViolationCausality = causal.TestCausality(
		model.MonthlyCounts(violationTimes), crimeSeries,
		"code violations", "crime",
		causal.BidirectionalOptions(),
	)

	// Per-tier series are sparser than the combined one, so they run under
	// the small-series variant.
	tierSeries := report.MonthlyTierSeries(violations)
	if len(tierSeries) > 0 {
		res.TierCausality = make(map[int]*causal.Result, len(tierSeries))
		for tierNum, series := range tierSeries {
			res.TierCausality[tierNum] = causal.TestCausality(
				series, crimeSeries,
				fmt.Sprintf("tier %d violations", tierNum), "crime",
				causal.SmallSeriesOptions(),
			)
		}
	}
}

func (rn *Runner) runClassifiers(res *RunResult, events []model.CrimeEvent) {
	hc := rn.cfg.Hotspot
	sevCfg := hotspot.SeverityConfig{
		Forest: hotspot.ForestConfig{
			NumTrees: hc.NumTrees,
			MaxDepth: hc.MaxDepth,
			MinLeaf:  hc.MinLeaf,
			Seed:     hc.Seed,
		},
		TestFraction:   0.25,
		TopImportances: hc.TopImportances,
	}
	severity, err := hotspot.TrainSeverityModel(events, sevCfg)
	if err != nil {
		res.fail("severity_model", err)
	} else {
		res.Severity = severity
	}

	gridCfg := hotspot.GridConfig{
		CellSize:         hc.GridCellSize,
		ClusterThreshold: hc.ClusterThreshold,
		TopN:             hc.TopCells,
		Logistic:         hotspot.DefaultLogisticConfig(),
	}
	hotspots, err := hotspot.TrainHotspotModel(events, gridCfg)
	if err != nil {
		res.fail("hotspot_model", err)
	} else {
		res.Hotspots = hotspots
	}
}

func crimeMonthly(events []model.CrimeEvent) model.MonthlySeries {
	times := make([]time.Time, 0, len(events))
	for _, ev := range events {
		times = append(times, ev.Timestamp)
	}
	return model.MonthlyCounts(times)
}
