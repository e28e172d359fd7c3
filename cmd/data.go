package main

import (
	"github.com/rotisserie/eris"

	"github.com/citylab/decayscope/internal/decayindex"
	"github.com/citylab/decayscope/internal/loader"
	"github.com/citylab/decayscope/internal/model"
	"github.com/citylab/decayscope/internal/pipeline"
	"github.com/citylab/decayscope/internal/spatial"
	"github.com/citylab/decayscope/internal/tier"
)

// loadTieredViolations loads the code violations and applies the severity
// rules.
func loadTieredViolations() ([]model.ViolationRecord, error) {
	violations, _, err := loader.LoadViolationsFile(cfg.Inputs.ViolationsPath)
	if err != nil {
		return nil, err
	}
	engine, err := tier.NewEngine(pipeline.RulesFor(cfg.Tier))
	if err != nil {
		return nil, err
	}
	return engine.Apply(violations), nil
}

// loadDecayFeatures loads and unions the unfit and vacant datasets. Either
// dataset may be missing as long as one loads.
func loadDecayFeatures() ([]model.DecayFeature, error) {
	unfit, _, unfitErr := loader.LoadUnfitFile(cfg.Inputs.UnfitPath)
	vacant, _, vacantErr := loader.LoadVacantFile(cfg.Inputs.VacantPath)
	if unfitErr != nil && vacantErr != nil {
		return nil, eris.Wrap(unfitErr, "no decay dataset loaded")
	}
	return decayindex.Union(unfit, vacant), nil
}

// loadTaggedEvents loads crime events enriched with proximity flags, ZIP
// assignment, and violation aggregates.
func loadTaggedEvents(decay []model.DecayFeature, violations []model.ViolationRecord) ([]model.CrimeEvent, error) {
	events, _, err := loader.LoadCrimeFile(cfg.Inputs.CrimePath)
	if err != nil {
		return nil, err
	}
	events = spatial.TagProximity(events, decay)
	events = spatial.TagViolations(events, violations)
	events = spatial.AssignZips(events, decayindex.Centroids(decay))
	return events, nil
}
