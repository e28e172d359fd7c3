// Package tier classifies code-violation records into severity tiers by
// keyword matching against a prioritized rule list.
package tier

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/citylab/decayscope/internal/model"
)

// RuleSet is the immutable keyword configuration for an Engine. Matching is
// case-insensitive substring, first match wins, in priority order:
// exclusion, then Tier1 (structural/critical, numeric tier 3), Tier2
// (systems failure, numeric tier 2), Tier3 (environmental neglect, numeric
// tier 1). KeepComplaintTypes, when non-empty, restricts batch application
// to physical-decay complaint categories.
type RuleSet struct {
	Exclude []string
	Tier1   []string
	Tier2   []string
	Tier3   []string

	KeepComplaintTypes []string
}

// DefaultRuleSet returns the production rule list tuned to the city's code
// enforcement vocabulary (property maintenance code sections plus free-text
// phrases).
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Exclude: []string{
			"27-133 registration", "27-43", "certification",
			"105.2", "building permit",
		},
		Tier1: []string{
			"107.1.3", "unfit for human", "structural members",
			"304.10", "stairways", "305.4", "stairs and walking",
			"304.2", "protective treatment", "27-32 (b)", "stairs, porches",
		},
		Tier2: []string{
			"305.3", "interior surfaces", "504.1", "plumbing",
			"304.13", "window", "skylight", "605.1", "installation",
			"603.1", "mechanical", "appliances", "309.1", "infestation",
			"705.1", "carbon monoxide", "304.15", "doors", "305.6",
			"interior doors", "lead abatement", "27-57", "receptacle",
			"27-32 (d)", "protective coating", "27-31", "structural",
		},
		Tier3: []string{
			"27-72", "overgrowth", "trash", "debris",
			"308.1", "rubbish", "garbage", "27-116", "vacant property registry",
		},
		KeepComplaintTypes: []string{
			"Property Maintenance-Int",
			"Property Maintenance-Ext",
			"Vacant House",
			"Overgrowth: Private, Occ",
			"Trash/Debris-Private, Occ",
			"Fire Safety",
			"Vacant Lot",
		},
	}
}

// Engine assigns severity tiers. It is pure and safe for concurrent use
// once constructed.
type Engine struct {
	exclude []string
	tier1   []string
	tier2   []string
	tier3   []string
	keep    map[string]bool
}

// NewEngine builds an Engine from a rule set. Keywords are lowercased once
// at construction.
func NewEngine(rules RuleSet) (*Engine, error) {
	if len(rules.Tier1) == 0 && len(rules.Tier2) == 0 && len(rules.Tier3) == 0 {
		return nil, eris.New("tier: rule set has no tier keywords")
	}
	e := &Engine{
		exclude: lowerAll(rules.Exclude),
		tier1:   lowerAll(rules.Tier1),
		tier2:   lowerAll(rules.Tier2),
		tier3:   lowerAll(rules.Tier3),
	}
	if len(rules.KeepComplaintTypes) > 0 {
		e.keep = make(map[string]bool, len(rules.KeepComplaintTypes))
		for _, ct := range rules.KeepComplaintTypes {
			e.keep[ct] = true
		}
	}
	return e, nil
}

// AssignTier maps a free-text violation description to a numeric tier in
// {0,1,2,3}. Missing text falls back to tier 1 (default neglect), not to
// exclusion. Tier 0 marks administrative records to be filtered out.
func (e *Engine) AssignTier(text string) int {
	if strings.TrimSpace(text) == "" {
		return 1
	}
	v := strings.ToLower(text)
	for _, kw := range e.exclude {
		if strings.Contains(v, kw) {
			return 0
		}
	}
	for _, kw := range e.tier1 {
		if strings.Contains(v, kw) {
			return 3
		}
	}
	for _, kw := range e.tier2 {
		if strings.Contains(v, kw) {
			return 2
		}
	}
	for _, kw := range e.tier3 {
		if strings.Contains(v, kw) {
			return 1
		}
	}
	return 1
}

// KeepsComplaintType reports whether the complaint category passes the
// physical-decay allowlist. An empty allowlist keeps everything.
func (e *Engine) KeepsComplaintType(ct string) bool {
	if e.keep == nil {
		return true
	}
	return e.keep[ct]
}

// Apply assigns tiers to a batch of violation records and filters out
// disallowed complaint types, tier-0 rows, and rows without coordinates.
// The input slice is not modified.
func (e *Engine) Apply(records []model.ViolationRecord) []model.ViolationRecord {
	kept := make([]model.ViolationRecord, 0, len(records))
	for _, rec := range records {
		if !e.KeepsComplaintType(rec.ComplaintType) {
			continue
		}
		rec.Tier = e.AssignTier(rec.ViolationText)
		if rec.Tier == 0 {
			continue
		}
		if !rec.Geo.Valid() {
			continue
		}
		kept = append(kept, rec)
	}
	zap.L().Info("tier: applied rules",
		zap.Int("records_in", len(records)),
		zap.Int("records_kept", len(kept)),
	)
	return kept
}

func lowerAll(keywords []string) []string {
	out := make([]string, len(keywords))
	for i, kw := range keywords {
		out[i] = strings.ToLower(kw)
	}
	return out
}
