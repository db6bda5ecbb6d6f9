package lingo

import (
	"github.com/lingodb/lingo/internal/adaptive"
	"github.com/lingodb/lingo/internal/config"
	"github.com/lingodb/lingo/internal/core"
)

// SemanticHint nudges FindOptimalPosition toward, away from, or between
// other known words.
type SemanticHint = adaptive.SemanticHint

// SimilarTo moves a candidate position toward target's known position.
type SimilarTo = adaptive.SimilarTo

// OppositeTo moves a candidate position along the learned gradient anchored
// at target.
type OppositeTo = adaptive.OppositeTo

// Between centers a candidate position between two known words.
type Between = adaptive.Between

// DisruptionAssessment reports how much a candidate position would disturb
// the learned layout.
type DisruptionAssessment = adaptive.DisruptionAssessment

// CalibrationResult summarizes a CalibrateLayout run.
type CalibrationResult = adaptive.CalibrationResult

// Calibrator learns spatial placement patterns from a database's existing
// positions and uses them to place new morphemes and re-optimize layout
// after bulk ingestion (spec §4.8, C11).
type Calibrator struct {
	mgr *adaptive.Manager
}

// NewCalibrator returns an empty calibrator with default flexibility; call
// LearnFrom to seed it, or build one from an open Database with
// Database.NewCalibrator.
func NewCalibrator() *Calibrator {
	return NewCalibratorWithConfig(config.Default())
}

// NewCalibratorWithConfig is NewCalibrator with explicit flexibility tuning.
func NewCalibratorWithConfig(cfg config.Config) *Calibrator {
	return &Calibrator{mgr: adaptive.NewWithConfig(cfg)}
}

// Seed reseeds the calibrator's noise generator, for reproducible runs.
func (c *Calibrator) Seed(seed int64) { c.mgr.Seed(seed) }

// LearnFrom rebuilds every learned pattern from entries, discarding prior
// learning.
func (c *Calibrator) LearnFrom(entries []adaptive.CorpusEntry) {
	c.mgr.LearnFromDatabase(entries)
}

// FindOptimalPosition computes a placement for a new morpheme.
func (c *Calibrator) FindOptimalPosition(morphType core.MorphemeType, etymology core.EtymologyOrigin, hints []SemanticHint) core.Coordinate3D {
	return c.mgr.FindOptimalPosition(morphType, etymology, hints)
}

// AdaptToNewMorpheme, when drift is allowed, records a placed morpheme and
// nudges its type centroid; when drift is not allowed it does nothing.
func (c *Calibrator) AdaptToNewMorpheme(word string, pos core.Coordinate3D, morphType core.MorphemeType) {
	c.mgr.AdaptToNewMorpheme(word, pos, morphType)
}

// AssessDisruption reports how much placing morphType at pos would disturb
// the learned layout.
func (c *Calibrator) AssessDisruption(pos core.Coordinate3D, morphType core.MorphemeType) DisruptionAssessment {
	return c.mgr.AssessDisruption(pos, morphType)
}

// GlobalDisruptionScore is the fraction of known morphemes whose current
// position is disruptive.
func (c *Calibrator) GlobalDisruptionScore() float32 {
	return c.mgr.CalculateGlobalDisruptionScore()
}

// CalibrateLayout runs coordinate-descent local optimization for up to
// iterations rounds.
func (c *Calibrator) CalibrateLayout(iterations int) CalibrationResult {
	return c.mgr.CalibrateSpatialLayout(iterations)
}

// Flexibility exposes the calibrator's tuning knobs for in-place
// adjustment (e.g. c.Flexibility().AllowDrift = false).
func (c *Calibrator) Flexibility() *adaptive.FlexibilityParams {
	return &c.mgr.Flexibility
}
