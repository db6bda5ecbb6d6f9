package adaptive

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/lingodb/lingo/internal/config"
	"github.com/lingodb/lingo/internal/core"
)

// FlexibilityParams controls how strongly the manager favors learned
// patterns over a new position (spec §4.8).
type FlexibilityParams = config.FlexibilityParams

// DefaultFlexibility mirrors the reference implementation's defaults.
func DefaultFlexibility() FlexibilityParams {
	return config.Default().Flexibility
}

type historyEntry struct {
	word string
	pos  core.Coordinate3D
	typ  core.MorphemeType
}

// SemanticHint nudges find_optimal_position toward, away from, or between
// other known words.
type SemanticHint interface{ isSemanticHint() }

// SimilarTo moves the candidate position toward target's position.
type SimilarTo struct{ Target string }

// OppositeTo moves the candidate position along the learned gradient
// anchored at target, if one exists.
type OppositeTo struct{ Target string }

// Between centers the candidate position between two known words.
type Between struct{ A, B string }

func (SimilarTo) isSemanticHint()  {}
func (OppositeTo) isSemanticHint() {}
func (Between) isSemanticHint()    {}

// DisruptionAssessment reports how much a candidate position would disturb
// the learned layout.
type DisruptionAssessment struct {
	CentroidDeviation   float32
	WithinNormalRange   bool
	LocalDensity        float32
	IsOvercrowded       bool
	GradientConsistency float32
}

// CalibrationResult summarizes a calibrate_spatial_layout run.
type CalibrationResult struct {
	InitialDisruptionScore float32
	FinalDisruptionScore   float32
	IterationsCompleted    int
	MorphemesRepositioned  int
	ConvergenceAchieved    bool
}

// Manager learns spatial placement patterns from a database's existing
// (word, position, morpheme type) triples and uses them to place new
// morphemes and detect layout drift.
type Manager struct {
	patterns       spatialPatterns
	Flexibility    FlexibilityParams
	positionHistory []historyEntry
	rng            *rand.Rand
}

// New returns a manager with default flexibility and a process-local RNG
// with a fixed seed of 1 (the reference implementation's nanosecond-clock PRNG is
// replaced with math/rand here: the clock-based approach repeats its
// sequence under fast, back-to-back calls, which matters for bulk builder
// runs that place many morphemes per millisecond).
func New() *Manager {
	return NewWithConfig(config.Default())
}

// NewWithConfig returns a manager seeded from cfg's Flexibility params.
func NewWithConfig(cfg config.Config) *Manager {
	return &Manager{
		patterns:    newSpatialPatterns(),
		Flexibility: cfg.Flexibility,
		rng:         rand.New(rand.NewSource(1)),
	}
}

// Seed reseeds the manager's noise generator, for reproducible tests.
func (m *Manager) Seed(seed int64) { m.rng = rand.New(rand.NewSource(seed)) }

// CorpusEntry is one (word, position, morpheme type, etymology) tuple
// LearnFromDatabase learns from. Etymology is read directly from the node
// record rather than inferred from flags — unlike the reference
// implementation's "Modern vs Unknown" guess from an is_technical bit, the
// stored node already carries a real EtymologyOrigin.
type CorpusEntry struct {
	Word      string
	Position  core.Coordinate3D
	Type      core.MorphemeType
	Etymology core.EtymologyOrigin
}

// LearnFromDatabase rebuilds every learned pattern from a fresh corpus,
// discarding prior learning.
func (m *Manager) LearnFromDatabase(entries []CorpusEntry) {
	m.positionHistory = m.positionHistory[:0]
	byType := make(map[core.MorphemeType][]core.Coordinate3D)
	byEtymology := make(map[core.EtymologyOrigin][]core.Coordinate3D)

	for _, e := range entries {
		byType[e.Type] = append(byType[e.Type], e.Position)
		byEtymology[e.Etymology] = append(byEtymology[e.Etymology], e.Position)
		m.positionHistory = append(m.positionHistory, historyEntry{word: e.Word, pos: e.Position, typ: e.Type})
	}

	m.patterns.typeCentroids = make(map[core.MorphemeType]core.Coordinate3D)
	for typ, positions := range byType {
		if c, ok := centroid(positions); ok {
			m.patterns.typeCentroids[typ] = c
		}
	}
	m.patterns.etymologyClusters = byEtymology

	m.learnGradientPatterns()
	m.patterns.density = m.buildDensityField()
}

func (m *Manager) learnGradientPatterns() {
	m.patterns.gradientVectors = m.patterns.gradientVectors[:0]
	for _, pair := range knownOppositions {
		p1, ok1 := m.findHistory(pair[0])
		p2, ok2 := m.findHistory(pair[1])
		if !ok1 || !ok2 {
			continue
		}
		m.patterns.gradientVectors = append(m.patterns.gradientVectors, GradientVector{
			StartConcept:     pair[0],
			EndConcept:       pair[1],
			Vector:           p2.pos.Sub(p1.pos),
			ConsistencyScore: 1.0,
			SampleCount:      1,
		})
	}
}

func (m *Manager) buildDensityField() densityField {
	var d densityField
	for _, h := range m.positionHistory {
		d.splat(h.pos)
	}
	return d
}

func (m *Manager) findHistory(word string) (historyEntry, bool) {
	for _, h := range m.positionHistory {
		if h.word == word {
			return h, true
		}
	}
	return historyEntry{}, false
}

// FindOptimalPosition computes a placement for a new morpheme given its
// type, etymology, and any semantic hints, following the reference
// pipeline: type base -> etymology pull -> hints -> separation -> noise.
func (m *Manager) FindOptimalPosition(morphType core.MorphemeType, etymology core.EtymologyOrigin, hints []SemanticHint) core.Coordinate3D {
	pos := m.typeBasePosition(morphType)
	pos = m.adjustForEtymology(pos, etymology)
	for _, h := range hints {
		pos = m.applyHint(pos, h)
	}
	pos = m.ensureSeparation(pos)
	pos = m.addControlledNoise(pos, morphType)
	return pos.Clamp()
}

func (m *Manager) typeBasePosition(morphType core.MorphemeType) core.Coordinate3D {
	if c, ok := m.patterns.typeCentroids[morphType]; ok {
		return c
	}
	switch morphType {
	case core.MorphemePrefix:
		return core.Coordinate3D{X: 0.2, Y: 0.5, Z: 0.37}
	case core.MorphemeSuffix:
		return core.Coordinate3D{X: 0.8, Y: 0.5, Z: 0.37}
	default:
		return core.Coordinate3D{X: 0.5, Y: 0.5, Z: 0.37}
	}
}

const etymologyPullWeight = 0.3

func (m *Manager) adjustForEtymology(pos core.Coordinate3D, etymology core.EtymologyOrigin) core.Coordinate3D {
	cluster, ok := m.patterns.etymologyClusters[etymology]
	if !ok {
		return pos
	}
	c, ok := centroid(cluster)
	if !ok {
		return pos
	}
	pos.X = pos.X*(1-etymologyPullWeight) + c.X*etymologyPullWeight
	pos.Y = pos.Y*(1-etymologyPullWeight) + c.Y*etymologyPullWeight
	return pos
}

const similarToWeight = 0.4

func (m *Manager) applyHint(pos core.Coordinate3D, hint SemanticHint) core.Coordinate3D {
	switch h := hint.(type) {
	case SimilarTo:
		target, ok := m.findHistory(h.Target)
		if !ok {
			return pos
		}
		pos.X = pos.X*(1-similarToWeight) + target.pos.X*similarToWeight
		pos.Y = pos.Y*(1-similarToWeight) + target.pos.Y*similarToWeight
		return pos

	case OppositeTo:
		target, ok := m.findHistory(h.Target)
		if !ok {
			return pos
		}
		g := m.findRelevantGradient(h.Target)
		if g == nil {
			return pos
		}
		return target.pos.Add(g.Vector)

	case Between:
		a, okA := m.findHistory(h.A)
		b, okB := m.findHistory(h.B)
		if !okA || !okB {
			return pos
		}
		return a.pos.Lerp(b.pos, 0.5)
	}
	return pos
}

func (m *Manager) findRelevantGradient(concept string) *GradientVector {
	for i := range m.patterns.gradientVectors {
		g := &m.patterns.gradientVectors[i]
		if g.StartConcept == concept || g.EndConcept == concept {
			return g
		}
	}
	return nil
}

const maxSeparationIterations = 10
const separationStep = 0.1

// ensureSeparation nudges pos away from every known position closer than
// MinSeparation, for up to maxSeparationIterations rounds of repulsion.
func (m *Manager) ensureSeparation(pos core.Coordinate3D) core.Coordinate3D {
	for iter := 0; iter < maxSeparationIterations; iter++ {
		var repulsion core.Coordinate3D
		tooClose := false

		for _, h := range m.positionHistory {
			d := pos.Distance(h.pos)
			if d >= m.Flexibility.MinSeparation {
				continue
			}
			tooClose = true
			if d > 0 {
				factor := (m.Flexibility.MinSeparation - d) / d
				repulsion = repulsion.Add(pos.Sub(h.pos).Scale(factor))
			}
		}

		if !tooClose {
			break
		}
		pos = pos.Add(repulsion.Scale(separationStep))
	}
	return pos
}

func (m *Manager) addControlledNoise(pos core.Coordinate3D, morphType core.MorphemeType) core.Coordinate3D {
	var scale float32
	switch morphType {
	case core.MorphemePrefix, core.MorphemeSuffix:
		scale = 0.02
	case core.MorphemeRoot:
		scale = 0.05
	default:
		scale = 0.03
	}
	pos.X += (m.rng.Float32() - 0.5) * scale
	pos.Y += (m.rng.Float32() - 0.5) * scale
	return pos
}

// AdaptToNewMorpheme, when drift is allowed, records a placed morpheme and
// nudges its type centroid toward the new position; when drift is not
// allowed it does nothing.
func (m *Manager) AdaptToNewMorpheme(word string, pos core.Coordinate3D, morphType core.MorphemeType) {
	if !m.Flexibility.AllowDrift {
		return
	}
	m.positionHistory = append(m.positionHistory, historyEntry{word: word, pos: pos, typ: morphType})

	if c, ok := m.patterns.typeCentroids[morphType]; ok {
		delta := pos.Sub(c).Scale(m.Flexibility.LearningRate)
		m.patterns.typeCentroids[morphType] = c.Add(delta)
	}
	m.patterns.density.splat(pos)
}

// AssessDisruption reports how much placing morphType at pos would disturb
// the learned layout.
func (m *Manager) AssessDisruption(pos core.Coordinate3D, morphType core.MorphemeType) DisruptionAssessment {
	var a DisruptionAssessment
	if c, ok := m.patterns.typeCentroids[morphType]; ok {
		a.CentroidDeviation = pos.Distance(c)
		a.WithinNormalRange = a.CentroidDeviation < m.Flexibility.TypeDeviation
	}
	a.LocalDensity = m.patterns.density.at(pos)
	a.IsOvercrowded = a.LocalDensity > 0.8
	a.GradientConsistency = 1.0
	return a
}

// CalculateGlobalDisruptionScore is the fraction of known morphemes whose
// current position is either outside its type's normal range or
// overcrowded.
func (m *Manager) CalculateGlobalDisruptionScore() float32 {
	if len(m.positionHistory) == 0 {
		return 0
	}
	var disrupted float32
	for _, h := range m.positionHistory {
		a := m.AssessDisruption(h.pos, h.typ)
		if !a.WithinNormalRange || a.IsOvercrowded {
			disrupted++
		}
	}
	return disrupted / float32(len(m.positionHistory))
}

// CalibrateSpatialLayout runs coordinate-descent local optimization over
// every known position for up to iterations rounds, stopping early once
// improvement per round falls below 0.001 (spec §4.8).
func (m *Manager) CalibrateSpatialLayout(iterations int) CalibrationResult {
	result := CalibrationResult{InitialDisruptionScore: m.CalculateGlobalDisruptionScore()}
	slog.Info("calibration starting", "iterations", iterations, "initial_disruption", result.InitialDisruptionScore)

	for iter := 0; iter < iterations; iter++ {
		repositioned, maxImprovement := m.calibrationIteration()
		result.MorphemesRepositioned += repositioned
		result.IterationsCompleted = iter + 1
		slog.Debug("calibration iteration", "iteration", iter+1, "repositioned", repositioned, "max_improvement", maxImprovement)
		if maxImprovement < 0.001 {
			result.ConvergenceAchieved = true
			break
		}
	}

	result.FinalDisruptionScore = m.CalculateGlobalDisruptionScore()
	slog.Info("calibration finished",
		"iterations_completed", result.IterationsCompleted,
		"morphemes_repositioned", result.MorphemesRepositioned,
		"converged", result.ConvergenceAchieved,
		"final_disruption", result.FinalDisruptionScore)
	return result
}

const candidateStep = 0.05

func (m *Manager) calibrationIteration() (repositioned int, maxImprovement float32) {
	snapshot := append([]historyEntry(nil), m.positionHistory...)

	for _, h := range snapshot {
		currentScore := m.positionScore(h.pos, h.typ)
		bestPos, bestScore := h.pos, currentScore

		for _, candidate := range generateCandidates(h.pos) {
			score := m.positionScore(candidate, h.typ)
			if score > bestScore {
				bestPos, bestScore = candidate, score
			}
		}

		if bestScore > currentScore+0.01 {
			m.updatePosition(h.word, h.typ, bestPos)
			repositioned++
			if improvement := bestScore - currentScore; improvement > maxImprovement {
				maxImprovement = improvement
			}
		}
	}
	return repositioned, maxImprovement
}

func generateCandidates(center core.Coordinate3D) []core.Coordinate3D {
	candidates := make([]core.Coordinate3D, 0, 26)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				candidates = append(candidates, core.Coordinate3D{
					X: clamp01(center.X + float32(dx)*candidateStep),
					Y: clamp01(center.Y + float32(dy)*candidateStep),
					Z: clamp01(center.Z + float32(dz)*candidateStep),
				})
			}
		}
	}
	return candidates
}

func (m *Manager) positionScore(pos core.Coordinate3D, morphType core.MorphemeType) float32 {
	a := m.AssessDisruption(pos, morphType)
	score := float32(1.0)
	if a.IsOvercrowded {
		score -= 0.5
	}
	if !a.WithinNormalRange {
		score -= 0.3
	}
	score += m.separationBonus(pos)
	score += a.GradientConsistency * 0.2
	return float32(math.Max(0, float64(score)))
}

func (m *Manager) separationBonus(pos core.Coordinate3D) float32 {
	minDistance := float32(math.MaxFloat32)
	for _, h := range m.positionHistory {
		if d := pos.Distance(h.pos); d < minDistance {
			minDistance = d
		}
	}
	switch {
	case minDistance > m.Flexibility.MinSeparation*2:
		return 0.2
	case minDistance > m.Flexibility.MinSeparation:
		return 0.1
	default:
		return 0
	}
}

func (m *Manager) updatePosition(word string, morphType core.MorphemeType, pos core.Coordinate3D) {
	for i := range m.positionHistory {
		if m.positionHistory[i].word == word && m.positionHistory[i].typ == morphType {
			m.positionHistory[i].pos = pos
			break
		}
	}
	if c, ok := centroid([]core.Coordinate3D{pos}); ok {
		m.patterns.typeCentroids[morphType] = c
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
