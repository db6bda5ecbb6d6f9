package adaptive

import (
	"testing"

	"github.com/lingodb/lingo/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCorpus() []CorpusEntry {
	return []CorpusEntry{
		{Word: "cat", Position: core.Coordinate3D{X: 0.30, Y: 0.10, Z: 0.55}, Type: core.MorphemeRoot, Etymology: core.EtymologyGermanic},
		{Word: "dog", Position: core.Coordinate3D{X: 0.32, Y: 0.10, Z: 0.55}, Type: core.MorphemeRoot, Etymology: core.EtymologyGermanic},
		{Word: "in", Position: core.Coordinate3D{X: 0.20, Y: 0.50, Z: 0.20}, Type: core.MorphemePrefix, Etymology: core.EtymologyGermanic},
		{Word: "out", Position: core.Coordinate3D{X: 0.80, Y: 0.50, Z: 0.20}, Type: core.MorphemePrefix, Etymology: core.EtymologyGermanic},
	}
}

func TestLearnFromDatabaseBuildsTypeCentroids(t *testing.T) {
	m := New()
	m.LearnFromDatabase(sampleCorpus())

	c, ok := m.patterns.typeCentroids[core.MorphemeRoot]
	require.True(t, ok)
	assert.InDelta(t, 0.31, c.X, 0.001)
}

func TestLearnFromDatabaseLearnsKnownGradient(t *testing.T) {
	m := New()
	m.LearnFromDatabase(sampleCorpus())

	require.Len(t, m.patterns.gradientVectors, 1)
	g := m.patterns.gradientVectors[0]
	assert.Equal(t, "in", g.StartConcept)
	assert.Equal(t, "out", g.EndConcept)
	assert.InDelta(t, 0.6, g.Vector.X, 0.001)
}

func TestFindOptimalPositionUsesTypeCentroid(t *testing.T) {
	m := New()
	m.Seed(42)
	m.LearnFromDatabase(sampleCorpus())

	pos := m.FindOptimalPosition(core.MorphemeRoot, core.EtymologyGermanic, nil)
	assert.InDelta(t, 0.31, pos.X, 0.1)
	assert.True(t, pos.IsValid())
}

func TestFindOptimalPositionBetweenHint(t *testing.T) {
	m := New()
	m.Seed(1)
	m.LearnFromDatabase(sampleCorpus())

	pos := m.FindOptimalPosition(core.MorphemeRoot, core.EtymologyGermanic, []SemanticHint{Between{A: "cat", B: "dog"}})
	assert.InDelta(t, 0.31, pos.X, 0.05)
}

func TestAssessDisruptionFlagsOvercrowding(t *testing.T) {
	m := New()
	entries := make([]CorpusEntry, 0, 50)
	for i := 0; i < 50; i++ {
		entries = append(entries, CorpusEntry{
			Word:      "w",
			Position:  core.Coordinate3D{X: 0.5, Y: 0.5, Z: 0.5},
			Type:      core.MorphemeRoot,
			Etymology: core.EtymologyGermanic,
		})
	}
	m.LearnFromDatabase(entries)

	a := m.AssessDisruption(core.Coordinate3D{X: 0.5, Y: 0.5, Z: 0.5}, core.MorphemeRoot)
	assert.True(t, a.IsOvercrowded)
}

func TestCalibrateSpatialLayoutConverges(t *testing.T) {
	m := New()
	m.Seed(7)
	m.LearnFromDatabase(sampleCorpus())

	result := m.CalibrateSpatialLayout(20)
	assert.LessOrEqual(t, result.IterationsCompleted, 20)
	assert.GreaterOrEqual(t, result.FinalDisruptionScore, float32(0))
}

func TestAdaptToNewMorphemeRespectsDriftFlag(t *testing.T) {
	m := New()
	m.LearnFromDatabase(sampleCorpus())
	m.Flexibility.AllowDrift = false

	before := m.patterns.typeCentroids[core.MorphemeRoot]
	m.AdaptToNewMorpheme("kitten", core.Coordinate3D{X: 0.9, Y: 0.9, Z: 0.9}, core.MorphemeRoot)
	after := m.patterns.typeCentroids[core.MorphemeRoot]
	assert.Equal(t, before, after)
}
