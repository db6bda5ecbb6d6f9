package lingo

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSampleDB(t *testing.T) string {
	t.Helper()
	b := NewBuilder()
	b.SetLanguage("en-US").SetModelVersion("1.0.0")

	animal, err := b.AddNode("animal", LayerConcepts, Coordinate3D{X: 0.5, Y: 0.5, Z: 0.9})
	require.NoError(t, err)
	cat, err := b.AddNode("cat", LayerWords, Coordinate3D{X: 0.30, Y: 0.10, Z: 0.55})
	require.NoError(t, err)
	dog, err := b.AddNode("dog", LayerWords, Coordinate3D{X: 0.32, Y: 0.10, Z: 0.55})
	require.NoError(t, err)

	require.NoError(t, b.AddConnection(cat, animal, ConnHypernymy, 1.0, DiscoveryPrecomputed))
	require.NoError(t, b.AddConnection(dog, animal, ConnHypernymy, 1.0, DiscoveryPrecomputed))
	require.NoError(t, b.AddConnection(cat, dog, ConnSynonymy, 0.9, DiscoveryPrecomputed))
	require.NoError(t, b.SetChildren(animal, []NodeID{cat, dog}))

	path := filepath.Join(t.TempDir(), "sample.lingo")
	require.NoError(t, b.Build(path))
	return path
}

func TestOpenAndFindByWord(t *testing.T) {
	path := buildSampleDB(t)
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 3, db.NodeCount())
	id, ok := db.FindByWord("cat")
	require.True(t, ok)
	_, err = db.Node(id)
	require.NoError(t, err)
}

func TestRunQueryFindAndSimilar(t *testing.T) {
	path := buildSampleDB(t)
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	result, err := db.RunQuery(NewQuery().Find("cat").SimilarThreshold(0.9))
	require.NoError(t, err)
	assert.NotEmpty(t, result.Nodes)
}

func TestRunQueryLayerUp(t *testing.T) {
	path := buildSampleDB(t)
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	result, err := db.RunQuery(NewQuery().Find("cat").LayerUp())
	require.NoError(t, err)
	require.Len(t, result.Nodes, 1)

	animalID, ok := db.FindByWord("animal")
	require.True(t, ok)
	assert.Equal(t, animalID, result.Nodes[0])
}

func TestRunQuerySimilarAndLimit(t *testing.T) {
	path := buildSampleDB(t)
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	result, err := db.RunQuery(NewQuery().Find("cat").SimilarThreshold(0).Limit(1))
	require.NoError(t, err)
	assert.Len(t, result.Nodes, 1)
}

func TestNewCalibratorLearnsFromDatabase(t *testing.T) {
	path := buildSampleDB(t)
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	cal, err := db.NewCalibrator()
	require.NoError(t, err)

	pos := cal.FindOptimalPosition(MorphemeRoot, EtymologyGermanic, nil)
	assert.True(t, pos.IsValid())
}
