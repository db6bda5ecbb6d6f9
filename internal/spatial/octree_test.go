package spatial

import (
	"testing"

	"github.com/lingodb/lingo/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSample() *Index {
	b := NewBuilder()
	b.Add(1, core.Coordinate3D{X: 0.1, Y: 0.1, Z: 0.1})
	b.Add(2, core.Coordinate3D{X: 0.9, Y: 0.9, Z: 0.9})
	b.Add(3, core.Coordinate3D{X: 0.5, Y: 0.5, Z: 0.5})
	b.Add(4, core.Coordinate3D{X: 0.11, Y: 0.1, Z: 0.1})
	return b.Build()
}

func TestBuildProducesAllItems(t *testing.T) {
	idx := buildSample()
	stats := idx.Stats()
	assert.Greater(t, stats.TotalNodes, 0)
	assert.Equal(t, 4, stats.TotalItems)
}

func TestOctantOfMatchesBitRule(t *testing.T) {
	center := core.Coordinate3D{X: 0.5, Y: 0.5, Z: 0.5}
	assert.Equal(t, 0, octantOf(center, core.Coordinate3D{X: 0, Y: 0, Z: 0}))
	assert.Equal(t, 1, octantOf(center, core.Coordinate3D{X: 1, Y: 0, Z: 0}))
	assert.Equal(t, 2, octantOf(center, core.Coordinate3D{X: 0, Y: 1, Z: 0}))
	assert.Equal(t, 7, octantOf(center, core.Coordinate3D{X: 1, Y: 1, Z: 1}))
}

func TestFindWithinRadiusFiltersByTrueDistance(t *testing.T) {
	idx := buildSample()
	// radius tight enough to include node 1 and its near neighbor 4, but
	// exclude 3 and 2 which are farther away.
	results := idx.FindWithinRadius(core.Coordinate3D{X: 0.1, Y: 0.1, Z: 0.1}, 0.05)
	ids := map[core.NodeID]bool{}
	for _, r := range results {
		ids[r.ID] = true
		assert.LessOrEqual(t, r.Distance, float32(0.05))
	}
	assert.True(t, ids[1])
	assert.True(t, ids[4])
	assert.False(t, ids[2])
	assert.False(t, ids[3])
}

func TestFindWithinRadiusSortsAscending(t *testing.T) {
	idx := buildSample()
	results := idx.FindWithinRadius(core.Coordinate3D{X: 0.1, Y: 0.1, Z: 0.1}, 2.0)
	require.True(t, len(results) > 1)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
	}
}

func TestFindKNearestReturnsRealDistances(t *testing.T) {
	idx := buildSample()
	results := idx.FindKNearest(core.Coordinate3D{X: 0.1, Y: 0.1, Z: 0.1}, 2, 0.1, 2.0, 2.0)
	require.Len(t, results, 2)
	assert.Equal(t, core.NodeID(1), results[0].ID)
	assert.InDelta(t, 0.0, results[0].Distance, 0.0001)
	assert.Greater(t, results[1].Distance, float32(0))
}

func TestContainsIsInclusiveOnBounds(t *testing.T) {
	idx := buildSample()
	box := core.NewBoundingBox(
		core.Coordinate3D{X: 0.0, Y: 0.0, Z: 0.0},
		core.Coordinate3D{X: 0.5, Y: 0.5, Z: 0.5},
	)
	ids := idx.Contains(box)
	found := map[core.NodeID]bool{}
	for _, id := range ids {
		found[id] = true
	}
	assert.True(t, found[1])
	assert.True(t, found[3]) // on the boundary, inclusive
	assert.True(t, found[4])
	assert.False(t, found[2])
}

func TestTreeNodeRoundTrip(t *testing.T) {
	n := TreeNode{
		Bounds:     core.NewBoundingBox(core.Coordinate3D{}, core.Coordinate3D{X: 1, Y: 1, Z: 1}),
		NodeCount:  3,
		LeafBucket: 2,
		Depth:      1,
		Flags:      FlagLeaf,
	}
	setChild(&n, 0, 5)

	buf := EncodeTreeNode(n)
	got, err := DecodeTreeNode(buf[:])
	require.NoError(t, err)
	assert.Equal(t, n.NodeCount, got.NodeCount)
	assert.Equal(t, n.LeafBucket, got.LeafBucket)
	assert.Equal(t, n.Depth, got.Depth)
	assert.Equal(t, n.Flags, got.Flags)
	childIdx, ok := got.child(0)
	require.True(t, ok)
	assert.Equal(t, uint32(5), childIdx)
}

func TestEmptyIndexReturnsNoResults(t *testing.T) {
	idx := NewBuilder().Build()
	assert.Empty(t, idx.FindWithinRadius(core.Coordinate3D{}, 1.0))
	assert.Empty(t, idx.FindKNearest(core.Coordinate3D{}, 5, 0.1, 2.0, 2.0))
	assert.Empty(t, idx.Contains(core.NewBoundingBox(core.Coordinate3D{}, core.Coordinate3D{X: 1, Y: 1, Z: 1})))
}
