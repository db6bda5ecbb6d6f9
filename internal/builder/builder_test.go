package builder

import (
	"path/filepath"
	"testing"

	"github.com/lingodb/lingo/internal/core"
	"github.com/lingodb/lingo/internal/lingoerr"
	"github.com/lingodb/lingo/internal/mmapfile"
	"github.com/lingodb/lingo/internal/stringtable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRoundTripsThroughMmapfile(t *testing.T) {
	b := New()
	b.SetLanguage("en-US").SetModelVersion("1.0.0")

	cat, err := b.AddNode("cat", core.LayerWords, core.Coordinate3D{X: 0.3, Y: 0.1, Z: 0.55})
	require.NoError(t, err)
	dog, err := b.AddNode("dog", core.LayerWords, core.Coordinate3D{X: 0.32, Y: 0.1, Z: 0.55})
	require.NoError(t, err)

	require.NoError(t, b.AddConnection(cat, dog, core.ConnSynonymy, 0.8, core.DiscoveryPrecomputed))

	path := filepath.Join(t.TempDir(), "out.lingo")
	require.NoError(t, b.Build(path))

	db, err := mmapfile.Open(path)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 2, db.NodeCount())
	assert.Equal(t, 1, db.ConnectionCount())

	catNode, err := db.Node(cat)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), catNode.ConnectionsCount)

	conns, err := db.NodeConnections(catNode)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, dog, conns[0].Target)

	word, err := db.StringTable().Get(stringtable.Ref{Offset: catNode.WordOffset, Length: catNode.WordLength})
	require.NoError(t, err)
	assert.Equal(t, "cat", word)
}

func TestAddConnectionRejectsUnknownNodes(t *testing.T) {
	b := New()
	id, err := b.AddNode("only", core.LayerWords, core.Coordinate3D{X: 0.5, Y: 0.5, Z: 0.55})
	require.NoError(t, err)

	err = b.AddConnection(id, 999, core.ConnSynonymy, 0.5, core.DiscoveryPrecomputed)
	require.Error(t, err)
}

func TestAddNodeRejectsInvalidPosition(t *testing.T) {
	b := New()
	_, err := b.AddNode("bad", core.LayerWords, core.Coordinate3D{X: 2, Y: 0, Z: 0})
	require.Error(t, err)
}

func TestCheckNodeCapacityRejectsAtAndBeyondMax(t *testing.T) {
	require.NoError(t, checkNodeCapacity(0))
	require.NoError(t, checkNodeCapacity(maxNodes-1))

	err := checkNodeCapacity(maxNodes)
	require.Error(t, err)
	assert.ErrorIs(t, err, lingoerr.TooManyNodes)

	err = checkNodeCapacity(maxNodes + 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, lingoerr.TooManyNodes)
}
