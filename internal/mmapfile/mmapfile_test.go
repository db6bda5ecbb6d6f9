package mmapfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lingodb/lingo/internal/builder"
	"github.com/lingodb/lingo/internal/core"
	"github.com/lingodb/lingo/internal/lingoerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFixture assembles a minimal, valid Lingo file on disk: header,
// an empty string table, the given nodes and connections, no octree section, with
// real section checksums so it round-trips through the same verification a
// builder-produced file does.
func writeFixture(t *testing.T, nodes []core.Node, conns []core.Connection) string {
	t.Helper()

	h := core.NewHeader()
	nodeArrayOffset := uint64(core.HeaderSize)
	connArrayOffset := nodeArrayOffset + uint64(len(nodes))*core.NodeSize
	fileSize := connArrayOffset + uint64(len(conns))*core.ConnectionSize

	h.StringTable = core.SectionRef{Offset: core.HeaderSize, Size: 0}
	h.NodeArray = core.SectionRef{Offset: nodeArrayOffset, Size: uint64(len(nodes)) * core.NodeSize}
	h.ConnArray = core.SectionRef{Offset: connArrayOffset, Size: uint64(len(conns)) * core.ConnectionSize}
	h.Octree = core.SectionRef{Offset: fileSize, Size: 0}
	h.NodeCount = uint32(len(nodes))
	h.ConnectionCount = uint32(len(conns))
	h.FileSize = fileSize

	var nodeBytes, connBytes []byte
	for _, n := range nodes {
		b := core.EncodeNode(n)
		nodeBytes = append(nodeBytes, b[:]...)
	}
	for _, c := range conns {
		b := core.EncodeConnection(c)
		connBytes = append(connBytes, b[:]...)
	}

	h.StringChecksum = builder.Checksum(nil)
	h.DataChecksum = builder.Checksum(append(append([]byte{}, nodeBytes...), connBytes...))
	h.IndexChecksum = builder.Checksum(nil)
	headerBytes := core.EncodeHeader(h)
	h.HeaderChecksum = builder.Checksum(headerBytes[:])
	headerBytes = core.EncodeHeader(h)

	buf := make([]byte, 0, fileSize)
	buf = append(buf, headerBytes[:]...)
	buf = append(buf, nodeBytes...)
	buf = append(buf, connBytes...)

	path := filepath.Join(t.TempDir(), "fixture.lingo")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func TestOpenParsesHeaderAndNodes(t *testing.T) {
	n1 := core.NewNode(1, core.LayerWords, core.Coordinate3D{X: 0.1, Y: 0.2, Z: 0.5})
	n1.ConnectionsOffset = 0
	n1.ConnectionsCount = 1
	conn := core.NewConnection(1, core.ConnSynonymy, 0.9)

	path := writeFixture(t, []core.Node{n1}, []core.Connection{conn})

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 1, db.NodeCount())
	assert.Equal(t, 1, db.ConnectionCount())

	got, err := db.Node(1)
	require.NoError(t, err)
	assert.Equal(t, core.NodeID(1), got.ID)
	assert.InDelta(t, 0.1, got.Position.X, 0.0001)

	c, err := db.Connection(0)
	require.NoError(t, err)
	assert.Equal(t, core.ConnSynonymy, c.Type)

	conns, err := db.NodeConnections(got)
	require.NoError(t, err)
	require.Len(t, conns, 1)
}

func TestOpenRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.lingo")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	_, err := Open(path)
	require.Error(t, err)
}

func TestOpenRejectsCorruptedNodeData(t *testing.T) {
	n1 := core.NewNode(1, core.LayerWords, core.Coordinate3D{X: 0.1, Y: 0.2, Z: 0.5})
	path := writeFixture(t, []core.Node{n1}, nil)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[core.HeaderSize] ^= 0xFF // flip a byte inside the node array
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, lingoerr.ChecksumMismatch)
}

func TestOpenRejectsCorruptedHeader(t *testing.T) {
	path := writeFixture(t, []core.Node{core.NewNode(1, core.LayerWords, core.Coordinate3D{})}, nil)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[450] ^= 0xFF // inside the header's reserved padding, outside any field Validate checks
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, lingoerr.ChecksumMismatch)
}

func TestNodeRejectsInvalidID(t *testing.T) {
	path := writeFixture(t, []core.Node{core.NewNode(1, core.LayerWords, core.Coordinate3D{})}, nil)
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Node(0)
	require.Error(t, err)

	_, err = db.Node(99)
	require.Error(t, err)
}
