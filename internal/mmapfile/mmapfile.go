// Package mmapfile provides zero-copy, bounds-checked access to an on-disk
// Lingo database via memory mapping.
package mmapfile

import (
	"bytes"
	"encoding/binary"
	"hash/crc64"
	"log/slog"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/lingodb/lingo/internal/core"
	"github.com/lingodb/lingo/internal/lingoerr"
	"github.com/lingodb/lingo/internal/lingoutil"
	"github.com/lingodb/lingo/internal/spatial"
	"github.com/lingodb/lingo/internal/stringtable"
)

// File is a memory-mapped, read-only view of a Lingo database.
type File struct {
	data   mmap.MMap
	file   *os.File
	header core.Header
}

// Open validates path, maps the file, and parses and validates its header.
// The returned File must be closed with Close when no longer needed.
func Open(path string) (*File, error) {
	safePath, err := lingoutil.ValidatePath(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("opening database", "path", safePath)

	f, err := os.Open(safePath)
	if err != nil {
		return nil, lingoerr.Wrap("open database file", err)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, lingoerr.Wrap("mmap database file", err)
	}

	db := &File{data: m, file: f}
	if err := db.readHeader(); err != nil {
		db.Close()
		slog.Warn("rejected database file", "path", safePath, "error", err)
		return nil, err
	}
	slog.Info("opened database", "path", safePath,
		"nodes", db.NodeCount(), "connections", db.ConnectionCount())
	return db, nil
}

func (f *File) readHeader() error {
	if len(f.data) < core.HeaderSize {
		return lingoerr.New(lingoerr.KindTruncated, "file smaller than header", nil)
	}
	if !core.CheckMagic(f.data) {
		return lingoerr.InvalidMagic
	}

	h, err := core.DecodeHeader(f.data[:core.HeaderSize])
	if err != nil {
		return err
	}
	if err := h.Validate(); err != nil {
		return err
	}

	fileSize := uint64(len(f.data))
	sections := map[string]core.SectionRef{
		"string_table":     h.StringTable,
		"node_array":       h.NodeArray,
		"connection_array": h.ConnArray,
		"octree":           h.Octree,
	}
	for name, s := range sections {
		if s.End() > fileSize {
			return lingoerr.New(lingoerr.KindCorruptSection, name, nil)
		}
	}

	if err := verifyChecksums(h, f.data); err != nil {
		return err
	}

	f.header = h
	return nil
}

var crc64Table = crc64.MakeTable(crc64.ISO)

// checksum is the same CRC-64 (ISO polynomial) the builder writes.
func checksum(b []byte) uint64 { return crc64.Checksum(b, crc64Table) }

// verifyChecksums recomputes the header, string table, node/connection and
// octree CRC-64s and compares them against the values the builder wrote,
// catching bit rot or truncation that section bounds checks alone wouldn't
// (spec §4.1, §7 ChecksumMismatch). The vertical index section carries no
// checksum and is not verified here.
func verifyChecksums(h core.Header, data []byte) error {
	if got := checksum(data[h.StringTable.Offset:h.StringTable.End()]); got != h.StringChecksum {
		return lingoerr.New(lingoerr.KindChecksumMismatch, "string_table", nil)
	}

	dataSection := append(append([]byte{}, data[h.NodeArray.Offset:h.NodeArray.End()]...),
		data[h.ConnArray.Offset:h.ConnArray.End()]...)
	if got := checksum(dataSection); got != h.DataChecksum {
		return lingoerr.New(lingoerr.KindChecksumMismatch, "node_connection_arrays", nil)
	}

	if got := checksum(data[h.Octree.Offset:h.Octree.End()]); got != h.IndexChecksum {
		return lingoerr.New(lingoerr.KindChecksumMismatch, "octree", nil)
	}

	headerForChecksum := h
	headerForChecksum.HeaderChecksum = 0
	encoded := core.EncodeHeader(headerForChecksum)
	if got := checksum(encoded[:]); got != h.HeaderChecksum {
		return lingoerr.New(lingoerr.KindChecksumMismatch, "header", nil)
	}
	// The checksum was taken over the whole 512-byte header, so any stored
	// byte that the decoded fields do not reproduce (padding included) is
	// corruption too.
	if stored := core.EncodeHeader(h); !bytes.Equal(stored[:], data[:core.HeaderSize]) {
		return lingoerr.New(lingoerr.KindChecksumMismatch, "header", nil)
	}

	return nil
}

// Close unmaps and closes the underlying file.
func (f *File) Close() error {
	var mmapErr, fileErr error
	if f.data != nil {
		mmapErr = f.data.Unmap()
	}
	if f.file != nil {
		fileErr = f.file.Close()
	}
	if mmapErr != nil {
		return lingoerr.Wrap("unmap database file", mmapErr)
	}
	if fileErr != nil {
		return lingoerr.Wrap("close database file", fileErr)
	}
	return nil
}

// Header returns the file's parsed header.
func (f *File) Header() core.Header { return f.header }

// NodeCount returns the number of node records in the file.
func (f *File) NodeCount() int { return int(f.header.NodeCount) }

// ConnectionCount returns the number of connection records in the file.
func (f *File) ConnectionCount() int { return int(f.header.ConnectionCount) }

// Node returns the node with the given ID. Node IDs are 1-based; ID 0 is
// invalid.
func (f *File) Node(id core.NodeID) (core.Node, error) {
	if id == 0 {
		return core.Node{}, lingoerr.New(lingoerr.KindInvalidNodeID, "", nil)
	}
	index := int(id) - 1
	if index < 0 || index >= f.NodeCount() {
		return core.Node{}, lingoerr.New(lingoerr.KindInvalidNodeID, "", nil)
	}

	offset := int(f.header.NodeArray.Offset) + index*core.NodeSize
	if offset+core.NodeSize > len(f.data) {
		return core.Node{}, lingoerr.New(lingoerr.KindOutOfBounds, "node array", nil)
	}
	return core.DecodeNode(f.data[offset : offset+core.NodeSize])
}

// Connection returns the connection record at the given flat index.
func (f *File) Connection(index int) (core.Connection, error) {
	if index < 0 || index >= f.ConnectionCount() {
		return core.Connection{}, lingoerr.New(lingoerr.KindOutOfBounds, "connection array", nil)
	}
	offset := int(f.header.ConnArray.Offset) + index*core.ConnectionSize
	if offset+core.ConnectionSize > len(f.data) {
		return core.Connection{}, lingoerr.New(lingoerr.KindOutOfBounds, "connection array", nil)
	}
	return core.DecodeConnection(f.data[offset : offset+core.ConnectionSize])
}

// NodeConnections returns the connection slice owned by node.
func (f *File) NodeConnections(node core.Node) ([]core.Connection, error) {
	start := int(node.ConnectionsOffset)
	count := int(node.ConnectionsCount)
	if start+count > f.ConnectionCount() {
		return nil, lingoerr.New(lingoerr.KindOutOfBounds, "node connection range", nil)
	}
	out := make([]core.Connection, count)
	for i := 0; i < count; i++ {
		c, err := f.Connection(start + i)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// StringTable returns a read-only view over the file's string table
// section.
func (f *File) StringTable() *stringtable.Table {
	start := f.header.StringTable.Offset
	end := start + f.header.StringTable.Size
	return stringtable.FromBytes(f.data[start:end])
}

// OctreeSection returns the raw bytes of the octree section for the
// spatial index to parse.
func (f *File) OctreeSection() []byte {
	start := f.header.Octree.Offset
	end := start + f.header.Octree.Size
	return f.data[start:end]
}

// Children returns the child node IDs for node, read from the vertical
// index section (a flat u32 array addressed by ChildrenOffset/Count).
func (f *File) Children(node core.Node) ([]core.NodeID, error) {
	base := f.header.VerticalIndex.Offset
	start := base + uint64(node.ChildrenOffset)*4
	end := start + uint64(node.ChildrenCount)*4
	if end > f.header.VerticalIndex.End() {
		return nil, lingoerr.New(lingoerr.KindOutOfBounds, "vertical index", nil)
	}
	out := make([]core.NodeID, node.ChildrenCount)
	for i := range out {
		off := start + uint64(i)*4
		out[i] = core.NodeID(binary.LittleEndian.Uint32(f.data[off : off+4]))
	}
	return out, nil
}

// SpatialIndex reconstructs the queryable octree over every node's
// position by scanning the node array for positions and spatial_bucket
// assignments, then decoding the octree section's tree shape over them.
func (f *File) SpatialIndex() (*spatial.Index, error) {
	positions := make(map[core.NodeID]core.Coordinate3D, f.NodeCount())
	buckets := make(map[core.NodeID]uint32, f.NodeCount())
	for i := 0; i < f.NodeCount(); i++ {
		n, err := f.Node(core.NodeID(i + 1))
		if err != nil {
			return nil, err
		}
		positions[n.ID] = n.Position
		buckets[n.ID] = n.SpatialBucket
	}
	return spatial.Load(f.OctreeSection(), positions, buckets)
}

// FindByWord performs a linear scan for a node whose text matches word
// exactly (spec §4: "acceptable cost for bounded corpora").
func (f *File) FindByWord(word string) (core.NodeID, bool) {
	strs := f.StringTable()
	for i := 0; i < f.NodeCount(); i++ {
		n, err := f.Node(core.NodeID(i + 1))
		if err != nil {
			continue
		}
		got, err := strs.Get(stringtable.Ref{Offset: n.WordOffset, Length: n.WordLength})
		if err != nil {
			continue
		}
		if got == word {
			return n.ID, true
		}
	}
	return 0, false
}
