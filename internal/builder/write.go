package builder

import (
	"hash/crc64"
	"io"
	"os"

	"github.com/lingodb/lingo/internal/core"
	"github.com/lingodb/lingo/internal/lingoerr"
	"github.com/lingodb/lingo/internal/spatial"
)

var crc64Table = crc64.MakeTable(crc64.ISO)

func checksum(b []byte) uint64 { return crc64.Checksum(b, crc64Table) }

// Checksum is the CRC-64 (ISO polynomial) used for every section checksum
// in the file format; mmapfile recomputes it on read to detect corruption.
func Checksum(b []byte) uint64 { return checksum(b) }

// writeSections lays out and writes every section of the file, in order:
// header, string table, node array, connection array, octree, vertical
// index (children lists).
func (b *Builder) writeSections(w *os.File, octreeIndex *spatial.Index, childrenBytes []byte) error {
	alloc := newAllocator(core.HeaderSize)

	stringBytes := b.strings.Bytes()
	stringRef := core.SectionRef{Offset: alloc.allocate(uint64(len(stringBytes))), Size: uint64(len(stringBytes))}

	nodeBytes := make([]byte, 0, len(b.nodes)*core.NodeSize)
	for _, n := range b.nodes {
		enc := core.EncodeNode(n)
		nodeBytes = append(nodeBytes, enc[:]...)
	}
	nodeRef := core.SectionRef{Offset: alloc.allocate(uint64(len(nodeBytes))), Size: uint64(len(nodeBytes))}

	connBytes := b.encodeConnections()
	connRef := core.SectionRef{Offset: alloc.allocate(uint64(len(connBytes))), Size: uint64(len(connBytes))}

	treeNodes := octreeIndex.Nodes()
	octreeBytes := make([]byte, 0, len(treeNodes)*spatial.NodeSize)
	for _, n := range treeNodes {
		enc := spatial.EncodeTreeNode(n)
		octreeBytes = append(octreeBytes, enc[:]...)
	}
	octreeRef := core.SectionRef{Offset: alloc.allocate(uint64(len(octreeBytes))), Size: uint64(len(octreeBytes))}

	verticalRef := core.SectionRef{Offset: alloc.allocate(uint64(len(childrenBytes))), Size: uint64(len(childrenBytes))}

	fileSize := alloc.end()

	h := core.NewHeader()
	h.FileSize = fileSize
	h.NodeCount = uint32(len(b.nodes))
	h.ConnectionCount = uint32(len(b.connections))
	h.OctreeDepth = octreeIndex.Stats().MaxDepth
	h.StringTable = stringRef
	h.NodeArray = nodeRef
	h.ConnArray = connRef
	h.Octree = octreeRef
	h.VerticalIndex = verticalRef
	copy(h.LanguageCode[:], b.languageCode)
	copy(h.ModelVersion[:], b.modelVersion)

	h.StringChecksum = checksum(stringBytes)
	h.DataChecksum = checksum(append(append([]byte{}, nodeBytes...), connBytes...))
	h.IndexChecksum = checksum(octreeBytes)

	headerBytes := core.EncodeHeader(h)
	h.HeaderChecksum = checksum(headerBytes[:])
	headerBytes = core.EncodeHeader(h) // re-encode with header checksum included

	for _, section := range []struct {
		offset uint64
		data   []byte
	}{
		{stringRef.Offset, stringBytes},
		{nodeRef.Offset, nodeBytes},
		{connRef.Offset, connBytes},
		{octreeRef.Offset, octreeBytes},
		{verticalRef.Offset, childrenBytes},
	} {
		if len(section.data) == 0 {
			continue
		}
		if _, err := w.Seek(int64(section.offset), io.SeekStart); err != nil {
			return lingoerr.Wrap("seek to section offset", err)
		}
		if _, err := w.Write(section.data); err != nil {
			return lingoerr.Wrap("write section", err)
		}
	}

	if _, err := w.Seek(0, io.SeekStart); err != nil {
		return lingoerr.Wrap("seek to header", err)
	}
	if _, err := w.Write(headerBytes[:]); err != nil {
		return lingoerr.Wrap("write header", err)
	}
	if err := w.Truncate(int64(fileSize)); err != nil {
		return lingoerr.Wrap("set final file size", err)
	}
	return nil
}

func (b *Builder) encodeConnections() []byte {
	out := make([]byte, 0, len(b.connections)*core.ConnectionSize)
	for _, pc := range b.connections {
		enc := core.EncodeConnection(pc.conn)
		out = append(out, enc[:]...)
	}
	return out
}
