package core

import (
	"encoding/binary"

	"github.com/lingodb/lingo/internal/lingoerr"
)

// HeaderSize is the fixed, bit-exact size of the file header.
const HeaderSize = 512

// Magic is the 8-byte signature every Lingo file begins with.
var Magic = [8]byte{'L', 'I', 'N', 'G', 'O', '1', '.', '0'}

// MaxMajorVersion is the highest major version this reader accepts.
const MaxMajorVersion = 1

// CompressionType names the (currently always None) compression algorithm
// applied to the node/connection arrays. format_flags/compression_type are
// carried and round-tripped by the header even though this implementation's
// builder never produces anything but None — see SPEC_FULL.md DOMAIN STACK.
type CompressionType uint8

const (
	CompressionNone CompressionType = iota
	CompressionLZ4
	CompressionZstd
	CompressionDictionary
)

// FormatFlags is a bitset of optional file-format features.
type FormatFlags uint32

const (
	FlagStringCompression FormatFlags = 1 << iota
	FlagHasPhoneticIndex
	FlagHasEtymologyIndex
	FlagHasLearningData
	FlagMobileOptimized
	FlagHasCacheHints
	FlagDebugSymbols
)

// SectionRef is an (offset, size) pair locating a section within the file.
type SectionRef struct {
	Offset uint64
	Size   uint64
}

// End returns Offset+Size.
func (s SectionRef) End() uint64 { return s.Offset + s.Size }

// Header is the in-memory representation of the fixed 512-byte file header.
type Header struct {
	VersionMajor    uint16
	VersionMinor    uint16
	FormatFlags     FormatFlags
	FileSize        uint64
	NodeCount       uint32
	ConnectionCount uint32
	OctreeDepth     uint8
	LayerCount      uint8
	CompressionType CompressionType

	StringTable SectionRef
	NodeArray   SectionRef
	ConnArray   SectionRef
	Octree      SectionRef

	VerticalIndex SectionRef
	CacheHints    SectionRef

	HeaderChecksum uint64
	DataChecksum   uint64
	StringChecksum uint64
	IndexChecksum  uint64

	CreationTimestamp uint64
	LanguageCode      [8]byte
	ModelVersion      [16]byte
	BuildInfo         [32]byte
	Reserved          [64]byte
}

// NewHeader returns a header with the fixed fields filled in: current
// magic/version, seven layers, no compression.
func NewHeader() Header {
	return Header{
		VersionMajor:    1,
		VersionMinor:    0,
		LayerCount:      LayerCount,
		CompressionType: CompressionNone,
		StringTable:     SectionRef{Offset: HeaderSize},
	}
}

// Validate checks the fields that must hold for any file this reader will
// open: magic (checked separately from the raw bytes before decode),
// version, and layer count. Section-offset bounds are checked by the caller
// once file size is known.
func (h Header) Validate() error {
	if h.VersionMajor > MaxMajorVersion {
		return lingoerr.New(lingoerr.KindUnsupportedVersion, "", nil)
	}
	if h.LayerCount != LayerCount {
		return lingoerr.New(lingoerr.KindCorruptSection, "header.layer_count", nil)
	}
	return nil
}

// EncodeHeader writes h into a 512-byte little-endian buffer.
func EncodeHeader(h Header) [HeaderSize]byte {
	var buf [HeaderSize]byte
	copy(buf[0:8], Magic[:])
	binary.LittleEndian.PutUint16(buf[8:10], h.VersionMajor)
	binary.LittleEndian.PutUint16(buf[10:12], h.VersionMinor)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(h.FormatFlags))

	binary.LittleEndian.PutUint64(buf[16:24], h.FileSize)
	binary.LittleEndian.PutUint32(buf[24:28], h.NodeCount)
	binary.LittleEndian.PutUint32(buf[28:32], h.ConnectionCount)
	buf[32] = h.OctreeDepth
	buf[33] = h.LayerCount
	buf[34] = uint8(h.CompressionType)
	// buf[35] reserved padding byte

	off := 36
	putSection := func(s SectionRef) {
		binary.LittleEndian.PutUint64(buf[off:off+8], s.Offset)
		binary.LittleEndian.PutUint64(buf[off+8:off+16], s.Size)
		off += 16
	}
	putSection(h.StringTable)
	putSection(h.NodeArray)
	putSection(h.ConnArray)
	putSection(h.Octree)
	putSection(h.VerticalIndex)
	putSection(h.CacheHints)

	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[off:off+8], v)
		off += 8
	}
	putU64(h.HeaderChecksum)
	putU64(h.DataChecksum)
	putU64(h.StringChecksum)
	putU64(h.IndexChecksum)
	putU64(h.CreationTimestamp)

	copy(buf[off:off+8], h.LanguageCode[:])
	off += 8
	copy(buf[off:off+16], h.ModelVersion[:])
	off += 16
	copy(buf[off:off+32], h.BuildInfo[:])
	off += 32
	copy(buf[off:off+64], h.Reserved[:])

	return buf
}

// DecodeHeader parses a 512-byte buffer. It does not validate; callers
// should call Validate (and check the magic separately) afterward.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) != HeaderSize {
		return Header{}, lingoerr.New(lingoerr.KindTruncated, "header", nil)
	}

	var h Header
	h.VersionMajor = binary.LittleEndian.Uint16(buf[8:10])
	h.VersionMinor = binary.LittleEndian.Uint16(buf[10:12])
	h.FormatFlags = FormatFlags(binary.LittleEndian.Uint32(buf[12:16]))

	h.FileSize = binary.LittleEndian.Uint64(buf[16:24])
	h.NodeCount = binary.LittleEndian.Uint32(buf[24:28])
	h.ConnectionCount = binary.LittleEndian.Uint32(buf[28:32])
	h.OctreeDepth = buf[32]
	h.LayerCount = buf[33]
	h.CompressionType = CompressionType(buf[34])

	off := 36
	getSection := func() SectionRef {
		s := SectionRef{
			Offset: binary.LittleEndian.Uint64(buf[off : off+8]),
			Size:   binary.LittleEndian.Uint64(buf[off+8 : off+16]),
		}
		off += 16
		return s
	}
	h.StringTable = getSection()
	h.NodeArray = getSection()
	h.ConnArray = getSection()
	h.Octree = getSection()
	h.VerticalIndex = getSection()
	h.CacheHints = getSection()

	getU64 := func() uint64 {
		v := binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
		return v
	}
	h.HeaderChecksum = getU64()
	h.DataChecksum = getU64()
	h.StringChecksum = getU64()
	h.IndexChecksum = getU64()
	h.CreationTimestamp = getU64()

	copy(h.LanguageCode[:], buf[off:off+8])
	off += 8
	copy(h.ModelVersion[:], buf[off:off+16])
	off += 16
	copy(h.BuildInfo[:], buf[off:off+32])
	off += 32
	copy(h.Reserved[:], buf[off:off+64])

	return h, nil
}

// CheckMagic reports whether buf begins with the Lingo magic bytes.
func CheckMagic(buf []byte) bool {
	if len(buf) < 8 {
		return false
	}
	return string(buf[:8]) == string(Magic[:])
}
