package core

import (
	"encoding/binary"
	"math"

	"github.com/lingodb/lingo/internal/lingoerr"
)

// NodeID identifies a node. 0 is reserved for "invalid"; the builder issues
// IDs from a monotonically increasing counter starting at 1.
type NodeID uint32

// NodeSize is the fixed, bit-exact size of an encoded Node record.
const NodeSize = 60

// NodeFlags is a bitset of boolean node properties.
type NodeFlags uint8

const (
	FlagTerminal NodeFlags = 1 << iota
	FlagHasVariants
	FlagProductive
	FlagBorrowed
	FlagArchaic
	FlagTechnical
	FlagLearned
	FlagFrequent
)

func (f NodeFlags) Has(flag NodeFlags) bool { return f&flag != 0 }

// Node is the in-memory representation of the fixed 60-byte on-disk record.
// Field order here does not need to match the wire layout; EncodeNode and
// DecodeNode are the single source of truth for that.
type Node struct {
	Position           Coordinate3D
	ID                 NodeID
	Layer              Layer
	WordOffset         uint32
	WordLength         uint16
	Flags              NodeFlags
	EtymologyOrigin    EtymologyOrigin
	PhoneticSignature  uint64
	MorphemeType       MorphemeType
	ProductivityScore  uint16 // fixed-point 0..65535 representing 0.0..1.0
	FrequencyRank      uint32 // u32::MAX denotes "unranked"
	ChildrenOffset     uint32
	ChildrenCount      uint16
	ConnectionsOffset  uint32
	ConnectionsCount   uint16
	SpatialBucket      uint32
}

// UnrankedFrequency is the sentinel frequency_rank meaning "unranked".
const UnrankedFrequency uint32 = math.MaxUint32

// NewNode returns a node with default properties: unranked frequency, no
// flags, unknown etymology, root morpheme type.
func NewNode(id NodeID, layer Layer, position Coordinate3D) Node {
	return Node{
		Position:        position,
		ID:              id,
		Layer:           layer,
		EtymologyOrigin: EtymologyUnknown,
		MorphemeType:    MorphemeRoot,
		FrequencyRank:   UnrankedFrequency,
	}
}

// ProductivityFloat returns ProductivityScore mapped back to [0,1].
func (n Node) ProductivityFloat() float32 {
	return float32(n.ProductivityScore) / 65535.0
}

// SetProductivityFloat encodes a [0,1] productivity value as fixed-point.
func (n *Node) SetProductivityFloat(v float32) {
	n.ProductivityScore = uint16(clamp01(v) * 65535.0)
}

// EncodeNode writes n into a freshly allocated 60-byte little-endian record.
//
// Wire layout (all little-endian):
//
//	0:  position.x f32, position.y f32, position.z f32   (12)
//	12: id u32                                           (4)
//	16: layer u8                                         (1)
//	17: word_offset u32                                  (4)
//	21: word_length u16                                  (2)
//	23: flags u8                                         (1)
//	24: etymology_origin u8                              (1)
//	25: phonetic_signature u64                           (8)
//	33: morpheme_type u8                                 (1)
//	34: productivity_score u16                            (2)
//	36: frequency_rank u32                               (4)
//	40: children_offset u32                              (4)
//	44: children_count u16                                (2)
//	46: connections_offset u32                            (4)
//	50: connections_count u16                              (2)
//	52: spatial_bucket u32                                (4)
//	56: padding                                           (4)
func EncodeNode(n Node) [NodeSize]byte {
	var buf [NodeSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(n.Position.X))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(n.Position.Y))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(n.Position.Z))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(n.ID))
	buf[16] = uint8(n.Layer)
	binary.LittleEndian.PutUint32(buf[17:21], n.WordOffset)
	binary.LittleEndian.PutUint16(buf[21:23], n.WordLength)
	buf[23] = uint8(n.Flags)
	buf[24] = uint8(n.EtymologyOrigin)
	binary.LittleEndian.PutUint64(buf[25:33], n.PhoneticSignature)
	buf[33] = uint8(n.MorphemeType)
	binary.LittleEndian.PutUint16(buf[34:36], n.ProductivityScore)
	binary.LittleEndian.PutUint32(buf[36:40], n.FrequencyRank)
	binary.LittleEndian.PutUint32(buf[40:44], n.ChildrenOffset)
	binary.LittleEndian.PutUint16(buf[44:46], n.ChildrenCount)
	binary.LittleEndian.PutUint32(buf[46:50], n.ConnectionsOffset)
	binary.LittleEndian.PutUint16(buf[50:52], n.ConnectionsCount)
	binary.LittleEndian.PutUint32(buf[52:56], n.SpatialBucket)
	return buf
}

// DecodeNode parses a 60-byte record. buf must be exactly NodeSize bytes;
// callers slicing out of a larger mapping are responsible for bounds.
func DecodeNode(buf []byte) (Node, error) {
	if len(buf) != NodeSize {
		return Node{}, lingoerr.New(lingoerr.KindCorruptSection, "node record", nil)
	}
	var n Node
	n.Position = Coordinate3D{
		X: math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])),
	}
	n.ID = NodeID(binary.LittleEndian.Uint32(buf[12:16]))
	n.Layer = Layer(buf[16])
	n.WordOffset = binary.LittleEndian.Uint32(buf[17:21])
	n.WordLength = binary.LittleEndian.Uint16(buf[21:23])
	n.Flags = NodeFlags(buf[23])
	n.EtymologyOrigin = EtymologyOrigin(buf[24])
	n.PhoneticSignature = binary.LittleEndian.Uint64(buf[25:33])
	n.MorphemeType = MorphemeType(buf[33])
	n.ProductivityScore = binary.LittleEndian.Uint16(buf[34:36])
	n.FrequencyRank = binary.LittleEndian.Uint32(buf[36:40])
	n.ChildrenOffset = binary.LittleEndian.Uint32(buf[40:44])
	n.ChildrenCount = binary.LittleEndian.Uint16(buf[44:46])
	n.ConnectionsOffset = binary.LittleEndian.Uint32(buf[46:50])
	n.ConnectionsCount = binary.LittleEndian.Uint16(buf[50:52])
	n.SpatialBucket = binary.LittleEndian.Uint32(buf[52:56])
	return n, nil
}
