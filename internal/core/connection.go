package core

import (
	"encoding/binary"
	"math"

	"github.com/lingodb/lingo/internal/lingoerr"
)

// ConnectionSize is the fixed, bit-exact size of an encoded Connection
// record.
const ConnectionSize = 20

// ConnectionType is the typed relationship a Connection expresses.
type ConnectionType uint8

const (
	ConnSynonymy ConnectionType = iota
	ConnAntonymy
	ConnHypernymy
	ConnHyponymy
	ConnMeronymy
	ConnDerivation
	ConnEtymology
	ConnPhonetic
	ConnAnalogy
	ConnCollocation
	ConnCausation
	ConnLearned
	ConnLexicalBridge
	ConnMorphologicalPattern
)

func (c ConnectionType) String() string {
	switch c {
	case ConnSynonymy:
		return "synonymy"
	case ConnAntonymy:
		return "antonymy"
	case ConnHypernymy:
		return "hypernymy"
	case ConnHyponymy:
		return "hyponymy"
	case ConnMeronymy:
		return "meronymy"
	case ConnDerivation:
		return "derivation"
	case ConnEtymology:
		return "etymology"
	case ConnPhonetic:
		return "phonetic"
	case ConnAnalogy:
		return "analogy"
	case ConnCollocation:
		return "collocation"
	case ConnCausation:
		return "causation"
	case ConnLearned:
		return "learned"
	case ConnLexicalBridge:
		return "lexical_bridge"
	case ConnMorphologicalPattern:
		return "morphological_pattern"
	default:
		return "unknown"
	}
}

// IsBidirectional reports whether the relationship reads the same in both
// directions (spec §3.3: "some types have a defined inverse").
func (c ConnectionType) IsBidirectional() bool {
	switch c {
	case ConnSynonymy, ConnAntonymy, ConnPhonetic, ConnAnalogy, ConnCollocation:
		return true
	default:
		return false
	}
}

// Inverse returns the connection type that reverses c, if one exists.
// Hypernymy/hyponymy invert to each other; bidirectional types invert to
// themselves; meronymy and the rest have no defined inverse (a
// part-whole edge doesn't imply a reverse edge of the same type).
func (c ConnectionType) Inverse() (ConnectionType, bool) {
	switch c {
	case ConnHypernymy:
		return ConnHyponymy, true
	case ConnHyponymy:
		return ConnHypernymy, true
	case ConnMeronymy:
		return 0, false
	default:
		if c.IsBidirectional() {
			return c, true
		}
		return 0, false
	}
}

// ContextMask is a bitset of the domains/registers a connection applies in.
type ContextMask uint8

const (
	ContextMedical ContextMask = 1 << iota
	ContextBusiness
	ContextTechnical
	ContextAcademic
	ContextCasual
	ContextFormal
	ContextArchaic
	ContextRegional
)

const contextDomainMask = ContextMedical | ContextBusiness | ContextTechnical | ContextAcademic
const contextRegisterMask = ContextCasual | ContextFormal | ContextArchaic | ContextRegional

// IsCompatibleWith reports whether two context masks can coexist: an empty
// mask is compatible with anything, otherwise they must share at least one
// bit.
func (c ContextMask) IsCompatibleWith(other ContextMask) bool {
	if c == 0 || other == 0 {
		return true
	}
	return c&other != 0
}

// DomainsOnly returns the subset of c that names a subject domain.
func (c ContextMask) DomainsOnly() ContextMask { return c & contextDomainMask }

// RegisterOnly returns the subset of c that names a register.
func (c ContextMask) RegisterOnly() ContextMask { return c & contextRegisterMask }

// DiscoveryMethod records how a connection was found. It is builder-side
// metadata only — carrying it in the fixed 20-byte Connection record would
// break the file format, so the builder stores it on each pending
// connection; nothing reads it back and it is never written to the file
// (see SPEC_FULL.md SUPPLEMENTED FEATURES).
type DiscoveryMethod uint8

const (
	DiscoveryPrecomputed DiscoveryMethod = iota
	DiscoveryCrossDomainLexical
	DiscoveryMorphologicalPattern
	DiscoveryEtymologicalMining
	DiscoverySemanticField
	DiscoveryRuntimeLearning
	DiscoveryAnalogyDetection
)

// Connection is the in-memory representation of the fixed 20-byte edge
// record. Connections are owned by their source node; Target is referenced
// by ID only.
type Connection struct {
	Target               NodeID
	Strength             uint16 // fixed-point 0..65535 representing 0.0..1.0
	Type                 ConnectionType
	ContextMask          ContextMask
	TransformationVector Coordinate3D
}

// NewConnection builds a connection with strength clamped into [0,1] and
// encoded as fixed-point.
func NewConnection(target NodeID, connType ConnectionType, strength float32) Connection {
	return Connection{
		Target:   target,
		Strength: encodeFixed16(strength),
		Type:     connType,
	}
}

// StrengthFloat decodes Strength back to [0,1].
func (c Connection) StrengthFloat() float32 {
	return float32(c.Strength) / 65535.0
}

func encodeFixed16(v float32) uint16 {
	return uint16(clamp01(v) * 65535.0)
}

// EncodeConnection writes c into a 20-byte little-endian record.
//
// Wire layout:
//
//	0:  target_node_id u32                (4)
//	4:  strength u16                      (2)
//	6:  connection_type u8                (1)
//	7:  context_mask u8                   (1)
//	8:  transformation_vector 3×f32       (12)
func EncodeConnection(c Connection) [ConnectionSize]byte {
	var buf [ConnectionSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(c.Target))
	binary.LittleEndian.PutUint16(buf[4:6], c.Strength)
	buf[6] = uint8(c.Type)
	buf[7] = uint8(c.ContextMask)
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(c.TransformationVector.X))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(c.TransformationVector.Y))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(c.TransformationVector.Z))
	return buf
}

// DecodeConnection parses a 20-byte record.
func DecodeConnection(buf []byte) (Connection, error) {
	if len(buf) != ConnectionSize {
		return Connection{}, lingoerr.New(lingoerr.KindCorruptSection, "connection record", nil)
	}
	var c Connection
	c.Target = NodeID(binary.LittleEndian.Uint32(buf[0:4]))
	c.Strength = binary.LittleEndian.Uint16(buf[4:6])
	c.Type = ConnectionType(buf[6])
	c.ContextMask = ContextMask(buf[7])
	c.TransformationVector = Coordinate3D{
		X: math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(buf[12:16])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(buf[16:20])),
	}
	return c, nil
}
