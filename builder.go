package lingo

import (
	"github.com/lingodb/lingo/internal/builder"
	"github.com/lingodb/lingo/internal/config"
	"github.com/lingodb/lingo/internal/core"
)

// Config collects the tunable knobs shared by the builder's octree
// indexing, the query VM, and the adaptive calibrator.
type Config = config.Config

// DefaultConfig returns the tuning the spec fixes as default behaviour.
func DefaultConfig() Config { return config.Default() }

// Layer is one of the seven hierarchy levels (spec §3.1).
type Layer = core.Layer

// Coordinate3D is a position in the 3D semantic/etymological/layer space.
type Coordinate3D = core.Coordinate3D

// ConnectionType is a typed relationship between two nodes.
type ConnectionType = core.ConnectionType

// MorphemeType is a node's storage-layer morphological class.
type MorphemeType = core.MorphemeType

// EtymologyOrigin classifies a node's etymological origin.
type EtymologyOrigin = core.EtymologyOrigin

// NodeFlags is a bitset of boolean node properties.
type NodeFlags = core.NodeFlags

// DiscoveryMethod records how a connection was found; builder-side
// diagnostic metadata only, never persisted (spec §9 Open Question).
type DiscoveryMethod = core.DiscoveryMethod

// Re-exported layer constants (spec §3.1).
const (
	LayerLetters   = core.LayerLetters
	LayerPhonemes  = core.LayerPhonemes
	LayerMorphemes = core.LayerMorphemes
	LayerWords     = core.LayerWords
	LayerPhrases   = core.LayerPhrases
	LayerConcepts  = core.LayerConcepts
	LayerDomains   = core.LayerDomains
)

// Re-exported connection type constants (spec §3.3).
const (
	ConnSynonymy             = core.ConnSynonymy
	ConnAntonymy             = core.ConnAntonymy
	ConnHypernymy            = core.ConnHypernymy
	ConnHyponymy             = core.ConnHyponymy
	ConnMeronymy             = core.ConnMeronymy
	ConnDerivation           = core.ConnDerivation
	ConnEtymology            = core.ConnEtymology
	ConnPhonetic             = core.ConnPhonetic
	ConnAnalogy              = core.ConnAnalogy
	ConnCollocation          = core.ConnCollocation
	ConnCausation            = core.ConnCausation
	ConnLearned              = core.ConnLearned
	ConnLexicalBridge        = core.ConnLexicalBridge
	ConnMorphologicalPattern = core.ConnMorphologicalPattern
)

// Re-exported morpheme type constants (spec §4.5).
const (
	MorphemeRoot      = core.MorphemeRoot
	MorphemePrefix    = core.MorphemePrefix
	MorphemeSuffix    = core.MorphemeSuffix
	MorphemeInfix     = core.MorphemeInfix
	MorphemeCircumfix = core.MorphemeCircumfix
	MorphemeCompound  = core.MorphemeCompound
)

// Re-exported etymology origin constants.
const (
	EtymologyGermanic = core.EtymologyGermanic
	EtymologyUnknown  = core.EtymologyUnknown
)

// Re-exported discovery method constants (builder-side diagnostic metadata
// only; never persisted).
const (
	DiscoveryPrecomputed = core.DiscoveryPrecomputed
)

// Builder accumulates a database's contents in memory before writing a
// single bit-exact .lingo file (spec §4.4, C5).
type Builder struct {
	b *builder.Builder
}

// NewBuilder returns an empty builder with default metadata and octree
// tuning.
func NewBuilder() *Builder {
	return &Builder{b: builder.New()}
}

// NewBuilderWithConfig is NewBuilder with explicit octree depth/leaf-size
// tuning, carried through to the built file's spatial index.
func NewBuilderWithConfig(cfg Config) *Builder {
	return &Builder{b: builder.NewWithConfig(cfg)}
}

// SetLanguage sets the file's language code.
func (b *Builder) SetLanguage(code string) *Builder {
	b.b.SetLanguage(code)
	return b
}

// SetModelVersion sets the file's model version string.
func (b *Builder) SetModelVersion(version string) *Builder {
	b.b.SetModelVersion(version)
	return b
}

// AddNode interns word and appends a new node, returning its assigned ID.
func (b *Builder) AddNode(word string, layer Layer, position Coordinate3D) (NodeID, error) {
	return b.b.AddNode(word, layer, position)
}

// SetNodeProperties updates etymology, morpheme type, and flags on an
// already-added node.
func (b *Builder) SetNodeProperties(id NodeID, etymology EtymologyOrigin, morpheme MorphemeType, flags NodeFlags) error {
	return b.b.SetNodeProperties(id, etymology, morpheme, flags)
}

// SetChildren records parent's children in tree order.
func (b *Builder) SetChildren(parent NodeID, children []NodeID) error {
	return b.b.SetChildren(parent, children)
}

// AddConnection records a typed, weighted edge from source to target.
func (b *Builder) AddConnection(source, target NodeID, connType ConnectionType, strength float32, discovery DiscoveryMethod) error {
	return b.b.AddConnection(source, target, connType, strength, discovery)
}

// NodeCount returns the number of nodes staged so far.
func (b *Builder) NodeCount() int { return b.b.NodeCount() }

// Build computes final layout, constructs the spatial index, and writes
// the completed database to path atomically.
func (b *Builder) Build(path string) error {
	return b.b.Build(path)
}
