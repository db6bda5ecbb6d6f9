// Package builder implements the accumulate-then-write path for producing
// a Lingo database file: nodes and connections are staged in memory, sorted
// and cross-referenced, indexed by internal/spatial, and written out as a
// single bit-exact file (spec §4.9 build side, §6.4).
package builder

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"

	"github.com/lingodb/lingo/internal/config"
	"github.com/lingodb/lingo/internal/core"
	"github.com/lingodb/lingo/internal/lingoerr"
	"github.com/lingodb/lingo/internal/lingoutil"
	"github.com/lingodb/lingo/internal/spatial"
	"github.com/lingodb/lingo/internal/stringtable"
)

// pendingConnection is a connection awaiting its source node's final,
// sorted index.
type pendingConnection struct {
	source core.NodeID
	conn   core.Connection
	// discovery is builder-only diagnostic metadata; never serialized
	// (spec §9 Open Question — see DESIGN.md).
	discovery core.DiscoveryMethod
}

// Builder accumulates a database's contents before writing it to disk.
type Builder struct {
	nodes        []core.Node
	nodeIndex    map[core.NodeID]int
	connections  []pendingConnection
	children     map[core.NodeID][]core.NodeID
	strings      *stringtable.Table
	languageCode string
	modelVersion string
	nextID       core.NodeID
	cfg          config.Config
}

// New returns an empty builder with default metadata and octree tuning.
func New() *Builder {
	return NewWithConfig(config.Default())
}

// NewWithConfig is New with explicit octree depth/leaf-size tuning.
func NewWithConfig(cfg config.Config) *Builder {
	return &Builder{
		nodeIndex:    make(map[core.NodeID]int),
		children:     make(map[core.NodeID][]core.NodeID),
		strings:      stringtable.New(),
		languageCode: "en-US",
		modelVersion: "1.0.0",
		nextID:       1,
		cfg:          cfg,
	}
}

// SetLanguage sets the file's language code (truncated to 8 bytes on write).
func (b *Builder) SetLanguage(code string) *Builder {
	b.languageCode = code
	return b
}

// SetModelVersion sets the file's model version string (truncated to 16
// bytes on write).
func (b *Builder) SetModelVersion(version string) *Builder {
	b.modelVersion = version
	return b
}

// maxNodes is the spec §4.3 TooManyNodes threshold: 2^31, half the NodeID
// space, leaving room for the 1-based ID convention and sentinel values.
const maxNodes = 1 << 31

// checkNodeCapacity rejects a node count at or beyond maxNodes. Split out
// from AddNode so the boundary can be tested without building a slice of
// two billion nodes.
func checkNodeCapacity(count int) error {
	if count >= maxNodes {
		return lingoerr.New(lingoerr.KindTooManyNodes, "", nil)
	}
	return nil
}

// AddNode interns word and appends a new node at the next monotonic ID,
// returning that ID. IDs are issued starting at 1; 0 is never assigned.
func (b *Builder) AddNode(word string, layer core.Layer, position core.Coordinate3D) (core.NodeID, error) {
	if !position.IsValid() {
		return 0, lingoerr.New(lingoerr.KindInvalidCoordinate, word, nil)
	}
	if err := checkNodeCapacity(len(b.nodes)); err != nil {
		return 0, err
	}

	ref, err := b.strings.Intern(word)
	if err != nil {
		return 0, err
	}

	id := b.nextID
	b.nextID++

	node := core.NewNode(id, layer, position)
	node.WordOffset = ref.Offset
	node.WordLength = ref.Length

	b.nodeIndex[id] = len(b.nodes)
	b.nodes = append(b.nodes, node)
	return id, nil
}

// SetNodeProperties updates etymology, morpheme type, and flags on an
// already-added node.
func (b *Builder) SetNodeProperties(id core.NodeID, etymology core.EtymologyOrigin, morpheme core.MorphemeType, flags core.NodeFlags) error {
	idx, ok := b.nodeIndex[id]
	if !ok {
		return lingoerr.New(lingoerr.KindInvalidNodeID, "", nil)
	}
	b.nodes[idx].EtymologyOrigin = etymology
	b.nodes[idx].MorphemeType = morpheme
	b.nodes[idx].Flags = flags
	return nil
}

// SetChildren records parent's children in tree order (spec §4.7.4
// LayerDown: "symmetric using the children slice"). Both parent and every
// child must already have been added.
func (b *Builder) SetChildren(parent core.NodeID, children []core.NodeID) error {
	if _, ok := b.nodeIndex[parent]; !ok {
		return lingoerr.New(lingoerr.KindInvalidNodeID, "", nil)
	}
	for _, c := range children {
		if _, ok := b.nodeIndex[c]; !ok {
			return lingoerr.New(lingoerr.KindInvalidNodeID, "", nil)
		}
	}
	b.children[parent] = append([]core.NodeID(nil), children...)
	return nil
}

// AddConnection records an edge from source to target. Both nodes must
// already have been added.
func (b *Builder) AddConnection(source, target core.NodeID, connType core.ConnectionType, strength float32, discovery core.DiscoveryMethod) error {
	if _, ok := b.nodeIndex[source]; !ok {
		return lingoerr.New(lingoerr.KindUnknownTarget, "connection source", nil)
	}
	if _, ok := b.nodeIndex[target]; !ok {
		return lingoerr.New(lingoerr.KindUnknownTarget, "connection target", nil)
	}

	b.connections = append(b.connections, pendingConnection{
		source:    source,
		conn:      core.NewConnection(target, connType, strength),
		discovery: discovery,
	})
	return nil
}

// NodeCount returns the number of nodes staged so far.
func (b *Builder) NodeCount() int { return len(b.nodes) }

// Build computes final layout, constructs the spatial index, and writes the
// completed database to path. The file is assembled in a sibling temp file
// and renamed into place so readers never observe a partially-written file
// (spec §6.4).
func (b *Builder) Build(path string) error {
	safePath, err := lingoutil.ValidatePath(path)
	if err != nil {
		return err
	}

	sort.Slice(b.nodes, func(i, j int) bool { return b.nodes[i].ID < b.nodes[j].ID })
	for i, n := range b.nodes {
		b.nodeIndex[n.ID] = i
	}

	if err := b.assignConnectionOffsets(); err != nil {
		return err
	}
	childrenBytes := b.assignChildrenOffsets()

	octreeIndex := b.buildOctree()

	tmp, err := os.CreateTemp(filepath.Dir(safePath), ".lingo-build-*")
	if err != nil {
		return lingoerr.Wrap("create temp build file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := b.writeSections(tmp, octreeIndex, childrenBytes); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return lingoerr.Wrap("close temp build file", err)
	}

	if err := os.Rename(tmpPath, safePath); err != nil {
		return lingoerr.Wrap("rename build output into place", err)
	}
	return nil
}

// assignConnectionOffsets sorts connections by source node index (stable
// within a source, preserving insertion order) and records each node's
// connections_offset/connections_count.
func (b *Builder) assignConnectionOffsets() error {
	sort.SliceStable(b.connections, func(i, j int) bool {
		return b.nodeIndex[b.connections[i].source] < b.nodeIndex[b.connections[j].source]
	})

	var offset uint32
	i := 0
	for i < len(b.connections) {
		source := b.connections[i].source
		idx, ok := b.nodeIndex[source]
		if !ok {
			return lingoerr.New(lingoerr.KindUnknownTarget, "connection source", nil)
		}

		j := i
		for j < len(b.connections) && b.connections[j].source == source {
			j++
		}
		count := j - i

		b.nodes[idx].ConnectionsOffset = offset
		b.nodes[idx].ConnectionsCount = uint16(count)
		offset += uint32(count)
		i = j
	}
	return nil
}

// assignChildrenOffsets flattens b.children into the vertical index array,
// setting each node's ChildrenOffset/ChildrenCount to its slice within it.
func (b *Builder) assignChildrenOffsets() []byte {
	var flat []core.NodeID
	for _, n := range b.nodes {
		kids := b.children[n.ID]
		idx := b.nodeIndex[n.ID]
		b.nodes[idx].ChildrenOffset = uint32(len(flat))
		b.nodes[idx].ChildrenCount = uint16(len(kids))
		flat = append(flat, kids...)
	}

	out := make([]byte, len(flat)*4)
	for i, id := range flat {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], uint32(id))
	}
	return out
}

// buildOctree indexes every node's position and writes each node's
// resulting spatial_bucket back onto the node record, since the octree
// section persists tree shape only — bucket membership is recovered at
// load time from spatial_bucket (see spatial.Load).
func (b *Builder) buildOctree() *spatial.Index {
	ob := spatial.NewBuilderWithConfig(b.cfg)
	for _, n := range b.nodes {
		ob.Add(n.ID, n.Position)
	}
	idx := ob.Build()

	for i, n := range b.nodes {
		if bucket, ok := idx.BucketOf(n.ID); ok {
			b.nodes[i].SpatialBucket = bucket
		}
	}
	return idx
}
