// Package spatial implements the octree spatial index over a database's 3D
// coordinate space, giving the query engine sub-linear radius, k-nearest,
// and containment lookups (spec §4.6).
package spatial

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/lingodb/lingo/internal/config"
	"github.com/lingodb/lingo/internal/core"
	"github.com/lingodb/lingo/internal/lingoerr"
)

// MaxDepth bounds octree subdivision.
const MaxDepth = 10

// MaxLeafItems is the item count above which a leaf subdivides.
const MaxLeafItems = 16

// NodeSize is the fixed, bit-exact size of an encoded octree node.
const NodeSize = 64

// Flags is a bitset describing an octree node's role.
type Flags uint8

const (
	FlagLeaf Flags = 1 << iota
	FlagOptimized
	FlagCrossLayer
)

// TreeNode is one node of the serialized octree. Children holds, per
// octant, 0 for "no child" and index+1 for a real child — the root is
// addressed separately (never through a children slot), which resolves the
// sentinel ambiguity in the reference format (see DESIGN.md).
type TreeNode struct {
	Bounds     core.BoundingBox3D
	Children   [8]uint32
	NodeCount  uint16
	LeafBucket uint32 // index into the index's bucket table, leaves only
	Depth      uint8
	Flags      Flags
}

func (n TreeNode) IsLeaf() bool { return n.Flags&FlagLeaf != 0 }

// child returns the real node index for octant i, if any.
func (n TreeNode) child(i int) (uint32, bool) {
	v := n.Children[i]
	if v == 0 {
		return 0, false
	}
	return v - 1, true
}

func setChild(n *TreeNode, i int, index uint32) { n.Children[i] = index + 1 }

// EncodeTreeNode writes n into a fixed 64-byte little-endian record.
//
// Wire layout:
//
//	0:  bounds.min xyz f32, bounds.max xyz f32   (24)
//	24: children[8] u32                          (32)
//	56: node_count u16                           (2)
//	58: leaf_bucket u32                          (4)
//	62: depth u8                                 (1)
//	63: flags u8                                 (1)
func EncodeTreeNode(n TreeNode) [NodeSize]byte {
	var buf [NodeSize]byte
	putF32 := func(off int, v float32) { binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v)) }
	putF32(0, n.Bounds.Min.X)
	putF32(4, n.Bounds.Min.Y)
	putF32(8, n.Bounds.Min.Z)
	putF32(12, n.Bounds.Max.X)
	putF32(16, n.Bounds.Max.Y)
	putF32(20, n.Bounds.Max.Z)
	for i, c := range n.Children {
		binary.LittleEndian.PutUint32(buf[24+i*4:28+i*4], c)
	}
	binary.LittleEndian.PutUint16(buf[56:58], n.NodeCount)
	binary.LittleEndian.PutUint32(buf[58:62], n.LeafBucket)
	buf[62] = n.Depth
	buf[63] = uint8(n.Flags)
	return buf
}

// DecodeTreeNode parses a 64-byte octree node record.
func DecodeTreeNode(buf []byte) (TreeNode, error) {
	if len(buf) != NodeSize {
		return TreeNode{}, lingoerr.New(lingoerr.KindCorruptSection, "octree node", nil)
	}
	getF32 := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4])) }
	var n TreeNode
	n.Bounds = core.BoundingBox3D{
		Min: core.Coordinate3D{X: getF32(0), Y: getF32(4), Z: getF32(8)},
		Max: core.Coordinate3D{X: getF32(12), Y: getF32(16), Z: getF32(20)},
	}
	for i := 0; i < 8; i++ {
		n.Children[i] = binary.LittleEndian.Uint32(buf[24+i*4 : 28+i*4])
	}
	n.NodeCount = binary.LittleEndian.Uint16(buf[56:58])
	n.LeafBucket = binary.LittleEndian.Uint32(buf[58:62])
	n.Depth = buf[62]
	n.Flags = Flags(buf[63])
	return n, nil
}

// Index is a built, queryable octree over a fixed set of (NodeID, position)
// pairs.
type Index struct {
	root         uint32
	hasRoot      bool
	nodes        []TreeNode
	buckets      [][]core.NodeID
	position     map[core.NodeID]core.Coordinate3D
	nodeBucket   map[core.NodeID]uint32
	maxDepth     uint8
	maxLeafItems int
}

// item is a node awaiting placement during construction.
type item struct {
	id  core.NodeID
	pos core.Coordinate3D
}

// Builder accumulates items before constructing an Index.
type Builder struct {
	items        []item
	maxDepth     uint8
	maxLeafItems int
}

// NewBuilder returns an empty octree builder using the package's default
// depth and leaf-size limits.
func NewBuilder() *Builder {
	return &Builder{maxDepth: MaxDepth, maxLeafItems: MaxLeafItems}
}

// NewBuilderWithConfig returns an empty octree builder tuned by cfg's
// OctreeMaxDepth/OctreeMaxLeafItems.
func NewBuilderWithConfig(cfg config.Config) *Builder {
	return &Builder{maxDepth: cfg.OctreeMaxDepth, maxLeafItems: cfg.OctreeMaxLeafItems}
}

// Add registers a node's position for indexing.
func (b *Builder) Add(id core.NodeID, pos core.Coordinate3D) {
	b.items = append(b.items, item{id: id, pos: pos})
}

// Build constructs the octree over all added items.
func (b *Builder) Build() *Index {
	maxDepth, maxLeafItems := b.maxDepth, b.maxLeafItems
	if maxDepth == 0 {
		maxDepth = MaxDepth
	}
	if maxLeafItems == 0 {
		maxLeafItems = MaxLeafItems
	}
	idx := &Index{
		position:     make(map[core.NodeID]core.Coordinate3D, len(b.items)),
		nodeBucket:   make(map[core.NodeID]uint32, len(b.items)),
		maxDepth:     maxDepth,
		maxLeafItems: maxLeafItems,
	}
	for _, it := range b.items {
		idx.position[it.id] = it.pos
	}

	if len(b.items) == 0 {
		return idx
	}

	rootBounds := core.NewBoundingBox(
		core.Coordinate3D{X: 0, Y: 0, Z: 0},
		core.Coordinate3D{X: 1, Y: 1, Z: 1},
	)
	root := idx.buildNode(rootBounds, b.items, 0)
	idx.root = root
	idx.hasRoot = true
	return idx
}

func (idx *Index) buildNode(bounds core.BoundingBox3D, items []item, depth uint8) uint32 {
	nodeIndex := uint32(len(idx.nodes))

	if len(items) <= idx.maxLeafItems || depth >= idx.maxDepth {
		bucket := make([]core.NodeID, len(items))
		for i, it := range items {
			bucket[i] = it.id
		}
		bucketIndex := uint32(len(idx.buckets))
		idx.buckets = append(idx.buckets, bucket)
		for _, id := range bucket {
			idx.nodeBucket[id] = bucketIndex
		}
		idx.nodes = append(idx.nodes, TreeNode{
			Bounds:     bounds,
			NodeCount:  uint16(len(items)),
			LeafBucket: bucketIndex,
			Depth:      depth,
			Flags:      FlagLeaf,
		})
		return nodeIndex
	}

	center := bounds.Center()
	var octants [8][]item
	for _, it := range items {
		o := octantOf(center, it.pos)
		octants[o] = append(octants[o], it)
	}

	idx.nodes = append(idx.nodes, TreeNode{
		Bounds:    bounds,
		NodeCount: uint16(len(items)),
		Depth:     depth,
	})

	for i, sub := range octants {
		if len(sub) == 0 {
			continue
		}
		childBounds := octantBounds(bounds, i)
		childIndex := idx.buildNode(childBounds, sub, depth+1)
		setChild(&idx.nodes[nodeIndex], i, childIndex)
	}

	return nodeIndex
}

// octantOf returns the octant (0..7) containing point relative to center,
// using the bit rule bit0=x>=cx, bit1=y>=cy, bit2=z>=cz.
func octantOf(center, point core.Coordinate3D) int {
	o := 0
	if point.X >= center.X {
		o |= 1
	}
	if point.Y >= center.Y {
		o |= 2
	}
	if point.Z >= center.Z {
		o |= 4
	}
	return o
}

func octantBounds(parent core.BoundingBox3D, octant int) core.BoundingBox3D {
	center := parent.Center()
	min, max := parent.Min, parent.Max

	newMin := core.Coordinate3D{
		X: choose(octant&1 == 0, min.X, center.X),
		Y: choose(octant&2 == 0, min.Y, center.Y),
		Z: choose(octant&4 == 0, min.Z, center.Z),
	}
	newMax := core.Coordinate3D{
		X: choose(octant&1 == 0, center.X, max.X),
		Y: choose(octant&2 == 0, center.Y, max.Y),
		Z: choose(octant&4 == 0, center.Z, max.Z),
	}
	return core.NewBoundingBox(newMin, newMax)
}

func choose(cond bool, a, b float32) float32 {
	if cond {
		return a
	}
	return b
}

// RadiusResult is one hit from a radius or k-NN query.
type RadiusResult struct {
	ID       core.NodeID
	Distance float32
}

// FindWithinRadius returns every indexed node within radius of center,
// sorted by ascending distance. Unlike the placeholder this is grounded
// on, this filters leaf candidates against their true distance rather than
// returning every item in a bounding leaf (spec §4.6, §8 property 6).
func (idx *Index) FindWithinRadius(center core.Coordinate3D, radius float32) []RadiusResult {
	var results []RadiusResult
	if !idx.hasRoot {
		return results
	}
	idx.searchRecursive(idx.root, center, radius, &results)
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	return results
}

func (idx *Index) searchRecursive(nodeIndex uint32, center core.Coordinate3D, radius float32, results *[]RadiusResult) {
	node := idx.nodes[nodeIndex]
	if !node.Bounds.IntersectsSphere(center, radius) {
		return
	}

	if node.IsLeaf() {
		for _, id := range idx.buckets[node.LeafBucket] {
			d := idx.position[id].Distance(center)
			if d <= radius {
				*results = append(*results, RadiusResult{ID: id, Distance: d})
			}
		}
		return
	}

	for i := range node.Children {
		if childIndex, ok := node.child(i); ok {
			idx.searchRecursive(childIndex, center, radius, results)
		}
	}
}

// FindKNearest returns up to k nodes nearest to center, ascending by
// distance and tie-broken by ID. It grows the search radius by
// probeGrowth starting from probeRadius until k results are found or
// ceilingRadius is reached — the reference implementation never computed
// real distances here, so this is a from-scratch correct implementation
// rather than an adapted one.
func (idx *Index) FindKNearest(center core.Coordinate3D, k int, probeRadius, probeGrowth, ceilingRadius float32) []RadiusResult {
	if k <= 0 || !idx.hasRoot {
		return nil
	}

	radius := probeRadius
	var results []RadiusResult
	for {
		results = idx.FindWithinRadius(center, radius)
		if len(results) >= k || radius >= ceilingRadius {
			break
		}
		radius *= probeGrowth
	}

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// FindKNearestWithConfig is FindKNearest using cfg's KNN probe/growth/
// ceiling tuning instead of explicit values.
func (idx *Index) FindKNearestWithConfig(center core.Coordinate3D, k int, cfg config.Config) []RadiusResult {
	return idx.FindKNearest(center, k, cfg.KNNProbeRadius, cfg.KNNGrowthFactor, cfg.KNNCeilingRadius)
}

// Contains returns every indexed node that falls within bounds (inclusive
// on both ends, per spec §4.6).
func (idx *Index) Contains(bounds core.BoundingBox3D) []core.NodeID {
	var out []core.NodeID
	if !idx.hasRoot {
		return out
	}
	idx.containsRecursive(idx.root, bounds, &out)
	return out
}

func (idx *Index) containsRecursive(nodeIndex uint32, bounds core.BoundingBox3D, out *[]core.NodeID) {
	node := idx.nodes[nodeIndex]
	if !boundsOverlap(node.Bounds, bounds) {
		return
	}
	if node.IsLeaf() {
		for _, id := range idx.buckets[node.LeafBucket] {
			if bounds.Contains(idx.position[id]) {
				*out = append(*out, id)
			}
		}
		return
	}
	for i := range node.Children {
		if childIndex, ok := node.child(i); ok {
			idx.containsRecursive(childIndex, bounds, out)
		}
	}
}

func boundsOverlap(a, b core.BoundingBox3D) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y &&
		a.Min.Z <= b.Max.Z && a.Max.Z >= b.Min.Z
}

// Stats summarizes the built tree's shape.
type Stats struct {
	TotalNodes      int
	InternalNodes   int
	LeafNodes       int
	MaxDepth        uint8
	TotalItems      int
	MaxItemsPerLeaf int
}

// Stats computes structural statistics over the built tree.
func (idx *Index) Stats() Stats {
	var s Stats
	if idx.hasRoot {
		idx.gatherStats(idx.root, &s)
	}
	return s
}

func (idx *Index) gatherStats(nodeIndex uint32, s *Stats) {
	node := idx.nodes[nodeIndex]
	s.TotalNodes++
	if node.Depth > s.MaxDepth {
		s.MaxDepth = node.Depth
	}
	if node.IsLeaf() {
		s.LeafNodes++
		s.TotalItems += int(node.NodeCount)
		if int(node.NodeCount) > s.MaxItemsPerLeaf {
			s.MaxItemsPerLeaf = int(node.NodeCount)
		}
		return
	}
	s.InternalNodes++
	for i := range node.Children {
		if childIndex, ok := node.child(i); ok {
			idx.gatherStats(childIndex, s)
		}
	}
}

// Nodes returns the serialized tree nodes in build order, for writing to
// the octree section.
func (idx *Index) Nodes() []TreeNode { return idx.nodes }

// RootIndex returns the index of the root node.
func (idx *Index) RootIndex() uint32 { return idx.root }

// BucketOf returns the leaf bucket a node was placed in during Build, for
// persisting as the node's spatial_bucket field (the on-disk octree section
// stores tree shape only; bucket membership is recovered at load time from
// each node's spatial_bucket rather than serialized separately).
func (idx *Index) BucketOf(id core.NodeID) (uint32, bool) {
	b, ok := idx.nodeBucket[id]
	return b, ok
}

// Load reconstructs a queryable Index from an encoded octree section plus
// every node's position and spatial_bucket field. The reference
// implementation never finished this path (its reader carries a literal
// "use octree index when implemented" TODO); leaf bucket membership here is
// recovered by grouping positions by spatial_bucket rather than by
// re-walking a serialized bucket list, since the wire format has no such
// list — only fixed TreeNode records.
func Load(data []byte, positions map[core.NodeID]core.Coordinate3D, buckets map[core.NodeID]uint32) (*Index, error) {
	idx := &Index{position: positions, nodeBucket: buckets}
	if len(data) == 0 {
		return idx, nil
	}
	if len(data)%NodeSize != 0 {
		return nil, lingoerr.New(lingoerr.KindCorruptSection, "octree section", nil)
	}

	count := len(data) / NodeSize
	idx.nodes = make([]TreeNode, count)
	leafCount := uint32(0)
	for i := 0; i < count; i++ {
		n, err := DecodeTreeNode(data[i*NodeSize : (i+1)*NodeSize])
		if err != nil {
			return nil, err
		}
		idx.nodes[i] = n
		if n.IsLeaf() && n.LeafBucket+1 > leafCount {
			leafCount = n.LeafBucket + 1
		}
	}

	idx.buckets = make([][]core.NodeID, leafCount)
	for id, b := range buckets {
		idx.buckets[b] = append(idx.buckets[b], id)
	}
	for _, bucket := range idx.buckets {
		sort.Slice(bucket, func(i, j int) bool { return bucket[i] < bucket[j] })
	}

	idx.root = 0
	idx.hasRoot = true
	return idx, nil
}
