package lingo

import (
	"github.com/lingodb/lingo/internal/bytecode"
	"github.com/lingodb/lingo/internal/core"
)

// QueryBuilder accumulates a fluent operation chain and compiles it to a
// CompiledQuery (spec §4.9). Every method returns the builder so calls
// chain: q.Find("cat").Similar().Limit(5).Compile().
type QueryBuilder struct {
	ops []bytecode.Operation
}

func newQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// NewQuery starts a fresh query chain independent of any database; Compile
// produces portable bytecode that any Executor bound to a compatible
// database can run.
func NewQuery() *QueryBuilder { return newQueryBuilder() }

// Find loads the node whose text matches word exactly.
func (q *QueryBuilder) Find(word string) *QueryBuilder {
	q.ops = append(q.ops, bytecode.Operation{Kind: bytecode.OpLoad, Word: word})
	return q
}

// FindByID loads the node with the given ID.
func (q *QueryBuilder) FindByID(id core.NodeID) *QueryBuilder {
	q.ops = append(q.ops, bytecode.Operation{Kind: bytecode.OpLoadByID, NodeID: uint32(id)})
	return q
}

// Similar finds nodes within spatial similarity of the current set, using
// the default threshold of 0.7 (moderately similar).
func (q *QueryBuilder) Similar() *QueryBuilder {
	return q.SimilarThreshold(0.7)
}

// SimilarThreshold finds nodes whose spatial distance corresponds to at
// least the given similarity threshold in [0,1].
func (q *QueryBuilder) SimilarThreshold(threshold float32) *QueryBuilder {
	q.ops = append(q.ops, bytecode.Operation{Kind: bytecode.OpSimilar, Threshold: threshold})
	return q
}

// SpatialNeighbors finds every node within radius of the current set's
// positions; a node is not counted as its own neighbour.
func (q *QueryBuilder) SpatialNeighbors(radius float32) *QueryBuilder {
	q.ops = append(q.ops, bytecode.Operation{Kind: bytecode.OpSpatialNeighborsOp, Radius: radius})
	return q
}

// LayerUp moves one layer up the hierarchy via hypernymy connections.
func (q *QueryBuilder) LayerUp() *QueryBuilder { return q.LayerUpN(1) }

// LayerUpN moves n layers up the hierarchy.
func (q *QueryBuilder) LayerUpN(n uint16) *QueryBuilder {
	q.ops = append(q.ops, bytecode.Operation{Kind: bytecode.OpLayerUpOp, N: n})
	return q
}

// LayerDown moves one layer down the hierarchy via the children slice.
func (q *QueryBuilder) LayerDown() *QueryBuilder { return q.LayerDownN(1) }

// LayerDownN moves n layers down the hierarchy.
func (q *QueryBuilder) LayerDownN(n uint16) *QueryBuilder {
	q.ops = append(q.ops, bytecode.Operation{Kind: bytecode.OpLayerDownOp, N: n})
	return q
}

// FollowConnection follows each node's strongest outgoing connection.
func (q *QueryBuilder) FollowConnection() *QueryBuilder { return q.FollowNth(0) }

// FollowNth follows each node's rank-th strongest outgoing connection
// (rank 0 is strongest).
func (q *QueryBuilder) FollowNth(rank uint16) *QueryBuilder {
	q.ops = append(q.ops, bytecode.Operation{Kind: bytecode.OpFollowConnectionOp, Rank: rank})
	return q
}

// FollowConnectionType follows connections of the given type only.
func (q *QueryBuilder) FollowConnectionType(connType core.ConnectionType) *QueryBuilder {
	q.ops = append(q.ops, bytecode.Operation{Kind: bytecode.OpFollowConnectionTypeOp, ConnType: uint8(connType)})
	return q
}

// Bidirectional follows every connection whose type reads the same in
// both directions (synonymy, antonymy, phonetic similarity, analogy,
// collocation).
func (q *QueryBuilder) Bidirectional() *QueryBuilder {
	q.ops = append(q.ops, bytecode.Operation{Kind: bytecode.OpBidirectionalOp})
	return q
}

// Filter marks a filter step in the operation chain (spec §4.9). Criteria-
// based filtering has no VM opcode handler, matching the reference
// executor: both report UnsupportedOp if a compiled query reaches one.
// Kept for API parity with the fluent interface the spec names.
func (q *QueryBuilder) Filter() *QueryBuilder {
	q.ops = append(q.ops, bytecode.Operation{Kind: bytecode.OpFilterOp})
	return q
}

// Sort marks a sort step in the operation chain, the same unimplemented-
// parity case as Filter.
func (q *QueryBuilder) Sort() *QueryBuilder {
	q.ops = append(q.ops, bytecode.Operation{Kind: bytecode.OpSortOp})
	return q
}

// Limit truncates the current set to at most n nodes.
func (q *QueryBuilder) Limit(n uint16) *QueryBuilder {
	q.ops = append(q.ops, bytecode.Operation{Kind: bytecode.OpLimitOp, N: n})
	return q
}

// Deduplicate is a no-op kept for API parity: every NodeSet already
// deduplicates on insertion.
func (q *QueryBuilder) Deduplicate() *QueryBuilder {
	q.ops = append(q.ops, bytecode.Operation{Kind: bytecode.OpDeduplicateOp})
	return q
}

// Compile lowers the accumulated operation chain to a CompiledQuery.
func (q *QueryBuilder) Compile() bytecode.CompiledQuery {
	return bytecode.Compile(q.ops)
}
