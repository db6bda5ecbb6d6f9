package vm

import (
	"path/filepath"
	"testing"

	"github.com/lingodb/lingo/internal/builder"
	"github.com/lingodb/lingo/internal/bytecode"
	"github.com/lingodb/lingo/internal/config"
	"github.com/lingodb/lingo/internal/core"
	"github.com/lingodb/lingo/internal/lingoerr"
	"github.com/lingodb/lingo/internal/mmapfile"
	"github.com/lingodb/lingo/internal/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFixture writes a small database: cat/dog are close synonyms under
// the hypernym "animal", which is in turn the sole child relation from
// "animal" back down to cat/dog.
func buildFixture(t *testing.T) (*mmapfile.File, *spatial.Index) {
	t.Helper()
	b := builder.New()

	animal, err := b.AddNode("animal", core.LayerConcepts, core.Coordinate3D{X: 0.5, Y: 0.5, Z: 0.9})
	require.NoError(t, err)
	cat, err := b.AddNode("cat", core.LayerWords, core.Coordinate3D{X: 0.30, Y: 0.10, Z: 0.55})
	require.NoError(t, err)
	dog, err := b.AddNode("dog", core.LayerWords, core.Coordinate3D{X: 0.32, Y: 0.10, Z: 0.55})
	require.NoError(t, err)
	rock, err := b.AddNode("rock", core.LayerWords, core.Coordinate3D{X: 0.95, Y: 0.95, Z: 0.55})
	require.NoError(t, err)

	require.NoError(t, b.AddConnection(cat, animal, core.ConnHypernymy, 1.0, core.DiscoveryPrecomputed))
	require.NoError(t, b.AddConnection(dog, animal, core.ConnHypernymy, 1.0, core.DiscoveryPrecomputed))
	require.NoError(t, b.AddConnection(cat, dog, core.ConnSynonymy, 0.9, core.DiscoveryPrecomputed))
	require.NoError(t, b.AddConnection(cat, rock, core.ConnSynonymy, 0.1, core.DiscoveryPrecomputed))
	require.NoError(t, b.SetChildren(animal, []core.NodeID{cat, dog}))

	path := filepath.Join(t.TempDir(), "fixture.lingo")
	require.NoError(t, b.Build(path))

	db, err := mmapfile.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	idx, err := db.SpatialIndex()
	require.NoError(t, err)

	return db, idx
}

func TestExecuteLoadNodeAndFindSimilar(t *testing.T) {
	db, idx := buildFixture(t)
	machine := New(db, idx, config.Default())

	q := bytecode.Compile([]bytecode.Operation{
		{Kind: bytecode.OpLoad, Word: "cat"},
		{Kind: bytecode.OpSimilar, Threshold: 0.9},
	})

	result, err := machine.Execute(q)
	require.NoError(t, err)
	assert.Contains(t, result.Nodes, core.NodeID(2)) // cat itself, radius includes self
	assert.Contains(t, result.Nodes, core.NodeID(3)) // dog is close
	assert.NotContains(t, result.Nodes, core.NodeID(4))
	assert.Equal(t, 2, result.InstructionsExecuted)
}

func TestExecuteLayerUpFollowsHypernymy(t *testing.T) {
	db, idx := buildFixture(t)
	machine := New(db, idx, config.Default())

	q := bytecode.Compile([]bytecode.Operation{
		{Kind: bytecode.OpLoad, Word: "cat"},
		{Kind: bytecode.OpLayerUpOp, N: 1},
	})

	result, err := machine.Execute(q)
	require.NoError(t, err)
	assert.Equal(t, []core.NodeID{1}, result.Nodes) // animal
}

func TestExecuteLayerDownUsesChildren(t *testing.T) {
	db, idx := buildFixture(t)
	machine := New(db, idx, config.Default())

	q := bytecode.Compile([]bytecode.Operation{
		{Kind: bytecode.OpLoadByID, NodeID: 1}, // animal
		{Kind: bytecode.OpLayerDownOp, N: 1},
	})

	result, err := machine.Execute(q)
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.NodeID{2, 3}, result.Nodes)
}

func TestExecuteFollowConnectionByStrengthRank(t *testing.T) {
	db, idx := buildFixture(t)
	machine := New(db, idx, config.Default())

	q := bytecode.Compile([]bytecode.Operation{
		{Kind: bytecode.OpLoad, Word: "cat"},
		{Kind: bytecode.OpFollowConnectionOp, Rank: 0},
	})

	result, err := machine.Execute(q)
	require.NoError(t, err)
	require.Len(t, result.Nodes, 1)
	assert.Equal(t, core.NodeID(1), result.Nodes[0]) // hypernymy to animal has strength 1.0, ranks first
}

func TestExecuteBidirectionalFollowsSymmetricTypesOnly(t *testing.T) {
	db, idx := buildFixture(t)
	machine := New(db, idx, config.Default())

	q := bytecode.Compile([]bytecode.Operation{
		{Kind: bytecode.OpLoad, Word: "cat"},
		{Kind: bytecode.OpBidirectionalOp},
	})

	result, err := machine.Execute(q)
	require.NoError(t, err)
	// cat's hypernymy edge to animal is not bidirectional; its synonymy
	// edge to dog and rock are.
	assert.ElementsMatch(t, []core.NodeID{3, 4}, result.Nodes)
}

func TestExecuteLimitTruncates(t *testing.T) {
	db, idx := buildFixture(t)
	machine := New(db, idx, config.Default())

	q := bytecode.Compile([]bytecode.Operation{
		{Kind: bytecode.OpLoad, Word: "cat"},
		{Kind: bytecode.OpSimilar, Threshold: 0.0},
		{Kind: bytecode.OpLimitOp, N: 1},
	})

	result, err := machine.Execute(q)
	require.NoError(t, err)
	assert.Len(t, result.Nodes, 1)
}

func TestExecuteRejectsEmptyStackOnFindSimilar(t *testing.T) {
	db, idx := buildFixture(t)
	machine := New(db, idx, config.Default())

	q := bytecode.CompiledQuery{
		Bytecode: []bytecode.Instruction{bytecode.New(bytecode.OpFindSimilar), bytecode.New(bytecode.OpHalt)},
	}

	_, err := machine.Execute(q)
	assert.ErrorIs(t, err, lingoerr.EmptyStack)
}

func TestExecuteEnforcesInstructionCap(t *testing.T) {
	db, idx := buildFixture(t)
	machine := New(db, idx, config.Default())

	var instrs []bytecode.Instruction
	for i := 0; i < 10001; i++ {
		instrs = append(instrs, bytecode.New(bytecode.OpNop))
	}
	instrs = append(instrs, bytecode.New(bytecode.OpHalt))

	_, err := machine.Execute(bytecode.CompiledQuery{Bytecode: instrs})
	require.Error(t, err)
}

func TestExecuteMissingSpatialIndex(t *testing.T) {
	db, _ := buildFixture(t)
	machine := New(db, nil, config.Default())

	q := bytecode.Compile([]bytecode.Operation{{Kind: bytecode.OpSimilar, Threshold: 0.5}})
	_, err := machine.Execute(q)
	require.Error(t, err)
}

func TestExecutePushPopRegisters(t *testing.T) {
	db, idx := buildFixture(t)
	machine := New(db, idx, config.Default())

	q := bytecode.CompiledQuery{
		Bytecode: []bytecode.Instruction{
			bytecode.WithOperand2(bytecode.OpLoadNodeID, 0, 2),
			bytecode.WithOperand1(bytecode.OpPush, 3),
			bytecode.New(bytecode.OpDeduplicate), // pop+push, keeps stack shape stable
			bytecode.WithOperand1(bytecode.OpPop, 3),
			bytecode.New(bytecode.OpHalt),
		},
	}

	result, err := machine.Execute(q)
	require.NoError(t, err)
	assert.Equal(t, []core.NodeID{2}, result.Nodes)
}
