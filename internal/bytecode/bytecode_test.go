package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpcodeNumericValuesAreStable(t *testing.T) {
	assert.Equal(t, uint8(0), uint8(OpLoadNode))
	assert.Equal(t, uint8(1), uint8(OpLoadNodeID))
	assert.Equal(t, uint8(16), uint8(OpLayerUp))
	assert.Equal(t, uint8(17), uint8(OpLayerDown))
	assert.Equal(t, uint8(48), uint8(OpFollowConnection))
	assert.Equal(t, uint8(64), uint8(OpSpatialNeighbors))
	assert.Equal(t, uint8(80), uint8(OpFindSimilar))
	assert.Equal(t, uint8(128), uint8(OpFilter))
	assert.Equal(t, uint8(240), uint8(OpNop))
	assert.Equal(t, uint8(255), uint8(OpHalt))
}

func TestInstructionRoundTrip(t *testing.T) {
	i := Instruction{Opcode: OpFindSimilar, Flags: FlagHasLimit, Operand1: 500, Operand2: 10, Operand3: 0}
	buf := EncodeInstruction(i)
	require.Len(t, buf, InstructionSize)

	got, err := DecodeInstruction(buf[:])
	require.NoError(t, err)
	assert.Equal(t, i, got)
}

func TestCompileAppendsHalt(t *testing.T) {
	cq := Compile([]Operation{{Kind: OpLoad, Word: "cat"}})
	require.NotEmpty(t, cq.Bytecode)
	assert.Equal(t, OpHalt, cq.Bytecode[len(cq.Bytecode)-1].Opcode)
}

func TestCompileDedupesStringPool(t *testing.T) {
	cq := Compile([]Operation{
		{Kind: OpLoad, Word: "cat"},
		{Kind: OpLoad, Word: "dog"},
		{Kind: OpLoad, Word: "cat"},
	})
	assert.Equal(t, []string{"cat", "dog"}, cq.StringPool)
	assert.Equal(t, cq.Bytecode[0].Operand1, cq.Bytecode[2].Operand1)
}

func TestCompileTracksRequiredIndices(t *testing.T) {
	cq := Compile([]Operation{
		{Kind: OpLoad, Word: "cat"},
		{Kind: OpSimilar, Threshold: 0.8},
		{Kind: OpLayerUpOp, N: 1},
		{Kind: OpFollowConnectionOp, Rank: 0},
	})
	assert.True(t, cq.RequiredIndices[IndexSpatial])
	assert.True(t, cq.RequiredIndices[IndexVertical])
	assert.True(t, cq.RequiredIndices[IndexConnection])
}

func TestCompileEstimatesCostPerSpec(t *testing.T) {
	cq := Compile([]Operation{
		{Kind: OpLoad, Word: "cat"},
		{Kind: OpSimilar, Threshold: 0.5},
		{Kind: OpDeduplicateOp},
	})
	// load(1) + find_similar(50) + deduplicate(20) + halt(2, default) = 73
	assert.Equal(t, uint32(73), cq.EstimatedCost)
}
