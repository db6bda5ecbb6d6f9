package bytecode

import "math"

// IndexKind names a database index a compiled query may require before the
// VM can run it.
type IndexKind uint8

const (
	IndexSpatial IndexKind = iota
	IndexVertical
	IndexConnection
)

// Operation is one step of a high-level, language-neutral query built by
// the fluent query builder (spec §4.9), before compilation to bytecode.
type Operation struct {
	Kind      OperationKind
	Word      string
	NodeID    uint32
	N         uint16
	Threshold float32
	Radius    float32
	Rank      uint16
	ConnType  uint8
	Register  uint16
}

// OperationKind discriminates Operation.
type OperationKind uint8

const (
	OpLoad OperationKind = iota
	OpLoadByID
	OpSimilar
	OpSpatialNeighborsOp
	OpLayerUpOp
	OpLayerDownOp
	OpFollowConnectionOp
	OpFollowConnectionTypeOp
	OpBidirectionalOp
	OpFilterOp
	OpSortOp
	OpLimitOp
	OpDeduplicateOp
)

// CompiledQuery is the output of compilation: ready-to-run bytecode plus
// the metadata the VM and executor need before running it.
type CompiledQuery struct {
	Bytecode        []Instruction
	StringPool      []string
	RequiredIndices map[IndexKind]bool
	EstimatedCost   uint32
}

// costOf is the per-opcode cost model from spec §4.7.3.
func costOf(op Op) uint32 {
	switch op {
	case OpLoadNode, OpLoadNodeID, OpLoadReg, OpStore, OpPush, OpPop:
		return 1
	case OpLayerUp, OpLayerDown:
		return 10
	case OpFindSimilar:
		return 50
	case OpSpatialNeighbors:
		return 40
	case OpFollowConnection, OpFollowConnectionType, OpBidirectional:
		return 5
	case OpDeduplicate:
		return 20
	case OpLimit:
		return 1
	default:
		return 2
	}
}

// stringPool interns strings with per-query deduplication, as required by
// spec §4.7.3.
type stringPool struct {
	strings []string
	index   map[string]int
}

func newStringPool() *stringPool {
	return &stringPool{index: make(map[string]int)}
}

func (p *stringPool) intern(s string) uint16 {
	if i, ok := p.index[s]; ok {
		return uint16(i)
	}
	i := len(p.strings)
	p.strings = append(p.strings, s)
	p.index[s] = i
	return uint16(i)
}

// Compile lowers an ordered operation list into a CompiledQuery.
func Compile(ops []Operation) CompiledQuery {
	pool := newStringPool()
	required := make(map[IndexKind]bool)
	var bytecode []Instruction
	var cost uint32

	emit := func(i Instruction) {
		bytecode = append(bytecode, i)
		cost += costOf(i.Opcode)
	}

	for _, op := range ops {
		switch op.Kind {
		case OpLoad:
			sid := pool.intern(op.Word)
			emit(WithOperand1(OpLoadNode, sid))

		case OpLoadByID:
			emit(WithOperand2(OpLoadNodeID, 0, op.NodeID))

		case OpSimilar:
			required[IndexSpatial] = true
			thresholdFixed := uint16(clamp01(op.Threshold) * 65535.0)
			flags := Flags(0)
			limit := uint32(0)
			if op.N > 0 {
				flags |= FlagHasLimit
				limit = uint32(op.N)
			}
			emit(Instruction{Opcode: OpFindSimilar, Flags: flags, Operand1: thresholdFixed, Operand2: limit})

		case OpSpatialNeighborsOp:
			required[IndexSpatial] = true
			emit(Instruction{Opcode: OpSpatialNeighbors, Operand2: math.Float32bits(op.Radius)})

		case OpLayerUpOp:
			required[IndexVertical] = true
			emit(WithOperand1(OpLayerUp, op.N))

		case OpLayerDownOp:
			required[IndexVertical] = true
			emit(WithOperand1(OpLayerDown, op.N))

		case OpFollowConnectionOp:
			required[IndexConnection] = true
			emit(WithOperand1(OpFollowConnection, op.Rank))

		case OpFollowConnectionTypeOp:
			required[IndexConnection] = true
			emit(WithOperand1(OpFollowConnectionType, uint16(op.ConnType)))

		case OpBidirectionalOp:
			required[IndexConnection] = true
			emit(New(OpBidirectional))

		case OpFilterOp:
			emit(New(OpFilter))

		case OpSortOp:
			emit(New(OpSort))

		case OpLimitOp:
			emit(WithOperand1(OpLimit, op.N))

		case OpDeduplicateOp:
			emit(New(OpDeduplicate))
		}
	}

	emit(New(OpHalt))

	return CompiledQuery{
		Bytecode:        bytecode,
		StringPool:      pool.strings,
		RequiredIndices: required,
		EstimatedCost:   cost,
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
