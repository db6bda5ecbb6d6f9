package vm

import (
	"math"
	"sort"
	"time"

	"github.com/lingodb/lingo/internal/bytecode"
	"github.com/lingodb/lingo/internal/config"
	"github.com/lingodb/lingo/internal/core"
	"github.com/lingodb/lingo/internal/lingoerr"
	"github.com/lingodb/lingo/internal/mmapfile"
	"github.com/lingodb/lingo/internal/spatial"
)

// Result is a compiled query's outcome: the ordered, duplicate-free node
// set at Halt, plus execution metadata (spec §4.7.4).
type Result struct {
	Nodes                []core.NodeID
	ExecutionTime        time.Duration
	InstructionsExecuted int
	// CacheHit is always false: this executor has no plan cache. Carried
	// for API parity with the metadata triple the spec names.
	CacheHit bool
}

// VM executes compiled bytecode against a database and, when the query
// requires it, a spatial index. index may be nil if the query is known not
// to need one; Execute reports MissingIndex if that assumption is wrong.
type VM struct {
	db    *mmapfile.File
	index *spatial.Index

	executionCap int
	maxRegisters int
	stack        []NodeSet
	registers    []NodeSet
}

// New returns a VM bound to db and, optionally, its spatial index, tuned by
// cfg's VMExecutionCap/VMMaxRegisters (spec §4.7.4).
func New(db *mmapfile.File, index *spatial.Index, cfg config.Config) *VM {
	return &VM{
		db:           db,
		index:        index,
		executionCap: cfg.VMExecutionCap,
		maxRegisters: cfg.VMMaxRegisters,
		registers:    make([]NodeSet, cfg.VMMaxRegisters),
	}
}

// Execute runs a compiled query to completion or to its first error.
// Each call starts from a clean stack and register file; the string pool
// and required-index set come from q itself.
func (m *VM) Execute(q bytecode.CompiledQuery) (Result, error) {
	if q.RequiredIndices[bytecode.IndexSpatial] && m.index == nil {
		return Result{}, lingoerr.New(lingoerr.KindMissingIndex, "spatial", nil)
	}

	m.stack = m.stack[:0]
	for i := range m.registers {
		m.registers[i] = NewNodeSet()
	}

	start := time.Now()
	executed := 0
	for ip := 0; ip < len(q.Bytecode); ip++ {
		instr := q.Bytecode[ip]
		if instr.Opcode == bytecode.OpHalt {
			break
		}

		executed++
		if executed > m.executionCap {
			return Result{}, lingoerr.New(lingoerr.KindExecutionLimitExceeded, "", nil)
		}

		if err := m.step(instr, q.StringPool); err != nil {
			return Result{}, err
		}
	}

	var top NodeSet
	if len(m.stack) > 0 {
		top = m.stack[len(m.stack)-1]
	} else {
		top = NewNodeSet()
	}

	return Result{
		Nodes:                top.Slice(),
		ExecutionTime:        time.Since(start),
		InstructionsExecuted: executed,
	}, nil
}

func (m *VM) pop() (NodeSet, error) {
	if len(m.stack) == 0 {
		return NodeSet{}, lingoerr.EmptyStack
	}
	top := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return top, nil
}

func (m *VM) push(s NodeSet) { m.stack = append(m.stack, s) }

func (m *VM) step(instr bytecode.Instruction, pool []string) error {
	switch instr.Opcode {
	case bytecode.OpLoadNode:
		return m.execLoadNode(instr, pool)
	case bytecode.OpLoadNodeID:
		return m.execLoadNodeID(instr)
	case bytecode.OpFindSimilar:
		return m.execFindSimilar(instr)
	case bytecode.OpLayerUp:
		return m.execLayer(instr, true)
	case bytecode.OpLayerDown:
		return m.execLayer(instr, false)
	case bytecode.OpFollowConnection:
		return m.execFollowConnection(instr)
	case bytecode.OpFollowConnectionType:
		want := core.ConnectionType(instr.Operand1)
		return m.followMatching(func(t core.ConnectionType) bool { return t == want })
	case bytecode.OpBidirectional:
		return m.followMatching(core.ConnectionType.IsBidirectional)
	case bytecode.OpSpatialNeighbors:
		return m.execSpatialNeighbors(instr)
	case bytecode.OpLimit:
		return m.execLimit(instr)
	case bytecode.OpDeduplicate:
		current, err := m.pop()
		if err != nil {
			return err
		}
		m.push(current)
		return nil
	case bytecode.OpPush:
		return m.execPush(instr)
	case bytecode.OpPop:
		return m.execPop(instr)
	case bytecode.OpNop:
		return nil
	default:
		return lingoerr.New(lingoerr.KindUnsupportedOp, "", nil)
	}
}

func (m *VM) execLoadNode(instr bytecode.Instruction, pool []string) error {
	sid := int(instr.Operand1)
	if sid >= len(pool) {
		return lingoerr.New(lingoerr.KindInvalidOperand, "LoadNode string id", nil)
	}
	result := NewNodeSet()
	if id, ok := m.db.FindByWord(pool[sid]); ok {
		result.Push(id)
	}
	m.push(result)
	return nil
}

func (m *VM) execLoadNodeID(instr bytecode.Instruction) error {
	id := core.NodeID(instr.Operand2)
	if _, err := m.db.Node(id); err != nil {
		return lingoerr.New(lingoerr.KindNodeNotFound, "", nil)
	}
	m.push(SingleNode(id))
	return nil
}

func (m *VM) execFindSimilar(instr bytecode.Instruction) error {
	current, err := m.pop()
	if err != nil {
		return err
	}

	threshold := float32(instr.Operand1) / 65535.0
	radius := 1.0 - threshold
	hasLimit := instr.Flags&bytecode.FlagHasLimit != 0
	limit := int(instr.Operand2)

	similar := NewNodeSet()
	for _, id := range current.Slice() {
		node, err := m.db.Node(id)
		if err != nil {
			continue
		}
		for _, r := range m.index.FindWithinRadius(node.Position, radius) {
			similar.Push(r.ID)
		}
	}
	if hasLimit {
		similar.Truncate(limit)
	}
	m.push(similar)
	return nil
}

// execLayer walks hypernymy connections (up) or the children slice (down),
// repeating operand1 times (spec §4.7.4 LayerUp/LayerDown).
func (m *VM) execLayer(instr bytecode.Instruction, up bool) error {
	current, err := m.pop()
	if err != nil {
		return err
	}

	levels := int(instr.Operand1)
	result := current.Clone()
	for level := 0; level < levels; level++ {
		next := NewNodeSet()
		for _, id := range result.Slice() {
			node, err := m.db.Node(id)
			if err != nil {
				continue
			}
			if up {
				conns, err := m.db.NodeConnections(node)
				if err != nil {
					continue
				}
				for _, c := range conns {
					if c.Type == core.ConnHypernymy {
						next.Push(c.Target)
					}
				}
			} else {
				children, err := m.db.Children(node)
				if err != nil {
					continue
				}
				next.Extend(children)
			}
		}
		result = next
	}
	m.push(result)
	return nil
}

func (m *VM) execFollowConnection(instr bytecode.Instruction) error {
	current, err := m.pop()
	if err != nil {
		return err
	}

	rank := int(instr.Operand1)
	connected := NewNodeSet()
	for _, id := range current.Slice() {
		node, err := m.db.Node(id)
		if err != nil {
			continue
		}
		conns, err := m.db.NodeConnections(node)
		if err != nil {
			continue
		}
		sorted := append([]core.Connection(nil), conns...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Strength > sorted[j].Strength
		})
		if rank < len(sorted) {
			connected.Push(sorted[rank].Target)
		}
	}
	m.push(connected)
	return nil
}

// followMatching follows every outgoing connection whose type satisfies
// keep. FollowConnectionType keeps one type; Bidirectional keeps the types
// that read the same in both directions (core.ConnectionType.IsBidirectional),
// since there is no reverse-edge index to walk an asymmetric type's inverse.
func (m *VM) followMatching(keep func(core.ConnectionType) bool) error {
	current, err := m.pop()
	if err != nil {
		return err
	}

	linked := NewNodeSet()
	for _, id := range current.Slice() {
		node, err := m.db.Node(id)
		if err != nil {
			continue
		}
		conns, err := m.db.NodeConnections(node)
		if err != nil {
			continue
		}
		for _, c := range conns {
			if keep(c.Type) {
				linked.Push(c.Target)
			}
		}
	}
	m.push(linked)
	return nil
}

func (m *VM) execSpatialNeighbors(instr bytecode.Instruction) error {
	current, err := m.pop()
	if err != nil {
		return err
	}

	radius := math.Float32frombits(instr.Operand2)
	includeSelf := instr.Flags&bytecode.FlagIncludeSelf != 0

	neighbors := NewNodeSet()
	for _, id := range current.Slice() {
		node, err := m.db.Node(id)
		if err != nil {
			continue
		}
		for _, r := range m.index.FindWithinRadius(node.Position, radius) {
			if !includeSelf && r.ID == id {
				continue
			}
			neighbors.Push(r.ID)
		}
	}
	m.push(neighbors)
	return nil
}

func (m *VM) execLimit(instr bytecode.Instruction) error {
	current, err := m.pop()
	if err != nil {
		return err
	}
	current.Truncate(int(instr.Operand1))
	m.push(current)
	return nil
}

func (m *VM) execPush(instr bytecode.Instruction) error {
	reg := m.registerIndex(instr.Operand1)
	if len(m.stack) == 0 {
		return lingoerr.EmptyStack
	}
	m.registers[reg] = m.stack[len(m.stack)-1].Clone()
	return nil
}

func (m *VM) execPop(instr bytecode.Instruction) error {
	reg := m.registerIndex(instr.Operand1)
	m.push(m.registers[reg].Clone())
	return nil
}

func (m *VM) registerIndex(operand1 uint16) int {
	i := int(operand1)
	if i >= m.maxRegisters {
		return m.maxRegisters - 1
	}
	return i
}
