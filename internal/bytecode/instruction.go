// Package bytecode defines the SLANG instruction format and compiles query
// operations down to it (spec §4.7).
package bytecode

import (
	"encoding/binary"

	"github.com/lingodb/lingo/internal/lingoerr"
)

// InstructionSize is the fixed, bit-exact size of an encoded instruction.
const InstructionSize = 12

// Op is a SLANG operation code. Numeric values are part of the wire
// format and must not change.
type Op uint8

const (
	// Node operations (0-15)
	OpLoadNode   Op = 0
	OpLoadNodeID Op = 1
	OpGetCurrent Op = 2
	OpSetCurrent Op = 3

	// Layer operations (16-31)
	OpLayerUp     Op = 16
	OpLayerDown   Op = 17
	OpLayerSet    Op = 18
	OpLayerFilter Op = 19

	// Tree operations (32-47)
	OpTreeForward    Op = 32
	OpTreeBackward   Op = 33
	OpTreePath       Op = 34
	OpTreeCommonPath Op = 35

	// Orthogonal connection operations (48-63)
	OpFollowConnection       Op = 48
	OpFollowConnectionType   Op = 49
	OpBidirectional          Op = 50
	OpConnectionNeighborhood Op = 51

	// Spatial operations (64-79)
	OpSpatialNeighbors Op = 64
	OpSpatialRadius    Op = 65
	OpSpatialLayer     Op = 66
	OpSpatialCluster   Op = 67

	// Search operations (80-95)
	OpFindSimilar       Op = 80
	OpFindPhonetic      Op = 81
	OpFindEtymological  Op = 82
	OpFindMorphological Op = 83
	OpFindConceptual    Op = 84

	// Analysis operations (96-111)
	OpAnalyzeAll        Op = 96
	OpAnalyzePhonetic   Op = 97
	OpAnalyzeEtymology  Op = 98
	OpAnalyzeMorphology Op = 99
	OpAnalyzeSemantic   Op = 100

	// Pattern operations (112-127)
	OpPatternTrace   Op = 112
	OpPatternCluster Op = 113
	OpPatternPredict Op = 114
	OpPatternLearn   Op = 115

	// Result operations (128-143)
	OpFilter      Op = 128
	OpSort        Op = 129
	OpLimit       Op = 130
	OpDeduplicate Op = 131

	// Control operations (144-159)
	OpBranch Op = 144
	OpLoop   Op = 145
	OpCall   Op = 146
	OpReturn Op = 147

	// Data operations (160-175)
	OpPush    Op = 160
	OpPop     Op = 161
	OpStore   Op = 162
	OpLoadReg Op = 163

	// Special operations (240-255)
	OpNop  Op = 240
	OpHalt Op = 255
)

// Flags is a bitset of per-instruction execution modifiers.
type Flags uint8

const (
	FlagHasLimit        Flags = 0x01
	FlagInverse         Flags = 0x02
	FlagCaseInsensitive Flags = 0x04
	FlagIncludeSelf     Flags = 0x08
)

// Instruction is the fixed 12-byte SLANG instruction.
type Instruction struct {
	Opcode   Op
	Flags    Flags
	Operand1 uint16
	Operand2 uint32
	Operand3 uint32
}

// New returns a bare instruction with no operands or flags set.
func New(op Op) Instruction { return Instruction{Opcode: op} }

// WithOperand1 returns an instruction carrying a single 16-bit operand.
func WithOperand1(op Op, operand1 uint16) Instruction {
	return Instruction{Opcode: op, Operand1: operand1}
}

// WithOperand2 returns an instruction carrying a 16-bit and a 32-bit
// operand.
func WithOperand2(op Op, operand1 uint16, operand2 uint32) Instruction {
	return Instruction{Opcode: op, Operand1: operand1, Operand2: operand2}
}

// EncodeInstruction writes i into a fixed 12-byte little-endian record.
//
// Wire layout: opcode u8, flags u8, operand1 u16, operand2 u32, operand3 u32.
func EncodeInstruction(i Instruction) [InstructionSize]byte {
	var buf [InstructionSize]byte
	buf[0] = uint8(i.Opcode)
	buf[1] = uint8(i.Flags)
	binary.LittleEndian.PutUint16(buf[2:4], i.Operand1)
	binary.LittleEndian.PutUint32(buf[4:8], i.Operand2)
	binary.LittleEndian.PutUint32(buf[8:12], i.Operand3)
	return buf
}

// DecodeInstruction parses a 12-byte instruction record.
func DecodeInstruction(buf []byte) (Instruction, error) {
	if len(buf) != InstructionSize {
		return Instruction{}, lingoerr.New(lingoerr.KindCorruptSection, "instruction", nil)
	}
	return Instruction{
		Opcode:   Op(buf[0]),
		Flags:    Flags(buf[1]),
		Operand1: binary.LittleEndian.Uint16(buf[2:4]),
		Operand2: binary.LittleEndian.Uint32(buf[4:8]),
		Operand3: binary.LittleEndian.Uint32(buf[8:12]),
	}, nil
}
