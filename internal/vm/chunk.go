package vm

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Chunk is one compiled function's bytecode: a flat byte stream, a
// constant pool, and parallel line/column arrays for runtime error
// reporting (spec.md §4.7).
type Chunk struct {
	Code      []byte
	Constants []Value
	Lines     []int
	Columns   []int
}

// NewChunk returns an empty Chunk ready for emission.
func NewChunk() *Chunk {
	return &Chunk{}
}

// Write appends one raw byte at (line, col).
func (c *Chunk) Write(b byte, line, col int) int {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	c.Columns = append(c.Columns, col)
	return len(c.Code) - 1
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op OpCode, line, col int) int {
	return c.Write(byte(op), line, col)
}

// AddConstant interns value into the constant pool (deduplicating
// equal scalar constants so repeated literals share one slot) and
// returns its index.
func (c *Chunk) AddConstant(v Value) int {
	for i, existing := range c.Constants {
		if existing.Kind != VObjString && existing.Kind == v.Kind && ValuesEqual(existing, v) {
			return i
		}
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// EmitConstant emits CONSTANT (1-byte index) or CONSTANT_LONG (3-byte
// little-endian index) depending on the pool size, per spec.md §4.7.
func (c *Chunk) EmitConstant(v Value, line, col int) {
	idx := c.AddConstant(v)
	if idx < 256 {
		c.WriteOp(OpConstant, line, col)
		c.Write(byte(idx), line, col)
		return
	}
	c.WriteOp(OpConstantLong, line, col)
	c.Write(byte(idx&0xff), line, col)
	c.Write(byte((idx>>8)&0xff), line, col)
	c.Write(byte((idx>>16)&0xff), line, col)
}

// Disassemble renders the chunk in a human-readable debug form. Nothing
// in this repository calls it; the CLI's LUMEN_DEBUG output uses
// DebugProto instead.
func (c *Chunk) Disassemble(name string) string {
	out := fmt.Sprintf("== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		var line string
		line, offset = c.disassembleInstruction(offset)
		out += line
	}
	return out
}

// DebugProto marshals a summary of the chunk's constant pool (size,
// code length, and each scalar constant rendered as text) to
// protobuf wire bytes using the well-known Struct message, for
// out-of-process disassembly tooling to consume — never read back by
// the VM itself (SPEC_FULL.md's bytecode-format debug-dump entry).
// google.golang.org/protobuf's structpb avoids needing a
// protoc-generated .proto for what is otherwise a generic key/value
// debug blob.
func (c *Chunk) DebugProto() ([]byte, error) {
	constants := make([]interface{}, len(c.Constants))
	for i, v := range c.Constants {
		constants[i] = v.String()
	}
	s, err := structpb.NewStruct(map[string]interface{}{
		"code_length":    float64(len(c.Code)),
		"constant_count": float64(len(c.Constants)),
		"constants":      constants,
	})
	if err != nil {
		return nil, fmt.Errorf("chunk: building debug struct: %w", err)
	}
	return proto.Marshal(s)
}

func (c *Chunk) disassembleInstruction(offset int) (string, int) {
	op := OpCode(c.Code[offset])
	switch op {
	case OpConstant:
		idx := c.Code[offset+1]
		return fmt.Sprintf("%04d %-16s %4d '%v'\n", offset, op, idx, c.Constants[idx]), offset + 2
	case OpConstantLong:
		idx := int(c.Code[offset+1]) | int(c.Code[offset+2])<<8 | int(c.Code[offset+3])<<16
		return fmt.Sprintf("%04d %-16s %4d '%v'\n", offset, op, idx, c.Constants[idx]), offset + 4
	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall, OpMethodCall, OpArray,
		OpGetGlobal, OpSetGlobal, OpDefineGlobal, OpDefineStruct, OpCreateStruct,
		OpLoadModule, OpImportFrom, OpModuleExport, OpGetObjectProto, OpGetStructProto:
		return fmt.Sprintf("%04d %-16s %4d\n", offset, op, c.Code[offset+1]), offset + 2
	case OpJump, OpJumpIfFalse, OpLoop, OpPushTry:
		dist := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
		return fmt.Sprintf("%04d %-16s %4d\n", offset, op, dist), offset + 3
	default:
		return fmt.Sprintf("%04d %-16s\n", offset, op), offset + 1
	}
}
