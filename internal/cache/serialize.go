// Bytecode serialization: a flat binary encoding of an *vm.ObjFunction
// tree (its Chunk's code/line/column streams plus a recursively
// encoded constant pool), used only as the sqlite cache payload; `lumen
// build` writes no standalone bytecode file. The encoding is a u32
// FormatVersion followed by the function, with no magic number, flags
// or header-size field. Plain
// encoding/binary at this system boundary — no pack example reaches
// for a serialization library for a bespoke bytecode format; the
// separate out-of-process debug dump (vm.Chunk.DebugProto) instead
// uses protobuf's structpb, since that one is meant for a generic
// external disassembly tool to consume, not this cache's own
// round-trip.
package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/lumen-lang/lumen/internal/vm"
)

// FormatVersion is bumped whenever the encoding below changes shape;
// a mismatched version is treated as a cache miss rather than parsed.
const FormatVersion = 1

const (
	tagNil byte = iota
	tagBool
	tagInt
	tagFloat
	tagDouble
	tagString
	tagFunction
)

// EncodeFunction serializes fn (and, recursively, any function values
// in its constant pool) to a self-contained byte slice.
func EncodeFunction(fn *vm.ObjFunction) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(FormatVersion))
	writeFunction(&buf, fn)
	return buf.Bytes()
}

func writeFunction(buf *bytes.Buffer, fn *vm.ObjFunction) {
	writeString(buf, fn.Name)
	binary.Write(buf, binary.LittleEndian, uint32(fn.Arity))
	binary.Write(buf, binary.LittleEndian, uint32(fn.UpvalueCount))
	buf.WriteByte(boolByte(fn.IsAsync))
	buf.WriteByte(boolByte(fn.IsThrowing))

	chunk := fn.Chunk
	binary.Write(buf, binary.LittleEndian, uint32(len(chunk.Code)))
	buf.Write(chunk.Code)
	for _, l := range chunk.Lines {
		binary.Write(buf, binary.LittleEndian, uint32(l))
	}
	for _, c := range chunk.Columns {
		binary.Write(buf, binary.LittleEndian, uint32(c))
	}

	binary.Write(buf, binary.LittleEndian, uint32(len(chunk.Constants)))
	for _, v := range chunk.Constants {
		writeValue(buf, v)
	}
}

func writeValue(buf *bytes.Buffer, v vm.Value) {
	switch v.Kind {
	case vm.VNil:
		buf.WriteByte(tagNil)
	case vm.VBool:
		buf.WriteByte(tagBool)
		buf.WriteByte(boolByte(v.Bool))
	case vm.VInt:
		buf.WriteByte(tagInt)
		binary.Write(buf, binary.LittleEndian, v.Int)
	case vm.VFloat:
		buf.WriteByte(tagFloat)
		binary.Write(buf, binary.LittleEndian, v.Float)
	case vm.VDouble:
		buf.WriteByte(tagDouble)
		binary.Write(buf, binary.LittleEndian, v.Float)
	case vm.VObjString:
		buf.WriteByte(tagString)
		writeString(buf, v.Obj.(*vm.ObjString).Value)
	case vm.VObjFunction:
		buf.WriteByte(tagFunction)
		writeFunction(buf, v.Obj.(*vm.ObjFunction))
	default:
		// Other constant-pool kinds (class/struct defs, etc.) never
		// appear as literal constants emitted by the compiler; treat
		// anything unexpected as nil so decoding stays total.
		buf.WriteByte(tagNil)
	}
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint32(len(s)))
	buf.WriteString(s)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// DecodeFunction is the inverse of EncodeFunction, reconstructing a
// fresh *vm.ObjFunction tree allocated through gc so the result
// participates in this run's GC/intern pool like any other object.
func DecodeFunction(data []byte, gc *vm.GC) (*vm.ObjFunction, error) {
	r := bytes.NewReader(data)
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("cache: reading version: %w", err)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("cache: unsupported format version %d", version)
	}
	return readFunction(r, gc)
}

func readFunction(r *bytes.Reader, gc *vm.GC) (*vm.ObjFunction, error) {
	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	var arity, upvalueCount uint32
	if err := binary.Read(r, binary.LittleEndian, &arity); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &upvalueCount); err != nil {
		return nil, err
	}
	isAsync, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	isThrowing, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	var codeLen uint32
	if err := binary.Read(r, binary.LittleEndian, &codeLen); err != nil {
		return nil, err
	}
	code := make([]byte, codeLen)
	if _, err := r.Read(code); err != nil && codeLen > 0 {
		return nil, err
	}
	lines := make([]int, codeLen)
	for i := range lines {
		var l uint32
		if err := binary.Read(r, binary.LittleEndian, &l); err != nil {
			return nil, err
		}
		lines[i] = int(l)
	}
	columns := make([]int, codeLen)
	for i := range columns {
		var c uint32
		if err := binary.Read(r, binary.LittleEndian, &c); err != nil {
			return nil, err
		}
		columns[i] = int(c)
	}

	var constCount uint32
	if err := binary.Read(r, binary.LittleEndian, &constCount); err != nil {
		return nil, err
	}
	constants := make([]vm.Value, constCount)
	for i := range constants {
		v, err := readValue(r, gc)
		if err != nil {
			return nil, err
		}
		constants[i] = v
	}

	chunk := &vm.Chunk{Code: code, Lines: lines, Columns: columns, Constants: constants}
	fn := gc.NewFunction(name, int(arity), chunk)
	fn.UpvalueCount = int(upvalueCount)
	fn.IsAsync = isAsync == 1
	fn.IsThrowing = isThrowing == 1
	return fn, nil
}

func readValue(r *bytes.Reader, gc *vm.GC) (vm.Value, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return vm.Nil(), err
	}
	switch tag {
	case tagNil:
		return vm.Nil(), nil
	case tagBool:
		b, err := r.ReadByte()
		if err != nil {
			return vm.Nil(), err
		}
		return vm.Bool_(b == 1), nil
	case tagInt:
		var i int64
		if err := binary.Read(r, binary.LittleEndian, &i); err != nil {
			return vm.Nil(), err
		}
		return vm.Int_(i), nil
	case tagFloat:
		var f float64
		if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
			return vm.Nil(), err
		}
		return vm.Float_(f), nil
	case tagDouble:
		var f float64
		if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
			return vm.Nil(), err
		}
		return vm.Double_(f), nil
	case tagString:
		s, err := readString(r)
		if err != nil {
			return vm.Nil(), err
		}
		return vm.ObjValue(gc.Intern(s)), nil
	case tagFunction:
		fn, err := readFunction(r, gc)
		if err != nil {
			return vm.Nil(), err
		}
		return vm.ObjValue(fn), nil
	default:
		return vm.Nil(), fmt.Errorf("cache: unknown constant tag %d", tag)
	}
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(buf); err != nil {
			return "", err
		}
	}
	return string(buf), nil
}
