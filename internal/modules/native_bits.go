// Native $bits module: pack/unpack over the byte arrays the compiler
// already produces for #b/#x/#o and @/@x/@b literals (spec.md §4.3,
// §6 "Native module contract"). Field packing/unpacking with explicit
// bit widths and signedness is exactly funbit's domain (Erlang/Elixir-
// style bitstring construction and matching), grounded in the teacher
// repo's own direct dependency on it for its bit/byte literal family.
package modules

import (
	"fmt"

	"github.com/funvibe/funbit/pkg/funbit"

	"github.com/lumen-lang/lumen/internal/vm"
)

// bitsPack implements `$bits.pack(bytes, width)`: builds a bitstring
// field of width bits per input byte (truncating/zero-extending as
// funbit.WithSize dictates) and returns the packed result as a byte
// array value.
func bitsPack(m *vm.VM, args []vm.Value) (vm.Value, error) {
	if len(args) < 1 {
		return vm.Nil(), fmt.Errorf("$bits.pack expects at least 1 argument")
	}
	arr, ok := args[0].Obj.(*vm.ObjArray)
	if !ok {
		return vm.Nil(), fmt.Errorf("$bits.pack: first argument must be a byte array")
	}
	width := 8
	if len(args) > 1 && args[1].Kind == vm.VInt {
		width = int(args[1].Int)
	}

	builder := funbit.NewBuilder()
	for _, v := range arr.Elements {
		builder.AddInteger(v.Int, funbit.WithSize(width), funbit.WithSigned(false))
	}
	bs, err := builder.Build()
	if err != nil {
		return vm.Nil(), fmt.Errorf("$bits.pack: %s", err.Error())
	}
	return bytesToArrayValue(m, bs.Bytes()), nil
}

// bitsUnpack implements `$bits.unpack(bytes, width, count)`: reads
// count fields of width bits each off the front of bytes and returns
// them as a byte array value (one Lumen Int per decoded field).
func bitsUnpack(m *vm.VM, args []vm.Value) (vm.Value, error) {
	if len(args) < 3 {
		return vm.Nil(), fmt.Errorf("$bits.unpack expects (bytes, width, count)")
	}
	arr, ok := args[0].Obj.(*vm.ObjArray)
	if !ok {
		return vm.Nil(), fmt.Errorf("$bits.unpack: first argument must be a byte array")
	}
	width := int(args[1].Int)
	count := int(args[2].Int)

	raw := make([]byte, len(arr.Elements))
	for i, v := range arr.Elements {
		raw[i] = byte(v.Int)
	}
	bs := funbit.NewBitStringFromBytes(raw)

	fields := make([]uint64, count)
	specs := make([]*funbit.FieldSpec, count)
	for i := range specs {
		specs[i] = funbit.Integer(&fields[i], funbit.WithSize(width))
	}
	if _, err := funbit.Match(bs, specs...); err != nil {
		return vm.Nil(), fmt.Errorf("$bits.unpack: %s", err.Error())
	}

	out := make([]vm.Value, count)
	for i, f := range fields {
		out[i] = vm.Int_(int64(f))
	}
	return vm.ObjValue(m.GC().NewArray(out)), nil
}

func bytesToArrayValue(m *vm.VM, raw []byte) vm.Value {
	elems := make([]vm.Value, len(raw))
	for i, b := range raw {
		elems[i] = vm.Int_(int64(b))
	}
	return vm.ObjValue(m.GC().NewArray(elems))
}

func newBitsModule(gc *vm.GC) *vm.ObjModule {
	mod := gc.NewModule("$bits")
	mod.Exports.Set("pack", vm.ObjValue(gc.NewNative("$bits.pack", bitsPack)))
	mod.Exports.Set("unpack", vm.ObjValue(gc.NewNative("$bits.unpack", bitsUnpack)))
	mod.State = vm.ModuleLoaded
	return mod
}
