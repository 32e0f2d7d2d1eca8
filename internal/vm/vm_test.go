package vm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/pipeline"
	"github.com/lumen-lang/lumen/internal/vm"
)

func run(t *testing.T, source string) (*vm.VM, *diagnostics.Diagnostics) {
	t.Helper()
	machine := vm.New()
	diags := diagnostics.New(&bytes.Buffer{})
	ctx := pipeline.Run(machine, diags, "<test>", source)
	require.False(t, diags.HasErrors(), "unexpected diagnostics: %v", diags.Errors())
	require.Equal(t, vm.InterpretOK, ctx.Result)
	require.NoError(t, ctx.RunErr)
	return machine, diags
}

func TestInterpretTopLevelReturnValueReachesCaller(t *testing.T) {
	machine := vm.New()
	diags := diagnostics.New(&bytes.Buffer{})
	ctx := pipeline.Run(machine, diags, "<test>", "func answer() { return 42 }\n")
	require.False(t, diags.HasErrors())
	require.Equal(t, vm.InterpretOK, ctx.Result)

	fn, ok := machine.Globals.Get("answer")
	require.True(t, ok)

	result, err := machine.CallFunction(fn, nil)
	require.NoError(t, err)
	require.Equal(t, int64(42), result.Int)
}

func TestClosureCapturesUpvalueByReference(t *testing.T) {
	machine, _ := run(t, `
func makeCounter() {
	var n = 0
	func increment() {
		n = n + 1
		return n
	}
	return increment
}
let counter = makeCounter()
let first = counter()
let second = counter()
`)

	first, ok := machine.Globals.Get("first")
	require.True(t, ok)
	require.Equal(t, int64(1), first.Int)

	second, ok := machine.Globals.Get("second")
	require.True(t, ok)
	require.Equal(t, int64(2), second.Int, "both calls must share the same upvalue slot for n")
}

func TestTwoIndependentClosuresDoNotShareUpvalues(t *testing.T) {
	machine, _ := run(t, `
func makeCounter() {
	var n = 0
	func increment() {
		n = n + 1
		return n
	}
	return increment
}
let counterA = makeCounter()
let counterB = makeCounter()
let a1 = counterA()
let b1 = counterB()
let a2 = counterA()
`)

	a2, ok := machine.Globals.Get("a2")
	require.True(t, ok)
	require.Equal(t, int64(2), a2.Int, "counterA's own upvalue must be unaffected by counterB's calls")
}

func TestGCInternDeduplicatesEqualStrings(t *testing.T) {
	gc := vm.NewGC()
	a := gc.Intern("hello")
	b := gc.Intern("hello")
	c := gc.Intern("world")

	require.Same(t, a, b, "interning the same text twice must return the same object")
	require.NotSame(t, a, c)
}

func TestGCCollectSweepsUnreachableObjects(t *testing.T) {
	gc := vm.NewGC()
	live := gc.NewArray([]vm.Value{vm.Int_(1)})
	_ = gc.NewArray([]vm.Value{vm.Int_(2)}) // unreachable once Collect runs

	before := gc.Stats().CurrentAllocated
	require.Positive(t, before)

	gc.Collect(vm.GCRoots{Stack: []vm.Value{vm.ObjValue(live)}})

	require.Equal(t, 1, gc.Stats().Collections)
	require.Positive(t, gc.Stats().ObjectsFreed)
	require.Less(t, gc.Stats().CurrentAllocated, before)
}

func TestGCCollectRetainsReachableGraph(t *testing.T) {
	gc := vm.NewGC()
	inner := gc.NewArray([]vm.Value{vm.Int_(7)})
	outer := gc.NewArray([]vm.Value{vm.ObjValue(inner)})

	gc.Collect(vm.GCRoots{Stack: []vm.Value{vm.ObjValue(outer)}})

	require.Equal(t, int64(7), outer.Elements[0].Obj.(*vm.ObjArray).Elements[0].Int)
}

func TestCallFunctionInvokesNativeOutsideRun(t *testing.T) {
	machine := vm.New()
	fn := vm.ObjValue(machine.GC().NewNative("noop", func(*vm.VM, []vm.Value) (vm.Value, error) {
		return vm.Nil(), nil
	}))

	_, err := machine.CallFunction(fn, nil)
	require.NoError(t, err)
}

func TestRuntimeErrorSurfacesOnDivideByZero(t *testing.T) {
	machine := vm.New()
	diags := diagnostics.New(&bytes.Buffer{})
	ctx := pipeline.Run(machine, diags, "<test>", "let x = 1 / 0\n")
	require.False(t, diags.HasErrors())
	require.Equal(t, vm.InterpretRuntimeError, ctx.Result)
	require.Error(t, ctx.RunErr)
}
