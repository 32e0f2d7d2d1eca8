package vm

import "fmt"

const (
	maxFrames    = 256
	initialStack = 256
)

// InterpretResult is the VM run's terminal status.
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// RuntimeError is the single error shape every opcode precondition
// failure produces (spec.md §4.11): a message and the frame's current
// line, so the pipeline can render it the same way a Diagnostic is
// rendered.
type RuntimeError struct {
	Message string
	Line    int
	Column  int
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%d:%d: runtime error: %s", e.Line, e.Column, e.Message)
}

// ModuleLoader is the hook the VM calls into on LOAD_MODULE/
// LOAD_BUILTIN (spec.md §4.10); internal/modules implements it.
type ModuleLoader interface {
	Load(vm *VM, path string) (*ObjModule, error)
	LoadBuiltin(module, name string) (Value, bool)
}

// VM is one stack-based interpreter instance (spec.md §5: "one VM
// instance at a time").
//
// Grounded on the teacher repo's internal/vm package (a flat Value
// stack, a call-frame slice, a dispatch-loop Run method) — the
// closure/upvalue/module/GC machinery is this project's own per
// spec.md §4.7–§4.10, since the teacher's evaluator is a tree-walker
// without bytecode.
type VM struct {
	stack  []Value
	frames []*CallFrame

	Globals *ObjDict
	gc      *GC

	openUpvalues *ObjUpvalue
	tryHandlers  []tryHandler

	Loader ModuleLoader
	loadingModules []*ObjModule

	lastError *RuntimeError
}

// New creates a VM with an empty stack, fresh GC, and empty globals.
func New() *VM {
	gc := NewGC()
	return &VM{
		stack:   make([]Value, 0, initialStack),
		frames:  make([]*CallFrame, 0, maxFrames),
		Globals: gc.NewDict(),
		gc:      gc,
	}
}

func (vm *VM) GC() *GC { return vm.gc }

// PushLoadingModule registers mod as a GC root for the duration of its
// load (internal/modules calls this around a file-backed module's
// compile+execute so a collection mid-load can't reclaim a module
// that's only reachable through the loader's own bookkeeping yet).
func (vm *VM) PushLoadingModule(mod *ObjModule) {
	vm.loadingModules = append(vm.loadingModules, mod)
}

// PopLoadingModule unregisters the most recently pushed loading module
// once its load has finished (successfully or not).
func (vm *VM) PopLoadingModule() {
	if len(vm.loadingModules) > 0 {
		vm.loadingModules = vm.loadingModules[:len(vm.loadingModules)-1]
	}
}

func (vm *VM) push(v Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) currentFrame() *CallFrame {
	return vm.frames[len(vm.frames)-1]
}

// Interpret runs fn as the program's top-level function to completion.
func (vm *VM) Interpret(fn *ObjFunction) (InterpretResult, error) {
	closure := vm.gc.NewClosure(fn)
	vm.push(ObjValue(closure))
	vm.callClosure(closure, 0)
	return vm.run()
}

// InterpretModule runs fn as a module's top-level code with mod
// recorded on the frame, so MODULE_EXPORT and module-scoped global
// lookups resolve against mod.Exports first (spec.md §4.7 "Module
// execution").
func (vm *VM) InterpretModule(fn *ObjFunction, mod *ObjModule) (InterpretResult, error) {
	closure := vm.gc.NewClosure(fn)
	vm.push(ObjValue(closure))
	vm.callClosure(closure, 0)
	vm.currentFrame().Module = mod
	return vm.run()
}

// CallFunction invokes a callable Value (closure, native, or class)
// with args and returns its result, for use by an embedding host
// (pkg/lumen) between script runs. It requires no interpretation to
// already be in progress — the same precondition InterpretModule's
// caller meets between top-level files.
func (vm *VM) CallFunction(fn Value, args []Value) (Value, error) {
	if len(vm.frames) != 0 {
		return Nil(), fmt.Errorf("CallFunction: a VM run is already in progress")
	}
	vm.push(fn)
	for _, a := range args {
		vm.push(a)
	}
	if err := vm.callValue(fn, len(args)); err != nil {
		return Nil(), err
	}
	if len(vm.frames) == 0 {
		return vm.pop(), nil
	}
	result, err := vm.run()
	if err != nil {
		return Nil(), err
	}
	if result != InterpretOK {
		return Nil(), fmt.Errorf("call did not complete successfully")
	}
	return vm.pop(), nil
}

// maybeCollect runs a collection at the current safe point if the
// allocation threshold was crossed (spec.md §4.9).
func (vm *VM) maybeCollect() {
	if !vm.gc.ShouldCollect() {
		return
	}
	var frameClosures []*ObjClosure
	for _, f := range vm.frames {
		frameClosures = append(frameClosures, f.Closure)
	}
	vm.gc.Collect(GCRoots{
		Stack:          vm.stack,
		Globals:        vm.Globals,
		OpenUpvalues:   vm.openUpvalueSlice(),
		LoadingModules: vm.loadingModules,
		Frames:         frameClosures,
	})
}

func (vm *VM) openUpvalueSlice() []*ObjUpvalue {
	var out []*ObjUpvalue
	for u := vm.openUpvalues; u != nil; u = u.NextOpen {
		out = append(out, u)
	}
	return out
}

func (vm *VM) runtimeError(format string, args ...interface{}) error {
	frame := vm.currentFrame()
	line, col := 0, 0
	if frame.IP-1 >= 0 && frame.IP-1 < len(frame.Closure.Function.Chunk.Lines) {
		line = frame.Closure.Function.Chunk.Lines[frame.IP-1]
		col = frame.Closure.Function.Chunk.Columns[frame.IP-1]
	}
	err := &RuntimeError{Message: fmt.Sprintf(format, args...), Line: line, Column: col}
	vm.lastError = err
	return err
}
