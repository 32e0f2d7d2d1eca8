package vm

// CallFrame is one activation record (spec.md §4.7 Call protocol):
// the running closure, its instruction pointer into Chunk.Code, and
// the stack index of slot 0 (the callee itself, reserved; slots
// 1..argc are positional parameters).
type CallFrame struct {
	Closure *ObjClosure
	IP      int
	Base    int
	Module  *ObjModule // non-nil while executing a module's top-level code (spec.md §4.7 "Module execution")
}

// tryHandler is one installed do/catch handler (spec.md §4.11): the
// bytecode offset to resume at and the stack depth to unwind to.
type tryHandler struct {
	frameIdx   int
	stackDepth int
	jumpTarget int
}
