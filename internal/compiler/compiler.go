// Package compiler implements the single-pass tree-to-bytecode
// compiler spec.md §4.6 describes: a CompilerState stack tracking
// locals/upvalues/scope-depth per function being compiled, emission
// primitives for bytecode/jumps/constants, and the resolve_local/
// resolve_upvalue algorithms that let nested closures capture
// enclosing locals.
//
// Grounded on the teacher repo's internal/compiler package (a
// compiler-per-function-with-enclosing-pointer stack, the same
// locals-array-plus-scope-depth bookkeeping, jump-patch helpers) —
// the opcode set and control-flow bytecode templates come from
// spec.md §4.6/§4.7 rather than the teacher's own instruction set.
package compiler

import (
	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/token"
	"github.com/lumen-lang/lumen/internal/types"
	"github.com/lumen-lang/lumen/internal/vm"
)

const maxLocals = 256 // a local slot is a single byte operand (spec.md §4.7 GET_LOCAL/SET_LOCAL)

// local is one compile-time-tracked stack slot.
type local struct {
	name          string
	depth         int
	isCaptured    bool
	uninitialized bool // set by declareLocal and cleared at once by markInitialized; nothing reads it, and since the initializer is compiled before its local is declared, a name used in its own initializer resolves to an enclosing or global binding
}

// loopCtx is one loop's descriptor for break/continue fixups
// (spec.md §4.6).
type loopCtx struct {
	start         int
	scopeDepth    int
	breakJumps    []int
	continueStart int
}

// funcKind distinguishes what a CompilerState is compiling, since the
// implicit top-level RETURN and `self` availability differ.
type funcKind int

const (
	funcKindScript funcKind = iota
	funcKindFunction
	funcKindMethod
	funcKindInitializer
)

// CompilerState is one function's compilation context; Enclosing
// chains to the CompilerState of the lexically containing function so
// resolveUpvalue can walk outward (spec.md §4.6 "resolve_upvalue").
type CompilerState struct {
	Enclosing *CompilerState

	chunk  *vm.Chunk
	fn     *vm.ObjFunction
	kind   funcKind
	upvalues []vm.UpvalueDescriptor

	locals     []local
	scopeDepth int
	loops      []*loopCtx
}

// Compiler drives compilation of one Program into a top-level
// ObjFunction, in either plain-script or module-aware mode (spec.md
// §9 Open Question (a): the module-aware, export-emitting variant is
// authoritative; IsModule=false compiles a plain script).
type Compiler struct {
	diags *diagnostics.Diagnostics
	file  string
	types *types.Context
	gc    *vm.GC

	state    *CompilerState
	IsModule bool

	structDefs map[string]*ast.StructDecl
	classDefs  map[string]*ast.ClassDecl
}

// New creates a Compiler that allocates constants/objects through gc
// (so compiled strings/functions are already GC-tracked when the VM
// starts running them) and resolves named types through typeCtx (the
// analyzer's Result.Types).
func New(diags *diagnostics.Diagnostics, file string, typeCtx *types.Context, gc *vm.GC) *Compiler {
	return &Compiler{
		diags: diags, file: file, types: typeCtx, gc: gc,
		structDefs: map[string]*ast.StructDecl{},
		classDefs:  map[string]*ast.ClassDecl{},
	}
}

// Compile lowers prog into its top-level ObjFunction. isModule is only
// recorded in IsModule; the emitted bytecode is the same either way
// (export declarations always emit MODULE_EXPORT, and whether
// DEFINE_GLOBAL writes to a module's export table is decided at run
// time by the frame's module).
func (c *Compiler) Compile(prog *ast.Program, isModule bool) (*vm.ObjFunction, bool) {
	c.IsModule = isModule
	c.state = &CompilerState{chunk: vm.NewChunk(), kind: funcKindScript}
	c.state.locals = append(c.state.locals, local{name: "", depth: 0}) // slot 0 reserved for the callee itself

	c.collectTypeDecls(prog.Statements)
	for _, s := range prog.Statements {
		c.compileStmt(s)
	}
	c.emitByte(byte(vm.OpNil), 0, 0)
	c.emitByte(byte(vm.OpReturn), 0, 0)

	fn := c.gc.NewFunction("", 0, c.state.chunk)
	return fn, !c.diags.HasErrors()
}

// collectTypeDecls records struct/class declarations up front so a
// CREATE_STRUCT or `new Class(...)` appearing before the textual
// declaration (inside a function body executed later) still resolves
// at compile time.
func (c *Compiler) collectTypeDecls(stmts []ast.Stmt) {
	for _, s := range stmts {
		switch d := s.(type) {
		case *ast.StructDecl:
			c.structDefs[d.Name] = d
		case *ast.ClassDecl:
			c.classDefs[d.Name] = d
		}
	}
}

func (c *Compiler) errorf(tok token.Token, code diagnostics.Code, msg string) {
	c.diags.Report(diagnostics.Error, code, diagnostics.Location{File: c.file, Line: tok.Line, Column: tok.Column}, msg, "")
}

// ---- emission primitives (spec.md §4.6) -----------------------------------

func (c *Compiler) emitByte(b byte, line, col int) int {
	return c.state.chunk.Write(b, line, col)
}

func (c *Compiler) emitOp(op vm.OpCode, tok token.Token) int {
	return c.emitByte(byte(op), tok.Line, tok.Column)
}

func (c *Compiler) emitShort(hi, lo byte, tok token.Token) {
	c.emitByte(hi, tok.Line, tok.Column)
	c.emitByte(lo, tok.Line, tok.Column)
}

// emitJump writes op followed by a 2-byte placeholder distance and
// returns the offset of the placeholder's first byte, for patchJump
// to later fill in.
func (c *Compiler) emitJump(op vm.OpCode, tok token.Token) int {
	c.emitOp(op, tok)
	c.emitByte(0xff, tok.Line, tok.Column)
	c.emitByte(0xff, tok.Line, tok.Column)
	return len(c.state.chunk.Code) - 2
}

// patchJump backfills the 2-byte distance at offset so the jump lands
// at the current end of the chunk (spec.md §4.6 failure mode:
// jump-distance-too-far degrades to a diagnostic rather than
// corrupting the stream).
func (c *Compiler) patchJump(offset int, tok token.Token) {
	dist := len(c.state.chunk.Code) - offset - 2
	if dist > 0xffff {
		c.errorf(tok, diagnostics.ErrFatalInvariant, "jump distance exceeds the 16-bit bytecode format")
		return
	}
	c.state.chunk.Code[offset] = byte(dist >> 8)
	c.state.chunk.Code[offset+1] = byte(dist)
}

// emitLoop emits OpLoop with the backward distance to start.
func (c *Compiler) emitLoop(start int, tok token.Token) {
	c.emitOp(vm.OpLoop, tok)
	dist := len(c.state.chunk.Code) - start + 2
	if dist > 0xffff {
		c.errorf(tok, diagnostics.ErrFatalInvariant, "loop body exceeds the 16-bit bytecode format")
		dist = 0
	}
	c.emitByte(byte(dist>>8), tok.Line, tok.Column)
	c.emitByte(byte(dist), tok.Line, tok.Column)
}

func (c *Compiler) emitConstant(v vm.Value, tok token.Token) {
	c.state.chunk.EmitConstant(v, tok.Line, tok.Column)
}

func (c *Compiler) stringConstIndex(s string, tok token.Token) int {
	return c.state.chunk.AddConstant(vm.ObjValue(c.gc.Intern(s)))
}

// ---- scope discipline ------------------------------------------------------

func (c *Compiler) beginScope() { c.state.scopeDepth++ }

// endScope pops every local declared at or below the scope just
// exited, closing upvalues for captured ones and emitting a plain POP
// for the rest (spec.md §4.6).
func (c *Compiler) endScope(tok token.Token) {
	c.state.scopeDepth--
	for len(c.state.locals) > 0 && c.state.locals[len(c.state.locals)-1].depth > c.state.scopeDepth {
		last := c.state.locals[len(c.state.locals)-1]
		if last.isCaptured {
			c.emitOp(vm.OpCloseUpvalue, tok)
		} else {
			c.emitOp(vm.OpPop, tok)
		}
		c.state.locals = c.state.locals[:len(c.state.locals)-1]
	}
}

// declareLocal adds name as a new local in the current scope (compile
// time only; the VM never sees names, only slot indices).
func (c *Compiler) declareLocal(name string, tok token.Token) (int, bool) {
	if c.state.scopeDepth == 0 {
		return -1, true // globals are named, not slotted
	}
	for i := len(c.state.locals) - 1; i >= 0; i-- {
		if c.state.locals[i].depth != -1 && c.state.locals[i].depth < c.state.scopeDepth {
			break
		}
		if c.state.locals[i].name == name {
			c.errorf(tok, diagnostics.ErrNameDuplicate, "'"+name+"' is already declared in this scope")
			return -1, false
		}
	}
	if len(c.state.locals) >= maxLocals {
		c.errorf(tok, diagnostics.ErrFatalInvariant, "too many local variables in one function (max 255)")
		return -1, false
	}
	c.state.locals = append(c.state.locals, local{name: name, depth: c.state.scopeDepth, uninitialized: true})
	return len(c.state.locals) - 1, true
}

func (c *Compiler) markInitialized() {
	if c.state.scopeDepth == 0 || len(c.state.locals) == 0 {
		return
	}
	c.state.locals[len(c.state.locals)-1].uninitialized = false
}

// resolveLocal implements spec.md §4.6's resolve_local: search this
// function's own locals from innermost to outermost declaration.
func (c *Compiler) resolveLocal(cs *CompilerState, name string) int {
	for i := len(cs.locals) - 1; i >= 0; i-- {
		if cs.locals[i].name == name {
			return i
		}
	}
	return -1
}

// resolveUpvalue implements spec.md §4.6's resolve_upvalue: if name is
// a local of the immediately enclosing function, capture it directly
// (is_local=true); otherwise recurse outward and capture the
// enclosing function's own upvalue (is_local=false). Identical
// upvalues are deduplicated so repeated captures of the same name
// share one slot.
func (c *Compiler) resolveUpvalue(cs *CompilerState, name string) int {
	if cs.Enclosing == nil {
		return -1
	}
	if idx := c.resolveLocal(cs.Enclosing, name); idx != -1 {
		cs.Enclosing.locals[idx].isCaptured = true
		return c.addUpvalue(cs, idx, true)
	}
	if idx := c.resolveUpvalue(cs.Enclosing, name); idx != -1 {
		return c.addUpvalue(cs, idx, false)
	}
	return -1
}

func (c *Compiler) addUpvalue(cs *CompilerState, index int, isLocal bool) int {
	for i, uv := range cs.upvalues {
		if uv.Index == index && uv.IsLocal == isLocal {
			return i
		}
	}
	cs.upvalues = append(cs.upvalues, vm.UpvalueDescriptor{IsLocal: isLocal, Index: index})
	return len(cs.upvalues) - 1
}
