// Package pipeline strings the lex/parse/analyze/compile/run phases
// together behind one ordered chain of stages, continuing past a
// stage's errors so every diagnostic a source file can produce is
// collected in one run rather than stopping at the first failing
// phase (the CLI and module loader both want the full picture, not
// just the first error).
//
// Grounded on the teacher repo's internal/pipeline.Pipeline/Processor
// chain (`Run` loops every processor unconditionally, "continue on
// errors to collect diagnostics from all stages") and its per-package
// `XProcessor.Process(ctx) ctx` shape; the Context payload here is
// this project's own (token stream swapped for a lexer, AST/types/
// bytecode fields added) since the phases themselves are not the
// teacher's.
package pipeline

import (
	"github.com/lumen-lang/lumen/internal/analyzer"
	"github.com/lumen-lang/lumen/internal/arena"
	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/compiler"
	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/lexer"
	"github.com/lumen-lang/lumen/internal/parser"
	"github.com/lumen-lang/lumen/internal/types"
	"github.com/lumen-lang/lumen/internal/vm"
)

// approxNodeSize is the flat per-node byte estimate the AST arena
// charges per top-level statement parsed; it is a bookkeeping proxy,
// not an exact sizeof, since Go's allocator (not the arena) owns the
// actual node memory (spec.md §4.2).
const approxNodeSize = 96

// approxSymbolSize is the per-entry byte estimate the symbols arena
// charges per type name the analyzer registers.
const approxSymbolSize = 48

// Context carries one source file's state through the chain. Stages
// mutate it in place and hand it to the next stage even when an error
// was recorded, mirroring the teacher's own ctx-threading Processors.
type Context struct {
	File   string
	Source string
	IsModule bool

	Diags *diagnostics.Diagnostics
	GC    *vm.GC

	Program  *ast.Program
	Types    *types.Context
	Function *vm.ObjFunction

	VM     *vm.VM
	Module *vm.ObjModule

	Result    vm.InterpretResult
	RunErr    error

	astArena      *arena.Arena
	symbolsArena  *arena.Arena
	compilerArena *arena.Arena
}

// NewContext creates a Context ready to be run through a Pipeline.
// gc and the VM are shared across files loaded into the same program
// run (spec.md §5: "one VM instance at a time"). Each Context gets its
// own trio of arenas (AST/Symbols/Compiler). They only count the
// bytes attributed to each stage (see ArenaStats); nothing calls
// Reset on them, and they are dropped together with the Context.
func NewContext(file, source string, diags *diagnostics.Diagnostics, gc *vm.GC) *Context {
	diags.SetSource(file, source)
	return &Context{
		File: file, Source: source, Diags: diags, GC: gc,
		astArena:      arena.New(arena.TagAST),
		symbolsArena:  arena.New(arena.TagSymbols),
		compilerArena: arena.New(arena.TagCompiler),
	}
}

// ArenaStats reports this Context's AST/Symbols/Compiler arena usage,
// for `LUMEN_DEBUG` diagnostic output alongside the GC's own stats.
func (ctx *Context) ArenaStats() []arena.Stats {
	return []arena.Stats{ctx.astArena.Stats(), ctx.symbolsArena.Stats(), ctx.compilerArena.Stats()}
}

// Stage is one phase of the pipeline.
type Stage interface {
	Process(ctx *Context) *Context
}

// Pipeline runs an ordered sequence of Stages.
type Pipeline struct {
	stages []Stage
}

// New builds a Pipeline running stages in order.
func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run drives ctx through every stage, continuing even if a stage
// recorded diagnostics (spec.md §4.11: compilation completes
// best-effort; the overall run fails only at the end if any error was
// recorded).
func (p *Pipeline) Run(ctx *Context) *Context {
	for _, s := range p.stages {
		ctx = s.Process(ctx)
	}
	return ctx
}

// LexParseStage turns ctx.Source into ctx.Program.
type LexParseStage struct{}

func (LexParseStage) Process(ctx *Context) *Context {
	lex := lexer.New(ctx.Source)
	prog, _ := parser.ParseProgram(lex, ctx.Diags, ctx.File)
	ctx.Program = prog
	if prog != nil {
		ctx.astArena.Track(int64(len(prog.Statements)) * approxNodeSize)
	}
	return ctx
}

// AnalyzeStage runs semantic analysis over ctx.Program, stamping
// types onto the AST and populating ctx.Types for the compiler.
type AnalyzeStage struct{}

func (AnalyzeStage) Process(ctx *Context) *Context {
	if ctx.Program == nil {
		return ctx
	}
	a := analyzer.New(ctx.Diags, ctx.File)
	result := a.Analyze(ctx.Program)
	ctx.Types = result.Types
	if result.Types != nil {
		ctx.symbolsArena.Track(int64(result.Types.Len()) * approxSymbolSize)
	}
	return ctx
}

// CompileStage lowers ctx.Program to a top-level ObjFunction. It still
// runs on a program with recorded errors (best-effort lowering) so
// later diagnostics have a chance to surface too, matching spec.md
// §4.11; the caller must check ctx.Diags.HasErrors() before executing
// the result.
type CompileStage struct{}

func (CompileStage) Process(ctx *Context) *Context {
	if ctx.Program == nil || ctx.Types == nil {
		return ctx
	}
	c := compiler.New(ctx.Diags, ctx.File, ctx.Types, ctx.GC)
	fn, _ := c.Compile(ctx.Program, ctx.IsModule)
	ctx.Function = fn
	if fn != nil {
		ctx.compilerArena.Track(int64(len(fn.Chunk.Code)))
	}
	return ctx
}

// RunStage executes ctx.Function on ctx.VM, provided no compile-time
// errors were recorded (spec.md §4.11: a run that failed compilation
// never reaches the VM).
type RunStage struct{}

func (RunStage) Process(ctx *Context) *Context {
	if ctx.Diags.HasErrors() || ctx.Function == nil || ctx.VM == nil {
		return ctx
	}
	if ctx.IsModule && ctx.Module != nil {
		ctx.Result, ctx.RunErr = ctx.VM.InterpretModule(ctx.Function, ctx.Module)
	} else {
		ctx.Result, ctx.RunErr = ctx.VM.Interpret(ctx.Function)
	}
	return ctx
}

// Compile runs lex→parse→analyze→compile (no execution) over source,
// the shape internal/modules needs to obtain a Module's top-level
// function before it drives the VM itself inside a dedicated call
// frame (spec.md §4.10).
func Compile(diags *diagnostics.Diagnostics, file, source string, gc *vm.GC, isModule bool) *Context {
	ctx := NewContext(file, source, diags, gc)
	ctx.IsModule = isModule
	return New(LexParseStage{}, AnalyzeStage{}, CompileStage{}).Run(ctx)
}

// Run runs the full lex→parse→analyze→compile→execute chain, the
// shape `lumen run` and the embeddable host API need.
func Run(vmInst *vm.VM, diags *diagnostics.Diagnostics, file, source string) *Context {
	ctx := NewContext(file, source, diags, vmInst.GC())
	ctx.VM = vmInst
	return New(LexParseStage{}, AnalyzeStage{}, CompileStage{}, RunStage{}).Run(ctx)
}
