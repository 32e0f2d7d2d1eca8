// Package symbols implements the symbol table the semantic analyzer
// declares names into and resolves uses against: a chain of lexically
// nested scopes, each holding Symbol entries carrying a nominal type,
// mutability, and a used/initialized flag pair for spec.md §4.5's
// unused/uninitialized-mutable warnings.
//
// Grounded on the teacher repo's internal/symbols package (a
// SymbolTable with a parent pointer per scope, a ScopeType
// enumeration, and Symbol.IsUsed/IsInitialized bookkeeping) — the
// Symbol payload here carries a types.Type instead of the teacher's
// type-variable placeholder, since this language resolves types
// nominally rather than through unification.
package symbols

import "github.com/lumen-lang/lumen/internal/types"

// Kind classifies what a Symbol names.
type Kind int

const (
	KindVar Kind = iota
	KindConst
	KindFunc
	KindParam
	KindType
	KindModule
	KindImport
)

// ScopeKind records why a scope was opened, so context-rule checks
// (`return` only in a function, `break`/`continue` only in a loop) can
// walk the parent chain and ask "am I inside one of these".
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeBlock
	ScopeFunction
	ScopeLoop
	ScopeClass
)

// Symbol is one declared name.
type Symbol struct {
	Name          string
	Kind          Kind
	Type          types.Type
	Mutable       bool
	Used          bool
	Initialized   bool
	DeclaredLine  int
	DeclaredCol   int
}

// Scope is one lexical level of the symbol table: a name -> Symbol map
// plus a parent pointer, forming the chain resolve walks outward
// through.
type Scope struct {
	kind    ScopeKind
	parent  *Scope
	symbols map[string]*Symbol
}

func newScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{kind: kind, parent: parent, symbols: map[string]*Symbol{}}
}

// Table is the analyzer's symbol table: the current scope plus the
// type context it shares with the caller.
type Table struct {
	current *Scope
	global  *Scope
}

// NewTable opens a fresh global scope.
func NewTable() *Table {
	g := newScope(ScopeGlobal, nil)
	return &Table{current: g, global: g}
}

// Enter pushes a new scope of the given kind.
func (t *Table) Enter(kind ScopeKind) {
	t.current = newScope(kind, t.current)
}

// Exit pops the current scope back to its parent. Calling Exit on the
// global scope is a programming error in the caller and is a no-op.
func (t *Table) Exit() {
	if t.current.parent != nil {
		t.current = t.current.parent
	}
}

// Declare adds name to the current scope. Returns false if name is
// already declared in this exact scope (shadowing across scopes is
// permitted; redeclaration within one scope is not, per spec.md §4.5).
func (t *Table) Declare(sym *Symbol) bool {
	if _, exists := t.current.symbols[sym.Name]; exists {
		return false
	}
	t.current.symbols[sym.Name] = sym
	return true
}

// Resolve looks up name starting at the current scope and walking
// outward to global. Returns nil if not found anywhere.
func (t *Table) Resolve(name string) *Symbol {
	for s := t.current; s != nil; s = s.parent {
		if sym, ok := s.symbols[name]; ok {
			return sym
		}
	}
	return nil
}

// ResolveLocal looks up name only in the current scope, without
// walking to parents — used by declaration checks that care about
// "already declared in this exact block".
func (t *Table) ResolveLocal(name string) *Symbol {
	if sym, ok := t.current.symbols[name]; ok {
		return sym
	}
	return nil
}

// InFunction reports whether the current scope is nested (possibly
// through block scopes) inside a function scope — used to validate a
// bare `return`.
func (t *Table) InFunction() bool {
	return t.enclosingKind(ScopeFunction)
}

// InLoop reports whether the current scope is nested inside a loop
// scope — used to validate `break`/`continue`.
func (t *Table) InLoop() bool {
	return t.enclosingKind(ScopeLoop)
}

func (t *Table) enclosingKind(kind ScopeKind) bool {
	for s := t.current; s != nil; s = s.parent {
		if s.kind == kind {
			return true
		}
		if s.kind == ScopeFunction && kind == ScopeLoop {
			// a loop in an outer function does not count for an inner
			// function's break/continue validity
			return false
		}
	}
	return false
}

// CurrentScopeKind reports the innermost scope's kind, for diagnostics.
func (t *Table) CurrentScopeKind() ScopeKind {
	return t.current.kind
}

// UnusedSymbols returns every symbol declared in scope that was never
// read, for spec.md §4.5's unused-variable warning. Only the current
// scope is scanned; callers walk scopes on exit to warn per-block.
func (t *Table) UnusedSymbols(scope *Scope) []*Symbol {
	var out []*Symbol
	for _, sym := range scope.symbols {
		if !sym.Used && (sym.Kind == KindVar || sym.Kind == KindConst) {
			out = append(out, sym)
		}
	}
	return out
}

// CurrentScope exposes the live scope object so a caller can snapshot
// it before Exit for unused-variable reporting.
func (t *Table) CurrentScope() *Scope { return t.current }
