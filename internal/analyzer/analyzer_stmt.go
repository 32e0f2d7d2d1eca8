package analyzer

import (
	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/symbols"
	"github.com/lumen-lang/lumen/internal/types"
)

// visitStmt dispatches one statement/declaration to its checker,
// matching spec.md §4.5's per-kind rule list.
func (a *Analyzer) visitStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDecl:
		a.visitVarDecl(n)
	case *ast.ExprStmt:
		a.visitExpr(n.X)
	case *ast.BlockStmt:
		a.syms.Enter(symbols.ScopeBlock)
		for _, st := range n.Statements {
			a.visitStmt(st)
		}
		a.reportUnused(a.syms.CurrentScope())
		a.syms.Exit()
	case *ast.IfStmt:
		a.visitExpr(n.Cond)
		a.visitStmt(n.Then)
		if n.Else != nil {
			a.visitStmt(n.Else)
		}
	case *ast.WhileStmt:
		a.visitExpr(n.Cond)
		a.syms.Enter(symbols.ScopeLoop)
		a.visitStmt(n.Body)
		a.syms.Exit()
	case *ast.ForStmt:
		a.syms.Enter(symbols.ScopeLoop)
		if n.Init != nil {
			a.visitStmt(n.Init)
		}
		if n.Cond != nil {
			a.visitExpr(n.Cond)
		}
		if n.Incr != nil {
			a.visitStmt(n.Incr)
		}
		a.visitStmt(n.Body)
		a.syms.Exit()
	case *ast.ForInStmt:
		iterType := a.visitExpr(n.Iterable)
		a.syms.Enter(symbols.ScopeLoop)
		elemType := types.Any()
		if iterType.Kind == types.KArray && iterType.Element != nil {
			elemType = *iterType.Element
		}
		a.syms.Declare(&symbols.Symbol{Name: n.Name, Kind: symbols.KindVar, Type: elemType, Mutable: true, Initialized: true,
			DeclaredLine: n.Token().Line, DeclaredCol: n.Token().Column})
		a.visitStmt(n.Body)
		a.syms.Exit()
	case *ast.ReturnStmt:
		if !a.syms.InFunction() {
			a.errorf(n.Token(), diagnostics.ErrContextIllegalReturn, "'return' outside of a function")
		}
		if n.Value != nil {
			a.visitExpr(n.Value)
		}
	case *ast.BreakStmt:
		if !a.syms.InLoop() {
			a.errorf(n.Token(), diagnostics.ErrContextIllegalBreak, "'break' outside of a loop")
		}
	case *ast.ContinueStmt:
		if !a.syms.InLoop() {
			a.errorf(n.Token(), diagnostics.ErrContextIllegalBreak, "'continue' outside of a loop")
		}
	case *ast.DeferStmt:
		a.visitExpr(n.Call)
	case *ast.GuardStmt:
		a.visitExpr(n.Cond)
		a.visitStmt(n.Else)
		if !diverges(n.Else) {
			a.warnf(n.Token(), diagnostics.ErrContextIllegalReturn, "'guard' else-block should exit the enclosing scope")
		}
	case *ast.SwitchStmt:
		a.visitExpr(n.Subject)
		for _, c := range n.Cases {
			for _, v := range c.Values {
				a.visitExpr(v)
			}
			a.syms.Enter(symbols.ScopeBlock)
			for _, st := range c.Body {
				a.visitStmt(st)
			}
			a.syms.Exit()
		}
	case *ast.ThrowStmt:
		a.visitExpr(n.Value)
	case *ast.DoCatchStmt:
		a.visitStmt(n.Body)
		a.syms.Enter(symbols.ScopeBlock)
		if n.CatchName != "" {
			a.syms.Declare(&symbols.Symbol{Name: n.CatchName, Kind: symbols.KindVar, Type: types.Any(), Used: false, Initialized: true,
				DeclaredLine: n.Token().Line, DeclaredCol: n.Token().Column})
		}
		for _, st := range n.Catch.Statements {
			a.visitStmt(st)
		}
		a.reportUnused(a.syms.CurrentScope())
		a.syms.Exit()
	case *ast.FuncDecl:
		// top-level/nested function: signature already hoisted for
		// top-level forms; nested functions are declared here.
		if a.syms.ResolveLocal(n.Name) == nil && a.syms.CurrentScopeKind() != symbols.ScopeGlobal {
			sig := a.funcSignature(n)
			a.syms.Declare(&symbols.Symbol{Name: n.Name, Kind: symbols.KindFunc, Type: sig, Used: true, Initialized: true,
				DeclaredLine: n.Token().Line, DeclaredCol: n.Token().Column})
		}
		a.visitFuncBody(n.Params, n.Body)
	case *ast.ClassDecl:
		a.visitClassDecl(n)
	case *ast.StructDecl:
		// members already hoisted into the type context; nothing
		// executable inside a struct body to check.
	case *ast.EnumDecl:
		a.visitEnumDecl(n)
	case *ast.ProtocolDecl:
		// requirements have no bodies to check.
	case *ast.ExtensionDecl:
		a.visitExtensionDecl(n)
	case *ast.TypealiasDecl:
		// resolved during hoisting.
	case *ast.ImportDecl:
		a.visitImportDecl(n)
	case *ast.ExportDecl:
		a.visitExportDecl(n)
	case *ast.ModuleDecl:
		// no symbols to declare; only switches the compiler's mode.
	}
}

// diverges reports whether block unconditionally exits the enclosing
// scope (return/break/continue/throw as its last statement), the
// requirement spec.md §4.4 places on a `guard`'s else-block.
func diverges(s ast.Stmt) bool {
	block, ok := s.(*ast.BlockStmt)
	if !ok || len(block.Statements) == 0 {
		return false
	}
	switch block.Statements[len(block.Statements)-1].(type) {
	case *ast.ReturnStmt, *ast.BreakStmt, *ast.ContinueStmt, *ast.ThrowStmt:
		return true
	default:
		return false
	}
}

func (a *Analyzer) visitVarDecl(n *ast.VarDecl) {
	declared := types.Unresolved()
	if n.Type != nil {
		declared = a.resolveType(n.Type)
	}
	var initType types.Type
	if n.Init != nil {
		initType = a.visitExpr(n.Init)
		if n.Type != nil && declared.Kind != types.KUnresolved && !types.AssignableTo(initType, declared, a.ctx) {
			a.errorf(n.Token(), diagnostics.ErrTypeNotAssignable,
				"cannot assign value of type '"+initType.String()+"' to declared type '"+declared.String()+"'")
		} else if n.Type == nil {
			declared = initType
		}
	} else if !n.Mutable {
		a.errorf(n.Token(), diagnostics.ErrContextAssignToImmutable, "'let' declaration requires an initializer")
	}
	if !a.syms.Declare(&symbols.Symbol{
		Name: n.Name, Kind: symbols.KindVar, Type: declared, Mutable: n.Mutable,
		Initialized: n.Init != nil, DeclaredLine: n.Token().Line, DeclaredCol: n.Token().Column,
	}) {
		a.errorf(n.Token(), diagnostics.ErrNameDuplicate, "'"+n.Name+"' is already declared in this scope")
	}
}

func (a *Analyzer) visitClassDecl(n *ast.ClassDecl) {
	classType, _ := a.ctx.Lookup(n.Name)
	prev := a.currentClass
	a.currentClass = &classType
	a.syms.Enter(symbols.ScopeClass)
	for _, f := range n.Fields {
		if f.Default != nil {
			a.visitExpr(f.Default)
		}
	}
	for _, m := range n.Methods {
		a.visitFuncBody(m.Params, m.Body)
	}
	for _, m := range n.Extensions {
		a.visitFuncBody(m.Params, m.Body)
	}
	a.syms.Exit()
	a.currentClass = prev
}

func (a *Analyzer) visitEnumDecl(n *ast.EnumDecl) {
	for _, c := range n.Cases {
		if c.RawValue != nil {
			a.visitExpr(c.RawValue)
		}
	}
	for _, m := range n.Methods {
		a.visitFuncBody(m.Params, m.Body)
	}
}

func (a *Analyzer) visitExtensionDecl(n *ast.ExtensionDecl) {
	target, ok := a.ctx.Lookup(n.TypeName)
	if !ok {
		a.errorf(n.Token(), diagnostics.ErrNameUndeclared, "cannot extend unknown type '"+n.TypeName+"'")
	}
	prev := a.currentClass
	a.currentClass = &target
	for _, m := range n.Methods {
		a.visitFuncBody(m.Params, m.Body)
	}
	a.currentClass = prev
}

// visitImportDecl registers the bindings an import introduces into
// the current scope as KindImport symbols typed Any; the module
// loader resolves their real types/values at compile/run time
// (spec.md §4.10), so the analyzer only needs to make the names
// resolvable for the rest of the file.
func (a *Analyzer) visitImportDecl(n *ast.ImportDecl) {
	declare := func(name string) {
		if name == "" {
			return
		}
		a.syms.Declare(&symbols.Symbol{Name: name, Kind: symbols.KindImport, Type: types.Any(), Used: true, Initialized: true,
			DeclaredLine: n.Token().Line, DeclaredCol: n.Token().Column})
	}
	switch n.Kind {
	case ast.ImportWhole:
		name := n.Alias
		if name == "" {
			name = n.Path
		}
		declare(name)
	case ast.ImportDefault, ast.ImportNamespace:
		declare(n.Alias)
	case ast.ImportSpecific:
		for _, spec := range n.Specifiers {
			if spec.Alias != "" {
				declare(spec.Alias)
			} else {
				declare(spec.Name)
			}
		}
	case ast.ImportWildcard:
		// exports are spliced into globals at runtime; nothing
		// statically resolvable to declare here.
	}
}

func (a *Analyzer) visitExportDecl(n *ast.ExportDecl) {
	switch n.Kind {
	case ast.ExportNamed:
		for _, spec := range n.Specifiers {
			if a.syms.Resolve(spec.Name) == nil {
				a.errorf(n.Token(), diagnostics.ErrNameUndeclared, "export of undeclared name '"+spec.Name+"'")
			}
		}
	case ast.ExportDefault:
		a.visitExpr(n.Value)
	case ast.ExportAllFrom:
		// resolved by the module loader against the source module.
	case ast.ExportAttached:
		a.visitStmt(n.Attached)
	}
}
