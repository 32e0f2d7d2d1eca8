package analyzer

import (
	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/symbols"
	"github.com/lumen-lang/lumen/internal/types"
)

// hoistDecls registers every top-level func/class/struct/enum/
// protocol/typealias name before any body is checked, so forward
// references within one file resolve (spec.md §4.5: declaration order
// within a scope does not constrain use order for these forms).
func (a *Analyzer) hoistDecls(stmts []ast.Stmt) {
	for _, s := range stmts {
		switch d := s.(type) {
		case *ast.FuncDecl:
			a.hoistFunc(d)
		case *ast.ClassDecl:
			a.hoistClass(d)
		case *ast.StructDecl:
			a.hoistStruct(d)
		case *ast.EnumDecl:
			a.hoistEnum(d)
		case *ast.ProtocolDecl:
			a.hoistProtocol(d)
		case *ast.TypealiasDecl:
			// resolved on second pass once its referent kinds exist
		}
	}
	// typealiases need the rest of the context present first
	for _, s := range stmts {
		if d, ok := s.(*ast.TypealiasDecl); ok {
			underlying := a.resolveType(d.Type)
			a.ctx.Declare(types.Type{Kind: types.KAlias, Name: d.Name, AliasOf: &underlying})
		}
	}
}

func (a *Analyzer) hoistFunc(d *ast.FuncDecl) {
	sig := a.funcSignature(d)
	if !a.syms.Declare(&symbols.Symbol{
		Name: d.Name, Kind: symbols.KindFunc, Type: sig, Mutable: false,
		Used: true, Initialized: true,
		DeclaredLine: d.Token().Line, DeclaredCol: d.Token().Column,
	}) {
		a.errorf(d.Token(), diagnostics.ErrNameDuplicate, "'"+d.Name+"' is already declared in this scope")
	}
}

func (a *Analyzer) funcSignature(d *ast.FuncDecl) types.Type {
	params := make([]types.Type, len(d.Params))
	for i, p := range d.Params {
		params[i] = a.resolveType(p.Type)
	}
	result := types.Void()
	if d.Result != nil {
		result = a.resolveType(d.Result)
	}
	return types.Function(params, result, d.IsAsync, d.IsThrowing)
}

func (a *Analyzer) hoistClass(d *ast.ClassDecl) {
	t := types.Type{Kind: types.KClass, Name: d.Name, Conforms: d.Protocols}
	if d.Super != "" {
		if super, ok := a.ctx.Lookup(d.Super); ok {
			t.Supertype = &super
		} else {
			a.errorf(d.Token(), diagnostics.ErrNameUndeclared, "unknown superclass '"+d.Super+"'")
		}
	}
	for _, f := range d.Fields {
		t.Members = append(t.Members, types.Member{Name: f.Name, Type: a.resolveType(f.Type), Mutable: f.Mutable, Static: f.Static, Private: f.Private})
	}
	for _, m := range d.Methods {
		sig := a.funcSignature(m)
		t.Methods = append(t.Methods, types.Method{Name: m.Name, Signature: &sig, Static: m.Static, Private: m.Private})
	}
	if !a.ctx.Declare(t) {
		a.errorf(d.Token(), diagnostics.ErrNameDuplicate, "type '"+d.Name+"' is already declared")
	}
	a.syms.Declare(&symbols.Symbol{Name: d.Name, Kind: symbols.KindType, Type: t, Used: true, Initialized: true, DeclaredLine: d.Token().Line, DeclaredCol: d.Token().Column})
}

func (a *Analyzer) hoistStruct(d *ast.StructDecl) {
	t := types.Type{Kind: types.KStruct, Name: d.Name}
	for _, f := range d.Fields {
		t.Members = append(t.Members, types.Member{Name: f.Name, Type: a.resolveType(f.Type), Mutable: f.Mutable, Static: f.Static, Private: f.Private})
	}
	if !a.ctx.Declare(t) {
		a.errorf(d.Token(), diagnostics.ErrNameDuplicate, "type '"+d.Name+"' is already declared")
	}
	a.syms.Declare(&symbols.Symbol{Name: d.Name, Kind: symbols.KindType, Type: t, Used: true, Initialized: true, DeclaredLine: d.Token().Line, DeclaredCol: d.Token().Column})
}

func (a *Analyzer) hoistEnum(d *ast.EnumDecl) {
	t := types.Type{Kind: types.KEnum, Name: d.Name}
	for _, m := range d.Methods {
		sig := a.funcSignature(m)
		t.Methods = append(t.Methods, types.Method{Name: m.Name, Signature: &sig, Static: m.Static, Private: m.Private})
	}
	if !a.ctx.Declare(t) {
		a.errorf(d.Token(), diagnostics.ErrNameDuplicate, "type '"+d.Name+"' is already declared")
	}
	a.syms.Declare(&symbols.Symbol{Name: d.Name, Kind: symbols.KindType, Type: t, Used: true, Initialized: true, DeclaredLine: d.Token().Line, DeclaredCol: d.Token().Column})
}

func (a *Analyzer) hoistProtocol(d *ast.ProtocolDecl) {
	t := types.Type{Kind: types.KProtocol, Name: d.Name}
	for _, r := range d.Requirements {
		params := make([]types.Type, len(r.Params))
		for i, p := range r.Params {
			params[i] = a.resolveType(p.Type)
		}
		result := types.Void()
		if r.Result != nil {
			result = a.resolveType(r.Result)
		}
		sig := types.Function(params, result, false, false)
		t.Methods = append(t.Methods, types.Method{Name: r.Name, Signature: &sig})
	}
	if !a.ctx.Declare(t) {
		a.errorf(d.Token(), diagnostics.ErrNameDuplicate, "type '"+d.Name+"' is already declared")
	}
}

// visitFuncBody enters a function scope, declares parameters, and
// checks the body; used for free functions, methods, and closures.
func (a *Analyzer) visitFuncBody(params []ast.Param, body *ast.BlockStmt) {
	a.syms.Enter(symbols.ScopeFunction)
	for _, p := range params {
		a.syms.Declare(&symbols.Symbol{
			Name: p.Name, Kind: symbols.KindParam, Type: a.resolveType(p.Type),
			Mutable: true, Used: false, Initialized: true,
		})
	}
	if body != nil {
		for _, s := range body.Statements {
			a.visitStmt(s)
		}
	}
	a.reportUnused(a.syms.CurrentScope())
	a.syms.Exit()
}
