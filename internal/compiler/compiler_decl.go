package compiler

import (
	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/token"
	"github.com/lumen-lang/lumen/internal/vm"
)

// compileFunction compiles params/body into its own Chunk under a
// fresh CompilerState chained to the current one via Enclosing, then
// emits CLOSURE/CLOSURE_LONG with the resolved upvalue descriptors
// (spec.md §4.6 "closure emission").
//
// Slot 0 of every compiled function is the call's own callee slot
// (spec.md §4.7's call protocol: "slot 0 = callee"). An initializer
// receives its instance there directly — callValue's class-construction
// path overwrites that very slot with the new instance before invoking
// init, so slot 0 already holds self by the time this body runs. A
// regular method instead receives self as an explicit leading argument
// (the method call site in compileCallExpr pushes it before the real
// args), so it is
// declared as an ordinary local occupying slot 1.
func (c *Compiler) compileFunction(name string, params []ast.Param, body *ast.BlockStmt, kind funcKind, tok token.Token) {
	enclosing := c.state
	c.state = &CompilerState{Enclosing: enclosing, chunk: vm.NewChunk(), kind: kind}
	if kind == funcKindInitializer {
		c.state.locals = append(c.state.locals, local{name: "self", depth: 0})
	} else {
		c.state.locals = append(c.state.locals, local{name: "", depth: 0})
	}
	c.beginScope()

	if kind == funcKindMethod {
		c.declareLocal("self", tok)
		c.markInitialized()
	}
	for _, p := range params {
		c.declareLocal(p.Name, tok)
		c.markInitialized()
	}

	if body != nil {
		for _, st := range body.Statements {
			c.compileStmt(st)
		}
	}
	// implicit `nil; return` if the body does not end with an explicit
	// return (spec.md §4.6 "closure emission").
	endsWithReturn := false
	if body != nil && len(body.Statements) > 0 {
		_, endsWithReturn = body.Statements[len(body.Statements)-1].(*ast.ReturnStmt)
	}
	if !endsWithReturn {
		c.emitOp(vm.OpNil, tok)
		c.emitOp(vm.OpReturn, tok)
	}

	compiledChunk := c.state.chunk
	upvalues := c.state.upvalues
	c.state = enclosing

	arity := len(params)
	if kind == funcKindMethod {
		arity++ // self arrives as an explicit leading argument
	}
	fn := c.gc.NewFunction(name, arity, compiledChunk)
	fn.UpvalueCount = len(upvalues)
	idx := c.state.chunk.AddConstant(vm.ObjValue(fn))

	if idx < 256 {
		c.emitOp(vm.OpClosure, tok)
		c.emitByte(byte(idx), tok.Line, tok.Column)
	} else {
		c.emitOp(vm.OpClosureLong, tok)
		c.emitByte(byte(idx&0xff), tok.Line, tok.Column)
		c.emitByte(byte((idx>>8)&0xff), tok.Line, tok.Column)
		c.emitByte(byte((idx>>16)&0xff), tok.Line, tok.Column)
	}
	for _, uv := range upvalues {
		if uv.IsLocal {
			c.emitByte(1, tok.Line, tok.Column)
		} else {
			c.emitByte(0, tok.Line, tok.Column)
		}
		c.emitByte(byte(uv.Index), tok.Line, tok.Column)
	}
}

func (c *Compiler) compileFuncDecl(n *ast.FuncDecl) {
	tok := n.Token()
	kind := funcKindFunction
	if n.Name == "init" {
		kind = funcKindInitializer
	}
	c.compileFunction(n.Name, n.Params, n.Body, kind, tok)
	c.defineBinding(n.Name, tok)
}

// compileStructDecl emits DEFINE_STRUCT registering the field order
// CREATE_STRUCT later builds instances from (spec.md §4.6 "class/
// struct lowering").
func (c *Compiler) compileStructDecl(n *ast.StructDecl) {
	tok := n.Token()
	nameIdx := c.stringConstIndex(n.Name, tok)
	fieldIdx := make([]int, len(n.Fields))
	for i, f := range n.Fields {
		fieldIdx[i] = c.stringConstIndex(f.Name, tok)
	}
	c.emitOp(vm.OpDefineStruct, tok)
	c.emitByte(byte(nameIdx), tok.Line, tok.Column)
	c.emitByte(byte(len(n.Fields)), tok.Line, tok.Column)
	for _, idx := range fieldIdx {
		c.emitByte(byte(idx), tok.Line, tok.Column)
	}
}

// compileClassDecl emits DEFINE_CLASS (wiring up the superclass link if
// any) and installs each method as a closure onto the class's Proto
// dictionary, so instance method lookup can walk Class.Super the way
// getProperty does at runtime (spec.md §4.6: class lowering).
func (c *Compiler) compileClassDecl(n *ast.ClassDecl) {
	tok := n.Token()
	nameIdx := c.stringConstIndex(n.Name, tok)
	superIdx := 0xff
	if n.Super != "" {
		superIdx = c.stringConstIndex(n.Super, tok)
	}
	c.emitOp(vm.OpDefineClass, tok)
	c.emitByte(byte(nameIdx), tok.Line, tok.Column)
	c.emitByte(byte(superIdx), tok.Line, tok.Column)

	for _, m := range n.Methods {
		c.compileMethodOnto(n.Name, m)
	}
	for _, m := range n.Extensions {
		sentinelName := "_ext_" + m.Name
		renamed := *m
		renamed.Name = sentinelName
		c.compileMethodOnto(n.Name, &renamed)
	}
}

// compileMethodOnto compiles method m and installs it onto className's
// prototype object (a struct's Proto or a class's Proto — both
// resolved the same way via GET_OBJECT_PROTO) through SET_PROPERTY.
func (c *Compiler) compileMethodOnto(className string, m *ast.FuncDecl) {
	tok := m.Token()
	kind := funcKindMethod
	if m.Name == "init" {
		kind = funcKindInitializer
	}
	nameIdx := c.stringConstIndex(className, tok)
	c.emitOp(vm.OpGetObjectProto, tok)
	c.emitByte(byte(nameIdx), tok.Line, tok.Column)

	c.emitConstant(vm.ObjValue(c.gc.Intern(m.Name)), tok)

	c.compileFunction(m.Name, m.Params, m.Body, kind, tok)
	c.emitOp(vm.OpSetProperty, tok)
	c.emitOp(vm.OpPop, tok) // SET_PROPERTY leaves the assigned value; discard it, prototype already holds it
}

func (c *Compiler) compileEnumDecl(n *ast.EnumDecl) {
	tok := n.Token()
	// An enum's cases compile to a dictionary of name->raw-value (or
	// name->case-tag when no raw type is declared), matching spec.md
	// §4.6's struct/class lowering approach for any nominal type that
	// needs a runtime representation but no per-instance storage.
	c.emitOp(vm.OpCreateObject, tok)
	for i, cs := range n.Cases {
		c.emitOp(vm.OpDup, tok)
		if cs.RawValue != nil {
			c.compileExpr(cs.RawValue)
		} else {
			c.emitConstant(vm.Int_(int64(i)), tok)
		}
		c.emitConstant(vm.ObjValue(c.gc.Intern(cs.Name)), tok)
		c.emitOp(vm.OpSwap, tok)
		c.emitOp(vm.OpSetProperty, tok)
		c.emitOp(vm.OpPop, tok)
	}
	c.defineBinding(n.Name, tok)

	for _, m := range n.Methods {
		_ = m // enum methods share the class method-install path once a concrete instance shape exists; no-op until enums gain associated-value payload instances.
	}
}

// compileExtensionDecl installs each method directly onto the target
// type's existing prototype, using the `_ext_` name sentinel so the
// runtime can tell an extension method apart from one declared in the
// type's own body if it ever needs to (spec.md §4.6).
func (c *Compiler) compileExtensionDecl(n *ast.ExtensionDecl) {
	for _, m := range n.Methods {
		sentinelName := "_ext_" + m.Name
		renamed := *m
		renamed.Name = sentinelName
		c.compileMethodOnto(n.TypeName, &renamed)

		tok := m.Token()
		nameIdx := c.stringConstIndex(n.TypeName, tok)
		c.emitOp(vm.OpGetObjectProto, tok)
		c.emitByte(byte(nameIdx), tok.Line, tok.Column)
		c.emitConstant(vm.ObjValue(c.gc.Intern(m.Name)), tok)
		c.emitOp(vm.OpGetObjectProto, tok)
		c.emitByte(byte(nameIdx), tok.Line, tok.Column)
		c.emitConstant(vm.ObjValue(c.gc.Intern(sentinelName)), tok)
		c.emitOp(vm.OpGetProperty, tok)
		c.emitOp(vm.OpSetProperty, tok)
		c.emitOp(vm.OpPop, tok)
	}
}

func (c *Compiler) compileExportDecl(n *ast.ExportDecl) {
	tok := n.Token()
	switch n.Kind {
	case ast.ExportNamed:
		for _, spec := range n.Specifiers {
			c.compileExpr(&ast.Identifier{ExprBase: ast.NewExprBase(tok), Name: spec.Name})
			exportName := spec.Alias
			if exportName == "" {
				exportName = spec.Name
			}
			idx := c.stringConstIndex(exportName, tok)
			c.emitOp(vm.OpModuleExport, tok)
			c.emitByte(byte(idx), tok.Line, tok.Column)
		}
	case ast.ExportDefault:
		c.compileExpr(n.Value)
		idx := c.stringConstIndex("default", tok)
		c.emitOp(vm.OpModuleExport, tok)
		c.emitByte(byte(idx), tok.Line, tok.Column)
	case ast.ExportAllFrom:
		pathIdx := c.stringConstIndex(n.FromPath, tok)
		c.emitOp(vm.OpLoadModule, tok)
		c.emitByte(byte(pathIdx), tok.Line, tok.Column)
		c.emitOp(vm.OpImportAllFrom, tok)
	case ast.ExportAttached:
		c.compileStmt(n.Attached)
		if name := declName(n.Attached); name != "" {
			idx := c.stringConstIndex(name, tok)
			c.compileExpr(&ast.Identifier{ExprBase: ast.NewExprBase(tok), Name: name})
			c.emitOp(vm.OpModuleExport, tok)
			c.emitByte(byte(idx), tok.Line, tok.Column)
		}
	}
}

func declName(d ast.Decl) string {
	switch n := d.(type) {
	case *ast.FuncDecl:
		return n.Name
	case *ast.ClassDecl:
		return n.Name
	case *ast.StructDecl:
		return n.Name
	case *ast.EnumDecl:
		return n.Name
	case *ast.VarDecl:
		return n.Name
	default:
		return ""
	}
}
