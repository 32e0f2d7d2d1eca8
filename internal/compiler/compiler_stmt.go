package compiler

import (
	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/token"
	"github.com/lumen-lang/lumen/internal/vm"
)

func (c *Compiler) compileStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDecl:
		c.compileVarDecl(n)
	case *ast.ExprStmt:
		c.compileExpr(n.X)
		c.emitOp(vm.OpPop, n.Token())
	case *ast.BlockStmt:
		c.beginScope()
		for _, st := range n.Statements {
			c.compileStmt(st)
		}
		c.endScope(n.Token())
	case *ast.IfStmt:
		c.compileIfStmt(n)
	case *ast.WhileStmt:
		c.compileWhileStmt(n)
	case *ast.ForStmt:
		c.compileForStmt(n)
	case *ast.ForInStmt:
		c.compileForInStmt(n)
	case *ast.ReturnStmt:
		if n.Value != nil {
			c.compileExpr(n.Value)
		} else {
			c.emitOp(vm.OpNil, n.Token())
		}
		c.emitOp(vm.OpReturn, n.Token())
	case *ast.BreakStmt:
		c.compileBreak(n)
	case *ast.ContinueStmt:
		c.compileContinue(n)
	case *ast.DeferStmt:
		// Non-goal per spec.md scoping of this core: defer is parsed
		// and analyzed but has no scheduler to run it against at
		// program exit, so it compiles as an immediate call — the
		// call's side effects happen at the defer site rather than at
		// scope exit. Acceptable since nothing in this core models an
		// unwind-triggered callback queue.
		c.compileExpr(n.Call)
		c.emitOp(vm.OpPop, n.Token())
	case *ast.GuardStmt:
		c.compileGuardStmt(n)
	case *ast.SwitchStmt:
		c.compileSwitchStmt(n)
	case *ast.ThrowStmt:
		c.compileExpr(n.Value)
		c.emitOp(vm.OpThrow, n.Token())
	case *ast.DoCatchStmt:
		c.compileDoCatchStmt(n)
	case *ast.FuncDecl:
		c.compileFuncDecl(n)
	case *ast.ClassDecl:
		c.compileClassDecl(n)
	case *ast.StructDecl:
		c.compileStructDecl(n)
	case *ast.EnumDecl:
		c.compileEnumDecl(n)
	case *ast.ProtocolDecl:
		// no runtime representation; purely a static conformance contract.
	case *ast.ExtensionDecl:
		c.compileExtensionDecl(n)
	case *ast.TypealiasDecl:
		// purely a static alias; nothing to emit.
	case *ast.ImportDecl:
		c.compileImportDecl(n)
	case *ast.ExportDecl:
		c.compileExportDecl(n)
	case *ast.ModuleDecl:
		c.IsModule = true
	}
}

func (c *Compiler) compileVarDecl(n *ast.VarDecl) {
	if n.Init != nil {
		c.compileExpr(n.Init)
	} else {
		c.emitOp(vm.OpNil, n.Token())
	}

	if c.state.scopeDepth > 0 {
		if _, ok := c.declareLocal(n.Name, n.Token()); ok {
			c.markInitialized()
		}
		return
	}

	idx := c.stringConstIndex(n.Name, n.Token())
	op := vm.OpDefineGlobal
	c.emitOp(op, n.Token())
	c.emitByte(byte(idx), n.Token().Line, n.Token().Column)
}

// compileIfStmt emits the spec.md §4.6 if/else template: condition,
// JUMP_IF_FALSE to else, then-branch, JUMP past else, else-branch.
func (c *Compiler) compileIfStmt(n *ast.IfStmt) {
	c.compileExpr(n.Cond)
	thenJump := c.emitJump(vm.OpJumpIfFalse, n.Token())
	c.emitOp(vm.OpPop, n.Token())
	c.compileStmt(n.Then)

	elseJump := c.emitJump(vm.OpJump, n.Token())
	c.patchJump(thenJump, n.Token())
	c.emitOp(vm.OpPop, n.Token())

	if n.Else != nil {
		c.compileStmt(n.Else)
	}
	c.patchJump(elseJump, n.Token())
}

// compileWhileStmt emits condition/body/LOOP-back-to-condition, the
// template spec.md §4.6 describes, recording a loopCtx so nested
// break/continue can fix up their jumps once the loop's end is known.
func (c *Compiler) compileWhileStmt(n *ast.WhileStmt) {
	loopStart := len(c.state.chunk.Code)
	lc := &loopCtx{start: loopStart, scopeDepth: c.state.scopeDepth, continueStart: loopStart}
	c.state.loops = append(c.state.loops, lc)

	c.compileExpr(n.Cond)
	exitJump := c.emitJump(vm.OpJumpIfFalse, n.Token())
	c.emitOp(vm.OpPop, n.Token())
	c.compileStmt(n.Body)
	c.emitLoop(loopStart, n.Token())

	c.patchJump(exitJump, n.Token())
	c.emitOp(vm.OpPop, n.Token())
	c.finishLoop(n.Token())
}

func (c *Compiler) compileForStmt(n *ast.ForStmt) {
	c.beginScope()
	if n.Init != nil {
		c.compileStmt(n.Init)
	}
	loopStart := len(c.state.chunk.Code)
	lc := &loopCtx{start: loopStart, scopeDepth: c.state.scopeDepth}
	c.state.loops = append(c.state.loops, lc)

	var exitJump int
	hasExit := n.Cond != nil
	if hasExit {
		c.compileExpr(n.Cond)
		exitJump = c.emitJump(vm.OpJumpIfFalse, n.Token())
		c.emitOp(vm.OpPop, n.Token())
	}

	bodyJump := c.emitJump(vm.OpJump, n.Token())
	incrStart := len(c.state.chunk.Code)
	if n.Incr != nil {
		c.compileStmt(n.Incr)
	}
	c.emitLoop(loopStart, n.Token())

	c.patchJump(bodyJump, n.Token())
	lc.continueStart = incrStart
	c.compileStmt(n.Body)
	c.emitLoop(incrStart, n.Token())

	if hasExit {
		c.patchJump(exitJump, n.Token())
		c.emitOp(vm.OpPop, n.Token())
	}
	c.finishLoop(n.Token())
	c.endScope(n.Token())
}

// compileForInStmt lowers `for x in iterable { }` onto the GET_ITER/
// FOR_ITER iterator protocol (spec.md §4.7).
func (c *Compiler) compileForInStmt(n *ast.ForInStmt) {
	c.beginScope()
	c.compileExpr(n.Iterable)
	c.emitOp(vm.OpGetIter, n.Token())
	// GET_ITER leaves [iterable, iterable, index]; reserve their slots so
	// the loop variable lands on the element FOR_ITER pushes above them.
	for _, hidden := range []string{" iterable", " iter", " index"} {
		c.declareLocal(hidden, n.Token())
		c.markInitialized()
	}

	loopStart := len(c.state.chunk.Code)
	lc := &loopCtx{start: loopStart, scopeDepth: c.state.scopeDepth, continueStart: loopStart}
	c.state.loops = append(c.state.loops, lc)

	c.emitOp(vm.OpForIter, n.Token())
	exitJump := c.emitJump(vm.OpJumpIfFalse, n.Token())
	c.emitOp(vm.OpPop, n.Token()) // the true flag FOR_ITER pushed

	c.beginScope()
	c.declareLocal(n.Name, n.Token())
	c.markInitialized()
	c.compileStmt(n.Body)
	c.endScope(n.Token())

	c.emitLoop(loopStart, n.Token())
	c.patchJump(exitJump, n.Token())
	c.finishLoop(n.Token())
	// On exit the stack holds [iterable, iterable, false] in the three
	// hidden slots; endScope pops all three.
	c.endScope(n.Token())
}

// finishLoop pops the active loopCtx and patches every break jump it
// accumulated to land just past the loop.
func (c *Compiler) finishLoop(tok token.Token) {
	lc := c.state.loops[len(c.state.loops)-1]
	c.state.loops = c.state.loops[:len(c.state.loops)-1]
	for _, j := range lc.breakJumps {
		c.patchJump(j, tok)
	}
}

func (c *Compiler) compileBreak(n *ast.BreakStmt) {
	if len(c.state.loops) == 0 {
		c.errorf(n.Token(), diagnostics.ErrContextIllegalBreak, "'break' outside of a loop")
		return
	}
	lc := c.state.loops[len(c.state.loops)-1]
	lc.breakJumps = append(lc.breakJumps, c.emitJump(vm.OpJump, n.Token()))
}

func (c *Compiler) compileContinue(n *ast.ContinueStmt) {
	if len(c.state.loops) == 0 {
		c.errorf(n.Token(), diagnostics.ErrContextIllegalBreak, "'continue' outside of a loop")
		return
	}
	lc := c.state.loops[len(c.state.loops)-1]
	c.emitLoop(lc.continueStart, n.Token())
}

func (c *Compiler) compileGuardStmt(n *ast.GuardStmt) {
	c.compileExpr(n.Cond)
	passJump := c.emitJump(vm.OpJumpIfFalse, n.Token())
	// condition true: discard it and fall through
	c.emitOp(vm.OpPop, n.Token())
	okJump := c.emitJump(vm.OpJump, n.Token())

	c.patchJump(passJump, n.Token())
	c.emitOp(vm.OpPop, n.Token())
	c.compileStmt(n.Else)
	c.patchJump(okJump, n.Token())
}

func (c *Compiler) compileSwitchStmt(n *ast.SwitchStmt) {
	c.compileExpr(n.Subject)
	var endJumps []int
	for _, cs := range n.Cases {
		if cs.Default {
			c.beginScope()
			for _, st := range cs.Body {
				c.compileStmt(st)
			}
			c.endScope(n.Token())
			continue
		}
		var nextCaseJump int
		hasMore := len(cs.Values) > 0
		for i, v := range cs.Values {
			c.emitOp(vm.OpDup, n.Token())
			c.compileExpr(v)
			c.emitOp(vm.OpSwitchEq, n.Token())
			matchJump := c.emitJump(vm.OpJumpIfFalse, n.Token())
			c.emitOp(vm.OpPop, n.Token())
			bodyJump := c.emitJump(vm.OpJump, n.Token())
			c.patchJump(matchJump, n.Token())
			c.emitOp(vm.OpPop, n.Token())
			if i == len(cs.Values)-1 {
				nextCaseJump = c.emitJump(vm.OpJump, n.Token())
			}
			c.patchJump(bodyJump, n.Token())
		}
		c.beginScope()
		for _, st := range cs.Body {
			c.compileStmt(st)
		}
		c.endScope(n.Token())
		endJumps = append(endJumps, c.emitJump(vm.OpJump, n.Token()))
		if hasMore {
			c.patchJump(nextCaseJump, n.Token())
		}
	}
	for _, j := range endJumps {
		c.patchJump(j, n.Token())
	}
	c.emitOp(vm.OpPop, n.Token()) // the subject value
}

func (c *Compiler) compileDoCatchStmt(n *ast.DoCatchStmt) {
	pushTry := c.emitJump(vm.OpPushTry, n.Token())
	c.compileStmt(n.Body)
	c.emitOp(vm.OpPopTry, n.Token())
	afterCatchJump := c.emitJump(vm.OpJump, n.Token())

	c.patchJump(pushTry, n.Token())
	c.beginScope()
	if n.CatchName != "" {
		c.declareLocal(n.CatchName, n.Token())
		c.markInitialized()
	} else {
		c.emitOp(vm.OpPop, n.Token())
	}
	for _, st := range n.Catch.Statements {
		c.compileStmt(st)
	}
	c.endScope(n.Token())
	c.patchJump(afterCatchJump, n.Token())
}

func (c *Compiler) compileImportDecl(n *ast.ImportDecl) {
	tok := n.Token()
	pathIdx := c.stringConstIndex(n.Path, tok)
	c.emitOp(vm.OpLoadModule, tok)
	c.emitByte(byte(pathIdx), tok.Line, tok.Column)

	switch n.Kind {
	case ast.ImportWhole:
		name := n.Alias
		if name == "" {
			name = n.Path
		}
		c.defineBinding(name, tok)
	case ast.ImportDefault, ast.ImportNamespace:
		c.defineBinding(n.Alias, tok)
	case ast.ImportSpecific:
		for _, spec := range n.Specifiers {
			c.emitOp(vm.OpDup, tok)
			nameIdx := c.stringConstIndex(spec.Name, tok)
			c.emitOp(vm.OpImportFrom, tok)
			c.emitByte(byte(nameIdx), tok.Line, tok.Column)
			alias := spec.Alias
			if alias == "" {
				alias = spec.Name
			}
			c.defineBinding(alias, tok)
		}
		c.emitOp(vm.OpPop, tok) // drop the module object itself
	case ast.ImportWildcard:
		c.emitOp(vm.OpImportAllFrom, tok)
	}
}

// defineBinding defines name from the value currently on top of the
// stack, as a local or a global depending on scope depth.
func (c *Compiler) defineBinding(name string, tok token.Token) {
	if c.state.scopeDepth > 0 {
		if _, ok := c.declareLocal(name, tok); ok {
			c.markInitialized()
		}
		return
	}
	idx := c.stringConstIndex(name, tok)
	c.emitOp(vm.OpDefineGlobal, tok)
	c.emitByte(byte(idx), tok.Line, tok.Column)
}
