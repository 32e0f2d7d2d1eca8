package compiler

import (
	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/token"
	"github.com/lumen-lang/lumen/internal/vm"
)

// compileExpr lowers e, leaving exactly one value on the stack (spec.md
// §4.6's expression contract).
func (c *Compiler) compileExpr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.IntegerLiteral:
		c.emitConstant(vm.Int_(n.Value), n.Token())
	case *ast.FloatLiteral:
		c.emitConstant(vm.Double_(n.Value), n.Token())
	case *ast.StringLiteral:
		c.emitConstant(vm.ObjValue(c.gc.Intern(n.Value)), n.Token())
	case *ast.InterpolatedStringExpr:
		c.compileInterpolatedString(n)
	case *ast.CharLiteral:
		c.emitConstant(vm.Int_(int64(n.Value)), n.Token())
	case *ast.BoolLiteral:
		if n.Value {
			c.emitOp(vm.OpTrue, n.Token())
		} else {
			c.emitOp(vm.OpFalse, n.Token())
		}
	case *ast.NilLiteral:
		c.emitOp(vm.OpNil, n.Token())
	case *ast.BitsLiteral:
		c.compileBitsLiteral(n)
	case *ast.BytesLiteral:
		c.compileBytesLiteral(n)
	case *ast.ArrayLiteral:
		for _, el := range n.Elements {
			c.compileExpr(el)
		}
		c.emitOp(vm.OpArray, n.Token())
		c.emitByte(byte(len(n.Elements)), n.Token().Line, n.Token().Column)
	case *ast.DictionaryLiteral:
		c.emitOp(vm.OpCreateObject, n.Token())
		for _, entry := range n.Entries {
			c.emitOp(vm.OpDup, n.Token())
			c.compileExpr(entry.Value)
			c.compileExpr(entry.Key)
			c.emitOp(vm.OpToString, n.Token())
			c.emitOp(vm.OpSwap, n.Token())
			c.emitOp(vm.OpSetProperty, n.Token())
			c.emitOp(vm.OpPop, n.Token())
		}
	case *ast.Identifier:
		c.compileIdentifierGet(n.Name, n.Token())
	case *ast.SelfExpr:
		c.compileIdentifierGet("self", n.Token())
	case *ast.UnaryExpr:
		c.compileExpr(n.Operand)
		switch n.Op {
		case token.MINUS:
			c.emitOp(vm.OpNeg, n.Token())
		case token.BANG:
			c.emitOp(vm.OpNot, n.Token())
		case token.TILDE:
			c.emitOp(vm.OpBitNot, n.Token())
		}
	case *ast.BinaryExpr:
		c.compileBinaryExpr(n)
	case *ast.NilCoalesceExpr:
		c.compileExpr(n.Left)
		c.emitOp(vm.OpDup, n.Token())
		// JUMP_IF_FALSE's nil-is-falsy test is exactly ??'s test (this
		// VM has no distinct Optional representation, spec.md §4.7).
		notNilJump := c.emitJump(vm.OpJumpIfFalse, n.Token())
		c.emitOp(vm.OpPop, n.Token()) // left is the result; drop the duplicate probe
		endJump := c.emitJump(vm.OpJump, n.Token())
		c.patchJump(notNilJump, n.Token())
		c.emitOp(vm.OpPop, n.Token()) // drop the duplicate probe
		c.emitOp(vm.OpPop, n.Token()) // drop the nil/false left value itself
		c.compileExpr(n.Right)
		c.patchJump(endJump, n.Token())
	case *ast.TernaryExpr:
		c.compileExpr(n.Cond)
		elseJump := c.emitJump(vm.OpJumpIfFalse, n.Token())
		c.emitOp(vm.OpPop, n.Token())
		c.compileExpr(n.Then)
		endJump := c.emitJump(vm.OpJump, n.Token())
		c.patchJump(elseJump, n.Token())
		c.emitOp(vm.OpPop, n.Token())
		c.compileExpr(n.Else)
		c.patchJump(endJump, n.Token())
	case *ast.AssignExpr:
		c.compileAssignExpr(n)
	case *ast.PrefixIncDecExpr:
		c.compileIncDec(n.Target, n.Op, n.Token(), true)
	case *ast.PostfixIncDecExpr:
		c.compileIncDec(n.Target, n.Op, n.Token(), false)
	case *ast.CallExpr:
		c.compileCallExpr(n)
	case *ast.SubscriptExpr:
		c.compileExpr(n.Target)
		c.compileExpr(n.Index)
		c.emitOp(vm.OpGetSubscript, n.Token())
	case *ast.MemberExpr:
		c.compileMemberGet(n)
	case *ast.ForceUnwrapExpr:
		c.compileExpr(n.Target)
		c.emitOp(vm.OpForceUnwrap, n.Token())
	case *ast.CastExpr:
		c.compileExpr(n.Target) // runtime representation is unaffected; `as` is a static-only check
	case *ast.ClosureExpr:
		c.compileClosureExpr(n)
	case *ast.AwaitExpr:
		c.compileExpr(n.Operand)
		c.emitOp(vm.OpAwait, n.Token())
	case *ast.StructLiteralExpr:
		c.compileStructLiteral(n)
	case *ast.GroupExpr:
		if len(n.Elements) != 1 {
			c.errorf(n.Token(), diagnostics.ErrFatalInvariant, "tuple literals have no runtime representation")
			return
		}
		c.compileExpr(n.Elements[0])
	default:
		c.errorf(e.Token(), diagnostics.ErrFatalInvariant, "compiler: unhandled expression node")
	}
}

// compileInterpolatedString concatenates Parts[0] + TO_STRING(Exprs[0])
// + Parts[1] + ... left to right.
func (c *Compiler) compileInterpolatedString(n *ast.InterpolatedStringExpr) {
	tok := n.Token()
	c.emitConstant(vm.ObjValue(c.gc.Intern(n.Parts[0])), tok)
	for i, expr := range n.Exprs {
		c.compileExpr(expr)
		c.emitOp(vm.OpToString, tok)
		c.emitOp(vm.OpAdd, tok)
		if i+1 < len(n.Parts) {
			c.emitConstant(vm.ObjValue(c.gc.Intern(n.Parts[i+1])), tok)
			c.emitOp(vm.OpAdd, tok)
		}
	}
}

func (c *Compiler) compileBinaryExpr(n *ast.BinaryExpr) {
	tok := n.Token()
	switch n.Op {
	case token.AND, token.AND_KW:
		c.compileExpr(n.Left)
		endJump := c.emitJump(vm.OpJumpIfFalse, tok)
		c.emitOp(vm.OpPop, tok)
		c.compileExpr(n.Right)
		c.patchJump(endJump, tok)
		return
	case token.OR, token.OR_KW:
		c.compileExpr(n.Left)
		elseJump := c.emitJump(vm.OpJumpIfFalse, tok)
		endJump := c.emitJump(vm.OpJump, tok)
		c.patchJump(elseJump, tok)
		c.emitOp(vm.OpPop, tok)
		c.compileExpr(n.Right)
		c.patchJump(endJump, tok)
		return
	}

	c.compileExpr(n.Left)
	c.compileExpr(n.Right)
	switch n.Op {
	case token.PLUS:
		c.emitOp(vm.OpAdd, tok)
	case token.MINUS:
		c.emitOp(vm.OpSub, tok)
	case token.STAR:
		c.emitOp(vm.OpMul, tok)
	case token.SLASH:
		c.emitOp(vm.OpDiv, tok)
	case token.PERCENT:
		c.emitOp(vm.OpMod, tok)
	case token.AMP:
		c.emitOp(vm.OpBitAnd, tok)
	case token.PIPE:
		c.emitOp(vm.OpBitOr, tok)
	case token.CARET:
		c.emitOp(vm.OpBitXor, tok)
	case token.SHL:
		c.emitOp(vm.OpShl, tok)
	case token.SHR:
		c.emitOp(vm.OpShr, tok)
	case token.EQ:
		c.emitOp(vm.OpEqual, tok)
	case token.NEQ:
		c.emitOp(vm.OpNotEqual, tok)
	case token.LT:
		c.emitOp(vm.OpLess, tok)
	case token.GT:
		c.emitOp(vm.OpGreater, tok)
	case token.LE:
		c.emitOp(vm.OpLessEqual, tok)
	case token.GE:
		c.emitOp(vm.OpGreaterEqual, tok)
	}
}

// compileIdentifierGet resolves name against the local/upvalue/global
// chain in that order (spec.md §4.6 resolve_local/resolve_upvalue).
func (c *Compiler) compileIdentifierGet(name string, tok token.Token) {
	if idx := c.resolveLocal(c.state, name); idx != -1 {
		c.emitOp(vm.OpGetLocal, tok)
		c.emitByte(byte(idx), tok.Line, tok.Column)
		return
	}
	if idx := c.resolveUpvalue(c.state, name); idx != -1 {
		c.emitOp(vm.OpGetUpvalue, tok)
		c.emitByte(byte(idx), tok.Line, tok.Column)
		return
	}
	idx := c.stringConstIndex(name, tok)
	c.emitOp(vm.OpGetGlobal, tok)
	c.emitByte(byte(idx), tok.Line, tok.Column)
}

func (c *Compiler) compileMemberGet(n *ast.MemberExpr) {
	tok := n.Token()
	c.compileExpr(n.Target)
	if n.Optional {
		c.emitOp(vm.OpDup, tok) // [target, target]
		nilJump := c.emitJump(vm.OpJumpIfFalse, tok) // peeks, stack unchanged either way
		c.emitOp(vm.OpPop, tok) // [target] -- truthy path, drop the duplicate probe
		c.emitConstant(vm.ObjValue(c.gc.Intern(n.Name)), tok)
		c.emitOp(vm.OpGetProperty, tok) // [result]
		doneJump := c.emitJump(vm.OpJump, tok)
		c.patchJump(nilJump, tok) // nil path lands here with [target, target]
		c.emitOp(vm.OpPop, tok) // [target] -- match the truthy path's depth; target is nil here
		c.patchJump(doneJump, tok)
		return
	}
	c.emitConstant(vm.ObjValue(c.gc.Intern(n.Name)), tok)
	c.emitOp(vm.OpGetProperty, tok)
}

// compileAssign stores the value already on top of the stack into an
// identifier target, as a local, upvalue, or global (resolved in that
// order, spec.md §4.6). Member and subscript targets are handled
// directly in compileAssignExpr since they need their place's
// receiver/key operands alongside the value.
func (c *Compiler) compileAssign(target ast.Expr, tok token.Token) {
	ident, ok := target.(*ast.Identifier)
	if !ok {
		c.errorf(tok, diagnostics.ErrFatalInvariant, "compiler: invalid assignment target")
		return
	}
	if idx := c.resolveLocal(c.state, ident.Name); idx != -1 {
		c.emitOp(vm.OpSetLocal, tok)
		c.emitByte(byte(idx), tok.Line, tok.Column)
		return
	}
	if idx := c.resolveUpvalue(c.state, ident.Name); idx != -1 {
		c.emitOp(vm.OpSetUpvalue, tok)
		c.emitByte(byte(idx), tok.Line, tok.Column)
		return
	}
	idx := c.stringConstIndex(ident.Name, tok)
	c.emitOp(vm.OpSetGlobal, tok)
	c.emitByte(byte(idx), tok.Line, tok.Column)
}

func (c *Compiler) compileAssignExpr(n *ast.AssignExpr) {
	tok := n.Token()

	switch target := n.Target.(type) {
	case *ast.MemberExpr:
		c.compileExpr(target.Target)
		if n.Op != token.ASSIGN {
			c.emitOp(vm.OpDup, tok)
			c.emitConstant(vm.ObjValue(c.gc.Intern(target.Name)), tok)
			c.emitOp(vm.OpGetProperty, tok)
			c.compileExpr(n.Value)
			c.emitCompoundOp(n.Op, tok)
		} else {
			c.compileExpr(n.Value)
		}
		c.emitConstant(vm.ObjValue(c.gc.Intern(target.Name)), tok)
		c.emitOp(vm.OpSwap, tok)
		c.emitOp(vm.OpSetProperty, tok)
		return
	case *ast.SubscriptExpr:
		c.compileExpr(target.Target)
		c.compileExpr(target.Index)
		if n.Op != token.ASSIGN {
			c.emitOp(vm.OpDup2, tok) // target, index, target, index
			c.emitOp(vm.OpGetSubscript, tok) // target, index, current
			c.compileExpr(n.Value)
			c.emitCompoundOp(n.Op, tok) // target, index, result
		} else {
			c.compileExpr(n.Value)
		}
		c.emitOp(vm.OpSetSubscript, tok)
		return
	default:
		if n.Op != token.ASSIGN {
			c.compileExpr(n.Target)
			c.compileExpr(n.Value)
			c.emitCompoundOp(n.Op, tok)
		} else {
			c.compileExpr(n.Value)
		}
		c.compileAssign(n.Target, tok)
	}
}

func (c *Compiler) emitCompoundOp(op token.Type, tok token.Token) {
	switch op {
	case token.PLUS_ASSIGN:
		c.emitOp(vm.OpAdd, tok)
	case token.MINUS_ASSIGN:
		c.emitOp(vm.OpSub, tok)
	case token.STAR_ASSIGN:
		c.emitOp(vm.OpMul, tok)
	case token.SLASH_ASSIGN:
		c.emitOp(vm.OpDiv, tok)
	}
}

func (c *Compiler) compileIncDec(target ast.Expr, op token.Type, tok token.Token, prefix bool) {
	ident, ok := target.(*ast.Identifier)
	if !ok {
		c.errorf(tok, diagnostics.ErrFatalInvariant, "compiler: ++/-- target must be an identifier")
		return
	}
	// SET_LOCAL/SET_UPVALUE/SET_GLOBAL only peek the value they store
	// (they don't consume it), so prefix falls out with no extra
	// shuffling; postfix keeps the pre-increment copy below and drops
	// the stored copy once compileAssign has peeked it.
	c.compileIdentifierGet(ident.Name, tok) // [old]
	if !prefix {
		c.emitOp(vm.OpDup, tok) // [old, old]
	}
	c.emitConstant(vm.Int_(1), tok)
	if op == token.PLUS_PLUS {
		c.emitOp(vm.OpAdd, tok)
	} else {
		c.emitOp(vm.OpSub, tok)
	}
	// prefix: [new]   postfix: [old, new]
	c.compileAssign(ident, tok) // stores the top value in place, stack unchanged
	if !prefix {
		c.emitOp(vm.OpPop, tok) // [old]
	}
}

func (c *Compiler) compileCallExpr(n *ast.CallExpr) {
	tok := n.Token()
	if member, ok := n.Callee.(*ast.MemberExpr); ok {
		// self has no slot-0 magic outside constructor calls (see
		// compileFunction), so it rides along as the method's leading
		// explicit argument: stack ends up [method, self, arg1..argN].
		c.compileExpr(member.Target)
		c.emitOp(vm.OpDup, tok)
		c.emitConstant(vm.ObjValue(c.gc.Intern(member.Name)), tok)
		c.emitOp(vm.OpGetProperty, tok)
		c.emitOp(vm.OpSwap, tok)
		for _, a := range n.Args {
			c.compileExpr(a)
		}
		c.emitOp(vm.OpMethodCall, tok)
		c.emitByte(byte(len(n.Args)+1), tok.Line, tok.Column)
		return
	}
	c.compileExpr(n.Callee)
	for _, a := range n.Args {
		c.compileExpr(a)
	}
	c.emitOp(vm.OpCall, tok)
	c.emitByte(byte(len(n.Args)), tok.Line, tok.Column)
}

func (c *Compiler) compileClosureExpr(n *ast.ClosureExpr) {
	params := make([]ast.Param, len(n.Params))
	for i, p := range n.Params {
		params[i] = ast.Param{Name: p.Name, Type: p.Type, Default: p.Default}
	}
	body := &ast.BlockStmt{Statements: n.Body}
	c.compileFunction("", params, body, funcKindFunction, n.Token())
}

// compileStructLiteral resolves field order from the registered
// struct/class definition and emits CREATE_STRUCT, or, for a class,
// calls the class constructor with its `init` method's declared
// parameter order (named-argument construction is positional by the
// time it reaches CALL; spec.md §4.6 class/struct lowering).
func (c *Compiler) compileStructLiteral(n *ast.StructLiteralExpr) {
	tok := n.Token()
	values := map[string]ast.Expr{}
	for _, a := range n.Args {
		values[a.Name] = a.Value
	}

	if def, ok := c.structDefs[n.TypeName]; ok {
		for _, f := range def.Fields {
			if v, ok := values[f.Name]; ok {
				c.compileExpr(v)
			} else if f.Default != nil {
				c.compileExpr(f.Default)
			} else {
				c.emitOp(vm.OpNil, tok)
			}
		}
		nameIdx := c.stringConstIndex(n.TypeName, tok)
		c.emitOp(vm.OpCreateStruct, tok)
		c.emitByte(byte(nameIdx), tok.Line, tok.Column)
		return
	}

	c.compileIdentifierGet(n.TypeName, tok)
	if class, ok := c.classDefs[n.TypeName]; ok {
		params := c.initParams(class)
		for _, p := range params {
			if v, ok := values[p.Name]; ok {
				c.compileExpr(v)
			} else if p.Default != nil {
				c.compileExpr(p.Default)
			} else {
				c.emitOp(vm.OpNil, tok)
			}
		}
		c.emitOp(vm.OpCall, tok)
		c.emitByte(byte(len(params)), tok.Line, tok.Column)
		return
	}

	for _, a := range n.Args {
		c.compileExpr(a.Value)
	}
	c.emitOp(vm.OpCall, tok)
	c.emitByte(byte(len(n.Args)), tok.Line, tok.Column)
}

// initParams finds class's own init method's parameter list, walking
// up Super (by name, through c.classDefs) when a class declares no
// initializer of its own.
func (c *Compiler) initParams(class *ast.ClassDecl) []ast.Param {
	for _, m := range class.Methods {
		if m.Name == "init" {
			return m.Params
		}
	}
	if class.Super != "" {
		if super, ok := c.classDefs[class.Super]; ok {
			return c.initParams(super)
		}
	}
	return nil
}
