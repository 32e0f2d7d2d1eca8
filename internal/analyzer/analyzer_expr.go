package analyzer

import (
	"fmt"

	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/symbols"
	"github.com/lumen-lang/lumen/internal/token"
	"github.com/lumen-lang/lumen/internal/types"
)

// visitExpr computes e's type, stamps it via Expr.SetType (spec.md §3
// "computed-type pointer"), and returns it so callers can use it
// inline without a second lookup.
func (a *Analyzer) visitExpr(e ast.Expr) types.Type {
	if e == nil {
		return types.Void()
	}
	t := a.computeType(e)
	e.SetType(t)
	return t
}

func (a *Analyzer) computeType(e ast.Expr) types.Type {
	switch n := e.(type) {
	case *ast.IntegerLiteral:
		return types.Int()
	case *ast.FloatLiteral:
		return types.Float()
	case *ast.StringLiteral:
		return types.String()
	case *ast.InterpolatedStringExpr:
		for _, sub := range n.Exprs {
			a.visitExpr(sub)
		}
		return types.String()
	case *ast.CharLiteral:
		return types.Type{Kind: types.KInt, Name: "Char"}
	case *ast.BoolLiteral:
		return types.Bool()
	case *ast.NilLiteral:
		return types.Nil()
	case *ast.BitsLiteral:
		return types.Type{Kind: types.KStruct, Name: "Bits"}
	case *ast.BytesLiteral:
		return types.Array(types.Int())
	case *ast.ArrayLiteral:
		return a.arrayLiteralType(n)
	case *ast.DictionaryLiteral:
		return a.dictLiteralType(n)
	case *ast.Identifier:
		return a.resolveIdent(n)
	case *ast.SelfExpr:
		if a.currentClass == nil {
			a.errorf(n.Token(), diagnostics.ErrContextIllegalReturn, "'self' used outside of a method")
			return types.Unresolved()
		}
		return *a.currentClass
	case *ast.UnaryExpr:
		return a.unaryType(n)
	case *ast.BinaryExpr:
		return a.binaryType(n)
	case *ast.NilCoalesceExpr:
		left := a.visitExpr(n.Left)
		right := a.visitExpr(n.Right)
		if left.Kind == types.KOptional {
			return *left.Wrapped
		}
		return right
	case *ast.TernaryExpr:
		a.visitExpr(n.Cond)
		then := a.visitExpr(n.Then)
		els := a.visitExpr(n.Else)
		if types.Equal(then, els) {
			return then
		}
		return types.Any()
	case *ast.AssignExpr:
		return a.assignType(n)
	case *ast.PrefixIncDecExpr:
		t := a.visitExpr(n.Target)
		a.checkMutableTarget(n.Target, n.Token())
		return t
	case *ast.PostfixIncDecExpr:
		t := a.visitExpr(n.Target)
		a.checkMutableTarget(n.Target, n.Token())
		return t
	case *ast.CallExpr:
		return a.callType(n)
	case *ast.SubscriptExpr:
		return a.subscriptType(n)
	case *ast.MemberExpr:
		return a.memberType(n)
	case *ast.ForceUnwrapExpr:
		t := a.visitExpr(n.Target)
		if t.Kind == types.KOptional {
			return *t.Wrapped
		}
		return t
	case *ast.CastExpr:
		a.visitExpr(n.Target)
		return a.resolveType(n.TargetType)
	case *ast.ClosureExpr:
		return a.closureType(n)
	case *ast.AwaitExpr:
		// spec.md §9 Open Question (d): synchronous pass-through.
		return a.visitExpr(n.Operand)
	case *ast.StructLiteralExpr:
		return a.structLiteralType(n)
	case *ast.GroupExpr:
		if len(n.Elements) == 1 {
			return a.visitExpr(n.Elements[0])
		}
		elems := make([]types.Type, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = a.visitExpr(el)
		}
		return types.Tuple(elems)
	default:
		return types.Unresolved()
	}
}

func (a *Analyzer) arrayLiteralType(n *ast.ArrayLiteral) types.Type {
	if len(n.Elements) == 0 {
		return types.Array(types.Any())
	}
	elem := a.visitExpr(n.Elements[0])
	for _, el := range n.Elements[1:] {
		t := a.visitExpr(el)
		if !types.Equal(t, elem) {
			elem = types.Any()
		}
	}
	return types.Array(elem)
}

func (a *Analyzer) dictLiteralType(n *ast.DictionaryLiteral) types.Type {
	if len(n.Entries) == 0 {
		return types.Dictionary(types.String(), types.Any())
	}
	key := a.visitExpr(n.Entries[0].Key)
	val := a.visitExpr(n.Entries[0].Value)
	for _, e := range n.Entries[1:] {
		k := a.visitExpr(e.Key)
		v := a.visitExpr(e.Value)
		if !types.Equal(k, key) {
			key = types.Any()
		}
		if !types.Equal(v, val) {
			val = types.Any()
		}
	}
	return types.Dictionary(key, val)
}

// resolveIdent looks the name up in the symbol table, marking it used
// and warning if a mutable binding is read before any assignment
// (spec.md §4.5(h) uninitialized-mutable warning).
func (a *Analyzer) resolveIdent(n *ast.Identifier) types.Type {
	sym := a.syms.Resolve(n.Name)
	if sym == nil {
		if _, ok := a.ctx.Lookup(n.Name); ok {
			return types.Unresolved() // a bare type name used as a value, e.g. static access
		}
		a.errorf(n.Token(), diagnostics.ErrNameUndeclared, "undeclared name '"+n.Name+"'")
		return types.Unresolved()
	}
	sym.Used = true
	if sym.Mutable && !sym.Initialized {
		a.warnf(n.Token(), diagnostics.ErrNameUndeclared, "'"+n.Name+"' may be used before being initialized")
	}
	return sym.Type
}

func (a *Analyzer) unaryType(n *ast.UnaryExpr) types.Type {
	t := a.visitExpr(n.Operand)
	switch n.Op {
	case token.BANG:
		return types.Bool()
	case token.MINUS:
		if !t.IsNumeric() && t.Kind != types.KAny && t.Kind != types.KUnresolved {
			a.errorf(n.Token(), diagnostics.ErrTypeMismatch, "unary '-' requires a numeric operand, got '"+t.String()+"'")
		}
		return t
	case token.TILDE:
		if t.Kind != types.KInt && t.Kind != types.KAny && t.Kind != types.KUnresolved {
			a.errorf(n.Token(), diagnostics.ErrTypeMismatch, "unary '~' requires an Int operand, got '"+t.String()+"'")
		}
		return types.Int()
	default:
		return t
	}
}

// binaryType implements spec.md §4.5's operator table: arithmetic
// promotes numerics (Double > Float > Int), `+` on two strings
// concatenates, comparisons yield Bool, bitwise/shift require Int,
// logical && / || require Bool.
func (a *Analyzer) binaryType(n *ast.BinaryExpr) types.Type {
	left := a.visitExpr(n.Left)
	right := a.visitExpr(n.Right)
	switch n.Op {
	case token.PLUS:
		if left.Kind == types.KString && right.Kind == types.KString {
			return types.String()
		}
		fallthrough
	case token.MINUS, token.STAR, token.SLASH, token.PERCENT:
		if !a.bothNumericOrAny(left, right) {
			a.errorf(n.Token(), diagnostics.ErrTypeMismatch,
				"operator '"+n.Op.String()+"' requires numeric operands, got '"+left.String()+"' and '"+right.String()+"'")
			return types.Unresolved()
		}
		return types.CommonNumeric(left, right)
	case token.AMP, token.PIPE, token.CARET, token.SHL, token.SHR:
		for _, t := range []types.Type{left, right} {
			if t.Kind != types.KInt && t.Kind != types.KAny && t.Kind != types.KUnresolved {
				a.errorf(n.Token(), diagnostics.ErrTypeMismatch, "bitwise operator requires Int operands")
				break
			}
		}
		return types.Int()
	case token.EQ, token.NEQ, token.LT, token.GT, token.LE, token.GE:
		if left.Kind == types.KNil || right.Kind == types.KNil {
			return types.Bool()
		}
		if !types.Equal(left, right) && !a.bothNumericOrAny(left, right) &&
			!(left.Kind == types.KAny || right.Kind == types.KAny) {
			a.errorf(n.Token(), diagnostics.ErrTypeMismatch,
				"cannot compare '"+left.String()+"' and '"+right.String()+"'")
		}
		return types.Bool()
	case token.AND, token.OR, token.AND_KW, token.OR_KW:
		for _, t := range []types.Type{left, right} {
			if t.Kind != types.KBool && t.Kind != types.KAny && t.Kind != types.KUnresolved {
				a.errorf(n.Token(), diagnostics.ErrTypeMismatch, "logical operator requires Bool operands")
				break
			}
		}
		return types.Bool()
	default:
		return types.Unresolved()
	}
}

func (a *Analyzer) bothNumericOrAny(a1, b types.Type) bool {
	numericOrDynamic := func(t types.Type) bool {
		return t.IsNumeric() || t.Kind == types.KAny || t.Kind == types.KUnresolved
	}
	return numericOrDynamic(a1) && numericOrDynamic(b)
}

func (a *Analyzer) assignType(n *ast.AssignExpr) types.Type {
	a.checkMutableTarget(n.Target, n.Token())
	targetType := a.visitExpr(n.Target)
	valType := a.visitExpr(n.Value)
	if n.Op == token.ASSIGN {
		if targetType.Kind != types.KUnresolved && valType.Kind != types.KUnresolved &&
			!types.AssignableTo(valType, targetType, a.ctx) {
			a.errorf(n.Token(), diagnostics.ErrTypeNotAssignable,
				"cannot assign '"+valType.String()+"' to target of type '"+targetType.String()+"'")
		}
	}
	return targetType
}

// checkMutableTarget enforces spec.md §4.5's "assignment only to a
// mutable binding" rule for plain-identifier targets; member/
// subscript targets defer mutability to their owning value's type.
func (a *Analyzer) checkMutableTarget(target ast.Expr, tok token.Token) {
	id, ok := target.(*ast.Identifier)
	if !ok {
		return
	}
	sym := a.syms.Resolve(id.Name)
	if sym == nil {
		return
	}
	sym.Initialized = true
	if !sym.Mutable && sym.Kind == symbols.KindVar {
		a.errorf(tok, diagnostics.ErrContextAssignToImmutable, "cannot assign to 'let' binding '"+id.Name+"'")
	}
}

func (a *Analyzer) callType(n *ast.CallExpr) types.Type {
	callee := a.visitExpr(n.Callee)
	for _, arg := range n.Args {
		a.visitExpr(arg)
	}
	switch callee.Kind {
	case types.KFunction:
		if len(n.Args) != len(callee.Params) {
			a.errorf(n.Token(), diagnostics.ErrTypeArity,
				fmt.Sprintf("expected %d argument(s), got %d", len(callee.Params), len(n.Args)))
		}
		if callee.Result != nil {
			return *callee.Result
		}
		return types.Void()
	case types.KClass:
		return callee
	case types.KUnresolved, types.KAny:
		return types.Any()
	default:
		a.errorf(n.Token(), diagnostics.ErrTypeMismatch, "'"+callee.String()+"' is not callable")
		return types.Unresolved()
	}
}

func (a *Analyzer) subscriptType(n *ast.SubscriptExpr) types.Type {
	target := a.visitExpr(n.Target)
	a.visitExpr(n.Index)
	switch target.Kind {
	case types.KArray:
		return *target.Element
	case types.KDictionary:
		return types.Optional(*target.Value)
	default:
		return types.Any()
	}
}

func (a *Analyzer) memberType(n *ast.MemberExpr) types.Type {
	target := a.visitExpr(n.Target)
	base := target
	if base.Kind == types.KOptional {
		base = *base.Wrapped
	}
	for _, m := range base.Members {
		if m.Name == n.Name {
			if n.Optional || target.Kind == types.KOptional {
				return types.Optional(m.Type)
			}
			return m.Type
		}
	}
	for _, m := range base.Methods {
		if m.Name == n.Name && m.Signature != nil {
			return *m.Signature
		}
	}
	if base.Kind == types.KUnresolved || base.Kind == types.KAny {
		return types.Any()
	}
	a.errorf(n.Token(), diagnostics.ErrNameUndeclared, "'"+base.String()+"' has no member '"+n.Name+"'")
	return types.Unresolved()
}

func (a *Analyzer) closureType(n *ast.ClosureExpr) types.Type {
	params := make([]ast.Param, len(n.Params))
	paramTypes := make([]types.Type, len(n.Params))
	for i, p := range n.Params {
		params[i] = ast.Param{Name: p.Name, Type: p.Type, Default: p.Default}
		paramTypes[i] = a.resolveType(p.Type)
	}
	a.syms.Enter(symbols.ScopeFunction)
	for i, p := range n.Params {
		a.syms.Declare(&symbols.Symbol{Name: p.Name, Kind: symbols.KindParam, Type: paramTypes[i], Mutable: true, Initialized: true})
	}
	for _, s := range n.Body {
		a.visitStmt(s)
	}
	a.reportUnused(a.syms.CurrentScope())
	a.syms.Exit()

	result := types.Any()
	if n.Result != nil {
		result = a.resolveType(n.Result)
	}
	return types.Function(paramTypes, result, n.IsAsync, n.IsThrowing)
}

func (a *Analyzer) structLiteralType(n *ast.StructLiteralExpr) types.Type {
	t, ok := a.ctx.Lookup(n.TypeName)
	if !ok {
		a.errorf(n.Token(), diagnostics.ErrNameUndeclared, "unknown type '"+n.TypeName+"'")
		return types.Unresolved()
	}
	for _, arg := range n.Args {
		argType := a.visitExpr(arg.Value)
		found := false
		for _, m := range t.Members {
			if m.Name == arg.Name {
				found = true
				if !types.AssignableTo(argType, m.Type, a.ctx) {
					a.errorf(n.Token(), diagnostics.ErrTypeNotAssignable,
						"field '"+arg.Name+"' expects '"+m.Type.String()+"', got '"+argType.String()+"'")
				}
				break
			}
		}
		if !found {
			a.errorf(n.Token(), diagnostics.ErrNameUndeclared, "'"+n.TypeName+"' has no field '"+arg.Name+"'")
		}
	}
	return t
}
