package parser

import (
	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/token"
)

func (p *Parser) registerExpressionFns() {
	p.prefixFns[token.INT] = p.parseIntegerLiteral
	p.prefixFns[token.FLOAT] = p.parseFloatLiteral
	p.prefixFns[token.STRING] = p.parseStringLiteral
	p.prefixFns[token.STRING_INTERP_START] = p.parseInterpolatedString
	p.prefixFns[token.CHAR] = p.parseCharLiteral
	p.prefixFns[token.TRUE] = p.parseBoolLiteral
	p.prefixFns[token.FALSE] = p.parseBoolLiteral
	p.prefixFns[token.NIL] = p.parseNilLiteral
	p.prefixFns[token.BITS_BIN] = p.parseBitsLiteral
	p.prefixFns[token.BITS_HEX] = p.parseBitsLiteral
	p.prefixFns[token.BITS_OCT] = p.parseBitsLiteral
	p.prefixFns[token.BYTES_STRING] = p.parseBytesLiteral
	p.prefixFns[token.BYTES_HEX] = p.parseBytesLiteral
	p.prefixFns[token.BYTES_BIN] = p.parseBytesLiteral
	p.prefixFns[token.IDENT] = p.parseIdentifier
	p.prefixFns[token.SELF] = p.parseSelfExpr
	p.prefixFns[token.LPAREN] = p.parseGroupedExpression
	p.prefixFns[token.LBRACKET] = p.parseArrayOrDictLiteral
	p.prefixFns[token.LBRACE] = p.parseClosureExpr
	p.prefixFns[token.MINUS] = p.parseUnaryExpr
	p.prefixFns[token.BANG] = p.parseUnaryExpr
	p.prefixFns[token.TILDE] = p.parseUnaryExpr
	p.prefixFns[token.PLUS] = p.parseUnaryExpr
	p.prefixFns[token.PLUS_PLUS] = p.parsePrefixIncDec
	p.prefixFns[token.MINUS_MINUS] = p.parsePrefixIncDec
	p.prefixFns[token.AWAIT] = p.parseAwaitExpr

	p.infixFns[token.PLUS] = p.parseBinaryExpr
	p.infixFns[token.MINUS] = p.parseBinaryExpr
	p.infixFns[token.STAR] = p.parseBinaryExpr
	p.infixFns[token.SLASH] = p.parseBinaryExpr
	p.infixFns[token.PERCENT] = p.parseBinaryExpr
	p.infixFns[token.EQ] = p.parseBinaryExpr
	p.infixFns[token.NEQ] = p.parseBinaryExpr
	p.infixFns[token.LT] = p.parseBinaryExpr
	p.infixFns[token.GT] = p.parseBinaryExpr
	p.infixFns[token.LE] = p.parseBinaryExpr
	p.infixFns[token.GE] = p.parseBinaryExpr
	p.infixFns[token.AND] = p.parseBinaryExpr
	p.infixFns[token.OR] = p.parseBinaryExpr
	p.infixFns[token.AMP] = p.parseBinaryExpr
	p.infixFns[token.PIPE] = p.parseBinaryExpr
	p.infixFns[token.CARET] = p.parseBinaryExpr
	p.infixFns[token.SHL] = p.parseBinaryExpr
	p.infixFns[token.SHR] = p.parseBinaryExpr
	p.infixFns[token.QUESTION_QUESTION] = p.parseNilCoalesce
	p.infixFns[token.QUESTION] = p.parseTernary
	p.infixFns[token.ASSIGN] = p.parseAssign
	p.infixFns[token.PLUS_ASSIGN] = p.parseAssign
	p.infixFns[token.MINUS_ASSIGN] = p.parseAssign
	p.infixFns[token.STAR_ASSIGN] = p.parseAssign
	p.infixFns[token.SLASH_ASSIGN] = p.parseAssign
	p.infixFns[token.LPAREN] = p.parseCallExpr
	p.infixFns[token.LBRACKET] = p.parseSubscriptExpr
	p.infixFns[token.DOT] = p.parseMemberExpr
	p.infixFns[token.OPTIONAL_CHAIN] = p.parseMemberExpr
	p.infixFns[token.BANG] = p.parseForceUnwrap
	p.infixFns[token.AS] = p.parseCastExpr
	p.infixFns[token.PLUS_PLUS] = p.parsePostfixIncDec
	p.infixFns[token.MINUS_MINUS] = p.parsePostfixIncDec
}

// parseExpression is the Pratt climbing loop (spec.md §4.4); it
// recurses through prefix/infix tables keyed by precedence.
func (p *Parser) parseExpression(precedence int) ast.Expr {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxRecursionDepth {
		p.errorf(p.curToken, diagnostics.ErrParseInvalidDecl, "expression too deeply nested")
		p.skipToStatementBoundary()
		return nil
	}

	prefix := p.prefixFns[p.curToken.Type]
	if prefix == nil {
		p.errorf(p.curToken, diagnostics.ErrParseUnexpectedToken, "unexpected token %s in expression", p.curToken.Type)
		return nil
	}
	left := prefix()

	for !p.peekTokenIs(token.NEWLINE) && precedence < p.peekPrecedence() {
		infix := p.infixFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
		if left == nil {
			return nil
		}
	}
	return left
}

// ---- Literal prefix parsers ---------------------------------------------

func (p *Parser) parseIntegerLiteral() ast.Expr {
	v, _ := p.curToken.Literal.(int64)
	return &ast.IntegerLiteral{ast.NewExprBase(p.curToken), v}
}

func (p *Parser) parseFloatLiteral() ast.Expr {
	v, _ := p.curToken.Literal.(float64)
	return &ast.FloatLiteral{ast.NewExprBase(p.curToken), v}
}

func (p *Parser) parseStringLiteral() ast.Expr {
	return &ast.StringLiteral{ast.NewExprBase(p.curToken), p.curToken.Lexeme}
}

// parseInterpolatedString consumes the STRING_INTERP_START/MID/END
// three-token protocol the lexer produces for `"...$x..."` forms
// (spec.md §4.3), collecting literal chunks and embedded expressions.
func (p *Parser) parseInterpolatedString() ast.Expr {
	start := p.curToken
	node := &ast.InterpolatedStringExpr{ast.NewExprBase(start), nil, nil}
	node.Parts = append(node.Parts, p.curToken.Lexeme)

	for {
		p.nextToken() // move onto the embedded expression's first token
		expr := p.parseExpression(LOWEST)
		node.Exprs = append(node.Exprs, expr)
		p.nextToken() // move onto the following MID/END token
		node.Parts = append(node.Parts, p.curToken.Lexeme)
		if p.curTokenIs(token.STRING_INTERP_END) {
			break
		}
		if !p.curTokenIs(token.STRING_INTERP_MID) {
			p.errorf(p.curToken, diagnostics.ErrParseUnexpectedToken, "malformed string interpolation")
			break
		}
	}
	return node
}

func (p *Parser) parseCharLiteral() ast.Expr {
	v, _ := p.curToken.Literal.(rune)
	return &ast.CharLiteral{ast.NewExprBase(p.curToken), v}
}

func (p *Parser) parseBoolLiteral() ast.Expr {
	return &ast.BoolLiteral{ast.NewExprBase(p.curToken), p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNilLiteral() ast.Expr {
	return &ast.NilLiteral{ast.NewExprBase(p.curToken)}
}

func (p *Parser) parseBitsLiteral() ast.Expr {
	base := 2
	switch p.curToken.Type {
	case token.BITS_HEX:
		base = 16
	case token.BITS_OCT:
		base = 8
	}
	return &ast.BitsLiteral{ast.NewExprBase(p.curToken), p.curToken.Lexeme, base}
}

func (p *Parser) parseBytesLiteral() ast.Expr {
	return &ast.BytesLiteral{ast.NewExprBase(p.curToken), p.curToken.Lexeme, p.curToken.Type}
}

func (p *Parser) parseIdentifier() ast.Expr {
	return &ast.Identifier{ast.NewExprBase(p.curToken), p.curToken.Lexeme}
}

func (p *Parser) parseSelfExpr() ast.Expr {
	return &ast.SelfExpr{ast.NewExprBase(p.curToken)}
}

func (p *Parser) parseGroupedExpression() ast.Expr {
	start := p.curToken
	p.nextToken()
	if p.curTokenIs(token.RPAREN) {
		return &ast.GroupExpr{ast.NewExprBase(start), nil}
	}
	first := p.parseExpression(LOWEST)
	elements := []ast.Expr{first}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		elements = append(elements, p.parseExpression(LOWEST))
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if len(elements) == 1 {
		return elements[0]
	}
	return &ast.GroupExpr{ast.NewExprBase(start), elements}
}

// parseArrayOrDictLiteral disambiguates `[1, 2, 3]` from `[k: v, ...]`
// by checking for a COLON after the first element.
func (p *Parser) parseArrayOrDictLiteral() ast.Expr {
	start := p.curToken
	p.nextToken()
	if p.curTokenIs(token.RBRACKET) {
		return &ast.ArrayLiteral{ast.NewExprBase(start), nil}
	}
	if p.curTokenIs(token.COLON) {
		// empty dictionary literal `[:]`
		p.nextToken()
		if !p.expectPeek(token.RBRACKET) {
			return nil
		}
		return &ast.DictionaryLiteral{ast.NewExprBase(start), nil}
	}

	first := p.parseExpression(LOWEST)
	if p.peekTokenIs(token.COLON) {
		p.nextToken() // colon
		p.nextToken()
		val := p.parseExpression(LOWEST)
		entries := []ast.DictionaryEntry{{Key: first, Value: val}}
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			k := p.parseExpression(LOWEST)
			if !p.expectPeek(token.COLON) {
				return nil
			}
			p.nextToken()
			v := p.parseExpression(LOWEST)
			entries = append(entries, ast.DictionaryEntry{Key: k, Value: v})
		}
		if !p.expectPeek(token.RBRACKET) {
			return nil
		}
		return &ast.DictionaryLiteral{ast.NewExprBase(start), entries}
	}

	elements := []ast.Expr{first}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		elements = append(elements, p.parseExpression(LOWEST))
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return &ast.ArrayLiteral{ast.NewExprBase(start), elements}
}

// parseClosureExpr parses `{ (a: Int, b: Int) -> Int in a + b }` or the
// bare-parameter form `{ x in x * 2 }`.
func (p *Parser) parseClosureExpr() ast.Expr {
	start := p.curToken
	p.nextToken()

	var params []ast.ClosureParam
	if p.curTokenIs(token.LPAREN) {
		p.nextToken()
		for !p.curTokenIs(token.RPAREN) {
			name := p.curToken.Lexeme
			var typ ast.TypeExpr
			if p.peekTokenIs(token.COLON) {
				p.nextToken()
				p.nextToken()
				typ = p.parseTypeExpr()
			}
			params = append(params, ast.ClosureParam{Name: name, Type: typ})
			p.nextToken()
			if p.curTokenIs(token.COMMA) {
				p.nextToken()
			}
		}
		p.nextToken() // consume RPAREN, move to IN or ARROW
	} else {
		for !p.curTokenIs(token.IN) {
			params = append(params, ast.ClosureParam{Name: p.curToken.Lexeme})
			p.nextToken()
			if p.curTokenIs(token.COMMA) {
				p.nextToken()
			}
		}
	}

	var result ast.TypeExpr
	if p.curTokenIs(token.ARROW) {
		p.nextToken()
		result = p.parseTypeExpr()
		p.nextToken()
	}

	if !p.curTokenIs(token.IN) {
		p.errorf(p.curToken, diagnostics.ErrParseUnexpectedToken, "expected 'in' in closure literal")
	}
	p.nextToken()

	var body []ast.Stmt
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		body = append(body, p.parseStatement())
		p.nextToken()
	}

	return &ast.ClosureExpr{ast.NewExprBase(start), params, result, body, false, false}
}

func (p *Parser) parseUnaryExpr() ast.Expr {
	start := p.curToken
	op := p.curToken.Type
	p.nextToken()
	operand := p.parseExpression(UNARY)
	return &ast.UnaryExpr{ast.NewExprBase(start), op, operand}
}

func (p *Parser) parsePrefixIncDec() ast.Expr {
	start := p.curToken
	op := p.curToken.Type
	p.nextToken()
	target := p.parseExpression(UNARY)
	return &ast.PrefixIncDecExpr{ast.NewExprBase(start), op, target}
}

func (p *Parser) parseAwaitExpr() ast.Expr {
	start := p.curToken
	p.nextToken()
	operand := p.parseExpression(UNARY)
	return &ast.AwaitExpr{ast.NewExprBase(start), operand}
}

// ---- Infix parsers --------------------------------------------------------

func (p *Parser) parseBinaryExpr(left ast.Expr) ast.Expr {
	start := p.curToken
	op := p.curToken.Type
	prec := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(prec)
	return &ast.BinaryExpr{ast.NewExprBase(start), op, left, right}
}

func (p *Parser) parseNilCoalesce(left ast.Expr) ast.Expr {
	start := p.curToken
	p.nextToken()
	right := p.parseExpression(NIL_COALESCE)
	return &ast.NilCoalesceExpr{ast.NewExprBase(start), left, right}
}

func (p *Parser) parseTernary(left ast.Expr) ast.Expr {
	start := p.curToken
	p.nextToken()
	then := p.parseExpression(LOWEST)
	if !p.expectPeek(token.COLON) {
		return nil
	}
	p.nextToken()
	els := p.parseExpression(TERNARY)
	return &ast.TernaryExpr{ast.NewExprBase(start), left, then, els}
}

func (p *Parser) parseAssign(left ast.Expr) ast.Expr {
	start := p.curToken
	op := p.curToken.Type
	p.nextToken()
	value := p.parseExpression(ASSIGNMENT - 1) // right-associative
	return &ast.AssignExpr{ast.NewExprBase(start), op, left, value}
}

func (p *Parser) parseCallExpr(callee ast.Expr) ast.Expr {
	start := p.curToken
	var args []ast.Expr
	p.nextToken()
	for !p.curTokenIs(token.RPAREN) {
		args = append(args, p.parseExpression(LOWEST))
		p.nextToken()
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	return &ast.CallExpr{ast.NewExprBase(start), callee, args}
}

func (p *Parser) parseSubscriptExpr(target ast.Expr) ast.Expr {
	start := p.curToken
	p.nextToken()
	idx := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return &ast.SubscriptExpr{ast.NewExprBase(start), target, idx}
}

func (p *Parser) parseMemberExpr(target ast.Expr) ast.Expr {
	start := p.curToken
	optional := p.curTokenIs(token.OPTIONAL_CHAIN)
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	return &ast.MemberExpr{ast.NewExprBase(start), target, p.curToken.Lexeme, optional}
}

func (p *Parser) parseForceUnwrap(target ast.Expr) ast.Expr {
	start := p.curToken
	return &ast.ForceUnwrapExpr{ast.NewExprBase(start), target}
}

func (p *Parser) parseCastExpr(target ast.Expr) ast.Expr {
	start := p.curToken
	p.nextToken()
	typ := p.parseTypeExpr()
	return &ast.CastExpr{ast.NewExprBase(start), target, typ}
}

func (p *Parser) parsePostfixIncDec(target ast.Expr) ast.Expr {
	start := p.curToken
	return &ast.PostfixIncDecExpr{ast.NewExprBase(start), start.Type, target}
}
