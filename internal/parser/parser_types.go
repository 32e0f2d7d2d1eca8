package parser

import (
	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/token"
)

// parseTypeExpr parses a type annotation starting at the current
// token, handling the postfix `?` optional marker (spec.md §3).
func (p *Parser) parseTypeExpr() ast.TypeExpr {
	base := p.parseAtomicTypeExpr()
	for p.peekTokenIs(token.QUESTION) {
		p.nextToken()
		base = &ast.OptionalTypeExpr{Base: ast.NewBase(p.curToken), Wrapped: base}
	}
	return base
}

func (p *Parser) parseAtomicTypeExpr() ast.TypeExpr {
	switch p.curToken.Type {
	case token.LBRACKET:
		start := p.curToken
		p.nextToken()
		key := p.parseTypeExpr()
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			p.nextToken()
			value := p.parseTypeExpr()
			if !p.expectPeek(token.RBRACKET) {
				return nil
			}
			return &ast.DictionaryTypeExpr{Base: ast.NewBase(start), Key: key, Value: value}
		}
		if !p.expectPeek(token.RBRACKET) {
			return nil
		}
		return &ast.ArrayTypeExpr{Base: ast.NewBase(start), Element: key}

	case token.LPAREN:
		start := p.curToken
		p.nextToken()
		var params []ast.TypeExpr
		for !p.curTokenIs(token.RPAREN) {
			params = append(params, p.parseTypeExpr())
			p.nextToken()
			if p.curTokenIs(token.COMMA) {
				p.nextToken()
			}
		}
		if p.peekTokenIs(token.ARROW) {
			p.nextToken()
			p.nextToken()
			result := p.parseTypeExpr()
			return &ast.FunctionTypeExpr{Base: ast.NewBase(start), Params: params, Result: result}
		}
		if len(params) == 1 {
			return params[0]
		}
		return &ast.TupleTypeExpr{Base: ast.NewBase(start), Elements: params}

	default:
		name := p.curToken.Lexeme
		return &ast.NamedTypeExpr{Base: ast.NewBase(p.curToken), Name: name}
	}
}
