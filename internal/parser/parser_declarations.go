package parser

import (
	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/token"
)

// parseParamList parses `(name: Type = default, ...)`, assuming
// curToken is the opening LPAREN.
func (p *Parser) parseParamList() []ast.Param {
	var params []ast.Param
	p.nextToken() // consume (
	for !p.curTokenIs(token.RPAREN) {
		name := p.curToken.Lexeme
		var typ ast.TypeExpr
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			p.nextToken()
			typ = p.parseTypeExpr()
		}
		var def ast.Expr
		if p.peekTokenIs(token.ASSIGN) {
			p.nextToken()
			p.nextToken()
			def = p.parseExpression(LOWEST)
		}
		params = append(params, ast.Param{Name: name, Type: typ, Default: def})
		p.nextToken()
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	return params
}

// parseFuncDecl parses `func name(params) -> Result { body }`.
// static/private are copied onto the FuncDecl as given; every caller
// passes false, since no static or private modifier is parsed.
func (p *Parser) parseFuncDecl(static, private bool) *ast.FuncDecl {
	start := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	params := p.parseParamList()

	var result ast.TypeExpr
	if p.peekTokenIs(token.ARROW) {
		p.nextToken()
		p.nextToken()
		result = p.parseTypeExpr()
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseBlockStmt()

	return &ast.FuncDecl{
		StmtBase: ast.NewStmtBase(start),
		Name:     name, Params: params, Result: result, Body: body,
		Static: static, Private: private,
	}
}

func (p *Parser) parseFieldDecl() ast.FieldDecl {
	mutable := p.curTokenIs(token.VAR)
	p.nextToken()
	name := p.curToken.Lexeme
	var typ ast.TypeExpr
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		typ = p.parseTypeExpr()
	}
	var def ast.Expr
	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		def = p.parseExpression(LOWEST)
	}
	return ast.FieldDecl{Name: name, Type: typ, Default: def, Mutable: mutable}
}

// parseClassDecl parses `class Name[: Super][, Protocol...] { members }`.
func (p *Parser) parseClassDecl() ast.Stmt {
	start := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	decl := &ast.ClassDecl{StmtBase: ast.NewStmtBase(start), Name: p.curToken.Lexeme}

	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		decl.Super = p.curToken.Lexeme
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			decl.Protocols = append(decl.Protocols, p.curToken.Lexeme)
		}
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		switch p.curToken.Type {
		case token.LET, token.VAR:
			decl.Fields = append(decl.Fields, p.parseFieldDecl())
		case token.FUNC:
			decl.Methods = append(decl.Methods, p.parseFuncDecl(false, false))
		default:
			p.errorf(p.curToken, diagnostics.ErrParseInvalidDecl, "unexpected token in class body: %s", p.curToken.Type)
		}
		p.nextToken()
	}
	return decl
}

func (p *Parser) parseStructDecl() ast.Stmt {
	start := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	decl := &ast.StructDecl{StmtBase: ast.NewStmtBase(start), Name: p.curToken.Lexeme}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		name := p.curToken.Lexeme
		var typ ast.TypeExpr
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			p.nextToken()
			typ = p.parseTypeExpr()
		}
		decl.Fields = append(decl.Fields, ast.FieldDecl{Name: name, Type: typ, Mutable: true})
		p.nextToken()
	}
	return decl
}

func (p *Parser) parseEnumDecl() ast.Stmt {
	start := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	decl := &ast.EnumDecl{StmtBase: ast.NewStmtBase(start), Name: p.curToken.Lexeme}

	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		decl.RawType = p.parseTypeExpr()
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		if p.curTokenIs(token.CASE) {
			p.nextToken()
			for {
				c := ast.EnumCase{Name: p.curToken.Lexeme}
				if p.peekTokenIs(token.LPAREN) {
					p.nextToken()
					p.nextToken()
					for !p.curTokenIs(token.RPAREN) {
						c.AssociatedTypes = append(c.AssociatedTypes, p.parseTypeExpr())
						p.nextToken()
						if p.curTokenIs(token.COMMA) {
							p.nextToken()
						}
					}
				} else if p.peekTokenIs(token.ASSIGN) {
					p.nextToken()
					p.nextToken()
					c.RawValue = p.parseExpression(LOWEST)
				}
				decl.Cases = append(decl.Cases, c)
				if p.peekTokenIs(token.COMMA) {
					p.nextToken()
					p.nextToken()
					continue
				}
				break
			}
		} else if p.curTokenIs(token.FUNC) {
			decl.Methods = append(decl.Methods, p.parseFuncDecl(false, false))
		}
		p.nextToken()
	}
	return decl
}

func (p *Parser) parseProtocolDecl() ast.Stmt {
	start := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	decl := &ast.ProtocolDecl{StmtBase: ast.NewStmtBase(start), Name: p.curToken.Lexeme}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(token.FUNC) {
			p.errorf(p.curToken, diagnostics.ErrParseInvalidDecl, "protocol bodies only declare func requirements")
			p.nextToken()
			continue
		}
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		req := ast.ProtocolRequirement{Name: p.curToken.Lexeme}
		if p.expectPeek(token.LPAREN) {
			req.Params = p.parseParamList()
		}
		if p.peekTokenIs(token.ARROW) {
			p.nextToken()
			p.nextToken()
			req.Result = p.parseTypeExpr()
		}
		decl.Requirements = append(decl.Requirements, req)
		p.nextToken()
	}
	return decl
}

// parseExtensionDecl parses `extension TypeName { func ... }`; the
// compiler later renames these methods with the `_ext_` sentinel
// (spec.md §4.6).
func (p *Parser) parseExtensionDecl() ast.Stmt {
	start := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	decl := &ast.ExtensionDecl{StmtBase: ast.NewStmtBase(start), TypeName: p.curToken.Lexeme}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		if p.curTokenIs(token.FUNC) {
			decl.Methods = append(decl.Methods, p.parseFuncDecl(false, false))
		}
		p.nextToken()
	}
	return decl
}

func (p *Parser) parseTypealiasDecl() ast.Stmt {
	start := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	typ := p.parseTypeExpr()
	return &ast.TypealiasDecl{StmtBase: ast.NewStmtBase(start), Name: name, Type: typ}
}

func (p *Parser) parseModuleDecl() ast.Stmt {
	start := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	return &ast.ModuleDecl{StmtBase: ast.NewStmtBase(start), Name: p.curToken.Lexeme}
}

// ---- Import / export ------------------------------------------------------

// parseImportDecl handles the five forms spec.md §4.4 names:
// whole-module, specific, default, namespace, and wildcard-to-scope.
func (p *Parser) parseImportDecl() ast.Stmt {
	start := p.curToken
	p.nextToken()

	switch {
	case p.curTokenIs(token.STRING):
		// (a) import "path" [as alias]
		path := p.curToken.Lexeme
		alias := ""
		if p.peekTokenIs(token.AS) {
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			alias = p.curToken.Lexeme
		}
		return &ast.ImportDecl{StmtBase: ast.NewStmtBase(start), Kind: ast.ImportWhole, Path: path, Alias: alias}

	case p.curTokenIs(token.LBRACE):
		// (b) import { a, b as c } from "path"
		p.nextToken()
		var specs []ast.ImportSpecifier
		for !p.curTokenIs(token.RBRACE) {
			spec := ast.ImportSpecifier{Name: p.curToken.Lexeme}
			if p.peekTokenIs(token.AS) {
				p.nextToken()
				p.nextToken()
				spec.Alias = p.curToken.Lexeme
			}
			specs = append(specs, spec)
			p.nextToken()
			if p.curTokenIs(token.COMMA) {
				p.nextToken()
			}
		}
		if !p.expectPeek(token.FROM) {
			return nil
		}
		if !p.expectPeek(token.STRING) {
			return nil
		}
		return &ast.ImportDecl{StmtBase: ast.NewStmtBase(start), Kind: ast.ImportSpecific, Path: p.curToken.Lexeme, Specifiers: specs}

	case p.curTokenIs(token.STAR):
		// (d) import * as ns from "path"  or  (e) import * from "path"
		if p.peekTokenIs(token.AS) {
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			alias := p.curToken.Lexeme
			if !p.expectPeek(token.FROM) {
				return nil
			}
			if !p.expectPeek(token.STRING) {
				return nil
			}
			return &ast.ImportDecl{StmtBase: ast.NewStmtBase(start), Kind: ast.ImportNamespace, Path: p.curToken.Lexeme, Alias: alias}
		}
		if !p.expectPeek(token.FROM) {
			return nil
		}
		if !p.expectPeek(token.STRING) {
			return nil
		}
		return &ast.ImportDecl{StmtBase: ast.NewStmtBase(start), Kind: ast.ImportWildcard, Path: p.curToken.Lexeme}

	case p.curTokenIs(token.IDENT):
		// (c) import name from "path"
		alias := p.curToken.Lexeme
		if !p.expectPeek(token.FROM) {
			return nil
		}
		if !p.expectPeek(token.STRING) {
			return nil
		}
		return &ast.ImportDecl{StmtBase: ast.NewStmtBase(start), Kind: ast.ImportDefault, Path: p.curToken.Lexeme, Alias: alias}

	default:
		p.errorf(p.curToken, diagnostics.ErrParseUnexpectedToken, "malformed import")
		return nil
	}
}

// parseExportDecl handles the four forms spec.md §4.4 names: named
// list, default, all-from, and export-attached-declaration.
func (p *Parser) parseExportDecl() ast.Stmt {
	start := p.curToken
	p.nextToken()

	switch {
	case p.curTokenIs(token.DEFAULT):
		p.nextToken()
		value := p.parseExpression(LOWEST)
		return &ast.ExportDecl{StmtBase: ast.NewStmtBase(start), Kind: ast.ExportDefault, Value: value}

	case p.curTokenIs(token.STAR):
		if !p.expectPeek(token.FROM) {
			return nil
		}
		if !p.expectPeek(token.STRING) {
			return nil
		}
		return &ast.ExportDecl{StmtBase: ast.NewStmtBase(start), Kind: ast.ExportAllFrom, FromPath: p.curToken.Lexeme}

	case p.curTokenIs(token.LBRACE):
		p.nextToken()
		var specs []ast.ExportSpecifier
		for !p.curTokenIs(token.RBRACE) {
			spec := ast.ExportSpecifier{Name: p.curToken.Lexeme}
			if p.peekTokenIs(token.AS) {
				p.nextToken()
				p.nextToken()
				spec.Alias = p.curToken.Lexeme
			}
			specs = append(specs, spec)
			p.nextToken()
			if p.curTokenIs(token.COMMA) {
				p.nextToken()
			}
		}
		return &ast.ExportDecl{StmtBase: ast.NewStmtBase(start), Kind: ast.ExportNamed, Specifiers: specs}

	default:
		// export-attached-declaration: export func/class/struct/...
		attached, ok := p.parseStatement().(ast.Decl)
		if !ok {
			p.errorf(start, diagnostics.ErrParseInvalidDecl, "export must be followed by a declaration")
			return nil
		}
		return &ast.ExportDecl{StmtBase: ast.NewStmtBase(start), Kind: ast.ExportAttached, Attached: attached}
	}
}
