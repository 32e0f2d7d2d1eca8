package parser

import (
	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/token"
)

// parseStatement dispatches on the current token to one of the
// statement/declaration forms spec.md §4.4 enumerates, synchronizing
// to the next statement boundary on error.
func (p *Parser) parseStatement() ast.Stmt {
	var stmt ast.Stmt
	switch p.curToken.Type {
	case token.LET, token.VAR:
		stmt = p.parseVarDecl()
	case token.LBRACE:
		stmt = p.parseBlockStmt()
	case token.IF:
		stmt = p.parseIfStmt()
	case token.WHILE:
		stmt = p.parseWhileStmt()
	case token.FOR:
		stmt = p.parseForStmt()
	case token.RETURN:
		stmt = p.parseReturnStmt()
	case token.BREAK:
		stmt = &ast.BreakStmt{StmtBase: ast.NewStmtBase(p.curToken)}
	case token.CONTINUE:
		stmt = &ast.ContinueStmt{StmtBase: ast.NewStmtBase(p.curToken)}
	case token.DEFER:
		stmt = p.parseDeferStmt()
	case token.GUARD:
		stmt = p.parseGuardStmt()
	case token.SWITCH:
		stmt = p.parseSwitchStmt()
	case token.THROW:
		stmt = p.parseThrowStmt()
	case token.DO:
		stmt = p.parseDoCatchStmt()
	case token.FUNC:
		if fn := p.parseFuncDecl(false, false); fn != nil {
			stmt = fn
		}
	case token.CLASS:
		stmt = p.parseClassDecl()
	case token.STRUCT:
		stmt = p.parseStructDecl()
	case token.ENUM:
		stmt = p.parseEnumDecl()
	case token.PROTOCOL:
		stmt = p.parseProtocolDecl()
	case token.EXTENSION:
		stmt = p.parseExtensionDecl()
	case token.TYPEALIAS:
		stmt = p.parseTypealiasDecl()
	case token.IMPORT:
		stmt = p.parseImportDecl()
	case token.EXPORT:
		stmt = p.parseExportDecl()
	case token.MODULE:
		stmt = p.parseModuleDecl()
	default:
		stmt = p.parseExprStmt()
	}
	if stmt == nil {
		p.skipToStatementBoundary()
	}
	return stmt
}

func (p *Parser) parseExprStmt() ast.Stmt {
	start := p.curToken
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	return &ast.ExprStmt{StmtBase: ast.NewStmtBase(start), X: expr}
}

// parseBlockStmt parses `{ stmt* }`, assuming curToken is the opening
// LBRACE.
func (p *Parser) parseBlockStmt() *ast.BlockStmt {
	start := p.curToken
	block := &ast.BlockStmt{StmtBase: ast.NewStmtBase(start)}
	p.nextToken()
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		s := p.parseStatement()
		if s != nil {
			block.Statements = append(block.Statements, s)
		}
		p.nextToken()
	}
	return block
}

func (p *Parser) parseVarDecl() ast.Stmt {
	start := p.curToken
	mutable := p.curTokenIs(token.VAR)
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme

	var typ ast.TypeExpr
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		typ = p.parseTypeExpr()
	}

	var init ast.Expr
	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		init = p.parseExpression(LOWEST)
	}

	return &ast.VarDecl{StmtBase: ast.NewStmtBase(start), Name: name, Type: typ, Init: init, Mutable: mutable}
}

func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.curToken
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	then := p.parseBlockStmt()

	var els ast.Stmt
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if p.peekTokenIs(token.IF) {
			p.nextToken()
			els = p.parseIfStmt()
		} else if p.expectPeek(token.LBRACE) {
			els = p.parseBlockStmt()
		}
	}

	return &ast.IfStmt{StmtBase: ast.NewStmtBase(start), Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	start := p.curToken
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseBlockStmt()
	return &ast.WhileStmt{StmtBase: ast.NewStmtBase(start), Cond: cond, Body: body}
}

// parseForStmt disambiguates `for init; cond; incr { }` from
// `for x in iterable { }` by checking whether IN follows a single
// identifier.
func (p *Parser) parseForStmt() ast.Stmt {
	start := p.curToken
	p.nextToken()

	if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.IN) {
		name := p.curToken.Lexeme
		p.nextToken() // IN
		p.nextToken()
		iterable := p.parseExpression(LOWEST)
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		body := p.parseBlockStmt()
		return &ast.ForInStmt{StmtBase: ast.NewStmtBase(start), Name: name, Iterable: iterable, Body: body}
	}

	var init ast.Stmt
	if !p.curTokenIs(token.SEMICOLON) {
		init = p.parseStatement()
	}
	if !p.expectPeek(token.SEMICOLON) {
		// parseStatement for let/var may have already landed on SEMICOLON
		if !p.curTokenIs(token.SEMICOLON) {
			return nil
		}
	}
	p.nextToken()

	var cond ast.Expr
	if !p.curTokenIs(token.SEMICOLON) {
		cond = p.parseExpression(LOWEST)
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	p.nextToken()

	var incr ast.Stmt
	if !p.curTokenIs(token.LBRACE) {
		incr = p.parseExprStmt()
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseBlockStmt()

	return &ast.ForStmt{StmtBase: ast.NewStmtBase(start), Init: init, Cond: cond, Incr: incr, Body: body}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.curToken
	var value ast.Expr
	if !p.peekTokenIs(token.NEWLINE) && !p.peekTokenIs(token.SEMICOLON) && !p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		value = p.parseExpression(LOWEST)
	}
	return &ast.ReturnStmt{StmtBase: ast.NewStmtBase(start), Value: value}
}

func (p *Parser) parseDeferStmt() ast.Stmt {
	start := p.curToken
	p.nextToken()
	expr := p.parseExpression(LOWEST)
	call, ok := expr.(*ast.CallExpr)
	if !ok {
		p.errorf(start, diagnostics.ErrParseInvalidDecl, "defer requires a call expression")
		return nil
	}
	return &ast.DeferStmt{StmtBase: ast.NewStmtBase(start), Call: call}
}

func (p *Parser) parseGuardStmt() ast.Stmt {
	start := p.curToken
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if !p.expectPeek(token.ELSE) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	els := p.parseBlockStmt()
	return &ast.GuardStmt{StmtBase: ast.NewStmtBase(start), Cond: cond, Else: els}
}

func (p *Parser) parseSwitchStmt() ast.Stmt {
	start := p.curToken
	p.nextToken()
	subject := p.parseExpression(LOWEST)
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()

	var cases []ast.SwitchCase
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) {
			p.nextToken()
			continue
		}
		var c ast.SwitchCase
		if p.curTokenIs(token.DEFAULT) {
			c.Default = true
			p.nextToken()
		} else if p.curTokenIs(token.CASE) {
			p.nextToken()
			c.Values = append(c.Values, p.parseExpression(LOWEST))
			for p.peekTokenIs(token.COMMA) {
				p.nextToken()
				p.nextToken()
				c.Values = append(c.Values, p.parseExpression(LOWEST))
			}
			p.nextToken()
		} else {
			p.errorf(p.curToken, diagnostics.ErrParseUnexpectedToken, "expected 'case' or 'default'")
			break
		}
		if !p.curTokenIs(token.COLON) {
			p.errorf(p.curToken, diagnostics.ErrParseMissingDelim, "expected ':' after case")
			break
		}
		p.nextToken()
		for !p.curTokenIs(token.CASE) && !p.curTokenIs(token.DEFAULT) && !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
			if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
				p.nextToken()
				continue
			}
			s := p.parseStatement()
			if s != nil {
				c.Body = append(c.Body, s)
			}
			p.nextToken()
		}
		cases = append(cases, c)
	}

	return &ast.SwitchStmt{StmtBase: ast.NewStmtBase(start), Subject: subject, Cases: cases}
}

func (p *Parser) parseThrowStmt() ast.Stmt {
	start := p.curToken
	p.nextToken()
	value := p.parseExpression(LOWEST)
	return &ast.ThrowStmt{StmtBase: ast.NewStmtBase(start), Value: value}
}

func (p *Parser) parseDoCatchStmt() ast.Stmt {
	start := p.curToken
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseBlockStmt()
	if !p.expectPeek(token.CATCH) {
		return nil
	}
	name := ""
	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		name = p.curToken.Lexeme
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	catch := p.parseBlockStmt()
	return &ast.DoCatchStmt{StmtBase: ast.NewStmtBase(start), Body: body, CatchName: name, Catch: catch}
}
