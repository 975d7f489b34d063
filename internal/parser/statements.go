package parser

import (
	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/diag"
	"github.com/pepl-lang/pepl/internal/token"
)

// parseBlock consumes a `{ statement* }` block. Entry: curIs(LBRACE).
// Exit: cursor is past the matching RBRACE.
func (p *Parser) parseBlock() ([]ast.Statement, token.Span) {
	lbrace, _ := p.expect(token.LBRACE)
	var stmts []ast.Statement
	p.skipNewlines()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if p.full() {
			break
		}
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		} else {
			p.synchronize()
		}
		p.skipNewlines()
	}
	rbrace, _ := p.expect(token.RBRACE)
	return stmts, spanFrom(lbrace.Span, rbrace.Span)
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur().Kind {
	case token.LET:
		return p.parseLetStmt()
	case token.SET:
		return p.parseSetStmt()
	case token.IF:
		return p.parseIfStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	case token.ASSERT:
		return p.parseAssertStmt()
	default:
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil
		}
		return &ast.ExprStmt{Expr: expr, Sp: expr.Span()}
	}
}

func (p *Parser) parseLetStmt() ast.Statement {
	letTok := p.advance()
	discard := false
	var name string
	if p.curIs(token.UNDERSCORE) {
		discard = true
		p.advance()
	} else {
		nameTok, ok := p.expect(token.IDENT)
		if !ok {
			return nil
		}
		name = nameTok.Literal
	}
	var typ ast.TypeExpr
	if p.curIs(token.COLON) {
		p.advance()
		typ = p.parseType()
	}
	if _, ok := p.expect(token.ASSIGN); !ok {
		return nil
	}
	val := p.parseExpression(LOWEST)
	if val == nil {
		return nil
	}
	return &ast.LetStmt{Name: name, Discard: discard, Type: typ, Value: val, Sp: spanFrom(letTok.Span, val.Span())}
}

func (p *Parser) parseSetStmt() ast.Statement {
	setTok := p.advance()
	first, ok := p.expect(token.IDENT)
	if !ok {
		return nil
	}
	path := []string{first.Literal}
	for p.curIs(token.DOT) {
		p.advance()
		nameTok, ok := p.expect(token.IDENT)
		if !ok {
			break
		}
		path = append(path, nameTok.Literal)
	}
	if _, ok := p.expect(token.ASSIGN); !ok {
		return nil
	}
	val := p.parseExpression(LOWEST)
	if val == nil {
		return nil
	}
	return &ast.SetStmt{Path: path, Value: val, Sp: spanFrom(setTok.Span, val.Span())}
}

func (p *Parser) parseIfStmt() ast.Statement {
	ifTok := p.advance()
	cond := p.parseExpression(LOWEST)
	then, lastSpan := p.parseBlock()

	stmt := &ast.IfStmt{Cond: cond, Then: then, Sp: spanFrom(ifTok.Span, lastSpan)}

	for p.curIs(token.ELSE) {
		p.advance()
		if p.curIs(token.IF) {
			p.advance()
			elseCond := p.parseExpression(LOWEST)
			body, sp := p.parseBlock()
			stmt.ElseIfs = append(stmt.ElseIfs, ast.ElseIf{Cond: elseCond, Body: body, Sp: sp})
			stmt.Sp = spanFrom(stmt.Sp, sp)
			continue
		}
		body, sp := p.parseBlock()
		stmt.Else = body
		stmt.Sp = spanFrom(stmt.Sp, sp)
		break
	}
	return stmt
}

func (p *Parser) parseForStmt() ast.Statement {
	p.forDepth++
	defer func() { p.forDepth-- }()
	if p.forDepth > maxForNesting {
		p.errorf(diag.E607StructuralLimit, p.cur().Span, "for-loop nesting exceeds the limit of %d", maxForNesting)
	}

	forTok := p.advance()
	itemTok, ok := p.expect(token.IDENT)
	if !ok {
		return nil
	}
	item := itemTok.Literal
	index := ""
	if p.curIs(token.COMMA) {
		p.advance()
		idxTok, ok := p.expect(token.IDENT)
		if ok {
			index = idxTok.Literal
		}
	}
	if _, ok := p.expect(token.IN); !ok {
		return nil
	}
	iterable := p.parseExpression(LOWEST)
	body, lastSpan := p.parseBlock()
	return &ast.ForStmt{Item: item, Index: index, Iterable: iterable, Body: body, Sp: spanFrom(forTok.Span, lastSpan)}
}

func (p *Parser) parseReturnStmt() ast.Statement {
	retTok := p.advance()
	if p.curIs(token.NEWLINE) || p.curIs(token.RBRACE) || p.curIs(token.EOF) {
		return &ast.ReturnStmt{Sp: retTok.Span}
	}
	val := p.parseExpression(LOWEST)
	sp := retTok.Span
	if val != nil {
		sp = spanFrom(retTok.Span, val.Span())
	}
	return &ast.ReturnStmt{Value: val, Sp: sp}
}

func (p *Parser) parseAssertStmt() ast.Statement {
	assertTok := p.advance()
	cond := p.parseExpression(LOWEST)
	var msg ast.Expression
	if p.curIs(token.COMMA) {
		p.advance()
		msg = p.parseExpression(LOWEST)
	}
	sp := assertTok.Span
	if cond != nil {
		sp = spanFrom(assertTok.Span, cond.Span())
	}
	return &ast.AssertStmt{Cond: cond, Message: msg, Sp: sp}
}
