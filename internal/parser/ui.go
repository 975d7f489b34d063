package parser

import (
	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/diag"
	"github.com/pepl-lang/pepl/internal/token"
)

// parseComponentExpr parses `Name { prop: value, … } [{ children… }]`
// (spec.md §4's UI grammar). Entry: nameTok has already been consumed and
// curIs(LBRACE) for the props block.
func (p *Parser) parseComponentExpr(nameTok token.Token) ast.Expression {
	props, propsEnd := p.parsePropList()
	sp := spanFrom(nameTok.Span, propsEnd)

	var children []ast.UIElement
	if p.curIs(token.LBRACE) {
		var childEnd token.Span
		children, childEnd = p.parseUIBlock()
		sp = spanFrom(nameTok.Span, childEnd)
	}
	return &ast.ComponentExpr{Name: nameTok.Literal, Props: props, Children: children, Sp: sp}
}

func (p *Parser) parsePropList() ([]ast.PropInit, token.Span) {
	lbrace, _ := p.expect(token.LBRACE)
	var props []ast.PropInit
	p.skipNewlines()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		nameTok, ok := p.expectFieldName()
		if !ok {
			break
		}
		if _, ok := p.expect(token.COLON); !ok {
			break
		}
		// A bare identifier prop value names a declared action (a value
		// reference, not a call); anything else, including a parenthesized
		// call, is a plain value expression (spec.md §4).
		val := p.parseExpression(LOWEST)
		props = append(props, ast.PropInit{Name: nameTok.Literal, Value: val})
		p.skipNewlines()
		if p.curIs(token.COMMA) {
			p.advance()
			p.skipNewlines()
			continue
		}
		break
	}
	rbrace, _ := p.expect(token.RBRACE)
	return props, spanFrom(lbrace.Span, rbrace.Span)
}

// parseUIBlock parses the `{ element* }` children list of a component, or
// the body of a UI-context if/for.
func (p *Parser) parseUIBlock() ([]ast.UIElement, token.Span) {
	lbrace, _ := p.expect(token.LBRACE)
	var elems []ast.UIElement
	p.skipNewlines()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		el := p.parseUIElement()
		if el != nil {
			elems = append(elems, el)
		} else {
			p.synchronize()
		}
		p.skipNewlines()
	}
	rbrace, _ := p.expect(token.RBRACE)
	return elems, spanFrom(lbrace.Span, rbrace.Span)
}

func (p *Parser) parseUIElement() ast.UIElement {
	switch p.cur().Kind {
	case token.IF:
		return p.parseUIIf()
	case token.FOR:
		return p.parseUIFor()
	case token.IDENT:
		nameTok := p.advance()
		if !p.curIs(token.LBRACE) {
			p.errorf(diag.E402UnknownComponent, nameTok.Span, "expected a component after %s", nameTok.Literal)
			return nil
		}
		expr := p.parseComponentExpr(nameTok)
		comp, _ := expr.(*ast.ComponentExpr)
		return comp
	default:
		p.errorf(diag.E402UnknownComponent, p.cur().Span, "expected a UI component, if, or for, found %s", p.cur().Kind)
		p.advance()
		return nil
	}
}

func (p *Parser) parseUIIf() ast.UIElement {
	ifTok := p.advance()
	cond := p.parseExpression(LOWEST)
	then, lastSpan := p.parseUIBlock()
	stmt := &ast.UIIf{Cond: cond, Then: then, Sp: spanFrom(ifTok.Span, lastSpan)}

	for p.curIs(token.ELSE) {
		p.advance()
		if p.curIs(token.IF) {
			p.advance()
			elseCond := p.parseExpression(LOWEST)
			body, sp := p.parseUIBlock()
			stmt.ElseIfs = append(stmt.ElseIfs, ast.UIElseIf{Cond: elseCond, Body: body, Sp: sp})
			stmt.Sp = spanFrom(stmt.Sp, sp)
			continue
		}
		body, sp := p.parseUIBlock()
		stmt.Else = body
		stmt.Sp = spanFrom(stmt.Sp, sp)
		break
	}
	return stmt
}

func (p *Parser) parseUIFor() ast.UIElement {
	p.forDepth++
	defer func() { p.forDepth-- }()

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
	p.expect(token.IN)
	iterable := p.parseExpression(LOWEST)
	body, lastSpan := p.parseUIBlock()
	return &ast.UIFor{Item: item, Index: index, Iterable: iterable, Body: body, Sp: spanFrom(forTok.Span, lastSpan)}
}
