package parser

import (
	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/diag"
	"github.com/pepl-lang/pepl/internal/token"
)

// parsePattern parses one match-arm pattern. A bare identifier is always
// an IdentPattern at this stage — whether it binds the scrutinee or
// matches a zero-payload sum variant by name is a scope-lookup question
// the checker resolves once it knows the scrutinee's type (spec.md §9).
func (p *Parser) parsePattern() ast.Pattern {
	tok := p.cur()
	switch tok.Kind {
	case token.UNDERSCORE:
		p.advance()
		return &ast.WildcardPattern{Sp: tok.Span}
	case token.NIL:
		p.advance()
		return &ast.LiteralPattern{Value: &ast.NilLit{Sp: tok.Span}, Sp: tok.Span}
	case token.TRUE, token.FALSE:
		p.advance()
		return &ast.LiteralPattern{Value: &ast.BoolLit{Value: tok.Kind == token.TRUE, Sp: tok.Span}, Sp: tok.Span}
	case token.INT, token.FLOAT:
		lit := p.parsePrimary()
		return &ast.LiteralPattern{Value: lit, Sp: tok.Span}
	case token.STRING:
		lit := p.parsePrimary()
		return &ast.LiteralPattern{Value: lit, Sp: tok.Span}
	case token.OK, token.ERR:
		name := "Ok"
		if tok.Kind == token.ERR {
			name = "Err"
		}
		p.advance()
		return p.parseVariantPatternTail(name, tok.Span)
	case token.IDENT:
		p.advance()
		return p.parseVariantPatternTail(tok.Literal, tok.Span)
	default:
		p.errorf(diag.E102UnexpectedToken, tok.Span, "expected a pattern, found %s", tok.Kind)
		p.advance()
		return &ast.WildcardPattern{Sp: tok.Span}
	}
}

func (p *Parser) parseVariantPatternTail(name string, start token.Span) ast.Pattern {
	if !p.curIs(token.LPAREN) {
		return &ast.IdentPattern{Name: name, Sp: start}
	}
	p.advance()
	binding := ""
	if p.curIs(token.IDENT) {
		bindTok := p.advance()
		binding = bindTok.Literal
	}
	rparen, _ := p.expect(token.RPAREN)
	return &ast.VariantPattern{Name: name, Binding: binding, Sp: spanFrom(start, rparen.Span)}
}

// parseMatchExpr parses `match scrutinee { arm (, arm)* }`.
func (p *Parser) parseMatchExpr() ast.Expression {
	matchTok := p.advance()
	scrutinee := p.parseExpression(LOWEST)
	if _, ok := p.expect(token.LBRACE); !ok {
		return &ast.MatchExpr{Scrutinee: scrutinee, Sp: matchTok.Span}
	}
	p.skipNewlines()

	var arms []*ast.MatchArm
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		arm := p.parseMatchArm()
		if arm != nil {
			arms = append(arms, arm)
		}
		p.skipNewlines()
		if p.curIs(token.COMMA) {
			p.advance()
			p.skipNewlines()
		}
	}
	rbrace, _ := p.expect(token.RBRACE)
	return &ast.MatchExpr{Scrutinee: scrutinee, Arms: arms, Sp: spanFrom(matchTok.Span, rbrace.Span)}
}

func (p *Parser) parseMatchArm() *ast.MatchArm {
	pattern := p.parsePattern()
	var guard ast.Expression
	if p.curIs(token.IF) {
		p.advance()
		guard = p.parseExpression(LOWEST)
	}
	if _, ok := p.expect(token.ARROW); !ok {
		return nil
	}
	if p.curIs(token.LBRACE) {
		body, sp := p.parseBlock()
		return &ast.MatchArm{Pattern: pattern, Guard: guard, BodyBlock: body, Sp: spanFrom(pattern.Span(), sp)}
	}
	expr := p.parseExpression(LOWEST)
	sp := pattern.Span()
	if expr != nil {
		sp = spanFrom(pattern.Span(), expr.Span())
	}
	return &ast.MatchArm{Pattern: pattern, Guard: guard, BodyExpr: expr, Sp: sp}
}
