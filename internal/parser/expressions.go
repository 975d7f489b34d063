package parser

import (
	"strconv"

	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/diag"
	"github.com/pepl-lang/pepl/internal/token"
)

// parseExpression is the Pratt-style entry point: parse one primary
// (possibly prefixed) expression, then fold in infix/postfix operators
// whose precedence exceeds minPrec.
func (p *Parser) parseExpression(minPrec int) ast.Expression {
	p.exprDepth++
	defer func() { p.exprDepth-- }()
	if p.exprDepth > maxExprDepth {
		p.errorf(diag.E607StructuralLimit, p.cur().Span, "expression nesting exceeds the limit of %d", maxExprDepth)
		p.synchronize()
		return &ast.NilLit{Sp: p.cur().Span}
	}

	left := p.parseUnary()
	if left == nil {
		return nil
	}

	for {
		prec := precedenceOf(p.cur().Kind)
		if prec <= minPrec {
			break
		}
		switch p.cur().Kind {
		case token.DOT:
			left = p.parseMember(left)
		case token.LPAREN:
			left = p.parseCall(left)
		case token.QUESTION:
			tok := p.advance()
			left = &ast.TryExpr{Operand: left, Sp: spanFrom(left.Span(), tok.Span)}
		default:
			left = p.parseBinary(left, prec)
		}
	}
	return left
}

func spanFrom(a, b token.Span) token.Span {
	return token.Span{File: a.File, Start: a.Start, End: b.End}
}

func (p *Parser) parseBinary(left ast.Expression, prec int) ast.Expression {
	opTok := p.advance()
	right := p.parseExpression(prec)
	if right == nil {
		return left
	}
	return &ast.BinaryExpr{
		Op:    opTok.Kind.String(),
		Left:  left,
		Right: right,
		Sp:    spanFrom(left.Span(), right.Span()),
	}
}

func (p *Parser) parseMember(left ast.Expression) ast.Expression {
	p.advance() // consume '.'
	nameTok, ok := p.expectFieldName()
	if !ok {
		return left
	}
	return &ast.MemberExpr{Target: left, Field: nameTok.Literal, Sp: spanFrom(left.Span(), nameTok.Span)}
}

func (p *Parser) parseCall(callee ast.Expression) ast.Expression {
	lparen := p.advance()
	args := p.parseArgList()
	rparen, _ := p.expect(token.RPAREN)
	_ = lparen
	return &ast.CallExpr{Callee: callee, Args: args, Sp: spanFrom(callee.Span(), rparen.Span)}
}

func (p *Parser) parseArgList() []ast.Expression {
	var args []ast.Expression
	if p.curIs(token.RPAREN) {
		return args
	}
	for {
		arg := p.parseExpression(LOWEST)
		if arg != nil {
			args = append(args, arg)
		}
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return args
}

// parseUnary handles prefix operators and delegates everything else to
// parsePrimary.
func (p *Parser) parseUnary() ast.Expression {
	switch p.cur().Kind {
	case token.NOT, token.MINUS:
		opTok := p.advance()
		operand := p.parseExpression(UNARY)
		if operand == nil {
			return nil
		}
		return &ast.UnaryExpr{Op: opTok.Kind.String(), Operand: operand, Sp: spanFrom(opTok.Span, operand.Span())}
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.cur()
	switch tok.Kind {
	case token.INT, token.FLOAT:
		p.advance()
		v, _ := strconv.ParseFloat(tok.Literal, 64)
		return &ast.NumberLit{Value: v, Sp: tok.Span}
	case token.TRUE, token.FALSE:
		p.advance()
		return &ast.BoolLit{Value: tok.Kind == token.TRUE, Sp: tok.Span}
	case token.NIL:
		p.advance()
		return &ast.NilLit{Sp: tok.Span}
	case token.STRING:
		return p.parseInterpolatedString()
	case token.LBRACKET:
		return p.parseListLiteral()
	case token.LBRACE:
		return p.parseRecordLiteral()
	case token.MATCH:
		return p.parseMatchExpr()
	case token.LPAREN:
		return p.parseParenOrLambda()
	case token.OK, token.ERR:
		return p.parseResultConstructor()
	case token.MODULE_MATH, token.MODULE_CORE,
		token.MODULE_HTTP, token.MODULE_STORAGE, token.MODULE_LOCATION,
		token.MODULE_NOTIFICATIONS, token.MODULE_TIME:
		return p.parseQualifiedCall()
	case token.STRING_T, token.LIST_T, token.RECORD_T, token.COLOR_T:
		// These keywords double as reserved module names (string, list,
		// record, color); a `.` after one means a qualified stdlib call
		// rather than a bare use of the type keyword.
		if p.peek().Kind == token.DOT {
			return p.parseQualifiedCall()
		}
		p.errorf(diag.E102UnexpectedToken, tok.Span, "%s is a reserved module/type name and cannot be used as a value", tok.Kind)
		p.advance()
		return nil
	case token.IDENT:
		p.advance()
		// Only a capitalized name opens a component; a lower-case name
		// before `{` is a value, as in `match light {` or `if ok {`.
		if p.curIs(token.LBRACE) && tok.Literal[0] >= 'A' && tok.Literal[0] <= 'Z' {
			return p.parseComponentExpr(tok)
		}
		return &ast.Identifier{Name: tok.Literal, Sp: tok.Span}
	case token.UNDERSCORE:
		p.advance()
		return &ast.Identifier{Name: "_", Sp: tok.Span}
	default:
		p.errorf(diag.E102UnexpectedToken, tok.Span, "unexpected token %s in expression", tok.Kind)
		p.advance()
		return nil
	}
}

func (p *Parser) parseResultConstructor() ast.Expression {
	tok := p.advance()
	name := "Ok"
	if tok.Kind == token.ERR {
		name = "Err"
	}
	if _, ok := p.expect(token.LPAREN); !ok {
		return &ast.Identifier{Name: name, Sp: tok.Span}
	}
	var arg ast.Expression
	if !p.curIs(token.RPAREN) {
		arg = p.parseExpression(LOWEST)
	}
	rparen, _ := p.expect(token.RPAREN)
	args := []ast.Expression{}
	if arg != nil {
		args = append(args, arg)
	}
	return &ast.CallExpr{
		Callee: &ast.Identifier{Name: name, Sp: tok.Span},
		Args:   args,
		Sp:     spanFrom(tok.Span, rparen.Span),
	}
}

func (p *Parser) parseQualifiedCall() ast.Expression {
	modTok := p.advance()
	if _, ok := p.expect(token.DOT); !ok {
		return &ast.Identifier{Name: modTok.Kind.String(), Sp: modTok.Span}
	}
	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		return &ast.Identifier{Name: modTok.Kind.String(), Sp: modTok.Span}
	}
	if _, ok := p.expect(token.LPAREN); !ok {
		return &ast.QualifiedCallExpr{Module: modTok.Kind.String(), Function: nameTok.Literal, Sp: spanFrom(modTok.Span, nameTok.Span)}
	}
	args := p.parseArgList()
	rparen, _ := p.expect(token.RPAREN)
	return &ast.QualifiedCallExpr{
		Module:   modTok.Kind.String(),
		Function: nameTok.Literal,
		Args:     args,
		Sp:       spanFrom(modTok.Span, rparen.Span),
	}
}

// parseInterpolatedString consumes a STRING token and, when directly
// followed by INTERP_START/.../INTERP_END/STRING runs, folds them into a
// single InterpolatedString node (the lexer already split the raw text
// at `${`/`}` boundaries; see internal/lexer's interpStack).
func (p *Parser) parseInterpolatedString() ast.Expression {
	startTok := p.advance()
	parts := []ast.StringPart{{Literal: startTok.Literal}}
	last := startTok
	for p.curIs(token.INTERP_START) {
		p.advance()
		expr := p.parseExpression(LOWEST)
		if expr != nil {
			parts = append(parts, ast.StringPart{Expr: expr})
		}
		endTok, _ := p.expect(token.INTERP_END)
		last = endTok
		if p.curIs(token.STRING) {
			strTok := p.advance()
			parts = append(parts, ast.StringPart{Literal: strTok.Literal})
			last = strTok
		}
	}
	return &ast.InterpolatedString{Parts: parts, Sp: spanFrom(startTok.Span, last.Span)}
}

func (p *Parser) parseListLiteral() ast.Expression {
	lbrack := p.advance()
	var elems []ast.Expression
	p.skipNewlines()
	for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
		e := p.parseExpression(LOWEST)
		if e != nil {
			elems = append(elems, e)
		}
		p.skipNewlines()
		if p.curIs(token.COMMA) {
			p.advance()
			p.skipNewlines()
			continue
		}
		break
	}
	rbrack, _ := p.expect(token.RBRACKET)
	return &ast.ListLit{Elements: elems, Sp: spanFrom(lbrack.Span, rbrack.Span)}
}

func (p *Parser) parseRecordLiteral() ast.Expression {
	p.recordDepth++
	defer func() { p.recordDepth-- }()
	if p.recordDepth > maxRecordNesting {
		p.errorf(diag.E607StructuralLimit, p.cur().Span, "record nesting exceeds the limit of %d", maxRecordNesting)
	}

	lbrace := p.advance()
	var fields []ast.RecordFieldInit
	p.skipNewlines()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		nameTok, ok := p.expectFieldName()
		if !ok {
			break
		}
		if _, ok := p.expect(token.COLON); !ok {
			break
		}
		val := p.parseExpression(LOWEST)
		fields = append(fields, ast.RecordFieldInit{Name: nameTok.Literal, Value: val})
		p.skipNewlines()
		if p.curIs(token.COMMA) {
			p.advance()
			p.skipNewlines()
			continue
		}
		break
	}
	rbrace, _ := p.expect(token.RBRACE)
	return &ast.RecordLit{Fields: fields, Sp: spanFrom(lbrace.Span, rbrace.Span)}
}

// parseParenOrLambda disambiguates `(expr)` grouping from
// `(params) -> { ... }` lambda syntax by marking the cursor, scanning to
// the matching RPAREN, and checking for a following ARROW.
func (p *Parser) parseParenOrLambda() ast.Expression {
	mark := p.cursor.Mark()
	if p.looksLikeLambdaParams() {
		return p.parseLambda()
	}
	p.cursor = p.cursor.ResetTo(mark)

	p.advance() // consume '('
	inner := p.parseExpression(LOWEST)
	p.expect(token.RPAREN)
	return inner
}

func (p *Parser) looksLikeLambdaParams() bool {
	depth := 0
	cur := p.cursor
	if cur.Current().Kind != token.LPAREN {
		return false
	}
	depth++
	cur = cur.Advance()
	for depth > 0 {
		switch cur.Current().Kind {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		case token.EOF:
			return false
		}
		cur = cur.Advance()
	}
	return cur.Current().Kind == token.ARROW
}

func (p *Parser) parseLambda() ast.Expression {
	p.lambdaDepth++
	defer func() { p.lambdaDepth-- }()
	if p.lambdaDepth > maxLambdaNesting {
		p.errorf(diag.E607StructuralLimit, p.cur().Span, "lambda nesting exceeds the limit of %d", maxLambdaNesting)
	}

	lparen := p.advance()
	params := p.parseParamList(token.RPAREN)
	p.expect(token.RPAREN)
	p.expect(token.ARROW)

	if !p.curIs(token.LBRACE) {
		p.errorf(diag.E602LambdaBody, p.cur().Span, "lambda body must be a block `{ ... }`, not a bare expression")
		expr := p.parseExpression(LOWEST)
		body := []ast.Statement{}
		if expr != nil {
			body = append(body, &ast.ExprStmt{Expr: expr, Sp: expr.Span()})
		}
		return &ast.LambdaExpr{Params: params, Body: body, Sp: spanFrom(lparen.Span, p.cur().Span)}
	}
	body, rbrace := p.parseBlock()
	return &ast.LambdaExpr{Params: params, Body: body, Sp: spanFrom(lparen.Span, rbrace)}
}

// parseParamList parses a comma-separated `name: Type` list; entry
// assumes the opening delimiter has just been consumed.
func (p *Parser) parseParamList(terminator token.Kind) []*ast.Param {
	var params []*ast.Param
	if p.curIs(terminator) {
		return params
	}
	for {
		nameTok, ok := p.expect(token.IDENT)
		if !ok {
			break
		}
		param := &ast.Param{Name: nameTok.Literal, Sp: nameTok.Span}
		if p.curIs(token.COLON) {
			p.advance()
			param.Type = p.parseType()
		}
		params = append(params, param)
		if len(params) > maxParams {
			p.errorf(diag.E607StructuralLimit, nameTok.Span, "parameter count exceeds the limit of %d", maxParams)
		}
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return params
}
