package parser

import (
	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/diag"
	"github.com/pepl-lang/pepl/internal/token"
)

// parseType parses one type annotation. The trailing `| nil` suffix is
// checked last so it wraps whatever base type precedes it.
func (p *Parser) parseType() ast.TypeExpr {
	base := p.parseTypeAtom()
	if base == nil {
		return nil
	}
	if p.curIs(token.PIPE) {
		p.advance()
		nilTok, ok := p.expect(token.NIL)
		if !ok {
			return base
		}
		return &ast.NullableType{Inner: base, Sp: spanFrom(base.Span(), nilTok.Span)}
	}
	return base
}

func (p *Parser) parseTypeAtom() ast.TypeExpr {
	tok := p.cur()
	switch tok.Kind {
	case token.NUMBER_T, token.STRING_T, token.BOOL_T, token.COLOR_T,
		token.SURFACE_T, token.INPUT_EVENT_T, token.IDENT:
		p.advance()
		return &ast.NamedType{Name: namedTypeString(tok), Sp: tok.Span}
	case token.LIST_T:
		return p.parseListType()
	case token.RECORD_T:
		return p.parseRecordType()
	case token.RESULT_T:
		return p.parseResultType()
	case token.LPAREN:
		return p.parseFuncType()
	default:
		p.errorf(diag.E102UnexpectedToken, tok.Span, "expected a type, found %s", tok.Kind)
		return nil
	}
}

// Named-type rendering uses the token kind's keyword spelling for
// primitives (`number`, `string`, ...) but a plain IDENT's literal text
// for user-declared type names.
func namedTypeString(tok token.Token) string {
	if tok.Kind == token.IDENT {
		return tok.Literal
	}
	return tok.Kind.String()
}

func (p *Parser) parseListType() ast.TypeExpr {
	listTok := p.advance()
	if _, ok := p.expect(token.LT); !ok {
		return &ast.ListType{Sp: listTok.Span}
	}
	elem := p.parseType()
	gtTok, _ := p.expect(token.GT)
	return &ast.ListType{Elem: elem, Sp: spanFrom(listTok.Span, gtTok.Span)}
}

func (p *Parser) parseResultType() ast.TypeExpr {
	resTok := p.advance()
	if _, ok := p.expect(token.LT); !ok {
		return &ast.ResultType{Sp: resTok.Span}
	}
	okT := p.parseType()
	p.expect(token.COMMA)
	errT := p.parseType()
	gtTok, _ := p.expect(token.GT)
	return &ast.ResultType{Ok: okT, Err: errT, Sp: spanFrom(resTok.Span, gtTok.Span)}
}

func (p *Parser) parseRecordType() ast.TypeExpr {
	recTok := p.advance()
	if _, ok := p.expect(token.LBRACE); !ok {
		return &ast.RecordType{Sp: recTok.Span}
	}
	var fields []ast.RecordFieldType
	p.skipNewlines()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		nameTok, ok := p.expectFieldName()
		if !ok {
			break
		}
		optional := false
		if p.curIs(token.QUESTION) {
			p.advance()
			optional = true
		}
		p.expect(token.COLON)
		fields = append(fields, ast.RecordFieldType{Name: nameTok.Literal, Type: p.parseType(), Optional: optional})
		p.skipNewlines()
		if p.curIs(token.COMMA) {
			p.advance()
			p.skipNewlines()
			continue
		}
		break
	}
	rbrace, _ := p.expect(token.RBRACE)
	return &ast.RecordType{Fields: fields, Sp: spanFrom(recTok.Span, rbrace.Span)}
}

func (p *Parser) parseFuncType() ast.TypeExpr {
	lparen := p.advance()
	var params []ast.TypeExpr
	if !p.curIs(token.RPAREN) {
		for {
			params = append(params, p.parseType())
			if p.curIs(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(token.RPAREN)
	p.expect(token.ARROW)
	ret := p.parseType()
	return &ast.FuncType{Params: params, Return: ret, Sp: spanFrom(lparen.Span, p.cur().Span)}
}
