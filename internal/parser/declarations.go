package parser

import (
	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/diag"
	"github.com/pepl-lang/pepl/internal/token"
)

// blockRank orders the space body's required sequence: type*, state,
// capabilities, credentials, derived, invariant*, action*, view*, update,
// handleEvent (spec.md §3). Groups marked * may repeat without advancing
// past their own rank; a block whose rank is lower than the highest rank
// seen so far is E600.
func blockRank(k token.Kind) (rank int, ok bool) {
	switch k {
	case token.TYPE:
		return 0, true
	case token.STATE:
		return 1, true
	case token.CAPABILITIES:
		return 2, true
	case token.CREDENTIALS:
		return 3, true
	case token.DERIVED:
		return 4, true
	case token.INVARIANT:
		return 5, true
	case token.ACTION:
		return 6, true
	case token.VIEW:
		return 7, true
	case token.UPDATE:
		return 8, true
	case token.HANDLE_EVENT:
		return 9, true
	default:
		return 0, false
	}
}

func (p *Parser) parseProgram() *ast.Program {
	space := &ast.SpaceDecl{}
	prog := &ast.Program{Space: space}
	lastRank := -1
	firstSpan := p.cur().Span

	p.skipNewlines()
	for !p.curIs(token.EOF) {
		if p.full() {
			break
		}
		tok := p.cur()

		if tok.Kind == token.TEST {
			prog.Tests = append(prog.Tests, p.parseTestCase())
			p.skipNewlines()
			continue
		}

		rank, known := blockRank(tok.Kind)
		if !known {
			p.errorf(diag.E102UnexpectedToken, tok.Span, "expected a top-level declaration, found %s", tok.Kind)
			p.advance()
			p.skipNewlines()
			continue
		}
		if rank < lastRank {
			p.errorf(diag.E600BlockOrder, tok.Span, "%s block is out of order", tok.Kind)
		} else {
			lastRank = rank
		}

		switch tok.Kind {
		case token.TYPE:
			space.Types = append(space.Types, p.parseTypeDecl())
		case token.STATE:
			space.State = p.parseStateBlock()
		case token.CAPABILITIES:
			space.Capabilities = p.parseCapabilitiesBlock()
		case token.CREDENTIALS:
			space.Credentials = p.parseCredentialsBlock()
		case token.DERIVED:
			space.Derived = p.parseDerivedBlock()
		case token.INVARIANT:
			space.Invariants = append(space.Invariants, p.parseInvariantDecl())
		case token.ACTION:
			space.Actions = append(space.Actions, p.parseActionDecl())
		case token.VIEW:
			space.Views = append(space.Views, p.parseViewDecl())
		case token.UPDATE:
			space.Update = p.parseUpdateDecl()
		case token.HANDLE_EVENT:
			space.HandleEvent = p.parseHandleEventDecl()
		}
		p.skipNewlines()
	}

	space.Sp = spanFrom(firstSpan, p.cur().Span)
	return prog
}

func (p *Parser) parseTypeDecl() *ast.TypeDecl {
	typeTok := p.advance()
	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		return &ast.TypeDecl{Sp: typeTok.Span}
	}
	decl := &ast.TypeDecl{Name: nameTok.Literal}

	if p.curIs(token.LBRACE) {
		p.advance()
		p.skipNewlines()
		for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
			vTok, ok := p.expect(token.IDENT)
			if !ok {
				break
			}
			variant := &ast.SumVariant{Name: vTok.Literal, Sp: vTok.Span}
			if p.curIs(token.LPAREN) {
				p.advance()
				variant.Payload = p.parseType()
				rparen, _ := p.expect(token.RPAREN)
				variant.Sp = spanFrom(vTok.Span, rparen.Span)
			}
			decl.Variants = append(decl.Variants, variant)
			p.skipNewlines()
			if p.curIs(token.COMMA) {
				p.advance()
				p.skipNewlines()
				continue
			}
			break
		}
		rbrace, _ := p.expect(token.RBRACE)
		decl.Sp = spanFrom(typeTok.Span, rbrace.Span)
		return decl
	}

	if _, ok := p.expect(token.ASSIGN); !ok {
		decl.Sp = spanFrom(typeTok.Span, nameTok.Span)
		return decl
	}
	decl.Alias = p.parseType()
	decl.Sp = spanFrom(typeTok.Span, p.cur().Span)
	return decl
}

func (p *Parser) parseStateBlock() *ast.StateBlock {
	stateTok := p.advance()
	lbrace, _ := p.expect(token.LBRACE)
	block := &ast.StateBlock{}
	p.skipNewlines()
	if p.curIs(token.RBRACE) {
		p.errorf(diag.E606EmptyState, lbrace.Span, "state block must declare at least one field")
	}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		block.Fields = append(block.Fields, p.parseStateField())
		p.skipNewlines()
	}
	rbrace, _ := p.expect(token.RBRACE)
	block.Sp = spanFrom(stateTok.Span, rbrace.Span)
	return block
}

func (p *Parser) parseStateField() *ast.StateField {
	nameTok, ok := p.expectFieldName()
	if !ok {
		p.synchronize()
		return &ast.StateField{Sp: nameTok.Span}
	}
	p.expect(token.COLON)
	typ := p.parseType()
	p.expect(token.ASSIGN)
	init := p.parseExpression(LOWEST)
	sp := nameTok.Span
	if init != nil {
		sp = spanFrom(nameTok.Span, init.Span())
	}
	return &ast.StateField{Name: nameTok.Literal, Type: typ, Init: init, Sp: sp}
}

func (p *Parser) parseCapabilitiesBlock() *ast.CapabilitiesBlock {
	capTok := p.advance()
	p.expect(token.LBRACE)
	block := &ast.CapabilitiesBlock{}
	p.skipNewlines()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		switch p.cur().Kind {
		case token.REQUIRED:
			p.advance()
			p.expect(token.COLON)
			block.Required = p.parseCapabilityNameList()
		case token.OPTIONAL:
			p.advance()
			p.expect(token.COLON)
			block.Optional = p.parseCapabilityNameList()
		default:
			p.errorf(diag.E102UnexpectedToken, p.cur().Span, "expected required or optional, found %s", p.cur().Kind)
			p.advance()
		}
		p.skipNewlines()
	}
	rbrace, _ := p.expect(token.RBRACE)
	block.Sp = spanFrom(capTok.Span, rbrace.Span)
	return block
}

// capabilityName accepts either a bare IDENT or one of the reserved
// stdlib module-name tokens (http, storage, location, notifications,
// time) that name the capability, since those are exactly the modules
// whose functions require host capability coverage.
func (p *Parser) capabilityName() (string, bool) {
	tok := p.cur()
	switch tok.Kind {
	case token.IDENT, token.MODULE_HTTP, token.MODULE_STORAGE, token.MODULE_LOCATION,
		token.MODULE_NOTIFICATIONS, token.MODULE_TIME:
		p.advance()
		return tok.Literal, true
	default:
		p.errorf(diag.E102UnexpectedToken, tok.Span, "expected a capability name, found %s", tok.Kind)
		return "", false
	}
}

func (p *Parser) parseCapabilityNameList() []string {
	p.expect(token.LBRACKET)
	var names []string
	for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
		if name, ok := p.capabilityName(); ok {
			names = append(names, name)
		}
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBRACKET)
	return names
}

func (p *Parser) parseCredentialsBlock() *ast.CredentialsBlock {
	credTok := p.advance()
	p.expect(token.LBRACE)
	block := &ast.CredentialsBlock{}
	p.skipNewlines()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		nameTok, ok := p.expect(token.IDENT)
		if ok {
			block.Names = append(block.Names, nameTok.Literal)
		}
		p.skipNewlines()
		if p.curIs(token.COMMA) {
			p.advance()
			p.skipNewlines()
		}
	}
	rbrace, _ := p.expect(token.RBRACE)
	block.Sp = spanFrom(credTok.Span, rbrace.Span)
	return block
}

func (p *Parser) parseDerivedBlock() *ast.DerivedBlock {
	derivedTok := p.advance()
	p.expect(token.LBRACE)
	block := &ast.DerivedBlock{}
	p.skipNewlines()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		nameTok, ok := p.expectFieldName()
		if !ok {
			p.synchronize()
			p.skipNewlines()
			continue
		}
		p.expect(token.COLON)
		typ := p.parseType()
		p.expect(token.ASSIGN)
		expr := p.parseExpression(LOWEST)
		sp := nameTok.Span
		if expr != nil {
			sp = spanFrom(nameTok.Span, expr.Span())
		}
		block.Fields = append(block.Fields, &ast.DerivedField{Name: nameTok.Literal, Type: typ, Expr: expr, Sp: sp})
		p.skipNewlines()
	}
	rbrace, _ := p.expect(token.RBRACE)
	block.Sp = spanFrom(derivedTok.Span, rbrace.Span)
	return block
}

func (p *Parser) parseInvariantDecl() *ast.InvariantDecl {
	invTok := p.advance()
	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		return &ast.InvariantDecl{Sp: invTok.Span}
	}
	p.expect(token.LBRACE)
	p.skipNewlines()
	expr := p.parseExpression(LOWEST)
	p.skipNewlines()
	rbrace, _ := p.expect(token.RBRACE)
	return &ast.InvariantDecl{Name: nameTok.Literal, Expr: expr, Sp: spanFrom(invTok.Span, rbrace.Span)}
}

func (p *Parser) parseActionDecl() *ast.ActionDecl {
	actionTok := p.advance()
	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		return &ast.ActionDecl{Sp: actionTok.Span}
	}
	p.expect(token.LPAREN)
	params := p.parseParamList(token.RPAREN)
	p.expect(token.RPAREN)
	body, lastSpan := p.parseBlock()
	return &ast.ActionDecl{Name: nameTok.Literal, Params: params, Body: body, Sp: spanFrom(actionTok.Span, lastSpan)}
}

func (p *Parser) parseViewDecl() *ast.ViewDecl {
	viewTok := p.advance()
	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		return &ast.ViewDecl{Sp: viewTok.Span}
	}
	p.expect(token.LPAREN)
	params := p.parseParamList(token.RPAREN)
	p.expect(token.RPAREN)
	// `-> Surface` return annotation is optional sugar the checker
	// verifies independently; skip it here if written.
	if p.curIs(token.ARROW) {
		p.advance()
		p.parseType()
	}
	body, lastSpan := p.parseBlock()
	return &ast.ViewDecl{Name: nameTok.Literal, Params: params, Body: body, Sp: spanFrom(viewTok.Span, lastSpan)}
}

func (p *Parser) parseUpdateDecl() *ast.UpdateDecl {
	updateTok := p.advance()
	p.expect(token.LPAREN)
	dtTok, _ := p.expect(token.IDENT)
	if p.curIs(token.COLON) {
		p.advance()
		p.parseType()
	}
	p.expect(token.RPAREN)
	body, lastSpan := p.parseBlock()
	return &ast.UpdateDecl{DtParam: dtTok.Literal, Body: body, Sp: spanFrom(updateTok.Span, lastSpan)}
}

func (p *Parser) parseHandleEventDecl() *ast.HandleEventDecl {
	handleTok := p.advance()
	p.expect(token.LPAREN)
	evTok, _ := p.expect(token.IDENT)
	if p.curIs(token.COLON) {
		p.advance()
		p.parseType()
	}
	p.expect(token.RPAREN)
	body, lastSpan := p.parseBlock()
	return &ast.HandleEventDecl{EventParam: evTok.Literal, Body: body, Sp: spanFrom(handleTok.Span, lastSpan)}
}

func (p *Parser) parseTestCase() *ast.TestCase {
	testTok := p.advance()
	descTok, _ := p.expect(token.STRING)
	tc := &ast.TestCase{Description: descTok.Literal}

	p.expect(token.LBRACE)
	p.skipNewlines()

	if p.curIs(token.WITH_RESPONSES) {
		tc.WithResponses = p.parseWithResponses()
		p.skipNewlines()
	}

	var stmts []ast.Statement
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
	tc.Body = stmts
	rbrace, _ := p.expect(token.RBRACE)
	tc.Sp = spanFrom(testTok.Span, rbrace.Span)
	return tc
}

// parseWithResponses parses `with_responses { math.sqrt -> Ok(2), ... }`.
// Mocks are matched at evaluation time by module.function name and the
// zero-based position among calls to that same function within the test
// (spec.md §8); CallIndex is assigned here by counting prior mocks for
// the same (module, function) pair in declaration order.
func (p *Parser) parseWithResponses() []*ast.ResponseMock {
	p.advance() // consume with_responses
	p.expect(token.LBRACE)
	p.skipNewlines()

	counts := map[string]int{}
	var mocks []*ast.ResponseMock
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		modTok := p.cur()
		if !isModuleKind(modTok.Kind) {
			p.errorf(diag.E102UnexpectedToken, modTok.Span, "expected a module name, found %s", modTok.Kind)
			p.synchronize()
			p.skipNewlines()
			continue
		}
		p.advance()
		p.expect(token.DOT)
		fnTok, _ := p.expect(token.IDENT)
		p.expect(token.ARROW)
		resp := p.parseExpression(LOWEST)

		key := modTok.Kind.String() + "." + fnTok.Literal
		idx := counts[key]
		counts[key] = idx + 1

		sp := modTok.Span
		if resp != nil {
			sp = spanFrom(modTok.Span, resp.Span())
		}
		mocks = append(mocks, &ast.ResponseMock{
			Module:    modTok.Kind.String(),
			Function:  fnTok.Literal,
			CallIndex: idx,
			Response:  resp,
			Sp:        sp,
		})
		p.skipNewlines()
		if p.curIs(token.COMMA) {
			p.advance()
			p.skipNewlines()
		}
	}
	p.expect(token.RBRACE)
	return mocks
}

func isModuleKind(k token.Kind) bool {
	switch k {
	case token.MODULE_MATH, token.MODULE_CORE,
		token.MODULE_HTTP, token.MODULE_STORAGE, token.MODULE_LOCATION,
		token.MODULE_NOTIFICATIONS, token.MODULE_TIME,
		token.STRING_T, token.LIST_T, token.RECORD_T, token.COLOR_T:
		return true
	default:
		return false
	}
}
