// Package parser implements PEPL's recursive-descent, precedence-climbing
// parser. Declaration blocks inside `space { ... }` are parsed in a fixed
// order (type*, state, capabilities, credentials, derived, invariant*,
// action*, view*, update, handleEvent); a block that comes earlier in that
// order than a block already seen is E600. A second state, capabilities,
// credentials, derived, update or handleEvent block is not reported; it
// replaces the earlier one. Expression precedence is
// a single Pratt table; structural nesting limits are enforced by
// counting depth as the parser descends and stopping with E607 rather
// than overflowing the Go call stack.
package parser

import (
	"fmt"

	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/diag"
	"github.com/pepl-lang/pepl/internal/lexer"
	"github.com/pepl-lang/pepl/internal/token"
)

// Structural limits from spec.md §3. The checker re-verifies these against
// the fully resolved tree, but the parser enforces them eagerly so a
// pathological input can't blow the Go call stack while parsing.
const (
	maxLambdaNesting = 3
	maxRecordNesting  = 4
	maxExprDepth      = 16
	maxForNesting     = 3
	maxParams         = 8
)

// Precedence levels, lowest to highest.
const (
	_ int = iota
	LOWEST
	OR       // or
	AND      // and
	COALESCE // ??
	EQUALITY // == !=
	COMPARE  // < > <= >=
	ADDITIVE
	MULTIPLICATIVE
	UNARY  // not, unary -
	POSTFIX // call, member, try (?)
)

var precedences = map[token.Kind]int{
	token.OR:       OR,
	token.AND:      AND,
	token.COALESCE: COALESCE,
	token.EQ:       EQUALITY,
	token.NEQ:      EQUALITY,
	token.LT:       COMPARE,
	token.GT:       COMPARE,
	token.LTE:      COMPARE,
	token.GTE:      COMPARE,
	token.PLUS:     ADDITIVE,
	token.MINUS:    ADDITIVE,
	token.STAR:     MULTIPLICATIVE,
	token.SLASH:    MULTIPLICATIVE,
	token.PERCENT:  MULTIPLICATIVE,
	token.LPAREN:   POSTFIX,
	token.DOT:      POSTFIX,
	token.QUESTION: POSTFIX,
}

func precedenceOf(k token.Kind) int {
	if p, ok := precedences[k]; ok {
		return p
	}
	return LOWEST
}

// Parser holds all state for one parse of one file.
type Parser struct {
	file    string
	source  string
	cursor  *TokenCursor
	errors  *diag.Bag
	lexDiag *diag.Bag

	exprDepth   int
	forDepth    int
	lambdaDepth int
	recordDepth int
}

// Parse lexes and parses source, returning the Program AST (possibly
// partial, when errors were recovered from) and the diagnostics bag.
// Lexer errors are merged into the same bag ahead of any parser errors so
// Format'd output reads top-to-bottom by source position within each
// phase, matching spec.md §4's reporting order.
func Parse(file, source string) (*ast.Program, *diag.Bag) {
	lexResult := lexer.Lex(file, source)

	p := &Parser{
		file:    file,
		source:  source,
		cursor:  NewCursor(lexResult.Tokens),
		errors:  diag.NewBag(),
		lexDiag: lexResult.Errors,
	}
	p.errors.Merge(lexResult.Errors)

	prog := p.parseProgram()
	return prog, p.errors
}

func (p *Parser) cur() token.Token  { return p.cursor.Current() }
func (p *Parser) peek() token.Token { return p.cursor.Peek(1) }

func (p *Parser) advance() token.Token {
	t := p.cur()
	p.cursor = p.cursor.Advance()
	return t
}

func (p *Parser) curIs(k token.Kind) bool  { return p.cur().Kind == k }
func (p *Parser) peekIs(k token.Kind) bool { return p.peek().Kind == k }

// skipNewlines consumes zero or more NEWLINE tokens; PEPL treats
// statement-separating newlines as insignificant once inside a block
// where the grammar already knows what comes next.
func (p *Parser) skipNewlines() {
	for p.curIs(token.NEWLINE) {
		p.advance()
	}
}

func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if p.curIs(k) {
		return p.advance(), true
	}
	p.errorf(diag.E102UnexpectedToken, p.cur().Span, "expected %s, found %s", k, p.cur().Kind)
	return p.cur(), false
}

// expectFieldName accepts an IDENT or any keyword token as a field name:
// "Field names after `.` and inside record literals/type fields accept
// any keyword contextually" per spec.md §4, so `color`, `state`, and the
// stdlib module names may all appear as plain record/member field names.
func (p *Parser) expectFieldName() (token.Token, bool) {
	tok := p.cur()
	if tok.Kind == token.IDENT {
		p.advance()
		return tok, true
	}
	if kind, ok := token.Keywords[tok.Literal]; ok && kind == tok.Kind {
		p.advance()
		return tok, true
	}
	p.errorf(diag.E102UnexpectedToken, tok.Span, "expected a field name, found %s", tok.Kind)
	return tok, false
}

func (p *Parser) errorf(code string, span token.Span, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.errors.AddError(diag.New(code, msg, span, diag.SeverityError, categoryOf(code), p.source))
}

func categoryOf(code string) diag.Category {
	if len(code) < 2 {
		return diag.CategorySyntax
	}
	switch code[1] {
	case '1':
		return diag.CategorySyntax
	case '2':
		return diag.CategoryType
	case '3':
		return diag.CategoryInvariant
	case '4':
		return diag.CategoryCapability
	case '5':
		return diag.CategoryScope
	case '6':
		return diag.CategoryStructural
	default:
		return diag.CategorySyntax
	}
}

// synchronize skips tokens until a likely recovery point: a NEWLINE, a
// closing brace, or EOF. Used after a statement/expression parse failure
// so one malformed line doesn't cascade into unrelated errors.
func (p *Parser) synchronize() {
	for !p.curIs(token.EOF) && !p.curIs(token.NEWLINE) && !p.curIs(token.RBRACE) {
		p.advance()
	}
}

// full reports whether the error bag has hit spec.md §4.1's MaxErrors
// bound; callers stop adding more detail once true.
func (p *Parser) full() bool { return p.errors.Full() }
