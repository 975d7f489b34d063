// Package lexer turns PEPL source text into a token stream.
//
// The lexer is a single left-to-right scanner over runes (grounded in the
// teacher's UTF-8-aware scanner, internal/lexer/lexer.go in the teacher
// repository: readChar/peekChar advance over runes, not bytes, and
// Position.Column counts runes). PEPL statements are newline-separated —
// there are no semicolons — so NEWLINE is a significant token kind, not
// whitespace.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pepl-lang/pepl/internal/diag"
	"github.com/pepl-lang/pepl/internal/token"
)

// Result is the output of a full lex: the token stream plus any lexical
// diagnostics. Lexing never stops early on an error — unknown bytes are
// skipped and recorded (§4.2's recovery rule), so a Result always carries
// an EOF-terminated token stream.
type Result struct {
	Tokens []token.Token
	Errors *diag.Bag
}

type interpFrame struct {
	braceDepth int
}

// Lexer is a rune scanner over one source file.
type Lexer struct {
	file         string
	input        string
	errors       *diag.Bag
	position     int // byte offset of ch
	readPosition int // byte offset of next rune
	line         int
	column       int // rune count from start of line
	ch           rune

	interpStack []interpFrame
}

// Lex tokenizes source text in one pass.
func Lex(filename, source string) *Result {
	l := &Lexer{
		file:   filename,
		input:  source,
		errors: diag.NewBag(),
		line:   1,
		column: 0,
	}
	l.readChar()

	var tokens []token.Token
	afterInterpEnd := false
	for {
		var tok token.Token
		if afterInterpEnd {
			tok = l.ResumeStringAfterInterpolation()
		} else {
			tok = l.nextToken()
		}
		tokens = append(tokens, tok)
		afterInterpEnd = tok.Kind == token.INTERP_END
		if tok.Kind == token.EOF {
			break
		}
	}
	return &Result{Tokens: tokens, Errors: l.errors}
}

func (l *Lexer) pos() token.Position {
	return token.Position{Line: l.line, Column: l.column, Offset: l.position}
}

func (l *Lexer) span(start token.Position) token.Span {
	return token.Span{File: l.file, Start: start, End: l.pos()}
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.column++
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) advanceLine() {
	l.line++
	l.column = 0
}

func (l *Lexer) skipSpaceNoNewline() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

// nextToken returns the next token, handling comments and whitespace.
func (l *Lexer) nextToken() token.Token {
	for {
		l.skipSpaceNoNewline()

		if l.ch == '\n' {
			start := l.pos()
			l.readChar()
			l.advanceLine()
			return token.Token{Kind: token.NEWLINE, Literal: "\n", Span: l.span(start)}
		}

		if l.ch == '/' && l.peekChar() == '/' {
			l.skipLineComment()
			continue
		}

		if l.ch == '/' && l.peekChar() == '*' {
			l.rejectBlockComment()
			continue
		}

		break
	}

	start := l.pos()

	switch {
	case l.ch == 0:
		return token.Token{Kind: token.EOF, Literal: "", Span: l.span(start)}
	case isDigit(l.ch):
		return l.readNumber(start)
	case l.ch == '"':
		return l.readStringStart(start)
	case isIdentStart(l.ch):
		return l.readIdentOrKeyword(start)
	}

	// If we're inside an interpolation expression and hit the closing
	// brace that matches the opening ${, close the interpolation and
	// resume string-literal scanning instead of emitting RBRACE.
	if len(l.interpStack) > 0 && l.ch == '}' {
		top := &l.interpStack[len(l.interpStack)-1]
		if top.braceDepth == 0 {
			l.interpStack = l.interpStack[:len(l.interpStack)-1]
			l.readChar()
			return token.Token{Kind: token.INTERP_END, Literal: "}", Span: l.span(start)}
		}
		top.braceDepth--
	} else if len(l.interpStack) > 0 && l.ch == '{' {
		l.interpStack[len(l.interpStack)-1].braceDepth++
	}

	return l.readOperatorOrDelim(start)
}

func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// rejectBlockComment emits E603 at the opening `/*` and then skips to the
// matching `*/` (or EOF) for error recovery, matching spec.md §4.2.
func (l *Lexer) rejectBlockComment() {
	start := l.pos()
	l.readChar() // consume '/'
	l.readChar() // consume '*'
	for {
		if l.ch == 0 {
			break
		}
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			break
		}
		if l.ch == '\n' {
			l.readChar()
			l.advanceLine()
			continue
		}
		l.readChar()
	}
	sp := l.span(start)
	l.errors.AddError(diag.New(diag.E603BlockComment,
		"block comments are not supported in PEPL; use // line comments",
		sp, diag.SeverityError, diag.CategoryStructural, l.input))
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// readNumber scans an integer or decimal literal. PEPL numbers have no
// exponent and no hex form (spec.md §4.2).
func (l *Lexer) readNumber(start token.Position) token.Token {
	var sb strings.Builder
	kind := token.INT
	for isDigit(l.ch) {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		kind = token.FLOAT
		sb.WriteRune(l.ch)
		l.readChar()
		for isDigit(l.ch) {
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}
	return token.Token{Kind: kind, Literal: sb.String(), Span: l.span(start)}
}

func (l *Lexer) readIdentOrKeyword(start token.Position) token.Token {
	var sb strings.Builder
	for isIdentPart(l.ch) {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	lit := sb.String()
	if kind, ok := token.Keywords[lit]; ok {
		return token.Token{Kind: kind, Literal: lit, Span: l.span(start)}
	}
	return token.Token{Kind: token.IDENT, Literal: lit, Span: l.span(start)}
}

// readStringStart scans a string literal's opening quote and hands off to
// scanStringBody.
func (l *Lexer) readStringStart(start token.Position) token.Token {
	l.readChar() // consume opening quote
	return l.scanStringBody(start)
}

// scanStringBody scans string text up to the closing quote or the next
// unescaped "${", decoding escapes as it goes. When it stops at "${" it
// returns a STRING token for the text so far; the caller's subsequent
// nextToken call will see the '$' '{' pair and must emit INTERP_START
// (handled in readOperatorOrDelim's caller, below).
func (l *Lexer) scanStringBody(start token.Position) token.Token {
	var sb strings.Builder
	for {
		switch l.ch {
		case 0, '\n':
			// Unterminated string: stop here and let the parser report
			// the resulting unexpected-token error.
			return token.Token{Kind: token.STRING, Literal: sb.String(), Span: l.span(start)}
		case '"':
			l.readChar()
			return token.Token{Kind: token.STRING, Literal: sb.String(), Span: l.span(start)}
		case '\\':
			l.readChar()
			switch l.ch {
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case '$':
				sb.WriteRune('$')
			default:
				sb.WriteRune('\\')
				sb.WriteRune(l.ch)
			}
			l.readChar()
		case '$':
			if l.peekChar() == '{' {
				if len(l.interpStack) > 0 {
					// Nested interpolation is forbidden (spec.md §4.2).
					l.errors.AddError(diag.New(diag.E100UnknownChar,
						"nested string interpolation is not allowed",
						l.span(l.pos()), diag.SeverityError, diag.CategorySyntax, l.input))
				}
				return token.Token{Kind: token.STRING, Literal: sb.String(), Span: l.span(start)}
			}
			sb.WriteRune('$')
			l.readChar()
		default:
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}
}

func (l *Lexer) readOperatorOrDelim(start token.Position) token.Token {
	ch := l.ch

	// "${" opens an interpolation: push a brace-depth frame and emit
	// INTERP_START. The caller resumes lexing in ordinary expression
	// mode; the matching "}" at depth 0 is turned into INTERP_END by
	// nextToken, and lexing of the surrounding string resumes via a
	// fresh call into scanStringBody from Lex's loop.
	if ch == '$' && l.peekChar() == '{' {
		l.readChar()
		l.readChar()
		l.interpStack = append(l.interpStack, interpFrame{})
		return token.Token{Kind: token.INTERP_START, Literal: "${", Span: l.span(start)}
	}

	two := func(next rune, kind token.Kind, lit string) (token.Token, bool) {
		if l.peekChar() == next {
			l.readChar()
			l.readChar()
			return token.Token{Kind: kind, Literal: lit, Span: l.span(start)}, true
		}
		return token.Token{}, false
	}

	switch ch {
	case '=':
		if t, ok := two('=', token.EQ, "=="); ok {
			return t
		}
	case '!':
		if t, ok := two('=', token.NEQ, "!="); ok {
			return t
		}
	case '<':
		if t, ok := two('=', token.LTE, "<="); ok {
			return t
		}
	case '>':
		if t, ok := two('=', token.GTE, ">="); ok {
			return t
		}
	case '?':
		if t, ok := two('?', token.COALESCE, "??"); ok {
			return t
		}
	case '-':
		if t, ok := two('>', token.ARROW, "->"); ok {
			return t
		}
	case '.':
		if l.peekChar() == '.' {
			savedRead, savedPos, savedCh := l.readPosition, l.position, l.ch
			l.readChar()
			if l.peekChar() == '.' {
				l.readChar()
				l.readChar()
				return token.Token{Kind: token.ELLIPSIS, Literal: "...", Span: l.span(start)}
			}
			l.readPosition, l.position, l.ch = savedRead, savedPos, savedCh
		}
	}

	single := map[rune]token.Kind{
		'+': token.PLUS, '-': token.MINUS, '*': token.STAR, '/': token.SLASH,
		'%': token.PERCENT, '<': token.LT, '>': token.GT, '?': token.QUESTION,
		'=': token.ASSIGN, '|': token.PIPE,
		'(': token.LPAREN, ')': token.RPAREN,
		'{': token.LBRACE, '}': token.RBRACE,
		'[': token.LBRACKET, ']': token.RBRACKET,
		',': token.COMMA, ':': token.COLON, '.': token.DOT,
	}
	if kind, ok := single[ch]; ok {
		l.readChar()
		return token.Token{Kind: kind, Literal: string(ch), Span: l.span(start)}
	}

	l.errors.AddError(diag.New(diag.E100UnknownChar,
		"unexpected character '"+string(ch)+"'",
		l.span(start), diag.SeverityError, diag.CategorySyntax, l.input))
	l.readChar()
	return token.Token{Kind: token.ILLEGAL, Literal: string(ch), Span: l.span(start)}
}

// ResumeStringAfterInterpolation is called by Lex immediately after the
// lexer has produced INTERP_END, to continue scanning the remainder of the
// same string literal. PEPL's grammar requires this hand-off because
// string text and expression text are lexed with different rules.
func (l *Lexer) ResumeStringAfterInterpolation() token.Token {
	start := l.pos()
	return l.scanStringBody(start)
}

// NextRaw exposes nextToken to a caller that drives the lexer token by
// token; such a caller must call ResumeStringAfterInterpolation after each
// INTERP_END, as Lex does. The parser does not use it: Parse lexes the
// whole input up front with Lex and works on the resulting slice.
func (l *Lexer) NextRaw() token.Token {
	return l.nextToken()
}

// New creates a streaming Lexer for token-by-token consumption via NextRaw.
func New(filename, source string) *Lexer {
	l := &Lexer{file: filename, input: source, errors: diag.NewBag(), line: 1}
	l.readChar()
	return l
}

// Errors returns the diagnostics collected so far.
func (l *Lexer) Errors() *diag.Bag { return l.errors }
