// Package token defines the lexical token kinds and source positions shared
// by the PEPL lexer, parser, and diagnostics.
package token

import "fmt"

// Kind identifies the category of a token.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF
	NEWLINE

	// Literals
	IDENT
	INT
	FLOAT
	STRING
	INTERP_START
	INTERP_END
	TRUE
	FALSE
	NIL

	// Keywords (39)
	TYPE
	STATE
	CAPABILITIES
	REQUIRED
	OPTIONAL
	CREDENTIALS
	DERIVED
	INVARIANT
	ACTION
	VIEW
	UPDATE
	HANDLE_EVENT
	TEST
	WITH_RESPONSES
	LET
	SET
	IF
	ELSE
	FOR
	IN
	MATCH
	RETURN
	ASSERT
	AND
	OR
	NOT
	NUMBER_T
	STRING_T
	BOOL_T
	COLOR_T
	SURFACE_T
	INPUT_EVENT_T
	RESULT_T
	LIST_T
	RECORD_T
	OK
	ERR

	// Reserved stdlib module names that don't already name a primitive
	// type (math, core, http, storage, location, notifications, time).
	// The list/record/string/color modules instead reuse LIST_T/RECORD_T/
	// STRING_T/COLOR_T: the parser treats a primitive-type keyword
	// followed by `.` as a qualified stdlib call on that module.
	MODULE_MATH
	MODULE_CORE
	MODULE_HTTP
	MODULE_STORAGE
	MODULE_LOCATION
	MODULE_NOTIFICATIONS
	MODULE_TIME

	// Operators (17)
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	EQ
	NEQ
	LT
	GT
	LTE
	GTE
	QUESTION
	COALESCE
	ELLIPSIS
	ASSIGN
	ARROW
	PIPE

	// Delimiters
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	COMMA
	COLON
	DOT
	UNDERSCORE
)

var kindNames = map[Kind]string{
	ILLEGAL:               "ILLEGAL",
	EOF:                   "EOF",
	NEWLINE:               "NEWLINE",
	IDENT:                 "IDENT",
	INT:                   "INT",
	FLOAT:                 "FLOAT",
	STRING:                "STRING",
	INTERP_START:          "InterpolationStart",
	INTERP_END:            "InterpolationEnd",
	TRUE:                  "true",
	FALSE:                 "false",
	NIL:                   "nil",
	TYPE:                  "type",
	STATE:                 "state",
	CAPABILITIES:          "capabilities",
	REQUIRED:              "required",
	OPTIONAL:              "optional",
	CREDENTIALS:           "credentials",
	DERIVED:               "derived",
	INVARIANT:             "invariant",
	ACTION:                "action",
	VIEW:                  "view",
	UPDATE:                "update",
	HANDLE_EVENT:          "handleEvent",
	TEST:                  "test",
	WITH_RESPONSES:        "with_responses",
	LET:                   "let",
	SET:                   "set",
	IF:                    "if",
	ELSE:                  "else",
	FOR:                   "for",
	IN:                    "in",
	MATCH:                 "match",
	RETURN:                "return",
	ASSERT:                "assert",
	AND:                   "and",
	OR:                    "or",
	NOT:                   "not",
	NUMBER_T:              "number",
	STRING_T:              "string",
	BOOL_T:                "bool",
	COLOR_T:               "color",
	SURFACE_T:             "Surface",
	INPUT_EVENT_T:         "InputEvent",
	RESULT_T:              "Result",
	LIST_T:                "list",
	RECORD_T:              "record",
	OK:                    "Ok",
	ERR:                   "Err",
	MODULE_MATH:           "math",
	MODULE_CORE:           "core",
	MODULE_HTTP:           "http",
	MODULE_STORAGE:        "storage",
	MODULE_LOCATION:       "location",
	MODULE_NOTIFICATIONS:  "notifications",
	MODULE_TIME:           "time",
	PLUS:                  "+",
	MINUS:                 "-",
	STAR:                  "*",
	SLASH:                 "/",
	PERCENT:               "%",
	EQ:                    "==",
	NEQ:                   "!=",
	LT:                    "<",
	GT:                    ">",
	LTE:                   "<=",
	GTE:                   ">=",
	QUESTION:              "?",
	COALESCE:              "??",
	ELLIPSIS:              "...",
	ASSIGN:                "=",
	ARROW:                 "->",
	PIPE:                  "|",
	LPAREN:                "(",
	RPAREN:                ")",
	LBRACE:                "{",
	RBRACE:                "}",
	LBRACKET:              "[",
	RBRACKET:              "]",
	COMMA:                 ",",
	COLON:                 ":",
	DOT:                   ".",
	UNDERSCORE:            "_",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Keywords maps every reserved word (the 39 PEPL keywords plus the 11
// reserved stdlib module names) to its Kind, as one package-level map so
// the lexer can do a single map lookup per identifier.
var Keywords = map[string]Kind{
	"type":            TYPE,
	"state":           STATE,
	"capabilities":    CAPABILITIES,
	"required":        REQUIRED,
	"optional":        OPTIONAL,
	"credentials":     CREDENTIALS,
	"derived":         DERIVED,
	"invariant":       INVARIANT,
	"action":          ACTION,
	"view":            VIEW,
	"update":          UPDATE,
	"handleEvent":     HANDLE_EVENT,
	"test":            TEST,
	"with_responses":  WITH_RESPONSES,
	"let":             LET,
	"set":             SET,
	"if":              IF,
	"else":            ELSE,
	"for":             FOR,
	"in":              IN,
	"match":           MATCH,
	"return":          RETURN,
	"assert":          ASSERT,
	"and":             AND,
	"or":              OR,
	"not":             NOT,
	"true":            TRUE,
	"false":           FALSE,
	"nil":             NIL,
	"number":          NUMBER_T,
	"string":          STRING_T, // also the string module: parser treats STRING_T followed by `.` as a qualified call
	"bool":            BOOL_T,
	"Surface":         SURFACE_T,
	"InputEvent":      INPUT_EVENT_T,
	"Result":          RESULT_T,
	"list":            LIST_T, // also the list module, disambiguated the same way as string
	"record":          RECORD_T, // also the record module
	"Ok":              OK,
	"Err":             ERR,
	"_":               UNDERSCORE,
	"math":            MODULE_MATH,
	"core":            MODULE_CORE,
	"http":            MODULE_HTTP,
	"storage":         MODULE_STORAGE,
	"location":        MODULE_LOCATION,
	"notifications":   MODULE_NOTIFICATIONS,
	"time":            MODULE_TIME,
	"color":           COLOR_T, // also the color module
}

// Position is a single point in a source file, both as a byte offset and
// as 1-indexed line/column.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a byte range plus the Position of its start and end. Every AST
// node and every Token carries one.
type Span struct {
	File  string
	Start Position
	End   Position
}

func (s Span) String() string {
	return fmt.Sprintf("%s:%s-%s", s.File, s.Start, s.End)
}

// Token is a single lexical token: its kind, literal text, and span.
type Token struct {
	Kind    Kind
	Literal string
	Span    Span
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Kind, t.Literal, t.Span)
}
