package ast

import "github.com/pepl-lang/pepl/internal/token"

// LetStmt binds a new local name to a value. Re-declaring a name already
// visible in scope is a shadowing error (E500) except for `let _ = ...`,
// which discards the value.
type LetStmt struct {
	Name    string
	Discard bool
	Type    TypeExpr // nil when the annotation is omitted
	Value   Expression
	Sp      token.Span
}

func (s *LetStmt) stmtNode()        {}
func (s *LetStmt) Span() token.Span { return s.Sp }
func (s *LetStmt) String() string {
	name := s.Name
	if s.Discard {
		name = "_"
	}
	return "let " + name + " = " + s.Value.String()
}

// SetStmt assigns to a state field or a path into a nested record field,
// e.g. `set count = count + 1` or `set player.position.x = 0`. Only legal
// inside action/update/handleEvent bodies (spec.md §3, E501).
type SetStmt struct {
	Path  []string
	Value Expression
	Sp    token.Span
}

func (s *SetStmt) stmtNode()        {}
func (s *SetStmt) Span() token.Span { return s.Sp }
func (s *SetStmt) String() string {
	path := s.Path[0]
	for _, p := range s.Path[1:] {
		path += "." + p
	}
	return "set " + path + " = " + s.Value.String()
}

// ElseIf is one `else if cond { ... }` clause chained off an IfStmt.
type ElseIf struct {
	Cond Expression
	Body []Statement
	Sp   token.Span
}

// IfStmt is `if cond { ... } (else if cond { ... })* (else { ... })?`.
type IfStmt struct {
	Cond    Expression
	Then    []Statement
	ElseIfs []ElseIf
	Else    []Statement // nil when no else clause
	Sp      token.Span
}

func (s *IfStmt) stmtNode()        {}
func (s *IfStmt) Span() token.Span { return s.Sp }
func (s *IfStmt) String() string   { return "if " + s.Cond.String() + " { ... }" }

// ForStmt is `for item in iterable { ... }`, bounded by the structural
// nesting limit from spec.md §3 (for-nesting ≤ 3). PEPL has no recursion
// and no unbounded while-loop, so `for` over a finite list/range is the
// language's only iteration construct.
type ForStmt struct {
	Item     string
	Index    string // "" when no index binding
	Iterable Expression
	Body     []Statement
	Sp       token.Span
}

func (s *ForStmt) stmtNode()        {}
func (s *ForStmt) Span() token.Span { return s.Sp }
func (s *ForStmt) String() string   { return "for " + s.Item + " in " + s.Iterable.String() + " { ... }" }

// ReturnStmt exits the enclosing action/view/lambda with an optional
// value.
type ReturnStmt struct {
	Value Expression // nil for a bare `return`
	Sp    token.Span
}

func (s *ReturnStmt) stmtNode()        {}
func (s *ReturnStmt) Span() token.Span { return s.Sp }
func (s *ReturnStmt) String() string {
	if s.Value == nil {
		return "return"
	}
	return "return " + s.Value.String()
}

// AssertStmt checks a boolean condition inside a test case body, failing
// the test with an optional message when false (spec.md §8).
type AssertStmt struct {
	Cond    Expression
	Message Expression // nil when omitted
	Sp      token.Span
}

func (s *AssertStmt) stmtNode()        {}
func (s *AssertStmt) Span() token.Span { return s.Sp }
func (s *AssertStmt) String() string   { return "assert " + s.Cond.String() }

// ExprStmt is an expression evaluated for its side effect (a capability
// call) or, as the final statement of a block, for its value.
type ExprStmt struct {
	Expr Expression
	Sp   token.Span
}

func (s *ExprStmt) stmtNode()        {}
func (s *ExprStmt) Span() token.Span { return s.Sp }
func (s *ExprStmt) String() string   { return s.Expr.String() }
