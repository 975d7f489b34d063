// Package ast defines PEPL's spanned abstract syntax tree: a strict tree
// (declarations reference each other only by name, resolved later through
// scope lookup — see spec.md §9) whose every node carries a token.Span for
// diagnostics and for the WASM code generator's source map.
package ast

import (
	"strings"

	"github.com/pepl-lang/pepl/internal/token"
)

// Node is the base interface every AST node implements.
type Node interface {
	Span() token.Span
	String() string
}

// Expression is any node that produces a value.
type Expression interface {
	Node
	exprNode()
}

// Statement is any node that performs an action without itself being a
// value (though it may contain expressions).
type Statement interface {
	Node
	stmtNode()
}

// TypeExpr is a type annotation as written in source (see Type in
// spec.md §3 for the resolved/checked counterpart).
type TypeExpr interface {
	Node
	typeNode()
}

// Pattern is a match-arm pattern.
type Pattern interface {
	Node
	patternNode()
}

// UIElement is anything that can appear inside a UI block: a component, or
// an `if`/`for` that contributes zero or more child components.
type UIElement interface {
	Node
	uiNode()
}

// Program is the root of a parsed PEPL file: exactly one SpaceDecl plus
// zero or more top-level `test "..." { ... }` cases (spec.md §3, §8).
type Program struct {
	Space *SpaceDecl
	Tests []*TestCase
}

func (p *Program) Span() token.Span {
	if p.Space != nil {
		return p.Space.Span()
	}
	return token.Span{}
}

func (p *Program) String() string {
	var sb strings.Builder
	if p.Space != nil {
		sb.WriteString(p.Space.String())
	}
	for _, tc := range p.Tests {
		sb.WriteString("\n")
		sb.WriteString(tc.String())
	}
	return sb.String()
}

// SpaceDecl is the single top-level space: state + derived + invariants +
// actions + views + optional game-loop hooks.
type SpaceDecl struct {
	Types        []*TypeDecl
	State        *StateBlock
	Capabilities *CapabilitiesBlock
	Credentials  *CredentialsBlock
	Derived      *DerivedBlock
	Invariants   []*InvariantDecl
	Actions      []*ActionDecl
	Views        []*ViewDecl
	Update       *UpdateDecl
	HandleEvent  *HandleEventDecl
	Sp           token.Span
}

func (s *SpaceDecl) Span() token.Span { return s.Sp }
func (s *SpaceDecl) String() string {
	var sb strings.Builder
	sb.WriteString("space {\n")
	for _, t := range s.Types {
		sb.WriteString(t.String())
		sb.WriteString("\n")
	}
	if s.State != nil {
		sb.WriteString(s.State.String())
		sb.WriteString("\n")
	}
	for _, a := range s.Actions {
		sb.WriteString(a.String())
		sb.WriteString("\n")
	}
	for _, v := range s.Views {
		sb.WriteString(v.String())
		sb.WriteString("\n")
	}
	sb.WriteString("}")
	return sb.String()
}

// Identifier is a bare name reference.
type Identifier struct {
	Name string
	Sp   token.Span
}

func (i *Identifier) exprNode()       {}
func (i *Identifier) Span() token.Span { return i.Sp }
func (i *Identifier) String() string   { return i.Name }

// Param is a single action/view/lambda parameter.
type Param struct {
	Name string
	Type TypeExpr
	Sp   token.Span
}

func (p *Param) Span() token.Span { return p.Sp }
func (p *Param) String() string {
	if p.Type != nil {
		return p.Name + ": " + p.Type.String()
	}
	return p.Name
}

func joinParams(params []*Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}
