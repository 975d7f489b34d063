package ast

import (
	"strconv"
	"strings"

	"github.com/pepl-lang/pepl/internal/token"
)

// PropInit is one `name: expr` prop binding on a component expression.
type PropInit struct {
	Name  string
	Value Expression
}

// ComponentExpr builds one node of a Surface tree, e.g.
// `Column { spacing: 8, children: [...] }` or `Text { content: "${n}" }`.
// It is both an Expression (the value a view produces) and a UIElement
// (it can nest inside another component's Children).
type ComponentExpr struct {
	Name     string
	Props    []PropInit
	Children []UIElement
	Sp       token.Span
}

func (c *ComponentExpr) exprNode()        {}
func (c *ComponentExpr) uiNode()          {}
func (c *ComponentExpr) Span() token.Span { return c.Sp }
func (c *ComponentExpr) String() string {
	parts := make([]string, len(c.Props))
	for i, p := range c.Props {
		parts[i] = p.Name + ": " + p.Value.String()
	}
	s := c.Name + " { " + strings.Join(parts, ", ")
	if len(c.Children) > 0 {
		s += " }[" + strconv.Itoa(len(c.Children)) + " children]"
		return s
	}
	return s + " }"
}

// UIIf is an `if`/`else if`/`else` construct used in UI-element position:
// each branch contributes zero or more child elements rather than a
// statement effect.
type UIIf struct {
	Cond    Expression
	Then    []UIElement
	ElseIfs []UIElseIf
	Else    []UIElement // nil when no else clause
	Sp      token.Span
}

// UIElseIf is one `else if cond { ... }` clause of a UIIf.
type UIElseIf struct {
	Cond Expression
	Body []UIElement
	Sp   token.Span
}

func (u *UIIf) uiNode()          {}
func (u *UIIf) Span() token.Span { return u.Sp }
func (u *UIIf) String() string   { return "if " + u.Cond.String() + " { ... }" }

// UIFor repeats its body once per element of Iterable, flattening the
// results into the parent component's children (spec.md §3 UI grammar).
type UIFor struct {
	Item     string
	Index    string // "" when no index binding
	Iterable Expression
	Body     []UIElement
	Sp       token.Span
}

func (u *UIFor) uiNode()          {}
func (u *UIFor) Span() token.Span { return u.Sp }
func (u *UIFor) String() string   { return "for " + u.Item + " in " + u.Iterable.String() + " { ... }" }
