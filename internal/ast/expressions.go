package ast

import (
	"strconv"
	"strings"

	"github.com/pepl-lang/pepl/internal/token"
)

// NumberLit is a numeric literal; PEPL has a single number type (spec.md §3).
type NumberLit struct {
	Value float64
	Sp    token.Span
}

func (n *NumberLit) exprNode()        {}
func (n *NumberLit) Span() token.Span { return n.Sp }
func (n *NumberLit) String() string   { return strconv.FormatFloat(n.Value, 'g', -1, 64) }

// BoolLit is `true` or `false`.
type BoolLit struct {
	Value bool
	Sp    token.Span
}

func (b *BoolLit) exprNode()        {}
func (b *BoolLit) Span() token.Span { return b.Sp }
func (b *BoolLit) String() string   { return strconv.FormatBool(b.Value) }

// NilLit is the `nil` literal.
type NilLit struct {
	Sp token.Span
}

func (n *NilLit) exprNode()        {}
func (n *NilLit) Span() token.Span { return n.Sp }
func (n *NilLit) String() string   { return "nil" }

// StringPart is one piece of an interpolated string: either a literal
// fragment or an embedded expression between `${` and `}`.
type StringPart struct {
	Literal string     // valid when Expr is nil
	Expr    Expression // valid when non-nil
}

// InterpolatedString is a string literal, possibly containing `${expr}`
// splices. A plain string with no splices has a single Literal part.
type InterpolatedString struct {
	Parts []StringPart
	Sp    token.Span
}

func (s *InterpolatedString) exprNode()        {}
func (s *InterpolatedString) Span() token.Span { return s.Sp }
func (s *InterpolatedString) String() string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, p := range s.Parts {
		if p.Expr != nil {
			sb.WriteString("${")
			sb.WriteString(p.Expr.String())
			sb.WriteString("}")
		} else {
			sb.WriteString(p.Literal)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// ListLit is `[elem, elem, ...]`.
type ListLit struct {
	Elements []Expression
	Sp       token.Span
}

func (l *ListLit) exprNode()        {}
func (l *ListLit) Span() token.Span { return l.Sp }
func (l *ListLit) String() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// RecordFieldInit is one `name: expr` entry of a record literal.
type RecordFieldInit struct {
	Name  string
	Value Expression
}

// RecordLit is `{ name: expr, ... }`.
type RecordLit struct {
	Fields []RecordFieldInit
	Sp     token.Span
}

func (r *RecordLit) exprNode()        {}
func (r *RecordLit) Span() token.Span { return r.Sp }
func (r *RecordLit) String() string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		parts[i] = f.Name + ": " + f.Value.String()
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// UnaryExpr is `not expr` or `-expr`.
type UnaryExpr struct {
	Op      string
	Operand Expression
	Sp      token.Span
}

func (u *UnaryExpr) exprNode()        {}
func (u *UnaryExpr) Span() token.Span { return u.Sp }
func (u *UnaryExpr) String() string   { return "(" + u.Op + u.Operand.String() + ")" }

// BinaryExpr covers arithmetic, comparison, boolean, and `??` operators.
type BinaryExpr struct {
	Op    string
	Left  Expression
	Right Expression
	Sp    token.Span
}

func (b *BinaryExpr) exprNode()        {}
func (b *BinaryExpr) Span() token.Span { return b.Sp }
func (b *BinaryExpr) String() string {
	return "(" + b.Left.String() + " " + b.Op + " " + b.Right.String() + ")"
}

// CallExpr is a call to a user-defined action/view/lambda value, e.g.
// `f(x, y)`. Calls to stdlib functions use QualifiedCallExpr instead,
// since module names are reserved and resolved at parse time.
type CallExpr struct {
	Callee Expression
	Args   []Expression
	Sp     token.Span
}

func (c *CallExpr) exprNode()        {}
func (c *CallExpr) Span() token.Span { return c.Sp }
func (c *CallExpr) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Callee.String() + "(" + strings.Join(parts, ", ") + ")"
}

// QualifiedCallExpr is a call to a reserved-module stdlib function, e.g.
// `math.sqrt(x)` or `storage.get(key)` (spec.md §5's stdlib surface).
type QualifiedCallExpr struct {
	Module   string
	Function string
	Args     []Expression
	Sp       token.Span
}

func (c *QualifiedCallExpr) exprNode()        {}
func (c *QualifiedCallExpr) Span() token.Span { return c.Sp }
func (c *QualifiedCallExpr) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Module + "." + c.Function + "(" + strings.Join(parts, ", ") + ")"
}

// MemberExpr is field access, `target.field`, used for record field reads
// and for the dotted path on the left of a `set` statement.
type MemberExpr struct {
	Target Expression
	Field  string
	Sp     token.Span
}

func (m *MemberExpr) exprNode()        {}
func (m *MemberExpr) Span() token.Span { return m.Sp }
func (m *MemberExpr) String() string   { return m.Target.String() + "." + m.Field }

// TryExpr is the postfix `expr?` operator: on Ok(v) yields v, on Err(e)
// raises a result_unwrap_on_err trap (spec.md §3).
type TryExpr struct {
	Operand Expression
	Sp      token.Span
}

func (t *TryExpr) exprNode()        {}
func (t *TryExpr) Span() token.Span { return t.Sp }
func (t *TryExpr) String() string   { return t.Operand.String() + "?" }

// LambdaExpr is an anonymous function literal. Its body must be a block
// (a bare-expression body is rejected with E602 by the parser).
type LambdaExpr struct {
	Params []*Param
	Body   []Statement
	Sp     token.Span
}

func (l *LambdaExpr) exprNode()        {}
func (l *LambdaExpr) Span() token.Span { return l.Sp }
func (l *LambdaExpr) String() string   { return "(" + joinParams(l.Params) + ") -> { ... }" }

// MatchArm is one `Pattern (if Guard)? -> expr|block` arm.
type MatchArm struct {
	Pattern    Pattern
	Guard      Expression // nil when no guard
	BodyExpr   Expression // set when the arm body is a single expression
	BodyBlock  []Statement // set when the arm body is a `{ ... }` block
	Sp         token.Span
}

func (a *MatchArm) Span() token.Span { return a.Sp }
func (a *MatchArm) String() string {
	s := a.Pattern.String()
	if a.Guard != nil {
		s += " if " + a.Guard.String()
	}
	s += " -> "
	if a.BodyExpr != nil {
		return s + a.BodyExpr.String()
	}
	return s + "{ ... }"
}

// MatchExpr is `match scrutinee { arm, arm, ... }`. The checker enforces
// exhaustiveness per spec.md §3/§9.
type MatchExpr struct {
	Scrutinee Expression
	Arms      []*MatchArm
	Sp        token.Span
}

func (m *MatchExpr) exprNode()        {}
func (m *MatchExpr) Span() token.Span { return m.Sp }
func (m *MatchExpr) String() string {
	parts := make([]string, len(m.Arms))
	for i, a := range m.Arms {
		parts[i] = a.String()
	}
	return "match " + m.Scrutinee.String() + " { " + strings.Join(parts, "; ") + " }"
}
