package ast

import (
	"strconv"

	"github.com/pepl-lang/pepl/internal/token"
)

// TypeDecl is a top-level `type Name = ...` declaration: either a sum type
// (variants, optionally carrying a payload) or an alias to another type.
type TypeDecl struct {
	Name     string
	Variants []*SumVariant // non-nil for sum types
	Alias    TypeExpr      // non-nil for alias types
	Sp       token.Span
}

func (t *TypeDecl) Span() token.Span { return t.Sp }
func (t *TypeDecl) String() string {
	if t.Alias != nil {
		return "type " + t.Name + " = " + t.Alias.String()
	}
	s := "type " + t.Name + " {"
	for i, v := range t.Variants {
		if i > 0 {
			s += ", "
		}
		s += v.String()
	}
	return s + "}"
}

// SumVariant is one case of a sum type, e.g. `Red`, or `Circle(radius: number)`.
type SumVariant struct {
	Name    string
	Payload TypeExpr // nil when the variant carries no payload
	Sp      token.Span
}

func (v *SumVariant) Span() token.Span { return v.Sp }
func (v *SumVariant) String() string {
	if v.Payload == nil {
		return v.Name
	}
	return v.Name + "(" + v.Payload.String() + ")"
}

// StateBlock is the space's single `state { ... }` block.
type StateBlock struct {
	Fields []*StateField
	Sp     token.Span
}

func (s *StateBlock) Span() token.Span { return s.Sp }
func (s *StateBlock) String() string {
	out := "state {\n"
	for _, f := range s.Fields {
		out += "  " + f.String() + "\n"
	}
	return out + "}"
}

// StateField is a single state field with its declared type and initial
// value expression. The checker rejects an initializer that references a
// sibling state field.
type StateField struct {
	Name string
	Type TypeExpr
	Init Expression
	Sp   token.Span
}

func (f *StateField) Span() token.Span { return f.Sp }
func (f *StateField) String() string {
	return f.Name + ": " + f.Type.String() + " = " + f.Init.String()
}

// CapabilitiesBlock declares which host capabilities this space may call,
// split into required (missing at host init is a launch failure) and
// optional (missing means calls return Err) per spec.md §3.
type CapabilitiesBlock struct {
	Required []string
	Optional []string
	Sp       token.Span
}

func (c *CapabilitiesBlock) Span() token.Span { return c.Sp }
func (c *CapabilitiesBlock) String() string    { return "capabilities { ... }" }

// CredentialsBlock declares named opaque credential slots the host injects
// at launch; space code may pass them to capability calls but never
// inspect their contents (spec.md §3).
type CredentialsBlock struct {
	Names []string
	Sp    token.Span
}

func (c *CredentialsBlock) Span() token.Span { return c.Sp }
func (c *CredentialsBlock) String() string    { return "credentials { ... }" }

// DerivedBlock holds fields recomputed from state after every action,
// update, and handleEvent call, in declaration order (spec.md §3, §9).
type DerivedBlock struct {
	Fields []*DerivedField
	Sp     token.Span
}

func (d *DerivedBlock) Span() token.Span { return d.Sp }
func (d *DerivedBlock) String() string {
	out := "derived {\n"
	for _, f := range d.Fields {
		out += "  " + f.String() + "\n"
	}
	return out + "}"
}

// DerivedField is one `name: Type = expr` entry of a derived block. Expr
// may only reference state fields and derived fields declared earlier in
// the same block (spec.md §9's DAG-in-declaration-order rule).
type DerivedField struct {
	Name string
	Type TypeExpr
	Expr Expression
	Sp   token.Span
}

func (f *DerivedField) Span() token.Span { return f.Sp }
func (f *DerivedField) String() string {
	return f.Name + ": " + f.Type.String() + " = " + f.Expr.String()
}

// InvariantDecl is a single named boolean expression checked after every
// state mutation; violation rolls back the mutation (spec.md §3, E3xx).
type InvariantDecl struct {
	Name string
	Expr Expression
	Sp   token.Span
}

func (i *InvariantDecl) Span() token.Span { return i.Sp }
func (i *InvariantDecl) String() string   { return "invariant " + i.Name + " { " + i.Expr.String() + " }" }

// ActionDecl is a named, parameterized mutation entry point. Its body may
// read and write state, call capabilities, and call derived/pure
// functions; invariants are re-checked on exit (spec.md §3).
type ActionDecl struct {
	Name   string
	Params []*Param
	Body   []Statement
	Sp     token.Span
}

func (a *ActionDecl) Span() token.Span { return a.Sp }
func (a *ActionDecl) String() string {
	return "action " + a.Name + "(" + joinParams(a.Params) + ") { ... }"
}

// ViewDecl is a named, parameterized pure function producing a Surface
// tree from state, derived fields, and its own parameters. Views may not
// mutate state or call capabilities (spec.md §3, E4xx).
type ViewDecl struct {
	Name   string
	Params []*Param
	Body   []Statement
	Sp     token.Span
}

func (v *ViewDecl) Span() token.Span { return v.Sp }
func (v *ViewDecl) String() string {
	return "view " + v.Name + "(" + joinParams(v.Params) + ") { ... }"
}

// UpdateDecl is the optional `update(dt) { ... }` game-loop hook, called
// once per host tick with the elapsed time in seconds (spec.md §3).
type UpdateDecl struct {
	DtParam string
	Body    []Statement
	Sp      token.Span
}

func (u *UpdateDecl) Span() token.Span { return u.Sp }
func (u *UpdateDecl) String() string   { return "update(" + u.DtParam + ") { ... }" }

// HandleEventDecl is the optional `handleEvent(event) { ... }` hook,
// called once per host-delivered InputEvent (spec.md §3).
type HandleEventDecl struct {
	EventParam string
	Body       []Statement
	Sp         token.Span
}

func (h *HandleEventDecl) Span() token.Span { return h.Sp }
func (h *HandleEventDecl) String() string   { return "handleEvent(" + h.EventParam + ") { ... }" }

// TestCase is a single top-level `test "description" { ... }` entry, optionally
// preceded by a with_responses block mocking capability call results.
type TestCase struct {
	Description   string
	WithResponses []*ResponseMock
	Body          []Statement
	Sp            token.Span
}

func (c *TestCase) Span() token.Span { return c.Sp }
func (c *TestCase) String() string   { return "test \"" + c.Description + "\" { ... }" }

// ResponseMock records one scripted capability response, matched by the
// call's zero-based position among calls to the same module.function
// within the test case (spec.md §8).
type ResponseMock struct {
	Module    string
	Function  string
	CallIndex int
	Response  Expression // an Ok(...) or Err(...) expression
	Sp        token.Span
}

func (r *ResponseMock) Span() token.Span { return r.Sp }
func (r *ResponseMock) String() string {
	return r.Module + "." + r.Function + "[" + strconv.Itoa(r.CallIndex) + "] -> " + r.Response.String()
}
