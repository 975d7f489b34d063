package ast

import (
	"strings"

	"github.com/pepl-lang/pepl/internal/token"
)

// NamedType is a bare type name: a primitive (number, string, bool, color,
// Surface, InputEvent) or a user-declared sum/alias type.
type NamedType struct {
	Name string
	Sp   token.Span
}

func (t *NamedType) typeNode()        {}
func (t *NamedType) Span() token.Span { return t.Sp }
func (t *NamedType) String() string   { return t.Name }

// ListType is `list<Elem>`.
type ListType struct {
	Elem TypeExpr
	Sp   token.Span
}

func (t *ListType) typeNode()        {}
func (t *ListType) Span() token.Span { return t.Sp }
func (t *ListType) String() string   { return "list<" + t.Elem.String() + ">" }

// RecordFieldType is one `name: Type` or optional `name?: Type` entry of a
// record type; an absent optional field defaults to nil at evaluation.
type RecordFieldType struct {
	Name     string
	Type     TypeExpr
	Optional bool
}

// RecordType is a structural `record { field: Type, ... }` type.
type RecordType struct {
	Fields []RecordFieldType
	Sp     token.Span
}

func (t *RecordType) typeNode()        {}
func (t *RecordType) Span() token.Span { return t.Sp }
func (t *RecordType) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		name := f.Name
		if f.Optional {
			name += "?"
		}
		parts[i] = name + ": " + f.Type.String()
	}
	return "record { " + strings.Join(parts, ", ") + " }"
}

// ResultType is `Result<Ok, Err>`.
type ResultType struct {
	Ok  TypeExpr
	Err TypeExpr
	Sp  token.Span
}

func (t *ResultType) typeNode()        {}
func (t *ResultType) Span() token.Span { return t.Sp }
func (t *ResultType) String() string {
	return "Result<" + t.Ok.String() + ", " + t.Err.String() + ">"
}

// FuncType is a lambda/callback type `(Params) -> Return`.
type FuncType struct {
	Params []TypeExpr
	Return TypeExpr
	Sp     token.Span
}

func (t *FuncType) typeNode()        {}
func (t *FuncType) Span() token.Span { return t.Sp }
func (t *FuncType) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + t.Return.String()
}

// NullableType is `Inner | nil`, the only union form the language allows
// (spec.md §3: nilable types are a dedicated shape, not general unions).
type NullableType struct {
	Inner TypeExpr
	Sp    token.Span
}

func (t *NullableType) typeNode()        {}
func (t *NullableType) Span() token.Span { return t.Sp }
func (t *NullableType) String() string   { return t.Inner.String() + " | nil" }
