// Package value defines PEPL's runtime value representation: the tagged
// union the reference evaluator and the stdlib registry both operate on
// (spec.md §4.5, §9 — "polymorphic runtime values are best expressed as a
// tagged variant, not a class hierarchy; equality, display, and coercion
// are free functions dispatching on the tag").
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is any PEPL runtime value. The concrete types below are the
// complete set named in spec.md §4.5.
type Value interface {
	Kind() string
	valueNode()
}

// Number is PEPL's sole numeric type: an IEEE-754 double.
type Number float64

func (Number) Kind() string  { return "number" }
func (Number) valueNode()    {}

// String is an immutable UTF-8 string.
type String string

func (String) Kind() string { return "string" }
func (String) valueNode()   {}

// Bool is a boolean.
type Bool bool

func (Bool) Kind() string { return "bool" }
func (Bool) valueNode()   {}

// Nil is the sole inhabitant of the nil type.
type Nil struct{}

func (Nil) Kind() string { return "nil" }
func (Nil) valueNode()   {}

// List is an ordered, immutable-by-convention sequence of values. All
// stdlib list operations return a new List rather than mutating in place,
// matching PEPL's value semantics (spec.md §4.5's "nested set is
// immutable-update").
type List struct {
	Elems []Value
}

func (List) Kind() string { return "list" }
func (List) valueNode()   {}

func NewList(elems ...Value) *List {
	return &List{Elems: append([]Value(nil), elems...)}
}

// Record is an insertion-ordered mapping from field name to value.
// Insertion order drives display and WASM layout but never equality
// (spec.md §4.5: "records field-wise, insertion-order irrelevant for
// equality").
type Record struct {
	Names  []string
	Fields map[string]Value
}

func NewRecord() *Record {
	return &Record{Fields: make(map[string]Value)}
}

func (r *Record) Kind() string { return "record" }
func (r *Record) valueNode()   {}

// Set returns a new Record with name bound to v, preserving the position
// of an existing field or appending a new one. Used by `set a.b.c = x`'s
// immutable nested update (spec.md §4.5).
func (r *Record) Set(name string, v Value) *Record {
	out := &Record{Fields: make(map[string]Value, len(r.Fields))}
	for k, vv := range r.Fields {
		out.Fields[k] = vv
	}
	_, existed := out.Fields[name]
	out.Fields[name] = v
	if existed {
		out.Names = append([]string(nil), r.Names...)
	} else {
		out.Names = append(append([]string(nil), r.Names...), name)
	}
	return out
}

func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// SumVariant is a value of a user-declared sum type: a bare tag (Payload
// nil) or a tag carrying one payload value.
type SumVariant struct {
	Type    string
	Name    string
	Payload Value
}

func (SumVariant) Kind() string { return "sum" }
func (SumVariant) valueNode()   {}

// Function is a closure: captured lexical environment plus a deferred
// body. Body/Env are opaque (interface{}) here to keep this leaf package
// free of an import cycle with internal/ast and internal/eval; the
// evaluator type-asserts them back to its own concrete shapes.
type Function struct {
	Params []string
	Body   interface{}
	Env    interface{}
}

func (*Function) Kind() string { return "function" }
func (*Function) valueNode()   {}

// Color is an RGBA color literal, one channel per byte.
type Color struct {
	R, G, B, A uint8
}

func (Color) Kind() string { return "color" }
func (Color) valueNode()   {}

// Result is PEPL's Result<T,E>: either Ok(payload) or Err(payload).
type Result struct {
	Ok      bool
	Payload Value
}

func (Result) Kind() string { return "result" }
func (Result) valueNode()   {}

func OkResult(v Value) Result  { return Result{Ok: true, Payload: v} }
func ErrResult(v Value) Result { return Result{Ok: false, Payload: v} }

// Equal implements spec.md §4.5's structural equality: numbers by value,
// strings by bytes, lists element-wise, records field-wise (order
// irrelevant), sum variants by name then payload. Functions are never
// equal to anything, including themselves.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Nil:
		_, ok := b.(Nil)
		return ok
	case *List:
		bv, ok := b.(*List)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !Equal(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	case *Record:
		bv, ok := b.(*Record)
		if !ok || len(av.Fields) != len(bv.Fields) {
			return false
		}
		for k, v := range av.Fields {
			ov, ok := bv.Fields[k]
			if !ok || !Equal(v, ov) {
				return false
			}
		}
		return true
	case SumVariant:
		bv, ok := b.(SumVariant)
		if !ok || av.Name != bv.Name {
			return false
		}
		if av.Payload == nil || bv.Payload == nil {
			return av.Payload == nil && bv.Payload == nil
		}
		return Equal(av.Payload, bv.Payload)
	case Color:
		bv, ok := b.(Color)
		return ok && av == bv
	case Result:
		bv, ok := b.(Result)
		return ok && av.Ok == bv.Ok && Equal(av.Payload, bv.Payload)
	case *Function:
		return false
	default:
		return false
	}
}

// ToString renders v the way string interpolation coerces a non-string
// fragment: a canonical debug form for records and lists (spec.md §4.5).
func ToString(v Value) string {
	switch vv := v.(type) {
	case Number:
		return formatNumber(float64(vv))
	case String:
		return string(vv)
	case Bool:
		if vv {
			return "true"
		}
		return "false"
	case Nil:
		return "nil"
	case *List:
		parts := make([]string, len(vv.Elems))
		for i, e := range vv.Elems {
			parts[i] = debugString(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Record:
		parts := make([]string, len(vv.Names))
		for i, name := range vv.Names {
			parts[i] = fmt.Sprintf("%s: %s", name, debugString(vv.Fields[name]))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case SumVariant:
		if vv.Payload == nil {
			return vv.Name
		}
		return vv.Name + "(" + debugString(vv.Payload) + ")"
	case Color:
		return fmt.Sprintf("#%02x%02x%02x%02x", vv.R, vv.G, vv.B, vv.A)
	case Result:
		if vv.Ok {
			return "Ok(" + debugString(vv.Payload) + ")"
		}
		return "Err(" + debugString(vv.Payload) + ")"
	case *Function:
		return "<function>"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// debugString quotes strings inside composite displays, matching the
// distinction between a bare interpolated string and one nested in a list
// or record's canonical debug form.
func debugString(v Value) string {
	if s, ok := v.(String); ok {
		return strconv.Quote(string(s))
	}
	return ToString(v)
}

func formatNumber(f float64) string {
	if math.Trunc(f) == f && !math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// IsTruthy reports whether v satisfies a bool-context check. PEPL only
// type-checks bool in condition position, so this is used defensively by
// the evaluator, not as an implicit-conversion rule.
func IsTruthy(v Value) bool {
	b, ok := v.(Bool)
	return ok && bool(b)
}
