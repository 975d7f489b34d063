// Package types implements the resolved Type tagged union from spec.md §3
// (as distinct from internal/ast's as-written TypeExpr): the checker's
// registry of primitive, parameterized, and user-declared types, also
// consumed by internal/stdlib for function signatures.
package types

import "strings"

// Kind tags the variant of a resolved Type.
type Kind int

const (
	Number Kind = iota
	StringK
	Bool
	NilK
	Any // compiler-internal only; rejected in user annotations (E200)
	ColorK
	SurfaceK
	InputEventK
	ListK
	RecordK
	ResultK
	FuncK
	Named    // user-declared sum or alias type, resolved by name
	Nullable // T | nil
)

// Type is an immutable, comparable-by-Equals description of a value's
// shape. Parameterized/composite kinds use the Elem/Fields/Params/Return
// fields named for that kind; others leave them zero.
type Type struct {
	K       Kind
	Elem    *Type          // ListK, Nullable
	Fields  []RecordField  // RecordK
	Ok, Err *Type          // ResultK
	Params  []Type         // FuncK
	Return  *Type          // FuncK
	Name    string         // Named
}

// RecordField is one field of a record type.
type RecordField struct {
	Name     string
	Type     Type
	Optional bool
}

var (
	TNumber  = Type{K: Number}
	TString  = Type{K: StringK}
	TBool    = Type{K: Bool}
	TNil     = Type{K: NilK}
	TAny     = Type{K: Any}
	TColor   = Type{K: ColorK}
	TSurface = Type{K: SurfaceK}
	TEvent   = Type{K: InputEventK}
)

func List(elem Type) Type { return Type{K: ListK, Elem: &elem} }

func Result(ok, err Type) Type { return Type{K: ResultK, Ok: &ok, Err: &err} }

func Func(params []Type, ret Type) Type { return Type{K: FuncK, Params: params, Return: &ret} }

func NamedT(name string) Type { return Type{K: Named, Name: name} }

func NullableOf(elem Type) Type { return Type{K: Nullable, Elem: &elem} }

func Record(fields ...RecordField) Type { return Type{K: RecordK, Fields: fields} }

// Equals reports structural type equality, used by the checker's
// signature matching (E201) and by exhaustiveness checks.
func (t Type) Equals(o Type) bool {
	if t.K != o.K {
		return false
	}
	switch t.K {
	case ListK, Nullable:
		return t.Elem.Equals(*o.Elem)
	case ResultK:
		return t.Ok.Equals(*o.Ok) && t.Err.Equals(*o.Err)
	case FuncK:
		if len(t.Params) != len(o.Params) || !t.Return.Equals(*o.Return) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equals(o.Params[i]) {
				return false
			}
		}
		return true
	case Named:
		return t.Name == o.Name
	case RecordK:
		if len(t.Fields) != len(o.Fields) {
			return false
		}
		for i := range t.Fields {
			if t.Fields[i].Name != o.Fields[i].Name || t.Fields[i].Optional != o.Fields[i].Optional ||
				!t.Fields[i].Type.Equals(o.Fields[i].Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// AssignableFrom reports whether a value of type o may be used where t is
// expected, accounting for nil-narrowing's inverse (a bare T assignable to
// T | nil) and Any (the stdlib table's wildcard for polymorphic params
// like list.push's element type).
func (t Type) AssignableFrom(o Type) bool {
	if t.K == Any || o.K == Any {
		return true
	}
	if t.K == Nullable {
		if o.K == NilK {
			return true
		}
		if o.K == Nullable {
			return t.Elem.AssignableFrom(*o.Elem)
		}
		return t.Elem.AssignableFrom(o)
	}
	if t.K == ListK && o.K == ListK {
		return t.Elem.AssignableFrom(*o.Elem)
	}
	if t.K == ResultK && o.K == ResultK {
		return t.Ok.AssignableFrom(*o.Ok) && t.Err.AssignableFrom(*o.Err)
	}
	return t.Equals(o)
}

func (t Type) String() string {
	switch t.K {
	case Number:
		return "number"
	case StringK:
		return "string"
	case Bool:
		return "bool"
	case NilK:
		return "nil"
	case Any:
		return "any"
	case ColorK:
		return "color"
	case SurfaceK:
		return "Surface"
	case InputEventK:
		return "InputEvent"
	case ListK:
		return "list<" + t.Elem.String() + ">"
	case RecordK:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			opt := ""
			if f.Optional {
				opt = "?"
			}
			parts[i] = f.Name + opt + ": " + f.Type.String()
		}
		return "record { " + strings.Join(parts, ", ") + " }"
	case ResultK:
		return "Result<" + t.Ok.String() + ", " + t.Err.String() + ">"
	case FuncK:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return "(" + strings.Join(parts, ", ") + ") -> " + t.Return.String()
	case Named:
		return t.Name
	case Nullable:
		return t.Elem.String() + " | nil"
	default:
		return "?"
	}
}
