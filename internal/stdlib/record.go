package stdlib

import (
	"github.com/pepl-lang/pepl/internal/trap"
	"github.com/pepl-lang/pepl/internal/types"
	"github.com/pepl-lang/pepl/internal/value"
)

// recordFunctions is the `record` module: generic field access/update
// helpers that complement the language's own `a.b` / `set a.b = x` syntax
// for cases where the field name is itself a runtime string.
func recordFunctions() []Function {
	any := types.TAny
	rec := types.Record() // open record shape; field presence checked at runtime
	return []Function{
		{Module: "record", Name: "get", Params: []types.Type{rec, types.TString}, Return: any, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				r := args[0].(*value.Record)
				name := string(args[1].(value.String))
				v, ok := r.Get(name)
				if !ok {
					return nil, trap.New(trap.NilAccess, "record has no field "+name)
				}
				return v, nil
			}},
		{Module: "record", Name: "set", Params: []types.Type{rec, types.TString, any}, Return: rec, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				r := args[0].(*value.Record)
				name := string(args[1].(value.String))
				return r.Set(name, args[2]), nil
			}},
		{Module: "record", Name: "has", Params: []types.Type{rec, types.TString}, Return: types.TBool, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				r := args[0].(*value.Record)
				_, ok := r.Get(string(args[1].(value.String)))
				return value.Bool(ok), nil
			}},
		{Module: "record", Name: "keys", Params: []types.Type{rec}, Return: types.List(types.TString), Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				r := args[0].(*value.Record)
				out := make([]value.Value, len(r.Names))
				for i, n := range r.Names {
					out[i] = value.String(n)
				}
				return &value.List{Elems: out}, nil
			}},
	}
}
