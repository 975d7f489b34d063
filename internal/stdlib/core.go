package stdlib

import (
	"fmt"

	"github.com/pepl-lang/pepl/internal/types"
	"github.com/pepl-lang/pepl/internal/value"
)

// coreFunctions is the `core` module: coercions and identity helpers that
// don't belong to any single data-shaped module.
func coreFunctions() []Function {
	any := types.TAny
	return []Function{
		{Module: "core", Name: "to_string", Params: []types.Type{any}, Return: types.TString, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				return value.String(value.ToString(args[0])), nil
			}},
		{Module: "core", Name: "to_number", Params: []types.Type{types.TString}, Return: types.Result(types.TNumber, types.TString), Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				s := string(args[0].(value.String))
				f, err := parseNumber(s)
				if err != nil {
					return value.ErrResult(value.String("not a number: " + s)), nil
				}
				return value.OkResult(value.Number(f)), nil
			}},
		{Module: "core", Name: "equals", Params: []types.Type{any, any}, Return: types.TBool, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				return value.Bool(value.Equal(args[0], args[1])), nil
			}},
		{Module: "core", Name: "identity", Params: []types.Type{any}, Return: any, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) { return args[0], nil }},
	}
}

func parseNumber(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(s, "%g", &f)
	return f, err
}
