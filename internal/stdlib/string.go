package stdlib

import (
	"strings"

	"github.com/pepl-lang/pepl/internal/types"
	"github.com/pepl-lang/pepl/internal/value"
)

func str1(args []value.Value) string { return string(args[0].(value.String)) }

// stringFunctions is the `string` module.
func stringFunctions() []Function {
	s := types.TString
	n := types.TNumber
	b := types.TBool
	return []Function{
		{Module: "string", Name: "len", Params: []types.Type{s}, Return: n, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) { return value.Number(len(str1(args))), nil }},
		{Module: "string", Name: "upper", Params: []types.Type{s}, Return: s, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) { return value.String(strings.ToUpper(str1(args))), nil }},
		{Module: "string", Name: "lower", Params: []types.Type{s}, Return: s, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) { return value.String(strings.ToLower(str1(args))), nil }},
		{Module: "string", Name: "trim", Params: []types.Type{s}, Return: s, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) { return value.String(strings.TrimSpace(str1(args))), nil }},
		{Module: "string", Name: "contains", Params: []types.Type{s, s}, Return: b, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				return value.Bool(strings.Contains(str1(args), string(args[1].(value.String)))), nil
			}},
		{Module: "string", Name: "split", Params: []types.Type{s, s}, Return: types.List(s), Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				parts := strings.Split(str1(args), string(args[1].(value.String)))
				out := make([]value.Value, len(parts))
				for i, p := range parts {
					out[i] = value.String(p)
				}
				return &value.List{Elems: out}, nil
			}},
		{Module: "string", Name: "join", Params: []types.Type{types.List(s), s}, Return: s, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				l := args[0].(*value.List)
				parts := make([]string, len(l.Elems))
				for i, e := range l.Elems {
					parts[i] = string(e.(value.String))
				}
				return value.String(strings.Join(parts, string(args[1].(value.String)))), nil
			}},
		{Module: "string", Name: "replace", Params: []types.Type{s, s, s}, Return: s, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				return value.String(strings.ReplaceAll(str1(args), string(args[1].(value.String)), string(args[2].(value.String)))), nil
			}},
		{Module: "string", Name: "starts_with", Params: []types.Type{s, s}, Return: b, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				return value.Bool(strings.HasPrefix(str1(args), string(args[1].(value.String)))), nil
			}},
		{Module: "string", Name: "ends_with", Params: []types.Type{s, s}, Return: b, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				return value.Bool(strings.HasSuffix(str1(args), string(args[1].(value.String)))), nil
			}},
	}
}
