package stdlib

import (
	"sort"

	"github.com/pepl-lang/pepl/internal/trap"
	"github.com/pepl-lang/pepl/internal/types"
	"github.com/pepl-lang/pepl/internal/value"
)

// listFunctions is the `list` module. Every function returns a new List
// rather than mutating its argument (PEPL values are immutable). Per
// SPEC_FULL.md §14's open-question decision, the filter-like predicate
// function is named `any`, not `some`.
func listFunctions() []Function {
	any := types.TAny
	listAny := types.List(any)
	n := types.TNumber
	predicate := types.Func([]types.Type{any}, types.TBool)

	return []Function{
		{Module: "list", Name: "push", Params: []types.Type{listAny, any}, Return: listAny, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				l := args[0].(*value.List)
				return value.NewList(append(append([]value.Value(nil), l.Elems...), args[1])...), nil
			}},
		{Module: "list", Name: "pop", Params: []types.Type{listAny}, Return: listAny, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				l := args[0].(*value.List)
				if len(l.Elems) == 0 {
					return value.NewList(), nil
				}
				return value.NewList(l.Elems[:len(l.Elems)-1]...), nil
			}},
		{Module: "list", Name: "len", Params: []types.Type{listAny}, Return: n, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				return value.Number(len(args[0].(*value.List).Elems)), nil
			}},
		{Module: "list", Name: "get", Params: []types.Type{listAny, n}, Return: any, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				l := args[0].(*value.List)
				i := int(args[1].(value.Number))
				if i < 0 || i >= len(l.Elems) {
					return nil, trap.New(trap.NilAccess, "list index out of range")
				}
				return l.Elems[i], nil
			}},
		{Module: "list", Name: "sum", Params: []types.Type{types.List(n)}, Return: n, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				total := 0.0
				for _, e := range args[0].(*value.List).Elems {
					total += float64(e.(value.Number))
				}
				return value.Number(total), nil
			}},
		{Module: "list", Name: "reverse", Params: []types.Type{listAny}, Return: listAny, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				src := args[0].(*value.List).Elems
				out := make([]value.Value, len(src))
				for i, e := range src {
					out[len(src)-1-i] = e
				}
				return &value.List{Elems: out}, nil
			}},
		{Module: "list", Name: "contains", Params: []types.Type{listAny, any}, Return: types.TBool, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				for _, e := range args[0].(*value.List).Elems {
					if value.Equal(e, args[1]) {
						return value.Bool(true), nil
					}
				}
				return value.Bool(false), nil
			}},
		{Module: "list", Name: "range", Params: []types.Type{n, n}, Return: types.List(n), Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				from := int(args[0].(value.Number))
				to := int(args[1].(value.Number))
				if to < from {
					return value.NewList(), nil
				}
				out := make([]value.Value, 0, to-from)
				for i := from; i < to; i++ {
					out = append(out, value.Number(i))
				}
				return &value.List{Elems: out}, nil
			}},
		{Module: "list", Name: "concat", Params: []types.Type{listAny, listAny}, Return: listAny, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				a := args[0].(*value.List).Elems
				b := args[1].(*value.List).Elems
				out := make([]value.Value, 0, len(a)+len(b))
				out = append(out, a...)
				out = append(out, b...)
				return &value.List{Elems: out}, nil
			}},
		{Module: "list", Name: "sort", Params: []types.Type{types.List(n)}, Return: types.List(n), Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				src := args[0].(*value.List).Elems
				out := make([]value.Value, len(src))
				copy(out, src)
				sort.Slice(out, func(i, j int) bool {
					return float64(out[i].(value.Number)) < float64(out[j].(value.Number))
				})
				return &value.List{Elems: out}, nil
			}},
		// any, map and filter take a PEPL lambda argument; the evaluator
		// handles these calls itself (see internal/eval/stdlib_bridge.go),
		// since this leaf package cannot itself invoke a PEPL lambda.
		{Module: "list", Name: "any", Params: []types.Type{listAny, predicate}, Return: types.TBool, Pure: true, Impl: unboundHigherOrder},
		{Module: "list", Name: "map", Params: []types.Type{listAny, types.Func([]types.Type{any}, any)}, Return: listAny, Pure: true, Impl: unboundHigherOrder},
		{Module: "list", Name: "filter", Params: []types.Type{listAny, predicate}, Return: listAny, Pure: true, Impl: unboundHigherOrder},
	}
}

// unboundHigherOrder is the placeholder Impl for stdlib functions that
// take a PEPL lambda argument. This leaf package has no evaluator to call
// back into, so the evaluator intercepts these three qualified calls
// before ever reaching Function.Impl (see eval.callQualified).
func unboundHigherOrder(args []value.Value) (value.Value, error) {
	return nil, trap.New(trap.NilAccess, "higher-order stdlib call reached registry Impl; evaluator should have intercepted it")
}
