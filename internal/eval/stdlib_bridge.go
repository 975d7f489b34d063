// stdlib_bridge.go intercepts the handful of qualified calls the leaf
// internal/stdlib registry cannot itself implement: the three higher-order
// list functions (which need to invoke a PEPL lambda value), time.now
// (which needs the evaluator's clock), and the capability-gated modules
// (which need the current test's with_responses mock table). Every other
// qualified call falls through to stdlib.Call directly.
package eval

import (
	"github.com/pepl-lang/pepl/internal/stdlib"
	"github.com/pepl-lang/pepl/internal/value"
)

func (e *Evaluator) callQualified(module, function string, args []value.Value, en *env) (value.Value, error) {
	if module == "list" {
		switch function {
		case "any":
			return e.listAny(args)
		case "map":
			return e.listMap(args)
		case "filter":
			return e.listFilter(args)
		}
	}
	if module == "time" && function == "now" {
		return value.Number(e.clock()), nil
	}
	if isCapabilityModule(module) {
		if mocked, ok := e.mocks.take(module, function); ok {
			return mocked, nil
		}
	}
	v, err := stdlib.Call(module, function, args)
	if err != nil {
		return nil, asTrap(err)
	}
	return v, nil
}

func isCapabilityModule(module string) bool {
	for _, m := range stdlib.CapabilityModules {
		if m == module {
			return true
		}
	}
	return false
}

func (e *Evaluator) listAny(args []value.Value) (value.Value, error) {
	list := args[0].(*value.List)
	pred := args[1].(*value.Function)
	for _, el := range list.Elems {
		r, err := e.applyFunction(pred, []value.Value{el})
		if err != nil {
			return nil, err
		}
		if bool(r.(value.Bool)) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func (e *Evaluator) listMap(args []value.Value) (value.Value, error) {
	list := args[0].(*value.List)
	fn := args[1].(*value.Function)
	out := make([]value.Value, len(list.Elems))
	for i, el := range list.Elems {
		r, err := e.applyFunction(fn, []value.Value{el})
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return &value.List{Elems: out}, nil
}

func (e *Evaluator) listFilter(args []value.Value) (value.Value, error) {
	list := args[0].(*value.List)
	pred := args[1].(*value.Function)
	out := make([]value.Value, 0, len(list.Elems))
	for _, el := range list.Elems {
		r, err := e.applyFunction(pred, []value.Value{el})
		if err != nil {
			return nil, err
		}
		if bool(r.(value.Bool)) {
			out = append(out, el)
		}
	}
	return &value.List{Elems: out}, nil
}
