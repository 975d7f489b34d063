package eval

import "github.com/pepl-lang/pepl/internal/value"

// env is one frame of the evaluator's lexical environment stack (spec.md
// §9: "a stack of insertion-ordered mappings; entering a scope pushes,
// leaving pops"). It holds `let` bindings and lambda parameters; state and
// derived fields live separately on the Evaluator since they snapshot and
// restore independently of lexical scope (spec.md §4.5, §9).
type env struct {
	parent *env
	names  []string
	values map[string]value.Value
}

func newEnv(parent *env) *env {
	return &env{parent: parent, values: make(map[string]value.Value)}
}

func (e *env) bind(name string, v value.Value) {
	if _, exists := e.values[name]; !exists {
		e.names = append(e.names, name)
	}
	e.values[name] = v
}

func (e *env) lookup(name string) (value.Value, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, ok := cur.values[name]; ok {
			return v, true
		}
	}
	return nil, false
}
