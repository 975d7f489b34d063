package checker

import "github.com/pepl-lang/pepl/internal/types"

// scope is one frame of the scope stack described in spec.md §4.4:
// space-level -> action/view/update/handleEvent-level -> block-level ->
// lambda-level. Bindings are insertion-ordered so iteration (diagnostics,
// dumps) is deterministic (spec.md §9).
type scope struct {
	parent *scope
	names  map[string]types.Type
	order  []string
	// isLambda marks a lambda-level scope, used by the structural
	// nesting-depth counter (spec.md §3: lambda nesting <= 3).
	isLambda bool
}

func newScope(parent *scope, isLambda bool) *scope {
	return &scope{parent: parent, names: make(map[string]types.Type), isLambda: isLambda}
}

// declare binds name locally. Returns false if name is already visible in
// any enclosing scope (E500 shadowing).
func (s *scope) declare(name string, t types.Type) bool {
	if s.visible(name) {
		return false
	}
	s.names[name] = t
	s.order = append(s.order, name)
	return true
}

// visible reports whether name is bound in this scope or any ancestor.
func (s *scope) visible(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.names[name]; ok {
			return true
		}
	}
	return false
}

// lookup resolves name through the scope chain.
func (s *scope) lookup(name string) (types.Type, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if t, ok := cur.names[name]; ok {
			return t, true
		}
	}
	return types.Type{}, false
}

// lambdaDepth counts enclosing lambda-level scopes, for E607 nesting checks
// that survive past the parser (a lambda nested inside a for/if body still
// counts here even though the parser's own counter already caught the
// common case).
func (s *scope) lambdaDepth() int {
	n := 0
	for cur := s; cur != nil; cur = cur.parent {
		if cur.isLambda {
			n++
		}
	}
	return n
}
