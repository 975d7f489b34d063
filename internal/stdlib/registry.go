// Package stdlib is PEPL's standard-library registry: a single data table
// of { module, name, param_types, return_type, purity, evaluator_impl }
// (spec.md §9). The checker reads the signature half (param/return types,
// purity, capability requirement); the evaluator reads Impl; the code
// generator reads only the signature half. Adding a stdlib function means
// editing exactly one module file in this package — spec.md §9's open
// question on the exact function count is resolved by treating this table,
// not any hard-coded count, as authoritative (see SPEC_FULL.md §14).
package stdlib

import (
	"fmt"

	"github.com/pepl-lang/pepl/internal/types"
	"github.com/pepl-lang/pepl/internal/value"
)

// Impl is a stdlib function's reference-evaluator implementation. Args
// have already been type-checked against Params by the caller; Impl
// returns a *trap.Trap (wrapped as error) to unwind the action/view.
type Impl func(args []value.Value) (value.Value, error)

// Function is one stdlib registry entry.
type Function struct {
	Module     string
	Name       string
	Params     []types.Type
	Return     types.Type
	Pure       bool   // true: math, core, list, record, string, color
	Capability string // non-empty for http, storage, location, notifications
	Impl       Impl
}

// Key is the "module.function" lookup key used by qualified calls,
// with_responses mocks, and capability-id assignment.
func (f Function) Key() string { return f.Module + "." + f.Name }

// Functions is the complete, ordered stdlib registry: one slice per
// module, concatenated in a fixed order so iteration (and therefore any
// codegen or dump output) is deterministic regardless of map iteration
// order elsewhere (spec.md §9's determinism note).
var Functions = buildRegistry()

// byKey indexes Functions for O(1) lookup by "module.function".
var byKey = buildIndex()

func buildRegistry() []Function {
	var fns []Function
	fns = append(fns, mathFunctions()...)
	fns = append(fns, coreFunctions()...)
	fns = append(fns, listFunctions()...)
	fns = append(fns, recordFunctions()...)
	fns = append(fns, stringFunctions()...)
	fns = append(fns, colorFunctions()...)
	fns = append(fns, httpFunctions()...)
	fns = append(fns, storageFunctions()...)
	fns = append(fns, locationFunctions()...)
	fns = append(fns, notificationsFunctions()...)
	fns = append(fns, timeFunctions()...)
	return fns
}

func buildIndex() map[string]Function {
	m := make(map[string]Function, len(Functions))
	for _, f := range Functions {
		m[f.Key()] = f
	}
	return m
}

// Lookup resolves "module.function" to its registry entry.
func Lookup(module, name string) (Function, bool) {
	f, ok := byKey[module+"."+name]
	return f, ok
}

// CapabilityModules lists the stdlib modules whose calls must be covered
// by a declared capability (spec.md §3). Order matches the WASM ABI's
// capability-id assignment in spec.md §6: 1=http, 2=storage, 3=location,
// 4=notifications.
var CapabilityModules = []string{"http", "storage", "location", "notifications"}

// CapabilityID returns the WASM ABI capability id for a module name, or 0
// if the module needs no declared capability.
func CapabilityID(module string) int32 {
	for i, m := range CapabilityModules {
		if m == module {
			return int32(i + 1)
		}
	}
	return 0
}

// Call looks up and invokes fn.module.fn.name with args, returning an
// arity-mismatch error distinguishable from a runtime trap so callers
// (primarily tests) can tell static from dynamic failure modes apart.
func Call(module, name string, args []value.Value) (value.Value, error) {
	fn, ok := Lookup(module, name)
	if !ok {
		return nil, fmt.Errorf("stdlib: no such function %s.%s", module, name)
	}
	if len(args) != len(fn.Params) {
		return nil, fmt.Errorf("stdlib: %s.%s expects %d argument(s), got %d", module, name, len(fn.Params), len(args))
	}
	return fn.Impl(args)
}
