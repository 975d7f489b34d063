// Package eval implements PEPL's reference evaluator (spec.md §4.5): a
// tree-walking interpreter over the checked AST with atomic action commits,
// post-condition invariant checks, declaration-order derived recompute, gas
// metering, and mockable capability calls. It is grounded in the teacher's
// own interpreter's "snapshot state, run body, check invariants, commit or
// roll back" action-dispatch shape, generalized from DWScript's
// statement/expression evaluation to PEPL's space/action/view model.
//
// The WASM code generator (internal/wasmgen) must be observationally
// equivalent to this package on every program that type-checks (spec.md
// §2); this package is the behavioral reference both are tested against.
package eval

import (
	"fmt"

	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/checker"
	"github.com/pepl-lang/pepl/internal/trap"
	"github.com/pepl-lang/pepl/internal/value"
)

// DefaultGas is the evaluator's default gas budget when none is configured
// with WithGasLimit.
const DefaultGas = 1_000_000

// Evaluator runs one PEPL program. It owns the state environment for its
// run (spec.md §9); Run re-initializes this same Evaluator to the
// declared initializers before each test case.
type Evaluator struct {
	prog *ast.Program
	res  *checker.Result

	types   map[string]*ast.TypeDecl
	actions map[string]*ast.ActionDecl
	views   map[string]*ast.ViewDecl

	// variantOwner maps a sum-variant name to the TypeDecl that declares
	// it, so a bare `Red(...)` call can be recognized as constructing a
	// value.SumVariant rather than calling a function.
	variantOwner map[string]string

	credentials map[string]value.Value

	state      map[string]value.Value
	stateOrder []string

	derived      map[string]value.Value
	derivedOrder []string

	gas      int64
	gasLimit int64

	mocks *mockTable

	// clock backs time.now. Wall-clock time is not reproducible across
	// runs, so the default is a monotonically increasing counter — this
	// keeps repeated evaluator runs of the same program comparable
	// (spec.md §9's determinism contract), with a real host clock wired
	// in only by the embedding, never by this reference implementation.
	clock      func() float64
	clockTicks float64
}

// New constructs an Evaluator for prog, using checked (the checker's
// Result) for the field/action/view registries. Call Init before
// dispatching any action.
func New(prog *ast.Program, checked *checker.Result) *Evaluator {
	e := &Evaluator{
		prog:         prog,
		res:          checked,
		types:        map[string]*ast.TypeDecl{},
		actions:      map[string]*ast.ActionDecl{},
		views:        map[string]*ast.ViewDecl{},
		variantOwner: map[string]string{},
		credentials:  map[string]value.Value{},
		gasLimit:     DefaultGas,
		mocks:        newMockTable(),
	}
	if prog.Space != nil {
		for _, td := range prog.Space.Types {
			e.types[td.Name] = td
			for _, variant := range td.Variants {
				e.variantOwner[variant.Name] = td.Name
			}
		}
		for _, a := range prog.Space.Actions {
			e.actions[a.Name] = a
		}
		for _, v := range prog.Space.Views {
			e.views[v.Name] = v
		}
	}
	e.clock = e.nextTick
	return e
}

// WithCredential registers a named credential value, resolved by the
// evaluator when credential-declared programs reference it (backed by
// env.host_call(5, ...) in the WASM ABI; spec.md §6).
func (e *Evaluator) WithCredential(name string, v value.Value) *Evaluator {
	e.credentials[name] = v
	return e
}

func (e *Evaluator) lookupCredential(name string) (value.Value, error) {
	if v, ok := e.credentials[name]; ok {
		return v, nil
	}
	return value.Nil{}, nil
}

// WithGasLimit overrides the evaluator's gas budget and resets the
// remaining gas to it.
func (e *Evaluator) WithGasLimit(n int64) *Evaluator {
	e.gasLimit = n
	e.gas = n
	return e
}

// WithClock overrides time.now's implementation, used by hosts that want
// a real wall clock and by tests that want a fixed timestamp.
func (e *Evaluator) WithClock(clock func() float64) *Evaluator {
	e.clock = clock
	return e
}

func (e *Evaluator) nextTick() float64 {
	e.clockTicks++
	return e.clockTicks
}

// Init evaluates every state field initializer in declaration order, then
// computes every derived field in declaration order (spec.md §4.5).
func (e *Evaluator) Init() error {
	e.state = make(map[string]value.Value)
	e.stateOrder = nil
	e.derived = make(map[string]value.Value)
	e.derivedOrder = nil
	e.gas = e.gasLimit

	if e.prog.Space == nil {
		return nil
	}
	if e.prog.Space.State != nil {
		for _, f := range e.prog.Space.State.Fields {
			v, err := e.evalExpr(f.Init, newEnv(nil))
			if err != nil {
				return err
			}
			e.setStateField(f.Name, v)
		}
	}
	return e.recomputeDerived()
}

func (e *Evaluator) setStateField(name string, v value.Value) {
	if _, exists := e.state[name]; !exists {
		e.stateOrder = append(e.stateOrder, name)
	}
	e.state[name] = v
}

func (e *Evaluator) recomputeDerived() error {
	if e.prog.Space.Derived == nil {
		return nil
	}
	for _, f := range e.prog.Space.Derived.Fields {
		v, err := e.evalExpr(f.Expr, newEnv(nil))
		if err != nil {
			return err
		}
		if _, exists := e.derived[f.Name]; !exists {
			e.derivedOrder = append(e.derivedOrder, f.Name)
		}
		e.derived[f.Name] = v
	}
	return nil
}

// State returns a snapshot of the current state field values, in
// declaration order, for a host's get_state()-equivalent read.
func (e *Evaluator) State() []FieldValue {
	out := make([]FieldValue, 0, len(e.stateOrder)+len(e.derivedOrder))
	for _, name := range e.stateOrder {
		out = append(out, FieldValue{Name: name, Value: e.state[name]})
	}
	for _, name := range e.derivedOrder {
		out = append(out, FieldValue{Name: name, Value: e.derived[name]})
	}
	return out
}

// FieldValue names one state or derived field's current runtime value.
type FieldValue struct {
	Name  string
	Value value.Value
}

// chargeGas implements spec.md §4.5/§4.6's metering: 1 unit per loop
// iteration entry, per function/action call, per update tick. Exhaustion
// traps rather than returning a Go error directly, so callers that want to
// distinguish "ran out of gas" from "a normal trap" can still type-assert
// the returned *trap.Trap.
func (e *Evaluator) chargeGas(n int64) error {
	e.gas -= n
	if e.gas < 0 {
		return trap.New(trap.GasExhausted, "")
	}
	return nil
}

func snapshotState(m map[string]value.Value) map[string]value.Value {
	out := make(map[string]value.Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// asTrap unwraps err as a *trap.Trap when possible, or wraps it as an
// internal-error trap otherwise (should not happen for a type-checked
// program; kept defensive since Impl funcs return plain errors on arity
// mismatch).
func asTrap(err error) *trap.Trap {
	if err == nil {
		return nil
	}
	if t, ok := err.(*trap.Trap); ok {
		return t
	}
	return trap.New(trap.NilAccess, fmt.Sprintf("internal error: %v", err))
}
