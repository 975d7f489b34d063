package eval

import (
	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/trap"
	"github.com/pepl-lang/pepl/internal/value"
)

// ActionResult reports the outcome of one action/update/handleEvent
// dispatch: either it committed (with every invariant satisfied) or it
// trapped and every state change was rolled back (spec.md §4.5).
type ActionResult struct {
	Committed bool
	Trap      *trap.Trap
}

// DispatchAction runs action name with args: snapshot state, bind
// parameters, run the body (each `set` immediately visible to later
// statements), evaluate every invariant in declaration order, and either
// commit plus recompute derived fields, or roll back to the snapshot and
// surface the trap (spec.md §4.5).
func (e *Evaluator) DispatchAction(name string, args []value.Value) ActionResult {
	a, ok := e.actions[name]
	if !ok {
		return ActionResult{Trap: trap.New(trap.NilAccess, "no such action "+name)}
	}
	return e.dispatchBody(a.Params, a.Body, args)
}

// Update invokes the optional update(dt) hook.
func (e *Evaluator) Update(dt float64) ActionResult {
	u := e.prog.Space.Update
	if u == nil {
		return ActionResult{Committed: true}
	}
	if err := e.chargeGas(1); err != nil {
		return ActionResult{Trap: asTrap(err)}
	}
	return e.dispatchBody([]*ast.Param{{Name: u.DtParam}}, u.Body, []value.Value{value.Number(dt)})
}

// HandleEvent invokes the optional handleEvent(event) hook.
func (e *Evaluator) HandleEvent(event value.Value) ActionResult {
	h := e.prog.Space.HandleEvent
	if h == nil {
		return ActionResult{Committed: true}
	}
	return e.dispatchBody([]*ast.Param{{Name: h.EventParam}}, h.Body, []value.Value{event})
}

func (e *Evaluator) dispatchBody(params []*ast.Param, body []ast.Statement, args []value.Value) ActionResult {
	if err := e.chargeGas(1); err != nil {
		return ActionResult{Trap: asTrap(err)}
	}

	snapshot := snapshotState(e.state)
	en := newEnv(nil)
	for i, p := range params {
		if i < len(args) {
			en.bind(p.Name, args[i])
		}
	}

	_, _, err := e.execBlock(body, en, execCtx{inAction: true})
	if err != nil {
		e.state = snapshot
		return ActionResult{Trap: asTrap(err)}
	}

	if violated, err := e.checkInvariants(); err != nil {
		e.state = snapshot
		return ActionResult{Trap: asTrap(err)}
	} else if violated != "" {
		e.state = snapshot
		return ActionResult{Trap: trap.New(trap.InvariantViolated, violated)}
	}

	if err := e.recomputeDerived(); err != nil {
		e.state = snapshot
		return ActionResult{Trap: asTrap(err)}
	}
	return ActionResult{Committed: true}
}

// checkInvariants evaluates every invariant in declaration order
// (spec.md §4.5), short-circuiting on the first violated (or trapping)
// invariant.
func (e *Evaluator) checkInvariants() (violatedName string, err error) {
	if e.prog.Space == nil {
		return "", nil
	}
	for _, inv := range e.prog.Space.Invariants {
		v, err := e.evalExpr(inv.Expr, newEnv(nil))
		if err != nil {
			return "", err
		}
		if !bool(v.(value.Bool)) {
			return inv.Name, nil
		}
	}
	return "", nil
}

// callAction runs a named action as a plain call from inside another
// action's body (spec.md §4.4 allows an action to call another action).
// It shares the in-flight state map rather than opening its own
// snapshot/invariant/commit boundary — only the outermost DispatchAction
// owns that.
func (e *Evaluator) callAction(name string, args []value.Value) (value.Value, error) {
	if err := e.chargeGas(1); err != nil {
		return nil, err
	}
	a := e.actions[name]
	en := newEnv(nil)
	for i, p := range a.Params {
		if i < len(args) {
			en.bind(p.Name, args[i])
		}
	}
	v, returned, err := e.execBlock(a.Body, en, execCtx{inAction: true})
	if err != nil {
		return nil, err
	}
	if !returned {
		return value.Nil{}, nil
	}
	return v, nil
}
