package wasmgen

import (
	"fmt"

	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/trap"
	"github.com/pepl-lang/pepl/internal/types"
)

// compileInit builds the exported `init(gas_limit)` function: sets the
// gas budget, evaluates every state field's initializer, and calls
// recompute once. Unlike dispatch_action it runs no invariant checks; a
// trap raised by an initializer branches to init_exit, skipping
// recompute, and init returns the trap code.
func (g *Generator) compileInit(recompute int) (int, error) {
	c := newCodeBuilder(1) // param 0: gas_limit
	trapLocal := c.newLocal(valtypeI32)
	fc := &fctx{gen: g, c: c, sc: newScope(nil), exitLabel: "init_exit", returnLabel: "init_exit", trapLocal: trapLocal}

	c.LocalGet(0)
	c.GlobalSet(g.g.gas)

	c.enterBlock("init_exit", 0x40)
	for _, f := range g.prog.Space.State.Fields {
		expected := g.stateKind[f.Name]
		if expected != types.Number && expected != types.Bool && expected != types.StringK {
			return 0, fmt.Errorf("state field %q has a type unsupported by this generation pass (list/record/nullable/named); see DESIGN.md", f.Name)
		}
		if _, err := fc.compileExpr(f.Init); err != nil {
			return 0, fmt.Errorf("state field %q initializer: %w", f.Name, err)
		}
		c.GlobalSet(g.stateGlobal[f.Name])
	}
	c.Call(recompute)
	c.leaveBlock()

	c.LocalGet(trapLocal)
	c.Return()
	return g.m.addFunc(ft([]byte{valtypeI32}, []byte{valtypeI32}), c.locals(), c.bytes()), nil
}

func findDerivedField(prog *ast.Program, name string) *ast.DerivedField {
	if prog.Space.Derived == nil {
		return nil
	}
	for _, f := range prog.Space.Derived.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// compileRecomputeDerived builds an internal (non-exported) function
// recomputing every derived field in declaration order, called after
// init and after every successful action/update/handleEvent commit
// (spec.md §3, §9).
func (g *Generator) compileRecomputeDerived() (int, error) {
	c := newCodeBuilder(0)
	trapLocal := c.newLocal(valtypeI32)
	fc := &fctx{gen: g, c: c, sc: newScope(nil), exitLabel: "derived_exit", returnLabel: "derived_exit", trapLocal: trapLocal}
	c.enterBlock("derived_exit", 0x40)
	for _, name := range g.res.DerivedOrder {
		df := findDerivedField(g.prog, name)
		if df == nil {
			continue
		}
		expected := g.derivedKind[name]
		if expected != types.Number && expected != types.Bool && expected != types.StringK {
			return 0, fmt.Errorf("derived field %q has a type unsupported by this generation pass; see DESIGN.md", name)
		}
		if _, err := fc.compileExpr(df.Expr); err != nil {
			return 0, fmt.Errorf("derived field %q: %w", name, err)
		}
		c.GlobalSet(g.derivedGlobal[name])
	}
	c.leaveBlock()
	return g.m.addFunc(ft(nil, nil), c.locals(), c.bytes()), nil
}

// compileDispatchAction compiles one action to an exported
// dispatch_action_<name> function. compileUpdate shares the same body
// shape for the update(dt) hook, just with a single synthetic `dt:
// number` parameter in place of the action's declared ones.
func (g *Generator) compileDispatchAction(a *ast.ActionDecl, recompute int) (int, error) {
	return g.compileBodyWithRecompute(a.Params, a.Body, recompute)
}

func (g *Generator) compileUpdate(u *ast.UpdateDecl, recompute int) (int, error) {
	params := []*ast.Param{{Name: u.DtParam, Type: &ast.NamedType{Name: "number"}}}
	return g.compileBodyWithRecompute(params, u.Body, recompute)
}

// compileBodyWithRecompute wraps body in the two nested blocks
// (trap_exit outer, body_exit inner) described on fctx: it snapshots
// every state field into a shadow local bound into scope under the
// field's own name, compiles body against those shadows, re-checks every
// invariant, and only on success copies the shadows back to the real
// state globals and calls recompute. A trap anywhere along the way
// branches straight past all of that, so the real globals are never
// touched — "rollback" is simply never having committed.
func (g *Generator) compileBodyWithRecompute(params []*ast.Param, body []ast.Statement, recompute int) (int, error) {
	paramTypes := make([]byte, len(params))
	c := newCodeBuilder(len(params))
	trapLocal := c.newLocal(valtypeI32)
	sc := newScope(nil)

	for i, p := range params {
		kind := g.fieldDeclaredKind(p.Type)
		if kind != types.Number && kind != types.Bool && kind != types.StringK {
			return 0, fmt.Errorf("parameter %q has a type unsupported by this generation pass", p.Name)
		}
		paramTypes[i] = valtypeI32
		sc.bind(p.Name, uint32(i), kind)
	}

	fc := &fctx{gen: g, c: c, sc: sc, exitLabel: "trap_exit", returnLabel: "body_exit", trapLocal: trapLocal}

	for name, global := range g.stateGlobal {
		idx := c.newLocal(valtypeI32)
		c.GlobalGet(global)
		c.LocalSet(idx)
		sc.bind(name, idx, g.stateKind[name])
	}

	c.enterBlock("trap_exit", 0x40)
	c.enterBlock("body_exit", 0x40)
	if err := fc.compileBlock(body); err != nil {
		return 0, err
	}
	c.leaveBlock() // body_exit

	for _, inv := range g.prog.Space.Invariants {
		kind, err := fc.compileExpr(inv.Expr)
		if err != nil {
			return 0, fmt.Errorf("invariant %q: %w", inv.Name, err)
		}
		if kind != types.Bool {
			return 0, fmt.Errorf("invariant %q did not evaluate to bool", inv.Name)
		}
		c.Call(g.rt.unboxBool)
		c.I32Eqz()
		c.enterIf("invfail_"+inv.Name, 0x40)
		fc.raiseTrap(trapCode(trap.InvariantViolated), inv.Name)
		c.leaveBlock()
	}

	for name := range g.stateGlobal {
		idx, _ := sc.lookup(name)
		c.LocalGet(idx.idx)
		c.GlobalSet(g.stateGlobal[name])
	}
	c.Call(recompute)
	c.leaveBlock() // trap_exit

	c.LocalGet(trapLocal)
	c.Return()
	return g.m.addFunc(ft(paramTypes, []byte{valtypeI32}), c.locals(), c.bytes()), nil
}
