package checker

import (
	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/diag"
	"github.com/pepl-lang/pepl/internal/types"
)

// checkInvariant verifies an invariant is a boolean expression over state
// alone; any reference to a derived field is E300 (spec.md §4.4).
func (c *Checker) checkInvariant(inv *ast.InvariantDecl) {
	for _, name := range identifiersIn(inv.Expr) {
		if _, ok := c.derivedFields[name]; ok {
			c.errorf(diag.E300InvariantRefersDerived, inv.Sp, "invariant %q references derived field %q; invariants may only reference state", inv.Name, name)
		}
	}
	s := newScope(nil, false)
	t := c.inferExpr(inv.Expr, s)
	if t.K != types.Any && !t.Equals(types.TBool) {
		c.errorf(diag.E201ArgTypeMismatch, inv.Sp, "invariant %q must be boolean, got %s", inv.Name, t)
	}
}

func (c *Checker) paramScope(params []*ast.Param) *scope {
	s := newScope(nil, false)
	if len(params) > 8 && len(params) > 0 {
		c.errorf(diag.E607StructuralLimit, params[0].Sp, "parameter count exceeds the limit of 8")
	}
	for _, p := range params {
		t := c.resolveType(p.Type)
		_, isState := c.stateFields[p.Name]
		_, isDerived := c.derivedFields[p.Name]
		if !s.declare(p.Name, t) || isState || isDerived {
			c.errorf(diag.E500Shadowing, p.Sp, "parameter %q shadows an outer binding", p.Name)
		}
	}
	return s
}

func (c *Checker) checkAction(a *ast.ActionDecl) {
	s := c.paramScope(a.Params)
	c.checkBlock(a.Body, s, blockCtx{inAction: true})
	c.callGraph[a.Name] = calleesIn(a.Body)
}

// checkView verifies a view's body is pure: no `set`, no capability calls
// (spec.md §3, §4.4). The purity violation for `set` falls out of
// checkBlock's blockCtx{inAction:false} (E501); capability calls are
// flagged here directly since inferQualifiedCall only checks declaration,
// not call-site purity.
func (c *Checker) checkView(v *ast.ViewDecl) {
	s := c.paramScope(v.Params)
	for _, name := range calleesIn(v.Body) {
		if fn, mod, ok := c.qualifiedCalleeSplit(name); ok {
			if fn != "" && isCapabilityModule(mod) {
				c.errorf(diag.E400CapabilityNotDeclared, v.Sp, "view %q must be pure; %s.%s is a capability call", v.Name, mod, fn)
			}
		}
	}
	c.checkBlock(v.Body, s, blockCtx{inAction: false})
	c.callGraph[v.Name] = calleesIn(v.Body)
}

func (c *Checker) checkUpdate(u *ast.UpdateDecl) {
	s := newScope(nil, false)
	s.declare(u.DtParam, types.TNumber)
	c.checkBlock(u.Body, s, blockCtx{inAction: true})
	c.callGraph["update"] = calleesIn(u.Body)
}

func (c *Checker) checkHandleEvent(h *ast.HandleEventDecl) {
	s := newScope(nil, false)
	s.declare(h.EventParam, types.TEvent)
	c.checkBlock(h.Body, s, blockCtx{inAction: true})
	c.callGraph["handleEvent"] = calleesIn(h.Body)
}

func (c *Checker) checkTestCase(tc *ast.TestCase) {
	s := newScope(nil, false)
	c.checkBlock(tc.Body, s, blockCtx{inAction: true})
	for _, m := range tc.WithResponses {
		if !c.capabilityDeclared(m.Module) {
			c.errorf(diag.E400CapabilityNotDeclared, m.Sp, "with_responses mocks %s.%s, which requires a declared capability", m.Module, m.Function)
		}
		c.inferExpr(m.Response, s)
	}
}

func isCapabilityModule(mod string) bool {
	switch mod {
	case "http", "storage", "location", "notifications":
		return true
	default:
		return false
	}
}

// qualifiedCalleeSplit decodes a callGraph-style "module.function" callee
// name back into its parts; plain action/view/lambda callee names (no
// dot) return ok=false.
func (c *Checker) qualifiedCalleeSplit(callee string) (fn, module string, ok bool) {
	for i := len(callee) - 1; i >= 0; i-- {
		if callee[i] == '.' {
			return callee[i+1:], callee[:i], true
		}
	}
	return "", "", false
}

// checkDeadDeclarations populates CompileResult.warnings for declared
// actions/views never referenced from any other action/view/update/
// handleEvent body, and declared optional capabilities never called
// (SPEC_FULL.md §12's supplemented warning semantics).
func (c *Checker) checkDeadDeclarations() {
	referenced := map[string]bool{}
	for _, callees := range c.callGraph {
		for _, callee := range callees {
			referenced[callee] = true
		}
	}
	for _, a := range c.prog.Space.Actions {
		if !referenced[a.Name] {
			c.warnf(diag.W001DeadDeclaration, a.Sp, "action %q is never referenced from any other action, view, update, or handleEvent", a.Name)
		}
	}
	for _, v := range c.prog.Space.Views {
		if !referenced[v.Name] {
			c.warnf(diag.W001DeadDeclaration, v.Sp, "view %q is never referenced from any other action, view, update, or handleEvent", v.Name)
		}
	}
	usedCap := map[string]bool{}
	for _, callees := range c.callGraph {
		for _, callee := range callees {
			if fn, mod, ok := c.qualifiedCalleeSplit(callee); ok && fn != "" {
				usedCap[mod] = true
			}
		}
	}
	if c.prog.Space.Capabilities != nil {
		for _, cap := range c.prog.Space.Capabilities.Optional {
			if !usedCap[cap] {
				c.warnf(diag.W002UnusedOptionalCapability, c.prog.Space.Sp, "optional capability %q is declared but never called", cap)
			}
		}
	}
}
