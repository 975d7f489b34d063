// Package checker implements PEPL's static analysis pass (spec.md §4.4):
// typing, purity, capability/credential, shadowing, recursion, and
// match-exhaustiveness checks over the parsed AST.
package checker

import (
	"fmt"

	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/diag"
	"github.com/pepl-lang/pepl/internal/token"
	"github.com/pepl-lang/pepl/internal/types"
)

// Checker holds all state built by the pre-pass and consulted while
// walking declaration bodies.
type Checker struct {
	file, source string
	errs         *diag.Bag
	prog         *ast.Program

	userTypes map[string]*ast.TypeDecl // sum/alias registry (pre-pass)
	variants  map[string][]string      // sum type name -> variant names, declaration order

	stateFields map[string]types.Type
	stateOrder  []string

	derivedFields map[string]types.Type
	derivedOrder  []string

	capsRequired map[string]bool
	capsOptional map[string]bool
	credentials  map[string]bool

	actions map[string]*ast.ActionDecl
	views   map[string]*ast.ViewDecl

	callGraph map[string][]string // caller name -> callee names, for E502
}

// Result is the checker's public output: everything the pipeline needs
// for CompileResult's state/action/view/capability/credential lists
// (spec.md §6), plus the derived fields' declaration order.
type Result struct {
	StateFields  []FieldInfo
	DerivedOrder []string
	Actions      []ActionInfo
	Views        []ActionInfo
	Capabilities struct {
		Required []string
		Optional []string
	}
	Credentials []string
}

// FieldInfo names one state or derived field and its resolved type.
type FieldInfo struct {
	Name string
	Type types.Type
}

// ActionInfo names one action or view and its resolved parameter types,
// mirroring CompileResult.actions's `{name, params:[{name,type}]}` shape.
type ActionInfo struct {
	Name   string
	Params []FieldInfo
}

// Check runs the full static-analysis pass and returns both the public
// Result and the diagnostic bag. Callers (the pipeline) treat a non-empty
// bag.Errors as "do not proceed to evaluator/codegen".
func Check(file, source string, prog *ast.Program) (*Result, *diag.Bag) {
	c := &Checker{
		file: file, source: source, prog: prog,
		errs:          diag.NewBag(),
		userTypes:     map[string]*ast.TypeDecl{},
		variants:      map[string][]string{},
		stateFields:   map[string]types.Type{},
		derivedFields: map[string]types.Type{},
		capsRequired:  map[string]bool{},
		capsOptional:  map[string]bool{},
		credentials:   map[string]bool{},
		actions:       map[string]*ast.ActionDecl{},
		views:         map[string]*ast.ViewDecl{},
		callGraph:     map[string][]string{},
	}
	c.run()
	return c.result(), c.errs
}

// errorf records a diagnostic at span with the given code/category/message,
// bounded by diag.MaxErrors. Category is inferred from the code's range.
func (c *Checker) errorf(code string, span token.Span, format string, args ...interface{}) {
	c.errs.AddError(diag.New(code, fmt.Sprintf(format, args...), span, diag.SeverityError, categoryForCode(code), c.source))
}

func categoryForCode(code string) diag.Category {
	switch code[:2] {
	case "E1":
		return diag.CategorySyntax
	case "E2":
		return diag.CategoryType
	case "E3":
		return diag.CategoryInvariant
	case "E4":
		return diag.CategoryCapability
	case "E5":
		return diag.CategoryScope
	default:
		return diag.CategoryStructural
	}
}

func (c *Checker) warnf(code string, span token.Span, format string, args ...interface{}) {
	c.errs.AddWarning(diag.New(code, fmt.Sprintf(format, args...), span, diag.SeverityWarning, categoryForCode(code), c.source))
}

func (c *Checker) run() {
	sp := c.prog.Space
	if sp == nil {
		return
	}
	c.collectUserTypes(sp)
	c.collectState(sp)
	c.collectCapabilitiesAndCredentials(sp)
	c.collectDerived(sp)

	for _, inv := range sp.Invariants {
		c.checkInvariant(inv)
	}
	for _, a := range sp.Actions {
		c.actions[a.Name] = a
	}
	for _, v := range sp.Views {
		c.views[v.Name] = v
	}
	for _, a := range sp.Actions {
		c.checkAction(a)
	}
	for _, v := range sp.Views {
		c.checkView(v)
	}
	if sp.Update != nil {
		c.checkUpdate(sp.Update)
	}
	if sp.HandleEvent != nil {
		c.checkHandleEvent(sp.HandleEvent)
	}
	for _, tc := range c.prog.Tests {
		c.checkTestCase(tc)
	}

	c.checkRecursion()
	c.checkDeadDeclarations()
}

func (c *Checker) result() *Result {
	r := &Result{}
	for _, name := range c.stateOrder {
		r.StateFields = append(r.StateFields, FieldInfo{Name: name, Type: c.stateFields[name]})
	}
	r.DerivedOrder = append(r.DerivedOrder, c.derivedOrder...)
	for _, a := range c.prog.Space.Actions {
		r.Actions = append(r.Actions, ActionInfo{Name: a.Name, Params: paramInfos(c, a.Params)})
	}
	for _, v := range c.prog.Space.Views {
		r.Views = append(r.Views, ActionInfo{Name: v.Name, Params: paramInfos(c, v.Params)})
	}
	// Capabilities/credentials are emitted in declaration order (not map
	// iteration order) to honor spec.md §9's determinism contract.
	if c.prog.Space.Capabilities != nil {
		r.Capabilities.Required = append(r.Capabilities.Required, c.prog.Space.Capabilities.Required...)
		r.Capabilities.Optional = append(r.Capabilities.Optional, c.prog.Space.Capabilities.Optional...)
	}
	if c.prog.Space.Credentials != nil {
		r.Credentials = append(r.Credentials, c.prog.Space.Credentials.Names...)
	}
	return r
}

func paramInfos(c *Checker, params []*ast.Param) []FieldInfo {
	out := make([]FieldInfo, len(params))
	for i, p := range params {
		out[i] = FieldInfo{Name: p.Name, Type: c.resolveType(p.Type)}
	}
	return out
}

func (c *Checker) collectUserTypes(sp *ast.SpaceDecl) {
	for _, td := range sp.Types {
		c.userTypes[td.Name] = td
		if td.Variants != nil {
			names := make([]string, len(td.Variants))
			for i, v := range td.Variants {
				names[i] = v.Name
			}
			c.variants[td.Name] = names
		}
	}
}

func (c *Checker) collectState(sp *ast.SpaceDecl) {
	if sp.State == nil {
		return
	}
	// Pass 1: resolve every field's declared type up front so forward
	// references in later checks (derived, invariants, actions) all see
	// the complete state shape regardless of declaration order.
	for _, f := range sp.State.Fields {
		c.stateFields[f.Name] = c.resolveType(f.Type)
		c.stateOrder = append(c.stateOrder, f.Name)
	}
	// Pass 2: check each initializer against an EMPTY scope — state
	// initializers must be pure and reference nothing else at all, not
	// even a sibling state field (spec.md §3's "initializer expression
	// (pure: ... no references to sibling state fields)"). inferExpr's
	// stdlib/literal handling still applies; only identifier resolution
	// is denied here.
	for _, f := range sp.State.Fields {
		for _, name := range identifiersIn(f.Init) {
			if _, ok := c.stateFields[name]; ok {
				c.errorf(diag.E503UnknownIdentifier, f.Sp, "state initializer for %q references sibling state field %q; initializers must be pure", f.Name, name)
			}
		}
		c.inferExpr(f.Init, newScope(nil, false))
	}
}

func (c *Checker) collectDerived(sp *ast.SpaceDecl) {
	if sp.Derived == nil {
		return
	}
	// Pass 1: resolve every derived field's declared type up front, same
	// reasoning as collectState's pass 1 — later lookups (actions, views,
	// other derived fields) need the complete derived shape regardless of
	// declaration order.
	for _, f := range sp.Derived.Fields {
		c.derivedFields[f.Name] = c.resolveType(f.Type)
		c.derivedOrder = append(c.derivedOrder, f.Name)
	}
	// Pass 2: derived expressions may only reference state and derived
	// fields declared earlier in the block (spec.md §4.4); a reference to
	// the field itself or to one declared later is a cycle, E301 — checked
	// against "available", not the full derivedFields map, so this is
	// reported distinctly from E503's generic unresolved-name case.
	available := map[string]bool{}
	for name := range c.stateFields {
		available[name] = true
	}
	for _, f := range sp.Derived.Fields {
		for _, name := range identifiersIn(f.Expr) {
			if _, isDerived := c.derivedFields[name]; isDerived && !available[name] {
				c.errorf(diag.E301DerivedCycle, f.Sp, "derived field %q references %q, which is not yet available (self-reference or forward reference)", f.Name, name)
			}
		}
		s := newScope(nil, false)
		c.inferExpr(f.Expr, s)
		available[f.Name] = true
	}
}

func (c *Checker) collectCapabilitiesAndCredentials(sp *ast.SpaceDecl) {
	if sp.Capabilities != nil {
		for _, r := range sp.Capabilities.Required {
			c.capsRequired[r] = true
		}
		for _, o := range sp.Capabilities.Optional {
			c.capsOptional[o] = true
		}
	}
	if sp.Credentials != nil {
		for _, n := range sp.Credentials.Names {
			c.credentials[n] = true
		}
	}
}

// capabilityDeclared reports whether module is covered by a declared
// capability (required or optional) — spec.md §3/§4.4 E400.
func (c *Checker) capabilityDeclared(module string) bool {
	return c.capsRequired[module] || c.capsOptional[module]
}

