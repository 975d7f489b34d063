package checker

import (
	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/diag"
	"github.com/pepl-lang/pepl/internal/stdlib"
	"github.com/pepl-lang/pepl/internal/types"
)

// inferExpr type-checks expr in scope s and returns its resolved type.
// On error it records a diagnostic and returns types.TAny so the walk can
// keep going and collect further diagnostics in the same pass (spec.md
// §4.1's up-to-20-errors batching).
func (c *Checker) inferExpr(expr ast.Expression, s *scope) types.Type {
	switch e := expr.(type) {
	case *ast.NumberLit:
		return types.TNumber
	case *ast.BoolLit:
		return types.TBool
	case *ast.NilLit:
		return types.TNil
	case *ast.InterpolatedString:
		for _, p := range e.Parts {
			if p.Expr != nil {
				c.inferExpr(p.Expr, s)
			}
		}
		return types.TString
	case *ast.ListLit:
		var elem types.Type = types.TAny
		for i, el := range e.Elements {
			t := c.inferExpr(el, s)
			if i == 0 {
				elem = t
			}
		}
		return types.List(elem)
	case *ast.RecordLit:
		fields := make([]types.RecordField, len(e.Fields))
		for i, f := range e.Fields {
			fields[i] = types.RecordField{Name: f.Name, Type: c.inferExpr(f.Value, s)}
		}
		return types.Record(fields...)
	case *ast.UnaryExpr:
		return c.inferUnary(e, s)
	case *ast.BinaryExpr:
		return c.inferBinary(e, s)
	case *ast.Identifier:
		return c.inferIdentifier(e, s)
	case *ast.MemberExpr:
		return c.inferMember(e, s)
	case *ast.CallExpr:
		return c.inferCall(e, s)
	case *ast.QualifiedCallExpr:
		return c.inferQualifiedCall(e, s)
	case *ast.TryExpr:
		return c.inferTry(e, s)
	case *ast.LambdaExpr:
		return c.inferLambda(e, s)
	case *ast.MatchExpr:
		return c.inferMatch(e, s)
	case *ast.ComponentExpr:
		return c.inferComponent(e, s)
	default:
		return types.TAny
	}
}

func (c *Checker) inferUnary(e *ast.UnaryExpr, s *scope) types.Type {
	t := c.inferExpr(e.Operand, s)
	switch e.Op {
	case "not":
		if !t.Equals(types.TBool) && t.K != types.Any {
			c.errorf(diag.E201ArgTypeMismatch, e.Sp, "`not` requires bool, got %s", t)
		}
		return types.TBool
	case "-":
		if !t.Equals(types.TNumber) && t.K != types.Any {
			c.errorf(diag.E201ArgTypeMismatch, e.Sp, "unary `-` requires number, got %s", t)
		}
		return types.TNumber
	default:
		return types.TAny
	}
}

func (c *Checker) inferBinary(e *ast.BinaryExpr, s *scope) types.Type {
	lt := c.inferExpr(e.Left, s)
	rt := c.inferExpr(e.Right, s)
	switch e.Op {
	case "+", "-", "*", "/", "%":
		// `+` is numbers-only: PEPL has no string concatenation operator,
		// strings use interpolation instead (spec.md §4.4).
		if lt.K != types.Any && !lt.Equals(types.TNumber) {
			c.errorf(diag.E201ArgTypeMismatch, e.Sp, "%s requires number operands, got %s", e.Op, lt)
		}
		if rt.K != types.Any && !rt.Equals(types.TNumber) {
			c.errorf(diag.E201ArgTypeMismatch, e.Sp, "%s requires number operands, got %s", e.Op, rt)
		}
		return types.TNumber
	case "and", "or":
		if lt.K != types.Any && !lt.Equals(types.TBool) {
			c.errorf(diag.E201ArgTypeMismatch, e.Sp, "%s requires bool operands, got %s", e.Op, lt)
		}
		if rt.K != types.Any && !rt.Equals(types.TBool) {
			c.errorf(diag.E201ArgTypeMismatch, e.Sp, "%s requires bool operands, got %s", e.Op, rt)
		}
		return types.TBool
	case "==", "!=":
		return types.TBool
	case "<", ">", "<=", ">=":
		if lt.K != types.Any && !lt.Equals(types.TNumber) {
			c.errorf(diag.E201ArgTypeMismatch, e.Sp, "%s requires number operands, got %s", e.Op, lt)
		}
		if rt.K != types.Any && !rt.Equals(types.TNumber) {
			c.errorf(diag.E201ArgTypeMismatch, e.Sp, "%s requires number operands, got %s", e.Op, rt)
		}
		return types.TBool
	case "??":
		if lt.K != types.Nullable && lt.K != types.Any && lt.K != types.NilK {
			c.errorf(diag.E201ArgTypeMismatch, e.Sp, "`??` requires a nullable left side, got %s", lt)
			return rt
		}
		if lt.K == types.Nullable {
			return *lt.Elem
		}
		return rt
	default:
		return types.TAny
	}
}

func (c *Checker) inferIdentifier(e *ast.Identifier, s *scope) types.Type {
	if t, ok := s.lookup(e.Name); ok {
		return t
	}
	if t, ok := c.stateFields[e.Name]; ok {
		return t
	}
	if t, ok := c.derivedFields[e.Name]; ok {
		return t
	}
	if c.credentials[e.Name] {
		return types.TString
	}
	if _, ok := c.actions[e.Name]; ok {
		// A bare identifier naming a declared action is a first-class
		// action reference, used as a UI prop value (spec.md §4.3).
		return types.TAny
	}
	for typeName, variants := range c.variants {
		if containsStr(variants, e.Name) {
			return types.NamedT(typeName)
		}
	}
	c.errorf(diag.E503UnknownIdentifier, e.Sp, "undefined name %q", e.Name)
	return types.TAny
}

func (c *Checker) inferMember(e *ast.MemberExpr, s *scope) types.Type {
	t := c.inferExpr(e.Target, s)
	if t.K == types.Nullable {
		c.errorf(diag.E201ArgTypeMismatch, e.Sp, "%s may be nil; narrow with `if != nil` before accessing .%s", t, e.Field)
		t = *t.Elem
	}
	if t.K == types.RecordK {
		for _, f := range t.Fields {
			if f.Name == e.Field {
				if f.Optional {
					return types.NullableOf(f.Type)
				}
				return f.Type
			}
		}
		c.errorf(diag.E201ArgTypeMismatch, e.Sp, "record has no field %q", e.Field)
	}
	return types.TAny
}

func (c *Checker) inferCall(e *ast.CallExpr, s *scope) types.Type {
	if id, ok := e.Callee.(*ast.Identifier); ok && (id.Name == "Ok" || id.Name == "Err") {
		inner := types.TNil
		if len(e.Args) > 0 {
			inner = c.inferExpr(e.Args[0], s)
		}
		if id.Name == "Ok" {
			return types.Result(inner, types.TAny)
		}
		return types.Result(types.TAny, inner)
	}
	ct := c.inferExpr(e.Callee, s)
	for _, a := range e.Args {
		c.inferExpr(a, s)
	}
	if ct.K == types.FuncK {
		if len(e.Args) != len(ct.Params) {
			c.errorf(diag.E202ArityMismatch, e.Sp, "expected %d argument(s), got %d", len(ct.Params), len(e.Args))
		}
		return *ct.Return
	}
	return types.TAny
}

func (c *Checker) inferQualifiedCall(e *ast.QualifiedCallExpr, s *scope) types.Type {
	argTypes := make([]types.Type, len(e.Args))
	for i, a := range e.Args {
		argTypes[i] = c.inferExpr(a, s)
	}
	fn, ok := stdlib.Lookup(e.Module, e.Function)
	if !ok {
		c.errorf(diag.E202ArityMismatch, e.Sp, "unknown stdlib function %s.%s", e.Module, e.Function)
		return types.TAny
	}
	if len(argTypes) != len(fn.Params) {
		c.errorf(diag.E202ArityMismatch, e.Sp, "%s.%s expects %d argument(s), got %d", e.Module, e.Function, len(fn.Params), len(argTypes))
	} else {
		for i, want := range fn.Params {
			if want.K != types.Any && argTypes[i].K != types.Any && !want.AssignableFrom(argTypes[i]) {
				c.errorf(diag.E201ArgTypeMismatch, e.Args[i].Span(), "%s.%s argument %d: expected %s, got %s", e.Module, e.Function, i+1, want, argTypes[i])
			}
		}
	}
	if fn.Capability != "" && !c.capabilityDeclared(fn.Module) {
		c.errorf(diag.E400CapabilityNotDeclared, e.Sp, "call to %s.%s requires a declared %q capability", e.Module, e.Function, fn.Module)
	}
	return fn.Return
}

func (c *Checker) inferTry(e *ast.TryExpr, s *scope) types.Type {
	t := c.inferExpr(e.Operand, s)
	if t.K != types.ResultK {
		c.errorf(diag.E201ArgTypeMismatch, e.Sp, "`?` requires a Result<T,E>, got %s", t)
		return types.TAny
	}
	return *t.Ok
}

func (c *Checker) inferLambda(e *ast.LambdaExpr, s *scope) types.Type {
	inner := newScope(s, true)
	if inner.lambdaDepth() > 3 {
		c.errorf(diag.E607StructuralLimit, e.Sp, "lambda nesting exceeds the limit of 3")
	}
	paramTypes := make([]types.Type, len(e.Params))
	for i, p := range e.Params {
		t := c.resolveType(p.Type)
		paramTypes[i] = t
		if !inner.declare(p.Name, t) {
			c.errorf(diag.E500Shadowing, p.Sp, "parameter %q shadows an outer binding", p.Name)
		}
	}
	ret := c.checkBlock(e.Body, inner, blockCtx{})
	return types.Func(paramTypes, ret)
}

func (c *Checker) inferMatch(e *ast.MatchExpr, s *scope) types.Type {
	scrutinee := c.inferExpr(e.Scrutinee, s)
	var result types.Type = types.TAny
	hasWildcard := false
	matchedVariants := map[string]bool{}
	for i, arm := range e.Arms {
		armScope := newScope(s, false)
		c.bindPattern(arm.Pattern, scrutinee, armScope)
		switch p := arm.Pattern.(type) {
		case *ast.WildcardPattern:
			hasWildcard = true
		case *ast.VariantPattern:
			matchedVariants[p.Name] = true
		case *ast.IdentPattern:
			if scrutinee.K == types.Named {
				if variants, ok := c.variants[scrutinee.Name]; ok && containsStr(variants, p.Name) {
					matchedVariants[p.Name] = true
				} else {
					hasWildcard = true // binds the whole value: acts as catch-all
				}
			} else {
				hasWildcard = true
			}
		}
		if arm.Guard != nil {
			c.inferExpr(arm.Guard, armScope)
		}
		var t types.Type
		if arm.BodyExpr != nil {
			t = c.inferExpr(arm.BodyExpr, armScope)
		} else {
			t = c.checkBlock(arm.BodyBlock, armScope, blockCtx{})
		}
		if i == 0 {
			result = t
		}
	}
	if !hasWildcard {
		if scrutinee.K == types.ResultK {
			if !matchedVariants["Ok"] || !matchedVariants["Err"] {
				c.errorf(diag.E210NonExhaustive, e.Sp, "match over Result must cover both Ok and Err, or use `_`")
			}
		} else if scrutinee.K == types.Named {
			for _, v := range c.variants[scrutinee.Name] {
				if !matchedVariants[v] {
					c.errorf(diag.E210NonExhaustive, e.Sp, "match over %s is missing variant %q", scrutinee.Name, v)
				}
			}
		}
	}
	return result
}

// bindPattern introduces any bindings a pattern contributes (VariantPattern
// payload binding, bare IdentPattern) into armScope.
func (c *Checker) bindPattern(p ast.Pattern, scrutinee types.Type, armScope *scope) {
	switch pat := p.(type) {
	case *ast.VariantPattern:
		if pat.Binding != "" {
			payload := payloadTypeFor(c, scrutinee, pat.Name)
			armScope.declare(pat.Binding, payload)
		}
	case *ast.IdentPattern:
		if scrutinee.K == types.Named {
			if variants, ok := c.variants[scrutinee.Name]; ok && containsStr(variants, pat.Name) {
				return // names a zero-payload variant, binds nothing
			}
		}
		armScope.declare(pat.Name, scrutinee)
	}
}

func payloadTypeFor(c *Checker, scrutinee types.Type, variantName string) types.Type {
	if scrutinee.K == types.ResultK {
		if variantName == "Ok" {
			return *scrutinee.Ok
		}
		return *scrutinee.Err
	}
	if scrutinee.K == types.Named {
		if td, ok := c.userTypes[scrutinee.Name]; ok {
			for _, v := range td.Variants {
				if v.Name == variantName && v.Payload != nil {
					return c.resolveType(v.Payload)
				}
			}
		}
	}
	return types.TAny
}

func containsStr(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func (c *Checker) inferComponent(e *ast.ComponentExpr, s *scope) types.Type {
	for _, p := range e.Props {
		if ident, ok := p.Value.(*ast.Identifier); ok {
			if _, isAction := c.actions[ident.Name]; isAction {
				continue // action reference prop, not a value expression
			}
		}
		c.inferExpr(p.Value, s)
	}
	for _, child := range e.Children {
		c.checkUIElement(child, s)
	}
	return types.TSurface
}

func (c *Checker) checkUIElement(el ast.UIElement, s *scope) {
	switch u := el.(type) {
	case *ast.ComponentExpr:
		c.inferComponent(u, s)
	case *ast.UIIf:
		c.inferExpr(u.Cond, s)
		for _, child := range u.Then {
			c.checkUIElement(child, s)
		}
		for _, ei := range u.ElseIfs {
			c.inferExpr(ei.Cond, s)
			for _, child := range ei.Body {
				c.checkUIElement(child, s)
			}
		}
		for _, child := range u.Else {
			c.checkUIElement(child, s)
		}
	case *ast.UIFor:
		it := c.inferExpr(u.Iterable, s)
		inner := newScope(s, false)
		elem := types.TAny
		if it.K == types.ListK {
			elem = *it.Elem
		}
		inner.declare(u.Item, elem)
		if u.Index != "" {
			inner.declare(u.Index, types.TNumber)
		}
		for _, child := range u.Body {
			c.checkUIElement(child, inner)
		}
	}
}
