package checker

import (
	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/diag"
	"github.com/pepl-lang/pepl/internal/types"
)

// blockCtx threads the few facts statement-checking needs about its
// enclosing declaration: whether `set`/`return` are legal here, and the
// current `for` nesting depth (spec.md §3: for nesting <= 3).
type blockCtx struct {
	inAction bool
	forDepth int
}

// checkBlock checks every statement in stmts and returns the type of the
// last `return` value seen (types.TNil if the block never returns),
// approximating a function/lambda's inferred return type.
func (c *Checker) checkBlock(stmts []ast.Statement, s *scope, ctx blockCtx) types.Type {
	ret := types.TNil
	for _, stmt := range stmts {
		if t, ok := c.checkStmt(stmt, s, ctx); ok {
			ret = t
		}
	}
	return ret
}

func (c *Checker) checkStmt(stmt ast.Statement, s *scope, ctx blockCtx) (types.Type, bool) {
	switch st := stmt.(type) {
	case *ast.LetStmt:
		t := c.inferExpr(st.Value, s)
		if st.Type != nil {
			declared := c.resolveType(st.Type)
			if declared.K != types.Any && t.K != types.Any && !declared.AssignableFrom(t) {
				c.errorf(diag.E201ArgTypeMismatch, st.Sp, "let %s: declared %s, got %s", st.Name, declared, t)
			}
			t = declared
		}
		if !st.Discard && !s.declare(st.Name, t) {
			c.errorf(diag.E500Shadowing, st.Sp, "%q shadows an outer binding", st.Name)
		}
	case *ast.SetStmt:
		c.checkSet(st, s, ctx)
	case *ast.IfStmt:
		c.checkIf(st, s, ctx)
	case *ast.ForStmt:
		c.checkFor(st, s, ctx)
	case *ast.ReturnStmt:
		// `return` is only legal inside an action body (spec.md §4.4);
		// views are checked pure below and never reach here with a body
		// that type-checks, since view bodies build a Surface via
		// component expressions, not return statements.
		if st.Value != nil {
			return c.inferExpr(st.Value, s), true
		}
		return types.TNil, true
	case *ast.AssertStmt:
		c.inferExpr(st.Cond, s)
		if st.Message != nil {
			c.inferExpr(st.Message, s)
		}
	case *ast.ExprStmt:
		c.inferExpr(st.Expr, s)
	}
	return types.Type{}, false
}

func (c *Checker) checkSet(st *ast.SetStmt, s *scope, ctx blockCtx) {
	if !ctx.inAction {
		c.errorf(diag.E501SetOutsideAction, st.Sp, "`set` is only legal inside an action, update, or handleEvent body")
		return
	}
	root := st.Path[0]
	if c.credentials[root] {
		c.errorf(diag.E605CredentialAssign, st.Sp, "credential %q is read-only", root)
		return
	}
	if _, isDerived := c.derivedFields[root]; isDerived {
		c.errorf(diag.E601SetOnDerived, st.Sp, "%q is a derived field; derived fields are recomputed, not set", root)
		return
	}
	fieldType, ok := c.stateFields[root]
	if !ok {
		c.errorf(diag.E101SetUndeclared, st.Sp, "`set` target %q is not a declared state field", root)
		c.inferExpr(st.Value, s)
		return
	}
	cur := fieldType
	for _, seg := range st.Path[1:] {
		if cur.K == types.Nullable {
			cur = *cur.Elem
		}
		if cur.K != types.RecordK {
			c.errorf(diag.E201ArgTypeMismatch, st.Sp, "%s is not a record; cannot set field %q", cur, seg)
			cur = types.TAny
			break
		}
		found := false
		for _, f := range cur.Fields {
			if f.Name == seg {
				cur = f.Type
				found = true
				break
			}
		}
		if !found {
			c.errorf(diag.E201ArgTypeMismatch, st.Sp, "record has no field %q", seg)
			cur = types.TAny
			break
		}
	}
	vt := c.inferExpr(st.Value, s)
	if cur.K != types.Any && vt.K != types.Any && !cur.AssignableFrom(vt) {
		c.errorf(diag.E201ArgTypeMismatch, st.Sp, "set target has type %s, value has type %s", cur, vt)
	}
}

func (c *Checker) checkIf(st *ast.IfStmt, s *scope, ctx blockCtx) {
	c.inferExpr(st.Cond, s)
	thenScope := newScope(s, false)
	c.narrowNil(st.Cond, thenScope, true)
	c.checkBlock(st.Then, thenScope, ctx)

	for _, ei := range st.ElseIfs {
		c.inferExpr(ei.Cond, s)
		es := newScope(s, false)
		c.narrowNil(ei.Cond, es, true)
		c.checkBlock(ei.Body, es, ctx)
	}
	if st.Else != nil {
		elseScope := newScope(s, false)
		c.narrowNil(st.Cond, elseScope, false)
		c.checkBlock(st.Else, elseScope, ctx)
	}
}

// narrowNil implements spec.md §4.4's nil narrowing: `if x != nil { ... }`
// narrows x from T|nil to T inside the then-branch (positive=true), and
// symmetrically for `== nil` in the else-branch (positive=false). Only
// the direct `ident != nil` / `ident == nil` shape is recognized; compound
// conditions are left unnarrowed, matching a conservative first pass.
func (c *Checker) narrowNil(cond ast.Expression, target *scope, positive bool) {
	bin, ok := cond.(*ast.BinaryExpr)
	if !ok {
		return
	}
	ident, okIdent := bin.Left.(*ast.Identifier)
	if !okIdent {
		return
	}
	if _, isNil := bin.Right.(*ast.NilLit); !isNil {
		return
	}
	narrowsHere := (bin.Op == "!=" && positive) || (bin.Op == "==" && !positive)
	if !narrowsHere {
		return
	}
	t, ok := target.lookup(ident.Name)
	if !ok {
		if st, ok2 := c.stateFields[ident.Name]; ok2 {
			t = st
		} else {
			return
		}
	}
	if t.K == types.Nullable {
		target.names[ident.Name] = *t.Elem
		target.order = append(target.order, ident.Name)
	}
}

func (c *Checker) checkFor(st *ast.ForStmt, s *scope, ctx blockCtx) {
	ctx.forDepth++
	if ctx.forDepth > 3 {
		c.errorf(diag.E607StructuralLimit, st.Sp, "for nesting exceeds the limit of 3")
	}
	it := c.inferExpr(st.Iterable, s)
	if it.K != types.ListK && it.K != types.Any {
		c.errorf(diag.E201ArgTypeMismatch, st.Sp, "`for` requires a list, got %s", it)
	}
	inner := newScope(s, false)
	elem := types.TAny
	if it.K == types.ListK {
		elem = *it.Elem
	}
	if !inner.declare(st.Item, elem) {
		c.errorf(diag.E500Shadowing, st.Sp, "%q shadows an outer binding", st.Item)
	}
	if st.Index != "" {
		if !inner.declare(st.Index, types.TNumber) {
			c.errorf(diag.E500Shadowing, st.Sp, "%q shadows an outer binding", st.Index)
		}
	}
	c.checkBlock(st.Body, inner, ctx)
}
