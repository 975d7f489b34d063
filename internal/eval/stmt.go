package eval

import (
	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/trap"
	"github.com/pepl-lang/pepl/internal/value"
)

// execCtx carries the handful of facts a statement needs about its
// dispatch context: whether `set` is legal here (action/update/handleEvent
// bodies only, per spec.md §3).
type execCtx struct {
	inAction bool
}

// execBlock runs stmts in order against en, returning (value, true, nil)
// if a `return` fired, or (nil, false, nil) on falling off the end.
func (e *Evaluator) execBlock(stmts []ast.Statement, en *env, ctx execCtx) (value.Value, bool, error) {
	for _, st := range stmts {
		v, returned, err := e.execStmt(st, en, ctx)
		if err != nil {
			return nil, false, err
		}
		if returned {
			return v, true, nil
		}
	}
	return nil, false, nil
}

func (e *Evaluator) execStmt(stmt ast.Statement, en *env, ctx execCtx) (value.Value, bool, error) {
	switch st := stmt.(type) {
	case *ast.LetStmt:
		v, err := e.evalExpr(st.Value, en)
		if err != nil {
			return nil, false, err
		}
		if !st.Discard {
			en.bind(st.Name, v)
		}
		return nil, false, nil
	case *ast.SetStmt:
		if !ctx.inAction {
			return nil, false, trap.New(trap.NilAccess, "internal error: set statement reached outside action context")
		}
		if err := e.execSet(st, en); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	case *ast.IfStmt:
		return e.execIf(st, en, ctx)
	case *ast.ForStmt:
		return e.execFor(st, en, ctx)
	case *ast.ReturnStmt:
		if st.Value == nil {
			return value.Nil{}, true, nil
		}
		v, err := e.evalExpr(st.Value, en)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	case *ast.AssertStmt:
		v, err := e.evalExpr(st.Cond, en)
		if err != nil {
			return nil, false, err
		}
		if !bool(v.(value.Bool)) {
			msg := "assertion failed"
			if st.Message != nil {
				mv, err := e.evalExpr(st.Message, en)
				if err != nil {
					return nil, false, err
				}
				msg = value.ToString(mv)
			}
			return nil, false, trap.New(trap.AssertionFailed, msg)
		}
		return nil, false, nil
	case *ast.ExprStmt:
		_, err := e.evalExpr(st.Expr, en)
		if err != nil {
			return nil, false, err
		}
		return nil, false, nil
	default:
		return nil, false, trap.New(trap.NilAccess, "internal error: unhandled statement node")
	}
}

func (e *Evaluator) execSet(st *ast.SetStmt, en *env) error {
	v, err := e.evalExpr(st.Value, en)
	if err != nil {
		return err
	}
	if len(st.Path) == 1 {
		e.setStateField(st.Path[0], v)
		return nil
	}
	root := st.Path[0]
	rootVal, ok := e.state[root]
	if !ok {
		rootVal = value.Nil{}
	}
	newRoot, err := setNestedField(rootVal, st.Path[1:], v)
	if err != nil {
		return err
	}
	e.setStateField(root, newRoot)
	return nil
}

// setNestedField rebuilds the immutable record chain along path so that
// `set a.b.c = x` replaces only the path from the root to c, leaving every
// sibling field (and every other state field) untouched (spec.md §4.5).
func setNestedField(cur value.Value, path []string, newVal value.Value) (value.Value, error) {
	rec, ok := cur.(*value.Record)
	if !ok {
		return nil, trap.New(trap.NilAccess, "set target is not a record")
	}
	if len(path) == 1 {
		return rec.Set(path[0], newVal), nil
	}
	child, ok := rec.Get(path[0])
	if !ok {
		return nil, trap.New(trap.NilAccess, "no such field "+path[0])
	}
	updated, err := setNestedField(child, path[1:], newVal)
	if err != nil {
		return nil, err
	}
	return rec.Set(path[0], updated), nil
}

func (e *Evaluator) execIf(st *ast.IfStmt, en *env, ctx execCtx) (value.Value, bool, error) {
	cond, err := e.evalExpr(st.Cond, en)
	if err != nil {
		return nil, false, err
	}
	if bool(cond.(value.Bool)) {
		return e.execBlock(st.Then, newEnv(en), ctx)
	}
	for _, ei := range st.ElseIfs {
		c, err := e.evalExpr(ei.Cond, en)
		if err != nil {
			return nil, false, err
		}
		if bool(c.(value.Bool)) {
			return e.execBlock(ei.Body, newEnv(en), ctx)
		}
	}
	if st.Else != nil {
		return e.execBlock(st.Else, newEnv(en), ctx)
	}
	return nil, false, nil
}

// execFor iterates st.Iterable, charging one gas unit per iteration entry
// (spec.md §4.5's "charge 1 unit per loop iteration entry").
func (e *Evaluator) execFor(st *ast.ForStmt, en *env, ctx execCtx) (value.Value, bool, error) {
	iterable, err := e.evalExpr(st.Iterable, en)
	if err != nil {
		return nil, false, err
	}
	list, ok := iterable.(*value.List)
	if !ok {
		return nil, false, trap.New(trap.NilAccess, "for loop target is not a list")
	}
	for i, elem := range list.Elems {
		if err := e.chargeGas(1); err != nil {
			return nil, false, err
		}
		iterEnv := newEnv(en)
		iterEnv.bind(st.Item, elem)
		if st.Index != "" {
			iterEnv.bind(st.Index, value.Number(i))
		}
		v, returned, err := e.execBlock(st.Body, iterEnv, ctx)
		if err != nil {
			return nil, false, err
		}
		if returned {
			return v, true, nil
		}
	}
	return nil, false, nil
}
