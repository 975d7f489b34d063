package eval

import (
	"math"

	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/trap"
	"github.com/pepl-lang/pepl/internal/value"
)

// evalExpr evaluates expr in environment en against the current state/
// derived fields, returning a runtime trap as a Go error on failure
// (spec.md §4.5).
func (e *Evaluator) evalExpr(expr ast.Expression, en *env) (value.Value, error) {
	switch ex := expr.(type) {
	case *ast.NumberLit:
		return value.Number(ex.Value), nil
	case *ast.BoolLit:
		return value.Bool(ex.Value), nil
	case *ast.NilLit:
		return value.Nil{}, nil
	case *ast.InterpolatedString:
		return e.evalInterpolatedString(ex, en)
	case *ast.ListLit:
		elems := make([]value.Value, len(ex.Elements))
		for i, el := range ex.Elements {
			v, err := e.evalExpr(el, en)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &value.List{Elems: elems}, nil
	case *ast.RecordLit:
		rec := value.NewRecord()
		for _, f := range ex.Fields {
			v, err := e.evalExpr(f.Value, en)
			if err != nil {
				return nil, err
			}
			rec = rec.Set(f.Name, v)
		}
		return rec, nil
	case *ast.UnaryExpr:
		return e.evalUnary(ex, en)
	case *ast.BinaryExpr:
		return e.evalBinary(ex, en)
	case *ast.Identifier:
		return e.evalIdentifier(ex, en)
	case *ast.MemberExpr:
		return e.evalMember(ex, en)
	case *ast.CallExpr:
		return e.evalCall(ex, en)
	case *ast.QualifiedCallExpr:
		return e.evalQualifiedCall(ex, en)
	case *ast.TryExpr:
		return e.evalTry(ex, en)
	case *ast.LambdaExpr:
		return &value.Function{Params: paramNames(ex.Params), Body: ex, Env: en}, nil
	case *ast.MatchExpr:
		return e.evalMatch(ex, en)
	case *ast.ComponentExpr:
		return nil, trap.New(trap.NilAccess, "internal error: component expression evaluated outside a view")
	default:
		return nil, trap.New(trap.NilAccess, "internal error: unhandled expression node")
	}
}

func paramNames(params []*ast.Param) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name
	}
	return out
}

func (e *Evaluator) evalInterpolatedString(s *ast.InterpolatedString, en *env) (value.Value, error) {
	if len(s.Parts) == 1 && s.Parts[0].Expr == nil {
		return value.String(s.Parts[0].Literal), nil
	}
	out := ""
	for _, p := range s.Parts {
		if p.Expr == nil {
			out += p.Literal
			continue
		}
		v, err := e.evalExpr(p.Expr, en)
		if err != nil {
			return nil, err
		}
		out += value.ToString(v)
	}
	return value.String(out), nil
}

func (e *Evaluator) evalUnary(u *ast.UnaryExpr, en *env) (value.Value, error) {
	v, err := e.evalExpr(u.Operand, en)
	if err != nil {
		return nil, err
	}
	switch u.Op {
	case "not":
		return value.Bool(!bool(v.(value.Bool))), nil
	case "-":
		return value.Number(-float64(v.(value.Number))), nil
	default:
		return nil, trap.New(trap.NilAccess, "internal error: unknown unary operator "+u.Op)
	}
}

func (e *Evaluator) evalBinary(b *ast.BinaryExpr, en *env) (value.Value, error) {
	switch b.Op {
	case "and":
		l, err := e.evalExpr(b.Left, en)
		if err != nil {
			return nil, err
		}
		if !bool(l.(value.Bool)) {
			return value.Bool(false), nil
		}
		r, err := e.evalExpr(b.Right, en)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "or":
		l, err := e.evalExpr(b.Left, en)
		if err != nil {
			return nil, err
		}
		if bool(l.(value.Bool)) {
			return value.Bool(true), nil
		}
		r, err := e.evalExpr(b.Right, en)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "??":
		l, err := e.evalExpr(b.Left, en)
		if err != nil {
			return nil, err
		}
		if _, isNil := l.(value.Nil); !isNil {
			return l, nil
		}
		return e.evalExpr(b.Right, en)
	}

	l, err := e.evalExpr(b.Left, en)
	if err != nil {
		return nil, err
	}
	r, err := e.evalExpr(b.Right, en)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	case "==":
		return value.Bool(value.Equal(l, r)), nil
	case "!=":
		return value.Bool(!value.Equal(l, r)), nil
	case "<", ">", "<=", ">=":
		lf, rf := float64(l.(value.Number)), float64(r.(value.Number))
		switch b.Op {
		case "<":
			return value.Bool(lf < rf), nil
		case ">":
			return value.Bool(lf > rf), nil
		case "<=":
			return value.Bool(lf <= rf), nil
		default:
			return value.Bool(lf >= rf), nil
		}
	case "+", "-", "*", "/", "%":
		lf, rf := float64(l.(value.Number)), float64(r.(value.Number))
		if (b.Op == "/" || b.Op == "%") && rf == 0 {
			return nil, trap.New(trap.DivisionByZero, "")
		}
		var result float64
		switch b.Op {
		case "+":
			result = lf + rf
		case "-":
			result = lf - rf
		case "*":
			result = lf * rf
		case "/":
			result = lf / rf
		case "%":
			result = math.Mod(lf, rf)
		}
		if math.IsNaN(result) {
			return nil, trap.New(trap.NaNResult, "")
		}
		return value.Number(result), nil
	default:
		return nil, trap.New(trap.NilAccess, "internal error: unknown binary operator "+b.Op)
	}
}

func (e *Evaluator) evalIdentifier(id *ast.Identifier, en *env) (value.Value, error) {
	if v, ok := en.lookup(id.Name); ok {
		return v, nil
	}
	if v, ok := e.state[id.Name]; ok {
		return v, nil
	}
	if v, ok := e.derived[id.Name]; ok {
		return v, nil
	}
	if e.prog.Space.Credentials != nil {
		for _, c := range e.prog.Space.Credentials.Names {
			if c == id.Name {
				return e.lookupCredential(id.Name)
			}
		}
	}
	if _, ok := e.actions[id.Name]; ok {
		return ActionRef{Name: id.Name}, nil
	}
	return nil, trap.New(trap.NilAccess, "undefined name "+id.Name)
}

func (e *Evaluator) evalMember(m *ast.MemberExpr, en *env) (value.Value, error) {
	t, err := e.evalExpr(m.Target, en)
	if err != nil {
		return nil, err
	}
	rec, ok := t.(*value.Record)
	if !ok {
		return nil, trap.New(trap.NilAccess, "nil."+m.Field)
	}
	v, ok := rec.Get(m.Field)
	if !ok {
		return value.Nil{}, nil
	}
	return v, nil
}

// evalCall handles `callee(args...)`: Ok/Err construction, user sum-variant
// construction, and calls to an action or a lambda value. Views are not
// callable here.
func (e *Evaluator) evalCall(c *ast.CallExpr, en *env) (value.Value, error) {
	args := make([]value.Value, len(c.Args))
	for i, a := range c.Args {
		v, err := e.evalExpr(a, en)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	id, isIdent := c.Callee.(*ast.Identifier)
	if isIdent {
		switch id.Name {
		case "Ok":
			if len(args) == 0 {
				return value.OkResult(value.Nil{}), nil
			}
			return value.OkResult(args[0]), nil
		case "Err":
			if len(args) == 0 {
				return value.ErrResult(value.Nil{}), nil
			}
			return value.ErrResult(args[0]), nil
		}
		if typeName, ok := e.variantOwner[id.Name]; ok {
			var payload value.Value
			if len(args) > 0 {
				payload = args[0]
			}
			return value.SumVariant{Type: typeName, Name: id.Name, Payload: payload}, nil
		}
		if _, ok := e.actions[id.Name]; ok {
			return e.callAction(id.Name, args)
		}
		if v, ok := en.lookup(id.Name); ok {
			if fn, ok := v.(*value.Function); ok {
				return e.applyFunction(fn, args)
			}
		}
	}

	callee, err := e.evalExpr(c.Callee, en)
	if err != nil {
		return nil, err
	}
	if ref, ok := callee.(ActionRef); ok {
		return e.callAction(ref.Name, args)
	}
	fn, ok := callee.(*value.Function)
	if !ok {
		return nil, trap.New(trap.NilAccess, "call target is not callable")
	}
	return e.applyFunction(fn, args)
}

func (e *Evaluator) evalQualifiedCall(c *ast.QualifiedCallExpr, en *env) (value.Value, error) {
	args := make([]value.Value, len(c.Args))
	for i, a := range c.Args {
		v, err := e.evalExpr(a, en)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return e.callQualified(c.Module, c.Function, args, en)
}

func (e *Evaluator) evalTry(t *ast.TryExpr, en *env) (value.Value, error) {
	v, err := e.evalExpr(t.Operand, en)
	if err != nil {
		return nil, err
	}
	res, ok := v.(value.Result)
	if !ok {
		return nil, trap.New(trap.NilAccess, "`?` applied to a non-Result value")
	}
	if res.Ok {
		return res.Payload, nil
	}
	return nil, trap.New(trap.ResultUnwrapOnErr, value.ToString(res.Payload))
}

// applyFunction invokes a lambda closure, charging one call's worth of gas
// (spec.md §4.5's "charge 1 unit per function/action call").
func (e *Evaluator) applyFunction(fn *value.Function, args []value.Value) (value.Value, error) {
	if err := e.chargeGas(1); err != nil {
		return nil, err
	}
	body := fn.Body.(*ast.LambdaExpr)
	captured, _ := fn.Env.(*env)
	call := newEnv(captured)
	for i, p := range fn.Params {
		if i < len(args) {
			call.bind(p, args[i])
		}
	}
	v, returned, err := e.execBlock(body.Body, call, execCtx{})
	if err != nil {
		return nil, err
	}
	if !returned {
		return value.Nil{}, nil
	}
	return v, nil
}

// ActionRef is a first-class reference to a declared action, produced when
// a bare identifier names an action (spec.md §4.4's UI-prop action
// reference rule) rather than being called. The embedded value.Nil only
// supplies value.Value's unexported marker method.
type ActionRef struct {
	value.Nil
	Name string
}

func (ActionRef) Kind() string { return "action_ref" }
