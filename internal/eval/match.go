package eval

import (
	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/trap"
	"github.com/pepl-lang/pepl/internal/value"
)

func (e *Evaluator) evalMatch(m *ast.MatchExpr, en *env) (value.Value, error) {
	scrutinee, err := e.evalExpr(m.Scrutinee, en)
	if err != nil {
		return nil, err
	}
	arm, armEnv, err := e.selectArm(scrutinee, m.Arms, en)
	if err != nil {
		return nil, err
	}
	if arm.BodyExpr != nil {
		return e.evalExpr(arm.BodyExpr, armEnv)
	}
	v, returned, err := e.execBlock(arm.BodyBlock, armEnv, execCtx{})
	if err != nil {
		return nil, err
	}
	if !returned {
		return value.Nil{}, nil
	}
	return v, nil
}

// selectArm walks m's arms in declaration order (spec.md §3: first
// matching arm wins) and returns the first whose pattern matches
// scrutinee and whose guard (if any) is true, along with a child
// environment carrying any bindings the pattern introduced.
func (e *Evaluator) selectArm(scrutinee value.Value, arms []*ast.MatchArm, en *env) (*ast.MatchArm, *env, error) {
	for _, arm := range arms {
		armEnv := newEnv(en)
		matched, err := e.matchPattern(arm.Pattern, scrutinee, armEnv)
		if err != nil {
			return nil, nil, err
		}
		if !matched {
			continue
		}
		if arm.Guard != nil {
			g, err := e.evalExpr(arm.Guard, armEnv)
			if err != nil {
				return nil, nil, err
			}
			if !bool(g.(value.Bool)) {
				continue
			}
		}
		return arm, armEnv, nil
	}
	return nil, nil, trap.New(trap.NilAccess, "no match arm matched at runtime")
}

func (e *Evaluator) matchPattern(p ast.Pattern, scrutinee value.Value, armEnv *env) (bool, error) {
	switch pat := p.(type) {
	case *ast.WildcardPattern:
		return true, nil
	case *ast.LiteralPattern:
		v, err := e.evalExpr(pat.Value, armEnv)
		if err != nil {
			return false, err
		}
		return value.Equal(v, scrutinee), nil
	case *ast.VariantPattern:
		switch sv := scrutinee.(type) {
		case value.Result:
			wantOk := pat.Name == "Ok"
			if sv.Ok != wantOk {
				return false, nil
			}
			if pat.Binding != "" {
				armEnv.bind(pat.Binding, sv.Payload)
			}
			return true, nil
		case value.SumVariant:
			if sv.Name != pat.Name {
				return false, nil
			}
			if pat.Binding != "" {
				armEnv.bind(pat.Binding, sv.Payload)
			}
			return true, nil
		default:
			return false, nil
		}
	case *ast.IdentPattern:
		if sv, ok := scrutinee.(value.SumVariant); ok && sv.Name == pat.Name {
			return true, nil
		}
		armEnv.bind(pat.Name, scrutinee)
		return true, nil
	default:
		return false, trap.New(trap.NilAccess, "internal error: unhandled pattern node")
	}
}
