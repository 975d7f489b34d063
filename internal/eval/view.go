package eval

import (
	"encoding/json"

	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/trap"
	"github.com/pepl-lang/pepl/internal/value"
)

// Surface is one node of the serializable tree a view produces by walking
// its body's component expressions (spec.md §3's view/UI grammar). A host
// renders a Surface tree directly; it never sees PEPL values or ASTs.
type Surface struct {
	Component string
	Props     map[string]interface{}
	Children  []*Surface
}

// MarshalJSON renders a Surface the way a host's UI layer expects it:
// `{"component": "...", "props": {...}, "children": [...]}`.
func (s *Surface) MarshalJSON() ([]byte, error) {
	props := make(map[string]interface{}, len(s.Props))
	for k, v := range s.Props {
		props[k] = v
	}
	return json.Marshal(struct {
		Component string                 `json:"component"`
		Props     map[string]interface{} `json:"props"`
		Children  []*Surface             `json:"children,omitempty"`
	}{Component: s.Component, Props: props, Children: s.Children})
}

// actionRefProp is a prop value naming an action rather than carrying a
// PEPL value, serialized as the `{ "__action": name }` sentinel spec.md §3
// describes for UI props bound directly to an action (e.g. a button's
// `onPress: increment`).
type actionRefProp struct {
	Action string
}

func (a actionRefProp) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Action string `json:"__action"`
	}{Action: a.Action})
}

// RenderView evaluates view name with args and walks its body to a Surface
// tree.
func (e *Evaluator) RenderView(name string, args []value.Value) (*Surface, error) {
	v, ok := e.views[name]
	if !ok {
		return nil, trap.New(trap.NilAccess, "no such view "+name)
	}
	en := newEnv(nil)
	for i, p := range v.Params {
		if i < len(args) {
			en.bind(p.Name, args[i])
		}
	}
	return e.renderBlock(v.Body, en)
}

// renderBlock executes stmts, treating the final return/expression
// statement as the block's produced Surface.
func (e *Evaluator) renderBlock(stmts []ast.Statement, en *env) (*Surface, error) {
	for i, st := range stmts {
		last := i == len(stmts)-1
		switch s := st.(type) {
		case *ast.LetStmt:
			v, err := e.evalExpr(s.Value, en)
			if err != nil {
				return nil, err
			}
			if !s.Discard {
				en.bind(s.Name, v)
			}
		case *ast.ReturnStmt:
			return e.renderExpr(s.Value, en)
		case *ast.IfStmt:
			if !last {
				if _, _, err := e.execStmt(s, en, execCtx{}); err != nil {
					return nil, err
				}
				continue
			}
			return e.renderIf(s, en)
		case *ast.ExprStmt:
			if last {
				return e.renderExpr(s.Expr, en)
			}
			if _, err := e.evalExpr(s.Expr, en); err != nil {
				return nil, err
			}
		default:
			if _, _, err := e.execStmt(st, en, execCtx{}); err != nil {
				return nil, err
			}
		}
	}
	return nil, trap.New(trap.NilAccess, "view body produced no component")
}

func (e *Evaluator) renderIf(st *ast.IfStmt, en *env) (*Surface, error) {
	cond, err := e.evalExpr(st.Cond, en)
	if err != nil {
		return nil, err
	}
	if bool(cond.(value.Bool)) {
		return e.renderBlock(st.Then, newEnv(en))
	}
	for _, ei := range st.ElseIfs {
		c, err := e.evalExpr(ei.Cond, en)
		if err != nil {
			return nil, err
		}
		if bool(c.(value.Bool)) {
			return e.renderBlock(ei.Body, newEnv(en))
		}
	}
	if st.Else != nil {
		return e.renderBlock(st.Else, newEnv(en))
	}
	return nil, trap.New(trap.NilAccess, "view body produced no component")
}

func (e *Evaluator) renderExpr(expr ast.Expression, en *env) (*Surface, error) {
	switch ex := expr.(type) {
	case *ast.ComponentExpr:
		return e.renderComponent(ex, en)
	case *ast.MatchExpr:
		scrutinee, err := e.evalExpr(ex.Scrutinee, en)
		if err != nil {
			return nil, err
		}
		arm, armEnv, err := e.selectArm(scrutinee, ex.Arms, en)
		if err != nil {
			return nil, err
		}
		if arm.BodyExpr != nil {
			return e.renderExpr(arm.BodyExpr, armEnv)
		}
		return e.renderBlock(arm.BodyBlock, armEnv)
	default:
		return nil, trap.New(trap.NilAccess, "view body did not produce a component")
	}
}

func (e *Evaluator) renderComponent(c *ast.ComponentExpr, en *env) (*Surface, error) {
	props := make(map[string]interface{}, len(c.Props))
	for _, p := range c.Props {
		if id, ok := p.Value.(*ast.Identifier); ok {
			if _, isAction := e.actions[id.Name]; isAction {
				props[p.Name] = actionRefProp{Action: id.Name}
				continue
			}
		}
		v, err := e.evalExpr(p.Value, en)
		if err != nil {
			return nil, err
		}
		props[p.Name] = valueToJSON(v)
	}
	children, err := e.renderUIElements(c.Children, en)
	if err != nil {
		return nil, err
	}
	return &Surface{Component: c.Name, Props: props, Children: children}, nil
}

func (e *Evaluator) renderUIElements(els []ast.UIElement, en *env) ([]*Surface, error) {
	var out []*Surface
	for _, el := range els {
		kids, err := e.renderUIElement(el, en)
		if err != nil {
			return nil, err
		}
		out = append(out, kids...)
	}
	return out, nil
}

func (e *Evaluator) renderUIElement(el ast.UIElement, en *env) ([]*Surface, error) {
	switch u := el.(type) {
	case *ast.ComponentExpr:
		s, err := e.renderComponent(u, en)
		if err != nil {
			return nil, err
		}
		return []*Surface{s}, nil
	case *ast.UIIf:
		cond, err := e.evalExpr(u.Cond, en)
		if err != nil {
			return nil, err
		}
		if bool(cond.(value.Bool)) {
			return e.renderUIElements(u.Then, en)
		}
		for _, ei := range u.ElseIfs {
			c, err := e.evalExpr(ei.Cond, en)
			if err != nil {
				return nil, err
			}
			if bool(c.(value.Bool)) {
				return e.renderUIElements(ei.Body, en)
			}
		}
		if u.Else != nil {
			return e.renderUIElements(u.Else, en)
		}
		return nil, nil
	case *ast.UIFor:
		iterable, err := e.evalExpr(u.Iterable, en)
		if err != nil {
			return nil, err
		}
		list, ok := iterable.(*value.List)
		if !ok {
			return nil, trap.New(trap.NilAccess, "ui for target is not a list")
		}
		var out []*Surface
		for i, elem := range list.Elems {
			iterEnv := newEnv(en)
			iterEnv.bind(u.Item, elem)
			if u.Index != "" {
				iterEnv.bind(u.Index, value.Number(i))
			}
			kids, err := e.renderUIElements(u.Body, iterEnv)
			if err != nil {
				return nil, err
			}
			out = append(out, kids...)
		}
		return out, nil
	default:
		return nil, trap.New(trap.NilAccess, "internal error: unhandled UI element node")
	}
}

// valueToJSON renders a runtime PEPL value the way a view's Surface props
// need it: plain Go scalars/maps/slices rather than the internal tagged
// union, so json.Marshal produces the shape a host expects.
func valueToJSON(v value.Value) interface{} {
	switch x := v.(type) {
	case value.Number:
		return float64(x)
	case value.String:
		return string(x)
	case value.Bool:
		return bool(x)
	case value.Nil:
		return nil
	case *value.List:
		out := make([]interface{}, len(x.Elems))
		for i, el := range x.Elems {
			out[i] = valueToJSON(el)
		}
		return out
	case *value.Record:
		out := make(map[string]interface{}, len(x.Names))
		for _, name := range x.Names {
			fv, _ := x.Get(name)
			out[name] = valueToJSON(fv)
		}
		return out
	case value.SumVariant:
		if x.Payload == nil {
			return x.Name
		}
		return map[string]interface{}{x.Name: valueToJSON(x.Payload)}
	case value.Color:
		return map[string]interface{}{"r": x.R, "g": x.G, "b": x.B, "a": x.A}
	default:
		return value.ToString(v)
	}
}
