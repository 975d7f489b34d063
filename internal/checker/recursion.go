package checker

import (
	"sort"

	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/diag"
)

// calleesIn walks a statement list and collects every name it calls: a
// plain identifier callee ("increment") for user-defined actions/views/
// lambdas, or "module.function" for qualified stdlib calls — the latter
// only matters to checkDeadDeclarations's capability-usage check, since
// stdlib functions can never participate in a recursion cycle.
func calleesIn(body []ast.Statement) []string {
	var out []string
	var walkExpr func(ast.Expression)
	var walkStmt func(ast.Statement)

	walkExpr = func(e ast.Expression) {
		if e == nil {
			return
		}
		switch v := e.(type) {
		case *ast.CallExpr:
			if id, ok := v.Callee.(*ast.Identifier); ok {
				out = append(out, id.Name)
			}
			for _, a := range v.Args {
				walkExpr(a)
			}
		case *ast.QualifiedCallExpr:
			out = append(out, v.Module+"."+v.Function)
			for _, a := range v.Args {
				walkExpr(a)
			}
		case *ast.InterpolatedString:
			for _, p := range v.Parts {
				walkExpr(p.Expr)
			}
		case *ast.ListLit:
			for _, el := range v.Elements {
				walkExpr(el)
			}
		case *ast.RecordLit:
			for _, f := range v.Fields {
				walkExpr(f.Value)
			}
		case *ast.UnaryExpr:
			walkExpr(v.Operand)
		case *ast.BinaryExpr:
			walkExpr(v.Left)
			walkExpr(v.Right)
		case *ast.MemberExpr:
			walkExpr(v.Target)
		case *ast.TryExpr:
			walkExpr(v.Operand)
		case *ast.LambdaExpr:
			for _, s := range v.Body {
				walkStmt(s)
			}
		case *ast.MatchExpr:
			walkExpr(v.Scrutinee)
			for _, arm := range v.Arms {
				walkExpr(arm.Guard)
				walkExpr(arm.BodyExpr)
				for _, s := range arm.BodyBlock {
					walkStmt(s)
				}
			}
		case *ast.ComponentExpr:
			for _, p := range v.Props {
				walkExpr(p.Value)
			}
		}
	}

	walkStmt = func(s ast.Statement) {
		switch st := s.(type) {
		case *ast.LetStmt:
			walkExpr(st.Value)
		case *ast.SetStmt:
			walkExpr(st.Value)
		case *ast.IfStmt:
			walkExpr(st.Cond)
			for _, b := range st.Then {
				walkStmt(b)
			}
			for _, ei := range st.ElseIfs {
				walkExpr(ei.Cond)
				for _, b := range ei.Body {
					walkStmt(b)
				}
			}
			for _, b := range st.Else {
				walkStmt(b)
			}
		case *ast.ForStmt:
			walkExpr(st.Iterable)
			for _, b := range st.Body {
				walkStmt(b)
			}
		case *ast.ReturnStmt:
			walkExpr(st.Value)
		case *ast.AssertStmt:
			walkExpr(st.Cond)
			walkExpr(st.Message)
		case *ast.ExprStmt:
			walkExpr(st.Expr)
		}
	}

	for _, s := range body {
		walkStmt(s)
	}
	return out
}

// checkRecursion builds a call graph across actions, views, update,
// handleEvent (lambdas are inlined into their enclosing declaration's
// callee list by calleesIn) and reports any cycle, including a direct
// self-call, as E502 (spec.md §4.4).
func (c *Checker) checkRecursion() {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var dfs func(name string) bool
	dfs = func(name string) bool {
		switch color[name] {
		case gray:
			return true
		case black:
			return false
		}
		color[name] = gray
		for _, callee := range c.callGraph[name] {
			if _, _, isQualified := c.qualifiedCalleeSplit(callee); isQualified {
				continue // stdlib calls never participate in a cycle
			}
			if _, ok := c.callGraph[callee]; ok && dfs(callee) {
				return true
			}
		}
		color[name] = black
		return false
	}

	// Iterate call-graph roots in sorted order: map iteration order must
	// never leak into output (spec.md §9), and with multiple independent
	// cycles this also fixes which one is reported first.
	names := make([]string, 0, len(c.callGraph))
	for name := range c.callGraph {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if color[name] == white && dfs(name) {
			c.errorf(diag.E502Recursion, c.prog.Space.Sp, "recursion cycle detected involving %q", name)
			return
		}
	}
}
