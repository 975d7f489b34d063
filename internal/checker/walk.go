package checker

import "github.com/pepl-lang/pepl/internal/ast"

// identifiersIn collects every bare Identifier name referenced anywhere
// inside expr, used by the invariant/derived purity checks (E300, E301)
// to detect a disallowed reference without a full dataflow pass.
func identifiersIn(expr ast.Expression) []string {
	var out []string
	var walk func(ast.Expression)
	walk = func(e ast.Expression) {
		if e == nil {
			return
		}
		switch v := e.(type) {
		case *ast.Identifier:
			out = append(out, v.Name)
		case *ast.InterpolatedString:
			for _, p := range v.Parts {
				walk(p.Expr)
			}
		case *ast.ListLit:
			for _, el := range v.Elements {
				walk(el)
			}
		case *ast.RecordLit:
			for _, f := range v.Fields {
				walk(f.Value)
			}
		case *ast.UnaryExpr:
			walk(v.Operand)
		case *ast.BinaryExpr:
			walk(v.Left)
			walk(v.Right)
		case *ast.CallExpr:
			walk(v.Callee)
			for _, a := range v.Args {
				walk(a)
			}
		case *ast.QualifiedCallExpr:
			for _, a := range v.Args {
				walk(a)
			}
		case *ast.MemberExpr:
			walk(v.Target)
		case *ast.TryExpr:
			walk(v.Operand)
		case *ast.MatchExpr:
			walk(v.Scrutinee)
			for _, arm := range v.Arms {
				walk(arm.Guard)
				walk(arm.BodyExpr)
			}
		}
	}
	walk(expr)
	return out
}
