package checker

import (
	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/diag"
	"github.com/pepl-lang/pepl/internal/types"
)

// resolveType turns an as-written ast.TypeExpr into a checked types.Type,
// rejecting `any` in user annotations (E200) and resolving named types
// against the pre-pass sum/alias registry (spec.md §4.4).
func (c *Checker) resolveType(te ast.TypeExpr) types.Type {
	switch t := te.(type) {
	case *ast.NamedType:
		switch t.Name {
		case "number":
			return types.TNumber
		case "string":
			return types.TString
		case "bool":
			return types.TBool
		case "nil":
			return types.TNil
		case "color":
			return types.TColor
		case "Surface":
			return types.TSurface
		case "InputEvent":
			return types.TEvent
		case "any":
			c.errorf(diag.E200AnyAnnotation, t.Sp, "`any` is not allowed in a user type annotation")
			return types.TAny
		default:
			if _, ok := c.userTypes[t.Name]; !ok {
				c.errorf(diag.E200AnyAnnotation, t.Sp, "unknown type %q", t.Name)
			}
			return types.NamedT(t.Name)
		}
	case *ast.ListType:
		return types.List(c.resolveType(t.Elem))
	case *ast.RecordType:
		fields := make([]types.RecordField, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = types.RecordField{Name: f.Name, Type: c.resolveType(f.Type), Optional: f.Optional}
		}
		return types.Record(fields...)
	case *ast.ResultType:
		return types.Result(c.resolveType(t.Ok), c.resolveType(t.Err))
	case *ast.FuncType:
		params := make([]types.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = c.resolveType(p)
		}
		return types.Func(params, c.resolveType(t.Return))
	case *ast.NullableType:
		return types.NullableOf(c.resolveType(t.Inner))
	default:
		return types.TAny
	}
}
