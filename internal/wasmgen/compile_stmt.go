package wasmgen

import (
	"fmt"

	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/types"
)

// compileBlock compiles stmts in order, mirroring internal/eval/stmt.go's
// execBlock shape but emitting bytecode instead of interpreting. for
// statements are unsupported in this pass (spec.md's only iteration
// construct needs list values, out of scope here), as is any `set` with a
// nested field path (record codegen is evaluator-only).
func (fc *fctx) compileBlock(stmts []ast.Statement) error {
	for _, st := range stmts {
		if err := fc.compileStmt(st); err != nil {
			return err
		}
	}
	return nil
}

func (fc *fctx) compileStmt(st ast.Statement) error {
	switch s := st.(type) {
	case *ast.LetStmt:
		kind, err := fc.compileExpr(s.Value)
		if err != nil {
			return err
		}
		if s.Discard {
			fc.c.Drop()
			return nil
		}
		idx := fc.c.newLocal(valtypeI32)
		fc.c.LocalSet(idx)
		fc.sc.bind(s.Name, idx, kind)
		return nil
	case *ast.SetStmt:
		return fc.compileSet(s)
	case *ast.IfStmt:
		return fc.compileIf(s)
	case *ast.ReturnStmt:
		if s.Value != nil {
			if _, err := fc.compileExpr(s.Value); err != nil {
				return err
			}
			fc.c.Drop() // actions/hooks report only a trap code; the value itself has no ABI home in this pass
		}
		// Exits the body early but still falls through to invariant
		// checking and commit, matching spec.md's "return keeps effects
		// so far" action semantics (see fctx.returnLabel).
		fc.c.branchTo(fc.returnLabel)
		return nil
	case *ast.ExprStmt:
		_, err := fc.compileExpr(s.Expr)
		if err != nil {
			return err
		}
		fc.c.Drop()
		return nil
	case *ast.ForStmt:
		return fmt.Errorf("wasmgen: for-loops are evaluator-only in this pass (iteration needs list values)")
	case *ast.AssertStmt:
		return fmt.Errorf("wasmgen: assert is only valid in test bodies, which this pass does not compile")
	default:
		return fmt.Errorf("wasmgen: unsupported statement for codegen: %T", st)
	}
}

func (fc *fctx) compileSet(s *ast.SetStmt) error {
	if len(s.Path) != 1 {
		return fmt.Errorf("wasmgen: nested `set a.b.c = ...` is evaluator-only in this pass (record codegen out of scope)")
	}
	name := s.Path[0]
	kind, err := fc.compileExpr(s.Value)
	if err != nil {
		return err
	}
	if b, ok := fc.sc.lookup(name); ok {
		fc.c.LocalSet(b.idx)
		fc.sc.vars[name] = localBinding{idx: b.idx, kind: kind}
		return nil
	}
	if g, ok := fc.gen.stateGlobal[name]; ok {
		fc.c.GlobalSet(g)
		return nil
	}
	return fmt.Errorf("wasmgen: set target %q is not a known local or state field", name)
}

func (fc *fctx) compileIf(s *ast.IfStmt) error {
	kind, err := fc.compileExpr(s.Cond)
	if err != nil {
		return err
	}
	if kind != types.Bool {
		return fmt.Errorf("wasmgen: if condition must be bool")
	}
	fc.c.Call(fc.gen.rt.unboxBool)
	fc.c.enterIf("if", 0x40)
	if err := fc.compileBlock(s.Then); err != nil {
		return err
	}
	if len(s.ElseIfs) > 0 || s.Else != nil {
		fc.c.Else()
		if err := fc.compileElseChain(s.ElseIfs, s.Else); err != nil {
			return err
		}
	}
	fc.c.leaveBlock()
	return nil
}

func (fc *fctx) compileElseChain(elseIfs []ast.ElseIf, els []ast.Statement) error {
	if len(elseIfs) == 0 {
		return fc.compileBlock(els)
	}
	head := elseIfs[0]
	kind, err := fc.compileExpr(head.Cond)
	if err != nil {
		return err
	}
	if kind != types.Bool {
		return fmt.Errorf("wasmgen: else-if condition must be bool")
	}
	fc.c.Call(fc.gen.rt.unboxBool)
	fc.c.enterIf("elseif", 0x40)
	if err := fc.compileBlock(head.Body); err != nil {
		return err
	}
	fc.c.Else()
	if err := fc.compileElseChain(elseIfs[1:], els); err != nil {
		return err
	}
	fc.c.leaveBlock()
	return nil
}
