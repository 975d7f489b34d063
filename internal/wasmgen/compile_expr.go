package wasmgen

import (
	"fmt"

	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/trap"
	"github.com/pepl-lang/pepl/internal/types"
)

// scope is a lexical chain of local-variable bindings, mirroring
// internal/eval/env.go's parent-linked environment but resolving to a
// WASM local index instead of a value.Value.
type scope struct {
	parent *scope
	vars   map[string]localBinding
}

type localBinding struct {
	idx  uint32
	kind types.Kind
}

func newScope(parent *scope) *scope { return &scope{parent: parent, vars: map[string]localBinding{}} }

func (s *scope) bind(name string, idx uint32, kind types.Kind) { s.vars[name] = localBinding{idx: idx, kind: kind} }

func (s *scope) lookup(name string) (localBinding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.vars[name]; ok {
			return b, true
		}
	}
	return localBinding{}, false
}

// fctx threads the per-function compilation state compileExpr/compileStmt
// need: the code builder, the current lexical scope, and the labels of
// the function's two nested control blocks (compile_action.go wraps every
// action/update body in an outer `block $trap_exit` containing an inner
// `block $body_exit`; a trap branches to the outer one, skipping
// invariant-check/commit entirely, while `return` branches only to the
// inner one so invariant checking and commit still run — matching the
// "compute into shadow locals, commit only on full success" design
// documented in DESIGN.md).
type fctx struct {
	gen         *Generator
	c           *codeBuilder
	sc          *scope
	exitLabel   string // trap target: skips straight past invariant-check/commit to the final return
	returnLabel string // return-statement target: resumes at invariant-check/commit, matching spec.md's "return exits early but keeps effects so far, invariants still apply"
	trapLocal   uint32 // i32 local holding the trap code to return once exitLabel is reached
}

// raiseTrap stores code in trapLocal and branches to the function's trap
// exit, also notifying the host via env.log with msg (when non-empty,
// e.g. an invariant's name) before env.trap. The function itself never
// uses WASM `unreachable`: spec.md's action semantics require the
// instance to keep serving later dispatches after a trapped one, which a
// hard WASM trap would prevent (see DESIGN.md).
func (fc *fctx) raiseTrap(code int32, msg string) {
	if msg != "" {
		off := fc.gen.internStringData(padTo4(msg))
		fc.c.I32Const(off)
		fc.c.I32Const(int32(len(msg)))
		fc.c.Call(fc.gen.importLog)
	}
	fc.c.I32Const(code)
	fc.c.Call(fc.gen.importTrap)
	fc.c.I32Const(code)
	fc.c.LocalSet(fc.trapLocal)
	fc.c.branchTo(fc.exitLabel)
}

// compileExpr emits code leaving exactly one boxed i32 pointer on the
// stack for expr, returning the resolved type.Kind of that value. Only
// the subset of spec.md §3 expressions this generation pass supports
// (number/bool/nil/string literals and operators, identifiers, Ok/Err
// construction, `?`, math.*/capability calls) is handled; anything else
// (list/record/lambda/match literals, qualified calls outside math/
// capability modules) returns an error naming the unsupported node so
// Generate can report it rather than emit code that would diverge from
// the reference evaluator.
func (fc *fctx) compileExpr(expr ast.Expression) (types.Kind, error) {
	switch e := expr.(type) {
	case *ast.NumberLit:
		fc.c.F64Const(e.Value)
		fc.c.Call(fc.gen.rt.boxNumber)
		return types.Number, nil
	case *ast.BoolLit:
		if e.Value {
			fc.c.I32Const(1)
		} else {
			fc.c.I32Const(0)
		}
		fc.c.Call(fc.gen.rt.boxBool)
		return types.Bool, nil
	case *ast.NilLit:
		fc.c.Call(fc.gen.rt.boxNil)
		return types.NilK, nil
	case *ast.InterpolatedString:
		return fc.compileStringLit(e)
	case *ast.Identifier:
		return fc.compileIdentifier(e)
	case *ast.UnaryExpr:
		return fc.compileUnary(e)
	case *ast.BinaryExpr:
		return fc.compileBinary(e)
	case *ast.TryExpr:
		return fc.compileTry(e)
	case *ast.CallExpr:
		return fc.compileCall(e)
	case *ast.QualifiedCallExpr:
		return fc.compileQualifiedCall(e)
	default:
		return types.Any, fmt.Errorf("wasmgen: unsupported expression for codegen: %T", expr)
	}
}

func (fc *fctx) compileStringLit(s *ast.InterpolatedString) (types.Kind, error) {
	if len(s.Parts) != 1 || s.Parts[0].Expr != nil {
		return types.Any, fmt.Errorf("wasmgen: interpolated strings are not supported for codegen (evaluator-only; see DESIGN.md)")
	}
	lit := s.Parts[0].Literal
	padded := padTo4(lit)
	off := fc.gen.internStringData(padded)
	fc.c.I32Const(off)
	fc.c.I32Const(int32(len(lit)))
	fc.c.Call(fc.gen.rt.boxString)
	return types.StringK, nil
}

// padTo4 pads a literal's backing bytes to a multiple of 4 so
// rt.boxString's word-at-a-time copy loop (runtime.go) never reads past
// the literal's data segment; boxString still records the true length,
// so the padding bytes never surface to a reader.
func padTo4(s string) []byte {
	b := []byte(s)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

func (fc *fctx) compileIdentifier(id *ast.Identifier) (types.Kind, error) {
	if b, ok := fc.sc.lookup(id.Name); ok {
		fc.c.LocalGet(b.idx)
		return b.kind, nil
	}
	if g, ok := fc.gen.stateGlobal[id.Name]; ok {
		fc.c.GlobalGet(g)
		return fc.gen.stateKind[id.Name], nil
	}
	if g, ok := fc.gen.derivedGlobal[id.Name]; ok {
		fc.c.GlobalGet(g)
		return fc.gen.derivedKind[id.Name], nil
	}
	return types.Any, fmt.Errorf("wasmgen: unsupported identifier for codegen: %s (actions-as-values and credentials are evaluator-only in this pass)", id.Name)
}

func (fc *fctx) compileUnary(u *ast.UnaryExpr) (types.Kind, error) {
	kind, err := fc.compileExpr(u.Operand)
	if err != nil {
		return types.Any, err
	}
	switch u.Op {
	case "not":
		if kind != types.Bool {
			return types.Any, fmt.Errorf("wasmgen: `not` requires bool operand")
		}
		tmp := fc.c.newLocal(valtypeI32)
		fc.c.LocalSet(tmp)
		fc.c.LocalGet(tmp)
		fc.c.Call(fc.gen.rt.unboxBool)
		fc.c.I32Eqz()
		fc.c.Call(fc.gen.rt.boxBool)
		return types.Bool, nil
	case "-":
		if kind != types.Number {
			return types.Any, fmt.Errorf("wasmgen: unary `-` requires number operand")
		}
		tmp := fc.c.newLocal(valtypeI32)
		fc.c.LocalSet(tmp)
		fc.c.LocalGet(tmp)
		fc.c.Call(fc.gen.rt.unboxNumber)
		fc.c.F64Neg()
		fc.c.Call(fc.gen.rt.boxNumber)
		return types.Number, nil
	default:
		return types.Any, fmt.Errorf("wasmgen: unsupported unary operator %q", u.Op)
	}
}

func (fc *fctx) compileBinary(b *ast.BinaryExpr) (types.Kind, error) {
	switch b.Op {
	case "and", "or":
		return fc.compileShortCircuit(b)
	case "??":
		return fc.compileCoalesce(b)
	}

	lk, err := fc.compileExpr(b.Left)
	if err != nil {
		return types.Any, err
	}
	lPtr := fc.c.newLocal(valtypeI32)
	fc.c.LocalSet(lPtr)

	rk, err := fc.compileExpr(b.Right)
	if err != nil {
		return types.Any, err
	}
	rPtr := fc.c.newLocal(valtypeI32)
	fc.c.LocalSet(rPtr)

	switch b.Op {
	case "==", "!=":
		fc.c.LocalGet(lPtr)
		fc.c.LocalGet(rPtr)
		fc.c.Call(fc.gen.rt.equal)
		if b.Op == "!=" {
			fc.c.I32Eqz()
		}
		fc.c.Call(fc.gen.rt.boxBool)
		return types.Bool, nil
	}

	if lk != types.Number || rk != types.Number {
		return types.Any, fmt.Errorf("wasmgen: operator %q requires number operands for codegen", b.Op)
	}

	lf := fc.c.newLocal(valtypeF64)
	rf := fc.c.newLocal(valtypeF64)
	fc.c.LocalGet(lPtr)
	fc.c.Call(fc.gen.rt.unboxNumber)
	fc.c.LocalSet(lf)
	fc.c.LocalGet(rPtr)
	fc.c.Call(fc.gen.rt.unboxNumber)
	fc.c.LocalSet(rf)

	switch b.Op {
	case "+", "-", "*", "/", "%":
		if b.Op == "/" || b.Op == "%" {
			fc.c.LocalGet(rf)
			fc.c.F64Const(0)
			fc.c.F64Eq()
			fc.c.enterIf("divzero", 0x40)
			fc.raiseTrap(trapCode(trap.DivisionByZero), "")
			fc.c.leaveBlock()
		}
		fc.c.LocalGet(lf)
		fc.c.LocalGet(rf)
		switch b.Op {
		case "+":
			fc.c.F64Add()
		case "-":
			fc.c.F64Sub()
		case "*":
			fc.c.F64Mul()
		case "/":
			fc.c.F64Div()
		case "%":
			// a % b = a - b*trunc(a/b)
			div := fc.c.newLocal(valtypeF64)
			fc.c.F64Div()
			fc.c.LocalSet(div)
			fc.c.LocalGet(div)
			fc.c.op(0x9e) // f64.trunc
			fc.c.LocalSet(div)
			fc.c.LocalGet(lf)
			fc.c.LocalGet(rf)
			fc.c.LocalGet(div)
			fc.c.F64Mul()
			fc.c.F64Sub()
		}
		result := fc.c.newLocal(valtypeF64)
		fc.c.LocalSet(result)
		fc.c.LocalGet(result)
		fc.c.LocalGet(result)
		fc.c.F64Ne() // NaN check: x != x iff NaN
		fc.c.enterIf("nanresult", 0x40)
		fc.raiseTrap(trapCode(trap.NaNResult), "")
		fc.c.leaveBlock()
		fc.c.LocalGet(result)
		fc.c.Call(fc.gen.rt.boxNumber)
		return types.Number, nil
	case "<", ">", "<=", ">=":
		fc.c.LocalGet(lf)
		fc.c.LocalGet(rf)
		switch b.Op {
		case "<":
			fc.c.F64Lt()
		case ">":
			fc.c.F64Gt()
		case "<=":
			fc.c.F64Le()
		case ">=":
			fc.c.F64Ge()
		}
		fc.c.Call(fc.gen.rt.boxBool)
		return types.Bool, nil
	default:
		return types.Any, fmt.Errorf("wasmgen: unsupported binary operator %q", b.Op)
	}
}

// compileShortCircuit lowers `and`/`or` to `if`, evaluating the right
// operand only when necessary, matching internal/eval's evalBinary.
func (fc *fctx) compileShortCircuit(b *ast.BinaryExpr) (types.Kind, error) {
	lk, err := fc.compileExpr(b.Left)
	if err != nil {
		return types.Any, err
	}
	if lk != types.Bool {
		return types.Any, fmt.Errorf("wasmgen: %q requires bool operands", b.Op)
	}
	lPtr := fc.c.newLocal(valtypeI32)
	fc.c.LocalSet(lPtr)
	fc.c.LocalGet(lPtr)
	fc.c.Call(fc.gen.rt.unboxBool)
	if b.Op == "or" {
		fc.c.I32Eqz()
	}
	fc.c.enterIf("shortcircuit", valtypeI32)
	rk, err := fc.compileExpr(b.Right)
	if err != nil {
		return types.Any, err
	}
	if rk != types.Bool {
		return types.Any, fmt.Errorf("wasmgen: %q requires bool operands", b.Op)
	}
	fc.c.Else()
	fc.c.LocalGet(lPtr)
	fc.c.leaveBlock()
	return types.Bool, nil
}

func (fc *fctx) compileCoalesce(b *ast.BinaryExpr) (types.Kind, error) {
	if _, err := fc.compileExpr(b.Left); err != nil {
		return types.Any, err
	}
	lPtr := fc.c.newLocal(valtypeI32)
	fc.c.LocalSet(lPtr)
	fc.c.LocalGet(lPtr)
	fc.c.I32Load(offTag)
	fc.c.I32Const(tagNil)
	fc.c.I32Eq()
	fc.c.enterIf("coalesce", valtypeI32)
	rk, err := fc.compileExpr(b.Right)
	if err != nil {
		return types.Any, err
	}
	fc.c.Else()
	fc.c.LocalGet(lPtr)
	fc.c.leaveBlock()
	return rk, nil
}

func (fc *fctx) compileTry(t *ast.TryExpr) (types.Kind, error) {
	kind, err := fc.compileExpr(t.Operand)
	if err != nil {
		return types.Any, err
	}
	if kind != types.ResultK && kind != types.Any {
		return types.Any, fmt.Errorf("wasmgen: `?` requires a Result-typed operand")
	}
	ptr := fc.c.newLocal(valtypeI32)
	fc.c.LocalSet(ptr)
	fc.c.LocalGet(ptr)
	fc.c.I32Load(offLenVar) // 1 = ok, 0 = err
	fc.c.I32Eqz()
	fc.c.enterIf("tryerr", 0x40)
	fc.raiseTrap(trapCode(trap.ResultUnwrapOnErr), "")
	fc.c.leaveBlock()
	fc.c.LocalGet(ptr)
	fc.c.I32Load(offPayload)
	return types.Any, nil
}

// compileCall handles Ok(...)/Err(...) construction; every other call
// form (user action/lambda calls, sum-variant construction) is out of
// scope for this generation pass (action-calling-action needs the
// caller's shadow-state threaded into the callee, and lambdas/variants
// need the heap value kinds this pass doesn't box; see DESIGN.md).
func (fc *fctx) compileCall(call *ast.CallExpr) (types.Kind, error) {
	id, ok := call.Callee.(*ast.Identifier)
	if !ok {
		return types.Any, fmt.Errorf("wasmgen: unsupported call target for codegen")
	}
	switch id.Name {
	case "Ok", "Err":
		isOk := int32(0)
		if id.Name == "Ok" {
			isOk = 1
		}
		if len(call.Args) == 0 {
			fc.c.Call(fc.gen.rt.boxNil)
		} else if _, err := fc.compileExpr(call.Args[0]); err != nil {
			return types.Any, err
		}
		inner := fc.c.newLocal(valtypeI32)
		fc.c.LocalSet(inner)
		fc.c.I32Const(isOk)
		fc.c.LocalGet(inner)
		fc.c.Call(fc.gen.rt.boxResult)
		return types.ResultK, nil
	default:
		return types.Any, fmt.Errorf("wasmgen: calls to %q are evaluator-only in this pass (no action-calling-action, lambda values, or sum-variant construction)", id.Name)
	}
}

// compileQualifiedCall supports math.sqrt (lowered to the f64.sqrt
// opcode) and capability calls, lowered to the generic env.host_call
// import. Every other stdlib function, including the rest of math, is
// evaluator-only in this pass.
func (fc *fctx) compileQualifiedCall(q *ast.QualifiedCallExpr) (types.Kind, error) {
	if q.Module == "math" {
		switch q.Function {
		case "sqrt":
			if len(q.Args) != 1 {
				return types.Any, fmt.Errorf("wasmgen: math.sqrt takes one argument")
			}
			if _, err := fc.compileExpr(q.Args[0]); err != nil {
				return types.Any, err
			}
			ptr := fc.c.newLocal(valtypeI32)
			fc.c.LocalSet(ptr)
			fc.c.LocalGet(ptr)
			fc.c.Call(fc.gen.rt.unboxNumber)
			v := fc.c.newLocal(valtypeF64)
			fc.c.LocalSet(v)
			fc.c.LocalGet(v)
			fc.c.F64Const(0)
			fc.c.F64Lt()
			fc.c.enterIf("sqrtneg", 0x40)
			fc.raiseTrap(trapCode(trap.NaNResult), "")
			fc.c.leaveBlock()
			fc.c.LocalGet(v)
			fc.c.F64Sqrt()
			fc.c.Call(fc.gen.rt.boxNumber)
			return types.Number, nil
		}
	}
	if id := capabilityID(q.Module); id != 0 {
		return fc.compileCapabilityCall(q, id)
	}
	return types.Any, fmt.Errorf("wasmgen: %s.%s is evaluator-only in this pass (stdlib surface beyond math.sqrt and capability calls)", q.Module, q.Function)
}

// compileCapabilityCall lowers a capability call to env.host_call. Since
// this pass only boxes number/bool/nil/string, argument marshaling is
// limited to a single string argument (the common shape for storage/http
// key/URL parameters); calls needing a record argument are unsupported.
func (fc *fctx) compileCapabilityCall(q *ast.QualifiedCallExpr, capID int32) (types.Kind, error) {
	nameLit := q.Module + "." + q.Function
	nameOff := fc.gen.internStringData(padTo4(nameLit))

	var argPtr, argLen int32
	if len(q.Args) == 1 {
		if lit, ok := q.Args[0].(*ast.InterpolatedString); ok && len(lit.Parts) == 1 && lit.Parts[0].Expr == nil {
			padded := padTo4(lit.Parts[0].Literal)
			argPtr = fc.gen.internStringData(padded)
			argLen = int32(len(lit.Parts[0].Literal))
		} else {
			return types.Any, fmt.Errorf("wasmgen: capability call arguments must be string literals for codegen")
		}
	} else if len(q.Args) != 0 {
		return types.Any, fmt.Errorf("wasmgen: capability calls take at most one argument for codegen")
	}

	fc.c.I32Const(capID)
	fc.c.I32Const(nameOff)
	fc.c.I32Const(int32(len(nameLit)))
	fc.c.I32Const(argPtr)
	fc.c.I32Const(argLen)
	fc.c.Call(fc.gen.importHostCall)
	return types.ResultK, nil
}
