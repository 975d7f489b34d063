package wasmgen

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/checker"
	"github.com/pepl-lang/pepl/internal/stdlib"
	"github.com/pepl-lang/pepl/internal/trap"
	"github.com/pepl-lang/pepl/internal/types"
)

// GenResult is the outcome of compiling a checked program to WASM: the
// module bytes plus a report of which actions/hooks this generation pass
// could lower to bytecode and which it had to skip, so a caller (the
// pipeline's CompileResult, spec.md §6) can surface that honestly instead
// of silently shipping a module that only covers part of the space.
type GenResult struct {
	Wasm                []byte
	CompiledActions     []string
	SkippedActions      map[string]string
	CompiledUpdate      bool
	CompiledHandleEvent bool
	SkippedUpdate       string
	SkippedHandleEvent  string
}

// Generator holds the module-under-construction and the symbol tables
// shared across every compiled function. Grounded on
// _examples/open-policy-agent-opa/internal/compiler/wasm/wasm.go's
// `compiler` struct, which plays the same "one struct owns the module
// plus every IR->bytecode lowering pass" role for OPA's rego->wasm
// backend.
type Generator struct {
	m    *module
	g    globalRefs
	rt   runtimeFuncs
	prog *ast.Program
	res  *checker.Result

	importHostCall    int
	importLog         int
	importTrap        int
	importGetTimestamp int

	stateGlobal   map[string]uint32
	stateKind     map[string]types.Kind
	derivedGlobal map[string]uint32
	derivedKind   map[string]types.Kind

	actions map[string]*ast.ActionDecl

	dataOffset int32
	spans      []spanEntry // source map: (func name, instruction offset) -> line, built per function
}

type spanEntry struct {
	funcName string
	line     int
}

// Generate compiles prog (already type-checked, res is the checker's
// Result) to a WASM module. An action or update hook this pass can't lower
// (list/record/sum-variant/lambda/match/view-rendering and
// action-calling-action, per DESIGN.md) is recorded in GenResult's
// Skipped fields and simply not exported, so the rest of the space still
// gets a working module. A state or derived field whose type is not
// number, bool or string makes Generate return an error.
func Generate(prog *ast.Program, res *checker.Result) (*GenResult, error) {
	if prog.Space == nil {
		return nil, fmt.Errorf("wasmgen: program has no space declaration")
	}
	gen := &Generator{
		m:             newModule(),
		prog:          prog,
		res:           res,
		stateGlobal:   map[string]uint32{},
		stateKind:     map[string]types.Kind{},
		derivedGlobal: map[string]uint32{},
		derivedKind:   map[string]types.Kind{},
		actions:       map[string]*ast.ActionDecl{},
		dataOffset:    16,
	}
	for _, a := range prog.Space.Actions {
		gen.actions[a.Name] = a
	}

	gen.g.bump = uint32(gen.m.addGlobal(valtypeI32, true, constI32(heapBase)))
	gen.g.gas = uint32(gen.m.addGlobal(valtypeI32, true, constI32(0)))
	gen.g.nilv = uint32(gen.m.addGlobal(valtypeI32, true, constI32(0)))

	gen.importHostCall = gen.m.addImport(importHostCall, ft([]byte{valtypeI32, valtypeI32, valtypeI32, valtypeI32, valtypeI32}, []byte{valtypeI32}))
	gen.importLog = gen.m.addImport(importLog, ft([]byte{valtypeI32, valtypeI32}, nil))
	gen.importTrap = gen.m.addImport(importTrap, ft([]byte{valtypeI32}, nil))
	gen.importGetTimestamp = gen.m.addImport(importGetTimestamp, ft(nil, []byte{valtypeF64}))

	gen.rt = buildRuntime(gen.m, gen.g)

	for _, f := range res.StateFields {
		idx := uint32(gen.m.addGlobal(valtypeI32, true, constI32(0)))
		gen.stateGlobal[f.Name] = idx
		gen.stateKind[f.Name] = f.Type.K
	}
	for _, name := range res.DerivedOrder {
		idx := uint32(gen.m.addGlobal(valtypeI32, true, constI32(0)))
		gen.derivedGlobal[name] = idx
		for _, df := range prog.Space.Derived.Fields {
			if df.Name == name {
				gen.derivedKind[name] = gen.fieldDeclaredKind(df.Type)
			}
		}
	}

	gen.m.exportMemory(exportMemory)
	gen.m.exportFunc(exportAlloc, gen.rt.alloc)
	dealloc := addSimpleFunc(gen.m, []byte{valtypeI32, valtypeI32}, nil, func(c *codeBuilder) {})
	gen.m.exportFunc(exportDealloc, dealloc)

	// Boxing helpers are exported too: a host marshaling dispatch_action_*
	// arguments (or reading back a Result) needs to build/inspect tagged
	// values without duplicating the ABI's ad-hoc memory layout itself.
	gen.m.exportFunc("box_number", gen.rt.boxNumber)
	gen.m.exportFunc("unbox_number", gen.rt.unboxNumber)
	gen.m.exportFunc("box_bool", gen.rt.boxBool)
	gen.m.exportFunc("unbox_bool", gen.rt.unboxBool)
	gen.m.exportFunc("box_string", gen.rt.boxString)
	gen.m.exportFunc("box_nil", gen.rt.boxNil)
	gen.m.exportFunc("equal_values", gen.rt.equal)

	recompute, err := gen.compileRecomputeDerived()
	if err != nil {
		return nil, fmt.Errorf("wasmgen: derived fields unsupported for codegen: %w", err)
	}

	initIdx, err := gen.compileInit(recompute)
	if err != nil {
		return nil, fmt.Errorf("wasmgen: state initializers unsupported for codegen: %w", err)
	}
	gen.m.exportFunc(exportInit, initIdx)

	result := &GenResult{SkippedActions: map[string]string{}}

	// Sorted so module layout (and therefore wasm_hash, spec.md §6) is
	// deterministic regardless of map/slice iteration elsewhere.
	actionNames := make([]string, 0, len(gen.actions))
	for name := range gen.actions {
		actionNames = append(actionNames, name)
	}
	sort.Strings(actionNames)

	for _, name := range actionNames {
		a := gen.actions[name]
		idx, err := gen.compileDispatchAction(a, recompute)
		if err != nil {
			result.SkippedActions[name] = err.Error()
			continue
		}
		gen.m.exportFunc("dispatch_action_"+name, idx)
		result.CompiledActions = append(result.CompiledActions, name)
	}

	if prog.Space.Update != nil {
		idx, err := gen.compileUpdate(prog.Space.Update, recompute)
		if err != nil {
			result.SkippedUpdate = err.Error()
		} else {
			gen.m.exportFunc("update", idx)
			result.CompiledUpdate = true
		}
	}

	for name := range gen.stateGlobal {
		getIdx := gen.compileGetter(gen.stateGlobal[name])
		gen.m.exportFunc("get_state_"+name, getIdx)
	}
	for name := range gen.derivedGlobal {
		getIdx := gen.compileGetter(gen.derivedGlobal[name])
		gen.m.exportFunc("get_derived_"+name, getIdx)
	}

	gen.m.addCustom("pepl-compiler-version", []byte("1"))
	gen.m.addCustom("pepl-language-version", []byte("1"))
	gen.m.addCustom("pepl-source-map", gen.encodeSourceMap())

	result.Wasm = gen.m.Bytes()
	return result, nil
}

func constI32(v int32) []byte {
	var buf bytes.Buffer
	buf.WriteByte(0x41) // i32.const
	appendSleb32(&buf, v)
	return buf.Bytes()
}

// compileGetter emits a zero-argument function returning the current
// value of a global (used for get_state_<field>/get_derived_<field>
// exports: a host reads state for debugging/display without re-running
// dispatch_action).
func (g *Generator) compileGetter(global uint32) int {
	return addSimpleFunc(g.m, nil, []byte{valtypeI32}, func(c *codeBuilder) {
		c.GlobalGet(global)
		c.Return()
	})
}

func (g *Generator) fieldDeclaredKind(te ast.TypeExpr) types.Kind {
	switch t := te.(type) {
	case *ast.NamedType:
		switch t.Name {
		case "number":
			return types.Number
		case "bool":
			return types.Bool
		case "string":
			return types.StringK
		default:
			return types.Any
		}
	default:
		return types.Any
	}
}

func (g *Generator) encodeSourceMap() []byte {
	var out []byte
	for _, s := range g.spans {
		out = append(out, []byte(s.funcName)...)
		out = append(out, ':')
		out = append(out, []byte(fmt.Sprintf("%d", s.line))...)
		out = append(out, '\n')
	}
	return out
}

// internStringData appends a literal's (already 4-byte-padded) bytes as a
// new active data segment and returns its memory offset, bumping
// dataOffset past it for the next literal. Every call gets its own
// segment rather than deduplicating identical literals, trading a few
// bytes of module size for a much simpler generator.
func (g *Generator) internStringData(padded []byte) int32 {
	off := g.dataOffset
	g.m.addData(off, padded)
	g.dataOffset += int32(len(padded))
	return off
}

// trapCode resolves a trap kind to the numeric code generated code calls
// env.trap with, reusing trap.Code so the WASM ABI and the reference
// evaluator never disagree on trap numbering.
func trapCode(k trap.Kind) int32 { return trap.Code[k] }

// capabilityID resolves a stdlib module name to its WASM ABI capability
// id, reusing stdlib.CapabilityID so both backends assign the same ids.
func capabilityID(module string) int32 { return stdlib.CapabilityID(module) }
