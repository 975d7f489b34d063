package wasmgen

import (
	"testing"

	"github.com/pepl-lang/pepl/internal/checker"
	"github.com/pepl-lang/pepl/internal/parser"
)

func mustGenerate(t *testing.T, src string) *GenResult {
	t.Helper()
	prog, perrs := parser.Parse("t.pepl", src)
	if perrs.HasErrors() {
		t.Fatalf("unexpected parse errors: %+v", perrs.Errors)
	}
	res, cerrs := checker.Check("t.pepl", src, prog)
	if cerrs.HasErrors() {
		t.Fatalf("unexpected check errors: %+v", cerrs.Errors)
	}
	gr, err := Generate(prog, res)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return gr
}

func TestGenerateCounterModuleCompilesAction(t *testing.T) {
	gr := mustGenerate(t, `state {
  count: number = 0
}

action increment() {
  set count = count + 1
}
`)
	if len(gr.SkippedActions) != 0 {
		t.Fatalf("unexpected skipped actions: %+v", gr.SkippedActions)
	}
	if len(gr.CompiledActions) != 1 || gr.CompiledActions[0] != "increment" {
		t.Fatalf("CompiledActions = %v, want [increment]", gr.CompiledActions)
	}
	if len(gr.Wasm) == 0 {
		t.Fatalf("expected non-empty module bytes")
	}
	if err := Validate(gr.Wasm); err != nil {
		t.Fatalf("module failed validation: %v", err)
	}
}

func TestGenerateWithInvariantAndDerivedField(t *testing.T) {
	gr := mustGenerate(t, `state {
  count: number = 0
}

derived {
  doubled: number = count * 2
}

invariant nonNegative {
  count >= 0
}

action decrement() {
  set count = count - 1
}
`)
	if len(gr.SkippedActions) != 0 {
		t.Fatalf("unexpected skipped actions: %+v", gr.SkippedActions)
	}
	if err := Validate(gr.Wasm); err != nil {
		t.Fatalf("module failed validation: %v", err)
	}
}

func TestGenerateUpdateHook(t *testing.T) {
	gr := mustGenerate(t, `state {
  elapsed: number = 0
}

update(dt) {
  set elapsed = elapsed + dt
}
`)
	if !gr.CompiledUpdate {
		t.Fatalf("expected update to compile, got skip reason %q", gr.SkippedUpdate)
	}
	if err := Validate(gr.Wasm); err != nil {
		t.Fatalf("module failed validation: %v", err)
	}
}

func TestGenerateSkipsUnsupportedAction(t *testing.T) {
	gr := mustGenerate(t, `state {
  count: number = 0
}

action addOne(n: number) {
  set count = list.len(list.push([], n))
}
`)
	if _, ok := gr.SkippedActions["addOne"]; !ok {
		t.Fatalf("expected addOne to be reported skipped, got compiled=%v skipped=%v", gr.CompiledActions, gr.SkippedActions)
	}
	if len(gr.CompiledActions) != 0 {
		t.Fatalf("unexpected compiled actions: %v", gr.CompiledActions)
	}
}

func TestGenerateReturnStillCommitsAndChecksInvariants(t *testing.T) {
	gr := mustGenerate(t, `state {
  count: number = 0
}

invariant nonNegative {
  count >= 0
}

action tryDecrement(n: number) {
  if n <= 0 {
    return
  }
  set count = count - n
}
`)
	if len(gr.SkippedActions) != 0 {
		t.Fatalf("unexpected skipped actions: %+v", gr.SkippedActions)
	}
	if err := Validate(gr.Wasm); err != nil {
		t.Fatalf("module failed validation: %v", err)
	}
}
