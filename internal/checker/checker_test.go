package checker

import (
	"testing"

	"github.com/pepl-lang/pepl/internal/parser"
)

func mustCheck(t *testing.T, src string) (*Result, []string) {
	t.Helper()
	prog, perrs := parser.Parse("t.pepl", src)
	if perrs.HasErrors() {
		t.Fatalf("unexpected parse errors: %+v", perrs.Errors)
	}
	res, errs := Check("t.pepl", src, prog)
	codes := make([]string, len(errs.Errors))
	for i, e := range errs.Errors {
		codes[i] = e.Code
	}
	return res, codes
}

func hasCode(codes []string, want string) bool {
	for _, c := range codes {
		if c == want {
			return true
		}
	}
	return false
}

func TestCheckCounterProgramIsClean(t *testing.T) {
	src := `state {
  count: number = 0
}

action increment() {
  set count = count + 1
}

view label() {
  Text { content: "hi" }
}
`
	res, codes := mustCheck(t, src)
	if len(codes) != 0 {
		t.Fatalf("expected no errors, got %+v", codes)
	}
	if len(res.StateFields) != 1 || res.StateFields[0].Name != "count" {
		t.Fatalf("got %+v", res.StateFields)
	}
}

func TestCheckInvariantReferencingDerivedIsError(t *testing.T) {
	src := `state {
  items: list<number> = []
}

derived {
  total: number = list.sum(items)
}

invariant bad {
  total >= 0
}

action noop() {
  set items = items
}
`
	_, codes := mustCheck(t, src)
	if !hasCode(codes, "E300") {
		t.Fatalf("expected E300, got %+v", codes)
	}
}

func TestCheckSetOnUndeclaredField(t *testing.T) {
	src := `state {
  x: number = 0
}

action bad() {
  set y = 1
}
`
	_, codes := mustCheck(t, src)
	if !hasCode(codes, "E101") {
		t.Fatalf("expected E101, got %+v", codes)
	}
}

func TestCheckSetOutsideAction(t *testing.T) {
	src := `state {
  x: number = 0
}

view bad() {
  set x = 1
  Text { content: "hi" }
}
`
	_, codes := mustCheck(t, src)
	if !hasCode(codes, "E501") {
		t.Fatalf("expected E501, got %+v", codes)
	}
	if hasCode(codes, "E101") {
		t.Fatalf("unexpected E101 in %+v", codes)
	}
}

func TestCheckCapabilityCallWithoutDeclaration(t *testing.T) {
	src := `state {
  x: number = 0
}

action fetch() {
  let r = http.get("https://example.com")?
}
`
	_, codes := mustCheck(t, src)
	if !hasCode(codes, "E400") {
		t.Fatalf("expected E400, got %+v", codes)
	}
}

func TestCheckCapabilityCallWithDeclarationIsClean(t *testing.T) {
	src := `state {
  x: number = 0
}

capabilities {
  required: [http]
}

action fetch() {
  let r = http.get("https://example.com")?
}
`
	_, codes := mustCheck(t, src)
	if hasCode(codes, "E400") {
		t.Fatalf("unexpected E400 in %+v", codes)
	}
}

func TestCheckNonExhaustiveMatch(t *testing.T) {
	src := `type Traffic { Red, Yellow, Green }

state {
  light: Traffic = Red
}

action cycle() {
  let desc = match light {
    Red -> "stop"
  }
}

view label() {
  Text { content: "x" }
}
`
	_, codes := mustCheck(t, src)
	if !hasCode(codes, "E210") {
		t.Fatalf("expected E210, got %+v", codes)
	}
}

func TestCheckShadowingIsError(t *testing.T) {
	src := `state {
  x: number = 0
}

action bad(x: number) {
  set x = x
}
`
	_, codes := mustCheck(t, src)
	if !hasCode(codes, "E500") {
		t.Fatalf("expected E500, got %+v", codes)
	}
}

func TestCheckDerivedForwardReferenceIsError(t *testing.T) {
	src := `state {
  x: number = 0
}

derived {
  a: number = b
  b: number = x
}

action noop() {
  set x = x
}
`
	_, codes := mustCheck(t, src)
	if !hasCode(codes, "E301") {
		t.Fatalf("expected E301, got %+v", codes)
	}
}

func TestCheckDerivedBackwardReferenceIsClean(t *testing.T) {
	src := `state {
  x: number = 0
}

derived {
  b: number = x
  a: number = b
}

action noop() {
  set x = x
}
`
	_, codes := mustCheck(t, src)
	if hasCode(codes, "E301") {
		t.Fatalf("unexpected E301 in %+v", codes)
	}
}

func TestCheckRecursionCycle(t *testing.T) {
	src := `state {
  x: number = 0
}

action a() {
  b()
}

action b() {
  a()
}
`
	_, codes := mustCheck(t, src)
	if !hasCode(codes, "E502") {
		t.Fatalf("expected E502, got %+v", codes)
	}
}
