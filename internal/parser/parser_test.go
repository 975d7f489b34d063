package parser

import (
	"testing"

	"github.com/pepl-lang/pepl/internal/ast"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, errs := Parse("t.pepl", src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %+v", errs.Errors)
	}
	return prog
}

func TestParseMinimalSpace(t *testing.T) {
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
	prog := mustParse(t, src)
	if prog.Space.State == nil || len(prog.Space.State.Fields) != 1 {
		t.Fatalf("expected one state field, got %+v", prog.Space.State)
	}
	if len(prog.Space.Actions) != 1 || prog.Space.Actions[0].Name != "increment" {
		t.Fatalf("expected action increment, got %+v", prog.Space.Actions)
	}
	if len(prog.Space.Views) != 1 || prog.Space.Views[0].Name != "label" {
		t.Fatalf("expected view label, got %+v", prog.Space.Views)
	}
}

func TestParseBlockOrderViolation(t *testing.T) {
	src := `action doit() {
  set x = 1
}

state {
  x: number = 0
}
`
	_, errs := Parse("t.pepl", src)
	if !errs.HasErrors() {
		t.Fatalf("expected E600, got none")
	}
	if errs.Errors[0].Code != "E600" {
		t.Fatalf("expected E600, got %s", errs.Errors[0].Code)
	}
}

func TestParseEmptyStateIsError(t *testing.T) {
	src := "state {\n}\n"
	_, errs := Parse("t.pepl", src)
	if len(errs.Errors) == 0 || errs.Errors[0].Code != "E606" {
		t.Fatalf("expected E606, got %+v", errs.Errors)
	}
}

func TestParseLambdaRequiresBlockBody(t *testing.T) {
	src := `state {
  x: number = 0
}

derived {
  doubled: number = x
}

action apply() {
  let f = (n: number) -> n * 2
}
`
	_, errs := Parse("t.pepl", src)
	found := false
	for _, e := range errs.Errors {
		if e.Code == "E602" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected E602 for bare-expression lambda body, got %+v", errs.Errors)
	}
}

func TestParseMatchExhaustivenessArms(t *testing.T) {
	src := `type Traffic { Red, Yellow, Green }

state {
  light: Traffic = Red
}

view label() {
  Text { content: "x" }
}
`
	prog := mustParse(t, src)
	if len(prog.Space.Types) != 1 || len(prog.Space.Types[0].Variants) != 3 {
		t.Fatalf("expected 3 variants, got %+v", prog.Space.Types)
	}
}

func TestParseQualifiedCallAndTry(t *testing.T) {
	src := `state {
  x: number = 0
}

action fetch() {
  let result = http.get("https://example.com")?
}
`
	prog := mustParse(t, src)
	action := prog.Space.Actions[0]
	letStmt, ok := action.Body[0].(*ast.LetStmt)
	if !ok {
		t.Fatalf("expected LetStmt, got %T", action.Body[0])
	}
	if _, ok := letStmt.Value.(*ast.TryExpr); !ok {
		t.Fatalf("expected TryExpr, got %T", letStmt.Value)
	}
}

func TestParseComponentWithChildren(t *testing.T) {
	src := `state {
  x: number = 0
}

view root() {
  Column { spacing: 8 } {
    Text { content: "a" }
    Text { content: "b" }
  }
}
`
	prog := mustParse(t, src)
	view := prog.Space.Views[0]
	exprStmt, ok := view.Body[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected ExprStmt, got %T", view.Body[0])
	}
	comp, ok := exprStmt.Expr.(*ast.ComponentExpr)
	if !ok {
		t.Fatalf("expected ComponentExpr, got %T", exprStmt.Expr)
	}
	if comp.Name != "Column" || len(comp.Children) != 2 {
		t.Fatalf("got %+v", comp)
	}
}

func TestParseTestCaseWithResponses(t *testing.T) {
	src := `state {
  x: number = 0
}

action fetch() {
  let r = http.get("u")?
}

test "fetch succeeds" {
  with_responses {
    http.get -> Ok("body")
  }
  fetch()
  assert x == 0
}
`
	prog := mustParse(t, src)
	if len(prog.Tests) != 1 {
		t.Fatalf("expected one test case, got %d", len(prog.Tests))
	}
	if len(prog.Tests[0].WithResponses) != 1 {
		t.Fatalf("expected one mocked response, got %+v", prog.Tests[0].WithResponses)
	}
}
