package eval

import (
	"testing"

	"github.com/pepl-lang/pepl/internal/checker"
	"github.com/pepl-lang/pepl/internal/parser"
	"github.com/pepl-lang/pepl/internal/trap"
	"github.com/pepl-lang/pepl/internal/value"
)

func mustEval(t *testing.T, src string) *Evaluator {
	t.Helper()
	prog, perrs := parser.Parse("t.pepl", src)
	if perrs.HasErrors() {
		t.Fatalf("unexpected parse errors: %+v", perrs.Errors)
	}
	res, cerrs := checker.Check("t.pepl", src, prog)
	if cerrs.HasErrors() {
		t.Fatalf("unexpected check errors: %+v", cerrs.Errors)
	}
	e := New(prog, res)
	if err := e.Init(); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}
	return e
}

func fieldValue(t *testing.T, e *Evaluator, name string) value.Value {
	t.Helper()
	for _, f := range e.State() {
		if f.Name == name {
			return f.Value
		}
	}
	t.Fatalf("no such field %q", name)
	return nil
}

func TestDispatchActionCommitsStateMutation(t *testing.T) {
	e := mustEval(t, `state {
  count: number = 0
}

action increment() {
  set count = count + 1
}
`)
	res := e.DispatchAction("increment", nil)
	if !res.Committed {
		t.Fatalf("expected commit, got trap %+v", res.Trap)
	}
	if got := fieldValue(t, e, "count"); got != value.Number(1) {
		t.Fatalf("count = %v, want 1", got)
	}
}

func TestInvariantViolationRollsBackMutation(t *testing.T) {
	e := mustEval(t, `state {
  count: number = 0
}

invariant nonNegative {
  count >= 0
}

action decrement() {
  set count = count - 1
}
`)
	res := e.DispatchAction("decrement", nil)
	if res.Committed {
		t.Fatalf("expected rollback")
	}
	if res.Trap == nil || res.Trap.Kind != trap.InvariantViolated {
		t.Fatalf("expected invariant_violated trap, got %+v", res.Trap)
	}
	if res.Trap.Message != "nonNegative" {
		t.Fatalf("trap message = %q, want invariant name", res.Trap.Message)
	}
	if got := fieldValue(t, e, "count"); got != value.Number(0) {
		t.Fatalf("count = %v, want unchanged 0", got)
	}
}

func TestDerivedFieldRecomputesAfterCommit(t *testing.T) {
	e := mustEval(t, `state {
  items: list<number> = []
}

derived {
  total: number = list.sum(items)
}

action add(n: number) {
  set items = list.push(items, n)
}
`)
	if res := e.DispatchAction("add", []value.Value{value.Number(3)}); !res.Committed {
		t.Fatalf("unexpected trap: %+v", res.Trap)
	}
	if res := e.DispatchAction("add", []value.Value{value.Number(4)}); !res.Committed {
		t.Fatalf("unexpected trap: %+v", res.Trap)
	}
	if got := fieldValue(t, e, "total"); got != value.Number(7) {
		t.Fatalf("total = %v, want 7", got)
	}
}

func TestDivisionByZeroTraps(t *testing.T) {
	e := mustEval(t, `state {
  count: number = 0
}

action divide(n: number) {
  set count = 10 / n
}
`)
	res := e.DispatchAction("divide", []value.Value{value.Number(0)})
	if res.Committed {
		t.Fatalf("expected trap")
	}
	if res.Trap.Kind != trap.DivisionByZero {
		t.Fatalf("got %+v, want division_by_zero", res.Trap)
	}
}

func TestNestedSetRebuildsOnlyTouchedPath(t *testing.T) {
	e := mustEval(t, `state {
  player: record { x: number, y: number } = { x: 0, y: 0 }
}

action moveRight() {
  set player.x = player.x + 1
}
`)
	res := e.DispatchAction("moveRight", nil)
	if !res.Committed {
		t.Fatalf("unexpected trap: %+v", res.Trap)
	}
	player := fieldValue(t, e, "player").(*value.Record)
	x, _ := player.Get("x")
	y, _ := player.Get("y")
	if x != value.Number(1) {
		t.Fatalf("player.x = %v, want 1", x)
	}
	if y != value.Number(0) {
		t.Fatalf("player.y = %v, want unchanged 0", y)
	}
}

func TestGasExhaustionTraps(t *testing.T) {
	e := mustEval(t, `state {
  count: number = 0
}

action spin() {
  for n in list.range(0, 5) {
    set count = count + 1
  }
}
`)
	e.WithGasLimit(2)
	res := e.DispatchAction("spin", nil)
	if res.Committed {
		t.Fatalf("expected gas exhaustion trap")
	}
	if res.Trap.Kind != trap.GasExhausted {
		t.Fatalf("got %+v, want gas_exhausted", res.Trap)
	}
	if got := fieldValue(t, e, "count"); got != value.Number(0) {
		t.Fatalf("count = %v, want rolled back to 0", got)
	}
}

func TestViewRendersSurfaceTree(t *testing.T) {
	e := mustEval(t, `state {
  count: number = 0
}

view label() {
  Text { content: "${count}" }
}
`)
	s, err := e.RenderView("label", nil)
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if s.Component != "Text" {
		t.Fatalf("component = %q, want Text", s.Component)
	}
	if s.Props["content"] != "0" {
		t.Fatalf("props[content] = %v, want \"0\"", s.Props["content"])
	}
}

func TestCapabilityCallIsUnmockedOutsideTest(t *testing.T) {
	e := mustEval(t, `state {
  lastError: string = ""
}

capabilities {
  required: [storage]
}

action load() {
  let result = storage.get("key")
  set lastError = "done"
}
`)
	res := e.DispatchAction("load", nil)
	if !res.Committed {
		t.Fatalf("unexpected trap: %+v", res.Trap)
	}
}

func TestRunPassesWithMockedCapabilityResponse(t *testing.T) {
	e := mustEval(t, `state {
  loaded: string = ""
}

capabilities {
  required: [storage]
}

action load() {
  let result = storage.get("key")
  set loaded = "done"
}

test "loads from storage" {
  with_responses {
    storage.get -> Ok("value")
  }
  let before = loaded
  assert before == ""
}
`)
	summary := e.Run()
	if summary.Failed != 0 {
		t.Fatalf("expected all tests to pass, got failures: %+v", summary.Results)
	}
}
