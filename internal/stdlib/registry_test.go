package stdlib

import (
	"testing"

	"github.com/pepl-lang/pepl/internal/value"
)

func TestLookupFindsEveryModule(t *testing.T) {
	modules := []string{"math", "core", "list", "record", "string", "color", "http", "storage", "location", "notifications", "time"}
	seen := make(map[string]bool)
	for _, f := range Functions {
		seen[f.Module] = true
	}
	for _, m := range modules {
		if !seen[m] {
			t.Errorf("no stdlib functions registered for module %q", m)
		}
	}
}

func TestCallMathSqrt(t *testing.T) {
	got, err := Call("math", "sqrt", []value.Value{value.Number(9)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.(value.Number) != 3 {
		t.Fatalf("sqrt(9) = %v, want 3", got)
	}
}

func TestCallMathSqrtNegativeTraps(t *testing.T) {
	_, err := Call("math", "sqrt", []value.Value{value.Number(-4)})
	if err == nil {
		t.Fatal("expected a trap for sqrt of a negative number")
	}
}

func TestCallArityMismatch(t *testing.T) {
	_, err := Call("math", "sqrt", []value.Value{value.Number(1), value.Number(2)})
	if err == nil {
		t.Fatal("expected an arity error")
	}
}

func TestListPushIsImmutable(t *testing.T) {
	orig := value.NewList(value.Number(1), value.Number(2))
	got, err := Call("list", "push", []value.Value{orig, value.Number(3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orig.Elems) != 2 {
		t.Fatalf("push mutated its argument: %+v", orig)
	}
	result := got.(*value.List)
	if len(result.Elems) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(result.Elems))
	}
}

func TestListSum(t *testing.T) {
	l := value.NewList(value.Number(3), value.Number(4))
	got, err := Call("list", "sum", []value.Value{l})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.(value.Number) != 7 {
		t.Fatalf("sum = %v, want 7", got)
	}
}

func TestStorageRemoveNotDelete(t *testing.T) {
	if _, ok := Lookup("storage", "remove"); !ok {
		t.Fatal("expected storage.remove per the open-question decision")
	}
	if _, ok := Lookup("storage", "delete"); ok {
		t.Fatal("storage.delete should not be registered")
	}
}

func TestListAnyNotSome(t *testing.T) {
	if _, ok := Lookup("list", "any"); !ok {
		t.Fatal("expected list.any per the open-question decision")
	}
	if _, ok := Lookup("list", "some"); ok {
		t.Fatal("list.some should not be registered")
	}
}

func TestCapabilityIDAssignment(t *testing.T) {
	cases := map[string]int32{"http": 1, "storage": 2, "location": 3, "notifications": 4, "math": 0}
	for mod, want := range cases {
		if got := CapabilityID(mod); got != want {
			t.Errorf("CapabilityID(%q) = %d, want %d", mod, got, want)
		}
	}
}

func TestHTTPCallUnmockedReturnsErr(t *testing.T) {
	got, err := Call("http", "get", []value.Value{value.String("https://example.com")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := got.(value.Result)
	if res.Ok {
		t.Fatal("expected an Err result for an unmocked capability call")
	}
}
