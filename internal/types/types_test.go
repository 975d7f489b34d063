package types

import "testing"

func TestEqualsPrimitives(t *testing.T) {
	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"number==number", TNumber, TNumber, true},
		{"number!=string", TNumber, TString, false},
		{"list<number>==list<number>", List(TNumber), List(TNumber), true},
		{"list<number>!=list<string>", List(TNumber), List(TString), false},
		{"named same name", NamedT("Traffic"), NamedT("Traffic"), true},
		{"named different name", NamedT("Traffic"), NamedT("Light"), false},
		{"nullable(number)==nullable(number)", NullableOf(TNumber), NullableOf(TNumber), true},
		{"result types", Result(TNumber, TString), Result(TNumber, TString), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Equals(tc.b); got != tc.want {
				t.Fatalf("%s.Equals(%s) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestRecordEqualsIsFieldOrderSensitiveByDeclaration(t *testing.T) {
	a := Record(RecordField{Name: "x", Type: TNumber}, RecordField{Name: "y", Type: TNumber})
	b := Record(RecordField{Name: "y", Type: TNumber}, RecordField{Name: "x", Type: TNumber})
	if a.Equals(b) {
		t.Fatalf("expected field-order-sensitive record types to differ")
	}
	c := Record(RecordField{Name: "x", Type: TNumber}, RecordField{Name: "y", Type: TNumber})
	if !a.Equals(c) {
		t.Fatalf("expected identical record types to be equal")
	}
}

func TestAssignableFromAny(t *testing.T) {
	if !TAny.AssignableFrom(TNumber) {
		t.Fatalf("any should accept number")
	}
	if !TNumber.AssignableFrom(TAny) {
		t.Fatalf("number should accept any (stdlib wildcard)")
	}
}

func TestAssignableFromNullable(t *testing.T) {
	nullableNum := NullableOf(TNumber)
	if !nullableNum.AssignableFrom(TNil) {
		t.Fatalf("number|nil should accept nil")
	}
	if !nullableNum.AssignableFrom(TNumber) {
		t.Fatalf("number|nil should accept a bare number")
	}
	if nullableNum.AssignableFrom(TString) {
		t.Fatalf("number|nil should not accept string")
	}
}

func TestStringRendersDeclaredShape(t *testing.T) {
	tests := []struct {
		t    Type
		want string
	}{
		{TNumber, "number"},
		{List(TString), "list<string>"},
		{Result(TNumber, TString), "Result<number, string>"},
		{NullableOf(TColor), "color | nil"},
		{Func([]Type{TNumber, TNumber}, TBool), "(number, number) -> bool"},
		{Record(RecordField{Name: "x", Type: TNumber, Optional: true}), "record { x?: number }"},
	}
	for _, tc := range tests {
		if got := tc.t.String(); got != tc.want {
			t.Fatalf("String() = %q, want %q", got, tc.want)
		}
	}
}
