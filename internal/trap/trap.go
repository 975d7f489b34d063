// Package trap defines PEPL's runtime trap kinds (spec.md §7), the error
// type both the stdlib registry's evaluator_impl functions and
// internal/eval raise to unwind a running action/view to its dispatcher.
package trap

// Kind is one of the eight trap kinds named in spec.md §7. Each maps to a
// distinct numeric trap code passed to env.trap in the WASM backend.
type Kind string

const (
	DivisionByZero      Kind = "division_by_zero"
	NaNResult           Kind = "nan_result"
	NilAccess           Kind = "nil_access"
	AssertionFailed     Kind = "assertion_failed"
	InvariantViolated   Kind = "invariant_violated"
	ResultUnwrapOnErr   Kind = "result_unwrap_on_err"
	GasExhausted        Kind = "gas_exhausted"
	UnmockedCapability  Kind = "unmocked_capability_call"
)

// Code is the numeric trap code surfaced to env.trap in generated WASM
// (spec.md §4.6's imports). Order is the declaration order above, 1-based
// so 0 is free for "no trap".
var Code = map[Kind]int32{
	DivisionByZero:     1,
	NaNResult:          2,
	NilAccess:          3,
	AssertionFailed:    4,
	InvariantViolated:  5,
	ResultUnwrapOnErr:  6,
	GasExhausted:       7,
	UnmockedCapability: 8,
}

// Trap is an error carrying a trap kind plus a human-readable message
// (e.g. the invariant name or assertion message).
type Trap struct {
	Kind    Kind
	Message string
}

func (t *Trap) Error() string {
	if t.Message == "" {
		return string(t.Kind)
	}
	return string(t.Kind) + ": " + t.Message
}

func New(kind Kind, msg string) *Trap {
	return &Trap{Kind: kind, Message: msg}
}
