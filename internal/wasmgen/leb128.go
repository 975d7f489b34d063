// Package wasmgen compiles a checked PEPL program to a WebAssembly module
// implementing the ABI spec.md §4.6/§6 describes: tagged runtime values in
// linear memory, a bump allocator, snapshot/commit action dispatch, a gas
// budget global, and a handful of host imports. It is grounded on
// _examples/open-policy-agent-opa/internal/wasm/{encoding,instruction,module}
// and internal/compiler/wasm/wasm.go's IR->WASM backend: the same
// section/LEB128-encoding shape and "every runtime value is an opaque i32
// handle, boxed/unboxed by a handful of `opa_*`-style runtime functions"
// design, generalized from OPA's JSON value model to PEPL's tagged union.
//
// This generation pass covers number/bool/nil/string values, arithmetic,
// state/derived access, control flow, invariant checking, and capability
// calls lowered to the generic host_call import. It does not meter gas:
// init stores the budget in the gas global, but no generated code charges
// it. List, record, sum-variant, lambda, match, and view-rendering code
// generation are intentionally out of scope for this pass (see
// DESIGN.md): emitting WASM that silently diverged from the reference
// evaluator's semantics for those constructs would violate spec.md §2's
// observational-equivalence requirement, so Generate reports an action or
// hook that needs them as skipped, with an "unsupported for codegen"
// reason, rather than emit something plausible-looking but wrong.
package wasmgen

import "bytes"

// appendUleb32 appends v as an unsigned LEB128 varint (the encoding every
// WASM binary-format integer, section-size, and index uses).
func appendUleb32(buf *bytes.Buffer, v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf.WriteByte(b)
		if v == 0 {
			return
		}
	}
}

// appendSleb32 appends v as a signed LEB128 varint (used by i32.const).
func appendSleb32(buf *bytes.Buffer, v int32) {
	appendSleb64(buf, int64(v))
}

// appendSleb64 appends v as a signed LEB128 varint (used by i64.const).
func appendSleb64(buf *bytes.Buffer, v int64) {
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		buf.WriteByte(b)
	}
}

// appendName appends a WASM "name": a ULEB128 byte length followed by the
// raw UTF-8 bytes (used for import/export names and custom section names).
func appendName(buf *bytes.Buffer, s string) {
	appendUleb32(buf, uint32(len(s)))
	buf.WriteString(s)
}

// withLengthPrefix wraps body with its own ULEB128 byte-length prefix, the shape
// every WASM section (and every vector-of-sections nested construct, like
// a function body inside the code section) uses.
func withLengthPrefix(body []byte) []byte {
	var out bytes.Buffer
	appendUleb32(&out, uint32(len(body)))
	out.Write(body)
	return out.Bytes()
}
