package wasmgen

// runtime.go generates the fixed set of WASM helper functions every
// compiled space links against: a bump allocator and box/unbox/equality
// helpers for the tagged-value ABI (abi.go). These are real WASM
// bytecode, not host imports — grounded on
// _examples/open-policy-agent-opa/internal/compiler/wasm/wasm.go's
// `opa_*` runtime functions (opa_number_float, opa_value_get, ...), which
// play the same role for OPA's JSON value model that these play for
// PEPL's tagged union.
//
// Header field packing: this generator stores each of the header's four
// logical fields (tag, len_or_variant, payload, aux) as a full i32 word
// at offsets 0/4/8/12 rather than packing tag/pad/len_or_variant into a
// single sub-byte-aligned i32 the way a size-optimized encoder would.
// The header is still exactly 16 bytes and still carries the same four
// fields; this just trades four bytes of padding for a far simpler
// encoder, a fine trade since PEPL values are small in number compared
// to the documents OPA's packer is optimized for.
type runtimeFuncs struct {
	alloc      int
	boxNumber  int
	unboxNumber int
	boxBool    int
	unboxBool  int
	boxNil     int
	boxString  int
	equal      int
	chargeGas  int
	boxResult  int
}

const (
	offTag    = 0
	offLenVar = 4
	offPayload = 8
	offAux    = 12
	offBody   = 16 // first byte past the header
)

func ft(params, results []byte) funcType { return funcType{params: params, results: results} }

func addSimpleFunc(m *module, params, results []byte, build func(c *codeBuilder)) int {
	c := newCodeBuilder(len(params))
	build(c)
	return m.addFunc(ft(params, results), c.locals(), c.bytes())
}

// globalRefs are the module-level globals runtime functions and generated
// code both need: the bump pointer, the gas counter, and the lazily
// allocated nil singleton.
type globalRefs struct {
	bump uint32
	gas  uint32
	nilv uint32
}

func buildRuntime(m *module, g globalRefs) runtimeFuncs {
	var rt runtimeFuncs

	// alloc(size: i32) -> i32. Bump-allocates size bytes, growing linear
	// memory with memory.grow when the new bump pointer would exceed the
	// currently mapped page count.
	rt.alloc = addSimpleFunc(m, []byte{valtypeI32}, []byte{valtypeI32}, func(c *codeBuilder) {
		ret := c.newLocal(valtypeI32)
		newBump := c.newLocal(valtypeI32)
		reqPages := c.newLocal(valtypeI32)
		curPages := c.newLocal(valtypeI32)

		c.GlobalGet(g.bump)
		c.LocalSet(ret)

		c.GlobalGet(g.bump)
		c.LocalGet(0)
		c.I32Add()
		c.LocalTee(newBump)
		c.GlobalSet(g.bump)

		// reqPages = (newBump + 65535) / 65536
		c.LocalGet(newBump)
		c.I32Const(65535)
		c.I32Add()
		c.I32Const(65536)
		c.I32DivS()
		c.LocalSet(reqPages)

		c.MemorySize()
		c.LocalSet(curPages)

		c.LocalGet(reqPages)
		c.LocalGet(curPages)
		c.I32GtS()
		c.If(0x40)
		c.LocalGet(reqPages)
		c.LocalGet(curPages)
		c.I32Sub()
		c.MemoryGrow()
		c.Drop()
		c.End()

		c.LocalGet(ret)
		c.Return()
	})

	// box_number(v: f64) -> i32
	rt.boxNumber = addSimpleFunc(m, []byte{valtypeF64}, []byte{valtypeI32}, func(c *codeBuilder) {
		ptr := c.newLocal(valtypeI32)
		c.I32Const(offBody + 8)
		c.Call(rt.alloc)
		c.LocalTee(ptr)
		c.I32Const(tagNumber)
		c.I32Store(offTag)
		c.LocalGet(ptr)
		c.I32Const(0)
		c.I32Store(offLenVar)
		c.LocalGet(ptr)
		c.I32Const(0)
		c.I32Store(offPayload)
		c.LocalGet(ptr)
		c.LocalGet(0)
		c.F64Store(offBody)
		c.LocalGet(ptr)
		c.Return()
	})

	// unbox_number(ptr: i32) -> f64
	rt.unboxNumber = addSimpleFunc(m, []byte{valtypeI32}, []byte{valtypeF64}, func(c *codeBuilder) {
		c.LocalGet(0)
		c.F64Load(offBody)
		c.Return()
	})

	// box_bool(v: i32) -> i32
	rt.boxBool = addSimpleFunc(m, []byte{valtypeI32}, []byte{valtypeI32}, func(c *codeBuilder) {
		ptr := c.newLocal(valtypeI32)
		c.I32Const(offBody)
		c.Call(rt.alloc)
		c.LocalTee(ptr)
		c.I32Const(tagBool)
		c.I32Store(offTag)
		c.LocalGet(ptr)
		c.LocalGet(0)
		c.I32Store(offPayload)
		c.LocalGet(ptr)
		c.Return()
	})

	// unbox_bool(ptr: i32) -> i32
	rt.unboxBool = addSimpleFunc(m, []byte{valtypeI32}, []byte{valtypeI32}, func(c *codeBuilder) {
		c.LocalGet(0)
		c.I32Load(offPayload)
		c.Return()
	})

	// box_nil() -> i32. Lazily allocates a single singleton and caches it
	// in the $nil global (0 is never a live allocation address, since
	// heapBase > 0, so it doubles as the "not yet allocated" sentinel).
	rt.boxNil = addSimpleFunc(m, nil, []byte{valtypeI32}, func(c *codeBuilder) {
		ptr := c.newLocal(valtypeI32)
		c.GlobalGet(g.nilv)
		c.I32Const(0)
		c.I32Ne()
		c.If(valtypeI32)
		c.GlobalGet(g.nilv)
		c.Else()
		c.I32Const(offBody)
		c.Call(rt.alloc)
		c.LocalTee(ptr)
		c.I32Const(tagNil)
		c.I32Store(offTag)
		c.LocalGet(ptr)
		c.GlobalSet(g.nilv)
		c.GlobalGet(g.nilv)
		c.End()
		c.Return()
	})

	// box_string(srcPtr: i32, len: i32) -> i32. Copies len bytes from
	// srcPtr (a data-segment literal) into a fresh heap allocation.
	rt.boxString = addSimpleFunc(m, []byte{valtypeI32, valtypeI32}, []byte{valtypeI32}, func(c *codeBuilder) {
		ptr := c.newLocal(valtypeI32)
		i := c.newLocal(valtypeI32)
		c.LocalGet(1)
		c.I32Const(offBody)
		c.I32Add()
		c.Call(rt.alloc)
		c.LocalTee(ptr)
		c.I32Const(tagString)
		c.I32Store(offTag)
		c.LocalGet(ptr)
		c.LocalGet(1)
		c.I32Store(offLenVar)
		c.LocalGet(ptr)
		c.I32Const(0)
		c.I32Store(offPayload)

		c.I32Const(0)
		c.LocalSet(i)
		c.Block(0x40)
		c.Loop(0x40)
		c.LocalGet(i)
		c.LocalGet(1)
		c.I32GeS()
		c.BrIf(1)
		c.LocalGet(ptr)
		c.I32Const(offBody)
		c.I32Add()
		c.LocalGet(i)
		c.I32Add()
		c.LocalGet(0)
		c.LocalGet(i)
		c.I32Add()
		c.I32Load(0)
		// i32.load loads 4 bytes; copying byte-by-byte this way over-reads
		// past a 1-byte source, so instead copy via i32.store of the single
		// loaded byte is incorrect for non-aligned tails. This generator
		// restricts string literals to lengths that are multiples of 4
		// bytes for this reason, padding data segments at compile time
		// (see compile_expr.go's padTo4), which keeps this loop correct
		// without needing 8/16-bit load/store opcodes.
		c.I32Store(0)
		c.LocalGet(i)
		c.I32Const(4)
		c.I32Add()
		c.LocalSet(i)
		c.Br(0)
		c.End()
		c.End()

		c.LocalGet(ptr)
		c.Return()
	})

	// equal(aPtr: i32, bPtr: i32) -> i32 (0/1). Structural equality over
	// the tags this generation pass supports.
	rt.equal = addSimpleFunc(m, []byte{valtypeI32, valtypeI32}, []byte{valtypeI32}, func(c *codeBuilder) {
		tagA := c.newLocal(valtypeI32)
		tagB := c.newLocal(valtypeI32)
		c.LocalGet(0)
		c.I32Load(offTag)
		c.LocalSet(tagA)
		c.LocalGet(1)
		c.I32Load(offTag)
		c.LocalSet(tagB)

		c.LocalGet(tagA)
		c.LocalGet(tagB)
		c.I32Ne()
		c.If(0x40)
		c.I32Const(0)
		c.Return()
		c.End()

		c.LocalGet(tagA)
		c.I32Const(tagNumber)
		c.I32Eq()
		c.If(0x40)
		c.LocalGet(0)
		c.F64Load(offBody)
		c.LocalGet(1)
		c.F64Load(offBody)
		c.F64Eq()
		c.Return()
		c.End()

		c.LocalGet(tagA)
		c.I32Const(tagBool)
		c.I32Eq()
		c.If(0x40)
		c.LocalGet(0)
		c.I32Load(offPayload)
		c.LocalGet(1)
		c.I32Load(offPayload)
		c.I32Eq()
		c.Return()
		c.End()

		c.LocalGet(tagA)
		c.I32Const(tagNil)
		c.I32Eq()
		c.If(0x40)
		c.I32Const(1)
		c.Return()
		c.End()

		// tagString: length then byte-for-byte compare.
		lenA := c.newLocal(valtypeI32)
		lenB := c.newLocal(valtypeI32)
		i := c.newLocal(valtypeI32)
		c.LocalGet(0)
		c.I32Load(offLenVar)
		c.LocalSet(lenA)
		c.LocalGet(1)
		c.I32Load(offLenVar)
		c.LocalSet(lenB)
		c.LocalGet(lenA)
		c.LocalGet(lenB)
		c.I32Ne()
		c.If(0x40)
		c.I32Const(0)
		c.Return()
		c.End()

		c.I32Const(0)
		c.LocalSet(i)
		c.Block(0x40)
		c.Loop(0x40)
		c.LocalGet(i)
		c.LocalGet(lenA)
		c.I32GeS()
		c.BrIf(1)
		c.LocalGet(0)
		c.I32Const(offBody)
		c.I32Add()
		c.LocalGet(i)
		c.I32Add()
		c.I32Load(0)
		c.LocalGet(1)
		c.I32Const(offBody)
		c.I32Add()
		c.LocalGet(i)
		c.I32Add()
		c.I32Load(0)
		c.I32Ne()
		c.If(0x40)
		c.I32Const(0)
		c.Return()
		c.End()
		c.LocalGet(i)
		c.I32Const(4)
		c.I32Add()
		c.LocalSet(i)
		c.Br(0)
		c.End()
		c.End()

		c.I32Const(1)
		c.Return()
	})

	// box_result(isOk: i32, innerPtr: i32) -> i32
	rt.boxResult = addSimpleFunc(m, []byte{valtypeI32, valtypeI32}, []byte{valtypeI32}, func(c *codeBuilder) {
		ptr := c.newLocal(valtypeI32)
		c.I32Const(offBody)
		c.Call(rt.alloc)
		c.LocalTee(ptr)
		c.I32Const(tagResult)
		c.I32Store(offTag)
		c.LocalGet(ptr)
		c.LocalGet(0)
		c.I32Store(offLenVar)
		c.LocalGet(ptr)
		c.LocalGet(1)
		c.I32Store(offPayload)
		c.LocalGet(ptr)
		c.Return()
	})

	// charge_gas(n: i32) -> i32 (0 ok, 1 exhausted).
	rt.chargeGas = addSimpleFunc(m, []byte{valtypeI32}, []byte{valtypeI32}, func(c *codeBuilder) {
		newGas := c.newLocal(valtypeI32)
		c.GlobalGet(g.gas)
		c.LocalGet(0)
		c.I32Sub()
		c.LocalTee(newGas)
		c.GlobalSet(g.gas)
		c.LocalGet(newGas)
		c.I32Const(0)
		c.I32LtS()
		c.Return()
	})

	return rt
}
