package wasmgen

import (
	"bytes"
	"math"
)

// codeBuilder accumulates one function's instruction bytes, mirroring the
// Instruction-emission style of
// _examples/open-policy-agent-opa/internal/wasm/instruction (a typed
// helper per opcode) but collapsed to direct byte-emitting methods since
// this package never needs to re-read or optimize its own bytecode after
// emission the way OPA's compiler pipeline does.
type codeBuilder struct {
	buf        bytes.Buffer
	localTypes []byte // value types of this function's non-parameter locals, in declaration order
	nextLocal  uint32 // index of the next local to allocate (starts after params)
	labels     []string // active block/loop/if labels, innermost last, for branchTo's depth lookup
}

// enterBlock/enterLoop/enterIf open a structured control construct and
// record a label for branchTo to target; leaveBlock closes the innermost
// one. Tracking labels this way (rather than raw relative depths at each
// call site) lets compile_stmt.go/compile_expr.go branch to the
// function's single trap-exit block from arbitrary nesting depth without
// threading a depth counter through every recursive compile call.
func (c *codeBuilder) enterBlock(label string, result byte) { c.Block(result); c.labels = append(c.labels, label) }
func (c *codeBuilder) enterLoop(label string, result byte)  { c.Loop(result); c.labels = append(c.labels, label) }
func (c *codeBuilder) enterIf(label string, result byte)    { c.If(result); c.labels = append(c.labels, label) }
func (c *codeBuilder) leaveBlock()                          { c.labels = c.labels[:len(c.labels)-1]; c.End() }

// branchTo emits br to the named enclosing label.
func (c *codeBuilder) branchTo(label string) {
	for i := len(c.labels) - 1; i >= 0; i-- {
		if c.labels[i] == label {
			c.Br(uint32(len(c.labels) - 1 - i))
			return
		}
	}
	panic("wasmgen: branchTo of unknown label " + label)
}

// branchIfTo emits br_if to the named enclosing label.
func (c *codeBuilder) branchIfTo(label string) {
	for i := len(c.labels) - 1; i >= 0; i-- {
		if c.labels[i] == label {
			c.BrIf(uint32(len(c.labels) - 1 - i))
			return
		}
	}
	panic("wasmgen: branchIfTo of unknown label " + label)
}

func newCodeBuilder(paramCount int) *codeBuilder {
	return &codeBuilder{nextLocal: uint32(paramCount)}
}

// newLocal declares a fresh local of the given type and returns its index.
func (c *codeBuilder) newLocal(vt byte) uint32 {
	c.localTypes = append(c.localTypes, vt)
	idx := c.nextLocal
	c.nextLocal++
	return idx
}

func (c *codeBuilder) locals() []byte { return encodeLocalDecls(c.localTypes) }
func (c *codeBuilder) bytes() []byte  { return c.buf.Bytes() }

func (c *codeBuilder) op(b byte)         { c.buf.WriteByte(b) }
func (c *codeBuilder) ops(bs ...byte)    { c.buf.Write(bs) }
func (c *codeBuilder) uleb(v uint32)     { appendUleb32(&c.buf, v) }
func (c *codeBuilder) sleb32(v int32)    { appendSleb32(&c.buf, v) }

func (c *codeBuilder) I32Const(v int32) { c.op(0x41); c.sleb32(v) }
func (c *codeBuilder) F64Const(v float64) {
	c.op(0x44)
	var bits [8]byte
	u := math.Float64bits(v)
	for i := range bits {
		bits[i] = byte(u)
		u >>= 8
	}
	c.buf.Write(bits[:])
}

func (c *codeBuilder) LocalGet(idx uint32)  { c.op(0x20); c.uleb(idx) }
func (c *codeBuilder) LocalSet(idx uint32)  { c.op(0x21); c.uleb(idx) }
func (c *codeBuilder) LocalTee(idx uint32)  { c.op(0x22); c.uleb(idx) }
func (c *codeBuilder) GlobalGet(idx uint32) { c.op(0x23); c.uleb(idx) }
func (c *codeBuilder) GlobalSet(idx uint32) { c.op(0x24); c.uleb(idx) }

func (c *codeBuilder) Call(idx int) { c.op(0x10); c.uleb(uint32(idx)) }

// memarg is align (power-of-two exponent) then offset, both ULEB128.
func (c *codeBuilder) memarg(align uint32, offset uint32) {
	c.uleb(align)
	c.uleb(offset)
}

func (c *codeBuilder) I32Load(offset uint32)  { c.op(0x28); c.memarg(2, offset) }
func (c *codeBuilder) I32Store(offset uint32) { c.op(0x36); c.memarg(2, offset) }
func (c *codeBuilder) F64Load(offset uint32)  { c.op(0x2b); c.memarg(3, offset) }
func (c *codeBuilder) F64Store(offset uint32) { c.op(0x39); c.memarg(3, offset) }

func (c *codeBuilder) MemoryGrow() { c.op(0x40); c.op(0x00) }
func (c *codeBuilder) MemorySize() { c.op(0x3f); c.op(0x00) }

// blockType 0x40 is the empty type (no result); results are always i32 in
// this package's generated control flow (trap codes), so callers pass
// valtypeI32 when a block/if/loop produces a value.
func (c *codeBuilder) Block(result byte)  { c.op(0x02); c.op(result) }
func (c *codeBuilder) Loop(result byte)   { c.op(0x03); c.op(result) }
func (c *codeBuilder) If(result byte)     { c.op(0x04); c.op(result) }
func (c *codeBuilder) Else()              { c.op(0x05) }
func (c *codeBuilder) End()               { c.op(0x0b) }
func (c *codeBuilder) Br(depth uint32)    { c.op(0x0c); c.uleb(depth) }
func (c *codeBuilder) BrIf(depth uint32)  { c.op(0x0d); c.uleb(depth) }
func (c *codeBuilder) Return()            { c.op(0x0f) }
func (c *codeBuilder) Unreachable()       { c.op(0x00) }
func (c *codeBuilder) Drop()              { c.op(0x1a) }
func (c *codeBuilder) Select()            { c.op(0x1b) }

// i32 arithmetic/comparison.
func (c *codeBuilder) I32Eqz() { c.op(0x45) }
func (c *codeBuilder) I32Eq()  { c.op(0x46) }
func (c *codeBuilder) I32Ne()  { c.op(0x47) }
func (c *codeBuilder) I32LtS() { c.op(0x48) }
func (c *codeBuilder) I32GtS() { c.op(0x4a) }
func (c *codeBuilder) I32LeS() { c.op(0x4c) }
func (c *codeBuilder) I32GeS() { c.op(0x4e) }
func (c *codeBuilder) I32Add() { c.op(0x6a) }
func (c *codeBuilder) I32Sub() { c.op(0x6b) }
func (c *codeBuilder) I32Mul() { c.op(0x6c) }
func (c *codeBuilder) I32DivS() { c.op(0x6d) }
func (c *codeBuilder) I32And() { c.op(0x71) }
func (c *codeBuilder) I32Or()  { c.op(0x72) }

// f64 arithmetic/comparison.
func (c *codeBuilder) F64Eq()  { c.op(0x61) }
func (c *codeBuilder) F64Ne()  { c.op(0x62) }
func (c *codeBuilder) F64Lt()  { c.op(0x63) }
func (c *codeBuilder) F64Gt()  { c.op(0x64) }
func (c *codeBuilder) F64Le()  { c.op(0x65) }
func (c *codeBuilder) F64Ge()  { c.op(0x66) }
func (c *codeBuilder) F64Neg() { c.op(0x9a) }
func (c *codeBuilder) F64Add() { c.op(0xa0) }
func (c *codeBuilder) F64Sub() { c.op(0xa1) }
func (c *codeBuilder) F64Mul() { c.op(0xa2) }
func (c *codeBuilder) F64Div() { c.op(0xa3) }
func (c *codeBuilder) F64Sqrt() { c.op(0x9f) }
