package wasmgen

import "bytes"

// funcType is a WASM function signature; the type section deduplicates
// these the way _examples/open-policy-agent-opa/internal/wasm/encoding's
// Module.Types does.
type funcType struct {
	params  []byte
	results []byte
}

func (f funcType) equal(o funcType) bool {
	return bytes.Equal(f.params, o.params) && bytes.Equal(f.results, o.results)
}

// importFunc is one function imported from the "env" module.
type importFunc struct {
	name string
	typ  int // index into module.types
}

// wfunc is one module-defined function: its type plus already-encoded
// local-declarations + instruction body bytes (produced by a codeBuilder).
type wfunc struct {
	typ    int
	locals []byte // encoded local-decl vector body (count of distinct runs + each run)
	body   []byte // instruction bytes, NOT including the trailing 0x0b (added at assembly)
}

// globalDecl is one mutable/immutable global, with its constant init
// expression already encoded (i32.const/f64.const ... end).
type globalDecl struct {
	valtype byte
	mutable bool
	init    []byte
}

// dataSegment is one active data segment: bytes placed at a fixed memory
// offset, used for string-literal backing storage.
type dataSegment struct {
	offset int32
	bytes  []byte
}

// exportEntry names an export and the index (function or memory) it
// refers to.
type exportEntry struct {
	name string
	kind byte // 0x00 func, 0x02 mem
	idx  int
}

// module accumulates every section of a WASM binary being built. Index
// spaces (functions) are shared between imports and module-defined
// functions, imports first, matching the core spec's function-index-space
// rule that _examples/open-policy-agent-opa/internal/wasm/encoding also
// follows.
type module struct {
	types   []funcType
	imports []importFunc
	funcs   []wfunc
	globals []globalDecl
	data    []dataSegment
	exports []exportEntry
	memoryMinPages uint32
	customs []customSection
}

type customSection struct {
	name  string
	bytes []byte
}

func newModule() *module {
	return &module{memoryMinPages: 1}
}

// internType returns the index of an existing identical funcType, adding
// one if none matches (type-section deduplication).
func (m *module) internType(ft funcType) int {
	for i, existing := range m.types {
		if existing.equal(ft) {
			return i
		}
	}
	m.types = append(m.types, ft)
	return len(m.types) - 1
}

// addImport registers an imported function, returning its function index
// in the shared function-index space.
func (m *module) addImport(name string, ft funcType) int {
	idx := m.internType(ft)
	m.imports = append(m.imports, importFunc{name: name, typ: idx})
	return len(m.imports) - 1
}

// addFunc registers a module-defined function, returning its function
// index (offset by len(imports), per the shared index space).
func (m *module) addFunc(ft funcType, locals, body []byte) int {
	idx := m.internType(ft)
	m.funcs = append(m.funcs, wfunc{typ: idx, locals: locals, body: body})
	return len(m.imports) + len(m.funcs) - 1
}

func (m *module) addGlobal(valtype byte, mutable bool, init []byte) int {
	m.globals = append(m.globals, globalDecl{valtype: valtype, mutable: mutable, init: init})
	return len(m.globals) - 1
}

func (m *module) addData(offset int32, b []byte) {
	m.data = append(m.data, dataSegment{offset: offset, bytes: b})
}

func (m *module) exportFunc(name string, idx int) {
	m.exports = append(m.exports, exportEntry{name: name, kind: 0x00, idx: idx})
}

func (m *module) exportMemory(name string) {
	m.exports = append(m.exports, exportEntry{name: name, kind: 0x02, idx: 0})
}

func (m *module) addCustom(name string, b []byte) {
	m.customs = append(m.customs, customSection{name: name, bytes: b})
}

// section ids, core WASM binary format.
const (
	secType     = 1
	secImport   = 2
	secFunction = 3
	secMemory   = 5
	secGlobal   = 6
	secExport   = 7
	secCode     = 10
	secData     = 11
	secCustom   = 0
)

func writeSection(out *bytes.Buffer, id byte, body []byte) {
	out.WriteByte(id)
	appendUleb32(out, uint32(len(body)))
	out.Write(body)
}

func encodeFuncType(ft funcType) []byte {
	var b bytes.Buffer
	b.WriteByte(0x60) // functype marker
	appendUleb32(&b, uint32(len(ft.params)))
	b.Write(ft.params)
	appendUleb32(&b, uint32(len(ft.results)))
	b.Write(ft.results)
	return b.Bytes()
}

// Bytes assembles the complete WASM binary module from the accumulated
// sections, in the fixed order core WASM requires.
func (m *module) Bytes() []byte {
	var out bytes.Buffer
	out.Write([]byte{0x00, 0x61, 0x73, 0x6d}) // magic "\0asm"
	out.Write([]byte{0x01, 0x00, 0x00, 0x00}) // version 1

	if len(m.types) > 0 {
		var body bytes.Buffer
		appendUleb32(&body, uint32(len(m.types)))
		for _, t := range m.types {
			body.Write(encodeFuncType(t))
		}
		writeSection(&out, secType, body.Bytes())
	}

	if len(m.imports) > 0 {
		var body bytes.Buffer
		appendUleb32(&body, uint32(len(m.imports)))
		for _, im := range m.imports {
			appendName(&body, importModule)
			appendName(&body, im.name)
			body.WriteByte(0x00) // func import kind
			appendUleb32(&body, uint32(im.typ))
		}
		writeSection(&out, secImport, body.Bytes())
	}

	if len(m.funcs) > 0 {
		var body bytes.Buffer
		appendUleb32(&body, uint32(len(m.funcs)))
		for _, f := range m.funcs {
			appendUleb32(&body, uint32(f.typ))
		}
		writeSection(&out, secFunction, body.Bytes())
	}

	{
		var body bytes.Buffer
		appendUleb32(&body, 1)
		body.WriteByte(0x00) // no max
		appendUleb32(&body, m.memoryMinPages)
		writeSection(&out, secMemory, body.Bytes())
	}

	if len(m.globals) > 0 {
		var body bytes.Buffer
		appendUleb32(&body, uint32(len(m.globals)))
		for _, g := range m.globals {
			body.WriteByte(g.valtype)
			if g.mutable {
				body.WriteByte(0x01)
			} else {
				body.WriteByte(0x00)
			}
			body.Write(g.init)
			body.WriteByte(0x0b) // end
		}
		writeSection(&out, secGlobal, body.Bytes())
	}

	if len(m.exports) > 0 {
		var body bytes.Buffer
		appendUleb32(&body, uint32(len(m.exports)))
		for _, ex := range m.exports {
			appendName(&body, ex.name)
			body.WriteByte(ex.kind)
			appendUleb32(&body, uint32(ex.idx))
		}
		writeSection(&out, secExport, body.Bytes())
	}

	if len(m.funcs) > 0 {
		var body bytes.Buffer
		appendUleb32(&body, uint32(len(m.funcs)))
		for _, f := range m.funcs {
			var entry bytes.Buffer
			entry.Write(f.locals)
			entry.Write(f.body)
			entry.WriteByte(0x0b) // end
			body.Write(withLengthPrefix(entry.Bytes()))
		}
		writeSection(&out, secCode, body.Bytes())
	}

	if len(m.data) > 0 {
		var body bytes.Buffer
		appendUleb32(&body, uint32(len(m.data)))
		for _, d := range m.data {
			appendUleb32(&body, 0) // memory index 0, active segment
			body.WriteByte(0x41)   // i32.const
			appendSleb32(&body, d.offset)
			body.WriteByte(0x0b) // end
			appendUleb32(&body, uint32(len(d.bytes)))
			body.Write(d.bytes)
		}
		writeSection(&out, secData, body.Bytes())
	}

	for _, c := range m.customs {
		var body bytes.Buffer
		appendName(&body, c.name)
		body.Write(c.bytes)
		writeSection(&out, secCustom, body.Bytes())
	}

	return out.Bytes()
}

// encodeLocalDecls packs a flat list of per-local value types into the
// run-length-encoded vector the code section's locals declaration uses.
func encodeLocalDecls(types []byte) []byte {
	var body bytes.Buffer
	if len(types) == 0 {
		appendUleb32(&body, 0)
		return body.Bytes()
	}
	type run struct {
		count uint32
		vt    byte
	}
	var runs []run
	for _, vt := range types {
		if len(runs) > 0 && runs[len(runs)-1].vt == vt {
			runs[len(runs)-1].count++
			continue
		}
		runs = append(runs, run{count: 1, vt: vt})
	}
	appendUleb32(&body, uint32(len(runs)))
	for _, r := range runs {
		appendUleb32(&body, r.count)
		body.WriteByte(r.vt)
	}
	return body.Bytes()
}
