package wasmgen

// Value tags for the 16-byte boxed-value header every PEPL runtime value
// uses in linear memory (spec.md §4.6): {tag:u8, pad:u8, len_or_variant:u16,
// payload:i32, aux:i32}, padded to 16 bytes total so every allocation's
// variable-length payload region starts on the same offset regardless of
// kind. Number/string/list/record payloads live in the bytes immediately
// following the header; bool/nil fit entirely inside it.
const (
	tagNumber = 1
	tagBool   = 2
	tagNil    = 3
	tagString = 4
	tagResult = 5 // ok/err wrapper; len_or_variant: 1=ok, 0=err; payload: wrapped value ptr
)

const headerSize = 16

// wasmValtype bytes (core WASM value types).
const (
	valtypeI32 = 0x7f
	valtypeI64 = 0x7e
	valtypeF64 = 0x7c
)

// Import names fixed by spec.md §4.6's ABI. Every generated module imports
// all four from the "env" module regardless of whether a given program
// exercises get_timestamp/host_call, so a single host binding works for
// every compiled PEPL space.
const (
	importModule      = "env"
	importHostCall    = "host_call"
	importLog         = "log"
	importTrap        = "trap"
	importGetTimestamp = "get_timestamp"
)

// Export names. memory/alloc/dealloc/init are always present; dispatch_*
// functions are emitted one per compiled action, get_state_*/get_derived_*
// one per state/derived field, and update only when the space declares it
// and its body is within this generation pass's supported subset. No
// handle_event export is emitted: handleEvent is not compiled.
const (
	exportMemory = "memory"
	exportAlloc  = "alloc"
	exportDealloc = "dealloc"
	exportInit   = "init"
)

// gasPerStep is the gas cost of one metered step, the same 1 unit
// internal/eval charges per loop iteration, call and tick (spec.md §4.5).
// Neither it nor the charge_gas runtime helper is used by the generated
// init, action or update bodies, so these modules do not charge gas.
const gasPerStep = 1

// heapBase is the first bump-allocator address. Lower memory is reserved
// for string-literal data segments, assigned sequentially at compile time
// starting at address 16 (address 0 is avoided so a null/zero pointer
// never aliases a real value, matching the reference evaluator treating
// an absent value as a Go nil rather than a valid zero address).
const heapBase = 4096
