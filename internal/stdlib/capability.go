package stdlib

import (
	"github.com/pepl-lang/pepl/internal/trap"
	"github.com/pepl-lang/pepl/internal/types"
	"github.com/pepl-lang/pepl/internal/value"
)

// unmocked is the registry-level Impl for every capability-gated
// function: spec.md §4.5 says calls outside a test's with_responses
// context return Err("unmocked_call"). The evaluator always checks its
// with_responses table first and only falls through to Impl when no mock
// matched, so in practice this only fires for real (non-test) runs, where
// the WASM backend's host_call import is the actual implementation.
func unmocked(args []value.Value) (value.Value, error) {
	return value.ErrResult(value.String("unmocked_call")), nil
}

func okErrResult(ok types.Type) types.Type { return types.Result(ok, types.TString) }

// httpFunctions is the `http` capability module.
func httpFunctions() []Function {
	s := types.TString
	respRecord := types.Record(
		types.RecordField{Name: "status", Type: types.TNumber},
		types.RecordField{Name: "body", Type: types.TString},
	)
	return []Function{
		{Module: "http", Name: "get", Params: []types.Type{s}, Return: okErrResult(respRecord), Capability: "http", Impl: unmocked},
		{Module: "http", Name: "post", Params: []types.Type{s, s}, Return: okErrResult(respRecord), Capability: "http", Impl: unmocked},
	}
}

// storageFunctions is the `storage` capability module. Per
// SPEC_FULL.md §14's open-question decision, the removal function is
// named `remove`, not `delete`.
func storageFunctions() []Function {
	s := types.TString
	return []Function{
		{Module: "storage", Name: "get", Params: []types.Type{s}, Return: okErrResult(s), Capability: "storage", Impl: unmocked},
		{Module: "storage", Name: "set", Params: []types.Type{s, s}, Return: okErrResult(types.TNil), Capability: "storage", Impl: unmocked},
		{Module: "storage", Name: "remove", Params: []types.Type{s}, Return: okErrResult(types.TNil), Capability: "storage", Impl: unmocked},
	}
}

// locationFunctions is the `location` capability module.
func locationFunctions() []Function {
	coord := types.Record(
		types.RecordField{Name: "lat", Type: types.TNumber},
		types.RecordField{Name: "lng", Type: types.TNumber},
	)
	return []Function{
		{Module: "location", Name: "current", Params: nil, Return: okErrResult(coord), Capability: "location", Impl: unmocked},
	}
}

// notificationsFunctions is the `notifications` capability module.
func notificationsFunctions() []Function {
	s := types.TString
	return []Function{
		{Module: "notifications", Name: "send", Params: []types.Type{s, s}, Return: okErrResult(types.TNil), Capability: "notifications", Impl: unmocked},
	}
}

// timeFunctions is the `time` module. Backed by env.get_timestamp in the
// WASM ABI (spec.md §4.6); not listed among spec.md §3's capability
// modules (http/storage/location/notifications) and so needs no declared
// capability, even though it is not pure (see DESIGN.md).
func timeFunctions() []Function {
	n := types.TNumber
	return []Function{
		{Module: "time", Name: "now", Params: nil, Return: n, Pure: false, Impl: func(args []value.Value) (value.Value, error) {
			return nil, trap.New(trap.NilAccess, "time.now requires a host timestamp; use the evaluator's clock binding")
		}},
	}
}
