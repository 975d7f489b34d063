package eval

import "github.com/pepl-lang/pepl/internal/value"

// mockTable records the responses a test's `with_responses` block
// scripted for capability calls, keyed by "module.function" and matched
// to each call by call-site position: the first call to http.get in the
// test gets mocks["http.get"][0], the second gets [1], and so on
// (spec.md §4.5). A call past the last scripted index, or to a
// module.function with no mocks at all, falls through to the unmocked
// registry behavior (Err("unmocked_call")).
type mockTable struct {
	responses map[string]map[int]value.Value
	next      map[string]int
}

func newMockTable() *mockTable {
	return &mockTable{
		responses: map[string]map[int]value.Value{},
		next:      map[string]int{},
	}
}

func (m *mockTable) add(module, function string, callIndex int, response value.Value) {
	key := module + "." + function
	if m.responses[key] == nil {
		m.responses[key] = map[int]value.Value{}
	}
	m.responses[key][callIndex] = response
}

// take returns the scripted response for the next call to module.function,
// advancing its call counter, or (nil, false) when no mock covers this
// call-site position.
func (m *mockTable) take(module, function string) (value.Value, bool) {
	key := module + "." + function
	idx := m.next[key]
	m.next[key] = idx + 1
	v, ok := m.responses[key][idx]
	return v, ok
}

func (m *mockTable) reset() {
	m.next = map[string]int{}
}
