package eval

import (
	"github.com/pepl-lang/pepl/internal/ast"
	"github.com/pepl-lang/pepl/internal/trap"
	"github.com/pepl-lang/pepl/internal/value"
)

// TestResult is one `test "..." { ... }` case's outcome.
type TestResult struct {
	Name    string
	Passed  bool
	Failure string // populated when Passed is false: the assertion message or trap
}

// TestRunSummary aggregates every test case's outcome (spec.md §8).
type TestRunSummary struct {
	Results []TestResult
	Passed  int
	Failed  int
}

// Run evaluates every test case declared in the evaluator's program,
// resetting state and the mock table between cases.
func (e *Evaluator) Run() TestRunSummary {
	summary := TestRunSummary{}
	for _, tc := range e.prog.Tests {
		result := e.runOneTest(tc)
		summary.Results = append(summary.Results, result)
		if result.Passed {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	return summary
}

func (e *Evaluator) runOneTest(tc *ast.TestCase) TestResult {
	if err := e.Init(); err != nil {
		return TestResult{Name: tc.Description, Passed: false, Failure: err.Error()}
	}
	e.mocks.reset()
	e.mocks.responses = map[string]map[int]value.Value{}
	for _, rm := range tc.WithResponses {
		v, err := e.evalExpr(rm.Response, newEnv(nil))
		if err != nil {
			return TestResult{Name: tc.Description, Passed: false, Failure: "could not evaluate mocked response: " + err.Error()}
		}
		e.mocks.add(rm.Module, rm.Function, rm.CallIndex, v)
	}

	_, _, err := e.execBlock(tc.Body, newEnv(nil), execCtx{inAction: true})
	if err != nil {
		if t, ok := err.(*trap.Trap); ok {
			return TestResult{Name: tc.Description, Passed: false, Failure: t.Error()}
		}
		return TestResult{Name: tc.Description, Passed: false, Failure: err.Error()}
	}
	return TestResult{Name: tc.Description, Passed: true}
}
