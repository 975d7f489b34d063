package stdlib

import (
	"math"

	"github.com/pepl-lang/pepl/internal/trap"
	"github.com/pepl-lang/pepl/internal/types"
	"github.com/pepl-lang/pepl/internal/value"
)

func num1(args []value.Value) float64 { return float64(args[0].(value.Number)) }
func num2(args []value.Value) (float64, float64) {
	return float64(args[0].(value.Number)), float64(args[1].(value.Number))
}

func checkFinite(f float64) (value.Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, trap.New(trap.NaNResult, "")
	}
	return value.Number(f), nil
}

// mathFunctions is the `math` module: always-pure arithmetic helpers
// beyond PEPL's built-in operators (spec.md §4.5's "math.sqrt of a
// negative -> trap" is the canonical example this module must honor).
func mathFunctions() []Function {
	n := types.TNumber
	unary := func(name string, f func(float64) float64) Function {
		return Function{Module: "math", Name: name, Params: []types.Type{n}, Return: n, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) { return checkFinite(f(num1(args))) }}
	}
	return []Function{
		unary("sqrt", func(x float64) float64 {
			if x < 0 {
				return math.NaN()
			}
			return math.Sqrt(x)
		}),
		unary("abs", math.Abs),
		unary("floor", math.Floor),
		unary("ceil", math.Ceil),
		unary("round", math.Round),
		unary("sin", math.Sin),
		unary("cos", math.Cos),
		unary("tan", math.Tan),
		unary("log", math.Log),
		unary("exp", math.Exp),
		{Module: "math", Name: "pow", Params: []types.Type{n, n}, Return: n, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				a, b := num2(args)
				return checkFinite(math.Pow(a, b))
			}},
		{Module: "math", Name: "min", Params: []types.Type{n, n}, Return: n, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				a, b := num2(args)
				return value.Number(math.Min(a, b)), nil
			}},
		{Module: "math", Name: "max", Params: []types.Type{n, n}, Return: n, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				a, b := num2(args)
				return value.Number(math.Max(a, b)), nil
			}},
		{Module: "math", Name: "clamp", Params: []types.Type{n, n, n}, Return: n, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				x, lo := num2(args[0:2])
				hi := float64(args[2].(value.Number))
				if x < lo {
					return value.Number(lo), nil
				}
				if x > hi {
					return value.Number(hi), nil
				}
				return value.Number(x), nil
			}},
		{Module: "math", Name: "mod", Params: []types.Type{n, n}, Return: n, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				a, b := num2(args)
				if b == 0 {
					return nil, trap.New(trap.DivisionByZero, "")
				}
				return value.Number(math.Mod(a, b)), nil
			}},
		{Module: "math", Name: "pi", Params: nil, Return: n, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) { return value.Number(math.Pi), nil }},
	}
}
