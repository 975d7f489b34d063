package stdlib

import (
	"github.com/pepl-lang/pepl/internal/types"
	"github.com/pepl-lang/pepl/internal/value"
)

func chan8(v value.Value) uint8 {
	f := float64(v.(value.Number))
	if f < 0 {
		f = 0
	}
	if f > 255 {
		f = 255
	}
	return uint8(f)
}

// colorFunctions is the `color` module: constructors over the always-pure
// Color value.
func colorFunctions() []Function {
	n := types.TNumber
	return []Function{
		{Module: "color", Name: "rgb", Params: []types.Type{n, n, n}, Return: types.TColor, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				return value.Color{R: chan8(args[0]), G: chan8(args[1]), B: chan8(args[2]), A: 255}, nil
			}},
		{Module: "color", Name: "rgba", Params: []types.Type{n, n, n, n}, Return: types.TColor, Pure: true,
			Impl: func(args []value.Value) (value.Value, error) {
				return value.Color{R: chan8(args[0]), G: chan8(args[1]), B: chan8(args[2]), A: chan8(args[3])}, nil
			}},
	}
}
