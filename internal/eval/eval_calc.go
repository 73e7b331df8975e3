package eval

import (
	"github.com/sassy-go/sasscore/internal/sassast"
	"github.com/sassy-go/sasscore/internal/value"
)

// evalCalcCall evaluates a calc()/min()/max()/clamp()/sqrt()/... call
// (spec.md §4.1 and §4.4: "calculation-shaped function calls are diverted
// into the Calculation constructor path"). Each argument expression is
// evaluated to a Value first, then coerced into a CalcOperand; a bare
// string or unresolved interpolation becomes an unquoted operand so the
// calculation can still render, matching spec.md §4.1's "leaves operands
// touching unresolved text alone".
func (e *Evaluator) evalCalcCall(ex sassast.FunctionCall) (value.Value, error) {
	args := make([]value.CalcOperand, 0, len(ex.Arguments))
	for _, a := range ex.Arguments {
		v, err := e.evalExpr(a.ValueExpr)
		if err != nil {
			return nil, err
		}
		operand, err := valueToCalcOperand(v, e, ex)
		if err != nil {
			return nil, err
		}
		args = append(args, operand)
	}
	return value.NewCalculation(value.CalcName(ex.Name), args, e.inSupportsDecl, e.source, ex.Span())
}

func valueToCalcOperand(v value.Value, e *Evaluator, ex sassast.FunctionCall) (value.CalcOperand, error) {
	switch t := v.(type) {
	case value.Number:
		return t, nil
	case value.Calculation:
		return t, nil
	case value.Str:
		return value.CalcUnquotedString(t.Text), nil
	default:
		return value.CalcUnquotedString(value.ToCssString(v, false)), nil
	}
}
