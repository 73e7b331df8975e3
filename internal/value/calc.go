package value

import (
	"fmt"
	"math"
	"strings"

	"github.com/sassy-go/sasscore/internal/errs"
	"github.com/sassy-go/sasscore/internal/logger"
)

// NewCalculation implements spec.md §4.1's Calculation constructor: it
// validates the operand set, then eagerly simplifies unless suppressed
// (inSupportsDeclaration, set by the evaluator while inside an
// `@supports (...)` clause per spec.md §4.4).
//
// Grounded on esbuild's calc reduction (css_reduce_calc.go): a recursive
// term simplifier over sums/products, retargeted from CSS-token operands
// to SassScript Calculation operands.
func NewCalculation(name CalcName, args []CalcOperand, inSupportsDeclaration bool, src *logger.Source, span logger.Range) (Calculation, error) {
	if !IsKnownCalcName(string(name)) {
		return Calculation{}, errs.New(errs.Internal, src, span, fmt.Sprintf("unknown calculation %q", name))
	}
	calc := Calculation{Name: name, Args: args}
	if inSupportsDeclaration {
		return calc, nil
	}
	return SimplifyCalculation(calc, src, span)
}

// SimplifyCalculation eagerly folds operands that are fully numeric,
// leaving any operand touching an unresolved CalcUnquotedString alone so it
// still prints correctly (spec.md §4.1: simplification is eager except
// inside @supports).
func SimplifyCalculation(c Calculation, src *logger.Source, span logger.Range) (Calculation, error) {
	simplified := make([]CalcOperand, len(c.Args))
	for i, arg := range c.Args {
		s, err := simplifyOperand(arg, src, span)
		if err != nil {
			return Calculation{}, err
		}
		simplified[i] = s
	}

	switch c.Name {
	case CalcCalc:
		if len(simplified) == 1 {
			if n, ok := simplified[0].(Number); ok {
				return Calculation{Name: CalcCalc, Args: []CalcOperand{n}}, nil
			}
		}
	case CalcMin, CalcMax:
		if nums, ok := allNumbers(simplified); ok {
			best := nums[0]
			for _, n := range nums[1:] {
				if (c.Name == CalcMin && n.Value < best.Value) || (c.Name == CalcMax && n.Value > best.Value) {
					best = n
				}
			}
			return Calculation{Name: c.Name, Args: []CalcOperand{best}}, nil
		}
	case CalcClamp:
		if nums, ok := allNumbers(simplified); ok && len(nums) == 3 {
			v := math.Max(nums[0].Value, math.Min(nums[1].Value, nums[2].Value))
			return Calculation{Name: CalcClamp, Args: []CalcOperand{Number{Value: v, Numerator: nums[1].Numerator, Denominator: nums[1].Denominator}}}, nil
		}
	case CalcSqrt, CalcSin, CalcCos, CalcTan, CalcAsin, CalcAcos, CalcAtan, CalcAbs, CalcExp, CalcSign:
		if n, ok := singleUnitlessOrAngle(simplified); ok {
			return Calculation{Name: c.Name, Args: []CalcOperand{applyUnary(c.Name, n)}}, nil
		}
	case CalcHypot:
		if nums, ok := allNumbers(simplified); ok {
			sum := 0.0
			for _, n := range nums {
				sum += n.Value * n.Value
			}
			return Calculation{Name: CalcHypot, Args: []CalcOperand{Number{Value: math.Sqrt(sum)}}}, nil
		}
	case CalcPow, CalcAtan2, CalcLog, CalcMod, CalcRem, CalcRound:
		// These take specific binary/ternary numeric shapes; when every
		// operand is a plain Number, collapse them. Otherwise leave the
		// Calculation symbolic so the serializer can print it verbatim.
		if nums, ok := allNumbers(simplified); ok {
			if v, ok := applyBinaryLike(c.Name, nums); ok {
				return Calculation{Name: c.Name, Args: []CalcOperand{v}}, nil
			}
		}
	}

	return Calculation{Name: c.Name, Args: simplified}, nil
}

func simplifyOperand(op CalcOperand, src *logger.Source, span logger.Range) (CalcOperand, error) {
	switch t := op.(type) {
	case Calculation:
		simplified, err := SimplifyCalculation(t, src, span)
		if err != nil {
			return nil, err
		}
		if len(simplified.Args) == 1 {
			if n, ok := simplified.Args[0].(Number); ok && simplified.Name == CalcCalc {
				return n, nil
			}
		}
		return simplified, nil
	case CalcOperation:
		left, err := simplifyOperand(t.Left, src, span)
		if err != nil {
			return nil, err
		}
		right, err := simplifyOperand(t.Right, src, span)
		if err != nil {
			return nil, err
		}
		ln, lok := left.(Number)
		rn, rok := right.(Number)
		if lok && rok {
			switch t.Op {
			case CalcAdd:
				v, err := addNumbers(ln, rn, 1, src, span)
				if err == nil {
					return v.(Number), nil
				}
			case CalcSubtract:
				v, err := addNumbers(ln, rn, -1, src, span)
				if err == nil {
					return v.(Number), nil
				}
			case CalcMultiply:
				num, den, factor := multiplyUnits(ln.Numerator, ln.Denominator, rn.Numerator, rn.Denominator)
				return Number{Value: ln.Value * rn.Value * factor, Numerator: num, Denominator: den}, nil
			case CalcDivide:
				if rn.Value != 0 {
					num, den, factor := multiplyUnits(ln.Numerator, ln.Denominator, rn.Denominator, rn.Numerator)
					return Number{Value: ln.Value / rn.Value * factor, Numerator: num, Denominator: den}, nil
				}
			}
		}
		return CalcOperation{Op: t.Op, Left: left, Right: right}, nil
	default:
		return op, nil
	}
}

func allNumbers(ops []CalcOperand) ([]Number, bool) {
	nums := make([]Number, len(ops))
	for i, op := range ops {
		n, ok := op.(Number)
		if !ok {
			return nil, false
		}
		nums[i] = n
	}
	return nums, true
}

func singleUnitlessOrAngle(ops []CalcOperand) (Number, bool) {
	if len(ops) != 1 {
		return Number{}, false
	}
	n, ok := ops[0].(Number)
	return n, ok
}

func applyUnary(name CalcName, n Number) Number {
	v := n.Value
	switch name {
	case CalcSqrt:
		v = math.Sqrt(v)
	case CalcSin:
		v = math.Sin(v)
	case CalcCos:
		v = math.Cos(v)
	case CalcTan:
		v = math.Tan(v)
	case CalcAsin:
		v = math.Asin(v)
	case CalcAcos:
		v = math.Acos(v)
	case CalcAtan:
		v = math.Atan(v)
	case CalcAbs:
		v = math.Abs(v)
	case CalcExp:
		v = math.Exp(v)
	case CalcSign:
		switch {
		case v > 0:
			v = 1
		case v < 0:
			v = -1
		default:
			v = 0
		}
	}
	return Number{Value: v}
}

func applyBinaryLike(name CalcName, nums []Number) (Number, bool) {
	switch name {
	case CalcPow:
		if len(nums) == 2 {
			return Number{Value: math.Pow(nums[0].Value, nums[1].Value)}, true
		}
	case CalcAtan2:
		if len(nums) == 2 {
			return Number{Value: math.Atan2(nums[0].Value, nums[1].Value)}, true
		}
	case CalcLog:
		if len(nums) == 1 {
			return Number{Value: math.Log(nums[0].Value)}, true
		}
		if len(nums) == 2 {
			return Number{Value: math.Log(nums[0].Value) / math.Log(nums[1].Value)}, true
		}
	case CalcMod:
		if len(nums) == 2 && nums[1].Value != 0 {
			r := math.Mod(nums[0].Value, nums[1].Value)
			if r != 0 && (r < 0) != (nums[1].Value < 0) {
				r += nums[1].Value
			}
			return Number{Value: r, Numerator: nums[0].Numerator, Denominator: nums[0].Denominator}, true
		}
	case CalcRem:
		if len(nums) == 2 && nums[1].Value != 0 {
			return Number{Value: math.Mod(nums[0].Value, nums[1].Value), Numerator: nums[0].Numerator, Denominator: nums[0].Denominator}, true
		}
	case CalcRound:
		if len(nums) == 1 {
			return Number{Value: math.Round(nums[0].Value), Numerator: nums[0].Numerator, Denominator: nums[0].Denominator}, true
		}
	}
	return Number{}, false
}

// CalcOperandToCssString renders an operand the way the serializer needs
// to when a calculation could not be fully folded to a single number.
func CalcOperandToCssString(op CalcOperand) string {
	switch t := op.(type) {
	case Number:
		return formatNumber(t)
	case CalcUnquotedString:
		return string(t)
	case Calculation:
		return CalculationToCssString(t)
	case CalcOperation:
		var opText string
		switch t.Op {
		case CalcAdd:
			opText = " + "
		case CalcSubtract:
			opText = " - "
		case CalcMultiply:
			opText = " * "
		case CalcDivide:
			opText = " / "
		}
		return CalcOperandToCssString(t.Left) + opText + CalcOperandToCssString(t.Right)
	default:
		return ""
	}
}

func CalculationToCssString(c Calculation) string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = CalcOperandToCssString(a)
	}
	return string(c.Name) + "(" + strings.Join(parts, ", ") + ")"
}
