package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassy-go/sasscore/internal/logger"
	"github.com/sassy-go/sasscore/internal/value"
)

func noSpan() (*logger.Source, logger.Range) { return nil, logger.Range{} }

func TestPlusNumbersUnifiesUnits(t *testing.T) {
	src, span := noSpan()
	a := value.NewNumber(1, "in")
	b := value.NewNumber(1, "px")
	result, err := value.Plus(a, b, src, span)
	require.NoError(t, err)
	n, ok := result.(value.Number)
	require.True(t, ok)
	assert.InDelta(t, 1+1.0/96, n.Value, 1e-9)
}

func TestPlusIncompatibleUnitsErrors(t *testing.T) {
	src, span := noSpan()
	_, err := value.Plus(value.NewNumber(1, "px"), value.NewNumber(1, "deg"), src, span)
	assert.Error(t, err)
}

func TestPlusStringConcatInheritsLeftQuoting(t *testing.T) {
	src, span := noSpan()
	result, err := value.Plus(value.Str{Text: "a", Quoted: true}, value.NewNumber(1), src, span)
	require.NoError(t, err)
	s, ok := result.(value.Str)
	require.True(t, ok)
	assert.Equal(t, "a1", s.Text)
	assert.True(t, s.Quoted)
}

func TestEqualsNumberCrossUnitTolerance(t *testing.T) {
	assert.True(t, value.Equals(value.NewNumber(1, "in"), value.NewNumber(96, "px")))
	assert.False(t, value.Equals(value.NewNumber(1, "in"), value.NewNumber(2, "px")))
}

func TestEqualsUnitlessVsUnitMismatch(t *testing.T) {
	assert.False(t, value.Equals(value.NewNumber(1), value.NewNumber(1, "px")))
}

func TestIsIntWithinTolerance(t *testing.T) {
	n := value.NewNumber(2.00000000001)
	assert.True(t, n.IsInt())
}

func TestCompareOrdersAcrossConvertibleUnits(t *testing.T) {
	src, span := noSpan()
	c, err := value.Compare(value.NewNumber(2, "cm"), value.NewNumber(1, "in"), src, span)
	require.NoError(t, err)
	assert.Equal(t, -1, c)
}

func TestTimesMultipliesUnits(t *testing.T) {
	src, span := noSpan()
	result, err := value.Times(value.NewNumber(2, "px"), value.NewNumber(3), src, span)
	require.NoError(t, err)
	n := result.(value.Number)
	assert.Equal(t, 6.0, n.Value)
	assert.Equal(t, []string{"px"}, n.Numerator)
}

func TestDivByZeroErrors(t *testing.T) {
	src, span := noSpan()
	_, err := value.Div(value.NewNumber(1), value.NewNumber(0), src, span)
	assert.Error(t, err)
}

func TestModTakesDivisorSign(t *testing.T) {
	src, span := noSpan()
	result, err := value.Mod(value.NewNumber(-7), value.NewNumber(3), src, span)
	require.NoError(t, err)
	n := result.(value.Number)
	assert.Equal(t, 2.0, n.Value)
}

func TestSlashDivideCarriesOperandsForFormatting(t *testing.T) {
	src, span := noSpan()
	result, err := value.Div(value.NewNumber(1), value.NewNumber(2), src, span)
	require.NoError(t, err)
	n := result.(value.Number)
	assert.Equal(t, 0.5, n.Value)
	assert.Equal(t, "1/2", value.FormatNumberForStyle(n, false))
	assert.Equal(t, "1/2", value.ToCssString(n, false))
}

func TestClearSlashDropsPairAfterFurtherArithmetic(t *testing.T) {
	src, span := noSpan()
	divided, err := value.Div(value.NewNumber(1), value.NewNumber(2), src, span)
	require.NoError(t, err)

	added, err := value.Plus(divided, value.NewNumber(0), src, span)
	require.NoError(t, err)
	n := added.(value.Number)
	assert.Equal(t, "0.5", value.FormatNumberForStyle(n, false))

	negated, err := value.UnaryMinus(divided, src, span)
	require.NoError(t, err)
	assert.Equal(t, "-0.5", value.FormatNumberForStyle(negated.(value.Number), false))
}

func TestListEqualsIsOrderSensitive(t *testing.T) {
	a := value.NewList(value.SepComma, value.NewNumber(1), value.NewNumber(2))
	b := value.NewList(value.SepComma, value.NewNumber(2), value.NewNumber(1))
	assert.False(t, value.Equals(a, b))
}

func TestMapEqualsIsUnorderedBag(t *testing.T) {
	a := value.Map{Entries: []value.MapEntry{
		{Key: value.Str{Text: "x"}, Value: value.NewNumber(1)},
		{Key: value.Str{Text: "y"}, Value: value.NewNumber(2)},
	}}
	b := value.Map{Entries: []value.MapEntry{
		{Key: value.Str{Text: "y"}, Value: value.NewNumber(2)},
		{Key: value.Str{Text: "x"}, Value: value.NewNumber(1)},
	}}
	assert.True(t, value.Equals(a, b))
}

func TestMapSetPreservesInsertionPositionOnOverwrite(t *testing.T) {
	m := value.Map{}
	m.Set(value.Str{Text: "a"}, value.NewNumber(1))
	m.Set(value.Str{Text: "b"}, value.NewNumber(2))
	m.Set(value.Str{Text: "a"}, value.NewNumber(3))
	require.Len(t, m.Entries, 2)
	assert.Equal(t, value.Str{Text: "a"}, m.Entries[0].Key)
	got, ok := m.Get(value.Str{Text: "a"})
	require.True(t, ok)
	assert.Equal(t, value.NewNumber(3), got)
}

func TestToCssStringFormatsIntegersWithoutDecimal(t *testing.T) {
	assert.Equal(t, "2", value.ToCssString(value.NewNumber(2.0000000000001), false))
}

func TestToCssStringListUsesSeparatorText(t *testing.T) {
	l := value.NewList(value.SepComma, value.Str{Text: "a"}, value.Str{Text: "b"})
	assert.Equal(t, "a, b", value.ToCssString(l, false))
}

func TestToCssStringBracketedList(t *testing.T) {
	l := value.List{Items: []value.Value{value.Str{Text: "a"}}, Separator: value.SepSpace, Brackets: true}
	assert.Equal(t, "[a]", value.ToCssString(l, false))
}

func TestIsCssRepresentableRejectsFunctionsAndEmptyUnbracketedLists(t *testing.T) {
	assert.False(t, value.IsCssRepresentable(value.Null{}))
	assert.False(t, value.IsCssRepresentable(value.Fn{}))
	assert.False(t, value.IsCssRepresentable(value.List{}))
	assert.True(t, value.IsCssRepresentable(value.List{Brackets: true}))
}

func TestCalculationSimplifiesNumericMin(t *testing.T) {
	src, span := noSpan()
	calc, err := value.NewCalculation(value.CalcMin, []value.CalcOperand{
		value.NewNumber(3, "px"), value.NewNumber(1, "px"), value.NewNumber(2, "px"),
	}, false, src, span)
	require.NoError(t, err)
	require.Len(t, calc.Args, 1)
	n, ok := calc.Args[0].(value.Number)
	require.True(t, ok)
	assert.Equal(t, 1.0, n.Value)
}

func TestCalculationSimplificationSuppressedInsideSupports(t *testing.T) {
	src, span := noSpan()
	calc, err := value.NewCalculation(value.CalcMin, []value.CalcOperand{
		value.NewNumber(3, "px"), value.NewNumber(1, "px"),
	}, true, src, span)
	require.NoError(t, err)
	assert.Len(t, calc.Args, 2)
}

func TestCalculationAddOperationFoldsWhenBothOperandsAreNumbers(t *testing.T) {
	src, span := noSpan()
	calc, err := value.NewCalculation(value.CalcCalc, []value.CalcOperand{
		value.CalcOperation{Op: value.CalcAdd, Left: value.NewNumber(1, "px"), Right: value.NewNumber(2, "px")},
	}, false, src, span)
	require.NoError(t, err)
	require.Len(t, calc.Args, 1)
	n, ok := calc.Args[0].(value.Number)
	require.True(t, ok)
	assert.Equal(t, 3.0, n.Value)
}

func TestCalculationToCssStringRendersUnfoldedOperation(t *testing.T) {
	calc := value.Calculation{Name: value.CalcCalc, Args: []value.CalcOperand{
		value.CalcOperation{Op: value.CalcAdd, Left: value.CalcUnquotedString("1px"), Right: value.CalcUnquotedString("var(--x)")},
	}}
	assert.Equal(t, "calc(1px + var(--x))", value.CalculationToCssString(calc))
}
