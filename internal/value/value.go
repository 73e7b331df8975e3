// Package value implements the SassScript value algebra (spec.md §3 "Value"
// and §4.1 "Value algebra", component C4). It is pure data plus pure
// functions: no environment, no evaluator, no I/O, so it sits at the bottom
// of the dependency order spec.md §2 prescribes.
//
// The variant-with-a-marker-method shape mirrors esbuild's css_ast.R / SS
// interfaces ("this interface is never called, its purpose is to encode a
// variant type in Go's type system") rather than a sum type with a Kind tag
// and one giant struct.
package value

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sassy-go/sasscore/internal/errs"
	"github.com/sassy-go/sasscore/internal/logger"
)

// Tolerance is the fixed relative tolerance spec.md §4.1 mandates for
// number comparisons: 10^-10 of the greater magnitude.
const Tolerance = 1e-10

// Value is implemented by every SassScript value variant. The method is
// never called; it exists only to make the set of implementers closed and
// exhaustive-switchable, matching the teacher's css_ast.R idiom.
type Value interface {
	isValue()
	Truthy() bool
}

type Null struct{}

func (Null) isValue()      {}
func (Null) Truthy() bool  { return false }

type Boolean bool

func (Boolean) isValue()     {}
func (b Boolean) Truthy() bool { return bool(b) }

// Number carries a magnitude plus numerator/denominator unit multisets
// (spec.md §3: "Number with units" and §4.1: "ordered pair of denominator
// units"). SlashNumerator/SlashDenominator are non-nil only when this
// number was produced by the "/" operator and hasn't been touched by any
// further arithmetic (spec.md §9 "Slash-separated numbers").
type Number struct {
	Value           float64
	Numerator       []string
	Denominator     []string
	SlashNumerator  *Number
	SlashDenominator *Number
}

func (Number) isValue() {}
func (n Number) Truthy() bool { return true }

func NewNumber(v float64, unit ...string) Number {
	if len(unit) == 1 && unit[0] != "" {
		return Number{Value: v, Numerator: []string{unit[0]}}
	}
	return Number{Value: v}
}

func (n Number) Unitless() bool { return len(n.Numerator) == 0 && len(n.Denominator) == 0 }

func (n Number) ClearSlash() Number {
	n.SlashNumerator = nil
	n.SlashDenominator = nil
	return n
}

// IsInt reports whether n is within Tolerance of an integer (spec.md §4.1:
// "Integer detection uses the same relative tolerance").
func (n Number) IsInt() bool {
	return withinTolerance(n.Value, math.Round(n.Value))
}

func withinTolerance(a, b float64) bool {
	diff := math.Abs(a - b)
	if diff == 0 {
		return true
	}
	magnitude := math.Max(math.Abs(a), math.Abs(b))
	return diff <= Tolerance*magnitude
}

// Color stores straight (non-premultiplied) RGBA channels 0-255 for RGB and
// 0-1 for alpha, plus the original source text when the color was parsed
// rather than computed (spec.md §3).
type Color struct {
	R, G, B    uint8
	A          float64
	OriginalText string
	HasOriginalText bool
}

func (Color) isValue()     {}
func (Color) Truthy() bool { return true }

// ListSeparator is one of space/comma/slash/undecided (spec.md §3).
type ListSeparator uint8

const (
	SepUndecided ListSeparator = iota
	SepSpace
	SepComma
	SepSlash
)

func (s ListSeparator) Text() string {
	switch s {
	case SepComma:
		return ", "
	case SepSlash:
		return " / "
	default:
		return " "
	}
}

type List struct {
	Items     []Value
	Separator ListSeparator
	Brackets  bool
}

func (List) isValue()      {}
func (l List) Truthy() bool { return true }

func NewList(sep ListSeparator, items ...Value) List {
	return List{Items: items, Separator: sep}
}

// ArgumentList is a List with named arguments attached and a bit recording
// whether `meta.keywords()` reflected into it (spec.md §3 invariant: "a
// keywords-accessed flag set only by the built-in meta.keywords()
// reflection path").
type ArgumentList struct {
	Items           []Value
	Named           map[string]Value
	NamedOrder      []string
	Separator       ListSeparator
	KeywordsAccessed bool
}

func (ArgumentList) isValue()      {}
func (a ArgumentList) Truthy() bool { return true }

// MapEntry preserves declaration order; spec.md §3 invariant: "map keys use
// structural equality, preserving insertion order".
type MapEntry struct {
	Key   Value
	Value Value
}

type Map struct {
	Entries []MapEntry
}

func (Map) isValue()      {}
func (m Map) Truthy() bool { return true }

func (m *Map) Get(key Value) (Value, bool) {
	for _, e := range m.Entries {
		if Equals(e.Key, key) {
			return e.Value, true
		}
	}
	return nil, false
}

// Set inserts or overwrites key, preserving the original insertion
// position on overwrite (spec.md §3 invariant).
func (m *Map) Set(key, v Value) {
	for i, e := range m.Entries {
		if Equals(e.Key, key) {
			m.Entries[i].Value = v
			return
		}
	}
	m.Entries = append(m.Entries, MapEntry{Key: key, Value: v})
}

// Callable is the uniform interface the evaluator calls through for both
// user-defined and built-in functions (spec.md §9 "Callable polymorphism").
// It is declared here, in the leaf package, so Value.Function can hold a
// reference to it without C4 depending on the evaluator.
type Callable interface {
	CallableName() string
}

type Fn struct {
	Callable Callable
}

func (Fn) isValue()      {}
func (Fn) Truthy() bool { return true }

// CalcName enumerates the closed set of calculation constructors spec.md
// §4.1 names.
type CalcName string

const (
	CalcCalc   CalcName = "calc"
	CalcMin    CalcName = "min"
	CalcMax    CalcName = "max"
	CalcClamp  CalcName = "clamp"
	CalcSqrt   CalcName = "sqrt"
	CalcSin    CalcName = "sin"
	CalcCos    CalcName = "cos"
	CalcTan    CalcName = "tan"
	CalcAsin   CalcName = "asin"
	CalcAcos   CalcName = "acos"
	CalcAtan   CalcName = "atan"
	CalcAbs    CalcName = "abs"
	CalcExp    CalcName = "exp"
	CalcSign   CalcName = "sign"
	CalcHypot  CalcName = "hypot"
	CalcPow    CalcName = "pow"
	CalcAtan2  CalcName = "atan2"
	CalcLog    CalcName = "log"
	CalcMod    CalcName = "mod"
	CalcRem    CalcName = "rem"
	CalcRound  CalcName = "round"
)

var knownCalcNames = map[CalcName]bool{
	CalcCalc: true, CalcMin: true, CalcMax: true, CalcClamp: true, CalcSqrt: true,
	CalcSin: true, CalcCos: true, CalcTan: true, CalcAsin: true, CalcAcos: true,
	CalcAtan: true, CalcAbs: true, CalcExp: true, CalcSign: true, CalcHypot: true,
	CalcPow: true, CalcAtan2: true, CalcLog: true, CalcMod: true, CalcRem: true, CalcRound: true,
}

func IsKnownCalcName(name string) bool { return knownCalcNames[CalcName(name)] }

// CalcOperator is one of the four arithmetic cases a CalculationOperation
// may carry (spec.md §4.1).
type CalcOperator uint8

const (
	CalcAdd CalcOperator = iota
	CalcSubtract
	CalcMultiply
	CalcDivide
)

// CalcOperand is either another Calculation, a Number, an unquoted string,
// or a CalculationOperation — spec.md §4.1's closed operand set.
type CalcOperand interface {
	isCalcOperand()
}

func (Calculation) isCalcOperand()        {}
func (Number) isCalcOperand()             {}
func (CalcUnquotedString) isCalcOperand() {}
func (CalcOperation) isCalcOperand()      {}

type CalcUnquotedString string

type CalcOperation struct {
	Op          CalcOperator
	Left, Right CalcOperand
}

type Calculation struct {
	Name CalcName
	Args []CalcOperand
}

func (Calculation) isValue()      {}
func (Calculation) Truthy() bool { return true }

// --- Arithmetic -------------------------------------------------------

// unitConversions buckets compatible CSS units for conversion (spec.md §4.1:
// "right-hand units convert into left-hand units when compatible"). This
// is a closed, hand-rolled table: no example repo in the retrieval pack
// ships a CSS-unit-conversion table, and the conversion factors are fixed
// physical/typographic constants rather than logic a library would own.
var unitConversions = map[string]map[string]float64{
	"in": {"in": 1, "cm": 1.0 / 2.54, "mm": 1.0 / 25.4, "q": 1.0 / 101.6, "pt": 1.0 / 72, "pc": 1.0 / 6, "px": 1.0 / 96},
	"cm": {"in": 2.54, "cm": 1, "mm": 0.1, "q": 0.025, "pt": 2.54 / 72, "pc": 2.54 / 6, "px": 2.54 / 96},
	"mm": {"in": 25.4, "cm": 10, "mm": 1, "q": 0.25, "pt": 25.4 / 72, "pc": 25.4 / 6, "px": 25.4 / 96},
	"q":  {"in": 101.6, "cm": 40, "mm": 4, "q": 1, "pt": 101.6 / 72, "pc": 101.6 / 6, "px": 101.6 / 96},
	"pt": {"in": 72, "cm": 72 / 2.54, "mm": 72 / 25.4, "q": 72 / 101.6, "pt": 1, "pc": 12, "px": 0.75},
	"pc": {"in": 6, "cm": 6 / 2.54, "mm": 6 / 25.4, "q": 6 / 101.6, "pt": 1.0 / 12, "pc": 1, "px": 1.0 / 16},
	"px": {"in": 96, "cm": 96 / 2.54, "mm": 96 / 25.4, "q": 96 / 101.6, "pt": 4.0 / 3, "pc": 16, "px": 1},
	"deg":  {"deg": 1, "grad": 0.9, "rad": 180 / math.Pi, "turn": 360},
	"grad": {"deg": 1.0 / 0.9, "grad": 1, "rad": 200 / math.Pi, "turn": 400},
	"rad":  {"deg": math.Pi / 180, "grad": math.Pi / 200, "rad": 1, "turn": 2 * math.Pi},
	"turn": {"deg": 1.0 / 360, "grad": 1.0 / 400, "rad": 1.0 / (2 * math.Pi), "turn": 1},
	"s":  {"s": 1, "ms": 0.001},
	"ms": {"s": 1000, "ms": 1},
	"dpi":  {"dpi": 1, "dpcm": 2.54, "dppx": 96},
	"dpcm": {"dpi": 1.0 / 2.54, "dpcm": 1, "dppx": 96 / 2.54},
	"dppx": {"dpi": 1.0 / 96, "dpcm": 2.54 / 96, "dppx": 1},
}

func convertibleRate(from, to string) (float64, bool) {
	if from == to {
		return 1, true
	}
	if table, ok := unitConversions[strings.ToLower(from)]; ok {
		if rate, ok := table[strings.ToLower(to)]; ok {
			return rate, true
		}
	}
	return 0, false
}

// multiplyUnits concatenates the numerator and denominator units of a
// product, cancels convertible numerator/denominator pairs, and returns the
// factor those conversions introduce. It mutates none of its arguments.
func multiplyUnits(aNum, aDen, bNum, bDen []string) (num, den []string, factor float64) {
	factor = 1
	num = append(append([]string(nil), aNum...), bNum...)
	den = append(append([]string(nil), aDen...), bDen...)
	num, den, factor = cancel(num, den, factor)
	return
}

func cancel(num, den []string, factor float64) ([]string, []string, float64) {
	for i := 0; i < len(num); i++ {
		for j := 0; j < len(den); j++ {
			if rate, ok := convertibleRate(den[j], num[i]); ok {
				factor *= rate
				num = append(num[:i], num[i+1:]...)
				den = append(den[:j], den[j+1:]...)
				i--
				break
			}
		}
	}
	return num, den, factor
}

// Plus implements spec.md §4.1 "plus": numeric units unify, strings
// concatenate inheriting left quoting, otherwise an unquoted-string concat.
func Plus(a, b Value, src *logger.Source, span logger.Range) (Value, error) {
	if an, ok := a.(Number); ok {
		if bn, ok := b.(Number); ok {
			return addNumbers(an, bn, 1, src, span)
		}
	}
	if as, ok := a.(Str); ok {
		return Str{Text: as.Text + ToCssString(b, false), Quoted: as.Quoted}, nil
	}
	if _, ok := a.(Null); ok {
		return Str{Text: ToCssString(b, false)}, nil
	}
	return Str{Text: ToCssString(a, false) + ToCssString(b, false)}, nil
}

func Minus(a, b Value, src *logger.Source, span logger.Range) (Value, error) {
	if an, ok := a.(Number); ok {
		if bn, ok := b.(Number); ok {
			return addNumbers(an, bn, -1, src, span)
		}
	}
	return Str{Text: ToCssString(a, false) + "-" + ToCssString(b, false)}, nil
}

func addNumbers(a, b Number, sign float64, src *logger.Source, span logger.Range) (Value, error) {
	num, den, factor, err := unifyUnits(a, b, src, span)
	if err != nil {
		return nil, err
	}
	return Number{Value: a.Value + sign*b.Value*factor, Numerator: num, Denominator: den}, nil
}

func unifyUnits(a, b Number, src *logger.Source, span logger.Range) (num, den []string, factor float64, err error) {
	if a.Unitless() || b.Unitless() {
		if !a.Unitless() && b.Unitless() {
			return a.Numerator, a.Denominator, 1, nil
		}
		return a.Numerator, a.Denominator, 1, nil
	}
	if sameUnits(a.Numerator, b.Numerator) && sameUnits(a.Denominator, b.Denominator) {
		return a.Numerator, a.Denominator, 1, nil
	}
	// Try to convert b's units into a's
	factor = 1
	for _, u := range a.Numerator {
		rate, ok := findAndConvert(&b.Numerator, u)
		if !ok {
			return nil, nil, 0, errs.New(errs.TypeError, src, span, fmt.Sprintf("Incompatible units %s and %s.", unitString(a.Numerator, a.Denominator), unitString(b.Numerator, b.Denominator)))
		}
		factor *= rate
	}
	return a.Numerator, a.Denominator, factor, nil
}

func findAndConvert(units *[]string, target string) (float64, bool) {
	for i, u := range *units {
		if rate, ok := convertibleRate(target, u); ok {
			(*units)[i] = target
			return rate, true
		}
	}
	return 0, false
}

func sameUnits(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	ac := append([]string(nil), a...)
	bc := append([]string(nil), b...)
	sort.Strings(ac)
	sort.Strings(bc)
	for i := range ac {
		if !strings.EqualFold(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

func unitString(num, den []string) string {
	if len(den) == 0 {
		if len(num) == 0 {
			return "no units"
		}
		return strings.Join(num, "*")
	}
	return strings.Join(num, "*") + "/" + strings.Join(den, "*")
}

func Times(a, b Value, src *logger.Source, span logger.Range) (Value, error) {
	an, aok := a.(Number)
	bn, bok := b.(Number)
	if !aok || !bok {
		return nil, errs.New(errs.TypeError, src, span, fmt.Sprintf("%s and %s are not both numbers.", describe(a), describe(b)))
	}
	num, den, factor := multiplyUnits(an.Numerator, an.Denominator, bn.Numerator, bn.Denominator)
	return Number{Value: an.Value * bn.Value * factor, Numerator: num, Denominator: den}, nil
}

// Div implements spec.md §4.1's numeric "/" along with §9's slash-notation
// carryover: the result keeps SlashNumerator/SlashDenominator pointing at
// the two operands it divided, so a caller that only ever serializes the
// result (never applies further arithmetic to it) can still print the
// original "a/b" text. Every other binary arithmetic entry point in this
// file builds its result as a fresh Number literal, which leaves those
// fields nil, and the unary operators call ClearSlash, so the slash pair is
// dropped the moment any other operator touches the value.
func Div(a, b Value, src *logger.Source, span logger.Range) (Value, error) {
	an, aok := a.(Number)
	bn, bok := b.(Number)
	if !aok || !bok {
		return nil, errs.New(errs.TypeError, src, span, fmt.Sprintf("%s and %s are not both numbers.", describe(a), describe(b)))
	}
	if bn.Value == 0 {
		return nil, errs.New(errs.TypeError, src, span, "division by zero")
	}
	num, den, factor := multiplyUnits(an.Numerator, an.Denominator, bn.Denominator, bn.Numerator)
	left, right := an, bn
	return Number{
		Value:            an.Value / bn.Value * factor,
		Numerator:        num,
		Denominator:      den,
		SlashNumerator:   &left,
		SlashDenominator: &right,
	}, nil
}

func Mod(a, b Value, src *logger.Source, span logger.Range) (Value, error) {
	an, aok := a.(Number)
	bn, bok := b.(Number)
	if !aok || !bok {
		return nil, errs.New(errs.TypeError, src, span, fmt.Sprintf("%s and %s are not both numbers.", describe(a), describe(b)))
	}
	num, den, factor, err := unifyUnits(an, bn, src, span)
	if err != nil {
		return nil, err
	}
	divisor := bn.Value * factor
	result := math.Mod(an.Value, divisor)
	if result != 0 && (result < 0) != (divisor < 0) {
		result += divisor
	}
	return Number{Value: result, Numerator: num, Denominator: den}, nil
}

func Compare(a, b Value, src *logger.Source, span logger.Range) (int, error) {
	an, aok := a.(Number)
	bn, bok := b.(Number)
	if !aok || !bok {
		return 0, errs.New(errs.TypeError, src, span, fmt.Sprintf("%s and %s are not both numbers.", describe(a), describe(b)))
	}
	_, _, factor, err := unifyUnits(an, bn, src, span)
	if err != nil {
		return 0, err
	}
	bv := bn.Value * factor
	if withinTolerance(an.Value, bv) {
		return 0, nil
	}
	if an.Value < bv {
		return -1, nil
	}
	return 1, nil
}

// Equals implements spec.md §4.1 "equals": structural, with numeric
// tolerance, order-sensitive lists, bag-like maps.
func Equals(a, b Value) bool {
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Boolean:
		bv, ok := b.(Boolean)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		if !ok {
			return false
		}
		if sameUnits(av.Numerator, bv.Numerator) && sameUnits(av.Denominator, bv.Denominator) {
			return withinTolerance(av.Value, bv.Value)
		}
		if av.Unitless() != bv.Unitless() {
			return false
		}
		_, _, factor, err := unifyUnits(av, bv, nil, logger.Range{})
		if err != nil {
			return false
		}
		return withinTolerance(av.Value, bv.Value*factor)
	case Color:
		bv, ok := b.(Color)
		return ok && av.R == bv.R && av.G == bv.G && av.B == bv.B && withinTolerance(av.A, bv.A)
	case Str:
		bv, ok := b.(Str)
		return ok && av.Text == bv.Text
	case List:
		bv, ok := b.(List)
		if !ok || av.Separator != bv.Separator || av.Brackets != bv.Brackets || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !Equals(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case Map:
		bv, ok := b.(Map)
		if !ok || len(av.Entries) != len(bv.Entries) {
			return false
		}
		for _, e := range av.Entries {
			other, ok := bv.Get(e.Key)
			if !ok || !Equals(e.Value, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func And(a, b func() (Value, error)) (Value, error) {
	av, err := a()
	if err != nil {
		return nil, err
	}
	if !av.Truthy() {
		return av, nil
	}
	return b()
}

func Or(a, b func() (Value, error)) (Value, error) {
	av, err := a()
	if err != nil {
		return nil, err
	}
	if av.Truthy() {
		return av, nil
	}
	return b()
}

func Not(a Value) Boolean { return Boolean(!a.Truthy()) }

func UnaryMinus(a Value, src *logger.Source, span logger.Range) (Value, error) {
	if n, ok := a.(Number); ok {
		n.Value = -n.Value
		return n.ClearSlash(), nil
	}
	return Str{Text: "-" + ToCssString(a, false)}, nil
}

func UnaryPlus(a Value, src *logger.Source, span logger.Range) (Value, error) {
	if n, ok := a.(Number); ok {
		return n.ClearSlash(), nil
	}
	return Str{Text: "+" + ToCssString(a, false)}, nil
}

// UnaryDivide renders the CSS-only "/x" representation (spec.md §4.1).
func UnaryDivide(a Value) Value {
	return Str{Text: "/" + ToCssString(a, false)}
}

// SingleEquals implements spec.md §4.1's legacy IE filter syntax.
func SingleEquals(a, b Value) Value {
	return Str{Text: ToCssString(a, true) + "=" + ToCssString(b, true)}
}

func describe(v Value) string {
	switch v.(type) {
	case Null:
		return "null"
	case Boolean:
		return "a boolean"
	case Number:
		return "a number"
	case Color:
		return "a color"
	case Str:
		return "a string"
	case List:
		return "a list"
	case Map:
		return "a map"
	case Calculation:
		return "a calculation"
	default:
		return "a value"
	}
}

// --- Strings -----------------------------------------------------------

type Str struct {
	Text   string
	Quoted bool
}

func (Str) isValue()      {}
func (Str) Truthy() bool { return true }

// ToCssString implements spec.md §4.1's total-except-a-few-cases
// `toCssString`. inspect, when true, renders values (like functions) that
// would otherwise be a CssNotRepresentable error outside inspect mode.
// Lists and maps are rendered here too, item by item.
func ToCssString(v Value, inspect bool) string {
	switch t := v.(type) {
	case Null:
		return ""
	case Boolean:
		if t {
			return "true"
		}
		return "false"
	case Number:
		return formatNumber(t)
	case Color:
		return formatColorInspect(t)
	case Str:
		return t.Text
	case List:
		parts := make([]string, len(t.Items))
		for i, it := range t.Items {
			parts[i] = ToCssString(it, inspect)
		}
		text := strings.Join(parts, t.Separator.Text())
		if t.Brackets {
			return "[" + text + "]"
		}
		return text
	case Map:
		parts := make([]string, len(t.Entries))
		for i, e := range t.Entries {
			parts[i] = ToCssString(e.Key, inspect) + ": " + ToCssString(e.Value, inspect)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case Calculation:
		return CalculationToCssString(t)
	case Fn:
		if inspect {
			return "get-function(\"" + t.Callable.CallableName() + "\")"
		}
		return ""
	default:
		return ""
	}
}

// IsCssRepresentable reports whether v can appear in CSS output without
// inspect mode; callers that serialize real CSS (as opposed to debug output)
// must check this before calling ToCssString and raise CssNotRepresentable
// themselves, since only they hold the source/span needed for the error.
func IsCssRepresentable(v Value) bool {
	switch t := v.(type) {
	case Fn:
		return false
	case Null:
		return false
	case List:
		if len(t.Items) == 0 && !t.Brackets {
			return false
		}
		for _, it := range t.Items {
			if !IsCssRepresentable(it) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func formatColorInspect(c Color) string {
	if c.HasOriginalText {
		return c.OriginalText
	}
	if c.A == 1 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, formatNumber(NewNumber(c.A)))
}

// namedColorsByRGB is a reverse lookup from RGB triple to its shortest CSS
// named-color spelling, used only by ShortestColorText when a name is no
// longer than the hex alternatives; this is not the full CSS named-color
// table, only a handful of common colors, and some of them (black, white,
// blue, yellow, cyan, magenta) never win because their #rgb form is shorter.
var namedColorsByRGB = map[[3]uint8]string{
	{0, 0, 0}:       "black",
	{255, 255, 255}: "white",
	{255, 0, 0}:     "red",
	{0, 128, 0}:     "green",
	{0, 0, 255}:     "blue",
	{255, 255, 0}:   "yellow",
	{255, 165, 0}:   "orange",
	{128, 0, 128}:   "purple",
	{255, 192, 203}: "pink",
	{165, 42, 42}:   "brown",
	{128, 128, 128}: "gray",
	{0, 255, 255}:   "cyan",
	{255, 0, 255}:   "magenta",
}

// ShortestColorText implements spec.md §4.6's color contract: emit the
// shortest of #rgb, #rrggbb, a named color, or rgba(...), forcing rgba(...)
// for a fully transparent color that was computed rather than written
// literally (the "calculated transparent color" browser-bug workaround).
func ShortestColorText(c Color) string {
	if c.A != 1 {
		if c.A == 0 && !c.HasOriginalText {
			return fmt.Sprintf("rgba(%d, %d, %d, 0)", c.R, c.G, c.B)
		}
		return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, formatNumber(NewNumber(c.A)))
	}

	hex6 := fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	shortest := hex6
	if isHex3Representable(c) {
		hex3 := fmt.Sprintf("#%x%x%x", c.R>>4, c.G>>4, c.B>>4)
		if len(hex3) < len(shortest) {
			shortest = hex3
		}
	}
	if name, ok := namedColorsByRGB[[3]uint8{c.R, c.G, c.B}]; ok && name != "" && len(name) < len(shortest) {
		shortest = name
	}
	return shortest
}

func isHex3Representable(c Color) bool {
	return c.R%17 == 0 && c.G%17 == 0 && c.B%17 == 0
}

// FormatNumberForStyle renders n the way the serializer's chosen output
// style requires (spec.md §4.6): compressed mode drops a leading "0" before
// the decimal point and collapses a zero value that carries units down to
// the bare "0" (a unit is meaningless on a zero length/angle/etc).
func FormatNumberForStyle(n Number, compressed bool) string {
	if n.SlashNumerator != nil && n.SlashDenominator != nil {
		return FormatNumberForStyle(*n.SlashNumerator, compressed) + "/" + FormatNumberForStyle(*n.SlashDenominator, compressed)
	}
	if compressed && n.IsInt() && math.Round(n.Value) == 0 && !n.Unitless() {
		return "0"
	}
	s := formatNumber(n)
	if !compressed {
		return s
	}
	if strings.HasPrefix(s, "0.") {
		return s[1:]
	}
	if strings.HasPrefix(s, "-0.") {
		return "-" + s[2:]
	}
	return s
}

// formatNumber applies spec.md §4.6's number-formatting contract: decimal
// notation, integers when within Tolerance, otherwise at most 10 digits
// after the decimal with half-up rounding. The unit suffix is appended
// verbatim (compound units, e.g. "px*px/ms", are passed through as-is since
// CSS itself never sees a number with more than one numerator unit). A
// number still carrying its slash-notation operands (spec.md §9) prints
// their own formatted text joined by "/" instead of the computed quotient.
func formatNumber(n Number) string {
	if n.SlashNumerator != nil && n.SlashDenominator != nil {
		return formatNumber(*n.SlashNumerator) + "/" + formatNumber(*n.SlashDenominator)
	}
	v := n.Value
	var s string
	if n.IsInt() {
		s = fmt.Sprintf("%d", int64(math.Round(v)))
	} else {
		s = strconvFixed(v, 10)
	}
	return s + cssUnitSuffix(n.Numerator, n.Denominator)
}

// cssUnitSuffix renders a number's unit multiset the way it must appear
// after the numeric text in CSS output (spec.md §3 "Number with units").
func cssUnitSuffix(num, den []string) string {
	if len(num) == 0 && len(den) == 0 {
		return ""
	}
	if len(den) == 0 {
		return strings.Join(num, "*")
	}
	return strings.Join(num, "*") + "/" + strings.Join(den, "*")
}

func strconvFixed(v float64, maxDecimals int) string {
	neg := v < 0
	if neg {
		v = -v
	}
	scale := math.Pow(10, float64(maxDecimals))
	rounded := math.Floor(v*scale+0.5) / scale
	s := fmt.Sprintf("%.*f", maxDecimals, rounded)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if neg && s != "0" {
		s = "-" + s
	}
	return s
}
