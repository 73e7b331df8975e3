package eval

import (
	"strings"

	"github.com/sassy-go/sasscore/internal/errs"
	"github.com/sassy-go/sasscore/internal/sassast"
	"github.com/sassy-go/sasscore/internal/value"
)

// evalExpr is spec.md §4.4's "total function Expression → Value".
func (e *Evaluator) evalExpr(expr sassast.Expression) (value.Value, error) {
	switch ex := expr.(type) {
	case nil:
		return value.Null{}, nil
	case sassast.NumberLiteral:
		return value.NewNumber(ex.Value, ex.Unit), nil
	case sassast.ColorLiteral:
		c, ok := parseColorPlaceholder(ex.Text)
		if !ok {
			return nil, errs.Newf(errs.Internal, e.source, ex.Span(), "invalid color literal %q", ex.Text)
		}
		return c, nil
	case sassast.BoolLiteral:
		return value.Boolean(ex.Value), nil
	case sassast.NullLiteral:
		return value.Null{}, nil
	case sassast.StringLiteral:
		text, err := e.evalStringParts(ex.Parts)
		if err != nil {
			return nil, err
		}
		return value.Str{Text: text, Quoted: ex.Quoted}, nil
	case sassast.ListLiteral:
		items := make([]value.Value, len(ex.Items))
		for i, it := range ex.Items {
			v, err := e.evalExpr(it)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return value.List{Items: items, Separator: separatorFromText(ex.Separator), Brackets: ex.Brackets}, nil
	case sassast.MapLiteral:
		m := value.Map{}
		for i := range ex.Keys {
			k, err := e.evalExpr(ex.Keys[i])
			if err != nil {
				return nil, err
			}
			v, err := e.evalExpr(ex.Values[i])
			if err != nil {
				return nil, err
			}
			m.Set(k, v)
		}
		return m, nil
	case sassast.VariableRef:
		v, ok := e.env.GetVariable(ex.Name, ex.Namespace)
		if !ok {
			return nil, errs.Newf(errs.UndefinedReference, e.source, ex.Span(), "Undefined variable: $%s.", ex.Name)
		}
		return v, nil
	case sassast.ParenExpr:
		v, err := e.evalExpr(ex.Inner)
		if n, ok := v.(value.Number); ok && err == nil {
			return n.ClearSlash(), nil
		}
		return v, err
	case sassast.BinaryOp:
		return e.evalBinaryOp(ex)
	case sassast.UnaryOp:
		return e.evalUnaryOp(ex)
	case sassast.TernaryIf:
		cond, err := e.evalExpr(ex.ConditionExpr)
		if err != nil {
			return nil, err
		}
		if cond.Truthy() {
			return e.evalExpr(ex.ThenExpr)
		}
		return e.evalExpr(ex.ElseExpr)
	case sassast.Interpolation:
		text, err := e.evalStringParts(ex.Parts)
		if err != nil {
			return nil, err
		}
		return value.Str{Text: text}, nil
	case sassast.ParentSelectorRef:
		if len(e.currentSelector) == 0 {
			return value.Null{}, nil
		}
		parts := make([]string, len(e.currentSelector))
		for i, c := range e.currentSelector {
			parts[i] = c.String()
		}
		return value.Str{Text: strings.Join(parts, ", ")}, nil
	case sassast.FunctionCall:
		return e.evalFunctionCall(ex)
	default:
		return nil, errs.Newf(errs.Internal, e.source, expr.Span(), "unhandled expression %T", expr)
	}
}

func (e *Evaluator) evalStringParts(parts []interface{}) (string, error) {
	var b strings.Builder
	for _, p := range parts {
		switch t := p.(type) {
		case string:
			b.WriteString(t)
		case sassast.Expression:
			v, err := e.evalExpr(t)
			if err != nil {
				return "", err
			}
			b.WriteString(value.ToCssString(v, false))
		}
	}
	return b.String(), nil
}

// evalInterpolationToText evaluates an expression that is allowed to be
// nil (selector/at-rule preludes that carry only literal text wrapped as
// a single-part Interpolation) down to a plain string.
func (e *Evaluator) evalInterpolationToText(expr sassast.Expression) (string, error) {
	if expr == nil {
		return "", nil
	}
	v, err := e.evalExpr(expr)
	if err != nil {
		return "", err
	}
	return value.ToCssString(v, false), nil
}

func separatorFromText(s string) value.ListSeparator {
	switch s {
	case "comma":
		return value.SepComma
	case "slash":
		return value.SepSlash
	case "space":
		return value.SepSpace
	default:
		return value.SepUndecided
	}
}

func (e *Evaluator) evalBinaryOp(ex sassast.BinaryOp) (value.Value, error) {
	switch ex.Op {
	case "and":
		return value.And(
			func() (value.Value, error) { return e.evalExpr(ex.Left) },
			func() (value.Value, error) { return e.evalExpr(ex.Right) },
		)
	case "or":
		return value.Or(
			func() (value.Value, error) { return e.evalExpr(ex.Left) },
			func() (value.Value, error) { return e.evalExpr(ex.Right) },
		)
	}
	l, err := e.evalExpr(ex.Left)
	if err != nil {
		return nil, err
	}
	r, err := e.evalExpr(ex.Right)
	if err != nil {
		return nil, err
	}
	switch ex.Op {
	case "+":
		return value.Plus(l, r, e.source, ex.Span())
	case "-":
		return value.Minus(l, r, e.source, ex.Span())
	case "*":
		return value.Times(l, r, e.source, ex.Span())
	case "/":
		return value.Div(l, r, e.source, ex.Span())
	case "%":
		return value.Mod(l, r, e.source, ex.Span())
	case "==":
		return value.Boolean(value.Equals(l, r)), nil
	case "!=":
		return value.Boolean(!value.Equals(l, r)), nil
	case "<", "<=", ">", ">=":
		cmp, err := value.Compare(l, r, e.source, ex.Span())
		if err != nil {
			return nil, err
		}
		switch ex.Op {
		case "<":
			return value.Boolean(cmp < 0), nil
		case "<=":
			return value.Boolean(cmp <= 0), nil
		case ">":
			return value.Boolean(cmp > 0), nil
		default:
			return value.Boolean(cmp >= 0), nil
		}
	case "=":
		return value.SingleEquals(l, r), nil
	default:
		return nil, errs.Newf(errs.Internal, e.source, ex.Span(), "unhandled binary operator %q", ex.Op)
	}
}

func (e *Evaluator) evalUnaryOp(ex sassast.UnaryOp) (value.Value, error) {
	v, err := e.evalExpr(ex.Operand)
	if err != nil {
		return nil, err
	}
	switch ex.Op {
	case "-":
		return value.UnaryMinus(v, e.source, ex.Span())
	case "+":
		return value.UnaryPlus(v, e.source, ex.Span())
	case "/":
		return value.UnaryDivide(v), nil
	case "not":
		return value.Not(v), nil
	default:
		return nil, errs.Newf(errs.Internal, e.source, ex.Span(), "unhandled unary operator %q", ex.Op)
	}
}
