package eval

import (
	"strconv"
	"strings"

	"github.com/sassy-go/sasscore/internal/selector"
	"github.com/sassy-go/sasscore/internal/value"
)

// parseColorPlaceholder parses a hex color literal (`#rgb`, `#rgba`,
// `#rrggbb`, `#rrggbbaa`), grounded on the hex-digit-pair decoding idiom in
// _examples/evanw-esbuild/internal/css_parser/css_decls_color.go's
// parseColor. Named colors ("red", "rebeccapurple", ...) and the
// `rgb()`/`hsl()` functional notations are parsed as ordinary function
// calls elsewhere (spec.md §6: full CSS color-syntax parsing belongs to
// the external parser collaborator) — this placeholder only covers the
// literal hash form the lexer hands the evaluator directly as a
// ColorLiteral node.
func parseColorPlaceholder(text string) (value.Color, bool) {
	if !strings.HasPrefix(text, "#") {
		return value.Color{}, false
	}
	hex := text[1:]
	expand := func(c byte) (byte, bool) {
		n, ok := hexByte(c, c)
		return n, ok
	}
	switch len(hex) {
	case 3, 4:
		r, ok1 := expand(hex[0])
		g, ok2 := expand(hex[1])
		b, ok3 := expand(hex[2])
		if !ok1 || !ok2 || !ok3 {
			return value.Color{}, false
		}
		a := 1.0
		if len(hex) == 4 {
			av, ok4 := expand(hex[3])
			if !ok4 {
				return value.Color{}, false
			}
			a = float64(av) / 255
		}
		return value.Color{R: r, G: g, B: b, A: a, OriginalText: text, HasOriginalText: true}, true
	case 6, 8:
		r, ok1 := hexByte(hex[0], hex[1])
		g, ok2 := hexByte(hex[2], hex[3])
		b, ok3 := hexByte(hex[4], hex[5])
		if !ok1 || !ok2 || !ok3 {
			return value.Color{}, false
		}
		a := 1.0
		if len(hex) == 8 {
			av, ok4 := hexByte(hex[6], hex[7])
			if !ok4 {
				return value.Color{}, false
			}
			a = float64(av) / 255
		}
		return value.Color{R: r, G: g, B: b, A: a, OriginalText: text, HasOriginalText: true}, true
	default:
		return value.Color{}, false
	}
}

func hexByte(hi, lo byte) (byte, bool) {
	h, err1 := strconv.ParseUint(string(hi), 16, 8)
	l, err2 := strconv.ParseUint(string(lo), 16, 8)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return byte(h<<4 | l), true
}

// defaultSelectorParser implements the degenerate selector-text grammar
// this evaluation core parses directly rather than delegating to the
// external Parser interface's parse_selector_list (spec.md §6): a
// comma-separated SelectorList whose complex selectors are
// whitespace-separated compounds (joined by the descendant combinator)
// built from type, `.class`, `#id`, `%placeholder`, and `&` tokens; the
// explicit `>`, `+`, `~` combinators and attribute/pseudo syntax are not
// parsed. It stands in so the evaluator's control
// flow and selector-resolution machinery (internal/selector) can be
// exercised end to end without one.
func defaultSelectorParser(text string) (selector.SelectorList, error) {
	var complexes []selector.ComplexSelector
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		complexes = append(complexes, parseComplexSelectorText(part))
	}
	return selector.SelectorList{Complexes: complexes}, nil
}

func parseComplexSelectorText(text string) selector.ComplexSelector {
	var components []selector.ComplexSelectorComponent
	for _, tok := range strings.Fields(text) {
		components = append(components, selector.ComplexSelectorComponent{Compound: parseCompoundSelectorText(tok)})
	}
	if len(components) == 0 {
		components = []selector.ComplexSelectorComponent{{Compound: parseCompoundSelectorText(text)}}
	}
	return selector.ComplexSelector{Components: components}
}

func parseCompoundSelectorText(tok string) selector.CompoundSelector {
	var simples []selector.SimpleSelector
	i := 0
	for i < len(tok) {
		switch tok[i] {
		case '&':
			simples = append(simples, selector.Parent{})
			i++
		case '.':
			j := identEnd(tok, i+1)
			simples = append(simples, selector.Class{Name: tok[i+1 : j]})
			i = j
		case '#':
			j := identEnd(tok, i+1)
			simples = append(simples, selector.ID{Name: tok[i+1 : j]})
			i = j
		case '%':
			j := identEnd(tok, i+1)
			simples = append(simples, selector.Placeholder{Name: tok[i+1 : j]})
			i = j
		case '*':
			simples = append(simples, selector.Universal{})
			i++
		default:
			j := identEnd(tok, i)
			if j == i {
				i++
				continue
			}
			simples = append(simples, selector.Type{Name: tok[i:j]})
			i = j
		}
	}
	return selector.CompoundSelector{Selectors: simples}
}

func identEnd(s string, start int) int {
	i := start
	for i < len(s) {
		c := s[i]
		if c == '.' || c == '#' || c == '%' || c == '&' {
			break
		}
		i++
	}
	return i
}
