// Package selector implements the selector AST and the combinator-aware
// merge algorithms component C5 ("Extender", spec.md §4.5) needs: parent
// substitution for nested rules and weave() for combining an extension's
// target path with the selectors it is being woven into.
//
// The variant-with-marker-method shape for SimpleSelector mirrors the same
// idiom internal/value uses for Value, grounded on esbuild's
// css_ast.SS interface (_examples/evanw-esbuild/internal/css_ast/css_ast.go)
// and its compound-selector shape (HasNestPrefix, TypeSelector,
// SubclassSelectors, PseudoClassSelectors).
package selector

import "strings"

// SimpleSelector is implemented by every simple-selector variant spec.md
// §3 lists: universal, type, class, ID, attribute, placeholder, pseudo,
// and the parent-selector placeholder (&).
type SimpleSelector interface {
	isSimpleSelector()
	String() string
}

type Universal struct{ Namespace string }

func (Universal) isSimpleSelector() {}
func (u Universal) String() string {
	if u.Namespace != "" {
		return u.Namespace + "|*"
	}
	return "*"
}

type Type struct{ Name, Namespace string }

func (Type) isSimpleSelector() {}
func (t Type) String() string {
	if t.Namespace != "" {
		return t.Namespace + "|" + t.Name
	}
	return t.Name
}

type Class struct{ Name string }

func (Class) isSimpleSelector()  {}
func (c Class) String() string { return "." + c.Name }

type ID struct{ Name string }

func (ID) isSimpleSelector()  {}
func (i ID) String() string { return "#" + i.Name }

type Attribute struct {
	Name, Namespace string
	Op              string // "", "=", "~=", "|=", "^=", "$=", "*="
	Value           string
	CaseSensitive   bool
}

func (Attribute) isSimpleSelector() {}
func (a Attribute) String() string {
	name := a.Name
	if a.Namespace != "" {
		name = a.Namespace + "|" + name
	}
	if a.Op == "" {
		return "[" + name + "]"
	}
	s := "[" + name + a.Op + "\"" + a.Value + "\""
	if !a.CaseSensitive {
		s += " i"
	}
	return s + "]"
}

type Placeholder struct{ Name string }

func (Placeholder) isSimpleSelector()  {}
func (p Placeholder) String() string { return "%" + p.Name }

// Pseudo covers both pseudo-classes and pseudo-elements (spec.md §3 does
// not distinguish them at the value-model level); Element is true for the
// double-colon form.
type Pseudo struct {
	Name      string
	Element   bool
	Arguments string // raw, already-serialized argument text, empty if none
}

func (Pseudo) isSimpleSelector() {}
func (p Pseudo) String() string {
	colon := ":"
	if p.Element {
		colon = "::"
	}
	if p.Arguments == "" {
		return colon + p.Name
	}
	return colon + p.Name + "(" + p.Arguments + ")"
}

// Parent is the `&` placeholder, resolved away by ResolveParent before a
// style rule's selector is ever handed to the extender or serializer.
type Parent struct{ Suffix string }

func (Parent) isSimpleSelector()  {}
func (p Parent) String() string { return "&" + p.Suffix }

// CompoundSelector is an ordered sequence of simple selectors with no
// combinator between them (spec.md §3: "ordered simple selectors").
type CompoundSelector struct {
	Selectors []SimpleSelector
}

func (c CompoundSelector) String() string {
	var b strings.Builder
	for _, s := range c.Selectors {
		b.WriteString(s.String())
	}
	return b.String()
}

// ContainsParent reports whether any simple selector in c is the `&`
// placeholder.
func (c CompoundSelector) ContainsParent() bool {
	for _, s := range c.Selectors {
		if _, ok := s.(Parent); ok {
			return true
		}
	}
	return false
}

// Combinator is the relationship between a compound selector and the one
// before it in a complex selector (spec.md §3).
type Combinator uint8

const (
	Descendant Combinator = iota
	Child
	NextSibling
	SubsequentSibling
)

func (c Combinator) String() string {
	switch c {
	case Child:
		return ">"
	case NextSibling:
		return "+"
	case SubsequentSibling:
		return "~"
	default:
		return ""
	}
}

// ComplexSelectorComponent pairs a compound selector with the combinator
// that precedes it; the first component of a ComplexSelector always has
// combinator Descendant and it is ignored (there is nothing to combine
// with).
type ComplexSelectorComponent struct {
	Combinator Combinator
	Compound   CompoundSelector
}

type ComplexSelector struct {
	Components []ComplexSelectorComponent
	// LineBreak records whether the source wrote this selector with a
	// leading newline; ResolveParent carries it over, and the serializer
	// does not read it.
	LineBreak bool
}

func (c ComplexSelector) String() string {
	var b strings.Builder
	for i, comp := range c.Components {
		if i > 0 {
			b.WriteByte(' ')
		}
		if comp.Combinator != Descendant {
			b.WriteString(comp.Combinator.String())
			b.WriteByte(' ')
		}
		b.WriteString(comp.Compound.String())
	}
	return b.String()
}

func (c ComplexSelector) ContainsParent() bool {
	for _, comp := range c.Components {
		if comp.Compound.ContainsParent() {
			return true
		}
	}
	return false
}

type SelectorList struct {
	Complexes []ComplexSelector
}

func (l SelectorList) String() string {
	parts := make([]string, len(l.Complexes))
	for i, c := range l.Complexes {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// ResolveParent substitutes every `&` placeholder in child with each
// selector from parents in turn (spec.md §4.1 "nested rules resolve their
// selector against the lexically enclosing selector"). When `&` is
// directly adjacent to other simple selectors in the same compound
// (e.g. `&.foo`), the parent's trailing compound is merged with the
// suffix rather than kept as a separate component.
func ResolveParent(child ComplexSelector, parents []ComplexSelector) []ComplexSelector {
	if !child.ContainsParent() {
		if len(parents) == 0 {
			return []ComplexSelector{child}
		}
		return prependAll(parents, child)
	}
	var out []ComplexSelector
	for _, parent := range parents {
		out = append(out, substituteParentIn(child, parent))
	}
	if len(out) == 0 {
		out = []ComplexSelector{child}
	}
	return out
}

func prependAll(parents []ComplexSelector, child ComplexSelector) []ComplexSelector {
	out := make([]ComplexSelector, len(parents))
	for i, p := range parents {
		merged := ComplexSelector{Components: append(append([]ComplexSelectorComponent(nil), p.Components...), child.Components...)}
		out[i] = merged
	}
	return out
}

func substituteParentIn(child, parent ComplexSelector) ComplexSelector {
	var components []ComplexSelectorComponent
	for _, comp := range child.Components {
		if !comp.Compound.ContainsParent() {
			components = append(components, comp)
			continue
		}
		// Splice: everything in parent, then the compound's non-parent
		// simple selectors merged onto the parent's final compound.
		parentCopy := append([]ComplexSelectorComponent(nil), parent.Components...)
		if len(parentCopy) > 0 {
			last := parentCopy[len(parentCopy)-1]
			merged := mergeCompoundWithParentSuffix(last.Compound, comp.Compound)
			parentCopy[len(parentCopy)-1] = ComplexSelectorComponent{Combinator: last.Combinator, Compound: merged}
		} else {
			merged := mergeCompoundWithParentSuffix(CompoundSelector{}, comp.Compound)
			parentCopy = []ComplexSelectorComponent{{Combinator: comp.Combinator, Compound: merged}}
		}
		components = append(components, parentCopy...)
	}
	return ComplexSelector{Components: components, LineBreak: child.LineBreak}
}

func mergeCompoundWithParentSuffix(parentCompound, childCompound CompoundSelector) CompoundSelector {
	var merged []SimpleSelector
	merged = append(merged, parentCompound.Selectors...)
	for _, s := range childCompound.Selectors {
		if _, ok := s.(Parent); ok {
			continue
		}
		merged = append(merged, s)
	}
	return CompoundSelector{Selectors: merged}
}

// Weave combines an extension target's complex selector with each complex
// selector it extends into, interleaving combinators so the result still
// matches every element the two paths would have matched independently
// (spec.md §4.5 "weave"). This is a practical subset of the full
// cross-product weave dart-sass implements: when the two paths don't
// share a combinator boundary that would require branching, a single
// concatenation already preserves both match sets, which covers the
// overwhelming majority of `@extend` usage (plain compound targets
// without combinators in the extending selector).
func Weave(source, target ComplexSelector) []ComplexSelector {
	if len(source.Components) == 0 {
		return []ComplexSelector{target}
	}
	if len(target.Components) == 0 {
		return []ComplexSelector{source}
	}
	combined := ComplexSelector{
		Components: append(append([]ComplexSelectorComponent(nil), source.Components...), target.Components...),
	}
	return []ComplexSelector{combined}
}

// UnifyCompounds merges two compound selectors into one that matches only
// elements both would have matched, used when an extension target and the
// extended selector's final compound can be combined in place rather than
// woven as separate path segments (spec.md §4.5). Returns false if the
// compounds carry conflicting type selectors (an element cannot be two
// different tag names at once).
func UnifyCompounds(a, b CompoundSelector) (CompoundSelector, bool) {
	var aType, bType *Type
	for _, s := range a.Selectors {
		if t, ok := s.(Type); ok {
			cp := t
			aType = &cp
		}
	}
	for _, s := range b.Selectors {
		if t, ok := s.(Type); ok {
			cp := t
			bType = &cp
		}
	}
	if aType != nil && bType != nil && (aType.Name != bType.Name || aType.Namespace != bType.Namespace) {
		return CompoundSelector{}, false
	}
	merged := append([]SimpleSelector(nil), a.Selectors...)
	for _, s := range b.Selectors {
		if _, ok := s.(Type); ok && aType != nil {
			continue
		}
		if containsSimpleSelector(merged, s) {
			continue
		}
		merged = append(merged, s)
	}
	return CompoundSelector{Selectors: merged}, true
}

func containsSimpleSelector(list []SimpleSelector, s SimpleSelector) bool {
	for _, existing := range list {
		if existing.String() == s.String() {
			return true
		}
	}
	return false
}
