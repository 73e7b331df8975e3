// Package extend implements the extender (spec.md §4.5, component C5):
// recording @extend declarations, the simple-selector index, the weave-
// based selector rewrite, and post-compilation UnsatisfiedExtension
// validation.
//
// Grounded on the same append-only-log-plus-index shape dart-sass's own
// extender uses conceptually (spec.md §3 "Extender state"); compound
// unification is internal/selector's UnifyCompounds, itself grounded on
// esbuild's selector AST
// manipulation idioms in
// _examples/evanw-esbuild/internal/css_parser/css_parser_selector.go.
package extend

import (
	"github.com/sassy-go/sasscore/internal/errs"
	"github.com/sassy-go/sasscore/internal/logger"
	"github.com/sassy-go/sasscore/internal/selector"
)

// Extension is one @extend registration (spec.md §3 "Extender state": "a
// growing set of (target_simple_selector, extender_selector_list,
// source_span, active_media_queries)").
type Extension struct {
	Extender        selector.ComplexSelector
	TargetSimple    selector.SimpleSelector
	Span            logger.Range
	MediaConditions []string
	Optional        bool
	satisfied       bool
}

// RuleHandle is returned by AddSelector; its SelectorList field is
// rewritten in place by subsequent AddExtension calls, so callers should
// re-read it (not copy it) when they need the current selector text
// (spec.md §4.5: "registers a selector list; returns a handle whose
// stored selector may be rewritten later by extension passes").
type RuleHandle struct {
	SelectorList    selector.SelectorList
	MediaConditions []string
}

type Store struct {
	extensions []*Extension
	rules      []*RuleHandle
	index      map[string][]*RuleHandle
}

func NewStore() *Store {
	return &Store{index: map[string][]*RuleHandle{}}
}

// AddSelector implements spec.md §4.5's add_selector.
func (s *Store) AddSelector(sl selector.SelectorList, media []string) *RuleHandle {
	handle := &RuleHandle{SelectorList: sl, MediaConditions: media}
	s.rules = append(s.rules, handle)
	s.reindex(handle)
	return handle
}

func (s *Store) reindex(handle *RuleHandle) {
	seen := map[string]bool{}
	for _, complex := range handle.SelectorList.Complexes {
		for _, comp := range complex.Components {
			for _, simple := range comp.Compound.Selectors {
				key := simple.String()
				if seen[key] {
					continue
				}
				seen[key] = true
				s.index[key] = append(s.index[key], handle)
			}
		}
	}
}

// mediaSuperset reports whether an extension applies in a target rule's
// media context, per spec.md §4.5 "media-query scope": every one of the
// extension's media conditions must also enclose the target rule (an
// extension registered outside any @media applies everywhere).
func mediaSuperset(extensionMedia, targetMedia []string) bool {
	if len(extensionMedia) == 0 {
		return true
	}
	want := map[string]bool{}
	for _, m := range targetMedia {
		want[m] = true
	}
	for _, m := range extensionMedia {
		if !want[m] {
			return false
		}
	}
	return true
}

// AddExtension implements spec.md §4.5's add_extension: records the
// extension, then rewrites any already-registered selector that contains
// the target simple selector.
func (s *Store) AddExtension(extender selector.ComplexSelector, target selector.SimpleSelector, span logger.Range, media []string, optional bool) {
	ext := &Extension{Extender: extender, TargetSimple: target, Span: span, MediaConditions: media, Optional: optional}
	s.extensions = append(s.extensions, ext)
	s.applyExtension(ext)
}

func (s *Store) applyExtension(ext *Extension) {
	key := ext.TargetSimple.String()
	for _, handle := range s.index[key] {
		if !mediaSuperset(ext.MediaConditions, handle.MediaConditions) {
			continue
		}
		if s.rewriteSelectorList(handle, ext) {
			ext.satisfied = true
		}
	}
}

// rewriteSelectorList implements spec.md §4.5's extension algorithm: for
// every complex selector C containing a compound K with the target
// simple, produce weave(K\{t}, E) for each extender complex E and union
// the results into C's component list.
func (s *Store) rewriteSelectorList(handle *RuleHandle, ext *Extension) bool {
	applied := false
	var newComplexes []selector.ComplexSelector
	for _, complex := range handle.SelectorList.Complexes {
		newComplexes = append(newComplexes, complex)
		for ci, comp := range complex.Components {
			if !containsSimple(comp.Compound, ext.TargetSimple) {
				continue
			}
			remainder := removeSimple(comp.Compound, ext.TargetSimple)
			woven := weaveReplacement(complex, ci, remainder, ext.Extender)
			for _, w := range woven {
				if !complexAlreadyPresent(newComplexes, w) {
					newComplexes = append(newComplexes, w)
					applied = true
				}
			}
		}
	}
	if applied {
		handle.SelectorList = selector.SelectorList{Complexes: newComplexes}
	}
	return applied
}

func containsSimple(c selector.CompoundSelector, target selector.SimpleSelector) bool {
	for _, s := range c.Selectors {
		if s.String() == target.String() {
			return true
		}
	}
	return false
}

func removeSimple(c selector.CompoundSelector, target selector.SimpleSelector) selector.CompoundSelector {
	var out []selector.SimpleSelector
	for _, s := range c.Selectors {
		if s.String() != target.String() {
			out = append(out, s)
		}
	}
	return selector.CompoundSelector{Selectors: out}
}

// weaveReplacement builds the replacement complex selectors for a single
// matched compound within complex at index ci: the complex's components
// before/after ci stay, the matched compound is replaced with the woven
// combination of its remainder and the extender's own path.
func weaveReplacement(complex selector.ComplexSelector, ci int, remainder selector.CompoundSelector, extender selector.ComplexSelector) []selector.ComplexSelector {
	before := append([]selector.ComplexSelectorComponent(nil), complex.Components[:ci]...)
	after := append([]selector.ComplexSelectorComponent(nil), complex.Components[ci+1:]...)

	var replacement []selector.ComplexSelectorComponent
	if len(remainder.Selectors) > 0 && len(extender.Components) > 0 {
		lastExt := extender.Components[len(extender.Components)-1]
		merged, ok := selector.UnifyCompounds(lastExt.Compound, remainder)
		if ok {
			replacement = append(replacement, extender.Components[:len(extender.Components)-1]...)
			replacement = append(replacement, selector.ComplexSelectorComponent{Combinator: lastExt.Combinator, Compound: merged})
		} else {
			replacement = append(replacement, extender.Components...)
			replacement = append(replacement, selector.ComplexSelectorComponent{Compound: remainder})
		}
	} else if len(remainder.Selectors) > 0 {
		replacement = append(replacement, selector.ComplexSelectorComponent{Compound: remainder})
	} else {
		replacement = append(replacement, extender.Components...)
	}

	full := append(append(append([]selector.ComplexSelectorComponent(nil), before...), replacement...), after...)
	return []selector.ComplexSelector{{Components: full}}
}

func complexAlreadyPresent(list []selector.ComplexSelector, candidate selector.ComplexSelector) bool {
	for _, c := range list {
		if c.String() == candidate.String() {
			return true
		}
	}
	return false
}

// AddExtensions absorbs another module's extensions (spec.md §4.5
// add_extensions: "absorb extensions from downstream modules, then
// re-run the rewrite against local selectors").
func (s *Store) AddExtensions(other *Store) {
	for _, ext := range other.extensions {
		s.extensions = append(s.extensions, ext)
		s.applyExtension(ext)
	}
}

// Validate implements spec.md §4.5's post-compilation check: every
// non-optional extension must have matched at least one registered
// selector somewhere in the store.
func (s *Store) Validate(src *logger.Source) error {
	for _, ext := range s.extensions {
		if !ext.satisfied && !ext.Optional {
			return errs.Newf(errs.ExtendTarget, src, ext.Span, "The target selector was not found in the document.")
		}
	}
	return nil
}
