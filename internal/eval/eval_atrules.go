package eval

import (
	"github.com/sassy-go/sasscore/internal/cssast"
	"github.com/sassy-go/sasscore/internal/sassast"
	"github.com/sassy-go/sasscore/internal/selector"
)

// evalMedia implements spec.md §4.4's @media handling: merges the new
// query set with the enclosing one and bubbles the generated block past
// enclosing style rules. It does not bubble past an enclosing @media: a
// nested @media block is appended inside the enclosing @media node.
func (e *Evaluator) evalMedia(s sassast.MediaRule) error {
	queryText, err := e.evalInterpolationToText(s.QueryInterpolation)
	if err != nil {
		return err
	}
	merged := mergeMediaQueries(e.mediaConditions, queryText)
	if len(merged) == 0 {
		// spec.md §4.4: "an empty result silently drops the rule".
		return nil
	}

	target := e.bubbleTarget()
	ruleID := e.tree.Append(target, cssast.Node{Kind: cssast.KindMediaRule, Condition: queryText, Loc: s.Span().Loc, Source: e.source})

	prevParent := e.currentParent
	prevMedia := e.mediaConditions
	e.currentParent = ruleID
	e.mediaConditions = merged
	defer func() {
		e.currentParent = prevParent
		e.mediaConditions = prevMedia
	}()

	// When a style rule is in scope, spec.md requires the generated
	// @media block to contain a copy of the surrounding style rule so
	// declarations land correctly.
	if len(e.currentSelector) > 0 {
		styleRuleID := e.tree.Append(ruleID, cssast.Node{Kind: cssast.KindStyleRule, SelectorList: e.styleRuleSelectorList()})
		e.currentParent = styleRuleID
	}

	if err := e.env.Scope(true, false, func() error {
		_, err := e.evalStatements(s.Children)
		return err
	}); err != nil {
		return err
	}

	if e.tree.IsEmpty(ruleID) {
		e.tree.RemoveChild(e.tree.Get(ruleID).Parent, ruleID)
	}
	return nil
}

// styleRuleSelectorList returns the enclosing style rule's already-
// resolved selector list, used when @media/@supports must bubble a copy
// of the surrounding style rule (spec.md §4.4).
func (e *Evaluator) styleRuleSelectorList() selector.SelectorList {
	return selector.SelectorList{Complexes: e.currentSelector}
}

// mergeMediaQueries implements a practical subset of spec.md §4.4's merge
// rule: "two queries combine by intersecting type + feature lists". Media
// query parsing itself belongs to the external parser collaborator
// (spec.md §6); this evaluator treats media query text as an opaque,
// comma-separated list of conditions and merges by conjunction (AND),
// which is the common case for nested @media (most real stylesheets
// nest a single feature query inside another).
func mergeMediaQueries(enclosing []string, newQuery string) []string {
	if newQuery == "" {
		return enclosing
	}
	if len(enclosing) == 0 {
		return []string{newQuery}
	}
	return append(append([]string(nil), enclosing...), newQuery)
}

func (e *Evaluator) evalSupports(s sassast.SupportsRule) error {
	conditionText, err := e.evalInterpolationToText(s.ConditionInterpolation)
	if err != nil {
		return err
	}
	target := e.bubbleTarget()
	ruleID := e.tree.Append(target, cssast.Node{Kind: cssast.KindSupportsRule, Condition: conditionText, Loc: s.Span().Loc, Source: e.source})

	prevParent := e.currentParent
	prevInSupports := e.inSupportsDecl
	e.currentParent = ruleID
	e.inSupportsDecl = true
	defer func() {
		e.currentParent = prevParent
		e.inSupportsDecl = prevInSupports
	}()

	if len(e.currentSelector) > 0 {
		styleRuleID := e.tree.Append(ruleID, cssast.Node{Kind: cssast.KindStyleRule, SelectorList: e.styleRuleSelectorList()})
		e.currentParent = styleRuleID
	}

	if err := e.env.Scope(true, false, func() error {
		_, err := e.evalStatements(s.Children)
		return err
	}); err != nil {
		return err
	}
	if e.tree.IsEmpty(ruleID) {
		e.tree.RemoveChild(e.tree.Get(ruleID).Parent, ruleID)
	}
	return nil
}

func (e *Evaluator) evalAtRule(s sassast.AtRule) error {
	valueText, err := e.evalInterpolationToText(s.Value)
	if err != nil {
		return err
	}
	target := e.bubbleTarget()
	node := cssast.Node{Kind: cssast.KindAtRule, AtRuleName: s.Name, Prelude: valueText, Childless: s.Childless, Loc: s.Span().Loc, Source: e.source}
	ruleID := e.tree.Append(target, node)

	if s.Childless {
		return nil
	}

	prevParent := e.currentParent
	prevInKeyframes := e.inKeyframes
	e.currentParent = ruleID
	if s.Name == "keyframes" || s.Name == "-webkit-keyframes" {
		e.inKeyframes = true
	}
	defer func() {
		e.currentParent = prevParent
		e.inKeyframes = prevInKeyframes
	}()

	if _, err := e.evalStatements(s.Children); err != nil {
		return err
	}
	return nil
}

// evalAtRoot implements a practical subset of spec.md §4.4's @at-root:
// the body is re-evaluated at the tree's root, with style-rule and media
// context reset, since "query-driven selective inclusion" requires the
// at_root_query parser (an external collaborator, spec.md §6) this core
// does not implement; the default (no query / "all") behavior — escape
// every enclosing context — is.
func (e *Evaluator) evalAtRoot(s sassast.AtRootStatement) error {
	prevParent := e.currentParent
	prevSelector := e.currentSelector
	prevMedia := e.mediaConditions
	e.currentParent = e.tree.Root()
	e.currentSelector = nil
	e.mediaConditions = nil
	defer func() {
		e.currentParent = prevParent
		e.currentSelector = prevSelector
		e.mediaConditions = prevMedia
	}()

	_, err := e.evalStatements(s.Children)
	return err
}
