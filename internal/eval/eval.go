// Package eval implements the Evaluator (spec.md §4.4, component C1):
// the statement/expression walk that turns a Sass AST (internal/sassast)
// into a CSS AST (internal/cssast), delegating arithmetic and comparison
// to internal/value, scope management to internal/env, module resolution
// to internal/loader, and selector bookkeeping to internal/selector and
// internal/extend.
//
// This is the largest component (spec.md §2: "~45% share"); the control-
// flow shape — a statement dispatch that threads a control signal
// (@return) up through nested blocks rather than using
// panics for non-local exit — mirrors the teacher's own preference for
// explicit returned results over exceptions throughout esbuild's parser
// and printer packages.
package eval

import (
	"strings"

	"github.com/sassy-go/sasscore/internal/ast"
	"github.com/sassy-go/sasscore/internal/cssast"
	"github.com/sassy-go/sasscore/internal/env"
	"github.com/sassy-go/sasscore/internal/errs"
	"github.com/sassy-go/sasscore/internal/extend"
	"github.com/sassy-go/sasscore/internal/loader"
	"github.com/sassy-go/sasscore/internal/logger"
	"github.com/sassy-go/sasscore/internal/sassast"
	"github.com/sassy-go/sasscore/internal/selector"
	"github.com/sassy-go/sasscore/internal/value"
)

// signalKind distinguishes ordinary fall-through completion from the one
// non-local exit statement evaluation must thread upward: @return.
type signalKind uint8

const (
	signalNone signalKind = iota
	signalReturn
)

type signal struct {
	kind  signalKind
	value value.Value
}

// UserFunction and UserMixin adapt a declared @function/@mixin body into
// value.Callable, so the evaluator can store them in the environment the
// same way it stores built-ins.
type UserFunction struct {
	Name      string
	Arguments []sassast.Argument
	Body      []sassast.Statement
	Closure   env.Closure
	eval      *Evaluator
}

func (f *UserFunction) CallableName() string { return f.Name }

type UserMixin struct {
	Name      string
	Arguments []sassast.Argument
	Body      []sassast.Statement
	Closure   env.Closure
	eval      *Evaluator
}

func (m *UserMixin) CallableName() string { return m.Name }

// BuiltinFunction adapts a Go function into value.Callable for the
// built-in table (sass:math, sass:string, etc.).
type BuiltinFunction struct {
	Name string
	Fn   func(args []value.Value, named map[string]value.Value) (value.Value, error)
}

func (b *BuiltinFunction) CallableName() string { return b.Name }

// Options mirrors the subset of spec.md §6's compile options relevant to
// the evaluator itself (serialization-only options live in the
// serializer package).
type Options struct {
	Functions    map[string]value.Callable
	Logger       logger.Log
	QuietDeps    bool
	Loader       *loader.Loader
	BaseImporter loader.Importer
	BaseURL      string
	// Config is the `with (...)` configuration this evaluation run was
	// loaded under, if any (spec.md §4.3 step 6); a loader.Executor sets
	// this when constructing the Evaluator for a module being loaded so
	// that module's top-level `!default` declarations can consume it.
	Config *loader.Configuration
}

type Evaluator struct {
	env    *env.Environment
	tree   *cssast.Tree
	loader *loader.Loader
	ext    *extend.Store

	currentParent   cssast.NodeID
	currentSelector []selector.ComplexSelector // resolved selector of the enclosing style rule, for & substitution
	atRootExcluded  bool

	mediaConditions []string
	inKeyframes     bool
	inUnknownAt     bool
	inSupportsDecl  bool
	inFunction      bool

	callStack []logger.StackFrame
	config    *loader.Configuration

	seenWarnings map[string]bool
	log          logger.Log
	quietDeps    bool
	source       *logger.Source

	baseImporter loader.Importer
	baseURL      string

	// plainCSSImports records each literal (non-module) @import this
	// evaluator encountered (spec.md §4.4), tagged ast.ImportPlainCSS; a
	// host inspecting a compilation's import graph can read these back
	// alongside loader.Loader's own ast.ImportUse/ImportForward/
	// ImportDynamic records for module-triggering @use/@forward/@import.
	plainCSSImports []ast.ImportRecord
}

func New(opts Options, src *logger.Source) *Evaluator {
	builtins := env.NewModule()
	for name, fn := range opts.Functions {
		builtins.Functions[name] = fn
	}
	e := &Evaluator{
		tree:         cssast.NewTree(),
		ext:          extend.NewStore(),
		loader:       opts.Loader,
		seenWarnings: map[string]bool{},
		log:          opts.Logger,
		quietDeps:    opts.QuietDeps,
		source:       src,
		baseImporter: opts.BaseImporter,
		baseURL:      opts.BaseURL,
		config:       opts.Config,
	}
	e.env = env.New(builtins)
	e.currentParent = e.tree.Root()
	return e
}

func (e *Evaluator) Tree() *cssast.Tree       { return e.tree }
func (e *Evaluator) Extensions() *extend.Store { return e.ext }

// ExportedModule snapshots this evaluator's global scope into an
// env.Module, the value a loader.Executor hands back as loader.Module's
// Exports once a module finishes evaluating (spec.md §3 "Module").
func (e *Evaluator) ExportedModule() *env.Module { return e.env.ExportAll() }

// PlainCSSImports returns every literal (non-module) @import this
// evaluator recorded, in encounter order.
func (e *Evaluator) PlainCSSImports() []ast.ImportRecord { return e.plainCSSImports }

// UseRule implements spec.md §6's `evaluator.use_rule(rule)` for
// interactive contexts: evaluate a single top-level statement against the
// evaluator's live environment and CSS tree.
func (e *Evaluator) UseRule(stmt sassast.Statement) error {
	_, err := e.evalStatement(stmt)
	return err
}

// EvaluateExpression implements spec.md §6's
// `evaluator.evaluate_expression(expr)`.
func (e *Evaluator) EvaluateExpression(expr sassast.Expression) (value.Value, error) {
	return e.evalExpr(expr)
}

// SetVariable implements spec.md §6's `evaluator.set_variable(decl)`.
func (e *Evaluator) SetVariable(decl sassast.VariableDeclaration) error {
	_, err := e.evalVariableDeclaration(decl)
	return err
}

// Run evaluates an entire stylesheet's top-level statements (the entry
// point the module loader's Executor calls, spec.md §4.3).
func (e *Evaluator) Run(sheet *sassast.Stylesheet) error {
	for _, stmt := range sheet.Children {
		if _, err := e.evalStatement(stmt); err != nil {
			return err
		}
	}
	e.spliceDeferredCSSImports()
	return nil
}

// spliceDeferredCSSImports implements spec.md §4.3's initial-CSS-imports
// invariant: plain-CSS @imports that precede every other top-level rule
// form a contiguous head, and any plain-CSS @import appearing later in
// the module is moved to immediately follow that head once the module
// finishes evaluating, rather than left interleaved wherever it was
// encountered. Every KindImport root child is a plain-CSS passthrough
// import (a Sass @use/@forward/module @import never produces one: the
// former registers exports with no standalone node, the latter grafts
// its module's own CSS children instead), so the contiguous run at the
// front of the root's children is exactly the existing head.
func (e *Evaluator) spliceDeferredCSSImports() {
	root := e.tree.Get(e.tree.Root())
	children := root.Children

	head := 0
	for head < len(children) && e.tree.Get(children[head]).Kind == cssast.KindImport {
		head++
	}

	var deferred, rest []cssast.NodeID
	for _, id := range children[head:] {
		if e.tree.Get(id).Kind == cssast.KindImport {
			deferred = append(deferred, id)
		} else {
			rest = append(rest, id)
		}
	}
	if len(deferred) == 0 {
		return
	}

	spliced := make([]cssast.NodeID, 0, len(children))
	spliced = append(spliced, children[:head]...)
	spliced = append(spliced, deferred...)
	spliced = append(spliced, rest...)
	root.Children = spliced
}

func (e *Evaluator) evalStatements(stmts []sassast.Statement) (signal, error) {
	for _, stmt := range stmts {
		sig, err := e.evalStatement(stmt)
		if err != nil {
			return signal{}, err
		}
		if sig.kind != signalNone {
			return sig, nil
		}
	}
	return signal{}, nil
}

func (e *Evaluator) evalStatement(stmt sassast.Statement) (signal, error) {
	switch s := stmt.(type) {
	case sassast.StyleRule:
		return signal{}, e.evalStyleRule(s)
	case sassast.Declaration:
		return signal{}, e.evalDeclaration(s, "")
	case sassast.VariableDeclaration:
		return e.evalVariableDeclaration(s)
	case sassast.IfStatement:
		return e.evalIf(s)
	case sassast.EachStatement:
		return e.evalEach(s)
	case sassast.ForStatement:
		return e.evalFor(s)
	case sassast.WhileStatement:
		return e.evalWhile(s)
	case sassast.ExtendStatement:
		return signal{}, e.evalExtend(s)
	case sassast.MediaRule:
		return signal{}, e.evalMedia(s)
	case sassast.SupportsRule:
		return signal{}, e.evalSupports(s)
	case sassast.AtRule:
		return signal{}, e.evalAtRule(s)
	case sassast.AtRootStatement:
		return signal{}, e.evalAtRoot(s)
	case sassast.FunctionDecl:
		e.declareFunction(s)
		return signal{}, nil
	case sassast.MixinDecl:
		e.declareMixin(s)
		return signal{}, nil
	case sassast.IncludeStatement:
		return signal{}, e.evalInclude(s)
	case sassast.ContentStatement:
		return signal{}, e.evalContent(s)
	case sassast.ReturnStatement:
		v, err := e.evalExpr(s.ValueExpr)
		if err != nil {
			return signal{}, err
		}
		return signal{kind: signalReturn, value: v}, nil
	case sassast.UseStatement:
		return signal{}, e.evalUse(s)
	case sassast.ForwardStatement:
		return signal{}, e.evalForward(s)
	case sassast.ImportStatement:
		return signal{}, e.evalImport(s)
	case sassast.WarnStatement:
		return signal{}, e.evalWarn(s)
	case sassast.ErrorStatement:
		return signal{}, e.evalError(s)
	case sassast.DebugStatement:
		return signal{}, e.evalDebug(s)
	case sassast.CommentStatement:
		e.tree.Append(e.currentParent, cssast.Node{Kind: cssast.KindComment, Text: s.Text})
		return signal{}, nil
	default:
		return signal{}, errs.Newf(errs.Internal, e.source, stmt.Span(), "unhandled statement %T", stmt)
	}
}

// --- Style rules and declarations ---------------------------------------

func (e *Evaluator) evalStyleRule(s sassast.StyleRule) error {
	if e.inKeyframes {
		return e.evalKeyframeBlock(s)
	}

	text, err := e.evalInterpolationToText(s.SelectorInterpolation)
	if err != nil {
		return err
	}
	parsed, err := parseSelectorListPlaceholder(text)
	if err != nil {
		return err
	}

	var resolved selector.SelectorList
	if len(e.currentSelector) == 0 {
		resolved = parsed
	} else {
		var complexes []selector.ComplexSelector
		for _, c := range parsed.Complexes {
			complexes = append(complexes, selector.ResolveParent(c, e.currentSelector)...)
		}
		resolved = selector.SelectorList{Complexes: complexes}
	}

	handle := e.ext.AddSelector(resolved, append([]string(nil), e.mediaConditions...))

	ruleID := e.tree.Append(e.bubbleTarget(), cssast.Node{Kind: cssast.KindStyleRule, SelectorList: handle.SelectorList, ExtendHandle: handle, Loc: s.Span().Loc, Source: e.source})

	prevParent := e.currentParent
	prevSelector := e.currentSelector
	e.currentParent = ruleID
	e.currentSelector = resolved.Complexes
	defer func() {
		e.currentParent = prevParent
		e.currentSelector = prevSelector
	}()

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

// evalKeyframeBlock implements the body of an `@keyframes` rule (spec.md
// §4.4): its "selectors" are a comma-separated list of keyframe stops
// (`from`, `to`, or a percentage), not a CSS selector list, so it produces
// a KindKeyframeBlock node rather than a KindStyleRule.
func (e *Evaluator) evalKeyframeBlock(s sassast.StyleRule) error {
	text, err := e.evalInterpolationToText(s.SelectorInterpolation)
	if err != nil {
		return err
	}
	parts := strings.Split(text, ",")
	stops := make([]string, 0, len(parts))
	for _, p := range parts {
		stops = append(stops, strings.TrimSpace(p))
	}

	ruleID := e.tree.Append(e.currentParent, cssast.Node{Kind: cssast.KindKeyframeBlock, Selectors: stops, Loc: s.Span().Loc, Source: e.source})
	prevParent := e.currentParent
	e.currentParent = ruleID
	defer func() { e.currentParent = prevParent }()

	return e.env.Scope(true, false, func() error {
		_, err := e.evalStatements(s.Children)
		return err
	})
}

// bubbleTarget implements spec.md §4.4's bubbling policy: a new rule is
// inserted as a child of the nearest ancestor that is not itself a style
// rule, so nested style rules always attach to a non-rule container.
func (e *Evaluator) bubbleTarget() cssast.NodeID {
	parent := e.currentParent
	for e.tree.Get(parent).Kind == cssast.KindStyleRule {
		p := e.tree.Get(parent).Parent
		if p == cssast.InvalidNode {
			break
		}
		parent = p
	}
	return parent
}

func (e *Evaluator) evalDeclaration(s sassast.Declaration, prefix string) error {
	nameText, err := e.evalInterpolationToText(s.NameInterpolation)
	if err != nil {
		return err
	}
	fullName := nameText
	if prefix != "" {
		fullName = prefix + "-" + nameText
	}

	if len(s.NestedChildren) > 0 {
		if s.ValueExpr != nil {
			v, err := e.evalExpr(s.ValueExpr)
			if err != nil {
				return err
			}
			if err := e.appendDeclaration(fullName, v, false, s.Span()); err != nil {
				return err
			}
		}
		for _, child := range s.NestedChildren {
			if decl, ok := child.(sassast.Declaration); ok {
				if err := e.evalDeclaration(decl, fullName); err != nil {
					return err
				}
			}
		}
		return nil
	}

	v, err := e.evalExpr(s.ValueExpr)
	if err != nil {
		return err
	}
	return e.appendDeclaration(fullName, v, s.ParsedAsCustomProp, s.Span())
}

func (e *Evaluator) appendDeclaration(name string, v value.Value, customProp bool, span logger.Range) error {
	text := value.ToCssString(v, false)
	// spec.md §4.4: "if the value is blank and not an empty list, suppress
	// it"; an empty list still renders (as an empty string), everything
	// else blank is dropped silently.
	if text == "" {
		if l, ok := v.(value.List); !ok || len(l.Items) != 0 {
			return nil
		}
	}
	e.tree.Append(e.currentParent, cssast.Node{
		Kind:          cssast.KindDeclaration,
		PropertyName:  name,
		PropertyText:  text,
		PropertyValue: v,
		CustomProp:    customProp,
		Loc:           span.Loc,
		Source:        e.source,
	})
	return nil
}

func (e *Evaluator) evalVariableDeclaration(s sassast.VariableDeclaration) (signal, error) {
	if s.Default {
		if cv, ok := e.configuredValue(s.Name, s.Namespace); ok {
			cv.Consumed = true
			e.env.SetVariable(s.Name, cv.Value, s.Global, s.Namespace)
			return signal{}, nil
		}
		if _, ok := e.env.GetVariable(s.Name, s.Namespace); ok {
			return signal{}, nil
		}
	}
	v, err := e.evalExpr(s.ValueExpr)
	if err != nil {
		return signal{}, err
	}
	e.env.SetVariable(s.Name, v, s.Global, s.Namespace)
	return signal{}, nil
}

// configuredValue reports the `with (...)` value supplied for a top-level
// `!default` variable in the module currently being loaded, used to mark
// spec.md §4.3 step 6's per-variable Consumed flag precisely at the point
// the module's own default assignment would otherwise have run.
func (e *Evaluator) configuredValue(name, namespace string) (*loader.ConfiguredValue, bool) {
	if namespace != "" || e.config == nil {
		return nil, false
	}
	cv, ok := e.config.Values[name]
	return cv, ok
}

// --- Control flow --------------------------------------------------------

func (e *Evaluator) evalIf(s sassast.IfStatement) (signal, error) {
	for _, clause := range s.Clauses {
		if clause.ConditionExpr != nil {
			cond, err := e.evalExpr(clause.ConditionExpr)
			if err != nil {
				return signal{}, err
			}
			if !cond.Truthy() {
				continue
			}
		}
		var sig signal
		var err error
		scopeErr := e.env.Scope(true, false, func() error {
			sig, err = e.evalStatements(clause.Children)
			return err
		})
		if scopeErr != nil {
			return signal{}, scopeErr
		}
		return sig, nil
	}
	return signal{}, nil
}

func (e *Evaluator) evalEach(s sassast.EachStatement) (signal, error) {
	listVal, err := e.evalExpr(s.ListExpr)
	if err != nil {
		return signal{}, err
	}
	items := asIterable(listVal)
	for _, item := range items {
		var sig signal
		err := e.env.Scope(true, true, func() error {
			bindEachVariables(e.env, s.Variables, item)
			var err error
			sig, err = e.evalStatements(s.Children)
			return err
		})
		if err != nil {
			return signal{}, err
		}
		if sig.kind != signalNone {
			return sig, nil
		}
	}
	return signal{}, nil
}

func bindEachVariables(e *env.Environment, names []string, item value.Value) {
	var parts []value.Value
	if l, ok := item.(value.List); ok {
		parts = l.Items
	} else {
		parts = []value.Value{item}
	}
	for i, name := range names {
		if i < len(parts) {
			e.SetVariable(name, parts[i], false, "")
		} else {
			e.SetVariable(name, value.Null{}, false, "")
		}
	}
}

func asIterable(v value.Value) []value.Value {
	switch t := v.(type) {
	case value.List:
		return t.Items
	case value.Map:
		out := make([]value.Value, len(t.Entries))
		for i, entry := range t.Entries {
			out[i] = value.List{Items: []value.Value{entry.Key, entry.Value}, Separator: value.SepSpace}
		}
		return out
	default:
		return []value.Value{v}
	}
}

func (e *Evaluator) evalFor(s sassast.ForStatement) (signal, error) {
	fromVal, err := e.evalExpr(s.FromExpr)
	if err != nil {
		return signal{}, err
	}
	toVal, err := e.evalExpr(s.ToExpr)
	if err != nil {
		return signal{}, err
	}
	from, ok := fromVal.(value.Number)
	if !ok {
		return signal{}, errs.New(errs.TypeError, e.source, s.Span(), "from value must be a number")
	}
	to, ok := toVal.(value.Number)
	if !ok {
		return signal{}, errs.New(errs.TypeError, e.source, s.Span(), "to value must be a number")
	}
	start := int(from.Value)
	end := int(to.Value)
	step := 1
	if start > end {
		step = -1
	}
	for i := start; (step > 0 && i <= end) || (step < 0 && i >= end); i += step {
		if s.Exclusive && i == end {
			break
		}
		var sig signal
		err := e.env.Scope(true, true, func() error {
			e.env.SetVariable(s.Variable, value.NewNumber(float64(i)), false, "")
			var err error
			sig, err = e.evalStatements(s.Children)
			return err
		})
		if err != nil {
			return signal{}, err
		}
		if sig.kind != signalNone {
			return sig, nil
		}
	}
	return signal{}, nil
}

func (e *Evaluator) evalWhile(s sassast.WhileStatement) (signal, error) {
	for {
		cond, err := e.evalExpr(s.ConditionExpr)
		if err != nil {
			return signal{}, err
		}
		if !cond.Truthy() {
			return signal{}, nil
		}
		var sig signal
		err = e.env.Scope(true, true, func() error {
			var err error
			sig, err = e.evalStatements(s.Children)
			return err
		})
		if err != nil {
			return signal{}, err
		}
		if sig.kind != signalNone {
			return sig, nil
		}
	}
}

// --- @extend --------------------------------------------------------------

func (e *Evaluator) evalExtend(s sassast.ExtendStatement) error {
	text, err := e.evalInterpolationToText(s.TargetInterpolation)
	if err != nil {
		return err
	}
	targetList, err := parseSelectorListPlaceholder(text)
	if err != nil {
		return err
	}
	if len(e.currentSelector) == 0 {
		return errs.New(errs.ExtendTarget, e.source, s.Span(), "@extend may only be used within style rules.")
	}
	for _, complex := range targetList.Complexes {
		if len(complex.Components) != 1 || len(complex.Components[0].Compound.Selectors) != 1 {
			return errs.New(errs.ExtendTarget, e.source, s.Span(), "complex selectors may not be extended.")
		}
		target := complex.Components[0].Compound.Selectors[0]
		for _, extender := range e.currentSelector {
			e.ext.AddExtension(extender, target, s.Span(), append([]string(nil), e.mediaConditions...), s.Optional)
		}
	}
	return nil
}

// --- Diagnostics ------------------------------------------------------------

func (e *Evaluator) evalWarn(s sassast.WarnStatement) error {
	v, err := e.evalExpr(s.MessageExpr)
	if err != nil {
		return err
	}
	e.warn(value.ToCssString(v, true), s.Span())
	return nil
}

func (e *Evaluator) warn(message string, span logger.Range) {
	key := message
	if e.seenWarnings[key] {
		return
	}
	e.seenWarnings[key] = true
	if e.log.AddMsg != nil {
		e.log.AddMsg(logger.Msg{Kind: logger.Warning, Data: logger.MsgData{Text: message, Location: e.msgLocation(span)}, Trace: append([]logger.StackFrame(nil), e.callStack...), QuietDeps: e.quietDeps})
	}
}

// msgLocation resolves span against this evaluator's current source, for
// attaching a human-readable position to a warning/debug message.
func (e *Evaluator) msgLocation(span logger.Range) *logger.MsgLocation {
	if e.source == nil {
		return nil
	}
	line, column, lineText := e.source.LineColumn(span.Loc)
	return &logger.MsgLocation{Source: e.source, Range: span, Line: line, Column: column, LineText: lineText}
}

func (e *Evaluator) evalError(s sassast.ErrorStatement) error {
	v, err := e.evalExpr(s.MessageExpr)
	if err != nil {
		return err
	}
	return errs.New(errs.Internal, e.source, s.Span(), value.ToCssString(v, true))
}

func (e *Evaluator) evalDebug(s sassast.DebugStatement) error {
	v, err := e.evalExpr(s.MessageExpr)
	if err != nil {
		return err
	}
	if e.log.AddMsg != nil {
		e.log.AddMsg(logger.Msg{Kind: logger.Debug, Data: logger.MsgData{Text: value.ToCssString(v, true), Location: e.msgLocation(s.Span())}, QuietDeps: e.quietDeps})
	}
	return nil
}

// --- small helpers ----------------------------------------------------------

func (e *Evaluator) pushFrame(name string, span logger.Range) func() {
	e.callStack = append(e.callStack, logger.StackFrame{MemberName: name, CallSite: span, Source: e.source})
	return func() { e.callStack = e.callStack[:len(e.callStack)-1] }
}

// parseSelectorListPlaceholder stands in for the external Parser
// interface's parse_selector_list (spec.md §6): parsing selector text
// from a string is outside this evaluation core's scope (it is an
// external collaborator per spec.md §6), so this evaluator handles only
// the degenerate selector grammar of defaultSelectorParser in
// eval_parsers.go, to which it delegates.
func parseSelectorListPlaceholder(text string) (selector.SelectorList, error) {
	return defaultSelectorParser(text)
}
