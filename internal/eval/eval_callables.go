package eval

import (
	"github.com/sassy-go/sasscore/internal/env"
	"github.com/sassy-go/sasscore/internal/errs"
	"github.com/sassy-go/sasscore/internal/logger"
	"github.com/sassy-go/sasscore/internal/sassast"
	"github.com/sassy-go/sasscore/internal/value"
)

func (e *Evaluator) declareFunction(s sassast.FunctionDecl) {
	fn := &UserFunction{Name: s.Name, Arguments: s.Arguments, Body: s.Children, Closure: e.env.Closure(), eval: e}
	e.env.DeclareFunction(s.Name, fn)
}

func (e *Evaluator) declareMixin(s sassast.MixinDecl) {
	fn := &UserMixin{Name: s.Name, Arguments: s.Arguments, Body: s.Children, Closure: e.env.Closure(), eval: e}
	e.env.DeclareMixin(s.Name, fn)
}

// evalCallArguments implements spec.md §4.4's call-argument evaluation:
// positional arguments are collected in order, named arguments by name,
// and a trailing spread (`...`) of a list, argument list, or map expands
// into the positional or named set accordingly.
func (e *Evaluator) evalCallArguments(args []sassast.CallArgument) ([]value.Value, map[string]value.Value, error) {
	var positional []value.Value
	named := map[string]value.Value{}
	for _, a := range args {
		v, err := e.evalExpr(a.ValueExpr)
		if err != nil {
			return nil, nil, err
		}
		if a.IsSpread {
			switch t := v.(type) {
			case value.List:
				positional = append(positional, t.Items...)
			case value.ArgumentList:
				positional = append(positional, t.Items...)
				for k, nv := range t.Named {
					named[k] = nv
				}
			case value.Map:
				for _, entry := range t.Entries {
					if s, ok := entry.Key.(value.Str); ok {
						named[s.Text] = entry.Value
					}
				}
			default:
				positional = append(positional, v)
			}
			continue
		}
		if a.Name != "" {
			named[a.Name] = v
		} else {
			positional = append(positional, v)
		}
	}
	return positional, named, nil
}

// bindCallArguments implements spec.md §4.4's argument binding: positional
// arguments fill parameters left to right, named arguments fill by name,
// defaults fill anything left over, a trailing `...` parameter soaks up
// the remainder as an ArgumentList, and anything left unconsumed is a
// BadArguments error.
func bindCallArguments(e *Evaluator, params []sassast.Argument, args []sassast.CallArgument, span logger.Range) error {
	positional, named, err := e.evalCallArguments(args)
	if err != nil {
		return err
	}
	return applyBindings(e, params, positional, named, span)
}

func applyBindings(e *Evaluator, params []sassast.Argument, positional []value.Value, named map[string]value.Value, span logger.Range) error {
	used := map[string]bool{}
	consumed := 0
	for i, p := range params {
		if p.IsRest {
			rest := append([]value.Value(nil), positional[minInt(i, len(positional)):]...)
			namedRest := map[string]value.Value{}
			for k, v := range named {
				if !used[k] {
					namedRest[k] = v
					used[k] = true
				}
			}
			e.env.SetVariable(p.Name, value.ArgumentList{Items: rest, Named: namedRest, Separator: value.SepComma}, false, "")
			consumed = len(positional)
			continue
		}
		if i < len(positional) {
			e.env.SetVariable(p.Name, positional[i], false, "")
			consumed = i + 1
			continue
		}
		if v, ok := named[p.Name]; ok {
			used[p.Name] = true
			e.env.SetVariable(p.Name, v, false, "")
			continue
		}
		if p.Default != nil {
			v, err := e.evalExpr(p.Default)
			if err != nil {
				return err
			}
			e.env.SetVariable(p.Name, v, false, "")
			continue
		}
		return errs.Newf(errs.BadArguments, e.source, span, "Missing argument $%s.", p.Name)
	}
	if consumed < len(positional) && !hasRestParam(params) {
		return errs.New(errs.BadArguments, e.source, span, "Too many positional arguments.")
	}
	for k := range named {
		if !used[k] {
			return errs.Newf(errs.BadArguments, e.source, span, "No argument named $%s.", k)
		}
	}
	return nil
}

func hasRestParam(params []sassast.Argument) bool {
	for _, p := range params {
		if p.IsRest {
			return true
		}
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// evalFunctionCall implements spec.md §4.4's function-call resolution:
// scope lookup, then the built-in table, then (when unresolved) a plain-
// CSS function string; an un-namespaced calc()-shaped name is diverted
// into the Calculation constructor path when no function of that name
// (user-defined or host-supplied) is in scope.
func (e *Evaluator) evalFunctionCall(ex sassast.FunctionCall) (value.Value, error) {
	if value.IsKnownCalcName(ex.Name) && ex.Namespace == "" {
		if _, ok := e.env.GetFunction(ex.Name, ""); !ok {
			return e.evalCalcCall(ex)
		}
	}

	callable, ok := e.env.GetFunction(ex.Name, ex.Namespace)
	if !ok {
		return e.plainCSSFunctionCall(ex)
	}

	switch fn := callable.(type) {
	case *BuiltinFunction:
		positional, named, err := e.evalCallArguments(toCallArguments(ex.Arguments))
		if err != nil {
			return nil, err
		}
		return fn.Fn(positional, named)
	case *UserFunction:
		return e.invokeUserFunction(fn, toCallArguments(ex.Arguments), ex.Span())
	default:
		return nil, errs.Newf(errs.Internal, e.source, ex.Span(), "unsupported callable %T", callable)
	}
}

func toCallArguments(args []sassast.FunctionCallArgument) []sassast.CallArgument {
	out := make([]sassast.CallArgument, len(args))
	for i, a := range args {
		out[i] = sassast.CallArgument{Name: a.Name, ValueExpr: a.ValueExpr, IsSpread: a.IsSpread}
	}
	return out
}

// plainCSSFunctionCall implements spec.md §4.4's fallback: an unresolved
// function name is emitted as literal CSS function syntax with its
// arguments rendered as CSS text, rather than raising UndefinedReference
// (Sass treats unknown function calls as plain CSS).
func (e *Evaluator) plainCSSFunctionCall(ex sassast.FunctionCall) (value.Value, error) {
	var parts []string
	for _, a := range ex.Arguments {
		v, err := e.evalExpr(a.ValueExpr)
		if err != nil {
			return nil, err
		}
		text := value.ToCssString(v, false)
		if a.Name != "" {
			text = "$" + a.Name + ": " + text
		}
		parts = append(parts, text)
	}
	name := ex.Name
	if ex.Namespace != "" {
		name = ex.Namespace + "." + name
	}
	joined := ""
	for i, p := range parts {
		if i > 0 {
			joined += ", "
		}
		joined += p
	}
	return value.Str{Text: name + "(" + joined + ")"}, nil
}

func (e *Evaluator) invokeUserFunction(fn *UserFunction, args []sassast.CallArgument, span logger.Range) (value.Value, error) {
	pop := e.pushFrame(fn.Name, span)
	defer pop()

	var result value.Value = value.Null{}
	err := fn.Closure.Invoke(func() error {
		if err := bindCallArguments(e, fn.Arguments, args, span); err != nil {
			return err
		}
		prevInFunction := e.inFunction
		e.inFunction = true
		sig, err := e.evalStatements(fn.Body)
		e.inFunction = prevInFunction
		if err != nil {
			return err
		}
		if sig.kind == signalReturn {
			result = sig.value
		}
		return nil
	})
	return result, err
}

// evalInclude implements spec.md §4.4's @include: look up the mixin,
// reject a content block if the callable is built-in or its body never
// uses @content, bind arguments in the caller's environment, and invoke
// the body in the mixin's own closure with the content block (if any)
// installed.
func (e *Evaluator) evalInclude(s sassast.IncludeStatement) error {
	callable, ok := e.env.GetMixin(s.Name, s.Namespace)
	if !ok {
		return errs.Newf(errs.UndefinedReference, e.source, s.Span(), "Undefined mixin: %s.", s.Name)
	}
	mixin, ok := callable.(*UserMixin)
	if !ok {
		if len(s.ContentBlock) > 0 {
			return errs.Newf(errs.BadArguments, e.source, s.Span(), "Built-in mixin %s doesn't accept a content block.", s.Name)
		}
		positional, named, err := e.evalCallArguments(s.Arguments)
		if err != nil {
			return err
		}
		if b, ok := callable.(*BuiltinFunction); ok {
			_, err := b.Fn(positional, named)
			return err
		}
		return errs.Newf(errs.Internal, e.source, s.Span(), "unsupported mixin callable %T", callable)
	}
	if len(s.ContentBlock) > 0 && !mixinAcceptsContent(mixin.Body) {
		return errs.Newf(errs.BadArguments, e.source, s.Span(), "Mixin %s doesn't accept a content block.", s.Name)
	}

	pop := e.pushFrame(s.Name, s.Span())
	defer pop()

	var content *env.Content
	if len(s.ContentBlock) > 0 {
		capturedClosure := e.env.Closure()
		block := s.ContentBlock
		content = &env.Content{Invoke: func(args []value.Value) (value.Value, error) {
			var result value.Value = value.Null{}
			err := capturedClosure.Invoke(func() error {
				sig, err := e.evalStatements(block)
				if err != nil {
					return err
				}
				if sig.kind == signalReturn {
					result = sig.value
				}
				return nil
			})
			return result, err
		}}
	}

	return mixin.Closure.Invoke(func() error {
		if err := bindCallArguments(e, mixin.Arguments, s.Arguments, s.Span()); err != nil {
			return err
		}
		if content != nil {
			return e.env.WithContent(content, func() error {
				_, err := e.evalStatements(mixin.Body)
				return err
			})
		}
		_, err := e.evalStatements(mixin.Body)
		return err
	})
}

// mixinAcceptsContent reports whether body contains a reachable
// @content, matching dart-sass's visitIncludeRule check that a content
// block is only valid for a mixin whose own definition uses @content
// somewhere in its normal control flow. It recurses through nested
// style rules and control-flow blocks (@if/@each/@for/@while/@at-root,
// nested declarations) but not into a nested @function/@mixin
// declaration's own body or another @include's content block, since
// those introduce a @content binding of their own.
func mixinAcceptsContent(body []sassast.Statement) bool {
	for _, s := range body {
		switch st := s.(type) {
		case sassast.ContentStatement:
			return true
		case sassast.StyleRule:
			if mixinAcceptsContent(st.Children) {
				return true
			}
		case sassast.AtRule:
			if mixinAcceptsContent(st.Children) {
				return true
			}
		case sassast.MediaRule:
			if mixinAcceptsContent(st.Children) {
				return true
			}
		case sassast.SupportsRule:
			if mixinAcceptsContent(st.Children) {
				return true
			}
		case sassast.AtRootStatement:
			if mixinAcceptsContent(st.Children) {
				return true
			}
		case sassast.EachStatement:
			if mixinAcceptsContent(st.Children) {
				return true
			}
		case sassast.ForStatement:
			if mixinAcceptsContent(st.Children) {
				return true
			}
		case sassast.WhileStatement:
			if mixinAcceptsContent(st.Children) {
				return true
			}
		case sassast.IfStatement:
			for _, clause := range st.Clauses {
				if mixinAcceptsContent(clause.Children) {
					return true
				}
			}
		case sassast.Declaration:
			if mixinAcceptsContent(st.NestedChildren) {
				return true
			}
		}
	}
	return false
}

// evalContent implements spec.md §4.4's @content: invoke the caller's
// stored content block, reusing its captured environment; a @content with
// no installed block is a silent no-op (matching a mixin that accepts a
// content block being called without one).
func (e *Evaluator) evalContent(s sassast.ContentStatement) error {
	content, ok := e.env.CurrentContent()
	if !ok {
		return nil
	}
	args, _, err := e.evalCallArguments(s.Arguments)
	if err != nil {
		return err
	}
	_, err = content.Invoke(args)
	return err
}
