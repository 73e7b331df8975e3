// Package errs implements spec.md §7's error-kind surface as a single
// result type, the way esbuild threads parse/bundle failures through one
// error shape decorated with notes at each re-raise point instead of a
// hierarchy of error structs.
package errs

import (
	"fmt"
	"strings"

	"github.com/sassy-go/sasscore/internal/logger"
)

type Kind uint8

const (
	ParseError Kind = iota
	TypeError
	UndefinedReference
	BadArguments
	ExtendTarget
	ModuleLoop
	AlreadyLoaded
	UnusedConfiguration
	BuiltInConfigured
	CssNotRepresentable
	Internal
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case TypeError:
		return "TypeError"
	case UndefinedReference:
		return "UndefinedReference"
	case BadArguments:
		return "BadArguments"
	case ExtendTarget:
		return "ExtendTarget"
	case ModuleLoop:
		return "ModuleLoop"
	case AlreadyLoaded:
		return "AlreadyLoaded"
	case UnusedConfiguration:
		return "UnusedConfiguration"
	case BuiltInConfigured:
		return "BuiltInConfigured"
	case CssNotRepresentable:
		return "CssNotRepresentable"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is the sole error type evaluator operations throw (spec.md §7:
// "evaluator operations throw; the top-level compile function catches and
// attaches the current stack trace and loaded URLs").
type Error struct {
	Kind    Kind
	Message string
	Spans   []logger.Range
	Source  *logger.Source
	Trace   []logger.StackFrame
}

func New(kind Kind, source *logger.Source, span logger.Range, message string) *Error {
	return &Error{Kind: kind, Message: message, Spans: []logger.Range{span}, Source: source}
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	if e.Source != nil && len(e.Spans) > 0 {
		line, col, _ := e.Source.LineColumn(e.Spans[0].Loc)
		fmt.Fprintf(&b, " (%s:%d:%d)", e.Source.PrettyURL, line, col)
	}
	return b.String()
}

// WithTrace returns a copy of e decorated with the evaluator's current call
// stack, the way esbuild's parser appends notes when it rethrows a lower-
// level parse error with calling context.
func (e *Error) WithTrace(trace []logger.StackFrame) *Error {
	clone := *e
	clone.Trace = append([]logger.StackFrame(nil), trace...)
	return &clone
}

func (e *Error) WithSpan(span logger.Range) *Error {
	clone := *e
	clone.Spans = append(append([]logger.Range(nil), e.Spans...), span)
	return &clone
}

func Newf(kind Kind, source *logger.Source, span logger.Range, format string, args ...interface{}) *Error {
	return New(kind, source, span, fmt.Sprintf(format, args...))
}
