// Package sassapi is the public API this evaluation core exposes to a host
// program (spec.md §6): a single Compile entry point for a full stylesheet
// plus whatever it @use/@forward/@imports, an Evaluator type for running
// statements and expressions interactively against a live environment, and
// Serialize/SerializeValue for rendering a CSS tree or a bare value on its
// own. Every internal/* package is unexported to the rest of the module
// tree by Go's own internal/ visibility rule, so this package's job is
// exactly esbuild's pkg/api.go's: translate the host-facing option/result
// shape into internal/eval, internal/loader and internal/serializer calls
// and translate their output (and any *errs.Error) back into types a host
// never has to reach into an internal package to name.
package sassapi

import (
	"github.com/google/uuid"

	"github.com/sassy-go/sasscore/internal/cssast"
	"github.com/sassy-go/sasscore/internal/errs"
	"github.com/sassy-go/sasscore/internal/eval"
	"github.com/sassy-go/sasscore/internal/loader"
	"github.com/sassy-go/sasscore/internal/logger"
	"github.com/sassy-go/sasscore/internal/sassast"
	"github.com/sassy-go/sasscore/internal/serializer"
	"github.com/sassy-go/sasscore/internal/value"
)

// Style selects spec.md §4.6's two output modes.
type Style = serializer.Style

const (
	Expanded   = serializer.Expanded
	Compressed = serializer.Compressed
)

// LineFeed selects the newline sequence serialized output uses (spec.md §6
// `line_feed`).
type LineFeed = serializer.LineFeed

const (
	LF   = serializer.LF
	CR   = serializer.CR
	CRLF = serializer.CRLF
	LFCR = serializer.LFCR
)

// Importer is spec.md §6's "Importer interface (consumed)": a host supplies
// one to resolve @use/@forward/@import URLs and hand back parsed
// stylesheets. internal/loader.FilesystemImporter is a ready-made
// implementation for on-disk stylesheets.
type Importer = loader.Importer

// FilesystemImporter resolves relative and load-path URLs against the
// filesystem (spec.md §6's reference Importer), applying Sass's partial-
// file and index-file search order.
type FilesystemImporter = loader.FilesystemImporter

// Source is one loaded stylesheet's canonical URL and text, the span origin
// every Loc/Range in a parsed Stylesheet is relative to.
type Source = logger.Source

// Function is the signature a host-supplied SassScript function implements
// (spec.md §6 Options.functions: name → callable).
type Function func(args []value.Value, named map[string]value.Value) (value.Value, error)

// Builtins maps a `sass:`-prefixed module URL (e.g. "sass:math") to its
// exported members (spec.md §4.3 step 1). Its values are internal/env
// Modules, which code outside this module cannot build, and this package
// ships no built-in modules: a nil Builtins becomes an empty registry, so
// no sass: URL resolves to a built-in module.
type Builtins = loader.BuiltinRegistry

// Options mirrors spec.md §6's compile options exactly.
type Options struct {
	Importer            Importer
	AdditionalImporters []Importer
	Builtins            Builtins
	Functions           map[string]Function
	QuietDeps           bool
	SourceMap           bool
	Style               Style
	IndentWidth         int
	UseTabs             bool
	LineFeed            LineFeed
	Inspect             bool
}

// Location is a human-readable source position, translated from
// internal/logger.MsgLocation so a host never has to import internal/logger
// to read one (grounded on esbuild's own pkg/api.Location, which performs
// exactly this translation from its internal logger.MsgLocation).
type Location struct {
	File     string
	Line     int
	Column   int
	LineText string
}

// Message is one warning or debug message collected during a Compile
// (spec.md §6 Logger interface: "consumed" — a host reads these back rather
// than installing its own sink, unless it built its own logger.Log and
// threaded it through a lower-level Evaluator itself).
type Message struct {
	Text     string
	Location *Location
	FromDep  bool
}

func translateLocation(l *logger.MsgLocation) *Location {
	if l == nil {
		return nil
	}
	file := ""
	if l.Source != nil {
		file = l.Source.PrettyURL
	}
	return &Location{File: file, Line: l.Line, Column: l.Column, LineText: l.LineText}
}

func translateMessages(msgs []logger.Msg) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Kind == logger.Error {
			continue
		}
		out = append(out, Message{Text: m.Data.Text, Location: translateLocation(m.Data.Location), FromDep: m.QuietDeps})
	}
	return out
}

// ErrorKind mirrors spec.md §7's eleven error kinds, redeclared here (rather
// than re-exporting internal/errs.Kind) so a host branching on the kind of
// a failed Compile never has to import an internal package to name the
// type — the same reasoning esbuild's pkg/api.go applies to its own
// Target/Loader/Platform/Format enums, which shadow internal equivalents
// instead of exposing them directly.
type ErrorKind uint8

const (
	ParseError ErrorKind = iota
	TypeError
	UndefinedReference
	BadArguments
	ExtendTargetError
	ModuleLoop
	AlreadyLoaded
	UnusedConfiguration
	BuiltInConfigured
	CssNotRepresentable
	InternalError
)

func translateKind(k errs.Kind) ErrorKind {
	switch k {
	case errs.ParseError:
		return ParseError
	case errs.TypeError:
		return TypeError
	case errs.UndefinedReference:
		return UndefinedReference
	case errs.BadArguments:
		return BadArguments
	case errs.ExtendTarget:
		return ExtendTargetError
	case errs.ModuleLoop:
		return ModuleLoop
	case errs.AlreadyLoaded:
		return AlreadyLoaded
	case errs.UnusedConfiguration:
		return UnusedConfiguration
	case errs.BuiltInConfigured:
		return BuiltInConfigured
	case errs.CssNotRepresentable:
		return CssNotRepresentable
	default:
		return InternalError
	}
}

// CompileError is what Compile returns on failure: spec.md §7's "the
// top-level compile function catches and attaches the current stack trace
// and loaded URLs" — LoadedURLs lets a host still report every file that
// was read before the failure, the way a build tool's error overlay needs
// to know which files were in play even when compilation didn't finish.
type CompileError struct {
	Kind       ErrorKind
	Message    string
	Location   *Location
	LoadedURLs []string
}

func (e *CompileError) Error() string { return e.Message }

func translateError(err error, loadedURLs []string) error {
	if se, ok := err.(*errs.Error); ok {
		var loc *Location
		if se.Source != nil && len(se.Spans) > 0 {
			line, col, lineText := se.Source.LineColumn(se.Spans[0].Loc)
			loc = &Location{File: se.Source.PrettyURL, Line: line, Column: col, LineText: lineText}
		}
		return &CompileError{Kind: translateKind(se.Kind), Message: se.Message, Location: loc, LoadedURLs: loadedURLs}
	}
	return err
}

// Result is spec.md §6's `compile(...) → {css, loaded_urls}`, plus the
// optional source map text and any warnings/debug messages collected along
// the way.
type Result struct {
	CSS        string
	SourceMap  string
	LoadedURLs []string
	Messages   []Message
	// CompilationID correlates this result's messages and source map back
	// to this specific Compile call (spec.md §5 permits running several
	// compilations concurrently with no shared mutable state; nothing else
	// makes their diagnostics distinguishable from one another).
	CompilationID string
}

func (o Options) evalOptions(log logger.Log, ld *loader.Loader, functions map[string]value.Callable) eval.Options {
	return eval.Options{
		Functions:    functions,
		Logger:       log,
		QuietDeps:    o.QuietDeps,
		Loader:       ld,
		BaseImporter: o.Importer,
	}
}

func (o Options) serializerOptions() serializer.Options {
	return serializer.Options{
		Style:       o.Style,
		IndentWidth: o.IndentWidth,
		UseTabs:     o.UseTabs,
		LineFeed:    o.LineFeed,
		SourceMap:   o.SourceMap,
	}
}

// wrapFunctions adapts host Functions (this package's own signature) into
// value.Callable, the form internal/eval.Options expects — a distinct
// closure per entry since Go loop variables are reused across iterations.
func wrapFunctions(fns map[string]Function) map[string]value.Callable {
	out := make(map[string]value.Callable, len(fns))
	for name, fn := range fns {
		fn := fn
		out[name] = &eval.BuiltinFunction{Name: name, Fn: func(args []value.Value, named map[string]value.Value) (value.Value, error) {
			return fn(args, named)
		}}
	}
	return out
}

// Compile implements spec.md §6's top-level compile(ast, options) entry
// point: evaluate sheet, resolving every @use/@forward/@import it
// transitively reaches through the module loader (each loaded module gets
// its own Evaluator, wired together by an internal/loader.Executor closure
// exactly the way internal/loader's own doc comment describes), merge
// @extend registrations across the whole module graph, then serialize the
// resulting CSS tree. source is the entry stylesheet's origin, used for
// error positions and (when opts.SourceMap is set) the source map's own
// entry.
func Compile(sheet *sassast.Stylesheet, source *Source, opts Options) (Result, error) {
	compilationID := uuid.New().String()
	inner := logger.NewDeferLog()
	log := logger.Log{
		AddMsg: func(m logger.Msg) {
			m.Compilation = compilationID
			inner.AddMsg(m)
		},
		HasErrors: inner.HasErrors,
		Done:      inner.Done,
	}

	builtins := opts.Builtins
	if builtins == nil {
		builtins = loader.BuiltinRegistry{}
	}
	functions := wrapFunctions(opts.Functions)

	var ld *loader.Loader
	executor := func(stylesheet *sassast.Stylesheet, config *loader.Configuration) (*loader.Module, error) {
		sub := eval.New(eval.Options{
			Functions:    functions,
			Logger:       log,
			QuietDeps:    opts.QuietDeps,
			Loader:       ld,
			BaseImporter: opts.Importer,
			Config:       config,
		}, source)
		if err := sub.Run(stylesheet); err != nil {
			return nil, err
		}
		return &loader.Module{
			Exports:    sub.ExportedModule(),
			CSSTree:    sub.Tree(),
			Extensions: sub.Extensions(),
		}, nil
	}
	ld = loader.New(opts.Importer, opts.AdditionalImporters, builtins, executor)

	ev := eval.New(opts.evalOptions(log, ld, functions), source)

	loadedURLs := func() []string {
		urls := make([]string, 0, len(ld.LoadedURLs()))
		for u := range ld.LoadedURLs() {
			urls = append(urls, u)
		}
		return urls
	}

	if err := ev.Run(sheet); err != nil {
		return Result{Messages: translateMessages(log.Done()), CompilationID: compilationID}, translateError(err, loadedURLs())
	}
	if err := ev.Extensions().Validate(source); err != nil {
		return Result{Messages: translateMessages(log.Done()), CompilationID: compilationID}, translateError(err, loadedURLs())
	}

	tree := ev.Tree()
	tree.SyncExtensions()

	var sources []*logger.Source
	if opts.SourceMap {
		sources = []*logger.Source{source}
	}
	out := serializer.Serialize(tree, opts.serializerOptions(), sources)

	result := Result{
		CSS:           out.CSS,
		LoadedURLs:    loadedURLs(),
		Messages:      translateMessages(log.Done()),
		CompilationID: compilationID,
	}
	if out.Map != nil {
		out.Map.XSassCompilationID = compilationID
		result.SourceMap = out.Map.String()
	}
	return result, nil
}

// Evaluator is spec.md §6's interactive surface: `Evaluator::new`/
// `use_rule`/`evaluate_expression`/`set_variable`. It's a direct alias for
// internal/eval.Evaluator (already exporting exactly these methods) rather
// than a wrapper struct, since there is nothing left to translate — unlike
// Compile's Options/Result, an Evaluator's inputs and outputs are already
// this module's own sassast/value types, which a host consuming this
// package already has to use.
type Evaluator = eval.Evaluator

// NewEvaluator constructs an Evaluator bound to a single module loader (or
// none, for a host that only ever evaluates standalone statements/
// expressions with no @use/@forward/@import in play).
func NewEvaluator(opts Options, source *Source) *Evaluator {
	builtins := opts.Builtins
	if builtins == nil {
		builtins = loader.BuiltinRegistry{}
	}
	functions := wrapFunctions(opts.Functions)
	var ld *loader.Loader
	if opts.Importer != nil || len(opts.AdditionalImporters) > 0 {
		executor := func(stylesheet *sassast.Stylesheet, config *loader.Configuration) (*loader.Module, error) {
			sub := eval.New(eval.Options{
				Functions:    functions,
				Logger:       logger.NewDeferLog(),
				QuietDeps:    opts.QuietDeps,
				Loader:       ld,
				BaseImporter: opts.Importer,
				Config:       config,
			}, source)
			if err := sub.Run(stylesheet); err != nil {
				return nil, err
			}
			return &loader.Module{Exports: sub.ExportedModule(), CSSTree: sub.Tree(), Extensions: sub.Extensions()}, nil
		}
		ld = loader.New(opts.Importer, opts.AdditionalImporters, builtins, executor)
	}
	return eval.New(opts.evalOptions(logger.NewDeferLog(), ld, functions), source)
}

// Serialize implements spec.md §6's `serialize(css_ast, style, source_map?)
// → {text, map?, source_files?}` for a CSS tree a host already has (e.g.
// built directly through an Evaluator rather than via Compile).
func Serialize(tree *cssast.Tree, opts Options, sources []*Source) (css string, sourceMap string) {
	out := serializer.Serialize(tree, opts.serializerOptions(), sources)
	if out.Map != nil {
		sourceMap = out.Map.String()
	}
	return out.CSS, sourceMap
}

// SerializeValue implements spec.md §6's `serialize_value(value, inspect?,
// quote?) → text`: inspect renders the debug form used by `@debug`/
// `meta.inspect()` (functions, maps, and otherwise CssNotRepresentable
// values included). In the non-inspect form a quoted string value keeps
// its quotes, and quote=true quotes an unquoted string as well.
func SerializeValue(v value.Value, inspect bool, quote bool) string {
	if inspect {
		return value.ToCssString(v, true)
	}
	if s, ok := v.(value.Str); ok {
		if quote || s.Quoted {
			return serializer.QuoteString(s.Text)
		}
		return s.Text
	}
	return serializer.FormatValue(v, false)
}
