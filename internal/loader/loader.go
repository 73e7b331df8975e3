// Package loader implements the module loader (spec.md §4.3, component
// C3): @use/@forward/@import resolution, the active/completed module
// sets, cycle detection, and configuration propagation.
//
// The load_module algorithm is this package's own; the external Importer
// and Parser collaborators (spec.md §6) are injected as interfaces so
// this package never depends on a concrete filesystem or parser, matching
// the teacher's own plugin-resolver boundary
// (_examples/evanw-esbuild/internal/resolver/resolver.go's Resolver takes
// an fs.FS and a parse callback rather than owning I/O itself).
package loader

import (
	"github.com/sassy-go/sasscore/internal/ast"
	"github.com/sassy-go/sasscore/internal/cssast"
	"github.com/sassy-go/sasscore/internal/env"
	"github.com/sassy-go/sasscore/internal/errs"
	"github.com/sassy-go/sasscore/internal/extend"
	"github.com/sassy-go/sasscore/internal/logger"
	"github.com/sassy-go/sasscore/internal/sassast"
	"github.com/sassy-go/sasscore/internal/value"
)

// Importer is spec.md §6's "Importer interface (consumed)".
type Importer interface {
	Canonicalize(url string, baseImporter Importer, baseURL string, forImport bool) (importer Importer, canonicalURL string, originalURL string, ok bool)
	ImportCanonical(importer Importer, canonicalURL string) (*sassast.Stylesheet, bool)
	Humanize(canonicalURL string) string
}

// ConfiguredValue is one entry of a Configuration (spec.md §3).
type ConfiguredValue struct {
	Value           value.Value
	Span            logger.Range
	DeclarationSpan logger.Range
	Consumed        bool
}

// Configuration is the `with (...)` map passed to @use/@forward, plus the
// implicit/explicit distinction spec.md §3 describes.
type Configuration struct {
	Values   map[string]*ConfiguredValue
	Explicit bool
}

func NewConfiguration(explicit bool) *Configuration {
	return &Configuration{Values: map[string]*ConfiguredValue{}, Explicit: explicit}
}

// StructurallyEqual reports whether two configurations carry the same
// variable names bound to structurally-equal values (spec.md §4.3 step 4:
// "unless the supplied configuration is structurally identical to the one
// that originally loaded it").
func (c *Configuration) StructurallyEqual(other *Configuration) bool {
	if c == nil || other == nil {
		return c == other
	}
	if len(c.Values) != len(other.Values) {
		return false
	}
	for name, cv := range c.Values {
		ov, ok := other.Values[name]
		if !ok || !value.Equals(cv.Value, ov.Value) {
			return false
		}
	}
	return true
}

// Module is C3's output: an evaluated stylesheet's exports plus its CSS
// tree and module-graph metadata (spec.md §3 "Module").
type Module struct {
	CanonicalURL                   string
	Exports                        *env.Module
	CSSTree                        *cssast.Tree
	// Extensions is this module's own @extend registrations (spec.md
	// §4.5 add_extensions: "absorb extensions from downstream modules"),
	// set by the Executor from the module's evaluator once it finishes
	// running; a caller that merges mod.CSSTree into its own tree via
	// @use/@forward/@import should also merge mod.Extensions into its own
	// extend.Store so a downstream module's @extend can still rewrite a
	// selector that belongs to this module or one further upstream.
	Extensions                     *extend.Store
	UpstreamModules                []*Module
	TransitivelyContainsCSS        bool
	TransitivelyContainsExtensions bool
}

// Executor runs a parsed stylesheet under a configuration and produces a
// Module; the evaluator (C1) supplies this, keeping the loader from
// depending on C1 per spec.md §2's leaves-first dependency order.
type Executor func(stylesheet *sassast.Stylesheet, config *Configuration) (*Module, error)

// BuiltinRegistry resolves `sass:*` module URLs (spec.md §4.3 step 1).
type BuiltinRegistry map[string]*env.Module

type Loader struct {
	rootImporter Importer
	additional   []Importer
	builtins     BuiltinRegistry
	execute      Executor

	active    map[string]bool
	completed map[string]*Module
	loadedURLs map[string]bool
	configs   map[string]*Configuration

	// order and records implement ast.ImportRecord.ResolvedModule: order
	// assigns each canonical URL a stable position the first time it
	// completes, so a later record referencing an already-loaded module
	// (spec.md §4.3 step 4) still resolves to that module's index.
	order   []string
	records []ast.ImportRecord
}

func New(rootImporter Importer, additional []Importer, builtins BuiltinRegistry, execute Executor) *Loader {
	return &Loader{
		rootImporter: rootImporter,
		additional:   additional,
		builtins:     builtins,
		execute:      execute,
		active:       map[string]bool{},
		completed:    map[string]*Module{},
		loadedURLs:   map[string]bool{},
		configs:      map[string]*Configuration{},
	}
}

func (l *Loader) LoadedURLs() map[string]bool { return l.loadedURLs }

// LoadModule implements spec.md §4.3's load_module algorithm. kind records
// which statement triggered this load (ast.ImportUse/ImportForward/
// ImportDynamic), for ImportRecords to report back to a host.
func (l *Loader) LoadModule(url string, callerSpan logger.Range, config *Configuration, baseImporter Importer, baseURL string, kind ast.ImportKind) (*Module, error) {
	record := ast.ImportRecord{URLText: url, Range: callerSpan, Kind: kind}

	// Step 1: built-in modules.
	if m, ok := l.builtins[url]; ok {
		if config != nil && len(config.Values) > 0 {
			return nil, errs.New(errs.BuiltInConfigured, nil, callerSpan, "Built-in modules can't be configured.")
		}
		l.records = append(l.records, record)
		return &Module{CanonicalURL: url, Exports: m}, nil
	}

	// Step 2: canonicalize.
	importer, canonicalURL, ok := l.canonicalize(url, baseImporter, baseURL)
	if !ok {
		return nil, errs.Newf(errs.UndefinedReference, nil, callerSpan, "Can't find stylesheet to import: %q", url)
	}
	l.loadedURLs[canonicalURL] = true

	// Step 3: cycle detection.
	if l.active[canonicalURL] {
		return nil, errs.Newf(errs.ModuleLoop, nil, callerSpan, "Module loop: %q is already being loaded.", canonicalURL)
	}

	// Step 4: already-completed with a differing explicit configuration.
	if m, ok := l.completed[canonicalURL]; ok {
		prior := l.configs[canonicalURL]
		if config != nil && config.Explicit && !prior.StructurallyEqual(config) {
			return nil, errs.Newf(errs.AlreadyLoaded, nil, callerSpan, "%q was already loaded, so it can't be configured using \"with\".", canonicalURL)
		}
		record.ResolvedModule = l.moduleIndex(canonicalURL)
		l.records = append(l.records, record)
		return m, nil
	}

	// Step 5: parse and execute.
	stylesheet, ok := importer.ImportCanonical(importer, canonicalURL)
	if !ok {
		return nil, errs.Newf(errs.UndefinedReference, nil, callerSpan, "Can't read stylesheet for %q.", canonicalURL)
	}
	l.active[canonicalURL] = true
	module, err := l.execute(stylesheet, config)
	delete(l.active, canonicalURL)
	if err != nil {
		return nil, err
	}
	module.CanonicalURL = canonicalURL

	// Step 6: assert every configured variable was consumed.
	if config != nil {
		for name, cv := range config.Values {
			if !cv.Consumed {
				return nil, errs.Newf(errs.UnusedConfiguration, nil, cv.DeclarationSpan, "Unused configuration variable $%s.", name)
			}
		}
	}

	l.completed[canonicalURL] = module
	l.configs[canonicalURL] = config
	record.ResolvedModule = l.moduleIndex(canonicalURL)
	l.records = append(l.records, record)
	return module, nil
}

// moduleIndex assigns canonicalURL a stable position in load order the
// first time it's seen, returning an ast.Index32 a caller can use to look
// the module back up positionally (e.g. for a dependency-graph report).
func (l *Loader) moduleIndex(canonicalURL string) ast.Index32 {
	for i, u := range l.order {
		if u == canonicalURL {
			return ast.MakeIndex32(uint32(i))
		}
	}
	l.order = append(l.order, canonicalURL)
	return ast.MakeIndex32(uint32(len(l.order) - 1))
}

// ImportRecords returns every @use/@forward/@import(module) this loader
// resolved, in request order, each carrying the module-graph position its
// ResolvedModule index refers to (see moduleIndex).
func (l *Loader) ImportRecords() []ast.ImportRecord { return l.records }

func (l *Loader) canonicalize(url string, baseImporter Importer, baseURL string) (Importer, string, bool) {
	if baseImporter != nil {
		if importer, canonical, _, ok := baseImporter.Canonicalize(url, baseImporter, baseURL, false); ok {
			return importer, canonical, true
		}
	}
	if importer, canonical, _, ok := l.rootImporter.Canonicalize(url, baseImporter, baseURL, false); ok {
		return importer, canonical, true
	}
	for _, imp := range l.additional {
		if importer, canonical, _, ok := imp.Canonicalize(url, baseImporter, baseURL, false); ok {
			return importer, canonical, true
		}
	}
	return nil, "", false
}
