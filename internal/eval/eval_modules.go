package eval

import (
	"strings"

	"github.com/sassy-go/sasscore/internal/ast"
	"github.com/sassy-go/sasscore/internal/cssast"
	"github.com/sassy-go/sasscore/internal/loader"
	"github.com/sassy-go/sasscore/internal/sassast"
)

// isPlainCSSImportURL reports whether url must stay a literal CSS @import
// rather than trigger a Sass module load (spec.md §4.4: imports of a
// remote URL, a URL already wrapped in url(...), or a path ending in
// ".css" pass through untouched).
func isPlainCSSImportURL(url string) bool {
	return strings.HasPrefix(url, "http://") ||
		strings.HasPrefix(url, "https://") ||
		strings.HasPrefix(url, "//") ||
		strings.HasPrefix(url, "url(") ||
		strings.HasSuffix(url, ".css")
}

// buildConfiguration evaluates a `with (...)` clause's entries into a
// loader.Configuration (spec.md §4.3 "Configuration"). An empty clause
// (no @use/@forward `with`) still yields an implicit, non-explicit
// configuration so StructurallyEqual treats "never configured" the same
// across repeated loads of the same module.
func (e *Evaluator) buildConfiguration(entries []sassast.ConfigEntry) (*loader.Configuration, error) {
	config := loader.NewConfiguration(len(entries) > 0)
	for _, entry := range entries {
		v, err := e.evalExpr(entry.ValueExpr)
		if err != nil {
			return nil, err
		}
		config.Values[entry.Name] = &loader.ConfiguredValue{Value: v, DeclarationSpan: entry.ValueExpr.Span()}
	}
	return config, nil
}

// defaultNamespace derives the implicit @use namespace from a URL's
// basename with its extension and any leading `_` stripped (spec.md §4.3:
// "an omitted `as` clause uses the URL's basename").
func defaultNamespace(url string) string {
	base := url
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimPrefix(base, "_")
	for _, ext := range []string{".scss", ".sass", ".css"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// evalUse implements spec.md §4.3/§4.4's @use: load the module, then
// expose its exports either under a namespace or (with `as *`) spliced
// directly into the current global scope.
func (e *Evaluator) evalUse(s sassast.UseStatement) error {
	config, err := e.buildConfiguration(s.Configuration)
	if err != nil {
		return err
	}
	mod, err := e.loader.LoadModule(s.URL, s.Span(), config, e.baseImporter, e.baseURL, ast.ImportUse)
	if err != nil {
		return err
	}

	namespace := s.Namespace
	if namespace == "" {
		namespace = defaultNamespace(s.URL)
	}
	if namespace == "*" {
		e.env.ImportForwards(mod.Exports)
	} else {
		e.env.RegisterModule(namespace, mod.Exports)
	}

	if mod.Extensions != nil {
		e.ext.AddExtensions(mod.Extensions)
	}
	if mod.CSSTree != nil && !e.tree.IsEmpty(mod.CSSTree.Root()) {
		for _, child := range mod.CSSTree.Get(mod.CSSTree.Root()).Children {
			e.tree.Graft(e.tree.Root(), mod.CSSTree, child)
		}
	}
	return nil
}

// evalForward implements spec.md §4.2/§4.3's @forward: load the module,
// then re-export its members (filtered by show/hide, renamed by prefix)
// into the current module's own exports.
func (e *Evaluator) evalForward(s sassast.ForwardStatement) error {
	config, err := e.buildConfiguration(s.Configuration)
	if err != nil {
		return err
	}
	mod, err := e.loader.LoadModule(s.URL, s.Span(), config, e.baseImporter, e.baseURL, ast.ImportForward)
	if err != nil {
		return err
	}

	var show, hide map[string]bool
	if len(s.Show) > 0 {
		show = map[string]bool{}
		for _, n := range s.Show {
			show[n] = true
		}
	}
	if len(s.Hide) > 0 {
		hide = map[string]bool{}
		for _, n := range s.Hide {
			hide[n] = true
		}
	}
	e.env.ForwardModule(mod.Exports, s.Prefix, show, hide)

	if mod.Extensions != nil {
		e.ext.AddExtensions(mod.Extensions)
	}
	if mod.CSSTree != nil && !e.tree.IsEmpty(mod.CSSTree.Root()) {
		for _, child := range mod.CSSTree.Get(mod.CSSTree.Root()).Children {
			e.tree.Graft(e.tree.Root(), mod.CSSTree, child)
		}
	}
	return nil
}

// evalImport implements spec.md §4.4's legacy @import: unlike @use, the
// loaded stylesheet's top-level variables/functions/mixins merge directly
// into the importer's own global scope with no namespace (so later code
// in the importing file can reference them unqualified), and its
// generated CSS is spliced in at the import site rather than hoisted to
// the document root.
func (e *Evaluator) evalImport(s sassast.ImportStatement) error {
	if isPlainCSSImportURL(s.URL) {
		e.tree.Append(e.currentParent, cssast.Node{Kind: cssast.KindImport, URL: s.URL})
		e.plainCSSImports = append(e.plainCSSImports, ast.ImportRecord{URLText: s.URL, Range: s.Span(), Kind: ast.ImportPlainCSS})
		return nil
	}

	mod, err := e.loader.LoadModule(s.URL, s.Span(), nil, e.baseImporter, e.baseURL, ast.ImportDynamic)
	if err != nil {
		return err
	}
	e.env.ImportForwards(mod.Exports)

	if mod.Extensions != nil {
		e.ext.AddExtensions(mod.Extensions)
	}
	if mod.CSSTree != nil {
		for _, child := range mod.CSSTree.Get(mod.CSSTree.Root()).Children {
			e.tree.Graft(e.currentParent, mod.CSSTree, child)
		}
	}
	return nil
}
