package loader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sassy-go/sasscore/internal/sassast"
)

// FilesystemImporter is a reference Importer implementation resolving
// relative and load-path URLs against the filesystem, using Sass's
// partial-file convention: `name` resolves to `_name.scss`/`name.scss`
// before falling back to `name/_index.scss`/`name/index.scss`.
//
// Grounded on esbuild's resolver.loadAsFile/loadAsIndex
// (_examples/evanw-esbuild/internal/resolver/resolver.go): the same
// ordered-extension-then-directory-index algorithm, retargeted from
// node_modules/tsconfig resolution (irrelevant here — Sass has no
// package.json main-field or node_modules convention) to Sass's
// partial-prefix convention. ParseStylesheet is injected so this
// importer never owns parsing, matching spec.md §6's separate Parser
// collaborator.
type FilesystemImporter struct {
	LoadPaths      []string
	ParseStylesheet func(text, url string) (*sassast.Stylesheet, error)
}

var extensionOrder = []string{".scss", ".sass", ".css"}

func (fi *FilesystemImporter) Canonicalize(url string, baseImporter Importer, baseURL string, forImport bool) (Importer, string, string, bool) {
	if strings.HasPrefix(url, "sass:") {
		return nil, "", "", false
	}
	candidates := fi.searchRoots(url, baseURL)
	for _, dir := range candidates {
		if resolved, ok := fi.loadAsFile(dir, url); ok {
			return fi, resolved, url, true
		}
		if resolved, ok := fi.loadAsIndex(filepath.Join(dir, url)); ok {
			return fi, resolved, url, true
		}
	}
	return nil, "", "", false
}

func (fi *FilesystemImporter) searchRoots(url, baseURL string) []string {
	var roots []string
	if baseURL != "" {
		roots = append(roots, filepath.Dir(baseURL))
	}
	roots = append(roots, fi.LoadPaths...)
	return roots
}

// loadAsFile tries, in order, every partial/extension combination
// (`_name.ext` then `name.ext` for each extension) and then the bare path, the way
// esbuild's loadAsFile walks an extension order list before giving up.
func (fi *FilesystemImporter) loadAsFile(dir, url string) (string, bool) {
	base := filepath.Join(dir, url)
	dirPart, filePart := filepath.Split(base)

	var candidates []string
	for _, ext := range extensionOrder {
		candidates = append(candidates, filepath.Join(dirPart, "_"+filePart+ext))
		candidates = append(candidates, filepath.Join(dirPart, filePart+ext))
	}
	// An already-extensioned URL (e.g. `foo.css`) is tried as-is too.
	candidates = append(candidates, base)

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}

// loadAsIndex tries `_index.ext`/`index.ext` inside dir, mirroring
// esbuild's loadAsIndex directory-index fallback.
func (fi *FilesystemImporter) loadAsIndex(dir string) (string, bool) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	for _, ext := range extensionOrder {
		for _, name := range []string{"_index" + ext, "index" + ext} {
			candidate := filepath.Join(dir, name)
			if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
				return candidate, true
			}
		}
	}
	return "", false
}

func (fi *FilesystemImporter) ImportCanonical(importer Importer, canonicalURL string) (*sassast.Stylesheet, bool) {
	contents, err := os.ReadFile(canonicalURL)
	if err != nil {
		return nil, false
	}
	if fi.ParseStylesheet == nil {
		return nil, false
	}
	sheet, err := fi.ParseStylesheet(string(contents), canonicalURL)
	if err != nil {
		return nil, false
	}
	return sheet, true
}

func (fi *FilesystemImporter) Humanize(canonicalURL string) string {
	return canonicalURL
}
