package loader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassy-go/sasscore/internal/ast"
	"github.com/sassy-go/sasscore/internal/env"
	"github.com/sassy-go/sasscore/internal/loader"
	"github.com/sassy-go/sasscore/internal/logger"
	"github.com/sassy-go/sasscore/internal/sassast"
)

// memoryImporter is a test double for loader.Importer backed by an
// in-memory URL -> stylesheet map.
type memoryImporter struct {
	sheets map[string]*sassast.Stylesheet
}

func (m *memoryImporter) Canonicalize(url string, base loader.Importer, baseURL string, forImport bool) (loader.Importer, string, string, bool) {
	if _, ok := m.sheets[url]; !ok {
		return nil, "", "", false
	}
	return m, url, url, true
}

func (m *memoryImporter) ImportCanonical(importer loader.Importer, canonicalURL string) (*sassast.Stylesheet, bool) {
	s, ok := m.sheets[canonicalURL]
	return s, ok
}

func (m *memoryImporter) Humanize(canonicalURL string) string { return canonicalURL }

func TestLoadModuleCachesCompletedModules(t *testing.T) {
	sheet := &sassast.Stylesheet{URL: "a.scss"}
	importer := &memoryImporter{sheets: map[string]*sassast.Stylesheet{"a": sheet}}
	calls := 0
	exec := func(s *sassast.Stylesheet, cfg *loader.Configuration) (*loader.Module, error) {
		calls++
		return &loader.Module{Exports: env.NewModule()}, nil
	}
	l := loader.New(importer, nil, nil, exec)

	m1, err := l.LoadModule("a", logger.Range{}, nil, nil, "", ast.ImportUse)
	require.NoError(t, err)
	m2, err := l.LoadModule("a", logger.Range{}, nil, nil, "", ast.ImportUse)
	require.NoError(t, err)

	assert.Same(t, m1, m2)
	assert.Equal(t, 1, calls)
}

func TestLoadModuleDetectsCycle(t *testing.T) {
	sheet := &sassast.Stylesheet{URL: "a.scss"}
	importer := &memoryImporter{sheets: map[string]*sassast.Stylesheet{"a": sheet}}
	var l *loader.Loader
	exec := func(s *sassast.Stylesheet, cfg *loader.Configuration) (*loader.Module, error) {
		_, err := l.LoadModule("a", logger.Range{}, nil, nil, "", ast.ImportUse)
		return nil, err
	}
	l = loader.New(importer, nil, nil, exec)

	_, err := l.LoadModule("a", logger.Range{}, nil, nil, "", ast.ImportUse)
	require.Error(t, err)
}

func TestLoadModuleRejectsBuiltinConfiguration(t *testing.T) {
	importer := &memoryImporter{sheets: map[string]*sassast.Stylesheet{}}
	builtins := loader.BuiltinRegistry{"sass:math": env.NewModule()}
	l := loader.New(importer, nil, builtins, nil)

	cfg := loader.NewConfiguration(true)
	cfg.Values["x"] = &loader.ConfiguredValue{}
	_, err := l.LoadModule("sass:math", logger.Range{}, cfg, nil, "", ast.ImportUse)
	assert.Error(t, err)
}

func TestLoadModuleRecordsImportKindAndResolvedModuleIndex(t *testing.T) {
	sheet := &sassast.Stylesheet{URL: "a.scss"}
	importer := &memoryImporter{sheets: map[string]*sassast.Stylesheet{"a": sheet}}
	exec := func(s *sassast.Stylesheet, cfg *loader.Configuration) (*loader.Module, error) {
		return &loader.Module{Exports: env.NewModule()}, nil
	}
	l := loader.New(importer, nil, nil, exec)

	_, err := l.LoadModule("a", logger.Range{}, nil, nil, "", ast.ImportUse)
	require.NoError(t, err)
	_, err = l.LoadModule("a", logger.Range{}, nil, nil, "", ast.ImportForward)
	require.NoError(t, err)

	records := l.ImportRecords()
	require.Len(t, records, 2)
	assert.Equal(t, ast.ImportUse, records[0].Kind)
	assert.Equal(t, ast.ImportForward, records[1].Kind)
	assert.True(t, records[0].ResolvedModule.IsValid())
	assert.Equal(t, records[0].ResolvedModule.GetIndex(), records[1].ResolvedModule.GetIndex())
}

func TestLoadModuleFailsOnUnusedConfiguration(t *testing.T) {
	sheet := &sassast.Stylesheet{URL: "a.scss"}
	importer := &memoryImporter{sheets: map[string]*sassast.Stylesheet{"a": sheet}}
	exec := func(s *sassast.Stylesheet, cfg *loader.Configuration) (*loader.Module, error) {
		return &loader.Module{Exports: env.NewModule()}, nil
	}
	l := loader.New(importer, nil, nil, exec)

	cfg := loader.NewConfiguration(true)
	cfg.Values["unused"] = &loader.ConfiguredValue{}
	_, err := l.LoadModule("a", logger.Range{}, cfg, nil, "", ast.ImportUse)
	assert.Error(t, err)
}
