package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassy-go/sasscore/internal/ast"
	"github.com/sassy-go/sasscore/internal/cssast"
	"github.com/sassy-go/sasscore/internal/eval"
	"github.com/sassy-go/sasscore/internal/loader"
	"github.com/sassy-go/sasscore/internal/logger"
	"github.com/sassy-go/sasscore/internal/sassast"
	"github.com/sassy-go/sasscore/internal/value"
)

func text(s string) sassast.Expression {
	return sassast.Interpolation{Parts: []interface{}{s}}
}

func unquoted(s string) sassast.Expression {
	return sassast.StringLiteral{Parts: []interface{}{s}}
}

func newEvaluator() *eval.Evaluator {
	return eval.New(eval.Options{Logger: logger.Log{}}, nil)
}

func TestStyleRuleNestingBubblesIntoParentContainer(t *testing.T) {
	e := newEvaluator()
	inner := sassast.StyleRule{SelectorInterpolation: text(".inner"), Children: []sassast.Statement{
		sassast.Declaration{NameInterpolation: text("color"), ValueExpr: unquoted("red")},
	}}
	outer := sassast.StyleRule{SelectorInterpolation: text(".outer"), Children: []sassast.Statement{
		sassast.Declaration{NameInterpolation: text("display"), ValueExpr: unquoted("block")},
		inner,
	}}
	require.NoError(t, e.UseRule(outer))

	root := e.Tree().Root()
	require.Len(t, e.Tree().Get(root).Children, 2)
	outerID := e.Tree().Get(root).Children[0]
	outerNode := e.Tree().Get(outerID)
	assert.Equal(t, cssast.KindStyleRule, outerNode.Kind)
	require.Len(t, outerNode.Children, 1)

	declNode := e.Tree().Get(outerNode.Children[0])
	assert.Equal(t, "display", declNode.PropertyName)
	assert.Equal(t, "block", declNode.PropertyText)

	innerID := e.Tree().Get(root).Children[1]
	innerNode := e.Tree().Get(innerID)
	assert.Equal(t, cssast.KindStyleRule, innerNode.Kind)
}

func TestEmptyStyleRuleIsPruned(t *testing.T) {
	e := newEvaluator()
	rule := sassast.StyleRule{SelectorInterpolation: text(".empty")}
	require.NoError(t, e.UseRule(rule))
	assert.True(t, e.Tree().IsEmpty(e.Tree().Root()))
}

func TestEachBindsLoopVariableAcrossIterations(t *testing.T) {
	e := newEvaluator()
	list := sassast.ListLiteral{
		Items:     []sassast.Expression{sassast.NumberLiteral{Value: 1}, sassast.NumberLiteral{Value: 2}, sassast.NumberLiteral{Value: 3}},
		Separator: "comma",
	}
	rule := sassast.StyleRule{SelectorInterpolation: text(".each"), Children: []sassast.Statement{
		sassast.EachStatement{Variables: []string{"i"}, ListExpr: list, Children: []sassast.Statement{
			sassast.Declaration{NameInterpolation: text("order"), ValueExpr: sassast.VariableRef{Name: "i"}},
		}},
	}}
	require.NoError(t, e.UseRule(rule))

	ruleID := e.Tree().Get(e.Tree().Root()).Children[0]
	ruleNode := e.Tree().Get(ruleID)
	require.Len(t, ruleNode.Children, 3)
	assert.Equal(t, "1", e.Tree().Get(ruleNode.Children[0]).PropertyText)
	assert.Equal(t, "2", e.Tree().Get(ruleNode.Children[1]).PropertyText)
	assert.Equal(t, "3", e.Tree().Get(ruleNode.Children[2]).PropertyText)
}

func TestMixinIncludeInvokesContentInCallersEnvironment(t *testing.T) {
	e := newEvaluator()
	require.NoError(t, e.UseRule(sassast.MixinDecl{
		Name: "responsive",
		Children: []sassast.Statement{
			sassast.ContentStatement{},
		},
	}))

	rule := sassast.StyleRule{SelectorInterpolation: text(".responsive"), Children: []sassast.Statement{
		sassast.IncludeStatement{Name: "responsive", ContentBlock: []sassast.Statement{
			sassast.Declaration{NameInterpolation: text("color"), ValueExpr: unquoted("blue")},
		}},
	}}
	require.NoError(t, e.UseRule(rule))

	ruleID := e.Tree().Get(e.Tree().Root()).Children[0]
	ruleNode := e.Tree().Get(ruleID)
	require.Len(t, ruleNode.Children, 1)
	assert.Equal(t, "color", e.Tree().Get(ruleNode.Children[0]).PropertyName)
	assert.Equal(t, "blue", e.Tree().Get(ruleNode.Children[0]).PropertyText)
}

func TestFunctionCallReturnsUserFunctionResult(t *testing.T) {
	e := newEvaluator()
	require.NoError(t, e.UseRule(sassast.FunctionDecl{
		Name:      "double",
		Arguments: []sassast.Argument{{Name: "n"}},
		Children: []sassast.Statement{
			sassast.ReturnStatement{ValueExpr: sassast.BinaryOp{Op: "*", Left: sassast.VariableRef{Name: "n"}, Right: sassast.NumberLiteral{Value: 2}}},
		},
	}))

	v, err := e.EvaluateExpression(sassast.FunctionCall{
		Name:      "double",
		Arguments: []sassast.FunctionCallArgument{{ValueExpr: sassast.NumberLiteral{Value: 21}}},
	})
	require.NoError(t, err)
	n, ok := v.(value.Number)
	require.True(t, ok)
	assert.Equal(t, 42.0, n.Value)
}

// memoryImporter is a minimal loader.Importer test double, mirroring the
// one in internal/loader/loader_test.go (kept separate: that one lives in
// package loader_test and isn't importable here).
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

func TestUseRegistersNamespacedVariable(t *testing.T) {
	libSheet := &sassast.Stylesheet{Children: []sassast.Statement{
		sassast.VariableDeclaration{Name: "brand-color", ValueExpr: unquoted("teal"), Global: true},
	}}
	importer := &memoryImporter{sheets: map[string]*sassast.Stylesheet{"colors": libSheet}}

	exec := func(sheet *sassast.Stylesheet, cfg *loader.Configuration) (*loader.Module, error) {
		sub := eval.New(eval.Options{Logger: logger.Log{}}, nil)
		if err := sub.Run(sheet); err != nil {
			return nil, err
		}
		return &loader.Module{Exports: sub.ExportedModule(), CSSTree: sub.Tree()}, nil
	}
	l := loader.New(importer, nil, nil, exec)

	e := eval.New(eval.Options{Logger: logger.Log{}, Loader: l}, nil)
	require.NoError(t, e.UseRule(sassast.UseStatement{URL: "colors", Namespace: "colors"}))

	v, err := e.EvaluateExpression(sassast.VariableRef{Name: "brand-color", Namespace: "colors"})
	require.NoError(t, err)
	s, ok := v.(value.Str)
	require.True(t, ok)
	assert.Equal(t, "teal", s.Text)
}

func TestIncludeRejectsContentBlockWhenMixinNeverUsesContent(t *testing.T) {
	e := newEvaluator()
	require.NoError(t, e.UseRule(sassast.MixinDecl{
		Name: "plain",
		Children: []sassast.Statement{
			sassast.Declaration{NameInterpolation: text("color"), ValueExpr: unquoted("red")},
		},
	}))

	err := e.UseRule(sassast.IncludeStatement{Name: "plain", ContentBlock: []sassast.Statement{
		sassast.Declaration{NameInterpolation: text("display"), ValueExpr: unquoted("block")},
	}})
	assert.Error(t, err)
}

func TestIncludeAcceptsContentBlockWhenContentIsNestedInControlFlow(t *testing.T) {
	e := newEvaluator()
	require.NoError(t, e.UseRule(sassast.MixinDecl{
		Name: "conditional",
		Children: []sassast.Statement{
			sassast.IfStatement{Clauses: []sassast.IfClause{
				{ConditionExpr: sassast.BoolLiteral{Value: true}, Children: []sassast.Statement{
					sassast.ContentStatement{},
				}},
			}},
		},
	}))

	rule := sassast.StyleRule{SelectorInterpolation: text(".wrap"), Children: []sassast.Statement{
		sassast.IncludeStatement{Name: "conditional", ContentBlock: []sassast.Statement{
			sassast.Declaration{NameInterpolation: text("color"), ValueExpr: unquoted("blue")},
		}},
	}}
	require.NoError(t, e.UseRule(rule))

	ruleID := e.Tree().Get(e.Tree().Root()).Children[0]
	ruleNode := e.Tree().Get(ruleID)
	require.Len(t, ruleNode.Children, 1)
	assert.Equal(t, "blue", e.Tree().Get(ruleNode.Children[0]).PropertyText)
}

func TestDeclarationPreservesSlashNotationForBareDivision(t *testing.T) {
	e := newEvaluator()
	rule := sassast.StyleRule{SelectorInterpolation: text(".ratio"), Children: []sassast.Statement{
		sassast.Declaration{NameInterpolation: text("aspect-ratio"), ValueExpr: sassast.BinaryOp{
			Op: "/", Left: sassast.NumberLiteral{Value: 16}, Right: sassast.NumberLiteral{Value: 9},
		}},
	}}
	require.NoError(t, e.UseRule(rule))

	ruleID := e.Tree().Get(e.Tree().Root()).Children[0]
	declNode := e.Tree().Get(e.Tree().Get(ruleID).Children[0])
	assert.Equal(t, "16/9", declNode.PropertyText)
}

func TestDeclarationClearsSlashNotationAfterFurtherArithmetic(t *testing.T) {
	e := newEvaluator()
	division := sassast.BinaryOp{Op: "/", Left: sassast.NumberLiteral{Value: 16}, Right: sassast.NumberLiteral{Value: 9}}
	rule := sassast.StyleRule{SelectorInterpolation: text(".ratio"), Children: []sassast.Statement{
		sassast.Declaration{NameInterpolation: text("order"), ValueExpr: sassast.BinaryOp{
			Op: "+", Left: division, Right: sassast.NumberLiteral{Value: 0},
		}},
	}}
	require.NoError(t, e.UseRule(rule))

	ruleID := e.Tree().Get(e.Tree().Root()).Children[0]
	declNode := e.Tree().Get(e.Tree().Get(ruleID).Children[0])
	assert.Equal(t, "1.7777777778", declNode.PropertyText)
}

func TestLateCSSImportIsSplicedBackToHeadBoundary(t *testing.T) {
	e := newEvaluator()
	sheet := &sassast.Stylesheet{Children: []sassast.Statement{
		sassast.ImportStatement{URL: "reset.css"},
		sassast.StyleRule{SelectorInterpolation: text(".a"), Children: []sassast.Statement{
			sassast.Declaration{NameInterpolation: text("color"), ValueExpr: unquoted("red")},
		}},
		sassast.ImportStatement{URL: "theme.css"},
	}}
	require.NoError(t, e.Run(sheet))

	root := e.Tree().Get(e.Tree().Root())
	require.Len(t, root.Children, 3)
	assert.Equal(t, cssast.KindImport, e.Tree().Get(root.Children[0]).Kind)
	assert.Equal(t, "reset.css", e.Tree().Get(root.Children[0]).URL)
	assert.Equal(t, cssast.KindImport, e.Tree().Get(root.Children[1]).Kind)
	assert.Equal(t, "theme.css", e.Tree().Get(root.Children[1]).URL)
	assert.Equal(t, cssast.KindStyleRule, e.Tree().Get(root.Children[2]).Kind)
}

func TestLeadingCSSImportsStayContiguousAtHead(t *testing.T) {
	e := newEvaluator()
	sheet := &sassast.Stylesheet{Children: []sassast.Statement{
		sassast.ImportStatement{URL: "a.css"},
		sassast.ImportStatement{URL: "b.css"},
		sassast.StyleRule{SelectorInterpolation: text(".a")},
	}}
	require.NoError(t, e.Run(sheet))

	root := e.Tree().Get(e.Tree().Root())
	require.Len(t, root.Children, 2)
	assert.Equal(t, "a.css", e.Tree().Get(root.Children[0]).URL)
	assert.Equal(t, "b.css", e.Tree().Get(root.Children[1]).URL)
}

func TestPlainCSSImportPassesThroughAndIsRecorded(t *testing.T) {
	e := newEvaluator()
	require.NoError(t, e.UseRule(sassast.ImportStatement{URL: "https://fonts.example.com/a.css"}))

	root := e.Tree().Root()
	require.Len(t, e.Tree().Get(root).Children, 1)
	importNode := e.Tree().Get(e.Tree().Get(root).Children[0])
	assert.Equal(t, cssast.KindImport, importNode.Kind)
	assert.Equal(t, "https://fonts.example.com/a.css", importNode.URL)

	records := e.PlainCSSImports()
	require.Len(t, records, 1)
	assert.Equal(t, ast.ImportPlainCSS, records[0].Kind)
	assert.Equal(t, "https://fonts.example.com/a.css", records[0].URLText)
}
