package sassapi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassy-go/sasscore/internal/sassast"
	"github.com/sassy-go/sasscore/internal/value"
	"github.com/sassy-go/sasscore/pkg/sassapi"
)

func text(s string) sassast.Expression {
	return sassast.Interpolation{Parts: []interface{}{s}}
}

func unquoted(s string) sassast.Expression {
	return sassast.StringLiteral{Parts: []interface{}{s}}
}

func TestCompileProducesExpandedCSSByDefault(t *testing.T) {
	sheet := &sassast.Stylesheet{Children: []sassast.Statement{
		sassast.StyleRule{SelectorInterpolation: text(".box"), Children: []sassast.Statement{
			sassast.Declaration{NameInterpolation: text("display"), ValueExpr: unquoted("block")},
		}},
	}}
	result, err := sassapi.Compile(sheet, nil, sassapi.Options{})
	require.NoError(t, err)
	assert.Equal(t, ".box {\n  display: block;\n}\n", result.CSS)
	assert.Empty(t, result.Messages)
	assert.NotEmpty(t, result.CompilationID)
}

func TestCompileStampsSourceMapWithCompilationID(t *testing.T) {
	sheet := &sassast.Stylesheet{Children: []sassast.Statement{
		sassast.StyleRule{SelectorInterpolation: text(".box"), Children: []sassast.Statement{
			sassast.Declaration{NameInterpolation: text("display"), ValueExpr: unquoted("block")},
		}},
	}}
	result, err := sassapi.Compile(sheet, &sassapi.Source{CanonicalURL: "input.scss", PrettyURL: "input.scss"}, sassapi.Options{SourceMap: true})
	require.NoError(t, err)
	require.NotEmpty(t, result.SourceMap)
	assert.Contains(t, result.SourceMap, result.CompilationID)
}

func TestCompileCompressedStyleDropsWhitespace(t *testing.T) {
	sheet := &sassast.Stylesheet{Children: []sassast.Statement{
		sassast.StyleRule{SelectorInterpolation: text(".box"), Children: []sassast.Statement{
			sassast.Declaration{NameInterpolation: text("margin"), ValueExpr: sassast.NumberLiteral{Value: 0, Unit: "px"}},
		}},
	}}
	result, err := sassapi.Compile(sheet, nil, sassapi.Options{Style: sassapi.Compressed})
	require.NoError(t, err)
	assert.Equal(t, ".box{margin:0}", result.CSS)
}

func TestCompileWithHostFunctionEvaluatesDeclarationValue(t *testing.T) {
	sheet := &sassast.Stylesheet{Children: []sassast.Statement{
		sassast.StyleRule{SelectorInterpolation: text(".box"), Children: []sassast.Statement{
			sassast.Declaration{NameInterpolation: text("width"), ValueExpr: sassast.FunctionCall{Name: "double", Arguments: []sassast.FunctionCallArgument{{ValueExpr: sassast.NumberLiteral{Value: 2, Unit: "px"}}}}},
		}},
	}}
	opts := sassapi.Options{Functions: map[string]sassapi.Function{
		"double": func(args []value.Value, named map[string]value.Value) (value.Value, error) {
			n := args[0].(value.Number)
			doubled := n
			doubled.Value *= 2
			return doubled, nil
		},
	}}
	result, err := sassapi.Compile(sheet, nil, opts)
	require.NoError(t, err)
	assert.Equal(t, ".box {\n  width: 4px;\n}\n", result.CSS)
}

func TestCompileUndefinedVariableReturnsTranslatedError(t *testing.T) {
	sheet := &sassast.Stylesheet{Children: []sassast.Statement{
		sassast.StyleRule{SelectorInterpolation: text(".box"), Children: []sassast.Statement{
			sassast.Declaration{NameInterpolation: text("color"), ValueExpr: sassast.VariableRef{Name: "missing"}},
		}},
	}}
	_, err := sassapi.Compile(sheet, nil, sassapi.Options{})
	require.Error(t, err)
	compileErr, ok := err.(*sassapi.CompileError)
	require.True(t, ok)
	assert.Equal(t, sassapi.UndefinedReference, compileErr.Kind)
}

func TestSerializeValueQuotesStringWhenRequested(t *testing.T) {
	s := value.Str{Text: "hello", Quoted: true}
	assert.Equal(t, `"hello"`, sassapi.SerializeValue(s, false, false))

	bare := value.Str{Text: "hello", Quoted: false}
	assert.Equal(t, "hello", sassapi.SerializeValue(bare, false, false))
	assert.Equal(t, `"hello"`, sassapi.SerializeValue(bare, false, true))
}

func TestSerializeValueInspectRendersDebugForm(t *testing.T) {
	n := value.NewNumber(1.5, "em")
	assert.Equal(t, "1.5em", sassapi.SerializeValue(n, true, false))
}

func TestNewEvaluatorSupportsInteractiveUseAndEvaluate(t *testing.T) {
	ev := sassapi.NewEvaluator(sassapi.Options{}, nil)
	require.NoError(t, ev.SetVariable(sassast.VariableDeclaration{Name: "base", ValueExpr: sassast.NumberLiteral{Value: 10, Unit: "px"}}))

	v, err := ev.EvaluateExpression(sassast.VariableRef{Name: "base"})
	require.NoError(t, err)
	n, ok := v.(value.Number)
	require.True(t, ok)
	assert.Equal(t, 10.0, n.Value)

	require.NoError(t, ev.UseRule(sassast.StyleRule{SelectorInterpolation: text(".x"), Children: []sassast.Statement{
		sassast.Declaration{NameInterpolation: text("left"), ValueExpr: sassast.VariableRef{Name: "base"}},
	}}))
	css, _ := sassapi.Serialize(ev.Tree(), sassapi.Options{}, nil)
	assert.Equal(t, ".x {\n  left: 10px;\n}\n", css)
}
