package serializer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassy-go/sasscore/internal/cssast"
	"github.com/sassy-go/sasscore/internal/selector"
	"github.com/sassy-go/sasscore/internal/serializer"
	"github.com/sassy-go/sasscore/internal/value"
)

func styleRuleWithDeclaration(class, prop string, v value.Value) *cssast.Tree {
	tree := cssast.NewTree()
	ruleID := tree.Append(tree.Root(), cssast.Node{
		Kind: cssast.KindStyleRule,
		SelectorList: selector.SelectorList{Complexes: []selector.ComplexSelector{{
			Components: []selector.ComplexSelectorComponent{{Compound: selector.CompoundSelector{
				Selectors: []selector.SimpleSelector{selector.Class{Name: class}},
			}}},
		}}},
	})
	tree.Append(ruleID, cssast.Node{
		Kind:          cssast.KindDeclaration,
		PropertyName:  prop,
		PropertyText:  value.ToCssString(v, false),
		PropertyValue: v,
	})
	return tree
}

func TestExpandedStyleRuleIndentsOneDeclarationPerLine(t *testing.T) {
	tree := styleRuleWithDeclaration("foo", "color", value.Str{Text: "red"})
	result := serializer.Serialize(tree, serializer.Options{Style: serializer.Expanded}, nil)
	assert.Equal(t, ".foo {\n  color: red;\n}\n", result.CSS)
}

func TestCompressedStyleRuleHasNoWhitespace(t *testing.T) {
	tree := styleRuleWithDeclaration("foo", "color", value.Str{Text: "red"})
	result := serializer.Serialize(tree, serializer.Options{Style: serializer.Compressed}, nil)
	assert.Equal(t, ".foo{color:red}", result.CSS)
}

func TestCompressedZeroValueUnitIsDropped(t *testing.T) {
	n := value.NewNumber(0, "px")
	tree := styleRuleWithDeclaration("foo", "margin", n)
	result := serializer.Serialize(tree, serializer.Options{Style: serializer.Compressed}, nil)
	assert.Equal(t, ".foo{margin:0}", result.CSS)
}

func TestExpandedNumberKeepsUnit(t *testing.T) {
	n := value.NewNumber(0, "px")
	tree := styleRuleWithDeclaration("foo", "margin", n)
	result := serializer.Serialize(tree, serializer.Options{Style: serializer.Expanded}, nil)
	assert.Equal(t, ".foo {\n  margin: 0px;\n}\n", result.CSS)
}

func TestCompressedNumberDropsLeadingZero(t *testing.T) {
	n := value.NewNumber(0.5, "em")
	tree := styleRuleWithDeclaration("foo", "width", n)
	result := serializer.Serialize(tree, serializer.Options{Style: serializer.Compressed}, nil)
	assert.Equal(t, ".foo{width:.5em}", result.CSS)
}

func TestShortestColorPrefersNamedOverHex(t *testing.T) {
	c := value.Color{R: 255, G: 0, B: 0, A: 1}
	tree := styleRuleWithDeclaration("foo", "color", c)
	result := serializer.Serialize(tree, serializer.Options{Style: serializer.Compressed}, nil)
	assert.Equal(t, ".foo{color:red}", result.CSS)
}

func TestShortestColorUsesHex3WhenShorterThanHex6(t *testing.T) {
	c := value.Color{R: 0x11, G: 0x22, B: 0x33, A: 1}
	tree := styleRuleWithDeclaration("foo", "color", c)
	result := serializer.Serialize(tree, serializer.Options{Style: serializer.Compressed}, nil)
	assert.Equal(t, ".foo{color:#123}", result.CSS)
}

func TestCalculatedTransparentColorForcesRgba(t *testing.T) {
	c := value.Color{R: 1, G: 2, B: 3, A: 0}
	tree := styleRuleWithDeclaration("foo", "color", c)
	result := serializer.Serialize(tree, serializer.Options{Style: serializer.Compressed}, nil)
	assert.Equal(t, ".foo{color:rgba(1, 2, 3, 0)}", result.CSS)
}

func TestEmptyCompoundSelectorEmitsUniversal(t *testing.T) {
	tree := cssast.NewTree()
	tree.Append(tree.Root(), cssast.Node{
		Kind: cssast.KindStyleRule,
		SelectorList: selector.SelectorList{Complexes: []selector.ComplexSelector{{
			Components: []selector.ComplexSelectorComponent{{Compound: selector.CompoundSelector{}}},
		}}},
	})
	result := serializer.Serialize(tree, serializer.Options{Style: serializer.Compressed}, nil)
	assert.Equal(t, "*{}", result.CSS)
}

func TestNotInvisiblePseudoCollapsesSelectorToNothing(t *testing.T) {
	tree := cssast.NewTree()
	tree.Append(tree.Root(), cssast.Node{
		Kind: cssast.KindStyleRule,
		SelectorList: selector.SelectorList{Complexes: []selector.ComplexSelector{
			{Components: []selector.ComplexSelectorComponent{{Compound: selector.CompoundSelector{
				Selectors: []selector.SimpleSelector{selector.Pseudo{Name: "not", Arguments: "%invisible"}},
			}}}},
			{Components: []selector.ComplexSelectorComponent{{Compound: selector.CompoundSelector{
				Selectors: []selector.SimpleSelector{selector.Class{Name: "visible"}},
			}}}},
		}},
	})
	result := serializer.Serialize(tree, serializer.Options{Style: serializer.Compressed}, nil)
	assert.Equal(t, ".visible{}", result.CSS)
}

func TestChildlessAtRuleEndsWithSemicolon(t *testing.T) {
	tree := cssast.NewTree()
	tree.Append(tree.Root(), cssast.Node{Kind: cssast.KindAtRule, AtRuleName: "charset", Prelude: "\"UTF-8\"", Childless: true})
	result := serializer.Serialize(tree, serializer.Options{Style: serializer.Expanded}, nil)
	assert.Equal(t, "@charset \"UTF-8\";\n", result.CSS)
}

func TestBlockFormAtRuleWithNoChildrenStillPrintsBraces(t *testing.T) {
	tree := cssast.NewTree()
	tree.Append(tree.Root(), cssast.Node{Kind: cssast.KindAtRule, AtRuleName: "font-face"})
	result := serializer.Serialize(tree, serializer.Options{Style: serializer.Compressed}, nil)
	assert.Equal(t, "@font-face{}", result.CSS)
}

func TestKeyframeBlockPrintsCommaSeparatedStops(t *testing.T) {
	tree := cssast.NewTree()
	atID := tree.Append(tree.Root(), cssast.Node{Kind: cssast.KindAtRule, AtRuleName: "keyframes", Prelude: "spin"})
	blockID := tree.Append(atID, cssast.Node{Kind: cssast.KindKeyframeBlock, Selectors: []string{"0%", "100%"}})
	tree.Append(blockID, cssast.Node{Kind: cssast.KindDeclaration, PropertyName: "opacity", PropertyText: "1", PropertyValue: value.NewNumber(1)})

	result := serializer.Serialize(tree, serializer.Options{Style: serializer.Compressed}, nil)
	assert.Equal(t, "@keyframes spin{0%,100%{opacity:1}}", result.CSS)
}

func TestCustomPropertyReindentsMultilineValueInExpandedStyle(t *testing.T) {
	tree := cssast.NewTree()
	ruleID := tree.Append(tree.Root(), cssast.Node{
		Kind: cssast.KindStyleRule,
		SelectorList: selector.SelectorList{Complexes: []selector.ComplexSelector{{
			Components: []selector.ComplexSelectorComponent{{Compound: selector.CompoundSelector{
				Selectors: []selector.SimpleSelector{selector.Class{Name: "root"}},
			}}},
		}}},
	})
	tree.Append(ruleID, cssast.Node{
		Kind:         cssast.KindDeclaration,
		PropertyName: "--grid",
		PropertyText: "1fr\n    2fr\n    3fr",
		CustomProp:   true,
	})

	result := serializer.Serialize(tree, serializer.Options{Style: serializer.Expanded}, nil)
	assert.Equal(t, ".root {\n  --grid: 1fr\n  2fr\n  3fr;\n}\n", result.CSS)
}

func TestCustomPropertyCompressesMultilineValueToOneLine(t *testing.T) {
	tree := cssast.NewTree()
	ruleID := tree.Append(tree.Root(), cssast.Node{
		Kind: cssast.KindStyleRule,
		SelectorList: selector.SelectorList{Complexes: []selector.ComplexSelector{{
			Components: []selector.ComplexSelectorComponent{{Compound: selector.CompoundSelector{
				Selectors: []selector.SimpleSelector{selector.Class{Name: "root"}},
			}}},
		}}},
	})
	tree.Append(ruleID, cssast.Node{
		Kind:         cssast.KindDeclaration,
		PropertyName: "--grid",
		PropertyText: "1fr\n    2fr",
		CustomProp:   true,
	})

	result := serializer.Serialize(tree, serializer.Options{Style: serializer.Compressed}, nil)
	assert.Equal(t, ".root{--grid:1fr     2fr}", result.CSS)
}

func TestUTF8PrefixAddedWhenOutputHasNonASCIIByte(t *testing.T) {
	tree := styleRuleWithDeclaration("foo", "content", value.Str{Text: "é", Quoted: true})
	result := serializer.Serialize(tree, serializer.Options{Style: serializer.Expanded}, nil)
	require.Contains(t, result.CSS, "@charset \"UTF-8\";\n")
}

func TestImportURLIsQuotedWithFewerEscapes(t *testing.T) {
	tree := cssast.NewTree()
	tree.Append(tree.Root(), cssast.Node{Kind: cssast.KindImport, URL: `it's a "test"`})
	result := serializer.Serialize(tree, serializer.Options{Style: serializer.Expanded}, nil)
	assert.Equal(t, "@import 'it\\'s a \"test\"';\n", result.CSS)
}

func TestCRLFLineFeedOption(t *testing.T) {
	tree := styleRuleWithDeclaration("foo", "color", value.Str{Text: "red"})
	result := serializer.Serialize(tree, serializer.Options{Style: serializer.Expanded, LineFeed: serializer.CRLF}, nil)
	assert.Equal(t, ".foo {\r\n  color: red;\r\n}\r\n", result.CSS)
}
