package cssast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassy-go/sasscore/internal/cssast"
)

func TestNewTreeRootIsStylesheet(t *testing.T) {
	tree := cssast.NewTree()
	root := tree.Get(tree.Root())
	assert.Equal(t, cssast.KindStylesheet, root.Kind)
	assert.Equal(t, cssast.InvalidNode, root.Parent)
}

func TestAppendWiresParentAndChild(t *testing.T) {
	tree := cssast.NewTree()
	rule := tree.Append(tree.Root(), cssast.Node{Kind: cssast.KindStyleRule})
	decl := tree.Append(rule, cssast.Node{Kind: cssast.KindDeclaration, PropertyName: "color"})

	assert.Equal(t, []cssast.NodeID{rule}, tree.Get(tree.Root()).Children)
	assert.Equal(t, []cssast.NodeID{decl}, tree.Get(rule).Children)
	assert.Equal(t, rule, tree.Get(decl).Parent)
}

func TestEnclosingMediaConditionsOutermostFirst(t *testing.T) {
	tree := cssast.NewTree()
	outer := tree.Append(tree.Root(), cssast.Node{Kind: cssast.KindMediaRule, Condition: "screen"})
	inner := tree.Append(outer, cssast.Node{Kind: cssast.KindMediaRule, Condition: "(min-width: 400px)"})
	rule := tree.Append(inner, cssast.Node{Kind: cssast.KindStyleRule})

	conditions := tree.EnclosingMediaConditions(rule)
	require.Len(t, conditions, 2)
	assert.Equal(t, []string{"screen", "(min-width: 400px)"}, conditions)
}

func TestRemoveChildDetaches(t *testing.T) {
	tree := cssast.NewTree()
	rule := tree.Append(tree.Root(), cssast.Node{Kind: cssast.KindStyleRule})
	tree.RemoveChild(tree.Root(), rule)
	assert.True(t, tree.IsEmpty(tree.Root()))
}
