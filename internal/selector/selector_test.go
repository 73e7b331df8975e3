package selector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassy-go/sasscore/internal/selector"
)

func complex(compounds ...selector.CompoundSelector) selector.ComplexSelector {
	comps := make([]selector.ComplexSelectorComponent, len(compounds))
	for i, c := range compounds {
		comps[i] = selector.ComplexSelectorComponent{Compound: c}
	}
	return selector.ComplexSelector{Components: comps}
}

func compound(selectors ...selector.SimpleSelector) selector.CompoundSelector {
	return selector.CompoundSelector{Selectors: selectors}
}

func TestResolveParentWithoutAmpersandPrepends(t *testing.T) {
	parent := complex(compound(selector.Class{Name: "card"}))
	child := complex(compound(selector.Class{Name: "title"}))

	resolved := selector.ResolveParent(child, []selector.ComplexSelector{parent})
	require.Len(t, resolved, 1)
	assert.Equal(t, ".card .title", resolved[0].String())
}

func TestResolveParentMergesAmpersandSuffix(t *testing.T) {
	parent := complex(compound(selector.Class{Name: "card"}))
	child := complex(compound(selector.Parent{}, selector.Class{Name: "active"}))

	resolved := selector.ResolveParent(child, []selector.ComplexSelector{parent})
	require.Len(t, resolved, 1)
	assert.Equal(t, ".card.active", resolved[0].String())
}

func TestCompoundSelectorString(t *testing.T) {
	c := compound(selector.Type{Name: "div"}, selector.Class{Name: "foo"}, selector.ID{Name: "bar"})
	assert.Equal(t, "div.foo#bar", c.String())
}

func TestUnifyCompoundsRejectsConflictingTypes(t *testing.T) {
	a := compound(selector.Type{Name: "div"})
	b := compound(selector.Type{Name: "span"})
	_, ok := selector.UnifyCompounds(a, b)
	assert.False(t, ok)
}

func TestUnifyCompoundsMergesDistinctSimpleSelectors(t *testing.T) {
	a := compound(selector.Class{Name: "foo"})
	b := compound(selector.Class{Name: "bar"})
	merged, ok := selector.UnifyCompounds(a, b)
	require.True(t, ok)
	assert.Equal(t, ".foo.bar", merged.String())
}

func TestWeaveConcatenatesPaths(t *testing.T) {
	source := complex(compound(selector.Class{Name: "a"}))
	target := complex(compound(selector.Class{Name: "b"}))
	woven := selector.Weave(source, target)
	require.Len(t, woven, 1)
	assert.Equal(t, ".a .b", woven[0].String())
}
