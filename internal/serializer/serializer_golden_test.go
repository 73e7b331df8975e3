package serializer_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sassy-go/sasscore/internal/serializer"
	"github.com/sassy-go/sasscore/internal/value"
)

type goldenCase struct {
	Name       string `yaml:"name"`
	Class      string `yaml:"class"`
	Property   string `yaml:"property"`
	Value      string `yaml:"value"`
	Expanded   string `yaml:"expanded"`
	Compressed string `yaml:"compressed"`
}

type goldenFixture struct {
	Cases []goldenCase `yaml:"cases"`
}

// TestGoldenDeclarations drives a one-rule, one-declaration CSS tree per
// fixture entry through Serialize in both output styles, the same
// fixture-file shape SPEC_FULL.md's yaml entry describes for the
// serializer suite: input in testdata/*.yaml, expected
// CSS alongside it, rather than hand-writing each case as Go source.
func TestGoldenDeclarations(t *testing.T) {
	raw, err := os.ReadFile("testdata/golden.yaml")
	require.NoError(t, err)

	var fixture goldenFixture
	require.NoError(t, yaml.Unmarshal(raw, &fixture))
	require.NotEmpty(t, fixture.Cases)

	for _, c := range fixture.Cases {
		c := c
		t.Run(c.Name, func(t *testing.T) {
			v := value.Str{Text: c.Value}
			tree := styleRuleWithDeclaration(c.Class, c.Property, v)

			expanded := serializer.Serialize(tree, serializer.Options{Style: serializer.Expanded}, nil)
			require.Equal(t, c.Expanded, expanded.CSS)

			compressed := serializer.Serialize(tree, serializer.Options{Style: serializer.Compressed}, nil)
			require.Equal(t, c.Compressed, compressed.CSS)
		})
	}
}
