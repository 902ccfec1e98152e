package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsukumogami/envy/internal/errmsg"
)

func TestAncestryExtendTracksChain(t *testing.T) {
	a := NewAncestry()
	b, err := a.Extend("local.a@v1")
	require.NoError(t, err)
	c, err := b.Extend("local.b@v1")
	require.NoError(t, err)

	assert.Equal(t, []string{"local.a@v1", "local.b@v1"}, c.Path())
	assert.True(t, c.Contains("local.a@v1"))
	assert.False(t, a.Contains("local.a@v1"), "original chain must not be mutated")
}

func TestAncestryExtendDetectsCycle(t *testing.T) {
	a := NewAncestry()
	b, err := a.Extend("local.a@v1")
	require.NoError(t, err)
	c, err := b.Extend("local.b@v1")
	require.NoError(t, err)

	_, err = c.Extend("local.a@v1")
	require.Error(t, err)

	var graphErr *errmsg.GraphError
	require.True(t, errors.As(err, &graphErr))
	assert.Equal(t, errmsg.GraphCycle, graphErr.Kind)
	assert.Equal(t, []string{"local.a@v1", "local.b@v1", "local.a@v1"}, graphErr.Path)
}

func TestAncestrySiblingsDoNotInterfere(t *testing.T) {
	root := NewAncestry()
	withA, err := root.Extend("local.a@v1")
	require.NoError(t, err)

	// Sibling branch extending from the same root must not see local.a@v1.
	withB, err := root.Extend("local.b@v1")
	require.NoError(t, err)

	assert.False(t, withB.Contains("local.a@v1"))
	assert.True(t, withA.Contains("local.a@v1"))
}
