package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessorWalksPipelineInOrder(t *testing.T) {
	want := []Phase{RecipeFetch, Check, Fetch, Stage, Build, Install, Deploy, Completion}
	cur := None
	for _, w := range want {
		next, ok := Successor(cur)
		require.True(t, ok)
		assert.Equal(t, w, next)
		cur = next
	}

	_, ok := Successor(Completion)
	assert.False(t, ok)
}

func TestParseRoundTrip(t *testing.T) {
	for p, name := range names {
		got, ok := Parse(name)
		require.True(t, ok)
		assert.Equal(t, p, got)
		assert.Equal(t, name, p.String())
	}
}

func TestParseUnknown(t *testing.T) {
	_, ok := Parse("nonexistent")
	assert.False(t, ok)
}

func TestAtLeastAndLess(t *testing.T) {
	assert.True(t, Less(Fetch, Build))
	assert.False(t, Less(Build, Fetch))
	assert.True(t, AtLeast(Build, Fetch))
	assert.False(t, AtLeast(Fetch, Build))
	assert.True(t, AtLeast(Fetch, Fetch))
}

func TestValid(t *testing.T) {
	assert.True(t, Completion.Valid())
	assert.False(t, Phase(99).Valid())
}
