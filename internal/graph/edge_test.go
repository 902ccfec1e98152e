package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsukumogami/envy/internal/phase"
)

func TestNewEdgeDefaultsNeededByToCheck(t *testing.T) {
	e := NewEdge(Strong, "local.lib@v1")
	assert.Equal(t, phase.Check, e.NeededBy)
}

func TestEdgeKindString(t *testing.T) {
	assert.Equal(t, "strong", Strong.String())
	assert.Equal(t, "weak", WeakWithFallback.String())
	assert.Equal(t, "reference", ReferenceOnly.String())
	assert.Equal(t, "product", Product.String())
}
