package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeed(t *testing.T) {
	a, err := NewSeed()
	require.NoError(t, err)
	b, err := NewSeed()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestShuffleIsDeterministic(t *testing.T) {
	first := []string{"a", "b", "c", "d", "e", "f"}
	second := []string{"a", "b", "c", "d", "e", "f"}
	Shuffle(42, first)
	Shuffle(42, second)
	assert.Equal(t, first, second)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e", "f"}, first)
}
