package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultMatchesSpecConstants(t *testing.T) {
	c := Default()
	assert.EqualValues(t, 10, c.OctreeMaxDepth)
	assert.Equal(t, 16, c.OctreeMaxLeafItems)
	assert.Equal(t, 10_000, c.VMExecutionCap)
	assert.Equal(t, float32(0.7), c.Flexibility.PatternWeight)
}

func TestOptionsOverrideDefaults(t *testing.T) {
	c := New(WithExecutionCap(500), WithOctreeLimits(4, 8))
	assert.Equal(t, 500, c.VMExecutionCap)
	assert.EqualValues(t, 4, c.OctreeMaxDepth)
	assert.Equal(t, 8, c.OctreeMaxLeafItems)
}
