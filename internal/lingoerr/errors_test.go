package lingoerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesByKind(t *testing.T) {
	err := New(KindInvalidNodeID, "node 7", nil)
	assert.True(t, errors.Is(err, InvalidNodeID))
	assert.False(t, errors.Is(err, OutOfBounds))
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk gone")
	err := New(KindIO, "opening file", cause)
	assert.ErrorIs(t, err, cause)
}

func TestWrapNilReturnsNil(t *testing.T) {
	require.NoError(t, Wrap("context", nil))
}

func TestWrapWrapsCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := Wrap("opening", cause)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, IO)
}
