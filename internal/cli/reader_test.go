package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLineTrimsWhitespace(t *testing.T) {
	r := NewNonBlockingReader(strings.NewReader("  approve all  \n"))
	line, err := r.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "approve all", line)
}

func TestReadLineSequential(t *testing.T) {
	r := NewNonBlockingReader(strings.NewReader("first\nsecond\n"))

	line, err := r.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", line)

	line, err = r.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", line)
}

func TestReadLineEOF(t *testing.T) {
	r := NewNonBlockingReader(strings.NewReader(""))
	_, err := r.ReadLine(context.Background())
	assert.Error(t, err)
}

func TestReadLineCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewNonBlockingReader(blockedReader{})
	_, err := r.ReadLine(ctx)
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestNewNonBlockingReaderNilPanics(t *testing.T) {
	assert.Panics(t, func() { NewNonBlockingReader(nil) })
}
