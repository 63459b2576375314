package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueFIFO(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, []byte("first")))
	require.NoError(t, q.Push(ctx, []byte("second")))
	assert.Equal(t, 2, q.Len())

	got, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))

	got, err = q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
	assert.Equal(t, 0, q.Len())
}

func TestMemoryQueueEmptyPop(t *testing.T) {
	q := NewMemory()
	_, err := q.Pop(context.Background())
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestOpenDefaultsAndRejectsUnknownDriver(t *testing.T) {
	q, err := Open(Options{Driver: DriverMemory})
	require.NoError(t, err)
	_, ok := q.(*MemoryQueue)
	assert.True(t, ok)

	_, err = Open(Options{Driver: "bogus"})
	assert.Error(t, err)
}
