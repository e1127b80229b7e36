package model

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGenerator_CannedAndEcho(t *testing.T) {
	gen := NewMockGenerator("test")
	gen.AddResponse("hello", `{"ok": true}`)

	out, err := gen.GenerateText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, out)

	out, err = gen.GenerateText(context.Background(), "other")
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: other", out)
	assert.Equal(t, 2, gen.Calls())
}

func TestMockGenerator_Failure(t *testing.T) {
	gen := NewMockGenerator("test")
	gen.FailWith(fmt.Errorf("quota exceeded"))

	_, err := gen.GenerateText(context.Background(), "hello")
	assert.EqualError(t, err, "quota exceeded")

	gen.FailWith(nil)
	_, err = gen.GenerateText(context.Background(), "hello")
	assert.NoError(t, err)
}

func TestMockGenerator_CanceledContext(t *testing.T) {
	gen := NewMockGenerator("test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.GenerateText(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLimitedGenerator(t *testing.T) {
	inner := NewMockGenerator("test")
	gen := NewLimitedGenerator(inner, 2)

	for i := 0; i < 2; i++ {
		_, err := gen.GenerateText(context.Background(), "p")
		require.NoError(t, err)
	}
	assert.Equal(t, 0, gen.Remaining())

	_, err := gen.GenerateText(context.Background(), "p")
	assert.Error(t, err)
	// The provider is never contacted once the budget is exhausted.
	assert.Equal(t, 2, inner.Calls())
	assert.Equal(t, 3, gen.Used())
	assert.Equal(t, 0, gen.Remaining())
}

func TestLimitedGenerator_Unlimited(t *testing.T) {
	inner := NewMockGenerator("test")
	gen := NewLimitedGenerator(inner, 0)

	for i := 0; i < 100; i++ {
		_, err := gen.GenerateText(context.Background(), "p")
		require.NoError(t, err)
	}
	assert.Equal(t, 100, gen.Used())
	assert.Equal(t, -1, gen.Remaining())
}
