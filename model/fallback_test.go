package model

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback_PrimarySucceeds(t *testing.T) {
	primary := NewMockGenerator("primary")
	primary.AddResponse("q", "from primary")
	secondary := NewMockGenerator("secondary")

	fb := NewFallback(primary, secondary)

	out, err := fb.GenerateText(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "from primary", out)
	assert.Equal(t, 0, secondary.Calls(), "fallback must not be consulted on success")
	assert.Equal(t, "primary", fb.Info().Name)
}

func TestFallback_PrimaryFails(t *testing.T) {
	primary := NewMockGenerator("primary")
	primary.FailWith(fmt.Errorf("overloaded"))
	secondary := NewMockGenerator("secondary")
	secondary.AddResponse("q", "from secondary")

	fb := NewFallback(primary, secondary)

	out, err := fb.GenerateText(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "from secondary", out)
}

func TestFallback_BothFail(t *testing.T) {
	primary := NewMockGenerator("primary")
	primary.FailWith(fmt.Errorf("overloaded"))
	secondary := NewMockGenerator("secondary")
	secondary.FailWith(fmt.Errorf("also down"))

	fb := NewFallback(primary, secondary)

	_, err := fb.GenerateText(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "also down")
}

func TestFallback_CanceledContextSkipsFallback(t *testing.T) {
	primary := NewMockGenerator("primary")
	secondary := NewMockGenerator("secondary")
	fb := NewFallback(primary, secondary)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fb.GenerateText(ctx, "q")
	require.Error(t, err)
	assert.Equal(t, 0, secondary.Calls())
}
