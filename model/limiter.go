package model

import (
	"context"
	"fmt"
	"sync/atomic"
)

// LimitedGenerator decorates a TextGenerator with a hard call budget so a
// runaway caller (a retry loop, a misbehaving tool) cannot burn unbounded
// provider quota within one process. The budget is charged before the
// provider is contacted; once spent, every further call fails without a
// network round trip.
type LimitedGenerator struct {
	inner TextGenerator
	max   int64
	used  atomic.Int64
}

// NewLimitedGenerator wraps gen with a cap of max calls (0 = unlimited).
func NewLimitedGenerator(gen TextGenerator, max int) *LimitedGenerator {
	return &LimitedGenerator{inner: gen, max: int64(max)}
}

// GenerateText implements TextGenerator.
func (g *LimitedGenerator) GenerateText(ctx context.Context, prompt string, optFns ...func(*GenerateOptions)) (string, error) {
	if g.max > 0 && g.used.Add(1) > g.max {
		return "", fmt.Errorf("exceeded max model calls: %d", g.max)
	}
	if g.max == 0 {
		g.used.Add(1)
	}
	return g.inner.GenerateText(ctx, prompt, optFns...)
}

// Info implements TextGenerator.
func (g *LimitedGenerator) Info() Info { return g.inner.Info() }

// Used reports how many calls have been attempted, including ones rejected
// over budget.
func (g *LimitedGenerator) Used() int { return int(g.used.Load()) }

// Remaining reports the unspent call budget, or -1 when unlimited.
func (g *LimitedGenerator) Remaining() int {
	if g.max == 0 {
		return -1
	}
	rem := g.max - g.used.Load()
	if rem < 0 {
		rem = 0
	}
	return int(rem)
}
