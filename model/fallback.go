package model

import (
	"context"
	"fmt"

	"github.com/hupe1980/tutormesh/logging"
)

// Fallback is an explicit degradation policy: it forwards every call to a
// primary generator and retries once against a fallback generator when the
// primary errors. The policy is a plain value passed where a TextGenerator
// is expected, so the chain is visible at the wiring site instead of hidden
// in control flow around individual call sites.
type Fallback struct {
	primary  TextGenerator
	fallback TextGenerator
	logger   logging.Logger
}

// FallbackOptions configures a Fallback policy.
type FallbackOptions struct {
	// Logger records primary failures before the fallback attempt.
	Logger logging.Logger
}

// NewFallback builds a fallback policy over the two generators.
func NewFallback(primary, fallback TextGenerator, optFns ...func(o *FallbackOptions)) *Fallback {
	opts := FallbackOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Fallback{primary: primary, fallback: fallback, logger: opts.Logger}
}

// GenerateText implements TextGenerator. Context cancellation is honored
// between attempts: a canceled context is returned as-is rather than
// triggering the fallback.
func (f *Fallback) GenerateText(ctx context.Context, prompt string, optFns ...func(*GenerateOptions)) (string, error) {
	out, err := f.primary.GenerateText(ctx, prompt, optFns...)
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return "", err
	}

	f.logger.Warn("primary generator failed, trying fallback",
		"primary", f.primary.Info().Name,
		"fallback", f.fallback.Info().Name,
		"error", err.Error(),
	)

	out, ferr := f.fallback.GenerateText(ctx, prompt, optFns...)
	if ferr != nil {
		return "", fmt.Errorf("fallback generator %s: %w", f.fallback.Info().Name, ferr)
	}
	return out, nil
}

// Info implements TextGenerator, reporting the primary generator's identity.
func (f *Fallback) Info() Info { return f.primary.Info() }
