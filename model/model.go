package model

import (
	"context"
	"fmt"
	"sync"
)

// GenerateOptions carries the per-call sampling parameters. Defaults mirror
// the service's tuning for content generation; individual calls override
// them via functional options (analysis prompts run cooler than responses).
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int64
	TopP        float64
	TopK        int32
}

// DefaultGenerateOptions returns the baseline sampling configuration.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{Temperature: 0.7, MaxTokens: 2048, TopP: 0.9, TopK: 40}
}

// WithTemperature overrides the sampling temperature for a single call.
func WithTemperature(t float64) func(*GenerateOptions) {
	return func(o *GenerateOptions) { o.Temperature = t }
}

// WithMaxTokens overrides the output token cap for a single call.
func WithMaxTokens(n int64) func(*GenerateOptions) {
	return func(o *GenerateOptions) { o.MaxTokens = n }
}

// Info contains metadata about a generator implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "gemini", "openai", "anthropic", "mock"
}

// TextGenerator is the minimal interface tools use to drive generation. One
// prompt in, one raw text blob out; structure recovery is the extract
// package's job, never the adapter's.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, optFns ...func(*GenerateOptions)) (string, error)

	// Info returns information about the generator implementation.
	Info() Info
}

// MockGenerator is a lightweight in-memory TextGenerator useful for tests
// and examples. Canned responses are matched on the exact prompt; unmatched
// prompts fall back to a deterministic echo. Safe for concurrent use.
type MockGenerator struct {
	mu        sync.RWMutex
	info      Info
	responses map[string]string
	err       error
	calls     int
}

// NewMockGenerator constructs an empty MockGenerator.
func NewMockGenerator(name string) *MockGenerator {
	return &MockGenerator{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockGenerator) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (m *MockGenerator) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many generations were attempted.
func (m *MockGenerator) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// GenerateText implements TextGenerator.
func (m *MockGenerator) GenerateText(ctx context.Context, prompt string, optFns ...func(*GenerateOptions)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if resp, ok := m.responses[prompt]; ok {
		return resp, nil
	}
	return fmt.Sprintf("Mock response to: %s", prompt), nil
}

// Info implements TextGenerator.
func (m *MockGenerator) Info() Info { return m.info }
