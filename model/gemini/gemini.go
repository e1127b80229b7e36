// Package gemini provides a model wrapper for the Google Gemini API. It is
// the default provider pairing for tutoring workloads: a fast flash-tier
// primary with an explicit fallback to the previous flash generation (see
// NewGeneratorWithFallback).
package gemini

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/hupe1980/tutormesh/model"
)

// Default model pairing: current flash generation as primary, previous
// generation as the degradation target.
const (
	DefaultModel  = "gemini-2.0-flash"
	FallbackModel = "gemini-1.5-flash"
)

// Options configures the Gemini generator (model id, API key). Extend via
// functional options to preserve stability.
type Options struct {
	Model  string
	APIKey string
}

// Generator wraps the Gemini GenerateContent API behind the generic
// model.TextGenerator interface.
type Generator struct {
	client *genai.Client
	opts   Options
}

// NewGenerator creates a new Gemini generator using the official client. The
// API key defaults to the GOOGLE_API_KEY environment variable.
func NewGenerator(ctx context.Context, optFns ...func(o *Options)) (*Generator, error) {
	opts := Options{Model: DefaultModel, APIKey: os.Getenv("GOOGLE_API_KEY")}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key not provided and GOOGLE_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Generator{client: client, opts: opts}, nil
}

// NewGeneratorWithFallback builds the canonical degradation chain for
// tutoring workloads: DefaultModel backed by FallbackModel, sharing one
// client configuration.
func NewGeneratorWithFallback(ctx context.Context, optFns ...func(o *Options)) (*model.Fallback, error) {
	primary, err := NewGenerator(ctx, optFns...)
	if err != nil {
		return nil, err
	}

	fallback, err := NewGenerator(ctx, func(o *Options) {
		for _, fn := range optFns {
			fn(o)
		}
		o.Model = FallbackModel
	})
	if err != nil {
		return nil, err
	}

	return model.NewFallback(primary, fallback), nil
}

// GenerateText implements model.TextGenerator. The provider response is
// flattened to plain text here; callers never see SDK response types.
func (g *Generator) GenerateText(ctx context.Context, prompt string, optFns ...func(*model.GenerateOptions)) (string, error) {
	o := model.DefaultGenerateOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(o.Temperature)),
		TopP:            genai.Ptr(float32(o.TopP)),
		TopK:            genai.Ptr(float32(o.TopK)),
		MaxOutputTokens: int32(o.MaxTokens),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.opts.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini api error: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini: response contained no text parts")
	}
	return text, nil
}

// Info implements model.TextGenerator.
func (g *Generator) Info() model.Info {
	return model.Info{Name: g.opts.Model, Provider: "gemini"}
}
