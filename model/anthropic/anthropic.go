// Package anthropic provides a model wrapper for the Anthropic Claude API
// behind the generic model.TextGenerator interface.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/tutormesh/model"
)

// Options configures the Anthropic generator (model id, API key). Extend via
// functional options to preserve stability.
type Options struct {
	Model  anthropic.Model
	APIKey string
}

// Generator wraps the Anthropic Messages API.
type Generator struct {
	client *anthropic.Client
	opts   Options
}

// NewGenerator creates a new Anthropic generator using the official client.
func NewGenerator(optFns ...func(o *Options)) *Generator {
	opts := Options{Model: anthropic.ModelClaude3_5Sonnet20241022}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Generator{client: &client, opts: opts}
}

// NewGeneratorFromClient creates a new Anthropic generator from an existing client.
func NewGeneratorFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Generator {
	opts := Options{Model: anthropic.ModelClaude3_5Sonnet20241022}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Generator{client: client, opts: opts}
}

// GenerateText implements model.TextGenerator. Text blocks from the response
// are concatenated into the single raw string the extract package consumes.
func (g *Generator) GenerateText(ctx context.Context, prompt string, optFns ...func(*model.GenerateOptions)) (string, error) {
	o := model.DefaultGenerateOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	resp, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       g.opts.Model,
		MaxTokens:   o.MaxTokens,
		Temperature: anthropic.Float(o.Temperature),
		TopP:        anthropic.Float(o.TopP),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic: response contained no text blocks")
	}
	return sb.String(), nil
}

// Info implements model.TextGenerator.
func (g *Generator) Info() model.Info {
	return model.Info{Name: string(g.opts.Model), Provider: "anthropic"}
}
