// Package openai provides a model wrapper for the OpenAI Chat Completions
// API behind the generic model.TextGenerator interface.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/hupe1980/tutormesh/model"
)

// Options configure the OpenAI generator. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	Model string
}

// Generator wraps the OpenAI Chat Completions API.
type Generator struct {
	client *openai.Client
	opts   Options
}

// NewGenerator creates a new OpenAI generator using the official client
// (credentials from the environment).
func NewGenerator(optFns ...func(o *Options)) *Generator {
	client := openai.NewClient()
	return NewGeneratorFromClient(&client, optFns...)
}

// NewGeneratorFromClient creates a new OpenAI generator from an existing client.
func NewGeneratorFromClient(client *openai.Client, optFns ...func(o *Options)) *Generator {
	opts := Options{Model: openai.ChatModelGPT4oMini}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Generator{client: client, opts: opts}
}

// GenerateText implements model.TextGenerator. The single-message prompt
// shape matches how the tutoring services compose their prompts: all context
// is folded into one user message.
func (g *Generator) GenerateText(ctx context.Context, prompt string, optFns ...func(*model.GenerateOptions)) (string, error) {
	o := model.DefaultGenerateOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.opts.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature:         openai.Float(o.Temperature),
		TopP:                openai.Float(o.TopP),
		MaxCompletionTokens: openai.Int(o.MaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: response contained no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// Info implements model.TextGenerator.
func (g *Generator) Info() model.Info {
	return model.Info{Name: g.opts.Model, Provider: "openai"}
}
