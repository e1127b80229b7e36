package tool

import (
	"context"
	"sync"

	"github.com/hupe1980/tutormesh/model"
)

// scriptedGenerator replays a fixed sequence of completions, one per call.
// The last response is sticky once the script runs out.
type scriptedGenerator struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

func newScriptedGenerator(responses ...string) *scriptedGenerator {
	return &scriptedGenerator{responses: responses}
}

func (g *scriptedGenerator) GenerateText(ctx context.Context, prompt string, optFns ...func(*model.GenerateOptions)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	if len(g.responses) == 0 {
		return "", nil
	}
	resp := g.responses[0]
	if len(g.responses) > 1 {
		g.responses = g.responses[1:]
	}
	return resp, nil
}

func (g *scriptedGenerator) Info() model.Info {
	return model.Info{Name: "scripted", Provider: "mock"}
}
