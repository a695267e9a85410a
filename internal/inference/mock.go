package inference

import (
	"context"
	"strings"
	"sync"
)

// MockGateway answers deterministically when no model is configured.
type MockGateway struct{}

func NewMockGateway() *MockGateway { return &MockGateway{} }

func (g *MockGateway) Generate(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	question := ""
	if i := strings.LastIndex(prompt, "Question:"); i >= 0 {
		question = strings.TrimSpace(prompt[i+len("Question:"):])
	}
	if question == "" {
		return "I am listening.", nil
	}
	return "I heard you: " + question, nil
}

// StaticGateway returns fixed results and records every prompt it saw.
type StaticGateway struct {
	mu      sync.Mutex
	Text    string
	Err     error
	prompts []string
}

func NewStaticGateway(text string, err error) *StaticGateway {
	return &StaticGateway{Text: text, Err: err}
}

func (g *StaticGateway) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	text, err := g.Text, g.Err
	g.mu.Unlock()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if err != nil {
		return "", err
	}
	return checkText(text)
}

func (g *StaticGateway) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.prompts))
	copy(out, g.prompts)
	return out
}
