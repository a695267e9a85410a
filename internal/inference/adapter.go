package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Gateway sends one assembled prompt to a language model and returns the
// generated text. Gateways do not retry.
type Gateway interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config controls gateway construction.
type Config struct {
	Mode    string
	BaseURL string
	APIKey  string
	Model   string
	HTTPURL string
	Params  SamplingParams
}

// NewGateway selects a gateway. In auto mode an API key selects the
// OpenAI-compatible client, then an HTTP URL, then the mock.
func NewGateway(cfg Config) (Gateway, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" {
			return NewOpenAIGateway(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Params), nil
		}
		if strings.TrimSpace(cfg.HTTPURL) != "" {
			return NewHTTPGateway(cfg.HTTPURL, cfg.Params), nil
		}
		return NewMockGateway(), nil
	case "openai":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("inference api key is required for openai mode")
		}
		return NewOpenAIGateway(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Params), nil
	case "http":
		if strings.TrimSpace(cfg.HTTPURL) == "" {
			return nil, errors.New("inference http url is required for http mode")
		}
		return NewHTTPGateway(cfg.HTTPURL, cfg.Params), nil
	case "mock":
		return NewMockGateway(), nil
	default:
		return nil, fmt.Errorf("unsupported inference mode %q", cfg.Mode)
	}
}

// Name reports a short label for logs and metrics.
func Name(g Gateway) string {
	switch g.(type) {
	case *OpenAIGateway:
		return "openai"
	case *HTTPGateway:
		return "http"
	case *MockGateway:
		return "mock"
	case *StaticGateway:
		return "static"
	default:
		return "custom"
	}
}
