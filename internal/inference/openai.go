package inference

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel   = "gemini-2.0-flash"
)

// OpenAIGateway talks to any OpenAI-compatible chat completions endpoint.
type OpenAIGateway struct {
	client *openai.Client
	model  string
	params SamplingParams
}

func NewOpenAIGateway(baseURL, apiKey, model string, params SamplingParams) *OpenAIGateway {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	client := openai.NewClient(
		option.WithAPIKey(strings.TrimSpace(apiKey)),
		option.WithBaseURL(strings.TrimSpace(baseURL)),
		option.WithMaxRetries(0),
	)
	return &OpenAIGateway{
		client: &client,
		model:  strings.TrimSpace(model),
		params: params,
	}
}

func (g *OpenAIGateway) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       g.model,
		Temperature: openai.Float(g.params.Temperature),
		TopP:        openai.Float(g.params.TopP),
	}
	var opts []option.RequestOption
	if g.params.TopK > 0 {
		// Not part of the OpenAI schema; compatible servers that support it read it.
		opts = append(opts, option.WithJSONSet("top_k", g.params.TopK))
	}

	completion, err := g.client.Chat.Completions.New(ctx, req, opts...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &UnavailableError{Provider: "openai", StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", &UnavailableError{Provider: "openai", Err: err}
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return checkText(completion.Choices[0].Message.Content)
}
