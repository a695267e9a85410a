package inference

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPGateway posts prompts to a plain JSON inference endpoint.
type HTTPGateway struct {
	url    string
	client *http.Client
	params SamplingParams
}

type httpRequest struct {
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

// NewHTTPGateway sets no client timeout; the caller's context bounds the call.
func NewHTTPGateway(url string, params SamplingParams) *HTTPGateway {
	return &HTTPGateway{
		url:    strings.TrimSpace(url),
		client: &http.Client{},
		params: params,
	}
}

func (g *HTTPGateway) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(httpRequest{
		Prompt:      prompt,
		Temperature: g.params.Temperature,
		TopP:        g.params.TopP,
		TopK:        g.params.TopK,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &UnavailableError{Provider: "http", Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", &UnavailableError{
			Provider:   "http",
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	ct := strings.ToLower(res.Header.Get("Content-Type"))
	if strings.Contains(ct, "text/event-stream") || strings.Contains(ct, "application/x-ndjson") {
		text, err := consumeStreaming(res.Body)
		if err != nil {
			return "", &UnavailableError{Provider: "http", Err: err}
		}
		return checkText(text)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", &UnavailableError{Provider: "http", Err: fmt.Errorf("read response: %w", err)}
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return checkText(string(body))
	}
	return checkText(extractText(obj))
}

// consumeStreaming concatenates SSE or NDJSON fragments into one reply.
func consumeStreaming(body io.Reader) (string, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var out strings.Builder
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "data:") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
		if line == "[DONE]" {
			break
		}

		delta := line
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err == nil {
			delta = extractText(obj)
		}
		out.WriteString(delta)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("stream read: %w", err)
	}
	return out.String(), nil
}

func extractText(obj map[string]any) string {
	for _, k := range []string{"text", "delta", "output", "message", "response"} {
		if v, ok := obj[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}
