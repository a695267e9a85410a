package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abdiesu04/portfolio-chat/internal/protocol"
)

type options struct {
	baseURL        string
	visitorID      string
	turns          int
	interTurnDelay time.Duration
	turnTimeout    time.Duration
	texts          []string
	invalidate     bool
	verbose        bool
}

type createSessionRequest struct {
	VisitorID string `json:"visitor_id,omitempty"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

type wsEnvelope struct {
	Type   string `json:"type"`
	TurnID string `json:"turn_id,omitempty"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
	Text   string `json:"text,omitempty"`
}

type turnResult struct {
	took time.Duration
	ok   bool
	code string
}

var defaultQuestions = []string{
	"What languages does he work with?",
	"Where has he worked most recently?",
	"Which certifications does he hold?",
	"What did he study?",
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "perfchat: %v\n", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "perfchat: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var cfg options
	var textsRaw string
	var interTurnMS int
	var turnTimeoutMS int

	flag.StringVar(&cfg.baseURL, "base-url", "http://127.0.0.1:8080", "chat service base URL")
	flag.StringVar(&cfg.visitorID, "visitor-id", "perf-replay", "visitor_id used for the synthetic session")
	flag.IntVar(&cfg.turns, "turns", 10, "number of turns to replay")
	flag.IntVar(&interTurnMS, "inter-turn-ms", 100, "delay between turns in milliseconds")
	flag.IntVar(&turnTimeoutMS, "turn-timeout-ms", 30000, "timeout waiting for each reply in milliseconds")
	flag.StringVar(&textsRaw, "texts", "", "questions separated by '|' (optional)")
	flag.BoolVar(&cfg.invalidate, "invalidate", false, "invalidate the knowledge context before replaying")
	flag.BoolVar(&cfg.verbose, "verbose", true, "print replay progress")
	flag.Parse()

	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")
	if cfg.baseURL == "" {
		return options{}, fmt.Errorf("base-url is required")
	}
	if cfg.turns <= 0 {
		return options{}, fmt.Errorf("turns must be > 0")
	}
	if turnTimeoutMS <= 0 {
		return options{}, fmt.Errorf("turn-timeout-ms must be > 0")
	}
	cfg.interTurnDelay = time.Duration(max(interTurnMS, 0)) * time.Millisecond
	cfg.turnTimeout = time.Duration(turnTimeoutMS) * time.Millisecond
	cfg.texts = splitTexts(textsRaw)
	if len(cfg.texts) == 0 {
		cfg.texts = defaultQuestions
	}
	return cfg, nil
}

func run(cfg options) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	httpClient := &http.Client{Timeout: 45 * time.Second}
	if cfg.invalidate {
		if err := post(ctx, httpClient, cfg.baseURL+"/v1/admin/knowledge/invalidate", nil, http.StatusAccepted, nil); err != nil {
			return fmt.Errorf("invalidate knowledge: %w", err)
		}
	}

	var created createSessionResponse
	if err := post(ctx, httpClient, cfg.baseURL+"/v1/chat/session", createSessionRequest{VisitorID: cfg.visitorID}, http.StatusCreated, &created); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	sessionID := strings.TrimSpace(created.SessionID)
	if sessionID == "" {
		return fmt.Errorf("create session: missing session_id in response")
	}
	defer func() {
		_ = post(context.Background(), httpClient, cfg.baseURL+"/v1/chat/session/"+url.PathEscape(sessionID)+"/end", nil, http.StatusOK, nil)
	}()

	wsURL, err := wsURLForSession(cfg.baseURL, sessionID)
	if err != nil {
		return fmt.Errorf("build ws URL: %w", err)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("open websocket: %w", err)
	}
	defer conn.Close()

	replies := make(chan wsEnvelope, 8)
	readErrCh := make(chan error, 1)
	go readLoop(conn, replies, readErrCh)

	if cfg.verbose {
		fmt.Printf("perfchat: session=%s turns=%d\n", sessionID, cfg.turns)
	}

	results := make([]turnResult, 0, cfg.turns)
	for i := 0; i < cfg.turns; i++ {
		text := cfg.texts[i%len(cfg.texts)]
		started := time.Now()
		if err := conn.WriteJSON(protocol.UserMessage{Type: protocol.TypeUserMessage, SessionID: sessionID, Text: text}); err != nil {
			return fmt.Errorf("turn %d send: %w", i+1, err)
		}

		env, err := awaitReply(replies, readErrCh, cfg.turnTimeout)
		if err != nil {
			return fmt.Errorf("turn %d await reply: %w", i+1, err)
		}
		res := turnResult{took: time.Since(started), ok: env.Type == string(protocol.TypeAssistantMessage), code: env.Code}
		results = append(results, res)
		if cfg.verbose {
			if res.ok {
				fmt.Printf("perfchat: turn %d/%d %s q=%q reply=%q\n", i+1, cfg.turns, res.took.Round(time.Millisecond), text, truncate(env.Text, 80))
			} else {
				fmt.Printf("perfchat: turn %d/%d %s q=%q error=%s\n", i+1, cfg.turns, res.took.Round(time.Millisecond), text, env.Code)
			}
		}
		if cfg.interTurnDelay > 0 && i < cfg.turns-1 {
			time.Sleep(cfg.interTurnDelay)
		}
	}

	fmt.Println(summarize(results))
	return nil
}

func post(ctx context.Context, client *http.Client, target string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return err
	}
	if res.StatusCode != wantStatus {
		return fmt.Errorf("HTTP %d: %s", res.StatusCode, strings.TrimSpace(string(data)))
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

func wsURLForSession(baseURL, sessionID string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported base-url scheme %q", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", fmt.Errorf("base-url host is required")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/chat/ws"
	q := u.Query()
	q.Set("session_id", sessionID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// readLoop forwards assistant replies and turn errors; system events are
// dropped.
func readLoop(conn *websocket.Conn, replies chan<- wsEnvelope, readErrCh chan<- error) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case readErrCh <- err:
			default:
			}
			return
		}

		var env wsEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		switch env.Type {
		case string(protocol.TypeAssistantMessage), string(protocol.TypeErrorEvent):
			replies <- env
		}
	}
}

func awaitReply(replies <-chan wsEnvelope, readErrCh <-chan error, timeout time.Duration) (wsEnvelope, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case env := <-replies:
		return env, nil
	case err := <-readErrCh:
		return wsEnvelope{}, err
	case <-timer.C:
		return wsEnvelope{}, fmt.Errorf("timed out after %s", timeout)
	}
}

func summarize(results []turnResult) string {
	if len(results) == 0 {
		return "perfchat: no turns"
	}
	durations := make([]time.Duration, 0, len(results))
	failures := map[string]int{}
	for _, r := range results {
		durations = append(durations, r.took)
		if !r.ok {
			failures[r.code]++
		}
	}
	slices.Sort(durations)

	var b strings.Builder
	fmt.Fprintf(&b, "perfchat: turns=%d ok=%d p50=%s p95=%s max=%s",
		len(results),
		len(results)-sum(failures),
		percentile(durations, 0.50).Round(time.Millisecond),
		percentile(durations, 0.95).Round(time.Millisecond),
		durations[len(durations)-1].Round(time.Millisecond),
	)
	codes := make([]string, 0, len(failures))
	for code := range failures {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		fmt.Fprintf(&b, " %s=%d", code, failures[code])
	}
	return b.String()
}

// percentile uses nearest-rank on a sorted slice.
func percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(q*float64(len(sorted))+0.999999) - 1
	idx = min(max(idx, 0), len(sorted)-1)
	return sorted[idx]
}

func sum(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

func splitTexts(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
