package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdiesu04/portfolio-chat/internal/chat"
	"github.com/abdiesu04/portfolio-chat/internal/config"
	"github.com/abdiesu04/portfolio-chat/internal/conversation"
	"github.com/abdiesu04/portfolio-chat/internal/inference"
	"github.com/abdiesu04/portfolio-chat/internal/knowledge"
	"github.com/abdiesu04/portfolio-chat/internal/observability"
	"github.com/abdiesu04/portfolio-chat/internal/prompt"
	"github.com/abdiesu04/portfolio-chat/internal/protocol"
	"github.com/abdiesu04/portfolio-chat/internal/session"
)

type testEnv struct {
	server   *httptest.Server
	store    *conversation.Store
	cache    *knowledge.Cache
	sessions *session.Manager
}

func newTestEnv(t *testing.T, reply string) *testEnv {
	t.Helper()
	cfg := config.Config{
		SessionInactivityTimeout: 2 * time.Minute,
		AllowedOrigins:           []string{"https://portfolio.example"},
	}
	metrics := observability.NewMetrics("test_httpapi_" + strings.ReplaceAll(t.Name(), "/", "_"))
	source := knowledge.NewMemorySource(knowledge.Records{
		Skills: []knowledge.Skill{{Name: "Go", Proficiency: knowledge.IntPtr(80)}},
	})
	cache := knowledge.NewCache(knowledge.NewReader(source), knowledge.NewCompiler("Abdi Esayas"))
	store := conversation.NewStore(conversation.DefaultMaxTurns)
	controller, err := chat.NewController(chat.Config{
		Cache:     cache,
		Store:     store,
		Assembler: prompt.NewAssembler(0),
		Gateway:   inference.NewStaticGateway(reply, nil),
		Rules:     prompt.DefaultRules("Abdi Esayas"),
		Metrics:   metrics,
	})
	require.NoError(t, err)

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	srv := New(cfg, sessions, controller, cache, metrics, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testEnv{server: ts, store: store, cache: cache, sessions: sessions}
}

func postJSON(t *testing.T, url string, v any) (*http.Response, map[string]any) {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res, out
}

func TestChatRequiresMessage(t *testing.T) {
	env := newTestEnv(t, "Go.")

	res, body := postJSON(t, env.server.URL+"/api/chat", map[string]string{"message": ""})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "invalid_message", body["error"])
	assert.Equal(t, 0, env.store.Len(conversation.DefaultSession))
}

func TestChatDefaultSession(t *testing.T) {
	env := newTestEnv(t, "Go.")

	res, body := postJSON(t, env.server.URL+"/api/chat", map[string]string{"message": "What languages?"})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Go.", body["message"])
	_, hasError := body["error"]
	assert.False(t, hasError)
	assert.Equal(t, 2, env.store.Len(conversation.DefaultSession))

	_, ready := getJSON(t, env.server.URL+"/readyz")
	assert.Equal(t, true, ready["knowledge_context_warm"])
}

func TestChatSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, "Hello.")

	res, created := postJSON(t, env.server.URL+"/v1/chat/session", map[string]string{"visitor_id": "v1"})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	sessionID, _ := created["session_id"].(string)
	require.NotEmpty(t, sessionID)

	res, body := postJSON(t, env.server.URL+"/api/chat", map[string]string{"message": "hi", "session_id": sessionID})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 2, env.store.Len(sessionID))
	assert.Equal(t, 0, env.store.Len(conversation.DefaultSession))

	res, _ = postJSON(t, env.server.URL+"/v1/chat/session/"+sessionID+"/end", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, body = postJSON(t, env.server.URL+"/api/chat", map[string]string{"message": "again", "session_id": sessionID})
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "session_ended", body["code"])

	res, _ = postJSON(t, env.server.URL+"/api/chat", map[string]string{"message": "hi", "session_id": "missing"})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestInvalidateKnowledge(t *testing.T) {
	env := newTestEnv(t, "Go.")
	postJSON(t, env.server.URL+"/api/chat", map[string]string{"message": "hi"})
	require.True(t, env.cache.Warm())

	res, body := postJSON(t, env.server.URL+"/v1/admin/knowledge/invalidate", nil)
	assert.Equal(t, http.StatusAccepted, res.StatusCode)
	assert.Equal(t, "invalidated", body["status"])
	assert.False(t, env.cache.Warm())
	assert.Equal(t, 2, env.store.Len(conversation.DefaultSession))
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, "Go.")

	req, err := http.NewRequest(http.MethodOptions, env.server.URL+"/api/chat", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://portfolio.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "https://portfolio.example", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestChatWebsocket(t *testing.T) {
	env := newTestEnv(t, "Go.")
	sess := env.sessions.Create("")

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/v1/chat/ws?session_id=" + sess.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var ready protocol.SystemEvent
	require.NoError(t, conn.ReadJSON(&ready))
	assert.Equal(t, "session_ready", ready.Code)

	require.NoError(t, conn.WriteJSON(protocol.UserMessage{Type: protocol.TypeUserMessage, Text: "What languages?"}))
	var reply protocol.AssistantMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, protocol.TypeAssistantMessage, reply.Type)
	assert.Equal(t, "Go.", reply.Text)
	assert.NotEmpty(t, reply.TurnID)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"wat"}`)))
	var errEvent protocol.ErrorEvent
	require.NoError(t, conn.ReadJSON(&errEvent))
	assert.Equal(t, "invalid_client_message", errEvent.Code)

	require.NoError(t, conn.WriteJSON(protocol.ClientControl{Type: protocol.TypeClientControl, Action: protocol.ActionClearHistory}))
	var cleared protocol.SystemEvent
	require.NoError(t, conn.ReadJSON(&cleared))
	assert.Equal(t, "history_cleared", cleared.Code)
	assert.Equal(t, 0, env.store.Len(sess.ID))
}

func TestChatWebsocketRequiresSession(t *testing.T) {
	env := newTestEnv(t, "Go.")

	res, err := http.Get(env.server.URL + "/v1/chat/ws")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, err = http.Get(env.server.URL + "/v1/chat/ws?session_id=missing")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res, out
}
