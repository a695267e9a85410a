package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/abdiesu04/portfolio-chat/internal/chat"
	"github.com/abdiesu04/portfolio-chat/internal/protocol"
)

const (
	wsReadTimeout  = 120 * time.Second
	wsWriteTimeout = 10 * time.Second
)

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}
	if _, err := s.sessions.Get(sessionID); err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan any, 32)
	outbound := make(chan any, 32)

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		defer close(outbound)
		s.runChatConnection(ctx, sessionID, inbound, outbound)
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range outbound {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				cancel()
				_ = conn.Close()
				// Drain so the processor never blocks on a dead socket.
				for range outbound {
				}
				return
			}
			if t, ok := messageTypeOf(msg); ok {
				s.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
			}
		}
	}()

	conn.SetReadLimit(maxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		if msgType != websocket.TextMessage {
			continue
		}

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			parsed = protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "invalid_client_message",
				Source:    "gateway",
				Retryable: false,
				Detail:    err.Error(),
			}
		} else if t, ok := messageTypeOf(parsed); ok {
			s.metrics.WSMessages.WithLabelValues("inbound", string(t)).Inc()
		}

		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- parsed:
		}
	}

	// Cancelling here also cancels a turn that is still waiting on inference;
	// its assistant reply is not recorded.
	cancel()
	close(inbound)
	<-runDone
	<-writerDone
	s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()
}

// runChatConnection answers inbound messages one at a time so a single
// connection never interleaves its own turns.
func (s *Server) runChatConnection(ctx context.Context, sessionID string, inbound <-chan any, outbound chan<- any) {
	send := func(v any) bool {
		select {
		case <-ctx.Done():
			return false
		case outbound <- v:
			return true
		}
	}

	if !send(protocol.SystemEvent{Type: protocol.TypeSystemEvent, SessionID: sessionID, Code: "session_ready"}) {
		return
	}

	for msg := range inbound {
		if ctx.Err() != nil {
			return
		}
		switch m := msg.(type) {
		case protocol.ErrorEvent:
			send(m)
		case protocol.ClientControl:
			switch m.Action {
			case protocol.ActionClearHistory:
				s.chat.ClearHistory(sessionID)
				send(protocol.SystemEvent{Type: protocol.TypeSystemEvent, SessionID: sessionID, Code: "history_cleared"})
			case protocol.ActionPing:
				_ = s.sessions.Touch(sessionID)
				send(protocol.SystemEvent{Type: protocol.TypeSystemEvent, SessionID: sessionID, Code: "pong"})
			}
		case protocol.UserMessage:
			turnID := uuid.NewString()
			if err := s.sessions.BeginTurn(sessionID); err != nil {
				send(protocol.ErrorEvent{
					Type:      protocol.TypeErrorEvent,
					SessionID: sessionID,
					TurnID:    turnID,
					Code:      "session_ended",
					Source:    "session",
					Detail:    err.Error(),
				})
				continue
			}
			res := s.chat.HandleSessionMessage(ctx, sessionID, m.Text)
			if res.Success {
				send(protocol.AssistantMessage{
					Type:      protocol.TypeAssistantMessage,
					SessionID: sessionID,
					TurnID:    turnID,
					Text:      res.Message,
				})
				continue
			}
			send(protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				TurnID:    turnID,
				Code:      string(res.Error),
				Source:    "chat",
				Retryable: retryableKind(res.Error),
				Detail:    res.Message,
			})
		}
	}
}

func retryableKind(kind chat.ErrorKind) bool {
	switch kind {
	case chat.ErrorDataSource, chat.ErrorInferenceUnavailable, chat.ErrorEmptyResponse:
		return true
	default:
		return false
	}
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.UserMessage:
		return m.Type, true
	case protocol.ClientControl:
		return m.Type, true
	case protocol.AssistantMessage:
		return m.Type, true
	case protocol.SystemEvent:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
