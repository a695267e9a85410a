package session

import "time"

// CreateRequest defines payload for creating a new chat session.
type CreateRequest struct {
	VisitorID string `json:"visitor_id"`
}

// CreateResponse returns created session metadata.
type CreateResponse struct {
	SessionID       string    `json:"session_id"`
	VisitorID       string    `json:"visitor_id,omitempty"`
	Status          Status    `json:"status"`
	StartedAt       time.Time `json:"started_at"`
	LastActivityAt  time.Time `json:"last_activity_at"`
	InactivityTTLMS int64     `json:"inactivity_ttl_ms"`
}
