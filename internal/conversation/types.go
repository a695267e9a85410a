package conversation

import (
	"context"
	"time"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultSession is the history shared by callers that do not supply a
// session key.
const DefaultSession = "default"

// DefaultMaxTurns keeps the last five exchanges.
const DefaultMaxTurns = 10

// Turn is one role-tagged message.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// ArchivedTurn is a completed turn persisted outside the process.
type ArchivedTurn struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Role        Role      `json:"role"`
	Content     string    `json:"content"`
	PIIRedacted bool      `json:"pii_redacted"`
	CreatedAt   time.Time `json:"created_at"`
}

// Archive persists completed turns for later review. It is never read back
// into the prompt.
type Archive interface {
	SaveTurn(ctx context.Context, turn ArchivedTurn) error
	Close() error
}
