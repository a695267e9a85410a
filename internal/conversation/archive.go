package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abdiesu04/portfolio-chat/internal/policy"
)

// NewArchiveRecord builds an archived turn with PII masked. A nil redactor
// masks everything it recognizes.
func NewArchiveRecord(redactor *policy.Redactor, sessionID string, turn Turn) ArchivedTurn {
	var (
		content string
		changed bool
	)
	if redactor != nil {
		content, changed = redactor.Redact(turn.Text)
	} else {
		content, changed = policy.RedactPII(turn.Text)
	}
	at := turn.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return ArchivedTurn{
		ID:          uuid.NewString(),
		SessionID:   sessionKey(sessionID),
		Role:        turn.Role,
		Content:     content,
		PIIRedacted: changed,
		CreatedAt:   at,
	}
}

// NewArchive returns a Postgres archive when enabled with a database URL,
// otherwise nil.
func NewArchive(ctx context.Context, enabled bool, databaseURL string) (Archive, error) {
	if !enabled || strings.TrimSpace(databaseURL) == "" {
		return nil, nil
	}
	a, err := NewPostgresArchive(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// InMemoryArchive keeps archived turns in process for local runs and tests.
type InMemoryArchive struct {
	mu      sync.RWMutex
	records map[string][]ArchivedTurn
}

func NewInMemoryArchive() *InMemoryArchive {
	return &InMemoryArchive{records: make(map[string][]ArchivedTurn)}
}

func (a *InMemoryArchive) SaveTurn(_ context.Context, turn ArchivedTurn) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	a.records[turn.SessionID] = append(a.records[turn.SessionID], turn)
	return nil
}

func (a *InMemoryArchive) Turns(sessionID string) []ArchivedTurn {
	a.mu.RLock()
	defer a.mu.RUnlock()
	arr := a.records[sessionKey(sessionID)]
	out := make([]ArchivedTurn, len(arr))
	copy(out, arr)
	return out
}

func (a *InMemoryArchive) Close() error { return nil }
