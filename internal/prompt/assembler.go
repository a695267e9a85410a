package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abdiesu04/portfolio-chat/internal/conversation"
)

// DefaultMaxBytes bounds the assembled prompt.
const DefaultMaxBytes = 100_000

const (
	historyLabel  = "Conversation so far:"
	rulesLabel    = "Instructions:"
	questionLabel = "Question:"
)

var ErrPromptTooLarge = errors.New("prompt too large")

// TooLargeError reports the assembled size against the limit.
type TooLargeError struct {
	Size  int
	Limit int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("prompt too large: %d bytes exceeds limit of %d", e.Size, e.Limit)
}

func (e *TooLargeError) Is(target error) bool { return target == ErrPromptTooLarge }

// Assembler combines context, history, rules and the user message into one
// prompt. It never truncates; callers decide what to drop.
type Assembler struct {
	maxBytes int
}

func NewAssembler(maxBytes int) *Assembler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Assembler{maxBytes: maxBytes}
}

func (a *Assembler) MaxBytes() int { return a.maxBytes }

// Assemble lays the sections out in a fixed order: knowledge context, the
// transcript, the rules verbatim, then the question.
func (a *Assembler) Assemble(knowledgeContext string, history []conversation.Turn, rules, userMessage string) (string, error) {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(knowledgeContext))
	b.WriteString("\n\n")

	if len(history) > 0 {
		b.WriteString(historyLabel + "\n")
		for _, t := range history {
			b.WriteString(roleLabel(t.Role) + ": " + strings.TrimSpace(t.Text) + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(rulesLabel + "\n")
	b.WriteString(strings.TrimSpace(rules))
	b.WriteString("\n\n")

	b.WriteString(questionLabel + " " + strings.TrimSpace(userMessage) + "\n")

	if b.Len() > a.maxBytes {
		return "", &TooLargeError{Size: b.Len(), Limit: a.maxBytes}
	}
	return b.String(), nil
}

func roleLabel(r conversation.Role) string {
	switch r {
	case conversation.RoleAssistant:
		return "Assistant"
	case conversation.RoleUser:
		return "User"
	default:
		if r == "" {
			return "User"
		}
		s := string(r)
		return strings.ToUpper(s[:1]) + s[1:]
	}
}
