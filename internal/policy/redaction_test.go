package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactPII(t *testing.T) {
	input := "Email me at sam@example.com or +1 (555) 123-9876 and use 4242 4242 4242 4242."
	out, changed := RedactPII(input)
	assert.True(t, changed)
	for _, marker := range []string{"[REDACTED_EMAIL]", "[REDACTED_PHONE]", "[REDACTED_CARD]"} {
		assert.Contains(t, out, marker)
	}
}

func TestRedactorKeepsAllowedContacts(t *testing.T) {
	r := NewRedactor("abdi@example.com", "+251 938 813 894")

	out, changed := r.Redact("Reach Abdi at ABDI@example.com or +251 938 813 894; I am visitor@mail.com")
	assert.True(t, changed)
	assert.Contains(t, out, "ABDI@example.com")
	assert.Contains(t, out, "+251 938 813 894")
	assert.Contains(t, out, "[REDACTED_EMAIL]")
	assert.NotContains(t, out, "visitor@mail.com")
}

func TestRedactNoChange(t *testing.T) {
	out, changed := RedactPII("What languages does Abdi know?")
	assert.False(t, changed)
	assert.Equal(t, "What languages does Abdi know?", out)
}
