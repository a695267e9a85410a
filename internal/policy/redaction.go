package policy

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
)

// Redactor masks visitor PII in chat transcripts. Values on the allow list,
// such as the owner's published contact details, are left intact.
type Redactor struct {
	allow map[string]struct{}
}

func NewRedactor(allow ...string) *Redactor {
	r := &Redactor{allow: make(map[string]struct{}, len(allow))}
	for _, v := range allow {
		if k := normalizeAllowed(v); k != "" {
			r.allow[k] = struct{}{}
		}
	}
	return r
}

// Redact masks emails, card numbers and phone numbers that are not allowed.
func (r *Redactor) Redact(input string) (redacted string, changed bool) {
	out := input

	next := r.replace(emailPattern, out, "[REDACTED_EMAIL]")
	changed = changed || next != out
	out = next

	// Cards before phones so long digit runs are not classified as phones.
	next = r.replace(cardPattern, out, "[REDACTED_CARD]")
	changed = changed || next != out
	out = next

	next = r.replace(phonePattern, out, "[REDACTED_PHONE]")
	changed = changed || next != out
	out = next

	return out, changed
}

func (r *Redactor) replace(re *regexp.Regexp, in, marker string) string {
	return re.ReplaceAllStringFunc(in, func(m string) string {
		if _, ok := r.allow[normalizeAllowed(m)]; ok {
			return m
		}
		return marker
	})
}

func normalizeAllowed(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	return strings.Map(func(c rune) rune {
		switch c {
		case ' ', '-', '(', ')':
			return -1
		}
		return c
	}, v)
}

var defaultRedactor = NewRedactor()

// RedactPII masks common high-risk PII patterns with no allow list.
func RedactPII(input string) (string, bool) {
	return defaultRedactor.Redact(input)
}
