package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
profile:
  - label: Email
    value: abdi@example.com
skills:
  - name: Go
    category: Backend
    proficiency: 80
    yearsOfExperience: 3
experience:
  - position: Backend Engineer
    company: Acme
    startDate: 2022-03-01
certificates:
  - title: AWS Certified Solutions Architect
    issuer: Amazon Web Services
    date: 2023-12-15
    visible: false
`

func TestFileSourceLoadsSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	src, err := NewFileSource(path)
	require.NoError(t, err)
	defer src.Close()

	records, err := NewReader(src).FetchAll(context.Background())
	require.NoError(t, err)

	require.Len(t, records.Skills, 1)
	assert.Equal(t, 80, *records.Skills[0].Proficiency)
	require.Len(t, records.Experience, 1)
	require.NotNil(t, records.Experience[0].StartDate)
	assert.Equal(t, time.March, records.Experience[0].StartDate.Month())
	assert.Empty(t, records.Certificates, "hidden certificate should be dropped")

	out := NewCompiler("Abdi").Compile(records)
	assert.Contains(t, out, "Go (80%, 3 years) [Backend]")
	assert.Contains(t, out, "Backend Engineer at Acme")
	assert.Contains(t, out, "Mar 2022 - Present")
}

func TestFileSourceReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("skills:\n  - name: Go\n"), 0o600))

	src, err := NewFileSource(path)
	require.NoError(t, err)

	skills, err := src.Skills(context.Background())
	require.NoError(t, err)
	require.Len(t, skills, 1)

	require.NoError(t, os.WriteFile(path, []byte("skills:\n  - name: Go\n  - name: Rust\n"), 0o600))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	skills, err = src.Skills(context.Background())
	require.NoError(t, err)
	assert.Len(t, skills, 2)
}

func TestFileSourceRequiresPath(t *testing.T) {
	_, err := NewFileSource("  ")
	assert.Error(t, err)
}

func TestParseDateLayouts(t *testing.T) {
	for _, in := range []string{"2023-12-15", "2023-12-15T10:00:00Z", "2023-12", "December 2023"} {
		got := parseDate(in)
		require.NotNil(t, got, in)
		assert.Equal(t, 2023, got.Year(), in)
		assert.Equal(t, time.December, got.Month(), in)
	}
	assert.Nil(t, parseDate(""))
	assert.Nil(t, parseDate("soon"))
}
