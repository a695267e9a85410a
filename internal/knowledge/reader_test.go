package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct {
	*MemorySource
	err error
}

func (s failingSource) Education(context.Context) ([]Education, error) {
	return nil, s.err
}

func TestFetchAllReturnsEveryCollection(t *testing.T) {
	r := NewReader(NewMemorySource(sampleRecords()))

	got, err := r.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got.Profile, 2)
	assert.Len(t, got.Skills, 2)
	assert.Len(t, got.Experience, 1)
	assert.Len(t, got.Education, 1)
	assert.Len(t, got.Certificates, 1)
	assert.Len(t, got.Projects, 1)
}

func TestFetchAllFailsWhole(t *testing.T) {
	boom := errors.New("connection refused")
	r := NewReader(failingSource{MemorySource: NewMemorySource(sampleRecords()), err: boom})

	got, err := r.FetchAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataSource)
	assert.ErrorIs(t, err, boom)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "education", fe.Collection)
	assert.Empty(t, got.Skills)
}

func TestFetchAllWithoutSource(t *testing.T) {
	_, err := NewReader(nil).FetchAll(context.Background())
	assert.ErrorIs(t, err, ErrDataSource)
}

func TestNormalizeDropsInvalidRecords(t *testing.T) {
	hidden := false
	in := Records{
		Profile:    []ProfileFact{{Label: " Email ", Value: " a@b.co "}, {Label: "Phone", Value: ""}},
		Skills:     []Skill{{Name: "  "}, {Name: "Go", Proficiency: IntPtr(140), YearsOfExperience: FloatPtr(-2)}, {Name: "Java", Visible: &hidden}},
		Experience: []Experience{{Title: "Engineer", Company: "Acme", Technologies: []string{" Go ", "", "  "}}, {Position: "Intern"}},
		Projects:   []Project{{Title: "x", Technologies: []string{""}}},
	}

	out := Normalize(in)

	require.Len(t, out.Profile, 1)
	assert.Equal(t, ProfileFact{Label: "Email", Value: "a@b.co"}, out.Profile[0])
	require.Len(t, out.Skills, 1)
	assert.Equal(t, 100, *out.Skills[0].Proficiency)
	assert.Nil(t, out.Skills[0].YearsOfExperience)
	require.Len(t, out.Experience, 1)
	assert.Equal(t, "Engineer", out.Experience[0].Position)
	assert.Equal(t, []string{"Go"}, out.Experience[0].Technologies)
	require.Len(t, out.Projects, 1)
	assert.Nil(t, out.Projects[0].Technologies)
}
