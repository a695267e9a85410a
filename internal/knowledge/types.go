package knowledge

import (
	"context"
	"time"
)

// ProfileFact is a single labelled fact about the portfolio owner, such as
// "Email" or "Location".
type ProfileFact struct {
	Label   string `json:"label" yaml:"label" bson:"label"`
	Value   string `json:"value" yaml:"value" bson:"value"`
	Visible *bool  `json:"visible,omitempty" yaml:"visible,omitempty" bson:"visible,omitempty"`
}

// Skill stores one skill entry. Proficiency is a percentage in 0..100.
type Skill struct {
	Name              string   `json:"name" yaml:"name" bson:"name"`
	Category          string   `json:"category,omitempty" yaml:"category,omitempty" bson:"category,omitempty"`
	Proficiency       *int     `json:"proficiency,omitempty" yaml:"proficiency,omitempty" bson:"proficiency,omitempty"`
	YearsOfExperience *float64 `json:"yearsOfExperience,omitempty" yaml:"yearsOfExperience,omitempty" bson:"yearsOfExperience,omitempty"`
	Visible           *bool    `json:"visible,omitempty" yaml:"visible,omitempty" bson:"visible,omitempty"`
}

// Experience stores one work-experience entry. A nil EndDate means the
// position is ongoing.
type Experience struct {
	Position     string     `json:"position,omitempty" yaml:"position,omitempty" bson:"position,omitempty"`
	Title        string     `json:"title,omitempty" yaml:"title,omitempty" bson:"title,omitempty"`
	Company      string     `json:"company" yaml:"company" bson:"company"`
	Location     string     `json:"location,omitempty" yaml:"location,omitempty" bson:"location,omitempty"`
	Description  string     `json:"description,omitempty" yaml:"description,omitempty" bson:"description,omitempty"`
	StartDate    *time.Time `json:"startDate,omitempty" yaml:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty" yaml:"endDate,omitempty" bson:"endDate,omitempty"`
	Technologies []string   `json:"technologies,omitempty" yaml:"technologies,omitempty" bson:"technologies,omitempty"`
	Achievements []string   `json:"achievements,omitempty" yaml:"achievements,omitempty" bson:"achievements,omitempty"`
	Visible      *bool      `json:"visible,omitempty" yaml:"visible,omitempty" bson:"visible,omitempty"`
}

// Education stores one education entry. A nil EndDate means it is ongoing.
type Education struct {
	Degree       string     `json:"degree,omitempty" yaml:"degree,omitempty" bson:"degree,omitempty"`
	Field        string     `json:"field,omitempty" yaml:"field,omitempty" bson:"field,omitempty"`
	Institution  string     `json:"institution" yaml:"institution" bson:"institution"`
	Location     string     `json:"location,omitempty" yaml:"location,omitempty" bson:"location,omitempty"`
	Description  string     `json:"description,omitempty" yaml:"description,omitempty" bson:"description,omitempty"`
	StartDate    *time.Time `json:"startDate,omitempty" yaml:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty" yaml:"endDate,omitempty" bson:"endDate,omitempty"`
	Achievements []string   `json:"achievements,omitempty" yaml:"achievements,omitempty" bson:"achievements,omitempty"`
	Visible      *bool      `json:"visible,omitempty" yaml:"visible,omitempty" bson:"visible,omitempty"`
}

// Certificate stores one certification.
type Certificate struct {
	Title           string     `json:"title" yaml:"title" bson:"title"`
	Issuer          string     `json:"issuer,omitempty" yaml:"issuer,omitempty" bson:"issuer,omitempty"`
	Date            *time.Time `json:"date,omitempty" yaml:"date,omitempty" bson:"date,omitempty"`
	Description     string     `json:"description,omitempty" yaml:"description,omitempty" bson:"description,omitempty"`
	Skills          []string   `json:"skills,omitempty" yaml:"skills,omitempty" bson:"skills,omitempty"`
	VerificationURL string     `json:"verificationUrl,omitempty" yaml:"verificationUrl,omitempty" bson:"verificationUrl,omitempty"`
	Visible         *bool      `json:"visible,omitempty" yaml:"visible,omitempty" bson:"visible,omitempty"`
}

// Project stores one portfolio project.
type Project struct {
	Title        string   `json:"title" yaml:"title" bson:"title"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty" bson:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty" yaml:"technologies,omitempty" bson:"technologies,omitempty"`
	LiveURL      string   `json:"liveUrl,omitempty" yaml:"liveUrl,omitempty" bson:"liveUrl,omitempty"`
	GithubURL    string   `json:"githubUrl,omitempty" yaml:"githubUrl,omitempty" bson:"githubUrl,omitempty"`
	Visible      *bool    `json:"visible,omitempty" yaml:"visible,omitempty" bson:"visible,omitempty"`
}

// Records is the full set of collections the compiler reads. Each slice is
// kept in the order the source returned it.
type Records struct {
	Profile      []ProfileFact `json:"profile" yaml:"profile"`
	Skills       []Skill       `json:"skills" yaml:"skills"`
	Experience   []Experience  `json:"experience" yaml:"experience"`
	Education    []Education   `json:"education" yaml:"education"`
	Certificates []Certificate `json:"certificates" yaml:"certificates"`
	Projects     []Project     `json:"projects" yaml:"projects"`
}

// Source reads portfolio collections. Implementations must return records in
// a stable order so the compiled context is reproducible.
type Source interface {
	Profile(ctx context.Context) ([]ProfileFact, error)
	Skills(ctx context.Context) ([]Skill, error)
	Experience(ctx context.Context) ([]Experience, error)
	Education(ctx context.Context) ([]Education, error)
	Certificates(ctx context.Context) ([]Certificate, error)
	Projects(ctx context.Context) ([]Project, error)
	Close() error
}

// IntPtr and FloatPtr help build records in literals and tests.
func IntPtr(v int) *int { return &v }

func FloatPtr(v float64) *float64 { return &v }

func TimePtr(v time.Time) *time.Time { return &v }
