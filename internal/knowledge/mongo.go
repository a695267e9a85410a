package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultMongoDatabase = "portfolio"

// MongoSource reads portfolio collections written by the admin app. Date
// fields may be stored either as BSON dates or as strings, so they are
// decoded raw and parsed here.
type MongoSource struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoSource(ctx context.Context, uri, database string) (*MongoSource, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(strings.TrimSpace(uri)))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	if strings.TrimSpace(database) == "" {
		database = defaultMongoDatabase
	}
	return &MongoSource{client: client, db: client.Database(database)}, nil
}

type mongoExperience struct {
	Position     string        `bson:"position,omitempty"`
	Title        string        `bson:"title,omitempty"`
	Company      string        `bson:"company"`
	Location     string        `bson:"location,omitempty"`
	Description  string        `bson:"description,omitempty"`
	StartDate    bson.RawValue `bson:"startDate,omitempty"`
	EndDate      bson.RawValue `bson:"endDate,omitempty"`
	Technologies []string      `bson:"technologies,omitempty"`
	Achievements []string      `bson:"achievements,omitempty"`
	Visible      *bool         `bson:"visible,omitempty"`
}

type mongoEducation struct {
	Degree       string        `bson:"degree,omitempty"`
	Field        string        `bson:"field,omitempty"`
	Institution  string        `bson:"institution"`
	Location     string        `bson:"location,omitempty"`
	Description  string        `bson:"description,omitempty"`
	StartDate    bson.RawValue `bson:"startDate,omitempty"`
	EndDate      bson.RawValue `bson:"endDate,omitempty"`
	Achievements []string      `bson:"achievements,omitempty"`
	Visible      *bool         `bson:"visible,omitempty"`
}

type mongoCertificate struct {
	Title           string        `bson:"title"`
	Issuer          string        `bson:"issuer,omitempty"`
	Date            bson.RawValue `bson:"date,omitempty"`
	Description     string        `bson:"description,omitempty"`
	Skills          []string      `bson:"skills,omitempty"`
	VerificationURL string        `bson:"verificationUrl,omitempty"`
	Visible         *bool         `bson:"visible,omitempty"`
}

func (s *MongoSource) Profile(ctx context.Context) ([]ProfileFact, error) {
	return findAll[ProfileFact](ctx, s.db.Collection("profile"))
}

func (s *MongoSource) Skills(ctx context.Context) ([]Skill, error) {
	return findAll[Skill](ctx, s.db.Collection("skills"))
}

func (s *MongoSource) Experience(ctx context.Context) ([]Experience, error) {
	docs, err := findAll[mongoExperience](ctx, s.db.Collection("experience"))
	if err != nil {
		return nil, err
	}
	out := make([]Experience, 0, len(docs))
	for _, d := range docs {
		out = append(out, Experience{
			Position:     d.Position,
			Title:        d.Title,
			Company:      d.Company,
			Location:     d.Location,
			Description:  d.Description,
			StartDate:    rawTime(d.StartDate),
			EndDate:      rawTime(d.EndDate),
			Technologies: d.Technologies,
			Achievements: d.Achievements,
			Visible:      d.Visible,
		})
	}
	return out, nil
}

func (s *MongoSource) Education(ctx context.Context) ([]Education, error) {
	docs, err := findAll[mongoEducation](ctx, s.db.Collection("education"))
	if err != nil {
		return nil, err
	}
	out := make([]Education, 0, len(docs))
	for _, d := range docs {
		out = append(out, Education{
			Degree:       d.Degree,
			Field:        d.Field,
			Institution:  d.Institution,
			Location:     d.Location,
			Description:  d.Description,
			StartDate:    rawTime(d.StartDate),
			EndDate:      rawTime(d.EndDate),
			Achievements: d.Achievements,
			Visible:      d.Visible,
		})
	}
	return out, nil
}

func (s *MongoSource) Certificates(ctx context.Context) ([]Certificate, error) {
	docs, err := findAll[mongoCertificate](ctx, s.db.Collection("certificates"))
	if err != nil {
		return nil, err
	}
	out := make([]Certificate, 0, len(docs))
	for _, d := range docs {
		out = append(out, Certificate{
			Title:           d.Title,
			Issuer:          d.Issuer,
			Date:            rawTime(d.Date),
			Description:     d.Description,
			Skills:          d.Skills,
			VerificationURL: d.VerificationURL,
			Visible:         d.Visible,
		})
	}
	return out, nil
}

func (s *MongoSource) Projects(ctx context.Context) ([]Project, error) {
	return findAll[Project](ctx, s.db.Collection("projects"))
}

func (s *MongoSource) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func findAll[T any](ctx context.Context, coll *mongo.Collection) ([]T, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "order", Value: 1},
		{Key: "createdAt", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

func rawTime(v bson.RawValue) *time.Time {
	switch v.Type {
	case bson.TypeDateTime:
		t := v.Time().UTC()
		return &t
	case bson.TypeString:
		return parseDate(v.StringValue())
	default:
		return nil
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"January 2006",
	"Jan 2006",
}

// parseDate accepts the date shapes the admin forms have produced over time.
// Unparseable or empty values count as absent.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
