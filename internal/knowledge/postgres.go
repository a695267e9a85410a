package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource reads portfolio collections from PostgreSQL. Every query
// orders by sort_order then id so the compiled context is stable.
type PostgresSource struct {
	pool *pgxpool.Pool
}

func NewPostgresSource(ctx context.Context, databaseURL string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initKnowledgeSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresSource{pool: pool}, nil
}

func initKnowledgeSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profile_facts (
			id BIGSERIAL PRIMARY KEY,
			label TEXT NOT NULL,
			value TEXT NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0,
			visible BOOLEAN NOT NULL DEFAULT TRUE
		);`,
		`CREATE TABLE IF NOT EXISTS skills (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			proficiency INTEGER NULL,
			years_of_experience DOUBLE PRECISION NULL,
			sort_order INTEGER NOT NULL DEFAULT 0,
			visible BOOLEAN NOT NULL DEFAULT TRUE
		);`,
		`CREATE TABLE IF NOT EXISTS experience (
			id BIGSERIAL PRIMARY KEY,
			position TEXT NOT NULL DEFAULT '',
			company TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			start_date TIMESTAMPTZ NULL,
			end_date TIMESTAMPTZ NULL,
			technologies TEXT[] NOT NULL DEFAULT '{}',
			achievements TEXT[] NOT NULL DEFAULT '{}',
			sort_order INTEGER NOT NULL DEFAULT 0,
			visible BOOLEAN NOT NULL DEFAULT TRUE
		);`,
		`CREATE TABLE IF NOT EXISTS education (
			id BIGSERIAL PRIMARY KEY,
			degree TEXT NOT NULL DEFAULT '',
			field TEXT NOT NULL DEFAULT '',
			institution TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			start_date TIMESTAMPTZ NULL,
			end_date TIMESTAMPTZ NULL,
			achievements TEXT[] NOT NULL DEFAULT '{}',
			sort_order INTEGER NOT NULL DEFAULT 0,
			visible BOOLEAN NOT NULL DEFAULT TRUE
		);`,
		`CREATE TABLE IF NOT EXISTS certificates (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			issuer TEXT NOT NULL DEFAULT '',
			issued_at TIMESTAMPTZ NULL,
			description TEXT NOT NULL DEFAULT '',
			skills TEXT[] NOT NULL DEFAULT '{}',
			verification_url TEXT NOT NULL DEFAULT '',
			sort_order INTEGER NOT NULL DEFAULT 0,
			visible BOOLEAN NOT NULL DEFAULT TRUE
		);`,
		`CREATE TABLE IF NOT EXISTS projects (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			technologies TEXT[] NOT NULL DEFAULT '{}',
			live_url TEXT NOT NULL DEFAULT '',
			github_url TEXT NOT NULL DEFAULT '',
			sort_order INTEGER NOT NULL DEFAULT 0,
			visible BOOLEAN NOT NULL DEFAULT TRUE
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init knowledge schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresSource) Profile(ctx context.Context) ([]ProfileFact, error) {
	return queryAll(ctx, s.pool,
		`SELECT label, value FROM profile_facts WHERE visible ORDER BY sort_order, id`,
		func(row pgx.Rows) (ProfileFact, error) {
			var p ProfileFact
			err := row.Scan(&p.Label, &p.Value)
			return p, err
		})
}

func (s *PostgresSource) Skills(ctx context.Context) ([]Skill, error) {
	return queryAll(ctx, s.pool,
		`SELECT name, category, proficiency, years_of_experience
		 FROM skills WHERE visible ORDER BY sort_order, id`,
		func(row pgx.Rows) (Skill, error) {
			var sk Skill
			err := row.Scan(&sk.Name, &sk.Category, &sk.Proficiency, &sk.YearsOfExperience)
			return sk, err
		})
}

func (s *PostgresSource) Experience(ctx context.Context) ([]Experience, error) {
	return queryAll(ctx, s.pool,
		`SELECT position, company, location, description, start_date, end_date, technologies, achievements
		 FROM experience WHERE visible ORDER BY sort_order, id`,
		func(row pgx.Rows) (Experience, error) {
			var e Experience
			err := row.Scan(&e.Position, &e.Company, &e.Location, &e.Description,
				&e.StartDate, &e.EndDate, &e.Technologies, &e.Achievements)
			return e, err
		})
}

func (s *PostgresSource) Education(ctx context.Context) ([]Education, error) {
	return queryAll(ctx, s.pool,
		`SELECT degree, field, institution, location, description, start_date, end_date, achievements
		 FROM education WHERE visible ORDER BY sort_order, id`,
		func(row pgx.Rows) (Education, error) {
			var e Education
			err := row.Scan(&e.Degree, &e.Field, &e.Institution, &e.Location, &e.Description,
				&e.StartDate, &e.EndDate, &e.Achievements)
			return e, err
		})
}

func (s *PostgresSource) Certificates(ctx context.Context) ([]Certificate, error) {
	return queryAll(ctx, s.pool,
		`SELECT title, issuer, issued_at, description, skills, verification_url
		 FROM certificates WHERE visible ORDER BY sort_order, id`,
		func(row pgx.Rows) (Certificate, error) {
			var c Certificate
			err := row.Scan(&c.Title, &c.Issuer, &c.Date, &c.Description, &c.Skills, &c.VerificationURL)
			return c, err
		})
}

func (s *PostgresSource) Projects(ctx context.Context) ([]Project, error) {
	return queryAll(ctx, s.pool,
		`SELECT title, description, technologies, live_url, github_url
		 FROM projects WHERE visible ORDER BY sort_order, id`,
		func(row pgx.Rows) (Project, error) {
			var p Project
			err := row.Scan(&p.Title, &p.Description, &p.Technologies, &p.LiveURL, &p.GithubURL)
			return p, err
		})
}

func (s *PostgresSource) Close() error {
	s.pool.Close()
	return nil
}

func queryAll[T any](ctx context.Context, pool *pgxpool.Pool, sql string, scan func(pgx.Rows) (T, error)) ([]T, error) {
	rows, err := pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
