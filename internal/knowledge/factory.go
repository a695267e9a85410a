package knowledge

import (
	"context"
	"fmt"
	"strings"
)

// SourceConfig controls source construction.
type SourceConfig struct {
	Mode          string
	MongoURI      string
	MongoDatabase string
	DatabaseURL   string
	FilePath      string
}

// NewSource builds the configured source. In auto mode the first configured
// backend wins: Mongo, then Postgres, then a seed file, then an empty
// in-memory source.
func NewSource(ctx context.Context, cfg SourceConfig) (Source, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		switch {
		case strings.TrimSpace(cfg.MongoURI) != "":
			return NewMongoSource(ctx, cfg.MongoURI, cfg.MongoDatabase)
		case strings.TrimSpace(cfg.DatabaseURL) != "":
			return NewPostgresSource(ctx, cfg.DatabaseURL)
		case strings.TrimSpace(cfg.FilePath) != "":
			return NewFileSource(cfg.FilePath)
		default:
			return NewMemorySource(Records{}), nil
		}
	case "mongo":
		if strings.TrimSpace(cfg.MongoURI) == "" {
			return nil, fmt.Errorf("mongo uri is required for mongo knowledge source")
		}
		return NewMongoSource(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, fmt.Errorf("database url is required for postgres knowledge source")
		}
		return NewPostgresSource(ctx, cfg.DatabaseURL)
	case "file":
		return NewFileSource(cfg.FilePath)
	case "memory":
		return NewMemorySource(Records{}), nil
	default:
		return nil, fmt.Errorf("unsupported knowledge source %q", cfg.Mode)
	}
}
