package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abdiesu04/portfolio-chat/internal/chat"
	"github.com/abdiesu04/portfolio-chat/internal/config"
	"github.com/abdiesu04/portfolio-chat/internal/conversation"
	"github.com/abdiesu04/portfolio-chat/internal/httpapi"
	"github.com/abdiesu04/portfolio-chat/internal/inference"
	"github.com/abdiesu04/portfolio-chat/internal/knowledge"
	"github.com/abdiesu04/portfolio-chat/internal/observability"
	"github.com/abdiesu04/portfolio-chat/internal/policy"
	"github.com/abdiesu04/portfolio-chat/internal/prompt"
	"github.com/abdiesu04/portfolio-chat/internal/session"
)

type BuildResult struct {
	Config     config.Config
	API        *httpapi.Server
	Sessions   *session.Manager
	Controller *chat.Controller
	Knowledge  *knowledge.Cache
	History    *conversation.Store
	Metrics    *observability.Metrics
	Gateway    string

	// Cleanup should be called on shutdown to release external resources (DB connections).
	Cleanup func() error
}

// Build wires every long-lived component. The knowledge cache and the
// conversation store are created here and injected, never held globally.
func Build(ctx context.Context, cfg config.Config, logger *log.Logger) (*BuildResult, error) {
	if logger == nil {
		logger = log.Default()
	}
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	source, err := knowledge.NewSource(ctx, knowledge.SourceConfig{
		Mode:          cfg.KnowledgeSource,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		DatabaseURL:   cfg.DatabaseURL,
		FilePath:      cfg.KnowledgeFile,
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge source init failed: %w", err)
	}

	archive, err := conversation.NewArchive(ctx, cfg.ArchiveEnabled, cfg.DatabaseURL)
	if err != nil {
		_ = source.Close()
		return nil, fmt.Errorf("transcript archive init failed: %w", err)
	}

	gateway, err := inference.NewGateway(inference.Config{
		Mode:    cfg.InferenceMode,
		BaseURL: cfg.InferenceBaseURL,
		APIKey:  cfg.InferenceAPIKey,
		Model:   cfg.InferenceModel,
		HTTPURL: cfg.InferenceHTTPURL,
		Params: inference.SamplingParams{
			Temperature: cfg.InferenceTemperature,
			TopP:        cfg.InferenceTopP,
			TopK:        cfg.InferenceTopK,
		},
	})
	if err != nil {
		_ = source.Close()
		if archive != nil {
			_ = archive.Close()
		}
		return nil, fmt.Errorf("inference gateway init failed: %w", err)
	}

	cacheLogger := logger.With("component", "knowledge")
	cache := knowledge.NewCache(knowledge.NewReader(source), knowledge.NewCompiler(cfg.OwnerName))
	cache.SetObserver(func(took time.Duration, err error) {
		metrics.ObserveContextBuild(took, err)
		if err != nil {
			cacheLogger.Error("knowledge context build failed", "took", took, "err", err)
			return
		}
		cacheLogger.Info("knowledge context built", "took", took)
	})

	history := conversation.NewStore(cfg.HistoryMaxTurns)

	controller, err := chat.NewController(chat.Config{
		Cache:       cache,
		Store:       history,
		Assembler:   prompt.NewAssembler(cfg.PromptMaxBytes),
		Gateway:     gateway,
		Rules:       prompt.DefaultRules(cfg.OwnerName),
		WindowTurns: cfg.HistoryWindowTurns,
		Archive:     archive,
		Redactor:    policy.NewRedactor(),
		Metrics:     metrics,
		Logger:      logger,
	})
	if err != nil {
		_ = source.Close()
		if archive != nil {
			_ = archive.Close()
		}
		return nil, err
	}

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(s *session.Session) {
		controller.ClearHistory(s.ID)
		metrics.SessionEvents.WithLabelValues("history_dropped").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	api := httpapi.New(cfg, sessions, controller, cache, metrics, logger)

	cleanup := func() error {
		var errs []string
		if archive != nil {
			if err := archive.Close(); err != nil {
				errs = append(errs, err.Error())
			}
		}
		if err := source.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:     cfg,
		API:        api,
		Sessions:   sessions,
		Controller: controller,
		Knowledge:  cache,
		History:    history,
		Metrics:    metrics,
		Gateway:    inference.Name(gateway),
		Cleanup:    cleanup,
	}, nil
}
