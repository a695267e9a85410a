package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abdiesu04/portfolio-chat/internal/conversation"
	"github.com/abdiesu04/portfolio-chat/internal/inference"
	"github.com/abdiesu04/portfolio-chat/internal/observability"
	"github.com/abdiesu04/portfolio-chat/internal/policy"
	"github.com/abdiesu04/portfolio-chat/internal/prompt"
)

const archiveTimeout = 3 * time.Second

// ContextProvider serves the compiled knowledge context.
type ContextProvider interface {
	Get(ctx context.Context) (string, error)
	Invalidate()
}

// Config wires a Controller. Cache, Store, Assembler and Gateway are required.
type Config struct {
	Cache     ContextProvider
	Store     *conversation.Store
	Assembler *prompt.Assembler
	Gateway   inference.Gateway
	Rules     string
	// WindowTurns bounds how much history goes into one prompt.
	WindowTurns int

	Archive  conversation.Archive
	Redactor *policy.Redactor
	Metrics  *observability.Metrics
	Logger   *log.Logger
}

// Controller runs one chat turn at a time per call: warm the context, record
// the user turn, assemble, invoke, record the reply.
//
// A user turn stays in history even when the turn later fails. If the caller
// cancels, the inference call is cancelled too and no assistant turn is
// recorded.
type Controller struct {
	cache       ContextProvider
	store       *conversation.Store
	assembler   *prompt.Assembler
	gateway     inference.Gateway
	gatewayName string
	rules       string
	windowTurns int

	archive  conversation.Archive
	redactor *policy.Redactor
	metrics  *observability.Metrics
	logger   *log.Logger
}

func NewController(cfg Config) (*Controller, error) {
	if cfg.Cache == nil || cfg.Store == nil || cfg.Assembler == nil || cfg.Gateway == nil {
		return nil, errors.New("chat controller requires cache, store, assembler and gateway")
	}
	window := cfg.WindowTurns
	if window <= 0 || window > cfg.Store.MaxTurns() {
		window = cfg.Store.MaxTurns()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		cache:       cfg.Cache,
		store:       cfg.Store,
		assembler:   cfg.Assembler,
		gateway:     cfg.Gateway,
		gatewayName: inference.Name(cfg.Gateway),
		rules:       cfg.Rules,
		windowTurns: window,
		archive:     cfg.Archive,
		redactor:    cfg.Redactor,
		metrics:     cfg.Metrics,
		logger:      logger.With("component", "chat"),
	}, nil
}

// HandleMessage answers text in the shared default conversation.
func (c *Controller) HandleMessage(ctx context.Context, text string) Result {
	return c.HandleSessionMessage(ctx, conversation.DefaultSession, text)
}

// HandleSessionMessage answers text within the given session's history.
func (c *Controller) HandleSessionMessage(ctx context.Context, sessionID, text string) Result {
	started := time.Now()
	res := c.run(ctx, sessionID, strings.TrimSpace(text))
	c.observeStage(observability.StageTurnTotal, time.Since(started))

	outcome := "success"
	if !res.Success {
		outcome = string(res.Error)
	}
	if c.metrics != nil {
		c.metrics.ObserveTurn(outcome)
		if !res.Success {
			c.metrics.ObserveOutcomeIndicator(outcome)
		}
	}
	return res
}

// InvalidateKnowledgeContext drops the cached context so the next turn
// rebuilds it from the data source. History is left untouched.
func (c *Controller) InvalidateKnowledgeContext() {
	c.cache.Invalidate()
	c.logger.Info("knowledge context invalidated")
}

// ClearHistory forgets a session's conversation.
func (c *Controller) ClearHistory(sessionID string) {
	c.store.Drop(sessionID)
}

func (c *Controller) run(ctx context.Context, sessionID, text string) Result {
	if text == "" {
		return failure(ErrorInvalidMessage)
	}
	logger := c.logger.With("session", sessionID)

	stageStart := time.Now()
	knowledgeContext, err := c.cache.Get(ctx)
	c.observeStage(observability.StageWarming, time.Since(stageStart))
	if err != nil {
		kind := classify(err)
		logger.Error("knowledge context unavailable", "kind", kind, "err", err)
		return failure(kind)
	}

	stageStart = time.Now()
	userTurn := conversation.Turn{Role: conversation.RoleUser, Text: text, At: time.Now().UTC()}
	history := c.store.Record(sessionID, userTurn, c.windowTurns)
	c.archiveTurn(sessionID, userTurn)

	assembled, history, err := c.assemble(knowledgeContext, history, text)
	c.observeStage(observability.StageAssembling, time.Since(stageStart))
	if err != nil {
		kind := classify(err)
		logger.Warn("prompt assembly failed", "kind", kind, "err", err)
		return failure(kind)
	}
	if c.metrics != nil {
		c.metrics.HistoryLength.Observe(float64(len(history)))
	}

	stageStart = time.Now()
	reply, err := c.gateway.Generate(ctx, assembled)
	took := time.Since(stageStart)
	c.observeStage(observability.StageInvoking, took)
	if c.metrics != nil {
		c.metrics.ObserveInference(c.gatewayName, took)
	}
	if err != nil {
		kind := classify(err)
		if ctx.Err() != nil {
			kind = ErrorCanceled
		} else if kind == ErrorInternal {
			kind = ErrorInferenceUnavailable
		}
		logger.Error("inference failed", "kind", kind, "gateway", c.gatewayName, "retryable", inference.IsRetryable(err), "err", err)
		return failure(kind)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		logger.Warn("inference returned blank text", "gateway", c.gatewayName)
		return failure(ErrorEmptyResponse)
	}

	stageStart = time.Now()
	assistantTurn := conversation.Turn{Role: conversation.RoleAssistant, Text: reply, At: time.Now().UTC()}
	c.store.Append(sessionID, assistantTurn)
	c.archiveTurn(sessionID, assistantTurn)
	c.observeStage(observability.StageRecording, time.Since(stageStart))

	logger.Debug("turn complete", "history_turns", len(history), "prompt_bytes", len(assembled))
	return success(reply)
}

// assemble builds the prompt, dropping the oldest history turns while it is
// over the size limit. The knowledge context and the question are never cut.
func (c *Controller) assemble(knowledgeContext string, history []conversation.Turn, text string) (string, []conversation.Turn, error) {
	for {
		out, err := c.assembler.Assemble(knowledgeContext, history, c.rules, text)
		if err == nil {
			return out, history, nil
		}
		if !errors.Is(err, prompt.ErrPromptTooLarge) || len(history) == 0 {
			return "", history, err
		}
		history = history[1:]
	}
}

func (c *Controller) archiveTurn(sessionID string, turn conversation.Turn) {
	if c.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if err := c.archive.SaveTurn(ctx, conversation.NewArchiveRecord(c.redactor, sessionID, turn)); err != nil {
		c.logger.Warn("archive turn failed", "session", sessionID, "role", turn.Role, "err", err)
		if c.metrics != nil {
			c.metrics.ArchiveFailures.Inc()
		}
	}
}

func (c *Controller) observeStage(stage string, took time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveStage(stage, took)
	}
}
