// Package audit produces the AI-written sales and inventory audit.
package audit

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"farmacia-bermat/backend/internal/cache"
	"farmacia-bermat/backend/internal/domain"
	"farmacia-bermat/backend/internal/logger"
)

// FallbackMessage is returned in place of the model output whenever the
// audit cannot be produced.
const FallbackMessage = "Erro ao processar auditoria inteligente."

var ErrNoAnalyzer = errors.New("no audit provider configured")

// Analyzer sends a prompt to a language model and returns its text answer.
type Analyzer interface {
	Provider() string
	Analyze(ctx context.Context, prompt string) (string, error)
}

type Engine struct {
	analyzer Analyzer
	cache    cache.AuditCache
	cacheTTL time.Duration
	timeout  time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewEngine(analyzer Analyzer, cacheStore cache.AuditCache, cacheTTL time.Duration) *Engine {
	if cacheStore == nil {
		cacheStore = cache.NoopAuditCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &Engine{
		analyzer: analyzer,
		cache:    cacheStore,
		cacheTTL: cacheTTL,
		timeout:  45 * time.Second,
		now:      time.Now,
		log:      logger.WithComponent("audit"),
	}
}

// Run never fails: provider errors are logged and reported through the
// fallback message. Only successful answers are cached.
func (e *Engine) Run(ctx context.Context, snapshot Snapshot) domain.AuditReport {
	report := domain.AuditReport{GeneratedAt: e.now().UTC()}
	if e.analyzer == nil {
		e.log.Warn().Err(ErrNoAnalyzer).Msg("audit skipped")
		return fallback(report)
	}
	report.Provider = e.analyzer.Provider()

	prompt, err := BuildPrompt(snapshot)
	if err != nil {
		e.log.Error().Err(err).Msg("build audit prompt")
		return fallback(report)
	}

	key := buildCacheKey(report.Provider, prompt)
	if cached, ok, err := e.cache.Get(ctx, key); err == nil && ok {
		cached.Cached = true
		return *cached
	} else if err != nil {
		e.log.Warn().Err(err).Msg("audit cache read failed")
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	startedAt := time.Now()
	summary, err := e.analyzer.Analyze(callCtx, prompt)
	if err != nil || strings.TrimSpace(summary) == "" {
		if err == nil {
			err = errors.New("empty answer")
		}
		e.log.Error().Err(err).Str("provider", report.Provider).Msg("audit provider failed")
		return fallback(report)
	}
	e.log.Info().
		Str("provider", report.Provider).
		Int("invoices", len(snapshot.Invoices)).
		Dur("latency", time.Since(startedAt)).
		Msg("audit completed")

	report.Summary = strings.TrimSpace(summary)
	if err := e.cache.Set(ctx, key, &report, e.cacheTTL); err != nil {
		e.log.Warn().Err(err).Msg("audit cache write failed")
	}
	return report
}

func fallback(report domain.AuditReport) domain.AuditReport {
	report.Summary = FallbackMessage
	report.Fallback = true
	return report
}

func buildCacheKey(provider string, prompt string) string {
	sum := sha1.Sum([]byte(provider + "\n" + prompt))
	return hex.EncodeToString(sum[:])
}
