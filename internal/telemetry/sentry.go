// Package telemetry wraps sentry-go tracing for the search and feed services.
// Every helper is safe to call when Sentry was never initialised.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

const serverName = "prepwised"

const flushTimeout = 5 * time.Second

type Config struct {
	DSN         string
	Environment string
	Release     string
	Debug       bool
	// SampleRate overrides the per-environment default when non-zero.
	SampleRate float64
}

// DefaultSampleRate traces every request in development and a tenth elsewhere.
func DefaultSampleRate(environment string) float64 {
	if environment == "" || environment == "development" {
		return 1.0
	}
	return 0.1
}

// Init configures the global Sentry client and returns a flush func for
// shutdown. An empty DSN or a rejected client options set leaves tracing off;
// the server keeps running either way.
func Init(cfg Config, logger *slog.Logger) func() {
	noop := func() {}
	if cfg.DSN == "" {
		return noop
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	rate := cfg.SampleRate
	if rate == 0 {
		rate = DefaultSampleRate(cfg.Environment)
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:           cfg.DSN,
		Environment:   cfg.Environment,
		Release:       cfg.Release,
		ServerName:    serverName,
		Debug:         cfg.Debug,
		EnableTracing: true,
		TracesSampler: sampler(rate),
	})
	if err != nil {
		logger.Warn("sentry disabled", "error", err)
		return noop
	}

	logger.Info("sentry enabled", "environment", cfg.Environment, "sample_rate", rate)
	return func() { sentry.Flush(flushTimeout) }
}

// sampler follows the parent decision for child spans and never samples
// probe or scrape traffic.
func sampler(rate float64) sentry.TracesSampler {
	return func(ctx sentry.SamplingContext) float64 {
		switch ctx.Span.Name {
		case "GET /health", "GET /metrics":
			return 0
		}
		var root sentry.SpanID
		if ctx.Span.ParentSpanID != root {
			if ctx.Span.Sampled.Bool() {
				return 1
			}
			return 0
		}
		return rate
	}
}

// SpanAttributes are the tags shared by service spans. Empty fields are skipped.
type SpanAttributes struct {
	UserID     string
	Collection string
	Operation  string
}

type Span struct {
	inner *sentry.Span
}

// StartSpan opens a child of the span already in ctx, or a new transaction
// when the call did not come through the HTTP middleware (CLI, tests).
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(name)
	} else {
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}

	if attrs.UserID != "" {
		span.SetTag("user_id", attrs.UserID)
	}
	if attrs.Collection != "" {
		span.SetTag("collection", attrs.Collection)
	}
	if attrs.Operation != "" {
		span.Op = attrs.Operation
	}

	return span.Context(), &Span{inner: span}
}

func (s *Span) End() {
	if s != nil && s.inner != nil {
		s.inner.Finish()
	}
}

func (s *Span) SetData(key string, value any) {
	if s != nil && s.inner != nil {
		s.inner.SetData(key, value)
	}
}

// SetError marks the span failed and reports err on the span's hub.
func (s *Span) SetError(err error) {
	if s == nil || s.inner == nil || err == nil {
		return
	}
	s.inner.Status = sentry.SpanStatusInternalError
	hub := sentry.GetHubFromContext(s.inner.Context())
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

// AddBreadcrumb records a degraded path (collection failure, fallback feed)
// so it shows up on any error later captured in the same request.
func AddBreadcrumb(ctx context.Context, category, message string) {
	crumb := &sentry.Breadcrumb{
		Category:  category,
		Message:   message,
		Level:     sentry.LevelWarning,
		Timestamp: time.Now(),
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.AddBreadcrumb(crumb, nil)
		return
	}
	sentry.AddBreadcrumb(crumb)
}
