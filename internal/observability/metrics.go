package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"

	"github.com/lmring/lmring/internal/config"
)

const meterName = "github.com/lmring/lmring"

type AppMetrics struct {
	authReqDuration          metric.Float64Histogram
	authSignInCounter        metric.Int64Counter
	authSignOutCounter       metric.Int64Counter
	statusGateRejections     metric.Int64Counter
	oauthReqDuration         metric.Float64Histogram
	sessionLookupCounter     metric.Int64Counter
	sessionManagementCounter metric.Int64Counter
	botProtectionDecisions   metric.Int64Counter
	localeRedirects          metric.Int64Counter
	csrfValidationCounter    metric.Int64Counter
	middlewareValidation     metric.Int64Counter
	rateLimitDecisionCounter metric.Int64Counter
	rateLimitRetryAfter      metric.Float64Histogram
	voteCounter              metric.Int64Counter
	userProfileCounter       metric.Int64Counter
	repositoryOpsCounter     metric.Int64Counter
	databaseStartupCounter   metric.Int64Counter
	databaseStartupDuration  metric.Float64Histogram
	healthCheckResultCounter metric.Int64Counter
	healthCheckDuration      metric.Float64Histogram
	toolCommandRuns          metric.Int64Counter
	toolCommandDuration      metric.Float64Histogram
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func currentMetrics() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "auth.request.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)

	m, err := newAppMetrics(mp.Meter(meterName))
	if err != nil {
		return nil, err
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

type instrumentBuilder struct {
	meter metric.Meter
	err   error
}

func (b *instrumentBuilder) counter(name, desc string) metric.Int64Counter {
	if b.err != nil {
		return nil
	}
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		b.err = fmt.Errorf("create counter %s: %w", name, err)
	}
	return c
}

func (b *instrumentBuilder) histogram(name, unit, desc string) metric.Float64Histogram {
	if b.err != nil {
		return nil
	}
	opts := []metric.Float64HistogramOption{metric.WithDescription(desc)}
	if unit != "" {
		opts = append(opts, metric.WithUnit(unit))
	}
	h, err := b.meter.Float64Histogram(name, opts...)
	if err != nil {
		b.err = fmt.Errorf("create histogram %s: %w", name, err)
	}
	return h
}

func newAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	b := &instrumentBuilder{meter: meter}
	m := &AppMetrics{
		authReqDuration:          b.histogram("auth.request.duration", "s", "Duration of auth endpoint requests in seconds"),
		authSignInCounter:        b.counter("auth.sign_in.attempts", "Sign-in attempts by provider and outcome"),
		authSignOutCounter:       b.counter("auth.sign_out.attempts", "Sign-out attempts"),
		statusGateRejections:     b.counter("auth.status_gate.rejections", "Sign-ins rejected by the account status gate"),
		oauthReqDuration:         b.histogram("auth.oauth.request.duration", "s", "Duration of OAuth provider calls in seconds"),
		sessionLookupCounter:     b.counter("session.lookup.events", "Session lookups by source and outcome"),
		sessionManagementCounter: b.counter("session.management.events", "Session create and revoke events"),
		botProtectionDecisions:   b.counter("security.bot_protection.decisions", "Bot protection decisions by category"),
		localeRedirects:          b.counter("http.locale.redirects", "Locale routing redirects"),
		csrfValidationCounter:    b.counter("security.csrf.validation.events", "CSRF validation outcomes"),
		middlewareValidation:     b.counter("http.middleware.validation.events", "CORS and body limit outcomes"),
		rateLimitDecisionCounter: b.counter("http.rate_limit.decisions", "Rate limiter decisions"),
		rateLimitRetryAfter:      b.histogram("http.rate_limit.retry_after", "s", "Retry-after duration in seconds for throttled requests"),
		voteCounter:              b.counter("arena.vote.events", "Votes cast on model responses"),
		userProfileCounter:       b.counter("user.profile.events", "Profile reads and updates"),
		repositoryOpsCounter:     b.counter("repository.operations", "Repository operations by outcome"),
		databaseStartupCounter:   b.counter("database.startup.events", "Database startup phase outcomes"),
		databaseStartupDuration:  b.histogram("database.startup.duration", "s", "Database startup phase duration in seconds"),
		healthCheckResultCounter: b.counter("health.check.results", "Readiness dependency check results"),
		healthCheckDuration:      b.histogram("health.check.duration", "s", "Duration of health dependency checks in seconds"),
		toolCommandRuns:          b.counter("tool.command.runs", "CLI tool command runs"),
		toolCommandDuration:      b.histogram("tool.command.duration", "s", "CLI tool command duration in seconds"),
	}
	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

func RecordAuthRequestDuration(ctx context.Context, endpoint, status string, duration time.Duration) {
	if m := currentMetrics(); m != nil {
		m.authReqDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("status", status),
		))
	}
}

func RecordAuthSignIn(ctx context.Context, provider, status string) {
	if m := currentMetrics(); m != nil {
		m.authSignInCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		))
	}
}

func RecordAuthSignOut(ctx context.Context, status string) {
	if m := currentMetrics(); m != nil {
		m.authSignOutCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordStatusGateRejection(ctx context.Context, status string) {
	if m := currentMetrics(); m != nil {
		m.statusGateRejections.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordOAuthRequestDuration(ctx context.Context, provider, stage, status string, duration time.Duration) {
	if m := currentMetrics(); m != nil {
		m.oauthReqDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("stage", stage),
			attribute.String("status", status),
		))
	}
}

func RecordSessionLookup(ctx context.Context, source, outcome string) {
	if m := currentMetrics(); m != nil {
		m.sessionLookupCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordSessionManagementEvent(ctx context.Context, action, status string) {
	if m := currentMetrics(); m != nil {
		m.sessionManagementCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action", action),
			attribute.String("status", status),
		))
	}
}

func RecordBotProtectionDecision(ctx context.Context, category, outcome string) {
	if m := currentMetrics(); m != nil {
		m.botProtectionDecisions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("category", category),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordLocaleRedirect(ctx context.Context, reason string) {
	if m := currentMetrics(); m != nil {
		m.localeRedirects.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

func RecordCSRFValidation(ctx context.Context, outcome, pathGroup string) {
	if m := currentMetrics(); m != nil {
		m.csrfValidationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("outcome", outcome),
			attribute.String("path_group", pathGroup),
		))
	}
}

func RecordMiddlewareValidationEvent(ctx context.Context, middleware, outcome string) {
	if m := currentMetrics(); m != nil {
		m.middlewareValidation.Add(ctx, 1, metric.WithAttributes(
			attribute.String("middleware", middleware),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome, mode, keyType string) {
	if m := currentMetrics(); m != nil {
		m.rateLimitDecisionCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("scope", scope),
			attribute.String("outcome", outcome),
			attribute.String("mode", mode),
			attribute.String("key_type", keyType),
		))
	}
}

func RecordRateLimitRetryAfter(ctx context.Context, scope, reason string, retryAfter time.Duration) {
	if m := currentMetrics(); m != nil {
		m.rateLimitRetryAfter.Record(ctx, retryAfter.Seconds(), metric.WithAttributes(
			attribute.String("scope", scope),
			attribute.String("reason", reason),
		))
	}
}

func RecordVote(ctx context.Context, voteType, outcome string) {
	if m := currentMetrics(); m != nil {
		m.voteCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("vote_type", voteType),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordUserProfileEvent(ctx context.Context, action, outcome string) {
	if m := currentMetrics(); m != nil {
		m.userProfileCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action", action),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordRepositoryOperation(ctx context.Context, repo, operation, outcome string) {
	if m := currentMetrics(); m != nil {
		m.repositoryOpsCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("repository", repo),
			attribute.String("operation", operation),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordDatabaseStartupEvent(ctx context.Context, phase, outcome string) {
	if m := currentMetrics(); m != nil {
		m.databaseStartupCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("phase", phase),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordDatabaseStartupDuration(ctx context.Context, phase string, duration time.Duration) {
	if m := currentMetrics(); m != nil {
		m.databaseStartupDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("phase", phase),
		))
	}
}

func RecordHealthCheckResult(ctx context.Context, check, outcome string) {
	if m := currentMetrics(); m != nil {
		m.healthCheckResultCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("check", check),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordHealthCheckDuration(ctx context.Context, check string, duration time.Duration) {
	if m := currentMetrics(); m != nil {
		m.healthCheckDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("check", check),
		))
	}
}

func RecordToolCommandRun(ctx context.Context, tool, command, outcome string) {
	if m := currentMetrics(); m != nil {
		m.toolCommandRuns.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("command", command),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordToolCommandDuration(ctx context.Context, tool, command, outcome string, duration time.Duration) {
	if m := currentMetrics(); m != nil {
		m.toolCommandDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("command", command),
			attribute.String("outcome", outcome),
		))
	}
}
