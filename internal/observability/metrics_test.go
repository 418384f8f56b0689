package observability

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/lmring/lmring/internal/config"
)

func recordEveryMetric(ctx context.Context) {
	RecordAuthRequestDuration(ctx, "sign_in_email", "success", 10*time.Millisecond)
	RecordAuthSignIn(ctx, "email", "success")
	RecordAuthSignOut(ctx, "success")
	RecordStatusGateRejection(ctx, "disabled")
	RecordOAuthRequestDuration(ctx, "github", "exchange", "success", 12*time.Millisecond)
	RecordSessionLookup(ctx, "cache", "hit")
	RecordSessionManagementEvent(ctx, "create", "success")
	RecordBotProtectionDecision(ctx, "automated", "deny")
	RecordLocaleRedirect(ctx, "default_prefix")
	RecordCSRFValidation(ctx, "ok", "api")
	RecordRateLimitDecision(ctx, "auth", "allow", "local", "ip")
	RecordRateLimitRetryAfter(ctx, "auth", "window", time.Second)
	RecordVote(ctx, "like", "success")
	RecordUserProfileEvent(ctx, "update", "success")
	RecordRepositoryOperation(ctx, "vote", "create", "success")
	RecordDatabaseStartupEvent(ctx, "migrate", "success")
	RecordDatabaseStartupDuration(ctx, "migrate", 15*time.Millisecond)
	RecordHealthCheckResult(ctx, "db", "ready")
	RecordHealthCheckDuration(ctx, "db", 5*time.Millisecond)
	RecordToolCommandRun(ctx, "migrate", "up", "success")
	RecordToolCommandDuration(ctx, "seed", "run", "success", 30*time.Millisecond)
}

func TestRecordMetricHelpersNoPanicWhenUninitialized(t *testing.T) {
	metricsMu.Lock()
	appMetrics = nil
	metricsMu.Unlock()

	recordEveryMetric(context.Background())
}

func TestRecordMetricHelpersEmitExpectedLabelCardinality(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(ctx) }()

	m, err := newAppMetrics(provider.Meter("observability-test"))
	if err != nil {
		t.Fatalf("build metrics: %v", err)
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()
	defer func() {
		metricsMu.Lock()
		appMetrics = nil
		metricsMu.Unlock()
	}()

	recordEveryMetric(ctx)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}

	expected := map[string]int{
		"auth.request.duration":             2,
		"auth.sign_in.attempts":             2,
		"auth.sign_out.attempts":            1,
		"auth.status_gate.rejections":       1,
		"auth.oauth.request.duration":       3,
		"session.lookup.events":             2,
		"session.management.events":         2,
		"security.bot_protection.decisions": 2,
		"http.locale.redirects":             1,
		"security.csrf.validation.events":   2,
		"http.rate_limit.decisions":         4,
		"http.rate_limit.retry_after":       2,
		"arena.vote.events":                 2,
		"user.profile.events":               2,
		"repository.operations":             3,
		"database.startup.events":           2,
		"database.startup.duration":         1,
		"health.check.results":              2,
		"health.check.duration":             1,
		"tool.command.runs":                 3,
		"tool.command.duration":             3,
	}

	observed := collectLabelCardinality(t, rm)
	for metricName, want := range expected {
		got, ok := observed[metricName]
		if !ok {
			t.Fatalf("missing metric datapoint for %s", metricName)
		}
		if got != want {
			t.Fatalf("metric %s label cardinality mismatch: got=%d want=%d", metricName, got, want)
		}
	}
}

func TestInitMetricsDisabledReturnsProvider(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{OTELMetricsEnabled: false}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mp, err := InitMetrics(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("init metrics disabled: %v", err)
	}
	if mp == nil {
		t.Fatal("expected non-nil meter provider")
	}
	_ = mp.Shutdown(ctx)
}

func collectLabelCardinality(t *testing.T, rm metricdata.ResourceMetrics) map[string]int {
	t.Helper()
	out := map[string]int{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			case metricdata.Histogram[float64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			}
		}
	}
	return out
}
