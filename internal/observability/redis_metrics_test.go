package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRedisCommandStatus(t *testing.T) {
	if got := redisCommandStatus(nil); got != "success" {
		t.Fatalf("nil error: got %q", got)
	}
	if got := redisCommandStatus(redis.Nil); got != "miss" {
		t.Fatalf("redis.Nil: got %q", got)
	}
	if got := redisCommandStatus(errors.New("i/o timeout")); got != "error" {
		t.Fatalf("other error: got %q", got)
	}
}

func TestRedisMetricsHookCountsHitsAndMisses(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(ctx) }()

	hook, err := newRedisMetricsHook(provider.Meter("redis-test"))
	if err != nil {
		t.Fatalf("build hook: %v", err)
	}
	client.AddHook(hook)

	if err := client.Set(ctx, "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	_ = client.Get(ctx, "k").Err()
	_ = client.Get(ctx, "missing").Err()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var lookups int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "redis.keyspace.lookups" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				lookups += dp.Value
			}
			if len(sum.DataPoints) != 2 {
				t.Fatalf("expected hit and miss datapoints, got %d", len(sum.DataPoints))
			}
		}
	}
	if lookups != 2 {
		t.Fatalf("expected 2 lookups, got %d", lookups)
	}
}
