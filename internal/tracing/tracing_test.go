package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/opensource-finance/preflight/internal/domain"
)

func TestInitDisabled(t *testing.T) {
	before := otel.GetTracerProvider()

	for _, cfg := range []domain.TracingConfig{
		{Enabled: false, Endpoint: "collector:4317"},
		{Enabled: true},
	} {
		shutdown, err := Init(context.Background(), cfg, "test", nil)
		require.NoError(t, err)
		assert.NoError(t, shutdown(context.Background()))
	}

	assert.Same(t, before, otel.GetTracerProvider(), "disabled tracing must not replace the provider")
}

func TestInitEnabled(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	// The gRPC exporter connects lazily, so no collector is needed here.
	shutdown, err := Init(context.Background(), domain.TracingConfig{
		Enabled:     true,
		ServiceName: "preflight-test",
		Endpoint:    "127.0.0.1:4317",
	}, "test", nil)
	require.NoError(t, err)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok, "expected the SDK provider to be installed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}

func TestResource(t *testing.T) {
	res := newResource("", "1.2.3")

	attrs := make(map[attribute.Key]string)
	for _, kv := range res.Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "preflight", attrs["service.name"])
	assert.Equal(t, "1.2.3", attrs["service.version"])
}
