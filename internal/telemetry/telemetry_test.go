package telemetry

import (
	"bytes"
	"context"
	"testing"

	"storefront/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{Enabled: false})

	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupTo_ExportsSpans(t *testing.T) {
	previous := otel.GetTracerProvider()
	defer otel.SetTracerProvider(previous)

	var buf bytes.Buffer
	shutdown, err := SetupTo(context.Background(), config.TelemetryConfig{Enabled: true, ServiceName: "storefront-test"}, &buf)
	require.NoError(t, err)

	_, span := Tracer("test").Start(context.Background(), "checkout.submit")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), "checkout.submit")
	assert.Contains(t, buf.String(), "storefront-test")
}
