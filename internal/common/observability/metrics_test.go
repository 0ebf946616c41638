package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-orchestrator/internal/common/config"
	"travel-orchestrator/internal/common/logger"
)

func TestNew_WithoutJaeger(t *testing.T) {
	obs, err := New(config.ObservabilityConfig{ServiceName: "travel-orchestrator-test"}, logger.NewTestLogger(t))
	require.NoError(t, err)

	tracer := obs.TracerProvider().Tracer("test")
	_, span := tracer.Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	obs.RecordJobProcessed(context.Background(), "analyze-message", "success")
	obs.RecordJobDuration(context.Background(), "analyze-message", 15*time.Millisecond, "success")
	obs.Shutdown(context.Background())
}
