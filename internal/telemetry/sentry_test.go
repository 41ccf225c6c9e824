package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSampleRate(t *testing.T) {
	assert.Equal(t, 1.0, DefaultSampleRate("development"))
	assert.Equal(t, 1.0, DefaultSampleRate(""))
	assert.Equal(t, 0.1, DefaultSampleRate("production"))
}

func TestInit_EmptyDSNIsNoop(t *testing.T) {
	flush := Init(Config{}, nil)
	assert.NotPanics(t, flush)
}

func TestSpan_WithoutClient(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "SearchService.Search", SpanAttributes{
		UserID:    "u1",
		Operation: "search",
	})
	assert.NotNil(t, ctx)

	assert.NotPanics(t, func() {
		span.SetData("total", 3)
		span.SetError(errors.New("boom"))
		span.SetError(nil)
		AddBreadcrumb(ctx, "search", "collection material search failed")
		span.End()
	})
}

func TestSpan_NilSafe(t *testing.T) {
	var span *Span
	assert.NotPanics(t, func() {
		span.SetData("k", 1)
		span.SetError(errors.New("boom"))
		span.End()
	})
}
