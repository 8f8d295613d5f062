package observability

import (
	"context"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_ExportsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	obs := New("observability-test", WithRegisterer(prom.NewRegistry()), WithSpanExporter(exporter))
	defer obs.Shutdown()

	ctx, parent := obs.StartSpan(context.Background(), "job", attribute.String("task_type", "calculate-assessment"))
	_, child := obs.StartSpan(ctx, "execute")
	child.End()
	parent.End()

	require.NoError(t, obs.Flush(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "execute", spans[0].Name)
	assert.Equal(t, "job", spans[1].Name)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Contains(t, spans[1].Attributes, attribute.String("task_type", "calculate-assessment"))
}

func TestMetrics_ExposedThroughRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	obs := New("observability-test", WithRegisterer(reg))
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordJobProcessed(ctx, "compute-appraisal", "completed")
	obs.RecordJobDuration(ctx, "compute-appraisal", 12*time.Millisecond, "completed")
	obs.RecordRevisions(ctx, 3)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "jobs_processed_total")
	assert.Contains(t, names, "jobs_duration_milliseconds")
	assert.Contains(t, names, "assessment_revisions_total")
	for _, name := range names {
		assert.NotContains(t, name, ".", "metric %s is not served under a dotted name", name)
	}
}

func TestNilObservability(t *testing.T) {
	var obs *Observability

	assert.NotPanics(t, func() {
		ctx, span := obs.StartSpan(context.Background(), "noop")
		span.End()
		obs.RecordJobProcessed(ctx, "x", "completed")
		obs.RecordJobDuration(ctx, "x", time.Second, "completed")
		obs.RecordRevisions(ctx, 1)
		obs.Shutdown()
	})
	assert.NoError(t, obs.Flush(context.Background()))
}
