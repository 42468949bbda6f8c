package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader so tests
// can read back what was recorded.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// counterValue reads the value of an int64 counter data point carrying the
// given attribute; -1 means no matching data point was exported.
func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name, attrKey, attrVal string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %q not exported", name)
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is not an int64 sum", name)
	}
	for _, dp := range sum.DataPoints {
		if attrKey == "" {
			return dp.Value
		}
		if v, ok := dp.Attributes.Value(attribute.Key(attrKey)); ok && v.AsString() == attrVal {
			return dp.Value
		}
	}
	return -1
}

// gaugeValue reads the current value of an int64 observable gauge; collecting
// triggers the registered callbacks.
func gaugeValue(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %q not exported", name)
	}
	g, ok := met.Data.(metricdata.Gauge[int64])
	if !ok {
		t.Fatalf("metric %q is not an int64 gauge", name)
	}
	if len(g.DataPoints) == 0 {
		t.Fatalf("metric %q has no data points", name)
	}
	return g.DataPoints[0].Value
}

// histogramCount reads the sample count of a float64 histogram.
func histogramCount(t *testing.T, reader *sdkmetric.ManualReader, name string) uint64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %q not exported", name)
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("metric %q is not a float64 histogram", name)
	}
	if len(hist.DataPoints) == 0 {
		t.Fatalf("metric %q has no data points", name)
	}
	return hist.DataPoints[0].Count
}

func TestStageDurationHistograms(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.STTDuration.Record(ctx, 0.8)
	m.LLMDuration.Record(ctx, 1.4)
	m.LLMDuration.Record(ctx, 0.9)
	m.TTSDuration.Record(ctx, 0.3)

	wantCounts := map[string]uint64{
		"fluentia.stt.duration": 1,
		"fluentia.llm.duration": 2,
		"fluentia.tts.duration": 1,
	}
	for name, want := range wantCounts {
		if got := histogramCount(t, reader, name); got != want {
			t.Errorf("%s sample count = %d, want %d", name, got, want)
		}
	}
}

func TestRecordProviderRequest_CountsByStatus(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProviderRequest(ctx, "elevenlabs", "tts", "ok")
	m.RecordProviderRequest(ctx, "elevenlabs", "tts", "ok")
	m.RecordProviderRequest(ctx, "elevenlabs", "tts", "error")

	if got := counterValue(t, reader, "fluentia.provider.requests", "status", "ok"); got != 2 {
		t.Errorf("requests with status=ok = %d, want 2", got)
	}
	if got := counterValue(t, reader, "fluentia.provider.requests", "status", "error"); got != 1 {
		t.Errorf("requests with status=error = %d, want 1", got)
	}
}

func TestRecordChatTurn_CountsByMode(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordChatTurn(ctx, "lesson")
	m.RecordChatTurn(ctx, "lesson")
	m.RecordChatTurn(ctx, "free")

	if got := counterValue(t, reader, "fluentia.chat.turns", "mode", "lesson"); got != 2 {
		t.Errorf("lesson turns = %d, want 2", got)
	}
	if got := counterValue(t, reader, "fluentia.chat.turns", "mode", "free"); got != 1 {
		t.Errorf("free turns = %d, want 1", got)
	}
}

func TestRecordProviderError(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordProviderError(context.Background(), "gtranslate", "tts")

	if got := counterValue(t, reader, "fluentia.provider.errors", "provider", "gtranslate"); got != 1 {
		t.Errorf("provider errors = %d, want 1", got)
	}
}

func TestActiveSessions_TracksCountSource(t *testing.T) {
	m, reader := newTestMetrics(t)

	var live int64 = 2
	if err := m.RegisterActiveSessions(func(context.Context) (int64, error) {
		return live, nil
	}); err != nil {
		t.Fatalf("RegisterActiveSessions: %v", err)
	}

	if got := gaugeValue(t, reader, "fluentia.sessions.active"); got != 2 {
		t.Errorf("active sessions = %d, want 2", got)
	}

	// A session expires between scrapes; the gauge follows the source.
	live = 1
	if got := gaugeValue(t, reader, "fluentia.sessions.active"); got != 1 {
		t.Errorf("active sessions after expiry = %d, want 1", got)
	}
}

func TestHTTPRequestDuration(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.HTTPRequestDuration.Record(context.Background(), 0.05,
		metric.WithAttributes(
			attribute.String("method", "GET"),
			attribute.String("path", "/api/lessons"),
		),
	)

	if got := histogramCount(t, reader, "fluentia.http.request.duration"); got != 1 {
		t.Errorf("sample count = %d, want 1", got)
	}
}

func TestDefaultMetrics_Singleton(t *testing.T) {
	if DefaultMetrics() != DefaultMetrics() {
		t.Error("DefaultMetrics returned different instances")
	}
}
