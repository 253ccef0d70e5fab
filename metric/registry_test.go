package metric

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	assert.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
	assert.NotNil(t, registry.CoreMetrics())
}

func TestMetricsRegistry_RegisterCounter(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter",
		Help: "A test counter",
	})

	err := registry.RegisterCounter("catalog", "test_counter", counter)
	require.NoError(t, err)

	counter.Inc()

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() == "test_counter" {
			found = true
			break
		}
	}
	assert.True(t, found, "Counter should be registered in Prometheus registry")
}

func TestMetricsRegistry_DuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dup_counter",
		Help: "A test counter",
	})

	require.NoError(t, registry.RegisterCounter("catalog", "dup_counter", counter))

	other := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dup_counter_other",
		Help: "Another counter under the same key",
	})
	err := registry.RegisterCounter("catalog", "dup_counter", other)
	assert.Error(t, err)
}

func TestMetricsRegistry_Unregister(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_gauge",
		Help: "A test gauge",
	})

	require.NoError(t, registry.RegisterGauge("cache", "test_gauge", gauge))

	assert.True(t, registry.Unregister("cache", "test_gauge"))
	assert.False(t, registry.Unregister("cache", "test_gauge"))

	// Re-registration after unregister should succeed
	require.NoError(t, registry.RegisterGauge("cache", "test_gauge", gauge))
}

func TestMetrics_RecordWrite(t *testing.T) {
	m := NewMetrics()

	m.RecordWrite("genre", "create", OutcomeApplied, 25*time.Millisecond)
	m.RecordWrite("genre", "create", OutcomeApplied, 10*time.Millisecond)
	m.RecordWrite("author", "delete", OutcomeFailed, 5*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(
		m.WritesTotal.WithLabelValues("genre", "create", OutcomeApplied)))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.WritesTotal.WithLabelValues("author", "delete", OutcomeFailed)))
}

func TestMetrics_RecordCompensation(t *testing.T) {
	m := NewMetrics()

	m.RecordCompensation("genre", true)
	m.RecordCompensation("genre", false)
	m.RecordCompensation("genre", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.CompensationsTotal.WithLabelValues("genre", "reversed")))
	assert.Equal(t, float64(2), testutil.ToFloat64(
		m.CompensationsTotal.WithLabelValues("genre", "failed")))
}

func TestMetrics_SetStoreUp(t *testing.T) {
	m := NewMetrics()

	m.SetStoreUp("mongodb", true)
	m.SetStoreUp("neo4j", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.StoreUp.WithLabelValues("mongodb")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.StoreUp.WithLabelValues("neo4j")))
}

func TestMetrics_RecordUnknownOutcome(t *testing.T) {
	m := NewMetrics()

	m.RecordUnknownOutcome("reader", "neo4j")

	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.UnknownOutcomesTotal.WithLabelValues("reader", "neo4j")))
}
