package perfmon

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveExecutions(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	m := New(testConfig(), nil, WithMetrics(metrics))

	m.RecordQueryExecution("SELECT 1", ms(10), nil, nil)
	m.RecordQueryExecution("SELECT 1", ms(1500), nil, nil)
	m.RecordQueryExecution("SELECT 1", ms(6000), nil, errors.New("statement timeout"))

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.executions.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.executions.WithLabelValues("failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.slow))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.verySlow))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.timeouts))
}

func TestStatisticsCollector(t *testing.T) {
	m := New(testConfig(), nil)
	for _, v := range []int{100, 200, 300, 400, 500, 600, 700, 800, 900, 1000} {
		m.RecordQueryExecution("SELECT 1", ms(v), nil, nil)
	}

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewStatisticsCollector(m)))

	// retained + average + five percentiles
	assert.Equal(t, 7, testutil.CollectAndCount(NewStatisticsCollector(m)))

	families, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, f := range families {
		if f.GetName() != "donor_analytics_db_query_percentile_ms" {
			continue
		}
		for _, metric := range f.GetMetric() {
			if metric.GetLabel()[0].GetValue() == "p90" {
				found = true
				assert.Equal(t, 900.0, metric.GetGauge().GetValue())
			}
		}
	}
	assert.True(t, found, "p90 gauge exported")
}
