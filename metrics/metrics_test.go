package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Rows(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	require.NotNil(t, m)

	m.Decoded()
	m.Decoded()
	m.Encoded()

	require.Equal(t, float64(2), testutil.ToFloat64(m.RowsDecoded))
	require.Equal(t, float64(1), testutil.ToFloat64(m.RowsEncoded))
}

func TestMetrics_Errors(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.Skipped("data_corrupted")
	m.Skipped("data_corrupted")
	m.Failed("value_not_found")

	require.Equal(t, float64(2), testutil.ToFloat64(m.RowsSkipped))
	require.Equal(t, float64(2), testutil.ToFloat64(m.RowErrors.WithLabelValues("data_corrupted")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.RowErrors.WithLabelValues("value_not_found")))
}

func TestMetrics_Registration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Introspected(3)
	m.RowErrors.WithLabelValues("test").Add(0)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 5)

	require.Equal(t, 1, testutil.CollectAndCount(m.IntrospectionAttempts))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics

	require.NotPanics(t, func() {
		m.Decoded()
		m.Encoded()
		m.Skipped("x")
		m.Failed("x")
		m.Introspected(1)
	})
}
