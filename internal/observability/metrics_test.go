package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.Decodes.WithLabelValues(OutcomeOK, "").Inc()
	m.Cache.WithLabelValues("hit").Add(2)
	m.ValidFraction.Set(0.25)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "mrms_decodes_total")
	assert.Contains(t, names, "mrms_cache_total")
	assert.Contains(t, names, "mrms_valid_fraction")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Cache.WithLabelValues("hit")))
	assert.Equal(t, 0.25, testutil.ToFloat64(m.ValidFraction))
}

func TestNewMetricsDoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
