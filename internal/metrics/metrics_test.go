package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.Fetch("contacts", "getMany")
	m.Fetch("contacts", "getMany")
	m.Request("refs")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetches.WithLabelValues("contacts", "getMany")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("refs")))
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestNilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Fetch("t", "op")
		m.Request("k")
	})
}
