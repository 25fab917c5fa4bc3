package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()

	a := New("bizdesk", reg)
	b := New("bizdesk", reg)

	a.SearchRequests.WithLabelValues("cache").Inc()
	b.SearchRequests.WithLabelValues("cache").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(a.SearchRequests.WithLabelValues("cache")))
}

func TestNop_Independent(t *testing.T) {
	m := Nop()
	m.PaymentsRecorded.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PaymentsRecorded))
}
