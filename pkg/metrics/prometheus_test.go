package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordAttempt("news", "NewsAPI", "http", 0.2)
	r.RecordAttempt("news", "GNews", "ok", 0.1)
	r.RecordServed("news", "GNews")
	r.RecordCache("set", "ok")
	r.RecordExhausted("crypto")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.attempts.WithLabelValues("news", "NewsAPI", "http")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.served.WithLabelValues("news", "GNews")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.exhausted.WithLabelValues("crypto")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRecorderSeparateRegistries(t *testing.T) {
	// two recorders on their own registries must not collide
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.RecordAttempt("a", "b", "ok", 1)
	r.RecordServed("a", "cache")
	r.HTTPStarted("/", "GET")
	r.HTTPFinished("/", "GET", "200", "2xx", 0.1, 10)
}
