package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/tomasbasham/imgup/internal/metrics"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := metrics.NewRecorder(reg)

	p := r.Provider("aws-s3")
	p.ObserveUpload("success", 100, time.Millisecond)
	p.ObserveUpload("success", 50, time.Millisecond)
	p.ObserveUpload("failure", 0, time.Millisecond)
	r.ObserveBatch("aws-s3", "failure")

	n, err := testutil.GatherAndCount(reg, "imgup_uploads_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := testutil.GatherAndCount(reg, "imgup_batches_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilRecorder(t *testing.T) {
	var r *metrics.Recorder
	assert.NotPanics(t, func() {
		r.ObserveBatch("aws-s3", "success")
		r.Provider("aws-s3").ObserveUpload("success", 1, time.Second)
	})
}
