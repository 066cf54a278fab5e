// Package metrics exposes upload counters and latencies to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "imgup"

// Recorder owns the upload collectors. A nil *Recorder records nothing.
type Recorder struct {
	uploads  *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	batches  *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Objects uploaded, by provider and outcome.",
		}, []string{"provider", "outcome"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Payload bytes successfully uploaded, by provider.",
		}, []string{"provider"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Time spent in a single object upload.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Upload batches handled, by provider and outcome.",
		}, []string{"provider", "outcome"}),
	}
	reg.MustRegister(r.uploads, r.bytes, r.duration, r.batches)
	return r
}

// ObserveBatch counts a finished batch.
func (r *Recorder) ObserveBatch(provider, outcome string) {
	if r == nil {
		return
	}
	r.batches.WithLabelValues(provider, outcome).Inc()
}

// Provider returns an upload observer labelled with provider.
func (r *Recorder) Provider(provider string) *ProviderRecorder {
	return &ProviderRecorder{r: r, provider: provider}
}

// ProviderRecorder records single uploads for one provider.
type ProviderRecorder struct {
	r        *Recorder
	provider string
}

func (p *ProviderRecorder) ObserveUpload(outcome string, size int, elapsed time.Duration) {
	if p == nil || p.r == nil {
		return
	}
	p.r.uploads.WithLabelValues(p.provider, outcome).Inc()
	p.r.duration.WithLabelValues(p.provider).Observe(elapsed.Seconds())
	if size > 0 {
		p.r.bytes.WithLabelValues(p.provider).Add(float64(size))
	}
}
