package limiter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder is a MetricsRecorder backed by Prometheus collectors.
type PrometheusRecorder struct {
	calls     *prometheus.CounterVec
	latency   prometheus.Histogram
	evictions prometheus.Counter
}

// NewPrometheusRecorder registers the limiter's collectors with reg and
// returns a recorder suitable for WithRecorder. Registering the same
// Registerer twice panics (duplicate collectors), so construct one recorder
// per process and share it across stores.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ratelimit_calls_total",
			Help: "Rate limit checks performed, partitioned by outcome.",
		}, []string{"allowed"}),
		latency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ratelimit_check_duration_seconds",
			Help:    "Latency of rate limit checks.",
			Buckets: prometheus.DefBuckets,
		}),
		evictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "ratelimit_evictions_total",
			Help: "Idle buckets removed by the background sweep.",
		}),
	}
}

// Add implements MetricsRecorder.
func (p *PrometheusRecorder) Add(name string, value float64, tags map[string]string) {
	switch name {
	case metricCall:
		p.calls.With(prometheus.Labels{"allowed": tags["allowed"]}).Add(value)
	case metricEvictions:
		p.evictions.Add(value)
	}
}

// Observe implements MetricsRecorder.
func (p *PrometheusRecorder) Observe(name string, value float64, tags map[string]string) {
	if name == metricLatency {
		p.latency.Observe(value)
	}
}
