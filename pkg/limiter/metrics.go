package limiter

// Metric names emitted by the store.
const (
	metricCall      = "ratelimit.call"
	metricLatency   = "ratelimit.latency"
	metricEvictions = "ratelimit.evictions"
)

// MetricsRecorder receives counters and timings from the store. Implement it
// to bridge into your metrics backend, or use NewPrometheusRecorder.
type MetricsRecorder interface {
	Add(name string, value float64, tags map[string]string)
	Observe(name string, value float64, tags map[string]string)
}

// NoOpMetricsRecorder is a placeholder that does nothing.
// It ensures we never have to check 'if r.recorder != nil' in our hot path.
type NoOpMetricsRecorder struct{}

func (n *NoOpMetricsRecorder) Add(name string, value float64, tags map[string]string)     {}
func (n *NoOpMetricsRecorder) Observe(name string, value float64, tags map[string]string) {}
