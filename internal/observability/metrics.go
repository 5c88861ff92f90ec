package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DirectionEncode = "encode"
	DirectionDecode = "decode"

	resultOK = "ok"
)

var (
	registerOnce sync.Once

	codecPasses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tlvcodec",
			Subsystem: "codec",
			Name:      "passes_total",
			Help:      "Completed top-level encode/decode passes by result.",
		},
		[]string{"direction", "struct", "result"},
	)
	codecBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tlvcodec",
			Subsystem: "codec",
			Name:      "pass_bytes",
			Help:      "Size in bytes of successfully encoded or decoded values.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		},
		[]string{"direction", "struct"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tlvcodec",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests to the inspection service.",
		},
		[]string{"service", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tlvcodec",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
)

// RegisterMetrics registers codec collectors with the default registry.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(Collectors()...)
	})
}

// Collectors exposes every collector for custom registries.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{codecPasses, codecBytes, httpRequests, httpDuration}
}

func RecordHTTPRequest(service, method, path string, status int, duration time.Duration) {
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordEncode(structName string, size int, err error) {
	record(DirectionEncode, structName, size, err)
}

func RecordDecode(structName string, size int, err error) {
	record(DirectionDecode, structName, size, err)
}

func record(direction, structName string, size int, err error) {
	result := ResultLabel(err)
	codecPasses.WithLabelValues(direction, structName, result).Inc()
	if err == nil {
		codecBytes.WithLabelValues(direction, structName).Observe(float64(size))
	}
}

// ResultLabel maps a pass error to its metric label: "ok", the tlv error
// kind, or "error" for anything else.
func ResultLabel(err error) string {
	if err == nil {
		return resultOK
	}
	if kind := tlv.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}
