package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "packetctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "packetctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
	packetsDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "packetctl",
			Subsystem: "stream",
			Name:      "packets_decoded_total",
			Help:      "Packets extracted from inbound streams.",
		},
		[]string{"profile", "type"},
	)
	packetsEncoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "packetctl",
			Subsystem: "stream",
			Name:      "packets_encoded_total",
			Help:      "Packets serialized onto outbound streams.",
		},
		[]string{"profile", "type"},
	)
	payloadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "packetctl",
			Subsystem: "stream",
			Name:      "payload_bytes",
			Help:      "Payload size of decoded packets.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"profile"},
	)
	partialReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "packetctl",
			Subsystem: "stream",
			Name:      "partial_reads_total",
			Help:      "Deframing attempts that had to wait for more bytes.",
		},
		[]string{"profile"},
	)
	streamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "packetctl",
			Subsystem: "stream",
			Name:      "errors_total",
			Help:      "Streams closed because of a framing or transport error.",
		},
		[]string{"profile", "reason"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			packetsDecoded, packetsEncoded, payloadBytes, partialReads, streamErrors,
		)
	})
}

func RecordHTTPRequest(service, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordPacketEncoded(profile string, typ uint64) {
	RegisterMetrics()
	packetsEncoded.WithLabelValues(profile, typeLabel(typ)).Inc()
}

func RecordStreamError(profile, reason string) {
	RegisterMetrics()
	streamErrors.WithLabelValues(profile, reason).Inc()
}

// PacketObserver feeds deframing events into the stream metrics. It
// satisfies stream.Observer.
type PacketObserver struct {
	Profile string
}

func NewPacketObserver(profile string) PacketObserver {
	RegisterMetrics()
	return PacketObserver{Profile: profile}
}

func (o PacketObserver) FrameDecoded(typ uint64, n int) {
	packetsDecoded.WithLabelValues(o.Profile, typeLabel(typ)).Inc()
	payloadBytes.WithLabelValues(o.Profile).Observe(float64(n))
}

func (o PacketObserver) AwaitingBytes(int) {
	partialReads.WithLabelValues(o.Profile).Inc()
}

// maxLabeledType is the largest type tag that gets its own series. Tags are
// chosen by peers, so everything above it shares the "other" series.
const maxLabeledType = 255

func typeLabel(typ uint64) string {
	if typ > maxLabeledType {
		return "other"
	}
	return strconv.FormatUint(typ, 10)
}
