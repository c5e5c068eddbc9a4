package net

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"cobble/protocol"
)

var (
	registerOnce sync.Once

	framesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cobble",
			Subsystem: "net",
			Name:      "frames_received_total",
			Help:      "Frames received, by connection phase.",
		},
		[]string{"phase"},
	)
	frameBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cobble",
			Subsystem: "net",
			Name:      "frame_bytes",
			Help:      "Size of received frame bodies in bytes.",
			Buckets:   prometheus.ExponentialBuckets(8, 4, 8),
		},
		[]string{"phase"},
	)
	packetsDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cobble",
			Subsystem: "protocol",
			Name:      "packets_decoded_total",
			Help:      "Packets decoded, by registry and packet name.",
		},
		[]string{"registry", "packet"},
	)
	packetsEncoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cobble",
			Subsystem: "protocol",
			Name:      "packets_encoded_total",
			Help:      "Packets encoded, by registry and packet name.",
		},
		[]string{"registry", "packet"},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cobble",
			Subsystem: "protocol",
			Name:      "decode_errors_total",
			Help:      "Frames that failed to decode, by registry and reason.",
		},
		[]string{"registry", "reason", "action"},
	)
	disconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cobble",
			Subsystem: "net",
			Name:      "disconnects_total",
			Help:      "Connections closed by the server, by reason.",
		},
		[]string{"reason"},
	)
	sessionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cobble",
			Subsystem: "net",
			Name:      "sessions_open",
			Help:      "Currently open sessions.",
		},
	)
	keepAliveLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cobble",
			Subsystem: "net",
			Name:      "keepalive_latency_seconds",
			Help:      "Round trip time of keep alive probes in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	handlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cobble",
			Subsystem: "net",
			Name:      "handler_duration_seconds",
			Help:      "Packet handler duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"packet"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesReceived, frameBytes, packetsDecoded, packetsEncoded,
			decodeErrors, disconnects, sessionsOpen, keepAliveLatency, handlerDuration)
	})
}

func RecordFrame(phase protocol.Phase, size int) {
	RegisterMetrics()
	framesReceived.WithLabelValues(phase.String()).Inc()
	frameBytes.WithLabelValues(phase.String()).Observe(float64(size))
}

func RecordDecoded(registry, packet string) {
	RegisterMetrics()
	packetsDecoded.WithLabelValues(registry, packet).Inc()
}

func RecordEncoded(registry, packet string) {
	RegisterMetrics()
	packetsEncoded.WithLabelValues(registry, packet).Inc()
}

func RecordDecodeError(registry string, err error, action string) {
	RegisterMetrics()
	decodeErrors.WithLabelValues(registry, errorReason(err), action).Inc()
}

func RecordDisconnect(reason string) {
	RegisterMetrics()
	disconnects.WithLabelValues(reason).Inc()
}

func RecordSessionOpened() {
	RegisterMetrics()
	sessionsOpen.Inc()
}

func RecordSessionClosed() {
	RegisterMetrics()
	sessionsOpen.Dec()
}

func RecordKeepAlive(rtt time.Duration) {
	RegisterMetrics()
	keepAliveLatency.Observe(rtt.Seconds())
}

func RecordHandler(packet string, duration time.Duration) {
	RegisterMetrics()
	handlerDuration.WithLabelValues(packet).Observe(duration.Seconds())
}

// errorReason maps a decode failure to a low cardinality label.
func errorReason(err error) string {
	switch {
	case errors.Is(err, protocol.ErrUnknownPacketID):
		return "unknown_packet"
	case errors.Is(err, protocol.ErrUnknownVariant):
		return "unknown_variant"
	case errors.Is(err, protocol.ErrTruncatedInput):
		return "truncated"
	case errors.Is(err, protocol.ErrTrailingBytes):
		return "trailing_bytes"
	case errors.Is(err, protocol.ErrCorruptVarInt), errors.Is(err, protocol.ErrCorruptVarLong):
		return "corrupt_varint"
	case errors.Is(err, protocol.ErrInvalidUTF8), errors.Is(err, protocol.ErrStringTooLong):
		return "bad_string"
	case errors.Is(err, ErrFrameTooLarge):
		return "frame_too_large"
	}
	return "other"
}
