package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	previewPeers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "docscan",
		Subsystem: "preview",
		Name:      "webrtc_peers",
		Help:      "WebRTC live preview connections currently open",
	})

	previewPackets = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "docscan",
		Subsystem: "preview",
		Name:      "rtp_packets_total",
		Help:      "RTP packets sent to live preview peers",
	})

	previewBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "docscan",
		Subsystem: "preview",
		Name:      "rtp_bytes_total",
		Help:      "RTP payload bytes sent to live preview peers",
	})

	previewFeedback = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docscan",
		Subsystem: "preview",
		Name:      "rtcp_feedback_total",
		Help:      "Loss feedback received from preview peers by type (nack, pli, fir)",
	}, []string{"type"})

	previewEncoderStarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docscan",
		Subsystem: "preview",
		Name:      "encoder_starts_total",
		Help:      "H.264 preview encoder launches by result",
	}, []string{"result"})
)

// SetPreviewPeers sets the number of open WebRTC preview connections.
func SetPreviewPeers(n int) {
	previewPeers.Set(float64(n))
}

// RecordPreviewPacket counts one RTP packet sent to a preview peer.
func RecordPreviewPacket(payloadBytes int) {
	previewPackets.Inc()
	previewBytes.Add(float64(payloadBytes))
}

// RecordPreviewFeedback counts RTCP loss feedback; kind is nack, pli or fir.
func RecordPreviewFeedback(kind string, count int) {
	previewFeedback.WithLabelValues(kind).Add(float64(count))
}

// RecordEncoderStart counts preview encoder launches.
func RecordEncoderStart(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	previewEncoderStarts.WithLabelValues(result).Inc()
}
