// Package metrics provides Prometheus metrics for the camera session and scan pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Save outcomes used as the "outcome" label.
const (
	SaveOutcomeSuccess   = "success"
	SaveOutcomeRejected  = "rejected"
	SaveOutcomeTransport = "transport"
)

var (
	cameraStreamsHeld = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "docscan",
		Subsystem: "camera",
		Name:      "streams_held",
		Help:      "Camera streams currently held open (never more than one)",
	})

	cameraSessionStarts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "docscan",
		Subsystem: "camera",
		Name:      "session_starts_total",
		Help:      "Camera sessions that reached the active state",
	})

	cameraSessionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docscan",
		Subsystem: "camera",
		Name:      "session_failures_total",
		Help:      "Camera session start failures by reason",
	}, []string{"reason"})

	captureTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "docscan",
		Subsystem: "capture",
		Name:      "images_total",
		Help:      "Frames captured, enhanced and encoded",
	})

	captureDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "docscan",
		Subsystem: "capture",
		Name:      "duration_seconds",
		Help:      "Time to capture, enhance and encode one frame",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	savesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docscan",
		Subsystem: "save",
		Name:      "requests_total",
		Help:      "Submissions to the save endpoint by outcome",
	}, []string{"outcome"})

	hotplugEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docscan",
		Subsystem: "camera",
		Name:      "hotplug_events_total",
		Help:      "Kernel video device add and remove events",
	}, []string{"action"})

	camerasPresent = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "docscan",
		Subsystem: "camera",
		Name:      "devices_present",
		Help:      "Video inputs found by the last availability check",
	})
)

// StreamAcquired records that a camera stream was opened.
func StreamAcquired() {
	cameraStreamsHeld.Inc()
}

// StreamReleased records that a camera stream was closed.
func StreamReleased() {
	cameraStreamsHeld.Dec()
}

// RecordSessionStart counts a session that became active.
func RecordSessionStart() {
	cameraSessionStarts.Inc()
}

// RecordSessionFailure counts a failed start, labelled by reason.
func RecordSessionFailure(reason string) {
	cameraSessionFailures.WithLabelValues(reason).Inc()
}

// ObserveCapture records one completed capture.
func ObserveCapture(d time.Duration) {
	captureTotal.Inc()
	captureDuration.Observe(d.Seconds())
}

// RecordSave counts one save attempt with the given outcome.
func RecordSave(outcome string) {
	savesTotal.WithLabelValues(outcome).Inc()
}

// RecordHotplug counts one video device add or remove.
func RecordHotplug(action string) {
	hotplugEvents.WithLabelValues(action).Inc()
}

// SetCamerasPresent records the device count from an availability check.
func SetCamerasPresent(n int) {
	camerasPresent.Set(float64(n))
}
