// Package streaming serves the live camera view to browsers over WebRTC.
//
// A Hub encodes live JPEG frames to H.264 while at least one viewer is
// connected; a Manager owns the peer connections that share its track.
package streaming

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/smazurov/docscan/internal/capture"
	"github.com/smazurov/docscan/internal/metrics"
)

// DefaultFPS is the encoder frame rate when none is configured.
const DefaultFPS = 15

// FrameSource supplies live frames as JPEG.
type FrameSource interface {
	LiveFrame() (*capture.CapturedImage, error)
}

type sampleWriter interface {
	WriteSample(media.Sample) error
}

// HubOptions configures a Hub.
type HubOptions struct {
	Source  FrameSource
	Encoder EncoderFactory
	FPS     int
	Logger  *slog.Logger
}

// Hub runs one shared encoder for all viewers.
type Hub struct {
	source        FrameSource
	newEncoder    EncoderFactory
	frameDuration time.Duration
	logger        *slog.Logger

	track *webrtc.TrackLocalStaticSample
	sink  sampleWriter

	mu      sync.Mutex
	viewers int
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewHub creates an idle hub with its H.264 track.
func NewHub(opts HubOptions) (*Hub, error) {
	if opts.Source == nil || opts.Encoder == nil {
		return nil, errors.New("streaming: frame source and encoder are required")
	}
	fps := opts.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264, ClockRate: 90000, SDPFmtpLine: previewFmtp},
		"video", "docscan-preview",
	)
	if err != nil {
		return nil, fmt.Errorf("create preview track: %w", err)
	}

	return &Hub{
		source:        opts.Source,
		newEncoder:    opts.Encoder,
		frameDuration: time.Second / time.Duration(fps),
		logger:        logger,
		track:         track,
		sink:          track,
	}, nil
}

// Track is the video track every viewer receives.
func (h *Hub) Track() webrtc.TrackLocal {
	return h.track
}

// Acquire registers a viewer. The first viewer starts the encoder, and so
// does the next one after the encoder exited on its own.
func (h *Hub) Acquire() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.done != nil {
		select {
		case <-h.done:
			h.cancel()
			h.cancel, h.done = nil, nil
		default:
		}
	}
	if h.cancel == nil {
		if err := h.startLocked(); err != nil {
			return err
		}
	}
	h.viewers++
	return nil
}

// Release unregisters a viewer and stops the encoder after the last one.
func (h *Hub) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.viewers == 0 {
		return
	}
	h.viewers--
	if h.viewers == 0 {
		h.stopLocked()
	}
}

// Viewers is the number of registered viewers.
func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewers
}

// Close stops the encoder and forgets all viewers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.viewers = 0
	h.stopLocked()
}

func (h *Hub) startLocked() error {
	ctx, cancel := context.WithCancel(context.Background())
	enc, err := h.newEncoder(ctx)
	metrics.RecordEncoderStart(err == nil)
	if err != nil {
		cancel()
		return fmt.Errorf("start preview encoder: %w", err)
	}

	done := make(chan struct{})
	h.cancel, h.done = cancel, done
	go h.run(ctx, enc, done)
	h.logger.Info("Live preview encoder started", "frame_duration", h.frameDuration)
	return nil
}

func (h *Hub) stopLocked() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	<-h.done
	h.cancel, h.done = nil, nil
	h.logger.Info("Live preview encoder stopped")
}

// run feeds frames at the configured rate and forwards encoded access units
// to the track until ctx ends or the encoder exits.
func (h *Hub) run(ctx context.Context, enc Encoder, done chan struct{}) {
	defer close(done)

	readDone := make(chan error, 1)
	go func() {
		readDone <- splitAccessUnits(enc.Output(), func(au []byte) {
			if err := h.sink.WriteSample(media.Sample{Data: au, Duration: h.frameDuration}); err != nil {
				h.logger.Debug("Dropped preview sample", "error", err)
			}
		})
	}()

	ticker := time.NewTicker(h.frameDuration)
	defer ticker.Stop()

	var last []byte
	for {
		select {
		case <-ctx.Done():
			if err := enc.Close(); err != nil {
				h.logger.Debug("Preview encoder close", "error", err)
			}
			<-readDone
			return
		case err := <-readDone:
			_ = enc.Close()
			h.logger.Warn("Live preview encoder exited", "error", err)
			return
		case <-ticker.C:
			frame, err := h.source.LiveFrame()
			if err != nil {
				continue
			}
			if sameFrame(frame.Data, last) {
				continue
			}
			last = frame.Data
			if err := enc.WriteFrame(frame.Data); err != nil {
				h.logger.Debug("Preview encoder rejected frame", "error", err)
			}
		}
	}
}

// sameFrame reports whether a stream handed out the identical buffer again.
func sameFrame(a, b []byte) bool {
	return len(a) > 0 && len(a) == len(b) && &a[0] == &b[0]
}
