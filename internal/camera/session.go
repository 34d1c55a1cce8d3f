package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/docscan/internal/metrics"
)

// DefaultReadyTimeout bounds the wait for stream metadata.
const DefaultReadyTimeout = 10 * time.Second

// State is the session lifecycle state.
type State string

// Session states.
const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateActive   State = "active"
	StateFailed   State = "failed"
)

// StateChange is delivered to the session observer after every transition.
type StateChange struct {
	State    State
	Facing   Facing
	Settings Settings
	Err      error
}

// SessionOptions configures a Session.
type SessionOptions struct {
	Platform     Platform
	Logger       *slog.Logger
	ReadyTimeout time.Duration
	// Facing is the initial facing; empty means DefaultFacing.
	Facing Facing
	// OnStateChange is called synchronously while the session lock is held.
	// It must not call back into the session.
	OnStateChange func(StateChange)
}

// Session is the camera state machine. It is safe for concurrent use.
type Session struct {
	platform     Platform
	logger       *slog.Logger
	readyTimeout time.Duration
	observe      func(StateChange)

	mu       sync.RWMutex
	state    State
	facing   Facing
	stream   Stream
	settings Settings
	lastErr  error
}

// NewSession creates an idle session.
func NewSession(opts SessionOptions) *Session {
	s := &Session{
		platform:     opts.Platform,
		logger:       opts.Logger,
		readyTimeout: opts.ReadyTimeout,
		observe:      opts.OnStateChange,
		state:        StateIdle,
		facing:       DefaultFacing,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.readyTimeout <= 0 {
		s.readyTimeout = DefaultReadyTimeout
	}
	if opts.Facing != "" {
		s.facing = opts.Facing
	}
	return s
}

// Start acquires a stream for facing, releasing any stream already held.
func (s *Session) Start(ctx context.Context, facing Facing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(ctx, facing)
}

// Stop releases the stream. Calling it on an idle session is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// SwitchFacing toggles the facing. When active, the current stream is
// stopped and exactly one new stream is acquired for the new facing.
func (s *Session) SwitchFacing(ctx context.Context) (Facing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.facing.Toggle()
	s.logger.Info("Switching camera facing", "from", s.facing, "to", next, "state", s.state)
	s.facing = next

	if s.state != StateActive {
		return next, nil
	}
	s.stopLocked()
	return next, s.startLocked(ctx, next)
}

// Frame returns the current live frame.
func (s *Session) Frame() (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != StateActive || s.stream == nil {
		return nil, ErrNotActive
	}
	return s.stream.Frame()
}

// Preview returns the newest frame for display. It does not wait for a start
// or stop in progress and reports ErrNotActive instead. Streams implementing
// JPEGSource return their JPEG as data with a nil image.
func (s *Session) Preview() (data []byte, img image.Image, err error) {
	if !s.mu.TryRLock() {
		return nil, nil, ErrNotActive
	}
	defer s.mu.RUnlock()

	if s.state != StateActive || s.stream == nil {
		return nil, nil, ErrNotActive
	}
	if src, ok := s.stream.(JPEGSource); ok {
		data, err = src.FrameJPEG()
		return data, nil, err
	}
	img, err = s.stream.Frame()
	return nil, img, err
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Facing returns the facing used by the next Start.
func (s *Session) Facing() Facing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facing
}

// Settings returns the negotiated settings of the active stream.
func (s *Session) Settings() (Settings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, s.state == StateActive
}

// LastError returns the failure that put the session into StateFailed.
func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Session) startLocked(ctx context.Context, facing Facing) error {
	s.releaseLocked()
	s.facing = facing
	s.lastErr = nil
	s.settings = Settings{}
	s.transition(StateStarting, nil)

	constraints := NewConstraints(facing)
	stream, err := s.platform.Open(ctx, constraints)
	if err != nil {
		return s.fail(err)
	}
	s.stream = stream
	metrics.StreamAcquired()

	readyCtx, cancel := context.WithTimeout(ctx, s.readyTimeout)
	err = stream.WaitReady(readyCtx)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w: stream not ready after %s", ErrUnknownAcquisition, s.readyTimeout)
		}
		return s.fail(err)
	}

	if err := stream.Play(); err != nil {
		return s.fail(err)
	}

	s.negotiate(ctx, stream)

	s.settings = stream.Settings()
	s.transition(StateActive, nil)
	metrics.RecordSessionStart()
	s.logger.Info("Camera active",
		"device", s.settings.DeviceID,
		"facing", facing,
		"width", s.settings.Width,
		"height", s.settings.Height,
		"focus", s.settings.FocusMode)
	return nil
}

// negotiate applies the best-effort focus and resolution request.
// Failures are logged and never returned.
func (s *Session) negotiate(ctx context.Context, stream Stream) {
	caps, err := stream.Capabilities()
	if err != nil {
		s.logger.Warn("Camera capabilities unavailable, keeping defaults", "error", err)
		return
	}

	var adj Adjustment
	switch {
	case caps.SupportsFocus(FocusContinuous):
		adj.FocusMode = FocusContinuous
	case caps.SupportsFocus(FocusSingleShot):
		adj.FocusMode = FocusSingleShot
	}
	if caps.MaxWidth > 0 {
		adj.Width = min(caps.MaxWidth, IdealWidth)
	}
	if caps.MaxHeight > 0 {
		adj.Height = min(caps.MaxHeight, IdealHeight)
	}

	if adj.IsZero() {
		return
	}
	if err := stream.ApplyConstraints(ctx, adj); err != nil {
		s.logger.Warn("Camera constraint negotiation failed", "error", err,
			"focus", adj.FocusMode, "width", adj.Width, "height", adj.Height)
		return
	}
	s.logger.Debug("Camera constraints applied", "focus", adj.FocusMode, "width", adj.Width, "height", adj.Height)
}

func (s *Session) stopLocked() {
	s.releaseLocked()
	if s.state == StateActive || s.state == StateStarting {
		s.settings = Settings{}
		s.transition(StateIdle, nil)
	}
}

// releaseLocked closes the held stream, if any.
func (s *Session) releaseLocked() {
	if s.stream == nil {
		return
	}
	if err := s.stream.Close(); err != nil {
		s.logger.Warn("Error releasing camera stream", "error", err)
	}
	s.stream = nil
	metrics.StreamReleased()
	s.logger.Debug("Camera stream released")
}

func (s *Session) fail(err error) error {
	s.releaseLocked()
	err = classify(err)
	s.lastErr = err
	s.settings = Settings{}
	s.transition(StateFailed, err)
	metrics.RecordSessionFailure(FailureReason(err))
	s.logger.Warn("Camera start failed", "facing", s.facing, "error", err)
	return err
}

func (s *Session) transition(state State, err error) {
	s.state = state
	if s.observe != nil {
		s.observe(StateChange{State: state, Facing: s.facing, Settings: s.settings, Err: err})
	}
}
