// Package camerafake is an in-memory camera platform for tests and demos.
//
// It counts acquisitions and releases so tests can assert that a session
// never holds more than one stream.
package camerafake

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/smazurov/docscan/internal/camera"
)

// FrameFunc renders the frame for a stream of the given size.
type FrameFunc func(width, height, seq int) *image.NRGBA

// Platform is a fake camera.Platform.
type Platform struct {
	mu sync.Mutex

	devices    []camera.DeviceInfo
	devicesErr error
	openErr    error
	hangReady  bool
	caps       camera.Capabilities
	capsErr    error
	applyErr   error
	width      int
	height     int
	frame      FrameFunc

	opens    int
	releases int
	held     int
	maxHeld  int
	applied  []camera.Adjustment
	requests []camera.Constraints
}

// Option configures a fake Platform.
type Option func(*Platform)

// WithDevices sets the enumerated devices.
func WithDevices(devices ...camera.DeviceInfo) Option {
	return func(p *Platform) { p.devices = devices }
}

// WithDevicesError makes enumeration fail.
func WithDevicesError(err error) Option {
	return func(p *Platform) { p.devicesErr = err }
}

// WithOpenError makes every Open fail with err.
func WithOpenError(err error) Option {
	return func(p *Platform) { p.openErr = err }
}

// WithHangingReady makes WaitReady block until its context ends.
func WithHangingReady() Option {
	return func(p *Platform) { p.hangReady = true }
}

// WithCapabilities sets what streams report after Play.
func WithCapabilities(c camera.Capabilities) Option {
	return func(p *Platform) { p.caps = c }
}

// WithCapabilitiesError makes Capabilities fail.
func WithCapabilitiesError(err error) Option {
	return func(p *Platform) { p.capsErr = err }
}

// WithApplyError makes ApplyConstraints fail.
func WithApplyError(err error) Option {
	return func(p *Platform) { p.applyErr = err }
}

// WithSize sets the native frame size before any adjustment.
func WithSize(width, height int) Option {
	return func(p *Platform) { p.width, p.height = width, height }
}

// WithFrames sets the frame generator.
func WithFrames(f FrameFunc) Option {
	return func(p *Platform) { p.frame = f }
}

// New creates a fake with one rear and one front device at 1280×720.
func New(opts ...Option) *Platform {
	p := &Platform{
		devices: []camera.DeviceInfo{
			{ID: "fake-rear", Label: "Fake Back Camera", Facing: camera.FacingRear},
			{ID: "fake-front", Label: "Fake Front Camera", Facing: camera.FacingFront},
		},
		width:  1280,
		height: 720,
		frame:  Solid(color.NRGBA{R: 100, G: 128, B: 200, A: 255}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Solid returns a generator producing a single-colour frame.
func Solid(c color.NRGBA) FrameFunc {
	return func(width, height, _ int) *image.NRGBA {
		img := image.NewNRGBA(image.Rect(0, 0, width, height))
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
		}
		return img
	}
}

// Devices implements camera.Platform.
func (p *Platform) Devices(_ context.Context) ([]camera.DeviceInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.devicesErr != nil {
		return nil, p.devicesErr
	}
	return append([]camera.DeviceInfo(nil), p.devices...), nil
}

// Open implements camera.Platform.
func (p *Platform) Open(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, c)
	if p.openErr != nil {
		return nil, p.openErr
	}
	dev, ok := camera.PickDevice(p.devices, c.Facing)
	if !ok {
		return nil, camera.ErrDeviceNotFound
	}

	p.opens++
	p.held++
	p.maxHeld = max(p.maxHeld, p.held)

	return &Stream{
		platform: p,
		device:   dev,
		width:    p.width,
		height:   p.height,
	}, nil
}

// Opens is the number of successful acquisitions.
func (p *Platform) Opens() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens
}

// Releases is the number of streams closed.
func (p *Platform) Releases() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.releases
}

// Held is the number of streams currently open.
func (p *Platform) Held() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.held
}

// MaxHeld is the high-water mark of simultaneously open streams.
func (p *Platform) MaxHeld() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxHeld
}

// Applied returns every adjustment passed to ApplyConstraints.
func (p *Platform) Applied() []camera.Adjustment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]camera.Adjustment(nil), p.applied...)
}

// Requests returns the constraints of every Open call.
func (p *Platform) Requests() []camera.Constraints {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]camera.Constraints(nil), p.requests...)
}

// SetOpenError changes the Open failure for subsequent calls.
func (p *Platform) SetOpenError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.openErr = err
}

// Stream is a fake camera.Stream.
type Stream struct {
	platform *Platform
	device   camera.DeviceInfo

	mu      sync.Mutex
	width   int
	height  int
	focus   camera.FocusMode
	playing bool
	closed  bool
	seq     int
}

// ErrClosed is returned by operations on a released stream.
var ErrClosed = errors.New("fake stream closed")

// WaitReady implements camera.Stream.
func (s *Stream) WaitReady(ctx context.Context) error {
	if s.platform.hangReady {
		<-ctx.Done()
		return ctx.Err()
	}
	return ctx.Err()
}

// Play implements camera.Stream.
func (s *Stream) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.playing = true
	return nil
}

// Capabilities implements camera.Stream.
func (s *Stream) Capabilities() (camera.Capabilities, error) {
	if s.platform.capsErr != nil {
		return camera.Capabilities{}, s.platform.capsErr
	}
	return s.platform.caps, nil
}

// ApplyConstraints implements camera.Stream.
func (s *Stream) ApplyConstraints(_ context.Context, a camera.Adjustment) error {
	s.platform.mu.Lock()
	s.platform.applied = append(s.platform.applied, a)
	applyErr := s.platform.applyErr
	s.platform.mu.Unlock()

	if applyErr != nil {
		return applyErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if a.FocusMode != "" {
		s.focus = a.FocusMode
	}
	if a.Width > 0 && a.Height > 0 {
		s.width, s.height = a.Width, a.Height
	}
	return nil
}

// Settings implements camera.Stream.
func (s *Stream) Settings() camera.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return camera.Settings{
		DeviceID:  s.device.ID,
		Label:     s.device.Label,
		Width:     s.width,
		Height:    s.height,
		FocusMode: s.focus,
	}
}

// Frame implements camera.Stream.
func (s *Stream) Frame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.playing {
		return nil, camera.ErrNotActive
	}
	s.seq++
	return s.platform.frame(s.width, s.height, s.seq), nil
}

// Close implements camera.Stream.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.platform.mu.Lock()
	s.platform.held--
	s.platform.releases++
	s.platform.mu.Unlock()
	return nil
}
