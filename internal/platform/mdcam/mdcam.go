// Package mdcam implements camera.Platform on top of pion/mediadevices,
// which wraps the native camera API of each operating system.
package mdcam

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"

	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/io/video"
	"github.com/pion/mediadevices/pkg/prop"
	"golang.org/x/image/draw"

	// Registers the OS camera driver.
	_ "github.com/pion/mediadevices/pkg/driver/camera"

	"github.com/smazurov/docscan/internal/camera"
	"github.com/smazurov/docscan/internal/logging"
)

var errNoControls = errors.New("mediadevices exposes no camera controls")

// Platform is the mediadevices camera.Platform.
type Platform struct {
	logger *slog.Logger
	// getUserMedia is replaced in tests.
	getUserMedia func(mediadevices.MediaStreamConstraints) (mediadevices.MediaStream, error)
	enumerate    func() []mediadevices.MediaDeviceInfo
}

// New creates a mediadevices platform.
func New(logger *slog.Logger) *Platform {
	if logger == nil {
		logger = logging.GetLogger("platform")
	}
	return &Platform{
		logger:       logger,
		getUserMedia: mediadevices.GetUserMedia,
		enumerate:    mediadevices.EnumerateDevices,
	}
}

// Devices implements camera.Platform.
func (p *Platform) Devices(_ context.Context) ([]camera.DeviceInfo, error) {
	return videoInputs(p.enumerate()), nil
}

func videoInputs(all []mediadevices.MediaDeviceInfo) []camera.DeviceInfo {
	var out []camera.DeviceInfo
	for _, d := range all {
		if d.Kind != mediadevices.VideoInput {
			continue
		}
		out = append(out, camera.DeviceInfo{
			ID:     d.DeviceID,
			Label:  d.Label,
			Facing: camera.GuessFacing(d.Label),
		})
	}
	return out
}

// Open implements camera.Platform.
func (p *Platform) Open(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dev, ok := camera.PickDevice(videoInputs(p.enumerate()), c.Facing)
	if !ok {
		return nil, camera.ErrDeviceNotFound
	}

	ms, err := p.getUserMedia(mediadevices.MediaStreamConstraints{
		Video: func(mc *mediadevices.MediaTrackConstraints) {
			mc.DeviceID = prop.StringExact(dev.ID)
			mc.Width = prop.Int(c.IdealWidth)
			mc.Height = prop.Int(c.IdealHeight)
		},
	})
	if err != nil {
		return nil, classifyError(err)
	}

	tracks := ms.GetVideoTracks()
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no video track", camera.ErrUnknownAcquisition)
	}
	track, ok := tracks[0].(*mediadevices.VideoTrack)
	if !ok {
		for _, t := range tracks {
			_ = t.Close()
		}
		return nil, fmt.Errorf("%w: unexpected track type %T", camera.ErrUnknownAcquisition, tracks[0])
	}

	p.logger.Info("Opening camera", "device", dev.ID, "label", dev.Label, "facing", c.Facing)
	return &Stream{
		device: dev,
		track:  track,
		reader: track.NewReader(false),
		logger: p.logger.With("device", dev.ID),
	}, nil
}

// classifyError maps mediadevices and driver errors to acquisition sentinels.
func classifyError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission denied"), strings.Contains(msg, "not permitted"):
		return fmt.Errorf("%w: %w", camera.ErrPermissionDenied, err)
	case strings.Contains(msg, "busy"):
		return fmt.Errorf("%w: %w", camera.ErrDeviceBusy, err)
	case strings.Contains(msg, "failed to find"), strings.Contains(msg, "not found"), strings.Contains(msg, "no such"):
		return fmt.Errorf("%w: %w", camera.ErrDeviceNotFound, err)
	default:
		return err
	}
}

// Stream is a mediadevices video track.
type Stream struct {
	device camera.DeviceInfo
	track  *mediadevices.VideoTrack
	reader video.Reader
	logger *slog.Logger

	readMu sync.Mutex

	mu      sync.Mutex
	width   int
	height  int
	playing bool
	closed  bool
}

// read copies one frame out of the driver buffer.
func (s *Stream) read() (*image.NRGBA, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	img, release, err := s.reader.Read()
	if err != nil {
		return nil, err
	}
	defer release()

	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	s.mu.Lock()
	s.width, s.height = b.Dx(), b.Dy()
	s.mu.Unlock()
	return out, nil
}

// WaitReady implements camera.Stream by reading the first frame.
func (s *Stream) WaitReady(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		_, err := s.read()
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return classifyError(err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Play implements camera.Stream.
func (s *Stream) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return camera.ErrNotActive
	}
	s.playing = true
	return nil
}

// Capabilities implements camera.Stream. Focus and size limits are not
// reported by mediadevices.
func (s *Stream) Capabilities() (camera.Capabilities, error) {
	return camera.Capabilities{}, nil
}

// ApplyConstraints implements camera.Stream.
func (s *Stream) ApplyConstraints(context.Context, camera.Adjustment) error {
	return errNoControls
}

// Settings implements camera.Stream.
func (s *Stream) Settings() camera.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return camera.Settings{
		DeviceID: s.device.ID,
		Label:    s.device.Label,
		Width:    s.width,
		Height:   s.height,
	}
}

// Frame implements camera.Stream.
func (s *Stream) Frame() (image.Image, error) {
	s.mu.Lock()
	ok := s.playing && !s.closed
	s.mu.Unlock()
	if !ok {
		return nil, camera.ErrNotActive
	}
	return s.read()
}

// Close implements camera.Stream.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.playing = false
	s.mu.Unlock()

	err := s.track.Close()
	s.logger.Debug("Camera track closed", "error", err)
	return err
}
