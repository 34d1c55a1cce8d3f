//go:build linux

package v4l2cam

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/smazurov/docscan/internal/camera"
	"github.com/smazurov/docscan/internal/ffmpeg"
	"github.com/smazurov/docscan/pkg/linuxav/v4l2"
)

const maxFrameBytes = 32 << 20

// Stream is a running ffmpeg preview pipe.
type Stream struct {
	device camera.DeviceInfo
	pixfmt uint32
	logger *slog.Logger

	cancel context.CancelFunc
	ready  chan struct{}
	done   chan struct{}

	readyOnce sync.Once
	closeOnce sync.Once

	mu        sync.Mutex
	latest    []byte
	width     int
	height    int
	focus     camera.FocusMode
	playing   bool
	closed    bool
	stderrErr error
	exitErr   error
}

func startStream(binary string, args []string, dev camera.DeviceInfo, pixfmt uint32, size frameSize, logger *slog.Logger) (*Stream, error) {
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.WaitDelay = 2 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}

	s := &Stream{
		device: dev,
		pixfmt: pixfmt,
		logger: logger,
		cancel: cancel,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
		width:  size.Width,
		height: size.Height,
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		s.readFrames(stdout)
	}()
	go func() {
		defer readers.Done()
		s.readStderr(stderr)
	}()
	go func() {
		readers.Wait()
		err := cmd.Wait()
		s.mu.Lock()
		s.exitErr = err
		closed := s.closed
		s.mu.Unlock()
		if !closed {
			s.logger.Warn("ffmpeg exited", "error", err)
		}
		close(s.done)
	}()

	return s, nil
}

func (s *Stream) readFrames(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), maxFrameBytes)
	scanner.Split(splitJPEG)

	for scanner.Scan() {
		frame := bytes.Clone(scanner.Bytes())

		s.mu.Lock()
		s.latest = frame
		s.mu.Unlock()

		s.readyOnce.Do(func() {
			if cfg, err := jpeg.DecodeConfig(bytes.NewReader(frame)); err == nil {
				s.mu.Lock()
				s.width, s.height = cfg.Width, cfg.Height
				s.mu.Unlock()
			}
			close(s.ready)
		})
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("Frame pipe failed", "error", err)
	}
}

func (s *Stream) readStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		level, msg := ffmpeg.ParseLogLevel(scanner.Text())
		s.logger.Log(context.Background(), ffmpeg.SlogLevel(level), msg, "source", "ffmpeg")

		if err := classifyStderr(msg); err != nil {
			s.mu.Lock()
			if s.stderrErr == nil {
				s.stderrErr = err
			}
			s.mu.Unlock()
		}
	}
}

// failure explains why the process stopped.
func (s *Stream) failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stderrErr != nil {
		return s.stderrErr
	}
	if s.exitErr != nil {
		return fmt.Errorf("%w: ffmpeg exited: %w", camera.ErrUnknownAcquisition, s.exitErr)
	}
	return fmt.Errorf("%w: ffmpeg exited without frames", camera.ErrUnknownAcquisition)
}

// WaitReady implements camera.Stream. It returns once the first frame
// arrived.
func (s *Stream) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-s.done:
		return s.failure()
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

// Capabilities implements camera.Stream.
func (s *Stream) Capabilities() (camera.Capabilities, error) {
	var caps camera.Capabilities
	if res, err := v4l2.MaxResolution(s.device.ID, s.pixfmt); err == nil {
		caps.MaxWidth, caps.MaxHeight = int(res.Width), int(res.Height)
	}
	if v4l2.SupportsControl(s.device.ID, v4l2.CIDFocusAuto) {
		caps.FocusModes = append(caps.FocusModes, camera.FocusContinuous, camera.FocusManual)
	}
	if v4l2.SupportsControl(s.device.ID, v4l2.CIDAutoFocusStart) {
		caps.FocusModes = append(caps.FocusModes, camera.FocusSingleShot)
	}
	return caps, nil
}

// ApplyConstraints implements camera.Stream. Focus is applied through
// controls. The frame size was already chosen from the constraints when
// ffmpeg started and is kept.
func (s *Stream) ApplyConstraints(_ context.Context, a camera.Adjustment) error {
	if a.FocusMode != "" {
		if err := s.setFocus(a.FocusMode); err != nil {
			return err
		}
	}

	s.mu.Lock()
	w, h := s.width, s.height
	s.mu.Unlock()
	if (a.Width > 0 && a.Width != w) || (a.Height > 0 && a.Height != h) {
		s.logger.Debug("Keeping negotiated frame size", "width", w, "height", h,
			"requested_width", a.Width, "requested_height", a.Height)
	}
	return nil
}

func (s *Stream) setFocus(mode camera.FocusMode) error {
	var err error
	switch mode {
	case camera.FocusContinuous:
		err = v4l2.SetControl(s.device.ID, v4l2.CIDFocusAuto, 1)
	case camera.FocusSingleShot:
		if err = v4l2.SetControl(s.device.ID, v4l2.CIDFocusAuto, 0); err == nil {
			err = v4l2.SetControl(s.device.ID, v4l2.CIDAutoFocusStart, 1)
		}
	case camera.FocusManual:
		err = v4l2.SetControl(s.device.ID, v4l2.CIDFocusAuto, 0)
	default:
		return fmt.Errorf("unknown focus mode %q", mode)
	}
	if err != nil {
		return fmt.Errorf("set focus %s: %w", mode, err)
	}

	s.mu.Lock()
	s.focus = mode
	s.mu.Unlock()
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

// FrameJPEG implements camera.JPEGSource with the newest frame as ffmpeg
// produced it.
func (s *Stream) FrameJPEG() ([]byte, error) {
	select {
	case <-s.done:
		return nil, s.failure()
	default:
	}

	s.mu.Lock()
	data := s.latest
	ok := s.playing && !s.closed
	s.mu.Unlock()

	if !ok || data == nil {
		return nil, camera.ErrNotActive
	}
	return data, nil
}

// Frame implements camera.Stream by decoding the newest JPEG.
func (s *Stream) Frame() (image.Image, error) {
	data, err := s.FrameJPEG()
	if err != nil {
		return nil, err
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

// Close implements camera.Stream. It stops ffmpeg and waits for it to exit.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.playing = false
		s.latest = nil
		s.mu.Unlock()

		s.cancel()
		<-s.done
		s.logger.Debug("ffmpeg stopped")
	})
	return nil
}
