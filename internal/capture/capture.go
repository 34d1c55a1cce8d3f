// Package capture freezes one live camera frame into a pixel buffer and
// encodes finished buffers as JPEG.
package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/smazurov/docscan/internal/camera"
	"golang.org/x/image/draw"
)

// ErrNotActive is returned when the source has no live stream.
// It is the same value as camera.ErrNotActive.
var ErrNotActive = camera.ErrNotActive

// FrameSource is the read side of a camera session.
type FrameSource interface {
	State() camera.State
	Frame() (image.Image, error)
}

// Capture rasterizes the current frame of src into a new buffer sized to
// that frame. The returned buffer shares no memory with the stream.
func Capture(src FrameSource) (*image.NRGBA, error) {
	if src == nil || src.State() != camera.StateActive {
		return nil, ErrNotActive
	}

	frame, err := src.Frame()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}

	bounds := frame.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("read frame: empty %v frame", bounds)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.CatmullRom.Scale(dst, dst.Bounds(), frame, bounds, draw.Src, nil)
	return dst, nil
}

// PreviewSource is the display side of a camera session.
type PreviewSource interface {
	Preview() (data []byte, img image.Image, err error)
}

// Preview returns the current live frame as JPEG for display. JPEG from the
// stream is passed through; other frames are encoded at PreviewQuality
// without resampling.
func Preview(src PreviewSource, at time.Time) (*CapturedImage, error) {
	if src == nil {
		return nil, ErrNotActive
	}
	data, frame, err := src.Preview()
	if err != nil {
		return nil, err
	}

	if data != nil {
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("read frame: %w", err)
		}
		return &CapturedImage{Data: data, Width: cfg.Width, Height: cfg.Height, CapturedAt: at}, nil
	}
	if frame == nil || frame.Bounds().Empty() {
		return nil, fmt.Errorf("read frame: empty frame")
	}
	return encode(frame, PreviewQuality, at)
}
