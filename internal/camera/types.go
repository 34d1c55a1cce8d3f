package camera

import (
	"context"
	"fmt"
	"image"
	"slices"
	"strings"
)

// Facing selects which physical camera is requested.
type Facing string

// Camera facings.
const (
	FacingFront Facing = "front"
	FacingRear  Facing = "rear"
)

// DefaultFacing is used until the user switches.
const DefaultFacing = FacingRear

// Toggle returns the opposite facing.
func (f Facing) Toggle() Facing {
	if f == FacingFront {
		return FacingRear
	}
	return FacingFront
}

// ParseFacing accepts "front"/"user" and "rear"/"back"/"environment".
func ParseFacing(s string) (Facing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "front", "user":
		return FacingFront, nil
	case "rear", "back", "environment", "":
		return FacingRear, nil
	default:
		return "", fmt.Errorf("unknown camera facing %q", s)
	}
}

// Requested resolution envelope.
const (
	IdealWidth  = 1920
	IdealHeight = 1080
	MinWidth    = 1280
	MinHeight   = 720
	AspectRatio = 16.0 / 9.0
)

// Constraints describe what to ask the platform for on one acquisition attempt.
type Constraints struct {
	Facing      Facing
	IdealWidth  int
	IdealHeight int
	MinWidth    int
	MinHeight   int
	AspectRatio float64
}

// NewConstraints returns the standard document-scanning envelope for facing.
func NewConstraints(facing Facing) Constraints {
	return Constraints{
		Facing:      facing,
		IdealWidth:  IdealWidth,
		IdealHeight: IdealHeight,
		MinWidth:    MinWidth,
		MinHeight:   MinHeight,
		AspectRatio: AspectRatio,
	}
}

// FocusMode is a focus behaviour a device may support.
type FocusMode string

// Focus modes.
const (
	FocusContinuous FocusMode = "continuous"
	FocusSingleShot FocusMode = "single-shot"
	FocusManual     FocusMode = "manual"
)

// Capabilities are the ranges a stream reports after playback starts.
type Capabilities struct {
	MaxWidth   int
	MaxHeight  int
	FocusModes []FocusMode
}

// SupportsFocus reports whether mode is listed.
func (c Capabilities) SupportsFocus(mode FocusMode) bool {
	return slices.Contains(c.FocusModes, mode)
}

// Adjustment is the secondary request applied to a playing stream.
// Zero fields are left unchanged.
type Adjustment struct {
	FocusMode FocusMode
	Width     int
	Height    int
}

// IsZero reports whether the adjustment would change nothing.
func (a Adjustment) IsZero() bool {
	return a == Adjustment{}
}

// Settings are what the device actually delivers.
type Settings struct {
	DeviceID  string    `json:"device_id" example:"/dev/video0" doc:"Device backing the stream"`
	Label     string    `json:"label,omitempty" example:"USB Document Camera" doc:"Human readable device name"`
	Width     int       `json:"width" example:"1920" doc:"Frame width in pixels"`
	Height    int       `json:"height" example:"1080" doc:"Frame height in pixels"`
	FocusMode FocusMode `json:"focus_mode,omitempty" example:"continuous" doc:"Active focus mode"`
}

// DeviceInfo describes one enumerated video input.
type DeviceInfo struct {
	ID     string `json:"id" example:"/dev/video0" doc:"Platform device identifier"`
	Label  string `json:"label" example:"USB Document Camera" doc:"Human readable name"`
	Facing Facing `json:"facing,omitempty" example:"rear" doc:"Facing guessed from the label, empty when unknown"`
}

// Platform is the camera backend.
type Platform interface {
	// Devices lists video inputs only.
	Devices(ctx context.Context) ([]DeviceInfo, error)
	// Open acquires a stream. The caller owns it and must Close it.
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is an acquired camera. It is exclusively owned by a Session.
type Stream interface {
	// WaitReady blocks until frame metadata (dimensions) is known.
	WaitReady(ctx context.Context) error
	// Play starts frame delivery.
	Play() error
	// Capabilities reports device ranges; only valid after Play.
	Capabilities() (Capabilities, error)
	// ApplyConstraints requests a secondary adjustment.
	ApplyConstraints(ctx context.Context, a Adjustment) error
	// Settings reports what the device currently delivers.
	Settings() Settings
	// Frame returns the most recent frame. The image must not be retained
	// past the next call.
	Frame() (image.Image, error)
	// Close releases the device. It is safe to call more than once.
	Close() error
}

// JPEGSource is implemented by streams whose frames already arrive as JPEG.
// The returned bytes are never modified after being handed out.
type JPEGSource interface {
	FrameJPEG() ([]byte, error)
}

// GuessFacing infers facing from a device label. Returns "" when the label says nothing.
func GuessFacing(label string) Facing {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "front"), strings.Contains(l, "user"), strings.Contains(l, "facetime"):
		return FacingFront
	case strings.Contains(l, "back"), strings.Contains(l, "rear"), strings.Contains(l, "environment"):
		return FacingRear
	default:
		return ""
	}
}

// PickDevice selects the device matching facing. Without a labelled match it
// falls back to the first device for rear and the last one for front, so that
// switching still alternates between two unlabelled cameras.
func PickDevice(devices []DeviceInfo, facing Facing) (DeviceInfo, bool) {
	if len(devices) == 0 {
		return DeviceInfo{}, false
	}
	for _, d := range devices {
		f := d.Facing
		if f == "" {
			f = GuessFacing(d.Label)
		}
		if f == facing {
			return d, true
		}
	}
	if facing == FacingFront {
		return devices[len(devices)-1], true
	}
	return devices[0], true
}
