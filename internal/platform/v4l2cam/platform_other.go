//go:build !linux

package v4l2cam

import (
	"context"

	"github.com/smazurov/docscan/internal/camera"
)

// Supported reports whether this build can access V4L2 devices.
const Supported = false

// Platform is unavailable on this operating system.
type Platform struct{}

// New returns a platform whose operations all fail.
func New(Options) *Platform {
	return &Platform{}
}

// Devices implements camera.Platform.
func (p *Platform) Devices(context.Context) ([]camera.DeviceInfo, error) {
	return nil, camera.ErrUnsupportedPlatform
}

// Open implements camera.Platform.
func (p *Platform) Open(context.Context, camera.Constraints) (camera.Stream, error) {
	return nil, camera.ErrUnsupportedPlatform
}
