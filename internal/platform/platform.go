// Package platform selects the camera backend named in the configuration.
package platform

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/smazurov/docscan/internal/camera"
	"github.com/smazurov/docscan/internal/camera/camerafake"
	"github.com/smazurov/docscan/internal/ffmpeg"
	"github.com/smazurov/docscan/internal/platform/mdcam"
	"github.com/smazurov/docscan/internal/platform/v4l2cam"
)

// Backend names accepted by New.
const (
	BackendAuto         = "auto"
	BackendV4L2         = "v4l2"
	BackendMediaDevices = "mediadevices"
	BackendFake         = "fake"
	BackendNone         = "none"
)

// Config selects and configures a backend.
type Config struct {
	Backend       string
	FFmpegPath    string
	FFmpegOptions []string
	FPS           int
	Logger        *slog.Logger
}

// New returns the camera platform for cfg.Backend. BackendNone yields a nil
// platform, which the scanner reports as unsupported.
func New(cfg Config) (camera.Platform, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" || backend == BackendAuto {
		backend = BackendMediaDevices
		if v4l2cam.Supported {
			backend = BackendV4L2
		}
	}

	switch backend {
	case BackendV4L2:
		if !v4l2cam.Supported {
			logger.Warn("V4L2 backend requested on a platform without V4L2")
			return nil, nil
		}
		opts, err := ffmpeg.ParseOptions(cfg.FFmpegOptions)
		if err != nil {
			return nil, fmt.Errorf("camera ffmpeg options: %w", err)
		}
		if len(cfg.FFmpegOptions) == 0 {
			opts = ffmpeg.DefaultOptions()
		}
		logger.Info("Using V4L2 camera backend", "ffmpeg", cfg.FFmpegPath, "options", opts)
		return v4l2cam.New(v4l2cam.Options{
			FFmpegPath:    cfg.FFmpegPath,
			FPS:           cfg.FPS,
			FFmpegOptions: opts,
			Logger:        logger,
		}), nil
	case BackendMediaDevices:
		logger.Info("Using mediadevices camera backend")
		return mdcam.New(logger), nil
	case BackendFake:
		logger.Warn("Using fake camera backend, no real camera will be opened")
		return camerafake.New(), nil
	case BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown camera backend %q", cfg.Backend)
	}
}
