//go:build linux

package v4l2cam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"syscall"

	"github.com/smazurov/docscan/internal/camera"
	"github.com/smazurov/docscan/internal/ffmpeg"
	"github.com/smazurov/docscan/internal/logging"
	"github.com/smazurov/docscan/pkg/linuxav/v4l2"
)

// Supported reports whether this build can access V4L2 devices.
const Supported = true

// Platform is the V4L2 camera.Platform.
type Platform struct {
	ffmpegPath string
	fps        int
	options    []ffmpeg.OptionType
	logger     *slog.Logger
}

// New creates a V4L2 platform.
func New(opts Options) *Platform {
	p := &Platform{
		ffmpegPath: opts.FFmpegPath,
		fps:        opts.FPS,
		options:    opts.FFmpegOptions,
		logger:     opts.Logger,
	}
	if p.ffmpegPath == "" {
		p.ffmpegPath = ffmpeg.DefaultBinary
	}
	if p.logger == nil {
		p.logger = logging.GetLogger("platform")
	}
	return p
}

// Devices implements camera.Platform.
func (p *Platform) Devices(_ context.Context) ([]camera.DeviceInfo, error) {
	devs, err := v4l2.FindDevices()
	if err != nil {
		return nil, err
	}

	out := make([]camera.DeviceInfo, 0, len(devs))
	for _, d := range devs {
		out = append(out, camera.DeviceInfo{
			ID:     d.DevicePath,
			Label:  d.DeviceName,
			Facing: camera.GuessFacing(d.DeviceName),
		})
	}
	return out, nil
}

// Open implements camera.Platform.
func (p *Platform) Open(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	devices, err := p.Devices(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate cameras: %w", err)
	}
	dev, ok := camera.PickDevice(devices, c.Facing)
	if !ok {
		return nil, camera.ErrDeviceNotFound
	}

	if err := v4l2.Probe(dev.ID); err != nil {
		return nil, classifyOpenError(dev.ID, err)
	}

	pixfmt, inputFormat := pickFormat(dev.ID)
	var size frameSize
	if res, err := v4l2.GetResolutions(dev.ID, pixfmt); err == nil {
		sizes := make([]frameSize, 0, len(res))
		for _, r := range res {
			sizes = append(sizes, frameSize{Width: int(r.Width), Height: int(r.Height)})
		}
		size, _ = chooseSize(sizes, c)
	} else {
		p.logger.Debug("Frame sizes unavailable", "device", dev.ID, "error", err)
	}

	args, err := ffmpeg.BuildPreviewArgs(ffmpeg.Params{
		DevicePath:  dev.ID,
		InputFormat: inputFormat,
		Width:       size.Width,
		Height:      size.Height,
		FPS:         p.fps,
		Options:     p.options,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("Opening camera", "device", dev.ID, "label", dev.Label, "facing", c.Facing,
		"format", inputFormat, "width", size.Width, "height", size.Height)
	p.logger.Debug("Starting ffmpeg", "command", ffmpeg.Command(p.ffmpegPath, args))

	stream, err := startStream(p.ffmpegPath, args, dev, pixfmt, size, p.logger.With("device", dev.ID))
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// pickFormat prefers MJPEG, which most USB cameras deliver at full size.
func pickFormat(devicePath string) (uint32, string) {
	formats, err := v4l2.GetFormats(devicePath)
	if err != nil || len(formats) == 0 {
		return v4l2.PixFmtMJPEG, ""
	}
	for _, want := range []uint32{v4l2.PixFmtMJPEG, v4l2.PixFmtYUYV, v4l2.PixFmtNV12} {
		for _, f := range formats {
			if f.PixelFormat == want && !f.Emulated {
				return want, inputFormatName(want)
			}
		}
	}
	return formats[0].PixelFormat, inputFormatName(formats[0].PixelFormat)
}

func inputFormatName(pixfmt uint32) string {
	switch pixfmt {
	case v4l2.PixFmtMJPEG:
		return "mjpeg"
	case v4l2.PixFmtYUYV:
		return "yuyv422"
	case v4l2.PixFmtNV12:
		return "nv12"
	default:
		return ""
	}
}

func classifyOpenError(path string, err error) error {
	switch {
	case errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		return fmt.Errorf("%w: %s: %w", camera.ErrPermissionDenied, path, err)
	case errors.Is(err, syscall.ENOENT), errors.Is(err, syscall.ENODEV), errors.Is(err, syscall.ENXIO):
		return fmt.Errorf("%w: %s: %w", camera.ErrDeviceNotFound, path, err)
	case errors.Is(err, syscall.EBUSY):
		return fmt.Errorf("%w: %s: %w", camera.ErrDeviceBusy, path, err)
	default:
		return fmt.Errorf("open %s: %w", path, err)
	}
}
