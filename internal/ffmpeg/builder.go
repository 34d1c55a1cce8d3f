package ffmpeg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultBinary is the ffmpeg executable looked up in PATH.
const DefaultBinary = "ffmpeg"

// BuildPreviewArgs returns the argv (without the binary) that streams
// concatenated JPEG frames from a V4L2 device to stdout.
func BuildPreviewArgs(p Params) ([]string, error) {
	if p.DevicePath == "" {
		return nil, errors.New("device path is required")
	}

	logLevel := p.LogLevel
	if logLevel == "" {
		logLevel = "warning"
	}
	args := []string{"-hide_banner", "-nostdin", "-loglevel", "level+" + logLevel}

	args = append(args, "-f", "v4l2")
	args = append(args, inputArgs(p.Options)...)
	if p.InputFormat != "" {
		args = append(args, "-input_format", p.InputFormat)
	}
	if p.Width > 0 && p.Height > 0 {
		args = append(args, "-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height))
	}
	if p.FPS > 0 {
		args = append(args, "-framerate", strconv.Itoa(p.FPS))
	}
	args = append(args, "-i", p.DevicePath)

	quality := p.Quality
	if quality <= 0 {
		quality = 2
	}
	args = append(args,
		"-an",
		"-c:v", "mjpeg",
		"-q:v", strconv.Itoa(quality),
		"-f", "image2pipe",
		"pipe:1",
	)
	return args, nil
}

// BuildH264Args returns the argv (without the binary) of the preview
// encoder. Every access unit starts with an AUD and keyframes repeat the
// parameter sets so late joiners can decode.
func BuildH264Args(p H264Params) []string {
	fps := p.FPS
	if fps <= 0 {
		fps = 15
	}
	bitrate := p.BitrateKbps
	if bitrate <= 0 {
		bitrate = 1500
	}
	logLevel := p.LogLevel
	if logLevel == "" {
		logLevel = "warning"
	}
	rate := strconv.Itoa(bitrate) + "k"

	args := []string{"-hide_banner", "-nostdin", "-loglevel", "level+" + logLevel,
		"-f", "mjpeg", "-framerate", strconv.Itoa(fps), "-i", "pipe:0",
		"-an",
	}
	if p.MaxHeight > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=-2:'min(%d,ih)'", p.MaxHeight))
	}
	return append(args,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-tune", "zerolatency",
		"-profile:v", "baseline",
		"-pix_fmt", "yuv420p",
		"-g", strconv.Itoa(fps*2),
		"-b:v", rate,
		"-maxrate", rate,
		"-bufsize", rate,
		"-x264-params", "aud=1:repeat-headers=1",
		"-f", "h264",
		"pipe:1",
	)
}

// Command renders binary and args as a shell-like string for logs.
func Command(binary string, args []string) string {
	if binary == "" {
		binary = DefaultBinary
	}
	return binary + " " + strings.Join(args, " ")
}
