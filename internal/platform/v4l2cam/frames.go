package v4l2cam

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smazurov/docscan/internal/camera"
	"github.com/smazurov/docscan/internal/ffmpeg"
)

// Options configures the V4L2 platform.
type Options struct {
	// FFmpegPath defaults to ffmpeg.DefaultBinary.
	FFmpegPath    string
	FPS           int
	FFmpegOptions []ffmpeg.OptionType
	Logger        *slog.Logger
}

var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// splitJPEG is a bufio.SplitFunc yielding one complete JPEG per token.
// Bytes before a start-of-image marker are skipped.
func splitJPEG(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := bytes.Index(data, jpegSOI)
	if start < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		// Keep a trailing 0xFF that may begin a marker.
		if n := len(data); n > 0 && data[n-1] == 0xFF {
			return n - 1, nil, nil
		}
		return len(data), nil, nil
	}

	end := bytes.Index(data[start+len(jpegSOI):], jpegEOI)
	if end < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		return start, nil, nil
	}

	stop := start + len(jpegSOI) + end + len(jpegEOI)
	return stop, data[start:stop], nil
}

// classifyStderr maps an ffmpeg error line to an acquisition sentinel.
func classifyStderr(line string) error {
	l := strings.ToLower(line)
	switch {
	case strings.Contains(l, "permission denied"):
		return fmt.Errorf("%w: %s", camera.ErrPermissionDenied, line)
	case strings.Contains(l, "no such file or directory"), strings.Contains(l, "no such device"):
		return fmt.Errorf("%w: %s", camera.ErrDeviceNotFound, line)
	case strings.Contains(l, "device or resource busy"):
		return fmt.Errorf("%w: %s", camera.ErrDeviceBusy, line)
	default:
		return nil
	}
}

type frameSize struct {
	Width  int
	Height int
}

func (s frameSize) pixels() int { return s.Width * s.Height }

// chooseSize prefers the largest size within [min, ideal], then the smallest
// size above ideal, then the largest size offered.
func chooseSize(sizes []frameSize, c camera.Constraints) (frameSize, bool) {
	var within, above, largest frameSize
	for _, s := range sizes {
		if s.pixels() > largest.pixels() {
			largest = s
		}
		fitsIdeal := s.Width <= c.IdealWidth && s.Height <= c.IdealHeight
		meetsMin := s.Width >= c.MinWidth && s.Height >= c.MinHeight
		switch {
		case fitsIdeal && meetsMin:
			if s.pixels() > within.pixels() {
				within = s
			}
		case !fitsIdeal && meetsMin:
			if above.pixels() == 0 || s.pixels() < above.pixels() {
				above = s
			}
		}
	}

	switch {
	case within.pixels() > 0:
		return within, true
	case above.pixels() > 0:
		return above, true
	case largest.pixels() > 0:
		return largest, true
	default:
		return frameSize{}, false
	}
}
