package streaming

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/pion/webrtc/v4/pkg/media/h264reader"
	"github.com/smazurov/docscan/internal/ffmpeg"
)

// Encoder turns JPEG frames into an Annex-B H.264 stream.
type Encoder interface {
	// WriteFrame feeds one JPEG frame.
	WriteFrame(jpeg []byte) error
	// Output is the encoded stream. It ends when the encoder stops.
	Output() io.Reader
	Close() error
}

// EncoderFactory launches an encoder that lives until ctx ends or Close.
type EncoderFactory func(ctx context.Context) (Encoder, error)

// FFmpegEncoder returns a factory running ffmpeg with ffmpeg.BuildH264Args.
func FFmpegEncoder(binary string, params ffmpeg.H264Params, logger *slog.Logger) EncoderFactory {
	if binary == "" {
		binary = ffmpeg.DefaultBinary
	}
	if logger == nil {
		logger = slog.Default()
	}
	args := ffmpeg.BuildH264Args(params)

	return func(ctx context.Context) (Encoder, error) {
		ctx, cancel := context.WithCancel(ctx)
		cmd := exec.CommandContext(ctx, binary, args...)
		cmd.WaitDelay = 2 * time.Second

		stdin, err := cmd.StdinPipe()
		if err != nil {
			cancel()
			return nil, err
		}
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
		logger.Debug("Preview encoder started", "command", ffmpeg.Command(binary, args))

		e := &ffmpegEncoder{
			cmd:        cmd,
			stdin:      stdin,
			stdout:     stdout,
			cancel:     cancel,
			stderrDone: make(chan struct{}),
		}
		go func() {
			defer close(e.stderrDone)
			scanner := bufio.NewScanner(stderr)
			for scanner.Scan() {
				level, msg := ffmpeg.ParseLogLevel(scanner.Text())
				logger.Log(context.Background(), ffmpeg.SlogLevel(level), msg, "source", "ffmpeg")
			}
		}()
		return e, nil
	}
}

type ffmpegEncoder struct {
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     io.Reader
	cancel     context.CancelFunc
	stderrDone chan struct{}
}

func (e *ffmpegEncoder) WriteFrame(jpeg []byte) error {
	_, err := e.stdin.Write(jpeg)
	return err
}

func (e *ffmpegEncoder) Output() io.Reader {
	return e.stdout
}

// Close stops ffmpeg and waits for it to exit.
func (e *ffmpegEncoder) Close() error {
	_ = e.stdin.Close()
	e.cancel()
	<-e.stderrDone
	err := e.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Killed on purpose.
		return nil
	}
	return err
}

var annexBStartCode = []byte{0x00, 0x00, 0x00, 0x01}

// splitAccessUnits reads Annex-B H.264 from r and calls emit once per access
// unit, delimited by AUD NAL units. The AUDs themselves are dropped. emit owns
// the slice it receives.
func splitAccessUnits(r io.Reader, emit func(au []byte)) error {
	reader, err := h264reader.NewReader(r)
	if err != nil {
		return err
	}

	var au []byte
	for {
		nal, err := reader.NextNAL()
		if err != nil {
			if len(au) > 0 {
				emit(au)
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}

		if nal.UnitType == h264reader.NalUnitTypeAUD {
			if len(au) > 0 {
				emit(au)
			}
			au = nil
			continue
		}
		au = append(au, annexBStartCode...)
		au = append(au, nal.Data...)
	}
}
