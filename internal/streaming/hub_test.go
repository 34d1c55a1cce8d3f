package streaming

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/smazurov/docscan/internal/capture"
)

// pipeEncoder emits one access unit per frame it is fed.
type pipeEncoder struct {
	pr *io.PipeReader
	pw *io.PipeWriter

	mu     sync.Mutex
	frames int
	closed bool
}

func newPipeEncoder() *pipeEncoder {
	pr, pw := io.Pipe()
	return &pipeEncoder{pr: pr, pw: pw}
}

func (e *pipeEncoder) WriteFrame(_ []byte) error {
	e.mu.Lock()
	e.frames++
	e.mu.Unlock()
	au := append(nal(0x09, 0xf0), nal(0x65, 0x88, 0x84)...)
	_, err := e.pw.Write(au)
	return err
}

func (e *pipeEncoder) Output() io.Reader { return e.pr }

func (e *pipeEncoder) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return e.pw.Close()
}

// exit ends the output as if the encoder process died.
func (e *pipeEncoder) exit() { _ = e.pw.Close() }

func (e *pipeEncoder) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

type encoderLauncher struct {
	mu       sync.Mutex
	err      error
	encoders []*pipeEncoder
}

func (l *encoderLauncher) factory(context.Context) (Encoder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	e := newPipeEncoder()
	l.encoders = append(l.encoders, e)
	return e, nil
}

func (l *encoderLauncher) started() []*pipeEncoder {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*pipeEncoder(nil), l.encoders...)
}

type frameSource struct {
	err error
}

func (s frameSource) LiveFrame() (*capture.CapturedImage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &capture.CapturedImage{Data: []byte{0xff, 0xd8, 0xff, 0xd9}}, nil
}

type recordingSink struct {
	mu      sync.Mutex
	samples []media.Sample
}

func (s *recordingSink) WriteSample(sample media.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, sample)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}

func newTestHub(t *testing.T, src FrameSource, launcher *encoderLauncher) (*Hub, *recordingSink) {
	t.Helper()
	h, err := NewHub(HubOptions{Source: src, Encoder: launcher.factory, FPS: 50})
	if err != nil {
		t.Fatalf("NewHub() error = %v", err)
	}
	sink := &recordingSink{}
	h.sink = sink
	t.Cleanup(h.Close)
	return h, sink
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewHubRequiresSourceAndEncoder(t *testing.T) {
	launcher := &encoderLauncher{}
	tests := []struct {
		name string
		opts HubOptions
	}{
		{"no source", HubOptions{Encoder: launcher.factory}},
		{"no encoder", HubOptions{Source: frameSource{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewHub(tt.opts); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestHubSharesOneEncoder(t *testing.T) {
	launcher := &encoderLauncher{}
	h, sink := newTestHub(t, frameSource{}, launcher)

	for range 2 {
		if err := h.Acquire(); err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
	}
	if got := len(launcher.started()); got != 1 {
		t.Fatalf("started %d encoders for two viewers, want 1", got)
	}
	if got := h.Viewers(); got != 2 {
		t.Errorf("Viewers() = %d, want 2", got)
	}

	waitUntil(t, "samples", func() bool { return sink.count() >= 2 })
	sink.mu.Lock()
	first := sink.samples[0]
	sink.mu.Unlock()
	if first.Duration != 20*time.Millisecond {
		t.Errorf("sample duration = %v, want 20ms", first.Duration)
	}

	h.Release()
	if launcher.started()[0].isClosed() {
		t.Fatal("encoder stopped while a viewer remains")
	}
	h.Release()
	if !launcher.started()[0].isClosed() {
		t.Error("encoder still running after the last viewer left")
	}
	if got := h.Viewers(); got != 0 {
		t.Errorf("Viewers() = %d, want 0", got)
	}

	// An unmatched release is ignored
	h.Release()
	if got := h.Viewers(); got != 0 {
		t.Errorf("Viewers() after extra release = %d, want 0", got)
	}
}

func TestHubEncoderStartFailure(t *testing.T) {
	launcher := &encoderLauncher{err: errors.New("no ffmpeg")}
	h, _ := newTestHub(t, frameSource{}, launcher)

	if err := h.Acquire(); err == nil {
		t.Fatal("expected Acquire() to fail")
	}
	if got := h.Viewers(); got != 0 {
		t.Errorf("Viewers() = %d after a failed start, want 0", got)
	}

	launcher.mu.Lock()
	launcher.err = nil
	launcher.mu.Unlock()
	if err := h.Acquire(); err != nil {
		t.Fatalf("Acquire() after recovery error = %v", err)
	}
}

func TestHubRestartsAfterEncoderExit(t *testing.T) {
	launcher := &encoderLauncher{}
	h, _ := newTestHub(t, frameSource{}, launcher)

	if err := h.Acquire(); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	first := launcher.started()[0]
	first.exit()
	waitUntil(t, "encoder run to end", func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		select {
		case <-h.done:
			return true
		default:
			return false
		}
	})

	if err := h.Acquire(); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got := len(launcher.started()); got != 2 {
		t.Errorf("started %d encoders, want a restart", got)
	}
}

func TestHubSkipsUnavailableFrames(t *testing.T) {
	launcher := &encoderLauncher{}
	h, sink := newTestHub(t, frameSource{err: errors.New("camera idle")}, launcher)

	if err := h.Acquire(); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	enc := launcher.started()[0]
	enc.mu.Lock()
	frames := enc.frames
	enc.mu.Unlock()
	if frames != 0 {
		t.Errorf("encoder fed %d frames without a camera", frames)
	}
	if sink.count() != 0 {
		t.Errorf("sink got %d samples without a camera", sink.count())
	}
}

func TestSameFrame(t *testing.T) {
	buf := []byte{1, 2, 3}
	copyBuf := []byte{1, 2, 3}
	tests := []struct {
		name string
		a, b []byte
		want bool
	}{
		{"same buffer", buf, buf, true},
		{"equal content, new buffer", buf, copyBuf, false},
		{"nothing yet", buf, nil, false},
		{"empty", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sameFrame(tt.a, tt.b); got != tt.want {
				t.Errorf("sameFrame() = %v, want %v", got, tt.want)
			}
		})
	}
}
