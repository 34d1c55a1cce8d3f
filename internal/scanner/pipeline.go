// Package scanner sequences the camera, capture, enhancement and save steps
// behind the live/preview view state the UI binds to.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smazurov/docscan/internal/camera"
	"github.com/smazurov/docscan/internal/capture"
	"github.com/smazurov/docscan/internal/enhance"
	"github.com/smazurov/docscan/internal/events"
	"github.com/smazurov/docscan/internal/metrics"
	"github.com/smazurov/docscan/internal/save"
)

// ViewState is what the UI shows.
type ViewState string

// View states.
const (
	ViewLive    ViewState = "live"
	ViewPreview ViewState = "preview"
)

// DefaultNavigateDelay is the pause between a successful save and navigation.
const DefaultNavigateDelay = time.Second

// Options configures a Pipeline.
type Options struct {
	Platform camera.Platform
	Saver    save.Saver
	Bus      *events.Bus
	Logger   *slog.Logger
	// SessionLogger defaults to Logger.
	SessionLogger *slog.Logger
	Facing        camera.Facing
	ReadyTimeout  time.Duration
	NavigateDelay time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Pipeline owns one camera session and at most one captured image.
// Operations are serialized; Status never waits for a running operation.
type Pipeline struct {
	platform      camera.Platform
	saver         save.Saver
	bus           *events.Bus
	logger        *slog.Logger
	navigateDelay time.Duration
	now           func() time.Time
	session       *camera.Session

	mu       sync.Mutex
	saving   atomic.Bool
	navTimer *time.Timer
	closed   bool

	stateMu      sync.RWMutex
	view         ViewState
	sessionState camera.State
	facing       camera.Facing
	settings     camera.Settings
	availability camera.Availability
	checked      bool
	image        *capture.CapturedImage
	lastErr      error
	pendingNav   string
}

// New creates a pipeline in the live view with an idle camera.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		platform:      opts.Platform,
		saver:         opts.Saver,
		bus:           opts.Bus,
		logger:        opts.Logger,
		navigateDelay: opts.NavigateDelay,
		now:           opts.Now,
		view:          ViewLive,
		sessionState:  camera.StateIdle,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.navigateDelay <= 0 {
		p.navigateDelay = DefaultNavigateDelay
	}
	if p.now == nil {
		p.now = time.Now
	}

	sessionLogger := opts.SessionLogger
	if sessionLogger == nil {
		sessionLogger = p.logger.With("component", "session")
	}
	p.session = camera.NewSession(camera.SessionOptions{
		Platform:      opts.Platform,
		Logger:        sessionLogger,
		ReadyTimeout:  opts.ReadyTimeout,
		Facing:        opts.Facing,
		OnStateChange: p.onSessionChange,
	})
	p.facing = p.session.Facing()
	return p
}

// Start checks availability and starts the camera with the current facing.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.currentView() == ViewPreview {
		return p.reject(ErrPreviewShown)
	}

	av := p.Availability(ctx)
	if av.Determined && !av.Usable {
		p.logger.Warn("No usable camera", "reason", av.Reason)
		p.setError(av.Reason)
		return av.Reason
	}

	err := p.session.Start(ctx, p.session.Facing())
	p.setError(err)
	return err
}

// Availability enumerates cameras and records the result for Status.
func (p *Pipeline) Availability(ctx context.Context) camera.Availability {
	av := camera.CheckAvailability(ctx, p.platform, p.logger)
	p.stateMu.Lock()
	p.availability = av
	p.checked = true
	p.stateMu.Unlock()
	return av
}

// Capture freezes the live frame, enhances it, encodes it and releases the
// camera. On success the view becomes preview.
func (p *Pipeline) Capture(_ context.Context) (*capture.CapturedImage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.currentView() != ViewLive || p.session.State() != camera.StateActive {
		return nil, p.reject(fmt.Errorf("%w: %w", ErrNoActiveCamera, capture.ErrNotActive))
	}

	started := time.Now()
	buf, err := capture.Capture(p.session)
	if err != nil {
		if errors.Is(err, capture.ErrNotActive) {
			err = fmt.Errorf("%w: %w", ErrNoActiveCamera, err)
		}
		return nil, p.captureFailed(err)
	}

	enhance.Enhance(buf)

	img, err := capture.Encode(buf, p.now())
	if err != nil {
		return nil, p.captureFailed(err)
	}

	settings := p.currentSettings()
	p.session.Stop()

	p.stateMu.Lock()
	p.image = img
	p.lastErr = nil
	p.stateMu.Unlock()
	p.setView(ViewPreview)

	metrics.ObserveCapture(time.Since(started))
	p.logger.Info("Document captured", "width", img.Width, "height", img.Height, "bytes", len(img.Data))
	p.publish(events.CaptureSuccessEvent{
		DeviceID:  settings.DeviceID,
		Width:     img.Width,
		Height:    img.Height,
		Bytes:     len(img.Data),
		Timestamp: p.timestamp(),
	})
	return img, nil
}

// SwitchFacing toggles the camera facing. While live and active the camera
// is restarted on the other device; otherwise only the preference changes.
func (p *Pipeline) SwitchFacing(ctx context.Context) (camera.Facing, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	facing, err := p.session.SwitchFacing(ctx)
	p.stateMu.Lock()
	p.facing = facing
	p.stateMu.Unlock()
	p.setError(err)
	return facing, err
}

// Retake discards the captured image and restarts the camera with the last
// used facing. In the live view it does nothing.
func (p *Pipeline) Retake(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.currentView() == ViewLive {
		return nil
	}
	if p.saving.Load() {
		return p.reject(ErrSaveInProgress)
	}

	p.stopNavigation()
	p.stateMu.Lock()
	p.image = nil
	p.stateMu.Unlock()
	p.setView(ViewLive)

	err := p.session.Start(ctx, p.session.Facing())
	p.setError(err)
	return err
}

// Submit sends the captured image to the save endpoint. On success a
// navigation to the returned redirect URL is published after the navigate
// delay; the view stays preview. Failures keep the image for a retry.
func (p *Pipeline) Submit(ctx context.Context, title string, folderID *string) (save.Result, error) {
	if !p.saving.CompareAndSwap(false, true) {
		return save.Result{}, p.reject(ErrSaveInProgress)
	}
	defer p.saving.Store(false)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stateMu.RLock()
	img := p.image
	p.stateMu.RUnlock()
	if img == nil {
		return save.Result{}, p.reject(ErrNothingToSave)
	}

	res, err := p.saver.Save(ctx, save.Request{
		Image:    img.DataURI(),
		Title:    title,
		FolderID: folderID,
	})
	if err != nil {
		outcome := metrics.SaveOutcomeTransport
		if errors.Is(err, save.ErrSaveRejected) {
			outcome = metrics.SaveOutcomeRejected
		}
		metrics.RecordSave(outcome)
		p.setError(err)
		p.logger.Warn("Save failed", "title", title, "outcome", outcome, "error", err)
		p.publish(events.SaveResultEvent{Success: false, Error: UserMessage(err), Timestamp: p.timestamp()})
		return res, err
	}

	metrics.RecordSave(metrics.SaveOutcomeSuccess)
	p.setError(nil)
	p.logger.Info("Document saved", "title", title, "redirect_url", res.RedirectURL)
	p.publish(events.SaveResultEvent{Success: true, RedirectURL: res.RedirectURL, Timestamp: p.timestamp()})

	if res.RedirectURL != "" {
		p.scheduleNavigation(res.RedirectURL)
	}
	return res, nil
}

// Close releases the camera and cancels any pending navigation. It must be
// called on shutdown; calling it again is harmless.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopNavigation()
	p.session.Stop()
	if !p.closed {
		p.closed = true
		p.logger.Debug("Scanner pipeline closed")
	}
}

// Image returns the captured image while one is held.
func (p *Pipeline) Image() (*capture.CapturedImage, bool) {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.image, p.image != nil
}

// LiveFrame returns the current live frame as JPEG for display. It does not
// change pipeline state and does not wait for a camera start.
func (p *Pipeline) LiveFrame() (*capture.CapturedImage, error) {
	img, err := capture.Preview(p.session, p.now())
	if errors.Is(err, capture.ErrNotActive) {
		return nil, fmt.Errorf("%w: %w", ErrNoActiveCamera, err)
	}
	return img, err
}

func (p *Pipeline) scheduleNavigation(url string) {
	p.stopNavigation()

	p.stateMu.Lock()
	p.pendingNav = url
	p.stateMu.Unlock()

	var timer *time.Timer
	timer = time.AfterFunc(p.navigateDelay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.navTimer != timer {
			return
		}
		p.navTimer = nil
		p.navigate(url)
	})
	p.navTimer = timer
}

// navigate models the user leaving the scanner: the saved image is dropped
// and the next Start begins a fresh scan.
func (p *Pipeline) navigate(url string) {
	p.stateMu.Lock()
	p.pendingNav = ""
	p.image = nil
	p.stateMu.Unlock()

	p.logger.Info("Navigating after save", "url", url)
	p.publish(events.NavigationEvent{URL: url, Timestamp: p.timestamp()})
	p.setView(ViewLive)
}

func (p *Pipeline) stopNavigation() {
	if p.navTimer != nil {
		p.navTimer.Stop()
		p.navTimer = nil
	}
	p.stateMu.Lock()
	p.pendingNav = ""
	p.stateMu.Unlock()
}

// onSessionChange runs under the session lock and must not call the session.
func (p *Pipeline) onSessionChange(c camera.StateChange) {
	p.stateMu.Lock()
	p.sessionState = c.State
	p.facing = c.Facing
	p.settings = c.Settings
	p.stateMu.Unlock()

	ev := events.SessionStateChangedEvent{
		State:     string(c.State),
		Facing:    string(c.Facing),
		DeviceID:  c.Settings.DeviceID,
		Timestamp: p.timestamp(),
	}
	if c.Err != nil {
		ev.Error = UserMessage(c.Err)
	}
	p.publish(ev)
}

func (p *Pipeline) captureFailed(err error) error {
	p.setError(err)
	p.logger.Warn("Capture failed", "error", err)
	p.publish(events.CaptureErrorEvent{Message: UserMessage(err), Error: err.Error(), Timestamp: p.timestamp()})
	return err
}

// reject reports a precondition failure without touching pipeline state.
func (p *Pipeline) reject(err error) error {
	p.logger.Debug("Operation not applicable", "error", err)
	return err
}

func (p *Pipeline) setView(v ViewState) {
	p.stateMu.Lock()
	changed := p.view != v
	p.view = v
	p.stateMu.Unlock()

	if changed {
		p.publish(events.ViewChangedEvent{View: string(v), Timestamp: p.timestamp()})
	}
}

func (p *Pipeline) setError(err error) {
	p.stateMu.Lock()
	p.lastErr = err
	p.stateMu.Unlock()
}

func (p *Pipeline) currentView() ViewState {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.view
}

func (p *Pipeline) currentSettings() camera.Settings {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.settings
}

func (p *Pipeline) publish(ev events.Event) {
	if p.bus != nil {
		p.bus.Publish(ev)
	}
}

func (p *Pipeline) timestamp() string {
	return p.now().UTC().Format(time.RFC3339)
}
