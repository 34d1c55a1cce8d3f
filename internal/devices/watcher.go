// Package devices watches for cameras being plugged in or removed and
// republishes camera availability when the answer changes.
package devices

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/docscan/internal/camera"
	"github.com/smazurov/docscan/internal/events"
	"github.com/smazurov/docscan/internal/metrics"
	"github.com/smazurov/docscan/internal/scanner"
	"github.com/smazurov/docscan/pkg/linuxav/hotplug"
)

// DefaultSettle is how long the watcher waits after the last kernel event
// before enumerating. V4L2 nodes appear a moment after the USB device.
const DefaultSettle = time.Second

// Source produces kernel device events. Run closes out when it returns.
type Source interface {
	Run(ctx context.Context, out chan<- hotplug.Event) error
	Close() error
}

// CheckFunc enumerates cameras. (*scanner.Pipeline).Availability fits.
type CheckFunc func(ctx context.Context) camera.Availability

// Options configures a Watcher.
type Options struct {
	Check  CheckFunc
	Bus    *events.Bus
	Logger *slog.Logger
	Settle time.Duration
	// Source defaults to a netlink monitor filtered to video4linux.
	Source Source
}

// Watcher turns hotplug events into AvailabilityChangedEvents.
type Watcher struct {
	check  CheckFunc
	bus    *events.Bus
	logger *slog.Logger
	settle time.Duration
	source Source

	mu     sync.Mutex
	last   camera.Availability
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher creates a watcher. Nothing runs until Start.
func NewWatcher(opts Options) *Watcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{
		check:  opts.Check,
		bus:    opts.Bus,
		logger: logger,
		settle: settle,
		source: opts.Source,
	}
}

// Start records the current availability and begins listening. It fails
// when no event source can be opened, e.g. off Linux.
func (w *Watcher) Start(ctx context.Context) error {
	if w.source == nil {
		mon, err := hotplug.NewMonitor(hotplug.SubsystemVideo4Linux)
		if err != nil {
			return err
		}
		w.source = mon
	}

	av := w.check(ctx)
	metrics.SetCamerasPresent(av.Count)

	runCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.last = av
	w.cancel = cancel
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()

	go w.run(runCtx, done)
	w.logger.Info("Camera hotplug monitoring started", "cameras", av.Count)
	return nil
}

// Stop ends monitoring and releases the event source.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	if err := w.source.Close(); err != nil {
		w.logger.Debug("Error closing hotplug source", "error", err)
	}
	w.logger.Info("Camera hotplug monitoring stopped")
}

// Last is the availability from the most recent check.
func (w *Watcher) Last() camera.Availability {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func (w *Watcher) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	evCh := make(chan hotplug.Event, 16)
	errCh := make(chan error, 1)
	go func() { errCh <- w.source.Run(ctx, evCh) }()

	timer := time.NewTimer(w.settle)
	timer.Stop()
	defer timer.Stop()

	var pending hotplug.Event
	for {
		select {
		case ev, ok := <-evCh:
			if !ok {
				if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
					w.logger.Warn("Hotplug monitor stopped", "error", err)
				}
				return
			}
			if ev.Action != hotplug.ActionAdd && ev.Action != hotplug.ActionRemove {
				continue
			}
			metrics.RecordHotplug(ev.Action)
			w.logger.Debug("Video device event", "action", ev.Action, "device", ev.DevicePath())
			pending = ev
			timer.Reset(w.settle)

		case <-timer.C:
			w.refresh(ctx, pending)

		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) refresh(ctx context.Context, trigger hotplug.Event) {
	av := w.check(ctx)
	metrics.SetCamerasPresent(av.Count)

	w.mu.Lock()
	prev := w.last
	w.last = av
	w.mu.Unlock()

	if sameAvailability(prev, av) {
		w.logger.Debug("Camera availability unchanged", "count", av.Count)
		return
	}

	w.logger.Info("Camera availability changed",
		"action", trigger.Action,
		"device", trigger.DevicePath(),
		"count", av.Count,
		"usable", av.Usable)

	ev := events.AvailabilityChangedEvent{
		Usable:     av.Usable,
		Multiple:   av.Multiple,
		Determined: av.Determined,
		Count:      av.Count,
		Action:     trigger.Action,
		Device:     trigger.DevicePath(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if av.Reason != nil && (!av.Usable || !av.Determined) {
		ev.Message = scanner.UserMessage(av.Reason)
	}
	if w.bus != nil {
		w.bus.Publish(ev)
	}
}

func sameAvailability(a, b camera.Availability) bool {
	return a.Usable == b.Usable &&
		a.Multiple == b.Multiple &&
		a.Determined == b.Determined &&
		a.Count == b.Count
}
