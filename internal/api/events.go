package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/docscan/internal/events"
	"github.com/smazurov/docscan/internal/scanner"
)

// sseEventTypes maps SSE event names to the payloads sent under them.
var sseEventTypes = map[string]any{
	"status":          scanner.Status{},
	"session-state":   events.SessionStateChangedEvent{},
	"view-changed":    events.ViewChangedEvent{},
	"capture-success": events.CaptureSuccessEvent{},
	"capture-error":   events.CaptureErrorEvent{},
	"save-result":     events.SaveResultEvent{},
	"navigation":      events.NavigationEvent{},
	"availability":    events.AvailabilityChangedEvent{},
}

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Scanner state changes, capture and save results, post-save navigation and camera hotplug",
		Tags:        []string{"events"},
	}, sseEventTypes, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)

		unsubscribe := events.SubscribeAll(s.eventBus, eventCh)
		defer unsubscribe()

		// The snapshot lets a client render without replaying history
		if err := send.Data(s.pipeline.Status()); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
