package scanner

import (
	"time"

	"github.com/smazurov/docscan/internal/camera"
)

// ImageInfo describes the captured image without its bytes.
type ImageInfo struct {
	Width      int       `json:"width" example:"1920" doc:"Image width in pixels"`
	Height     int       `json:"height" example:"1080" doc:"Image height in pixels"`
	Bytes      int       `json:"bytes" example:"412345" doc:"Encoded JPEG size"`
	CapturedAt time.Time `json:"captured_at" doc:"When the image was captured"`
}

// Status is a point-in-time snapshot of the pipeline.
type Status struct {
	View          ViewState            `json:"view" enum:"live,preview" doc:"What the UI should show"`
	Session       camera.State         `json:"session" enum:"idle,starting,active,failed" doc:"Camera session state"`
	Facing        camera.Facing        `json:"facing" enum:"front,rear" doc:"Facing used by the next start"`
	Settings      *camera.Settings     `json:"settings,omitempty" doc:"Negotiated stream settings while active"`
	Availability  *camera.Availability `json:"availability,omitempty" doc:"Result of the last availability check"`
	Image         *ImageInfo           `json:"image,omitempty" doc:"Captured image while previewing"`
	Saving        bool                 `json:"saving" doc:"Whether a save is in flight"`
	PendingNav    string               `json:"pending_navigation,omitempty" doc:"Redirect scheduled after a successful save"`
	Error         string               `json:"error,omitempty" doc:"User-facing message for the last failure"`
	CanCapture    bool                 `json:"can_capture" doc:"Whether capture is currently possible"`
	CanSwitch     bool                 `json:"can_switch" doc:"Whether more than one camera may be available"`
	lastErrDetail error
}

// Err returns the last failure behind Status.Error.
func (s Status) Err() error {
	return s.lastErrDetail
}

// Status returns the current pipeline snapshot. It only reads state
// mirrored from the session, so it answers while a start is in progress.
func (p *Pipeline) Status() Status {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()

	st := Status{
		View:          p.view,
		Session:       p.sessionState,
		Facing:        p.facing,
		Saving:        p.saving.Load(),
		PendingNav:    p.pendingNav,
		Error:         UserMessage(p.lastErr),
		CanCapture:    p.view == ViewLive && p.sessionState == camera.StateActive,
		CanSwitch:     p.checked && p.availability.Multiple,
		lastErrDetail: p.lastErr,
	}
	if p.sessionState == camera.StateActive {
		settings := p.settings
		st.Settings = &settings
	}
	if p.checked {
		av := p.availability
		st.Availability = &av
	}
	if p.image != nil {
		st.Image = &ImageInfo{
			Width:      p.image.Width,
			Height:     p.image.Height,
			Bytes:      len(p.image.Data),
			CapturedAt: p.image.CapturedAt,
		}
	}
	return st
}
