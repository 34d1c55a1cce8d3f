package events

// Event type constants for kelindar/event.
const (
	TypeSessionStateChanged uint32 = iota + 1
	TypeViewChanged
	TypeCaptureSuccess
	TypeCaptureError
	TypeSaveResult
	TypeNavigation
	TypeAvailabilityChanged
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SessionStateChangedEvent is published on every camera session transition.
type SessionStateChangedEvent struct {
	State     string `json:"state" example:"active" doc:"Session state: idle, starting, active, failed"`
	Facing    string `json:"facing" example:"rear" doc:"Requested camera facing"`
	DeviceID  string `json:"device_id,omitempty" example:"/dev/video0" doc:"Device backing the stream"`
	Error     string `json:"error,omitempty" doc:"User-facing message when the state is failed"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionStateChangedEvent.
func (e SessionStateChangedEvent) Type() uint32 { return TypeSessionStateChanged }

// ViewChangedEvent is published when the scanner flips between live and preview.
type ViewChangedEvent struct {
	View      string `json:"view" example:"preview" doc:"Current view: live or preview"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ViewChangedEvent.
func (e ViewChangedEvent) Type() uint32 { return TypeViewChanged }

// CaptureSuccessEvent represents a frame that was captured, enhanced and encoded.
type CaptureSuccessEvent struct {
	DeviceID  string `json:"device_id" example:"/dev/video0" doc:"Device the frame came from"`
	Width     int    `json:"width" example:"1920" doc:"Image width in pixels"`
	Height    int    `json:"height" example:"1080" doc:"Image height in pixels"`
	Bytes     int    `json:"bytes" example:"412345" doc:"Encoded JPEG size"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Capture timestamp"`
}

// Type returns the event type identifier for CaptureSuccessEvent.
func (e CaptureSuccessEvent) Type() uint32 { return TypeCaptureSuccess }

// CaptureErrorEvent represents a failed capture attempt.
type CaptureErrorEvent struct {
	Message   string `json:"message" example:"No active camera" doc:"User-facing message"`
	Error     string `json:"error" doc:"Detailed error description"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Error timestamp"`
}

// Type returns the event type identifier for CaptureErrorEvent.
func (e CaptureErrorEvent) Type() uint32 { return TypeCaptureError }

// SaveResultEvent reports the outcome of a submit to the save endpoint.
type SaveResultEvent struct {
	Success     bool   `json:"success" doc:"Whether the save endpoint accepted the image"`
	RedirectURL string `json:"redirect_url,omitempty" example:"/documents/42" doc:"Where the UI should go next"`
	Error       string `json:"error,omitempty" doc:"User-facing failure message"`
	Timestamp   string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SaveResultEvent.
func (e SaveResultEvent) Type() uint32 { return TypeSaveResult }

// NavigationEvent tells the UI to leave the scanner for URL.
// It is published after the post-save delay has elapsed.
type NavigationEvent struct {
	URL       string `json:"url" example:"/documents/42" doc:"Navigation target"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for NavigationEvent.
func (e NavigationEvent) Type() uint32 { return TypeNavigation }

// AvailabilityChangedEvent is published when a camera is plugged in or
// removed and the availability check gives a different answer.
type AvailabilityChangedEvent struct {
	Usable     bool   `json:"usable" doc:"A camera can be started"`
	Multiple   bool   `json:"multiple" doc:"More than one camera is present"`
	Determined bool   `json:"determined" doc:"Whether enumeration succeeded"`
	Count      int    `json:"count" example:"1" doc:"Number of video inputs"`
	Message    string `json:"message,omitempty" doc:"User-facing message when no camera can be used"`
	Action     string `json:"action" example:"add" doc:"Kernel action that triggered the check: add or remove"`
	Device     string `json:"device,omitempty" example:"/dev/video2" doc:"Device node named by the kernel event"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for AvailabilityChangedEvent.
func (e AvailabilityChangedEvent) Type() uint32 { return TypeAvailabilityChanged }
