package models

import (
	"time"

	"github.com/smazurov/docscan/internal/logging"
	"github.com/smazurov/docscan/internal/scanner"
	"github.com/smazurov/docscan/internal/version"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionResponse struct {
	Body version.Info
}

// Scanner models

// StatusResponse carries a pipeline snapshot. Every scanner action answers
// with the snapshot taken after it completed.
type StatusResponse struct {
	Body scanner.Status
}

type AvailabilityData struct {
	Usable     bool   `json:"usable" doc:"A camera can be started"`
	Multiple   bool   `json:"multiple" doc:"More than one camera is present"`
	Determined bool   `json:"determined" doc:"Whether enumeration succeeded"`
	Count      int    `json:"count" example:"1" doc:"Number of video inputs"`
	Message    string `json:"message,omitempty" example:"No camera was found on this device." doc:"Why no camera can be used"`
}

type AvailabilityResponse struct {
	Body AvailabilityData
}

type SwitchData struct {
	Facing string         `json:"facing" enum:"front,rear" example:"front" doc:"Facing now in use or requested"`
	Status scanner.Status `json:"status" doc:"Pipeline snapshot after the switch"`
}

type SwitchResponse struct {
	Body SwitchData
}

type CaptureData struct {
	Width      int       `json:"width" example:"1920" doc:"Image width in pixels"`
	Height     int       `json:"height" example:"1080" doc:"Image height in pixels"`
	Bytes      int       `json:"bytes" example:"412345" doc:"Encoded JPEG size"`
	CapturedAt time.Time `json:"captured_at" doc:"When the image was captured"`
	PreviewURL string    `json:"preview_url" example:"/api/scanner/preview" doc:"Where the enhanced image can be fetched"`
}

type CaptureResponse struct {
	Body CaptureData
}

type SaveRequestData struct {
	Title    string  `json:"title,omitempty" maxLength:"255" example:"Invoice March" doc:"Document title"`
	FolderID *string `json:"folder_id,omitempty" nullable:"true" example:"f-42" doc:"Target folder, null for none"`
}

type SaveRequest struct {
	Body SaveRequestData
}

type SaveData struct {
	Success     bool   `json:"success" example:"true" doc:"Whether the save endpoint accepted the image"`
	RedirectURL string `json:"redirect_url,omitempty" example:"/documents/42" doc:"Navigation target announced on the event stream"`
	NavigateIn  string `json:"navigate_in,omitempty" example:"1s" doc:"Delay before the navigation event"`
}

type SaveResponse struct {
	Body SaveData
}

type PreviewRequest struct {
	Live bool `query:"live" doc:"Grab the current live frame instead of the captured image"`
}

type PreviewResponse struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

// Log models
type LogsRequest struct {
	Limit int `query:"limit" minimum:"1" maximum:"1000" default:"200" doc:"Number of most recent entries"`
}

type LogsData struct {
	Entries []logging.LogEntry `json:"entries" doc:"Log entries, oldest first"`
	Count   int                `json:"count" example:"200" doc:"Number of entries returned"`
}

type LogsResponse struct {
	Body LogsData
}
