package streaming

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// WebRTCPath is the signaling endpoint for the live view.
const WebRTCPath = "/api/scanner/preview/webrtc"

// WebRTCOfferInput is the request body for WebRTC signaling.
type WebRTCOfferInput struct {
	RawBody []byte `contentType:"application/sdp" doc:"SDP offer from browser"`
}

// WebRTCAnswerOutput is the response body for WebRTC signaling.
type WebRTCAnswerOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// RegisterWebRTCAPI registers the live view signaling endpoint.
func RegisterWebRTCAPI(api huma.API, manager *Manager) {
	huma.Register(api, huma.Operation{
		OperationID: "live-view-webrtc-offer",
		Method:      http.MethodPost,
		Path:        WebRTCPath,
		Summary:     "Live View (WebRTC)",
		Description: "Exchange SDP offer/answer for the H.264 live view. Clients fall back to polling the JPEG preview.",
		Tags:        []string{"scanner"},
		Errors:      []int{400, 503},
	}, func(ctx context.Context, input *WebRTCOfferInput) (*WebRTCAnswerOutput, error) {
		answer, err := manager.CreateViewer(ctx, string(input.RawBody))
		switch {
		case errors.Is(err, ErrInvalidOffer):
			return nil, huma.Error400BadRequest("The browser's connection offer was not accepted.", err)
		case err != nil:
			return nil, huma.Error503ServiceUnavailable("The live view is not available.", err)
		}
		return &WebRTCAnswerOutput{
			ContentType: "application/sdp",
			Body:        []byte(answer),
		}, nil
	})
}
