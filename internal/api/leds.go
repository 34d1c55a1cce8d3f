package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/docscan/internal/led"
)

// LEDRequest represents a request to control an LED
type LEDRequest struct {
	Body struct {
		Type    string  `json:"type" example:"user" doc:"LED type (board-specific: user, act, blue, green, etc.)"`
		Enabled bool    `json:"enabled" example:"true" doc:"Whether the LED should be on or off"`
		Pattern *string `json:"pattern,omitempty" example:"solid" doc:"Optional LED pattern (solid, blink, heartbeat)"`
	}
}

// LEDCapabilities lists what the board offers and which LED signals camera use.
type LEDCapabilities struct {
	AvailableTypes    []string `json:"available_types" doc:"List of available LED types on this board"`
	AvailablePatterns []string `json:"available_patterns" doc:"List of available LED patterns on this board"`
	Indicator         string   `json:"indicator,omitempty" example:"user" doc:"LED that follows the camera session"`
}

// LEDCapabilitiesResponse represents the LED capabilities of the current board
type LEDCapabilitiesResponse struct {
	Body LEDCapabilities
}

// registerLEDRoutes registers LED control endpoints
func (s *Server) registerLEDRoutes() {
	if s.options.LEDController == nil {
		s.logger.Debug("LED controller not available, skipping LED routes")
		return
	}
	ctrl := s.options.LEDController

	huma.Register(s.api, huma.Operation{
		OperationID: "control-led",
		Method:      http.MethodPost,
		Path:        "/api/leds",
		Summary:     "Control LED",
		Description: "Set an LED directly. The camera indicator is overwritten on the next session change.",
		Tags:        []string{"leds"},
		Errors:      []int{400},
	}, func(ctx context.Context, input *LEDRequest) (*struct{}, error) {
		pattern := ""
		if input.Body.Pattern != nil {
			pattern = *input.Body.Pattern
		}

		if err := ctrl.Set(input.Body.Type, input.Body.Enabled, pattern); err != nil {
			return nil, huma.Error400BadRequest("Failed to control LED", err)
		}

		return &struct{}{}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-led-capabilities",
		Method:      http.MethodGet,
		Path:        "/api/leds/capabilities",
		Summary:     "Get LED Capabilities",
		Description: "Get the available LED types and patterns and the camera indicator",
		Tags:        []string{"leds"},
	}, func(ctx context.Context, input *struct{}) (*LEDCapabilitiesResponse, error) {
		return &LEDCapabilitiesResponse{
			Body: LEDCapabilities{
				AvailableTypes:    ctrl.Available(),
				AvailablePatterns: ctrl.Patterns(),
				Indicator:         led.DefaultIndicator(ctrl),
			},
		}, nil
	})

	s.logger.Info("LED routes registered")
}
