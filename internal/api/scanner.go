package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/docscan/internal/api/models"
	"github.com/smazurov/docscan/internal/camera"
	"github.com/smazurov/docscan/internal/save"
	"github.com/smazurov/docscan/internal/scanner"
)

// previewPath serves the captured image, or a live frame with ?live=true.
const previewPath = "/api/scanner/preview"

// scannerError maps pipeline failures to HTTP errors. The message is always
// the user-facing text; the wrapped error is kept as detail.
func scannerError(err error) error {
	msg := scanner.UserMessage(err)

	var rejected *save.RejectedError
	switch {
	case errors.Is(err, scanner.ErrPreviewShown),
		errors.Is(err, scanner.ErrNoActiveCamera),
		errors.Is(err, scanner.ErrNothingToSave),
		errors.Is(err, scanner.ErrSaveInProgress),
		errors.Is(err, camera.ErrNotActive):
		return huma.Error409Conflict(msg)
	case errors.As(err, &rejected):
		return huma.Error422UnprocessableEntity(msg, err)
	case errors.Is(err, save.ErrSaveTransport):
		return huma.Error502BadGateway(msg, err)
	case errors.Is(err, camera.ErrPermissionDenied):
		return huma.Error403Forbidden(msg, err)
	case errors.Is(err, camera.ErrUnsupportedPlatform),
		errors.Is(err, camera.ErrNoDeviceFound),
		errors.Is(err, camera.ErrDeviceNotFound),
		errors.Is(err, camera.ErrDeviceBusy),
		errors.Is(err, camera.ErrUnknownAcquisition):
		return huma.Error503ServiceUnavailable(msg, err)
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}

func (s *Server) registerScannerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-scanner-status",
		Method:      http.MethodGet,
		Path:        "/api/scanner/status",
		Summary:     "Scanner Status",
		Description: "Current view, camera session state and captured image summary",
		Tags:        []string{"scanner"},
	}, func(ctx context.Context, input *struct{}) (*models.StatusResponse, error) {
		return &models.StatusResponse{Body: s.pipeline.Status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-camera-availability",
		Method:      http.MethodGet,
		Path:        "/api/scanner/availability",
		Summary:     "Camera Availability",
		Description: "Enumerate video inputs. Multiple cameras enable the switch control.",
		Tags:        []string{"scanner"},
	}, func(ctx context.Context, input *struct{}) (*models.AvailabilityResponse, error) {
		av := s.pipeline.Availability(ctx)
		data := models.AvailabilityData{
			Usable:     av.Usable,
			Multiple:   av.Multiple,
			Determined: av.Determined,
			Count:      av.Count,
		}
		if av.Reason != nil && (!av.Usable || !av.Determined) {
			data.Message = scanner.UserMessage(av.Reason)
		}
		return &models.AvailabilityResponse{Body: data}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "start-camera",
		Method:      http.MethodPost,
		Path:        "/api/scanner/start",
		Summary:     "Start Camera",
		Description: "Acquire the camera with the current facing and start the live view",
		Tags:        []string{"scanner"},
		Errors:      []int{403, 409, 503},
	}, func(ctx context.Context, input *struct{}) (*models.StatusResponse, error) {
		if err := s.pipeline.Start(ctx); err != nil {
			return nil, scannerError(err)
		}
		return &models.StatusResponse{Body: s.pipeline.Status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "capture-document",
		Method:      http.MethodPost,
		Path:        "/api/scanner/capture",
		Summary:     "Capture",
		Description: "Freeze the live frame, enhance it and switch to the preview",
		Tags:        []string{"scanner"},
		Errors:      []int{409, 500},
	}, func(ctx context.Context, input *struct{}) (*models.CaptureResponse, error) {
		img, err := s.pipeline.Capture(ctx)
		if err != nil {
			return nil, scannerError(err)
		}
		return &models.CaptureResponse{
			Body: models.CaptureData{
				Width:      img.Width,
				Height:     img.Height,
				Bytes:      len(img.Data),
				CapturedAt: img.CapturedAt,
				PreviewURL: previewPath,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "switch-camera",
		Method:      http.MethodPost,
		Path:        "/api/scanner/switch",
		Summary:     "Switch Camera",
		Description: "Toggle between front and rear cameras, restarting the live view when active",
		Tags:        []string{"scanner"},
		Errors:      []int{403, 503},
	}, func(ctx context.Context, input *struct{}) (*models.SwitchResponse, error) {
		facing, err := s.pipeline.SwitchFacing(ctx)
		if err != nil {
			return nil, scannerError(err)
		}
		return &models.SwitchResponse{
			Body: models.SwitchData{Facing: string(facing), Status: s.pipeline.Status()},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "retake",
		Method:      http.MethodPost,
		Path:        "/api/scanner/retake",
		Summary:     "Retake",
		Description: "Discard the captured image and restart the camera",
		Tags:        []string{"scanner"},
		Errors:      []int{403, 409, 503},
	}, func(ctx context.Context, input *struct{}) (*models.StatusResponse, error) {
		if err := s.pipeline.Retake(ctx); err != nil {
			return nil, scannerError(err)
		}
		return &models.StatusResponse{Body: s.pipeline.Status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "save-document",
		Method:      http.MethodPost,
		Path:        "/api/scanner/save",
		Summary:     "Save",
		Description: "Upload the captured image. On success a navigation event follows after a short delay.",
		Tags:        []string{"scanner"},
		Errors:      []int{409, 422, 502},
	}, func(ctx context.Context, input *models.SaveRequest) (*models.SaveResponse, error) {
		res, err := s.pipeline.Submit(ctx, input.Body.Title, input.Body.FolderID)
		if err != nil {
			return nil, scannerError(err)
		}
		data := models.SaveData{Success: res.Success, RedirectURL: res.RedirectURL}
		if res.RedirectURL != "" {
			delay := s.options.NavigateDelay
			if delay <= 0 {
				delay = scanner.DefaultNavigateDelay
			}
			data.NavigateIn = delay.String()
		}
		return &models.SaveResponse{Body: data}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-preview",
		Method:      http.MethodGet,
		Path:        previewPath,
		Summary:     "Preview Image",
		Description: "The enhanced JPEG while previewing, or the current live frame with live=true",
		Tags:        []string{"scanner"},
		Errors:      []int{404, 409},
	}, func(ctx context.Context, input *models.PreviewRequest) (*models.PreviewResponse, error) {
		if input.Live {
			frame, err := s.pipeline.LiveFrame()
			if err != nil {
				return nil, scannerError(err)
			}
			return &models.PreviewResponse{
				ContentType:  "image/jpeg",
				CacheControl: "no-store",
				Body:         frame.Data,
			}, nil
		}

		img, ok := s.pipeline.Image()
		if !ok {
			return nil, huma.Error404NotFound("No captured image")
		}
		return &models.PreviewResponse{
			ContentType:  "image/jpeg",
			CacheControl: "no-store",
			Body:         img.Data,
		}, nil
	})
}
