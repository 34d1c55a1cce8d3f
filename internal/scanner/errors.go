package scanner

import (
	"errors"

	"github.com/smazurov/docscan/internal/camera"
	"github.com/smazurov/docscan/internal/save"
)

// Pipeline precondition failures. None of them change pipeline state.
var (
	// ErrNoActiveCamera also matches capture.ErrNotActive.
	ErrNoActiveCamera = errors.New("no active camera")
	ErrNothingToSave  = errors.New("nothing to save")
	ErrSaveInProgress = errors.New("save already in progress")
	ErrPreviewShown   = errors.New("a captured image is being previewed")
)

// UserMessage turns any pipeline error into the text shown to the user.
// Save rejections are surfaced with the server's reason verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var rejected *save.RejectedError
	if errors.As(err, &rejected) && rejected.Reason != "" {
		return rejected.Reason
	}

	switch {
	case errors.Is(err, camera.ErrUnsupportedPlatform):
		return "Camera access is not supported on this device."
	case errors.Is(err, camera.ErrNoDeviceFound):
		return "No camera was found on this device."
	case errors.Is(err, camera.ErrPermissionDenied):
		return "Camera access was denied. Allow access to the camera and try again."
	case errors.Is(err, camera.ErrDeviceNotFound):
		return "The selected camera could not be found."
	case errors.Is(err, camera.ErrDeviceBusy):
		return "The camera is being used by another application."
	case errors.Is(err, camera.ErrUnknownAcquisition):
		return "The camera could not be started. Please try again."
	case errors.Is(err, ErrNoActiveCamera), errors.Is(err, camera.ErrNotActive):
		return "The camera is not active. Start the camera before capturing."
	case errors.Is(err, ErrNothingToSave):
		return "There is no captured image to save."
	case errors.Is(err, ErrSaveInProgress):
		return "The image is already being saved."
	case errors.Is(err, ErrPreviewShown):
		return "Retake or save the current image first."
	case errors.Is(err, save.ErrSaveRejected):
		return "The document could not be saved."
	case errors.Is(err, save.ErrSaveTransport):
		return "Could not reach the server. The image was kept, please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
