package camera

import (
	"errors"
	"fmt"
)

// Availability and acquisition failures. Platforms wrap their native errors
// with one of these so callers can pick a user-facing message with errors.Is.
var (
	ErrUnsupportedPlatform = errors.New("camera access is not supported on this platform")
	ErrNoDeviceFound       = errors.New("no camera found")
	ErrPermissionDenied    = errors.New("camera permission denied")
	ErrDeviceNotFound      = errors.New("requested camera not found")
	ErrDeviceBusy          = errors.New("camera is in use by another application")
	ErrUnknownAcquisition  = errors.New("camera could not be started")
	ErrNotActive           = errors.New("camera is not active")
)

// acquisitionErrors are the failures Start may report as-is.
var acquisitionErrors = []error{
	ErrPermissionDenied,
	ErrDeviceNotFound,
	ErrDeviceBusy,
	ErrUnknownAcquisition,
}

// classify makes sure err matches exactly one acquisition sentinel.
func classify(err error) error {
	for _, target := range acquisitionErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrUnknownAcquisition, err)
}

// FailureReason returns a short label for metrics and logs.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrDeviceNotFound):
		return "device_not_found"
	case errors.Is(err, ErrDeviceBusy):
		return "device_busy"
	default:
		return "unknown"
	}
}
