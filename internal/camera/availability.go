package camera

import (
	"context"
	"log/slog"
)

// Availability is the result of a device check.
type Availability struct {
	// Usable is true when at least one video input exists.
	Usable bool `json:"usable" doc:"A camera can be started"`
	// Multiple gates the switch-facing control.
	Multiple bool `json:"multiple" doc:"More than one camera is present"`
	// Determined is false when enumeration itself failed.
	Determined bool `json:"determined" doc:"Whether enumeration succeeded"`
	Count      int  `json:"count" doc:"Number of video inputs"`
	// Reason explains why Usable is false.
	Reason error `json:"-"`
}

// CheckAvailability enumerates video inputs on p. It never panics and never
// returns an error: enumeration failures are logged and reported with
// Determined=false.
func CheckAvailability(ctx context.Context, p Platform, logger *slog.Logger) Availability {
	if p == nil {
		return Availability{Determined: true, Reason: ErrUnsupportedPlatform}
	}

	devices, err := p.Devices(ctx)
	if err != nil {
		logger.Warn("Camera enumeration failed", "error", err)
		return Availability{Reason: err}
	}

	av := Availability{
		Determined: true,
		Count:      len(devices),
		Usable:     len(devices) > 0,
		Multiple:   len(devices) >= 2,
	}
	if !av.Usable {
		av.Reason = ErrNoDeviceFound
	}
	logger.Debug("Camera availability", "count", av.Count, "multiple", av.Multiple)
	return av
}
