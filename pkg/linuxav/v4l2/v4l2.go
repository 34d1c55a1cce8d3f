//go:build linux

// Package v4l2 provides pure Go bindings to the Video4Linux2 (V4L2) API
// for device enumeration, frame size queries and camera control negotiation.
//
// This package does not use cgo, enabling simple cross-compilation for
// different Linux architectures (amd64, arm64, arm).
//
// # Device Enumeration
//
// Use FindDevices to discover all V4L2 video capture devices:
//
//	devices, err := v4l2.FindDevices()
//	for _, dev := range devices {
//	    fmt.Printf("%s: %s\n", dev.DevicePath, dev.DeviceName)
//	}
//
// # Frame Sizes
//
// Query supported formats and the largest frame a device can deliver:
//
//	formats, _ := v4l2.GetFormats("/dev/video0")
//	res, _ := v4l2.MaxResolution("/dev/video0", formats[0].PixelFormat)
//
// # Controls
//
// Query and set camera controls such as autofocus:
//
//	ctrl, err := v4l2.QueryControl("/dev/video0", v4l2.CIDFocusAuto)
//	if err == nil && !ctrl.Disabled() {
//	    _ = v4l2.SetControl("/dev/video0", v4l2.CIDFocusAuto, 1)
//	}
package v4l2
