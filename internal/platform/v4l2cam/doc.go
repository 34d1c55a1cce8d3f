// Package v4l2cam implements camera.Platform on Linux.
//
// Devices are enumerated and their focus controls negotiated through
// pkg/linuxav/v4l2. Live frames come from an ffmpeg process that reads the
// device and writes concatenated JPEG frames to a pipe; the newest frame is
// kept and decoded on demand.
//
// On other operating systems Supported is false and every operation fails
// with camera.ErrUnsupportedPlatform.
package v4l2cam
