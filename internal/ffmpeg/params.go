package ffmpeg

// Params describes an MJPEG preview pipe from a V4L2 device.
type Params struct {
	// Binary defaults to "ffmpeg".
	Binary      string
	DevicePath  string
	InputFormat string // mjpeg, yuyv422
	Width       int
	Height      int
	FPS         int
	// Quality is the mjpeg -q:v value, 2 (best) to 31.
	Quality int
	// LogLevel is passed as -loglevel level+<LogLevel>.
	LogLevel string
	Options  []OptionType
}

// H264Params describes the live preview encoder: JPEG frames on stdin,
// Annex-B H.264 on stdout.
type H264Params struct {
	FPS int
	// BitrateKbps caps the encoder rate.
	BitrateKbps int
	// MaxHeight downscales taller frames, keeping the aspect ratio.
	MaxHeight int
	LogLevel  string
}
