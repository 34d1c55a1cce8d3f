//go:build linux

package v4l2

// DeviceInfo contains information about a V4L2 device.
type DeviceInfo struct {
	DevicePath string
	DeviceName string
	DeviceID   string // Stable identifier (from /dev/v4l/by-id/ or synthetic)
	BusInfo    string
	Caps       uint32
}

// FormatInfo contains information about a supported pixel format.
type FormatInfo struct {
	PixelFormat uint32
	FormatName  string
	Emulated    bool
}

// Resolution represents a supported video resolution.
type Resolution struct {
	Width  uint32
	Height uint32
}

// Pixels returns the frame area.
func (r Resolution) Pixels() uint64 {
	return uint64(r.Width) * uint64(r.Height)
}

// Control describes a V4L2 control as reported by VIDIOC_QUERYCTRL.
type Control struct {
	ID      uint32
	Name    string
	Type    uint32
	Min     int32
	Max     int32
	Step    int32
	Default int32
	Flags   uint32
}

// Disabled reports whether the driver marked the control as permanently disabled.
func (c Control) Disabled() bool {
	return c.Flags&v4l2CtrlFlagDisabled != 0
}

// Camera control IDs.
const (
	CIDFocusAuto      uint32 = 0x009a090c // V4L2_CID_FOCUS_AUTO (continuous autofocus)
	CIDAutoFocusStart uint32 = 0x009a091c // V4L2_CID_AUTO_FOCUS_START (single-shot)
)

// Capability flags.
const (
	v4l2CapVideoCapture = 0x00000001
	v4l2CapDeviceCaps   = 0x80000000
)

// Format flags.
const (
	v4l2FmtFlagEmulated = 0x0002
)

// Control flags.
const (
	v4l2CtrlFlagDisabled = 0x0001
)

// Common pixel formats.
const (
	PixFmtYUYV  uint32 = 0x56595559 // 'YUYV'
	PixFmtMJPEG uint32 = 0x47504A4D // 'MJPG'
	PixFmtNV12  uint32 = 0x3231564E // 'NV12'
)

// Frame size types.
const (
	v4l2FrmsizeTypeDiscrete   = 1
	v4l2FrmsizeTypeContinuous = 2
	v4l2FrmsizeTypeStepwise   = 3
)

// Buffer type.
const (
	v4l2BufTypeVideoCapture = 1
)
