//go:build linux

package v4l2

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// GetFormats returns all supported pixel formats for a device.
func GetFormats(devicePath string) ([]FormatInfo, error) {
	fd, err := open(devicePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open device: %w", err)
	}
	defer close(fd)

	var formats []FormatInfo

	for i := uint32(0); ; i++ {
		fmtdesc := v4l2Fmtdesc{
			index: i,
			typ:   v4l2BufTypeVideoCapture,
		}

		if ioctlErr := ioctl(fd, vidiocEnumFmt, unsafe.Pointer(&fmtdesc)); ioctlErr != nil {
			if errors.Is(ioctlErr, unix.EINVAL) {
				break // End of enumeration
			}
			return nil, fmt.Errorf("failed to enumerate format %d: %w", i, ioctlErr)
		}

		formats = append(formats, FormatInfo{
			PixelFormat: fmtdesc.pixelformat,
			FormatName:  cstr(fmtdesc.description[:]),
			Emulated:    fmtdesc.flags&v4l2FmtFlagEmulated != 0,
		})
	}

	return formats, nil
}

// GetResolutions returns all supported resolutions for a device and pixel format.
func GetResolutions(devicePath string, pixelFormat uint32) ([]Resolution, error) {
	fd, err := open(devicePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open device: %w", err)
	}
	defer close(fd)

	var resolutions []Resolution

	for i := uint32(0); ; i++ {
		frmsize := v4l2Frmsizeenum{
			index:       i,
			pixelFormat: pixelFormat,
		}

		if ioctlErr := ioctl(fd, vidiocEnumFramesizes, unsafe.Pointer(&frmsize)); ioctlErr != nil {
			if errors.Is(ioctlErr, unix.EINVAL) {
				break // End of enumeration
			}
			// ENOTTY means device doesn't support frame size enumeration
			if errors.Is(ioctlErr, unix.ENOTTY) {
				return []Resolution{}, nil
			}
			return nil, fmt.Errorf("failed to enumerate frame size %d: %w", i, ioctlErr)
		}

		switch frmsize.typ {
		case v4l2FrmsizeTypeDiscrete:
			resolutions = append(resolutions, frmsize.discrete())
		case v4l2FrmsizeTypeContinuous, v4l2FrmsizeTypeStepwise:
			minRes, maxRes := frmsize.stepwise()
			return append(resolutions, commonResolutionsWithin(minRes, maxRes)...), nil
		}
	}

	return resolutions, nil
}

// MaxResolution returns the largest frame size the device offers for a format.
func MaxResolution(devicePath string, pixelFormat uint32) (Resolution, error) {
	resolutions, err := GetResolutions(devicePath, pixelFormat)
	if err != nil {
		return Resolution{}, err
	}
	best, ok := Largest(resolutions)
	if !ok {
		return Resolution{}, fmt.Errorf("no frame sizes reported for %s", FormatFourCC(pixelFormat))
	}
	return best, nil
}

// Largest picks the resolution with the most pixels.
func Largest(resolutions []Resolution) (Resolution, bool) {
	var best Resolution
	for _, r := range resolutions {
		if r.Pixels() > best.Pixels() {
			best = r
		}
	}
	return best, best.Pixels() > 0
}

// commonResolutionsWithin returns common resolutions within a stepwise range,
// always including the range maximum.
func commonResolutionsWithin(minRes, maxRes Resolution) []Resolution {
	commonResolutions := []Resolution{
		{320, 240},   // QVGA
		{640, 480},   // VGA
		{800, 600},   // SVGA
		{1024, 768},  // XGA
		{1280, 720},  // HD
		{1280, 960},  // SXGA-
		{1920, 1080}, // Full HD
		{2560, 1440}, // QHD
		{3840, 2160}, // 4K UHD
	}

	var resolutions []Resolution
	for _, res := range commonResolutions {
		if res.Width >= minRes.Width && res.Width <= maxRes.Width &&
			res.Height >= minRes.Height && res.Height <= maxRes.Height {
			resolutions = append(resolutions, res)
		}
	}
	if maxRes.Pixels() > 0 {
		resolutions = append(resolutions, maxRes)
	}

	return resolutions
}

// FormatFourCC converts a 4-byte pixel format to a human-readable string.
func FormatFourCC(format uint32) string {
	b := make([]byte, 4)
	b[0] = byte(format & 0xFF)
	b[1] = byte((format >> 8) & 0xFF)
	b[2] = byte((format >> 16) & 0xFF)
	b[3] = byte((format >> 24) & 0xFF)
	return string(b)
}
