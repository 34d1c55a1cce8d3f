//go:build linux

package v4l2

import (
	"fmt"
	"unsafe"
)

// QueryControl describes a control. Drivers return EINVAL for unsupported IDs.
func QueryControl(devicePath string, id uint32) (Control, error) {
	fd, err := open(devicePath)
	if err != nil {
		return Control{}, fmt.Errorf("failed to open device: %w", err)
	}
	defer close(fd)

	qc := v4l2Queryctrl{id: id}
	if err := ioctl(fd, vidiocQueryctrl, unsafe.Pointer(&qc)); err != nil {
		return Control{}, fmt.Errorf("query control 0x%08x: %w", id, err)
	}

	return Control{
		ID:      qc.id,
		Name:    cstr(qc.name[:]),
		Type:    qc.typ,
		Min:     qc.minimum,
		Max:     qc.maximum,
		Step:    qc.step,
		Default: qc.defaultValue,
		Flags:   qc.flags,
	}, nil
}

// GetControl reads the current value of a control.
func GetControl(devicePath string, id uint32) (int32, error) {
	fd, err := open(devicePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open device: %w", err)
	}
	defer close(fd)

	ctrl := v4l2Control{id: id}
	if err := ioctl(fd, vidiocGCtrl, unsafe.Pointer(&ctrl)); err != nil {
		return 0, fmt.Errorf("get control 0x%08x: %w", id, err)
	}
	return ctrl.value, nil
}

// SetControl writes a control value.
func SetControl(devicePath string, id uint32, value int32) error {
	fd, err := open(devicePath)
	if err != nil {
		return fmt.Errorf("failed to open device: %w", err)
	}
	defer close(fd)

	ctrl := v4l2Control{id: id, value: value}
	if err := ioctl(fd, vidiocSCtrl, unsafe.Pointer(&ctrl)); err != nil {
		return fmt.Errorf("set control 0x%08x: %w", id, err)
	}
	return nil
}

// SupportsControl reports whether the device exposes an enabled control.
func SupportsControl(devicePath string, id uint32) bool {
	ctrl, err := QueryControl(devicePath, id)
	return err == nil && !ctrl.Disabled()
}
