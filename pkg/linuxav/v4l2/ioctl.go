//go:build linux

package v4l2

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctl issues req on fd. EINTR is retried.
func ioctl(fd int, req uint, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
		switch errno {
		case 0:
			return nil
		case unix.EINTR:
			continue
		default:
			return errno
		}
	}
}

// open opens a device node without blocking on streaming devices.
func open(path string) (int, error) {
	return unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
}

func close(fd int) error {
	return unix.Close(fd)
}
