//go:build linux

package hotplug

import (
	"context"
	"errors"

	"golang.org/x/sys/unix"
)

// kernelGroup is the netlink multicast group the kernel sends uevents to.
const kernelGroup = 1

// Monitor reads uevents from a NETLINK_KOBJECT_UEVENT socket.
type Monitor struct {
	fd    int
	match matcher
}

// NewMonitor opens the uevent socket. Only events from the given
// subsystems are delivered; none means every subsystem.
func NewMonitor(subsystems ...string) (*Monitor, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, err
	}
	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: kernelGroup}); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	// A receive timeout lets Run notice cancellation.
	tv := unix.Timeval{Sec: 1}
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return &Monitor{fd: fd, match: newMatcher(subsystems)}, nil
}

// Close releases the socket. Call it after Run has returned.
func (m *Monitor) Close() error {
	return unix.Close(m.fd)
}

// Run delivers matching events to out until ctx is cancelled or the
// socket fails. out is closed when Run returns.
func (m *Monitor) Run(ctx context.Context, out chan<- Event) error {
	defer close(out)

	buf := make([]byte, 16<<10)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, _, err := unix.Recvfrom(m.fd, buf, 0)
		switch {
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ENOBUFS):
			// The kernel dropped events; later ones still arrive.
			continue
		case err != nil:
			return err
		}

		ev, ok := ParseUEvent(buf[:n])
		if !ok || !m.match.accepts(ev) {
			continue
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
