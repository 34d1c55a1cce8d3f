// Package hotplug reports kernel device uevents without cgo or libudev.
package hotplug

import (
	"bytes"
	"path"
)

// Actions a device uevent can carry. Only the ones the callers act on are named.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionChange = "change"
)

// SubsystemVideo4Linux is the subsystem of /dev/video* nodes.
const SubsystemVideo4Linux = "video4linux"

// Event is one kernel uevent.
type Event struct {
	Action    string
	KObj      string // sysfs path, /devices/...
	Subsystem string
	DevName   string // node name relative to /dev, e.g. video0
	Env       map[string]string
}

// DevicePath is the /dev node the event refers to, or "" when it has none.
func (e Event) DevicePath() string {
	if e.DevName == "" {
		return ""
	}
	return path.Join("/dev", e.DevName)
}

// ParseUEvent decodes a kernel uevent datagram of the form
// "ACTION@KOBJ\x00KEY=VALUE\x00...". Messages re-broadcast by udevd
// carry a binary "libudev" header and are rejected.
func ParseUEvent(data []byte) (Event, bool) {
	if len(data) == 0 || bytes.HasPrefix(data, []byte("libudev")) {
		return Event{}, false
	}

	fields := bytes.Split(data, []byte{0})
	action, kobj, ok := bytes.Cut(fields[0], []byte("@"))
	if !ok || len(action) == 0 {
		return Event{}, false
	}

	ev := Event{
		Action: string(action),
		KObj:   string(kobj),
		Env:    make(map[string]string, len(fields)-1),
	}
	for _, field := range fields[1:] {
		key, value, ok := bytes.Cut(field, []byte("="))
		if !ok || len(key) == 0 {
			continue
		}
		ev.Env[string(key)] = string(value)
	}
	ev.Subsystem = ev.Env["SUBSYSTEM"]
	ev.DevName = ev.Env["DEVNAME"]
	return ev, true
}

// matcher accepts events from a fixed set of subsystems; an empty set accepts all.
type matcher map[string]struct{}

func newMatcher(subsystems []string) matcher {
	m := make(matcher, len(subsystems))
	for _, s := range subsystems {
		m[s] = struct{}{}
	}
	return m
}

func (m matcher) accepts(ev Event) bool {
	if len(m) == 0 {
		return true
	}
	_, ok := m[ev.Subsystem]
	return ok
}
