package hotplug

import (
	"maps"
	"testing"
)

func TestParseUEvent(t *testing.T) {
	tests := []struct {
		name   string
		input  []byte
		ok     bool
		want   Event
		device string
	}{
		{name: "empty", input: nil},
		{name: "no separator", input: []byte("invalid")},
		{name: "missing action", input: []byte("@/devices/foo\x00SUBSYSTEM=usb\x00")},
		{name: "libudev header", input: []byte("libudev\x00\xfe\xed\x00add@/devices/video0\x00")},
		{
			name:  "video add",
			input: []byte("add@/devices/pci0000:00/usb1/video4linux/video0\x00ACTION=add\x00SUBSYSTEM=video4linux\x00DEVNAME=video0\x00SEQNUM=4312\x00"),
			ok:    true,
			want: Event{
				Action:    ActionAdd,
				KObj:      "/devices/pci0000:00/usb1/video4linux/video0",
				Subsystem: SubsystemVideo4Linux,
				DevName:   "video0",
				Env: map[string]string{
					"ACTION":    "add",
					"SUBSYSTEM": "video4linux",
					"DEVNAME":   "video0",
					"SEQNUM":    "4312",
				},
			},
			device: "/dev/video0",
		},
		{
			name:  "usb remove without node",
			input: []byte("remove@/devices/usb/1-1\x00SUBSYSTEM=usb\x00PRODUCT=46d/825/12\x00"),
			ok:    true,
			want: Event{
				Action:    ActionRemove,
				KObj:      "/devices/usb/1-1",
				Subsystem: "usb",
				Env:       map[string]string{"SUBSYSTEM": "usb", "PRODUCT": "46d/825/12"},
			},
		},
		{
			name:  "malformed pairs skipped",
			input: []byte("change@/devices/x\x00NOEQUALS\x00=novalue\x00EMPTY=\x00"),
			ok:    true,
			want: Event{
				Action: ActionChange,
				KObj:   "/devices/x",
				Env:    map[string]string{"EMPTY": ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseUEvent(tt.input)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.Action != tt.want.Action || got.KObj != tt.want.KObj ||
				got.Subsystem != tt.want.Subsystem || got.DevName != tt.want.DevName {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if !maps.Equal(got.Env, tt.want.Env) {
				t.Errorf("env = %v, want %v", got.Env, tt.want.Env)
			}
			if d := got.DevicePath(); d != tt.device {
				t.Errorf("DevicePath() = %q, want %q", d, tt.device)
			}
		})
	}
}

func TestMatcher(t *testing.T) {
	video := Event{Subsystem: SubsystemVideo4Linux}
	usb := Event{Subsystem: "usb"}

	all := newMatcher(nil)
	if !all.accepts(video) || !all.accepts(usb) {
		t.Error("empty matcher should accept every subsystem")
	}

	only := newMatcher([]string{SubsystemVideo4Linux})
	if !only.accepts(video) {
		t.Error("video4linux event rejected")
	}
	if only.accepts(usb) {
		t.Error("usb event accepted by video4linux matcher")
	}
}
