package v4l2cam

import (
	"bufio"
	"bytes"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/smazurov/docscan/internal/camera"
)

func fakeJPEG(payload ...byte) []byte {
	out := []byte{0xFF, 0xD8}
	out = append(out, payload...)
	return append(out, 0xFF, 0xD9)
}

func TestSplitJPEG(t *testing.T) {
	a := fakeJPEG(1, 2, 3)
	b := fakeJPEG(0xFF, 0x00, 4)
	c := fakeJPEG()

	var stream []byte
	stream = append(stream, 0x00, 0x13)
	stream = append(stream, a...)
	stream = append(stream, b...)
	stream = append(stream, 0xAA)
	stream = append(stream, c...)
	stream = append(stream, 0xFF, 0xD8, 9, 9)

	tests := []struct {
		name   string
		reader func() *bufio.Scanner
	}{
		{name: "whole", reader: func() *bufio.Scanner {
			return bufio.NewScanner(bytes.NewReader(stream))
		}},
		{name: "one byte at a time", reader: func() *bufio.Scanner {
			return bufio.NewScanner(iotest.OneByteReader(bytes.NewReader(stream)))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := tt.reader()
			scanner.Split(splitJPEG)

			var got [][]byte
			for scanner.Scan() {
				got = append(got, bytes.Clone(scanner.Bytes()))
			}
			if err := scanner.Err(); err != nil {
				t.Fatalf("scanner error = %v", err)
			}

			want := [][]byte{a, b, c}
			if len(got) != len(want) {
				t.Fatalf("got %d frames, want %d", len(got), len(want))
			}
			for i := range want {
				if !bytes.Equal(got[i], want[i]) {
					t.Errorf("frame %d = %x, want %x", i, got[i], want[i])
				}
			}
		})
	}
}

func TestClassifyStderr(t *testing.T) {
	tests := []struct {
		line string
		want error
	}{
		{"[video4linux2,v4l2 @ 0x1] Cannot open video device /dev/video0: Permission denied", camera.ErrPermissionDenied},
		{"/dev/video9: No such file or directory", camera.ErrDeviceNotFound},
		{"Cannot open video device /dev/video1: No such device", camera.ErrDeviceNotFound},
		{"ioctl(VIDIOC_STREAMON): Device or resource busy", camera.ErrDeviceBusy},
		{"Past duration 0.999 too large", nil},
	}

	for _, tt := range tests {
		err := classifyStderr(tt.line)
		if tt.want == nil {
			if err != nil {
				t.Errorf("classifyStderr(%q) = %v, want nil", tt.line, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("classifyStderr(%q) = %v, want %v", tt.line, err, tt.want)
		}
	}
}

func TestChooseSize(t *testing.T) {
	c := camera.NewConstraints(camera.FacingRear)

	tests := []struct {
		name   string
		sizes  []frameSize
		want   frameSize
		wantOK bool
	}{
		{
			name:   "ideal offered",
			sizes:  []frameSize{{640, 480}, {1280, 720}, {1920, 1080}, {3840, 2160}},
			want:   frameSize{1920, 1080},
			wantOK: true,
		},
		{
			name:   "largest within range",
			sizes:  []frameSize{{640, 480}, {1280, 720}, {1600, 900}, {2592, 1944}},
			want:   frameSize{1600, 900},
			wantOK: true,
		},
		{
			name:   "smallest above ideal",
			sizes:  []frameSize{{640, 480}, {3840, 2160}, {2592, 1944}},
			want:   frameSize{2592, 1944},
			wantOK: true,
		},
		{
			name:   "below minimum falls back to largest",
			sizes:  []frameSize{{320, 240}, {640, 480}},
			want:   frameSize{640, 480},
			wantOK: true,
		},
		{
			name: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := chooseSize(tt.sizes, c)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("chooseSize() = %v, %v, want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
