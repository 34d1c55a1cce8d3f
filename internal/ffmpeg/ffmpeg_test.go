package ffmpeg

import (
	"log/slog"
	"slices"
	"strings"
	"testing"
)

func TestBuildH264Args(t *testing.T) {
	tests := []struct {
		name   string
		params H264Params
		want   string
	}{
		{
			name:   "defaults",
			params: H264Params{},
			want: "-hide_banner -nostdin -loglevel level+warning -f mjpeg -framerate 15 -i pipe:0 -an " +
				"-c:v libx264 -preset ultrafast -tune zerolatency -profile:v baseline -pix_fmt yuv420p -g 30 " +
				"-b:v 1500k -maxrate 1500k -bufsize 1500k -x264-params aud=1:repeat-headers=1 -f h264 pipe:1",
		},
		{
			name:   "scaled",
			params: H264Params{FPS: 10, BitrateKbps: 800, MaxHeight: 720, LogLevel: "error"},
			want: "-hide_banner -nostdin -loglevel level+error -f mjpeg -framerate 10 -i pipe:0 -an " +
				"-vf scale=-2:'min(720,ih)' " +
				"-c:v libx264 -preset ultrafast -tune zerolatency -profile:v baseline -pix_fmt yuv420p -g 20 " +
				"-b:v 800k -maxrate 800k -bufsize 800k -x264-params aud=1:repeat-headers=1 -f h264 pipe:1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.Join(BuildH264Args(tt.params), " "); got != tt.want {
				t.Errorf("BuildH264Args() =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestBuildPreviewArgs(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		want    string
		wantErr bool
	}{
		{
			name:    "missing device",
			params:  Params{},
			wantErr: true,
		},
		{
			name:   "minimal",
			params: Params{DevicePath: "/dev/video0"},
			want:   "-hide_banner -nostdin -loglevel level+warning -f v4l2 -i /dev/video0 -an -c:v mjpeg -q:v 2 -f image2pipe pipe:1",
		},
		{
			name: "full",
			params: Params{
				DevicePath:  "/dev/video2",
				InputFormat: "mjpeg",
				Width:       1920,
				Height:      1080,
				FPS:         30,
				Quality:     3,
				LogLevel:    "info",
				Options:     []OptionType{OptionLowLatency},
			},
			want: "-hide_banner -nostdin -loglevel level+info -f v4l2 -fflags +nobuffer -flags +low_delay " +
				"-input_format mjpeg -video_size 1920x1080 -framerate 30 -i /dev/video2 -an -c:v mjpeg -q:v 3 -f image2pipe pipe:1",
		},
		{
			name:   "size needs both dimensions",
			params: Params{DevicePath: "/dev/video0", Width: 1280},
			want:   "-hide_banner -nostdin -loglevel level+warning -f v4l2 -i /dev/video0 -an -c:v mjpeg -q:v 2 -f image2pipe pipe:1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := BuildPreviewArgs(tt.params)
			if (err != nil) != tt.wantErr {
				t.Fatalf("BuildPreviewArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := strings.Join(args, " "); got != tt.want {
				t.Errorf("BuildPreviewArgs() =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestCommand(t *testing.T) {
	if got := Command("", []string{"-i", "x"}); got != "ffmpeg -i x" {
		t.Errorf("Command() = %q", got)
	}
	if got := Command("/usr/bin/ffmpeg", nil); got != "/usr/bin/ffmpeg " {
		t.Errorf("Command() = %q", got)
	}
}

func TestParseOptions(t *testing.T) {
	got, err := ParseOptions([]string{"low_latency", " ", "ignore_err"})
	if err != nil {
		t.Fatalf("ParseOptions() error = %v", err)
	}
	if !slices.Equal(got, []OptionType{OptionLowLatency, OptionIgnoreErrors}) {
		t.Errorf("ParseOptions() = %v", got)
	}

	if _, err := ParseOptions([]string{"copyts"}); err == nil {
		t.Error("ParseOptions() accepted an unknown option")
	}
}

func TestDefaultOptions(t *testing.T) {
	if got := DefaultOptions(); !slices.Equal(got, []OptionType{OptionLowLatency}) {
		t.Errorf("DefaultOptions() = %v", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		line      string
		wantLevel string
		wantMsg   string
	}{
		{"[error] Cannot open video device", "error", "Cannot open video device"},
		{"[video4linux2,v4l2 @ 0x55d0] [error] ioctl(VIDIOC_STREAMON): Device or resource busy",
			"error", "[video4linux2,v4l2 @ 0x55d0] ioctl(VIDIOC_STREAMON): Device or resource busy"},
		{"plain line", "info", "plain line"},
		{"[mjpeg @ 0x1] not a level", "info", "[mjpeg @ 0x1] not a level"},
		{"[]", "info", "[]"},
	}

	for _, tt := range tests {
		level, msg := ParseLogLevel(tt.line)
		if level != tt.wantLevel || msg != tt.wantMsg {
			t.Errorf("ParseLogLevel(%q) = (%q, %q), want (%q, %q)", tt.line, level, msg, tt.wantLevel, tt.wantMsg)
		}
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"fatal":   slog.LevelError,
		"error":   slog.LevelError,
		"warning": slog.LevelWarn,
		"info":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"unknown": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := SlogLevel(in); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
