package streaming

import (
	"bytes"
	"context"
	"testing"

	"github.com/smazurov/docscan/internal/ffmpeg"
)

func nal(header byte, payload ...byte) []byte {
	return append([]byte{0x00, 0x00, 0x00, 0x01, header}, payload...)
}

func TestSplitAccessUnits(t *testing.T) {
	var stream []byte
	stream = append(stream, nal(0x09, 0xf0)...)             // AUD
	stream = append(stream, nal(0x67, 0x42, 0xe0, 0x1f)...) // SPS
	stream = append(stream, nal(0x68, 0xce, 0x3c, 0x80)...) // PPS
	stream = append(stream, nal(0x65, 0x88, 0x84)...)       // IDR slice
	stream = append(stream, nal(0x09, 0xf0)...)
	stream = append(stream, nal(0x41, 0x9a, 0x02)...)

	var got [][]byte
	if err := splitAccessUnits(bytes.NewReader(stream), func(au []byte) {
		got = append(got, au)
	}); err != nil {
		t.Fatalf("splitAccessUnits() error = %v", err)
	}

	want := [][]byte{
		bytes.Join([][]byte{
			nal(0x67, 0x42, 0xe0, 0x1f),
			nal(0x68, 0xce, 0x3c, 0x80),
			nal(0x65, 0x88, 0x84),
		}, nil),
		nal(0x41, 0x9a, 0x02),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d access units, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Errorf("access unit %d = % x, want % x", i, got[i], want[i])
		}
	}
}

func TestSplitAccessUnitsEmptyStream(t *testing.T) {
	calls := 0
	if err := splitAccessUnits(bytes.NewReader(nil), func([]byte) { calls++ }); err != nil {
		t.Fatalf("splitAccessUnits() error = %v", err)
	}
	if calls != 0 {
		t.Errorf("emit called %d times for an empty stream", calls)
	}
}

func TestFFmpegEncoderMissingBinary(t *testing.T) {
	factory := FFmpegEncoder("/nonexistent/docscan-ffmpeg", ffmpeg.H264Params{}, nil)
	enc, err := factory(context.Background())
	if err == nil {
		_ = enc.Close()
		t.Fatal("expected an error for a missing binary")
	}
}
