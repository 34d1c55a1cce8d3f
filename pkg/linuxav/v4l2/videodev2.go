//go:build linux

package v4l2

import (
	"encoding/binary"
	"unsafe"
)

// Compile-time struct size assertions.
// The structs used here have the same layout on 32-bit and 64-bit kernels.
var (
	_ [104]byte = [unsafe.Sizeof(v4l2Capability{})]byte{}
	_ [64]byte  = [unsafe.Sizeof(v4l2Fmtdesc{})]byte{}
	_ [44]byte  = [unsafe.Sizeof(v4l2Frmsizeenum{})]byte{}
	_ [68]byte  = [unsafe.Sizeof(v4l2Queryctrl{})]byte{}
	_ [8]byte   = [unsafe.Sizeof(v4l2Control{})]byte{}
)

// IOCTL request numbers.
const (
	vidiocQuerycap       = 0x80685600
	vidiocEnumFmt        = 0xc0405602
	vidiocGCtrl          = 0xc008561b
	vidiocSCtrl          = 0xc008561c
	vidiocQueryctrl      = 0xc0445624
	vidiocEnumFramesizes = 0xc02c564a
)

// v4l2Capability has size 104 bytes.
type v4l2Capability struct {
	driver       [16]byte  // offset 0
	card         [32]byte  // offset 16
	busInfo      [32]byte  // offset 48
	version      uint32    // offset 80
	capabilities uint32    // offset 84
	deviceCaps   uint32    // offset 88
	reserved     [3]uint32 // offset 92
}

// v4l2Fmtdesc has size 64 bytes.
type v4l2Fmtdesc struct {
	index       uint32    // offset 0
	typ         uint32    // offset 4
	flags       uint32    // offset 8
	description [32]byte  // offset 12
	pixelformat uint32    // offset 44
	mbusCode    uint32    // offset 48
	reserved    [3]uint32 // offset 52
}

// v4l2Frmsizeenum has size 44 bytes. The 24 byte union holds either
// v4l2_frmsize_discrete or v4l2_frmsize_stepwise.
type v4l2Frmsizeenum struct {
	index       uint32    // offset 0
	pixelFormat uint32    // offset 4
	typ         uint32    // offset 8
	u           [24]byte  // offset 12
	reserved    [2]uint32 // offset 36
}

func (f *v4l2Frmsizeenum) field(i int) uint32 {
	return binary.NativeEndian.Uint32(f.u[i*4:])
}

func (f *v4l2Frmsizeenum) discrete() Resolution {
	return Resolution{Width: f.field(0), Height: f.field(1)}
}

// stepwise returns the min and max frame sizes of a stepwise/continuous entry.
func (f *v4l2Frmsizeenum) stepwise() (Resolution, Resolution) {
	// min_width, max_width, step_width, min_height, max_height, step_height
	return Resolution{Width: f.field(0), Height: f.field(3)},
		Resolution{Width: f.field(1), Height: f.field(4)}
}

// v4l2Queryctrl has size 68 bytes.
type v4l2Queryctrl struct {
	id           uint32    // offset 0
	typ          uint32    // offset 4
	name         [32]byte  // offset 8
	minimum      int32     // offset 40
	maximum      int32     // offset 44
	step         int32     // offset 48
	defaultValue int32     // offset 52
	flags        uint32    // offset 56
	reserved     [2]uint32 // offset 60
}

// v4l2Control has size 8 bytes.
type v4l2Control struct {
	id    uint32
	value int32
}
