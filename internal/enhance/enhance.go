// Package enhance applies the fixed document contrast and brightness pass.
package enhance

import (
	"image"
	"math"
)

// Contrast is applied around Midpoint first, then Brightness scales the result.
const (
	Contrast   = 1.4
	Brightness = 1.1
	Midpoint   = 128
)

var lut = buildLUT()

func buildLUT() [256]uint8 {
	var t [256]uint8
	for v := range t {
		t[v] = Level(uint8(v))
	}
	return t
}

// Level maps one channel value. Results are rounded half away from zero and
// clamped to [0, 255].
func Level(v uint8) uint8 {
	x := ((float64(v)-Midpoint)*Contrast + Midpoint) * Brightness
	x = math.Round(x)
	switch {
	case x < 0:
		return 0
	case x > 255:
		return 255
	default:
		return uint8(x)
	}
}

// Enhance rewrites the R, G and B channels of img in place and returns it.
// Alpha is left untouched. A nil image is returned as is.
func Enhance(img *image.NRGBA) *image.NRGBA {
	if img == nil {
		return nil
	}
	b := img.Rect
	width := b.Dx() * 4
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):][:width]
		for i := 0; i < len(row); i += 4 {
			row[i] = lut[row[i]]
			row[i+1] = lut[row[i+1]]
			row[i+2] = lut[row[i+2]]
		}
	}
	return img
}
