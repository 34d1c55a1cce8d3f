package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"time"
)

// JPEGQuality is the fixed quality used for captured documents.
const JPEGQuality = 95

// PreviewQuality is used for live frames that need re-encoding.
const PreviewQuality = 75

const dataURIPrefix = "data:image/jpeg;base64,"

// CapturedImage is an encoded capture. It is immutable once built.
type CapturedImage struct {
	Data       []byte
	Width      int
	Height     int
	CapturedAt time.Time
}

// Encode JPEG-encodes img at JPEGQuality.
func Encode(img image.Image, at time.Time) (*CapturedImage, error) {
	return encode(img, JPEGQuality, at)
}

func encode(img image.Image, quality int, at time.Time) (*CapturedImage, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	b := img.Bounds()
	return &CapturedImage{
		Data:       buf.Bytes(),
		Width:      b.Dx(),
		Height:     b.Dy(),
		CapturedAt: at,
	}, nil
}

// DataURI returns the image as a base64 data URI.
func (c *CapturedImage) DataURI() string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString(c.Data)
}
