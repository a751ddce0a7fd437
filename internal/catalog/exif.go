package catalog

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
)

// CaptureTime extracts the capture timestamp (epoch milliseconds) from EXIF
// metadata. Returns nil when the file carries no usable EXIF date; callers
// fall back to the file modification time.
func CaptureTime(imageData []byte) *int64 {
	x, err := exif.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil
	}
	dt, err := x.DateTime()
	if err != nil {
		return nil
	}
	ms := dt.UnixMilli()
	return &ms
}
