package extractor

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// Crop removes top and bottom pixel bands from a PNG. Images too short to
// crop are returned unchanged.
func Crop(src []byte, top, bottom int) ([]byte, error) {
	if top <= 0 && bottom <= 0 {
		return src, nil
	}
	img, err := png.Decode(bytes.NewReader(src))
	if err != nil {
		return src, fmt.Errorf("decode screenshot: %w", err)
	}

	b := img.Bounds()
	if b.Dy() <= top+bottom {
		return src, nil
	}
	rect := image.Rect(b.Min.X, b.Min.Y+top, b.Max.X, b.Max.Y-bottom)
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(dst, image.Point{}, img, rect, draw.Src, nil)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, dst); err != nil {
		return src, fmt.Errorf("encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}
