package relevance

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	// Registered decoders for the formats citizens upload.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// InputSize is the square edge the embedding model expects.
const InputSize = 224

// DefaultMaxPixels caps the decoded size of an upload (40 MP).
const DefaultMaxPixels int64 = 40_000_000

// ErrImageTooLarge is returned when the declared dimensions exceed the pixel budget.
var ErrImageTooLarge = errors.New("image dimensions exceed pixel budget")

// DetectFormat returns the registered format name ("jpeg", "png", ...) of raw.
func DetectFormat(raw []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("detect image format: %w", err)
	}
	return format, nil
}

// Preprocess decodes raw, flattens it to opaque RGB, centre-crops it to a square
// and resizes it to InputSize. The result is PNG encoded. The header is checked
// against maxPixels before any pixel data is decoded; non-positive maxPixels
// selects DefaultMaxPixels.
func Preprocess(raw []byte, maxPixels int64) ([]byte, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("decode image: empty bounds")
	}
	if int64(cfg.Width) > maxPixels/int64(cfg.Height) {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("decode image: empty bounds")
	}
	side := w
	if h < w {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Over)

	dst := image.NewRGBA(image.Rect(0, 0, InputSize, InputSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Src, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}
