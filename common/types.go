// package common contains common types that are used throughout the tracker. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// ImportedImage represents an encoded raster supplied by an external collaborator,
// such as a terrain elevation tile or a pre-rendered label atlas page.
// Either Data or Path must be populated.
type ImportedImage struct {
	// Name identifies the image in logs, e.g. a tile key "12/654/1432".
	Name string

	// Data contains raw encoded image bytes (PNG/JPEG).
	Data []byte

	// Path is a file path to load the image from when Data is empty.
	Path string

	// Width and Height are populated by Decode.
	Width  int
	Height int
}

// Decode decodes the image to raw RGBA pixel data.
// Uses either the Data bytes or loads from Path on disk.
// Supports PNG and JPEG formats.
// Reference: https://pkg.go.dev/image
//
// Returns:
//   - []byte: raw RGBA pixel data (4 bytes per pixel, row-major order)
//   - uint32: image width in pixels
//   - uint32: image height in pixels
//   - error: error if decoding fails
func (t *ImportedImage) Decode() ([]byte, uint32, uint32, error) {
	if t == nil {
		return nil, 0, 0, fmt.Errorf("image is nil")
	}

	var img image.Image
	var err error

	switch {
	case len(t.Data) > 0:
		img, _, err = image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode image %s: %w", t.Name, err)
		}
	case t.Path != "":
		file, fileErr := os.Open(t.Path)
		if fileErr != nil {
			return nil, 0, 0, fmt.Errorf("failed to open image file %s: %w", t.Path, fileErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode image file %s: %w", t.Path, err)
		}
	default:
		return nil, 0, 0, fmt.Errorf("image %s has neither data nor path", t.Name)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	t.Width = bounds.Dx()
	t.Height = bounds.Dy()

	return rgba.Pix, uint32(t.Width), uint32(t.Height), nil
}
