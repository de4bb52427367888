package model

import "math"

// GlowTexture renders the radial sprite used by glow instances as RGBA8 pixels:
// white, opaque in the inner 30% of the radius, fading out towards the edge.
//
// Parameters:
//   - size: width and height in pixels
//
// Returns:
//   - []byte: size*size*4 bytes, row-major
func GlowTexture(size int) []byte {
	pix := make([]byte, size*size*4)
	center := float64(size) / 2
	for y := range size {
		for x := range size {
			dx, dy := float64(x)-center, float64(y)-center
			dist := math.Sqrt(dx*dx+dy*dy) / center

			var alpha float64
			switch {
			case dist < 0.3:
				alpha = 1
			case dist < 0.7:
				alpha = 1 - (dist-0.3)/0.4
			default:
				alpha = max(0, 1-(dist-0.3)/0.7) * 0.2
			}

			i := (y*size + x) * 4
			pix[i], pix[i+1], pix[i+2] = 255, 255, 255
			pix[i+3] = uint8(min(255, alpha*255))
		}
	}
	return pix
}
