// Package raster holds the in-memory pixel grid shared by the BMP codec and
// the transform pipeline. Rows run top to bottom; the bottom-up storage order
// of BMP files never leaks past the codec.
package raster

// Pixel is one 24-bit color sample.
type Pixel struct {
	R, G, B uint8
}

// Image is a rectangular grid of pixels. Every row has the same length.
// The zero value is the sentinel returned on decode failure.
type Image struct {
	Pixels [][]Pixel
}

// New allocates a zeroed (black) image. Non-positive dimensions yield the
// empty sentinel.
func New(width, height int) Image {
	if width <= 0 || height <= 0 {
		return Image{}
	}
	rows := make([][]Pixel, height)
	for i := range rows {
		rows[i] = make([]Pixel, width)
	}
	return Image{Pixels: rows}
}

func (m Image) Width() int {
	if len(m.Pixels) == 0 {
		return 0
	}
	return len(m.Pixels[0])
}

func (m Image) Height() int {
	return len(m.Pixels)
}

// Empty reports whether the image is the decode-failure sentinel (or has no
// pixels for any other reason).
func (m Image) Empty() bool {
	return m.Width() == 0 || m.Height() == 0
}

// Clone returns a deep copy. Transforms that pass rows through unchanged use
// it to keep their output independent of the input.
func (m Image) Clone() Image {
	if m.Empty() {
		return Image{}
	}
	out := make([][]Pixel, len(m.Pixels))
	for i, row := range m.Pixels {
		out[i] = make([]Pixel, len(row))
		copy(out[i], row)
	}
	return Image{Pixels: out}
}

// Equal reports pixel-for-pixel equality, dimensions included.
func (m Image) Equal(other Image) bool {
	if m.Height() != other.Height() || m.Width() != other.Width() {
		return false
	}
	for i, row := range m.Pixels {
		for j, p := range row {
			if p != other.Pixels[i][j] {
				return false
			}
		}
	}
	return true
}
