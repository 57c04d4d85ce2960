// Package transform implements the pixel-level and geometric image
// operations. Every function is pure: it reads its input and returns a
// freshly allocated image, so callers may share inputs freely.
//
// Channel arithmetic truncates float results toward zero and clamps to
// [0,255]. Scaling factors outside [0,1] are accepted; clamping keeps the
// result a valid channel either way.
package transform

import (
	"errors"
	"math"

	"github.com/rasterworks/bmpflow/internal/raster"
)

var (
	// ErrInvalidRotation marks a rotation request whose angle is not a
	// multiple of 90 degrees. The unmodified input is returned with it.
	ErrInvalidRotation = errors.New("transform: rotation angle must be a multiple of 90 degrees")

	// ErrInvalidScale marks an enlarge request with a scale below one.
	ErrInvalidScale = errors.New("transform: enlarge scales must be at least 1")
)

func clampChannel(v float64) uint8 {
	t := int(v) // truncate toward zero
	if t < 0 {
		return 0
	}
	if t > 255 {
		return 255
	}
	return uint8(t)
}

func scalePixel(p raster.Pixel, factor float64) raster.Pixel {
	return raster.Pixel{
		R: clampChannel(float64(p.R) * factor),
		G: clampChannel(float64(p.G) * factor),
		B: clampChannel(float64(p.B) * factor),
	}
}

func lightenPixel(p raster.Pixel, scale float64) raster.Pixel {
	return raster.Pixel{
		R: clampChannel(255 - (255-float64(p.R))*scale),
		G: clampChannel(255 - (255-float64(p.G))*scale),
		B: clampChannel(255 - (255-float64(p.B))*scale),
	}
}

// mapPixels applies fn to every pixel, preserving dimensions.
func mapPixels(src raster.Image, fn func(row, col int, p raster.Pixel) raster.Pixel) raster.Image {
	out := raster.New(src.Width(), src.Height())
	for row, pixels := range src.Pixels {
		for col, p := range pixels {
			out.Pixels[row][col] = fn(row, col, p)
		}
	}
	return out
}

// Vignette darkens pixels by their distance from the image centre. The
// centre pixel keeps its color (distance 0, factor 1); corners beyond H
// pixels away clamp to black.
func Vignette(src raster.Image) raster.Image {
	halfW := src.Width() / 2
	halfH := src.Height() / 2
	height := float64(src.Height())
	return mapPixels(src, func(row, col int, p raster.Pixel) raster.Pixel {
		dx := float64(col - halfW)
		dy := float64(row - halfH)
		distance := math.Sqrt(dx*dx + dy*dy)
		return scalePixel(p, (height-distance)/height)
	})
}

// Clarendon pushes lights lighter and darks darker by the given factor.
// Pixels with an integer channel average of at least 170 are lightened,
// below 90 darkened, and mid-tones pass through unchanged.
func Clarendon(src raster.Image, scale float64) raster.Image {
	return mapPixels(src, func(_, _ int, p raster.Pixel) raster.Pixel {
		avg := (int(p.R) + int(p.G) + int(p.B)) / 3
		switch {
		case avg >= 170:
			return lightenPixel(p, scale)
		case avg < 90:
			return scalePixel(p, scale)
		default:
			return p
		}
	})
}

// Grayscale replaces each pixel with the rounded average of its channels.
func Grayscale(src raster.Image) raster.Image {
	return mapPixels(src, func(_, _ int, p raster.Pixel) raster.Pixel {
		gray := clampChannel(float64(int(p.R)+int(p.G)+int(p.B))/3 + 0.5)
		return raster.Pixel{R: gray, G: gray, B: gray}
	})
}

// Rotate90 rotates the image a quarter turn clockwise, swapping width and
// height: the input pixel at (row, col) lands at (col, H-1-row).
func Rotate90(src raster.Image) raster.Image {
	height := src.Height()
	out := raster.New(height, src.Width())
	for row, pixels := range src.Pixels {
		for col, p := range pixels {
			out.Pixels[col][height-1-row] = p
		}
	}
	return out
}

// Rotate applies the given number of clockwise quarter turns. Negative
// counts rotate counter-clockwise; four turns are the identity.
func Rotate(src raster.Image, turns int) raster.Image {
	turns = ((turns % 4) + 4) % 4
	if turns == 0 {
		return src.Clone()
	}
	out := Rotate90(src)
	for i := 1; i < turns; i++ {
		out = Rotate90(out)
	}
	return out
}

// RotateDegrees rotates clockwise by an angle in degrees. An angle that is
// not a multiple of 90 is reported and the original image is returned
// unmodified.
func RotateDegrees(src raster.Image, degrees int) (raster.Image, error) {
	if degrees%90 != 0 {
		return src, ErrInvalidRotation
	}
	return Rotate(src, degrees/90), nil
}

// Enlarge scales the image up by whole factors along each axis using
// nearest-neighbour sampling: output (row, col) copies the source pixel at
// (row/yScale, col/xScale) by integer floor division.
func Enlarge(src raster.Image, xScale, yScale int) (raster.Image, error) {
	if xScale < 1 || yScale < 1 {
		return raster.Image{}, ErrInvalidScale
	}
	out := raster.New(src.Width()*xScale, src.Height()*yScale)
	for row := range out.Pixels {
		for col := range out.Pixels[row] {
			out.Pixels[row][col] = src.Pixels[row/yScale][col/xScale]
		}
	}
	return out, nil
}

// HighContrast maps each pixel to pure white when its integer channel
// average is at least 128, and pure black otherwise.
func HighContrast(src raster.Image) raster.Image {
	return mapPixels(src, func(_, _ int, p raster.Pixel) raster.Pixel {
		if (int(p.R)+int(p.G)+int(p.B))/3 >= 128 {
			return raster.Pixel{R: 255, G: 255, B: 255}
		}
		return raster.Pixel{}
	})
}

// Lighten moves every channel toward white: channel = 255-(255-c)*scale.
// A scale of 1 is the identity; 0 is pure white.
func Lighten(src raster.Image, scale float64) raster.Image {
	return mapPixels(src, func(_, _ int, p raster.Pixel) raster.Pixel {
		return lightenPixel(p, scale)
	})
}

// Darken multiplies every channel by the given factor. A scale of 1 is the
// identity; 0 is pure black.
func Darken(src raster.Image, scale float64) raster.Image {
	return mapPixels(src, func(_, _ int, p raster.Pixel) raster.Pixel {
		return scalePixel(p, scale)
	})
}

// Posterize reduces the image to black, white, red, green, and blue.
// Channel sums of at least 550 become white and at most 150 become black;
// everything else takes the hue of its largest channel, ties resolving to
// red, then green.
func Posterize(src raster.Image) raster.Image {
	return mapPixels(src, func(_, _ int, p raster.Pixel) raster.Pixel {
		r, g, b := int(p.R), int(p.G), int(p.B)
		sum := r + g + b
		maxc := max(max(r, g), b)
		switch {
		case sum >= 550:
			return raster.Pixel{R: 255, G: 255, B: 255}
		case sum <= 150:
			return raster.Pixel{}
		case maxc == r:
			return raster.Pixel{R: 255}
		case maxc == g:
			return raster.Pixel{G: 255}
		default:
			return raster.Pixel{B: 255}
		}
	})
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
