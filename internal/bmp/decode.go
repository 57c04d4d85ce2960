package bmp

import (
	"fmt"
	"os"

	"github.com/rasterworks/bmpflow/internal/raster"
)

// Decode parses an uncompressed BMP byte buffer into a top-to-bottom pixel
// grid. On any failure it returns the empty sentinel image alongside the
// error, never a partially filled grid.
func Decode(data []byte) (raster.Image, error) {
	if len(data) < headerSize {
		return raster.Image{}, ErrTruncated
	}
	if data[offMagic] != 'B' || data[offMagic+1] != 'M' {
		return raster.Image{}, ErrNotBitmap
	}

	fileSize, _ := getUint(data, offFileSize, 4)
	pixelOffset, _ := getUint(data, offPixelOffset, 4)
	rawWidth, _ := getUint(data, offWidth, 4)
	rawHeight, _ := getUint(data, offHeight, 4)
	bitsPerPixel, _ := getUint(data, offBitsPerPx, 2)

	width := int(int32(rawWidth))
	height := int(int32(rawHeight))
	if width <= 0 || height <= 0 {
		return raster.Image{}, ErrBadDimension
	}

	compression, _ := getUint(data, offCompression, 4)
	bytesPerPixel := int(bitsPerPixel) / 8
	if compression != 0 || bytesPerPixel < 3 {
		return raster.Image{}, fmt.Errorf("%w: compression=%d bpp=%d", ErrUnsupported, compression, bitsPerPixel)
	}

	scanlineBytes := width * bytesPerPixel
	padding := scanlinePadding(scanlineBytes)

	// The declared size must account for exactly the headers plus the padded
	// pixel array; anything else means a corrupt or unsupported file.
	if int(fileSize) != int(pixelOffset)+(scanlineBytes+padding)*height {
		return raster.Image{}, ErrSizeMismatch
	}
	if int(pixelOffset)+(scanlineBytes+padding)*height > len(data) {
		return raster.Image{}, ErrTruncated
	}

	img := raster.New(width, height)
	pos := int(pixelOffset)
	// Scanlines are stored bottom row first: the first scanline fills the
	// last logical row.
	for row := height - 1; row >= 0; row-- {
		for col := 0; col < width; col++ {
			img.Pixels[row][col] = raster.Pixel{
				B: data[pos],
				G: data[pos+1],
				R: data[pos+2],
			}
			// A fourth (alpha) byte, if present, is read past and discarded.
			pos += bytesPerPixel
		}
		pos += padding
	}

	return img, nil
}

// DecodeFile reads and decodes the BMP file at path.
func DecodeFile(path string) (raster.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return raster.Image{}, fmt.Errorf("read bmp file %s: %w", path, err)
	}
	img, err := Decode(data)
	if err != nil {
		return raster.Image{}, fmt.Errorf("decode bmp file %s: %w", path, err)
	}
	return img, nil
}
