// Package bmp reads and writes uncompressed 24-bit BMP files
// (BITMAPFILEHEADER + BITMAPINFOHEADER).
package bmp

import "errors"

const (
	fileHeaderSize = 14
	infoHeaderSize = 40
	headerSize     = fileHeaderSize + infoHeaderSize

	// File header field offsets.
	offMagic       = 0
	offFileSize    = 2
	offPixelOffset = 10

	// Info header field offsets, from the start of the file.
	offInfoSize    = 14
	offWidth       = 18
	offHeight      = 22
	offPlanes      = 26
	offBitsPerPx   = 28
	offCompression = 30
	offImageSize   = 34
	offXResolution = 38
	offYResolution = 42
	offPaletteSize = 46
	offImportant   = 50

	outputBitsPerPixel = 24
	pixelsPerMeter     = 2835 // 72 DPI
)

var (
	ErrNotBitmap    = errors.New("bmp: missing BM signature")
	ErrTruncated    = errors.New("bmp: file shorter than its headers declare")
	ErrSizeMismatch = errors.New("bmp: declared file size does not match pixel array extent")
	ErrBadDimension = errors.New("bmp: width and height must be positive")
	ErrUnsupported  = errors.New("bmp: only uncompressed images with at least 24 bits per pixel are supported")
	ErrEmptyImage   = errors.New("bmp: cannot encode an empty image")
)

// getUint reads a little-endian unsigned integer of the given byte width at
// a fixed offset. ok is false when the buffer is too short.
func getUint(data []byte, offset, width int) (value uint32, ok bool) {
	if offset < 0 || width < 1 || width > 4 || offset+width > len(data) {
		return 0, false
	}
	for i := width - 1; i >= 0; i-- {
		value = value<<8 | uint32(data[offset+i])
	}
	return value, true
}

// putUint writes a little-endian unsigned integer of the given byte width at
// a fixed offset. The buffer must already be large enough.
func putUint(data []byte, offset, width int, value uint32) {
	for i := 0; i < width; i++ {
		data[offset+i] = byte(value >> (8 * i))
	}
}

// scanlinePadding returns the zero bytes appended to a scanline so each row
// occupies a multiple of four bytes.
func scanlinePadding(scanlineBytes int) int {
	return (4 - scanlineBytes%4) % 4
}
