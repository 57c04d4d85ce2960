package bmp

import (
	"fmt"
	"os"

	"github.com/rasterworks/bmpflow/internal/raster"
)

// Encode serializes the image as an uncompressed 24-bit BMP. The pixel array
// starts at byte 54, rows are written bottom-up in B,G,R order, and each row
// is zero-padded to a four-byte boundary. No alpha byte is ever written.
func Encode(img raster.Image) ([]byte, error) {
	if img.Empty() {
		return nil, ErrEmptyImage
	}

	width := img.Width()
	height := img.Height()
	scanlineBytes := width * 3
	padding := scanlinePadding(scanlineBytes)
	arrayBytes := (scanlineBytes + padding) * height

	out := make([]byte, headerSize+arrayBytes)

	// File header.
	out[offMagic] = 'B'
	out[offMagic+1] = 'M'
	putUint(out, offFileSize, 4, uint32(headerSize+arrayBytes))
	putUint(out, offPixelOffset, 4, headerSize)

	// Info header.
	putUint(out, offInfoSize, 4, infoHeaderSize)
	putUint(out, offWidth, 4, uint32(width))
	putUint(out, offHeight, 4, uint32(height))
	putUint(out, offPlanes, 2, 1)
	putUint(out, offBitsPerPx, 2, outputBitsPerPixel)
	putUint(out, offCompression, 4, 0)
	putUint(out, offImageSize, 4, uint32(arrayBytes))
	putUint(out, offXResolution, 4, pixelsPerMeter)
	putUint(out, offYResolution, 4, pixelsPerMeter)
	putUint(out, offPaletteSize, 4, 0)
	putUint(out, offImportant, 4, 0)

	pos := headerSize
	for row := height - 1; row >= 0; row-- {
		for col := 0; col < width; col++ {
			p := img.Pixels[row][col]
			out[pos] = p.B
			out[pos+1] = p.G
			out[pos+2] = p.R
			pos += 3
		}
		pos += padding // already zero
	}

	return out, nil
}

// EncodeFile writes the image as a BMP file at path. It fails when the file
// cannot be created; a file left behind after a failed write is not
// guaranteed to be a valid bitmap.
func EncodeFile(path string, img raster.Image) error {
	data, err := Encode(img)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create bmp file %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write bmp file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close bmp file %s: %w", path, err)
	}
	return nil
}
