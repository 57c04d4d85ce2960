package bmp

import (
	"bytes"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/rasterworks/bmpflow/internal/raster"
	xbmp "golang.org/x/image/bmp"
)

func TestScanlinePaddingLaw(t *testing.T) {
	// For width W, scanline bytes = W*3 and padding fills to the next
	// multiple of four.
	want := map[int]int{1: 1, 2: 2, 3: 3, 4: 0, 5: 1}
	for width, padding := range want {
		if got := scanlinePadding(width * 3); got != padding {
			t.Errorf("width %d: padding = %d, want %d", width, got, padding)
		}
	}
}

func TestEncodeHeaderLayout(t *testing.T) {
	img := buildTestImage(3, 2)
	data, err := Encode(img)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// 3px rows take 9 bytes plus 3 padding; two rows.
	wantLen := 54 + (9+3)*2
	if len(data) != wantLen {
		t.Fatalf("encoded length = %d, want %d", len(data), wantLen)
	}

	if data[0] != 'B' || data[1] != 'M' {
		t.Fatal("missing BM signature")
	}

	fields := []struct {
		name   string
		offset int
		width  int
		want   uint32
	}{
		{"file size", 2, 4, uint32(wantLen)},
		{"reserved", 6, 4, 0},
		{"pixel offset", 10, 4, 54},
		{"dib size", 14, 4, 40},
		{"width", 18, 4, 3},
		{"height", 22, 4, 2},
		{"planes", 26, 2, 1},
		{"bits per pixel", 28, 2, 24},
		{"compression", 30, 4, 0},
		{"image size", 34, 4, 24},
		{"x resolution", 38, 4, 2835},
		{"y resolution", 42, 4, 2835},
		{"palette colors", 46, 4, 0},
		{"important colors", 50, 4, 0},
	}
	for _, f := range fields {
		got, ok := getUint(data, f.offset, f.width)
		if !ok {
			t.Fatalf("%s: buffer too short", f.name)
		}
		if got != f.want {
			t.Errorf("%s = %d, want %d", f.name, got, f.want)
		}
	}

	// Bottom row first, B,G,R order: byte 54 is the blue channel of the
	// bottom-left pixel, i.e. logical row 1.
	bottomLeft := img.Pixels[1][0]
	if data[54] != bottomLeft.B || data[55] != bottomLeft.G || data[56] != bottomLeft.R {
		t.Fatalf("pixel array does not start with the bottom-left pixel in BGR order")
	}
}

func TestRoundTrip(t *testing.T) {
	for _, dims := range [][2]int{{1, 1}, {3, 2}, {4, 4}, {5, 7}, {17, 9}} {
		img := buildTestImage(dims[0], dims[1])
		data, err := Encode(img)
		if err != nil {
			t.Fatalf("encode %dx%d: %v", dims[0], dims[1], err)
		}
		decoded, err := Decode(data)
		if err != nil {
			t.Fatalf("decode %dx%d: %v", dims[0], dims[1], err)
		}
		if !decoded.Equal(img) {
			t.Fatalf("round trip altered a %dx%d image", dims[0], dims[1])
		}
	}
}

func TestEncodeMatchesStdBMPDecoder(t *testing.T) {
	img := buildTestImage(5, 4)
	data, err := Encode(img)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	ref, err := xbmp.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("x/image/bmp rejected encoder output: %v", err)
	}

	bounds := ref.Bounds()
	if bounds.Dx() != img.Width() || bounds.Dy() != img.Height() {
		t.Fatalf("reference decoder saw %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), img.Width(), img.Height())
	}
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			c := color.RGBAModel.Convert(ref.At(x, y)).(color.RGBA)
			p := img.Pixels[y][x]
			if c.R != p.R || c.G != p.G || c.B != p.B {
				t.Fatalf("pixel (%d,%d): reference decoder saw %v, want %v", y, x, c, p)
			}
		}
	}
}

func TestDecodeRejectsSizeMismatch(t *testing.T) {
	data, err := Encode(buildTestImage(4, 3))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	putUint(data, offFileSize, 4, uint32(len(data)+1))

	img, err := Decode(data)
	if !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch, got %v", err)
	}
	if !img.Empty() {
		t.Fatal("failed decode must return the empty sentinel")
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	valid, err := Encode(buildTestImage(2, 2))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	noMagic := append([]byte(nil), valid...)
	noMagic[0] = 'X'

	zeroWidth := append([]byte(nil), valid...)
	putUint(zeroWidth, offWidth, 4, 0)

	compressed := append([]byte(nil), valid...)
	putUint(compressed, offCompression, 4, 1)

	palette8 := append([]byte(nil), valid...)
	putUint(palette8, offBitsPerPx, 2, 8)

	cases := []struct {
		name string
		data []byte
		want error
	}{
		{"short buffer", valid[:20], ErrTruncated},
		{"missing magic", noMagic, ErrNotBitmap},
		{"zero width", zeroWidth, ErrBadDimension},
		{"compressed", compressed, ErrUnsupported},
		{"8 bpp", palette8, ErrUnsupported},
		{"truncated pixel array", valid[:len(valid)-4], ErrTruncated},
	}
	for _, tc := range cases {
		img, err := Decode(tc.data)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if !img.Empty() {
			t.Errorf("%s: failed decode must return the empty sentinel", tc.name)
		}
	}
}

func TestDecodeSkips32BitAlpha(t *testing.T) {
	// Hand-built 2x1 BMPv3 file with 32 bits per pixel; the fourth byte of
	// each pixel must be discarded.
	const width, height = 2, 1
	scanline := width * 4
	data := make([]byte, 54+scanline*height)
	data[0], data[1] = 'B', 'M'
	putUint(data, offFileSize, 4, uint32(len(data)))
	putUint(data, offPixelOffset, 4, 54)
	putUint(data, offInfoSize, 4, 40)
	putUint(data, offWidth, 4, width)
	putUint(data, offHeight, 4, height)
	putUint(data, offPlanes, 2, 1)
	putUint(data, offBitsPerPx, 2, 32)

	copy(data[54:], []byte{
		1, 2, 3, 0xff, // B,G,R,A
		4, 5, 6, 0x80,
	})

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want0 := raster.Pixel{B: 1, G: 2, R: 3}
	want1 := raster.Pixel{B: 4, G: 5, R: 6}
	if img.Pixels[0][0] != want0 || img.Pixels[0][1] != want1 {
		t.Fatalf("decoded pixels %v, want %v %v", img.Pixels[0], want0, want1)
	}
}

func TestDecodePlacesBottomScanlineInLastRow(t *testing.T) {
	img := raster.New(1, 2)
	img.Pixels[0][0] = raster.Pixel{R: 200} // top
	img.Pixels[1][0] = raster.Pixel{B: 200} // bottom

	data, err := Encode(img)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// First scanline on disk is the bottom row.
	if data[54] != 200 {
		t.Fatal("bottom row was not written first")
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Pixels[0][0].R != 200 || decoded.Pixels[1][0].B != 200 {
		t.Fatal("decoder did not restore top-to-bottom row order")
	}
}

func TestEncodeRejectsEmptyImage(t *testing.T) {
	if _, err := Encode(raster.Image{}); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bmp")
	img := buildTestImage(6, 5)

	if err := EncodeFile(path, img); err != nil {
		t.Fatalf("encode file: %v", err)
	}
	decoded, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("decode file: %v", err)
	}
	if !decoded.Equal(img) {
		t.Fatal("file round trip altered the image")
	}
}

func TestEncodeFileFailsOnUnwritableSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "out.bmp")
	err := EncodeFile(path, buildTestImage(2, 2))
	if err == nil {
		t.Fatal("expected error for unwritable sink")
	}
	if _, statErr := os.Stat(path); statErr == nil {
		t.Fatal("no file should exist after a failed encode")
	}
}

func buildTestImage(w, h int) raster.Image {
	img := raster.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Pixels[y][x] = raster.Pixel{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 140,
			}
		}
	}
	return img
}
