package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rasterworks/bmpflow/internal/bmp"
	"github.com/rasterworks/bmpflow/internal/domain"
	"github.com/rasterworks/bmpflow/internal/raster"
)

func TestLocalProcessor_FileInTransformFileOut(t *testing.T) {
	tmp := t.TempDir()
	inputPath := filepath.Join(tmp, "input.bmp")
	outputDir := filepath.Join(tmp, "out")

	src := buildTestImage(t, 24, 12)
	if err := bmp.EncodeFile(inputPath, src); err != nil {
		t.Fatalf("write input image: %v", err)
	}

	processor, err := NewLocalProcessor(outputDir)
	if err != nil {
		t.Fatalf("new local processor: %v", err)
	}

	req := Request{
		JobID:      "job-local-1",
		SourceType: SourceTypeLocalFile,
		ObjectKey:  inputPath,
		Pipeline: []domain.PipelineStep{
			{ID: "gray", Action: domain.ActionGrayscale},
			{ID: "quarter_turn", Action: domain.ActionRotate90},
			{ID: "doubled", Action: domain.ActionEnlarge, XScale: 2, YScale: 2},
		},
	}

	result, err := processor.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("process request: %v", err)
	}

	if result.SourceBytes == 0 {
		t.Fatal("expected source byte count to be recorded")
	}
	if len(result.Outputs) != 3 {
		t.Fatalf("expected 3 outputs, got %d", len(result.Outputs))
	}

	gray := decodeOutput(t, result.Outputs[0].Path)
	if gray.Width() != 24 || gray.Height() != 12 {
		t.Fatalf("grayscale output is %dx%d, want 24x12", gray.Width(), gray.Height())
	}
	for _, row := range gray.Pixels {
		for _, p := range row {
			if p.R != p.G || p.G != p.B {
				t.Fatal("grayscale output has unequal channels")
			}
		}
	}

	rotated := decodeOutput(t, result.Outputs[1].Path)
	if rotated.Width() != 12 || rotated.Height() != 24 {
		t.Fatalf("rotated output is %dx%d, want 12x24", rotated.Width(), rotated.Height())
	}

	doubled := decodeOutput(t, result.Outputs[2].Path)
	if doubled.Width() != 48 || doubled.Height() != 24 {
		t.Fatalf("enlarged output is %dx%d, want 48x24", doubled.Width(), doubled.Height())
	}
	// Each step transforms the original source, so the enlarged image must
	// replicate the source pixels, not the rotated ones.
	if doubled.Pixels[0][0] != src.Pixels[0][0] || doubled.Pixels[1][1] != src.Pixels[0][0] {
		t.Fatal("enlarge did not replicate the source pixel block")
	}
}

func TestLocalProcessor_UnsupportedSourceType(t *testing.T) {
	processor, err := NewLocalProcessor(t.TempDir())
	if err != nil {
		t.Fatalf("new local processor: %v", err)
	}

	_, err = processor.Process(context.Background(), Request{
		JobID:      "job-unsupported",
		SourceType: "s3_presigned",
		ObjectKey:  "uploads/job/source",
		Pipeline:   []domain.PipelineStep{{ID: "gray", Action: domain.ActionGrayscale}},
	})
	if !errors.Is(err, ErrUnsupportedSourceType) {
		t.Fatalf("expected unsupported source_type error, got %v", err)
	}
}

func TestLocalProcessor_RejectsUnknownAction(t *testing.T) {
	tmp := t.TempDir()
	inputPath := filepath.Join(tmp, "input.bmp")
	if err := bmp.EncodeFile(inputPath, buildTestImage(t, 4, 4)); err != nil {
		t.Fatalf("write input image: %v", err)
	}

	processor, err := NewLocalProcessor(filepath.Join(tmp, "out"))
	if err != nil {
		t.Fatalf("new local processor: %v", err)
	}

	_, err = processor.Process(context.Background(), Request{
		JobID:      "job-bad-action",
		SourceType: SourceTypeLocalFile,
		ObjectKey:  inputPath,
		Pipeline:   []domain.PipelineStep{{ID: "x", Action: "sharpen"}},
	})
	if !errors.Is(err, ErrInvalidStepAction) {
		t.Fatalf("expected invalid action error, got %v", err)
	}
}

func TestLocalProcessor_RejectsCorruptSource(t *testing.T) {
	tmp := t.TempDir()
	inputPath := filepath.Join(tmp, "input.bmp")

	data, err := bmp.Encode(buildTestImage(t, 4, 4))
	if err != nil {
		t.Fatalf("encode source: %v", err)
	}
	data[2]++ // break the declared file size
	if err := os.WriteFile(inputPath, data, 0o644); err != nil {
		t.Fatalf("write corrupt input: %v", err)
	}

	processor, err := NewLocalProcessor(filepath.Join(tmp, "out"))
	if err != nil {
		t.Fatalf("new local processor: %v", err)
	}

	_, err = processor.Process(context.Background(), Request{
		JobID:      "job-corrupt",
		SourceType: SourceTypeLocalFile,
		ObjectKey:  inputPath,
		Pipeline:   []domain.PipelineStep{{ID: "gray", Action: domain.ActionGrayscale}},
	})
	if !errors.Is(err, bmp.ErrSizeMismatch) {
		t.Fatalf("expected size mismatch error, got %v", err)
	}
}

func decodeOutput(t *testing.T, path string) raster.Image {
	t.Helper()
	img, err := bmp.DecodeFile(path)
	if err != nil {
		t.Fatalf("decode output %s: %v", path, err)
	}
	return img
}

func buildTestImage(t testing.TB, w, h int) raster.Image {
	t.Helper()
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
