package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/rasterworks/bmpflow/internal/bmp"
	"github.com/rasterworks/bmpflow/internal/domain"
)

func BenchmarkProcessorGrayscale(b *testing.B) {
	source := benchmarkBMP(b, 1920, 1080)
	processor, err := NewLocalProcessor(b.TempDir())
	if err != nil {
		b.Fatalf("new local processor: %v", err)
	}
	processor.fetcher = staticFetcher{data: source}
	processor.emitter = discardEmitter{}

	req := Request{
		JobID:      "bench",
		SourceType: SourceTypeLocalFile,
		ObjectKey:  "ignored.bmp",
		Pipeline:   []domain.PipelineStep{{ID: "gray", Action: domain.ActionGrayscale}},
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req.JobID = fmt.Sprintf("bench-gray-%d", i)
		if _, err := processor.Process(context.Background(), req); err != nil {
			b.Fatalf("process: %v", err)
		}
	}
}

func BenchmarkProcessorRotate(b *testing.B) {
	source := benchmarkBMP(b, 1920, 1080)
	processor, err := NewLocalProcessor(b.TempDir())
	if err != nil {
		b.Fatalf("new local processor: %v", err)
	}
	processor.fetcher = staticFetcher{data: source}
	processor.emitter = discardEmitter{}

	req := Request{
		JobID:      "bench",
		SourceType: SourceTypeLocalFile,
		ObjectKey:  "ignored.bmp",
		Pipeline:   []domain.PipelineStep{{ID: "half_turn", Action: domain.ActionRotate, Turns: 2}},
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req.JobID = fmt.Sprintf("bench-rotate-%d", i)
		if _, err := processor.Process(context.Background(), req); err != nil {
			b.Fatalf("process: %v", err)
		}
	}
}

type staticFetcher struct {
	data []byte
}

func (f staticFetcher) Fetch(_ context.Context, _ Request) ([]byte, error) {
	return f.data, nil
}

type discardEmitter struct{}

func (discardEmitter) Emit(_ context.Context, _ Request, step domain.PipelineStep, data []byte, width, height int) (Output, error) {
	return Output{
		StepID:  step.ID,
		Action:  step.Action,
		Bytes:   len(data),
		Width:   width,
		Height:  height,
		Success: true,
	}, nil
}

func benchmarkBMP(b *testing.B, w, h int) []byte {
	b.Helper()
	data, err := bmp.Encode(buildTestImage(b, w, h))
	if err != nil {
		b.Fatalf("encode source bmp: %v", err)
	}
	return data
}
