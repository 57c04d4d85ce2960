package queue

import (
	"testing"
	"time"

	"github.com/rasterworks/bmpflow/internal/domain"
)

func TestTransformImageTaskRoundTrip(t *testing.T) {
	payload := TransformImagePayload{
		JobID:      "job-123",
		SourceType: "s3_presigned",
		ObjectKey:  "uploads/job-123/source",
		Pipeline: []domain.PipelineStep{
			{ID: "doubled", Action: domain.ActionEnlarge, XScale: 2, YScale: 2},
			{ID: "dimmed", Action: domain.ActionDarken, Scale: 0.75},
		},
		RequestedAt: time.Now().UTC(),
	}

	task, err := NewTransformImageTask(payload)
	if err != nil {
		t.Fatalf("NewTransformImageTask returned error: %v", err)
	}

	parsed, err := ParseTransformImagePayload(task)
	if err != nil {
		t.Fatalf("ParseTransformImagePayload returned error: %v", err)
	}

	if parsed.JobID != payload.JobID {
		t.Fatalf("expected job_id %q, got %q", payload.JobID, parsed.JobID)
	}
	if len(parsed.Pipeline) != 2 {
		t.Fatalf("expected two pipeline steps, got %d", len(parsed.Pipeline))
	}
	if parsed.Pipeline[1].Scale != 0.75 {
		t.Fatalf("expected scale 0.75, got %v", parsed.Pipeline[1].Scale)
	}
}
