package domain

import "testing"

func TestCreateJobRequestValidate(t *testing.T) {
	valid := CreateJobRequest{
		SourceType: SourceTypeS3Presigned,
		Pipeline: []PipelineStep{
			{ID: "gray", Action: ActionGrayscale},
			{ID: "bigger", Action: ActionEnlarge, XScale: 2, YScale: 3},
			{ID: "darker", Action: ActionDarken, Scale: 0.5},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got error: %v", err)
	}

	invalid := CreateJobRequest{}
	if err := invalid.Validate(); err == nil {
		t.Fatal("expected validation error for empty request")
	}

	missingObjectKey := CreateJobRequest{
		SourceType: SourceTypeLocalFile,
		Pipeline:   []PipelineStep{{ID: "gray", Action: ActionGrayscale}},
	}
	if err := missingObjectKey.Validate(); err == nil {
		t.Fatal("expected validation error for local_file object_key")
	}

	unsupportedSourceType := CreateJobRequest{
		SourceType: "http_url",
		Pipeline:   []PipelineStep{{ID: "gray", Action: ActionGrayscale}},
	}
	if err := unsupportedSourceType.Validate(); err == nil {
		t.Fatal("expected validation error for unsupported source_type")
	}
}

func TestCreateJobRequestValidateSteps(t *testing.T) {
	base := func(step PipelineStep) CreateJobRequest {
		return CreateJobRequest{
			SourceType: SourceTypeS3Presigned,
			Pipeline:   []PipelineStep{step},
		}
	}

	if err := base(PipelineStep{ID: "x", Action: "sharpen"}).Validate(); err == nil {
		t.Fatal("expected validation error for unknown action")
	}
	if err := base(PipelineStep{ID: "x", Action: ActionEnlarge, XScale: 0, YScale: 2}).Validate(); err == nil {
		t.Fatal("expected validation error for enlarge scale below 1")
	}
	if err := base(PipelineStep{ID: "x", Action: ActionDarken, Scale: -1}).Validate(); err == nil {
		t.Fatal("expected validation error for negative scale")
	}
	if err := base(PipelineStep{ID: "x", Action: ActionRotate, Turns: -7}).Validate(); err != nil {
		t.Fatalf("negative turn counts are valid rotations, got %v", err)
	}
	if err := base(PipelineStep{ID: "", Action: ActionGrayscale}).Validate(); err == nil {
		t.Fatal("expected validation error for missing step id")
	}
}
