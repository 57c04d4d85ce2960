package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	JobStatusCreated    = "created"
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusSucceeded  = "succeeded"
	JobStatusFailed     = "failed"

	SourceTypeLocalFile   = "local_file"
	SourceTypeS3Presigned = "s3_presigned"
)

// Transform actions accepted in a pipeline step. Each maps to one of the
// operations in internal/transform.
const (
	ActionVignette     = "vignette"
	ActionClarendon    = "clarendon"
	ActionGrayscale    = "grayscale"
	ActionRotate90     = "rotate90"
	ActionRotate       = "rotate"
	ActionEnlarge      = "enlarge"
	ActionHighContrast = "high_contrast"
	ActionLighten      = "lighten"
	ActionDarken       = "darken"
	ActionPosterize    = "posterize"
)

type CreateJobRequest struct {
	SourceType string         `json:"source_type"`
	WebhookURL string         `json:"webhook_url,omitempty"`
	ObjectKey  string         `json:"object_key,omitempty"`
	Pipeline   []PipelineStep `json:"pipeline"`
}

// PipelineStep selects a transform and its numeric parameters. Scale feeds
// clarendon, lighten, and darken; Turns feeds rotate; XScale/YScale feed
// enlarge. Parameterless actions ignore all of them.
type PipelineStep struct {
	ID     string  `json:"id"`
	Action string  `json:"action"`
	Scale  float64 `json:"scale,omitempty"`
	Turns  int     `json:"turns,omitempty"`
	XScale int     `json:"x_scale,omitempty"`
	YScale int     `json:"y_scale,omitempty"`
}

type Job struct {
	ID         string
	UserID     string
	Status     string
	SourceType string
	WebhookURL string
	Pipeline   []PipelineStep
	ObjectKey  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r CreateJobRequest) Validate() error {
	sourceType := strings.ToLower(strings.TrimSpace(r.SourceType))
	if sourceType == "" {
		return errors.New("source_type is required")
	}
	if sourceType != SourceTypeLocalFile && sourceType != SourceTypeS3Presigned {
		return fmt.Errorf("unsupported source_type: %s", r.SourceType)
	}
	if sourceType == SourceTypeLocalFile && strings.TrimSpace(r.ObjectKey) == "" {
		return errors.New("object_key is required for source_type=local_file")
	}
	if len(r.Pipeline) == 0 {
		return errors.New("pipeline must contain at least one step")
	}
	for i, step := range r.Pipeline {
		if strings.TrimSpace(step.ID) == "" {
			return fmt.Errorf("pipeline[%d].id is required", i)
		}
		if err := step.validateAction(); err != nil {
			return fmt.Errorf("pipeline[%d]: %w", i, err)
		}
	}
	return nil
}

func (s PipelineStep) validateAction() error {
	switch strings.ToLower(strings.TrimSpace(s.Action)) {
	case "":
		return errors.New("action is required")
	case ActionClarendon, ActionLighten, ActionDarken:
		if s.Scale < 0 {
			return fmt.Errorf("action %s requires scale >= 0", s.Action)
		}
	case ActionEnlarge:
		if s.XScale < 1 || s.YScale < 1 {
			return fmt.Errorf("action %s requires x_scale and y_scale >= 1", s.Action)
		}
	case ActionVignette, ActionGrayscale, ActionRotate90, ActionRotate, ActionHighContrast, ActionPosterize:
		// No parameters. Any turn count is a valid number of quarter turns.
	default:
		return fmt.Errorf("unsupported action: %s", s.Action)
	}
	return nil
}
