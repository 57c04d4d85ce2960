package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rasterworks/bmpflow/internal/bmp"
	"github.com/rasterworks/bmpflow/internal/domain"
	"github.com/rasterworks/bmpflow/internal/raster"
	"github.com/rasterworks/bmpflow/internal/transform"
)

type Transformer interface {
	Transform(ctx context.Context, input []byte, step domain.PipelineStep) (data []byte, width, height int, err error)
}

// bmpTransformer decodes the source BMP, applies one transform step, and
// re-encodes the result as a 24-bit BMP.
type bmpTransformer struct{}

func (bmpTransformer) Transform(ctx context.Context, input []byte, step domain.PipelineStep) ([]byte, int, int, error) {
	select {
	case <-ctx.Done():
		return nil, 0, 0, ctx.Err()
	default:
	}

	src, err := bmp.Decode(input)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode source image: %w", err)
	}

	out, err := applyStep(src, step)
	if err != nil {
		return nil, 0, 0, err
	}

	encoded, err := bmp.Encode(out)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("encode output image: %w", err)
	}
	return encoded, out.Width(), out.Height(), nil
}

func applyStep(src raster.Image, step domain.PipelineStep) (raster.Image, error) {
	switch strings.ToLower(strings.TrimSpace(step.Action)) {
	case domain.ActionVignette:
		return transform.Vignette(src), nil
	case domain.ActionClarendon:
		return transform.Clarendon(src, step.Scale), nil
	case domain.ActionGrayscale:
		return transform.Grayscale(src), nil
	case domain.ActionRotate90:
		return transform.Rotate90(src), nil
	case domain.ActionRotate:
		return transform.Rotate(src, step.Turns), nil
	case domain.ActionEnlarge:
		return transform.Enlarge(src, step.XScale, step.YScale)
	case domain.ActionHighContrast:
		return transform.HighContrast(src), nil
	case domain.ActionLighten:
		return transform.Lighten(src, step.Scale), nil
	case domain.ActionDarken:
		return transform.Darken(src, step.Scale), nil
	case domain.ActionPosterize:
		return transform.Posterize(src), nil
	default:
		return raster.Image{}, fmt.Errorf("%w: %q", ErrInvalidStepAction, step.Action)
	}
}
