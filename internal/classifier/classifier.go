// Package classifier wraps the pretrained pothole model behind its fixed
// preprocessing: decode, resize to a square, scale to [0,1], batch of one.
package classifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrDecodeFailed  = errors.New("image could not be decoded")
	ErrNotConfigured = errors.New("classifier is not configured")
	ErrScoring       = errors.New("model scoring failed")
)

// Tensor is one preprocessed image laid out as [height][width][channel].
// Channels are in BGR order, the layout the model was trained on.
type Tensor [][][]float32

// Scorer runs the model on a batch and returns the scalar output for the
// first (only) element.
type Scorer interface {
	Score(ctx context.Context, batch []Tensor) (float64, error)
}

// Adapter is an immutable classifier handle passed to request handlers.
type Adapter struct {
	scorer    Scorer
	size      int
	threshold float64
}

// NewAdapter builds an adapter; size is the square input resolution and
// threshold the minimum confidence for a positive verdict.
func NewAdapter(scorer Scorer, size int, threshold float64) *Adapter {
	return &Adapter{scorer: scorer, size: size, threshold: threshold}
}

// Threshold returns the decision threshold.
func (a *Adapter) Threshold() float64 {
	return a.threshold
}

// Classify returns the model confidence in [0,1] that the image shows a pothole.
func (a *Adapter) Classify(ctx context.Context, imageBytes []byte) (float64, error) {
	if a == nil || a.scorer == nil {
		return 0, ErrNotConfigured
	}

	tensor, err := Preprocess(imageBytes, a.size)
	if err != nil {
		return 0, err
	}

	score, err := a.scorer.Score(ctx, []Tensor{tensor})
	if err != nil {
		return 0, err
	}
	return clamp01(score), nil
}

// IsPothole applies the decision threshold.
func (a *Adapter) IsPothole(confidence float64) bool {
	return confidence >= a.threshold
}

// Preprocess decodes imageBytes, resizes it to size×size with bilinear
// interpolation and scales channel values to [0,1].
func Preprocess(imageBytes []byte, size int) (Tensor, error) {
	src, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	tensor := make(Tensor, size)
	for y := 0; y < size; y++ {
		row := make([][]float32, size)
		for x := 0; x < size; x++ {
			i := dst.PixOffset(x, y)
			r, g, b := dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2]
			row[x] = []float32{float32(b) / 255, float32(g) / 255, float32(r) / 255}
		}
		tensor[y] = row
	}
	return tensor, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
