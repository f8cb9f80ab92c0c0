package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type predictRequest struct {
	Instances []Tensor `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error"`
}

// RemoteScorer calls a model server exposing the TensorFlow Serving REST
// predict API: POST /v1/models/{name}:predict.
type RemoteScorer struct {
	httpClient *resty.Client
	model      string
	logger     *zap.Logger
}

// NewRemoteScorer creates a scorer for the model served at baseURL.
func NewRemoteScorer(baseURL, model string, timeout time.Duration, logger *zap.Logger) *RemoteScorer {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &RemoteScorer{
		httpClient: client,
		model:      model,
		logger:     logger,
	}
}

// Score sends batch to the model server and returns the first prediction.
func (s *RemoteScorer) Score(ctx context.Context, batch []Tensor) (float64, error) {
	var out predictResponse
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(predictRequest{Instances: batch}).
		SetResult(&out).
		SetError(&out).
		Post(fmt.Sprintf("/v1/models/%s:predict", s.model))
	if err != nil {
		s.logger.Error("Model server call failed", zap.String("model", s.model), zap.Error(err))
		return 0, fmt.Errorf("%w: %v", ErrScoring, err)
	}

	if resp.IsError() {
		s.logger.Error("Model server returned error",
			zap.String("model", s.model),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", out.Error),
		)
		return 0, fmt.Errorf("%w: status %d: %s", ErrScoring, resp.StatusCode(), out.Error)
	}

	if len(out.Predictions) == 0 || len(out.Predictions[0]) == 0 {
		return 0, fmt.Errorf("%w: empty predictions", ErrScoring)
	}

	score := out.Predictions[0][0]
	s.logger.Debug("Model prediction", zap.String("model", s.model), zap.Float64("raw", score))
	return score, nil
}
