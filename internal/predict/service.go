// Package predict runs one questionnaire through the pipeline: model
// resolution, feature vector assembly, classifier invocation and
// interpretation.
package predict

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MariluHA/cognitive-risk-prediction/internal/features"
	"github.com/MariluHA/cognitive-risk-prediction/internal/ml"
	"github.com/MariluHA/cognitive-risk-prediction/internal/risk"

	"github.com/rs/zerolog/log"
)

// MetricsInterface defines metrics methods needed by the pipeline
type MetricsInterface interface {
	PredictionsInc(model, riskLevel string)
	PredictionFailuresInc(reason string)
	PredictionLatencyObserve(float64)
	PredictionScoresObserve(float64)
}

// UnavailableError reports that the resolved model is not loaded.
type UnavailableError struct {
	Model string
	Err   error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("model %s not available", e.Model)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Result is the outcome of a successful prediction.
type Result struct {
	Prediction     int
	Confidence     *float64
	ModelUsed      string
	Timestamp      time.Time
	Interpretation risk.Interpretation
}

// Service runs predictions against an injected registry.
type Service struct {
	registry *ml.Registry
	metrics  MetricsInterface
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m MetricsInterface) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a prediction service over registry.
func NewService(registry *ml.Registry, opts ...Option) *Service {
	s := &Service{registry: registry, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the registry the service dispatches to.
func (s *Service) Registry() *ml.Registry {
	return s.registry
}

// Predict runs req through the pipeline. It returns *UnavailableError when
// the resolved model is not loaded; any other error is returned verbatim.
func (s *Service) Predict(ctx context.Context, req *features.PredictionRequest) (*Result, error) {
	start := time.Now()

	modelID := s.registry.Resolve(req.Model())
	if modelID != req.Model() {
		log.Debug().Str("requested", req.Model()).Str("model", modelID).Msg("Unknown model requested, using default")
	}

	entry, err := s.registry.Entry(modelID)
	if err != nil {
		// The default model is not tracked at all.
		s.fail("model_unavailable")
		return nil, &UnavailableError{Model: modelID, Err: err}
	}
	if !entry.Loaded() {
		s.fail("model_unavailable")
		return nil, &UnavailableError{Model: modelID, Err: entry.Err}
	}

	vector, err := features.Build(req)
	if err != nil {
		s.fail("feature_vector")
		return nil, err
	}
	log.Debug().Str("model", modelID).Int("features", len(vector)).Msg("Feature vector prepared")

	outcome, err := ml.Infer(ctx, entry, vector.Matrix())
	if err != nil {
		s.fail("inference")
		return nil, err
	}

	interp := risk.Interpret(outcome.Label, outcome.Confidence)

	if s.metrics != nil {
		s.metrics.PredictionsInc(modelID, interp.Level)
		s.metrics.PredictionLatencyObserve(time.Since(start).Seconds())
		if outcome.Confidence != nil {
			s.metrics.PredictionScoresObserve(*outcome.Confidence)
		}
	}

	log.Info().
		Str("model", modelID).
		Int("prediction", outcome.Label).
		Str("risk_level", interp.Level).
		Dur("latency", time.Since(start)).
		Msg("Prediction completed")

	return &Result{
		Prediction:     outcome.Label,
		Confidence:     outcome.Confidence,
		ModelUsed:      modelID,
		Timestamp:      s.now(),
		Interpretation: interp,
	}, nil
}

// IsUnavailable reports whether err means the resolved model is not loaded.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

func (s *Service) fail(reason string) {
	if s.metrics != nil {
		s.metrics.PredictionFailuresInc(reason)
	}
}
