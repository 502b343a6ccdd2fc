// Package metrics provides Prometheus metrics collection for the risk
// prediction service. It covers model loading, inference, the prediction
// pipeline and the HTTP surface, exposed via the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Model registry
	ModelsLoaded      prometheus.Gauge       // Number of models loaded at startup
	ModelLoadFailures *prometheus.CounterVec // Load failures by model
	MLLatency         prometheus.Histogram   // Classifier invocation latency in seconds
	MLTimeouts        prometheus.Counter     // Classifier invocations that hit the timeout

	// Prediction pipeline
	Predictions        *prometheus.CounterVec // Successful predictions by model and risk level
	PredictionFailures *prometheus.CounterVec // Failed predictions by reason
	PredictionLatency  prometheus.Histogram   // End-to-end pipeline latency in seconds
	PredictionScores   prometheus.Histogram   // Distribution of reported confidence

	// HTTP
	HTTPRequests *prometheus.CounterVec // Requests by route and status code
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		ModelsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "models_loaded",
			Help: "Number of models loaded at startup",
		}),
		ModelLoadFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "model_load_failures_total",
			Help: "Total number of model artifact load failures",
		}, []string{"model"}),
		MLLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ml_latency_seconds",
			Help:    "Classifier invocation latency in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}),
		MLTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "ml_timeouts_total",
			Help: "Total number of classifier invocations that timed out",
		}),
		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of successful predictions",
		}, []string{"model", "risk_level"}),
		PredictionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of failed predictions",
		}, []string{"reason"}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "End-to-end prediction latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		PredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_confidence",
			Help:    "Distribution of reported prediction confidence",
			Buckets: prometheus.LinearBuckets(0.5, 0.05, 11),
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "status"}),
	}
}
