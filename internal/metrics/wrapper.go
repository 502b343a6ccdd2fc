package metrics

import "strconv"

// MetricsWrapper adapts Metrics to the narrow interfaces the registry,
// prediction pipeline and HTTP server depend on.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) ModelLoadFailuresInc(model string) {
	w.m.ModelLoadFailures.WithLabelValues(model).Inc()
}

func (w *MetricsWrapper) ModelsLoadedSet(v float64) {
	w.m.ModelsLoaded.Set(v)
}

func (w *MetricsWrapper) MLLatencyObserve(v float64) {
	w.m.MLLatency.Observe(v)
}

func (w *MetricsWrapper) MLTimeoutsInc() {
	w.m.MLTimeouts.Inc()
}

func (w *MetricsWrapper) PredictionsInc(model, riskLevel string) {
	w.m.Predictions.WithLabelValues(model, riskLevel).Inc()
}

func (w *MetricsWrapper) PredictionFailuresInc(reason string) {
	w.m.PredictionFailures.WithLabelValues(reason).Inc()
}

func (w *MetricsWrapper) PredictionLatencyObserve(v float64) {
	w.m.PredictionLatency.Observe(v)
}

func (w *MetricsWrapper) PredictionScoresObserve(v float64) {
	w.m.PredictionScores.Observe(v)
}

func (w *MetricsWrapper) HTTPRequestsInc(route string, status int) {
	w.m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
