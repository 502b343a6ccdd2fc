package ml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu           sync.Mutex
	loadFailures map[string]int
	modelsLoaded float64
	latencySum   float64
	timeouts     int
}

func (m *MockMetrics) ModelLoadFailuresInc(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadFailures == nil {
		m.loadFailures = make(map[string]int)
	}
	m.loadFailures[model]++
}

func (m *MockMetrics) ModelsLoadedSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelsLoaded = v
}

func (m *MockMetrics) MLLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
}

func (m *MockMetrics) MLTimeoutsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts++
}

func (m *MockMetrics) LoadFailures(model string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadFailures[model]
}

func (m *MockMetrics) ModelsLoaded() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modelsLoaded
}

// StubClassifier is a point-prediction classifier returning a fixed label.
type StubClassifier struct {
	Label int
	Type  string
	Err   error

	mu   sync.Mutex
	rows [][]float32
}

func (s *StubClassifier) Predict(_ context.Context, rows [][]float32) ([]int, error) {
	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]int, len(rows))
	for i := range out {
		out[i] = s.Label
	}
	return out, nil
}

func (s *StubClassifier) TypeName() string {
	if s.Type == "" {
		return "StubClassifier"
	}
	return s.Type
}

// LastRows returns the matrix passed to the most recent Predict call.
func (s *StubClassifier) LastRows() [][]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// StubProbaClassifier adds fixed class probabilities to StubClassifier.
type StubProbaClassifier struct {
	StubClassifier
	Probabilities []float64
	ProbaErr      error
}

func (s *StubProbaClassifier) PredictProba(_ context.Context, rows [][]float32) ([][]float64, error) {
	if s.ProbaErr != nil {
		return nil, s.ProbaErr
	}
	out := make([][]float64, len(rows))
	for i := range out {
		out[i] = append([]float64(nil), s.Probabilities...)
	}
	return out, nil
}

// StubLoader returns prepared classifiers keyed by artifact path base name.
type StubLoader struct {
	Classifiers map[string]Classifier
	Errors      map[string]error
}

func (l *StubLoader) Load(_ context.Context, path string) (Classifier, error) {
	name := filepath.Base(path)
	if err, ok := l.Errors[name]; ok {
		return nil, err
	}
	if c, ok := l.Classifiers[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("model artifact: open %s: %w", path, os.ErrNotExist)
}
