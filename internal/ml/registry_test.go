package ml

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegistry_AllLoaded(t *testing.T) {
	dir := t.TempDir()
	loader := &StubLoader{Classifiers: map[string]Classifier{
		"random_forest_model.pkl": &StubProbaClassifier{StubClassifier: StubClassifier{Label: 1, Type: "RandomForestClassifier"}, Probabilities: []float64{0.2, 0.8}},
		"svm_model.pkl":           &StubClassifier{Type: "SVC"},
		"xgboost_model.pkl":       &StubProbaClassifier{StubClassifier: StubClassifier{Type: "XGBClassifier"}, Probabilities: []float64{0.6, 0.4}},
	}}
	metrics := &MockMetrics{}

	r := LoadRegistry(context.Background(), loader, []string{filepath.Join(dir, "missing"), dir}, metrics)

	assert.Equal(t, dir, r.Dir())
	assert.Equal(t, 3, r.CountLoaded())
	assert.Equal(t, 3, r.Total())
	assert.Equal(t, float64(3), metrics.ModelsLoaded())

	ids := make([]string, 0, 3)
	for _, e := range r.Entries() {
		ids = append(ids, e.ID)
		assert.Equal(t, filepath.Join(dir, e.ID+"_model.pkl"), e.Path)
	}
	assert.Equal(t, []string{"random_forest", "svm", "xgboost"}, ids)

	rf, err := r.Entry("random_forest")
	require.NoError(t, err)
	assert.True(t, rf.HasProba())
	assert.Equal(t, "RandomForestClassifier", rf.TypeName())

	svm, err := r.Entry("svm")
	require.NoError(t, err)
	assert.False(t, svm.HasProba())
}

func TestLoadRegistry_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	loader := &StubLoader{
		Classifiers: map[string]Classifier{"svm_model.pkl": &StubClassifier{Type: "SVC"}},
		Errors:      map[string]error{"xgboost_model.pkl": errors.New("invalid load key")},
	}
	metrics := &MockMetrics{}

	r := LoadRegistry(context.Background(), loader, []string{dir}, metrics)

	assert.Equal(t, 1, r.CountLoaded())
	assert.Equal(t, 1, metrics.LoadFailures("random_forest"))
	assert.Equal(t, 1, metrics.LoadFailures("xgboost"))
	assert.Equal(t, 0, metrics.LoadFailures("svm"))

	_, ok := r.Get("random_forest")
	assert.False(t, ok)
	assert.True(t, r.Has("random_forest"), "absent entries stay tracked")

	xgb, err := r.Entry("xgboost")
	require.NoError(t, err)
	assert.False(t, xgb.Loaded())
	assert.EqualError(t, xgb.Err, "invalid load key")
	assert.Equal(t, "Not loaded", xgb.TypeName())

	c, ok := r.Get("svm")
	require.True(t, ok)
	assert.Equal(t, "SVC", c.TypeName())
}

func TestLoadRegistry_NoDirectory(t *testing.T) {
	loader := &StubLoader{}
	metrics := &MockMetrics{}

	r := LoadRegistry(context.Background(), loader, []string{filepath.Join(t.TempDir(), "nope")}, metrics)

	assert.Equal(t, 0, r.CountLoaded())
	assert.Equal(t, 3, r.Total())
	assert.Empty(t, r.Dir())
	for _, e := range r.Entries() {
		assert.ErrorIs(t, e.Err, ErrModelDirNotFound)
	}
	assert.Equal(t, float64(0), metrics.ModelsLoaded())
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry(
		LoadedEntry("random_forest", "", &StubClassifier{}),
		AbsentEntry("svm", "", errors.New("missing")),
		LoadedEntry("xgboost", "", &StubClassifier{}),
	)

	tests := []struct {
		requested string
		want      string
	}{
		{"random_forest", "random_forest"},
		{"svm", "svm"},
		{"xgboost", "xgboost"},
		{"unknown_model", "random_forest"},
		{"", "random_forest"},
		{"SVM", "random_forest"},
	}
	for _, tt := range tests {
		t.Run(tt.requested, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.requested))
		})
	}
}

func TestRegistry_UnknownEntry(t *testing.T) {
	r := NewRegistry(LoadedEntry("random_forest", "", &StubClassifier{}))

	_, err := r.Entry("lightgbm")
	assert.ErrorIs(t, err, ErrUnknownModel)

	_, ok := r.Get("lightgbm")
	assert.False(t, ok)
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	r := NewRegistry(
		LoadedEntry("random_forest", "", &StubClassifier{Label: 1}),
		LoadedEntry("svm", "", &StubClassifier{}),
	)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := r.Resolve("svm")
				_, _ = r.Get(id)
				_ = r.CountLoaded()
				_ = r.Entries()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, r.CountLoaded())
}
