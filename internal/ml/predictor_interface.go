// Package ml provides the model registry and the classifier capabilities the
// prediction pipeline dispatches to.
//
// Classifiers come in two variants: point prediction only, and point
// prediction plus class probabilities. The variant is fixed when a model is
// loaded, never per request. Serialized scikit-learn compatible artifacts are
// served through a Python inference subprocess.
package ml

import "context"

// Classifier produces a binary label for each row of a feature matrix.
type Classifier interface {
	// Predict returns one label per input row.
	Predict(ctx context.Context, rows [][]float32) ([]int, error)

	// TypeName reports the underlying implementation type, e.g. RandomForestClassifier.
	TypeName() string
}

// ProbabilisticClassifier is a Classifier that can also estimate class probabilities.
type ProbabilisticClassifier interface {
	Classifier

	// PredictProba returns one probability distribution over classes per input row.
	PredictProba(ctx context.Context, rows [][]float32) ([][]float64, error)
}

// jointPredictor is implemented by classifiers that can return labels and
// probabilities from a single invocation.
type jointPredictor interface {
	PredictWithProba(ctx context.Context, rows [][]float32) ([]int, [][]float64, error)
}

// Loader deserializes a model artifact into a ready classifier.
type Loader interface {
	Load(ctx context.Context, path string) (Classifier, error)
}

// MetricsInterface defines metrics methods needed by the registry and classifiers
type MetricsInterface interface {
	ModelLoadFailuresInc(model string)
	ModelsLoadedSet(float64)
	MLLatencyObserve(float64)
	MLTimeoutsInc()
}
