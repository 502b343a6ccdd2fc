package ml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// fakePython writes a shell script that stands in for the interpreter. It
// answers describe and predict calls with canned JSON.
func fakePython(t *testing.T, describe, predict string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}

	script := "#!/bin/sh\n" +
		"case \"$2\" in\n" +
		"  describe) echo '" + describe + "' ;;\n" +
		"  predict) cat > /dev/null; echo '" + predict + "' ;;\n" +
		"  *) echo '{\"error\": \"unknown mode\"}'; exit 1 ;;\n" +
		"esac\n"

	path := filepath.Join(t.TempDir(), "python3")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake python: %v", err)
	}
	return path
}

func writeArtifact(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("pickle"), 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestPythonLoader_ProbabilisticVariant(t *testing.T) {
	python := fakePython(t,
		`{"type": "RandomForestClassifier", "has_predict_proba": true}`,
		`{"predictions": [1], "probabilities": [[0.2, 0.8]]}`)
	metrics := &MockMetrics{}

	loader, err := NewPythonLoader(PythonConfig{PythonPath: python, Timeout: 5 * time.Second}, metrics)
	if err != nil {
		t.Fatalf("NewPythonLoader: %v", err)
	}

	path := writeArtifact(t, t.TempDir(), "random_forest_model.pkl")
	c, err := loader.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.TypeName() != "RandomForestClassifier" {
		t.Errorf("expected type RandomForestClassifier, got %s", c.TypeName())
	}
	if _, ok := c.(ProbabilisticClassifier); !ok {
		t.Fatal("expected probabilistic variant")
	}

	out, err := Infer(context.Background(), LoadedEntry("random_forest", path, c), [][]float32{make([]float32, 31)})
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if out.Label != 1 {
		t.Errorf("expected label 1, got %d", out.Label)
	}
	if out.Confidence == nil || *out.Confidence != 0.8 {
		t.Errorf("expected confidence 0.8, got %v", out.Confidence)
	}
	if metrics.latencySum <= 0 {
		t.Error("expected inference latency to be observed")
	}
}

func TestPythonLoader_PointVariant(t *testing.T) {
	python := fakePython(t,
		`{"type": "SVC", "has_predict_proba": false}`,
		`{"predictions": [0]}`)

	loader, err := NewPythonLoader(PythonConfig{PythonPath: python}, nil)
	if err != nil {
		t.Fatalf("NewPythonLoader: %v", err)
	}

	path := writeArtifact(t, t.TempDir(), "svm_model.pkl")
	c, err := loader.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := c.(ProbabilisticClassifier); ok {
		t.Fatal("expected point-prediction variant")
	}

	labels, err := c.Predict(context.Background(), [][]float32{make([]float32, 31)})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(labels) != 1 || labels[0] != 0 {
		t.Errorf("expected [0], got %v", labels)
	}
}

func TestPythonLoader_MissingArtifact(t *testing.T) {
	python := fakePython(t, `{"type": "X"}`, `{"predictions": [0]}`)
	loader, err := NewPythonLoader(PythonConfig{PythonPath: python}, nil)
	if err != nil {
		t.Fatalf("NewPythonLoader: %v", err)
	}

	_, err = loader.Load(context.Background(), filepath.Join(t.TempDir(), "xgboost_model.pkl"))
	if err == nil {
		t.Fatal("expected error for missing artifact")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestPythonLoader_ScriptError(t *testing.T) {
	python := fakePython(t,
		`{"error": "invalid load key"}`,
		`{"predictions": [0]}`)
	loader, err := NewPythonLoader(PythonConfig{PythonPath: python}, nil)
	if err != nil {
		t.Fatalf("NewPythonLoader: %v", err)
	}

	path := writeArtifact(t, t.TempDir(), "svm_model.pkl")
	_, err = loader.Load(context.Background(), path)
	if err == nil {
		t.Fatal("expected describe error")
	}
	if !strings.Contains(err.Error(), "invalid load key") {
		t.Errorf("expected script error to surface, got %v", err)
	}
}

func TestPythonModel_PredictionCountMismatch(t *testing.T) {
	python := fakePython(t,
		`{"type": "SVC", "has_predict_proba": false}`,
		`{"predictions": [0, 1]}`)
	loader, err := NewPythonLoader(PythonConfig{PythonPath: python}, nil)
	if err != nil {
		t.Fatalf("NewPythonLoader: %v", err)
	}

	c, err := loader.Load(context.Background(), writeArtifact(t, t.TempDir(), "svm_model.pkl"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := c.Predict(context.Background(), [][]float32{make([]float32, 31)}); err == nil {
		t.Error("expected error when prediction count does not match rows")
	}
	if _, err := c.Predict(context.Background(), nil); err == nil {
		t.Error("expected error for empty matrix")
	}
}

func TestNewPythonLoader_BadInterpreter(t *testing.T) {
	_, err := NewPythonLoader(PythonConfig{PythonPath: filepath.Join(t.TempDir(), "missing-python")}, nil)
	if err == nil {
		t.Error("expected error for missing interpreter")
	}
}

func TestEmbeddedScript(t *testing.T) {
	if len(inferenceScript) == 0 {
		t.Fatal("embedded inference script is empty")
	}
	for _, mode := range []string{"describe", "predict", "predict_proba"} {
		if !strings.Contains(string(inferenceScript), mode) {
			t.Errorf("expected script to handle %s", mode)
		}
	}
}
