package ml

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

//go:embed pickle_inference.py
var inferenceScript []byte

// PythonConfig configures the Python inference backend.
type PythonConfig struct {
	// PythonPath overrides interpreter discovery when set.
	PythonPath string
	// ScriptPath overrides the embedded inference script when set.
	ScriptPath string
	// Timeout bounds each inference call. Zero disables the bound.
	Timeout time.Duration
	// LoadTimeout bounds the describe call made while loading an artifact.
	LoadTimeout time.Duration
}

// PythonLoader loads pickled classifiers by describing them through the
// inference script.
type PythonLoader struct {
	pythonPath  string
	scriptPath  string
	timeout     time.Duration
	loadTimeout time.Duration
	metrics     MetricsInterface
}

type inferenceRequest struct {
	Features [][]float32 `json:"features"`
	Proba    bool        `json:"proba"`
}

type inferenceResponse struct {
	Type            string      `json:"type,omitempty"`
	HasPredictProba bool        `json:"has_predict_proba,omitempty"`
	Predictions     []int       `json:"predictions,omitempty"`
	Probabilities   [][]float64 `json:"probabilities,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// NewPythonLoader locates a Python interpreter and the inference script.
func NewPythonLoader(cfg PythonConfig, metrics MetricsInterface) (*PythonLoader, error) {
	pythonPath := cfg.PythonPath
	if pythonPath == "" {
		var err error
		if pythonPath, err = findPython(); err != nil {
			return nil, err
		}
	} else if _, err := exec.LookPath(pythonPath); err != nil {
		return nil, fmt.Errorf("configured python %s: %w", pythonPath, err)
	}

	scriptPath := cfg.ScriptPath
	if scriptPath == "" {
		var err error
		if scriptPath, err = writeInferenceScript(); err != nil {
			return nil, fmt.Errorf("failed to create inference script: %w", err)
		}
	}

	loadTimeout := cfg.LoadTimeout
	if loadTimeout <= 0 {
		loadTimeout = time.Minute
	}

	return &PythonLoader{
		pythonPath:  pythonPath,
		scriptPath:  scriptPath,
		timeout:     cfg.Timeout,
		loadTimeout: loadTimeout,
		metrics:     metrics,
	}, nil
}

// Load unpickles the artifact once to verify it and to detect whether it can
// estimate probabilities.
func (l *PythonLoader) Load(ctx context.Context, path string) (Classifier, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model artifact: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, l.loadTimeout)
	defer cancel()

	resp, err := runScript(ctx, l.pythonPath, l.scriptPath, "describe", path, nil)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", filepath.Base(path), err)
	}

	m := &pythonModel{
		pythonPath: l.pythonPath,
		scriptPath: l.scriptPath,
		modelPath:  path,
		typeName:   resp.Type,
		timeout:    l.timeout,
		metrics:    l.metrics,
	}
	if resp.HasPredictProba {
		return &pythonProbaModel{m}, nil
	}
	return m, nil
}

// pythonModel is the point-prediction variant.
type pythonModel struct {
	pythonPath string
	scriptPath string
	modelPath  string
	typeName   string
	timeout    time.Duration
	metrics    MetricsInterface
}

func (m *pythonModel) TypeName() string { return m.typeName }

func (m *pythonModel) Predict(ctx context.Context, rows [][]float32) ([]int, error) {
	resp, err := m.run(ctx, rows, false)
	if err != nil {
		return nil, err
	}
	return resp.Predictions, nil
}

func (m *pythonModel) run(ctx context.Context, rows [][]float32, proba bool) (*inferenceResponse, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty feature matrix")
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := runScript(ctx, m.pythonPath, m.scriptPath, "predict", m.modelPath, &inferenceRequest{Features: rows, Proba: proba})
	if m.metrics != nil {
		m.metrics.MLLatencyObserve(time.Since(start).Seconds())
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			if m.metrics != nil {
				m.metrics.MLTimeoutsInc()
			}
			return nil, fmt.Errorf("prediction timeout after %v: %w", m.timeout, err)
		}
		return nil, err
	}

	if len(resp.Predictions) != len(rows) {
		return nil, fmt.Errorf("expected %d predictions, got %d", len(rows), len(resp.Predictions))
	}
	if proba && len(resp.Probabilities) != len(rows) {
		return nil, fmt.Errorf("expected %d probability rows, got %d", len(rows), len(resp.Probabilities))
	}

	log.Debug().
		Str("model_path", m.modelPath).
		Ints("predictions", resp.Predictions).
		Interface("probabilities", resp.Probabilities).
		Msg("Prediction successful")

	return resp, nil
}

// pythonProbaModel is the variant whose artifact exposes predict_proba.
type pythonProbaModel struct {
	*pythonModel
}

func (m *pythonProbaModel) PredictProba(ctx context.Context, rows [][]float32) ([][]float64, error) {
	resp, err := m.run(ctx, rows, true)
	if err != nil {
		return nil, err
	}
	return resp.Probabilities, nil
}

func (m *pythonProbaModel) PredictWithProba(ctx context.Context, rows [][]float32) ([]int, [][]float64, error) {
	resp, err := m.run(ctx, rows, true)
	if err != nil {
		return nil, nil, err
	}
	return resp.Predictions, resp.Probabilities, nil
}

func runScript(ctx context.Context, pythonPath, scriptPath, mode, modelPath string, req *inferenceRequest) (*inferenceResponse, error) {
	cmd := exec.CommandContext(ctx, pythonPath, scriptPath, mode, modelPath)
	if req != nil {
		body, err := json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		cmd.Stdin = bytes.NewReader(body)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	var resp inferenceResponse
	parseErr := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &resp)
	if parseErr == nil && resp.Error != "" {
		return nil, fmt.Errorf("python inference error: %s", resp.Error)
	}

	if runErr != nil {
		log.Error().
			Err(runErr).
			Str("python_path", pythonPath).
			Str("script_path", scriptPath).
			Str("model_path", modelPath).
			Str("mode", mode).
			Str("stderr", stderr.String()).
			Bool("context_cancelled", ctx.Err() != nil).
			Msg("Python inference execution failed")
		return nil, fmt.Errorf("python inference failed: %w, stderr: %s", runErr, strings.TrimSpace(stderr.String()))
	}
	if parseErr != nil {
		return nil, fmt.Errorf("failed to parse response: %w, stdout: %s", parseErr, stdout.String())
	}
	return &resp, nil
}

func writeInferenceScript() (string, error) {
	dir, err := os.MkdirTemp("", "riskpredictor-")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "pickle_inference.py")
	if err := os.WriteFile(path, inferenceScript, 0o755); err != nil {
		return "", err
	}
	return path, nil
}

func findPython() (string, error) {
	var candidates []string

	if venvPath := os.Getenv("VIRTUAL_ENV"); venvPath != "" {
		candidates = append(candidates,
			filepath.Join(venvPath, "bin", "python3"),
			filepath.Join(venvPath, "bin", "python"),
			filepath.Join(venvPath, "Scripts", "python.exe"),
		)
	}
	for _, root := range []string{".", ".."} {
		candidates = append(candidates,
			filepath.Join(root, "venv", "bin", "python3"),
			filepath.Join(root, ".venv", "bin", "python3"),
		)
	}
	for _, name := range []string{"python3", "python"} {
		if path, err := exec.LookPath(name); err == nil {
			candidates = append(candidates, path)
		}
	}

	var fallback string
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		// numpy is needed to rebuild the feature matrix; sklearn models import it anyway.
		cmd := exec.Command(candidate, "-c", "import sys, pickle, numpy; print('Python', sys.version)")
		if output, err := cmd.Output(); err == nil && strings.Contains(string(output), "Python 3") {
			log.Info().Str("python_path", candidate).Msg("Using Python interpreter")
			return candidate, nil
		}
		if fallback == "" {
			fallback = candidate
		}
	}

	if fallback != "" {
		log.Warn().Str("python_path", fallback).Msg("Found Python but numpy may not be installed")
		return fallback, nil
	}

	return "", fmt.Errorf("no suitable Python 3 executable found")
}
