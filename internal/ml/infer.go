package ml

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotLoaded is returned when inference is attempted on an absent entry.
var ErrNotLoaded = errors.New("model not loaded")

// Outcome is the result of running one row through a classifier.
type Outcome struct {
	Label int
	// Confidence is the maximum class probability, nil when the classifier
	// cannot estimate probabilities.
	Confidence *float64
}

// Infer runs a single-row matrix through the entry's classifier.
func Infer(ctx context.Context, e Entry, rows [][]float32) (Outcome, error) {
	if !e.Loaded() {
		return Outcome{}, fmt.Errorf("%w: %s", ErrNotLoaded, e.ID)
	}

	if !e.HasProba() {
		labels, err := e.Classifier.Predict(ctx, rows)
		if err != nil {
			return Outcome{}, err
		}
		label, err := first(labels)
		return Outcome{Label: label}, err
	}

	var (
		labels []int
		probs  [][]float64
		err    error
	)
	if jp, ok := e.Classifier.(jointPredictor); ok {
		labels, probs, err = jp.PredictWithProba(ctx, rows)
	} else {
		if probs, err = e.proba.PredictProba(ctx, rows); err == nil {
			labels, err = e.Classifier.Predict(ctx, rows)
		}
	}
	if err != nil {
		return Outcome{}, err
	}

	label, err := first(labels)
	if err != nil {
		return Outcome{}, err
	}
	if len(probs) == 0 || len(probs[0]) == 0 {
		return Outcome{}, fmt.Errorf("classifier returned no probabilities")
	}

	confidence := maxProb(probs[0])
	return Outcome{Label: label, Confidence: &confidence}, nil
}

func first(labels []int) (int, error) {
	if len(labels) == 0 {
		return 0, fmt.Errorf("classifier returned no predictions")
	}
	return labels[0], nil
}

func maxProb(row []float64) float64 {
	m := row[0]
	for _, p := range row[1:] {
		if p > m {
			m = p
		}
	}
	return m
}
