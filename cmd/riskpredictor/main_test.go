package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MariluHA/cognitive-risk-prediction/internal/fetch"
	"github.com/MariluHA/cognitive-risk-prediction/internal/ml"
	"github.com/MariluHA/cognitive-risk-prediction/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "riskpredictor "), out.String())
}

func TestSetupLogging(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	setupLogging("DEBUG", "json")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	setupLogging("nonsense", "console")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestUnavailableLoaderLeavesRegistryDegraded(t *testing.T) {
	dir := t.TempDir()
	cause := errors.New("no usable python interpreter found")

	metrics := &ml.MockMetrics{}
	registry := ml.LoadRegistry(context.Background(), unavailableLoader{err: cause}, []string{dir}, metrics)

	assert.Equal(t, 0, registry.CountLoaded())
	assert.Equal(t, 3, registry.Total())
	for _, e := range registry.Entries() {
		assert.ErrorIs(t, e.Err, cause)
	}
	assert.Equal(t, 1, metrics.LoadFailures("svm"))
}

func TestWriteSummary(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	fetched := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(storage.ArtifactRecord{
		Model:     "random_forest",
		Name:      "random_forest_model.pkl",
		SHA256:    "0123456789abcdef0123",
		FetchedAt: fetched,
	}))

	summary := fetch.Summary{Results: []fetch.Result{
		{Artifact: fetch.Artifact{Model: "random_forest", Name: "random_forest_model.pkl"}, Status: fetch.StatusSkipped},
		{Artifact: fetch.Artifact{Model: "svm", Name: "svm_model.pkl"}, Status: fetch.StatusFailed},
	}}

	var out bytes.Buffer
	writeSummary(&out, summary, store)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "0123456789ab")
	assert.Contains(t, lines[0], "2026-05-02T10:00:00Z")
	assert.Contains(t, lines[1], "failed")
	assert.True(t, strings.HasSuffix(lines[1], "-"), lines[1])

	out.Reset()
	writeSummary(&out, summary, nil)
	assert.NotContains(t, out.String(), "0123456789ab")
}
