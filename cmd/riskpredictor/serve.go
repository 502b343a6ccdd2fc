package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MariluHA/cognitive-risk-prediction/internal/cfg"
	"github.com/MariluHA/cognitive-risk-prediction/internal/common"
	"github.com/MariluHA/cognitive-risk-prediction/internal/metrics"
	"github.com/MariluHA/cognitive-risk-prediction/internal/ml"
	"github.com/MariluHA/cognitive-risk-prediction/internal/predict"
	"github.com/MariluHA/cognitive-risk-prediction/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the models and start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	c, err := loadSettings()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	registry := ml.LoadRegistry(ctx, newLoader(c, mw), c.ModelDirs, mw)
	log.Info().
		Int("loaded", registry.CountLoaded()).
		Int("total", registry.Total()).
		Str("dir", registry.Dir()).
		Msg("Model registry ready")

	svc := predict.NewService(registry, predict.WithMetrics(mw))

	staticDir, ok := common.FirstExistingDir(c.StaticDirs)
	if !ok {
		log.Warn().Strs("candidates", c.StaticDirs).Msg("No static directory found, web page disabled")
		staticDir = ""
	}

	gin.SetMode(c.GinMode)
	srv := server.New(server.Config{
		Addr:         c.Addr(),
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		StaticDir:    staticDir,
	}, svc, mw)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	return waitForShutdown(ctx, srv, errCh)
}

// newLoader builds the Python loader. When no interpreter is usable every
// model load fails with the same error and the server starts degraded.
func newLoader(c cfg.Settings, mw *metrics.MetricsWrapper) ml.Loader {
	loader, err := ml.NewPythonLoader(ml.PythonConfig{
		PythonPath: c.PythonPath,
		Timeout:    c.InferenceTimeout,
	}, mw)
	if err != nil {
		log.Error().Err(err).Msg("Python inference backend unavailable")
		return unavailableLoader{err: err}
	}
	return loader
}

type unavailableLoader struct {
	err error
}

func (l unavailableLoader) Load(context.Context, string) (ml.Classifier, error) {
	return nil, l.err
}

func waitForShutdown(ctx context.Context, srv *server.Server, errCh <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errCh:
		return err
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown timeout, forcing exit")
		return err
	}
	log.Info().Msg("server stopped")
	return <-errCh
}
