// Package fetch downloads model artifacts from Google Drive into the models
// directory. It is used by the fetch-models command and never by the server.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MariluHA/cognitive-risk-prediction/internal/common"
	"github.com/MariluHA/cognitive-risk-prediction/internal/storage"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	confirmCookiePrefix = "download_warning"
	partSuffix          = ".part"
	// progressStep is the percentage between two progress log lines.
	progressStep = 10
)

// Status is the outcome of fetching one artifact.
type Status string

const (
	StatusDownloaded Status = "downloaded"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
)

// Artifact names one remote file and where it goes.
type Artifact struct {
	Model  string
	Name   string
	FileID string
}

// Artifacts returns the artifacts for every known model in registry order.
// Models without a file id are left out.
func Artifacts(fileIDs map[string]string) []Artifact {
	out := make([]Artifact, 0, len(common.KnownModels))
	for _, model := range common.KnownModels {
		id := fileIDs[model]
		if id == "" {
			continue
		}
		out = append(out, Artifact{Model: model, Name: common.ArtifactFile(model), FileID: id})
	}
	return out
}

// Result reports what happened to one artifact.
type Result struct {
	Artifact
	Status Status
	Size   int64
	SHA256 string
	Err    error
}

// Summary collects the per-artifact results of a run.
type Summary struct {
	Results []Result
}

// Failed returns the number of artifacts that could not be fetched.
func (s Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Status == StatusFailed {
			n++
		}
	}
	return n
}

// Err joins every per-artifact failure, or returns nil.
func (s Summary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
		}
	}
	return errors.Join(errs...)
}

// Manifest records fetched artifacts.
type Manifest interface {
	Put(rec storage.ArtifactRecord) error
}

// Config configures a Downloader.
type Config struct {
	Dir     string
	BaseURL string
	Timeout time.Duration
}

// Downloader fetches artifacts over HTTP.
type Downloader struct {
	cfg      Config
	rest     *resty.Client
	manifest Manifest
	now      func() time.Time
}

// New creates a Downloader. manifest may be nil.
func New(cfg Config, manifest Manifest) *Downloader {
	r := resty.New()
	if cfg.Timeout > 0 {
		r.SetTimeout(cfg.Timeout)
	} else {
		r.SetTimeout(5 * time.Minute)
	}
	return &Downloader{cfg: cfg, rest: r, manifest: manifest, now: time.Now}
}

// FetchAll fetches every artifact that is not already present in the target
// directory. Failures are logged and reported in the summary; they do not
// stop the remaining downloads.
func (d *Downloader) FetchAll(ctx context.Context, artifacts []Artifact) (Summary, error) {
	if err := os.MkdirAll(d.cfg.Dir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create models dir: %w", err)
	}

	log.Info().Str("dir", d.cfg.Dir).Int("artifacts", len(artifacts)).Msg("Starting model download")

	var summary Summary
	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res := d.fetchOne(ctx, a)
		if res.Err != nil {
			log.Error().Err(res.Err).Str("file", a.Name).Msg("Artifact download failed")
		}
		summary.Results = append(summary.Results, res)
	}

	log.Info().Int("failed", summary.Failed()).Msg("Model download finished")
	return summary, nil
}

func (d *Downloader) fetchOne(ctx context.Context, a Artifact) Result {
	dst := filepath.Join(d.cfg.Dir, a.Name)

	if info, err := os.Stat(dst); err == nil {
		log.Info().
			Str("file", a.Name).
			Str("size_mb", fmt.Sprintf("%.1f", float64(info.Size())/(1024*1024))).
			Msg("Artifact already present, skipping")
		return Result{Artifact: a, Status: StatusSkipped, Size: info.Size()}
	}

	log.Info().Str("file", a.Name).Str("file_id", a.FileID).Msg("Downloading artifact")

	size, digest, err := d.download(ctx, a.FileID, dst)
	if err != nil {
		return Result{Artifact: a, Status: StatusFailed, Err: err}
	}

	if d.manifest != nil {
		rec := storage.ArtifactRecord{
			Model:     a.Model,
			Name:      a.Name,
			FileID:    a.FileID,
			Size:      size,
			SHA256:    digest,
			FetchedAt: d.now().UTC(),
		}
		if err := d.manifest.Put(rec); err != nil {
			log.Warn().Err(err).Str("file", a.Name).Msg("Failed to record artifact in manifest")
		}
	}

	log.Info().Str("file", a.Name).Int64("bytes", size).Str("sha256", digest).Msg("Artifact downloaded")
	return Result{Artifact: a, Status: StatusDownloaded, Size: size, SHA256: digest}
}

// download streams fileID into dst through a temporary .part file.
func (d *Downloader) download(ctx context.Context, fileID, dst string) (int64, string, error) {
	resp, err := d.get(ctx, map[string]string{"id": fileID, "export": "download"})
	if err != nil {
		return 0, "", err
	}

	// Large files answer with an interstitial page and a confirmation cookie.
	if token := confirmToken(resp.Cookies()); token != "" {
		resp.RawBody().Close()
		resp, err = d.get(ctx, map[string]string{"id": fileID, "export": "download", "confirm": token})
		if err != nil {
			return 0, "", err
		}
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return 0, "", fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	tmp := dst + partSuffix
	f, err := os.Create(tmp)
	if err != nil {
		return 0, "", fmt.Errorf("create temp file: %w", err)
	}

	hash := sha256.New()
	progress := &progressWriter{name: filepath.Base(dst), total: resp.RawResponse.ContentLength}
	n, err := io.Copy(io.MultiWriter(f, hash, progress), body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return 0, "", fmt.Errorf("write artifact: %w", err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return 0, "", fmt.Errorf("rename artifact: %w", err)
	}
	return n, hex.EncodeToString(hash.Sum(nil)), nil
}

func (d *Downloader) get(ctx context.Context, params map[string]string) (*resty.Response, error) {
	resp, err := d.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetDoNotParseResponse(true).
		Get(d.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func confirmToken(cookies []*http.Cookie) string {
	for _, c := range cookies {
		if strings.HasPrefix(c.Name, confirmCookiePrefix) {
			return c.Value
		}
	}
	return ""
}

// progressWriter logs download progress every progressStep percent.
type progressWriter struct {
	name    string
	total   int64
	written int64
	next    int
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total <= 0 {
		return len(b), nil
	}
	percent := int(p.written * 100 / p.total)
	if percent >= p.next {
		log.Info().Str("file", p.name).Int("percent", percent).Msg("Download progress")
		p.next = (percent/progressStep + 1) * progressStep
	}
	return len(b), nil
}
