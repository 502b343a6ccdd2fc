package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MariluHA/cognitive-risk-prediction/internal/fetch"
	"github.com/MariluHA/cognitive-risk-prediction/internal/storage"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch-models",
	Short: "Download missing model artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadSettings()
		if err != nil {
			return err
		}

		dir := c.Fetch.Dir
		if flagDir, _ := cmd.Flags().GetString("dir"); flagDir != "" {
			dir = flagDir
		}

		// The manifest lives next to the artifacts.
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create models dir: %w", err)
		}
		var (
			manifest fetch.Manifest
			records  recordLookup
		)
		store, err := storage.New(dir)
		if err != nil {
			log.Warn().Err(err).Msg("Fetch manifest unavailable, continuing without it")
		} else {
			defer store.Close()
			manifest, records = store, store
		}

		d := fetch.New(fetch.Config{Dir: dir, BaseURL: c.Fetch.BaseURL, Timeout: c.Fetch.Timeout}, manifest)
		summary, err := d.FetchAll(cmd.Context(), fetch.Artifacts(c.Fetch.FileIDs))
		if err != nil {
			return err
		}

		writeSummary(cmd.OutOrStdout(), summary, records)
		if n := summary.Failed(); n > 0 {
			return fmt.Errorf("%d of %d artifacts failed: %w", n, len(summary.Results), summary.Err())
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().String("dir", "", "Target directory (overrides FETCH_DIR)")
}

type recordLookup interface {
	Get(model string) (storage.ArtifactRecord, error)
}

// writeSummary prints one line per artifact with the digest and fetch time
// recorded in the manifest, when there is one.
func writeSummary(w io.Writer, summary fetch.Summary, records recordLookup) {
	for _, r := range summary.Results {
		digest, fetchedAt := "-", "-"
		if records != nil {
			rec, err := records.Get(r.Model)
			switch {
			case err == nil:
				digest = shortDigest(rec.SHA256)
				fetchedAt = rec.FetchedAt.UTC().Format(time.RFC3339)
			case !errors.Is(err, storage.ErrNotFound):
				log.Warn().Err(err).Str("model", r.Model).Msg("Failed to read manifest record")
			}
		}
		fmt.Fprintf(w, "%-24s %-10s %-12s %s\n", r.Name, r.Status, digest, fetchedAt)
	}
}

func shortDigest(sum string) string {
	if sum == "" {
		return "-"
	}
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
