package ml

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/MariluHA/cognitive-risk-prediction/internal/common"

	"github.com/rs/zerolog/log"
)

var (
	// ErrUnknownModel is returned for identifiers the registry does not track.
	ErrUnknownModel = errors.New("unknown model")
	// ErrModelDirNotFound marks entries absent because no candidate directory existed.
	ErrModelDirNotFound = errors.New("model directory not found")
)

// Entry is a registry slot: a loaded classifier or an absence marker.
type Entry struct {
	ID         string
	Path       string
	Classifier Classifier
	// Err records why the entry is absent.
	Err error

	proba ProbabilisticClassifier
}

// LoadedEntry builds an entry for a ready classifier. The probability
// capability is detected here, once.
func LoadedEntry(id, path string, c Classifier) Entry {
	e := Entry{ID: id, Path: path, Classifier: c}
	if p, ok := c.(ProbabilisticClassifier); ok {
		e.proba = p
	}
	return e
}

// AbsentEntry builds an entry for a model that failed to load.
func AbsentEntry(id, path string, err error) Entry {
	return Entry{ID: id, Path: path, Err: err}
}

// Loaded reports whether the entry holds a classifier.
func (e Entry) Loaded() bool {
	return e.Classifier != nil
}

// HasProba reports whether the classifier can estimate probabilities.
func (e Entry) HasProba() bool {
	return e.proba != nil
}

// TypeName returns the classifier implementation type, or "Not loaded".
func (e Entry) TypeName() string {
	if !e.Loaded() {
		return "Not loaded"
	}
	return e.Classifier.TypeName()
}

// Registry maps model identifiers to entries. It is immutable once built and
// safe for concurrent readers.
type Registry struct {
	dir     string
	order   []string
	entries map[string]Entry
}

// NewRegistry builds a registry from prepared entries, keeping their order.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if _, dup := r.entries[e.ID]; !dup {
			r.order = append(r.order, e.ID)
		}
		r.entries[e.ID] = e
	}
	return r
}

// LoadRegistry loads every known model from the first existing directory in
// dirs. Failures are logged and leave the entry absent; they never abort.
func LoadRegistry(ctx context.Context, loader Loader, dirs []string, metrics MetricsInterface) *Registry {
	entries := make([]Entry, 0, len(common.KnownModels))

	dir, found := common.FirstExistingDir(dirs)
	if !found {
		log.Warn().Strs("candidates", dirs).Msg("No model directory found, all models unavailable")
	} else {
		log.Info().Str("dir", dir).Msg("Loading models")
	}

	for _, id := range common.KnownModels {
		if !found {
			entries = append(entries, AbsentEntry(id, "", ErrModelDirNotFound))
			if metrics != nil {
				metrics.ModelLoadFailuresInc(id)
			}
			continue
		}

		path := filepath.Join(dir, common.ArtifactFile(id))
		log.Info().Str("model", id).Str("path", path).Msg("Loading model")

		c, err := loader.Load(ctx, path)
		if err != nil {
			log.Warn().Err(err).Str("model", id).Str("path", path).Msg("Model unavailable")
			entries = append(entries, AbsentEntry(id, path, err))
			if metrics != nil {
				metrics.ModelLoadFailuresInc(id)
			}
			continue
		}

		e := LoadedEntry(id, path, c)
		log.Info().
			Str("model", id).
			Str("type", c.TypeName()).
			Bool("predict_proba", e.HasProba()).
			Msg("Model loaded successfully")
		entries = append(entries, e)
	}

	r := NewRegistry(entries...)
	r.dir = dir
	if metrics != nil {
		metrics.ModelsLoadedSet(float64(r.CountLoaded()))
	}
	return r
}

// Dir returns the directory models were loaded from, if any.
func (r *Registry) Dir() string {
	return r.dir
}

// Has reports whether id is tracked, loaded or not.
func (r *Registry) Has(id string) bool {
	_, ok := r.entries[id]
	return ok
}

// Get returns the classifier for id. The boolean is false when id is unknown
// or its entry is absent.
func (r *Registry) Get(id string) (Classifier, bool) {
	e, ok := r.entries[id]
	if !ok || !e.Loaded() {
		return nil, false
	}
	return e.Classifier, true
}

// Entry returns the raw entry for id.
func (r *Registry) Entry(id string) (Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	return e, nil
}

// Resolve maps a requested identifier onto a tracked one, falling back to
// the default model for anything unknown.
func (r *Registry) Resolve(requested string) string {
	if r.Has(requested) {
		return requested
	}
	return common.DefaultModel
}

// CountLoaded returns the number of loaded entries.
func (r *Registry) CountLoaded() int {
	n := 0
	for _, e := range r.entries {
		if e.Loaded() {
			n++
		}
	}
	return n
}

// Total returns the number of tracked identifiers.
func (r *Registry) Total() int {
	return len(r.order)
}

// Entries returns all entries in registry order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}
