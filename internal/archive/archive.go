// Package archive keeps the named estimate snapshots a user saved, most recent
// first, in a single document held by a Store.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"car-cost-estimator/internal/metrics"
	"car-cost-estimator/internal/model"
)

const (
	DefaultCapacity = 10
	// DefaultKey is the storage key of the archive document.
	DefaultKey = "car_estimator_studies"
)

var (
	ErrInvalidName      = errors.New("study name must be between 1 and 50 characters")
	ErrMalformedArchive = errors.New("malformed study archive")
	ErrNotFound         = errors.New("study not found")
)

// Store holds the serialized archive document. Load returns nil when nothing
// has been stored yet.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, document []byte) error
	Close() error
}

// Archive serializes every operation: each one reads the full document,
// changes it and writes it back before the next one starts.
type Archive struct {
	mu       sync.Mutex
	store    Store
	capacity int
	now      func() time.Time
	newID    func() (string, error)
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Archive)

// WithCapacity changes how many studies are kept; values < 1 are ignored.
func WithCapacity(n int) Option {
	return func(a *Archive) {
		if n > 0 {
			a.capacity = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Archive) { a.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Archive) { a.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Archive) { a.logger = l }
}

// New creates the archive on top of store. The archive owns the store from now on.
func New(store Store, opts ...Option) *Archive {
	a := &Archive{
		store:    store,
		capacity: DefaultCapacity,
		now:      time.Now,
		newID:    newStudyID,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// List returns every study, most recent first.
func (a *Archive) List(ctx context.Context) ([]model.SavedStudy, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	studies, err := a.load(ctx)
	a.metrics.ObserveArchive("list", err)
	if err != nil {
		return nil, err
	}
	return cloneStudies(studies), nil
}

func (a *Archive) Get(ctx context.Context, id string) (model.SavedStudy, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	studies, err := a.load(ctx)
	if err != nil {
		return model.SavedStudy{}, err
	}
	for _, s := range studies {
		if s.ID == id {
			return s.Clone(), nil
		}
	}
	return model.SavedStudy{}, ErrNotFound
}

// Save stores a copy of snapshot under name and evicts the oldest studies
// beyond capacity.
func (a *Archive) Save(ctx context.Context, name string, snapshot model.EstimateInput) (model.SavedStudy, error) {
	name, err := normalizeName(name)
	if err != nil {
		return model.SavedStudy{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	study, err := a.save(ctx, name, snapshot)
	a.metrics.ObserveArchive("save", err)
	return study, err
}

func (a *Archive) save(ctx context.Context, name string, snapshot model.EstimateInput) (model.SavedStudy, error) {
	studies, err := a.load(ctx)
	if err != nil {
		return model.SavedStudy{}, err
	}

	id, err := a.newID()
	if err != nil {
		return model.SavedStudy{}, fmt.Errorf("failed to generate study id: %w", err)
	}
	study := model.SavedStudy{
		ID:        id,
		Name:      name,
		Snapshot:  snapshot.Clone(),
		CreatedAt: a.now().UTC(),
	}

	updated := make([]model.SavedStudy, 0, len(studies)+1)
	updated = append(updated, study)
	updated = append(updated, studies...)
	if len(updated) > a.capacity {
		a.logger.Info("evicting oldest studies", "evicted", len(updated)-a.capacity)
		updated = updated[:a.capacity]
	}

	if err := a.write(ctx, updated); err != nil {
		return model.SavedStudy{}, err
	}
	a.logger.Info("study saved", "id", study.ID, "name", study.Name, "count", len(updated))
	return study.Clone(), nil
}

// Delete removes the study with id. An unknown id is not an error.
func (a *Archive) Delete(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	err := a.delete(ctx, id)
	a.metrics.ObserveArchive("delete", err)
	return err
}

func (a *Archive) delete(ctx context.Context, id string) error {
	studies, err := a.load(ctx)
	if err != nil {
		return err
	}

	kept := studies[:0]
	for _, s := range studies {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(studies) {
		return nil
	}
	return a.write(ctx, kept)
}

// ExportAll serializes the archive as an indented JSON array.
func (a *Archive) ExportAll(ctx context.Context) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	studies, err := a.load(ctx)
	if err == nil {
		var out []byte
		out, err = json.MarshalIndent(studies, "", "  ")
		if err == nil {
			a.metrics.ObserveArchive("export", nil)
			return out, nil
		}
		err = fmt.Errorf("failed to encode studies: %w", err)
	}
	a.metrics.ObserveArchive("export", err)
	return nil, err
}

// ImportAll replaces the whole archive with the studies in document and
// returns how many were kept. Nothing changes when document is malformed.
func (a *Archive) ImportAll(ctx context.Context, document []byte) (int, error) {
	studies, err := decodeImport(document)
	if err != nil {
		a.metrics.ObserveArchive("import", err)
		return 0, err
	}
	if len(studies) > a.capacity {
		studies = studies[:a.capacity]
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	err = a.write(ctx, studies)
	a.metrics.ObserveArchive("import", err)
	if err != nil {
		return 0, err
	}
	a.logger.Info("studies imported", "count", len(studies))
	return len(studies), nil
}

// Close releases the store.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.Close()
}

// load reads the stored document. A document that no longer decodes is
// treated as an empty archive; the next write replaces it.
func (a *Archive) load(ctx context.Context) ([]model.SavedStudy, error) {
	data, err := a.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load studies: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.SavedStudy{}, nil
	}

	var studies []model.SavedStudy
	if err := json.Unmarshal(data, &studies); err != nil {
		a.logger.Warn("stored studies are unreadable, starting empty", "error", err)
		return []model.SavedStudy{}, nil
	}
	if studies == nil {
		studies = []model.SavedStudy{}
	}
	return studies, nil
}

func (a *Archive) write(ctx context.Context, studies []model.SavedStudy) error {
	data, err := json.Marshal(studies)
	if err != nil {
		return fmt.Errorf("failed to encode studies: %w", err)
	}
	if err := a.store.Save(ctx, data); err != nil {
		return fmt.Errorf("failed to store studies: %w", err)
	}
	return nil
}

// importRecord keeps data raw so a missing or null snapshot can be told apart.
type importRecord struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
}

func decodeImport(document []byte) ([]model.SavedStudy, error) {
	trimmed := bytes.TrimSpace(document)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array of studies", ErrMalformedArchive)
	}

	var records []importRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArchive, err)
	}

	seen := make(map[string]struct{}, len(records))
	studies := make([]model.SavedStudy, 0, len(records))
	for i, r := range records {
		if strings.TrimSpace(r.ID) == "" {
			return nil, fmt.Errorf("%w: study %d has no id", ErrMalformedArchive, i)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate study id %q", ErrMalformedArchive, r.ID)
		}
		seen[r.ID] = struct{}{}

		name, err := normalizeName(r.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: study %q: %v", ErrMalformedArchive, r.ID, err)
		}
		if r.CreatedAt.IsZero() {
			return nil, fmt.Errorf("%w: study %q has no creation time", ErrMalformedArchive, r.ID)
		}

		raw := bytes.TrimSpace(r.Data)
		if len(raw) == 0 || raw[0] != '{' {
			return nil, fmt.Errorf("%w: study %q has no snapshot", ErrMalformedArchive, r.ID)
		}
		var snapshot model.EstimateInput
		if err := json.Unmarshal(raw, &snapshot); err != nil {
			return nil, fmt.Errorf("%w: study %q: %v", ErrMalformedArchive, r.ID, err)
		}

		studies = append(studies, model.SavedStudy{
			ID:        r.ID,
			Name:      name,
			Snapshot:  snapshot,
			CreatedAt: r.CreatedAt,
		})
	}
	return studies, nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > model.MaxStudyNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

func newStudyID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func cloneStudies(in []model.SavedStudy) []model.SavedStudy {
	out := make([]model.SavedStudy, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
