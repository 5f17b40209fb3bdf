package catalog

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Repository caches the current catalog snapshot for the process. Callers that
// need data call Load; edits to the backing store are picked up after Invalidate
// or Reload.
type Repository struct {
	mu      sync.RWMutex
	source  Source
	data    *Data
	version uint64
	log     *zap.Logger
}

func NewRepository(source Source, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{source: source, log: log}
}

// Load returns the cached snapshot, reading the source on first use or after
// Invalidate. Failures are returned to the caller and not retried.
func (r *Repository) Load(ctx context.Context) (*Data, error) {
	r.mu.RLock()
	data := r.data
	r.mu.RUnlock()
	if data != nil {
		return data, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data != nil {
		return r.data, nil
	}
	data, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	r.data = data
	r.version++
	return data, nil
}

// Reload re-reads the source. On failure the previous snapshot stays in place.
func (r *Repository) Reload(ctx context.Context) (*Data, error) {
	data, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.data = data
	r.version++
	r.mu.Unlock()
	return data, nil
}

// Invalidate drops the cached snapshot so the next Load reads the source again.
func (r *Repository) Invalidate() {
	r.mu.Lock()
	r.data = nil
	r.mu.Unlock()
	r.log.Info("catalog invalidated")
}

// Version counts successful loads; it changes whenever a new snapshot is installed.
func (r *Repository) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

func (r *Repository) load(ctx context.Context) (*Data, error) {
	data, err := r.source.Load(ctx)
	if err != nil {
		r.log.Error("catalog load failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}
	r.log.Info("catalog loaded",
		zap.Int("materials", len(data.Materials)),
		zap.Int("substances", len(data.Substances)),
		zap.Int("dual_use", len(data.DualUse)),
	)
	for key, names := range BuildIndex(data).Collisions() {
		r.log.Warn("material names share a match key; the first one wins",
			zap.String("key", key), zap.Strings("names", names))
	}
	return data, nil
}
