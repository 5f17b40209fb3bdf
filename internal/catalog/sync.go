package catalog

import (
	"context"
	"fmt"
	"time"
)

// Store persists a full catalog snapshot.
type Store interface {
	ReplaceCatalog(ctx context.Context, data *Data) error
	SetMetadata(key, value string) error
}

// SyncService copies the catalog from one source into a store.
type SyncService struct {
	source Source
	store  Store
}

func NewSyncService(source Source, store Store) *SyncService {
	return &SyncService{source: source, store: store}
}

type SyncResult struct {
	Materials  int
	Manifests  int
	Substances int
	DualUse    int
}

func (s *SyncService) Import(ctx context.Context) (SyncResult, error) {
	data, err := s.source.Load(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}
	if err := s.store.ReplaceCatalog(ctx, data); err != nil {
		return SyncResult{}, err
	}
	_ = s.store.SetMetadata("catalog.last_import", time.Now().UTC().Format(time.RFC3339))

	res := SyncResult{
		Materials:  len(data.Materials),
		Substances: len(data.Substances),
		DualUse:    len(data.DualUse),
	}
	for _, manifests := range data.Materials {
		res.Manifests += len(manifests)
	}
	return res, nil
}
