package dapps

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// InMemoryRepository is a map-backed Repository for tests and local runs.
type InMemoryRepository struct {
	mu    sync.RWMutex
	dapps map[uuid.UUID]*Dapp
}

// NewInMemoryRepository creates an empty in-memory registry.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{dapps: make(map[uuid.UUID]*Dapp)}
}

func cloneDapp(d *Dapp) *Dapp {
	c := *d
	c.Models = append([]FileSystemModel(nil), d.Models...)
	return &c
}

// CreateDapp registers a dapp, rejecting duplicate ids.
func (r *InMemoryRepository) CreateDapp(ctx context.Context, dapp *Dapp) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.dapps[dapp.ID]; ok {
		return ErrDappExists
	}
	r.dapps[dapp.ID] = cloneDapp(dapp)
	return nil
}

// GetDapp returns one dapp with its models.
func (r *InMemoryRepository) GetDapp(ctx context.Context, id uuid.UUID) (*Dapp, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.dapps[id]
	if !ok {
		return nil, ErrDappNotFound
	}
	return cloneDapp(d), nil
}

// ListDapps returns registered dapps, newest first, without models.
func (r *InMemoryRepository) ListDapps(ctx context.Context, limit int) ([]*Dapp, error) {
	_ = ctx
	if limit <= 0 {
		limit = 100
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	dapps := make([]*Dapp, 0, len(r.dapps))
	for _, d := range r.dapps {
		c := cloneDapp(d)
		c.Models = nil
		dapps = append(dapps, c)
	}
	sort.Slice(dapps, func(i, j int) bool {
		if dapps[i].CreatedAt.Equal(dapps[j].CreatedAt) {
			return dapps[i].ID.String() < dapps[j].ID.String()
		}
		return dapps[i].CreatedAt.After(dapps[j].CreatedAt)
	})

	if len(dapps) > limit {
		dapps = dapps[:limit]
	}
	return dapps, nil
}

// ListModels returns the models of one dapp.
func (r *InMemoryRepository) ListModels(ctx context.Context, dappID uuid.UUID) ([]FileSystemModel, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.dapps[dappID]
	if !ok {
		return nil, ErrDappNotFound
	}
	models := append([]FileSystemModel(nil), d.Models...)
	sort.Slice(models, func(i, j int) bool { return models[i].ModelID < models[j].ModelID })
	return models, nil
}
