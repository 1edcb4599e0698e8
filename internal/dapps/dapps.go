// Package dapps maintains the registry of deployed dapps and the file system
// models they declare. Streams reference a dapp by id; the registry is the
// authority on which dapps and models exist.
package dapps

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDappNotFound  = errors.New("dapp not found")
	ErrDappExists    = errors.New("dapp already exists")
	ErrModelNotFound = errors.New("model not found")
)

// Dapp is one deployed application boundary. Streams created under it carry
// its id in their genesis header.
type Dapp struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Network   string            `json:"network"`
	CreatedAt time.Time         `json:"createdAt"`
	Models    []FileSystemModel `json:"models,omitempty"`
}

// FileSystemModel describes a content model a dapp declares: which fields may
// be encrypted and which are indexed for signal queries.
type FileSystemModel struct {
	ModelID     string    `json:"modelId"`
	DappID      uuid.UUID `json:"dappId"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Encryptable []string  `json:"encryptable,omitempty"`
	IndexedOn   []string  `json:"indexedOn,omitempty"`
}

// Repository is the store contract for the dapp registry.
type Repository interface {
	// CreateDapp inserts a dapp and its models. Returns ErrDappExists when
	// the id is already registered.
	CreateDapp(ctx context.Context, dapp *Dapp) error

	// GetDapp returns one dapp with its models, or ErrDappNotFound.
	GetDapp(ctx context.Context, id uuid.UUID) (*Dapp, error)

	// ListDapps returns all registered dapps, newest first, without models.
	ListDapps(ctx context.Context, limit int) ([]*Dapp, error)

	// ListModels returns the file system models of one dapp.
	ListModels(ctx context.Context, dappID uuid.UUID) ([]FileSystemModel, error)
}
