package dapps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamhub-systems/streamhub/common/logging"
)

// DeployAnnouncer is notified after a dapp is durably registered.
type DeployAnnouncer interface {
	DappDeployed(ctx context.Context, dappID, name, network string)
}

// Service exposes the registry operations used by the HTTP boundary.
type Service struct {
	repo      Repository
	announcer DeployAnnouncer
	logger    *logging.Logger
}

// NewService constructs a Service. announcer and logger are optional.
func NewService(repo Repository, announcer DeployAnnouncer, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, announcer: announcer, logger: logger}
}

// DeployRequest carries the caller-supplied fields of a deployment.
type DeployRequest struct {
	Name    string            `json:"name"`
	Network string            `json:"network"`
	Models  []FileSystemModel `json:"models,omitempty"`
}

// DeployDapp registers a new dapp. The id is generated server-side; models
// are stamped with it.
func (s *Service) DeployDapp(ctx context.Context, req DeployRequest) (*Dapp, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("dapp name is required")
	}
	network := req.Network
	if network == "" {
		network = "mainnet"
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate dapp id: %w", err)
	}

	dapp := &Dapp{
		ID:        id,
		Name:      name,
		Network:   network,
		CreatedAt: time.Now().UTC(),
		Models:    make([]FileSystemModel, len(req.Models)),
	}
	for i, m := range req.Models {
		m.DappID = id
		if m.ModelID == "" {
			return nil, fmt.Errorf("model %d: model id is required", i)
		}
		dapp.Models[i] = m
	}

	if err := s.repo.CreateDapp(ctx, dapp); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "dapp deployed", "dapp_id", id, "name", name, "network", network)
	if s.announcer != nil {
		s.announcer.DappDeployed(ctx, id.String(), name, network)
	}
	return dapp, nil
}

// GetDapp returns one dapp with its models.
func (s *Service) GetDapp(ctx context.Context, id uuid.UUID) (*Dapp, error) {
	return s.repo.GetDapp(ctx, id)
}

// GetDapps lists registered dapps.
func (s *Service) GetDapps(ctx context.Context, limit int) ([]*Dapp, error) {
	return s.repo.ListDapps(ctx, limit)
}

// GetFileSystemModels lists the models declared by one dapp.
func (s *Service) GetFileSystemModels(ctx context.Context, dappID uuid.UUID) ([]FileSystemModel, error) {
	return s.repo.ListModels(ctx, dappID)
}
