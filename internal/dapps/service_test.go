package dapps

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureDeploys struct {
	deployed []string
}

func (c *captureDeploys) DappDeployed(_ context.Context, dappID, _, _ string) {
	c.deployed = append(c.deployed, dappID)
}

func TestService_DeployDapp(t *testing.T) {
	ctx := t.Context()
	ann := &captureDeploys{}
	svc := NewService(NewInMemoryRepository(), ann, nil)

	dapp, err := svc.DeployDapp(ctx, DeployRequest{
		Name:    "notes",
		Network: "testnet",
		Models: []FileSystemModel{
			{ModelID: "note-v1", Name: "Note", Version: "1", IndexedOn: []string{"contentId"}},
		},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, dapp.ID)
	assert.Equal(t, "testnet", dapp.Network)
	require.Len(t, dapp.Models, 1)
	assert.Equal(t, dapp.ID, dapp.Models[0].DappID)

	assert.Equal(t, []string{dapp.ID.String()}, ann.deployed)

	loaded, err := svc.GetDapp(ctx, dapp.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes", loaded.Name)
	require.Len(t, loaded.Models, 1)
	assert.Equal(t, "note-v1", loaded.Models[0].ModelID)
}

func TestService_DeployDappValidation(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), nil, nil)

	_, err := svc.DeployDapp(t.Context(), DeployRequest{Name: "  "})
	assert.Error(t, err)

	_, err = svc.DeployDapp(t.Context(), DeployRequest{
		Name:   "bad-models",
		Models: []FileSystemModel{{Name: "missing id"}},
	})
	assert.Error(t, err)
}

func TestService_DefaultNetwork(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), nil, nil)

	dapp, err := svc.DeployDapp(t.Context(), DeployRequest{Name: "plain"})
	require.NoError(t, err)
	assert.Equal(t, "mainnet", dapp.Network)
}

func TestService_GetDapps(t *testing.T) {
	ctx := t.Context()
	svc := NewService(NewInMemoryRepository(), nil, nil)

	first, err := svc.DeployDapp(ctx, DeployRequest{Name: "first"})
	require.NoError(t, err)
	second, err := svc.DeployDapp(ctx, DeployRequest{Name: "second"})
	require.NoError(t, err)

	dapps, err := svc.GetDapps(ctx, 10)
	require.NoError(t, err)
	require.Len(t, dapps, 2)

	ids := []uuid.UUID{dapps[0].ID, dapps[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}

func TestService_GetFileSystemModels(t *testing.T) {
	ctx := t.Context()
	svc := NewService(NewInMemoryRepository(), nil, nil)

	dapp, err := svc.DeployDapp(ctx, DeployRequest{
		Name: "files",
		Models: []FileSystemModel{
			{ModelID: "index-file-v1", Name: "IndexFile", Version: "1", Encryptable: []string{"path"}},
			{ModelID: "action-file-v1", Name: "ActionFile", Version: "1"},
		},
	})
	require.NoError(t, err)

	models, err := svc.GetFileSystemModels(ctx, dapp.ID)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "action-file-v1", models[0].ModelID)
	assert.Equal(t, "index-file-v1", models[1].ModelID)

	_, err = svc.GetFileSystemModels(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrDappNotFound)
}
