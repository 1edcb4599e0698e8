package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamhub-systems/streamhub/internal/models"
	"github.com/streamhub-systems/streamhub/internal/repository"
)

func TestProjector_Project(t *testing.T) {
	ctx := t.Context()

	t.Run("genesis header and content", func(t *testing.T) {
		repo := repository.NewInMemoryRepository()
		p := NewProjector(repo, nil)

		gen := genesisEvent("G", `{"header":{"account":"did:pkh:alice","model":"note-v1"},"content":{"title":"first"}}`)
		proj, err := p.Project(ctx, gen)
		require.NoError(t, err)

		assert.Equal(t, "did:pkh:alice", *proj.Header.Account)
		assert.Equal(t, "note-v1", *proj.Header.Model)
		assert.JSONEq(t, `{"title":"first"}`, string(proj.Content))
	})

	t.Run("merge patch fold over chain", func(t *testing.T) {
		repo := repository.NewInMemoryRepository()
		p := NewProjector(repo, nil)

		gen := genesisEvent("G", `{"content":{"title":"first","tags":{"a":1,"b":2}}}`)
		a := childEvent("A", "G", "G", `{"content":{"title":"second","tags":{"b":null}}}`)
		require.NoError(t, repo.InsertEvent(ctx, gen))
		require.NoError(t, repo.InsertEvent(ctx, a))

		proj, err := p.Project(ctx, a)
		require.NoError(t, err)
		assert.JSONEq(t, `{"title":"second","tags":{"a":1}}`, string(proj.Content))
	})

	t.Run("non-object patch replaces content", func(t *testing.T) {
		repo := repository.NewInMemoryRepository()
		p := NewProjector(repo, nil)

		gen := genesisEvent("G", `{"content":{"title":"first"}}`)
		a := childEvent("A", "G", "G", `{"content":[1,2,3]}`)
		require.NoError(t, repo.InsertEvent(ctx, gen))
		require.NoError(t, repo.InsertEvent(ctx, a))

		proj, err := p.Project(ctx, a)
		require.NoError(t, err)
		assert.JSONEq(t, `[1,2,3]`, string(proj.Content))
	})

	t.Run("non-JSON block folds as raw document", func(t *testing.T) {
		repo := repository.NewInMemoryRepository()
		p := NewProjector(repo, nil)

		gen := &models.Event{CID: "G", Genesis: "G", Blocks: [][]byte{{0x01, 0x02}}}
		proj, err := p.Project(ctx, gen)
		require.NoError(t, err)

		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal(proj.Content, &doc))
		assert.Contains(t, doc, "raw")
	})

	t.Run("deterministic across repeated folds", func(t *testing.T) {
		repo := repository.NewInMemoryRepository()
		p := NewProjector(repo, nil)

		gen := genesisEvent("G", `{"content":{"z":1,"a":{"m":2,"c":3}}}`)
		a := childEvent("A", "G", "G", `{"content":{"k":4}}`)
		require.NoError(t, repo.InsertEvent(ctx, gen))
		require.NoError(t, repo.InsertEvent(ctx, a))

		first, err := p.Project(ctx, a)
		require.NoError(t, err)
		second, err := p.Project(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, first.Content, second.Content)
	})

	t.Run("missing ancestor is chain integrity error", func(t *testing.T) {
		repo := repository.NewInMemoryRepository()
		p := NewProjector(repo, nil)

		orphan := childEvent("A", "missing", "G", `{"content":{}}`)
		_, err := p.Project(ctx, orphan)
		assert.ErrorIs(t, err, models.ErrChainIntegrity)
	})

	t.Run("cycle is chain integrity error", func(t *testing.T) {
		repo := repository.NewInMemoryRepository()
		p := NewProjector(repo, nil)

		// A -> B -> A, planted directly in the store.
		a := childEvent("A", "B", "G", `{"content":{}}`)
		b := childEvent("B", "A", "G", `{"content":{}}`)
		require.NoError(t, repo.InsertEvent(ctx, a))
		require.NoError(t, repo.InsertEvent(ctx, b))

		_, err := p.Project(ctx, a)
		assert.ErrorIs(t, err, models.ErrChainIntegrity)
	})
}

func TestProjector_FoldCache(t *testing.T) {
	ctx := t.Context()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewFoldCache(client, time.Minute)

	repo := repository.NewInMemoryRepository()
	p := NewProjector(repo, cache)

	gen := genesisEvent("G", `{"header":{"model":"note-v1"},"content":{"title":"first"}}`)
	require.NoError(t, repo.InsertEvent(ctx, gen))
	_, err := p.Project(ctx, gen)
	require.NoError(t, err)

	// Genesis fold is now cached; projecting a child must reuse it even
	// after the genesis event disappears from the store.
	a := childEvent("A", "G", "G", `{"content":{"title":"second"}}`)

	fresh := repository.NewInMemoryRepository()
	p2 := NewProjector(fresh, cache)
	proj, err := p2.Project(ctx, a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"second"}`, string(proj.Content))
	assert.Equal(t, "note-v1", *proj.Header.Model)

	// Cached state at A exists after the fold.
	assert.NotNil(t, cache.Get(ctx, "A"))
}
