package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/streamhub-systems/streamhub/internal/models"
	"github.com/streamhub-systems/streamhub/internal/repository"
)

// Projection is the result of folding a stream's accepted chain up to one
// event: the stream header declared at genesis and the derived content.
type Projection struct {
	Header  models.StreamHeader
	Content json.RawMessage
}

// foldState is the cached representation of a Projection.
type foldState struct {
	Header  models.StreamHeader `json:"header"`
	Content json.RawMessage     `json:"content"`
}

// Projector deterministically folds event payloads from genesis to a given
// event. Folding the same event always yields byte-identical content.
// Intermediate folds are cached by cid so an advancement normally folds just
// the new event on top of the cached state of its predecessor.
type Projector struct {
	repo  repository.Repository
	cache *FoldCache
}

// NewProjector constructs a Projector. cache may be nil.
func NewProjector(repo repository.Repository, cache *FoldCache) *Projector {
	return &Projector{repo: repo, cache: cache}
}

// Project computes the projection at event. The event itself need not be
// stored yet; its ancestors must be.
func (p *Projector) Project(ctx context.Context, event *models.Event) (*Projection, error) {
	// Walk back until genesis or a cached ancestor fold.
	pending := []*models.Event{event}
	visited := map[string]bool{event.CID: true}

	var state *foldState
	cur := event
	for !cur.IsGenesis() {
		prevCID := cur.PrevCID()
		if visited[prevCID] {
			return nil, fmt.Errorf("%w: cyclic reference at %s", models.ErrChainIntegrity, prevCID)
		}
		visited[prevCID] = true

		if cached := p.cache.Get(ctx, prevCID); cached != nil {
			var s foldState
			if err := json.Unmarshal(cached, &s); err == nil {
				state = &s
				break
			}
		}

		prev, err := p.repo.GetEvent(ctx, prevCID)
		if err != nil {
			if errors.Is(err, repository.ErrEventNotFound) {
				return nil, fmt.Errorf("%w: missing ancestor %s", models.ErrChainIntegrity, prevCID)
			}
			return nil, fmt.Errorf("load ancestor %s: %w", prevCID, err)
		}
		pending = append(pending, prev)
		cur = prev
	}

	// Fold forward, oldest first, caching every intermediate state.
	for i := len(pending) - 1; i >= 0; i-- {
		next, err := foldEvent(state, pending[i])
		if err != nil {
			return nil, err
		}
		state = next

		if data, err := json.Marshal(state); err == nil {
			p.cache.Set(ctx, pending[i].CID, data)
		}
	}

	return &Projection{Header: state.Header, Content: state.Content}, nil
}

// foldEvent applies one event's payload on top of the accumulated state.
func foldEvent(state *foldState, event *models.Event) (*foldState, error) {
	payload := models.DecodePayload(event.Payload())

	if state == nil {
		next := &foldState{Content: json.RawMessage(`{}`)}
		if payload.Header != nil {
			next.Header = *payload.Header
		}
		if payload.Content != nil {
			merged, err := mergePatch(next.Content, payload.Content)
			if err != nil {
				return nil, err
			}
			next.Content = merged
		}
		return next, nil
	}

	next := &foldState{Header: state.Header, Content: state.Content}
	if payload.Content != nil {
		merged, err := mergePatch(state.Content, payload.Content)
		if err != nil {
			return nil, err
		}
		next.Content = merged
	}
	return next, nil
}

// mergePatch applies patch to target with RFC 7396 semantics: a non-object
// patch replaces the target, null members delete, object members recurse.
// encoding/json marshals map keys in sorted order, keeping the result
// deterministic.
func mergePatch(target, patch json.RawMessage) (json.RawMessage, error) {
	var patchDoc interface{}
	if err := json.Unmarshal(patch, &patchDoc); err != nil {
		return nil, fmt.Errorf("decode content patch: %w", err)
	}

	patchObj, ok := patchDoc.(map[string]interface{})
	if !ok {
		return json.Marshal(patchDoc)
	}

	var targetDoc interface{}
	if len(target) > 0 {
		if err := json.Unmarshal(target, &targetDoc); err != nil {
			targetDoc = nil
		}
	}
	targetObj, ok := targetDoc.(map[string]interface{})
	if !ok {
		targetObj = map[string]interface{}{}
	}

	merged := applyMergePatch(targetObj, patchObj)
	return json.Marshal(merged)
}

func applyMergePatch(target, patch map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(target)+len(patch))
	for k, v := range target {
		result[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(result, k)
			continue
		}
		if patchChild, ok := v.(map[string]interface{}); ok {
			if targetChild, ok := result[k].(map[string]interface{}); ok {
				result[k] = applyMergePatch(targetChild, patchChild)
				continue
			}
			result[k] = applyMergePatch(map[string]interface{}{}, patchChild)
			continue
		}
		result[k] = v
	}
	return result
}
