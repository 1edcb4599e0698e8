package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/streamhub-systems/streamhub/internal/models"
)

// InMemoryRepository is a mutex-serialized Repository used by unit tests and
// local development. The single lock makes the tip compare-and-swap trivially
// serializable, matching the transactional guarantees of the Postgres
// implementation.
type InMemoryRepository struct {
	mu      sync.RWMutex
	events  map[string]*models.Event
	streams map[string]*models.Stream
	folders map[string]*models.IndexFolder
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		events:  make(map[string]*models.Event),
		streams: make(map[string]*models.Stream),
		folders: make(map[string]*models.IndexFolder),
	}
}

func cloneEvent(ev *models.Event) *models.Event {
	c := *ev
	if ev.Prev != nil {
		p := *ev.Prev
		c.Prev = &p
	}
	c.Blocks = make([][]byte, len(ev.Blocks))
	for i, b := range ev.Blocks {
		if b != nil {
			c.Blocks[i] = append([]byte(nil), b...)
		}
	}
	return &c
}

func cloneStream(s *models.Stream) *models.Stream {
	c := *s
	if s.Account != nil {
		a := *s.Account
		c.Account = &a
	}
	if s.ModelID != nil {
		m := *s.ModelID
		c.ModelID = &m
	}
	c.Content = append(json.RawMessage(nil), s.Content...)
	return &c
}

func cloneFolder(f *models.IndexFolder) *models.IndexFolder {
	c := *f
	c.Signal = append(json.RawMessage(nil), f.Signal...)
	return &c
}

func (r *InMemoryRepository) InsertEvent(ctx context.Context, event *models.Event) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[event.CID]; !exists {
		r.events[event.CID] = cloneEvent(event)
	}
	return nil
}

func (r *InMemoryRepository) GetEvent(ctx context.Context, cid string) (*models.Event, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, exists := r.events[cid]
	if !exists {
		return nil, ErrEventNotFound
	}
	return cloneEvent(ev), nil
}

func (r *InMemoryRepository) ListEventsByGenesis(ctx context.Context, genesis string) ([]*models.Event, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := []*models.Event{}
	for _, ev := range r.events {
		if ev.Genesis == genesis {
			events = append(events, cloneEvent(ev))
		}
	}
	return events, nil
}

func (r *InMemoryRepository) CreateStream(ctx context.Context, stream *models.Stream, genesis *models.Event, folder *models.IndexFolder) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.streams[stream.StreamID]; exists {
		// Stream creation is at-most-once; the genesis event itself is
		// already stored by whoever won.
		return ErrStreamExists
	}

	if _, exists := r.events[genesis.CID]; !exists {
		r.events[genesis.CID] = cloneEvent(genesis)
	}
	r.streams[stream.StreamID] = cloneStream(stream)
	r.folders[folder.StreamID] = cloneFolder(folder)
	return nil
}

func (r *InMemoryRepository) AdvanceTip(ctx context.Context, event *models.Event, streamID, expectedTip string, content, signal json.RawMessage) (TipSwap, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[event.CID]; !exists {
		r.events[event.CID] = cloneEvent(event)
	}

	stream, exists := r.streams[streamID]
	if !exists {
		return TipSwap{}, ErrStreamNotFound
	}

	if stream.Tip != expectedTip {
		return TipSwap{Swapped: false, Tip: stream.Tip}, nil
	}

	stream.Tip = event.CID
	stream.Content = append(json.RawMessage(nil), content...)
	r.folders[streamID] = &models.IndexFolder{
		StreamID: streamID,
		Tip:      event.CID,
		Signal:   append(json.RawMessage(nil), signal...),
	}
	return TipSwap{Swapped: true, Tip: event.CID}, nil
}

func (r *InMemoryRepository) GetStream(ctx context.Context, streamID string) (*models.Stream, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	stream, exists := r.streams[streamID]
	if !exists {
		return nil, ErrStreamNotFound
	}
	return cloneStream(stream), nil
}

func (r *InMemoryRepository) GetIndexFolder(ctx context.Context, streamID string) (*models.IndexFolder, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	folder, exists := r.folders[streamID]
	if !exists {
		return nil, ErrStreamNotFound
	}
	return cloneFolder(folder), nil
}

func (r *InMemoryRepository) QueryBySignal(ctx context.Context, predicate json.RawMessage, limit int) ([]string, error) {
	_ = ctx
	if limit <= 0 {
		limit = 100
	}

	var pred interface{}
	if err := json.Unmarshal(predicate, &pred); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := []string{}
	for id, folder := range r.folders {
		if len(folder.Signal) == 0 {
			continue
		}
		var doc interface{}
		if err := json.Unmarshal(folder.Signal, &doc); err != nil {
			continue
		}
		if jsonContains(doc, pred) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// Close is a no-op for the in-memory repository.
func (r *InMemoryRepository) Close() error {
	return nil
}

// jsonContains mirrors Postgres jsonb @> containment: every key/value of the
// predicate must appear in the document; arrays contain when each predicate
// element is contained by some document element.
func jsonContains(doc, pred interface{}) bool {
	switch p := pred.(type) {
	case map[string]interface{}:
		d, ok := doc.(map[string]interface{})
		if !ok {
			return false
		}
		for k, pv := range p {
			dv, ok := d[k]
			if !ok || !jsonContains(dv, pv) {
				return false
			}
		}
		return true
	case []interface{}:
		d, ok := doc.([]interface{})
		if !ok {
			return false
		}
		for _, pv := range p {
			found := false
			for _, dv := range d {
				if jsonContains(dv, pv) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	default:
		return doc == pred
	}
}
