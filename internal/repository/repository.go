// Package repository abstracts the transactional store backing the stream
// resolution engine. Events are append-only and idempotent on cid; the
// stream tip is the only contested mutable field and is advanced with a
// compare-and-swap inside a single transaction together with the index
// folder row.
package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/streamhub-systems/streamhub/internal/models"
)

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrStreamNotFound = errors.New("stream not found")
	ErrStreamExists   = errors.New("stream already exists")
)

// TipSwap reports the outcome of a compare-and-swap tip advancement.
// Tip always carries the stream's tip as of the end of the attempt, so a
// losing caller learns what to rebase onto.
type TipSwap struct {
	Swapped bool
	Tip     string
}

// Repository is the store contract for events, streams and index folders.
type Repository interface {
	// InsertEvent durably stores an event. Duplicate cids are a no-op.
	InsertEvent(ctx context.Context, event *models.Event) error

	// GetEvent returns the event with the given cid, or ErrEventNotFound.
	GetEvent(ctx context.Context, cid string) (*models.Event, error)

	// ListEventsByGenesis returns every stored event of the stream rooted
	// at genesis, in no particular order.
	ListEventsByGenesis(ctx context.Context, genesis string) ([]*models.Event, error)

	// CreateStream inserts the genesis event, the stream row and its index
	// folder in one transaction. Returns ErrStreamExists when the stream
	// row is already present; the genesis event itself is stored
	// idempotently either way.
	CreateStream(ctx context.Context, stream *models.Stream, genesis *models.Event, folder *models.IndexFolder) error

	// AdvanceTip stores the event and, in the same transaction, swaps the
	// stream tip from expectedTip to event.CID, rewriting the content and
	// the index folder row. When the stream's tip no longer equals
	// expectedTip the event remains stored, the tip is left untouched and
	// the returned TipSwap reports the current tip.
	AdvanceTip(ctx context.Context, event *models.Event, streamID, expectedTip string, content, signal json.RawMessage) (TipSwap, error)

	// GetStream returns the stream row, or ErrStreamNotFound.
	GetStream(ctx context.Context, streamID string) (*models.Stream, error)

	// GetIndexFolder returns the index folder row, or ErrStreamNotFound.
	GetIndexFolder(ctx context.Context, streamID string) (*models.IndexFolder, error)

	// QueryBySignal returns the stream ids whose signal document contains
	// the given predicate document (jsonb containment semantics).
	QueryBySignal(ctx context.Context, predicate json.RawMessage, limit int) ([]string, error)

	// Close releases the underlying store resources.
	Close() error
}
