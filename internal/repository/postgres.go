package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamhub-systems/streamhub/common/database"
	"github.com/streamhub-systems/streamhub/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL via pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a pooled PostgreSQL repository and verifies
// connectivity.
func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Pool exposes the underlying connection pool so other stores can share it.
func (r *PostgresRepository) Pool() *pgxpool.Pool {
	return r.pool
}

// InsertEvent stores an event; a duplicate cid is a no-op.
func (r *PostgresRepository) InsertEvent(ctx context.Context, event *models.Event) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `
		INSERT INTO events (cid, prev, genesis, blocks)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cid) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, event.CID, event.Prev, event.Genesis, event.Blocks)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// GetEvent retrieves an event by cid.
func (r *PostgresRepository) GetEvent(ctx context.Context, cid string) (*models.Event, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `SELECT cid, prev, genesis, blocks FROM events WHERE cid = $1`

	ev := &models.Event{}
	err := r.pool.QueryRow(ctx, query, cid).Scan(&ev.CID, &ev.Prev, &ev.Genesis, &ev.Blocks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return ev, nil
}

// ListEventsByGenesis returns all stored events of one stream.
func (r *PostgresRepository) ListEventsByGenesis(ctx context.Context, genesis string) ([]*models.Event, error) {
	ctx, cancel := database.BulkContext(ctx)
	defer cancel()

	query := `SELECT cid, prev, genesis, blocks FROM events WHERE genesis = $1`

	rows, err := r.pool.Query(ctx, query, genesis)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []*models.Event{}
	for rows.Next() {
		ev := &models.Event{}
		if err := rows.Scan(&ev.CID, &ev.Prev, &ev.Genesis, &ev.Blocks); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

// CreateStream inserts genesis event, stream row and index folder in one
// transaction. The stream insert is the at-most-once guard: a conflict on
// stream_id rolls back everything except the (idempotent) event row, which
// is re-inserted by the caller's retry path if needed.
func (r *PostgresRepository) CreateStream(ctx context.Context, stream *models.Stream, genesis *models.Event, folder *models.IndexFolder) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO events (cid, prev, genesis, blocks)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cid) DO NOTHING
	`, genesis.CID, genesis.Prev, genesis.Genesis, genesis.Blocks)
	if err != nil {
		return fmt.Errorf("failed to insert genesis event: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO streams (stream_id, dapp_id, tip, account, model_id, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (stream_id) DO NOTHING
	`, stream.StreamID, stream.DappID, stream.Tip, stream.Account, stream.ModelID, stream.Content)
	if err != nil {
		return fmt.Errorf("failed to insert stream: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStreamExists
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO index_folders (stream_id, tip, signal)
		VALUES ($1, $2, $3)
		ON CONFLICT (stream_id) DO UPDATE SET tip = EXCLUDED.tip, signal = EXCLUDED.signal
	`, folder.StreamID, folder.Tip, folder.Signal)
	if err != nil {
		return fmt.Errorf("failed to insert index folder: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit stream creation: %w", err)
	}
	return nil
}

// AdvanceTip performs the serialized tip compare-and-swap. The event insert
// always commits; the tip, content and index folder update commit only when
// the expected tip still matches.
func (r *PostgresRepository) AdvanceTip(ctx context.Context, event *models.Event, streamID, expectedTip string, content, signal json.RawMessage) (TipSwap, error) {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return TipSwap{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO events (cid, prev, genesis, blocks)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cid) DO NOTHING
	`, event.CID, event.Prev, event.Genesis, event.Blocks)
	if err != nil {
		return TipSwap{}, fmt.Errorf("failed to insert event: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE streams SET tip = $3, content = $4
		WHERE stream_id = $1 AND tip = $2
	`, streamID, expectedTip, event.CID, content)
	if err != nil {
		return TipSwap{}, fmt.Errorf("failed to swap tip: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Lost the race: keep the event, leave tip and index untouched.
		var current string
		err := tx.QueryRow(ctx, `SELECT tip FROM streams WHERE stream_id = $1`, streamID).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return TipSwap{}, ErrStreamNotFound
			}
			return TipSwap{}, fmt.Errorf("failed to read current tip: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return TipSwap{}, fmt.Errorf("failed to commit event insert: %w", err)
		}
		return TipSwap{Swapped: false, Tip: current}, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO index_folders (stream_id, tip, signal)
		VALUES ($1, $2, $3)
		ON CONFLICT (stream_id) DO UPDATE SET tip = EXCLUDED.tip, signal = EXCLUDED.signal
	`, streamID, event.CID, signal)
	if err != nil {
		return TipSwap{}, fmt.Errorf("failed to upsert index folder: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return TipSwap{}, fmt.Errorf("failed to commit tip advancement: %w", err)
	}
	return TipSwap{Swapped: true, Tip: event.CID}, nil
}

// GetStream retrieves a stream row by stream id.
func (r *PostgresRepository) GetStream(ctx context.Context, streamID string) (*models.Stream, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `
		SELECT stream_id, dapp_id, tip, account, model_id, content
		FROM streams WHERE stream_id = $1
	`

	s := &models.Stream{}
	err := r.pool.QueryRow(ctx, query, streamID).Scan(
		&s.StreamID, &s.DappID, &s.Tip, &s.Account, &s.ModelID, &s.Content,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStreamNotFound
		}
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}
	return s, nil
}

// GetIndexFolder retrieves an index folder row by stream id.
func (r *PostgresRepository) GetIndexFolder(ctx context.Context, streamID string) (*models.IndexFolder, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `SELECT stream_id, tip, signal FROM index_folders WHERE stream_id = $1`

	f := &models.IndexFolder{}
	err := r.pool.QueryRow(ctx, query, streamID).Scan(&f.StreamID, &f.Tip, &f.Signal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStreamNotFound
		}
		return nil, fmt.Errorf("failed to get index folder: %w", err)
	}
	return f, nil
}

// QueryBySignal returns stream ids whose signal document contains the
// predicate, using the GIN-indexed jsonb containment operator.
func (r *PostgresRepository) QueryBySignal(ctx context.Context, predicate json.RawMessage, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}

	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `
		SELECT stream_id FROM index_folders
		WHERE signal @> $1::jsonb
		ORDER BY stream_id
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, predicate, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query by signal: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan stream id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}

// Close closes the connection pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
