package dapps

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using PostgreSQL via pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository wraps an existing pool; the registry shares the
// engine's database.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// CreateDapp inserts the dapp row and its model rows in one transaction.
func (r *PostgresRepository) CreateDapp(ctx context.Context, dapp *Dapp) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO dapps (id, name, network, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, dapp.ID, dapp.Name, dapp.Network, dapp.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert dapp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDappExists
	}

	for _, m := range dapp.Models {
		_, err := tx.Exec(ctx, `
			INSERT INTO file_system_models (model_id, dapp_id, name, version, encryptable, indexed_on)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, m.ModelID, dapp.ID, m.Name, m.Version, m.Encryptable, m.IndexedOn)
		if err != nil {
			return fmt.Errorf("failed to insert model %s: %w", m.ModelID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit dapp creation: %w", err)
	}
	return nil
}

// GetDapp retrieves one dapp and its models.
func (r *PostgresRepository) GetDapp(ctx context.Context, id uuid.UUID) (*Dapp, error) {
	d := &Dapp{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, network, created_at FROM dapps WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &d.Network, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDappNotFound
		}
		return nil, fmt.Errorf("failed to get dapp: %w", err)
	}

	models, err := r.ListModels(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Models = models
	return d, nil
}

// ListDapps returns registered dapps, newest first.
func (r *PostgresRepository) ListDapps(ctx context.Context, limit int) ([]*Dapp, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, network, created_at FROM dapps
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list dapps: %w", err)
	}
	defer rows.Close()

	dapps := []*Dapp{}
	for rows.Next() {
		d := &Dapp{}
		if err := rows.Scan(&d.ID, &d.Name, &d.Network, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dapp: %w", err)
		}
		dapps = append(dapps, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return dapps, nil
}

// ListModels returns the file system models declared by one dapp.
func (r *PostgresRepository) ListModels(ctx context.Context, dappID uuid.UUID) ([]FileSystemModel, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT model_id, dapp_id, name, version, encryptable, indexed_on
		FROM file_system_models
		WHERE dapp_id = $1
		ORDER BY model_id
	`, dappID)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	models := []FileSystemModel{}
	for rows.Next() {
		var m FileSystemModel
		if err := rows.Scan(&m.ModelID, &m.DappID, &m.Name, &m.Version, &m.Encryptable, &m.IndexedOn); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		models = append(models, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return models, nil
}
