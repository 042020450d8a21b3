package secretkeys

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/dbx"
	"github.com/dmitrijs2005/photogallery/internal/repositories/pgerr"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Exists(ctx context.Context, key string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM secret_keys WHERE secret_key = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// Create stores key; an existing key yields common.ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, key string) error {
	query := `INSERT INTO secret_keys (secret_key) VALUES ($1)`

	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("db error: %w", pgerr.Classify(err))
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, key string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM secret_keys WHERE secret_key = $1`, key)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT secret_key FROM secret_keys ORDER BY secret_key`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
