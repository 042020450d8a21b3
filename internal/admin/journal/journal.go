// Package journal is a local SQLite record of renditions already uploaded
// to object storage. Re-running an upload skips objects whose content hash
// is unchanged.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/dmitrijs2005/photogallery/internal/dbx"
	"github.com/dmitrijs2005/photogallery/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Entry is one uploaded object.
type Entry struct {
	Key        string
	FileStem   string
	SHA256     string
	URL        string
	Width      int
	Height     int
	UploadedAt time.Time
}

// RunMigrations brings the journal schema up to date.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("journal migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("journal migrations: %w", err)
	}
	return nil
}

// Open opens (creating if needed) the journal database at path.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := filex.EnsureParentDir(path); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps :memory: databases alive and serialises writers
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get returns (nil, nil) when key was never recorded.
func (r *SQLiteRepository) Get(ctx context.Context, key string) (*Entry, error) {
	var (
		e  Entry
		ts int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT object_key, file_stem, sha256, url, width, height, uploaded_at
		FROM uploads WHERE object_key = ?`, key).
		Scan(&e.Key, &e.FileStem, &e.SHA256, &e.URL, &e.Width, &e.Height, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get upload[%s]: %w", key, err)
	}
	e.UploadedAt = time.Unix(ts, 0).UTC()
	return &e, nil
}

// Record upserts e.
func (r *SQLiteRepository) Record(ctx context.Context, e Entry) error {
	if e.UploadedAt.IsZero() {
		e.UploadedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO uploads (object_key, file_stem, sha256, url, width, height, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(object_key) DO UPDATE SET
			file_stem = excluded.file_stem,
			sha256 = excluded.sha256,
			url = excluded.url,
			width = excluded.width,
			height = excluded.height,
			uploaded_at = excluded.uploaded_at
	`, e.Key, e.FileStem, e.SHA256, e.URL, e.Width, e.Height, e.UploadedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record upload[%s]: %w", e.Key, err)
	}
	return nil
}

// ListByStem returns the uploads of one photo, widest first.
func (r *SQLiteRepository) ListByStem(ctx context.Context, stem string) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT object_key, file_stem, sha256, url, width, height, uploaded_at
		FROM uploads WHERE file_stem = ? ORDER BY width DESC, object_key`, stem)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var (
			e  Entry
			ts int64
		)
		if err := rows.Scan(&e.Key, &e.FileStem, &e.SHA256, &e.URL, &e.Width, &e.Height, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan upload row: %w", err)
		}
		e.UploadedAt = time.Unix(ts, 0).UTC()
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate upload rows: %w", err)
	}
	return result, nil
}

// ForgetStem drops every upload of a photo and reports how many were removed.
func (r *SQLiteRepository) ForgetStem(ctx context.Context, stem string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM uploads WHERE file_stem = ?`, stem)
	if err != nil {
		return 0, fmt.Errorf("failed to forget uploads of %s: %w", stem, err)
	}
	return res.RowsAffected()
}
