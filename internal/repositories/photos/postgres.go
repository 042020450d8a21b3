// Package photos provides the PostgreSQL-backed repository for photos and
// their sources.
package photos

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/photogallery/internal/apistructs"
	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/dbx"
	"github.com/dmitrijs2005/photogallery/internal/models"
	"github.com/dmitrijs2005/photogallery/internal/repositories/pgerr"
	"github.com/jackc/pgx/v5/pgtype"
)

const selectPhotos = `
	SELECT
		photo.id, photo.title, photo.file_stem, photo.taken_timestamp,
		photo.height_offset, photo.tags, photo.published,
		COALESCE(
			JSONB_AGG(TO_JSONB(source)) FILTER (WHERE source.photo_id IS NOT NULL),
			'[]'::jsonb
		) AS sources
	FROM
		photos photo
	LEFT JOIN
		sources source
	ON
		source.photo_id = photo.id
`

const groupPhotos = `
	GROUP BY
		photo.id
`

// PostgresRepository implements photo storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanPhoto reads one row shaped like selectPhotos. Tags arrive as a
// Postgres text array and are decoded through pgtype.
func scanPhoto(row rowScanner, m *pgtype.Map) (*models.Photo, error) {
	var (
		p       models.Photo
		title   sql.NullString
		taken   sql.NullString
		sources []byte
	)

	if err := row.Scan(
		&p.ID, &title, &p.FileStem, &taken,
		&p.HeightOffset, m.SQLScanner(&p.Tags), &p.Published, &sources,
	); err != nil {
		return nil, err
	}

	p.Title = fromNull(title)
	p.TakenTimestamp = fromNull(taken)

	if len(sources) > 0 {
		if err := json.Unmarshal(sources, &p.Sources); err != nil {
			return nil, fmt.Errorf("decode sources: %w", err)
		}
	}
	p.SortSources()

	return &p, nil
}

func fromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return "\tWHERE\n\t\t" + strings.Join(conds, "\n\t\tAND ") + "\n"
}

// visibility appends the tag containment and published filters.
func visibility(conds []string, args []any, tagged []string, published models.Published) ([]string, []any) {
	if len(tagged) > 0 {
		args = append(args, tagged)
		conds = append(conds, fmt.Sprintf("photo.tags @> $%d::varchar[]", len(args)))
	}
	if published == models.OnlyPublished {
		conds = append(conds, "photo.published = true")
	}
	return conds, args
}

// boundary appends the keyset condition for the page cursor.
func boundary(conds []string, args []any, page models.Page) ([]string, []any) {
	switch page.Kind {
	case models.PageBefore:
		args = append(args, page.PhotoID)
		conds = append(conds, fmt.Sprintf("photo.id < $%d", len(args)))
	case models.PageAfter:
		args = append(args, page.PhotoID)
		conds = append(conds, fmt.Sprintf("photo.id > $%d", len(args)))
	}
	return conds, args
}

func (r *PostgresRepository) queryPhotos(ctx context.Context, query string, args ...any) ([]*models.Photo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select photos: %w", err)
	}
	defer rows.Close()

	m := pgtype.NewMap()

	var result []*models.Photo
	for rows.Next() {
		p, err := scanPhoto(rows, m)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, cond string, arg any, published models.Published) (*models.Photo, error) {
	conds := []string{cond}
	args := []any{arg}
	conds, args = visibility(conds, args, nil, published)

	query := selectPhotos + where(conds) + groupPhotos + "\tORDER BY photo.id DESC\n\tLIMIT 1\n"

	p, err := scanPhoto(r.db.QueryRowContext(ctx, query, args...), pgtype.NewMap())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// GetByID returns the photo or common.ErrorNotFound when it does not exist
// or is not visible under published.
func (r *PostgresRepository) GetByID(ctx context.Context, id models.PhotoID, published models.Published) (*models.Photo, error) {
	return r.getOne(ctx, "photo.id = $1", id, published)
}

// GetByFileStem returns the newest photo registered under fileStem.
func (r *PostgresRepository) GetByFileStem(ctx context.Context, fileStem string, published models.Published) (*models.Photo, error) {
	return r.getOne(ctx, "photo.file_stem = $1", fileStem, published)
}

// List returns one gallery page, newest first.
func (r *PostgresRepository) List(ctx context.Context, q models.PhotoQuery) ([]*models.Photo, error) {
	var (
		conds []string
		args  []any
	)
	conds, args = boundary(conds, args, q.Page)
	conds, args = visibility(conds, args, q.Tagged, q.Published)

	args = append(args, q.Limit)
	query := selectPhotos + where(conds) + groupPhotos +
		fmt.Sprintf("\tORDER BY photo.id %s\n\tLIMIT $%d\n", q.Page.OrderDirection(), len(args))

	photos, err := r.queryPhotos(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(photos, func(i, j int) bool { return photos[i].ID > photos[j].ID })
	return photos, nil
}

// HasAdjacent reports whether any visible photo lies beyond q.Page.
// A PageLatest cursor has nothing beyond it.
func (r *PostgresRepository) HasAdjacent(ctx context.Context, q models.PhotoQuery) (bool, error) {
	if q.Page.Kind == models.PageLatest {
		return false, nil
	}

	var (
		conds []string
		args  []any
	)
	conds, args = boundary(conds, args, q.Page)
	conds, args = visibility(conds, args, q.Tagged, q.Published)

	query := "SELECT EXISTS (\n\tSELECT 1 FROM photos photo\n" + where(conds) + ")"

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// TagCounts returns every tag of the visible photos matching tagged, with
// the number of photos carrying it, ordered by tag.
func (r *PostgresRepository) TagCounts(ctx context.Context, tagged []string, published models.Published) ([]models.TagCount, error) {
	conds, args := visibility(nil, nil, tagged, published)

	query := `
	SELECT
		tag, COUNT(*) AS count
	FROM
		photos photo, UNNEST(photo.tags) AS tag
` + where(conds) + `	GROUP BY
		tag
	ORDER BY
		tag
`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select tags: %w", err)
	}
	defer rows.Close()

	var result []models.TagCount
	for rows.Next() {
		var tc models.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		result = append(result, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListSitemapEntries returns all published photos, newest first, with the
// url of their widest source.
func (r *PostgresRepository) ListSitemapEntries(ctx context.Context) ([]models.SitemapEntry, error) {
	query := `
	SELECT
		photo.id, photo.title,
		(SELECT source.url FROM sources source
			WHERE source.photo_id = photo.id
			ORDER BY source.width DESC LIMIT 1) AS image_url
	FROM
		photos photo
	WHERE
		photo.published = true
	ORDER BY
		photo.id DESC
`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select sitemap entries: %w", err)
	}
	defer rows.Close()

	var result []models.SitemapEntry
	for rows.Next() {
		var (
			e        models.SitemapEntry
			title    sql.NullString
			imageURL sql.NullString
		)
		if err := rows.Scan(&e.ID, &title, &imageURL); err != nil {
			return nil, err
		}
		e.Title = fromNull(title)
		e.ImageURL = fromNull(imageURL)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Insert stores the photo row followed by its sources and returns the new id.
// Callers run it inside a transaction so a rejected source discards the photo.
func (r *PostgresRepository) Insert(ctx context.Context, photo *models.Photo) (models.PhotoID, error) {
	query := `
		INSERT INTO photos
			(title, file_stem, taken_timestamp, height_offset, tags, published)
		VALUES
			($1, $2, $3, $4, $5, $6)
		RETURNING
			id
	`
	tags := photo.Tags
	if tags == nil {
		tags = []string{}
	}

	var id models.PhotoID
	err := r.db.QueryRowContext(ctx, query,
		photo.Title, photo.FileStem, photo.TakenTimestamp, photo.HeightOffset, tags, photo.Published,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert photo: %w", pgerr.Classify(err))
	}

	if err := r.InsertSources(ctx, id, photo.Sources); err != nil {
		return 0, err
	}

	return id, nil
}

func (r *PostgresRepository) InsertSources(ctx context.Context, photoID models.PhotoID, sources []apistructs.Source) error {
	query := `
		INSERT INTO sources
			(photo_id, width, height, url)
		VALUES
			($1, $2, $3, $4)
	`
	for _, s := range sources {
		if _, err := r.db.ExecContext(ctx, query, photoID, int32(s.Width), int32(s.Height), s.URL); err != nil {
			return fmt.Errorf("insert source %dx%d: %w", s.Width, s.Height, pgerr.Classify(err))
		}
	}
	return nil
}

func (r *PostgresRepository) DeleteSources(ctx context.Context, photoID models.PhotoID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sources WHERE photo_id = $1`, photoID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// execOne runs a single-row statement and maps 0 affected rows to
// common.ErrorNotFound.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", pgerr.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) UpdateFields(ctx context.Context, id models.PhotoID, fields models.PhotoFields) error {
	tags := fields.Tags
	if tags == nil {
		tags = []string{}
	}
	return r.execOne(ctx, `
		UPDATE
			photos
		SET
			title = $2, taken_timestamp = $3, tags = $4
		WHERE
			id = $1
	`, id, fields.Title, fields.TakenTimestamp, tags)
}

func (r *PostgresRepository) SetPublished(ctx context.Context, id models.PhotoID, published bool) error {
	return r.execOne(ctx, `UPDATE photos SET published = $1 WHERE photos.id = $2`, published, id)
}

func (r *PostgresRepository) SetHeightOffset(ctx context.Context, id models.PhotoID, heightOffset int32) error {
	return r.execOne(ctx, `UPDATE photos SET height_offset = $1 WHERE photos.id = $2`, heightOffset, id)
}

// Delete removes the photo; its sources go with it through ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, id models.PhotoID) error {
	return r.execOne(ctx, `DELETE FROM photos WHERE id = $1`, id)
}
