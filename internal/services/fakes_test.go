package services

import (
	"context"
	"database/sql"
	"slices"
	"sort"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/photogallery/internal/apistructs"
	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/dbx"
	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/models"
	"github.com/dmitrijs2005/photogallery/internal/repositories/photos"
	"github.com/dmitrijs2005/photogallery/internal/repositories/secretkeys"
)

// memPhotos is an in-memory photos.Repository following the same visibility
// and keyset rules as the SQL implementation.
type memPhotos struct {
	rows   map[models.PhotoID]*models.Photo
	nextID models.PhotoID

	failWith error
	calls    []string
}

func newMemPhotos() *memPhotos {
	return &memPhotos{rows: map[models.PhotoID]*models.Photo{}, nextID: 1}
}

func (m *memPhotos) visible(p *models.Photo, tagged []string, published models.Published) bool {
	if published == models.OnlyPublished && !p.Published {
		return false
	}
	for _, t := range tagged {
		if !slices.Contains(p.Tags, t) {
			return false
		}
	}
	return true
}

func (m *memPhotos) inPage(p *models.Photo, page models.Page) bool {
	switch page.Kind {
	case models.PageBefore:
		return p.ID < page.PhotoID
	case models.PageAfter:
		return p.ID > page.PhotoID
	}
	return true
}

func clonePhoto(p *models.Photo) *models.Photo {
	c := *p
	c.Tags = slices.Clone(p.Tags)
	c.Sources = slices.Clone(p.Sources)
	c.SortSources()
	return &c
}

func (m *memPhotos) Insert(ctx context.Context, photo *models.Photo) (models.PhotoID, error) {
	m.calls = append(m.calls, "Insert")
	if m.failWith != nil {
		return 0, m.failWith
	}
	p := clonePhoto(photo)
	p.ID = m.nextID
	m.nextID++
	m.rows[p.ID] = p
	return p.ID, nil
}

func (m *memPhotos) InsertSources(ctx context.Context, id models.PhotoID, sources []apistructs.Source) error {
	m.calls = append(m.calls, "InsertSources")
	p, ok := m.rows[id]
	if !ok {
		return common.ErrReference
	}
	p.Sources = append(p.Sources, sources...)
	return nil
}

func (m *memPhotos) DeleteSources(ctx context.Context, id models.PhotoID) error {
	m.calls = append(m.calls, "DeleteSources")
	if p, ok := m.rows[id]; ok {
		p.Sources = nil
	}
	return nil
}

func (m *memPhotos) GetByID(ctx context.Context, id models.PhotoID, published models.Published) (*models.Photo, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	p, ok := m.rows[id]
	if !ok || !m.visible(p, nil, published) {
		return nil, common.ErrorNotFound
	}
	return clonePhoto(p), nil
}

func (m *memPhotos) GetByFileStem(ctx context.Context, stem string, published models.Published) (*models.Photo, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var found *models.Photo
	for _, p := range m.rows {
		if p.FileStem == stem && m.visible(p, nil, published) && (found == nil || p.ID > found.ID) {
			found = p
		}
	}
	if found == nil {
		return nil, common.ErrorNotFound
	}
	return clonePhoto(found), nil
}

func (m *memPhotos) sorted(desc bool) []*models.Photo {
	out := make([]*models.Photo, 0, len(m.rows))
	for _, p := range m.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memPhotos) List(ctx context.Context, q models.PhotoQuery) ([]*models.Photo, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []*models.Photo
	for _, p := range m.sorted(q.Page.OrderDirection() == "DESC") {
		if int64(len(out)) >= q.Limit {
			break
		}
		if m.inPage(p, q.Page) && m.visible(p, q.Tagged, q.Published) {
			out = append(out, clonePhoto(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memPhotos) HasAdjacent(ctx context.Context, q models.PhotoQuery) (bool, error) {
	if q.Page.Kind == models.PageLatest {
		return false, nil
	}
	for _, p := range m.rows {
		if m.inPage(p, q.Page) && m.visible(p, q.Tagged, q.Published) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memPhotos) TagCounts(ctx context.Context, tagged []string, published models.Published) ([]models.TagCount, error) {
	counts := map[string]int64{}
	for _, p := range m.rows {
		if m.visible(p, tagged, published) {
			for _, t := range p.Tags {
				counts[t]++
			}
		}
	}
	var out []models.TagCount
	for t, c := range counts {
		out = append(out, models.TagCount{Tag: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out, nil
}

func (m *memPhotos) ListSitemapEntries(ctx context.Context) ([]models.SitemapEntry, error) {
	var out []models.SitemapEntry
	for _, p := range m.sorted(true) {
		if !p.Published {
			continue
		}
		e := models.SitemapEntry{ID: p.ID, Title: p.Title}
		if s, ok := p.Largest(); ok {
			u := s.URL
			e.ImageURL = &u
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memPhotos) UpdateFields(ctx context.Context, id models.PhotoID, f models.PhotoFields) error {
	m.calls = append(m.calls, "UpdateFields")
	p, ok := m.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.Title, p.TakenTimestamp, p.Tags = f.Title, f.TakenTimestamp, slices.Clone(f.Tags)
	return nil
}

func (m *memPhotos) SetPublished(ctx context.Context, id models.PhotoID, published bool) error {
	p, ok := m.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.Published = published
	return nil
}

func (m *memPhotos) SetHeightOffset(ctx context.Context, id models.PhotoID, offset int32) error {
	m.calls = append(m.calls, "SetHeightOffset")
	p, ok := m.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.HeightOffset = offset
	return nil
}

func (m *memPhotos) Delete(ctx context.Context, id models.PhotoID) error {
	if _, ok := m.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.rows, id)
	return nil
}

// add stores a photo directly, bypassing the service.
func (m *memPhotos) add(p models.Photo) *models.Photo {
	if p.ID == 0 {
		p.ID = m.nextID
	}
	if p.ID >= m.nextID {
		m.nextID = p.ID + 1
	}
	c := clonePhoto(&p)
	m.rows[c.ID] = c
	return c
}

type memKeys struct {
	keys map[string]struct{}
}

func newMemKeys(keys ...string) *memKeys {
	m := &memKeys{keys: map[string]struct{}{}}
	for _, k := range keys {
		m.keys[k] = struct{}{}
	}
	return m
}

func (m *memKeys) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.keys[key]
	return ok, nil
}

func (m *memKeys) Create(ctx context.Context, key string) error {
	if _, ok := m.keys[key]; ok {
		return common.ErrConflict
	}
	m.keys[key] = struct{}{}
	return nil
}

func (m *memKeys) Delete(ctx context.Context, key string) error {
	if _, ok := m.keys[key]; !ok {
		return common.ErrorNotFound
	}
	delete(m.keys, key)
	return nil
}

func (m *memKeys) List(ctx context.Context) ([]string, error) {
	var out []string
	for k := range m.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

type fakeRepoManager struct {
	photos *memPhotos
	keys   *memKeys
}

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error   { return nil }
func (f *fakeRepoManager) Photos(db dbx.DBTX) photos.Repository         { return f.photos }
func (f *fakeRepoManager) SecretKeys(db dbx.DBTX) secretkeys.Repository { return f.keys }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newPhotoService(t *testing.T, db *sql.DB, rm *fakeRepoManager) *PhotoService {
	t.Helper()
	return NewPhotoService(db, rm, logging.Discard(), PageSize{Default: 10, Max: 100})
}

func strPtr(s string) *string { return &s }
