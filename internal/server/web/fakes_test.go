package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/photogallery/internal/apistructs"
	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/models"
	"github.com/dmitrijs2005/photogallery/internal/services"
	"github.com/stretchr/testify/require"
)

type fakePhotos struct {
	photos map[models.PhotoID]*models.Photo

	gallery    *services.GalleryPage
	galleryReq services.GalleryRequest
	lastPub    models.Published

	createErr error
	updateRes *services.UpdateResult
	err       error

	publishedSet map[models.PhotoID]bool
	offsetSet    map[models.PhotoID]int
	deleted      []models.PhotoID
	created      []apistructs.PhotoPayload
	updated      []apistructs.PhotoPayload

	sitemapEntries []models.SitemapEntry
	sitemapTags    []models.TagCount
}

func newFakePhotos() *fakePhotos {
	return &fakePhotos{
		photos:       map[models.PhotoID]*models.Photo{},
		publishedSet: map[models.PhotoID]bool{},
		offsetSet:    map[models.PhotoID]int{},
		gallery:      &services.GalleryPage{},
	}
}

func (f *fakePhotos) Create(ctx context.Context, p apistructs.PhotoPayload) (*models.Photo, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, p)
	photo := &models.Photo{ID: 42, FileStem: p.FileStem, Title: p.Title, Tags: p.Tags, HeightOffset: 50}
	if p.Sources != nil {
		photo.Sources = *p.Sources
	}
	return photo, nil
}

func (f *fakePhotos) Update(ctx context.Context, stem string, p apistructs.PhotoPayload) (*services.UpdateResult, error) {
	f.updated = append(f.updated, p)
	if f.err != nil {
		return nil, f.err
	}
	return f.updateRes, nil
}

func (f *fakePhotos) lookup(p *models.Photo, published models.Published) (*models.Photo, error) {
	if p == nil || (published == models.OnlyPublished && !p.Published) {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

func (f *fakePhotos) Get(ctx context.Context, id models.PhotoID, published models.Published) (*models.Photo, error) {
	f.lastPub = published
	if f.err != nil {
		return nil, f.err
	}
	return f.lookup(f.photos[id], published)
}

func (f *fakePhotos) GetByFileStem(ctx context.Context, stem string, published models.Published) (*models.Photo, error) {
	f.lastPub = published
	for _, p := range f.photos {
		if p.FileStem == stem {
			return f.lookup(p, published)
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakePhotos) Delete(ctx context.Context, id models.PhotoID) error {
	if _, ok := f.photos[id]; !ok {
		return common.ErrorNotFound
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakePhotos) SetPublished(ctx context.Context, id models.PhotoID, published bool) error {
	if _, ok := f.photos[id]; !ok {
		return common.ErrorNotFound
	}
	f.publishedSet[id] = published
	return nil
}

func (f *fakePhotos) SetHeightOffset(ctx context.Context, id models.PhotoID, offset int) error {
	if err := apistructs.ValidateHeightOffset(offset); err != nil {
		return err
	}
	if _, ok := f.photos[id]; !ok {
		return common.ErrorNotFound
	}
	f.offsetSet[id] = offset
	return nil
}

func (f *fakePhotos) Gallery(ctx context.Context, req services.GalleryRequest) (*services.GalleryPage, error) {
	f.galleryReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.gallery, nil
}

func (f *fakePhotos) Sitemap(ctx context.Context) ([]models.SitemapEntry, []models.TagCount, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.sitemapEntries, f.sitemapTags, nil
}

type fakeKeys struct {
	keys map[string]bool
	err  error
}

func (f *fakeKeys) Valid(ctx context.Context, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.keys[key], nil
}

func (f *fakeKeys) List(ctx context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []string
	for k, ok := range f.keys {
		if ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

const (
	testKey        = "valid-key"
	testSigningKey = "signing"
)

type testEnv struct {
	photos  *fakePhotos
	keys    *fakeKeys
	pinger  *fakePinger
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	renderer, err := NewRenderer(DefaultTemplates(), logging.Discard())
	require.NoError(t, err)

	env := &testEnv{
		photos: newFakePhotos(),
		keys:   &fakeKeys{keys: map[string]bool{testKey: true}},
		pinger: &fakePinger{},
	}
	h := NewHandler(env.photos, env.keys, env.pinger, renderer,
		NewSessionStore("0123456789abcdef0123456789abcdef", false),
		Options{
			BaseURL:         "https://gallery.example/",
			TokenSigningKey: []byte(testSigningKey),
			TokenValidity:   time.Minute,
			APIRateLimit:    1000,
		},
		logging.Discard(),
	)
	env.handler = h.Routes()
	return env
}

func (e *testEnv) do(t *testing.T, method, target, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(c *http.Cookie) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(c) }
}

var errDown = errors.New("connection refused")

func strPtr(s string) *string { return &s }

func idPtr(id models.PhotoID) *models.PhotoID { return &id }
