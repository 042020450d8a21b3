package web

import (
	"net/http"
	"testing"

	"github.com/dmitrijs2005/photogallery/internal/apistructs"
	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/models"
	"github.com/dmitrijs2005/photogallery/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sunset() *models.Photo {
	return &models.Photo{
		ID:           7,
		FileStem:     "sunset",
		Title:        strPtr("Sunset over the bay"),
		HeightOffset: 30,
		Tags:         []string{"nature", "orange"},
		Published:    true,
		Sources: []apistructs.Source{
			{Width: 1800, Height: 1200, URL: "https://static.example/sunset/sunset.1800x1200.jpeg"},
			{Width: 800, Height: 600, URL: "https://static.example/sunset/sunset.800x600.jpeg"},
		},
	}
}

func TestGallery_PublicVisitor(t *testing.T) {
	env := newTestEnv(t)
	env.photos.gallery = &services.GalleryPage{
		Photos: []*models.Photo{sunset()},
		Older:  idPtr(7),
		Tags:   []models.TagCount{{Tag: "nature", Count: 3}},
	}

	rec := env.do(t, http.MethodGet, "/?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "/photo/7")
	assert.Contains(t, body, "sunset.1800x1200.jpeg")
	assert.Contains(t, body, "/tagged/nature")
	assert.Contains(t, body, "offset=7")
	assert.Contains(t, body, "offset=-1")
	assert.NotContains(t, body, "newer")
	assert.NotContains(t, body, "end preview")

	assert.Equal(t, models.OnlyPublished, env.photos.galleryReq.Published)
	require.NotNil(t, env.photos.galleryReq.Limit)
	assert.Equal(t, 5, *env.photos.galleryReq.Limit)
	assert.Nil(t, env.photos.galleryReq.Offset)
	assert.Empty(t, env.photos.galleryReq.Tagged)
}

func TestGallery_NewerLinkPointsAfterFirstPhoto(t *testing.T) {
	env := newTestEnv(t)
	env.photos.gallery = &services.GalleryPage{Photos: []*models.Photo{sunset()}, Newer: idPtr(7)}

	rec := env.do(t, http.MethodGet, "/?offset=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "offset=-8")

	require.NotNil(t, env.photos.galleryReq.Offset)
	assert.Equal(t, int32(3), *env.photos.galleryReq.Offset)
}

func TestGallery_BadQuery(t *testing.T) {
	env := newTestEnv(t)

	for _, target := range []string{"/?limit=abc", "/?limit=256", "/?offset=x", "/?offset=99999999999"} {
		rec := env.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestGallery_Tagged(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/tagged/black%20and%20white", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"black and white"}, env.photos.galleryReq.Tagged)
	assert.Contains(t, rec.Body.String(), "tagged black and white")
}

func TestGallery_TaggedDecodedOnce(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{target: "/tagged/%2541", want: "%41"},
		{target: "/tagged/100%25", want: "100%"},
		{target: "/tagged/a%2Fb", want: "a/b"},
		{target: "/tagged/nature", want: "nature"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			env := newTestEnv(t)

			rec := env.do(t, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, []string{tt.want}, env.photos.galleryReq.Tagged)
		})
	}
}

func TestGallery_SecretKeyCookieShowsUnpublished(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", "", withCookie(&http.Cookie{Name: common.SecretKeyCookieName, Value: testKey}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.AllPhotos, env.photos.galleryReq.Published)
	assert.Contains(t, rec.Body.String(), "end preview")
}

func TestGallery_InvalidCookieStaysPublic(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", "", withCookie(&http.Cookie{Name: common.SecretKeyCookieName, Value: "wrong"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.OnlyPublished, env.photos.galleryReq.Published)
}

func TestGallery_KeyLookupFailureIs500(t *testing.T) {
	env := newTestEnv(t)
	env.keys.err = errDown

	rec := env.do(t, http.MethodGet, "/", "", withCookie(&http.Cookie{Name: common.SecretKeyCookieName, Value: testKey}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGallery_DatabaseDown(t *testing.T) {
	env := newTestEnv(t)
	env.photos.err = errDown

	rec := env.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestPhotoPage(t *testing.T) {
	env := newTestEnv(t)
	env.photos.photos[7] = sunset()

	rec := env.do(t, http.MethodGet, "/photo/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "photo #7")
	assert.Contains(t, body, "Sunset over the bay")
	assert.Contains(t, body, "/photo/7/multi")
	assert.Contains(t, body, "https://gallery.example/photo/7")
}

func TestPhotoPage_NotFoundAndHidden(t *testing.T) {
	env := newTestEnv(t)
	hidden := sunset()
	hidden.Published = false
	env.photos.photos[7] = hidden

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/photo/7", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/photo/8", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/photo/abc", "").Code)

	rec := env.do(t, http.MethodGet, "/photo/7", "", withCookie(&http.Cookie{Name: common.SecretKeyCookieName, Value: testKey}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPhotoMultiPage(t *testing.T) {
	env := newTestEnv(t)
	env.photos.photos[7] = sunset()

	rec := env.do(t, http.MethodGet, "/photo/7/multi", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "sunset.1800x1200.jpeg")
	assert.Contains(t, body, "sunset.800x600.jpeg")
}

func TestPreviewSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/preview?key=wrong", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/preview?key="+testKey, "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == common.PreviewSessionName {
			session = c
		}
	}
	require.NotNil(t, session, "preview session cookie must be set")
	assert.True(t, session.HttpOnly)

	rec = env.do(t, http.MethodGet, "/", "", withCookie(session))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.AllPhotos, env.photos.galleryReq.Published)

	rec = env.do(t, http.MethodGet, "/preview/end", "", withCookie(session))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == common.PreviewSessionName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "preview session cookie must be expired")
}

func TestPreviewSession_TamperedCookieIgnored(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", "", withCookie(&http.Cookie{Name: common.PreviewSessionName, Value: "forged"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.OnlyPublished, env.photos.galleryReq.Published)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	env.pinger.err = errDown
	rec = env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/static/gallery.css", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".gallery")
}

func TestParseGalleryQueryHref(t *testing.T) {
	limit := 5
	gq := galleryQuery{Limit: &limit}
	offset := int32(-8)

	assert.Equal(t, "?limit=5&offset=-8", string(gq.href(&offset)))
	assert.Equal(t, "?limit=5", string(gq.href(nil)))
	assert.Equal(t, "?", string(galleryQuery{}.href(nil)))
}
