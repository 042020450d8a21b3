package web

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/models"
	"github.com/dmitrijs2005/photogallery/internal/services"
	"github.com/go-chi/chi/v5"
)

// pageData is shared by every HTML page.
type pageData struct {
	Title       string
	CacheBuster string
	Canonical   string
	Preview     bool
}

type galleryData struct {
	pageData
	Photos     []*models.Photo
	Tags       []models.TagCount
	NewestHref template.URL
	NewerHref  template.URL
	OlderHref  template.URL
	OldestHref template.URL
}

type photoData struct {
	pageData
	Photo *models.Photo
}

func pathEscape(s string) string { return url.PathEscape(s) }

// galleryQuery are the recognised query parameters of gallery pages.
type galleryQuery struct {
	Limit  *int
	Offset *int32
}

func parseGalleryQuery(q url.Values) (galleryQuery, error) {
	var gq galleryQuery
	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return gq, fmt.Errorf("%w: limit: %v", errBadRequest, err)
		}
		l := int(n)
		gq.Limit = &l
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return gq, fmt.Errorf("%w: offset: %v", errBadRequest, err)
		}
		o := int32(n)
		gq.Offset = &o
	}
	return gq, nil
}

// href renders a gallery link keeping the requested limit.
func (gq galleryQuery) href(offset *int32) template.URL {
	v := url.Values{}
	if gq.Limit != nil {
		v.Set("limit", strconv.Itoa(*gq.Limit))
	}
	if offset != nil {
		v.Set("offset", strconv.FormatInt(int64(*offset), 10))
	}
	if len(v) == 0 {
		return "?"
	}
	return template.URL("?" + v.Encode())
}

func (h *Handler) page(r *http.Request, title, canonicalPath string) pageData {
	return pageData{
		Title:       title,
		CacheBuster: h.renderer.CacheBuster(),
		Canonical:   strings.TrimRight(h.opts.BaseURL, "/") + canonicalPath,
		Preview:     previewFrom(r.Context()),
	}
}

func (h *Handler) writeHTML(w http.ResponseWriter, r *http.Request, tmpl string, data any) {
	body, err := h.renderer.Render(r.Context(), tmpl, data)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// tagParam returns the decoded tag. chi matches on RawPath when the request
// carries one, and only then is the captured segment still escaped.
func tagParam(r *http.Request) string {
	raw := chi.URLParam(r, "tag")
	if r.URL.RawPath == "" {
		return raw
	}
	if tag, err := url.PathUnescape(raw); err == nil {
		return tag
	}
	return raw
}

func (h *Handler) gallery(w http.ResponseWriter, r *http.Request) {
	gq, err := parseGalleryQuery(r.URL.Query())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	req := services.GalleryRequest{
		Limit:     gq.Limit,
		Offset:    gq.Offset,
		Published: publishedFrom(r.Context()),
	}

	title, canonical := "gallery", "/"
	if tag := tagParam(r); tag != "" {
		req.Tagged = []string{tag}
		title = "tagged " + tag
		canonical = "/tagged/" + url.PathEscape(tag)
	}

	res, err := h.photos.Gallery(r.Context(), req)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	oldest := models.Page{Kind: models.PageAfter, PhotoID: 0}.Offset()
	data := galleryData{
		pageData:   h.page(r, title, canonical),
		Photos:     res.Photos,
		Tags:       res.Tags,
		NewestHref: gq.href(nil),
		OldestHref: gq.href(oldest),
	}
	if res.Newer != nil {
		data.NewerHref = gq.href(models.Page{Kind: models.PageAfter, PhotoID: *res.Newer}.Offset())
	}
	if res.Older != nil {
		data.OlderHref = gq.href(models.Page{Kind: models.PageBefore, PhotoID: *res.Older}.Offset())
	}

	h.writeHTML(w, r, "gallery.html", data)
}

func photoIDParam(r *http.Request) (models.PhotoID, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: photo id: %v", errBadRequest, err)
	}
	return models.PhotoID(id), nil
}

func (h *Handler) loadPhoto(w http.ResponseWriter, r *http.Request) (*models.Photo, bool) {
	id, err := photoIDParam(r)
	if err != nil {
		h.serverError(w, r, err)
		return nil, false
	}
	p, err := h.photos.Get(r.Context(), id, publishedFrom(r.Context()))
	if err != nil {
		h.serverError(w, r, err)
		return nil, false
	}
	return p, true
}

func (h *Handler) photo(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPhoto(w, r)
	if !ok {
		return
	}
	h.writeHTML(w, r, "photo.html", photoData{
		pageData: h.page(r, fmt.Sprintf("photo #%d", p.ID), fmt.Sprintf("/photo/%d", p.ID)),
		Photo:    p,
	})
}

func (h *Handler) photoMulti(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPhoto(w, r)
	if !ok {
		return
	}
	h.writeHTML(w, r, "single-photo-multiple-times.html", photoData{
		pageData: h.page(r, fmt.Sprintf("photo #%d", p.ID), fmt.Sprintf("/photo/%d", p.ID)),
		Photo:    p,
	})
}

// previewStart stores a valid secret key in the preview session so that
// unpublished photos show up on the HTML pages.
func (h *Handler) previewStart(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	ok, err := h.keys.Valid(r.Context(), key)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if !ok {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	session, _ := h.sessions.Get(r, common.PreviewSessionName)
	session.Values[sessionKeyField] = key
	if err := session.Save(r, w); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.log.Info(r.Context(), "preview session started")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) previewEnd(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessions.Get(r, common.PreviewSessionName)
	delete(session.Values, sessionKeyField)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: common.SecretKeyCookieName, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
