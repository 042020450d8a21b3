// Package web serves the gallery over HTTP: server-rendered HTML pages,
// the sitemap and the authenticated JSON API.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/photogallery/internal/apistructs"
	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/models"
	"github.com/dmitrijs2005/photogallery/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/gorilla/sessions"
)

// PhotoService is the catalog behaviour the handlers depend on.
type PhotoService interface {
	Create(ctx context.Context, payload apistructs.PhotoPayload) (*models.Photo, error)
	Update(ctx context.Context, fileStem string, payload apistructs.PhotoPayload) (*services.UpdateResult, error)
	Get(ctx context.Context, id models.PhotoID, published models.Published) (*models.Photo, error)
	GetByFileStem(ctx context.Context, fileStem string, published models.Published) (*models.Photo, error)
	Delete(ctx context.Context, id models.PhotoID) error
	SetPublished(ctx context.Context, id models.PhotoID, published bool) error
	SetHeightOffset(ctx context.Context, id models.PhotoID, offset int) error
	Gallery(ctx context.Context, req services.GalleryRequest) (*services.GalleryPage, error)
	Sitemap(ctx context.Context) ([]models.SitemapEntry, []models.TagCount, error)
}

// KeyValidator checks secret keys. List lets API tokens be traced back to
// the key that issued them.
type KeyValidator interface {
	Valid(ctx context.Context, key string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options are the HTTP-level settings of the handler.
type Options struct {
	BaseURL         string
	TokenSigningKey []byte
	TokenValidity   time.Duration
	APIRateLimit    int
}

type Handler struct {
	photos   PhotoService
	keys     KeyValidator
	db       Pinger
	renderer *Renderer
	sessions sessions.Store
	opts     Options
	log      logging.Logger
}

func NewHandler(photos PhotoService, keys KeyValidator, db Pinger, renderer *Renderer, store sessions.Store, opts Options, log logging.Logger) *Handler {
	return &Handler{
		photos:   photos,
		keys:     keys,
		db:       db,
		renderer: renderer,
		sessions: store,
		opts:     opts,
		log:      log.With("module", "web"),
	}
}

// NewSessionStore builds the cookie store backing the preview session.
func NewSessionStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(86400 * 30)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

// Routes assembles the chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Get("/sitemap.xml", h.sitemap)
	r.Handle("/static/*", http.StripPrefix("/static/", h.renderer.Static()))

	r.Get("/preview", h.previewStart)
	r.Get("/preview/end", h.previewEnd)

	r.Group(func(r chi.Router) {
		r.Use(h.visibility)
		r.Get("/", h.gallery)
		r.Get("/tagged/{tag}", h.gallery)
		r.Get("/photo/{id}", h.photo)
		r.Get("/photo/{id}/multi", h.photoMulti)
	})

	r.Route("/api/v1", func(r chi.Router) {
		if h.opts.APIRateLimit > 0 {
			r.Use(httprate.Limit(
				h.opts.APIRateLimit,
				1*time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
			))
		}

		r.Group(func(r chi.Router) {
			r.Use(h.optionalBearer)
			r.Get("/photo/by-id/{id}", h.apiGetPhoto)
			r.Get("/photo/by-filestem/{stem}", h.apiGetPhotoByFileStem)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.requireSecretKey)
			r.Post("/tokens", h.apiIssueToken)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.requireBearer)
			r.Post("/photos", h.apiCreatePhoto)
			r.Post("/photo/by-filestem/{stem}", h.apiUpdatePhoto)
			r.Delete("/photo/by-id/{id}", h.apiDeletePhoto)
			r.Post("/photo/by-id/{id}/published", h.apiSetPublished)
			r.Post("/photo/by-id/{id}/height-offset", h.apiSetHeightOffset)
		})
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.log.Error(r.Context(), "health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
