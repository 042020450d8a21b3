package web

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/models"
	"github.com/dmitrijs2005/photogallery/internal/server/auth"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey int

const (
	publishedKey ctxKey = iota
	previewKey
)

const sessionKeyField = "secret_key"

// requestLogger logs one line per request through the structured logger.
func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				log.Info(r.Context(), "request",
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"remote", r.RemoteAddr,
					"duration", time.Since(start),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// visibility decides whether the visitor may see unpublished photos: either
// the raw secret-key cookie or the preview session must carry a stored key.
func (h *Handler) visibility(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		published := models.OnlyPublished

		for _, key := range h.candidateKeys(r) {
			ok, err := h.keys.Valid(ctx, key)
			if err != nil {
				h.serverError(w, r, err)
				return
			}
			if ok {
				published = models.AllPhotos
				break
			}
			h.log.Info(ctx, "invalid secret key presented")
		}

		ctx = context.WithValue(ctx, publishedKey, published)
		ctx = context.WithValue(ctx, previewKey, published == models.AllPhotos)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) candidateKeys(r *http.Request) []string {
	var keys []string
	if c, err := r.Cookie(common.SecretKeyCookieName); err == nil && c.Value != "" {
		keys = append(keys, c.Value)
	}
	if s, err := h.sessions.Get(r, common.PreviewSessionName); err == nil {
		if k, ok := s.Values[sessionKeyField].(string); ok && k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func publishedFrom(ctx context.Context) models.Published {
	if p, ok := ctx.Value(publishedKey).(models.Published); ok {
		return p
	}
	return models.OnlyPublished
}

func previewFrom(ctx context.Context) bool {
	v, _ := ctx.Value(previewKey).(bool)
	return v
}

type bearerState int

const (
	bearerMissing bearerState = iota
	bearerInvalid
	bearerValid
)

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", true
	}
	return strings.TrimSpace(parts[1]), true
}

// checkBearer accepts either a stored secret key or an API token signed by
// this server. allowTokens=false only accepts secret keys.
func (h *Handler) checkBearer(r *http.Request, allowTokens bool) (bearerState, error) {
	token, present := bearerToken(r)
	if !present {
		return bearerMissing, nil
	}
	if token == "" {
		return bearerInvalid, nil
	}

	ok, err := h.keys.Valid(r.Context(), token)
	if err != nil {
		return bearerInvalid, err
	}
	if ok {
		return bearerValid, nil
	}

	if !allowTokens {
		return bearerInvalid, nil
	}
	fp, err := auth.ParseToken(token, h.opts.TokenSigningKey)
	if err != nil {
		return bearerInvalid, nil
	}
	// A token dies with the key that issued it.
	issued, err := h.issuingKeyExists(r.Context(), fp)
	if err != nil {
		return bearerInvalid, err
	}
	if issued {
		return bearerValid, nil
	}
	return bearerInvalid, nil
}

func (h *Handler) issuingKeyExists(ctx context.Context, fp string) (bool, error) {
	keys, err := h.keys.List(ctx)
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(auth.Fingerprint(k)), []byte(fp)) == 1 {
			return true, nil
		}
	}
	return false, nil
}

func (h *Handler) bearerMiddleware(allowTokens bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state, err := h.checkBearer(r, allowTokens)
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			switch state {
			case bearerMissing:
				h.writeError(w, r, common.ErrorUnauthorized)
			case bearerInvalid:
				h.writeError(w, r, common.ErrorForbidden)
			default:
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), publishedKey, models.AllPhotos)))
			}
		})
	}
}

// requireBearer answers 401 without an Authorization header and 403 when
// the credential is not recognised.
func (h *Handler) requireBearer(next http.Handler) http.Handler {
	return h.bearerMiddleware(true)(next)
}

// requireSecretKey is requireBearer restricted to stored secret keys.
func (h *Handler) requireSecretKey(next http.Handler) http.Handler {
	return h.bearerMiddleware(false)(next)
}

// optionalBearer widens visibility to all photos for a valid credential and
// otherwise serves published photos only.
func (h *Handler) optionalBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state, err := h.checkBearer(r, true)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		published := models.OnlyPublished
		if state == bearerValid {
			published = models.AllPhotos
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), publishedKey, published)))
	})
}
