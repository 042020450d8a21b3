package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/photogallery/internal/apistructs"
	"github.com/dmitrijs2005/photogallery/internal/server/auth"
	"github.com/dmitrijs2005/photogallery/internal/services"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// photoRequest is a PhotoPayload whose tags must be present. A body without
// them would otherwise clear the stored tags on update.
type photoRequest struct {
	apistructs.PhotoPayload
	Tags *[]string `json:"tags"`
}

func decodePhotoPayload(w http.ResponseWriter, r *http.Request) (apistructs.PhotoPayload, error) {
	var req photoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return apistructs.PhotoPayload{}, err
	}
	if req.Tags == nil {
		return apistructs.PhotoPayload{}, fmt.Errorf("%w: tags is required", errBadRequest)
	}
	payload := req.PhotoPayload
	payload.Tags = *req.Tags
	return payload, nil
}

func (h *Handler) apiIssueToken(w http.ResponseWriter, r *http.Request) {
	key, _ := bearerToken(r)
	expires := time.Now().Add(h.opts.TokenValidity)

	token, err := auth.GenerateToken(auth.Fingerprint(key), h.opts.TokenSigningKey, h.opts.TokenValidity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token":      token,
		"expires_at": expires.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) apiGetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := photoIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.photos.Get(r.Context(), id, publishedFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p.API())
}

func (h *Handler) apiGetPhotoByFileStem(w http.ResponseWriter, r *http.Request) {
	p, err := h.photos.GetByFileStem(r.Context(), chi.URLParam(r, "stem"), publishedFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p.API())
}

// apiCreatePhoto answers 201 with the created photo, or 409 with the photo
// already registered under the same file stem.
func (h *Handler) apiCreatePhoto(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePhotoPayload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.photos.Create(r.Context(), payload)
	if err != nil {
		var exists *services.ExistingPhotoError
		if errors.As(err, &exists) {
			writeJSON(w, http.StatusConflict, map[string]any{
				"reason":   fmt.Sprintf("Photo with file stem %s already exists.", payload.FileStem),
				"existing": exists.Existing.API(),
			})
			return
		}
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      created.ID,
		"created": created.API(),
	})
}

func (h *Handler) apiUpdatePhoto(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePhotoPayload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	stem := chi.URLParam(r, "stem")
	if payload.FileStem == "" {
		payload.FileStem = stem
	}

	res, err := h.photos.Update(r.Context(), stem, payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"changed":  res.Changed,
		"previous": res.Previous.API(),
		"current":  res.Current.API(),
	})
}

func (h *Handler) apiDeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := photoIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.photos.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) apiSetPublished(w http.ResponseWriter, r *http.Request) {
	id, err := photoIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var published bool
	if err := decodeJSON(w, r, &published); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.photos.SetPublished(r.Context(), id, published); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"published": published})
}

func (h *Handler) apiSetHeightOffset(w http.ResponseWriter, r *http.Request) {
	id, err := photoIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var offset int
	if err := decodeJSON(w, r, &offset); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.photos.SetHeightOffset(r.Context(), id, offset); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
