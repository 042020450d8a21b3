// Package services contains the business logic shared by the gallery server
// and the admin CLI. PhotoService owns catalog writes and gallery paging,
// SecretKeyService manages the keys that unlock unpublished photos.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/dmitrijs2005/photogallery/internal/apistructs"
	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/dbx"
	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/models"
	"github.com/dmitrijs2005/photogallery/internal/repositories/repomanager"
)

// ExistingPhotoError is returned by Create when the file stem is already
// registered. It matches common.ErrConflict.
type ExistingPhotoError struct {
	Existing *models.Photo
}

func (e *ExistingPhotoError) Error() string {
	return fmt.Sprintf("photo with file stem %s already exists", e.Existing.FileStem)
}

func (e *ExistingPhotoError) Unwrap() error { return common.ErrConflict }

// UpdateResult describes the outcome of PhotoService.Update.
type UpdateResult struct {
	Changed  bool
	Previous *models.Photo
	Current  *models.Photo
}

type PhotoService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	pageSize    PageSize
}

func NewPhotoService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger, pageSize PageSize) *PhotoService {
	return &PhotoService{
		db:          db,
		repomanager: m,
		log:         log.With("module", "photos"),
		pageSize:    pageSize,
	}
}

// Create registers a new photo with its sources in one transaction; it is
// published only when payload.Published is set. A photo with the same file stem yields *ExistingPhotoError.
func (s *PhotoService) Create(ctx context.Context, payload apistructs.PhotoPayload) (*models.Photo, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	photo := &models.Photo{
		FileStem:       payload.FileStem,
		Title:          payload.Title,
		TakenTimestamp: payload.TakenTimestamp,
		HeightOffset:   common.DefaultHeightOffset,
		Tags:           payload.Tags,
		Published:      payload.Published,
	}
	if payload.Sources != nil {
		photo.Sources = *payload.Sources
	}

	var id models.PhotoID
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Photos(tx)

		existing, err := repo.GetByFileStem(ctx, payload.FileStem, models.AllPhotos)
		switch {
		case err == nil:
			return &ExistingPhotoError{Existing: existing}
		case !errors.Is(err, common.ErrorNotFound):
			return fmt.Errorf("error looking up file stem: %w", err)
		}

		id, err = repo.Insert(ctx, photo)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "photo created", "id", id, "file_stem", photo.FileStem, "sources", len(photo.Sources))

	return s.repomanager.Photos(s.db).GetByID(ctx, id, models.AllPhotos)
}

// Update applies payload to the photo registered under fileStem. Title,
// taken timestamp and tags are overwritten when they differ; sources are
// replaced only when payload carries them and they differ.
func (s *PhotoService) Update(ctx context.Context, fileStem string, payload apistructs.PhotoPayload) (*UpdateResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	result := &UpdateResult{}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Photos(tx)

		old, err := repo.GetByFileStem(ctx, fileStem, models.AllPhotos)
		if err != nil {
			return err
		}
		result.Previous = old

		tags := payload.Tags
		if tags == nil {
			tags = []string{}
		}

		if !equalStrPtr(old.Title, payload.Title) ||
			!equalStrPtr(old.TakenTimestamp, payload.TakenTimestamp) ||
			!slices.Equal(old.Tags, tags) {
			result.Changed = true
			if err := repo.UpdateFields(ctx, old.ID, models.PhotoFields{
				Title:          payload.Title,
				TakenTimestamp: payload.TakenTimestamp,
				Tags:           tags,
			}); err != nil {
				return err
			}
		}

		if payload.Sources != nil && !sameSources(old.Sources, *payload.Sources) {
			result.Changed = true
			if err := repo.DeleteSources(ctx, old.ID); err != nil {
				return err
			}
			if err := repo.InsertSources(ctx, old.ID, *payload.Sources); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	current, err := s.repomanager.Photos(s.db).GetByID(ctx, result.Previous.ID, models.AllPhotos)
	if err != nil {
		return nil, err
	}
	result.Current = current

	if result.Changed {
		s.log.Info(ctx, "photo updated", "id", current.ID, "file_stem", fileStem)
	}
	return result, nil
}

func (s *PhotoService) Get(ctx context.Context, id models.PhotoID, published models.Published) (*models.Photo, error) {
	return s.repomanager.Photos(s.db).GetByID(ctx, id, published)
}

func (s *PhotoService) GetByFileStem(ctx context.Context, fileStem string, published models.Published) (*models.Photo, error) {
	return s.repomanager.Photos(s.db).GetByFileStem(ctx, fileStem, published)
}

// Delete removes the photo and, by cascade, its sources.
func (s *PhotoService) Delete(ctx context.Context, id models.PhotoID) error {
	if err := s.repomanager.Photos(s.db).Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info(ctx, "photo deleted", "id", id)
	return nil
}

func (s *PhotoService) SetPublished(ctx context.Context, id models.PhotoID, published bool) error {
	if err := s.repomanager.Photos(s.db).SetPublished(ctx, id, published); err != nil {
		return err
	}
	s.log.Info(ctx, "photo published state changed", "id", id, "published", published)
	return nil
}

// SetHeightOffset stores the vertical crop anchor; offset must be in 0..100.
func (s *PhotoService) SetHeightOffset(ctx context.Context, id models.PhotoID, offset int) error {
	if err := apistructs.ValidateHeightOffset(offset); err != nil {
		return err
	}
	return s.repomanager.Photos(s.db).SetHeightOffset(ctx, id, int32(offset))
}

// Sitemap returns every published photo and the published tag counts.
func (s *PhotoService) Sitemap(ctx context.Context) ([]models.SitemapEntry, []models.TagCount, error) {
	repo := s.repomanager.Photos(s.db)

	entries, err := repo.ListSitemapEntries(ctx)
	if err != nil {
		return nil, nil, err
	}
	tags, err := repo.TagCounts(ctx, nil, models.OnlyPublished)
	if err != nil {
		return nil, nil, err
	}
	return entries, tags, nil
}

func equalStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// sameSources compares two source sets regardless of order.
func sameSources(a, b []apistructs.Source) bool {
	if len(a) != len(b) {
		return false
	}
	sorted := func(in []apistructs.Source) []apistructs.Source {
		out := slices.Clone(in)
		sort.Slice(out, func(i, j int) bool {
			if out[i].Width != out[j].Width {
				return out[i].Width > out[j].Width
			}
			if out[i].Height != out[j].Height {
				return out[i].Height > out[j].Height
			}
			return out[i].URL < out[j].URL
		})
		return out
	}
	return slices.Equal(sorted(a), sorted(b))
}
