package services

import (
	"context"

	"github.com/dmitrijs2005/photogallery/internal/models"
)

// PageSize bounds the number of photos on a gallery page.
type PageSize struct {
	Default int
	Max     int
}

// Limit picks the page size for a requested limit: a request below Max is
// honoured, anything else falls back to Default.
func (p PageSize) Limit(requested *int) int64 {
	if requested != nil && *requested >= 0 && *requested < p.Max {
		return int64(*requested)
	}
	return int64(p.Default)
}

// GalleryRequest is a single gallery listing, optionally filtered by tags.
type GalleryRequest struct {
	Tagged    []string
	Limit     *int
	Offset    *int32
	Published models.Published
}

// GalleryPage holds one page of photos plus what is needed to render the
// navigation. Newer and Older are nil when there is nothing in that direction.
type GalleryPage struct {
	Photos []*models.Photo
	Newer  *models.PhotoID
	Older  *models.PhotoID
	Tags   []models.TagCount
}

// Gallery lists one page of photos newest first, works out the pagination
// boundaries and counts the tags of all matching photos.
func (s *PhotoService) Gallery(ctx context.Context, req GalleryRequest) (*GalleryPage, error) {
	repo := s.repomanager.Photos(s.db)

	q := models.PhotoQuery{
		Limit:     s.pageSize.Limit(req.Limit),
		Page:      models.PageFromOffset(req.Offset),
		Tagged:    req.Tagged,
		Published: req.Published,
	}

	photos, err := repo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	page := &GalleryPage{Photos: photos}

	if len(photos) > 0 {
		first, last := photos[0].ID, photos[len(photos)-1].ID

		q.Page = models.Page{Kind: models.PageAfter, PhotoID: first}
		newer, err := repo.HasAdjacent(ctx, q)
		if err != nil {
			return nil, err
		}
		if newer {
			page.Newer = &first
		}

		q.Page = models.Page{Kind: models.PageBefore, PhotoID: last}
		older, err := repo.HasAdjacent(ctx, q)
		if err != nil {
			return nil, err
		}
		if older {
			page.Older = &last
		}
	}

	page.Tags, err = repo.TagCounts(ctx, req.Tagged, req.Published)
	if err != nil {
		return nil, err
	}

	return page, nil
}
