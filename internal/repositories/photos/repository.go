package photos

import (
	"context"

	"github.com/dmitrijs2005/photogallery/internal/apistructs"
	"github.com/dmitrijs2005/photogallery/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, photo *models.Photo) (models.PhotoID, error)
	InsertSources(ctx context.Context, photoID models.PhotoID, sources []apistructs.Source) error
	DeleteSources(ctx context.Context, photoID models.PhotoID) error

	GetByID(ctx context.Context, id models.PhotoID, published models.Published) (*models.Photo, error)
	GetByFileStem(ctx context.Context, fileStem string, published models.Published) (*models.Photo, error)
	List(ctx context.Context, q models.PhotoQuery) ([]*models.Photo, error)
	HasAdjacent(ctx context.Context, q models.PhotoQuery) (bool, error)
	TagCounts(ctx context.Context, tagged []string, published models.Published) ([]models.TagCount, error)
	ListSitemapEntries(ctx context.Context) ([]models.SitemapEntry, error)

	UpdateFields(ctx context.Context, id models.PhotoID, fields models.PhotoFields) error
	SetPublished(ctx context.Context, id models.PhotoID, published bool) error
	SetHeightOffset(ctx context.Context, id models.PhotoID, heightOffset int32) error
	Delete(ctx context.Context, id models.PhotoID) error
}
