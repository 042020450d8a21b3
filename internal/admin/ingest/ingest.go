// Package ingest turns an original photo file into a catalog entry: it reads
// the XMP metadata, renders every rendition, uploads them and registers the
// photo with its sources.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/photogallery/internal/admin/journal"
	"github.com/dmitrijs2005/photogallery/internal/admin/storage"
	"github.com/dmitrijs2005/photogallery/internal/apistructs"
	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/filex"
	"github.com/dmitrijs2005/photogallery/internal/imaging"
	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/models"
	"github.com/dmitrijs2005/photogallery/internal/services"
	"github.com/dmitrijs2005/photogallery/internal/xmp"
	"golang.org/x/sync/errgroup"
)

// Catalog is the part of services.PhotoService the pipeline writes through.
type Catalog interface {
	Create(ctx context.Context, payload apistructs.PhotoPayload) (*models.Photo, error)
	Update(ctx context.Context, fileStem string, payload apistructs.PhotoPayload) (*services.UpdateResult, error)
	GetByFileStem(ctx context.Context, fileStem string, published models.Published) (*models.Photo, error)
}

// Journal remembers what was uploaded already.
type Journal interface {
	Get(ctx context.Context, key string) (*journal.Entry, error)
	Record(ctx context.Context, e journal.Entry) error
}

type Options struct {
	// Update changes an existing photo instead of creating a new one.
	Update bool
	// OnlyMetadata skips rendering and uploading; stored sources are kept.
	OnlyMetadata bool
}

type Result struct {
	Photo    *models.Photo
	Created  bool
	Changed  bool
	Uploaded int
	Reused   int
}

type Ingester struct {
	catalog    Catalog
	transcoder imaging.Transcoder
	uploader   storage.Uploader
	journal    Journal
	workers    int
	log        logging.Logger
}

// New builds an Ingester. journal may be nil; workers <= 0 means one per CPU.
func New(catalog Catalog, transcoder imaging.Transcoder, uploader storage.Uploader, j Journal, workers int, log logging.Logger) *Ingester {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Ingester{
		catalog:    catalog,
		transcoder: transcoder,
		uploader:   uploader,
		journal:    j,
		workers:    workers,
		log:        log.With("module", "ingest"),
	}
}

// ObjectKey is the storage key of a rendition: <stem>/<stem>.<w>x<h>.jpeg.
func ObjectKey(stem string, width, height int) string {
	return fmt.Sprintf("%s/%s.%dx%d.jpeg", stem, stem, width, height)
}

// Ingest processes the file at path. Without opts.Update it refuses file
// stems that are already registered, before doing any expensive work.
func (in *Ingester) Ingest(ctx context.Context, path string, opts Options) (*Result, error) {
	stem := filex.Stem(path)
	log := in.log.With("file_stem", stem)

	if !opts.Update {
		log.Info(ctx, "Checking whether photo has already been uploaded")
		_, err := in.catalog.GetByFileStem(ctx, stem, models.AllPhotos)
		switch {
		case err == nil:
			return nil, fmt.Errorf("%w: photo with file stem %s already exists", common.ErrConflict, stem)
		case !errors.Is(err, common.ErrorNotFound):
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	payload := apistructs.PhotoPayload{FileStem: stem, Tags: []string{}}

	meta, err := xmp.Extract(data)
	switch {
	case err == nil:
		payload.TakenTimestamp = &meta.CreateDate
		payload.Title = meta.Title
		payload.Tags = meta.Tags
	case errors.Is(err, xmp.ErrNoXMP):
		log.Warn(ctx, "no XMP metadata, registering photo without title, date or tags")
	default:
		return nil, err
	}

	result := &Result{}
	if opts.OnlyMetadata {
		log.Info(ctx, "Not uploading photos")
	} else {
		sources, err := in.renditions(ctx, stem, data, result)
		if err != nil {
			return nil, err
		}
		payload.Sources = &sources
		log.Info(ctx, "All images uploaded", "uploaded", result.Uploaded, "reused", result.Reused)
	}

	if opts.Update {
		res, err := in.catalog.Update(ctx, stem, payload)
		if err != nil {
			return nil, err
		}
		result.Photo, result.Changed = res.Current, res.Changed
		return result, nil
	}

	photo, err := in.catalog.Create(ctx, payload)
	if err != nil {
		return nil, err
	}
	result.Photo, result.Created, result.Changed = photo, true, true
	return result, nil
}

// renditions renders and uploads every target size on a bounded pool.
// Sources come back in TargetSizes order, widest first.
func (in *Ingester) renditions(ctx context.Context, stem string, data []byte, result *Result) ([]apistructs.Source, error) {
	w, h, err := in.transcoder.Dimensions(data)
	if err != nil {
		return nil, err
	}
	sizes := imaging.SizesFor(w, h)
	if len(sizes) == 0 {
		return nil, fmt.Errorf("%w: %dx%d", imaging.ErrTooSmall, w, h)
	}

	sources := make([]apistructs.Source, len(sizes))
	var uploaded, reused atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.workers)

	for i, size := range sizes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			start := time.Now()
			v, err := in.transcoder.Resize(data, size)
			if err != nil {
				return err
			}
			in.log.Debug(gctx, "Finished resizing image", "size", size, "elapsed", time.Since(start))

			url, fresh, err := in.store(gctx, stem, v)
			if err != nil {
				return err
			}
			if fresh {
				uploaded.Add(1)
			} else {
				reused.Add(1)
			}

			sources[i] = apistructs.Source{Width: uint32(v.Width), Height: uint32(v.Height), URL: url}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Uploaded = int(uploaded.Load())
	result.Reused = int(reused.Load())
	return sources, nil
}

// store uploads v unless the journal shows identical content under the
// same key. fresh reports whether an upload happened.
func (in *Ingester) store(ctx context.Context, stem string, v *imaging.Variant) (url string, fresh bool, err error) {
	key := ObjectKey(stem, v.Width, v.Height)
	sum := sha256.Sum256(v.Data)
	digest := hex.EncodeToString(sum[:])

	if in.journal != nil {
		e, err := in.journal.Get(ctx, key)
		if err != nil {
			in.log.Warn(ctx, "upload journal lookup failed", "key", key, "error", err)
		} else if e != nil && e.SHA256 == digest {
			return e.URL, false, nil
		}
	}

	in.log.Info(ctx, "Uploading resized image", "key", key, "bytes", len(v.Data))
	url, err = in.uploader.Upload(ctx, key, v.Data)
	if err != nil {
		return "", false, err
	}

	if in.journal != nil {
		err := in.journal.Record(ctx, journal.Entry{
			Key:      key,
			FileStem: stem,
			SHA256:   digest,
			URL:      url,
			Width:    v.Width,
			Height:   v.Height,
		})
		if err != nil {
			in.log.Warn(ctx, "upload journal write failed", "key", key, "error", err)
		}
	}

	return url, true, nil
}
