// Package models defines the catalog entities persisted in the database and
// the query descriptors the repositories understand.
package models

import (
	"sort"

	"github.com/dmitrijs2005/photogallery/internal/apistructs"
)

type PhotoID = int32

// Photo is a catalog entry together with all its renditions.
type Photo struct {
	ID             PhotoID
	FileStem       string
	Title          *string
	TakenTimestamp *string
	HeightOffset   int32
	Tags           []string
	Sources        []apistructs.Source
	Published      bool
}

// SortSources orders renditions widest first.
func (p *Photo) SortSources() {
	sort.SliceStable(p.Sources, func(i, j int) bool {
		return p.Sources[i].Width > p.Sources[j].Width
	})
}

// Largest returns the widest rendition, if any.
func (p *Photo) Largest() (apistructs.Source, bool) {
	var best apistructs.Source
	found := false
	for _, s := range p.Sources {
		if !found || s.Width > best.Width {
			best, found = s, true
		}
	}
	return best, found
}

// API converts the photo into its JSON view.
func (p *Photo) API() apistructs.Photo {
	sources := make([]apistructs.Source, len(p.Sources))
	copy(sources, p.Sources)
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return apistructs.Photo{
		ID:             p.ID,
		FileStem:       p.FileStem,
		Title:          p.Title,
		TakenTimestamp: p.TakenTimestamp,
		HeightOffset:   uint8(p.HeightOffset),
		Tags:           tags,
		Sources:        sources,
		Published:      p.Published,
	}
}

// PhotoFields are the editable metadata columns of a photo.
type PhotoFields struct {
	Title          *string
	TakenTimestamp *string
	Tags           []string
}

// TagCount is a tag and the number of visible photos carrying it.
type TagCount struct {
	Tag   string
	Count int64
}

// SitemapEntry is a published photo and the url of its largest rendition.
type SitemapEntry struct {
	ID       PhotoID
	Title    *string
	ImageURL *string
}
