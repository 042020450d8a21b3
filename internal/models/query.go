package models

// Published selects which photos a query may return.
type Published int

const (
	// OnlyPublished hides photos whose published flag is false.
	OnlyPublished Published = iota
	// AllPhotos includes unpublished photos; requires a valid secret key.
	AllPhotos
)

type PageKind int

const (
	// PageLatest starts at the newest photo.
	PageLatest PageKind = iota
	// PageBefore lists photos with id < PhotoID, newest first.
	PageBefore
	// PageAfter lists photos with id > PhotoID. Rows are fetched oldest
	// first so the page is anchored right after the boundary.
	PageAfter
)

// Page is a keyset pagination cursor.
type Page struct {
	Kind    PageKind
	PhotoID PhotoID
}

// PageFromOffset decodes the "offset" query parameter: nil means latest,
// a non-negative value means before that id and a negative value -n-1 means
// after id n.
func PageFromOffset(offset *int32) Page {
	switch {
	case offset == nil:
		return Page{Kind: PageLatest}
	case *offset >= 0:
		return Page{Kind: PageBefore, PhotoID: *offset}
	default:
		return Page{Kind: PageAfter, PhotoID: -*offset - 1}
	}
}

// Offset is the inverse of PageFromOffset.
func (p Page) Offset() *int32 {
	var v int32
	switch p.Kind {
	case PageBefore:
		v = p.PhotoID
	case PageAfter:
		v = -p.PhotoID - 1
	default:
		return nil
	}
	return &v
}

// OrderDirection is the SQL ORDER BY direction used to fetch the page.
func (p Page) OrderDirection() string {
	if p.Kind == PageAfter {
		return "ASC"
	}
	return "DESC"
}

// PhotoQuery describes a gallery listing.
type PhotoQuery struct {
	Limit     int64
	Page      Page
	Tagged    []string
	Published Published
}
