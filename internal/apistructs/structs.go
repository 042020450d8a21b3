// Package apistructs holds the wire representation of photos and sources
// shared by the gallery server, its JSON API and the admin CLI.
package apistructs

// Source is one rendition of a photo at a specific pixel size.
type Source struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	URL    string `json:"url"`
}

// PhotoPayload is what the CLI and API clients submit to create or update a
// photo. A nil Sources leaves the stored sources untouched on update.
// Published only applies on create; updates go through SetPublished.
type PhotoPayload struct {
	FileStem       string    `json:"file_stem"`
	Title          *string   `json:"title"`
	TakenTimestamp *string   `json:"taken_timestamp"`
	Tags           []string  `json:"tags"`
	Sources        *[]Source `json:"sources,omitempty"`
	Published      bool      `json:"published,omitempty"`
}

// Photo is the JSON view of a stored photo. Sources are ordered widest first.
type Photo struct {
	ID             int32    `json:"id"`
	FileStem       string   `json:"file_stem"`
	Title          *string  `json:"title"`
	TakenTimestamp *string  `json:"taken_timestamp"`
	HeightOffset   uint8    `json:"height_offset"`
	Tags           []string `json:"tags"`
	Sources        []Source `json:"sources"`
	Published      bool     `json:"published"`
}
