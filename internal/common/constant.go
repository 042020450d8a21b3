// Package common contains shared constants and sentinel errors used across
// the gallery server and the admin CLI.
package common

const (
	// SecretKeyCookieName is the cookie carrying a raw secret key. A valid key
	// unlocks unpublished photos on the HTML routes.
	SecretKeyCookieName = "secret-key"

	// PreviewSessionName is the name of the signed session cookie set by /preview.
	PreviewSessionName = "gallery_preview"

	// DefaultHeightOffset is the crop anchor assigned to newly created photos.
	DefaultHeightOffset = 50

	// MaxSourceDimension is the exclusive upper bound for source width and height.
	MaxSourceDimension = 10000
)
