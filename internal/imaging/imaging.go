// Package imaging produces the JPEG renditions ("sources") of a photo.
package imaging

import (
	"errors"
	"fmt"

	"github.com/h2non/bimg"
)

// TargetSizes are the bounding boxes, longest side in pixels, a photo is
// rendered at. Only boxes no larger than the original are used.
var TargetSizes = []int{1800, 1700, 1600, 1500, 1400, 1300, 1200, 1100, 1000, 900, 800, 700, 600, 500, 400, 300}

// DefaultQuality is the JPEG quality of every rendition.
const DefaultQuality = 80

// ErrTooSmall is returned when no target size fits the original.
var ErrTooSmall = errors.New("image is smaller than the smallest rendition")

// Variant is one encoded rendition.
type Variant struct {
	Box    int
	Width  int
	Height int
	Data   []byte
}

// Transcoder decodes an original and renders it into a bounding box.
type Transcoder interface {
	Dimensions(data []byte) (width, height int, err error)
	Resize(data []byte, box int) (*Variant, error)
}

// SizesFor returns the target boxes that fit an image of the given size,
// largest first.
func SizesFor(width, height int) []int {
	longest := max(width, height)
	sizes := make([]int, 0, len(TargetSizes))
	for _, s := range TargetSizes {
		if s <= longest {
			sizes = append(sizes, s)
		}
	}
	return sizes
}

// VipsTranscoder renders progressive JPEGs through libvips.
type VipsTranscoder struct {
	quality int
}

func NewVipsTranscoder(quality int) *VipsTranscoder {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &VipsTranscoder{quality: quality}
}

func (t *VipsTranscoder) Dimensions(data []byte) (int, int, error) {
	size, err := bimg.NewImage(data).Size()
	if err != nil {
		return 0, 0, fmt.Errorf("couldn't decode image: %w", err)
	}
	return size.Width, size.Height, nil
}

// Resize scales the image so that its longest side equals box, keeping the
// aspect ratio, and encodes it as a progressive sRGB JPEG without metadata.
func (t *VipsTranscoder) Resize(data []byte, box int) (*Variant, error) {
	w, h, err := t.Dimensions(data)
	if err != nil {
		return nil, err
	}

	opts := bimg.Options{
		Type:           bimg.JPEG,
		Quality:        t.quality,
		Interlace:      true,
		StripMetadata:  true,
		Interpretation: bimg.InterpretationSRGB,
	}
	if w >= h {
		opts.Width = box
	} else {
		opts.Height = box
	}

	out, err := bimg.NewImage(data).Process(opts)
	if err != nil {
		return nil, fmt.Errorf("resize to %dpx: %w", box, err)
	}

	size, err := bimg.NewImage(out).Size()
	if err != nil {
		return nil, fmt.Errorf("resize to %dpx: %w", box, err)
	}

	return &Variant{Box: box, Width: size.Width, Height: size.Height, Data: out}, nil
}
