package apistructs

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/photogallery/internal/common"
)

// Validate checks a source against the storage constraints.
func (s Source) Validate() error {
	if s.Width == 0 || s.Width >= common.MaxSourceDimension {
		return fmt.Errorf("%w: width %d out of range (0, %d)", common.ErrValidation, s.Width, common.MaxSourceDimension)
	}
	if s.Height == 0 || s.Height >= common.MaxSourceDimension {
		return fmt.Errorf("%w: height %d out of range (0, %d)", common.ErrValidation, s.Height, common.MaxSourceDimension)
	}
	if strings.TrimSpace(s.URL) == "" {
		return fmt.Errorf("%w: source url is empty", common.ErrValidation)
	}
	return nil
}

// ValidateSources validates each source and rejects duplicates of either
// (width, height) or url inside the set.
func ValidateSources(sources []Source) error {
	type size struct{ w, h uint32 }

	sizes := make(map[size]struct{}, len(sources))
	urls := make(map[string]struct{}, len(sources))

	for _, s := range sources {
		if err := s.Validate(); err != nil {
			return err
		}
		k := size{s.Width, s.Height}
		if _, dup := sizes[k]; dup {
			return fmt.Errorf("%w: duplicate source size %dx%d", common.ErrValidation, s.Width, s.Height)
		}
		sizes[k] = struct{}{}
		if _, dup := urls[s.URL]; dup {
			return fmt.Errorf("%w: duplicate source url %s", common.ErrValidation, s.URL)
		}
		urls[s.URL] = struct{}{}
	}
	return nil
}

// Validate checks the payload before it reaches the database.
func (p PhotoPayload) Validate() error {
	if strings.TrimSpace(p.FileStem) == "" {
		return fmt.Errorf("%w: file_stem is empty", common.ErrValidation)
	}
	for _, tag := range p.Tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("%w: empty tag", common.ErrValidation)
		}
	}
	if p.Sources != nil {
		return ValidateSources(*p.Sources)
	}
	return nil
}

// ValidateHeightOffset checks the crop anchor percentage.
func ValidateHeightOffset(offset int) error {
	if offset < 0 || offset > 100 {
		return fmt.Errorf("%w: height_offset %d out of range [0, 100]", common.ErrValidation, offset)
	}
	return nil
}
