package loader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ErrTextureNotFound is returned when an atlas page path matches no pooled
// image at any tier.
var ErrTextureNotFound = errors.New("texture not found")

// Resolve maps an atlas-declared texture path to a pooled image. Three
// tiers are tried in order, each scanning the pool in submission order:
// exact name match, suffix match in either direction (an atlas path like
// images/head.png against a flat head.png, or the reverse), then substring.
// The earliest-submitted image wins ties within a tier.
func (p *ImagePool) Resolve(path string) (*PreloadedImage, error) {
	if i, ok := p.index[path]; ok {
		return p.images[i], nil
	}
	for _, img := range p.images {
		if strings.HasSuffix(img.Name, path) || strings.HasSuffix(path, img.Name) {
			return img, nil
		}
	}
	for _, img := range p.images {
		if strings.Contains(img.Name, path) {
			return img, nil
		}
	}
	if hint := p.closestName(path); hint != "" {
		return nil, fmt.Errorf("%w: %s (closest: %q)", ErrTextureNotFound, path, hint)
	}
	return nil, fmt.Errorf("%w: %s", ErrTextureNotFound, path)
}

// closestName returns the pooled name nearest to path by edit distance.
// Diagnostic only, never used for resolution.
func (p *ImagePool) closestName(path string) string {
	best := ""
	bestDist := -1
	for _, img := range p.images {
		d := levenshtein.ComputeDistance(path, img.Name)
		if bestDist < 0 || d < bestDist {
			best = img.Name
			bestDist = d
		}
	}
	return best
}
