package spine

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Atlas format errors.
var (
	ErrEmptyAtlas      = errors.New("atlas has no page entries")
	ErrMalformedAtlas  = errors.New("malformed atlas data")
	ErrPageSizeUnknown = errors.New("atlas page size unknown")
)

// Texture is the backing image of an atlas page. Implementations supply
// pixel dimensions; the parser never touches pixel data itself.
type Texture interface {
	Width() int
	Height() int
}

// TextureLoader resolves an atlas page path to its backing texture. The
// parser calls it once per page, in declaration order, before any region of
// that page is returned; a loader error aborts the parse.
type TextureLoader func(page *AtlasPage, path string) (Texture, error)

// AtlasPage describes one texture page of an atlas.
type AtlasPage struct {
	Name      string
	Format    string
	MinFilter string
	MagFilter string
	UWrap     string
	VWrap     string
	PMA       bool
	Width     int
	Height    int
	Texture   Texture // nil when parsed without a loader
}

// AtlasRegion describes one packed region within a page.
type AtlasRegion struct {
	Page           *AtlasPage
	Name           string
	X, Y           int
	Width          int // packed size, already rotated when Degrees != 0
	Height         int
	Degrees        int // 0 or 90, newer packers also emit 270
	OffsetX        float32
	OffsetY        float32
	OriginalWidth  int
	OriginalHeight int
	Index          int
	U, V, U2, V2   float32
}

// Rotate reports whether the region is stored rotated on the page.
func (r *AtlasRegion) Rotate() bool {
	return r.Degrees != 0
}

// Atlas is a parsed texture atlas: its pages and packed regions, both in
// declaration order.
type Atlas struct {
	Pages   []*AtlasPage
	Regions []*AtlasRegion
}

// FindRegion returns the first region with the given name, or nil.
func (a *Atlas) FindRegion(name string) *AtlasRegion {
	for _, region := range a.Regions {
		if region.Name == name {
			return region
		}
	}
	return nil
}

// ParseAtlas parses a libgdx-style atlas descriptor. The loader resolves
// each page's texture as the page header completes; pass nil to parse
// metadata only (pages then need an explicit size line).
func ParseAtlas(data []byte, loader TextureLoader) (*Atlas, error) {
	atlas := &Atlas{}

	var page *AtlasPage
	var region *AtlasRegion
	pageLoaded := false

	loadPage := func() error {
		if page == nil || pageLoaded {
			return nil
		}
		pageLoaded = true
		if loader == nil {
			return nil
		}
		tex, err := loader(page, page.Name)
		if err != nil {
			return fmt.Errorf("loading page %q: %w", page.Name, err)
		}
		page.Texture = tex
		if page.Width == 0 && tex != nil {
			page.Width = tex.Width()
			page.Height = tex.Height()
		}
		return nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if err := loadPage(); err != nil {
				return nil, err
			}
			page = nil
			region = nil
			continue
		}

		if page == nil {
			page = &AtlasPage{Name: line}
			pageLoaded = false
			atlas.Pages = append(atlas.Pages, page)
			continue
		}

		if colon := strings.Index(line, ":"); colon >= 0 {
			key := strings.TrimSpace(line[:colon])
			values := splitValues(line[colon+1:])
			var err error
			if region == nil {
				err = applyPageProp(page, key, values)
			} else {
				err = applyRegionProp(region, key, values)
			}
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedAtlas, lineNo, err)
			}
			continue
		}

		// A bare line inside a page block starts a region.
		if err := loadPage(); err != nil {
			return nil, err
		}
		region = &AtlasRegion{Page: page, Name: line, Index: -1}
		atlas.Regions = append(atlas.Regions, region)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAtlas, err)
	}
	if err := loadPage(); err != nil {
		return nil, err
	}

	if len(atlas.Pages) == 0 {
		return nil, ErrEmptyAtlas
	}

	for _, region := range atlas.Regions {
		if region.OriginalWidth == 0 && region.OriginalHeight == 0 {
			region.OriginalWidth = region.Width
			region.OriginalHeight = region.Height
		}
		if err := computeUVs(region); err != nil {
			return nil, err
		}
	}
	return atlas, nil
}

// ParseAtlasFile parses an atlas descriptor from disk.
func ParseAtlasFile(path string, loader TextureLoader) (*Atlas, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading atlas file: %w", err)
	}
	return ParseAtlas(data, loader)
}

// splitValues splits "a, b, c" into trimmed fields.
func splitValues(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func applyPageProp(page *AtlasPage, key string, values []string) error {
	switch key {
	case "size":
		if len(values) != 2 {
			return fmt.Errorf("size wants 2 values, got %d", len(values))
		}
		w, err := strconv.Atoi(values[0])
		if err != nil {
			return fmt.Errorf("size width: %v", err)
		}
		h, err := strconv.Atoi(values[1])
		if err != nil {
			return fmt.Errorf("size height: %v", err)
		}
		page.Width, page.Height = w, h
	case "format":
		page.Format = values[0]
	case "filter":
		page.MinFilter = values[0]
		if len(values) > 1 {
			page.MagFilter = values[1]
		}
	case "repeat":
		switch values[0] {
		case "x":
			page.UWrap = "repeat"
		case "y":
			page.VWrap = "repeat"
		case "xy":
			page.UWrap, page.VWrap = "repeat", "repeat"
		}
	case "pma":
		page.PMA = values[0] == "true"
	default:
		// Unknown page keys from newer packers are skipped.
	}
	return nil
}

func applyRegionProp(region *AtlasRegion, key string, values []string) error {
	atoi := func(i int) (int, error) {
		if i >= len(values) {
			return 0, fmt.Errorf("%s wants at least %d values", key, i+1)
		}
		return strconv.Atoi(values[i])
	}

	switch key {
	case "rotate":
		switch values[0] {
		case "true":
			region.Degrees = 90
		case "false":
			region.Degrees = 0
		default:
			deg, err := atoi(0)
			if err != nil {
				return fmt.Errorf("rotate: %v", err)
			}
			region.Degrees = deg
		}
	case "xy":
		x, err := atoi(0)
		if err != nil {
			return err
		}
		y, err := atoi(1)
		if err != nil {
			return err
		}
		region.X, region.Y = x, y
	case "size":
		w, err := atoi(0)
		if err != nil {
			return err
		}
		h, err := atoi(1)
		if err != nil {
			return err
		}
		region.Width, region.Height = w, h
	case "bounds":
		// Combined xy + size used by newer packers.
		vals := make([]int, 4)
		for i := range vals {
			v, err := atoi(i)
			if err != nil {
				return err
			}
			vals[i] = v
		}
		region.X, region.Y, region.Width, region.Height = vals[0], vals[1], vals[2], vals[3]
	case "orig":
		w, err := atoi(0)
		if err != nil {
			return err
		}
		h, err := atoi(1)
		if err != nil {
			return err
		}
		region.OriginalWidth, region.OriginalHeight = w, h
	case "offset":
		x, err := strconv.ParseFloat(values[0], 32)
		if err != nil {
			return fmt.Errorf("offset x: %v", err)
		}
		y, err := strconv.ParseFloat(values[1], 32)
		if err != nil {
			return fmt.Errorf("offset y: %v", err)
		}
		region.OffsetX, region.OffsetY = float32(x), float32(y)
	case "offsets":
		// Combined offset + orig used by newer packers.
		vals := make([]int, 4)
		for i := range vals {
			v, err := atoi(i)
			if err != nil {
				return err
			}
			vals[i] = v
		}
		region.OffsetX, region.OffsetY = float32(vals[0]), float32(vals[1])
		region.OriginalWidth, region.OriginalHeight = vals[2], vals[3]
	case "index":
		idx, err := atoi(0)
		if err != nil {
			return err
		}
		region.Index = idx
	case "split", "pad":
		// Ninepatch metadata, not needed for skeletal rendering.
	default:
		// Unknown region keys from newer packers are skipped.
	}
	return nil
}

// computeUVs derives the region's texture coordinates from page dimensions.
func computeUVs(region *AtlasRegion) error {
	page := region.Page
	if page.Width == 0 || page.Height == 0 {
		return fmt.Errorf("%w: page %q", ErrPageSizeUnknown, page.Name)
	}
	invW := 1 / float32(page.Width)
	invH := 1 / float32(page.Height)
	if region.Degrees == 90 {
		region.U = float32(region.X) * invW
		region.V = float32(region.Y) * invH
		region.U2 = float32(region.X+region.Height) * invW
		region.V2 = float32(region.Y+region.Width) * invH
	} else {
		region.U = float32(region.X) * invW
		region.V = float32(region.Y) * invH
		region.U2 = float32(region.X+region.Width) * invW
		region.V2 = float32(region.Y+region.Height) * invH
	}
	return nil
}
