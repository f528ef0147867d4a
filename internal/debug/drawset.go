// Package debug derives world-space overlay geometry from a live skeleton
// pose, one draw set per rendered frame.
package debug

import (
	"github.com/Faultbox/skelview/pkg/math"
)

// Category labels which overlay toggle produced a primitive.
type Category int

const (
	CategoryBones Category = iota
	CategoryRegions
	CategoryMeshHull
	CategoryMeshTriangles
	CategoryClipping
	CategoryPaths
	CategoryBoundingBoxes
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryBones:
		return "bones"
	case CategoryRegions:
		return "regions"
	case CategoryMeshHull:
		return "meshHull"
	case CategoryMeshTriangles:
		return "meshTriangles"
	case CategoryClipping:
		return "clipping"
	case CategoryPaths:
		return "paths"
	case CategoryBoundingBoxes:
		return "boundingBoxes"
	default:
		return "unknown"
	}
}

// Polyline is a connected line strip, optionally closed back to its first
// point.
type Polyline struct {
	Category Category
	Points   []math.Vec2
	Closed   bool
}

// Polygon is a filled outline.
type Polygon struct {
	Category Category
	Points   []math.Vec2
}

// Circle is a disc, filled or outlined.
type Circle struct {
	Category Category
	Center   math.Vec2
	Radius   float32
	Filled   bool
}

// Triangle is a single triangle, filled or wireframe.
type Triangle struct {
	Category   Category
	V0, V1, V2 math.Vec2
	Filled     bool
}

// DrawSet is the overlay geometry extracted from one pose for one frame.
// Primitives are grouped by kind; each carries its category.
type DrawSet struct {
	Polylines []Polyline
	Polygons  []Polygon
	Circles   []Circle
	Triangles []Triangle
}

// Empty reports whether the set holds no primitives.
func (s *DrawSet) Empty() bool {
	return len(s.Polylines) == 0 && len(s.Polygons) == 0 &&
		len(s.Circles) == 0 && len(s.Triangles) == 0
}

// Len returns the total primitive count.
func (s *DrawSet) Len() int {
	return len(s.Polylines) + len(s.Polygons) + len(s.Circles) + len(s.Triangles)
}
