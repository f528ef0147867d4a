package debug

import (
	"github.com/Faultbox/skelview/pkg/math"
	"github.com/Faultbox/skelview/pkg/spine"
)

// Toggles selects which overlay categories Extract emits. The zero value
// disables everything.
type Toggles struct {
	Bones         bool
	Regions       bool
	MeshHull      bool
	MeshTriangles bool
	Clipping      bool
	Paths         bool
	BoundingBoxes bool
}

// Any reports whether at least one category is enabled.
func (t Toggles) Any() bool {
	return t.Bones || t.Regions || t.MeshHull || t.MeshTriangles ||
		t.Clipping || t.Paths || t.BoundingBoxes
}

// Extractor sizes the emitted primitives. Dimensions are world-space units.
type Extractor struct {
	BoneWidth   float32 // base width of a bone body triangle
	PivotRadius float32 // bone origin marker
	PointRadius float32 // path control point marker
}

// New returns an Extractor with default sizing.
func New() *Extractor {
	return &Extractor{
		BoneWidth:   4,
		PivotRadius: 3,
		PointRadius: 2.5,
	}
}

// Extract derives overlay geometry from the pose with default sizing.
func Extract(skel *spine.Skeleton, t Toggles) *DrawSet {
	return New().Extract(skel, t)
}

// Extract walks the pose and emits one primitive set per enabled category.
// It holds no state between calls and never mutates the pose; callers run
// it once per frame against fresh world transforms.
func (e *Extractor) Extract(skel *spine.Skeleton, t Toggles) *DrawSet {
	set := &DrawSet{}
	if !t.Any() {
		return set
	}

	if t.Bones {
		for _, bone := range skel.Bones {
			e.emitBone(set, bone)
		}
	}

	if t.Regions || t.MeshHull || t.MeshTriangles || t.Clipping || t.Paths || t.BoundingBoxes {
		for _, slot := range skel.DrawOrder {
			e.emitAttachment(set, slot, t)
		}
	}
	return set
}

// emitBone draws a tapered body from origin to tip plus a pivot marker.
// Zero-length bones are control points and get a ring with an inscribed X.
func (e *Extractor) emitBone(set *DrawSet, bone *spine.Bone) {
	origin := math.Vec2{X: bone.WorldX, Y: bone.WorldY}

	if bone.Data.Length == 0 {
		r := e.PivotRadius * 2
		set.Circles = append(set.Circles, Circle{
			Category: CategoryBones,
			Center:   origin,
			Radius:   r,
		})
		d := r * 0.70710678 // 45 degree stroke endpoints on the ring
		set.Polylines = append(set.Polylines,
			Polyline{
				Category: CategoryBones,
				Points: []math.Vec2{
					{X: origin.X - d, Y: origin.Y - d},
					{X: origin.X + d, Y: origin.Y + d},
				},
			},
			Polyline{
				Category: CategoryBones,
				Points: []math.Vec2{
					{X: origin.X - d, Y: origin.Y + d},
					{X: origin.X + d, Y: origin.Y - d},
				},
			},
		)
		return
	}

	tipX, tipY := bone.LocalToWorld(bone.Data.Length, 0)
	tip := math.Vec2{X: tipX, Y: tipY}

	// Base width is perpendicular to the normalized direction, so bone
	// scale stretches the body along its axis only.
	perp := tip.Sub(origin).Normalize().Perp().Scale(e.BoneWidth / 2)
	set.Triangles = append(set.Triangles, Triangle{
		Category: CategoryBones,
		V0:       origin.Add(perp),
		V1:       origin.Sub(perp),
		V2:       tip,
		Filled:   true,
	})
	set.Circles = append(set.Circles, Circle{
		Category: CategoryBones,
		Center:   origin,
		Radius:   e.PivotRadius,
		Filled:   true,
	})
}

// emitAttachment dispatches on the slot's active attachment kind, each
// gated by its own toggle.
func (e *Extractor) emitAttachment(set *DrawSet, slot *spine.Slot, t Toggles) {
	switch att := slot.Attachment.(type) {
	case *spine.RegionAttachment:
		if !t.Regions {
			return
		}
		var world [8]float32
		att.ComputeWorldVertices(slot.Bone, world[:], 0, 2)
		set.Polylines = append(set.Polylines, Polyline{
			Category: CategoryRegions,
			Points:   points(world[:]),
			Closed:   true,
		})

	case *spine.MeshAttachment:
		if !t.MeshHull && !t.MeshTriangles {
			return
		}
		world := make([]float32, att.WorldVerticesLength)
		att.ComputeWorldVertices(slot, 0, att.WorldVerticesLength, world, 0, 2)

		if t.MeshHull && att.HullLength >= 2 && att.HullLength*2 <= len(world) {
			set.Polylines = append(set.Polylines, Polyline{
				Category: CategoryMeshHull,
				Points:   points(world[:att.HullLength*2]),
				Closed:   true,
			})
		}
		if t.MeshTriangles {
			for i := 0; i+2 < len(att.Triangles); i += 3 {
				v0 := int(att.Triangles[i]) * 2
				v1 := int(att.Triangles[i+1]) * 2
				v2 := int(att.Triangles[i+2]) * 2
				set.Triangles = append(set.Triangles, Triangle{
					Category: CategoryMeshTriangles,
					V0:       math.Vec2{X: world[v0], Y: world[v0+1]},
					V1:       math.Vec2{X: world[v1], Y: world[v1+1]},
					V2:       math.Vec2{X: world[v2], Y: world[v2+1]},
				})
			}
		}

	case *spine.ClippingAttachment:
		if !t.Clipping {
			return
		}
		world := make([]float32, att.WorldVerticesLength)
		att.ComputeWorldVertices(slot, 0, att.WorldVerticesLength, world, 0, 2)
		set.Polygons = append(set.Polygons, Polygon{
			Category: CategoryClipping,
			Points:   points(world),
		})

	case *spine.PathAttachment:
		if !t.Paths {
			return
		}
		world := make([]float32, att.WorldVerticesLength)
		att.ComputeWorldVertices(slot, 0, att.WorldVerticesLength, world, 0, 2)
		pts := points(world)
		set.Polylines = append(set.Polylines, Polyline{
			Category: CategoryPaths,
			Points:   pts,
			Closed:   att.Closed,
		})
		for _, pt := range pts {
			set.Circles = append(set.Circles, Circle{
				Category: CategoryPaths,
				Center:   pt,
				Radius:   e.PointRadius,
				Filled:   true,
			})
		}

	case *spine.BoundingBoxAttachment:
		if !t.BoundingBoxes {
			return
		}
		world := make([]float32, att.WorldVerticesLength)
		att.ComputeWorldVertices(slot, 0, att.WorldVerticesLength, world, 0, 2)
		set.Polygons = append(set.Polygons, Polygon{
			Category: CategoryBoundingBoxes,
			Points:   points(world),
		})
	}
}

// points reinterprets a flat x,y vertex buffer as vectors.
func points(world []float32) []math.Vec2 {
	pts := make([]math.Vec2, 0, len(world)/2)
	for i := 0; i+1 < len(world); i += 2 {
		pts = append(pts, math.Vec2{X: world[i], Y: world[i+1]})
	}
	return pts
}
