package spine

import "math"

// Attachment is anything that can be placed in a slot: textured regions,
// deformable meshes, and the invisible helper geometry (bounding boxes,
// paths, points, clipping polygons).
type Attachment interface {
	Name() string
}

// VertexAttachment is the base for attachments backed by a vertex list,
// either plain local coordinates or bone-weighted.
type VertexAttachment struct {
	AttachmentName string

	// Bones is nil for unweighted attachments. For weighted ones it holds,
	// per vertex, the bone count followed by that many bone indices.
	Bones []int

	// Vertices holds x,y pairs for unweighted attachments. For weighted
	// ones it holds x,y,weight triples, one per bone influence.
	Vertices []float32

	// WorldVerticesLength is the output length: vertex count * 2.
	WorldVerticesLength int
}

// Name returns the attachment name.
func (v *VertexAttachment) Name() string {
	return v.AttachmentName
}

// ComputeWorldVertices transforms the attachment's local vertices to world
// space using the slot's bone (unweighted) or the skeleton's bones
// (weighted), honoring any active deform on the slot. It writes count
// floats starting at worldVertices[offset], advancing by stride per vertex.
// start and count index into the conceptual x,y vertex stream.
func (v *VertexAttachment) ComputeWorldVertices(slot *Slot, start, count int, worldVertices []float32, offset, stride int) {
	count = offset + (count>>1)*stride
	deform := slot.Deform
	vertices := v.Vertices
	bones := v.Bones

	if bones == nil {
		if len(deform) > 0 {
			vertices = deform
		}
		bone := slot.Bone
		x, y := bone.WorldX, bone.WorldY
		a, b, c, d := bone.A, bone.B, bone.C, bone.D
		for vi, w := start, offset; w < count; vi, w = vi+2, w+stride {
			vx, vy := vertices[vi], vertices[vi+1]
			worldVertices[w] = vx*a + vy*b + x
			worldVertices[w+1] = vx*c + vy*d + y
		}
		return
	}

	vi, skip := 0, 0
	for i := 0; i < start; i += 2 {
		n := bones[vi]
		vi += n + 1
		skip += n
	}
	skeletonBones := slot.Bone.Skeleton.Bones
	if len(deform) == 0 {
		for w, b := offset, skip*3; w < count; w += stride {
			var wx, wy float32
			n := bones[vi]
			vi++
			for end := vi + n; vi < end; vi, b = vi+1, b+3 {
				bone := skeletonBones[bones[vi]]
				vx, vy, weight := vertices[b], vertices[b+1], vertices[b+2]
				wx += (vx*bone.A + vy*bone.B + bone.WorldX) * weight
				wy += (vx*bone.C + vy*bone.D + bone.WorldY) * weight
			}
			worldVertices[w] = wx
			worldVertices[w+1] = wy
		}
		return
	}
	for w, b, f := offset, skip*3, skip<<1; w < count; w += stride {
		var wx, wy float32
		n := bones[vi]
		vi++
		for end := vi + n; vi < end; vi, b, f = vi+1, b+3, f+2 {
			bone := skeletonBones[bones[vi]]
			vx := vertices[b] + deform[f]
			vy := vertices[b+1] + deform[f+1]
			weight := vertices[b+2]
			wx += (vx*bone.A + vy*bone.B + bone.WorldX) * weight
			wy += (vx*bone.C + vy*bone.D + bone.WorldY) * weight
		}
		worldVertices[w] = wx
		worldVertices[w+1] = wy
	}
}

// RegionAttachment is a textured quad attached to a single bone.
type RegionAttachment struct {
	AttachmentName string
	Path           string
	X, Y           float32
	ScaleX, ScaleY float32
	Rotation       float32 // degrees
	Width, Height  float32
	Color          uint32 // RGBA8888
	Region         *AtlasRegion

	offset [8]float32 // local corner positions: BL, TL, TR, BR
	UVs    [8]float32
}

// Name returns the attachment name.
func (a *RegionAttachment) Name() string {
	return a.AttachmentName
}

// SetRegion associates the atlas region and derives corner UVs.
func (a *RegionAttachment) SetRegion(region *AtlasRegion) {
	a.Region = region
	if region == nil {
		return
	}
	if region.Rotate() {
		a.UVs = [8]float32{
			region.U2, region.V2,
			region.U, region.V2,
			region.U, region.V,
			region.U2, region.V,
		}
	} else {
		a.UVs = [8]float32{
			region.U, region.V2,
			region.U, region.V,
			region.U2, region.V,
			region.U2, region.V2,
		}
	}
}

// UpdateOffset recomputes the local corner table from the attachment's
// transform and the atlas region's trim metadata. Call after any of the
// transform fields or the region change.
func (a *RegionAttachment) UpdateOffset() {
	var localX, localY, localX2, localY2 float32
	if a.Region != nil && a.Region.OriginalWidth != 0 && a.Region.OriginalHeight != 0 {
		regionScaleX := a.Width / float32(a.Region.OriginalWidth) * a.ScaleX
		regionScaleY := a.Height / float32(a.Region.OriginalHeight) * a.ScaleY
		localX = -a.Width/2*a.ScaleX + a.Region.OffsetX*regionScaleX
		localY = -a.Height/2*a.ScaleY + a.Region.OffsetY*regionScaleY
		localX2 = localX + float32(a.Region.Width)*regionScaleX
		localY2 = localY + float32(a.Region.Height)*regionScaleY
	} else {
		localX = -a.Width / 2 * a.ScaleX
		localY = -a.Height / 2 * a.ScaleY
		localX2 = -localX
		localY2 = -localY
	}

	radians := float64(a.Rotation) * math.Pi / 180
	cos := float32(math.Cos(radians))
	sin := float32(math.Sin(radians))
	localXCos := localX*cos + a.X
	localXSin := localX * sin
	localYCos := localY*cos + a.Y
	localYSin := localY * sin
	localX2Cos := localX2*cos + a.X
	localX2Sin := localX2 * sin
	localY2Cos := localY2*cos + a.Y
	localY2Sin := localY2 * sin

	a.offset[0] = localXCos - localYSin
	a.offset[1] = localYCos + localXSin
	a.offset[2] = localXCos - localY2Sin
	a.offset[3] = localY2Cos + localXSin
	a.offset[4] = localX2Cos - localY2Sin
	a.offset[5] = localY2Cos + localX2Sin
	a.offset[6] = localX2Cos - localYSin
	a.offset[7] = localYCos + localX2Sin
}

// ComputeWorldVertices writes the quad's four world-space corners, 8 floats
// starting at worldVertices[offset], advancing by stride per corner.
func (a *RegionAttachment) ComputeWorldVertices(bone *Bone, worldVertices []float32, offset, stride int) {
	x, y := bone.WorldX, bone.WorldY
	ba, bb, bc, bd := bone.A, bone.B, bone.C, bone.D
	for i := 0; i < 8; i += 2 {
		ox, oy := a.offset[i], a.offset[i+1]
		worldVertices[offset] = ox*ba + oy*bb + x
		worldVertices[offset+1] = ox*bc + oy*bd + y
		offset += stride
	}
}

// MeshAttachment is a textured triangle mesh, optionally bone-weighted.
type MeshAttachment struct {
	VertexAttachment
	Path      string
	Color     uint32 // RGBA8888
	RegionUVs []float32
	UVs       []float32
	Triangles []uint16

	// HullLength is the number of vertices forming the hull outline; those
	// vertices come first in the vertex list.
	HullLength int

	Edges         []uint16
	Width, Height float32
	Region        *AtlasRegion

	// ParentMesh is set for linked meshes; the geometry fields above are
	// copied from it when the skeleton is parsed.
	ParentMesh    *MeshAttachment
	InheritDeform bool
}

// UpdateUVs maps the mesh's normalized UVs through the atlas region.
func (m *MeshAttachment) UpdateUVs() {
	if len(m.UVs) != len(m.RegionUVs) {
		m.UVs = make([]float32, len(m.RegionUVs))
	}
	var u, v float32
	width, height := float32(1), float32(1)
	if m.Region != nil {
		u, v = m.Region.U, m.Region.V
		width, height = m.Region.U2-m.Region.U, m.Region.V2-m.Region.V
	}
	if m.Region != nil && m.Region.Degrees == 90 {
		for i := 0; i < len(m.RegionUVs); i += 2 {
			m.UVs[i] = u + m.RegionUVs[i+1]*width
			m.UVs[i+1] = v + height - m.RegionUVs[i]*height
		}
		return
	}
	for i := 0; i < len(m.RegionUVs); i += 2 {
		m.UVs[i] = u + m.RegionUVs[i]*width
		m.UVs[i+1] = v + m.RegionUVs[i+1]*height
	}
}

// linkTo copies the shared geometry from the parent mesh.
func (m *MeshAttachment) linkTo(parent *MeshAttachment) {
	m.ParentMesh = parent
	m.Bones = parent.Bones
	m.Vertices = parent.Vertices
	m.WorldVerticesLength = parent.WorldVerticesLength
	m.RegionUVs = parent.RegionUVs
	m.Triangles = parent.Triangles
	m.HullLength = parent.HullLength
	m.Edges = parent.Edges
}

// BoundingBoxAttachment is an invisible polygon used for hit detection.
type BoundingBoxAttachment struct {
	VertexAttachment
	Color uint32 // RGBA8888, editor only
}

// PathAttachment is a composite Bezier path that constraints can follow.
type PathAttachment struct {
	VertexAttachment
	Closed        bool
	ConstantSpeed bool
	Lengths       []float32
	Color         uint32 // RGBA8888, editor only
}

// ClippingAttachment is a polygon that clips the draw order between its
// slot and EndSlot.
type ClippingAttachment struct {
	VertexAttachment
	EndSlot *SlotData
	Color   uint32 // RGBA8888, editor only
}

// PointAttachment is a named position and rotation on a bone.
type PointAttachment struct {
	AttachmentName string
	X, Y           float32
	Rotation       float32
	Color          uint32 // RGBA8888, editor only
}

// Name returns the attachment name.
func (p *PointAttachment) Name() string {
	return p.AttachmentName
}

// ComputeWorldPosition returns the point's world-space position.
func (p *PointAttachment) ComputeWorldPosition(bone *Bone) (float32, float32) {
	x := p.X*bone.A + p.Y*bone.B + bone.WorldX
	y := p.X*bone.C + p.Y*bone.D + bone.WorldY
	return x, y
}
