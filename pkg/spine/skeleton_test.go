package spine

import (
	"errors"
	"math"
	"testing"
)

func approxEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

// poseData builds a root bone with one child offset 10 units along x and a
// slot on the root, bypassing the binary decoder.
func poseData() *SkeletonData {
	root := &BoneData{Index: 0, Name: "root", ScaleX: 1, ScaleY: 1}
	limb := &BoneData{Index: 1, Name: "limb", Parent: root, X: 10, ScaleX: 1, ScaleY: 1}
	slot := &SlotData{Index: 0, Name: "anchor", BoneData: root, Color: 0xFFFFFFFF}
	return &SkeletonData{
		Bones: []*BoneData{root, limb},
		Slots: []*SlotData{slot},
	}
}

func TestSkeleton_SetupPose(t *testing.T) {
	data, err := ParseSkeleton(buildSyntheticSkeleton("3.8.95"), nil)
	if err != nil {
		t.Fatalf("failed to parse skeleton: %v", err)
	}
	skeleton := NewSkeleton(data)

	root := skeleton.Bones[0]
	if !approxEqual(root.A, 1) || !approxEqual(root.B, 0) ||
		!approxEqual(root.C, 0) || !approxEqual(root.D, 1) {
		t.Errorf("expected identity root matrix, got [%v %v %v %v]", root.A, root.B, root.C, root.D)
	}

	// The arm sits 50 units out and is rotated 90 degrees.
	arm := skeleton.Bones[1]
	if !approxEqual(arm.WorldX, 50) || !approxEqual(arm.WorldY, 0) {
		t.Errorf("expected arm at (50,0), got (%v,%v)", arm.WorldX, arm.WorldY)
	}
	tipX, tipY := arm.LocalToWorld(arm.Data.Length, 0)
	if !approxEqual(tipX, 50) || !approxEqual(tipY, 30) {
		t.Errorf("expected arm tip at (50,30), got (%v,%v)", tipX, tipY)
	}

	if len(skeleton.DrawOrder) != 1 || skeleton.DrawOrder[0] != skeleton.Slots[0] {
		t.Error("expected draw order to mirror the slots")
	}
	slot := skeleton.Slots[0]
	if slot.Bone != arm {
		t.Error("expected slot bound to the arm bone")
	}
	region, ok := slot.Attachment.(*RegionAttachment)
	if !ok || region.Width != 64 {
		t.Errorf("expected setup attachment 'front' 64 wide, got %v", slot.Attachment)
	}
}

func TestSkeleton_Origin(t *testing.T) {
	data, err := ParseSkeleton(buildSyntheticSkeleton("3.8.95"), nil)
	if err != nil {
		t.Fatalf("failed to parse skeleton: %v", err)
	}
	skeleton := NewSkeleton(data)
	skeleton.X, skeleton.Y = 100, -20
	skeleton.UpdateWorldTransform()

	root := skeleton.Bones[0]
	if !approxEqual(root.WorldX, 100) || !approxEqual(root.WorldY, -20) {
		t.Errorf("expected root at (100,-20), got (%v,%v)", root.WorldX, root.WorldY)
	}
	arm := skeleton.Bones[1]
	if !approxEqual(arm.WorldX, 150) || !approxEqual(arm.WorldY, -20) {
		t.Errorf("expected arm at (150,-20), got (%v,%v)", arm.WorldX, arm.WorldY)
	}
}

func TestSkeleton_FlipX(t *testing.T) {
	data, err := ParseSkeleton(buildSyntheticSkeleton("3.8.95"), nil)
	if err != nil {
		t.Fatalf("failed to parse skeleton: %v", err)
	}
	skeleton := NewSkeleton(data)
	skeleton.ScaleX = -1
	skeleton.UpdateWorldTransform()

	root := skeleton.Bones[0]
	if !approxEqual(root.A, -1) {
		t.Errorf("expected mirrored root.A -1, got %v", root.A)
	}
	arm := skeleton.Bones[1]
	if !approxEqual(arm.WorldX, -50) {
		t.Errorf("expected arm mirrored to x=-50, got %v", arm.WorldX)
	}
}

func TestBone_ScaleAndShear(t *testing.T) {
	skeleton := NewSkeleton(poseData())
	root := skeleton.Bones[0]
	limb := skeleton.Bones[1]

	root.ScaleX = 2
	skeleton.UpdateWorldTransform()
	if !approxEqual(root.A, 2) {
		t.Errorf("expected root.A 2, got %v", root.A)
	}
	if !approxEqual(limb.WorldX, 20) {
		t.Errorf("expected limb at x=20 under scaled parent, got %v", limb.WorldX)
	}

	root.SetToSetupPose()
	root.ShearX = 45
	skeleton.UpdateWorldTransform()
	want := float32(math.Cos(math.Pi / 4))
	if !approxEqual(root.A, want) {
		t.Errorf("expected sheared root.A %v, got %v", want, root.A)
	}
}

func TestBone_TransformModes(t *testing.T) {
	t.Run("only translation", func(t *testing.T) {
		data := poseData()
		data.Bones[1].TransformMode = TransformOnlyTranslation
		skeleton := NewSkeleton(data)
		root := skeleton.Bones[0]
		limb := skeleton.Bones[1]

		root.Rotation = 90
		skeleton.UpdateWorldTransform()
		if !approxEqual(limb.WorldX, 0) || !approxEqual(limb.WorldY, 10) {
			t.Errorf("expected limb carried to (0,10), got (%v,%v)", limb.WorldX, limb.WorldY)
		}
		if !approxEqual(limb.A, 1) || !approxEqual(limb.C, 0) {
			t.Errorf("expected limb orientation unrotated, got A=%v C=%v", limb.A, limb.C)
		}
	})

	t.Run("no scale", func(t *testing.T) {
		data := poseData()
		data.Bones[1].TransformMode = TransformNoScale
		skeleton := NewSkeleton(data)
		root := skeleton.Bones[0]
		limb := skeleton.Bones[1]

		root.ScaleX = 2
		skeleton.UpdateWorldTransform()
		if !approxEqual(limb.WorldX, 20) {
			t.Errorf("expected limb translation scaled to x=20, got %v", limb.WorldX)
		}
		if !approxEqual(limb.A, 1) || !approxEqual(limb.D, 1) {
			t.Errorf("expected unit limb scale, got A=%v D=%v", limb.A, limb.D)
		}
	})
}

func TestRegionAttachment_ComputeWorldVertices(t *testing.T) {
	skeleton := NewSkeleton(poseData())
	bone := skeleton.Bones[0]
	bone.X, bone.Y = 5, 7
	skeleton.UpdateWorldTransform()

	region := &RegionAttachment{
		AttachmentName: "card",
		ScaleX:         1,
		ScaleY:         1,
		Width:          4,
		Height:         2,
	}
	region.UpdateOffset()

	var world [8]float32
	region.ComputeWorldVertices(bone, world[:], 0, 2)

	// Corners run bottom-left, top-left, top-right, bottom-right.
	want := [8]float32{3, 6, 3, 8, 7, 8, 7, 6}
	for i := range want {
		if !approxEqual(world[i], want[i]) {
			t.Errorf("corner float %d = %v, want %v", i, world[i], want[i])
		}
	}
}

func TestRegionAttachment_TrimmedRegion(t *testing.T) {
	atlasRegion := &AtlasRegion{
		Width:          32,
		Height:         32,
		OffsetX:        16,
		OffsetY:        16,
		OriginalWidth:  64,
		OriginalHeight: 64,
	}
	region := &RegionAttachment{
		AttachmentName: "trimmed",
		ScaleX:         1,
		ScaleY:         1,
		Width:          64,
		Height:         64,
		Region:         atlasRegion,
	}
	region.UpdateOffset()

	skeleton := NewSkeleton(poseData())
	var world [8]float32
	region.ComputeWorldVertices(skeleton.Bones[0], world[:], 0, 2)

	// Whitespace stripping pulls the quad in to the packed 32x32 area.
	if !approxEqual(world[0], -16) || !approxEqual(world[1], -16) {
		t.Errorf("expected bottom-left (-16,-16), got (%v,%v)", world[0], world[1])
	}
	if !approxEqual(world[4], 16) || !approxEqual(world[5], 16) {
		t.Errorf("expected top-right (16,16), got (%v,%v)", world[4], world[5])
	}
}

func TestVertexAttachment_ComputeWorldVertices(t *testing.T) {
	skeleton := NewSkeleton(poseData())
	slot := skeleton.Slots[0]
	bone := skeleton.Bones[0]
	bone.X = 10
	skeleton.UpdateWorldTransform()

	attachment := &VertexAttachment{
		AttachmentName:      "poly",
		Vertices:            []float32{1, 0, 0, 1},
		WorldVerticesLength: 4,
	}

	var world [4]float32
	attachment.ComputeWorldVertices(slot, 0, 4, world[:], 0, 2)
	want := [4]float32{11, 0, 10, 1}
	for i := range want {
		if !approxEqual(world[i], want[i]) {
			t.Errorf("world float %d = %v, want %v", i, world[i], want[i])
		}
	}

	// An active deform replaces the setup vertices.
	slot.Deform = []float32{2, 0, 0, 2}
	attachment.ComputeWorldVertices(slot, 0, 4, world[:], 0, 2)
	want = [4]float32{12, 0, 10, 2}
	for i := range want {
		if !approxEqual(world[i], want[i]) {
			t.Errorf("deformed float %d = %v, want %v", i, world[i], want[i])
		}
	}
}

func TestVertexAttachment_WeightedWorldVertices(t *testing.T) {
	skeleton := NewSkeleton(poseData())
	slot := skeleton.Slots[0]

	// One vertex split evenly between the root and the limb at (10,0).
	mesh := &MeshAttachment{}
	mesh.AttachmentName = "weighted"
	mesh.Bones = []int{2, 0, 1}
	mesh.Vertices = []float32{4, 0, 0.5, -6, 0, 0.5}
	mesh.WorldVerticesLength = 2

	var world [2]float32
	mesh.ComputeWorldVertices(slot, 0, 2, world[:], 0, 2)
	if !approxEqual(world[0], 4) || !approxEqual(world[1], 0) {
		t.Errorf("weighted vertex = (%v,%v), want (4,0)", world[0], world[1])
	}
}

func TestPointAttachment_WorldPosition(t *testing.T) {
	skeleton := NewSkeleton(poseData())
	bone := skeleton.Bones[0]
	bone.X = 10
	skeleton.UpdateWorldTransform()

	point := &PointAttachment{AttachmentName: "pin", X: 5, Y: 6}
	x, y := point.ComputeWorldPosition(bone)
	if !approxEqual(x, 15) || !approxEqual(y, 6) {
		t.Errorf("expected point at (15,6), got (%v,%v)", x, y)
	}
}

func TestSkeleton_SkinSwitching(t *testing.T) {
	data, err := ParseSkeleton(buildSyntheticSkeleton("3.8.95"), nil)
	if err != nil {
		t.Fatalf("failed to parse skeleton: %v", err)
	}
	skeleton := NewSkeleton(data)
	slot := skeleton.Slots[0]

	region, ok := slot.Attachment.(*RegionAttachment)
	if !ok || region.Width != 64 {
		t.Fatalf("expected default skin attachment 64 wide, got %v", slot.Attachment)
	}

	if err := skeleton.SetSkinByName("alt"); err != nil {
		t.Fatalf("failed to switch skin: %v", err)
	}
	region, ok = slot.Attachment.(*RegionAttachment)
	if !ok || region.Width != 16 {
		t.Errorf("expected alt skin attachment 16 wide, got %v", slot.Attachment)
	}

	if err := skeleton.SetSkinByName("missing"); !errors.Is(err, ErrSkinNotFound) {
		t.Errorf("expected ErrSkinNotFound, got %v", err)
	}
}

func TestSkeleton_IndependentPoses(t *testing.T) {
	data, err := ParseSkeleton(buildSyntheticSkeleton("3.8.95"), nil)
	if err != nil {
		t.Fatalf("failed to parse skeleton: %v", err)
	}

	first := NewSkeleton(data)
	second := NewSkeleton(data)

	first.Bones[1].Rotation = 0
	first.UpdateWorldTransform()

	if !approxEqual(first.Bones[1].A, 1) {
		t.Errorf("expected straightened arm in first pose, got A=%v", first.Bones[1].A)
	}
	if !approxEqual(second.Bones[1].B, -1) {
		t.Errorf("expected second pose untouched, got B=%v", second.Bones[1].B)
	}

	first.SetBonesToSetupPose()
	if first.Bones[1].Rotation != 90 {
		t.Errorf("expected setup rotation restored, got %v", first.Bones[1].Rotation)
	}
}
