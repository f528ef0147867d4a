package spine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// skelBuilder assembles a synthetic skeleton binary export. Strings written
// by reference must be registered in the table up front.
type skelBuilder struct {
	buf   bytes.Buffer
	table []string
}

func (b *skelBuilder) writeByte(v byte) {
	b.buf.WriteByte(v)
}

func (b *skelBuilder) writeBool(v bool) {
	if v {
		b.buf.WriteByte(1)
	} else {
		b.buf.WriteByte(0)
	}
}

func (b *skelBuilder) writeVarint(v int) {
	u := uint32(v)
	for u >= 0x80 {
		b.buf.WriteByte(byte(u) | 0x80)
		u >>= 7
	}
	b.buf.WriteByte(byte(u))
}

func (b *skelBuilder) writeSignedVarint(v int) {
	b.writeVarint(int(uint32((int32(v) << 1) ^ (int32(v) >> 31))))
}

func (b *skelBuilder) writeFloat(v float32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], math.Float32bits(v))
	b.buf.Write(tmp[:])
}

func (b *skelBuilder) writeInt32(v int32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	b.buf.Write(tmp[:])
}

func (b *skelBuilder) writeUint16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.buf.Write(tmp[:])
}

func (b *skelBuilder) writeString(s string) {
	b.writeVarint(len(s) + 1)
	b.buf.WriteString(s)
}

// writeNull writes an absent string or string reference.
func (b *skelBuilder) writeNull() {
	b.writeVarint(0)
}

func (b *skelBuilder) writeStringRef(s string) {
	if s == "" {
		b.writeVarint(0)
		return
	}
	for i, entry := range b.table {
		if entry == s {
			b.writeVarint(i + 1)
			return
		}
	}
	panic("writeStringRef: " + s + " not in table")
}

func (b *skelBuilder) writeTable() {
	b.writeVarint(len(b.table))
	for _, s := range b.table {
		b.writeString(s)
	}
}

func (b *skelBuilder) writeBone(name string, parent int, rotation, x, y, length float32) {
	b.writeString(name)
	if parent >= 0 {
		b.writeVarint(parent)
	}
	b.writeFloat(rotation)
	b.writeFloat(x)
	b.writeFloat(y)
	b.writeFloat(1) // scaleX
	b.writeFloat(1) // scaleY
	b.writeFloat(0) // shearX
	b.writeFloat(0) // shearY
	b.writeFloat(length)
	b.writeVarint(0)   // normal transform inheritance
	b.writeBool(false) // not skin required
}

func (b *skelBuilder) writeSlot(name string, bone int, color int32, attachment string, blend int) {
	b.writeString(name)
	b.writeVarint(bone)
	b.writeInt32(color)
	b.writeInt32(-1) // no dark color
	b.writeStringRef(attachment)
	b.writeVarint(blend)
}

// writeSkinEntry begins one skin attachment entry: the placement name
// followed by a null name override and the attachment type.
func (b *skelBuilder) writeSkinEntry(name string, kind byte) {
	b.writeStringRef(name)
	b.writeNull()
	b.writeByte(kind)
}

func (b *skelBuilder) writeRegionBody(rotation, x, y, width, height float32) {
	b.writeNull() // path defaults to the attachment name
	b.writeFloat(rotation)
	b.writeFloat(x)
	b.writeFloat(y)
	b.writeFloat(1) // scaleX
	b.writeFloat(1) // scaleY
	b.writeFloat(width)
	b.writeFloat(height)
	b.writeInt32(-1) // opaque white
}

func (b *skelBuilder) writeMeshBody(vertices, uvs []float32, triangles []uint16, hull int) {
	b.writeNull()    // path defaults to the attachment name
	b.writeInt32(-1) // opaque white
	b.writeVarint(len(uvs) / 2)
	for _, v := range uvs {
		b.writeFloat(v)
	}
	b.writeVarint(len(triangles))
	for _, t := range triangles {
		b.writeUint16(t)
	}
	b.writeBool(false) // unweighted
	for _, v := range vertices {
		b.writeFloat(v)
	}
	b.writeVarint(hull)
}

// buildSyntheticSkeleton encodes a two-bone skeleton with a region and mesh
// in the default skin, an alternate skin, one event, and one animation.
func buildSyntheticSkeleton(version string) []byte {
	b := &skelBuilder{table: []string{"front", "mesh", "alt", "footstep"}}

	b.writeString("testhash")
	b.writeString(version)
	b.writeFloat(-64) // x
	b.writeFloat(-32) // y
	b.writeFloat(128) // width
	b.writeFloat(64)  // height
	b.writeBool(false)
	b.writeTable()

	b.writeVarint(2)
	b.writeBone("root", -1, 0, 0, 0, 50)
	b.writeBone("arm", 0, 90, 50, 0, 30)

	b.writeVarint(1)
	b.writeSlot("body", 1, int32(uint32(0xFF6633CC)), "front", 1)

	b.writeVarint(0) // ik constraints
	b.writeVarint(0) // transform constraints
	b.writeVarint(0) // path constraints

	// Default skin: a region and a mesh on the one slot.
	b.writeVarint(1) // slot count
	b.writeVarint(0) // slot index
	b.writeVarint(2) // attachment count
	b.writeSkinEntry("front", attachmentRegion)
	b.writeRegionBody(45, 10, 20, 64, 32)
	b.writeSkinEntry("mesh", attachmentMesh)
	b.writeMeshBody(
		[]float32{0, 0, 32, 0, 32, 32},
		[]float32{0, 0, 1, 0, 1, 1},
		[]uint16{0, 1, 2},
		3,
	)

	// One alternate skin swapping the region for a smaller one.
	b.writeVarint(1)
	b.writeStringRef("alt")
	for i := 0; i < 4; i++ {
		b.writeVarint(0) // bone and constraint references
	}
	b.writeVarint(1) // slot count
	b.writeVarint(0)
	b.writeVarint(1)
	b.writeSkinEntry("front", attachmentRegion)
	b.writeRegionBody(0, 0, 0, 16, 16)

	// Events.
	b.writeVarint(1)
	b.writeStringRef("footstep")
	b.writeSignedVarint(-3)
	b.writeFloat(1.5)
	b.writeString("step")
	b.writeNull() // no audio

	// Animations.
	b.writeVarint(1)
	b.writeString("walk")

	b.writeVarint(1) // slot timeline blocks
	b.writeVarint(0) // slot index
	b.writeVarint(1) // timeline count
	b.writeByte(timelineSlotAttachment)
	b.writeVarint(2) // frames
	b.writeFloat(0)
	b.writeNull()
	b.writeFloat(0.5)
	b.writeStringRef("front")

	b.writeVarint(1) // bone timeline blocks
	b.writeVarint(1) // bone index
	b.writeVarint(1) // timeline count
	b.writeByte(timelineBoneRotate)
	b.writeVarint(2) // frames
	b.writeFloat(0)
	b.writeFloat(45)
	b.writeByte(0) // linear curve
	b.writeFloat(1.25)
	b.writeFloat(90)

	b.writeVarint(0) // ik timelines
	b.writeVarint(0) // transform timelines
	b.writeVarint(0) // path timelines
	b.writeVarint(0) // deform timelines
	b.writeVarint(0) // draw order timelines

	b.writeVarint(1) // event timeline frames
	b.writeFloat(0.75)
	b.writeVarint(0) // event index
	b.writeSignedVarint(7)
	b.writeFloat(2)
	b.writeBool(false) // keep setup string value

	return b.buf.Bytes()
}

// buildAttachmentZooSkeleton encodes one of every remaining attachment kind:
// a weighted bounding box, a path, a point, a clipping polygon, and a linked
// mesh with its parent.
func buildAttachmentZooSkeleton() []byte {
	b := &skelBuilder{table: []string{"bbox", "track", "pin", "scissors", "base", "linked"}}

	b.writeString("testhash")
	b.writeString("3.8.75")
	for i := 0; i < 4; i++ {
		b.writeFloat(0) // bounds
	}
	b.writeBool(false)
	b.writeTable()

	b.writeVarint(1)
	b.writeBone("root", -1, 0, 0, 0, 0)

	b.writeVarint(2)
	b.writeSlot("a", 0, -1, "", 0)
	b.writeSlot("b", 0, -1, "", 0)

	b.writeVarint(0) // ik constraints
	b.writeVarint(0) // transform constraints
	b.writeVarint(0) // path constraints

	b.writeVarint(2) // default skin slot count

	b.writeVarint(0) // slot a
	b.writeVarint(4)
	b.writeSkinEntry("bbox", attachmentBoundingBox)
	b.writeVarint(2)  // vertex count
	b.writeBool(true) // weighted
	b.writeVarint(1)  // influences on vertex 0
	b.writeVarint(0)  // bone
	b.writeFloat(1)   // x
	b.writeFloat(2)   // y
	b.writeFloat(1)   // weight
	b.writeVarint(1)  // influences on vertex 1
	b.writeVarint(0)
	b.writeFloat(3)
	b.writeFloat(4)
	b.writeFloat(1)

	b.writeSkinEntry("track", attachmentPath)
	b.writeBool(true) // closed
	b.writeBool(true) // constant speed
	b.writeVarint(3)  // vertex count
	b.writeBool(false)
	for _, v := range []float32{0, 0, 10, 0, 20, 0} {
		b.writeFloat(v)
	}
	b.writeFloat(30) // segment length

	b.writeSkinEntry("pin", attachmentPoint)
	b.writeFloat(15) // rotation
	b.writeFloat(5)  // x
	b.writeFloat(6)  // y

	b.writeSkinEntry("scissors", attachmentClipping)
	b.writeVarint(1) // end slot
	b.writeVarint(3) // vertex count
	b.writeBool(false)
	for _, v := range []float32{0, 0, 8, 0, 8, 8} {
		b.writeFloat(v)
	}

	b.writeVarint(1) // slot b
	b.writeVarint(2)
	b.writeSkinEntry("base", attachmentMesh)
	b.writeMeshBody(
		[]float32{0, 0, 16, 0, 16, 16},
		[]float32{0, 0, 1, 0, 1, 1},
		[]uint16{0, 1, 2},
		3,
	)
	b.writeSkinEntry("linked", attachmentLinkedMesh)
	b.writeNull()    // path defaults to the attachment name
	b.writeInt32(-1) // opaque white
	b.writeNull()    // parent lives in the default skin
	b.writeStringRef("base")
	b.writeBool(true) // inherit deform

	b.writeVarint(0) // skins
	b.writeVarint(0) // events
	b.writeVarint(0) // animations

	return b.buf.Bytes()
}

func TestParseSkeleton_Header(t *testing.T) {
	skel, err := ParseSkeleton(buildSyntheticSkeleton("3.8.95"), nil)
	if err != nil {
		t.Fatalf("failed to parse skeleton: %v", err)
	}
	if skel.Hash != "testhash" {
		t.Errorf("expected hash 'testhash', got %q", skel.Hash)
	}
	if skel.Version != "3.8.95" {
		t.Errorf("expected version '3.8.95', got %q", skel.Version)
	}
	if skel.X != -64 || skel.Y != -32 || skel.Width != 128 || skel.Height != 64 {
		t.Errorf("unexpected bounds: (%v,%v) %vx%v", skel.X, skel.Y, skel.Width, skel.Height)
	}
}

func TestParseSkeleton_Bones(t *testing.T) {
	skel, err := ParseSkeleton(buildSyntheticSkeleton("3.8.95"), nil)
	if err != nil {
		t.Fatalf("failed to parse skeleton: %v", err)
	}
	if len(skel.Bones) != 2 {
		t.Fatalf("expected 2 bones, got %d", len(skel.Bones))
	}

	root := skel.Bones[0]
	if root.Name != "root" || root.Parent != nil {
		t.Errorf("unexpected root bone: name=%q parent=%v", root.Name, root.Parent)
	}
	if root.Length != 50 {
		t.Errorf("expected root length 50, got %v", root.Length)
	}

	arm := skel.Bones[1]
	if arm.Parent != root {
		t.Errorf("expected arm parented to root, got %v", arm.Parent)
	}
	if arm.Index != 1 || arm.Rotation != 90 || arm.X != 50 || arm.ScaleX != 1 {
		t.Errorf("unexpected arm fields: index=%d rotation=%v x=%v scaleX=%v",
			arm.Index, arm.Rotation, arm.X, arm.ScaleX)
	}
	if arm.TransformMode != TransformNormal {
		t.Errorf("expected normal transform mode, got %v", arm.TransformMode)
	}
}

func TestParseSkeleton_Slots(t *testing.T) {
	skel, err := ParseSkeleton(buildSyntheticSkeleton("3.8.95"), nil)
	if err != nil {
		t.Fatalf("failed to parse skeleton: %v", err)
	}
	if len(skel.Slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(skel.Slots))
	}

	slot := skel.Slots[0]
	if slot.Name != "body" {
		t.Errorf("expected slot name 'body', got %q", slot.Name)
	}
	if slot.BoneData != skel.Bones[1] {
		t.Errorf("expected slot on bone 'arm', got %v", slot.BoneData)
	}
	if slot.Color != 0xFF6633CC {
		t.Errorf("expected color FF6633CC, got %08X", slot.Color)
	}
	if slot.HasDarkColor {
		t.Error("expected no dark color")
	}
	if slot.AttachmentName != "front" {
		t.Errorf("expected setup attachment 'front', got %q", slot.AttachmentName)
	}
	if slot.BlendMode != BlendAdditive {
		t.Errorf("expected additive blending, got %v", slot.BlendMode)
	}
}

func TestParseSkeleton_DefaultSkin(t *testing.T) {
	skel, err := ParseSkeleton(buildSyntheticSkeleton("3.8.95"), nil)
	if err != nil {
		t.Fatalf("failed to parse skeleton: %v", err)
	}
	if skel.DefaultSkin == nil {
		t.Fatal("expected a default skin")
	}
	if skel.DefaultSkin.Name != "default" {
		t.Errorf("expected skin name 'default', got %q", skel.DefaultSkin.Name)
	}

	region, ok := skel.DefaultSkin.GetAttachment(0, "front").(*RegionAttachment)
	if !ok {
		t.Fatal("expected a region attachment under 'front'")
	}
	if region.Name() != "front" || region.Path != "front" {
		t.Errorf("unexpected region identity: name=%q path=%q", region.Name(), region.Path)
	}
	if region.Rotation != 45 || region.X != 10 || region.Y != 20 {
		t.Errorf("unexpected region transform: rotation=%v x=%v y=%v", region.Rotation, region.X, region.Y)
	}
	if region.Width != 64 || region.Height != 32 {
		t.Errorf("expected region 64x32, got %vx%v", region.Width, region.Height)
	}

	mesh, ok := skel.DefaultSkin.GetAttachment(0, "mesh").(*MeshAttachment)
	if !ok {
		t.Fatal("expected a mesh attachment under 'mesh'")
	}
	if len(mesh.Vertices) != 6 || mesh.WorldVerticesLength != 6 {
		t.Errorf("unexpected mesh geometry: %d vertex floats, world length %d",
			len(mesh.Vertices), mesh.WorldVerticesLength)
	}
	if len(mesh.Triangles) != 3 || mesh.Triangles[2] != 2 {
		t.Errorf("unexpected triangles: %v", mesh.Triangles)
	}
	if mesh.HullLength != 3 {
		t.Errorf("expected hull length 3, got %d", mesh.HullLength)
	}
	// Without an atlas the UVs pass through unchanged.
	if mesh.UVs[2] != 1 || mesh.UVs[5] != 1 {
		t.Errorf("unexpected mesh UVs: %v", mesh.UVs)
	}
}

func TestParseSkeleton_Skins(t *testing.T) {
	skel, err := ParseSkeleton(buildSyntheticSkeleton("3.8.95"), nil)
	if err != nil {
		t.Fatalf("failed to parse skeleton: %v", err)
	}
	if len(skel.Skins) != 2 {
		t.Fatalf("expected 2 skins, got %d", len(skel.Skins))
	}

	alt := skel.FindSkin("alt")
	if alt == nil {
		t.Fatal("expected to find skin 'alt'")
	}
	region, ok := alt.GetAttachment(0, "front").(*RegionAttachment)
	if !ok {
		t.Fatal("expected alt skin region under 'front'")
	}
	if region.Width != 16 || region.Height != 16 {
		t.Errorf("expected alt region 16x16, got %vx%v", region.Width, region.Height)
	}
}

func TestParseSkeleton_Events(t *testing.T) {
	skel, err := ParseSkeleton(buildSyntheticSkeleton("3.8.95"), nil)
	if err != nil {
		t.Fatalf("failed to parse skeleton: %v", err)
	}
	if len(skel.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(skel.Events))
	}

	event := skel.Events[0]
	if event.Name != "footstep" {
		t.Errorf("expected event name 'footstep', got %q", event.Name)
	}
	if event.IntValue != -3 {
		t.Errorf("expected int value -3, got %d", event.IntValue)
	}
	if event.FloatValue != 1.5 {
		t.Errorf("expected float value 1.5, got %v", event.FloatValue)
	}
	if event.StringValue != "step" {
		t.Errorf("expected string value 'step', got %q", event.StringValue)
	}
	if event.AudioPath != "" {
		t.Errorf("expected no audio path, got %q", event.AudioPath)
	}
}

func TestParseSkeleton_Animations(t *testing.T) {
	skel, err := ParseSkeleton(buildSyntheticSkeleton("3.8.95"), nil)
	if err != nil {
		t.Fatalf("failed to parse skeleton: %v", err)
	}
	if len(skel.Animations) != 1 {
		t.Fatalf("expected 1 animation, got %d", len(skel.Animations))
	}

	walk := skel.FindAnimation("walk")
	if walk == nil {
		t.Fatal("expected to find animation 'walk'")
	}
	if walk.Duration != 1.25 {
		t.Errorf("expected duration 1.25, got %v", walk.Duration)
	}
}

func TestParseSkeleton_AttachmentKinds(t *testing.T) {
	skel, err := ParseSkeleton(buildAttachmentZooSkeleton(), nil)
	if err != nil {
		t.Fatalf("failed to parse skeleton: %v", err)
	}
	skin := skel.DefaultSkin
	if skin == nil {
		t.Fatal("expected a default skin")
	}

	box, ok := skin.GetAttachment(0, "bbox").(*BoundingBoxAttachment)
	if !ok {
		t.Fatal("expected a bounding box under 'bbox'")
	}
	wantBones := []int{1, 0, 1, 0}
	if len(box.Bones) != len(wantBones) {
		t.Fatalf("expected bone list %v, got %v", wantBones, box.Bones)
	}
	for i, want := range wantBones {
		if box.Bones[i] != want {
			t.Errorf("bone entry %d = %d, want %d", i, box.Bones[i], want)
		}
	}
	wantVerts := []float32{1, 2, 1, 3, 4, 1}
	for i, want := range wantVerts {
		if box.Vertices[i] != want {
			t.Errorf("vertex entry %d = %v, want %v", i, box.Vertices[i], want)
		}
	}
	if box.WorldVerticesLength != 4 {
		t.Errorf("expected world vertices length 4, got %d", box.WorldVerticesLength)
	}

	track, ok := skin.GetAttachment(0, "track").(*PathAttachment)
	if !ok {
		t.Fatal("expected a path under 'track'")
	}
	if !track.Closed || !track.ConstantSpeed {
		t.Errorf("expected closed constant-speed path, got closed=%v constantSpeed=%v",
			track.Closed, track.ConstantSpeed)
	}
	if len(track.Lengths) != 1 || track.Lengths[0] != 30 {
		t.Errorf("unexpected path lengths: %v", track.Lengths)
	}

	pin, ok := skin.GetAttachment(0, "pin").(*PointAttachment)
	if !ok {
		t.Fatal("expected a point under 'pin'")
	}
	if pin.Rotation != 15 || pin.X != 5 || pin.Y != 6 {
		t.Errorf("unexpected point: rotation=%v x=%v y=%v", pin.Rotation, pin.X, pin.Y)
	}

	clip, ok := skin.GetAttachment(0, "scissors").(*ClippingAttachment)
	if !ok {
		t.Fatal("expected a clipping polygon under 'scissors'")
	}
	if clip.EndSlot != skel.Slots[1] {
		t.Errorf("expected end slot 'b', got %v", clip.EndSlot)
	}
	if len(clip.Vertices) != 6 {
		t.Errorf("expected 6 clip vertex floats, got %d", len(clip.Vertices))
	}
}

func TestParseSkeleton_LinkedMesh(t *testing.T) {
	skel, err := ParseSkeleton(buildAttachmentZooSkeleton(), nil)
	if err != nil {
		t.Fatalf("failed to parse skeleton: %v", err)
	}

	base, ok := skel.DefaultSkin.GetAttachment(1, "base").(*MeshAttachment)
	if !ok {
		t.Fatal("expected parent mesh under 'base'")
	}
	linked, ok := skel.DefaultSkin.GetAttachment(1, "linked").(*MeshAttachment)
	if !ok {
		t.Fatal("expected linked mesh under 'linked'")
	}
	if linked.ParentMesh != base {
		t.Error("expected linked mesh to reference its parent")
	}
	if !linked.InheritDeform {
		t.Error("expected linked mesh to inherit deform")
	}
	if len(linked.Vertices) != len(base.Vertices) || linked.HullLength != base.HullLength {
		t.Errorf("expected linked geometry copied from parent: %d vertex floats, hull %d",
			len(linked.Vertices), linked.HullLength)
	}
	if len(linked.Triangles) != 3 {
		t.Errorf("expected 3 triangle indices, got %d", len(linked.Triangles))
	}
}

func TestParseSkeleton_UnsupportedVersion(t *testing.T) {
	_, err := ParseSkeleton(buildSyntheticSkeleton("4.1.23"), nil)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestParseSkeleton_Truncated(t *testing.T) {
	data := buildSyntheticSkeleton("3.8.95")
	for n := 0; n < len(data); n += 5 {
		if _, err := ParseSkeleton(data[:n], nil); !errors.Is(err, ErrTruncatedSkeleton) {
			t.Errorf("prefix of %d bytes: expected ErrTruncatedSkeleton, got %v", n, err)
		}
	}
}

const skeletonAtlas = `sheet.png
size: 64,64
front
xy: 0, 0
size: 64, 32
mesh
xy: 0, 32
size: 32, 32
`

func TestParseSkeleton_WithAtlas(t *testing.T) {
	atlas, err := ParseAtlas([]byte(skeletonAtlas), nil)
	if err != nil {
		t.Fatalf("failed to parse atlas: %v", err)
	}
	skel, err := ParseSkeleton(buildSyntheticSkeleton("3.8.95"), atlas)
	if err != nil {
		t.Fatalf("failed to parse skeleton: %v", err)
	}

	region := skel.DefaultSkin.GetAttachment(0, "front").(*RegionAttachment)
	if region.Region == nil {
		t.Fatal("expected region attachment resolved against the atlas")
	}
	// Unrotated corner order starts bottom-left: (U, V2).
	if region.UVs[0] != 0 || region.UVs[1] != 0.5 {
		t.Errorf("unexpected region UVs: %v", region.UVs)
	}

	mesh := skel.DefaultSkin.GetAttachment(0, "mesh").(*MeshAttachment)
	if mesh.Region == nil {
		t.Fatal("expected mesh resolved against the atlas")
	}
	// Normalized (1,0) maps to the region's far U at its top V.
	if mesh.UVs[2] != 0.5 || mesh.UVs[3] != 0.5 {
		t.Errorf("unexpected mesh UVs: %v", mesh.UVs)
	}
}

func TestParseSkeleton_MissingAtlasRegion(t *testing.T) {
	atlasData := "sheet.png\nsize: 64,64\nfront\nxy: 0, 0\nsize: 64, 32\n"
	atlas, err := ParseAtlas([]byte(atlasData), nil)
	if err != nil {
		t.Fatalf("failed to parse atlas: %v", err)
	}
	_, err = ParseSkeleton(buildSyntheticSkeleton("3.8.95"), atlas)
	if !errors.Is(err, ErrRegionNotFound) {
		t.Errorf("expected ErrRegionNotFound, got %v", err)
	}
}
