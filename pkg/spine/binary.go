package spine

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
)

// Skeleton binary format errors.
var (
	ErrTruncatedSkeleton  = errors.New("truncated skeleton data")
	ErrUnsupportedVersion = errors.New("unsupported skeleton version")
	ErrMalformedSkeleton  = errors.New("malformed skeleton data")
	ErrRegionNotFound     = errors.New("atlas region not found")
)

// Attachment type codes.
const (
	attachmentRegion = iota
	attachmentBoundingBox
	attachmentMesh
	attachmentLinkedMesh
	attachmentPath
	attachmentPoint
	attachmentClipping
)

// Timeline type codes.
const (
	timelineSlotAttachment = 0
	timelineSlotColor      = 1
	timelineSlotTwoColor   = 2

	timelineBoneRotate    = 0
	timelineBoneTranslate = 1
	timelineBoneScale     = 2
	timelineBoneShear     = 3

	timelinePathPosition = 0
	timelinePathSpacing  = 1
	timelinePathMix      = 2

	curveStepped = 1
	curveBezier  = 2
)

// ParseSkeleton parses a skeleton binary export. The atlas supplies texture
// regions for region and mesh attachments; pass nil to decode without region
// resolution (attachments then keep their declared dimensions only).
func ParseSkeleton(data []byte, atlas *Atlas) (*SkeletonData, error) {
	if len(data) < 4 {
		return nil, ErrTruncatedSkeleton
	}

	d := &skelDecoder{
		r:     &skelReader{data: data},
		skel:  &SkeletonData{},
		atlas: atlas,
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"header", d.parseHeader},
		{"strings", d.parseStrings},
		{"bones", d.parseBones},
		{"slots", d.parseSlots},
		{"ik constraints", d.parseIKConstraints},
		{"transform constraints", d.parseTransformConstraints},
		{"path constraints", d.parsePathConstraints},
		{"skins", d.parseSkins},
		{"linked meshes", d.resolveLinkedMeshes},
		{"events", d.parseEvents},
		{"animations", d.parseAnimations},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", step.name, err)
		}
	}
	return d.skel, nil
}

// ParseSkeletonFile parses a skeleton binary from disk.
func ParseSkeletonFile(path string, atlas *Atlas) (*SkeletonData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading skeleton file: %w", err)
	}
	return ParseSkeleton(data, atlas)
}

// linkedMesh defers geometry resolution until all skins are parsed.
type linkedMesh struct {
	mesh          *MeshAttachment
	skinName      string // "" targets the default skin
	parent        string
	slotIndex     int
	inheritDeform bool
}

type skelDecoder struct {
	r            *skelReader
	skel         *SkeletonData
	atlas        *Atlas
	nonessential bool
	linkedMeshes []linkedMesh

	// eventHasAudio mirrors skel.Events; event timeline frames carry volume
	// and balance only for events exported with an audio path.
	eventHasAudio []bool
}

func (d *skelDecoder) parseHeader() error {
	var err error
	if d.skel.Hash, err = d.r.readString(); err != nil {
		return fmt.Errorf("reading hash: %w", err)
	}
	if d.skel.Version, err = d.r.readString(); err != nil {
		return fmt.Errorf("reading version: %w", err)
	}
	if !strings.HasPrefix(d.skel.Version, "3.8") {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, d.skel.Version)
	}
	if err = d.r.readFloats(&d.skel.X, &d.skel.Y, &d.skel.Width, &d.skel.Height); err != nil {
		return fmt.Errorf("reading bounds: %w", err)
	}
	if d.nonessential, err = d.r.readBool(); err != nil {
		return fmt.Errorf("reading nonessential flag: %w", err)
	}
	if d.nonessential {
		if d.skel.FPS, err = d.r.readFloat(); err != nil {
			return fmt.Errorf("reading fps: %w", err)
		}
		if d.skel.ImagesPath, err = d.r.readString(); err != nil {
			return fmt.Errorf("reading images path: %w", err)
		}
		if d.skel.AudioPath, err = d.r.readString(); err != nil {
			return fmt.Errorf("reading audio path: %w", err)
		}
	}
	return nil
}

func (d *skelDecoder) parseStrings() error {
	count, err := d.r.readVarint(true)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		s, err := d.r.readString()
		if err != nil {
			return fmt.Errorf("reading string %d: %w", i, err)
		}
		d.r.strings = append(d.r.strings, s)
	}
	return nil
}

func (d *skelDecoder) parseBones() error {
	count, err := d.r.readVarint(true)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		bone := &BoneData{Index: i}
		if bone.Name, err = d.r.readString(); err != nil {
			return fmt.Errorf("bone %d: reading name: %w", i, err)
		}
		if i > 0 {
			parentIndex, err := d.r.readVarint(true)
			if err != nil {
				return fmt.Errorf("bone %d: reading parent: %w", i, err)
			}
			if parentIndex < 0 || parentIndex >= len(d.skel.Bones) {
				return fmt.Errorf("%w: bone %q parent index %d out of range", ErrMalformedSkeleton, bone.Name, parentIndex)
			}
			bone.Parent = d.skel.Bones[parentIndex]
		}
		err = d.r.readFloats(&bone.Rotation, &bone.X, &bone.Y,
			&bone.ScaleX, &bone.ScaleY, &bone.ShearX, &bone.ShearY, &bone.Length)
		if err != nil {
			return fmt.Errorf("bone %q: reading transform: %w", bone.Name, err)
		}
		mode, err := d.r.readVarint(true)
		if err != nil {
			return fmt.Errorf("bone %q: reading transform mode: %w", bone.Name, err)
		}
		bone.TransformMode = TransformMode(mode)
		if bone.SkinRequired, err = d.r.readBool(); err != nil {
			return fmt.Errorf("bone %q: reading skin flag: %w", bone.Name, err)
		}
		if d.nonessential {
			color, err := d.r.readInt32()
			if err != nil {
				return fmt.Errorf("bone %q: reading color: %w", bone.Name, err)
			}
			bone.Color = uint32(color)
		}
		d.skel.Bones = append(d.skel.Bones, bone)
	}
	return nil
}

func (d *skelDecoder) parseSlots() error {
	count, err := d.r.readVarint(true)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		slot := &SlotData{Index: i}
		if slot.Name, err = d.r.readString(); err != nil {
			return fmt.Errorf("slot %d: reading name: %w", i, err)
		}
		boneIndex, err := d.r.readVarint(true)
		if err != nil {
			return fmt.Errorf("slot %q: reading bone: %w", slot.Name, err)
		}
		if boneIndex < 0 || boneIndex >= len(d.skel.Bones) {
			return fmt.Errorf("%w: slot %q bone index %d out of range", ErrMalformedSkeleton, slot.Name, boneIndex)
		}
		slot.BoneData = d.skel.Bones[boneIndex]
		color, err := d.r.readInt32()
		if err != nil {
			return fmt.Errorf("slot %q: reading color: %w", slot.Name, err)
		}
		slot.Color = uint32(color)
		darkColor, err := d.r.readInt32()
		if err != nil {
			return fmt.Errorf("slot %q: reading dark color: %w", slot.Name, err)
		}
		if darkColor != -1 {
			slot.HasDarkColor = true
			slot.DarkColor = uint32(darkColor)
		}
		if slot.AttachmentName, err = d.r.readStringRef(); err != nil {
			return fmt.Errorf("slot %q: reading attachment: %w", slot.Name, err)
		}
		blend, err := d.r.readVarint(true)
		if err != nil {
			return fmt.Errorf("slot %q: reading blend mode: %w", slot.Name, err)
		}
		slot.BlendMode = BlendMode(blend)
		d.skel.Slots = append(d.skel.Slots, slot)
	}
	return nil
}

// parseConstraintHeader reads the name/order/skin fields shared by all
// constraint kinds, followed by the constrained bone list.
func (d *skelDecoder) parseConstraintHeader() (ConstraintData, error) {
	var c ConstraintData
	var err error
	if c.Name, err = d.r.readString(); err != nil {
		return c, fmt.Errorf("reading name: %w", err)
	}
	if c.Order, err = d.r.readVarint(true); err != nil {
		return c, fmt.Errorf("reading order: %w", err)
	}
	if c.SkinRequired, err = d.r.readBool(); err != nil {
		return c, fmt.Errorf("reading skin flag: %w", err)
	}
	boneCount, err := d.r.readVarint(true)
	if err != nil {
		return c, fmt.Errorf("reading bone count: %w", err)
	}
	for i := 0; i < boneCount; i++ {
		if _, err := d.r.readVarint(true); err != nil {
			return c, fmt.Errorf("reading bone %d: %w", i, err)
		}
	}
	return c, nil
}

func (d *skelDecoder) parseIKConstraints() error {
	count, err := d.r.readVarint(true)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		c, err := d.parseConstraintHeader()
		if err != nil {
			return fmt.Errorf("ik constraint %d: %w", i, err)
		}
		// target bone, mix, softness, bend direction, compress, stretch, uniform
		if _, err := d.r.readVarint(true); err != nil {
			return fmt.Errorf("ik constraint %q: reading target: %w", c.Name, err)
		}
		if err := d.r.skip(4 + 4 + 1 + 1 + 1 + 1); err != nil {
			return fmt.Errorf("ik constraint %q: reading settings: %w", c.Name, err)
		}
		d.skel.IKConstraints = append(d.skel.IKConstraints, c)
	}
	return nil
}

func (d *skelDecoder) parseTransformConstraints() error {
	count, err := d.r.readVarint(true)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		c, err := d.parseConstraintHeader()
		if err != nil {
			return fmt.Errorf("transform constraint %d: %w", i, err)
		}
		// target bone, local/relative flags, six offsets, four mixes
		if _, err := d.r.readVarint(true); err != nil {
			return fmt.Errorf("transform constraint %q: reading target: %w", c.Name, err)
		}
		if err := d.r.skip(2 + 10*4); err != nil {
			return fmt.Errorf("transform constraint %q: reading settings: %w", c.Name, err)
		}
		d.skel.TransformConstraints = append(d.skel.TransformConstraints, c)
	}
	return nil
}

func (d *skelDecoder) parsePathConstraints() error {
	count, err := d.r.readVarint(true)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		c, err := d.parseConstraintHeader()
		if err != nil {
			return fmt.Errorf("path constraint %d: %w", i, err)
		}
		// target slot and the position/spacing/rotate modes
		if _, err := d.r.readVarint(true); err != nil {
			return fmt.Errorf("path constraint %q: reading target: %w", c.Name, err)
		}
		for j := 0; j < 3; j++ {
			if _, err := d.r.readVarint(true); err != nil {
				return fmt.Errorf("path constraint %q: reading mode: %w", c.Name, err)
			}
		}
		// offset rotation, position, spacing, two mixes
		if err := d.r.skip(5 * 4); err != nil {
			return fmt.Errorf("path constraint %q: reading settings: %w", c.Name, err)
		}
		d.skel.PathConstraints = append(d.skel.PathConstraints, c)
	}
	return nil
}

func (d *skelDecoder) parseSkins() error {
	defaultSkin, err := d.parseSkin(true)
	if err != nil {
		return fmt.Errorf("default skin: %w", err)
	}
	if defaultSkin != nil {
		d.skel.DefaultSkin = defaultSkin
		d.skel.Skins = append(d.skel.Skins, defaultSkin)
	}
	count, err := d.r.readVarint(true)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		skin, err := d.parseSkin(false)
		if err != nil {
			return fmt.Errorf("skin %d: %w", i, err)
		}
		d.skel.Skins = append(d.skel.Skins, skin)
	}
	return nil
}

func (d *skelDecoder) parseSkin(defaultSkin bool) (*Skin, error) {
	var skin *Skin
	var slotCount int
	var err error

	if defaultSkin {
		if slotCount, err = d.r.readVarint(true); err != nil {
			return nil, err
		}
		if slotCount == 0 {
			return nil, nil
		}
		skin = NewSkin("default")
	} else {
		name, err := d.r.readStringRef()
		if err != nil {
			return nil, fmt.Errorf("reading name: %w", err)
		}
		skin = NewSkin(name)
		// Bone and constraint references scope the skin in the editor;
		// posing does not need them.
		for i := 0; i < 4; i++ {
			refCount, err := d.r.readVarint(true)
			if err != nil {
				return nil, fmt.Errorf("reading reference count: %w", err)
			}
			for j := 0; j < refCount; j++ {
				if _, err := d.r.readVarint(true); err != nil {
					return nil, fmt.Errorf("reading reference: %w", err)
				}
			}
		}
		if slotCount, err = d.r.readVarint(true); err != nil {
			return nil, err
		}
	}

	for i := 0; i < slotCount; i++ {
		slotIndex, err := d.r.readVarint(true)
		if err != nil {
			return nil, fmt.Errorf("reading slot index: %w", err)
		}
		if slotIndex < 0 || slotIndex >= len(d.skel.Slots) {
			return nil, fmt.Errorf("%w: skin %q slot index %d out of range", ErrMalformedSkeleton, skin.Name, slotIndex)
		}
		attachmentCount, err := d.r.readVarint(true)
		if err != nil {
			return nil, fmt.Errorf("reading attachment count: %w", err)
		}
		for j := 0; j < attachmentCount; j++ {
			name, err := d.r.readStringRef()
			if err != nil {
				return nil, fmt.Errorf("reading attachment name: %w", err)
			}
			attachment, err := d.parseAttachment(slotIndex, name)
			if err != nil {
				return nil, fmt.Errorf("attachment %q: %w", name, err)
			}
			if attachment != nil {
				skin.SetAttachment(slotIndex, name, attachment)
			}
		}
	}
	return skin, nil
}

func (d *skelDecoder) parseAttachment(slotIndex int, attachmentName string) (Attachment, error) {
	name, err := d.r.readStringRef()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = attachmentName
	}
	kind, err := d.r.readByte()
	if err != nil {
		return nil, err
	}

	switch int(kind) {
	case attachmentRegion:
		path, err := d.r.readStringRef()
		if err != nil {
			return nil, err
		}
		if path == "" {
			path = name
		}
		region := &RegionAttachment{AttachmentName: name, Path: path}
		err = d.r.readFloats(&region.Rotation, &region.X, &region.Y,
			&region.ScaleX, &region.ScaleY, &region.Width, &region.Height)
		if err != nil {
			return nil, err
		}
		color, err := d.r.readInt32()
		if err != nil {
			return nil, err
		}
		region.Color = uint32(color)
		if d.atlas != nil {
			atlasRegion := d.atlas.FindRegion(path)
			if atlasRegion == nil {
				return nil, fmt.Errorf("%w: %q", ErrRegionNotFound, path)
			}
			region.SetRegion(atlasRegion)
		}
		region.UpdateOffset()
		return region, nil

	case attachmentBoundingBox:
		vertexCount, err := d.r.readVarint(true)
		if err != nil {
			return nil, err
		}
		box := &BoundingBoxAttachment{}
		box.AttachmentName = name
		if err := d.readVertices(&box.VertexAttachment, vertexCount); err != nil {
			return nil, err
		}
		if d.nonessential {
			color, err := d.r.readInt32()
			if err != nil {
				return nil, err
			}
			box.Color = uint32(color)
		}
		return box, nil

	case attachmentMesh:
		path, err := d.r.readStringRef()
		if err != nil {
			return nil, err
		}
		if path == "" {
			path = name
		}
		mesh := &MeshAttachment{Path: path}
		mesh.AttachmentName = name
		color, err := d.r.readInt32()
		if err != nil {
			return nil, err
		}
		mesh.Color = uint32(color)
		vertexCount, err := d.r.readVarint(true)
		if err != nil {
			return nil, err
		}
		if mesh.RegionUVs, err = d.r.readFloatArray(vertexCount << 1); err != nil {
			return nil, err
		}
		if mesh.Triangles, err = d.r.readShortArray(); err != nil {
			return nil, err
		}
		if err := d.readVertices(&mesh.VertexAttachment, vertexCount); err != nil {
			return nil, err
		}
		if mesh.HullLength, err = d.r.readVarint(true); err != nil {
			return nil, err
		}
		if d.nonessential {
			if mesh.Edges, err = d.r.readShortArray(); err != nil {
				return nil, err
			}
			if err := d.r.readFloats(&mesh.Width, &mesh.Height); err != nil {
				return nil, err
			}
		}
		if d.atlas != nil {
			atlasRegion := d.atlas.FindRegion(path)
			if atlasRegion == nil {
				return nil, fmt.Errorf("%w: %q", ErrRegionNotFound, path)
			}
			mesh.Region = atlasRegion
		}
		mesh.UpdateUVs()
		return mesh, nil

	case attachmentLinkedMesh:
		path, err := d.r.readStringRef()
		if err != nil {
			return nil, err
		}
		if path == "" {
			path = name
		}
		color, err := d.r.readInt32()
		if err != nil {
			return nil, err
		}
		skinName, err := d.r.readStringRef()
		if err != nil {
			return nil, err
		}
		parent, err := d.r.readStringRef()
		if err != nil {
			return nil, err
		}
		inheritDeform, err := d.r.readBool()
		if err != nil {
			return nil, err
		}
		mesh := &MeshAttachment{Path: path, Color: uint32(color), InheritDeform: inheritDeform}
		mesh.AttachmentName = name
		if d.nonessential {
			if err := d.r.readFloats(&mesh.Width, &mesh.Height); err != nil {
				return nil, err
			}
		}
		if d.atlas != nil {
			atlasRegion := d.atlas.FindRegion(path)
			if atlasRegion == nil {
				return nil, fmt.Errorf("%w: %q", ErrRegionNotFound, path)
			}
			mesh.Region = atlasRegion
		}
		d.linkedMeshes = append(d.linkedMeshes, linkedMesh{
			mesh:          mesh,
			skinName:      skinName,
			parent:        parent,
			slotIndex:     slotIndex,
			inheritDeform: inheritDeform,
		})
		return mesh, nil

	case attachmentPath:
		path := &PathAttachment{}
		path.AttachmentName = name
		if path.Closed, err = d.r.readBool(); err != nil {
			return nil, err
		}
		if path.ConstantSpeed, err = d.r.readBool(); err != nil {
			return nil, err
		}
		vertexCount, err := d.r.readVarint(true)
		if err != nil {
			return nil, err
		}
		if err := d.readVertices(&path.VertexAttachment, vertexCount); err != nil {
			return nil, err
		}
		if path.Lengths, err = d.r.readFloatArray(vertexCount / 3); err != nil {
			return nil, err
		}
		if d.nonessential {
			color, err := d.r.readInt32()
			if err != nil {
				return nil, err
			}
			path.Color = uint32(color)
		}
		return path, nil

	case attachmentPoint:
		point := &PointAttachment{AttachmentName: name}
		if err := d.r.readFloats(&point.Rotation, &point.X, &point.Y); err != nil {
			return nil, err
		}
		if d.nonessential {
			color, err := d.r.readInt32()
			if err != nil {
				return nil, err
			}
			point.Color = uint32(color)
		}
		return point, nil

	case attachmentClipping:
		endSlot, err := d.r.readVarint(true)
		if err != nil {
			return nil, err
		}
		if endSlot < 0 || endSlot >= len(d.skel.Slots) {
			return nil, fmt.Errorf("%w: clipping end slot %d out of range", ErrMalformedSkeleton, endSlot)
		}
		vertexCount, err := d.r.readVarint(true)
		if err != nil {
			return nil, err
		}
		clip := &ClippingAttachment{EndSlot: d.skel.Slots[endSlot]}
		clip.AttachmentName = name
		if err := d.readVertices(&clip.VertexAttachment, vertexCount); err != nil {
			return nil, err
		}
		if d.nonessential {
			color, err := d.r.readInt32()
			if err != nil {
				return nil, err
			}
			clip.Color = uint32(color)
		}
		return clip, nil
	}
	return nil, fmt.Errorf("%w: unknown attachment type %d", ErrMalformedSkeleton, kind)
}

// readVertices fills a vertex attachment with either plain x,y pairs or
// bone-weighted influence triples.
func (d *skelDecoder) readVertices(v *VertexAttachment, vertexCount int) error {
	v.WorldVerticesLength = vertexCount << 1
	weighted, err := d.r.readBool()
	if err != nil {
		return err
	}
	if !weighted {
		v.Vertices, err = d.r.readFloatArray(vertexCount << 1)
		return err
	}

	var vertices []float32
	var bones []int
	for i := 0; i < vertexCount; i++ {
		boneCount, err := d.r.readVarint(true)
		if err != nil {
			return err
		}
		bones = append(bones, boneCount)
		for j := 0; j < boneCount; j++ {
			boneIndex, err := d.r.readVarint(true)
			if err != nil {
				return err
			}
			if boneIndex < 0 || boneIndex >= len(d.skel.Bones) {
				return fmt.Errorf("%w: vertex bone index %d out of range", ErrMalformedSkeleton, boneIndex)
			}
			bones = append(bones, boneIndex)
			var x, y, weight float32
			if err := d.r.readFloats(&x, &y, &weight); err != nil {
				return err
			}
			vertices = append(vertices, x, y, weight)
		}
	}
	v.Vertices = vertices
	v.Bones = bones
	return nil
}

func (d *skelDecoder) resolveLinkedMeshes() error {
	for _, lm := range d.linkedMeshes {
		skin := d.skel.DefaultSkin
		if lm.skinName != "" {
			skin = d.skel.FindSkin(lm.skinName)
		}
		if skin == nil {
			return fmt.Errorf("%w: linked mesh skin %q not found", ErrMalformedSkeleton, lm.skinName)
		}
		parent, ok := skin.GetAttachment(lm.slotIndex, lm.parent).(*MeshAttachment)
		if !ok {
			return fmt.Errorf("%w: linked mesh parent %q not found", ErrMalformedSkeleton, lm.parent)
		}
		lm.mesh.linkTo(parent)
		lm.mesh.UpdateUVs()
	}
	d.linkedMeshes = nil
	return nil
}

func (d *skelDecoder) parseEvents() error {
	count, err := d.r.readVarint(true)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		event := &EventData{}
		if event.Name, err = d.r.readStringRef(); err != nil {
			return fmt.Errorf("event %d: reading name: %w", i, err)
		}
		if event.IntValue, err = d.r.readVarint(false); err != nil {
			return fmt.Errorf("event %q: reading int value: %w", event.Name, err)
		}
		if event.FloatValue, err = d.r.readFloat(); err != nil {
			return fmt.Errorf("event %q: reading float value: %w", event.Name, err)
		}
		if event.StringValue, err = d.r.readString(); err != nil {
			return fmt.Errorf("event %q: reading string value: %w", event.Name, err)
		}
		audioPath, audioSet, err := d.r.readStringNullable()
		if err != nil {
			return fmt.Errorf("event %q: reading audio path: %w", event.Name, err)
		}
		if audioSet {
			event.AudioPath = audioPath
			if err := d.r.readFloats(&event.Volume, &event.Balance); err != nil {
				return fmt.Errorf("event %q: reading audio settings: %w", event.Name, err)
			}
		}
		d.eventHasAudio = append(d.eventHasAudio, audioSet)
		d.skel.Events = append(d.skel.Events, event)
	}
	return nil
}

func (d *skelDecoder) parseAnimations() error {
	count, err := d.r.readVarint(true)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		name, err := d.r.readString()
		if err != nil {
			return fmt.Errorf("animation %d: reading name: %w", i, err)
		}
		duration, err := d.parseAnimation()
		if err != nil {
			return fmt.Errorf("animation %q: %w", name, err)
		}
		d.skel.Animations = append(d.skel.Animations, &Animation{Name: name, Duration: duration})
	}
	return nil
}

// parseAnimation consumes one animation's timeline blocks and returns the
// animation duration, the largest frame time seen. Timeline values are not
// retained; pose evaluation belongs to an animation runtime.
func (d *skelDecoder) parseAnimation() (float32, error) {
	var duration float32
	track := func(time float32) {
		if time > duration {
			duration = time
		}
	}

	// Slot timelines.
	slotCount, err := d.r.readVarint(true)
	if err != nil {
		return 0, err
	}
	for i := 0; i < slotCount; i++ {
		if _, err := d.r.readVarint(true); err != nil {
			return 0, fmt.Errorf("slot timelines: %w", err)
		}
		timelineCount, err := d.r.readVarint(true)
		if err != nil {
			return 0, err
		}
		for j := 0; j < timelineCount; j++ {
			kind, err := d.r.readByte()
			if err != nil {
				return 0, err
			}
			frameCount, err := d.r.readVarint(true)
			if err != nil {
				return 0, err
			}
			for frame := 0; frame < frameCount; frame++ {
				time, err := d.r.readFloat()
				if err != nil {
					return 0, err
				}
				track(time)
				switch int(kind) {
				case timelineSlotAttachment:
					if _, err := d.r.readStringRef(); err != nil {
						return 0, err
					}
				case timelineSlotColor:
					if _, err := d.r.readInt32(); err != nil {
						return 0, err
					}
					if err := d.skipCurve(frame, frameCount); err != nil {
						return 0, err
					}
				case timelineSlotTwoColor:
					if _, err := d.r.readInt32(); err != nil {
						return 0, err
					}
					if _, err := d.r.readInt32(); err != nil {
						return 0, err
					}
					if err := d.skipCurve(frame, frameCount); err != nil {
						return 0, err
					}
				default:
					return 0, fmt.Errorf("%w: unknown slot timeline type %d", ErrMalformedSkeleton, kind)
				}
			}
		}
	}

	// Bone timelines.
	boneCount, err := d.r.readVarint(true)
	if err != nil {
		return 0, err
	}
	for i := 0; i < boneCount; i++ {
		if _, err := d.r.readVarint(true); err != nil {
			return 0, fmt.Errorf("bone timelines: %w", err)
		}
		timelineCount, err := d.r.readVarint(true)
		if err != nil {
			return 0, err
		}
		for j := 0; j < timelineCount; j++ {
			kind, err := d.r.readByte()
			if err != nil {
				return 0, err
			}
			frameCount, err := d.r.readVarint(true)
			if err != nil {
				return 0, err
			}
			values := 2 // x, y
			if int(kind) == timelineBoneRotate {
				values = 1 // angle
			}
			for frame := 0; frame < frameCount; frame++ {
				time, err := d.r.readFloat()
				if err != nil {
					return 0, err
				}
				track(time)
				if err := d.r.skip(values * 4); err != nil {
					return 0, err
				}
				if err := d.skipCurve(frame, frameCount); err != nil {
					return 0, err
				}
			}
		}
	}

	// IK constraint timelines.
	ikCount, err := d.r.readVarint(true)
	if err != nil {
		return 0, err
	}
	for i := 0; i < ikCount; i++ {
		if _, err := d.r.readVarint(true); err != nil {
			return 0, fmt.Errorf("ik timelines: %w", err)
		}
		frameCount, err := d.r.readVarint(true)
		if err != nil {
			return 0, err
		}
		for frame := 0; frame < frameCount; frame++ {
			time, err := d.r.readFloat()
			if err != nil {
				return 0, err
			}
			track(time)
			// mix, softness, bend direction, compress, stretch
			if err := d.r.skip(4 + 4 + 1 + 1 + 1); err != nil {
				return 0, err
			}
			if err := d.skipCurve(frame, frameCount); err != nil {
				return 0, err
			}
		}
	}

	// Transform constraint timelines.
	transformCount, err := d.r.readVarint(true)
	if err != nil {
		return 0, err
	}
	for i := 0; i < transformCount; i++ {
		if _, err := d.r.readVarint(true); err != nil {
			return 0, fmt.Errorf("transform timelines: %w", err)
		}
		frameCount, err := d.r.readVarint(true)
		if err != nil {
			return 0, err
		}
		for frame := 0; frame < frameCount; frame++ {
			time, err := d.r.readFloat()
			if err != nil {
				return 0, err
			}
			track(time)
			// rotate, translate, scale, shear mixes
			if err := d.r.skip(4 * 4); err != nil {
				return 0, err
			}
			if err := d.skipCurve(frame, frameCount); err != nil {
				return 0, err
			}
		}
	}

	// Path constraint timelines.
	pathCount, err := d.r.readVarint(true)
	if err != nil {
		return 0, err
	}
	for i := 0; i < pathCount; i++ {
		if _, err := d.r.readVarint(true); err != nil {
			return 0, fmt.Errorf("path timelines: %w", err)
		}
		timelineCount, err := d.r.readVarint(true)
		if err != nil {
			return 0, err
		}
		for j := 0; j < timelineCount; j++ {
			kind, err := d.r.readByte()
			if err != nil {
				return 0, err
			}
			frameCount, err := d.r.readVarint(true)
			if err != nil {
				return 0, err
			}
			values := 1 // position or spacing
			if int(kind) == timelinePathMix {
				values = 2 // rotate and translate mixes
			}
			for frame := 0; frame < frameCount; frame++ {
				time, err := d.r.readFloat()
				if err != nil {
					return 0, err
				}
				track(time)
				if err := d.r.skip(values * 4); err != nil {
					return 0, err
				}
				if err := d.skipCurve(frame, frameCount); err != nil {
					return 0, err
				}
			}
		}
	}

	// Deform timelines.
	deformSkinCount, err := d.r.readVarint(true)
	if err != nil {
		return 0, err
	}
	for i := 0; i < deformSkinCount; i++ {
		if _, err := d.r.readVarint(true); err != nil {
			return 0, fmt.Errorf("deform timelines: %w", err)
		}
		deformSlotCount, err := d.r.readVarint(true)
		if err != nil {
			return 0, err
		}
		for j := 0; j < deformSlotCount; j++ {
			if _, err := d.r.readVarint(true); err != nil {
				return 0, err
			}
			attachmentCount, err := d.r.readVarint(true)
			if err != nil {
				return 0, err
			}
			for k := 0; k < attachmentCount; k++ {
				if _, err := d.r.readStringRef(); err != nil {
					return 0, err
				}
				frameCount, err := d.r.readVarint(true)
				if err != nil {
					return 0, err
				}
				for frame := 0; frame < frameCount; frame++ {
					time, err := d.r.readFloat()
					if err != nil {
						return 0, err
					}
					track(time)
					end, err := d.r.readVarint(true)
					if err != nil {
						return 0, err
					}
					if end != 0 {
						if _, err := d.r.readVarint(true); err != nil {
							return 0, err
						}
						if err := d.r.skip(end * 4); err != nil {
							return 0, err
						}
					}
					if err := d.skipCurve(frame, frameCount); err != nil {
						return 0, err
					}
				}
			}
		}
	}

	// Draw order timelines.
	drawOrderCount, err := d.r.readVarint(true)
	if err != nil {
		return 0, err
	}
	for i := 0; i < drawOrderCount; i++ {
		time, err := d.r.readFloat()
		if err != nil {
			return 0, err
		}
		track(time)
		offsetCount, err := d.r.readVarint(true)
		if err != nil {
			return 0, err
		}
		for j := 0; j < offsetCount; j++ {
			if _, err := d.r.readVarint(true); err != nil {
				return 0, err
			}
			if _, err := d.r.readVarint(true); err != nil {
				return 0, err
			}
		}
	}

	// Event timelines.
	eventCount, err := d.r.readVarint(true)
	if err != nil {
		return 0, err
	}
	for i := 0; i < eventCount; i++ {
		time, err := d.r.readFloat()
		if err != nil {
			return 0, err
		}
		track(time)
		eventIndex, err := d.r.readVarint(true)
		if err != nil {
			return 0, err
		}
		if eventIndex < 0 || eventIndex >= len(d.skel.Events) {
			return 0, fmt.Errorf("%w: event index %d out of range", ErrMalformedSkeleton, eventIndex)
		}
		if _, err := d.r.readVarint(false); err != nil {
			return 0, err
		}
		if _, err := d.r.readFloat(); err != nil {
			return 0, err
		}
		hasString, err := d.r.readBool()
		if err != nil {
			return 0, err
		}
		if hasString {
			if _, err := d.r.readString(); err != nil {
				return 0, err
			}
		}
		if d.eventHasAudio[eventIndex] {
			if err := d.r.skip(4 + 4); err != nil {
				return 0, err
			}
		}
	}

	return duration, nil
}

// skipCurve consumes the interpolation record that follows every frame but
// the last.
func (d *skelDecoder) skipCurve(frame, frameCount int) error {
	if frame == frameCount-1 {
		return nil
	}
	kind, err := d.r.readByte()
	if err != nil {
		return err
	}
	if int(kind) == curveBezier {
		return d.r.skip(4 * 4)
	}
	return nil
}

// skelReader reads the skeleton binary primitives: big-endian floats and
// int32s, 7-bit variable-length ints, and table-referenced strings.
type skelReader struct {
	data    []byte
	pos     int
	strings []string
}

func (r *skelReader) readByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, ErrTruncatedSkeleton
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *skelReader) readBool() (bool, error) {
	b, err := r.readByte()
	return b != 0, err
}

func (r *skelReader) readInt32() (int32, error) {
	if r.pos+4 > len(r.data) {
		return 0, ErrTruncatedSkeleton
	}
	v := int32(binary.BigEndian.Uint32(r.data[r.pos:]))
	r.pos += 4
	return v, nil
}

func (r *skelReader) readFloat() (float32, error) {
	if r.pos+4 > len(r.data) {
		return 0, ErrTruncatedSkeleton
	}
	v := math.Float32frombits(binary.BigEndian.Uint32(r.data[r.pos:]))
	r.pos += 4
	return v, nil
}

// readFloats reads consecutive big-endian floats into the destinations.
func (r *skelReader) readFloats(dst ...*float32) error {
	for _, d := range dst {
		v, err := r.readFloat()
		if err != nil {
			return err
		}
		*d = v
	}
	return nil
}

// readVarint reads a variable-length integer, 7 bits per byte, low bits
// first. With optimizePositive false the value is zigzag-decoded.
func (r *skelReader) readVarint(optimizePositive bool) (int, error) {
	b, err := r.readByte()
	if err != nil {
		return 0, err
	}
	value := int(b & 0x7F)
	for shift := 7; b&0x80 != 0 && shift <= 28; shift += 7 {
		if b, err = r.readByte(); err != nil {
			return 0, err
		}
		value |= int(b&0x7F) << shift
	}
	if !optimizePositive {
		value = int(uint32(value)>>1) ^ -(value & 1)
	}
	return value, nil
}

// readString reads a length-prefixed UTF-8 string; null decodes as "".
func (r *skelReader) readString() (string, error) {
	s, _, err := r.readStringNullable()
	return s, err
}

// readStringNullable reads a length-prefixed UTF-8 string, reporting whether
// a value was present at all (length 0 encodes null).
func (r *skelReader) readStringNullable() (string, bool, error) {
	length, err := r.readVarint(true)
	if err != nil {
		return "", false, err
	}
	switch length {
	case 0:
		return "", false, nil
	case 1:
		return "", true, nil
	}
	length--
	if length < 0 || r.pos+length > len(r.data) {
		return "", false, ErrTruncatedSkeleton
	}
	s := string(r.data[r.pos : r.pos+length])
	r.pos += length
	return s, true, nil
}

// readStringRef reads an index into the string table; 0 decodes as "".
func (r *skelReader) readStringRef() (string, error) {
	index, err := r.readVarint(true)
	if err != nil {
		return "", err
	}
	if index == 0 {
		return "", nil
	}
	if index < 0 || index > len(r.strings) {
		return "", fmt.Errorf("%w: string reference %d out of range", ErrMalformedSkeleton, index)
	}
	return r.strings[index-1], nil
}

// readFloatArray reads n big-endian floats.
func (r *skelReader) readFloatArray(n int) ([]float32, error) {
	if n < 0 || r.pos+n*4 > len(r.data) {
		return nil, ErrTruncatedSkeleton
	}
	values := make([]float32, n)
	for i := range values {
		values[i] = math.Float32frombits(binary.BigEndian.Uint32(r.data[r.pos:]))
		r.pos += 4
	}
	return values, nil
}

// readShortArray reads a varint count followed by that many big-endian
// uint16 values.
func (r *skelReader) readShortArray() ([]uint16, error) {
	n, err := r.readVarint(true)
	if err != nil {
		return nil, err
	}
	if n < 0 || r.pos+n*2 > len(r.data) {
		return nil, ErrTruncatedSkeleton
	}
	values := make([]uint16, n)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(r.data[r.pos:])
		r.pos += 2
	}
	return values, nil
}

// skip advances past n bytes.
func (r *skelReader) skip(n int) error {
	if r.pos+n > len(r.data) {
		return ErrTruncatedSkeleton
	}
	r.pos += n
	return nil
}
