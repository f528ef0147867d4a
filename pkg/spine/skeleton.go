package spine

import (
	"errors"
	"fmt"
	"math"
)

// Pose errors.
var (
	ErrSkinNotFound = errors.New("skin not found")
)

// Bone is the live-pose state of one bone: a local transform plus the
// world-space matrix (A, B, C, D, WorldX, WorldY) derived from it.
type Bone struct {
	Data     *BoneData
	Skeleton *Skeleton
	Parent   *Bone
	Children []*Bone

	// Local transform, initialized from the setup pose.
	X, Y     float32
	Rotation float32
	ScaleX   float32
	ScaleY   float32
	ShearX   float32
	ShearY   float32

	// World transform, valid after UpdateWorldTransform.
	A, B, C, D     float32
	WorldX, WorldY float32
}

// NewBone creates a live bone for the given setup data.
func NewBone(data *BoneData, skeleton *Skeleton, parent *Bone) *Bone {
	bone := &Bone{Data: data, Skeleton: skeleton, Parent: parent}
	bone.SetToSetupPose()
	return bone
}

// SetToSetupPose resets the local transform to the setup pose.
func (b *Bone) SetToSetupPose() {
	b.X = b.Data.X
	b.Y = b.Data.Y
	b.Rotation = b.Data.Rotation
	b.ScaleX = b.Data.ScaleX
	b.ScaleY = b.Data.ScaleY
	b.ShearX = b.Data.ShearX
	b.ShearY = b.Data.ShearY
}

// UpdateWorldTransform computes the world transform from the bone's current
// local transform. The parent's world transform must already be current.
func (b *Bone) UpdateWorldTransform() {
	b.updateWorldTransformWith(b.X, b.Y, b.Rotation, b.ScaleX, b.ScaleY, b.ShearX, b.ShearY)
}

func (b *Bone) updateWorldTransformWith(x, y, rotation, scaleX, scaleY, shearX, shearY float32) {
	parent := b.Parent
	skeleton := b.Skeleton
	if parent == nil {
		rotationY := rotation + 90 + shearY
		sx, sy := skeleton.ScaleX, skeleton.ScaleY
		b.A = cosDeg(rotation+shearX) * scaleX * sx
		b.B = cosDeg(rotationY) * scaleY * sx
		b.C = sinDeg(rotation+shearX) * scaleX * sy
		b.D = sinDeg(rotationY) * scaleY * sy
		b.WorldX = x*sx + skeleton.X
		b.WorldY = y*sy + skeleton.Y
		return
	}

	pa, pb, pc, pd := parent.A, parent.B, parent.C, parent.D
	b.WorldX = pa*x + pb*y + parent.WorldX
	b.WorldY = pc*x + pd*y + parent.WorldY

	switch b.Data.TransformMode {
	case TransformNormal:
		rotationY := rotation + 90 + shearY
		la := cosDeg(rotation+shearX) * scaleX
		lb := cosDeg(rotationY) * scaleY
		lc := sinDeg(rotation+shearX) * scaleX
		ld := sinDeg(rotationY) * scaleY
		b.A = pa*la + pb*lc
		b.B = pa*lb + pb*ld
		b.C = pc*la + pd*lc
		b.D = pc*lb + pd*ld
		return

	case TransformOnlyTranslation:
		rotationY := rotation + 90 + shearY
		b.A = cosDeg(rotation+shearX) * scaleX
		b.B = cosDeg(rotationY) * scaleY
		b.C = sinDeg(rotation+shearX) * scaleX
		b.D = sinDeg(rotationY) * scaleY

	case TransformNoRotationOrReflection:
		s := pa*pa + pc*pc
		var prx float32
		if s > 0.0001 {
			s = abs32(pa*pd-pb*pc) / s
			pa /= skeleton.ScaleX
			pc /= skeleton.ScaleY
			pb = pc * s
			pd = pa * s
			prx = atan2Deg(pc, pa)
		} else {
			pa = 0
			pc = 0
			prx = 90 - atan2Deg(pd, pb)
		}
		rx := rotation + shearX - prx
		ry := rotation + shearY - prx + 90
		la := cosDeg(rx) * scaleX
		lb := cosDeg(ry) * scaleY
		lc := sinDeg(rx) * scaleX
		ld := sinDeg(ry) * scaleY
		b.A = pa*la - pb*lc
		b.B = pa*lb - pb*ld
		b.C = pc*la + pd*lc
		b.D = pc*lb + pd*ld

	case TransformNoScale, TransformNoScaleOrReflection:
		cos := cosDeg(rotation)
		sin := sinDeg(rotation)
		za := (pa*cos + pb*sin) / skeleton.ScaleX
		zc := (pc*cos + pd*sin) / skeleton.ScaleY
		s := float32(math.Sqrt(float64(za*za + zc*zc)))
		if s > 0.00001 {
			s = 1 / s
		}
		za *= s
		zc *= s
		s = float32(math.Sqrt(float64(za*za + zc*zc)))
		if b.Data.TransformMode == TransformNoScale &&
			(pa*pd-pb*pc < 0) != ((skeleton.ScaleX < 0) != (skeleton.ScaleY < 0)) {
			s = -s
		}
		r := math.Pi/2 + math.Atan2(float64(zc), float64(za))
		zb := float32(math.Cos(r)) * s
		zd := float32(math.Sin(r)) * s
		la := cosDeg(shearX) * scaleX
		lb := cosDeg(90+shearY) * scaleY
		lc := sinDeg(shearX) * scaleX
		ld := sinDeg(90+shearY) * scaleY
		b.A = za*la + zb*lc
		b.B = za*lb + zb*ld
		b.C = zc*la + zd*lc
		b.D = zc*lb + zd*ld
	}
	b.A *= skeleton.ScaleX
	b.B *= skeleton.ScaleX
	b.C *= skeleton.ScaleY
	b.D *= skeleton.ScaleY
}

// LocalToWorld transforms a point from the bone's coordinate space to world
// space.
func (b *Bone) LocalToWorld(localX, localY float32) (float32, float32) {
	return localX*b.A + localY*b.B + b.WorldX, localX*b.C + localY*b.D + b.WorldY
}

// Slot is the live-pose state of one slot: its current color, attachment,
// and deform buffer.
type Slot struct {
	Data       *SlotData
	Bone       *Bone
	Color      uint32 // RGBA8888
	Attachment Attachment

	// Deform holds vertex offsets from an active deform timeline; empty in
	// the setup pose.
	Deform []float32
}

// NewSlot creates a live slot for the given setup data.
func NewSlot(data *SlotData, bone *Bone) *Slot {
	slot := &Slot{Data: data, Bone: bone}
	slot.setToSetupPoseState()
	return slot
}

// SetAttachment sets the current attachment and discards any deform.
func (s *Slot) SetAttachment(attachment Attachment) {
	if s.Attachment == attachment {
		return
	}
	s.Attachment = attachment
	s.Deform = s.Deform[:0]
}

func (s *Slot) setToSetupPoseState() {
	s.Color = s.Data.Color
	s.Deform = s.Deform[:0]
}

// SetToSetupPose resets the slot's color and attachment per the setup pose.
func (s *Slot) SetToSetupPose() {
	s.setToSetupPoseState()
	if s.Data.AttachmentName == "" {
		s.Attachment = nil
		return
	}
	s.Attachment = nil
	s.SetAttachment(s.Bone.Skeleton.GetAttachment(s.Data.Index, s.Data.AttachmentName))
}

// Skeleton is a live pose over shared SkeletonData. Instances are cheap to
// create and fully independent of each other.
type Skeleton struct {
	Data      *SkeletonData
	Bones     []*Bone // setup order, parents before children
	Slots     []*Slot // setup order
	DrawOrder []*Slot
	Skin      *Skin // nil falls through to the data's default skin

	X, Y           float32
	ScaleX, ScaleY float32
}

// NewSkeleton instantiates a posed skeleton in its setup pose with world
// transforms already computed.
func NewSkeleton(data *SkeletonData) *Skeleton {
	skeleton := &Skeleton{
		Data:   data,
		ScaleX: 1,
		ScaleY: 1,
	}

	skeleton.Bones = make([]*Bone, 0, len(data.Bones))
	for _, boneData := range data.Bones {
		var parent *Bone
		if boneData.Parent != nil {
			parent = skeleton.Bones[boneData.Parent.Index]
		}
		bone := NewBone(boneData, skeleton, parent)
		if parent != nil {
			parent.Children = append(parent.Children, bone)
		}
		skeleton.Bones = append(skeleton.Bones, bone)
	}

	skeleton.Slots = make([]*Slot, 0, len(data.Slots))
	skeleton.DrawOrder = make([]*Slot, 0, len(data.Slots))
	for _, slotData := range data.Slots {
		slot := NewSlot(slotData, skeleton.Bones[slotData.BoneData.Index])
		skeleton.Slots = append(skeleton.Slots, slot)
		skeleton.DrawOrder = append(skeleton.DrawOrder, slot)
	}

	skeleton.SetSlotsToSetupPose()
	skeleton.UpdateWorldTransform()
	return skeleton
}

// UpdateWorldTransform computes world transforms for all bones. Bones are
// stored parents-first, so a single pass suffices.
func (s *Skeleton) UpdateWorldTransform() {
	for _, bone := range s.Bones {
		bone.UpdateWorldTransform()
	}
}

// SetToSetupPose resets bones and slots to the setup pose.
func (s *Skeleton) SetToSetupPose() {
	s.SetBonesToSetupPose()
	s.SetSlotsToSetupPose()
}

// SetBonesToSetupPose resets all bone local transforms to the setup pose.
func (s *Skeleton) SetBonesToSetupPose() {
	for _, bone := range s.Bones {
		bone.SetToSetupPose()
	}
}

// SetSlotsToSetupPose resets all slots and restores the setup draw order.
func (s *Skeleton) SetSlotsToSetupPose() {
	copy(s.DrawOrder, s.Slots)
	for _, slot := range s.Slots {
		slot.SetToSetupPose()
	}
}

// GetAttachment resolves an attachment by slot index and name through the
// active skin, falling back to the default skin.
func (s *Skeleton) GetAttachment(slotIndex int, name string) Attachment {
	if s.Skin != nil {
		if attachment := s.Skin.GetAttachment(slotIndex, name); attachment != nil {
			return attachment
		}
	}
	if s.Data.DefaultSkin != nil {
		return s.Data.DefaultSkin.GetAttachment(slotIndex, name)
	}
	return nil
}

// SetSkin switches the active skin. Attachments visible through the old skin
// are swapped for the new skin's replacements; with no previous skin, slots
// whose setup attachment the new skin provides are attached.
func (s *Skeleton) SetSkin(skin *Skin) {
	if skin == s.Skin {
		return
	}
	if skin != nil {
		if s.Skin != nil {
			for _, entry := range s.Skin.Entries() {
				slot := s.Slots[entry.SlotIndex]
				if slot.Attachment == entry.Attachment {
					if replacement := skin.GetAttachment(entry.SlotIndex, entry.Name); replacement != nil {
						slot.SetAttachment(replacement)
					}
				}
			}
		} else {
			for i, slot := range s.Slots {
				if name := slot.Data.AttachmentName; name != "" {
					if attachment := skin.GetAttachment(i, name); attachment != nil {
						slot.SetAttachment(attachment)
					}
				}
			}
		}
	}
	s.Skin = skin
}

// SetSkinByName switches the active skin by name.
func (s *Skeleton) SetSkinByName(name string) error {
	skin := s.Data.FindSkin(name)
	if skin == nil {
		return fmt.Errorf("%w: %q", ErrSkinNotFound, name)
	}
	s.SetSkin(skin)
	return nil
}

// FindBone returns the live bone with the given name, or nil.
func (s *Skeleton) FindBone(name string) *Bone {
	for _, bone := range s.Bones {
		if bone.Data.Name == name {
			return bone
		}
	}
	return nil
}

// FindSlot returns the live slot with the given name, or nil.
func (s *Skeleton) FindSlot(name string) *Slot {
	for _, slot := range s.Slots {
		if slot.Data.Name == name {
			return slot
		}
	}
	return nil
}

func cosDeg(degrees float32) float32 {
	return float32(math.Cos(float64(degrees) * math.Pi / 180))
}

func sinDeg(degrees float32) float32 {
	return float32(math.Sin(float64(degrees) * math.Pi / 180))
}

func atan2Deg(y, x float32) float32 {
	return float32(math.Atan2(float64(y), float64(x)) * 180 / math.Pi)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
