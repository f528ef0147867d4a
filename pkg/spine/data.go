package spine

// SkeletonData is the immutable setup-pose description of a skeleton as
// exported by the editor. Instances are shared; live poses are created from
// it with NewSkeleton.
type SkeletonData struct {
	Hash    string
	Version string
	X       float32
	Y       float32
	Width   float32
	Height  float32

	// Nonessential export data, zero-valued unless the export included it.
	FPS        float32
	ImagesPath string
	AudioPath  string

	Bones                []*BoneData
	Slots                []*SlotData
	IKConstraints        []ConstraintData
	TransformConstraints []ConstraintData
	PathConstraints      []ConstraintData
	Skins                []*Skin
	DefaultSkin          *Skin
	Events               []*EventData
	Animations           []*Animation
}

// FindBone returns the bone data with the given name, or nil.
func (d *SkeletonData) FindBone(name string) *BoneData {
	for _, bone := range d.Bones {
		if bone.Name == name {
			return bone
		}
	}
	return nil
}

// FindSlot returns the slot data with the given name, or nil.
func (d *SkeletonData) FindSlot(name string) *SlotData {
	for _, slot := range d.Slots {
		if slot.Name == name {
			return slot
		}
	}
	return nil
}

// FindSkin returns the skin with the given name, or nil.
func (d *SkeletonData) FindSkin(name string) *Skin {
	for _, skin := range d.Skins {
		if skin.Name == name {
			return skin
		}
	}
	return nil
}

// FindAnimation returns the animation with the given name, or nil.
func (d *SkeletonData) FindAnimation(name string) *Animation {
	for _, animation := range d.Animations {
		if animation.Name == name {
			return animation
		}
	}
	return nil
}

// BoneData is the setup-pose state of one bone.
type BoneData struct {
	Index         int
	Name          string
	Parent        *BoneData // nil for the root bone
	Length        float32
	X, Y          float32
	Rotation      float32 // degrees
	ScaleX        float32
	ScaleY        float32
	ShearX        float32
	ShearY        float32
	TransformMode TransformMode
	SkinRequired  bool
	Color         uint32 // RGBA8888, editor only
}

// SlotData is the setup-pose state of one slot.
type SlotData struct {
	Index          int
	Name           string
	BoneData       *BoneData
	Color          uint32 // RGBA8888
	DarkColor      uint32 // RGB888, valid when HasDarkColor
	HasDarkColor   bool
	AttachmentName string // setup attachment, "" for none
	BlendMode      BlendMode
}

// ConstraintData records a constraint's identity. Constraint solving happens
// in an animation runtime; decoding keeps the metadata for inspection.
type ConstraintData struct {
	Name         string
	Order        int
	SkinRequired bool
}

// EventData is the setup description of a named trigger event.
type EventData struct {
	Name        string
	IntValue    int
	FloatValue  float32
	StringValue string
	AudioPath   string
	Volume      float32
	Balance     float32
}

// Animation is a named timeline set. Timelines are consumed during decoding;
// only the identity and total duration are retained.
type Animation struct {
	Name     string
	Duration float32 // seconds
}

// SkinEntry is one attachment placement within a skin.
type SkinEntry struct {
	SlotIndex  int
	Name       string
	Attachment Attachment
}

// Skin maps (slot, name) pairs to attachments. Entries preserve insertion
// order so iteration is deterministic.
type Skin struct {
	Name    string
	entries []SkinEntry
	lookup  map[skinKey]int
}

type skinKey struct {
	slotIndex int
	name      string
}

// NewSkin creates an empty skin.
func NewSkin(name string) *Skin {
	return &Skin{
		Name:   name,
		lookup: make(map[skinKey]int),
	}
}

// SetAttachment stores an attachment under the slot index and name,
// replacing any previous entry for that pair.
func (s *Skin) SetAttachment(slotIndex int, name string, attachment Attachment) {
	key := skinKey{slotIndex, name}
	if i, ok := s.lookup[key]; ok {
		s.entries[i].Attachment = attachment
		return
	}
	s.lookup[key] = len(s.entries)
	s.entries = append(s.entries, SkinEntry{slotIndex, name, attachment})
}

// GetAttachment returns the attachment for the slot index and name, or nil.
func (s *Skin) GetAttachment(slotIndex int, name string) Attachment {
	if i, ok := s.lookup[skinKey{slotIndex, name}]; ok {
		return s.entries[i].Attachment
	}
	return nil
}

// Entries returns the skin's placements in insertion order. The returned
// slice is shared; callers must not modify it.
func (s *Skin) Entries() []SkinEntry {
	return s.entries
}
