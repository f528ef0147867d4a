// Package spine provides parsers and a minimal runtime for Spine 3.8
// skeletal animation assets: texture atlas descriptors, skeleton binaries,
// and posed skeleton instances with world-space vertex computation.
package spine

// TransformMode determines how a bone inherits its parent's world transform.
type TransformMode int

// Transform inheritance modes.
const (
	TransformNormal TransformMode = iota
	TransformOnlyTranslation
	TransformNoRotationOrReflection
	TransformNoScale
	TransformNoScaleOrReflection
)

// String returns the mode name used in editor exports.
func (m TransformMode) String() string {
	switch m {
	case TransformNormal:
		return "normal"
	case TransformOnlyTranslation:
		return "onlyTranslation"
	case TransformNoRotationOrReflection:
		return "noRotationOrReflection"
	case TransformNoScale:
		return "noScale"
	case TransformNoScaleOrReflection:
		return "noScaleOrReflection"
	}
	return "unknown"
}

// BlendMode determines how a slot's attachment is composited.
type BlendMode int

// Slot blend modes.
const (
	BlendNormal BlendMode = iota
	BlendAdditive
	BlendMultiply
	BlendScreen
)

// String returns the blend mode name used in editor exports.
func (b BlendMode) String() string {
	switch b {
	case BlendNormal:
		return "normal"
	case BlendAdditive:
		return "additive"
	case BlendMultiply:
		return "multiply"
	case BlendScreen:
		return "screen"
	}
	return "unknown"
}
