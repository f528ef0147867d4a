package loader

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Faultbox/skelview/pkg/spine"
)

// TextureInfo describes one atlas page and the image backing it.
type TextureInfo struct {
	Name     string
	Width    int
	Height   int
	ByteSize int
}

// Model is one assembled skeleton/atlas pair. Data and Atlas are immutable
// and shared; Pose is a live instance the caller may mutate freely.
type Model struct {
	ID             uuid.UUID
	Name           string
	Data           *spine.SkeletonData
	Atlas          *spine.Atlas
	Pose           *spine.Skeleton
	AnimationNames []string
	SkinNames      []string
	TextureInfo    []TextureInfo
}

// NewPose instantiates another independent live pose over the model's
// shared skeleton data.
func (m *Model) NewPose() *spine.Skeleton {
	return spine.NewSkeleton(m.Data)
}

// assemble parses one atlas, decodes one skeleton binary against it and
// builds a live pose. The pool backs texture lookups for the atlas pages
// and for the reported texture info.
func assemble(skelFile, atlasFile FileRecord, pool *ImagePool) (*Model, error) {
	loadTexture := func(page *spine.AtlasPage, path string) (spine.Texture, error) {
		img, err := pool.Resolve(path)
		if err != nil {
			return nil, err
		}
		return img, nil
	}

	atlas, err := spine.ParseAtlas(atlasFile.Data, loadTexture)
	if err != nil {
		return nil, fmt.Errorf("atlas %s: %w", atlasFile.Name, err)
	}

	data, err := spine.ParseSkeleton(skelFile.Data, atlas)
	if err != nil {
		return nil, fmt.Errorf("skeleton %s: %w", skelFile.Name, err)
	}

	model := &Model{
		ID:    uuid.New(),
		Name:  stripExt(skelFile.Name),
		Data:  data,
		Atlas: atlas,
		Pose:  spine.NewSkeleton(data),
	}
	for _, animation := range data.Animations {
		model.AnimationNames = append(model.AnimationNames, animation.Name)
	}
	for _, skin := range data.Skins {
		model.SkinNames = append(model.SkinNames, skin.Name)
	}
	model.TextureInfo = textureInfo(atlas, pool)
	return model, nil
}

// textureInfo reports each atlas page with the dimensions and encoded size
// of its backing image. A page whose path does not resolve falls back to
// its declared dimensions and a zero byte size.
func textureInfo(atlas *spine.Atlas, pool *ImagePool) []TextureInfo {
	infos := make([]TextureInfo, 0, len(atlas.Pages))
	for _, page := range atlas.Pages {
		info := TextureInfo{
			Name:   page.Name,
			Width:  page.Width,
			Height: page.Height,
		}
		if img, err := pool.Resolve(page.Name); err == nil {
			info.Width = img.Width()
			info.Height = img.Height()
			info.ByteSize = img.ByteSize
		}
		infos = append(infos, info)
	}
	return infos
}
