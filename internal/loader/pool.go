package loader

import (
	"bytes"
	"image"
	"sync"

	"go.uber.org/zap"

	// Decoders for every extension in rasterExts.
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/skelview/internal/logger"
)

// PreloadedImage is one decoded raster file, held for the duration of a
// batch load.
type PreloadedImage struct {
	Name     string
	Bitmap   image.Image
	ByteSize int // size of the encoded file, not the decoded bitmap
}

// Width returns the bitmap width in pixels.
func (p *PreloadedImage) Width() int {
	return p.Bitmap.Bounds().Dx()
}

// Height returns the bitmap height in pixels.
func (p *PreloadedImage) Height() int {
	return p.Bitmap.Bounds().Dy()
}

// ImagePool holds preloaded images in submission order. Exact-name lookup
// is backed by an index; fuzzy lookup scans the ordered slice.
type ImagePool struct {
	images []*PreloadedImage
	index  map[string]int
}

func newImagePool() *ImagePool {
	return &ImagePool{index: make(map[string]int)}
}

// add appends an image, keeping the earlier entry when names collide.
func (p *ImagePool) add(img *PreloadedImage) {
	if _, ok := p.index[img.Name]; ok {
		return
	}
	p.index[img.Name] = len(p.images)
	p.images = append(p.images, img)
}

// Len returns the number of pooled images.
func (p *ImagePool) Len() int {
	return len(p.images)
}

// Images returns the pooled images in submission order. The slice is
// shared; callers must not modify it.
func (p *ImagePool) Images() []*PreloadedImage {
	return p.images
}

// PreloadImages decodes every raster record concurrently and returns once
// all decodes have settled. A file that fails to decode is logged and left
// out of the pool; it never fails the call.
func PreloadImages(files []FileRecord) *ImagePool {
	results := make([]*PreloadedImage, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f FileRecord) {
			defer wg.Done()
			img, _, err := image.Decode(bytes.NewReader(f.Data))
			if err != nil {
				logger.Warn("image decode failed",
					zap.String("name", f.Name),
					zap.Error(err))
				return
			}
			results[i] = &PreloadedImage{
				Name:     f.Name,
				Bitmap:   img,
				ByteSize: len(f.Data),
			}
		}(i, f)
	}
	wg.Wait()

	// Pool order follows submission order regardless of decode timing.
	pool := newImagePool()
	for _, img := range results {
		if img != nil {
			pool.add(img)
		}
	}
	return pool
}
