package loader

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/skelview/internal/logger"
)

// ErrNoSkeletonFile is returned when the input set contains no .skel file.
var ErrNoSkeletonFile = errors.New("no skeleton file in input set")

// BatchError reports a batch in which no model could be assembled. Items
// holds one message per failed skeleton file.
type BatchError struct {
	Items []string
}

func (e *BatchError) Error() string {
	if len(e.Items) == 0 {
		return "no models could be loaded"
	}
	return strings.Join(e.Items, "\n")
}

// BatchResult is the outcome of one Load call. Warnings lists per-item
// failures that were masked by at least one success.
type BatchResult struct {
	Models   []*Model
	Warnings []string
}

// Loader assembles models out of file batches. It holds no per-call state,
// so a Loader may be shared and Load called concurrently.
type Loader struct{}

// New returns a Loader.
func New() *Loader {
	return &Loader{}
}

// Load assembles one model per skeleton file in files. All images are
// decoded up front into a pool shared by every pair. A failing pair never
// aborts its siblings; Load returns an error only when the input has no
// skeleton file at all or no pair could be assembled.
func (l *Loader) Load(files []FileRecord) (*BatchResult, error) {
	set := classify(files)
	if len(set.skeletons) == 0 {
		return nil, ErrNoSkeletonFile
	}

	pool := PreloadImages(set.rasters)
	logger.Debug("image pool ready",
		zap.Int("submitted", len(set.rasters)),
		zap.Int("decoded", pool.Len()))

	var models []*Model
	var failures []string
	for _, skel := range set.skeletons {
		base := stripExt(skel.Name)

		atlasFile, ok := findAtlas(set.atlases, base)
		if !ok {
			failures = append(failures, fmt.Sprintf("%s: no matching atlas", base))
			logger.Warn("no matching atlas", zap.String("model", base))
			continue
		}

		model, err := assemble(skel, atlasFile, pool)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", base, err))
			logger.Warn("assembly failed", zap.String("model", base), zap.Error(err))
			continue
		}
		models = append(models, model)
		logger.Info("model assembled",
			zap.String("model", model.Name),
			zap.String("id", model.ID.String()),
			zap.Int("animations", len(model.AnimationNames)),
			zap.Int("skins", len(model.SkinNames)))
	}

	if len(models) == 0 {
		return nil, &BatchError{Items: failures}
	}
	return &BatchResult{Models: models, Warnings: failures}, nil
}

// findAtlas returns the atlas record whose stripped name equals base.
// Pairing is exact; fuzzy matching applies to texture paths only.
func findAtlas(atlases []FileRecord, base string) (FileRecord, bool) {
	for _, a := range atlases {
		if stripExt(a.Name) == base {
			return a, true
		}
	}
	return FileRecord{}, false
}
