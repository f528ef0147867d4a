// Package loader assembles viewable models from a loose set of skeleton,
// atlas and raster image files.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/skelview/internal/logger"
)

const (
	extSkeleton = "skel"
	extAtlas    = "atlas"
)

// rasterExts lists the raster extensions the preload pool can decode. The
// matching decoders are registered in pool.go.
var rasterExts = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"bmp":  true,
	"tga":  true,
	"webp": true,
}

// FileRecord is one input file. Name is the name the file was submitted
// under and may contain slash-separated directories; Ext is the lower-cased
// extension without the dot.
type FileRecord struct {
	Name string
	Ext  string
	Data []byte
	Path string // on-disk origin, empty for in-memory records
}

// NewFileRecord builds a record around an in-memory byte slice.
func NewFileRecord(name string, data []byte) FileRecord {
	return FileRecord{Name: name, Ext: fileExt(name), Data: data}
}

// ReadFileRecord reads a single file from disk. The record name is the base
// name of the path.
func ReadFileRecord(path string) (FileRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileRecord{}, err
	}
	rec := NewFileRecord(filepath.Base(path), data)
	rec.Path = path
	return rec, nil
}

// CollectFiles walks root recursively and reads every file with a
// recognized extension. Record names are slash-separated paths relative to
// root, so atlas page paths that include directories still resolve.
func CollectFiles(root string) ([]FileRecord, error) {
	var records []FileRecord
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		ext := fileExt(entry.Name())
		if ext != extSkeleton && ext != extAtlas && !rasterExts[ext] {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		name := entry.Name()
		if rel, relErr := filepath.Rel(root, path); relErr == nil {
			name = filepath.ToSlash(rel)
		}
		rec := NewFileRecord(name, data)
		rec.Path = path
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// IsAssetFile reports whether the name carries an extension the pipeline
// recognizes. Watchers use it to filter noise before triggering a reload.
func IsAssetFile(name string) bool {
	ext := fileExt(name)
	return ext == extSkeleton || ext == extAtlas || rasterExts[ext]
}

// IsRasterFile reports whether the name carries a recognized raster image
// extension.
func IsRasterFile(name string) bool {
	return rasterExts[fileExt(name)]
}

// fileSet is the outcome of classifying one input batch.
type fileSet struct {
	skeletons []FileRecord
	atlases   []FileRecord
	rasters   []FileRecord
}

// classify partitions records by extension, preserving input order within
// each group. Unrecognized extensions are skipped.
func classify(files []FileRecord) fileSet {
	var set fileSet
	for _, f := range files {
		switch {
		case f.Ext == extSkeleton:
			set.skeletons = append(set.skeletons, f)
		case f.Ext == extAtlas:
			set.atlases = append(set.atlases, f)
		case rasterExts[f.Ext]:
			set.rasters = append(set.rasters, f)
		default:
			logger.Debug("ignoring unrecognized file", zap.String("name", f.Name))
		}
	}
	return set
}

// fileExt returns the lower-cased extension without the leading dot.
func fileExt(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// stripExt returns name with its extension removed.
func stripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
