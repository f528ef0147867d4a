// skeltool is a CLI utility for inspecting Spine skeleton exports.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"

	"github.com/Faultbox/skelview/internal/loader"
	"github.com/Faultbox/skelview/internal/logger"
	"github.com/Faultbox/skelview/pkg/spine"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// The loader reports decode problems through the global logger; keep
	// console output at warnings so tool output stays clean.
	if err := logger.Init("warn", ""); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "atlas":
		cmdAtlas(args)
	case "textures", "tex":
		cmdTextures(args)
	case "check":
		cmdCheck(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`skeltool - Spine skeleton export utility

Usage:
  skeltool <command> [options]

Commands:
  info <file.skel | dir>                     Show skeleton information
  atlas [-v] <file.atlas>                    Show atlas pages and regions
  textures [-o dir] [-format png|webp] <dir> Export decoded textures
  check <dir> [dir...]                       Load exports and report problems

Examples:
  skeltool info exports/hero.skel
  skeltool atlas -v exports/hero.atlas
  skeltool textures -o ./out -format webp exports
  skeltool check exports`)
}

// loadBatch assembles every model found at path. A file argument loads its
// containing directory so the atlas and textures come along.
func loadBatch(path string) (*loader.BatchResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	dir := path
	if !info.IsDir() {
		dir = filepath.Dir(path)
	}
	records, err := loader.CollectFiles(dir)
	if err != nil {
		return nil, err
	}
	return loader.New().Load(records)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: skeltool info <file.skel | dir>")
		os.Exit(1)
	}

	path := args[0]
	result, err := loadBatch(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	models := result.Models
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// A file argument narrows the report to its own model.
		want := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		models = nil
		for _, model := range result.Models {
			if model.Name == want {
				models = append(models, model)
			}
		}
		if len(models) == 0 {
			fmt.Fprintf(os.Stderr, "No model assembled for %s\n", filepath.Base(path))
			os.Exit(1)
		}
	}

	for i, model := range models {
		if i > 0 {
			fmt.Println()
		}
		printModelInfo(model)
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
}

func printModelInfo(model *loader.Model) {
	data := model.Data
	fmt.Printf("Skeleton:   %s\n", model.Name)
	fmt.Printf("Version:    %s\n", data.Version)
	fmt.Printf("Hash:       %s\n", data.Hash)
	fmt.Printf("Bounds:     x=%.1f y=%.1f w=%.1f h=%.1f\n", data.X, data.Y, data.Width, data.Height)
	fmt.Printf("Bones:      %d\n", len(data.Bones))
	fmt.Printf("Slots:      %d\n", len(data.Slots))
	fmt.Printf("Skins:      %d\n", len(data.Skins))
	fmt.Printf("Events:     %d\n", len(data.Events))
	fmt.Printf("Animations: %d\n", len(data.Animations))

	if len(data.Animations) > 0 {
		fmt.Println()
		fmt.Println("Animations:")
		for _, anim := range data.Animations {
			fmt.Printf("  %-24s %6.2fs\n", anim.Name, anim.Duration)
		}
	}

	if len(model.TextureInfo) > 0 {
		fmt.Println()
		fmt.Println("Textures:")
		for _, tex := range model.TextureInfo {
			fmt.Printf("  %-24s %dx%d\n", tex.Name, tex.Width, tex.Height)
		}
	}
}

func cmdAtlas(args []string) {
	fs := flag.NewFlagSet("atlas", flag.ExitOnError)
	verbose := fs.Bool("v", false, "List every region")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: skeltool atlas [-v] <file.atlas>")
		os.Exit(1)
	}

	path := fs.Arg(0)
	atlas, err := spine.ParseAtlasFile(path, nil)
	if errors.Is(err, spine.ErrPageSizeUnknown) {
		// Older exports omit the size line; fall back to the images next
		// to the atlas for the page dimensions.
		atlas, err = spine.ParseAtlasFile(path, dirTextureLoader(filepath.Dir(path)))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Atlas:   %s\n", filepath.Base(path))
	fmt.Printf("Pages:   %d\n", len(atlas.Pages))
	fmt.Printf("Regions: %d\n", len(atlas.Regions))

	for _, page := range atlas.Pages {
		fmt.Println()
		fmt.Printf("Page %s\n", page.Name)
		fmt.Printf("  size:   %dx%d\n", page.Width, page.Height)
		if page.Format != "" {
			fmt.Printf("  format: %s\n", page.Format)
		}
		if page.MinFilter != "" {
			fmt.Printf("  filter: %s,%s\n", page.MinFilter, page.MagFilter)
		}
		if page.PMA {
			fmt.Println("  pma:    true")
		}

		if !*verbose {
			continue
		}
		for _, region := range atlas.Regions {
			if region.Page != page {
				continue
			}
			rotate := ""
			if region.Rotate() {
				rotate = fmt.Sprintf(" rot=%d", region.Degrees)
			}
			fmt.Printf("  %-24s xy=%d,%d size=%dx%d%s\n",
				region.Name, region.X, region.Y, region.Width, region.Height, rotate)
		}
	}
}

// dirTextureLoader resolves atlas page textures against the images found
// under dir.
func dirTextureLoader(dir string) spine.TextureLoader {
	records, err := loader.CollectFiles(dir)
	if err != nil {
		records = nil
	}
	var rasters []loader.FileRecord
	for _, rec := range records {
		if loader.IsRasterFile(rec.Name) {
			rasters = append(rasters, rec)
		}
	}
	pool := loader.PreloadImages(rasters)
	return func(page *spine.AtlasPage, path string) (spine.Texture, error) {
		img, err := pool.Resolve(path)
		if err != nil {
			return nil, err
		}
		return img, nil
	}
}

func cmdTextures(args []string) {
	fs := flag.NewFlagSet("textures", flag.ExitOnError)
	outDir := fs.String("o", ".", "Output directory")
	format := fs.String("format", "png", "Output format: png or webp")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: skeltool textures [-o dir] [-format png|webp] <dir>")
		os.Exit(1)
	}
	if *format != "png" && *format != "webp" {
		fmt.Fprintf(os.Stderr, "Unknown format: %s\n", *format)
		os.Exit(1)
	}

	records, err := loader.CollectFiles(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	var rasters []loader.FileRecord
	for _, rec := range records {
		if loader.IsRasterFile(rec.Name) {
			rasters = append(rasters, rec)
		}
	}
	if len(rasters) == 0 {
		fmt.Fprintln(os.Stderr, "No image files found")
		os.Exit(1)
	}

	pool := loader.PreloadImages(rasters)
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	exported := 0
	for _, img := range pool.Images() {
		base := filepath.Base(img.Name)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		outputPath := filepath.Join(*outDir, base+"."+*format)

		if err := writeImage(outputPath, img.Bitmap, *format); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputPath, err)
			continue
		}
		fmt.Printf("Exported: %s (%dx%d)\n", outputPath, img.Width(), img.Height())
		exported++
	}

	fmt.Fprintf(os.Stderr, "\nExported %d textures\n", exported)
}

func writeImage(path string, img image.Image, format string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if format == "webp" {
		return nativewebp.Encode(file, img, nil)
	}
	return png.Encode(file, img)
}

func cmdCheck(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: skeltool check <dir> [dir...]")
		os.Exit(1)
	}

	failed := false
	for _, dir := range args {
		records, err := loader.CollectFiles(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", dir, err)
			failed = true
			continue
		}

		result, err := loader.New().Load(records)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", dir, err)
			failed = true
			continue
		}

		fmt.Printf("ok   %s  %d model(s)\n", dir, len(result.Models))
		for _, model := range result.Models {
			fmt.Printf("     %s: %d bones, %d slots, %d animations\n",
				model.Name, len(model.Data.Bones), len(model.Data.Slots), len(model.Data.Animations))
		}
		for _, warning := range result.Warnings {
			fmt.Printf("     warning: %s\n", warning)
		}
	}

	if failed {
		os.Exit(1)
	}
}
