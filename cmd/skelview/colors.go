// Color definitions for the viewer UI.
package main

import (
	"strconv"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/Faultbox/skelview/internal/debug"
)

// Overlay colors, one per debug category. Fill categories carry their alpha
// here; outlines are drawn fully opaque.
var (
	ColorBones         = imgui.NewVec4(1.00, 0.85, 0.10, 1.00)
	ColorRegions       = imgui.NewVec4(0.25, 0.65, 1.00, 1.00)
	ColorMeshHull      = imgui.NewVec4(0.30, 1.00, 0.50, 1.00)
	ColorMeshTriangles = imgui.NewVec4(0.30, 1.00, 0.50, 0.45)
	ColorClipping      = imgui.NewVec4(0.85, 0.30, 0.90, 0.40)
	ColorPaths         = imgui.NewVec4(1.00, 0.45, 0.20, 1.00)
	ColorBoundingBoxes = imgui.NewVec4(0.20, 0.90, 0.90, 0.35)
)

// UI colors
var (
	ColorOrigin       = imgui.NewVec4(0.50, 0.50, 0.50, 0.60)
	ColorCanvasBg     = imgui.NewVec4(0.10, 0.10, 0.10, 1.00)
	ColorCanvasBorder = imgui.NewVec4(0.45, 0.45, 0.45, 1.00)
	ColorWarningText  = imgui.NewVec4(1.00, 0.80, 0.00, 1.00)
	ColorErrorText    = imgui.NewVec4(1.00, 0.30, 0.30, 1.00)
	ColorDurationText = imgui.NewVec4(0.60, 0.60, 0.60, 1.00)
)

// categoryColor maps a debug category to its display color.
func categoryColor(c debug.Category) imgui.Vec4 {
	switch c {
	case debug.CategoryBones:
		return ColorBones
	case debug.CategoryRegions:
		return ColorRegions
	case debug.CategoryMeshHull:
		return ColorMeshHull
	case debug.CategoryMeshTriangles:
		return ColorMeshTriangles
	case debug.CategoryClipping:
		return ColorClipping
	case debug.CategoryPaths:
		return ColorPaths
	case debug.CategoryBoundingBoxes:
		return ColorBoundingBoxes
	default:
		return imgui.NewVec4(1, 1, 1, 1)
	}
}

// backgroundVec4 parses a hex color like "202020" or "#1a1a2e" into a Vec4.
// Bad input falls back to a dark gray.
func backgroundVec4(hex string) imgui.Vec4 {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return ColorCanvasBg
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return ColorCanvasBg
	}
	r := float32(v>>16&0xFF) / 255
	g := float32(v>>8&0xFF) / 255
	b := float32(v&0xFF) / 255
	return imgui.NewVec4(r, g, b, 1)
}
