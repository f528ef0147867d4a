// Pose viewport: renders the debug overlay geometry onto an ImGui canvas.
package main

import (
	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/Faultbox/skelview/internal/debug"
	"github.com/Faultbox/skelview/pkg/math"
)

// lastMousePos tracks the cursor between frames for drag panning.
var lastMousePos imgui.Vec2

// view maps skeleton world coordinates onto the screen. World Y grows up,
// screen Y grows down, so the Y axis flips.
type view struct {
	origin imgui.Vec2 // canvas center in screen coordinates
	zoom   float32
	panX   float32
	panY   float32
}

func (v view) point(p math.Vec2) imgui.Vec2 {
	return imgui.NewVec2(
		v.origin.X+(p.X+v.panX)*v.zoom,
		v.origin.Y-(p.Y+v.panY)*v.zoom,
	)
}

// renderViewport draws the selected model's pose overlays and handles
// pan/zoom input on the canvas.
func (app *App) renderViewport() {
	model := app.currentModel()
	if model == nil {
		imgui.TextDisabled("Open a skeleton file or drop one onto the window")
		return
	}

	avail := imgui.ContentRegionAvail()
	if avail.X < 50 || avail.Y < 50 {
		return
	}

	drawList := imgui.WindowDrawList()
	canvasPos := imgui.CursorScreenPos()
	canvasMax := imgui.NewVec2(canvasPos.X+avail.X, canvasPos.Y+avail.Y)

	drawList.AddRectFilledV(canvasPos, canvasMax, imgui.ColorU32Vec4(ColorCanvasBg), 0, 0)

	v := view{
		origin: imgui.NewVec2(canvasPos.X+avail.X/2, canvasPos.Y+avail.Y/2),
		zoom:   app.zoom,
		panX:   app.panX,
		panY:   app.panY,
	}

	// Origin cross so an empty pose still shows where it anchors.
	originCol := imgui.ColorU32Vec4(ColorOrigin)
	center := v.point(math.Vec2{})
	drawList.AddLineV(imgui.NewVec2(center.X-8, center.Y), imgui.NewVec2(center.X+8, center.Y), originCol, 1)
	drawList.AddLineV(imgui.NewVec2(center.X, center.Y-8), imgui.NewVec2(center.X, center.Y+8), originCol, 1)

	model.Pose.UpdateWorldTransform()
	set := app.extractor.Extract(model.Pose, app.toggles)
	drawOverlays(drawList, set, v)

	drawList.AddRectV(canvasPos, canvasMax, imgui.ColorU32Vec4(ColorCanvasBorder), 0, 0, 1)

	// Reserve the canvas area so the window scrolls and hovers correctly.
	imgui.Dummy(avail)

	app.handleViewportInput()
}

// handleViewportInput pans with a left drag and zooms with the wheel.
func (app *App) handleViewportInput() {
	if !imgui.IsWindowHovered() {
		return
	}

	mousePos := imgui.MousePos()
	if imgui.IsMouseDragging(imgui.MouseButtonLeft) {
		app.panX += (mousePos.X - lastMousePos.X) / app.zoom
		app.panY -= (mousePos.Y - lastMousePos.Y) / app.zoom
	}
	lastMousePos = mousePos

	wheel := imgui.CurrentIO().MouseWheel()
	if wheel != 0 {
		app.zoomBy(1 + wheel*0.1)
	}
}

// drawOverlays renders every primitive in the set through the view transform.
// Filled polygons go out as a triangle fan with an opaque outline on top;
// unfilled triangles as three strokes.
func drawOverlays(drawList *imgui.DrawList, set *debug.DrawSet, v view) {
	for _, poly := range set.Polygons {
		if len(poly.Points) < 3 {
			continue
		}
		fill := imgui.ColorU32Vec4(categoryColor(poly.Category))
		anchor := v.point(poly.Points[0])
		for i := 1; i+1 < len(poly.Points); i++ {
			drawList.AddTriangleFilled(anchor, v.point(poly.Points[i]), v.point(poly.Points[i+1]), fill)
		}
		outlineVec := categoryColor(poly.Category)
		outlineVec.W = 1
		outline := imgui.ColorU32Vec4(outlineVec)
		for i := range poly.Points {
			j := (i + 1) % len(poly.Points)
			drawList.AddLineV(v.point(poly.Points[i]), v.point(poly.Points[j]), outline, 1)
		}
	}

	for _, line := range set.Polylines {
		col := imgui.ColorU32Vec4(categoryColor(line.Category))
		for i := 0; i+1 < len(line.Points); i++ {
			drawList.AddLineV(v.point(line.Points[i]), v.point(line.Points[i+1]), col, 1)
		}
		if line.Closed && len(line.Points) > 2 {
			drawList.AddLineV(v.point(line.Points[len(line.Points)-1]), v.point(line.Points[0]), col, 1)
		}
	}

	for _, tri := range set.Triangles {
		col := imgui.ColorU32Vec4(categoryColor(tri.Category))
		a, b, c := v.point(tri.V0), v.point(tri.V1), v.point(tri.V2)
		if tri.Filled {
			drawList.AddTriangleFilled(a, b, c, col)
		} else {
			drawList.AddLineV(a, b, col, 1)
			drawList.AddLineV(b, c, col, 1)
			drawList.AddLineV(c, a, col, 1)
		}
	}

	for _, circle := range set.Circles {
		col := imgui.ColorU32Vec4(categoryColor(circle.Category))
		center := v.point(circle.Center)
		radius := circle.Radius * v.zoom
		if circle.Filled {
			drawList.AddCircleFilledV(center, radius, col, 12)
		} else {
			drawList.AddCircleV(center, radius, col, 16, 1)
		}
	}
}
