// Side panel and status bar rendering.
package main

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/Faultbox/skelview/internal/debug"
	"github.com/Faultbox/skelview/internal/loader"
)

// renderModelPanel shows the loaded models and the selected model's
// animations, skins and textures.
func (app *App) renderModelPanel() {
	if len(app.models) == 0 {
		imgui.TextDisabled("No models loaded")
		imgui.Spacing()
		if imgui.ButtonV("Open Skeleton...", imgui.NewVec2(-1, 0)) {
			app.openFileDialog()
		}
		if imgui.ButtonV("Open Folder...", imgui.NewVec2(-1, 0)) {
			app.openFolderDialog()
		}
		return
	}

	if imgui.BeginChildStrV("ModelList", imgui.NewVec2(0, 150), imgui.ChildFlagsBorders, 0) {
		for i, model := range app.models {
			label := fmt.Sprintf("%s (%d bones)", model.Name, len(model.Data.Bones))
			if imgui.SelectableBoolV(label, i == app.selected, 0, imgui.NewVec2(0, 0)) {
				app.selectModel(i)
			}
			if imgui.IsItemHovered() {
				imgui.SetTooltip(model.ID.String())
			}
		}
	}
	imgui.EndChild()

	model := app.currentModel()
	if model == nil {
		return
	}

	imgui.Separator()
	app.renderAnimationList(model)
	app.renderSkinList(model)
	app.renderTextureTable(model)
	app.renderWarnings()
}

func (app *App) renderAnimationList(model *loader.Model) {
	label := fmt.Sprintf("Animations (%d)", len(model.AnimationNames))
	if !imgui.TreeNodeExStrV(label, imgui.TreeNodeFlagsDefaultOpen) {
		return
	}
	for i, name := range model.AnimationNames {
		if imgui.SelectableBoolV(name, i == app.activeAnim, 0, imgui.NewVec2(0, 0)) {
			app.activeAnim = i
		}
		if anim := model.Data.FindAnimation(name); anim != nil {
			imgui.SameLine()
			imgui.TextColored(ColorDurationText, fmt.Sprintf("%.2fs", anim.Duration))
		}
	}
	if len(model.AnimationNames) > 0 {
		imgui.Text("Speed:")
		imgui.SameLine()
		imgui.SetNextItemWidth(-1)
		imgui.SliderFloatV("##Speed", &app.animSpeed, 0.1, 3.0, "%.1fx", imgui.SliderFlagsNone)
	}
	imgui.TreePop()
}

func (app *App) renderSkinList(model *loader.Model) {
	label := fmt.Sprintf("Skins (%d)", len(model.SkinNames))
	if !imgui.TreeNodeExStrV(label, imgui.TreeNodeFlagsDefaultOpen) {
		return
	}
	if imgui.SelectableBoolV("(setup pose)", app.activeSkin < 0, 0, imgui.NewVec2(0, 0)) {
		app.applySkin(-1)
	}
	for i, name := range model.SkinNames {
		if imgui.SelectableBoolV(name, i == app.activeSkin, 0, imgui.NewVec2(0, 0)) {
			app.applySkin(i)
		}
	}
	imgui.TreePop()
}

func (app *App) renderTextureTable(model *loader.Model) {
	label := fmt.Sprintf("Textures (%d)", len(model.TextureInfo))
	if !imgui.TreeNodeExStrV(label, imgui.TreeNodeFlagsNone) {
		return
	}
	if imgui.BeginTable("##Textures", 3) {
		imgui.TableSetupColumnV("Name", imgui.TableColumnFlagsWidthStretch, 0, 0)
		imgui.TableSetupColumnV("Size", imgui.TableColumnFlagsWidthFixed, 70, 0)
		imgui.TableSetupColumnV("Bytes", imgui.TableColumnFlagsWidthFixed, 70, 0)
		for _, info := range model.TextureInfo {
			imgui.TableNextRow()
			imgui.TableNextColumn()
			imgui.Text(info.Name)
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%dx%d", info.Width, info.Height))
			imgui.TableNextColumn()
			imgui.Text(formatBytes(info.ByteSize))
		}
		imgui.EndTable()
	}
	imgui.TreePop()
}

func (app *App) renderWarnings() {
	if len(app.warnings) == 0 {
		return
	}
	label := fmt.Sprintf("Warnings (%d)", len(app.warnings))
	if !imgui.TreeNodeExStrV(label, imgui.TreeNodeFlagsNone) {
		return
	}
	for _, warning := range app.warnings {
		imgui.TextColored(ColorWarningText, warning)
	}
	imgui.TreePop()
}

// renderOverlayPanel holds the debug overlay toggles and view controls.
func (app *App) renderOverlayPanel() {
	imgui.Text("Debug Overlays")
	imgui.Separator()

	imgui.Checkbox("Bones", &app.toggles.Bones)
	imgui.Checkbox("Regions", &app.toggles.Regions)
	imgui.Checkbox("Mesh Hull", &app.toggles.MeshHull)
	imgui.Checkbox("Mesh Triangles", &app.toggles.MeshTriangles)
	imgui.Checkbox("Clipping", &app.toggles.Clipping)
	imgui.Checkbox("Paths", &app.toggles.Paths)
	imgui.Checkbox("Bounding Boxes", &app.toggles.BoundingBoxes)

	imgui.Spacing()
	if imgui.Button("All") {
		app.toggles = debug.Toggles{
			Bones:         true,
			Regions:       true,
			MeshHull:      true,
			MeshTriangles: true,
			Clipping:      true,
			Paths:         true,
			BoundingBoxes: true,
		}
	}
	imgui.SameLine()
	if imgui.Button("None") {
		app.toggles = debug.Toggles{}
	}

	imgui.Spacing()
	imgui.Separator()
	imgui.Text("Bone width:")
	imgui.SetNextItemWidth(-1)
	imgui.SliderFloatV("##BoneWidth", &app.extractor.BoneWidth, 1, 16, "%.1f", imgui.SliderFlagsNone)

	imgui.Spacing()
	imgui.Separator()
	imgui.Text(fmt.Sprintf("Zoom: %.2fx", app.zoom))
	if imgui.ButtonV("Reset View", imgui.NewVec2(-1, 0)) {
		app.resetView()
	}
}

// renderStatusBar shows load totals and the selected model's counts.
func (app *App) renderStatusBar() {
	if len(app.models) == 0 {
		imgui.Text("No models loaded")
		return
	}
	status := fmt.Sprintf("%d model(s) | %d warning(s)", len(app.models), len(app.warnings))
	if model := app.currentModel(); model != nil {
		status += fmt.Sprintf(" | %s: %d bones, %d slots, %d animations",
			model.Name, len(model.Data.Bones), len(model.Data.Slots), len(model.AnimationNames))
	}
	imgui.Text(status)
	if app.watcher != nil {
		imgui.SameLine()
		imgui.TextDisabled("| watching")
	}
}

// formatBytes renders a byte count in a compact human unit.
func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
