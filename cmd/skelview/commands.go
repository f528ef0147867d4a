// Screenshot capture, state dump and remote command handling.
package main

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/skelview/internal/debug"
)

// GUIState is the viewer state snapshot written on Ctrl+D for UI automation.
type GUIState struct {
	Timestamp string          `json:"timestamp"`
	Inputs    []string        `json:"inputs"`
	Models    []ModelState    `json:"models"`
	Selected  int             `json:"selected"`
	Warnings  []string        `json:"warnings"`
	Zoom      float32         `json:"zoom"`
	Pan       [2]float32      `json:"pan"`
	Overlays  map[string]bool `json:"overlays"`
}

// ModelState is one loaded model in a state dump.
type ModelState struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Bones      int    `json:"bones"`
	Slots      int    `json:"slots"`
	Skins      int    `json:"skins"`
	Animations int    `json:"animations"`
	Skin       string `json:"skin"`
}

// Command is a remote command for UI automation, read from command.json in
// the screenshot directory.
type Command struct {
	Action   string          `json:"action"`
	Path     string          `json:"path,omitempty"`
	Value    string          `json:"value,omitempty"`
	Overlays map[string]bool `json:"overlays,omitempty"`
}

// overlayMap flattens the toggle set into name/bool pairs keyed by the
// debug category names.
func (app *App) overlayMap() map[string]bool {
	return map[string]bool{
		debug.CategoryBones.String():         app.toggles.Bones,
		debug.CategoryRegions.String():       app.toggles.Regions,
		debug.CategoryMeshHull.String():      app.toggles.MeshHull,
		debug.CategoryMeshTriangles.String(): app.toggles.MeshTriangles,
		debug.CategoryClipping.String():      app.toggles.Clipping,
		debug.CategoryPaths.String():         app.toggles.Paths,
		debug.CategoryBoundingBoxes.String(): app.toggles.BoundingBoxes,
	}
}

// applyOverlayMap sets toggles named in m, leaving the rest untouched.
func (app *App) applyOverlayMap(m map[string]bool) {
	for name, on := range m {
		switch name {
		case debug.CategoryBones.String():
			app.toggles.Bones = on
		case debug.CategoryRegions.String():
			app.toggles.Regions = on
		case debug.CategoryMeshHull.String():
			app.toggles.MeshHull = on
		case debug.CategoryMeshTriangles.String():
			app.toggles.MeshTriangles = on
		case debug.CategoryClipping.String():
			app.toggles.Clipping = on
		case debug.CategoryPaths.String():
			app.toggles.Paths = on
		case debug.CategoryBoundingBoxes.String():
			app.toggles.BoundingBoxes = on
		}
	}
}

// captureScreenshot captures the current frame to a PNG file.
func (app *App) captureScreenshot() {
	// Actual framebuffer size: DisplaySize is logical pixels,
	// DisplayFramebufferScale the HiDPI multiplier.
	io := imgui.CurrentIO()
	displaySize := io.DisplaySize()
	fbScale := io.DisplayFramebufferScale()
	width := int(displaySize.X * fbScale.X)
	height := int(displaySize.Y * fbScale.Y)

	if width <= 0 || height <= 0 {
		app.showNotification("Screenshot failed: invalid viewport")
		return
	}

	// Read from the front buffer: we capture at frame start, so that is the
	// frame currently on screen.
	gl.ReadBuffer(gl.FRONT)
	pixels := make([]byte, width*height*4) // RGBA
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.ReadBuffer(gl.BACK)

	// Flip vertically, OpenGL's origin is bottom-left.
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			srcIdx := ((height-1-y)*width + x) * 4
			dstIdx := (y*width + x) * 4
			img.Pix[dstIdx+0] = pixels[srcIdx+0]
			img.Pix[dstIdx+1] = pixels[srcIdx+1]
			img.Pix[dstIdx+2] = pixels[srcIdx+2]
			img.Pix[dstIdx+3] = pixels[srcIdx+3]
		}
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("screenshot-%s.png", timestamp)
	savePath := filepath.Join(app.screenshotDir, filename)

	file, err := os.Create(savePath)
	if err != nil {
		app.showNotification(fmt.Sprintf("Screenshot failed: %v", err))
		return
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		app.showNotification(fmt.Sprintf("Screenshot failed: %v", err))
		return
	}

	// Also save as "latest.png" for easy access by automation.
	latestPath := filepath.Join(app.screenshotDir, "latest.png")
	if latestFile, err := os.Create(latestPath); err == nil {
		_ = png.Encode(latestFile, img)
		latestFile.Close()
	}

	app.showNotification(fmt.Sprintf("Saved: %s", filename))
	fmt.Printf("Screenshot saved: %s\n", savePath)
}

// showNotification displays a brief overlay notification message.
func (app *App) showNotification(msg string) {
	app.lastNotifyMsg = msg
	app.showNotify = true
	app.notifyTime = time.Now()
}

// dumpState exports the current viewer state as JSON.
func (app *App) dumpState() {
	state := GUIState{
		Timestamp: time.Now().Format(time.RFC3339),
		Inputs:    app.inputs,
		Models:    make([]ModelState, 0, len(app.models)),
		Selected:  app.selected,
		Warnings:  app.warnings,
		Zoom:      app.zoom,
		Pan:       [2]float32{app.panX, app.panY},
		Overlays:  app.overlayMap(),
	}
	for _, model := range app.models {
		skinName := ""
		if model.Pose.Skin != nil {
			skinName = model.Pose.Skin.Name
		}
		state.Models = append(state.Models, ModelState{
			ID:         model.ID.String(),
			Name:       model.Name,
			Bones:      len(model.Data.Bones),
			Slots:      len(model.Data.Slots),
			Skins:      len(model.SkinNames),
			Animations: len(model.AnimationNames),
			Skin:       skinName,
		})
	}

	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		app.showNotification(fmt.Sprintf("State dump failed: %v", err))
		return
	}

	statePath := filepath.Join(app.screenshotDir, "state.json")
	if err := os.WriteFile(statePath, jsonData, 0644); err != nil {
		app.showNotification(fmt.Sprintf("State dump failed: %v", err))
		return
	}

	app.showNotification("State saved: state.json")
	fmt.Printf("State saved: %s\n", statePath)
}

// checkAndExecuteCommand polls for a command file and executes it if found.
// Called each frame from render(). Commands are single-shot, the file is
// deleted before execution.
func (app *App) checkAndExecuteCommand() {
	cmdPath := filepath.Join(app.screenshotDir, "command.json")

	data, err := os.ReadFile(cmdPath)
	if err != nil {
		return // no command file, normal case
	}

	// Delete immediately to prevent re-execution.
	os.Remove(cmdPath)

	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid command: %v\n", err)
		return
	}

	app.executeCommand(cmd)
}

// executeCommand executes a single command.
func (app *App) executeCommand(cmd Command) {
	switch cmd.Action {
	case "select_model":
		for i, model := range app.models {
			if model.Name == cmd.Value {
				app.selectModel(i)
				app.showNotification(fmt.Sprintf("Selected: %s", cmd.Value))
				break
			}
		}

	case "set_skin":
		model := app.currentModel()
		if model == nil {
			return
		}
		if cmd.Value == "" {
			app.applySkin(-1)
			app.showNotification("Skin: setup pose")
			break
		}
		for i, name := range model.SkinNames {
			if name == cmd.Value {
				app.applySkin(i)
				app.showNotification(fmt.Sprintf("Skin: %s", cmd.Value))
				break
			}
		}

	case "set_overlays":
		app.applyOverlayMap(cmd.Overlays)
		app.showNotification("Overlays updated")

	case "load":
		app.loadInputs([]string{cmd.Path})

	case "reload":
		app.reload()

	case "reset_view":
		app.resetView()
		app.showNotification("View reset")

	case "screenshot":
		app.screenshotRequested = true
		return // screenshot shows its own notification

	case "dump_state":
		app.dumpState()
		return // dumpState shows its own notification

	default:
		app.showNotification(fmt.Sprintf("Unknown command: %s", cmd.Action))
	}

	fmt.Printf("Command executed: %s\n", cmd.Action)
}
