// SkelView - A graphical viewer for Spine skeleton exports.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/AllenDang/cimgui-go/backend"
	"github.com/AllenDang/cimgui-go/backend/sdlbackend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/skelview/internal/config"
	"github.com/Faultbox/skelview/internal/debug"
	"github.com/Faultbox/skelview/internal/loader"
	"github.com/Faultbox/skelview/internal/logger"
)

func main() {
	runtime.LockOSThread()

	config.ParseFlags()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	app := NewApp(cfg)
	defer app.Close()

	// Positional arguments are skeleton files or export directories.
	if args := flag.Args(); len(args) > 0 {
		app.loadInputs(args)
	}

	app.Run()
}

// App holds the viewer state shared across panels.
type App struct {
	backend backend.Backend[sdlbackend.SDLWindowFlags]
	cfg     *config.Config
	loader  *loader.Loader

	// Loaded content
	inputs   []string // files and directories as last given to loadInputs
	models   []*loader.Model
	warnings []string
	selected int // index into models, -1 when none

	// Per-selection UI state
	activeSkin int     // index into the selected model's SkinNames, -1 = setup pose
	activeAnim int     // highlighted animation row
	animSpeed  float32 // playback speed shown to the user; consumed by the runtime

	// Debug overlay state
	toggles   debug.Toggles
	extractor *debug.Extractor

	// Viewport state
	zoom float32
	panX float32
	panY float32

	// Screenshot and notification state
	screenshotDir       string
	lastNotifyMsg       string
	showNotify          bool
	notifyTime          time.Time
	screenshotRequested bool // capture next frame so the previous one is on screen

	// File dialog result; dialogs run off the main thread, the path is
	// applied in render().
	pendingOpen string

	// Paths dropped onto the window, applied in render().
	pendingDrop []string

	watcher *watcher
}

// NewApp creates the application and its window.
func NewApp(cfg *config.Config) *App {
	app := &App{
		cfg:           cfg,
		loader:        loader.New(),
		selected:      -1,
		activeSkin:    -1,
		activeAnim:    -1,
		animSpeed:     1.0,
		toggles:       togglesFromConfig(cfg.Debug),
		extractor:     debug.New(),
		zoom:          cfg.Viewer.Zoom,
		screenshotDir: filepath.Join(os.TempDir(), "skelview"),
	}
	app.extractor.BoneWidth = cfg.Viewer.BoneWidth

	if err := os.MkdirAll(app.screenshotDir, 0755); err != nil {
		logger.Warn("could not create screenshot dir", zap.Error(err))
	}

	var err error
	app.backend, err = backend.CreateBackend(sdlbackend.NewSDLBackend())
	if err != nil {
		panic(fmt.Sprintf("failed to create backend: %v", err))
	}

	app.backend.SetBgColor(backgroundVec4(cfg.Viewer.Background))
	app.backend.CreateWindow("SkelView", cfg.Window.Width, cfg.Window.Height)
	app.backend.SetDropCallback(func(paths []string) {
		app.pendingDrop = append(app.pendingDrop, paths...)
	})
	if !cfg.Window.VSync {
		// Without vsync the loop would spin; cap it instead.
		app.backend.SetTargetFPS(144)
	}

	// Screenshot capture needs the GL function pointers.
	if err := gl.Init(); err != nil {
		logger.Warn("OpenGL init failed, screenshots disabled", zap.Error(err))
	}

	if cfg.Viewer.Watch {
		w, err := newWatcher(cfg.Viewer.WatchDebounce)
		if err != nil {
			logger.Warn("file watcher unavailable", zap.Error(err))
		} else {
			app.watcher = w
		}
	}

	return app
}

func togglesFromConfig(d config.DebugConfig) debug.Toggles {
	return debug.Toggles{
		Bones:         d.Bones,
		Regions:       d.Regions,
		MeshHull:      d.MeshHull,
		MeshTriangles: d.MeshTriangles,
		Clipping:      d.Clipping,
		Paths:         d.Paths,
		BoundingBoxes: d.BoundingBoxes,
	}
}

// Close cleans up resources.
func (app *App) Close() {
	if app.watcher != nil {
		app.watcher.Close()
	}
}

// Run starts the main application loop.
func (app *App) Run() {
	app.backend.Run(app.render)
}

// openFileDialog shows a native file dialog to pick a skeleton file. The
// containing directory is loaded so the atlas and textures come along.
func (app *App) openFileDialog() {
	go func() {
		filename, err := dialog.File().
			Filter("Skeleton Files", "skel").
			Filter("All Files", "*").
			Title("Open Skeleton").
			Load()
		if err != nil {
			if err != dialog.ErrCancelled {
				logger.Warn("file dialog failed", zap.Error(err))
			}
			return
		}
		app.pendingOpen = filepath.Dir(filename)
	}()
}

// openFolderDialog shows a native directory picker.
func (app *App) openFolderDialog() {
	go func() {
		dir, err := dialog.Directory().
			Title("Open Export Directory").
			Browse()
		if err != nil {
			if err != dialog.ErrCancelled {
				logger.Warn("directory dialog failed", zap.Error(err))
			}
			return
		}
		app.pendingOpen = dir
	}()
}

// loadInputs reads the given files and directories and assembles models from
// them, replacing whatever is currently loaded.
func (app *App) loadInputs(paths []string) {
	var records []loader.FileRecord
	var dirs []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			logger.Warn("skipping input", zap.String("path", path), zap.Error(err))
			continue
		}
		if info.IsDir() {
			collected, err := loader.CollectFiles(path)
			if err != nil {
				logger.Warn("directory scan failed", zap.String("path", path), zap.Error(err))
				continue
			}
			records = append(records, collected...)
			dirs = append(dirs, path)
			continue
		}
		rec, err := loader.ReadFileRecord(path)
		if err != nil {
			logger.Warn("skipping input", zap.String("path", path), zap.Error(err))
			continue
		}
		records = append(records, rec)
		dirs = append(dirs, filepath.Dir(path))
	}

	app.inputs = paths
	result, err := app.loader.Load(records)
	if err != nil {
		app.models = nil
		app.warnings = nil
		app.selectModel(-1)
		app.showNotification(fmt.Sprintf("Load failed: %v", err))
		logger.Error("load failed", zap.Error(err))
		return
	}

	app.models = result.Models
	app.warnings = result.Warnings
	app.selectModel(0)
	app.backend.SetWindowTitle(fmt.Sprintf("SkelView - %d model(s)", len(app.models)))
	app.showNotification(fmt.Sprintf("Loaded %d model(s)", len(app.models)))

	if app.watcher != nil {
		app.watcher.SetDirs(dirs)
	}
}

// reload re-runs the last load.
func (app *App) reload() {
	if len(app.inputs) == 0 {
		return
	}
	app.loadInputs(app.inputs)
}

// selectModel switches the active model and resets per-selection state.
func (app *App) selectModel(i int) {
	app.selected = i
	app.activeSkin = -1
	app.activeAnim = -1
	app.resetView()
}

// currentModel returns the selected model, or nil.
func (app *App) currentModel() *loader.Model {
	if app.selected < 0 || app.selected >= len(app.models) {
		return nil
	}
	return app.models[app.selected]
}

func (app *App) resetView() {
	app.zoom = app.cfg.Viewer.Zoom
	app.panX = 0
	app.panY = 0
}

func (app *App) zoomBy(factor float32) {
	app.zoom *= factor
	if app.zoom < 0.05 {
		app.zoom = 0.05
	}
	if app.zoom > 40 {
		app.zoom = 40
	}
}

// applySkin switches the selected model's pose to the skin at idx, or back
// to the setup pose for a negative index.
func (app *App) applySkin(idx int) {
	model := app.currentModel()
	if model == nil {
		return
	}
	app.activeSkin = idx
	if idx < 0 || idx >= len(model.SkinNames) {
		model.Pose.SetSkin(nil)
		model.Pose.SetSlotsToSetupPose()
		return
	}
	if err := model.Pose.SetSkinByName(model.SkinNames[idx]); err != nil {
		logger.Warn("skin switch failed", zap.String("model", model.Name), zap.Error(err))
	}
}

// saveSettings persists the current overlay state back to the config file.
func (app *App) saveSettings() {
	app.cfg.Debug = config.DebugConfig{
		Bones:         app.toggles.Bones,
		Regions:       app.toggles.Regions,
		MeshHull:      app.toggles.MeshHull,
		MeshTriangles: app.toggles.MeshTriangles,
		Clipping:      app.toggles.Clipping,
		Paths:         app.toggles.Paths,
		BoundingBoxes: app.toggles.BoundingBoxes,
	}
	app.cfg.Viewer.BoneWidth = app.extractor.BoneWidth
	if err := app.cfg.Save(); err != nil {
		app.showNotification(fmt.Sprintf("Save failed: %v", err))
		logger.Error("config save failed", zap.Error(err))
		return
	}
	app.showNotification("Settings saved")
}

// render is called each frame to draw the UI.
func (app *App) render() {
	// Deferred screenshot capture: grab at frame start so the previous
	// frame's content is what lands in the file.
	if app.screenshotRequested {
		app.screenshotRequested = false
		app.captureScreenshot()
	}

	app.checkAndExecuteCommand()

	// Apply results queued by dialogs, drops and the watcher. All of these
	// must run on the main thread.
	if app.pendingOpen != "" {
		path := app.pendingOpen
		app.pendingOpen = ""
		app.loadInputs([]string{path})
	}
	if len(app.pendingDrop) > 0 {
		paths := app.pendingDrop
		app.pendingDrop = nil
		app.loadInputs(paths)
	}
	if app.watcher != nil && app.watcher.ShouldReload() {
		logger.Info("inputs changed on disk, reloading")
		app.reload()
	}

	// F12 = request screenshot (captured next frame)
	if imgui.IsKeyChordPressed(imgui.KeyChord(imgui.KeyF12)) {
		app.screenshotRequested = true
	}

	// Ctrl+D = dump viewer state as JSON
	ctrlD := imgui.KeyChord(imgui.ModCtrl) | imgui.KeyChord(imgui.KeyD)
	if imgui.IsKeyChordPressed(ctrlD) {
		app.dumpState()
	}

	// Ctrl+R = reload inputs
	ctrlR := imgui.KeyChord(imgui.ModCtrl) | imgui.KeyChord(imgui.KeyR)
	if imgui.IsKeyChordPressed(ctrlR) {
		app.reload()
	}

	if model := app.currentModel(); model != nil {
		// Ctrl+C = copy model name
		ctrlC := imgui.KeyChord(imgui.ModCtrl) | imgui.KeyChord(imgui.KeyC)
		if imgui.IsKeyChordPressed(ctrlC) {
			imgui.SetClipboardText(model.Name)
			app.showNotification("Copied: " + model.Name)
		}

		// Zoom controls: +/- to zoom, 0 to reset
		if !imgui.IsAnyItemActive() {
			if imgui.IsKeyChordPressed(imgui.KeyChord(imgui.KeyEqual)) || imgui.IsKeyChordPressed(imgui.KeyChord(imgui.KeyKeypadAdd)) {
				app.zoomBy(1.25)
			}
			if imgui.IsKeyChordPressed(imgui.KeyChord(imgui.KeyMinus)) || imgui.IsKeyChordPressed(imgui.KeyChord(imgui.KeyKeypadSubtract)) {
				app.zoomBy(0.8)
			}
			if imgui.IsKeyChordPressed(imgui.KeyChord(imgui.Key0)) || imgui.IsKeyChordPressed(imgui.KeyChord(imgui.KeyKeypad0)) {
				app.resetView()
			}
		}
	}

	// Main menu bar
	if imgui.BeginMainMenuBar() {
		if imgui.BeginMenu("File") {
			if imgui.MenuItemBool("Open Skeleton...") {
				app.openFileDialog()
			}
			if imgui.MenuItemBool("Open Folder...") {
				app.openFolderDialog()
			}
			if imgui.MenuItemBool("Reload") {
				app.reload()
			}
			imgui.Separator()
			if imgui.MenuItemBool("Save Settings") {
				app.saveSettings()
			}
			imgui.Separator()
			if imgui.MenuItemBool("Exit") {
				os.Exit(0)
			}
			imgui.EndMenu()
		}
		imgui.EndMainMenuBar()
	}

	// Get viewport work area (excludes menu bar)
	viewport := imgui.MainViewport()
	workPos := viewport.WorkPos()
	workSize := viewport.WorkSize()

	leftPanelWidth := float32(320)
	rightPanelWidth := float32(230)
	statusBarHeight := float32(30)
	contentHeight := workSize.Y - statusBarHeight

	flags := imgui.WindowFlagsNoMove | imgui.WindowFlagsNoResize | imgui.WindowFlagsNoCollapse

	// Left panel - model list and metadata
	imgui.SetNextWindowPos(workPos)
	imgui.SetNextWindowSize(imgui.NewVec2(leftPanelWidth, contentHeight))
	if imgui.BeginV("Models", nil, flags) {
		app.renderModelPanel()
	}
	imgui.End()

	// Center panel - pose viewport
	viewportWidth := workSize.X - leftPanelWidth - rightPanelWidth
	imgui.SetNextWindowPos(imgui.NewVec2(workPos.X+leftPanelWidth, workPos.Y))
	imgui.SetNextWindowSize(imgui.NewVec2(viewportWidth, contentHeight))
	if imgui.BeginV("Viewport", nil, flags) {
		app.renderViewport()
	}
	imgui.End()

	// Right panel - overlay toggles
	imgui.SetNextWindowPos(imgui.NewVec2(workPos.X+leftPanelWidth+viewportWidth, workPos.Y))
	imgui.SetNextWindowSize(imgui.NewVec2(rightPanelWidth, contentHeight))
	if imgui.BeginV("Overlays", nil, flags) {
		app.renderOverlayPanel()
	}
	imgui.End()

	// Status bar at bottom
	imgui.SetNextWindowPos(imgui.NewVec2(workPos.X, workPos.Y+contentHeight))
	imgui.SetNextWindowSize(imgui.NewVec2(workSize.X, statusBarHeight))
	statusFlags := flags | imgui.WindowFlagsNoTitleBar | imgui.WindowFlagsNoScrollbar
	if imgui.BeginV("##StatusBar", nil, statusFlags) {
		app.renderStatusBar()
	}
	imgui.End()

	// Notification overlay, shown for 2 seconds
	if app.showNotify && time.Since(app.notifyTime) < 2*time.Second {
		notifyFlags := imgui.WindowFlagsNoTitleBar | imgui.WindowFlagsNoResize |
			imgui.WindowFlagsNoMove | imgui.WindowFlagsNoScrollbar |
			imgui.WindowFlagsAlwaysAutoResize | imgui.WindowFlagsNoFocusOnAppearing
		imgui.SetNextWindowPos(imgui.NewVec2(workPos.X+10, workPos.Y+10))
		imgui.SetNextWindowBgAlpha(0.85)
		if imgui.BeginV("##Notify", nil, notifyFlags) {
			imgui.Text(app.lastNotifyMsg)
		}
		imgui.End()
	} else if app.showNotify {
		app.showNotify = false
	}
}
