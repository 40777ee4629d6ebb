// Package viewer implements the interactive octree viewer loop.
package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/icebox/internal/config"
	"github.com/Faultbox/icebox/internal/engine/camera"
	"github.com/Faultbox/icebox/internal/engine/debug"
	"github.com/Faultbox/icebox/internal/engine/input"
	"github.com/Faultbox/icebox/internal/engine/renderer"
	"github.com/Faultbox/icebox/internal/engine/window"
	"github.com/Faultbox/icebox/internal/logger"
	"github.com/Faultbox/icebox/internal/voxel"
	"github.com/Faultbox/icebox/pkg/octree"
)

const title = "icebox"

// wireColor outlines interior nodes.
var wireColor = octree.Color{R: 90, G: 200, B: 255}

// Viewer displays a generated octree.
type Viewer struct {
	cfg *config.Config
	log *zap.Logger

	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	shots    *debug.ScreenshotCapture

	scene *voxel.Result
	stats frameStats
}

// New opens the window and generates the initial tree.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		cfg:    cfg,
		log:    logger.Named("viewer"),
		input:  input.New(),
		camera: camera.NewOrbitCamera(),
		shots:  debug.NewScreenshotCapture("screenshots", "icebox"),
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Viewer.Width,
		Height:     cfg.Viewer.Height,
		Fullscreen: cfg.Viewer.Fullscreen,
		VSync:      cfg.Viewer.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer after window, since the GL context must exist.
	w, h := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{
		Width:        w,
		Height:       h,
		Wireframe:    cfg.Viewer.Wireframe,
		SunLongitude: cfg.Viewer.SunLongitude,
		SunLatitude:  cfg.Viewer.SunLatitude,
		Ambient:      cfg.Viewer.Ambient,
	})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	if err := v.regenerate(); err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}

// Run drives the frame loop until the window closes or Escape is pressed.
func (v *Viewer) Run() error {
	v.running = true
	v.stats.reset(time.Now())

	v.log.Info("viewer running",
		zap.String("controls", "drag rotate, right-drag pan, wheel zoom, W wireframe, up/down depth, F12 screenshot"),
	)

	last := time.Now()
	for v.running {
		now := time.Now()
		dt := now.Sub(last)
		last = now

		if v.input.Update() {
			v.running = false
			break
		}
		if err := v.handleEvents(); err != nil {
			return err
		}

		v.renderer.Begin()
		v.renderer.Draw(v.camera.ViewProjection(v.renderer.Aspect()))
		v.renderer.End()

		if v.input.IsKeyPressed(sdl.SCANCODE_F12) {
			v.screenshot()
		}
		v.window.SwapBuffers()

		if v.stats.add(now, dt) {
			v.window.SetTitle(v.stats.title(title, v.scene))
		}
	}
	return nil
}

// Close releases the renderer and window.
func (v *Viewer) Close() {
	v.log.Debug("closing viewer")

	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

func (v *Viewer) handleEvents() error {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			w, h := v.window.DrawableSize()
			v.renderer.Resize(w, h)

		case input.EventMouseMove:
			switch {
			case v.input.IsButtonHeld(sdl.BUTTON_LEFT):
				v.camera.HandleDrag(float32(event.DeltaX), float32(event.DeltaY))
			case v.input.IsButtonHeld(sdl.BUTTON_RIGHT):
				v.camera.HandlePan(float32(event.DeltaX), float32(event.DeltaY))
			}

		case input.EventMouseWheel:
			v.camera.HandleZoom(float32(event.DeltaY))

		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				v.running = false
			case sdl.SCANCODE_W:
				v.renderer.SetWireframe(!v.renderer.Wireframe())
			case sdl.SCANCODE_UP:
				if v.cfg.Generation.MaxDepth < 12 {
					v.cfg.Generation.MaxDepth++
					if err := v.regenerate(); err != nil {
						return err
					}
				}
			case sdl.SCANCODE_DOWN:
				if v.cfg.Generation.MaxDepth > 1 {
					v.cfg.Generation.MaxDepth--
					if err := v.regenerate(); err != nil {
						return err
					}
				}
			case sdl.SCANCODE_F:
				v.frame()
			}
		}
	}
	return nil
}

// regenerate rebuilds the tree at the configured depth and uploads it.
func (v *Viewer) regenerate() error {
	res, err := voxel.Build(context.Background(), v.cfg, v.log)
	if err != nil {
		return err
	}
	first := v.scene == nil
	v.scene = res

	v.renderer.UploadMesh(res.Tree.ExportMesh())
	v.renderer.UploadLines(debug.NodeWireframe(res.Tree, debug.WireframeOptions{InteriorOnly: true}), wireColor)

	if first {
		v.frame()
	}
	return nil
}

// frame points the camera at the tree's bounds.
func (v *Viewer) frame() {
	root := v.scene.Tree.Root()
	lo, hi := root.Min(), root.Max()
	v.camera.FitToBounds(mgl32.Vec3{lo.X, lo.Y, lo.Z}, mgl32.Vec3{hi.X, hi.Y, hi.Z})
}

func (v *Viewer) screenshot() {
	pixels, w, h := v.renderer.ReadPixels()
	path, err := v.shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}
