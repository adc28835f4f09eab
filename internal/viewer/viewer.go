// Package viewer implements the interactive lightmap viewer loop.
package viewer

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/bsplight/internal/composite"
	"github.com/Faultbox/bsplight/internal/engine/camera"
	"github.com/Faultbox/bsplight/internal/engine/debug"
	"github.com/Faultbox/bsplight/internal/engine/input"
	"github.com/Faultbox/bsplight/internal/engine/renderer"
	"github.com/Faultbox/bsplight/internal/engine/texture"
	"github.com/Faultbox/bsplight/internal/engine/window"
	"github.com/Faultbox/bsplight/internal/export"
	"github.com/Faultbox/bsplight/internal/level"
	"github.com/Faultbox/bsplight/internal/logger"
	"github.com/Faultbox/bsplight/pkg/lightstyle"
)

// Loader opens a level dropped onto the window.
type Loader func(ctx context.Context, path string) (*level.Level, error)

// Config holds viewer configuration.
type Config struct {
	Title            string
	Width            int
	Height           int
	VSync            bool
	ScreenshotDir    string
	ScreenshotFormat export.Format
	Scale            int // screenshot magnification
}

// Viewer is the main viewer instance.
type Viewer struct {
	config     Config
	running    bool
	window     *window.Window
	renderer   *renderer.Renderer
	input      *input.Input
	camera     *camera.PanZoomCamera
	screenshot *debug.ScreenshotCapture
	compositor *composite.Compositor
	load       Loader

	path     string
	level    *level.Level
	frame    *level.Frame
	textures []atlasTextures
	volume   *texture.Texture
	state    *state
}

type atlasTextures struct {
	composite *texture.Texture
	layers    [lightstyle.MaxSlots]*texture.Texture
	styles    *texture.Texture
}

// New creates a window and uploads the static layers of lvl, which was
// loaded from path.
func New(cfg Config, path string, lvl *level.Level, c *composite.Compositor, load Loader) (*Viewer, error) {
	logger.Info("initializing viewer",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
	)

	v := &Viewer{
		config:     cfg,
		input:      input.New(),
		camera:     camera.NewPanZoomCamera(),
		compositor: c,
		load:       load,
		path:       path,
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:  cfg.Title,
		Width:  cfg.Width,
		Height: cfg.Height,
		VSync:  cfg.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer needs the GL context from the window
	fbW, fbH := v.window.GetDrawableSize()
	v.renderer, err = renderer.New(fbW, fbH)
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.setLevel(lvl)
	logger.Info("viewer initialized successfully")
	return v, nil
}

// setLevel replaces the displayed level and its GL textures.
func (v *Viewer) setLevel(lvl *level.Level) {
	v.deleteTextures()
	v.level = lvl
	v.frame = nil
	v.screenshot = debug.NewScreenshotCapture(v.config.ScreenshotDir, lvl.Name, v.config.ScreenshotFormat)

	for _, a := range lvl.Atlases() {
		t := atlasTextures{
			composite: texture.NewFloat2D(a.Width, a.Height),
			styles:    texture.NewStyleMap(a.Width, a.Height),
		}
		for k := range t.layers {
			t.layers[k] = texture.NewRGBA8(a.Width, a.Height)
			if err := t.layers[k].UploadBytes(a.Layers[k]); err != nil {
				logger.Warn("layer upload failed", zap.Int("slot", k), zap.Error(err))
			}
		}
		if err := t.styles.UploadBytes(a.Styles); err != nil {
			logger.Warn("style map upload failed", zap.Error(err))
		}
		v.textures = append(v.textures, t)
	}

	slices := 0
	if vol := lvl.Volume(); vol != nil {
		v.volume = texture.NewFloat3D(vol.FullSize.X, vol.FullSize.Y, vol.FullSize.Z)
		slices = vol.FullSize.Z
	}

	if v.state == nil {
		v.state = newState(len(v.textures), slices)
	} else {
		v.state.reset(len(v.textures), slices)
	}
	v.applyFilter()
	v.fit()
}

func (v *Viewer) deleteTextures() {
	for _, t := range v.textures {
		t.composite.Delete()
		t.styles.Delete()
		for _, l := range t.layers {
			l.Delete()
		}
	}
	v.textures = nil
	if v.volume != nil {
		v.volume.Delete()
		v.volume = nil
	}
}

// Run starts the main loop. It returns when the window closes or ctx is
// cancelled.
func (v *Viewer) Run(ctx context.Context) error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting viewer loop")

	for v.running {
		if err := ctx.Err(); err != nil {
			return nil
		}

		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if v.input.Update() {
			break
		}
		v.handleEvents(ctx)

		if err := v.update(ctx, dt); err != nil {
			return fmt.Errorf("update error: %w", err)
		}
		v.render()
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.window.SetTitle(v.title(frameCount))
			logger.Debug("fps", zap.Int("count", frameCount), zap.Float32("t", v.state.clock))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

// Close cleans up viewer resources.
func (v *Viewer) Close() {
	logger.Info("closing viewer")
	v.deleteTextures()
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

func (v *Viewer) handleEvents(ctx context.Context) {
	winW, winH := v.window.GetSize()
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			fbW, fbH := v.window.GetDrawableSize()
			v.renderer.Resize(fbW, fbH)
		case input.EventKeyDown:
			switch v.state.handleKey(event.Key) {
			case ActionQuit:
				v.running = false
			case ActionFit:
				v.fit()
			case ActionScreenshot:
				v.capture()
			case ActionFilter:
				v.applyFilter()
			case ActionReload:
				v.open(ctx, v.path)
			}
		case input.EventMouseMove:
			if v.input.IsButtonDown(input.ButtonLeft) || v.input.IsButtonDown(input.ButtonRight) {
				v.camera.HandleDrag(float32(event.DeltaX), float32(event.DeltaY))
			}
		case input.EventMouseWheel:
			v.camera.HandleZoom(float32(event.DeltaY), float32(event.MouseX), float32(event.MouseY), winW, winH)
		case input.EventDrop:
			v.open(ctx, event.File)
		}
	}
}

func (v *Viewer) open(ctx context.Context, path string) {
	if v.load == nil {
		return
	}
	lvl, err := v.load(ctx, path)
	if err != nil {
		logger.Error("failed to load level", zap.String("path", path), zap.Error(err))
		return
	}
	v.path = path
	if lvl == v.level {
		logger.Info("level unchanged", zap.String("path", path))
		return
	}
	if _, err := lvl.RegisterSwitchable(v.compositor.Table()); err != nil {
		logger.Warn("switchable styles not registered", zap.Error(err))
	}
	v.setLevel(lvl)
}

// update recomposites at the current clock and uploads changed output.
func (v *Viewer) update(ctx context.Context, dt float32) error {
	t := v.state.advance(dt)
	frame, err := v.level.Recomposite(ctx, v.compositor, t, v.frame)
	if err != nil {
		return err
	}
	v.frame = frame
	if !frame.Updated {
		return nil
	}

	for i := range frame.Atlases {
		if err := v.textures[i].composite.UploadFloat(frame.Atlases[i].Pix); err != nil {
			return err
		}
	}
	if v.volume != nil && frame.Volume != nil {
		if err := v.volume.UploadFloat(frame.Volume.Pix); err != nil {
			return err
		}
	}
	return nil
}

func (v *Viewer) render() {
	v.renderer.Begin()
	w, h := v.contentSize()
	if w == 0 {
		return
	}

	winW, winH := v.window.GetSize()
	view := v.camera.ViewMatrix(winW, winH)
	params := renderer.DrawParams{
		View:     view,
		Width:    float32(w),
		Height:   float32(h),
		Exposure: v.state.exposure,
	}

	s := v.state
	switch s.view {
	case ViewVolume:
		params.Mode = renderer.ModeSlice
		params.Slice = (float32(s.slice) + 0.5) / float32(s.slices)
		v.renderer.Draw(v.volume, params)
		return
	case ViewStyles:
		params.Mode = renderer.ModeStyles
		v.renderer.Draw(v.textures[s.atlas].styles, params)
	case ViewComposite:
		v.renderer.Draw(v.textures[s.atlas].composite, params)
	default:
		params.Exposure = 1
		v.renderer.Draw(v.textures[s.atlas].layers[s.view-ViewLayer0], params)
	}

	if s.outlines {
		lines := debug.RegionOutlineVertices(v.level.Regions(), s.atlas)
		v.renderer.DrawLines(view, lines, mgl32.Vec3{1, 0.8, 0})
	}
}

// contentSize returns the texel size of what is currently displayed.
func (v *Viewer) contentSize() (int, int) {
	if v.state.view == ViewVolume {
		if vol := v.level.Volume(); vol != nil {
			return vol.FullSize.X, vol.FullSize.Y
		}
		return 0, 0
	}
	atlases := v.level.Atlases()
	if len(atlases) == 0 {
		return 0, 0
	}
	a := atlases[v.state.atlas]
	return a.Width, a.Height
}

func (v *Viewer) fit() {
	w, h := v.contentSize()
	winW, winH := v.window.GetSize()
	v.camera.FitToBounds(w, h, winW, winH)
}

func (v *Viewer) applyFilter() {
	for _, t := range v.textures {
		t.composite.SetNearest(v.state.nearest)
		for _, l := range t.layers {
			l.SetNearest(v.state.nearest)
		}
	}
	if v.volume != nil {
		v.volume.SetNearest(v.state.nearest)
	}
}

// capture writes the current view as an image file.
func (v *Viewer) capture() {
	img := v.snapshotImage()
	if img == nil {
		return
	}
	name, err := v.screenshot.Capture(export.Upscale(img, v.config.Scale))
	if err != nil {
		logger.Error("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", name))
}

func (v *Viewer) snapshotImage() image.Image {
	s := v.state
	tm := export.Tonemap{Exposure: s.exposure, SRGB: true}
	switch {
	case s.view == ViewVolume:
		if v.frame == nil || v.frame.Volume == nil {
			return nil
		}
		return export.SliceImage(v.frame.Volume, s.slice, tm)
	case len(v.textures) == 0:
		return nil
	case s.view == ViewStyles:
		return export.StyleImage(v.level.Atlases()[s.atlas])
	case s.view == ViewComposite:
		if v.frame == nil {
			return nil
		}
		return export.Texture2DImage(&v.frame.Atlases[s.atlas], tm)
	default:
		return export.LayerImage(v.level.Atlases()[s.atlas], int(s.view-ViewLayer0))
	}
}

func (v *Viewer) title(fps int) string {
	s := v.state
	title := fmt.Sprintf("%s - %s - %s", v.config.Title, v.level.Name, s.view)
	if s.view == ViewVolume {
		title += fmt.Sprintf(" z=%d/%d", s.slice, s.slices)
	} else if len(v.textures) > 1 {
		title += fmt.Sprintf(" atlas %d/%d", s.atlas+1, len(v.textures))
	}

	if s.view != ViewVolume && len(v.textures) > 0 {
		mx, my := v.input.MousePosition()
		winW, winH := v.window.GetSize()
		cx, cy := v.camera.ScreenToContent(float32(mx), float32(my), winW, winH)
		if face, r, ok := debug.RegionAt(v.level.Regions(), s.atlas, int(math32.Floor(cx)), int(math32.Floor(cy))); ok {
			title += fmt.Sprintf(" | face %d styles %s", face, r.Styles)
		}
	}

	state := "playing"
	if s.paused {
		state = "paused"
	}
	return title + fmt.Sprintf(" | t=%.2fs x%g %s | %d fps", s.clock, s.speed, state, fps)
}
