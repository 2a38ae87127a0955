package main

import (
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/regionatlas/internal/atlas"
	"github.com/Faultbox/regionatlas/internal/config"
	"github.com/Faultbox/regionatlas/internal/engine/composite"
	"github.com/Faultbox/regionatlas/internal/engine/debug"
	"github.com/Faultbox/regionatlas/internal/engine/gpu"
	"github.com/Faultbox/regionatlas/internal/engine/input"
	"github.com/Faultbox/regionatlas/internal/engine/raster"
	"github.com/Faultbox/regionatlas/internal/engine/window"
	"github.com/Faultbox/regionatlas/internal/logger"
	"github.com/Faultbox/regionatlas/pkg/regionid"
)

const opacityStep = 0.1

// viewer runs the main loop on the GL thread.
type viewer struct {
	cfg     *config.Config
	win     *window.Window
	gpu     *gpu.MapRenderer
	session *atlas.Session
	params  composite.Params
	view    raster.View
	picker  *raster.Renderer
	input   *input.Input
	shots   *debug.ScreenshotCapture
	log     *zap.Logger

	spin     bool
	dragging bool
	focus    regionid.ID // last picked region
}

func newViewer(cfg *config.Config, win *window.Window, mr *gpu.MapRenderer, s *atlas.Session, p composite.Params) *viewer {
	return &viewer{
		cfg:     cfg,
		win:     win,
		gpu:     mr,
		session: s,
		params:  p,
		view:    atlas.NewView(cfg.Camera),
		picker:  raster.New(s.Map.IDs, nil),
		input:   input.New(),
		shots:   debug.NewScreenshotCapture("screenshots", "regionatlas"),
		log:     logger.Named("viewer"),
		spin:    cfg.Camera.AutoSpin != 0,
	}
}

func (v *viewer) loop() error {
	v.session.Request()

	tick := v.cfg.Map.TickInterval
	lastFrame := time.Now()
	lastTick := lastFrame
	lastTitle := lastFrame
	frames := 0

	for {
		if v.input.Update() {
			return nil
		}
		v.handleEvents()

		now := time.Now()
		dt := float32(now.Sub(lastFrame).Seconds())
		lastFrame = now

		if tick > 0 && now.Sub(lastTick) >= tick {
			lastTick = now
			v.session.Step()
			v.session.Request()
		}
		if v.spin && !v.dragging {
			v.view.Globe.Update(dt)
		}

		if _, err := v.session.Publisher.Commit(); err != nil {
			v.log.Warn("lookup table not published", zap.Error(err))
		}

		w, h := v.win.DrawableSize()
		if err := v.gpu.Draw(v.params, v.view, w, h); err != nil {
			return err
		}
		v.win.SwapBuffers()

		frames++
		if elapsed := now.Sub(lastTitle); elapsed >= 500*time.Millisecond {
			fps := float64(frames) / elapsed.Seconds()
			v.win.SetTitle(fmt.Sprintf("%s - %s %s, %s - %d selected - %.0f fps",
				v.cfg.Window.Title, v.params.Mode, v.params.Presentation,
				v.session.MapMode().Name(), v.session.Selection.Len(), fps))
			frames = 0
			lastTitle = now
		}
	}
}

func (v *viewer) handleEvents() {
	for _, e := range v.input.Events() {
		switch e.Type {
		case input.EventAction:
			v.handleAction(e.Action)

		case input.EventMouseDown:
			if e.Button == sdl.BUTTON_LEFT {
				v.dragging = true
			}

		case input.EventMouseMove:
			if !v.dragging {
				continue
			}
			if v.params.Presentation == composite.Globe {
				v.view.Globe.HandleDrag(float32(e.DeltaX), float32(e.DeltaY))
			} else {
				ww, _ := v.win.Size()
				v.view.Map.HandleDrag(float64(e.DeltaX), float64(e.DeltaY), ww, v.mapAspect())
			}

		case input.EventMouseUp:
			if e.Button != sdl.BUTTON_LEFT {
				continue
			}
			v.dragging = false
			if v.input.WasClick() {
				v.click(e.MouseX, e.MouseY, e.Shift)
			}

		case input.EventWheel:
			if v.params.Presentation == composite.Globe {
				v.view.Globe.HandleZoom(e.Wheel)
			} else {
				v.view.Map.HandleZoom(float64(e.Wheel))
			}
		}
	}
}

func (v *viewer) mapAspect() float64 {
	w, h := v.session.Map.IDs.Size()
	return float64(w) / float64(h)
}

// click picks in drawable pixels; mouse events arrive in window units.
func (v *viewer) click(mx, my int, group bool) {
	ww, wh := v.win.Size()
	dw, dh := v.win.DrawableSize()
	if ww <= 0 || wh <= 0 {
		return
	}
	sx := (float64(mx) + 0.5) * float64(dw) / float64(ww)
	sy := (float64(my) + 0.5) * float64(dh) / float64(wh)

	id, ok := v.picker.Pick(v.params.Presentation, v.view, sx, sy, dw, dh)
	if !ok {
		return
	}
	v.focus = id
	v.session.Select(id, group)
	v.session.Request()

	v.log.Info("region picked",
		zap.Uint32("region", uint32(v.session.Map.SourceID(id))),
		zap.String("color", v.session.Map.SourceID(id).Hex()),
		zap.String("owner", v.session.State.Owners.Owner(id)),
		zap.Bool("group", group),
		zap.Bool("selected", v.session.Selection.Has(id)))
}

func (v *viewer) handleAction(a input.Action) {
	switch a {
	case input.ActionToggleMode:
		if v.params.Mode == composite.ModePolitical {
			v.params.Mode = composite.ModeTerrain
		} else {
			v.params.Mode = composite.ModePolitical
		}

	case input.ActionTogglePresentation:
		if v.params.Presentation == composite.Globe {
			v.params.Presentation = composite.Flat
		} else {
			v.params.Presentation = composite.Globe
		}

	case input.ActionOpacityUp:
		v.params.Opacity = min(v.params.Opacity+opacityStep, 1)

	case input.ActionOpacityDown:
		v.params.Opacity = max(v.params.Opacity-opacityStep, 0)

	case input.ActionFocusOwner:
		if u, vv, ok := v.session.Focus(v.focus); ok {
			v.view.Map.CenterOn(u, vv)
			v.view.Globe.FaceUV(u, vv)
		}

	case input.ActionClearSelection:
		v.session.ClearSelection()
		v.session.Request()

	case input.ActionCycleMapMode:
		v.session.CycleMapMode()
		v.session.Request()

	case input.ActionToggleSpin:
		v.spin = !v.spin

	case input.ActionScreenshot:
		v.screenshot()
	}
	v.log.Debug("action", zap.Stringer("action", a))
}

func (v *viewer) screenshot() {
	w, h := v.win.DrawableSize()
	img, err := v.gpu.Snapshot(v.params, v.view, w, h)
	if err != nil {
		// No offscreen target: read the window back without a caption.
		v.log.Warn("offscreen snapshot failed, reading the window", zap.Error(err))
		v.screenshotWindow(w, h)
		return
	}
	debug.Caption(img, []string{
		fmt.Sprintf("%s / %s / %s", v.session.MapMode().Name(), v.params.Mode, v.params.Presentation),
	}, 14)
	path, err := v.shots.CaptureFromImage(img)
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

func (v *viewer) screenshotWindow(w, h int) {
	if err := v.gpu.Draw(v.params, v.view, w, h); err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	path, err := v.shots.CaptureFromPixels(gpu.ReadPixels(w, h), w, h)
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}
