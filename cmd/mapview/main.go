// Command mapview is the interactive region map viewer.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/regionatlas/internal/atlas"
	"github.com/Faultbox/regionatlas/internal/config"
	"github.com/Faultbox/regionatlas/internal/engine/gpu"
	"github.com/Faultbox/regionatlas/internal/engine/window"
	"github.com/Faultbox/regionatlas/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Region Atlas viewer ===")

	if err := run(cfg); err != nil {
		logger.Error("viewer failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("viewer closed normally")
}

func run(cfg *config.Config) error {
	params, err := cfg.Params()
	if err != nil {
		return err
	}

	m, err := atlas.Open(cfg.Map, cfg.Render.MaxTextureSize)
	if err != nil {
		return err
	}

	win, err := window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer win.Close()

	if err := gl.Init(); err != nil {
		return fmt.Errorf("OpenGL init failed: %w", err)
	}
	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	mr, err := gpu.NewMapRenderer(m.IDs, m.Terrain, m.LUTDim)
	if err != nil {
		return err
	}
	defer mr.Destroy()

	s, err := atlas.NewSession(m, cfg.Map, mr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Publisher.Run(ctx) })

	v := newViewer(cfg, win, mr, s, params)
	loopErr := v.loop()

	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return loopErr
}
