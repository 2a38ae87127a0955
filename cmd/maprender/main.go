// Command maprender renders one frame of a region map on the CPU and writes
// it as a PNG.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/regionatlas/internal/atlas"
	"github.com/Faultbox/regionatlas/internal/config"
	"github.com/Faultbox/regionatlas/internal/engine/debug"
	"github.com/Faultbox/regionatlas/internal/engine/raster"
	"github.com/Faultbox/regionatlas/internal/logger"
	"github.com/Faultbox/regionatlas/pkg/regionid"
)

var (
	flagOut     = flag.String("out", "map.png", "Output PNG path")
	flagSelect  = flag.String("select", "", "Comma-separated region ids to select; prefix with + to select the owner")
	flagTicks   = flag.Int("ticks", 0, "Simulation ticks to run before rendering")
	flagCaption = flag.Bool("caption", true, "Draw a caption bar")
	flagMapMode = flag.Int("mapmode", 0, "Map mode index: 0 political, 1 gradient, 2 percentile")
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

	if err := run(cfg); err != nil {
		logger.Error("render failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
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
	s, err := atlas.NewSession(m, cfg.Map, nil)
	if err != nil {
		return err
	}
	for range *flagMapMode {
		s.CycleMapMode()
	}
	for range *flagTicks {
		s.Step()
	}

	if err := applySelection(m, s, *flagSelect); err != nil {
		return err
	}

	table, err := s.Publish()
	if err != nil {
		return err
	}

	r := raster.New(m.IDs, m.Terrain)
	r.Workers = cfg.Render.Workers
	view := atlas.NewView(cfg.Camera)

	dst := image.NewNRGBA(image.Rect(0, 0, cfg.Window.Width, cfg.Window.Height))
	if err := r.Render(dst, table, params, view); err != nil {
		return err
	}

	if *flagCaption {
		debug.Caption(dst, []string{
			fmt.Sprintf("%s / %s / %s", s.MapMode().Name(), params.Mode, params.Presentation),
			fmt.Sprintf("%d regions, %d selected, lut %d", len(m.Centroids), s.Selection.Len(), table.Dim()),
		}, 14)
	}

	if err := debug.WritePNG(*flagOut, dst); err != nil {
		return err
	}
	logger.Info("frame written",
		zap.String("path", *flagOut),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height))
	return nil
}

// applySelection parses "12,+40" into a single and a group selection. The
// ids are the map compiler's, translated to dense ids for re-indexed maps.
func applySelection(m *atlas.Map, s *atlas.Session, list string) error {
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		group := strings.HasPrefix(field, "+")
		v, err := strconv.ParseUint(strings.TrimPrefix(field, "+"), 10, 32)
		if err != nil {
			return fmt.Errorf("select %q: %w", field, err)
		}
		if err := regionid.Check(uint32(v)); err != nil {
			return fmt.Errorf("select %q: %w", field, err)
		}
		id, ok := m.DenseID(regionid.ID(v))
		if !ok {
			return fmt.Errorf("select %q: region %d (%s) not in map", field, v, regionid.ID(v).Hex())
		}
		s.Select(id, group)
	}
	return nil
}
