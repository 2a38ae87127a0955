// Package atlas loads a region map and holds the viewer's session state:
// ownership, selection, the active map mode and the lookup table publisher.
package atlas

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/regionatlas/internal/config"
	"github.com/Faultbox/regionatlas/internal/engine/idmap"
	"github.com/Faultbox/regionatlas/internal/engine/lut"
	"github.com/Faultbox/regionatlas/internal/engine/texture"
	"github.com/Faultbox/regionatlas/internal/logger"
	"github.com/Faultbox/regionatlas/internal/mapmode"
	"github.com/Faultbox/regionatlas/pkg/regionid"
)

// Map is the static data of one region map.
type Map struct {
	// IDs is the image the renderers sample. It is dense when the map was
	// re-indexed.
	IDs   *idmap.Image
	Index *idmap.Index // nil unless re-indexed

	Terrain *texture.Terrain // nil when no terrain image is configured

	LUTDim    int
	Centroids map[regionid.ID]mapmode.Centroid
	Adjacency mapmode.Adjacency
}

// Open loads the region image, re-indexes it when configured, and loads
// the terrain scaled to fit maxTexture.
func Open(cfg config.MapConfig, maxTexture int) (*Map, error) {
	log := logger.Named("atlas")
	start := time.Now()

	declared := regionid.ID(cfg.MaxRegionID)
	if declared == 0 {
		declared = regionid.MaxID
	}
	img, err := idmap.Load(cfg.RegionImage, declared)
	if err != nil {
		return nil, fmt.Errorf("loading region image: %w", err)
	}
	if cfg.MaxRegionID == 0 {
		if img, err = img.WithMaxID(img.ScanMaxID()); err != nil {
			return nil, err
		}
	}

	m := &Map{IDs: img}
	if cfg.DenseReindex {
		idx, hit, err := idmap.CachedReindex(cfg.CacheDir, cfg.RegionImage, img)
		if err != nil && idx == nil {
			return nil, fmt.Errorf("re-indexing: %w", err)
		}
		if err != nil {
			log.Warn("index cache not written", zap.Error(err))
		}
		log.Info("region ids re-indexed",
			zap.Int("regions", idx.Len()),
			zap.Bool("cache_hit", hit))
		m.Index = idx
		m.IDs = idx.Dense
	}

	m.LUTDim = cfg.LUTDim
	if m.LUTDim == 0 {
		m.LUTDim = lut.Dimension(m.IDs.MaxID())
	}
	if err := lut.CheckDimension(m.LUTDim, m.IDs.MaxID()); err != nil {
		return nil, err
	}

	if cfg.TerrainImage != "" {
		t, err := texture.Load(cfg.TerrainImage)
		if err != nil {
			return nil, fmt.Errorf("loading terrain: %w", err)
		}
		if maxTexture > 0 {
			t = t.Fit(maxTexture, maxTexture)
		}
		m.Terrain = t
	}

	m.Centroids = mapmode.Centroids(m.IDs)
	m.Adjacency = mapmode.Neighbors(m.IDs)

	w, h := m.IDs.Size()
	log.Info("map opened",
		zap.String("path", cfg.RegionImage),
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Uint32("max_id", uint32(m.IDs.MaxID())),
		zap.Int("regions", len(m.Centroids)),
		zap.Int("lut_dim", m.LUTDim),
		zap.Duration("took", time.Since(start)))
	return m, nil
}

// SourceID returns the ID the map compiler assigned to id.
func (m *Map) SourceID(id regionid.ID) regionid.ID {
	if m.Index == nil {
		return id
	}
	src, ok := m.Index.ToReal(id)
	if !ok {
		return regionid.Void
	}
	return src
}

// DenseID returns the ID the renderers use for the map compiler's id. ok is
// false when id is not a region of this map.
func (m *Map) DenseID(id regionid.ID) (regionid.ID, bool) {
	if id == regionid.Void {
		return regionid.Void, false
	}
	if m.Index == nil {
		return id, id <= m.IDs.MaxID()
	}
	d, ok := m.Index.ToDense(id)
	return d, ok
}

// CentroidUV converts a pixel centroid to map UV.
func (m *Map) CentroidUV(c mapmode.Centroid) (u, v float64) {
	w, h := m.IDs.Size()
	return (c.X + 0.5) / float64(w), (c.Y + 0.5) / float64(h)
}
