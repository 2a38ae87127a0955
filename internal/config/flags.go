package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagMap        = flag.String("map", "", "Region ID image")
	flagTerrain    = flag.String("terrain", "", "Terrain albedo image")
	flagMode       = flag.String("mode", "", "Map mode: terrain or political")
	flagGlobe      = flag.Bool("globe", false, "Start in globe presentation")
	flagOpacity    = flag.Float64("opacity", -1, "Overlay opacity, 0..1")
	flagDense      = flag.Bool("dense", false, "Re-index region IDs densely")
	flagWorkers    = flag.Int("workers", -1, "CPU raster workers, 0 = all cores")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window or output width")
	flagHeight     = flag.Int("height", 0, "Window or output height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagMap != "" {
		cfg.Map.RegionImage = *flagMap
	}
	if *flagTerrain != "" {
		cfg.Map.TerrainImage = *flagTerrain
	}
	if *flagMode != "" {
		cfg.Render.Mode = *flagMode
	}
	if *flagGlobe {
		cfg.Render.Presentation = "globe"
	}
	if *flagOpacity >= 0 {
		cfg.Render.Opacity = float32(*flagOpacity)
	}
	if *flagDense {
		cfg.Map.DenseReindex = true
	}
	if *flagWorkers >= 0 {
		cfg.Render.Workers = *flagWorkers
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
}
