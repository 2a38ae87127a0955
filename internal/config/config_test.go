package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faultbox/regionatlas/internal/engine/composite"
	"github.com/Faultbox/regionatlas/internal/engine/lut"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Window.Height)
	}
	if cfg.Render.Mode != "political" {
		t.Errorf("expected mode 'political', got %s", cfg.Render.Mode)
	}
	if cfg.Render.Opacity != 0.7 {
		t.Errorf("expected opacity 0.7, got %f", cfg.Render.Opacity)
	}
	if cfg.Map.TickInterval != time.Second {
		t.Errorf("expected tick 1s, got %v", cfg.Map.TickInterval)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestDefaultParamsMatchCompositor(t *testing.T) {
	p, err := Default().Params()
	if err != nil {
		t.Fatal(err)
	}
	want := composite.DefaultParams()
	want.CameraPos = p.CameraPos
	if p != want {
		t.Errorf("Params() = %+v\nwant %+v", p, want)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
map:
  region_image: "world/regions.png"
  terrain_image: "world/terrain.jpg"
  max_region_id: 65535
  lut_dim: 256
  dense_reindex: true
  tick_interval: 250ms

render:
  mode: terrain
  presentation: globe
  color_policy: clamped
  opacity: 0.5
  light_dir: [0, 1, 0]
  atmosphere:
    enabled: false

window:
  width: 1920
  height: 1080
  fullscreen: true

logging:
  level: "debug"
  log_file: "atlas.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Map.RegionImage != "world/regions.png" {
		t.Errorf("expected region image, got %s", cfg.Map.RegionImage)
	}
	if cfg.Map.MaxRegionID != 65535 || cfg.Map.LUTDim != 256 || !cfg.Map.DenseReindex {
		t.Errorf("map section mismatch: %+v", cfg.Map)
	}
	if cfg.Map.TickInterval != 250*time.Millisecond {
		t.Errorf("expected tick 250ms, got %v", cfg.Map.TickInterval)
	}
	if cfg.Window.Width != 1920 || !cfg.Window.Fullscreen {
		t.Errorf("window section mismatch: %+v", cfg.Window)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Render.BorderDarken != 0.6 {
		t.Errorf("expected default border darken, got %f", cfg.Render.BorderDarken)
	}

	p, err := cfg.Params()
	if err != nil {
		t.Fatalf("Params() error = %v", err)
	}
	if p.Mode != composite.ModeTerrain || p.Presentation != composite.Globe || p.ColorPolicy != composite.Clamped {
		t.Errorf("enums mismatch: %v %v %v", p.Mode, p.Presentation, p.ColorPolicy)
	}
	if p.Atmosphere.Enabled || p.LightDir.Y != 1 {
		t.Errorf("render params mismatch: %+v", p)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := map[string]string{
		"syntax":      "map:\n  lut_dim: not a number\n  invalid syntax here\n",
		"unknown key": "render:\n  opacty: 0.5\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "invalid.yaml")
			if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if err := loadFromFile(Default(), configPath); err == nil {
				t.Error("expected error loading invalid YAML, got nil")
			}
		})
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := loadFromFile(Default(), configPath); err != nil {
		t.Errorf("empty file should keep defaults, got %v", err)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		is     error
	}{
		{"lut too small", func(c *Config) { c.Map.MaxRegionID = 70000; c.Map.LUTDim = 256 }, lut.ErrTableTooSmall},
		{"id out of range", func(c *Config) { c.Map.MaxRegionID = 1 << 24 }, ErrInvalid},
		{"no region image", func(c *Config) { c.Map.RegionImage = "" }, ErrInvalid},
		{"opacity", func(c *Config) { c.Render.Opacity = 3 }, composite.ErrInvalidParams},
		{"mode", func(c *Config) { c.Render.Mode = "heat" }, composite.ErrInvalidParams},
		{"window", func(c *Config) { c.Window.Width = 0 }, ErrInvalid},
		{"workers", func(c *Config) { c.Render.Workers = -2 }, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.is) {
				t.Errorf("Validate() = %v, want %v", err, tt.is)
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want to wrap ErrInvalid", err)
			}
		})
	}
}

func TestValidateDenseSkipsLUTCheck(t *testing.T) {
	cfg := Default()
	cfg.Map.MaxRegionID = 70000
	cfg.Map.LUTDim = 256
	cfg.Map.DenseReindex = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil for a dense map", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Render.Mode = "terrain"
	cfg.Map.LUTDim = 512
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Render.Mode != "terrain" || loaded.Map.LUTDim != 512 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "regionatlas.yaml")
	if err := os.WriteFile(configPath, []byte("window:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find regionatlas.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "mode and globe flags",
			setup: func() { *flagMode = "terrain"; *flagGlobe = true },
			verify: func(cfg *Config) {
				if cfg.Render.Mode != "terrain" || cfg.Render.Presentation != "globe" {
					t.Errorf("got mode %s presentation %s", cfg.Render.Mode, cfg.Render.Presentation)
				}
			},
			teardown: func() { *flagMode = ""; *flagGlobe = false },
		},
		{
			name:  "opacity zero is honoured",
			setup: func() { *flagOpacity = 0 },
			verify: func(cfg *Config) {
				if cfg.Render.Opacity != 0 {
					t.Errorf("expected opacity 0, got %f", cfg.Render.Opacity)
				}
			},
			teardown: func() { *flagOpacity = -1 },
		},
		{
			name:  "map and dense flags",
			setup: func() { *flagMap = "other.png"; *flagDense = true },
			verify: func(cfg *Config) {
				if cfg.Map.RegionImage != "other.png" || !cfg.Map.DenseReindex {
					t.Errorf("map section mismatch: %+v", cfg.Map)
				}
			},
			teardown: func() { *flagMap = ""; *flagDense = false },
		},
		{
			name:  "width and height flags",
			setup: func() { *flagWidth = 2560; *flagHeight = 1440 },
			verify: func(cfg *Config) {
				if cfg.Window.Width != 2560 || cfg.Window.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Window.Width, cfg.Window.Height)
				}
			},
			teardown: func() { *flagWidth = 0; *flagHeight = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1600
  height: 900
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width from flag, height from file
	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Window.Height)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("map:\n  max_region_id: 70000\n  lut_dim: 256\n"), 0644); err != nil {
		t.Fatal(err)
	}
	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); !errors.Is(err, lut.ErrTableTooSmall) {
		t.Errorf("Load() = %v, want ErrTableTooSmall", err)
	}
}
