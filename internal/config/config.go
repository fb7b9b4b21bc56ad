package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backend names accepted by Config.Backend.
const (
	BackendGL   = "gl"
	BackendSoft = "soft"
)

// Config holds all configurable paths and render settings.
type Config struct {
	Window     Window       `json:"window" yaml:"window"`
	Backend    string       `json:"backend" yaml:"backend"`
	Offscreen  *bool        `json:"offscreen,omitempty" yaml:"offscreen,omitempty"`
	Caps       Capabilities `json:"capabilities" yaml:"capabilities"`
	Texture    Texture      `json:"texture" yaml:"texture"`
	ClearColor []float32    `json:"clear_color" yaml:"clear_color"`
	Camera     Camera       `json:"camera" yaml:"camera"`
	ObjectSpin *float64     `json:"object_spin_deg,omitempty" yaml:"object_spin_deg,omitempty"`
	Floor      Floor        `json:"floor" yaml:"floor"`
	Reflection Reflection   `json:"reflection" yaml:"reflection"`
	Capture    Capture      `json:"capture" yaml:"capture"`
}

type Window struct {
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	Title  string `json:"title" yaml:"title"`
}

// Capabilities are pointers so an explicit false in a file survives Resolve.
type Capabilities struct {
	Texture           *bool `json:"texture,omitempty" yaml:"texture,omitempty"`
	StencilReflection *bool `json:"stencil_reflection,omitempty" yaml:"stencil_reflection,omitempty"`
	StaticQuad        bool  `json:"static_quad" yaml:"static_quad"`
}

type Texture struct {
	Path      string   `json:"path" yaml:"path"`
	AssetDirs []string `json:"asset_dirs" yaml:"asset_dirs"`
}

type Camera struct {
	Eye    []float32 `json:"eye" yaml:"eye"`
	Center []float32 `json:"center" yaml:"center"`
	Up     []float32 `json:"up" yaml:"up"`
	FovDeg float32   `json:"fov_deg" yaml:"fov_deg"`
	Near   float32   `json:"near" yaml:"near"`
	Far    float32   `json:"far" yaml:"far"`
}

type Floor struct {
	HalfExtent float32   `json:"half_extent" yaml:"half_extent"`
	Height     *float32  `json:"height,omitempty" yaml:"height,omitempty"`
	SpinDeg    *float64  `json:"spin_deg,omitempty" yaml:"spin_deg,omitempty"`
	Color      []float32 `json:"color" yaml:"color"`
}

type Reflection struct {
	Tint         *float32 `json:"tint,omitempty" yaml:"tint,omitempty"`
	MirrorOffset *float32 `json:"mirror_offset,omitempty" yaml:"mirror_offset,omitempty"`
}

type Capture struct {
	Frames      int    `json:"frames" yaml:"frames"`
	FPS         int    `json:"fps" yaml:"fps"`
	OutputDir   string `json:"output_dir" yaml:"output_dir"`
	Workers     int    `json:"workers" yaml:"workers"`
	Supersample int    `json:"supersample" yaml:"supersample"`
}

// Load reads a JSON or YAML config file, chosen by extension.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("config: %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if !filepath.IsAbs(cfg.Texture.Path) && cfg.Texture.Path != "" && strings.ContainsAny(cfg.Texture.Path, `/\`) {
		cfg.Texture.Path = filepath.Join(filepath.Dir(path), cfg.Texture.Path)
	}
	for i, dir := range cfg.Texture.AssetDirs {
		if !filepath.IsAbs(dir) {
			cfg.Texture.AssetDirs[i] = filepath.Join(filepath.Dir(path), dir)
		}
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Backend   string
	Frames    int
	OutputDir string
	Workers   int
}

// Resolve fills in any empty fields with the defaults of the reference scene.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.Backend != "" {
		c.Backend = flags.Backend
	}
	if flags.Frames > 0 {
		c.Capture.Frames = flags.Frames
	}
	if flags.OutputDir != "" {
		c.Capture.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Capture.Workers = flags.Workers
	}

	if c.Window.Width <= 0 {
		c.Window.Width = 1280
	}
	if c.Window.Height <= 0 {
		c.Window.Height = 720
	}
	if c.Window.Title == "" {
		c.Window.Title = "OpenGL"
	}
	if c.Backend == "" {
		c.Backend = BackendGL
	}
	c.Offscreen = orBool(c.Offscreen, true)
	c.Caps.Texture = orBool(c.Caps.Texture, true)
	c.Caps.StencilReflection = orBool(c.Caps.StencilReflection, true)

	if c.Texture.Path == "" {
		c.Texture.Path = "sample.png"
	}
	if len(c.Texture.AssetDirs) == 0 {
		c.Texture.AssetDirs = defaultAssetDirs()
	}
	if len(c.ClearColor) == 0 {
		c.ClearColor = []float32{0.75, 0.85, 0.95, 1}
	}

	if len(c.Camera.Eye) == 0 {
		c.Camera.Eye = []float32{2.5, 2.5, 2}
	}
	if len(c.Camera.Center) == 0 {
		c.Camera.Center = []float32{0, 0, 0}
	}
	if len(c.Camera.Up) == 0 {
		c.Camera.Up = []float32{0, 0, 1}
	}
	if c.Camera.FovDeg == 0 {
		c.Camera.FovDeg = 45
	}
	if c.Camera.Near == 0 {
		c.Camera.Near = 1
	}
	if c.Camera.Far == 0 {
		c.Camera.Far = 10
	}
	c.ObjectSpin = orFloat64(c.ObjectSpin, 180)

	if c.Floor.HalfExtent == 0 {
		c.Floor.HalfExtent = 1
	}
	c.Floor.Height = orFloat32(c.Floor.Height, -0.5)
	c.Floor.SpinDeg = orFloat64(c.Floor.SpinDeg, -10)
	if len(c.Floor.Color) == 0 {
		c.Floor.Color = []float32{0, 0, 0}
	}
	c.Reflection.Tint = orFloat32(c.Reflection.Tint, 0.3)
	c.Reflection.MirrorOffset = orFloat32(c.Reflection.MirrorOffset, -1)

	if c.Capture.FPS <= 0 {
		c.Capture.FPS = 60
	}
	if c.Capture.OutputDir == "" {
		c.Capture.OutputDir = "frames"
	}
	if c.Capture.Supersample <= 0 {
		c.Capture.Supersample = 1
	}
	if c.Capture.Workers <= 0 {
		c.Capture.Workers = runtime.NumCPU()
	}
}

// Validate reports the first setting that cannot produce a frame.
// It expects a resolved config.
func (c *Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("config: window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	case c.Backend != BackendGL && c.Backend != BackendSoft:
		return fmt.Errorf("config: unknown backend %q (want %s or %s)", c.Backend, BackendGL, BackendSoft)
	case len(c.ClearColor) != 4:
		return fmt.Errorf("config: clear_color needs 4 components, got %d", len(c.ClearColor))
	case len(c.Camera.Eye) != 3 || len(c.Camera.Center) != 3 || len(c.Camera.Up) != 3:
		return fmt.Errorf("config: camera eye, center and up need 3 components")
	case c.Camera.Near <= 0 || c.Camera.Near >= c.Camera.Far:
		return fmt.Errorf("config: camera planes near=%g far=%g need 0 < near < far", c.Camera.Near, c.Camera.Far)
	case c.Camera.FovDeg <= 0 || c.Camera.FovDeg >= 180:
		return fmt.Errorf("config: camera fov %g must be in (0, 180)", c.Camera.FovDeg)
	case c.Floor.HalfExtent <= 0:
		return fmt.Errorf("config: floor half_extent %g must be positive", c.Floor.HalfExtent)
	case len(c.Floor.Color) != 3:
		return fmt.Errorf("config: floor color needs 3 components, got %d", len(c.Floor.Color))
	case c.Reflection.Tint == nil || *c.Reflection.Tint < 0 || *c.Reflection.Tint > 1:
		return fmt.Errorf("config: reflection tint must be in [0, 1]")
	case c.Capture.Frames < 0:
		return fmt.Errorf("config: capture frames %d must not be negative", c.Capture.Frames)
	case c.Capture.Supersample > 8:
		return fmt.Errorf("config: capture supersample %d exceeds 8", c.Capture.Supersample)
	case c.Backend == BackendGL && c.Offscreen != nil && !*c.Offscreen && c.Capture.Frames > 0 && c.Capture.Supersample > 1:
		return fmt.Errorf("config: supersampled capture on the gl backend needs an offscreen frame")
	}
	return nil
}

func orBool(p *bool, def bool) *bool {
	if p != nil {
		return p
	}
	return &def
}

func orFloat32(p *float32, def float32) *float32 {
	if p != nil {
		return p
	}
	return &def
}

func orFloat64(p *float64, def float64) *float64 {
	if p != nil {
		return p
	}
	return &def
}

// defaultAssetDirs lists the assets dirs next to the executable and in the
// working directory. A texture path naming an existing file needs no index.
func defaultAssetDirs() []string {
	var dirs []string
	if exe, _ := os.Executable(); exe != "" {
		dirs = append(dirs, filepath.Join(filepath.Dir(exe), "assets"))
	}
	if cwd, _ := os.Getwd(); cwd != "" {
		dirs = append(dirs, filepath.Join(cwd, "assets"))
	}
	return dirs
}
