package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Media    MediaConfig    `yaml:"media"`
	Spawn    SpawnConfig    `yaml:"spawn"`
	Canvas   CanvasConfig   `yaml:"canvas"`
	Trigger  TriggerConfig  `yaml:"trigger"`
	Playback PlaybackConfig `yaml:"playback"`
	Stats    StatsConfig    `yaml:"stats"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type MediaConfig struct {
	Folder string `yaml:"folder"`
}

// SpawnConfig mirrors the configuration surface of the spawner: randomized
// transform ranges, the per-trigger batch size and the hard cap on
// concurrently active elements. Scale bounds are percentages, rotation
// bounds degrees, position bounds pixels (0 = canvas edge).
type SpawnConfig struct {
	RandomTransform bool    `yaml:"random_transform"`
	HideOnEnd       bool    `yaml:"hide_on_end"`
	MinScale        float64 `yaml:"min_scale"`
	MaxScale        float64 `yaml:"max_scale"`
	PreserveAspect  bool    `yaml:"preserve_aspect"`
	MinRotation     float64 `yaml:"min_rotation"`
	MaxRotation     float64 `yaml:"max_rotation"`
	DisableRotation bool    `yaml:"disable_rotation"`
	MinX            int     `yaml:"min_x"`
	MinY            int     `yaml:"min_y"`
	MaxX            int     `yaml:"max_x"`
	MaxY            int     `yaml:"max_y"`
	SpawnCount      int     `yaml:"spawn_count"`
	MaxActive       int     `yaml:"max_active"`
	Volume          float64 `yaml:"volume"`
	FitToCanvas     bool    `yaml:"fit_to_canvas"`
}

type CanvasConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type TriggerConfig struct {
	// AutoInterval spawns a batch on a fixed cadence without any remote
	// request. Zero disables the local trigger.
	AutoInterval time.Duration `yaml:"auto_interval"`
}

// PlaybackConfig bounds the simulated playback duration of spawned elements.
type PlaybackConfig struct {
	MinDuration time.Duration `yaml:"min_duration"`
	MaxDuration time.Duration `yaml:"max_duration"`
}

type StatsConfig struct {
	Dir string `yaml:"dir"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Spawn: SpawnConfig{
			RandomTransform: true,
			HideOnEnd:       true,
			MinScale:        50,
			MaxScale:        150,
			PreserveAspect:  true,
			MinRotation:     -180,
			MaxRotation:     180,
			SpawnCount:      1,
			MaxActive:       5,
			Volume:          1.0,
		},
		Canvas: CanvasConfig{
			Width:  1920,
			Height: 1080,
		},
		Playback: PlaybackConfig{
			MinDuration: 3 * time.Second,
			MaxDuration: 12 * time.Second,
		},
	}
}

func (c *Config) Validate() error {
	if c.Spawn.SpawnCount < 1 {
		return fmt.Errorf("spawn.spawn_count must be >= 1, got %d", c.Spawn.SpawnCount)
	}
	if c.Spawn.MaxActive < 1 {
		return fmt.Errorf("spawn.max_active must be >= 1, got %d", c.Spawn.MaxActive)
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas dimensions must be positive, got %gx%g", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Playback.MinDuration < 0 || c.Playback.MaxDuration < c.Playback.MinDuration {
		return fmt.Errorf("playback durations invalid: min %s max %s", c.Playback.MinDuration, c.Playback.MaxDuration)
	}
	return nil
}
