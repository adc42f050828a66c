// Package config loads per-environment settings from a TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied to zero values after loading.
const (
	DefaultHost                = "localhost"
	DefaultPort                = 8080
	DefaultRenderFPS           = 30
	DefaultDetectionIntervalMs = 40
	DefaultJPEGQuality         = 75
	DefaultModelComplexity     = 1
	DefaultConfidence          = 0.5
	DefaultLogLevel            = "info"
	DefaultMetricsNamespace    = "formcheck"
	DefaultHookTimeoutMs       = 5000
)

type Config struct {
	Host      string
	Port      int
	DataDir   string `toml:"data_dir"`
	DBPath    string `toml:"db_path"`
	StaticDir string `toml:"static_dir"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	// capture
	CameraDevice int `toml:"camera_device"`
	CameraWidth  int `toml:"camera_width"`
	CameraHeight int `toml:"camera_height"`
	RenderFPS    int `toml:"render_fps"`
	// detection
	DetectionIntervalMs int     `toml:"detection_interval_ms"`
	MotionThreshold     float64 `toml:"motion_threshold"`
	ModelComplexity     *int    `toml:"model_complexity"`
	MinDetectionConf    float64 `toml:"min_detection_confidence"`
	MinTrackingConf     float64 `toml:"min_tracking_confidence"`
	UseMockDetector     bool    `toml:"use_mock_detector"`
	// output
	JPEGQuality      int    `toml:"jpeg_quality"`
	MetricsNamespace string `toml:"metrics_namespace"`
	TrayEnabled      bool   `toml:"tray_enabled"`
	DefaultExercise  string `toml:"default_exercise"`
	// hooks
	HooksDir      string `toml:"hooks_dir"`
	HookTimeoutMs int    `toml:"hook_timeout_ms"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the section for env with
// defaults filled in.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return fromToml(&t, env)
}

// Parse is Load for an in-memory document.
func Parse(env, data string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(data, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return fromToml(&t, env)
}

func fromToml(t *Toml, env string) (*Config, error) {
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config has no [%s] section", strings.ToLower(env))
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// Default returns a configuration made only of defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults replaces zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.DataDir = filepath.Join(home, ".formcheck")
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "formcheck.db")
	}
	if c.HooksDir == "" {
		c.HooksDir = filepath.Join(c.DataDir, "hooks")
	}
	if c.HookTimeoutMs <= 0 {
		c.HookTimeoutMs = DefaultHookTimeoutMs
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.RenderFPS <= 0 {
		c.RenderFPS = DefaultRenderFPS
	}
	if c.DetectionIntervalMs <= 0 {
		c.DetectionIntervalMs = DefaultDetectionIntervalMs
	}
	// 0 selects the lite model, so only a missing or unknown value is replaced.
	if c.ModelComplexity == nil || *c.ModelComplexity < 0 || *c.ModelComplexity > 2 {
		complexity := DefaultModelComplexity
		c.ModelComplexity = &complexity
	}
	if c.MinDetectionConf == 0 {
		c.MinDetectionConf = DefaultConfidence
	}
	if c.MinTrackingConf == 0 {
		c.MinTrackingConf = DefaultConfidence
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		c.JPEGQuality = DefaultJPEGQuality
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = DefaultMetricsNamespace
	}
}

// DetectionInterval is the minimum time between two detector calls.
func (c *Config) DetectionInterval() time.Duration {
	return time.Duration(c.DetectionIntervalMs) * time.Millisecond
}

// PoseModelComplexity is the MediaPipe pose model size: 0 lite, 1 full, 2 heavy.
func (c *Config) PoseModelComplexity() int {
	if c.ModelComplexity == nil {
		return DefaultModelComplexity
	}
	return *c.ModelComplexity
}

// HookTimeout bounds one hook run.
func (c *Config) HookTimeout() time.Duration {
	return time.Duration(c.HookTimeoutMs) * time.Millisecond
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
