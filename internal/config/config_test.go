package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[development]
port = 9090
data_dir = "/tmp/fc"
log_level = "debug"
log_to_stdout = true
render_fps = 24
detection_interval_ms = 50
motion_threshold = 1.5
default_exercise = "squat"

[production]
host = "0.0.0.0"
logs_path = "/var/log/formcheck"
jpeg_quality = 300
`

func TestParse(t *testing.T) {
	t.Run("development", func(t *testing.T) {
		cfg, err := Parse("dev", sample)
		require.NoError(t, err)
		assert.Equal(t, "localhost:9090", cfg.Addr())
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.True(t, cfg.LogToStdout)
		assert.Equal(t, 24, cfg.RenderFPS)
		assert.Equal(t, 50*time.Millisecond, cfg.DetectionInterval())
		assert.Equal(t, 1.5, cfg.MotionThreshold)
		assert.Equal(t, filepath.Join("/tmp/fc", "formcheck.db"), cfg.DBPath)
		assert.Equal(t, "squat", cfg.DefaultExercise)
		assert.Equal(t, filepath.Join("/tmp/fc", "hooks"), cfg.HooksDir)
		assert.Equal(t, 5*time.Second, cfg.HookTimeout())
	})

	t.Run("production falls back to defaults", func(t *testing.T) {
		cfg, err := Parse("PRODUCTION", sample)
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
		assert.Equal(t, DefaultRenderFPS, cfg.RenderFPS)
		assert.Equal(t, 40*time.Millisecond, cfg.DetectionInterval())
		assert.Equal(t, DefaultJPEGQuality, cfg.JPEGQuality, "out of range quality is replaced")
		assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
		assert.Equal(t, 0.5, cfg.MinDetectionConf)
	})

	t.Run("unknown env", func(t *testing.T) {
		_, err := Parse("staging", sample)
		assert.EqualError(t, err, "unknown env: staging")
	})

	t.Run("missing section", func(t *testing.T) {
		_, err := Parse("prod", "[development]\nport = 1\n")
		assert.Error(t, err)
	})

	t.Run("invalid toml", func(t *testing.T) {
		_, err := Parse("dev", "[development\n")
		assert.Error(t, err)
	})
}

func TestParse_ModelComplexity(t *testing.T) {
	tests := []struct {
		name string
		line string
		want int
	}{
		{name: "missing", line: "", want: DefaultModelComplexity},
		{name: "lite", line: "model_complexity = 0", want: 0},
		{name: "heavy", line: "model_complexity = 2", want: 2},
		{name: "out of range", line: "model_complexity = 7", want: DefaultModelComplexity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse("dev", "[development]\n"+tt.line+"\n")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.PoseModelComplexity())
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load("development", path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)

	_, err = Load("development", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "formcheck.db"), cfg.DBPath)
	assert.Equal(t, DefaultMetricsNamespace, cfg.MetricsNamespace)
	assert.Equal(t, DefaultModelComplexity, cfg.PoseModelComplexity())
}
