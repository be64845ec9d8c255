package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}

	if cfg.DistanceMin != 15 || cfg.DistanceMax != 220 {
		t.Errorf("distance range = [%v, %v], want [15, 220]", cfg.DistanceMin, cfg.DistanceMax)
	}
	if cfg.LevelMin != 0 || cfg.LevelMax != 100 {
		t.Errorf("level range = [%d, %d], want [0, 100]", cfg.LevelMin, cfg.LevelMax)
	}
	if cfg.MinDetectionConfidence != 0.7 || cfg.MinTrackingConfidence != 0.7 {
		t.Errorf("confidences = %v/%v, want 0.7/0.7", cfg.MinDetectionConfidence, cfg.MinTrackingConfidence)
	}
	if cfg.MinLandmarks != 9 {
		t.Errorf("MinLandmarks = %d, want 9", cfg.MinLandmarks)
	}
	if cfg.QuitKeyCode() != 'q' {
		t.Errorf("QuitKeyCode() = %d, want %d", cfg.QuitKeyCode(), 'q')
	}
	if cfg.KeyDelay != time.Millisecond {
		t.Errorf("KeyDelay = %v, want 1ms", cfg.KeyDelay)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "inverted distance range",
			mutate:  func(c *Config) { c.DistanceMin, c.DistanceMax = 220, 15 },
			wantErr: "DistanceMax",
		},
		{
			name:    "level above 100",
			mutate:  func(c *Config) { c.LevelMax = 120 },
			wantErr: "LevelMax",
		},
		{
			name:    "too few landmarks to reach the index tip",
			mutate:  func(c *Config) { c.MinLandmarks = 5 },
			wantErr: "MinLandmarks",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Backend = "magic" },
			wantErr: "Backend",
		},
		{
			name:    "plugin backend without plugin name",
			mutate:  func(c *Config) { c.Backend = BackendPlugin; c.PluginName = "" },
			wantErr: "PluginName",
		},
		{
			name:    "confidence out of range",
			mutate:  func(c *Config) { c.MinDetectionConfidence = 1.5 },
			wantErr: "MinDetectionConfidence",
		},
		{
			name:    "multi-character quit key",
			mutate:  func(c *Config) { c.QuitKey = "qq" },
			wantErr: "QuitKey",
		},
		{
			name:    "zero key delay",
			mutate:  func(c *Config) { c.KeyDelay = 0 },
			wantErr: "KeyDelay",
		},
		{
			name:    "unknown hand",
			mutate:  func(c *Config) { c.Hand = "both" },
			wantErr: "Hand",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %s", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PINCHLIGHT_CAMERA":         "2",
		"PINCHLIGHT_DISTANCE_MAX":   "300.5",
		"PINCHLIGHT_BACKEND":        "none",
		"PINCHLIGHT_HEADLESS":       "true",
		"PINCHLIGHT_PLUGIN_TIMEOUT": "750ms",
		"PINCHLIGHT_LOG_LEVEL":      "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := ApplyEnv(&cfg, lookup); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.CameraID != 2 {
		t.Errorf("CameraID = %d, want 2", cfg.CameraID)
	}
	if cfg.DistanceMax != 300.5 {
		t.Errorf("DistanceMax = %v, want 300.5", cfg.DistanceMax)
	}
	if cfg.Backend != BackendNone {
		t.Errorf("Backend = %q, want none", cfg.Backend)
	}
	if !cfg.Headless {
		t.Error("Headless = false, want true")
	}
	if cfg.PluginTimeout != 750*time.Millisecond {
		t.Errorf("PluginTimeout = %v, want 750ms", cfg.PluginTimeout)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("empty variable should not override LogLevel, got %q", cfg.LogLevel)
	}
}

func TestApplyEnv_InvalidValue(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "PINCHLIGHT_FPS" {
			return "fast", true
		}
		return "", false
	}

	cfg := Default()
	err := ApplyEnv(&cfg, lookup)
	if err == nil {
		t.Fatal("expected error for non-numeric FPS")
	}
	if !strings.Contains(err.Error(), "PINCHLIGHT_FPS") {
		t.Errorf("error %v should name the variable", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PINCHLIGHT_TEST_DOTENV=from-file\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("PINCHLIGHT_TEST_DOTENV") })

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}

	if got := os.Getenv("PINCHLIGHT_TEST_DOTENV"); got != "from-file" {
		t.Errorf("PINCHLIGHT_TEST_DOTENV = %q, want from-file", got)
	}
}
