package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/pinchlight/internal/config"
)

func envMap(m map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// execute runs the root command with args and returns the configuration the
// control loop would have been started with.
func execute(t *testing.T, lookup config.LookupFunc, args ...string) (config.Config, string, error) {
	t.Helper()

	var got config.Config
	root := newRootCmd(lookup, func(ctx context.Context, cfg config.Config) error {
		got = cfg
		return nil
	})

	var out bytes.Buffer
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	root.SetOut(&out)
	root.SetErr(&out)

	err := root.ExecuteContext(context.Background())
	return got, out.String(), err
}

func TestRoot_Defaults(t *testing.T) {
	cfg, _, err := execute(t, envMap(nil))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := config.Default()
	if cfg != want {
		t.Errorf("config = %+v, want defaults %+v", cfg, want)
	}
}

func TestRoot_Precedence(t *testing.T) {
	env := envMap(map[string]string{
		"PINCHLIGHT_CAMERA":       "2",
		"PINCHLIGHT_BACKEND":      "ddcutil",
		"PINCHLIGHT_DISTANCE_MAX": "300",
		"PINCHLIGHT_KEY_DELAY":    "5ms",
	})

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg config.Config)
	}{
		{
			name: "environment over defaults",
			check: func(t *testing.T, cfg config.Config) {
				if cfg.CameraID != 2 || cfg.Backend != config.BackendDDCUtil || cfg.DistanceMax != 300 || cfg.KeyDelay != 5*time.Millisecond {
					t.Errorf("config = %+v", cfg)
				}
			},
		},
		{
			name: "flags over environment",
			args: []string{"--camera", "1", "--backend", "none", "--key-delay", "10ms", "--distance-max", "250.5"},
			check: func(t *testing.T, cfg config.Config) {
				if cfg.CameraID != 1 || cfg.Backend != config.BackendNone || cfg.KeyDelay != 10*time.Millisecond || cfg.DistanceMax != 250.5 {
					t.Errorf("config = %+v", cfg)
				}
			},
		},
		{
			name: "flag equal to default still wins",
			args: []string{"--camera", "0"},
			check: func(t *testing.T, cfg config.Config) {
				if cfg.CameraID != 0 {
					t.Errorf("CameraID = %d, want 0", cfg.CameraID)
				}
				if cfg.Backend != config.BackendDDCUtil {
					t.Errorf("Backend = %q, want ddcutil from the environment", cfg.Backend)
				}
			},
		},
		{
			name: "tray implies headless",
			args: []string{"--tray"},
			check: func(t *testing.T, cfg config.Config) {
				if !cfg.Tray || !cfg.Headless {
					t.Errorf("Tray = %v, Headless = %v; want both true", cfg.Tray, cfg.Headless)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _, err := execute(t, env, tt.args...)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestRoot_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		args    []string
		wantErr string
	}{
		{"bad backend flag", nil, []string{"--backend", "smoke-signals"}, "Backend"},
		{"inverted range", nil, []string{"--distance-min", "300"}, "DistanceMax"},
		{"bad env value", map[string]string{"PINCHLIGHT_FPS": "fast"}, nil, "PINCHLIGHT_FPS"},
		{"unknown flag", nil, []string{"--brightness", "50"}, "unknown flag"},
		{"positional argument", nil, []string{"extra"}, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, envMap(tt.env), tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Execute() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestRoot_DotEnv(t *testing.T) {
	const key = "PINCHLIGHT_MAX_HANDS"
	if _, ok := os.LookupEnv(key); ok {
		t.Skipf("%s already set", key)
	}
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(key+"=1\n"), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	cfg, _, err := execute(t, os.LookupEnv, "--env-file", path)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if cfg.MaxHands != 1 {
		t.Errorf("MaxHands = %d, want 1 from the env file", cfg.MaxHands)
	}
}

func TestRoot_Version(t *testing.T) {
	_, out, err := execute(t, envMap(nil), "--version")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.TrimSpace(out) != Version {
		t.Errorf("--version output = %q, want %q", out, Version)
	}
}

func TestBackends(t *testing.T) {
	pluginDir := t.TempDir()
	dir := filepath.Join(pluginDir, "system-control")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	manifest := `{"name":"system-control","version":"2.0.0","executable":"system-control","actions":["brightness-set","brightness-get"]}`
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	_, out, err := execute(t, envMap(nil), "backends", "--plugin-dir", pluginDir)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, want := range []string{"BACKEND", "sysfs", "xrandr", "ddcutil", "powershell", "macos", "plugin", "none", "system-control", "2.0.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBackends_NoPlugins(t *testing.T) {
	_, out, err := execute(t, envMap(nil), "backends", "--plugin-dir", filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "No plugins found") {
		t.Errorf("output = %s", out)
	}
}
