package e2e

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/pinchlight/internal/app"
	"github.com/ayusman/pinchlight/internal/brightness"
	"github.com/ayusman/pinchlight/internal/capture"
	"github.com/ayusman/pinchlight/internal/config"
	"github.com/ayusman/pinchlight/internal/detector"
	"github.com/ayusman/pinchlight/internal/display"
	"github.com/ayusman/pinchlight/internal/logging"
	"gocv.io/x/gocv"
)

// pinch returns a hand whose fingertips are dx pixels apart horizontally on a
// 640x480 frame.
func pinch(dx int) []detector.HandLandmarks {
	thumb := detector.Point3D{X: 0.125, Y: 0.5}
	index := detector.Point3D{X: 0.125 + float64(dx)/640, Y: 0.5}
	return []detector.HandLandmarks{detector.PinchLandmarks(thumb, index)}
}

func blankFrames(t *testing.T, n int) []*gocv.Mat {
	t.Helper()
	mats := make([]*gocv.Mat, n)
	for i := range mats {
		m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
		mats[i] = &m
		t.Cleanup(func() { m.Close() })
	}
	return mats
}

func readInt(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return n
}

func TestE2E_SysfsSweep(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	root := t.TempDir()
	dev := filepath.Join(root, "intel_backlight")
	if err := os.MkdirAll(dev, 0755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dev, "max_brightness"), []byte("1000\n"), 0644)
	os.WriteFile(filepath.Join(dev, "brightness"), []byte("500\n"), 0644)

	cfg := config.Default()
	cfg.Backend = config.BackendSysfs
	if err := config.ApplyEnv(&cfg, func(key string) (string, bool) {
		if key == config.EnvPrefix+"BACKLIGHT_DEVICE" {
			return "intel_backlight", true
		}
		return "", false
	}); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	opts := brightness.OptionsFromConfig(cfg, nil)
	opts.BacklightRoot = root
	setter, err := brightness.New(opts)
	if err != nil {
		t.Fatalf("brightness.New() error = %v", err)
	}

	// Fingers close, a partial hand, no hand, opening up, wide open.
	det := detector.NewMockDetector()
	det.QueueHands(
		pinch(10),
		[]detector.HandLandmarks{detector.PartialLandmarks(5)},
		nil,
		pinch(100),
		pinch(400),
	)

	var out bytes.Buffer
	win := display.NewMockWindow()
	cam := capture.NewMockCamera(blankFrames(t, 5), false)

	a, err := app.New(app.Deps{
		Config:   cfg,
		Camera:   cam,
		Detector: det,
		Setter:   setter,
		Window:   win,
		Out:      &out,
		Log:      logging.Discard(),
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	var levels []int
	a.OnLevel(func(level int) {
		levels = append(levels, level)
	})

	err = a.Run(context.Background())
	if !errors.Is(err, app.ErrCaptureFailed) {
		t.Fatalf("Run() error = %v, want ErrCaptureFailed at end of input", err)
	}

	wantLines := []string{
		"Brightness: 0%, Distance: 10.00",
		"Brightness: 41%, Distance: 100.00",
		"Brightness: 100%, Distance: 400.00",
		app.CaptureFailedMessage,
	}
	gotLines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(gotLines) != len(wantLines) {
		t.Fatalf("output lines = %q, want %q", gotLines, wantLines)
	}
	for i := range wantLines {
		if gotLines[i] != wantLines[i] {
			t.Errorf("line %d = %q, want %q", i, gotLines[i], wantLines[i])
		}
	}

	if len(levels) != 3 || levels[0] != 0 || levels[1] != 41 || levels[2] != 100 {
		t.Errorf("applied levels = %v, want [0 41 100]", levels)
	}
	if got := readInt(t, filepath.Join(dev, "brightness")); got != 1000 {
		t.Errorf("sysfs brightness = %d, want 1000", got)
	}
	if win.Shown() != 5 || !win.Closed() {
		t.Errorf("window shown %d frames (closed %v), want 5 and closed", win.Shown(), win.Closed())
	}
	if !det.Closed() || cam.IsOpen() {
		t.Error("detector and camera should be released")
	}
}

func TestE2E_PluginBackend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	pluginDir := t.TempDir()
	dir := filepath.Join(pluginDir, "system-control")
	state := filepath.Join(pluginDir, "level")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	manifest := `{"name":"system-control","version":"1.0.0","executable":"run.sh","actions":["brightness-set"]}`
	os.WriteFile(filepath.Join(dir, "plugin.json"), []byte(manifest), 0644)
	script := "#!/bin/sh\nread req\necho \"$req\" | sed 's/.*\"percent\":\\([0-9]*\\).*/\\1/' > " + state + "\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Backend = config.BackendPlugin
	cfg.PluginDir = pluginDir
	cfg.PluginTimeout = 5 * time.Second

	setter, err := brightness.New(brightness.OptionsFromConfig(cfg, nil))
	if err != nil {
		t.Fatalf("brightness.New() error = %v", err)
	}

	det := detector.NewMockDetector()
	det.SetHands(pinch(220))

	a, err := app.New(app.Deps{
		Config:   cfg,
		Camera:   capture.NewMockCamera(blankFrames(t, 1), true),
		Detector: det,
		Setter:   setter,
		Window:   display.NewMockWindow(display.NoKey, 'q'),
		Out:      &bytes.Buffer{},
		Log:      logging.Discard(),
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := readInt(t, state); got != 100 {
		t.Errorf("plugin received %d, want 100", got)
	}
	if s := a.Stats(); s.Updates != 2 || s.Failures != 0 {
		t.Errorf("Stats() = %+v, want 2 updates and no failures", s)
	}
}
