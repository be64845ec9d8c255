package config

import (
	"fmt"
	"strconv"
	"time"
)

// EnvPrefix is prepended to every environment variable name read by ApplyEnv.
const EnvPrefix = "PINCHLIGHT_"

// LookupFunc matches the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type envBinding struct {
	key   string
	apply func(c *Config, v string) error
}

func envInt(dst func(c *Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func envFloat(dst func(c *Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst(c) = f
		return nil
	}
}

func envBool(dst func(c *Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}
}

func envString(dst func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

func envDuration(dst func(c *Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst(c) = d
		return nil
	}
}

var envBindings = []envBinding{
	{"CAMERA", envInt(func(c *Config) *int { return &c.CameraID })},
	{"FRAME_WIDTH", envInt(func(c *Config) *int { return &c.FrameWidth })},
	{"FRAME_HEIGHT", envInt(func(c *Config) *int { return &c.FrameHeight })},
	{"FPS", envInt(func(c *Config) *int { return &c.FPS })},
	{"MAX_HANDS", envInt(func(c *Config) *int { return &c.MaxHands })},
	{"MIN_DETECTION_CONFIDENCE", envFloat(func(c *Config) *float64 { return &c.MinDetectionConfidence })},
	{"MIN_TRACKING_CONFIDENCE", envFloat(func(c *Config) *float64 { return &c.MinTrackingConfidence })},
	{"HAND", envString(func(c *Config) *string { return &c.Hand })},
	{"MIN_LANDMARKS", envInt(func(c *Config) *int { return &c.MinLandmarks })},
	{"HELPER_SCRIPT", envString(func(c *Config) *string { return &c.HelperScript })},
	{"DISTANCE_MIN", envFloat(func(c *Config) *float64 { return &c.DistanceMin })},
	{"DISTANCE_MAX", envFloat(func(c *Config) *float64 { return &c.DistanceMax })},
	{"LEVEL_MIN", envInt(func(c *Config) *int { return &c.LevelMin })},
	{"LEVEL_MAX", envInt(func(c *Config) *int { return &c.LevelMax })},
	{"BACKEND", envString(func(c *Config) *string { return &c.Backend })},
	{"BACKLIGHT_DEVICE", envString(func(c *Config) *string { return &c.BacklightDevice })},
	{"XRANDR_OUTPUT", envString(func(c *Config) *string { return &c.XrandrOutput })},
	{"DDC_DISPLAY", envInt(func(c *Config) *int { return &c.DDCDisplay })},
	{"PLUGIN_DIR", envString(func(c *Config) *string { return &c.PluginDir })},
	{"PLUGIN_NAME", envString(func(c *Config) *string { return &c.PluginName })},
	{"PLUGIN_TIMEOUT", envDuration(func(c *Config) *time.Duration { return &c.PluginTimeout })},
	{"WINDOW_TITLE", envString(func(c *Config) *string { return &c.WindowTitle })},
	{"QUIT_KEY", envString(func(c *Config) *string { return &c.QuitKey })},
	{"KEY_DELAY", envDuration(func(c *Config) *time.Duration { return &c.KeyDelay })},
	{"HEADLESS", envBool(func(c *Config) *bool { return &c.Headless })},
	{"TRAY", envBool(func(c *Config) *bool { return &c.Tray })},
	{"MOTION_GATE", envBool(func(c *Config) *bool { return &c.MotionGate })},
	{"MOTION_THRESHOLD", envFloat(func(c *Config) *float64 { return &c.MotionThreshold })},
	{"MAX_FPS", envFloat(func(c *Config) *float64 { return &c.MaxFPS })},
	{"LOG_LEVEL", envString(func(c *Config) *string { return &c.LogLevel })},
	{"LOG_FILE", envString(func(c *Config) *string { return &c.LogFile })},
}

// ApplyEnv overrides fields of c with PINCHLIGHT_* variables found by lookup.
// Unset variables leave the field untouched.
func ApplyEnv(c *Config, lookup LookupFunc) error {
	for _, b := range envBindings {
		key := EnvPrefix + b.key
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		if err := b.apply(c, v); err != nil {
			return fmt.Errorf("parse %s=%q: %w", key, v, err)
		}
	}
	return nil
}
