// Package config holds every tunable of the brightness controller together with
// its default value, environment overrides and validation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Default values.
const (
	DefaultCameraID    = 0
	DefaultFrameWidth  = 640
	DefaultFrameHeight = 480
	DefaultFPS         = 30

	DefaultMaxHands               = 2
	DefaultMinDetectionConfidence = 0.7
	DefaultMinTrackingConfidence  = 0.7
	// DefaultMinLandmarks is the smallest landmark set that contains the
	// index fingertip (index 8).
	DefaultMinLandmarks = 9

	// Fingertip distance in pixels mapped onto the brightness range.
	DefaultDistanceMin = 15.0
	DefaultDistanceMax = 220.0
	DefaultLevelMin    = 0
	DefaultLevelMax    = 100

	DefaultWindowTitle = "Hand Gesture Brightness Control"
	DefaultQuitKey     = "q"
	DefaultKeyDelay    = time.Millisecond

	DefaultPluginDir     = "plugins"
	DefaultPluginName    = "system-control"
	DefaultPluginTimeout = 5 * time.Second

	DefaultMotionThreshold = 1.0
	DefaultLogLevel        = "info"
)

// Hand selection policies.
const (
	HandFirst = "first"
	HandLeft  = "left"
	HandRight = "right"
)

// Brightness backend names.
const (
	BackendAuto       = "auto"
	BackendSysfs      = "sysfs"
	BackendXrandr     = "xrandr"
	BackendDDCUtil    = "ddcutil"
	BackendPowerShell = "powershell"
	BackendMacOS      = "macos"
	BackendPlugin     = "plugin"
	BackendNone       = "none"
)

// Backends lists every accepted backend name.
var Backends = []string{
	BackendAuto, BackendSysfs, BackendXrandr, BackendDDCUtil,
	BackendPowerShell, BackendMacOS, BackendPlugin, BackendNone,
}

// Config holds configuration options for a brightness control session.
type Config struct {
	// Camera
	CameraID    int `validate:"gte=0"`
	FrameWidth  int `validate:"gt=0"`
	FrameHeight int `validate:"gt=0"`
	FPS         int `validate:"gt=0"`

	// Detection
	MaxHands               int     `validate:"gte=1,lte=4"`
	MinDetectionConfidence float64 `validate:"gte=0,lte=1"`
	MinTrackingConfidence  float64 `validate:"gte=0,lte=1"`
	Hand                   string  `validate:"oneof=first left right"`
	MinLandmarks           int     `validate:"gte=9,lte=21"`
	// HelperScript overrides the hand landmark helper lookup.
	HelperScript string

	// Mapping
	DistanceMin float64 `validate:"gte=0"`
	DistanceMax float64 `validate:"gtfield=DistanceMin"`
	LevelMin    int     `validate:"gte=0,lte=100"`
	LevelMax    int     `validate:"gtfield=LevelMin,lte=100"`

	// Brightness backend
	Backend         string `validate:"oneof=auto sysfs xrandr ddcutil powershell macos plugin none"`
	BacklightDevice string
	XrandrOutput    string
	DDCDisplay      int           `validate:"gte=0"`
	PluginDir       string        `validate:"required_if=Backend plugin"`
	PluginName      string        `validate:"required_if=Backend plugin"`
	PluginTimeout   time.Duration `validate:"gt=0"`

	// Display
	WindowTitle string        `validate:"required"`
	QuitKey     string        `validate:"len=1"`
	KeyDelay    time.Duration `validate:"min=1ms"`
	Headless    bool
	Tray        bool

	// Pacing
	MotionGate      bool
	MotionThreshold float64 `validate:"gt=0,lte=100"`
	MaxFPS          float64 `validate:"gte=0"`

	// Logging
	LogLevel string `validate:"oneof=trace debug info warn error"`
	LogFile  string
}

// Default returns a Config with the stock values.
func Default() Config {
	return Config{
		CameraID:    DefaultCameraID,
		FrameWidth:  DefaultFrameWidth,
		FrameHeight: DefaultFrameHeight,
		FPS:         DefaultFPS,

		MaxHands:               DefaultMaxHands,
		MinDetectionConfidence: DefaultMinDetectionConfidence,
		MinTrackingConfidence:  DefaultMinTrackingConfidence,
		Hand:                   HandFirst,
		MinLandmarks:           DefaultMinLandmarks,

		DistanceMin: DefaultDistanceMin,
		DistanceMax: DefaultDistanceMax,
		LevelMin:    DefaultLevelMin,
		LevelMax:    DefaultLevelMax,

		Backend:       BackendAuto,
		PluginDir:     DefaultPluginDir,
		PluginName:    DefaultPluginName,
		PluginTimeout: DefaultPluginTimeout,

		WindowTitle: DefaultWindowTitle,
		QuitKey:     DefaultQuitKey,
		KeyDelay:    DefaultKeyDelay,

		MotionThreshold: DefaultMotionThreshold,
		LogLevel:        DefaultLogLevel,
	}
}

var validate = validator.New()

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: must satisfy %s (got %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// QuitKeyCode returns the key code of QuitKey as reported by a HighGUI key poll.
func (c *Config) QuitKeyCode() int {
	if c.QuitKey == "" {
		return -1
	}
	return int(c.QuitKey[0])
}

// LoadDotEnv loads environment variables from the given .env files.
// Missing files are ignored; variables already set in the process win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}
