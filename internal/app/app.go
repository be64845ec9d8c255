// Package app runs the capture, detect, map and apply loop of the brightness
// controller.
package app

import (
	"errors"
	"io"
	"os"
	"sync"

	"github.com/ayusman/pinchlight/internal/brightness"
	"github.com/ayusman/pinchlight/internal/capture"
	"github.com/ayusman/pinchlight/internal/config"
	"github.com/ayusman/pinchlight/internal/detector"
	"github.com/ayusman/pinchlight/internal/display"
	"github.com/ayusman/pinchlight/internal/logging"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	// ErrCaptureFailed is returned by Run when the camera stops producing frames.
	ErrCaptureFailed = errors.New("frame capture failed")
	// ErrAlreadyRun is returned when Run is called on an App that has already run.
	ErrAlreadyRun = errors.New("app has already run")
)

// CaptureFailedMessage is printed when frame acquisition fails.
const CaptureFailedMessage = "Failed to capture frame. Exiting..."

// State is the lifecycle state of an App.
type State int

// App states.
const (
	StateIdle State = iota
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Deps are the collaborators of an App. Camera, Detector, Setter and Window
// are required; the App takes ownership of them and releases them when Run
// returns.
type Deps struct {
	Config   config.Config
	Camera   capture.Camera
	Detector detector.Detector
	Setter   brightness.Setter
	Window   display.Window

	// Out receives the per-frame brightness line. Defaults to stdout.
	Out io.Writer
	Log *logrus.Entry
}

// Stats counts what the loop has done so far. Updates counts brightness
// requests, Failures the ones the backend rejected.
type Stats struct {
	Frames   int
	Updates  int
	Failures int
}

// App is the brightness control loop.
type App struct {
	cfg       config.Config
	camera    capture.Camera
	detector  detector.Detector
	extractor *detector.Extractor
	mapper    *brightness.Mapper
	setter    *brightness.Guarded
	window    display.Window
	motion    *capture.MotionDetector
	limiter   *rate.Limiter
	out       io.Writer
	log       *logrus.Entry

	mu        sync.RWMutex
	state     State
	enabled   bool
	lastLevel int
	hasLevel  bool
	stats     Stats
	streak    int
	onLevel   func(level int)
}

// New wires an App from deps. The configuration is validated here so that Run
// never sees an invalid one.
func New(deps Deps) (*App, error) {
	switch {
	case deps.Camera == nil:
		return nil, errors.New("app: camera is required")
	case deps.Detector == nil:
		return nil, errors.New("app: detector is required")
	case deps.Setter == nil:
		return nil, errors.New("app: brightness setter is required")
	case deps.Window == nil:
		return nil, errors.New("app: window is required")
	}

	cfg := deps.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	out := deps.Out
	if out == nil {
		out = os.Stdout
	}
	log := deps.Log
	if log == nil {
		log = logging.Discard()
	}

	a := &App{
		cfg:       cfg,
		camera:    deps.Camera,
		detector:  deps.Detector,
		extractor: detector.NewExtractor(deps.Detector),
		mapper: brightness.NewMapper(brightness.Range{
			DistanceMin: cfg.DistanceMin,
			DistanceMax: cfg.DistanceMax,
			LevelMin:    cfg.LevelMin,
			LevelMax:    cfg.LevelMax,
		}),
		setter:  brightness.Guard(deps.Setter),
		window:  deps.Window,
		out:     out,
		log:     logging.Component(log, "app"),
		enabled: true,
	}

	if cfg.MotionGate {
		a.motion = capture.NewMotionDetector(cfg.MotionThreshold)
	}
	if cfg.MaxFPS > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(cfg.MaxFPS), 1)
	}

	return a, nil
}

// SetEnabled pauses or resumes brightness control. While paused frames are
// still captured and shown.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.mu.Unlock()

	if changed {
		a.log.WithField("enabled", enabled).Info("Brightness control toggled")
	}
}

// IsEnabled returns whether brightness control is active.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// State returns the lifecycle state.
func (a *App) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// LastLevel returns the most recently applied level. ok is false until the
// first update.
func (a *App) LastLevel() (level int, ok bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastLevel, a.hasLevel
}

// Stats returns a snapshot of the loop counters.
func (a *App) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

// OnLevel registers fn to be called from the loop goroutine after every
// brightness update.
func (a *App) OnLevel(fn func(level int)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onLevel = fn
}

func (a *App) setState(s State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = s
}
