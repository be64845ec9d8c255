package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayusman/pinchlight/internal/app"
	"github.com/ayusman/pinchlight/internal/brightness"
	"github.com/ayusman/pinchlight/internal/capture"
	"github.com/ayusman/pinchlight/internal/config"
	"github.com/ayusman/pinchlight/internal/detector"
	"github.com/ayusman/pinchlight/internal/display"
	"github.com/ayusman/pinchlight/internal/logging"
	"github.com/ayusman/pinchlight/internal/tray"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

// options is the state shared by the root command and its subcommands.
type options struct {
	cfg     config.Config
	envFile string
	lookup  config.LookupFunc
}

// runFunc runs a control session with a resolved configuration.
type runFunc func(ctx context.Context, cfg config.Config) error

func newRootCmd(lookup config.LookupFunc, run runFunc) *cobra.Command {
	opts := &options{cfg: config.Default(), lookup: lookup}

	root := &cobra.Command{
		Use:     "pinchlight",
		Short:   "Control screen brightness with a thumb and index finger pinch",
		Version: Version,
		Long: `Pinchlight watches a camera for a hand and maps the distance between the
thumb tip and index fingertip onto the screen brightness. Press q in the
preview window to quit.

Every flag can also be set through a PINCHLIGHT_* environment variable or a
.env file; flags win over the environment.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts.cfg)
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	bindFlags(root.PersistentFlags(), &opts.cfg)
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading PINCHLIGHT_* variables")

	root.AddCommand(newBackendsCmd(opts))

	return root
}

func bindFlags(fs *pflag.FlagSet, c *config.Config) {
	fs.IntVar(&c.CameraID, "camera", c.CameraID, "camera device index")
	fs.IntVar(&c.FrameWidth, "width", c.FrameWidth, "requested frame width")
	fs.IntVar(&c.FrameHeight, "height", c.FrameHeight, "requested frame height")
	fs.IntVar(&c.FPS, "fps", c.FPS, "requested camera frame rate")

	fs.IntVar(&c.MaxHands, "max-hands", c.MaxHands, "maximum number of hands to track")
	fs.Float64Var(&c.MinDetectionConfidence, "min-detection-confidence", c.MinDetectionConfidence, "minimum hand detection confidence")
	fs.Float64Var(&c.MinTrackingConfidence, "min-tracking-confidence", c.MinTrackingConfidence, "minimum hand tracking confidence")
	fs.StringVar(&c.Hand, "hand", c.Hand, "hand that drives brightness: first, left or right")
	fs.IntVar(&c.MinLandmarks, "min-landmarks", c.MinLandmarks, "landmarks a hand needs before brightness is updated")
	fs.StringVar(&c.HelperScript, "helper-script", c.HelperScript, "path to the hand landmark helper script")

	fs.Float64Var(&c.DistanceMin, "distance-min", c.DistanceMin, "fingertip distance in pixels mapped to the lowest level")
	fs.Float64Var(&c.DistanceMax, "distance-max", c.DistanceMax, "fingertip distance in pixels mapped to the highest level")
	fs.IntVar(&c.LevelMin, "level-min", c.LevelMin, "lowest brightness percentage")
	fs.IntVar(&c.LevelMax, "level-max", c.LevelMax, "highest brightness percentage")

	fs.StringVar(&c.Backend, "backend", c.Backend, "brightness backend: auto, sysfs, xrandr, ddcutil, powershell, macos, plugin or none")
	fs.StringVar(&c.BacklightDevice, "backlight-device", c.BacklightDevice, "sysfs backlight device (default: first found)")
	fs.StringVar(&c.XrandrOutput, "xrandr-output", c.XrandrOutput, "xrandr output (default: first connected)")
	fs.IntVar(&c.DDCDisplay, "ddc-display", c.DDCDisplay, "ddcutil display number (0: first)")
	fs.StringVar(&c.PluginDir, "plugin-dir", c.PluginDir, "directory searched for brightness plugins")
	fs.StringVar(&c.PluginName, "plugin", c.PluginName, "brightness plugin name")
	fs.DurationVar(&c.PluginTimeout, "plugin-timeout", c.PluginTimeout, "timeout for a single plugin call")

	fs.StringVar(&c.WindowTitle, "window-title", c.WindowTitle, "preview window title")
	fs.StringVar(&c.QuitKey, "quit-key", c.QuitKey, "key that quits from the preview window")
	fs.DurationVar(&c.KeyDelay, "key-delay", c.KeyDelay, "time to wait for a key press each frame")
	fs.BoolVar(&c.Headless, "headless", c.Headless, "run without a preview window")
	fs.BoolVar(&c.Tray, "tray", c.Tray, "show a system tray icon (implies --headless)")

	fs.BoolVar(&c.MotionGate, "motion-gate", c.MotionGate, "skip hand detection on frames without motion")
	fs.Float64Var(&c.MotionThreshold, "motion-threshold", c.MotionThreshold, "percentage of changed pixels counted as motion")
	fs.Float64Var(&c.MaxFPS, "max-fps", c.MaxFPS, "cap on processed frames per second (0: unlimited)")

	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: trace, debug, info, warn or error")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "also write logs to this rotated file")
}

// resolve layers the configuration: defaults, then the environment (after
// loading the dotenv file), then the flags given on the command line.
func (o *options) resolve(fs *pflag.FlagSet) error {
	changed := map[string]string{}
	fs.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	if err := config.LoadDotEnv(o.envFile); err != nil {
		return err
	}

	o.cfg = config.Default()
	if err := config.ApplyEnv(&o.cfg, o.lookup); err != nil {
		return err
	}

	// The flags still point into o.cfg, so setting them again re-applies
	// the command line on top of the environment.
	for name, value := range changed {
		if err := fs.Set(name, value); err != nil {
			return fmt.Errorf("flag --%s: %w", name, err)
		}
	}

	if o.cfg.Tray {
		o.cfg.Headless = true
	}
	return o.cfg.Validate()
}

func runControl(ctx context.Context, cfg config.Config) error {
	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}

	setter, err := brightness.New(brightness.OptionsFromConfig(cfg, logging.Component(log, "brightness")))
	if err != nil {
		return fmt.Errorf("brightness backend: %w", err)
	}
	log.WithField("backend", setter.Name()).Info("Brightness backend selected")

	det := newDetector(cfg, log)

	var win display.Window
	if cfg.Headless {
		win = display.NewHeadless()
	} else {
		win = display.NewHighGUI(cfg.WindowTitle)
	}

	a, err := app.New(app.Deps{
		Config: cfg,
		Camera: capture.NewCamera(capture.Settings{
			DeviceID: cfg.CameraID,
			Width:    cfg.FrameWidth,
			Height:   cfg.FrameHeight,
			FPS:      cfg.FPS,
		}),
		Detector: det,
		Setter:   setter,
		Window:   win,
		Log:      log,
	})
	if err != nil {
		det.Close()
		win.Close()
		return err
	}

	if cfg.Tray {
		err = runWithTray(ctx, a, log)
	} else {
		err = a.Run(ctx)
	}

	// A camera that stops delivering frames ends the session normally; the
	// failure has already been reported.
	if errors.Is(err, app.ErrCaptureFailed) {
		return nil
	}
	return err
}

func newDetector(cfg config.Config, log *logrus.Entry) detector.Detector {
	dcfg := detector.Config{
		MaxHands:        cfg.MaxHands,
		MinConfidence:   cfg.MinDetectionConfidence,
		MinTrackingConf: cfg.MinTrackingConfidence,
		ScriptPath:      cfg.HelperScript,
	}

	mp, err := detector.NewMediaPipeDetector(dcfg, logging.Component(log, "detector"))
	if err != nil {
		log.WithError(err).Warn("MediaPipe not available, no hands will be detected")
		return detector.NewMockDetector()
	}
	log.Info("Using MediaPipe hand detection")
	return mp
}

// runWithTray runs the loop in the background and the tray on the calling
// goroutine, which the tray toolkit requires to be the main one. Either side
// finishing stops the other.
func runWithTray(ctx context.Context, a *app.App, log *logrus.Entry) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnQuit(cancel)
	a.OnLevel(t.SetLevel)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return a.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		t.Quit()
		return nil
	})

	log.Info("Running in the system tray")
	t.Run()
	cancel()

	return g.Wait()
}
