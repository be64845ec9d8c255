package brightness

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/ayusman/pinchlight/internal/config"
	"github.com/ayusman/pinchlight/internal/plugin"
	"github.com/sirupsen/logrus"
)

// Options selects and parameterizes a backend.
type Options struct {
	Backend         string
	BacklightRoot   string
	BacklightDevice string
	XrandrOutput    string
	DDCDisplay      int
	PluginDir       string
	PluginName      string
	PluginTimeout   time.Duration
	// SkipPlugin keeps auto detection from falling back to the plugin.
	SkipPlugin bool

	// Hooks, overridable in tests.
	Runner   Runner
	LookPath func(file string) (string, error)
	GOOS     string
	Log      *logrus.Entry
}

// OptionsFromConfig copies the backend settings out of cfg.
func OptionsFromConfig(cfg config.Config, log *logrus.Entry) Options {
	return Options{
		Backend:         cfg.Backend,
		BacklightDevice: cfg.BacklightDevice,
		XrandrOutput:    cfg.XrandrOutput,
		DDCDisplay:      cfg.DDCDisplay,
		PluginDir:       cfg.PluginDir,
		PluginName:      cfg.PluginName,
		PluginTimeout:   cfg.PluginTimeout,
		Log:             log,
	}
}

func (o *Options) defaults() {
	if o.BacklightRoot == "" {
		o.BacklightRoot = DefaultBacklightRoot
	}
	if o.Runner == nil {
		o.Runner = ExecRunner
	}
	if o.LookPath == nil {
		o.LookPath = exec.LookPath
	}
	if o.GOOS == "" {
		o.GOOS = runtime.GOOS
	}
	if o.PluginTimeout <= 0 {
		o.PluginTimeout = config.DefaultPluginTimeout
	}
}

// New builds the backend named by opts.Backend. "auto" tries, in order, a
// Linux backlight device, the platform tool, and the brightness plugin.
func New(opts Options) (Setter, error) {
	opts.defaults()

	switch opts.Backend {
	case config.BackendSysfs:
		return NewSysfs(opts.BacklightRoot, opts.BacklightDevice)
	case config.BackendXrandr:
		return NewXrandr(opts.XrandrOutput, opts.Runner), nil
	case config.BackendDDCUtil:
		return NewDDCUtil(opts.DDCDisplay, opts.Runner), nil
	case config.BackendPowerShell:
		return NewPowerShell(opts.Runner), nil
	case config.BackendMacOS:
		return NewMacOS(opts.Runner), nil
	case config.BackendPlugin:
		return NewPlugin(plugin.NewManager(opts.PluginDir), opts.PluginName, opts.PluginTimeout)
	case config.BackendNone:
		return NewNone(opts.Log), nil
	case config.BackendAuto, "":
		return auto(opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, opts.Backend)
	}
}

// Status describes whether a backend can be used on this machine.
type Status struct {
	Backend   string
	Available bool
	Detail    string
}

// Probe reports the availability of every concrete backend.
func Probe(opts Options) []Status {
	opts.defaults()

	var out []Status
	for _, name := range config.Backends {
		if name == config.BackendAuto {
			continue
		}
		out = append(out, probeOne(opts, name))
	}
	return out
}

func probeOne(opts Options, name string) Status {
	st := Status{Backend: name}

	tool := map[string]string{
		config.BackendXrandr:     "xrandr",
		config.BackendDDCUtil:    "ddcutil",
		config.BackendPowerShell: "powershell",
		config.BackendMacOS:      "brightness",
	}

	switch name {
	case config.BackendSysfs:
		s, err := NewSysfs(opts.BacklightRoot, opts.BacklightDevice)
		if err != nil {
			st.Detail = err.Error()
			return st
		}
		st.Available, st.Detail = true, s.Name()
	case config.BackendPlugin:
		p, err := NewPlugin(plugin.NewManager(opts.PluginDir), opts.PluginName, opts.PluginTimeout)
		if err != nil {
			st.Detail = err.Error()
			return st
		}
		st.Available, st.Detail = true, p.Name()
	case config.BackendNone:
		st.Available, st.Detail = true, "dry run"
	default:
		path, err := opts.LookPath(tool[name])
		if err != nil {
			st.Detail = tool[name] + " not found in PATH"
			return st
		}
		st.Available, st.Detail = true, path
	}
	return st
}

func auto(opts Options) (Setter, error) {
	var tried []error

	if opts.GOOS == "linux" {
		s, err := NewSysfs(opts.BacklightRoot, opts.BacklightDevice)
		if err == nil {
			return s, nil
		}
		tried = append(tried, err)
	}

	candidates := map[string][]string{
		"linux":   {config.BackendXrandr, config.BackendDDCUtil},
		"windows": {config.BackendPowerShell},
		"darwin":  {config.BackendMacOS},
	}
	for _, name := range candidates[opts.GOOS] {
		st := probeOne(opts, name)
		if st.Available {
			opts.Backend = name
			return New(opts)
		}
		tried = append(tried, errors.New(st.Detail))
	}

	if !opts.SkipPlugin {
		p, err := NewPlugin(plugin.NewManager(opts.PluginDir), opts.PluginName, opts.PluginTimeout)
		if err == nil {
			return p, nil
		}
		tried = append(tried, err)
	}

	return nil, fmt.Errorf("%w on %s: %w", ErrUnsupportedBackend, opts.GOOS, errors.Join(tried...))
}
