// Package main provides the system-control plugin. It sets the screen
// brightness with the first native backend that works on this machine.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/ayusman/pinchlight/internal/brightness"
	"github.com/ayusman/pinchlight/internal/config"
	"github.com/ayusman/pinchlight/internal/plugin"
)

// Step is the change applied by brightness-up and brightness-down.
const Step = 10

// actionHandler handles one action and returns the response data, if any.
type actionHandler func(ctx context.Context, s brightness.Setter, params json.RawMessage) (any, error)

// actionHandlers maps action names to their handler functions.
var actionHandlers = map[string]actionHandler{
	brightness.ActionSet: brightnessSet,
	brightness.ActionGet: brightnessGet,
	"brightness-up":      brightnessStep(Step),
	"brightness-down":    brightnessStep(-Step),
}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(plugin.Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	// The plugin must not fall back to itself.
	setter, err := brightness.New(brightness.Options{Backend: config.BackendAuto, SkipPlugin: true})
	writeResponse(handle(context.Background(), &req, setter, err))
}

// handle dispatches req. backendErr explains why setter is nil.
func handle(ctx context.Context, req *plugin.Request, setter brightness.Setter, backendErr error) plugin.Response {
	handler, ok := actionHandlers[req.Action]
	if !ok {
		return plugin.Response{Error: fmt.Sprintf("unknown action: %s", req.Action)}
	}

	data, err := handler(ctx, setter, req.Params)
	if errors.Is(err, errNoBackend) && backendErr != nil {
		err = fmt.Errorf("%w: %v", err, backendErr)
	}
	if err != nil {
		return plugin.Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)}
	}

	resp := plugin.Response{Success: true}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return plugin.Response{Error: err.Error()}
		}
		resp.Data = raw
	}
	return resp
}

var errNoBackend = errors.New("no brightness backend")

func brightnessSet(ctx context.Context, s brightness.Setter, params json.RawMessage) (any, error) {
	var p brightness.PluginParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if p.Percent < 0 || p.Percent > 100 {
		return nil, fmt.Errorf("percent %d out of range 0-100", p.Percent)
	}
	if s == nil {
		return nil, errNoBackend
	}
	return nil, s.Set(ctx, p.Percent)
}

func brightnessGet(ctx context.Context, s brightness.Setter, _ json.RawMessage) (any, error) {
	g, ok := s.(brightness.Getter)
	if !ok {
		if s == nil {
			return nil, errNoBackend
		}
		return nil, fmt.Errorf("%s cannot read brightness", s.Name())
	}
	level, err := g.Get(ctx)
	if err != nil {
		return nil, err
	}
	return brightness.PluginParams{Percent: level}, nil
}

// brightnessStep moves the level by delta. Without a readable backend on
// macOS it falls back to the brightness media keys.
func brightnessStep(delta int) actionHandler {
	return func(ctx context.Context, s brightness.Setter, _ json.RawMessage) (any, error) {
		if g, ok := s.(brightness.Getter); ok {
			level, err := g.Get(ctx)
			if err != nil {
				return nil, err
			}
			level = min(max(level+delta, 0), 100)
			if err := s.Set(ctx, level); err != nil {
				return nil, err
			}
			return brightness.PluginParams{Percent: level}, nil
		}

		if runtime.GOOS == "darwin" {
			key := 144
			if delta < 0 {
				key = 145
			}
			return nil, runAppleScript(fmt.Sprintf("tell application \"System Events\"\n\tkey code %d\nend tell", key))
		}
		if s == nil {
			return nil, errNoBackend
		}
		return nil, fmt.Errorf("%s cannot read brightness", s.Name())
	}
}

func writeResponse(resp plugin.Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
