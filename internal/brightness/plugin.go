package brightness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/pinchlight/internal/plugin"
)

// Plugin actions understood by brightness plugins.
const (
	ActionSet = "brightness-set"
	ActionGet = "brightness-get"
)

// PluginParams is the params payload of a brightness-set request and the data
// payload of a brightness-get response.
type PluginParams struct {
	Percent int `json:"percent"`
}

// Plugin delegates brightness changes to an external plugin executable.
type Plugin struct {
	plugin *plugin.Plugin
	exec   *plugin.Executor
}

// NewPlugin discovers plugins in mgr and binds to the named plugin, which must
// provide the brightness-set action.
func NewPlugin(mgr *plugin.Manager, name string, timeout time.Duration) (*Plugin, error) {
	if err := mgr.Discover(); err != nil {
		return nil, fmt.Errorf("discover plugins in %s: %w", mgr.PluginDir(), err)
	}
	p, err := mgr.Find(name, ActionSet)
	if err != nil {
		return nil, err
	}
	return &Plugin{plugin: p, exec: plugin.NewExecutor(timeout)}, nil
}

// Set sends a brightness-set request.
func (p *Plugin) Set(ctx context.Context, percent int) error {
	params, err := json.Marshal(PluginParams{Percent: clampPercent(percent)})
	if err != nil {
		return err
	}
	_, err = p.call(ctx, &plugin.Request{Action: ActionSet, Gesture: "pinch", Params: params})
	return err
}

// Get sends a brightness-get request if the plugin supports it.
func (p *Plugin) Get(ctx context.Context) (int, error) {
	if !p.plugin.HasAction(ActionGet) {
		return 0, fmt.Errorf("%w: %s does not provide %s", plugin.ErrActionNotSupported, p.plugin.Manifest.Name, ActionGet)
	}
	resp, err := p.call(ctx, &plugin.Request{Action: ActionGet})
	if err != nil {
		return 0, err
	}
	var out PluginParams
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return 0, fmt.Errorf("parse %s data: %w", ActionGet, err)
	}
	return out.Percent, nil
}

// Name returns "plugin:<name>".
func (p *Plugin) Name() string {
	return "plugin:" + p.plugin.Manifest.Name
}

func (p *Plugin) call(ctx context.Context, req *plugin.Request) (*plugin.Response, error) {
	resp, err := p.exec.Execute(ctx, p.plugin, req)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, errors.New(p.plugin.Manifest.Name + ": " + msg)
	}
	return resp, nil
}
