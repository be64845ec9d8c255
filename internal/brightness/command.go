package brightness

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

// Command drives brightness by invoking an external tool.
type Command struct {
	name  string
	build func(ctx context.Context, percent int) (string, []string, error)
	run   Runner
}

// Set runs the tool with percent.
func (c *Command) Set(ctx context.Context, percent int) error {
	bin, args, err := c.build(ctx, clampPercent(percent))
	if err != nil {
		return err
	}
	_, err = c.run(ctx, bin, args...)
	return err
}

// Name returns the backend name.
func (c *Command) Name() string {
	return c.name
}

func runnerOrDefault(run Runner) Runner {
	if run == nil {
		return ExecRunner
	}
	return run
}

func fraction(percent int) string {
	return strconv.FormatFloat(float64(percent)/100, 'f', 2, 64)
}

// NewXrandr drives X11 software brightness through xrandr. An empty output
// selects the first connected output.
func NewXrandr(output string, run Runner) *Command {
	run = runnerOrDefault(run)
	c := &Command{name: "xrandr", run: run}
	c.build = func(ctx context.Context, percent int) (string, []string, error) {
		if output == "" {
			detected, err := firstConnectedOutput(ctx, run)
			if err != nil {
				return "", nil, err
			}
			output = detected
		}
		return "xrandr", []string{"--output", output, "--brightness", fraction(percent)}, nil
	}
	return c
}

func firstConnectedOutput(ctx context.Context, run Runner) (string, error) {
	out, err := run(ctx, "xrandr", "--query")
	if err != nil {
		return "", err
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == "connected" {
			return fields[0], nil
		}
	}
	return "", errors.New("xrandr: no connected output")
}

// NewDDCUtil drives external monitors over DDC/CI (VCP feature 0x10).
// display 0 lets ddcutil pick the first display.
func NewDDCUtil(display int, run Runner) *Command {
	return &Command{
		name: "ddcutil",
		run:  runnerOrDefault(run),
		build: func(ctx context.Context, percent int) (string, []string, error) {
			args := []string{"setvcp", "10", strconv.Itoa(percent)}
			if display > 0 {
				args = append(args, "--display", strconv.Itoa(display))
			}
			return "ddcutil", args, nil
		},
	}
}

// NewPowerShell drives laptop panels on Windows through WMI.
func NewPowerShell(run Runner) *Command {
	return &Command{
		name: "powershell",
		run:  runnerOrDefault(run),
		build: func(ctx context.Context, percent int) (string, []string, error) {
			script := fmt.Sprintf("(Get-WmiObject -Namespace root/WMI -Class WmiMonitorBrightnessMethods).WmiSetBrightness(1,%d)", percent)
			return "powershell", []string{"-NoProfile", "-NonInteractive", "-Command", script}, nil
		},
	}
}

// NewMacOS drives built-in displays on macOS with the brightness CLI.
func NewMacOS(run Runner) *Command {
	return &Command{
		name: "macos",
		run:  runnerOrDefault(run),
		build: func(ctx context.Context, percent int) (string, []string, error) {
			return "brightness", []string{fraction(percent)}, nil
		},
	}
}
