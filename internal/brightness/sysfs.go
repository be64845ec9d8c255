package brightness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultBacklightRoot is where Linux exposes backlight devices.
const DefaultBacklightRoot = "/sys/class/backlight"

// ErrNoBacklight is returned when no backlight device exists.
var ErrNoBacklight = errors.New("no backlight device found")

// Sysfs drives a Linux backlight device through /sys/class/backlight.
type Sysfs struct {
	dir string
	max int
}

// NewSysfs opens device under root. An empty device picks the first device
// in lexical order.
func NewSysfs(root, device string) (*Sysfs, error) {
	if root == "" {
		root = DefaultBacklightRoot
	}

	if device == "" {
		entries, err := os.ReadDir(root)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, ErrNoBacklight
			}
			return nil, fmt.Errorf("read %s: %w", root, err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		if len(names) == 0 {
			return nil, ErrNoBacklight
		}
		sort.Strings(names)
		device = names[0]
	}

	dir := filepath.Join(root, device)
	max, err := readInt(filepath.Join(dir, "max_brightness"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoBacklight, device)
		}
		return nil, err
	}
	if max <= 0 {
		return nil, fmt.Errorf("backlight %s reports max_brightness %d", device, max)
	}

	return &Sysfs{dir: dir, max: max}, nil
}

// Set writes percent of max_brightness to the device.
func (s *Sysfs) Set(ctx context.Context, percent int) error {
	raw := clampPercent(percent) * s.max / 100
	path := filepath.Join(s.dir, "brightness")
	if err := os.WriteFile(path, []byte(strconv.Itoa(raw)), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Get reads the current level as a percentage.
func (s *Sysfs) Get(ctx context.Context) (int, error) {
	raw, err := readInt(filepath.Join(s.dir, "brightness"))
	if err != nil {
		return 0, err
	}
	return raw * 100 / s.max, nil
}

// Name returns "sysfs:<device>".
func (s *Sysfs) Name() string {
	return "sysfs:" + filepath.Base(s.dir)
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return n, nil
}
