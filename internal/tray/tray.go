// Package tray provides a system tray front end for headless brightness control.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray shows the last applied level in the system tray and lets the user
// pause control or quit.
type Tray struct {
	onToggle func(enabled bool)
	onQuit   func()
	enabled  bool
	level    int
	hasLevel bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuLevel  *systray.MenuItem
	ready      bool
}

// New creates a Tray in the enabled state.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback invoked when the user pauses or resumes control.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnQuit sets the callback invoked when the user picks Quit.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It must be called from the main goroutine and
// blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTooltip("Pinchlight hand gesture brightness control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume brightness control")
	systray.AddSeparator()
	t.menuLevel = systray.AddMenuItem(levelTitle(t.level, t.hasLevel), "Last applied brightness")
	t.menuLevel.Disable()
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Pinchlight")
	t.ready = true
	t.refresh()
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.Toggle()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// Toggle flips the enabled state and notifies the toggle callback.
func (t *Tray) Toggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	t.refresh()
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLevel updates the level shown in the tray title and menu.
func (t *Tray) SetLevel(level int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.hasLevel && t.level == level {
		return
	}
	t.level, t.hasLevel = level, true
	t.refresh()
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Level returns the last level passed to SetLevel.
func (t *Tray) Level() (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.level, t.hasLevel
}

// refresh pushes state to the menu. Callers hold t.mu.
func (t *Tray) refresh() {
	if !t.ready {
		return
	}
	systray.SetTitle(trayTitle(t.level, t.hasLevel, t.enabled))
	t.menuToggle.SetTitle(toggleTitle(t.enabled))
	t.menuLevel.SetTitle(levelTitle(t.level, t.hasLevel))
}

func trayTitle(level int, ok, enabled bool) string {
	switch {
	case !enabled:
		return "☀ paused"
	case !ok:
		return "☀ --"
	default:
		return fmt.Sprintf("☀ %d%%", level)
	}
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Paused"
}

func levelTitle(level int, ok bool) string {
	if !ok {
		return "Brightness: none"
	}
	return fmt.Sprintf("Brightness: %d%%", level)
}
