// Package display shows annotated frames and polls the keyboard.
package display

import (
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// NoKey is returned by PollKey when no key was pressed.
const NoKey = -1

// Window presents frames to the user and reports key presses.
type Window interface {
	// Show displays frame. The frame is not retained.
	Show(frame *gocv.Mat)
	// PollKey waits up to delay for a key press and returns its code, or NoKey.
	PollKey(delay time.Duration) int
	Close() error
}

// HighGUI is an OpenCV preview window.
type HighGUI struct {
	win *gocv.Window
}

// NewHighGUI opens a preview window with the given title.
func NewHighGUI(title string) *HighGUI {
	return &HighGUI{win: gocv.NewWindow(title)}
}

// Show draws frame in the window.
func (w *HighGUI) Show(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}
	w.win.IMShow(*frame)
}

// PollKey pumps the HighGUI event loop for delay and returns the key code.
func (w *HighGUI) PollKey(delay time.Duration) int {
	ms := int(delay / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	key := w.win.WaitKey(ms)
	if key < 0 {
		return NoKey
	}
	return key & 0xFF
}

// Close destroys the window.
func (w *HighGUI) Close() error {
	return w.win.Close()
}

// Headless discards frames. PollKey sleeps for the delay so the loop keeps
// the same pacing it has with a window.
type Headless struct{}

// NewHeadless returns a window that shows nothing.
func NewHeadless() *Headless {
	return &Headless{}
}

func (Headless) Show(frame *gocv.Mat) {}

func (Headless) PollKey(delay time.Duration) int {
	if delay > 0 {
		time.Sleep(delay)
	}
	return NoKey
}

func (Headless) Close() error { return nil }

// MockWindow records shown frames and replays a scripted key sequence.
type MockWindow struct {
	mu     sync.Mutex
	keys   []int
	shown  int
	polls  int
	closed bool
}

// NewMockWindow creates a MockWindow that returns keys in order from
// successive PollKey calls and NoKey afterwards.
func NewMockWindow(keys ...int) *MockWindow {
	return &MockWindow{keys: keys}
}

func (m *MockWindow) Show(frame *gocv.Mat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shown++
}

func (m *MockWindow) PollKey(delay time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polls++
	if len(m.keys) == 0 {
		return NoKey
	}
	k := m.keys[0]
	m.keys = m.keys[1:]
	return k
}

func (m *MockWindow) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Shown returns the number of frames shown.
func (m *MockWindow) Shown() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shown
}

// Polls returns the number of key polls.
func (m *MockWindow) Polls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls
}

// Closed reports whether Close was called.
func (m *MockWindow) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
