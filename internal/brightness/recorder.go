package brightness

import (
	"context"
	"sync"
)

// Recorder remembers every level it is asked to apply. Err, when set, is
// returned from Set; Panic, when set, is raised from Set.
type Recorder struct {
	mu     sync.Mutex
	levels []int
	Err    error
	Panic  any
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Set records percent.
func (r *Recorder) Set(ctx context.Context, percent int) error {
	r.mu.Lock()
	r.levels = append(r.levels, percent)
	err, p := r.Err, r.Panic
	r.mu.Unlock()

	if p != nil {
		panic(p)
	}
	return err
}

// Get returns the last recorded level.
func (r *Recorder) Get(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.levels) == 0 {
		return 0, nil
	}
	return r.levels[len(r.levels)-1], nil
}

// Name returns "recorder".
func (r *Recorder) Name() string { return "recorder" }

// Calls returns how many times Set was called.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.levels)
}

// Levels returns a copy of the recorded levels.
func (r *Recorder) Levels() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.levels...)
}
