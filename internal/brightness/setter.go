package brightness

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedBackend is returned when no backend can drive this display.
	ErrUnsupportedBackend = errors.New("no supported brightness backend")
	// ErrBackendPanic wraps a panic raised inside a backend.
	ErrBackendPanic = errors.New("brightness backend panicked")
)

// Setter applies a brightness percentage to the display.
type Setter interface {
	// Set applies percent, 0 to 100.
	Set(ctx context.Context, percent int) error
	// Name identifies the backend in logs.
	Name() string
}

// Getter is implemented by backends that can read the current level back.
type Getter interface {
	Get(ctx context.Context) (int, error)
}

// Guarded wraps a Setter so that a panic inside the backend is returned as an
// error instead of unwinding the caller.
type Guarded struct {
	inner Setter
}

// Guard wraps s. Wrapping an already guarded setter returns it unchanged.
func Guard(s Setter) *Guarded {
	if g, ok := s.(*Guarded); ok {
		return g
	}
	return &Guarded{inner: s}
}

// Set calls the wrapped setter, converting a panic into ErrBackendPanic.
func (g *Guarded) Set(ctx context.Context, percent int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrBackendPanic, g.inner.Name(), r)
		}
	}()
	return g.inner.Set(ctx, clampPercent(percent))
}

// Name returns the wrapped backend name.
func (g *Guarded) Name() string {
	return g.inner.Name()
}

// Unwrap returns the wrapped setter.
func (g *Guarded) Unwrap() Setter {
	return g.inner
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
