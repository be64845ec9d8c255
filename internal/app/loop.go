package app

import (
	"context"
	"fmt"
	"image"

	"github.com/ayusman/pinchlight/internal/detector"
	"github.com/ayusman/pinchlight/internal/display"
	"gocv.io/x/gocv"
)

// Run drives the loop until the quit key is pressed, ctx is cancelled or a
// frame cannot be captured. Quitting and cancellation return nil; a capture
// failure returns an error wrapping ErrCaptureFailed. The camera, detector and
// window are released on every return path.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.state != StateIdle {
		a.mu.Unlock()
		return ErrAlreadyRun
	}
	a.state = StateRunning
	a.mu.Unlock()

	defer a.release()

	a.log.WithField("backend", a.setter.Name()).Info("Brightness control started")

	if err := a.camera.Open(); err != nil {
		return a.captureFailed(err)
	}

	quit := a.cfg.QuitKeyCode()
	for {
		if ctx.Err() != nil {
			a.log.Info("Stopping on cancellation")
			return nil
		}
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				a.log.Info("Stopping on cancellation")
				return nil
			}
		}

		key, err := a.step(ctx)
		if err != nil {
			return err
		}
		if key == quit {
			a.log.Info("Quit key pressed")
			return nil
		}
	}
}

// step runs one iteration and returns the key polled at its end.
func (a *App) step(ctx context.Context) (int, error) {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		return display.NoKey, a.captureFailed(err)
	}
	defer frame.Close()

	a.mu.Lock()
	a.stats.Frames++
	a.mu.Unlock()

	if a.IsEnabled() && a.moved(frame) {
		a.process(ctx, frame)
	}

	a.window.Show(frame)
	return a.window.PollKey(a.cfg.KeyDelay), nil
}

func (a *App) moved(frame *gocv.Mat) bool {
	if a.motion == nil {
		return true
	}
	moved, changed := a.motion.Detect(frame)
	if !moved {
		a.log.WithField("changed", changed).Trace("No motion, skipping detection")
	}
	return moved
}

// process detects hands on frame and, when the selected hand carries both
// fingertips, applies the mapped level and draws the pinch overlay.
func (a *App) process(ctx context.Context, frame *gocv.Mat) {
	hands, err := a.extractor.Extract(frame)
	if err != nil {
		a.log.WithError(err).Warn("Hand detection failed")
		return
	}

	hand, ok := detector.SelectHand(hands, detector.HandPreference(a.cfg.Hand))
	if !ok || len(hand.Landmarks) < a.cfg.MinLandmarks {
		return
	}

	thumb := point(hand.Landmarks[detector.ThumbTip])
	index := point(hand.Landmarks[detector.IndexTip])
	level, distance := a.mapper.Map(thumb, index)

	display.DrawPinch(frame, thumb, index, level)
	fmt.Fprintf(a.out, "Brightness: %d%%, Distance: %.2f\n", level, distance)

	setErr := a.setter.Set(ctx, level)

	a.mu.Lock()
	a.stats.Updates++
	failing := a.streak > 0
	if setErr != nil {
		a.stats.Failures++
		a.streak++
	} else {
		a.streak = 0
		a.lastLevel, a.hasLevel = level, true
	}
	streak := a.streak
	onLevel := a.onLevel
	a.mu.Unlock()

	switch {
	case setErr != nil && !failing:
		a.log.WithError(setErr).WithField("level", level).Warn("Failed to set brightness")
	case setErr != nil:
		a.log.WithError(setErr).WithField("consecutive", streak).Debug("Failed to set brightness")
	case failing:
		a.log.WithField("level", level).Info("Brightness backend recovered")
	}

	if setErr == nil && onLevel != nil {
		onLevel(level)
	}
}

func (a *App) captureFailed(cause error) error {
	fmt.Fprintln(a.out, CaptureFailedMessage)
	a.log.WithError(cause).Error("Frame capture failed")
	return fmt.Errorf("%w: %w", ErrCaptureFailed, cause)
}

// release closes every owned resource. It runs deferred from Run, so it also
// runs while a panic unwinds.
func (a *App) release() {
	if err := a.camera.Close(); err != nil {
		a.log.WithError(err).Warn("Error closing camera")
	}
	if err := a.detector.Close(); err != nil {
		a.log.WithError(err).Warn("Error closing detector")
	}
	if err := a.window.Close(); err != nil {
		a.log.WithError(err).Warn("Error closing window")
	}
	if a.motion != nil {
		a.motion.Close()
	}

	a.setState(StateTerminated)
	a.log.WithField("stats", fmt.Sprintf("%+v", a.Stats())).Info("Brightness control stopped")
}

func point(lm detector.Landmark) image.Point {
	return image.Pt(lm.X, lm.Y)
}
