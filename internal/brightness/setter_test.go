package brightness

import (
	"context"
	"errors"
	"testing"
)

func TestGuard_RecoversPanic(t *testing.T) {
	rec := NewRecorder()
	rec.Panic = "driver exploded"

	g := Guard(rec)
	err := g.Set(context.Background(), 40)
	if !errors.Is(err, ErrBackendPanic) {
		t.Fatalf("Set() error = %v, want ErrBackendPanic", err)
	}
	if rec.Calls() != 1 {
		t.Errorf("Calls() = %d, want 1", rec.Calls())
	}
}

func TestGuard_PassesErrors(t *testing.T) {
	wantErr := errors.New("permission denied")
	rec := NewRecorder()
	rec.Err = wantErr

	if err := Guard(rec).Set(context.Background(), 10); !errors.Is(err, wantErr) {
		t.Errorf("Set() error = %v, want %v", err, wantErr)
	}
}

func TestGuard_ClampsPercent(t *testing.T) {
	rec := NewRecorder()
	g := Guard(rec)

	for _, p := range []int{-5, 0, 55, 100, 140} {
		if err := g.Set(context.Background(), p); err != nil {
			t.Fatalf("Set(%d) error = %v", p, err)
		}
	}

	want := []int{0, 0, 55, 100, 100}
	got := rec.Levels()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Levels()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestGuard_Idempotent(t *testing.T) {
	rec := NewRecorder()
	g := Guard(rec)

	if Guard(g) != g {
		t.Error("Guard(Guard(s)) should return the same wrapper")
	}
	if g.Unwrap() != rec {
		t.Error("Unwrap() should return the wrapped setter")
	}
	if g.Name() != "recorder" {
		t.Errorf("Name() = %q, want recorder", g.Name())
	}
}

func TestRecorder_Get(t *testing.T) {
	rec := NewRecorder()
	ctx := context.Background()

	if level, _ := rec.Get(ctx); level != 0 {
		t.Errorf("Get() on empty recorder = %d, want 0", level)
	}
	rec.Set(ctx, 12)
	rec.Set(ctx, 34)
	if level, _ := rec.Get(ctx); level != 34 {
		t.Errorf("Get() = %d, want 34", level)
	}
}

func TestNone(t *testing.T) {
	n := NewNone(nil)
	if err := n.Set(context.Background(), 50); err != nil {
		t.Errorf("Set() error = %v", err)
	}
	if n.Name() != "none" {
		t.Errorf("Name() = %q, want none", n.Name())
	}
}
