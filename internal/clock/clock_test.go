package clock

import (
	"testing"
	"time"
)

func TestFixed(t *testing.T) {
	at := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	c := Fixed(at)
	if !c.Now().Equal(at) || !c.Now().Equal(at) {
		t.Errorf("Fixed clock moved: %v", c.Now())
	}
}

func TestOrSystem(t *testing.T) {
	if _, ok := OrSystem(nil).(System); !ok {
		t.Error("OrSystem(nil) is not the system clock")
	}
	f := Fixed(time.Time{})
	if got := OrSystem(f); got.Now() != f.Now() {
		t.Error("OrSystem replaced a non-nil clock")
	}
	before := time.Now()
	if now := (System{}).Now(); now.Before(before) {
		t.Errorf("System.Now() = %v before %v", now, before)
	}
}
