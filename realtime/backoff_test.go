package realtime

import (
	"testing"
	"time"
)

func TestExpBackoff_Doubles(t *testing.T) {
	b := newExpBackoff(time.Second, 240*time.Second)

	want := []time.Duration{1, 2, 4, 8, 16}
	for i, w := range want {
		if got := b.Next(); got != w*time.Second {
			t.Errorf("Attempt %d: expected %v, got %v", i, w*time.Second, got)
		}
	}
}

func TestExpBackoff_CeilingBoundsCumulativeWait(t *testing.T) {
	b := newExpBackoff(time.Second, 10*time.Second)

	var total time.Duration
	for range 20 {
		d := b.Next()
		if d <= 0 {
			t.Fatalf("Expected positive delay, got %v", d)
		}
		total += d
	}
	// 1+2+4+3 reaches the 10s ceiling; the delay then holds steady.
	if got := b.Next(); got != 3*time.Second {
		t.Errorf("Expected delay to hold at last capped value, got %v", got)
	}
}

func TestExpBackoff_Reset(t *testing.T) {
	b := newExpBackoff(time.Second, 240*time.Second)
	b.Next()
	b.Next()
	b.Reset()

	if got := b.Next(); got != time.Second {
		t.Errorf("Expected base delay after reset, got %v", got)
	}
}
