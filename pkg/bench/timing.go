package bench

import (
	"time"

	"github.com/matzehuels/labelbench/pkg/labeling"
	"github.com/matzehuels/labelbench/pkg/raster"
)

// Timer measures the wall time of one call.
type Timer interface {
	Measure(fn func()) time.Duration
}

// TimerFunc adapts a plain function to the Timer interface.
type TimerFunc func(fn func()) time.Duration

// Measure calls f(fn).
func (f TimerFunc) Measure(fn func()) time.Duration { return f(fn) }

// WallTimer uses the monotonic clock.
type WallTimer struct{}

// Measure runs fn and returns its elapsed time.
func (WallTimer) Measure(fn func()) time.Duration {
	start := time.Now()
	fn()
	return time.Since(start)
}

// Harness times labeler invocations. Only the call itself is inside the
// measured region; loading and comparison are not.
type Harness struct {
	Timer Timer
}

// NewHarness returns a harness using t, or WallTimer when t is nil.
func NewHarness(t Timer) Harness {
	if t == nil {
		t = WallTimer{}
	}
	return Harness{Timer: t}
}

// Label runs l once on img and returns its output and elapsed milliseconds.
func (h Harness) Label(l labeling.Labeler, img *raster.BinaryImage) (*raster.LabelMap, uint, float64) {
	var (
		out *raster.LabelMap
		n   uint
	)
	d := h.Timer.Measure(func() { out, n = l.Label(img) })
	return out, n, Millis(d)
}

// Millis converts d to fractional milliseconds, clamped at zero.
func Millis(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
