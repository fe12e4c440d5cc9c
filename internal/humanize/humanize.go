package humanize

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Range is an inclusive [Min, Max] interval in seconds.
type Range struct {
	Min float64
	Max float64
}

func (r Range) Validate() error {
	if r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("invalid range [%v, %v]", r.Min, r.Max)
	}
	return nil
}

// Duration samples a duration uniformly from the range.
func (r Range) Duration() time.Duration {
	s := r.Min + rand.Float64()*(r.Max-r.Min)
	return time.Duration(s * float64(time.Second))
}

// Sleep blocks for a random duration drawn from r, or until ctx is done.
func Sleep(ctx context.Context, r Range) error {
	t := time.NewTimer(r.Duration())
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Between returns a random duration in [min, max].
func Between(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// KeystrokeDelay returns the pause before the next typed character:
// 50-150ms per key, with an occasional longer hesitation.
func KeystrokeDelay() time.Duration {
	d := Between(50*time.Millisecond, 150*time.Millisecond)
	if rand.Float64() < 0.1 {
		d += Between(100*time.Millisecond, 300*time.Millisecond)
	}
	return d
}

// MousePath returns 1-3 random points inside the viewport, kept away
// from the edges so movements land on real page content.
func MousePath(width, height int64) [][2]float64 {
	n := 1 + rand.Intn(3)
	pts := make([][2]float64, n)
	for i := range pts {
		pts[i] = [2]float64{
			float64(100 + rand.Int63n(width-200)),
			float64(100 + rand.Int63n(height-200)),
		}
	}
	return pts
}
