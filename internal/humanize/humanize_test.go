package humanize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeDurationWithinBounds(t *testing.T) {
	r := Range{Min: 0.05, Max: 0.2}
	for i := 0; i < 1000; i++ {
		d := r.Duration()
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 200*time.Millisecond)
	}
}

func TestRangeDurationDegenerate(t *testing.T) {
	r := Range{Min: 1.5, Max: 1.5}
	for i := 0; i < 100; i++ {
		assert.Equal(t, 1500*time.Millisecond, r.Duration())
	}
}

func TestRangeValidate(t *testing.T) {
	assert.NoError(t, Range{Min: 0, Max: 0}.Validate())
	assert.NoError(t, Range{Min: 1, Max: 2}.Validate())
	assert.Error(t, Range{Min: -1, Max: 2}.Validate())
	assert.Error(t, Range{Min: 3, Max: 2}.Validate())
}

func TestBetweenBounds(t *testing.T) {
	for i := 0; i < 1000; i++ {
		d := Between(10*time.Millisecond, 20*time.Millisecond)
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.Less(t, d, 20*time.Millisecond)
	}
	assert.Equal(t, 5*time.Millisecond, Between(5*time.Millisecond, 5*time.Millisecond))
}

func TestKeystrokeDelayBounds(t *testing.T) {
	for i := 0; i < 1000; i++ {
		d := KeystrokeDelay()
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 450*time.Millisecond)
	}
}

func TestSleepHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Sleep(ctx, Range{Min: 10, Max: 10})
	require.ErrorIs(t, err, context.Canceled)
}

func TestMousePathInsideViewport(t *testing.T) {
	for i := 0; i < 100; i++ {
		pts := MousePath(1920, 1080)
		require.NotEmpty(t, pts)
		assert.LessOrEqual(t, len(pts), 3)
		for _, p := range pts {
			assert.GreaterOrEqual(t, p[0], float64(100))
			assert.Less(t, p[0], float64(1820))
			assert.GreaterOrEqual(t, p[1], float64(100))
			assert.Less(t, p[1], float64(980))
		}
	}
}
