package telemetry

import (
	"math"
	"testing"
	"time"

	"deckbridge/internal/domain"
)

// fakeClock advances a fixed step per call.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func newClockedSmoother(alpha, maxRate float64, step time.Duration) *Smoother {
	s := NewSmoother(alpha, maxRate)
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0), step: step}
	s.now = clock.now
	return s
}

func TestSmootherFirstCallReturnsRaw(t *testing.T) {
	s := newClockedSmoother(0.3, 10, time.Second)

	got := s.Update(domain.Metrics{CPU: 42.5, GPU: 17.0, RAM: 63.2})
	want := domain.Metrics{CPU: 42.5, GPU: 17.0, RAM: 63.2}
	if got != want {
		t.Fatalf("seed = %+v, want %+v", got, want)
	}
}

func TestSmootherConvergesToConstantInput(t *testing.T) {
	s := newClockedSmoother(0.3, 10, time.Second)

	s.Update(domain.Metrics{CPU: 0, GPU: 0, RAM: 0})
	var got domain.Metrics
	for i := 0; i < 200; i++ {
		got = s.Update(domain.Metrics{CPU: 80, GPU: 80, RAM: 80})
	}
	if math.Abs(got.CPU-80) > 0.01 || math.Abs(got.GPU-80) > 0.01 || math.Abs(got.RAM-80) > 0.01 {
		t.Fatalf("did not converge: %+v", got)
	}
}

func TestSmootherRateClamp(t *testing.T) {
	const maxRate = 10.0
	step := 100 * time.Millisecond
	s := newClockedSmoother(0.3, maxRate, step)

	prev := s.Update(domain.Metrics{CPU: 0, GPU: 0, RAM: 0})
	limit := maxRate * step.Seconds()

	for i := 0; i < 50; i++ {
		got := s.Update(domain.Metrics{CPU: 100, GPU: 100, RAM: 100})
		if d := got.CPU - prev.CPU; d > limit+1e-9 {
			t.Fatalf("tick %d: cpu delta %.4f exceeds %.4f", i, d, limit)
		}
		prev = got
	}
}

func TestSmootherClampIsSigned(t *testing.T) {
	const maxRate = 5.0
	s := newClockedSmoother(0.5, maxRate, time.Second)

	s.Update(domain.Metrics{CPU: 100, GPU: 100, RAM: 100})
	got := s.Update(domain.Metrics{CPU: 0, GPU: 0, RAM: 0})

	// Downward movement is limited to maxRate per second too.
	if got.CPU < 100-maxRate-1e-9 {
		t.Fatalf("cpu dropped to %.2f, clamp allows %.2f", got.CPU, 100-maxRate)
	}
}

func TestSmootherSmallAlphaMovesSlowly(t *testing.T) {
	s := newClockedSmoother(0.03, 1000, time.Second)

	s.Update(domain.Metrics{CPU: 0})
	got := s.Update(domain.Metrics{CPU: 100})
	if math.Abs(got.CPU-3.0) > 1e-9 {
		t.Fatalf("cpu = %.4f, want 3.0", got.CPU)
	}
}
