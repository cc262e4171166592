package telemetry

import (
	"time"

	"deckbridge/internal/domain"
)

// Smoother filters raw CPU/GPU/RAM samples with an exponential moving
// average followed by a signed per-second rate clamp. The EMA removes
// sub-second jitter; the clamp keeps the displayed value from jumping
// when the EMA itself reacts to a step change.
type Smoother struct {
	alpha   float64
	maxRate float64

	seeded bool
	value  domain.Metrics
	last   time.Time

	now func() time.Time
}

// NewSmoother creates a smoother with smoothing factor alpha in (0,1]
// and a maximum change of maxRate percentage points per second.
func NewSmoother(alpha, maxRate float64) *Smoother {
	return &Smoother{alpha: alpha, maxRate: maxRate, now: time.Now}
}

// Update feeds one raw sample per metric and returns the smoothed
// values. The first call seeds the filter and returns the raw inputs
// unchanged.
func (s *Smoother) Update(raw domain.Metrics) domain.Metrics {
	t := s.now()

	if !s.seeded {
		s.seeded = true
		s.value = raw
		s.last = t
		return s.value
	}

	dt := t.Sub(s.last).Seconds()
	s.last = t

	s.value.CPU = s.step(s.value.CPU, raw.CPU, dt)
	s.value.GPU = s.step(s.value.GPU, raw.GPU, dt)
	s.value.RAM = s.step(s.value.RAM, raw.RAM, dt)
	return s.value
}

func (s *Smoother) step(prev, raw, dt float64) float64 {
	ema := s.alpha*raw + (1-s.alpha)*prev
	delta := ema - prev
	limit := s.maxRate * dt
	if delta > limit {
		delta = limit
	} else if delta < -limit {
		delta = -limit
	}
	return prev + delta
}
