package telemetry

import (
	"context"
	"fmt"
	"time"

	"deckbridge/internal/domain"
)

// Collector samples host metrics, smooths them and renders the wire
// packet the display device understands:
//
//	<T|HH:MM:SS|<date>|CPU.D|GPU.D|RAM.D>\n
type Collector struct {
	sampler    domain.MetricsSampler
	smoother   *Smoother
	dateLayout string

	now func() time.Time
}

// NewCollector wires a collector to its metric source. dateLayout is a
// time.Format layout for the packet's date field.
func NewCollector(sampler domain.MetricsSampler, smoother *Smoother, dateLayout string) *Collector {
	return &Collector{
		sampler:    sampler,
		smoother:   smoother,
		dateLayout: dateLayout,
		now:        time.Now,
	}
}

// Packet samples, smooths and formats one telemetry packet. A sampler
// failure is returned as-is so the caller can skip the tick.
func (c *Collector) Packet(ctx context.Context) ([]byte, error) {
	raw, err := c.sampler.Sample(ctx)
	if err != nil {
		return nil, domain.WrapOp("telemetry.sample", err)
	}

	m := c.smoother.Update(raw)
	t := c.now()
	packet := fmt.Sprintf("<T|%s|%s|%.1f|%.1f|%.1f>\n",
		t.Format("15:04:05"),
		t.Format(c.dateLayout),
		m.CPU, m.GPU, m.RAM,
	)
	return []byte(packet), nil
}
