package domain

import "context"

// Metrics is one instantaneous system load sample, in percent.
type Metrics struct {
	CPU float64 `json:"cpu"`
	GPU float64 `json:"gpu"`
	RAM float64 `json:"ram"`
}

// MetricsSampler provides raw system load samples. Implementations
// may be slow (subprocess calls); the telemetry sender is the only
// caller and runs off the inbound path. A sampling error skips the
// current telemetry tick, nothing more.
type MetricsSampler interface {
	Sample(ctx context.Context) (Metrics, error)
}
