package metrics

import (
	"context"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"deckbridge/internal/domain"
)

const nvidiaSmiTimeout = 2 * time.Second

// SystemSampler reads CPU and RAM utilization from the OS and GPU
// utilization from nvidia-smi when present. A host without an NVIDIA
// GPU reports 0.0 for GPU rather than failing the sample.
type SystemSampler struct {
	logger *slog.Logger

	gpuMissing bool
}

// NewSystemSampler creates a system metrics sampler.
func NewSystemSampler(logger *slog.Logger) *SystemSampler {
	return &SystemSampler{logger: logger}
}

// Sample returns current utilization percentages.
func (s *SystemSampler) Sample(ctx context.Context) (domain.Metrics, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil || len(percents) == 0 {
		return domain.Metrics{}, domain.NewDomainError("metrics.cpu", domain.ErrSamplerUnavailable, errString(err))
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return domain.Metrics{}, domain.NewDomainError("metrics.ram", domain.ErrSamplerUnavailable, errString(err))
	}

	return domain.Metrics{
		CPU: percents[0],
		GPU: s.gpuPercent(ctx),
		RAM: vm.UsedPercent,
	}, nil
}

func (s *SystemSampler) gpuPercent(ctx context.Context) float64 {
	if s.gpuMissing {
		return 0.0
	}

	ctx, cancel := context.WithTimeout(ctx, nvidiaSmiTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=utilization.gpu", "--format=csv,noheader,nounits").Output()
	if err != nil {
		// No NVIDIA stack on this host. Remember that and stop
		// spawning a subprocess every tick.
		s.gpuMissing = true
		s.logger.Debug("nvidia-smi unavailable, reporting gpu as 0.0", "error", err)
		return 0.0
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0]), 64)
	if err != nil {
		return 0.0
	}
	return value
}

func errString(err error) string {
	if err == nil {
		return "empty sample"
	}
	return err.Error()
}
