package metrics

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// HostMonitor periodically samples this process's CPU and memory usage and
// publishes them as gauges. Adapted from the project's websocket-capacity
// system metrics tracker (cgroup/CPU-aware connection sizing); repurposed
// here from "how many connections can we afford" to "how loaded is this
// worker".
type HostMonitor struct {
	interval time.Duration
	proc     *process.Process

	smoothedCPU float64
}

// NewHostMonitor builds a monitor for the current process, sampling every
// interval.
func NewHostMonitor(interval time.Duration) (*HostMonitor, error) {
	self, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &HostMonitor{interval: interval, proc: self}, nil
}

// Run blocks, sampling on interval until ctx is cancelled.
func (h *HostMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.sample()
		case <-ctx.Done():
			return
		}
	}
}

func (h *HostMonitor) sample() {
	if percent, err := h.proc.Percent(0); err == nil {
		const alpha = 0.3
		if h.smoothedCPU == 0 {
			h.smoothedCPU = percent
		} else {
			h.smoothedCPU = alpha*percent + (1-alpha)*h.smoothedCPU
		}
	}

	var memBytes uint64
	if memInfo, err := h.proc.MemoryInfo(); err == nil && memInfo != nil {
		memBytes = memInfo.RSS
	}

	SetHostResourceUsage(h.smoothedCPU, memBytes)
}

// systemCPUPercent is an unused-by-default alternative sampling path kept
// for operators who prefer whole-host CPU over per-process CPU; Run always
// uses the per-process sample above.
func systemCPUPercent() (float64, error) {
	percents, err := cpu.Percent(time.Second, false)
	if err != nil || len(percents) == 0 {
		return 0, err
	}
	return percents[0], nil
}
