package metrics

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// StartSystemSampler periodically samples host CPU and memory usage into the
// gauges until ctx is cancelled. Sampling errors leave the previous value in
// place.
func (m *Metrics) StartSystemSampler(ctx context.Context, interval time.Duration) {
	if m == nil || m.cpuUsage == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sampleSystem()
			}
		}
	}()
}

func (m *Metrics) sampleSystem() {
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		m.cpuUsage.Set(percents[0])
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		m.memUsage.Set(vm.UsedPercent)
	}
}
