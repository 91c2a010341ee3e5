// File: internal/system/system.go
package system

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Stats is a point-in-time snapshot of host resource usage.
type Stats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	MemoryTotalMB uint64  `json:"memory_total_mb"`
}

// GetCPUUsage returns the current CPU usage as a percentage
func GetCPUUsage(ctx context.Context) (float64, error) {
	percentages, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(percentages) == 0 {
		return 0, fmt.Errorf("could not get CPU usage")
	}
	return percentages[0], nil
}

// GetStats collects CPU and memory usage.
func GetStats(ctx context.Context) (Stats, error) {
	cpuPercent, err := GetCPUUsage(ctx)
	if err != nil {
		return Stats{}, err
	}

	virtualMem, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		CPUPercent:    cpuPercent,
		MemoryPercent: virtualMem.UsedPercent,
		MemoryUsedMB:  virtualMem.Used / 1024 / 1024,
		MemoryTotalMB: virtualMem.Total / 1024 / 1024,
	}, nil
}
