package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/assert"
)

func TestSystemStatusUsesFetcher(t *testing.T) {
	started := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewSystemService(SystemOptions{Version: "v1.2.3", DBDriver: "sqlite", StartedAt: started, Subscribers: func() int { return 4 }})
	svc.SetFetcher(SystemStatFetcher{
		CPUPercent:    func(time.Duration, bool) ([]float64, error) { return []float64{12.5}, nil },
		VirtualMemory: func() (*mem.VirtualMemoryStat, error) { return &mem.VirtualMemoryStat{Total: 100, Used: 40}, nil },
		DiskUsage:     func(string) (*disk.UsageStat, error) { return nil, errors.New("no disk") },
		LoadAvg:       func() (*load.AvgStat, error) { return &load.AvgStat{Load1: 1, Load5: 2, Load15: 3}, nil },
		HostUptime:    func() (uint64, error) { return 3600, nil },
		ProcessPids:   func() ([]int32, error) { return []int32{1, 2, 3}, nil },
	})

	st := svc.Status(context.Background())
	assert.Equal(t, "v1.2.3", st.Version)
	assert.Equal(t, started, st.StartedAt)
	assert.Equal(t, 4, st.Subscribers)
	assert.InDelta(t, 12.5, st.CPU, 1e-9)
	assert.Equal(t, UsageStat{Total: 100, Used: 40}, st.Mem)
	assert.Equal(t, UsageStat{}, st.Disk)
	assert.InDelta(t, 3.0, st.Load15, 1e-9)
	assert.Equal(t, uint64(3600), st.Uptime)
	assert.Equal(t, 3, st.ProcessCount)
	assert.Positive(t, st.Goroutines)
}
