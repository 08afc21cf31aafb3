// 文件路径: internal/service/system.go
// 模块说明: 这是 internal 模块里的 system 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// UsageStat 是一项资源的总量与已用量（字节）。
type UsageStat struct {
	Total uint64 `json:"total"`
	Used  uint64 `json:"used"`
}

// SystemStatus 是 GET /api/system/status 的返回体。
type SystemStatus struct {
	Version      string    `json:"version"`
	DBDriver     string    `json:"dbDriver"`
	StartedAt    time.Time `json:"startedAt"`
	Goroutines   int       `json:"goroutines"`
	Subscribers  int       `json:"subscribers"`
	CPU          float64   `json:"cpu"`
	Mem          UsageStat `json:"mem"`
	Disk         UsageStat `json:"disk"`
	Load1        float64   `json:"load1"`
	Load5        float64   `json:"load5"`
	Load15       float64   `json:"load15"`
	Uptime       uint64    `json:"uptime"`
	ProcessCount int       `json:"processCount"`
}

// SystemStatFetcher 包装 gopsutil 的采集函数，测试时可以替换。
type SystemStatFetcher struct {
	CPUPercent    func(interval time.Duration, percpu bool) ([]float64, error)
	VirtualMemory func() (*mem.VirtualMemoryStat, error)
	DiskUsage     func(path string) (*disk.UsageStat, error)
	LoadAvg       func() (*load.AvgStat, error)
	HostUptime    func() (uint64, error)
	ProcessPids   func() ([]int32, error)
}

// DefaultSystemStatFetcher reads the real host.
func DefaultSystemStatFetcher() SystemStatFetcher {
	return SystemStatFetcher{
		CPUPercent:    cpu.Percent,
		VirtualMemory: mem.VirtualMemory,
		DiskUsage:     disk.Usage,
		LoadAvg:       load.Avg,
		HostUptime:    host.Uptime,
		ProcessPids:   process.Pids,
	}
}

// SystemService reports host and process health.
type SystemService interface {
	Status(ctx context.Context) SystemStatus
}

// SystemOptions 描述进程本身的静态信息。
type SystemOptions struct {
	Version     string
	DBDriver    string
	DiskPath    string
	StartedAt   time.Time
	Subscribers func() int
}

// SystemMonitor implements SystemService on top of gopsutil.
type SystemMonitor struct {
	mu      sync.RWMutex
	fetcher SystemStatFetcher
	opts    SystemOptions
}

// NewSystemService 使用真实的 gopsutil 采集函数。
func NewSystemService(opts SystemOptions) *SystemMonitor {
	if opts.DiskPath == "" {
		opts.DiskPath = "/"
	}
	if opts.StartedAt.IsZero() {
		opts.StartedAt = time.Now().UTC()
	}
	return &SystemMonitor{fetcher: DefaultSystemStatFetcher(), opts: opts}
}

// SetFetcher sets a custom fetcher for testing.
func (s *SystemMonitor) SetFetcher(fetcher SystemStatFetcher) {
	s.mu.Lock()
	s.fetcher = fetcher
	s.mu.Unlock()
}

// Status 采集一次快照；单项采集失败时该项保持零值。
func (s *SystemMonitor) Status(_ context.Context) SystemStatus {
	s.mu.RLock()
	f := s.fetcher
	s.mu.RUnlock()

	st := SystemStatus{
		Version:    s.opts.Version,
		DBDriver:   s.opts.DBDriver,
		StartedAt:  s.opts.StartedAt,
		Goroutines: runtime.NumGoroutine(),
	}
	if s.opts.Subscribers != nil {
		st.Subscribers = s.opts.Subscribers()
	}
	if f.CPUPercent != nil {
		if percents, err := f.CPUPercent(0, false); err == nil && len(percents) > 0 {
			st.CPU = percents[0]
		}
	}
	if f.VirtualMemory != nil {
		if v, err := f.VirtualMemory(); err == nil {
			st.Mem = UsageStat{Total: v.Total, Used: v.Used}
		}
	}
	if f.DiskUsage != nil {
		if d, err := f.DiskUsage(s.opts.DiskPath); err == nil {
			st.Disk = UsageStat{Total: d.Total, Used: d.Used}
		}
	}
	if f.LoadAvg != nil {
		if l, err := f.LoadAvg(); err == nil {
			st.Load1, st.Load5, st.Load15 = l.Load1, l.Load5, l.Load15
		}
	}
	if f.HostUptime != nil {
		if u, err := f.HostUptime(); err == nil {
			st.Uptime = u
		}
	}
	if f.ProcessPids != nil {
		if pids, err := f.ProcessPids(); err == nil {
			st.ProcessCount = len(pids)
		}
	}
	return st
}
