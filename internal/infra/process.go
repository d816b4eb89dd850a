// Package infra implements infrastructure concerns (clocks, files, logging,
// metrics, process stats).
package infra

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessSample is a snapshot of this process's resource use.
type ProcessSample struct {
	PID        int
	RSSBytes   uint64
	CPUPercent float64
	Threads    int32
	Goroutines int
}

// ProcessStats samples the current process using gopsutil.
type ProcessStats struct {
	proc *process.Process
}

// NewProcessStats attaches to the current process.
func NewProcessStats() (*ProcessStats, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &ProcessStats{proc: p}, nil
}

// Sample reads memory and CPU figures. Fields the platform cannot report
// are left zero.
func (s *ProcessStats) Sample() ProcessSample {
	sample := ProcessSample{
		PID:        int(s.proc.Pid),
		Goroutines: runtime.NumGoroutine(),
	}
	if mem, err := s.proc.MemoryInfo(); err == nil {
		sample.RSSBytes = mem.RSS
	}
	if cpu, err := s.proc.CPUPercent(); err == nil {
		sample.CPUPercent = cpu
	}
	if threads, err := s.proc.NumThreads(); err == nil {
		sample.Threads = threads
	}
	return sample
}
