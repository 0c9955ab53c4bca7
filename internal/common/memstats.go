package common

import (
	"fmt"
	"runtime"
)

// MemStats is a snapshot of process memory.
type MemStats struct {
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
}

// CurrentMemStats reads the runtime memory counters.
func CurrentMemStats() MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemStats{
		HeapAllocBytes:  m.HeapAlloc,
		TotalAllocBytes: m.TotalAlloc,
		SysBytes:        m.Sys,
		NumGC:           m.NumGC,
	}
}

func (m MemStats) String() string {
	return fmt.Sprintf("heap %d KB, total %d KB, sys %d KB, GC %d",
		m.HeapAllocBytes/1024, m.TotalAllocBytes/1024, m.SysBytes/1024, m.NumGC)
}
