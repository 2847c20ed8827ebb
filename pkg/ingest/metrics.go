package ingest

import (
	"sync/atomic"
	"time"
)

// Metrics is the single metrics record owned by the orchestrator and
// mutated by workers and ingress through atomic counters (spec.md §5,
// §9's "global mutable statistics struct" re-architecture note),
// generalized from dna_server.cpp's ServerStats.
type Metrics struct {
	TotalBytesReceived   atomic.Uint64
	TotalBytesProcessed  atomic.Uint64
	TotalSequenceAccepted atomic.Uint64
	ValidationErrors     atomic.Uint64
	ParsingErrors        atomic.Uint64
	StorageErrors        atomic.Uint64
	ActiveConnections    atomic.Int64
	TotalConnections     atomic.Uint64

	StartTime time.Time
}

// NewMetrics returns a Metrics record with StartTime set to now.
func NewMetrics() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// Snapshot is an eventually-consistent point-in-time copy of Metrics,
// safe to read without further synchronisation (spec.md §5: "readers
// (status printer) see eventually-consistent snapshots").
type Snapshot struct {
	TotalBytesReceived    uint64
	TotalBytesProcessed   uint64
	TotalSequenceAccepted uint64
	ValidationErrors      uint64
	ParsingErrors         uint64
	StorageErrors         uint64
	ActiveConnections     int64
	TotalConnections      uint64
	Uptime                time.Duration
}

// Snapshot takes a consistent-enough snapshot of m for reporting.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		TotalBytesReceived:    m.TotalBytesReceived.Load(),
		TotalBytesProcessed:   m.TotalBytesProcessed.Load(),
		TotalSequenceAccepted: m.TotalSequenceAccepted.Load(),
		ValidationErrors:      m.ValidationErrors.Load(),
		ParsingErrors:         m.ParsingErrors.Load(),
		StorageErrors:         m.StorageErrors.Load(),
		ActiveConnections:     m.ActiveConnections.Load(),
		TotalConnections:      m.TotalConnections.Load(),
		Uptime:                time.Since(m.StartTime),
	}
}

// ThroughputKBps returns the average receive throughput since StartTime.
func (s Snapshot) ThroughputKBps() float64 {
	secs := s.Uptime.Seconds()
	if secs < 0.001 {
		return 0
	}
	return (float64(s.TotalBytesReceived) / 1024.0) / secs
}
