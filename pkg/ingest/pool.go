package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/zerodha/logf"

	"github.com/inchrosil/dnapipe/internal/checksum"
	"github.com/inchrosil/dnapipe/internal/queue"
	"github.com/inchrosil/dnapipe/pkg/codec"
	"github.com/inchrosil/dnapipe/pkg/container"
)

// Pool runs W worker goroutines (spec.md §4.6), each looping
// validate -> checksum -> encode -> persist over records popped from a
// Queue. A worker never propagates an error out of its loop: it counts,
// logs, and moves on (spec.md §7's propagation policy).
type Pool struct {
	queue   *queue.Queue[Record]
	metrics *Metrics
	lo      logf.Logger
	workers int
	outDir  string
}

// NewPool returns a Pool reading from q, defaulting Workers to
// runtime.NumCPU() when unset (spec.md §4.6).
func NewPool(q *queue.Queue[Record], metrics *Metrics, lo logf.Logger, workers int, outDir string) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{queue: q, metrics: metrics, lo: lo, workers: workers, outDir: outDir}
}

// Run spawns the worker goroutines and blocks until the queue has been
// closed and fully drained (spec.md §5's shutdown sequence: stop
// accepting, close in-flight connections, close the queue, let workers
// drain it, then return). Workers deliberately do not watch ctx
// themselves: the queue's Close is the only shutdown signal they
// observe, so a record already pushed by a connection still draining at
// shutdown is guaranteed a worker to consume it rather than racing the
// same cancellation the accept loop reacts to.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.workerLoop(id)
		}(i)
	}
	wg.Wait()
}

func (p *Pool) workerLoop(id int) {
	for {
		rec, ok := p.queue.Pop(context.Background())
		if !ok {
			p.lo.Debug("worker exiting, queue drained", "worker", id)
			return
		}
		p.process(id, rec)
	}
}

// process implements the four-step pipeline of spec.md §4.6. On any
// failure it counts, logs a warning, and drops the record without
// persisting (at-most-once persistence, spec.md §7).
func (p *Pool) process(workerID int, rec Record) {
	for _, b := range rec.Sequence {
		if !codec.ValidAlphabet(b) {
			p.metrics.ValidationErrors.Add(1)
			p.lo.Warn("rejecting sequence: invalid alphabet byte", "worker", workerID, "seq_id", rec.SeqID, "origin", rec.Origin, "byte", string(b), "error", ErrValidation)
			return
		}
	}

	sum := checksum.Checksum(rec.Sequence)
	payload := codec.Encode(rec.Sequence)

	name := filepath.Join(p.outDir, fmt.Sprintf("dna_output_%d.ich", rec.SeqID))
	meta := container.SingleRecordMeta{
		ID:        rec.ID,
		Client:    rec.Origin,
		Format:    rec.FormatHint.String(),
		Length:    len(rec.Sequence),
		Checksum:  sum,
		Timestamp: rec.ReceivedAt.Unix(),
	}

	if err := container.WriteSingleRecordFile(name, meta, payload); err != nil {
		p.metrics.StorageErrors.Add(1)
		p.lo.Error("error persisting record", "worker", workerID, "seq_id", rec.SeqID, "error", fmt.Errorf("%w: %v", ErrStorage, err))
		return
	}

	p.metrics.TotalBytesProcessed.Add(uint64(len(rec.Sequence)))
	p.metrics.TotalSequenceAccepted.Add(1)
}

// RunStatusPrinter logs a one-line status summary at every interval until
// ctx is done (spec.md §7: "the server prints a periodic one-line status
// summary"), grounded in dna_server.cpp's printStats re-expressed through
// the teacher's structured logf logger instead of raw \r-overwritten
// stdout (no Non-goal excludes this; only decorative TUI output is out of
// scope).
func RunStatusPrinter(ctx context.Context, m *Metrics, lo logf.Logger, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := m.Snapshot()
			lo.Info("status",
				"active_conns", s.ActiveConnections,
				"total_conns", s.TotalConnections,
				"sequences", s.TotalSequenceAccepted,
				"received_kb", s.TotalBytesReceived/1024,
				"validation_errors", s.ValidationErrors,
				"parsing_errors", s.ParsingErrors,
				"storage_errors", s.StorageErrors,
				"throughput_kbps", s.ThroughputKBps(),
				"uptime", s.Uptime.Truncate(time.Second).String(),
			)
		}
	}
}
