// Package ingest is the orchestrator: the work queue glue, the worker
// pool (C6), and the TCP ingress server (C7) that together turn accepted
// bytes into persisted containers.
package ingest

import (
	"time"

	"github.com/inchrosil/dnapipe/pkg/frame"
)

// Record is the sequence record flowing through C5/C6, stamped with the
// identifiers the ingress layer is responsible for assigning: a
// process-wide seq_id and an origin descriptor. Once enqueued its
// Sequence is immutable (spec.md §3's invariant) — no component past the
// parser mutates it in place.
type Record struct {
	SeqID      uint64
	ID         string
	FormatHint frame.Format
	Origin     string
	Sequence   []byte
	Quality    []byte
	ReceivedAt time.Time
}
