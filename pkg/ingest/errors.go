package ingest

import "errors"

// Error taxonomy for the ingress/worker-pool layer, grounded in the
// teacher's pkg/barrel/errors.go sentinel style (spec.md §7). Readers of
// binary containers surface container.CorruptContainerError instead of a
// sentinel here, since that error needs to carry a record index.
var (
	ErrBind       = errors.New("ingest: failed to bind listening socket")
	ErrClosed     = errors.New("ingest: queue is closed")
	ErrParsing    = errors.New("ingest: record too large or malformed framing")
	ErrValidation = errors.New("ingest: out-of-alphabet byte")
	ErrStorage    = errors.New("ingest: persist failed")
)
