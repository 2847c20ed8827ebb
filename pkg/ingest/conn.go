package ingest

import (
	"context"
	"net"

	"github.com/inchrosil/dnapipe/pkg/frame"
)

// handleConn is the per-connection reader of spec.md §4.7: it owns a
// receive buffer and a frame.Parser, reads RecvChunk-sized chunks until
// the connection closes, drains complete records after each chunk, and
// pushes each into the queue stamped with its origin and a fresh seq_id.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	origin := conn.RemoteAddr().String()
	parser := frame.New()
	buf := make([]byte, s.opts.RecvChunk)
	ctx := context.Background()

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			s.metrics.TotalBytesReceived.Add(uint64(n))
			if !s.drain(ctx, parser.Feed(buf[:n]), origin) {
				return
			}
		}
		if err != nil {
			// Zero bytes or an error: connection close. Flush the
			// parser's trailing record before returning.
			s.drain(ctx, parser.Close(), origin)
			return
		}
	}
}

// drain stamps and pushes each drained record into the queue. It returns
// false if a Push observed the queue closed, signalling the caller to
// abort the connection (spec.md §4.7 step 4).
func (s *Server) drain(ctx context.Context, recs []frame.Record, origin string) bool {
	for _, rec := range recs {
		if len(rec.Sequence) == 0 {
			continue
		}
		if len(rec.Sequence) > s.opts.MaxSeqLen {
			s.metrics.ParsingErrors.Add(1)
			s.lo.Warn("rejecting oversized sequence", "origin", origin, "length", len(rec.Sequence), "max", s.opts.MaxSeqLen, "error", ErrParsing)
			continue
		}

		ir := Record{
			SeqID:      s.nextSeqID(),
			ID:         rec.ID,
			FormatHint: rec.FormatHint,
			Origin:     origin,
			Sequence:   rec.Sequence,
			Quality:    rec.Quality,
			ReceivedAt: rec.ReceivedAt,
		}

		if err := s.queue.Push(ctx, ir); err != nil {
			s.lo.Debug("push failed, queue closed", "origin", origin, "seq_id", ir.SeqID, "error", ErrClosed)
			return false
		}
	}
	return true
}
