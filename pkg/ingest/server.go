package ingest

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/zerodha/logf"

	"github.com/inchrosil/dnapipe/internal/queue"
)

// Server is the ingress layer (C7): it binds a TCP listener, accepts
// connections up to a soft cap, and spawns one reader goroutine per
// accepted connection. Generalized from the teacher's Init-spawns-
// background-goroutines-per-concern style (go barrel.RunCompaction(...),
// go barrel.ExamineFileSize(...)) to "one goroutine per accepted
// connection", and from dna_server.cpp's acceptClients/handleClient
// split.
type Server struct {
	opts    Options
	queue   *queue.Queue[Record]
	metrics *Metrics
	lo      logf.Logger
	nextSeq atomic.Uint64

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
}

// NewServer returns a Server that will push drained records into q.
func NewServer(opts Options, q *queue.Queue[Record], metrics *Metrics, lo logf.Logger) *Server {
	return &Server{
		opts:    opts,
		queue:   q,
		metrics: metrics,
		lo:      lo,
		conns:   make(map[net.Conn]struct{}),
	}
}

// ListenAndServe binds the configured port and accepts connections until
// ctx is cancelled. It blocks until every spawned reader goroutine has
// returned.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.opts.Port))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBind, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		s.shutdown()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			// Socket close during shutdown surfaces here; readers are
			// driven to exit via their own closed connections.
			wg.Wait()
			return nil
		}

		s.mu.Lock()
		active := len(s.conns)
		if active >= s.opts.MaxClients {
			s.mu.Unlock()
			s.lo.Warn("rejecting connection over MAX_CLIENTS", "addr", conn.RemoteAddr(), "max_clients", s.opts.MaxClients)
			conn.Close()
			continue
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.metrics.TotalConnections.Add(1)
		s.metrics.ActiveConnections.Add(1)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.forget(conn)
			s.handleConn(conn)
		}()
	}
}

// shutdown closes the listening socket and every live connection,
// driving reader goroutines to observe a closed socket and exit (spec.md
// §5's shutdown sequence, step (a)+(b)).
func (s *Server) shutdown() {
	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
}

func (s *Server) forget(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.metrics.ActiveConnections.Add(-1)
}

// Addr returns the server's bound listener address. Valid only after
// ListenAndServe has started accepting connections.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// nextSeqID assigns the next process-wide, strictly increasing seq_id at
// the moment a record is accepted by the ingress layer (spec.md §5's
// ordering guarantee), not at persistence time.
func (s *Server) nextSeqID() uint64 {
	return s.nextSeq.Add(1) - 1
}
