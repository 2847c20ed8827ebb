// Command dna-server is the ingestion server of spec.md §4.7: it binds a
// TCP port, accepts DNA sequence streams, validates/checksums/encodes
// each sequence, and persists one .ich file per accepted record.
//
// Usage:
//
//	dna-server [port]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/zerodha/logf"

	"github.com/inchrosil/dnapipe/internal/config"
	"github.com/inchrosil/dnapipe/internal/outdir"
	"github.com/inchrosil/dnapipe/internal/queue"
	"github.com/inchrosil/dnapipe/pkg/ingest"
)

// ErrArgument is the CLI-side sentinel of spec.md §7's ArgumentError,
// grounded in the teacher's pkg/barrel/errors.go sentinel style.
var ErrArgument = errors.New("dna-server: bad arguments")

// initLogger builds the server's logger. spec.md §6 grants the core CLI
// exactly one environment variable (INCHROSIL_OUT_DIR), so log verbosity
// is not env- or flag-controlled here the way cmd/server/init.go reads
// "app.log" from its broader config stack.
func initLogger() logf.Logger {
	return logf.New(logf.Opts{EnableCaller: true})
}

func parsePort(args []string) (int, error) {
	if len(args) == 0 {
		return ingest.DefaultPort, nil
	}
	port, err := strconv.Atoi(args[0])
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("%w: invalid port number %q", ErrArgument, args[0])
	}
	return port, nil
}

func main() {
	lo := initLogger()

	port, err := parsePort(os.Args[1:])
	if err != nil {
		lo.Error("argument error", "error", err)
		fmt.Fprintf(os.Stderr, "usage: dna-server [port]\n")
		os.Exit(1)
	}

	outDir := config.OutDir(".")
	lockF, err := outdir.Lock(outDir)
	if err != nil {
		lo.Error("error locking output directory", "dir", outDir, "error", err)
		os.Exit(1)
	}
	defer outdir.Unlock(lockF)

	opts := ingest.DefaultOptions()
	opts.Port = port
	opts.OutDir = outDir

	q := queue.New[ingest.Record](opts.QueueCapacity)
	metrics := ingest.NewMetrics()
	srv := ingest.NewServer(*opts, q, metrics, lo)
	pool := ingest.NewPool(q, metrics, lo, opts.Workers, opts.OutDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lo.Info("starting dna-server", "port", opts.Port, "out_dir", opts.OutDir, "queue_capacity", opts.QueueCapacity, "max_clients", opts.MaxClients)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.ListenAndServe(ctx)
	}()

	poolDone := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(poolDone)
	}()

	go ingest.RunStatusPrinter(ctx, metrics, lo, opts.StatusInterval)

	if err := <-serverDone; err != nil {
		lo.Error("server error", "error", err)
		os.Exit(1)
	}

	q.Close()
	<-poolDone

	lo.Info("server stopped")
}
