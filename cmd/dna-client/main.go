// Command dna-client is the client driver of spec.md §4.8: it sends DNA
// sequences to a dna-server over TCP from a file, stdin, or a random
// generator.
//
// Usage:
//
//	dna-client <host> [port] --file <path>
//	dna-client <host> [port] --interactive
//	dna-client <host> [port] --stress <count> [--length <bases>]
//	dna-client <host> [port]   (sends one built-in test sequence)
package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/zerodha/logf"

	"github.com/inchrosil/dnapipe/pkg/ingest"
)

const builtinTestSequence = "ACGTACGTACGTACGTACGTACGTACGTACGT"

// state is the client's run state machine (spec.md §4.8):
// Disconnected -> Connecting -> Connected -> Sending* -> Closing -> Done.
type state int

const (
	stateDisconnected state = iota
	stateConnecting
	stateConnected
	stateSending
	stateClosing
	stateDone
)

func main() {
	lo := logf.New(logf.Opts{})

	f := flag.NewFlagSet("dna-client", flag.ContinueOnError)
	filePath := f.String("file", "", "send records read from a FASTA/FASTQ/raw file")
	interactive := f.Bool("interactive", false, "read lines from stdin and send each as a raw record")
	stress := f.Int("stress", 0, "send N randomly generated records")
	length := f.Int("length", 1000, "base length for --stress records")

	if err := f.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	args := f.Args()
	if len(args) < 1 {
		lo.Error("argument error", "error", ErrArgument, "usage", "dna-client <host> [port] [--file <path> | --interactive | --stress <count> [--length <bases>]]")
		os.Exit(1)
	}

	host := args[0]
	port := ingest.DefaultPort
	if len(args) >= 2 {
		p, err := strconv.Atoi(args[1])
		if err != nil || p <= 0 || p > 65535 {
			lo.Error("argument error", "error", ErrArgument, "port", args[1])
			os.Exit(1)
		}
		port = p
	}

	run := &run{state: stateConnecting, lo: lo}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		lo.Error("connect failure", "addr", addr, "error", fmt.Errorf("%w: %v", ErrConnect, err))
		os.Exit(1)
	}
	defer conn.Close()
	run.state = stateConnected
	lo.Info("connected", "addr", addr)

	c := &client{conn: conn, lo: lo}

	run.state = stateSending
	var sendErr error
	switch {
	case *filePath != "":
		sendErr = c.sendFile(*filePath)
	case *interactive:
		sendErr = c.sendInteractive()
	case *stress > 0:
		sendErr = c.sendStress(*stress, *length)
	default:
		sendErr = c.sendLine(builtinTestSequence)
	}

	run.state = stateClosing
	if sendErr != nil {
		lo.Error("send failure", "error", fmt.Errorf("%w: %v", ErrSend, sendErr))
		conn.Close()
		run.state = stateDone
		os.Exit(1)
	}

	run.state = stateDone
	lo.Info("session complete", "records_sent", c.sent)
}

// run tracks the client's state-machine position through a session. The
// state field is only written; nothing in the command reads it back.
type run struct {
	state state
	lo    logf.Logger
}
