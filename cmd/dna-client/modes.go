package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"net"
	"os"
	"strings"

	"github.com/zerodha/logf"
)

// client drives a single TCP session, producing the on-wire framing
// pkg/frame expects (spec.md §4.8), grounded in
// _examples/original_source/src/dna_client.cpp's DNAClient.
type client struct {
	conn net.Conn
	lo   logf.Logger
	sent int
}

func (c *client) sendLine(seq string) error {
	_, err := fmt.Fprintf(c.conn, "%s\n", seq)
	if err != nil {
		return err
	}
	c.sent++
	return nil
}

// sendFile reads lines from path and reassembles them into framed
// messages using the same rules as the server-side parser (spec.md
// §4.8): FASTA headers open a record emitted as ">id\n<seq>\n", FASTQ
// headers as "@id\n<seq>\n+\n<quality>\n", everything else as a raw
// "<seq>\n" line.
func (c *client) sendFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var (
		inFasta bool
		fastaID string
		fastaSeq strings.Builder
	)

	flushFasta := func() error {
		if !inFasta {
			return nil
		}
		if err := c.sendFramedFasta(fastaID, fastaSeq.String()); err != nil {
			return err
		}
		inFasta = false
		fastaSeq.Reset()
		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		switch line[0] {
		case '>':
			if err := flushFasta(); err != nil {
				return err
			}
			inFasta = true
			fields := strings.Fields(strings.TrimPrefix(line, ">"))
			if len(fields) > 0 {
				fastaID = fields[0]
			} else {
				fastaID = ""
			}
		case '@':
			if err := flushFasta(); err != nil {
				return err
			}
			var rec [3]string // sequence, '+' separator, quality
			for i := range rec {
				if scanner.Scan() {
					rec[i] = strings.Join(strings.Fields(scanner.Text()), "")
				}
			}
			id, _, _ := strings.Cut(strings.TrimSpace(line[1:]), " ")
			if _, err := fmt.Fprintf(c.conn, "@%s\n%s\n+\n%s\n", id, rec[0], rec[2]); err != nil {
				return err
			}
			c.sent++
		default:
			if inFasta {
				fastaSeq.WriteString(line)
				continue
			}
			if err := c.sendLine(strings.Join(strings.Fields(line), "")); err != nil {
				return err
			}
		}
		if c.sent%100 == 0 && c.sent > 0 {
			c.lo.Debug("progress", "records_sent", c.sent)
		}
	}
	if err := flushFasta(); err != nil {
		return err
	}
	return scanner.Err()
}

func (c *client) sendFramedFasta(id, seq string) error {
	_, err := fmt.Fprintf(c.conn, ">%s\n%s\n", id, seq)
	if err != nil {
		return err
	}
	c.sent++
	return nil
}

// sendInteractive reads lines from stdin, stripping whitespace and
// sending each non-empty line as a raw record; "quit", "exit", or "q"
// terminates (spec.md §4.8).
func (c *client) sendInteractive() error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit", "q":
			return nil
		}
		if err := c.sendLine(strings.Join(strings.Fields(line), "")); err != nil {
			return err
		}
	}
	return scanner.Err()
}

const bases = "ACGT"

// sendStress emits n records of length l of uniformly-random nucleotides.
func (c *client) sendStress(n, l int) error {
	if l <= 0 {
		l = 1000
	}
	for i := 0; i < n; i++ {
		seq := make([]byte, l)
		for j := range seq {
			seq[j] = bases[rand.Intn(len(bases))]
		}
		if err := c.sendLine(string(seq)); err != nil {
			return err
		}
		if c.sent%100 == 0 {
			c.lo.Debug("progress", "records_sent", c.sent)
		}
	}
	return nil
}

