// Package frame turns a raw, per-connection byte stream into sequence
// records. It implements spec.md §4.3: newline-delimited framing with
// per-line FASTA/FASTQ/RAW format detection and multi-line FASTA
// aggregation (the REDESIGN FLAG fix over the original single-line
// processSequence).
package frame

import (
	"time"
)

// Format is the format as observed on the wire. It is reporting-only and
// never alters codec behaviour.
type Format int

const (
	RAW Format = iota
	FASTA
	FASTQ
)

func (f Format) String() string {
	switch f {
	case FASTA:
		return "FASTA"
	case FASTQ:
		return "FASTQ"
	default:
		return "RAW"
	}
}

// Record is the unit produced by a Parser: a normalized sequence, stripped
// of whitespace, ready for enqueueing. Quality is only populated for FASTQ
// and is never written into a 2-bit container.
type Record struct {
	ID         string
	FormatHint Format
	Sequence   []byte
	Quality    []byte
	ReceivedAt time.Time
}

type fastqState int

const (
	fastqNone fastqState = iota
	fastqExpectSeq
	fastqExpectPlus
	fastqExpectQuality
)

// Parser reassembles Records from a byte stream fed incrementally via
// Feed. It keeps all state required across Feed calls so that feeding
// the whole stream at once or one byte at a time produces the same
// emitted records (the parser idempotence property in spec.md §8).
type Parser struct {
	buf []byte

	inFasta     bool
	fastaID     string
	fastaSeq    []byte
	fastqState  fastqState
	fastqID     string
	fastqSeq    []byte
	now         func() time.Time
}

// New returns a Parser ready to Feed bytes into.
func New() *Parser {
	return &Parser{now: time.Now}
}

// Feed appends data to the parser's pending buffer and returns every
// complete record drained from it. Incomplete trailing bytes (a line
// without its terminating '\n') remain buffered for the next call.
func (p *Parser) Feed(data []byte) []Record {
	p.buf = append(p.buf, data...)

	var out []Record
	for {
		idx := indexByte(p.buf, '\n')
		if idx < 0 {
			break
		}
		line := stripCR(p.buf[:idx])
		p.buf = p.buf[idx+1:]

		if rec, ok := p.consumeLine(line); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Close signals end-of-stream (connection close, or EOF for an offline
// reader) and flushes any record still accumulating: an in-progress FASTA
// sequence, or a FASTQ record missing its quality line (emitted as FASTA
// with a downgraded format hint, per spec.md §4.3's error policy).
func (p *Parser) Close() []Record {
	var out []Record

	// A final unterminated line with no trailing newline is still a line.
	if len(p.buf) > 0 {
		line := stripCR(p.buf)
		p.buf = nil
		if rec, ok := p.consumeLine(line); ok {
			out = append(out, rec)
		}
	}

	if p.inFasta {
		out = append(out, p.emitFasta())
	}
	if p.fastqState != fastqNone {
		out = append(out, p.emitFastqAsFasta())
	}

	return out
}

func (p *Parser) consumeLine(line []byte) (Record, bool) {
	if p.fastqState != fastqNone {
		return p.consumeFastqLine(line)
	}

	if len(line) == 0 {
		return Record{}, false
	}

	switch line[0] {
	case '>':
		var rec Record
		emitted := false
		if p.inFasta {
			rec = p.emitFasta()
			emitted = true
		}
		p.inFasta = true
		p.fastaID = firstToken(line[1:])
		p.fastaSeq = p.fastaSeq[:0]
		return rec, emitted
	case '@':
		if p.inFasta {
			// A bare '@' line ends any accumulating FASTA sequence if one
			// is active; spec.md treats it as opening FASTQ context.
			rec := p.emitFasta()
			p.beginFastq(line)
			return rec, true
		}
		p.beginFastq(line)
		return Record{}, false
	case '+':
		// Lone '+' with no active FASTQ context: ambiguous, dropped.
		return Record{}, false
	default:
		if p.inFasta {
			p.fastaSeq = append(p.fastaSeq, stripWhitespace(line)...)
			return Record{}, false
		}
		return Record{
			FormatHint: RAW,
			Sequence:   stripWhitespace(line),
			ReceivedAt: p.now(),
		}, true
	}
}

func (p *Parser) beginFastq(headerLine []byte) {
	p.fastqState = fastqExpectSeq
	p.fastqID = firstToken(headerLine[1:])
	p.fastqSeq = nil
}

func (p *Parser) consumeFastqLine(line []byte) (Record, bool) {
	switch p.fastqState {
	case fastqExpectSeq:
		p.fastqSeq = stripWhitespace(line)
		p.fastqState = fastqExpectPlus
		return Record{}, false
	case fastqExpectPlus:
		// Expected to begin with '+'; any content here is skipped per spec.
		p.fastqState = fastqExpectQuality
		return Record{}, false
	case fastqExpectQuality:
		quality := stripWhitespace(line)
		rec := Record{
			ID:         p.fastqID,
			FormatHint: FASTQ,
			Sequence:   p.fastqSeq,
			Quality:    quality,
			ReceivedAt: p.now(),
		}
		p.fastqState = fastqNone
		p.fastqID = ""
		p.fastqSeq = nil
		return rec, true
	}
	return Record{}, false
}

func (p *Parser) emitFasta() Record {
	rec := Record{
		ID:         p.fastaID,
		FormatHint: FASTA,
		Sequence:   append([]byte(nil), p.fastaSeq...),
		ReceivedAt: p.now(),
	}
	p.inFasta = false
	p.fastaID = ""
	p.fastaSeq = nil
	return rec
}

// emitFastqAsFasta handles a FASTQ record missing its quality line at
// stream end: emitted as FASTA with whatever sequence was collected,
// format_hint downgraded (spec.md §4.3's error policy).
func (p *Parser) emitFastqAsFasta() Record {
	rec := Record{
		ID:         p.fastqID,
		FormatHint: FASTA,
		Sequence:   p.fastqSeq,
		ReceivedAt: p.now(),
	}
	p.fastqState = fastqNone
	p.fastqID = ""
	p.fastqSeq = nil
	return rec
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func stripCR(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}

func isASCIISpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	default:
		return false
	}
}

func stripWhitespace(line []byte) []byte {
	out := make([]byte, 0, len(line))
	for _, b := range line {
		if !isASCIISpace(b) {
			out = append(out, b)
		}
	}
	return out
}

func firstToken(rest []byte) string {
	i := 0
	for i < len(rest) && !isASCIISpace(rest[i]) {
		i++
	}
	return string(rest[:i])
}
