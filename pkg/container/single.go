package container

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// asciiMagic is the first line of the server's debug-friendly
// single-record variant (spec.md §4.2). It is 10 bytes including the
// newline, distinguishing it from the 8-byte binary Magic with no
// trailing newline (see SPEC_FULL.md's resolution of Open Question 1).
const asciiMagic = "INCHROSIL\n"

// SingleRecordMeta is the textual header block the server writes next to
// every persisted sequence.
type SingleRecordMeta struct {
	ID        string
	Client    string
	Format    string
	Length    int
	Checksum  uint32
	Timestamp int64
}

// WriteSingleRecord writes the ASCII header block followed by the raw
// packed payload, matching dna_server.cpp's storeSequence byte-for-byte.
func WriteSingleRecord(w io.Writer, meta SingleRecordMeta, payload []byte) error {
	var buf bytes.Buffer
	buf.WriteString(asciiMagic)
	fmt.Fprintf(&buf, "ID: %s\n", meta.ID)
	fmt.Fprintf(&buf, "Client: %s\n", meta.Client)
	fmt.Fprintf(&buf, "Format: %s\n", meta.Format)
	fmt.Fprintf(&buf, "Length: %d\n", meta.Length)
	fmt.Fprintf(&buf, "Checksum: 0x%x\n", meta.Checksum)
	fmt.Fprintf(&buf, "Timestamp: %d\n", meta.Timestamp)
	buf.WriteString("---\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing single-record header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing single-record payload: %w", err)
	}
	return nil
}

// WriteSingleRecordFile writes a single-record file atomically, matching
// the container lifecycle rule of spec.md §3: a partially written file
// must never be visible under its final name.
func WriteSingleRecordFile(path string, meta SingleRecordMeta, payload []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("creating temp single-record file: %w", err)
	}
	if err := WriteSingleRecord(f, meta, payload); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("syncing single-record file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing single-record file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming single-record file into place: %w", err)
	}
	return nil
}

// ReadSingleRecord parses the ASCII header block and reads the remaining
// bytes of r as the payload.
func ReadSingleRecord(r io.Reader) (SingleRecordMeta, []byte, error) {
	br := bufio.NewReader(r)

	magic := make([]byte, len(asciiMagic))
	if _, err := io.ReadFull(br, magic); err != nil || string(magic) != asciiMagic {
		return SingleRecordMeta{}, nil, &CorruptContainerError{Reason: "bad single-record magic", RecordIndex: -1}
	}

	var meta SingleRecordMeta
	for {
		line, err := br.ReadString('\n')
		if err != nil && line == "" {
			return SingleRecordMeta{}, nil, &CorruptContainerError{Reason: "truncated single-record header", RecordIndex: -1}
		}
		line = strings.TrimSuffix(line, "\n")
		if line == "---" {
			break
		}
		key, val, ok := strings.Cut(line, ": ")
		if !ok {
			return SingleRecordMeta{}, nil, &CorruptContainerError{Reason: "malformed header line " + strconv.Quote(line), RecordIndex: -1}
		}
		switch key {
		case "ID":
			meta.ID = val
		case "Client":
			meta.Client = val
		case "Format":
			meta.Format = val
		case "Length":
			n, err := strconv.Atoi(val)
			if err != nil {
				return SingleRecordMeta{}, nil, &CorruptContainerError{Reason: "bad Length field", RecordIndex: -1}
			}
			meta.Length = n
		case "Checksum":
			n, err := strconv.ParseUint(strings.TrimPrefix(val, "0x"), 16, 32)
			if err != nil {
				return SingleRecordMeta{}, nil, &CorruptContainerError{Reason: "bad Checksum field", RecordIndex: -1}
			}
			meta.Checksum = uint32(n)
		case "Timestamp":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return SingleRecordMeta{}, nil, &CorruptContainerError{Reason: "bad Timestamp field", RecordIndex: -1}
			}
			meta.Timestamp = n
		}
	}

	payload, err := io.ReadAll(br)
	if err != nil {
		return SingleRecordMeta{}, nil, &CorruptContainerError{Reason: "short payload read", RecordIndex: -1}
	}

	return meta, payload, nil
}

// ReadSingleRecordFile opens path and parses it as a single-record file.
func ReadSingleRecordFile(path string) (SingleRecordMeta, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return SingleRecordMeta{}, nil, fmt.Errorf("opening single-record file: %w", err)
	}
	defer f.Close()
	return ReadSingleRecord(f)
}

// IsBinary peeks at the first bytes of a container to distinguish the
// binary variant from the ASCII single-record variant: the ASCII form's
// first 10 bytes are exactly "INCHROSIL\n"; the binary form's first 8
// bytes are the Magic with no such trailing newline (SPEC_FULL.md's
// resolution of Open Question 1).
func IsBinary(peek []byte) bool {
	if len(peek) >= len(asciiMagic) && string(peek[:len(asciiMagic)]) == asciiMagic {
		return false
	}
	return len(peek) >= len(Magic) && bytes.Equal(peek[:len(Magic)], Magic[:])
}
