// Package container implements the on-disk container file format of
// spec.md §4.2: a fixed 64-byte header, a 280-byte metadata slot per
// record, and tightly packed 2-bit payloads, plus the server's ASCII
// single-record sibling format. Binary layout follows the teacher's
// header.go style (encoding/binary over a bytes.Buffer, little-endian,
// fixed-width struct) generalized from a 20-byte per-record header to
// this format's file header and metadata slots.
package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Magic is the mandated 8-byte binary container magic. spec.md §9 item 1
// resolves the source's truncation ambiguity ("INCHROSI" vs "INCHRSIL")
// in favour of "INCHRSIL"; readers reject anything else.
var Magic = [8]byte{'I', 'N', 'C', 'H', 'R', 'S', 'I', 'L'}

const (
	Version        = 1
	headerSize     = 64
	metadataSize   = 280
	nameFieldSize  = 256
	maxNameUsable  = nameFieldSize - 1 // byte 255 is the enforced zero terminator
	reservedHeader = 28
)

type fileHeader struct {
	Magic          [8]byte
	Version        uint32
	SequenceCount  uint64
	TotalBases     uint64
	CompressedSize uint64
	Reserved       [reservedHeader]byte
}

type metadataSlot struct {
	LengthInBases uint64
	PayloadOffset uint64
	Name          [nameFieldSize]byte
	Reserved      [metadataSize - 16 - nameFieldSize]byte // pads the slot to metadataSize
}

// Record is one entry of a binary container: a name, its base length, and
// its already 2-bit-packed payload. Offset is the payload's declared
// byte offset within the data section; Write ignores it (offsets are
// assigned by record order), but Read populates it from the file's
// metadata slot so callers such as Verify can cross-check it.
type Record struct {
	Name    string
	Length  int // bases
	Payload []byte
	Offset  uint64
}

// Write builds and writes a complete binary container to w: the full
// metadata block in memory, then payloads streamed sequentially, per
// spec.md's write contract. Callers writing to a real file should write
// to a temporary path and rename into place so partially written files
// are never visible to readers (spec.md §3's lifecycle requirement);
// WriteFile below does this.
func Write(w io.Writer, records []Record) error {
	var totalBases, compressedSize uint64
	for _, r := range records {
		totalBases += uint64(r.Length)
		compressedSize += uint64(len(r.Payload))
	}

	hdr := fileHeader{
		Magic:          Magic,
		Version:        Version,
		SequenceCount:  uint64(len(records)),
		TotalBases:     totalBases,
		CompressedSize: compressedSize,
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("writing container header: %w", err)
	}

	var offset uint64
	for _, r := range records {
		if len(r.Name) > maxNameUsable {
			return fmt.Errorf("record name %q exceeds %d bytes", r.Name, maxNameUsable)
		}
		var slot metadataSlot
		slot.LengthInBases = uint64(r.Length)
		slot.PayloadOffset = offset
		copy(slot.Name[:], r.Name)
		// slot.Name is zero-initialised, so byte 255 is already 0.

		if err := binary.Write(w, binary.LittleEndian, &slot); err != nil {
			return fmt.Errorf("writing metadata slot: %w", err)
		}
		offset += uint64(len(r.Payload))
	}

	for _, r := range records {
		if _, err := w.Write(r.Payload); err != nil {
			return fmt.Errorf("writing payload: %w", err)
		}
	}

	return nil
}

// WriteFile writes records to path atomically: a temp file in the same
// directory, flushed and closed, then renamed into place, so a reader can
// never observe a partially written container (spec.md §3).
func WriteFile(path string, records []Record) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("creating temp container file: %w", err)
	}
	if err := Write(f, records); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("syncing container file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing container file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming container file into place: %w", err)
	}
	return nil
}

// Summary reports the aggregate fields from a container's header, used by
// the offline reader/verifier tool (cmd/dna-unpack).
type Summary struct {
	SequenceCount  uint64
	TotalBases     uint64
	CompressedSize uint64
}

// Read validates the header and reads every metadata slot and payload from
// r, which must support seeking (a plain os.File satisfies this). It
// returns the decoded records and the header summary, or a
// *CorruptContainerError naming the offending record index on any
// shortfall.
func Read(r io.ReadSeeker) (Summary, []Record, error) {
	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return Summary{}, nil, &CorruptContainerError{Reason: "short header read", RecordIndex: -1}
	}
	if hdr.Magic != Magic {
		return Summary{}, nil, &CorruptContainerError{Reason: "bad magic", RecordIndex: -1}
	}
	if hdr.Version != Version {
		return Summary{}, nil, &CorruptContainerError{Reason: fmt.Sprintf("unsupported version %d", hdr.Version), RecordIndex: -1}
	}

	fileSize, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return Summary{}, nil, &CorruptContainerError{Reason: "seek to end failed", RecordIndex: -1}
	}
	if _, err := r.Seek(headerSize, io.SeekStart); err != nil {
		return Summary{}, nil, &CorruptContainerError{Reason: "seek to metadata failed", RecordIndex: -1}
	}

	// hdr.SequenceCount is attacker/corruption-controlled; bound it against
	// the file's actual remaining size before allocating anything sized by
	// it, rather than letting a bogus huge count OOM the process. Division
	// (not count*metadataSize) keeps this safe from uint64 overflow.
	remaining := fileSize - headerSize
	if remaining < 0 || hdr.SequenceCount > uint64(remaining)/metadataSize {
		return Summary{}, nil, &CorruptContainerError{Reason: "sequence count exceeds file size", RecordIndex: -1}
	}

	slots := make([]metadataSlot, hdr.SequenceCount)
	for i := range slots {
		if err := binary.Read(r, binary.LittleEndian, &slots[i]); err != nil {
			return Summary{}, nil, &CorruptContainerError{Reason: "short metadata slot read", RecordIndex: i}
		}
	}

	endOfMetadata := int64(headerSize) + int64(hdr.SequenceCount)*int64(metadataSize)
	dataSectionSize := fileSize - endOfMetadata
	if dataSectionSize < 0 {
		return Summary{}, nil, &CorruptContainerError{Reason: "metadata block exceeds file size", RecordIndex: -1}
	}

	records := make([]Record, hdr.SequenceCount)
	for i, slot := range slots {
		// Bound LengthInBases and PayloadOffset against the data section's
		// actual size before computing payloadLen or seeking, so a
		// corrupted slot can't request an allocation or seek disproportionate
		// to the file on disk.
		if slot.PayloadOffset > uint64(dataSectionSize) {
			return Summary{}, nil, &CorruptContainerError{Reason: "payload offset exceeds file size", RecordIndex: i}
		}
		if slot.LengthInBases/4 > uint64(dataSectionSize) {
			return Summary{}, nil, &CorruptContainerError{Reason: "declared length exceeds file size", RecordIndex: i}
		}
		payloadLen := int((slot.LengthInBases + 3) / 4)
		if slot.PayloadOffset+uint64(payloadLen) > uint64(dataSectionSize) {
			return Summary{}, nil, &CorruptContainerError{Reason: "payload extends past end of file", RecordIndex: i}
		}

		payload := make([]byte, payloadLen)
		if _, err := r.Seek(endOfMetadata+int64(slot.PayloadOffset), io.SeekStart); err != nil {
			return Summary{}, nil, &CorruptContainerError{Reason: "seek to payload failed", RecordIndex: i}
		}
		if _, err := io.ReadFull(r, payload); err != nil {
			return Summary{}, nil, &CorruptContainerError{Reason: "short payload read", RecordIndex: i}
		}
		records[i] = Record{
			Name:    nullTerminatedString(slot.Name[:]),
			Length:  int(slot.LengthInBases),
			Payload: payload,
			Offset:  slot.PayloadOffset,
		}
	}

	return Summary{
		SequenceCount:  hdr.SequenceCount,
		TotalBases:     hdr.TotalBases,
		CompressedSize: hdr.CompressedSize,
	}, records, nil
}

// ReadFile opens path and reads its binary container contents.
func ReadFile(path string) (Summary, []Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, nil, fmt.Errorf("opening container file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func nullTerminatedString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
