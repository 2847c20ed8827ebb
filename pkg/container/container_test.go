package container

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inchrosil/dnapipe/pkg/codec"
)

func TestBinaryRoundTrip(t *testing.T) {
	assert := assert.New(t)

	records := []Record{
		{Name: "seq1", Length: 4, Payload: codec.Encode([]byte("ACGT"))},
		{Name: "seq2", Length: 4, Payload: codec.Encode([]byte("TTTT"))},
	}

	var buf bytes.Buffer
	assert.NoError(Write(&buf, records))

	summary, got, err := Read(bytes.NewReader(buf.Bytes()))
	assert.NoError(err)
	assert.EqualValues(2, summary.SequenceCount)
	assert.EqualValues(8, summary.TotalBases)
	assert.EqualValues(2, summary.CompressedSize)

	assert.Len(got, 2)
	assert.Equal("ACGT", string(codec.Decode(got[0].Payload, got[0].Length)))
	assert.Equal("TTTT", string(codec.Decode(got[1].Payload, got[1].Length)))
}

func TestBinaryWriteFileAtomic(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "out.ich")

	records := []Record{{Name: "s", Length: 4, Payload: codec.Encode([]byte("ACGT"))}}
	assert.NoError(WriteFile(path, records))

	_, err := os.Stat(path + ".tmp")
	assert.True(os.IsNotExist(err), "temp file should not remain after rename")

	summary, got, err := ReadFile(path)
	assert.NoError(err)
	assert.EqualValues(1, summary.SequenceCount)
	assert.Len(got, 1)
}

func TestBadMagicRejected(t *testing.T) {
	assert := assert.New(t)

	buf := bytes.Repeat([]byte{0x00}, headerSize)
	copy(buf, "INCHROSI") // the truncated, rejected variant (Open Question 1)

	_, _, err := Read(bytes.NewReader(buf))
	assert.Error(err)
	var cerr *CorruptContainerError
	assert.ErrorAs(err, &cerr)
}

func TestSingleRecordRoundTrip(t *testing.T) {
	assert := assert.New(t)

	payload := codec.Encode([]byte("ACGT"))
	meta := SingleRecordMeta{
		ID:        "7",
		Client:    "127.0.0.1:5555",
		Format:    "RAW",
		Length:    4,
		Checksum:  0xDEADBEEF,
		Timestamp: 1732406400,
	}

	var buf bytes.Buffer
	assert.NoError(WriteSingleRecord(&buf, meta, payload))

	gotMeta, gotPayload, err := ReadSingleRecord(bytes.NewReader(buf.Bytes()))
	assert.NoError(err)
	assert.Equal(meta, gotMeta)
	assert.Equal(payload, gotPayload)
}

func TestVerifyAllRecords(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "multi.ich")

	records := []Record{
		{Name: "seq1", Length: 4, Payload: codec.Encode([]byte("ACGT"))},
		{Name: "seq2", Length: 8, Payload: codec.Encode([]byte("TTTTGGGG"))},
		{Name: "seq3", Length: 1, Payload: codec.Encode([]byte("A"))},
	}
	assert.NoError(WriteFile(path, records))

	summary, results, err := Verify(path)
	assert.NoError(err)
	assert.EqualValues(3, summary.SequenceCount)
	assert.Len(results, 3)

	for _, r := range results {
		assert.True(r.OK, "record %d should be consistent", r.Index)
	}
	assert.Equal("ACGT", string(results[0].Decoded))
	assert.Equal("TTTTGGGG", string(results[1].Decoded))
	assert.Equal("A", string(results[2].Decoded))

	assert.EqualValues(0, results[0].ExpectedOffset)
	assert.EqualValues(1, results[1].ExpectedOffset)
	assert.EqualValues(3, results[2].ExpectedOffset)
}

func TestVerifyDetectsOffsetMismatch(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	records := []Record{
		{Name: "seq1", Length: 4, Payload: codec.Encode([]byte("ACGT"))},
		{Name: "seq2", Length: 4, Payload: codec.Encode([]byte("TTTT"))},
	}
	assert.NoError(Write(&buf, records))

	raw := buf.Bytes()
	// Corrupt seq2's declared payload offset (the PayloadOffset field of
	// the second metadata slot, right after the header and the first
	// slot) to duplicate seq1's offset instead of its real one. The
	// corrupted offset still points at valid, in-bounds data (seq1's
	// payload byte), so the read itself succeeds — only the
	// length/offset consistency check should catch the tampering.
	offsetFieldStart := headerSize + metadataSize + 8
	raw[offsetFieldStart] = 0x00

	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.ich")
	assert.NoError(os.WriteFile(path, raw, 0644))

	_, results, err := Verify(path)
	assert.NoError(err)
	assert.Len(results, 2)
	assert.True(results[0].OK)
	assert.False(results[1].OK, "tampered offset should fail consistency check")
}

func TestReadRejectsOversizedSequenceCount(t *testing.T) {
	assert := assert.New(t)

	// A header claiming far more metadata slots than the file could
	// possibly hold must be rejected before any allocation sized by the
	// count, not trusted and used to make a multi-terabyte slice.
	buf := make([]byte, headerSize)
	copy(buf, Magic[:])
	binary.LittleEndian.PutUint32(buf[8:], Version)
	binary.LittleEndian.PutUint64(buf[12:], 1<<40) // SequenceCount

	_, _, err := Read(bytes.NewReader(buf))
	assert.Error(err)
	var cerr *CorruptContainerError
	assert.ErrorAs(err, &cerr)
	assert.Equal(-1, cerr.RecordIndex)
}

func TestReadRejectsOversizedRecordLength(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "bad-length.ich")
	assert.NoError(WriteFile(path, []Record{
		{Name: "seq1", Length: 4, Payload: codec.Encode([]byte("ACGT"))},
	}))

	raw, err := os.ReadFile(path)
	assert.NoError(err)

	// Overwrite the first slot's LengthInBases with an implausibly large
	// value; the declared length implies a payload far larger than the
	// file, so Read must reject it rather than allocate for it.
	binary.LittleEndian.PutUint64(raw[headerSize:], 1<<40)

	assert.NoError(os.WriteFile(path, raw, 0644))

	_, _, err = Read(bytes.NewReader(raw))
	assert.Error(err)
	var cerr *CorruptContainerError
	assert.ErrorAs(err, &cerr)
	assert.Equal(0, cerr.RecordIndex)
}

func TestIsBinaryDiscriminator(t *testing.T) {
	assert := assert.New(t)

	var bin bytes.Buffer
	assert.NoError(Write(&bin, []Record{{Name: "s", Length: 4, Payload: codec.Encode([]byte("ACGT"))}}))
	assert.True(IsBinary(bin.Bytes()[:16]))

	var ascii bytes.Buffer
	assert.NoError(WriteSingleRecord(&ascii, SingleRecordMeta{Length: 4}, codec.Encode([]byte("ACGT"))))
	assert.False(IsBinary(ascii.Bytes()[:16]))
}
