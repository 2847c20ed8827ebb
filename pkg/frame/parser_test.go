package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func feedAll(p *Parser, data []byte) []Record {
	recs := p.Feed(data)
	recs = append(recs, p.Close()...)
	return recs
}

func feedByteAtATime(data []byte) []Record {
	p := New()
	var recs []Record
	for i := range data {
		recs = append(recs, p.Feed(data[i:i+1])...)
	}
	recs = append(recs, p.Close()...)
	return recs
}

func TestRawRecord(t *testing.T) {
	assert := assert.New(t)

	p := New()
	recs := feedAll(p, []byte("ATCGATCGATCGATCG\n"))
	assert.Len(recs, 1)
	assert.Equal(RAW, recs[0].FormatHint)
	assert.Equal("ATCGATCGATCGATCG", string(recs[0].Sequence))
}

func TestFastaTwoRecords(t *testing.T) {
	assert := assert.New(t)

	p := New()
	recs := feedAll(p, []byte(">seq1\nATCG\n>seq2\nGGGG\n"))
	assert.Len(recs, 2)
	assert.Equal("seq1", recs[0].ID)
	assert.Equal("ATCG", string(recs[0].Sequence))
	assert.Equal(FASTA, recs[0].FormatHint)
	assert.Equal("seq2", recs[1].ID)
	assert.Equal("GGGG", string(recs[1].Sequence))
}

func TestFastaMultiLine(t *testing.T) {
	assert := assert.New(t)

	p := New()
	recs := feedAll(p, []byte(">seq1\nACGT\nACGT\n>seq2\nTTTT\n"))
	assert.Len(recs, 2)
	assert.Equal("ACGTACGT", string(recs[0].Sequence))
	assert.Equal("TTTT", string(recs[1].Sequence))
}

func TestFastq(t *testing.T) {
	assert := assert.New(t)

	p := New()
	recs := feedAll(p, []byte("@r\nACGT\n+\nIIII\n"))
	assert.Len(recs, 1)
	assert.Equal(FASTQ, recs[0].FormatHint)
	assert.Equal("r", recs[0].ID)
	assert.Equal("ACGT", string(recs[0].Sequence))
	assert.Equal("IIII", string(recs[0].Quality))
}

func TestFastqMissingQualityAtEOF(t *testing.T) {
	assert := assert.New(t)

	p := New()
	recs := feedAll(p, []byte("@r\nACGT\n+\n"))
	assert.Len(recs, 1)
	assert.Equal(FASTA, recs[0].FormatHint)
	assert.Equal("ACGT", string(recs[0].Sequence))
}

func TestIdempotence(t *testing.T) {
	assert := assert.New(t)

	stream := []byte(">seq1\nACGT\nACGT\n>seq2\nTTTT\n@r\nACGT\n+\nIIII\nRAWLINE\n")

	p := New()
	whole := feedAll(p, stream)
	byByte := feedByteAtATime(stream)

	assert.Equal(len(whole), len(byByte))
	for i := range whole {
		assert.Equal(whole[i].FormatHint, byByte[i].FormatHint)
		assert.Equal(string(whole[i].Sequence), string(byByte[i].Sequence))
		assert.Equal(whole[i].ID, byByte[i].ID)
	}
}

func TestWhitespaceStripped(t *testing.T) {
	assert := assert.New(t)

	p := New()
	recs := feedAll(p, []byte("AT CG\tAT\n"))
	assert.Len(recs, 1)
	for _, b := range recs[0].Sequence {
		assert.False(isASCIISpace(b))
	}
	assert.Equal("ATCGAT", string(recs[0].Sequence))
}

func TestEmptyLinesSkipped(t *testing.T) {
	assert := assert.New(t)

	p := New()
	recs := feedAll(p, []byte("\n\nATCG\n\n"))
	assert.Len(recs, 1)
	assert.Equal("ATCG", string(recs[0].Sequence))
}

func TestAmbiguousPlusDropped(t *testing.T) {
	assert := assert.New(t)

	p := New()
	recs := feedAll(p, []byte("+\nATCG\n"))
	assert.Len(recs, 1)
	assert.Equal("ATCG", string(recs[0].Sequence))
}
