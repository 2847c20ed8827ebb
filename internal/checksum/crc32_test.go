package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32Vector(t *testing.T) {
	assert := assert.New(t)

	// standard CRC-32/ISO-HDLC test vector
	assert.Equal(uint32(0xCBF43926), Checksum([]byte("123456789")))
	assert.Equal(uint32(0xCBF43926), referenceIEEE([]byte("123456789")))
}

func TestPathsAgree(t *testing.T) {
	assert := assert.New(t)

	inputs := [][]byte{
		{},
		[]byte("A"),
		[]byte("ACGTACGTACGTACGT"),
		make([]byte, 1024),
	}

	for _, in := range inputs {
		assert.Equal(referenceIEEE(in), Checksum(in))
	}
}
