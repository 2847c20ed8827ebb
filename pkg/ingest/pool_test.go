package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/zerodha/logf"

	"github.com/inchrosil/dnapipe/internal/queue"
	"github.com/inchrosil/dnapipe/pkg/codec"
	"github.com/inchrosil/dnapipe/pkg/container"
	"github.com/inchrosil/dnapipe/pkg/frame"
)

func TestPoolPersistsValidRecord(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	q := queue.New[Record](4)
	metrics := NewMetrics()
	pool := NewPool(q, metrics, logf.New(logf.Opts{}), 1, dir)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(done)
	}()

	assert.NoError(q.Push(context.Background(), Record{
		SeqID:      42,
		Origin:     "127.0.0.1:1234",
		FormatHint: frame.RAW,
		Sequence:   []byte("ACGT"),
		ReceivedAt: time.Now(),
	}))

	path := filepath.Join(dir, "dna_output_42.ich")
	assert.Eventually(func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	meta, payload, err := container.ReadSingleRecordFile(path)
	assert.NoError(err)
	assert.Equal(4, meta.Length)
	assert.Equal(codec.Encode([]byte("ACGT")), payload)

	snap := metrics.Snapshot()
	assert.EqualValues(1, snap.TotalSequenceAccepted)
	assert.EqualValues(0, snap.ValidationErrors)

	q.Close()
	cancel()
	<-done
}

func TestPoolRejectsInvalidAlphabet(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	q := queue.New[Record](4)
	metrics := NewMetrics()
	pool := NewPool(q, metrics, logf.New(logf.Opts{}), 1, dir)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(done)
	}()

	assert.NoError(q.Push(context.Background(), Record{
		SeqID:      1,
		Sequence:   []byte("ATCGX"),
		ReceivedAt: time.Now(),
	}))

	assert.Eventually(func() bool {
		return metrics.Snapshot().ValidationErrors == 1
	}, time.Second, 10*time.Millisecond)

	_, err := os.Stat(filepath.Join(dir, "dna_output_1.ich"))
	assert.True(os.IsNotExist(err), "no file should be persisted for an invalid record")

	q.Close()
	cancel()
	<-done
}

func TestPoolShutdownLiveness(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	q := queue.New[Record](4)
	metrics := NewMetrics()
	pool := NewPool(q, metrics, logf.New(logf.Opts{}), 4, dir)

	q.Close()

	done := make(chan struct{})
	go func() {
		pool.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("workers did not exit after queue close")
	}
	_ = assert
}
