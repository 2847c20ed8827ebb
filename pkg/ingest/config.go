package ingest

import "time"

// Resource caps from spec.md §5, with the defaults stated there. Config
// follows the teacher's pkg/barrel/config.go functional-options style.
const (
	DefaultQueueCapacity = 1024
	DefaultMaxClients    = 16
	DefaultRecvChunk     = 65536
	DefaultMaxSeqLen     = 1 << 30
	DefaultPort          = 9090
)

// Options configures a Pool+Server pair. Use DefaultOptions and the
// With* functions to build one.
type Options struct {
	Workers        int
	QueueCapacity  int
	MaxClients     int
	RecvChunk      int
	MaxSeqLen      int
	Port           int
	OutDir         string
	StatusInterval time.Duration
}

// Config mutates an Options, following the teacher's Config func(*Options) error pattern.
type Config func(*Options)

// DefaultOptions returns the spec.md §5/§6 defaults.
func DefaultOptions() *Options {
	return &Options{
		QueueCapacity:  DefaultQueueCapacity,
		MaxClients:     DefaultMaxClients,
		RecvChunk:      DefaultRecvChunk,
		MaxSeqLen:      DefaultMaxSeqLen,
		Port:           DefaultPort,
		OutDir:         ".",
		StatusInterval: time.Second,
	}
}

func WithWorkers(n int) Config {
	return func(o *Options) { o.Workers = n }
}

func WithQueueCapacity(n int) Config {
	return func(o *Options) { o.QueueCapacity = n }
}

func WithMaxClients(n int) Config {
	return func(o *Options) { o.MaxClients = n }
}

func WithRecvChunk(n int) Config {
	return func(o *Options) { o.RecvChunk = n }
}

func WithMaxSeqLen(n int) Config {
	return func(o *Options) { o.MaxSeqLen = n }
}

func WithPort(p int) Config {
	return func(o *Options) { o.Port = p }
}

func WithOutDir(dir string) Config {
	return func(o *Options) { o.OutDir = dir }
}

func WithStatusInterval(d time.Duration) Config {
	return func(o *Options) { o.StatusInterval = d }
}

func (o *Options) apply(cfgs []Config) {
	for _, c := range cfgs {
		c(o)
	}
}
