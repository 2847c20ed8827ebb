package main

import "errors"

// CLI-side error taxonomy (spec.md §7), grounded in the teacher's
// pkg/barrel/errors.go sentinel style and wired at the command's error
// boundaries rather than threaded through every call site.
var (
	ErrArgument = errors.New("dna-client: bad arguments")
	ErrConnect  = errors.New("dna-client: connect failure")
	ErrSend     = errors.New("dna-client: send failure")
)
