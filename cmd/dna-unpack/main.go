// Command dna-unpack is the offline container reader/verifier, grounded in
// _examples/original_source/src/test_binary_files.cpp and
// dna_binary_decoder.cpp: for each container file it validates the
// header, then calls pkg/container.Verify to decode every payload and
// cross-check every record's length/offset consistency, not just the
// first.
//
// Usage:
//
//	dna-unpack file1.ich [file2.ich ...]
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"github.com/zerodha/logf"

	"github.com/inchrosil/dnapipe/pkg/container"
)

func verifyFile(lo logf.Logger, path string) bool {
	summary, results, err := container.Verify(path)
	if err != nil {
		lo.Error("verification failed", "file", path, "error", err)
		return false
	}

	ratio := float64(0)
	if summary.CompressedSize > 0 {
		ratio = float64(summary.TotalBases) / float64(summary.CompressedSize)
	}
	lo.Info("container summary",
		"file", path,
		"sequences", summary.SequenceCount,
		"total_bases", summary.TotalBases,
		"compressed_bytes", summary.CompressedSize,
		"ratio", ratio,
	)

	allOK := true
	for _, r := range results {
		if !r.OK {
			allOK = false
			lo.Error("record failed consistency check",
				"file", path,
				"index", r.Index,
				"name", r.Name,
				"length", r.LengthInBases,
				"payload_bytes", r.PayloadBytes,
				"expected_bytes", r.ExpectedBytes,
				"declared_offset", r.DeclaredOffset,
				"expected_offset", r.ExpectedOffset,
			)
			continue
		}

		preview := r.Decoded
		if len(preview) > 60 {
			preview = preview[:60]
		}
		lo.Info("record", "file", path, "index", r.Index, "name", r.Name, "length", r.LengthInBases, "preview", string(preview))
	}

	return allOK
}

func main() {
	lo := logf.New(logf.Opts{})

	f := flag.NewFlagSet("dna-unpack", flag.ContinueOnError)
	f.Usage = func() {
		fmt.Println(f.FlagUsages())
		os.Exit(0)
	}
	if err := f.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	files := f.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: dna-unpack file1.ich [file2.ich ...]")
		os.Exit(1)
	}

	passed, failed := 0, 0
	for _, path := range files {
		if verifyFile(lo, path) {
			passed++
		} else {
			failed++
		}
	}

	lo.Info("verification summary", "passed", passed, "failed", failed, "total", passed+failed)
	if failed > 0 {
		os.Exit(1)
	}
}
