// Command dna-pack is the offline FASTA-to-container packer, grounded in
// _examples/original_source/src/generate_binary_files.cpp: it reads one or
// more FASTA files and writes each as a binary container (pkg/container)
// under spec.md §4.2's format.
//
// Usage:
//
//	dna-pack [--config pack.toml] file1.fasta [file2.fasta ...]
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	flag "github.com/spf13/pflag"
	"github.com/zerodha/logf"

	"github.com/inchrosil/dnapipe/pkg/codec"
	"github.com/inchrosil/dnapipe/pkg/container"
)

// initConfig follows the teacher's cmd/server/init.go layering: a TOML
// file (optional, default-to-missing is fine) overlaid by PACK_ env vars.
func initConfig() (*koanf.Koanf, []string, error) {
	ko := koanf.New(".")
	f := flag.NewFlagSet("dna-pack", flag.ContinueOnError)
	f.Usage = func() {
		fmt.Println(f.FlagUsages())
		os.Exit(0)
	}
	cfgPath := f.String("config", "", "optional TOML config file")
	outDir := f.String("out-dir", ".", "directory to write .ich container files into")

	if err := f.Parse(os.Args[1:]); err != nil {
		return nil, nil, err
	}

	if *cfgPath != "" {
		if err := ko.Load(file.Provider(*cfgPath), toml.Parser()); err != nil {
			return nil, nil, fmt.Errorf("loading config file: %w", err)
		}
	}
	if err := ko.Load(env.Provider("PACK_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "PACK_"))
	}), nil); err != nil {
		return nil, nil, err
	}
	if !ko.Exists("out-dir") {
		_ = ko.Load(confmap.Provider(map[string]interface{}{"out-dir": *outDir}, "."), nil)
	}

	return ko, f.Args(), nil
}

type fastaSeq struct {
	name string
	seq  string
}

// readFASTA parses a FASTA file the way the original generator does:
// multi-line sequence bodies concatenated under their most recent header.
func readFASTA(path string) ([]fastaSeq, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		out     []fastaSeq
		cur     fastaSeq
		hasCur  bool
		builder strings.Builder
	)
	flush := func() {
		if hasCur {
			cur.seq = builder.String()
			out = append(out, cur)
			builder.Reset()
		}
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if line[0] == '>' {
			flush()
			cur = fastaSeq{name: strings.TrimPrefix(line, ">")}
			hasCur = true
			continue
		}
		builder.WriteString(strings.TrimSpace(line))
	}
	flush()
	return out, scanner.Err()
}

func outputPath(outDir, fastaPath string) string {
	base := filepath.Base(fastaPath)
	ext := filepath.Ext(base)
	if ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return filepath.Join(outDir, base+".ich")
}

func packFile(lo logf.Logger, outDir, path string) error {
	seqs, err := readFASTA(path)
	if err != nil {
		return fmt.Errorf("reading %q: %w", path, err)
	}
	if len(seqs) == 0 {
		return fmt.Errorf("no sequences found in %q", path)
	}

	records := make([]container.Record, len(seqs))
	var totalBases, compressedSize uint64
	for i, s := range seqs {
		clean := strings.ToUpper(s.seq)
		records[i] = container.Record{
			Name:    s.name,
			Length:  len(clean),
			Payload: codec.Encode([]byte(clean)),
		}
		totalBases += uint64(len(clean))
		compressedSize += uint64(len(records[i].Payload))
	}

	dst := outputPath(outDir, path)
	if err := container.WriteFile(dst, records); err != nil {
		return fmt.Errorf("writing container %q: %w", dst, err)
	}

	ratio := float64(0)
	if compressedSize > 0 {
		ratio = float64(totalBases) / float64(compressedSize)
	}
	lo.Info("packed",
		"source", path,
		"dest", dst,
		"sequences", len(records),
		"total_bases", totalBases,
		"compressed_bytes", compressedSize,
		"ratio", ratio,
	)
	return nil
}

func main() {
	lo := logf.New(logf.Opts{})

	ko, files, err := initConfig()
	if err != nil {
		lo.Error("config error", "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: dna-pack [--config pack.toml] [--out-dir dir] file.fasta [file2.fasta ...]")
		os.Exit(1)
	}

	outDir := ko.String("out-dir")
	if outDir == "" {
		outDir = "."
	}

	exitCode := 0
	for _, path := range files {
		if err := packFile(lo, outDir, path); err != nil {
			lo.Error("pack failure", "file", path, "error", err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}
