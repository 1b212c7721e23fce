package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/scott-cotton/cli"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// eachInput calls fn with every input named in args, or with standard
// input when there are none. "-" also names standard input.
func eachInput(cfg *MainConfig, cc *cli.Context, args []string, fn func(name string, r io.Reader) error) error {
	if len(args) == 0 {
		args = []string{"-"}
	}
	for _, file := range args {
		if err := withInput(cfg, cc, file, fn); err != nil {
			return err
		}
	}
	return nil
}

func withInput(cfg *MainConfig, cc *cli.Context, file string, fn func(string, io.Reader) error) error {
	var r io.Reader = cc.In
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("could not open %q: %w", file, err)
		}
		defer f.Close()
		r = f
	}
	if cfg.Z {
		dr, closer, err := decompress(r)
		if err != nil {
			return fmt.Errorf("error decompressing %s: %w", file, err)
		}
		defer closer()
		r = dr
	}
	if err := fn(file, r); err != nil {
		return fmt.Errorf("error processing %s: %w", file, err)
	}
	return nil
}

// decompress sniffs r for a gzip or zstd header. Input with neither is
// passed through.
func decompress(r io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, nil, err
	}
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { zr.Close() }, nil
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	}
	theLog.Debug("input is not compressed")
	return br, func() {}, nil
}
