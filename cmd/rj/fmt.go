package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/scott-cotton/cli"

	"github.com/signadot/rjson/stream"
)

func format(cfg *FmtConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Fmt.Parse(cc, args)
	if err != nil {
		return err
	}
	colored := cfg.colors(cc.Out)
	return eachInput(cfg.MainConfig, cc, args, func(_ string, r io.Reader) error {
		return formatReader(cfg, cc.Out, r, colored)
	})
}

func formatReader(cfg *FmtConfig, w io.Writer, r io.Reader, colored bool) error {
	decOpts := cfg.decOpts()
	if cfg.Number && !cfg.Y {
		decOpts = append(decOpts, stream.WithUseNumber())
	}
	dec, err := stream.NewDecoder(r, decOpts...)
	if err != nil {
		return err
	}
	var (
		buf bytes.Buffer
		out = w
	)
	if colored {
		out = &buf
	}
	enc, err := stream.NewEncoder(out, cfg.encOpts(cfg.Indent)...)
	if err != nil {
		return err
	}
	for i := 0; ; i++ {
		var v any
		err := dec.Decode(cfg.ctx, &v)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error decoding value %d: %w", i, err)
		}
		if cfg.Y {
			if err := writeYAML(w, v, i); err != nil {
				return err
			}
			continue
		}
		if err := enc.Encode(cfg.ctx, v); err != nil {
			return fmt.Errorf("error encoding value %d: %w", i, err)
		}
		if colored {
			if err := colorize(w, buf.Bytes()); err != nil {
				return err
			}
			buf.Reset()
		}
	}
}

func writeYAML(w io.Writer, v any, i int) error {
	d, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("error encoding value %d as yaml: %w", i, err)
	}
	if i > 0 {
		if _, err := io.WriteString(w, "---\n"); err != nil {
			return err
		}
	}
	_, err = w.Write(d)
	return err
}
