package main

import (
	"context"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"

	"github.com/signadot/rjson/stream"
)

type MainConfig struct {
	Z       bool `cli:"name=z desc='decompress gzip or zstd input'"`
	Gops    bool `cli:"name=gops desc='start a gops diagnostics agent'"`
	Verbose bool `cli:"name=v aliases=verbose desc='log conversion events'"`
	Color   bool `cli:"name=color desc='color output'"`
	Chunk   int  `cli:"name=chunk desc='input chunk size in bytes'"`
	Flush   int  `cli:"name=flush desc='output flush threshold in bytes'"`

	Out      string
	CloseOut func() error

	Main *cli.Command
	ctx  context.Context
}

func (cfg *MainConfig) decOpts() []stream.StreamOption {
	opts := []stream.StreamOption{stream.WithLogger(theLog)}
	if cfg.Chunk > 0 {
		opts = append(opts, stream.WithChunkSize(cfg.Chunk))
	}
	return opts
}

func (cfg *MainConfig) encOpts(indent string) []stream.StreamOption {
	opts := []stream.StreamOption{stream.WithLogger(theLog), stream.WithIndent(indent)}
	if cfg.Flush > 0 {
		opts = append(opts, stream.WithFlushThreshold(cfg.Flush))
	}
	return opts
}

// colors reports whether output to w is colored: always with -color,
// otherwise when w is a terminal and -color was not set to false.
func (cfg *MainConfig) colors(w io.Writer) bool {
	if cfg.Color {
		color.NoColor = false
		return true
	}
	for _, opt := range cfg.Main.Opts {
		if opt.Name == "color" && opt.Value != nil {
			return false
		}
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

type FmtConfig struct {
	*MainConfig
	Indent string `cli:"name=indent desc='indent unit, empty for compact output'"`
	Y      bool   `cli:"name=y aliases=yaml desc='output yaml'"`
	Number bool   `cli:"name=n desc='keep numbers exactly as written'"`

	Fmt *cli.Command
}

type CheckConfig struct {
	*MainConfig
	Chunks string `cli:"name=chunks desc='comma separated chunk sizes to compare'"`

	Check *cli.Command
}

type PatchConfig struct {
	*MainConfig
	P     string `cli:"name=p desc='patch file'"`
	Merge bool   `cli:"name=m aliases=merge desc='treat the patch as a merge patch'"`

	Patch *cli.Command
}

type EvalConfig struct {
	*MainConfig
	E string `cli:"name=e desc='expression'"`

	Eval *cli.Command
}
