package main

import (
	"fmt"
	"io"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/scott-cotton/cli"

	"github.com/signadot/rjson/stream"
)

func eval(cfg *EvalConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Eval.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.E == "" {
		return fmt.Errorf("%w: eval requires -e <expr>", cli.ErrUsage)
	}
	prg, err := expr.Compile(cfg.E, expr.Env(evalEnv(nil, 0)))
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	return eachInput(cfg.MainConfig, cc, args, func(_ string, r io.Reader) error {
		return evalReader(cfg, cc.Out, r, prg)
	})
}

func evalEnv(doc any, i int) map[string]any {
	return map[string]any{
		"doc":   doc,
		"index": i,
	}
}

func evalReader(cfg *EvalConfig, w io.Writer, r io.Reader, prg *vm.Program) error {
	dec, err := stream.NewDecoder(r, cfg.decOpts()...)
	if err != nil {
		return err
	}
	enc, err := stream.NewEncoder(w, cfg.encOpts("")...)
	if err != nil {
		return err
	}
	for i := 0; ; i++ {
		var v any
		err := dec.Decode(cfg.ctx, &v)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error decoding value %d: %w", i, err)
		}
		res, err := expr.Run(prg, evalEnv(v, i))
		if err != nil {
			return fmt.Errorf("error evaluating value %d: %w", i, err)
		}
		if err := enc.Encode(cfg.ctx, res); err != nil {
			return fmt.Errorf("error encoding result %d: %w", i, err)
		}
	}
}
