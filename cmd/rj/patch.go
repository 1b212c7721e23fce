package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/scott-cotton/cli"

	"github.com/signadot/rjson"
	"github.com/signadot/rjson/stream"
)

func patch(cfg *PatchConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Patch.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.P == "" {
		return fmt.Errorf("%w: patch requires -p <patchfile>", cli.ErrUsage)
	}
	p, err := os.ReadFile(cfg.P)
	if err != nil {
		return err
	}
	apply, err := patcher(cfg, p)
	if err != nil {
		return fmt.Errorf("error reading patch %s: %w", cfg.P, err)
	}
	return eachInput(cfg.MainConfig, cc, args, func(_ string, r io.Reader) error {
		return patchReader(cfg, cc.Out, r, apply)
	})
}

// patcher returns the function applying patch p: a merge patch when p is
// an object or -m is given, otherwise a JSON patch operation list.
func patcher(cfg *PatchConfig, p []byte) (func([]byte) ([]byte, error), error) {
	var v any
	if err := rjson.Unmarshal(p, &v, rjson.UseNumber(true)); err != nil {
		return nil, err
	}
	if _, isObj := v.(map[string]any); isObj || cfg.Merge {
		theLog.Debug("applying merge patch", "file", cfg.P)
		return func(doc []byte) ([]byte, error) {
			return jsonpatch.MergePatch(doc, p)
		}, nil
	}
	ops, err := jsonpatch.DecodePatch(p)
	if err != nil {
		return nil, err
	}
	theLog.Debug("applying json patch", "file", cfg.P, "ops", len(ops))
	return ops.Apply, nil
}

func patchReader(cfg *PatchConfig, w io.Writer, r io.Reader, apply func([]byte) ([]byte, error)) error {
	dec, err := stream.NewDecoder(r, append(cfg.decOpts(), stream.WithUseNumber())...)
	if err != nil {
		return err
	}
	enc, err := stream.NewEncoder(w, cfg.encOpts("  ")...)
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
		doc, err := rjson.Marshal(v)
		if err != nil {
			return err
		}
		res, err := apply(doc)
		if err != nil {
			return fmt.Errorf("error patching value %d: %w", i, err)
		}
		var out any
		if err := rjson.Unmarshal(bytes.TrimSpace(res), &out, rjson.UseNumber(true)); err != nil {
			return fmt.Errorf("error reading patched value %d: %w", i, err)
		}
		if err := enc.Encode(cfg.ctx, out); err != nil {
			return err
		}
	}
}
