package main

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/scott-cotton/cli"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/signadot/rjson/stream"
)

func check(cfg *CheckConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Check.Parse(cc, args)
	if err != nil {
		return err
	}
	chunks, err := parseChunks(cfg.Chunks)
	if err != nil {
		return err
	}
	failed := false
	err = eachInput(cfg.MainConfig, cc, args, func(name string, r io.Reader) error {
		ok, err := checkReader(cfg, cc.Out, name, r, chunks)
		if !ok {
			failed = true
		}
		return err
	})
	if err != nil {
		return err
	}
	if failed {
		return cli.ExitCodeErr(1)
	}
	return nil
}

func parseChunks(s string) ([]int, error) {
	var res []int
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: bad chunk size %q", cli.ErrUsage, f)
		}
		res = append(res, n)
	}
	return res, nil
}

// checkReader decodes the input whole and then with every chunk size,
// comparing the re-encoded results, or the errors when decoding fails.
func checkReader(cfg *CheckConfig, w io.Writer, name string, r io.Reader, chunks []int) (bool, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return false, err
	}
	want := roundTrip(cfg, data, len(data)+1)
	ok := true
	for _, n := range chunks {
		got := roundTrip(cfg, data, n)
		if got == want {
			theLog.Debug("chunked decoding matches", "input", name, "chunk", n)
			continue
		}
		ok = false
		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(want, got, true)
		fmt.Fprintf(w, "%s: chunk size %d differs from whole input:\n%s\n", name, n, dmp.DiffPrettyText(diffs))
	}
	if ok {
		fmt.Fprintf(w, "%s: ok\n", name)
	}
	return ok, nil
}

// roundTrip decodes every value of data in chunks of n bytes and encodes
// them again. A failure is rendered into the result.
func roundTrip(cfg *CheckConfig, data []byte, n int) string {
	var out bytes.Buffer
	dec, err := stream.NewDecoder(bytes.NewReader(data), append(cfg.decOpts(), stream.WithChunkSize(n), stream.WithUseNumber())...)
	if err != nil {
		return "error: " + err.Error()
	}
	enc, err := stream.NewEncoder(&out, cfg.encOpts("")...)
	if err != nil {
		return "error: " + err.Error()
	}
	for {
		var v any
		err := dec.Decode(cfg.ctx, &v)
		if err == io.EOF {
			return out.String()
		}
		if err == nil {
			err = enc.Encode(cfg.ctx, v)
		}
		if err != nil {
			return out.String() + "error: " + err.Error() + "\n"
		}
	}
}
