package stream

import (
	"context"
	"io"
	"reflect"

	"github.com/signadot/rjson/convert"
	"github.com/signadot/rjson/token"
)

// Encoder writes a sequence of JSON values to an io.Writer, one per line.
type Encoder struct {
	writer  io.Writer
	opts    *streamOpts
	tw      *token.Writer
	flushes int
	err     error
}

// NewEncoder creates a new Encoder writing to w.
func NewEncoder(w io.Writer, opts ...StreamOption) (*Encoder, error) {
	o, err := newOpts(opts)
	if err != nil {
		return nil, err
	}
	return &Encoder{
		writer: w,
		opts:   o,
		tw:     token.NewWriter(o.threshold, o.indent),
	}, nil
}

// Reset makes e write to w as if newly created.
func (e *Encoder) Reset(w io.Writer) {
	*e = Encoder{writer: w, opts: e.opts, tw: token.NewWriter(e.opts.threshold, e.opts.indent)}
}

// Encode writes v followed by a newline. Whenever the buffered output
// reaches the flush threshold conversion suspends, the buffer is written
// out and conversion resumes. The context is checked before every flush.
func (e *Encoder) Encode(ctx context.Context, v any) error {
	if e.err != nil {
		return e.err
	}
	rv := reflect.ValueOf(&v).Elem()
	if v != nil {
		rv = rv.Elem()
	}
	ti, err := e.opts.registry.TypeOf(rv.Type())
	if err != nil {
		return err
	}
	st, err := convert.NewWriteStack(ti, rv, e.opts.convert)
	if err != nil {
		return err
	}
	for {
		status, err := convert.Write(st, e.tw)
		if err != nil {
			e.tw.Reset()
			return e.fail(err)
		}
		if status == convert.Complete {
			break
		}
		if err := ctx.Err(); err != nil {
			return e.fail(err)
		}
		if err := e.flush(); err != nil {
			return err
		}
	}
	e.tw.Newline()
	return e.flush()
}

func (e *Encoder) flush() error {
	if e.tw.Len() == 0 {
		return nil
	}
	e.flushes++
	if err := e.tw.Flush(e.writer); err != nil {
		return e.fail(err)
	}
	return nil
}

// An error leaves the output mid value, so it sticks.
func (e *Encoder) fail(err error) error {
	e.err = err
	return err
}

// Offset is the number of bytes written so far.
func (e *Encoder) Offset() int64 {
	return e.tw.Offset()
}

// Flushes is the number of writes issued to the underlying writer.
func (e *Encoder) Flushes() int {
	return e.flushes
}
