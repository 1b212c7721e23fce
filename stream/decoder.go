package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/signadot/rjson/convert"
	"github.com/signadot/rjson/debug"
	"github.com/signadot/rjson/token"
)

// Decoder reads a sequence of JSON values from an io.Reader. Values may be
// separated by whitespace, as in newline delimited JSON.
type Decoder struct {
	r    io.Reader
	opts *streamOpts

	// buf[off:end] is the unconsumed input; state is the reader state at
	// buf[off].
	buf   []byte
	off   int
	end   int
	eof   bool
	state token.State
	after bool
	rd    token.Reader

	reads int
	err   error
}

// NewDecoder creates a new Decoder reading from r.
func NewDecoder(r io.Reader, opts ...StreamOption) (*Decoder, error) {
	o, err := newOpts(opts)
	if err != nil {
		return nil, err
	}
	return &Decoder{
		r:    r,
		opts: o,
		buf:  make([]byte, o.chunkSize),
	}, nil
}

// Reset makes d read from r as if newly created, keeping its buffer.
func (d *Decoder) Reset(r io.Reader) {
	*d = Decoder{r: r, opts: d.opts, buf: d.buf}
}

// Decode reads the next value into v, which must be a non-nil pointer. It
// returns io.EOF when only whitespace remains. The context is checked
// before every read from the underlying reader.
func (d *Decoder) Decode(ctx context.Context, v any) error {
	if d.err != nil {
		return d.err
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &Error{Msg: fmt.Sprintf("stream: Decode needs a non-nil pointer, got %T", v)}
	}
	ti, err := d.opts.registry.TypeOf(rv.Type().Elem())
	if err != nil {
		return err
	}
	if err := d.begin(ctx); err != nil {
		return err
	}
	st, err := convert.NewReadStack(ti, rv.Elem(), d.opts.convert)
	if err != nil {
		return err
	}
	defer st.Release()
	for {
		d.rd.Reset(d.buf[d.off:d.end], d.eof, d.state)
		status, err := convert.Read(st, &d.rd)
		if err != nil {
			return d.fail(err)
		}
		d.off += d.rd.Consumed()
		d.state = d.rd.State()
		if status == convert.Complete {
			d.after = true
			return nil
		}
		if d.eof {
			return d.fail(io.ErrUnexpectedEOF)
		}
		if err := d.fill(ctx); err != nil {
			return d.fail(err)
		}
	}
}

// begin positions d at the start of the next value, returning io.EOF when
// there is none.
func (d *Decoder) begin(ctx context.Context) error {
	if d.after {
		d.state = d.state.Next()
		d.after = false
	}
	for len(bytes.TrimLeft(d.buf[d.off:d.end], " \t\r\n")) == 0 {
		if d.eof {
			return io.EOF
		}
		if err := d.fill(ctx); err != nil {
			return d.fail(err)
		}
	}
	return nil
}

// Finish verifies that nothing but whitespace follows the last decoded
// value.
func (d *Decoder) Finish(ctx context.Context) error {
	if d.err != nil {
		return d.err
	}
	if !d.after {
		return nil
	}
	for {
		d.rd.Reset(d.buf[d.off:d.end], d.eof, d.state)
		_, err := d.rd.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return d.fail(err)
		}
		if err := d.fill(ctx); err != nil {
			return d.fail(err)
		}
	}
}

// fill moves the unconsumed input to the front of the buffer and reads
// more after it, growing the buffer when the unconsumed input fills it.
func (d *Decoder) fill(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.off > 0 {
		d.end = copy(d.buf, d.buf[d.off:d.end])
		d.off = 0
	}
	if len(d.buf)-d.end < max(d.opts.chunkSize/2, 1) {
		grown := make([]byte, len(d.buf)+d.opts.chunkSize)
		copy(grown, d.buf[:d.end])
		d.buf = grown
		if debug.Suspend() {
			debug.Logf("stream: buffer grown to %d bytes at offset %d\n", len(d.buf), d.state.Offset())
		}
	}
	n, err := d.r.Read(d.buf[d.end:min(len(d.buf), d.end+d.opts.chunkSize)])
	d.end += n
	d.reads++
	if err == io.EOF {
		d.eof = true
		return nil
	}
	return err
}

func (d *Decoder) fail(err error) error {
	if err != io.EOF {
		d.err = err
	}
	return err
}

// InputOffset is the absolute input offset just past the last decoded
// value.
func (d *Decoder) InputOffset() int64 {
	return d.state.Offset()
}

// Buffered returns the input read from the underlying reader but not yet
// decoded.
func (d *Decoder) Buffered() io.Reader {
	return bytes.NewReader(d.buf[d.off:d.end])
}

// Reads is the number of reads issued to the underlying reader.
func (d *Decoder) Reads() int {
	return d.reads
}
