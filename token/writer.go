package token

import (
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrUnsupportedValue is returned for floats JSON cannot represent.
var ErrUnsupportedValue = errors.New("unsupported value")

// Sink is the token emitter the conversion engine writes to. ShouldSuspend
// is the back-pressure query checked between members.
type Sink interface {
	BeginObject()
	EndObject()
	BeginArray()
	EndArray()
	Name(name string)
	QuotedName(quoted []byte)
	String(s string)
	Int(v int64)
	Uint(v uint64)
	Float(v float64, bits int) error
	Bool(v bool)
	Null()
	Raw(v []byte)
	ShouldSuspend() bool
}

var _ Sink = (*Writer)(nil)

// Writer emits JSON tokens into a growable buffer.
//
// Separators and indentation are derived from the token sequence; callers
// only issue structural and value tokens. Top-level values written one
// after another are separated by newlines.
type Writer struct {
	buf       []byte
	threshold int
	indent    string
	depth     int
	comma     bool
	afterKey  bool
	flushed   int64
}

// NewWriter creates a Writer. threshold is the buffer length at which
// ShouldSuspend reports true; zero disables suspension. A non-empty indent
// enables pretty printing.
func NewWriter(threshold int, indent string) *Writer {
	return &Writer{
		buf:       make([]byte, 0, max(threshold, 64)),
		threshold: threshold,
		indent:    indent,
	}
}

// ShouldSuspend reports whether the buffer reached the flush threshold.
func (w *Writer) ShouldSuspend() bool {
	return w.threshold > 0 && len(w.buf) >= w.threshold
}

// Bytes returns the buffered output.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len is the number of buffered bytes.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Reset drops the buffered output, keeping the structural state so writing
// can continue where it left off.
func (w *Writer) Reset() {
	w.flushed += int64(len(w.buf))
	w.buf = w.buf[:0]
}

// Flush writes the buffered output to out and resets the buffer.
func (w *Writer) Flush(out io.Writer) error {
	if len(w.buf) == 0 {
		return nil
	}
	_, err := out.Write(w.buf)
	if err != nil {
		return err
	}
	w.Reset()
	return nil
}

// Offset is the total number of bytes emitted, flushed or not.
func (w *Writer) Offset() int64 {
	return w.flushed + int64(len(w.buf))
}

// Depth is the current nesting depth.
func (w *Writer) Depth() int {
	return w.depth
}

func (w *Writer) sep() {
	if w.afterKey {
		w.afterKey = false
		return
	}
	if w.comma {
		if w.depth == 0 {
			w.buf = append(w.buf, '\n')
			return
		}
		w.buf = append(w.buf, ',')
	}
	if w.indent != "" && w.depth > 0 {
		w.newline(w.depth)
	}
}

// Newline ends a complete top-level value with a newline, so the next
// value needs no separator.
func (w *Writer) Newline() {
	if w.depth == 0 && w.comma {
		w.buf = append(w.buf, '\n')
		w.comma = false
	}
}

func (w *Writer) newline(depth int) {
	w.buf = append(w.buf, '\n')
	w.buf = append(w.buf, strings.Repeat(w.indent, depth)...)
}

func (w *Writer) begin(c byte) {
	w.sep()
	w.buf = append(w.buf, c)
	w.depth++
	w.comma = false
}

func (w *Writer) end(c byte) {
	w.depth--
	if w.comma && w.indent != "" {
		w.newline(w.depth)
	}
	w.buf = append(w.buf, c)
	w.comma = true
}

// BeginObject writes '{'.
func (w *Writer) BeginObject() { w.begin('{') }

// EndObject writes '}'.
func (w *Writer) EndObject() { w.end('}') }

// BeginArray writes '['.
func (w *Writer) BeginArray() { w.begin('[') }

// EndArray writes ']'.
func (w *Writer) EndArray() { w.end(']') }

// Name writes a property name and its colon.
func (w *Writer) Name(name string) {
	w.sep()
	w.buf = AppendQuote(w.buf, name)
	w.colon()
}

// QuotedName writes a property name that is already a quoted JSON string.
func (w *Writer) QuotedName(quoted []byte) {
	w.sep()
	w.buf = append(w.buf, quoted...)
	w.colon()
}

func (w *Writer) colon() {
	w.buf = append(w.buf, ':')
	if w.indent != "" {
		w.buf = append(w.buf, ' ')
	}
	w.afterKey = true
	w.comma = false
}

func (w *Writer) value() {
	w.comma = true
}

// String writes a string value.
func (w *Writer) String(s string) {
	w.sep()
	w.buf = AppendQuote(w.buf, s)
	w.value()
}

// Int writes a signed integer.
func (w *Writer) Int(v int64) {
	w.sep()
	w.buf = strconv.AppendInt(w.buf, v, 10)
	w.value()
}

// Uint writes an unsigned integer.
func (w *Writer) Uint(v uint64) {
	w.sep()
	w.buf = strconv.AppendUint(w.buf, v, 10)
	w.value()
}

// Float writes a float with the shortest representation for its bit size.
func (w *Writer) Float(v float64, bits int) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrUnsupportedValue
	}
	w.sep()
	abs := math.Abs(v)
	f := byte('f')
	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) || bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			f = 'e'
		}
	}
	w.buf = strconv.AppendFloat(w.buf, v, f, -1, bits)
	if f == 'e' {
		// e-09 to e-9
		n := len(w.buf)
		if n >= 4 && w.buf[n-4] == 'e' && w.buf[n-3] == '-' && w.buf[n-2] == '0' {
			w.buf[n-2] = w.buf[n-1]
			w.buf = w.buf[:n-1]
		}
	}
	w.value()
	return nil
}

// Bool writes true or false.
func (w *Writer) Bool(v bool) {
	w.sep()
	if v {
		w.buf = append(w.buf, "true"...)
	} else {
		w.buf = append(w.buf, "false"...)
	}
	w.value()
}

// Null writes null.
func (w *Writer) Null() {
	w.sep()
	w.buf = append(w.buf, "null"...)
	w.value()
}

// Raw writes a pre-encoded scalar value verbatim.
func (w *Writer) Raw(v []byte) {
	w.sep()
	w.buf = append(w.buf, v...)
	w.value()
}
