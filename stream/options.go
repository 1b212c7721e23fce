package stream

import (
	"log/slog"

	"github.com/signadot/rjson/convert"
	"github.com/signadot/rjson/typemodel"
)

const (
	DefaultChunkSize      = 32 << 10
	DefaultFlushThreshold = 32 << 10
)

// StreamOption configures Encoder/Decoder behavior.
type StreamOption func(*streamOpts)

type streamOpts struct {
	chunkSize int
	threshold int
	indent    string
	registry  *typemodel.Registry
	convert   convert.Options
}

func newOpts(opts []StreamOption) (*streamOpts, error) {
	o := &streamOpts{
		chunkSize: DefaultChunkSize,
		threshold: DefaultFlushThreshold,
		registry:  typemodel.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.chunkSize < 1 {
		return nil, &Error{Msg: "stream: chunk size must be positive"}
	}
	if o.threshold < 0 {
		return nil, &Error{Msg: "stream: flush threshold must not be negative"}
	}
	if o.registry == nil {
		return nil, &Error{Msg: "stream: nil registry"}
	}
	return o, nil
}

// WithChunkSize sets how many bytes a Decoder requests from its reader at
// a time. Tokens longer than a chunk grow the buffer.
func WithChunkSize(n int) StreamOption {
	return func(o *streamOpts) { o.chunkSize = n }
}

// WithFlushThreshold sets the buffered output size at which an Encoder
// suspends conversion and flushes. Zero buffers each value whole.
func WithFlushThreshold(n int) StreamOption {
	return func(o *streamOpts) { o.threshold = n }
}

// WithIndent enables pretty printing with the given indent unit.
func WithIndent(indent string) StreamOption {
	return func(o *streamOpts) { o.indent = indent }
}

// WithRegistry sets the registry describing decoded and encoded types.
func WithRegistry(r *typemodel.Registry) StreamOption {
	return func(o *streamOpts) { o.registry = r }
}

// WithCaseInsensitive matches names ignoring case.
func WithCaseInsensitive() StreamOption {
	return func(o *streamOpts) { o.convert.CaseInsensitive = true }
}

// WithDisallowUnknownFields rejects fields that match nothing.
func WithDisallowUnknownFields() StreamOption {
	return func(o *streamOpts) { o.convert.DisallowUnknownFields = true }
}

// WithUseNumber decodes numbers in dynamic values as json.Number.
func WithUseNumber() StreamOption {
	return func(o *streamOpts) { o.convert.UseNumber = true }
}

// WithRequireConstructorArgs makes absent constructor parameters an error.
func WithRequireConstructorArgs() StreamOption {
	return func(o *streamOpts) { o.convert.RequireConstructorArgs = true }
}

// WithIgnoreParameterDefaults passes zero values for absent constructor
// parameters.
func WithIgnoreParameterDefaults() StreamOption {
	return func(o *streamOpts) { o.convert.IgnoreParameterDefaults = true }
}

// WithKeyPolicy transforms dictionary keys on output.
func WithKeyPolicy(p typemodel.NamingPolicy) StreamOption {
	return func(o *streamOpts) { o.convert.KeyPolicy = p }
}

// WithLogger sets the logger receiving conversion events.
func WithLogger(l *slog.Logger) StreamOption {
	return func(o *streamOpts) { o.convert.Logger = l }
}

// WithOptions replaces the conversion options wholesale.
func WithOptions(c convert.Options) StreamOption {
	return func(o *streamOpts) { o.convert = c }
}
