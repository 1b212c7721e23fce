// Package convert is the resumable conversion engine between JSON tokens
// and Go object graphs.
//
// Conversion state lives in an explicit stack of frames, one per value
// being converted, instead of on the Go call stack. [Read] pulls tokens
// from a [token.Reader] and [Write] pushes tokens into a [token.Sink];
// both return [Incomplete] when the reader runs out of bytes or the sink
// asks to be flushed. The caller then supplies more input, or flushes, and
// calls again with the same stack. A suspended operation resumes exactly
// where it stopped, so the result never depends on how input was split or
// how often output was flushed.
//
// Objects built by a registered constructor are read in two phases. Fields
// naming constructor parameters are decoded into staged arguments while
// every other field is skipped and its byte range retained. Once all
// arguments are known, or the object ends, the constructor runs and the
// retained fields are replayed onto the new instance.
package convert
