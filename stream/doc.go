// Package stream drives the conversion engine over io.Reader and io.Writer.
//
// A Decoder reads its input in chunks into one recycled buffer. Each chunk
// is handed to the engine as a token block; when the engine reports that a
// value is incomplete the unconsumed tail is moved to the front of the
// buffer and more input is appended. An Encoder flushes its token buffer
// to the writer whenever the engine suspends.
//
// # Example: Decoding
//
//	dec, err := stream.NewDecoder(r, stream.WithChunkSize(64<<10))
//	if err != nil {
//	    return err
//	}
//	for {
//	    var v Event
//	    err := dec.Decode(ctx, &v)
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    handle(v)
//	}
//
// # Example: Encoding
//
//	enc, err := stream.NewEncoder(w, stream.WithIndent("  "))
//	if err != nil {
//	    return err
//	}
//	if err := enc.Encode(ctx, v); err != nil {
//	    return err
//	}
//
// Decoded values are only stored once complete: a Decode that fails leaves
// its destination untouched.
package stream
