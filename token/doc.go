// Package token provides resumable tokenization and token emission for JSON.
//
// [Reader] is a pull tokenizer over a single block of bytes. When the block
// does not hold a complete token, [Reader.Read] reports that more input is
// needed without consuming anything. The reader's [State] can be carried to
// a new Reader over the next block, so a document can be tokenized in
// arbitrary chunks.
//
// [Writer] is a push emitter into a growable buffer. It handles separators
// and indentation and reports through [Writer.ShouldSuspend] when its buffer
// has reached the flush threshold.
package token
