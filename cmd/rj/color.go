package main

import (
	"io"

	"github.com/fatih/color"

	"github.com/signadot/rjson/token"
)

var (
	keyColor     = color.New(color.FgBlue).SprintFunc()
	stringColor  = color.New(color.FgGreen).SprintFunc()
	numberColor  = color.New(color.FgCyan).SprintFunc()
	literalColor = color.New(color.FgMagenta).SprintFunc()
)

// colorize copies one encoded value to w, coloring names and scalars.
// Punctuation and whitespace are copied as they are.
func colorize(w io.Writer, data []byte) error {
	out := make([]byte, 0, len(data)+len(data)/2)
	r := token.NewReader(data, true, token.State{})
	last := 0
	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		start := int(r.TokenOffset())
		var paint func(...any) string
		end := start + len(r.Bytes())
		switch r.Type() {
		case token.TKey:
			paint, end = keyColor, end+2
		case token.TString:
			paint, end = stringColor, end+2
		case token.TInteger, token.TFloat:
			paint = numberColor
		case token.TTrue, token.TFalse, token.TNull:
			paint = literalColor
		default:
			continue
		}
		out = append(out, data[last:start]...)
		out = append(out, paint(string(data[start:end]))...)
		last = end
	}
	out = append(out, data[last:]...)
	_, err := w.Write(out)
	return err
}
