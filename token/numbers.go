package token

import (
	"fmt"
	"strconv"
)

func asciiDigits(d []byte) int {
	i := 0
	for i < len(d) {
		if !asciiDigit(d[i]) {
			return i
		}
		i++
	}
	return i
}

func asciiDigit(c byte) bool {
	switch c {
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return true
	default:
		return false
	}
}

// Int returns the current number token as an int64 of the given bit size.
func (r *Reader) Int(bits int) (int64, error) {
	if r.typ != TInteger {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrNumber, r.Bytes())
	}
	return strconv.ParseInt(string(r.Bytes()), 10, bits)
}

// Uint returns the current number token as a uint64 of the given bit size.
func (r *Reader) Uint(bits int) (uint64, error) {
	if r.typ != TInteger {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrNumber, r.Bytes())
	}
	return strconv.ParseUint(string(r.Bytes()), 10, bits)
}

// Float returns the current number token as a float of the given bit size.
func (r *Reader) Float(bits int) (float64, error) {
	if !r.typ.IsNumber() {
		return 0, fmt.Errorf("%w: %s is not a number", ErrNumber, r.Bytes())
	}
	return strconv.ParseFloat(string(r.Bytes()), bits)
}
