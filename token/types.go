package token

// TokenType is the kind of a JSON token.
type TokenType int

const (
	TNone TokenType = iota
	TLCurl
	TRCurl
	TLSquare
	TRSquare
	TKey
	TString
	TInteger
	TFloat
	TTrue
	TFalse
	TNull
)

func (t TokenType) String() string {
	switch t {
	case TNone:
		return "TNone"
	case TLCurl:
		return "TLCurl"
	case TRCurl:
		return "TRCurl"
	case TLSquare:
		return "TLSquare"
	case TRSquare:
		return "TRSquare"
	case TKey:
		return "TKey"
	case TString:
		return "TString"
	case TInteger:
		return "TInteger"
	case TFloat:
		return "TFloat"
	case TTrue:
		return "TTrue"
	case TFalse:
		return "TFalse"
	case TNull:
		return "TNull"
	default:
		return "TUnknown"
	}
}

// IsBegin reports whether t opens a container.
func (t TokenType) IsBegin() bool {
	return t == TLCurl || t == TLSquare
}

// IsEnd reports whether t closes a container.
func (t TokenType) IsEnd() bool {
	return t == TRCurl || t == TRSquare
}

// IsNumber reports whether t is a number token.
func (t TokenType) IsNumber() bool {
	return t == TInteger || t == TFloat
}

// IsScalar reports whether t is a complete value on its own.
func (t TokenType) IsScalar() bool {
	switch t {
	case TString, TInteger, TFloat, TTrue, TFalse, TNull:
		return true
	default:
		return false
	}
}

// Describe gives a short human name for t, used in error messages.
func (t TokenType) Describe() string {
	switch t {
	case TLCurl:
		return "object"
	case TRCurl:
		return "end of object"
	case TLSquare:
		return "array"
	case TRSquare:
		return "end of array"
	case TKey:
		return "property name"
	case TString:
		return "string"
	case TInteger, TFloat:
		return "number"
	case TTrue, TFalse:
		return "boolean"
	case TNull:
		return "null"
	default:
		return "nothing"
	}
}
