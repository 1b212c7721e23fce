package convert

import (
	"log/slog"

	"github.com/signadot/rjson/typemodel"
)

// Status is the outcome of one Read or Write call.
type Status int

const (
	// Complete means the root value is fully converted.
	Complete Status = iota
	// Incomplete means the operation is suspended and the same stack must
	// be passed again once more input is available or output was flushed.
	Incomplete
)

func (s Status) String() string {
	if s == Complete {
		return "complete"
	}
	return "incomplete"
}

// Options configures a conversion.
type Options struct {
	// CaseInsensitive matches property and parameter names ignoring case.
	CaseInsensitive bool
	// IgnoreParameterDefaults passes zero values for absent constructor
	// parameters instead of their registered defaults.
	IgnoreParameterDefaults bool
	// RequireConstructorArgs makes every absent constructor parameter a
	// MissingRequiredDataError.
	RequireConstructorArgs bool
	// DisallowUnknownFields makes fields matching no property an error for
	// types without an extension property.
	DisallowUnknownFields bool
	// UseNumber decodes numbers into dynamic values as json.Number.
	UseNumber bool
	// KeyPolicy transforms dictionary keys when writing. Keys are read
	// as written; the policy is not applied, or inverted, on read.
	KeyPolicy typemodel.NamingPolicy
	// Logger receives debug events. Nil discards them.
	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return discard
	}
	return o.Logger
}

var discard = slog.New(slog.DiscardHandler)
