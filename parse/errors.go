package parse

import (
	"errors"
	"fmt"
)

// Kinds of parse failure. Use errors.Is against these.
var (
	ErrXMLParse  = errors.New("XML parse error")
	ErrNoPoints  = errors.New("no location points found")
	ErrNoGPSData = errors.New("no GPS data found")
)

// ParseError is returned for malformed or empty activity files.
// It is fatal to the upload and its message is meant to be shown to the user as-is.
type ParseError struct {
	Format string // "TCX" or "GPX"
	Kind   error
	// Detail overrides Kind's text in the message, eg. "no trackpoints found".
	Detail string
	// Cause is the underlying decoder error, if any.
	Cause error
}

func (e *ParseError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = e.Kind.Error()
	}
	return fmt.Sprintf("Invalid %s file: %s", e.Format, detail)
}

func (e *ParseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}
