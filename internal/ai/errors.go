package ai

import "errors"

// ParseError reports a model response that could not be turned into a
// complete set of tag assignments for a batch.
type ParseError struct {
	Reason string
	Raw    string // response snippet, for logs
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return "unparseable model response: " + e.Reason
}

// IsParseError checks whether err came from response parsing
func IsParseError(err error) bool {
	var e *ParseError
	return errors.As(err, &e)
}
