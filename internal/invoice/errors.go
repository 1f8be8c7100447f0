package invoice

import "fmt"

// MalformedRecordError names the first required field of a persisted invoice
// that is missing or cannot be used.
type MalformedRecordError struct {
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed invoice record: %s: %s", e.Field, e.Reason)
}

func malformed(field, format string, args ...interface{}) *MalformedRecordError {
	return &MalformedRecordError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
