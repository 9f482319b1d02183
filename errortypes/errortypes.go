package errortypes

import "fmt"

// TransportError should be used when the cache service could not be reached,
// replied with a non-200 status, or the request timed out. Nothing from the
// affected request was cached.
type TransportError struct {
	Message string
}

func (err *TransportError) Error() string {
	return err.Message
}

func (err *TransportError) Code() int {
	return TransportErrorCode
}

func (err *TransportError) Severity() Severity {
	return SeverityFatal
}

// MalformedResponse should be used when the cache service replied with a 200
// but the body could not be interpreted: unparseable JSON or a missing
// "responses" array. Treated the same as a transport failure by callers.
type MalformedResponse struct {
	Message string
}

func (err *MalformedResponse) Error() string {
	return err.Message
}

func (err *MalformedResponse) Code() int {
	return MalformedResponseErrorCode
}

func (err *MalformedResponse) Severity() Severity {
	return SeverityFatal
}

// CountMismatch should be used when the cache service returned a well-formed
// response whose entry count differs from the number of puts sent. The whole
// batch is treated as failed because results can no longer be matched to items.
type CountMismatch struct {
	Sent     int
	Received int
}

func (err *CountMismatch) Error() string {
	return fmt.Sprintf("cache service returned %d responses for %d puts", err.Received, err.Sent)
}

func (err *CountMismatch) Code() int {
	return CountMismatchErrorCode
}

func (err *CountMismatch) Severity() Severity {
	return SeverityFatal
}
