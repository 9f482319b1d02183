package errortypes

// Severity represents the severity level of a cache error.
type Severity int

const (
	// SeverityUnknown represents an unknown severity level.
	SeverityUnknown Severity = iota

	// SeverityFatal represents an error which left the affected items uncached.
	SeverityFatal

	// SeverityWarning represents a non-fatal error where some items of a
	// request may still have been cached.
	SeverityWarning
)

// IsFatal returns true unless an error is labeled with SeverityWarning.
func IsFatal(err error) bool {
	s, ok := err.(Coder)
	return !ok || s.Severity() == SeverityFatal
}
