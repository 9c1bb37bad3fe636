package storage

// Code is a stable identifier for the outcome of a storage operation.
// It is a comparable newtype that implements error, so façade methods can
// return it directly while callers keep switch-friendly comparisons.
type Code int

const (
	// ErrNone means the last operation succeeded.
	ErrNone Code = iota
	// ErrNotInitialized means Begin was not called (or failed). This is a
	// caller-sequencing bug, not a runtime condition to recover from.
	ErrNotInitialized
	// ErrWriteFailed means the backend could not persist the record, or the
	// read-back verification of a committed write did not match.
	ErrWriteFailed
	// ErrReadFailed means the backend hit an I/O error while reading.
	ErrReadFailed
	// ErrValidationFailed means the stored record did not pass the checksum
	// gate (checksum match plus non-empty WiFi fields). Callers should fall
	// back to defaults and keep running.
	ErrValidationFailed
	// ErrCommitFailed means the backend accepted the write but could not
	// flush it durably.
	ErrCommitFailed
	// ErrInvalidField means an unrecognized field name was passed to
	// UpdateField. The persisted record is untouched.
	ErrInvalidField
)

func (c Code) Error() string { return c.String() }

// String is total over the enum; unknown values get a default so a future
// code never panics an error path.
func (c Code) String() string {
	switch c {
	case ErrNone:
		return "no error"
	case ErrNotInitialized:
		return "storage not initialized"
	case ErrWriteFailed:
		return "write operation failed"
	case ErrReadFailed:
		return "read operation failed"
	case ErrValidationFailed:
		return "validation failed"
	case ErrCommitFailed:
		return "commit failed"
	case ErrInvalidField:
		return "invalid field name"
	default:
		return "unknown error"
	}
}

// ErrorString returns the human-readable message for a code.
func ErrorString(c Code) string { return c.String() }
