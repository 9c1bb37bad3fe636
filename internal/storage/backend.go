package storage

import "errors"

// Sentinel errors reported by backends. The façade inspects them with
// errors.Is to pick the right error code.
var (
	// ErrNoRecord means no trusted record exists: the validity marker is
	// unset (block storage) or the required name key is missing/empty
	// (key-value store).
	ErrNoRecord = errors.New("no committed record")

	// ErrCommit means the write was accepted but could not be flushed
	// durably to the medium.
	ErrCommit = errors.New("commit failed")
)

// Backend is the capability set shared by the two persistence variants.
// The façade is written against this contract, never against a concrete
// variant; the variant is chosen once at startup.
type Backend interface {
	// Open prepares the underlying medium for reads and writes.
	// Idempotent: a second call while already open is a no-op success.
	Open() error

	// WriteRecord persists the full serialized record. Implementations that
	// can read back the committed bytes must do so and compare against what
	// was written before reporting success, to catch silent write
	// corruption.
	WriteRecord(data []byte) error

	// ReadRecord returns the committed record bytes, or ErrNoRecord when no
	// trusted record exists.
	ReadRecord() ([]byte, error)

	// Clear invalidates the stored record. It does not necessarily erase
	// the physical bytes.
	Clear() error

	// Name identifies the variant in logs.
	Name() string
}

// FieldWriter is implemented by backends with a native single-field write
// primitive. Backends without one (block storage) leave it to the façade,
// which synthesizes the update as a read-modify-write of the full record.
type FieldWriter interface {
	WriteField(field, value string) error
}
