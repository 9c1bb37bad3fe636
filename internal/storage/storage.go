package storage

import (
	"errors"
	"sync"

	"github.com/gilestrolab/ethosensor/internal/config"
	"github.com/gilestrolab/ethosensor/internal/logging"
)

// Store is the persistence façade. It owns a Backend, tracks initialization
// and the last error code, and enforces the checksum gate on loads. One
// Store is constructed at boot and handed to whoever needs it; there is no
// package-level singleton.
//
// A mutex serializes operations: the firmware ran single-threaded, but HTTP
// handlers here do not, and a write must be fully committed (including
// read-back verification where the backend supports it) before success is
// reported to anyone.
type Store struct {
	mu          sync.Mutex
	backend     Backend
	initialized bool
	lastErr     Code
}

// New creates a Store over the given backend. Begin must be called before
// any other operation.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Begin opens the backend. Idempotent: once initialized it returns nil
// without touching the backend again.
func (s *Store) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if err := s.backend.Open(); err != nil {
		logging.LogStorageOp("begin", s.backend.Name(), err)
		s.lastErr = ErrNotInitialized
		return ErrNotInitialized
	}

	s.initialized = true
	s.lastErr = ErrNone
	logging.LogStorageOp("begin", s.backend.Name(), nil)
	return nil
}

// SaveConfig computes the record checksum, embeds it and persists the full
// record. Every field is overwritten, so callers must pass their complete
// in-memory mirror, not a partial diff.
func (s *Store) SaveConfig(cfg *config.Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(cfg)
}

func (s *Store) saveLocked(cfg *config.Configuration) error {
	if !s.initialized {
		s.lastErr = ErrNotInitialized
		return ErrNotInitialized
	}

	sealed := *cfg
	sealed.Checksum = Checksum(cfg)

	if err := s.backend.WriteRecord(MarshalRecord(&sealed)); err != nil {
		logging.LogStorageOp("save", s.backend.Name(), err)
		if errors.Is(err, ErrCommit) {
			s.lastErr = ErrCommitFailed
			return ErrCommitFailed
		}
		s.lastErr = ErrWriteFailed
		return ErrWriteFailed
	}

	s.lastErr = ErrNone
	logging.LogStorageOp("save", s.backend.Name(), nil)
	return nil
}

// LoadConfig reads the stored record, applies the checksum gate and, only
// when both parts pass, copies the record into out. A failed load leaves out
// untouched.
//
// The gate has two parts because a checksum alone can be internally
// consistent for an all-zero erased-storage pattern: the recomputed checksum
// must match the stored one, and both WiFi fields must be non-empty.
func (s *Store) LoadConfig(out *config.Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(out)
}

func (s *Store) loadLocked(out *config.Configuration) error {
	if !s.initialized {
		s.lastErr = ErrNotInitialized
		return ErrNotInitialized
	}

	data, err := s.backend.ReadRecord()
	if err != nil {
		logging.LogStorageOp("load", s.backend.Name(), err)
		if errors.Is(err, ErrNoRecord) {
			s.lastErr = ErrValidationFailed
			return ErrValidationFailed
		}
		s.lastErr = ErrReadFailed
		return ErrReadFailed
	}

	cfg, err := UnmarshalRecord(data)
	if err != nil {
		logging.LogStorageOp("load", s.backend.Name(), err)
		s.lastErr = ErrReadFailed
		return ErrReadFailed
	}

	// Recompute over the raw loaded bytes, not the parsed record, so that
	// corruption anywhere in the blob trips the gate.
	if cfg.Checksum != ChecksumBytes(data) {
		s.lastErr = ErrValidationFailed
		return ErrValidationFailed
	}
	if cfg.WiFiSSID == "" || cfg.WiFiPwd == "" {
		s.lastErr = ErrValidationFailed
		return ErrValidationFailed
	}

	*out = cfg
	s.lastErr = ErrNone
	logging.LogStorageOp("load", s.backend.Name(), nil)
	return nil
}

// UpdateField changes a single configuration field in storage. The field
// name is validated first; an unrecognized name fails with ErrInvalidField
// and never touches the persisted record.
//
// Backends with a native field write (the preference store) take the value
// directly. For block storage the update is synthesized as read-modify-write
// of the full record; when no valid prior record exists the load failure is
// reported as-is rather than inventing defaults.
//
// The façade never mutates any in-memory mirror. Callers update theirs only
// after this returns nil.
func (s *Store) UpdateField(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.lastErr = ErrNotInitialized
		return ErrNotInitialized
	}

	if !config.IsField(field) {
		s.lastErr = ErrInvalidField
		return ErrInvalidField
	}

	if fw, ok := s.backend.(FieldWriter); ok {
		if err := fw.WriteField(field, value); err != nil {
			logging.LogStorageOp("update_field", s.backend.Name(), err)
			if errors.Is(err, ErrCommit) {
				s.lastErr = ErrCommitFailed
				return ErrCommitFailed
			}
			s.lastErr = ErrWriteFailed
			return ErrWriteFailed
		}
		s.lastErr = ErrNone
		return nil
	}

	var cfg config.Configuration
	if err := s.loadLocked(&cfg); err != nil {
		// lastErr already set by the load
		return err
	}
	cfg.Set(field, value)
	return s.saveLocked(&cfg)
}

// Clear invalidates the stored record.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.lastErr = ErrNotInitialized
		return ErrNotInitialized
	}

	if err := s.backend.Clear(); err != nil {
		logging.LogStorageOp("clear", s.backend.Name(), err)
		if errors.Is(err, ErrCommit) {
			s.lastErr = ErrCommitFailed
			return ErrCommitFailed
		}
		s.lastErr = ErrWriteFailed
		return ErrWriteFailed
	}

	s.lastErr = ErrNone
	return nil
}

// LastError returns the code recorded by the most recent operation.
func (s *Store) LastError() Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// BackendName identifies the configured backend variant.
func (s *Store) BackendName() string {
	return s.backend.Name()
}
