// Package storage persists the device configuration record with
// checksum-validated writes and field-level update semantics.
//
// Two backend variants sit behind one contract:
//
//   - BlockStore: a file emulating the firmware's rotating-EEPROM flash
//     region. A one-byte validity marker precedes the record; commits rotate
//     across sectors and are read back and verified before success.
//   - KVStore: a namespaced preference store with one file per key and
//     atomic tmp+rename writes. Record absence is inferred from a missing or
//     empty name key.
//
// The Store façade layers the integrity rules on top: an explicit Begin
// lifecycle, a two-part validation gate on loads (recomputed checksum match
// plus non-empty WiFi credentials), single-field updates, and a last-error
// code with a total string mapping.
//
// Error policy: validation failures are recoverable (callers fall back to
// defaults and continue); write/commit failures are surfaced to the caller
// for user-visible reporting; nothing in this package ever resets the device
// as a recovery strategy.
//
// The serialized record layout is fixed and documented in codec.go - it is
// deliberately independent of in-memory struct layout so the stored format
// is portable across builds.
package storage
