// Package config defines the persisted device configuration record.
//
// The record carries the device name, its physical location, and the WiFi
// credentials the node should join. All four fields are bounded strings
// (19 content bytes plus a terminator in the persisted layout) with explicit
// truncation on overlong input - the storage format depends on fixed widths,
// so values are never stored unbounded.
//
// A single Configuration instance lives for the lifetime of the daemon: it is
// seeded at boot from storage (or from the compiled-in defaults when storage
// is empty or corrupt) and afterwards mutated only through the storage
// façade. The HTTP layer updates its in-memory mirror only after the façade
// reports that the durable copy was committed.
package config
