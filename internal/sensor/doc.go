// Package sensor reads the environmental sensor and maintains the in-memory
// Environment mirror.
//
// Two drivers implement the Reader interface: an industrial-I/O sysfs reader
// for BME280-class hardware and a simulated reader for development. The
// Poller wraps a driver with bounded time budgets (5 s init, 1 s per read),
// refreshes the mirror wholesale on success and retains the stale values on
// failure, tracking poll success separately from the values themselves.
package sensor
