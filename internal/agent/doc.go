// Package agent wires the daemon together.
//
// Boot order mirrors the device's dependencies: storage first (the stored
// configuration names the node), then network identity, then the sensor
// poller, then mDNS advertisement, and finally the HTTP server. A /reset
// request tears the whole stack down and surfaces ErrRestart to the caller.
package agent
