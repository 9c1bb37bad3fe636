// Package server implements the node's HTTP API.
//
// Routes:
//
//	GET  /      current reading plus identity and configuration
//	GET  /id    node identifier (MAC address)
//	POST /set   update configuration fields (JSON object or form fallback)
//	GET  /reset acknowledge and restart the daemon
//	GET  /live  WebSocket stream of readings
//
// All responses are JSON. The server holds the in-memory configuration
// mirror and only mutates it after the storage façade accepts the write.
package server
