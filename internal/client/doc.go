// Package client is the HTTP client for sensor nodes.
//
// It wraps the node's small JSON API (status, id, set, reset) with typed
// errors and bounded retry, so callers can distinguish "the node is down"
// from "the node rejected the request".
package client
