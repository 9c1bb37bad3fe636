// Package discovery provides mDNS service advertisement and discovery for
// sensor nodes.
//
// The daemon advertises itself as an "_ethosensor._tcp" service named after
// the configured device name, with the node id (MAC), location and firmware
// version in TXT records. The operator CLI browses for the same service type
// with a bounded timeout.
package discovery
