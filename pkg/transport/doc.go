// Package transport defines the canonical link interfaces for blechat and
// hosts the shared error taxonomy. Implementations live in subpackages
// (ble for real radios, mem for in-process loopback in tests).
//
// Key concepts:
// - Scanner: enumerates reachable peer devices (always unfiltered)
// - Client: a connection handle to exactly one peer device
// - DeviceDescriptor: identifying record for a discoverable peer
//
// A Client is constructed bound to an address, then driven through
// Connect and DiscoverServices before any send. Inbound traffic is not
// read from the Client directly; implementations publish decoded packets
// on a bus.Bus supplied at construction.
package transport
