// Package memkv is a small in-memory key/value store with per-key TTL.
// It backs the node registry: values are opaque []byte blobs (the caller
// picks the encoding), keys expire lazily on read plus via a background
// sweeper, and basic hit/miss metrics are exposed for diagnostics.
//
// The store copies values on Set and Get by default so callers can't
// alias the internal buffers; both copies can be disabled through
// Options for hot paths that guarantee ownership.
package memkv
