// Package chat implements the interactive session: device resolution,
// connection establishment, the inbound message handler and the
// send/receive console loop. Device lookup and connect behavior are
// strategy values injected at construction, so callers can swap either
// without touching the loop.
package chat
