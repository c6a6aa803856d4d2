package transport

import (
	"context"
	"strings"
)

// Kind identifies the link type for logging and policy decisions.
type Kind int

const (
	KindUnknown Kind = iota
	KindBLE
	KindMem
)

func (k Kind) String() string {
	switch k {
	case KindBLE:
		return "ble"
	case KindMem:
		return "mem"
	default:
		return "unknown"
	}
}

// DeviceDescriptor identifies one discoverable peer. It is produced by a
// scan and is only valid for the lifetime of that scan's result list.
type DeviceDescriptor struct {
	Address string // transport-dependent address, compared case-insensitively
	Name    string // advertised display name, may be empty
}

// AddressEqual reports whether the descriptor's address matches addr.
// Addresses are hardware identifiers whose hex case varies by platform,
// so the comparison is case-insensitive.
func (d DeviceDescriptor) AddressEqual(addr string) bool {
	return strings.EqualFold(d.Address, addr)
}

// Scanner enumerates reachable peer devices. Scan is always unfiltered:
// every advertising device is reported, whether or not it carries the
// chat service. Filtering is the caller's job.
type Scanner interface {
	Scan(ctx context.Context) ([]DeviceDescriptor, error)
}

// Client is a connection handle to exactly one peer device. At most one
// live Client exists per process. The sequence is:
//
//	c := newClient(addr)        // bound, not connected
//	c.OnDisconnect(fn)          // before Connect
//	c.Connect(ctx)              // synchronous link establishment
//	c.DiscoverServices(ctx)     // synchronous service/characteristic walk
//	c.SendText(ctx, ...)        // only after both calls above succeeded
//	c.Close()                   // idempotent
type Client interface {
	// Connect establishes the link. Errors wrap ErrConnectFailed.
	Connect(ctx context.Context) error

	// DiscoverServices enumerates the chat service and its characteristics
	// and arms inbound notification delivery. Errors wrap ErrDiscoveryFailed.
	DiscoverServices(ctx context.Context) error

	// SendText transmits one text message on the given logical channel.
	// Errors wrap ErrSendFailed. Sends are strictly sequential: callers
	// must not issue a send before the previous one returned.
	SendText(ctx context.Context, text string, channel uint32) error

	// OnDisconnect registers fn to run once if the underlying link drops
	// unexpectedly. It is not invoked for a local Close.
	OnDisconnect(fn func(reason error))

	// Peer returns the descriptor this client is bound to.
	Peer() DeviceDescriptor

	// Close releases the link and all transport resources. Safe to call
	// multiple times and in any state.
	Close() error
}
