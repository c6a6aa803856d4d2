package chat

import (
	"context"
	"errors"
	"fmt"

	"blechat/pkg/transport"
)

// ConnectFunc is a connection strategy: it yields a ready-to-send Client
// for the given address.
type ConnectFunc func(ctx context.Context, address string) (transport.Client, error)

// Connector establishes the connection. With a known address it goes
// direct: construct the client against the address, synchronous connect,
// synchronous service discovery. Discovery-based lookup is skipped
// entirely on this path. With an empty address it delegates to Fallback,
// an explicit strategy value set at construction (see DiscoverConnect).
type Connector struct {
	// NewClient constructs an unconnected client bound to an address.
	NewClient func(address string) (transport.Client, error)

	// OnDisconnect is registered on every client before connecting, so an
	// unexpected link drop funnels into the owning session's close path.
	OnDisconnect func(reason error)

	// Fallback handles Connect with an empty address. Nil means the empty
	// address is an error.
	Fallback ConnectFunc
}

// Connect returns an established client. Failures are fatal to the
// attempt and are never retried here.
func (c *Connector) Connect(ctx context.Context, address string) (transport.Client, error) {
	if address == "" {
		if c.Fallback == nil {
			return nil, fmt.Errorf("no address given and no fallback strategy: %w", transport.ErrConnectFailed)
		}
		return c.Fallback(ctx, address)
	}
	return c.direct(ctx, address)
}

func (c *Connector) direct(ctx context.Context, address string) (transport.Client, error) {
	cl, err := c.NewClient(address)
	if err != nil {
		return nil, fmt.Errorf("client for %s: %w", address, ensure(err, transport.ErrConnectFailed))
	}
	if c.OnDisconnect != nil {
		cl.OnDisconnect(c.OnDisconnect)
	}
	if err := cl.Connect(ctx); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("connect %s: %w", address, ensure(err, transport.ErrConnectFailed))
	}
	if err := cl.DiscoverServices(ctx); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("discover services on %s: %w", address, ensure(err, transport.ErrDiscoveryFailed))
	}
	return cl, nil
}

// DiscoverConnect is the default fallback strategy: resolve the target
// through an unfiltered scan, then take the direct path to the resolved
// address.
func DiscoverConnect(r *Resolver, c *Connector, target string) ConnectFunc {
	return func(ctx context.Context, _ string) (transport.Client, error) {
		d, err := r.FindDevice(ctx, target)
		if err != nil {
			return nil, err
		}
		return c.direct(ctx, d.Address)
	}
}

// ensure tags err with the taxonomy sentinel unless it already carries one.
func ensure(err, sentinel error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
