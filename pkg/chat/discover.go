package chat

import (
	"context"
	"fmt"
	"io"

	"blechat/pkg/nodes"
	"blechat/pkg/transport"
)

// Resolver finds a peer device by address using an unfiltered scan. The
// default library behavior would filter on the chat service UUID, which
// misses peers with older firmware that advertise nothing; scanning
// everything and matching the address ourselves is the compatible path.
type Resolver struct {
	scanner transport.Scanner
	out     io.Writer
	nodes   *nodes.Store // optional, records scan results
}

func NewResolver(scanner transport.Scanner, out io.Writer, reg *nodes.Store) *Resolver {
	return &Resolver{scanner: scanner, out: out, nodes: reg}
}

// ListDevices runs one unfiltered scan and prints every discovered
// descriptor. The listing is an operator diagnostic and happens
// unconditionally, match or no match.
func (r *Resolver) ListDevices(ctx context.Context) ([]transport.DeviceDescriptor, error) {
	devs, err := r.scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	fmt.Fprintln(r.out, "Discovered devices:")
	for _, d := range devs {
		fmt.Fprintf(r.out, "  address: %s  name: %s\n", d.Address, d.Name)
		if r.nodes != nil {
			r.nodes.RecordSeen(d)
		}
	}
	return devs, nil
}

// FindDevice returns the first discovered descriptor whose address
// matches target case-insensitively. No match is ErrDeviceNotFound.
func (r *Resolver) FindDevice(ctx context.Context, target string) (transport.DeviceDescriptor, error) {
	devs, err := r.ListDevices(ctx)
	if err != nil {
		return transport.DeviceDescriptor{}, err
	}
	for _, d := range devs {
		if d.AddressEqual(target) {
			return d, nil
		}
	}
	return transport.DeviceDescriptor{}, fmt.Errorf(
		"no peripheral with address %q, try 'blechat -scan': %w", target, transport.ErrDeviceNotFound)
}
