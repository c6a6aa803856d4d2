// Package mem is an in-process link implementation. It plays both the
// radio and the peer: tests script the device list, inject inbound
// packets and inspect outbound messages without any hardware.
package mem

import (
	"context"
	"fmt"
	"sync"

	"blechat/pkg/bus"
	"blechat/pkg/protocol"
	"blechat/pkg/protocol/codec"
	"blechat/pkg/transport"
)

// Transport implements transport.Scanner and constructs mem Clients.
type Transport struct {
	mu      sync.Mutex
	devices []transport.DeviceDescriptor
	scanErr error
	clients []*Client

	// Errors applied to the next constructed client.
	FailConnect   error
	FailDiscovery error
	FailSend      error

	bus *bus.Bus
	cod codec.Codec
}

func New(b *bus.Bus, c codec.Codec) *Transport {
	return &Transport{bus: b, cod: c}
}

// SetDevices scripts the result of the next scans.
func (t *Transport) SetDevices(devs ...transport.DeviceDescriptor) {
	t.mu.Lock()
	t.devices = devs
	t.mu.Unlock()
}

// SetScanError makes subsequent scans fail with err.
func (t *Transport) SetScanError(err error) {
	t.mu.Lock()
	t.scanErr = err
	t.mu.Unlock()
}

func (t *Transport) Scan(ctx context.Context) ([]transport.DeviceDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.scanErr != nil {
		return nil, t.scanErr
	}
	out := make([]transport.DeviceDescriptor, len(t.devices))
	copy(out, t.devices)
	return out, nil
}

// NewClient constructs an unconnected client bound to address.
func (t *Transport) NewClient(address string) (transport.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := &Client{
		tr:            t,
		peer:          transport.DeviceDescriptor{Address: address},
		failConnect:   t.FailConnect,
		failDiscovery: t.FailDiscovery,
		failSend:      t.FailSend,
	}
	t.clients = append(t.clients, c)
	return c, nil
}

// LastClient returns the most recently constructed client, nil if none.
func (t *Transport) LastClient() *Client {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.clients) == 0 {
		return nil
	}
	return t.clients[len(t.clients)-1]
}

// Deliver encodes p through the wire codec and hands the frame back in,
// exercising the same decode-and-publish path a real link uses.
func (t *Transport) Deliver(p *protocol.Packet) error {
	b, err := t.cod.Marshal(p)
	if err != nil {
		return err
	}
	t.DeliverFrame(b)
	return nil
}

// DeliverFrame decodes one raw inbound frame and publishes it. Frames
// that don't decode are dropped, as a real link drops garbage packets.
func (t *Transport) DeliverFrame(b []byte) {
	var p protocol.Packet
	if err := t.cod.Unmarshal(b, &p); err != nil {
		return
	}
	t.bus.Publish(bus.Route(&p), bus.Event{Packet: &p, Source: t.LastClient()})
}

// Client is the mem connection handle.
type Client struct {
	tr   *Transport
	peer transport.DeviceDescriptor

	mu           sync.Mutex
	connected    bool
	discovered   bool
	closed       bool
	closeCount   int
	sent         []protocol.Message
	onDisconnect func(error)

	failConnect   error
	failDiscovery error
	failSend      error
}

func (c *Client) Peer() transport.DeviceDescriptor { return c.peer }

func (c *Client) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return transport.ErrClosed
	}
	if c.failConnect != nil {
		return fmt.Errorf("%w: %w", transport.ErrConnectFailed, c.failConnect)
	}
	c.connected = true
	return nil
}

func (c *Client) DiscoverServices(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.closed {
		return fmt.Errorf("%w: not connected", transport.ErrDiscoveryFailed)
	}
	if c.failDiscovery != nil {
		return fmt.Errorf("%w: %w", transport.ErrDiscoveryFailed, c.failDiscovery)
	}
	c.discovered = true
	return nil
}

func (c *Client) SendText(ctx context.Context, text string, channel uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || !c.discovered || c.closed {
		return fmt.Errorf("%w: link not ready", transport.ErrSendFailed)
	}
	if c.failSend != nil {
		return fmt.Errorf("%w: %w", transport.ErrSendFailed, c.failSend)
	}
	c.sent = append(c.sent, protocol.Message{Text: text, Channel: channel})
	return nil
}

func (c *Client) OnDisconnect(fn func(reason error)) {
	c.mu.Lock()
	c.onDisconnect = fn
	c.mu.Unlock()
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.closeCount++
	return nil
}

// Drop simulates an unexpected link loss and fires the registered
// disconnect callback on the caller's goroutine.
func (c *Client) Drop(reason error) {
	c.mu.Lock()
	fn := c.onDisconnect
	c.closed = true
	c.mu.Unlock()
	if fn != nil {
		fn(reason)
	}
}

// Sent returns a copy of the outbound messages recorded so far.
func (c *Client) Sent() []protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.Message, len(c.sent))
	copy(out, c.sent)
	return out
}

// Closed reports whether Close was called at least once.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// CloseCount reports how many times Close ran.
func (c *Client) CloseCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCount
}

var _ transport.Client = (*Client)(nil)
var _ transport.Scanner = (*Transport)(nil)
