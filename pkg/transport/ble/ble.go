// Package ble implements the link layer over real radios using
// tinygo.org/x/bluetooth. One Transport wraps the platform adapter; it
// scans unfiltered, constructs clients bound to an address, and pumps
// decoded inbound notifications onto the bus.
package ble

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"blechat/pkg/bus"
	"blechat/pkg/protocol"
	"blechat/pkg/protocol/codec"
	"blechat/pkg/transport"
)

const defaultScanWindow = 10 * time.Second

// Options tunes the transport.
type Options struct {
	// ScanWindow bounds one Scan call. 0 means 10s.
	ScanWindow time.Duration
	Logger     *zap.Logger
}

// Transport wraps the platform Bluetooth adapter.
type Transport struct {
	adapter    *bluetooth.Adapter
	bus        *bus.Bus
	cod        codec.Codec
	log        *zap.Logger
	scanWindow time.Duration

	mu      sync.Mutex
	current *Client // at most one live client per process
}

// New enables the Bluetooth stack and registers the adapter-level
// connect handler that turns unexpected drops into client callbacks.
func New(b *bus.Bus, c codec.Codec, opts Options) (*Transport, error) {
	if opts.ScanWindow <= 0 {
		opts.ScanWindow = defaultScanWindow
	}
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable bluetooth stack: %w", err)
	}
	t := &Transport{
		adapter:    adapter,
		bus:        b,
		cod:        c,
		log:        opts.Logger,
		scanWindow: opts.ScanWindow,
	}
	adapter.SetConnectHandler(func(dev bluetooth.Device, connected bool) {
		if connected {
			return
		}
		t.mu.Lock()
		cl := t.current
		t.mu.Unlock()
		if cl != nil {
			cl.remoteDrop(dev)
		}
	})
	return t, nil
}

// Scan reports every advertising device seen within the scan window,
// deduplicated by address, with no service filter applied.
func (t *Transport) Scan(ctx context.Context) ([]transport.DeviceDescriptor, error) {
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
		devs []transport.DeviceDescriptor
	)

	done := make(chan error, 1)
	go func() {
		done <- t.adapter.Scan(func(_ *bluetooth.Adapter, res bluetooth.ScanResult) {
			addr := res.Address.String()
			mu.Lock()
			if _, dup := seen[addr]; !dup {
				seen[addr] = struct{}{}
				devs = append(devs, transport.DeviceDescriptor{Address: addr, Name: res.LocalName()})
			}
			mu.Unlock()
		})
	}()

	select {
	case <-ctx.Done():
		_ = t.adapter.StopScan()
		<-done
		return nil, ctx.Err()
	case <-time.After(t.scanWindow):
		_ = t.adapter.StopScan()
		if err := <-done; err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
	case err := <-done:
		// scan ended on its own, usually an adapter error
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	out := make([]transport.DeviceDescriptor, len(devs))
	copy(out, devs)
	t.log.Debug("scan finished", zap.Int("devices", len(out)))
	return out, nil
}

// NewClient constructs an unconnected client bound to address.
func (t *Transport) NewClient(address string) (transport.Client, error) {
	c := &Client{
		tr:   t,
		peer: transport.DeviceDescriptor{Address: address},
		log:  t.log.With(zap.String("peer", address)),
	}
	t.mu.Lock()
	t.current = c
	t.mu.Unlock()
	return c, nil
}

// Client is one established BLE link.
type Client struct {
	tr   *Transport
	peer transport.DeviceDescriptor
	log  *zap.Logger

	mu           sync.Mutex
	device       bluetooth.Device
	writeChar    bluetooth.DeviceCharacteristic
	connected    bool
	ready        bool
	closed       bool
	onDisconnect func(error)
}

func (c *Client) Peer() transport.DeviceDescriptor { return c.peer }

func (c *Client) OnDisconnect(fn func(reason error)) {
	c.mu.Lock()
	c.onDisconnect = fn
	c.mu.Unlock()
}

// Connect establishes the link directly against the bound address; no
// scan happens on this path.
func (c *Client) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var addr bluetooth.Address
	addr.Set(c.peer.Address)
	dev, err := c.tr.adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("%w: %w", transport.ErrConnectFailed, err)
	}
	c.mu.Lock()
	c.device = dev
	c.connected = true
	c.mu.Unlock()
	c.log.Info("link established")
	return nil
}

// DiscoverServices walks the chat service, resolves both characteristics
// and arms notification delivery.
func (c *Client) DiscoverServices(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	if !c.connected || c.closed {
		c.mu.Unlock()
		return fmt.Errorf("%w: not connected", transport.ErrDiscoveryFailed)
	}
	dev := c.device
	c.mu.Unlock()

	svcs, err := dev.DiscoverServices([]bluetooth.UUID{serviceUUID})
	if err != nil {
		return fmt.Errorf("%w: %w", transport.ErrDiscoveryFailed, err)
	}
	if len(svcs) == 0 {
		return fmt.Errorf("%w: chat service %s not present", transport.ErrDiscoveryFailed, serviceUUID.String())
	}
	chars, err := svcs[0].DiscoverCharacteristics([]bluetooth.UUID{writeUUID, notifyUUID})
	if err != nil {
		return fmt.Errorf("%w: %w", transport.ErrDiscoveryFailed, err)
	}
	if len(chars) < 2 {
		return fmt.Errorf("%w: expected 2 characteristics, found %d", transport.ErrDiscoveryFailed, len(chars))
	}
	if err := chars[1].EnableNotifications(c.handleNotification); err != nil {
		return fmt.Errorf("%w: enable notifications: %w", transport.ErrDiscoveryFailed, err)
	}

	c.mu.Lock()
	c.writeChar = chars[0]
	c.ready = true
	c.mu.Unlock()
	c.log.Info("services discovered")
	return nil
}

// SendText encodes one outbound message and writes it as a single frame.
// One write carries one whole frame; fragmentation is the radio's job.
func (c *Client) SendText(ctx context.Context, text string, channel uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	if !c.ready || c.closed {
		c.mu.Unlock()
		return fmt.Errorf("%w: link not ready", transport.ErrSendFailed)
	}
	wc := c.writeChar
	c.mu.Unlock()

	b, err := c.tr.cod.Marshal(&protocol.Message{Text: text, Channel: channel})
	if err != nil {
		return fmt.Errorf("%w: encode: %w", transport.ErrSendFailed, err)
	}
	if _, err := wc.WriteWithoutResponse(b); err != nil {
		return fmt.Errorf("%w: %w", transport.ErrSendFailed, err)
	}
	c.log.Debug("sent", zap.Int("bytes", len(b)), zap.Uint32("channel", channel))
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.ready = false
	connected := c.connected
	c.connected = false
	dev := c.device
	c.mu.Unlock()

	c.tr.mu.Lock()
	if c.tr.current == c {
		c.tr.current = nil
	}
	c.tr.mu.Unlock()

	if connected {
		if err := dev.Disconnect(); err != nil {
			return fmt.Errorf("disconnect: %w", err)
		}
	}
	return nil
}

// handleNotification runs on the adapter's delivery goroutine: decode,
// publish, return. Frames that don't decode are dropped.
func (c *Client) handleNotification(buf []byte) {
	// the adapter may reuse buf after we return
	frame := make([]byte, len(buf))
	copy(frame, buf)

	var p protocol.Packet
	if err := c.tr.cod.Unmarshal(frame, &p); err != nil {
		c.log.Debug("dropping undecodable frame", zap.Int("bytes", len(frame)), zap.Error(err))
		return
	}
	c.tr.bus.Publish(bus.Route(&p), bus.Event{Packet: &p, Source: c})
}

// remoteDrop is invoked by the adapter connect handler on an unexpected
// link loss. A drop after local Close is teardown noise.
func (c *Client) remoteDrop(dev bluetooth.Device) {
	if !c.peer.AddressEqual(dev.Address.String()) {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.connected = false
	c.ready = false
	fn := c.onDisconnect
	c.mu.Unlock()

	c.log.Warn("link dropped by peer")
	if fn != nil {
		fn(fmt.Errorf("link dropped by %s", c.peer.Address))
	}
}

var (
	_ transport.Scanner = (*Transport)(nil)
	_ transport.Client  = (*Client)(nil)
)
