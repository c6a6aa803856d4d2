package mem

import (
	"context"
	"errors"
	"testing"

	"blechat/pkg/bus"
	"blechat/pkg/protocol"
	"blechat/pkg/protocol/codec"
	"blechat/pkg/transport"
)

func newTransport(t *testing.T) (*Transport, *bus.Bus) {
	t.Helper()
	cod, err := codec.ForName("cbor")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	b := bus.New()
	return New(b, cod), b
}

func TestScanHonorsCancellation(t *testing.T) {
	tr, _ := newTransport(t)
	tr.SetDevices(transport.DeviceDescriptor{Address: "AA:BB"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.Scan(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestLifecycleGuards(t *testing.T) {
	tr, _ := newTransport(t)
	cl, err := tr.NewClient("AA:BB")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	// sends before connect+discovery must be rejected
	if err := cl.SendText(context.Background(), "x", 0); !errors.Is(err, transport.ErrSendFailed) {
		t.Fatalf("send before ready: %v", err)
	}
	if err := cl.DiscoverServices(context.Background()); !errors.Is(err, transport.ErrDiscoveryFailed) {
		t.Fatalf("discovery before connect: %v", err)
	}

	if err := cl.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := cl.DiscoverServices(context.Background()); err != nil {
		t.Fatalf("DiscoverServices: %v", err)
	}
	if err := cl.SendText(context.Background(), "x", 0); err != nil {
		t.Fatalf("SendText: %v", err)
	}

	if err := cl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := cl.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := cl.SendText(context.Background(), "x", 0); !errors.Is(err, transport.ErrSendFailed) {
		t.Fatalf("send after close: %v", err)
	}
}

func TestDeliverRoutesByPacketKind(t *testing.T) {
	tr, b := newTransport(t)
	var texts, infos int
	b.Subscribe(bus.TopicReceiveText, func(bus.Event) { texts++ })
	b.Subscribe(bus.TopicReceiveNodeInfo, func(bus.Event) { infos++ })

	if err := tr.Deliver(&protocol.Packet{From: "n1", Decoded: &protocol.Data{Text: "hi"}}); err != nil {
		t.Fatalf("Deliver text: %v", err)
	}
	if err := tr.Deliver(&protocol.Packet{Node: &protocol.NodeInfo{ID: "n1"}}); err != nil {
		t.Fatalf("Deliver nodeinfo: %v", err)
	}
	if texts != 1 || infos != 1 {
		t.Fatalf("routing wrong: texts=%d infos=%d", texts, infos)
	}
}
