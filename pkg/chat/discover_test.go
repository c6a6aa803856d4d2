package chat

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"blechat/pkg/bus"
	"blechat/pkg/protocol/codec"
	"blechat/pkg/transport"
	"blechat/pkg/transport/mem"
)

func newMemTransport(t *testing.T) *mem.Transport {
	t.Helper()
	cod, err := codec.ForName("cbor")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	return mem.New(bus.New(), cod)
}

func TestFindDeviceCaseInsensitive(t *testing.T) {
	tr := newMemTransport(t)
	tr.SetDevices(
		transport.DeviceDescriptor{Address: "11:22:33:44:55:66", Name: "other"},
		transport.DeviceDescriptor{Address: "aa:bb:cc:dd:ee:ff", Name: "tbeam"},
	)
	var out bytes.Buffer
	r := NewResolver(tr, &out, nil)

	d, err := r.FindDevice(context.Background(), "AA:BB:CC:DD:EE:FF")
	if err != nil {
		t.Fatalf("FindDevice: %v", err)
	}
	if d.Address != "aa:bb:cc:dd:ee:ff" || d.Name != "tbeam" {
		t.Fatalf("wrong descriptor: %+v", d)
	}
}

func TestFindDeviceOrderIndependent(t *testing.T) {
	target := "AA:BB:CC:DD:EE:FF"
	devs := []transport.DeviceDescriptor{
		{Address: "11:22:33:44:55:66"},
		{Address: "aa:bb:cc:dd:ee:ff", Name: "tbeam"},
		{Address: "22:33:44:55:66:77"},
	}
	// every rotation of the device list must find the same peer
	for shift := range devs {
		rotated := append(append([]transport.DeviceDescriptor{}, devs[shift:]...), devs[:shift]...)
		tr := newMemTransport(t)
		tr.SetDevices(rotated...)
		var out bytes.Buffer
		r := NewResolver(tr, &out, nil)

		d, err := r.FindDevice(context.Background(), target)
		if err != nil {
			t.Fatalf("shift %d: %v", shift, err)
		}
		if !d.AddressEqual(target) {
			t.Fatalf("shift %d: wrong descriptor %+v", shift, d)
		}
	}
}

func TestFindDeviceNotFound(t *testing.T) {
	tr := newMemTransport(t)
	tr.SetDevices(transport.DeviceDescriptor{Address: "11:22:33:44:55:66", Name: "other"})
	var out bytes.Buffer
	r := NewResolver(tr, &out, nil)

	_, err := r.FindDevice(context.Background(), "AA:BB:CC:DD:EE:FF")
	if !errors.Is(err, transport.ErrDeviceNotFound) {
		t.Fatalf("err = %v, want ErrDeviceNotFound", err)
	}
	if !strings.Contains(err.Error(), "-scan") {
		t.Fatalf("error should point at the scan diagnostic: %v", err)
	}
	// the listing still happened
	if !strings.Contains(out.String(), "11:22:33:44:55:66") {
		t.Fatalf("scan results not printed on the no-match path:\n%s", out.String())
	}
}

func TestFindDevicePrintsEveryDeviceOnce(t *testing.T) {
	tr := newMemTransport(t)
	tr.SetDevices(
		transport.DeviceDescriptor{Address: "AA:BB:CC:DD:EE:FF", Name: "target"},
		transport.DeviceDescriptor{Address: "11:22:33:44:55:66", Name: "other"},
	)
	var out bytes.Buffer
	r := NewResolver(tr, &out, nil)

	// match on the first device must not suppress printing the rest
	if _, err := r.FindDevice(context.Background(), "aa:bb:cc:dd:ee:ff"); err != nil {
		t.Fatalf("FindDevice: %v", err)
	}
	for _, addr := range []string{"AA:BB:CC:DD:EE:FF", "11:22:33:44:55:66"} {
		if n := strings.Count(out.String(), addr); n != 1 {
			t.Fatalf("address %s printed %d times, want 1:\n%s", addr, n, out.String())
		}
	}
}

func TestFindDeviceScanError(t *testing.T) {
	tr := newMemTransport(t)
	tr.SetScanError(errors.New("adapter powered off"))
	var out bytes.Buffer
	r := NewResolver(tr, &out, nil)

	_, err := r.FindDevice(context.Background(), "AA:BB:CC:DD:EE:FF")
	if err == nil || !strings.Contains(err.Error(), "adapter powered off") {
		t.Fatalf("scan error not propagated: %v", err)
	}
}
