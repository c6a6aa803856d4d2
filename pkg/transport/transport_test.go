package transport

import "testing"

func TestAddressEqual(t *testing.T) {
	d := DeviceDescriptor{Address: "AA:BB:CC:DD:EE:FF", Name: "tbeam"}
	cases := []struct {
		addr string
		want bool
	}{
		{"AA:BB:CC:DD:EE:FF", true},
		{"aa:bb:cc:dd:ee:ff", true},
		{"Aa:Bb:Cc:Dd:Ee:Ff", true},
		{"AA:BB:CC:DD:EE:00", false},
		{"", false},
	}
	for _, c := range cases {
		if got := d.AddressEqual(c.addr); got != c.want {
			t.Fatalf("AddressEqual(%q) = %v, want %v", c.addr, got, c.want)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindBLE.String() != "ble" || KindMem.String() != "mem" || KindUnknown.String() != "unknown" {
		t.Fatalf("Kind strings wrong: %s %s %s", KindBLE, KindMem, KindUnknown)
	}
}
