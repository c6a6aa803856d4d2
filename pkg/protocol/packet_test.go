package protocol

import "testing"

func TestSenderDefault(t *testing.T) {
	var nilPacket *Packet
	if got := nilPacket.Sender(); got != SenderUnknown {
		t.Fatalf("nil packet Sender = %q", got)
	}
	if got := (&Packet{}).Sender(); got != SenderUnknown {
		t.Fatalf("empty packet Sender = %q", got)
	}
	if got := (&Packet{From: "node1"}).Sender(); got != "node1" {
		t.Fatalf("Sender = %q", got)
	}
}

func TestText(t *testing.T) {
	cases := []struct {
		name string
		p    *Packet
		want string
		ok   bool
	}{
		{"nil packet", nil, "", false},
		{"no decoded", &Packet{From: "n"}, "", false},
		{"empty text", &Packet{Decoded: &Data{}}, "", false},
		{"text", &Packet{Decoded: &Data{Text: "hi"}}, "hi", true},
	}
	for _, c := range cases {
		got, ok := c.p.Text()
		if got != c.want || ok != c.ok {
			t.Fatalf("%s: Text() = (%q, %v), want (%q, %v)", c.name, got, ok, c.want, c.ok)
		}
	}
}
