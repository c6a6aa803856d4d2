// Package protocol defines the packet model exchanged with a peer device.
// Framing, encryption and the radio protocol itself belong to the link
// layer; this package only describes the decoded application payload.
package protocol

// PortNum labels the application payload carried by a packet.
const (
	PortUnknown  uint32 = 0
	PortText     uint32 = 1
	PortNodeInfo uint32 = 4
)

// SenderUnknown is reported when a packet arrives without a sender id.
const SenderUnknown = "unknown"

// Data is the decoded portion of an inbound packet. All fields are
// optional on the wire; a text message is recognized by a non-empty Text.
type Data struct {
	Port uint32 `json:"port,omitempty" cbor:"1,keyasint,omitempty"`
	Text string `json:"text,omitempty" cbor:"2,keyasint,omitempty"`
}

// NodeInfo announces a peer's identity. Carried by nodeinfo packets and
// recorded in the node registry so senders render with a friendly name.
type NodeInfo struct {
	ID        string `json:"id" cbor:"1,keyasint"`
	LongName  string `json:"long_name,omitempty" cbor:"2,keyasint,omitempty"`
	ShortName string `json:"short_name,omitempty" cbor:"3,keyasint,omitempty"`
}

// Packet is one inbound event as constructed by the link layer. It is
// transient: consumed once by whoever receives it off the bus, never
// persisted. Every field may be absent on a malformed or foreign packet.
type Packet struct {
	From    string    `json:"from,omitempty" cbor:"1,keyasint,omitempty"`
	Channel uint32    `json:"channel" cbor:"2,keyasint"`
	Decoded *Data     `json:"decoded,omitempty" cbor:"3,keyasint,omitempty"`
	Node    *NodeInfo `json:"node,omitempty" cbor:"4,keyasint,omitempty"`
}

// Sender returns the packet's sender id, defaulting to SenderUnknown.
func (p *Packet) Sender() string {
	if p == nil || p.From == "" {
		return SenderUnknown
	}
	return p.From
}

// Text returns the text payload and whether the packet carries one.
func (p *Packet) Text() (string, bool) {
	if p == nil || p.Decoded == nil || p.Decoded.Text == "" {
		return "", false
	}
	return p.Decoded.Text, true
}

// Message is one outbound text message. Constructed per user input line,
// consumed once by the send path, never retried automatically.
type Message struct {
	Text    string `json:"text" cbor:"1,keyasint"`
	Channel uint32 `json:"channel" cbor:"2,keyasint"`
}
