// Package codec provides pluggable payload codecs for frames crossing the
// link boundary. The wire format is a deployment choice (config key
// chat.codec); everything above the link layer works on decoded protocol
// types and never sees codec bytes.
package codec

import "fmt"

// Codec defines a simple interface for marshaling typed messages.
// Implementations should be deterministic so two nodes with the same
// codec produce identical frames.
type Codec interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// ForName returns the codec selected by a config-level name.
// Recognized names: "json", "cbor" (the default), "proto".
func ForName(name string) (Codec, error) {
	switch name {
	case "json":
		return JSON(), nil
	case "cbor", "":
		return CBOR()
	case "proto", "protobuf":
		return Proto(), nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}
