package transport

import "errors"

// Sentinel errors for the failure taxonomy shared by all link
// implementations. Callers wrap them with fmt.Errorf("...: %w", ...) and
// match with errors.Is.
var (
	// ErrDeviceNotFound: a scan completed but no descriptor matched the
	// requested address.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrConnectFailed: underlying link establishment failed.
	ErrConnectFailed = errors.New("connect failed")

	// ErrDiscoveryFailed: service/characteristic enumeration failed after
	// the link was up.
	ErrDiscoveryFailed = errors.New("service discovery failed")

	// ErrSendFailed: the transport rejected an outbound message.
	ErrSendFailed = errors.New("send failed")

	// ErrClosed: operation on a client that was already closed.
	ErrClosed = errors.New("client closed")
)
