package transport

import "errors"

// Sentinel errors for transport operations.
var (
	// ErrSendFailed is returned when the collector rejects a block.
	ErrSendFailed = errors.New("transport: send rejected by collector")

	// ErrRegisterFailed is returned when the registration handshake is
	// rejected.
	ErrRegisterFailed = errors.New("transport: registration rejected by collector")
)
