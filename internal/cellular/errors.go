package cellular

import "errors"

var (
	// ErrUnknownUE reports a reference to a UE id the network has
	// never seen.
	ErrUnknownUE = errors.New("unknown UE")

	// ErrUnknownAP reports a reference to an AP id off the grid.
	ErrUnknownAP = errors.New("unknown AP")

	// ErrExternalServer wraps failures talking to the network the
	// environment is attached to.
	ErrExternalServer = errors.New("external server error")

	// ErrClientNotImplemented is returned when the requested
	// environment type has no working client.
	ErrClientNotImplemented = errors.New("client not implemented")
)
