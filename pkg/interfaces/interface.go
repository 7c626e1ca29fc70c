package interfaces

import (
	"context"

	"github.com/jcodybaker/canctl/pkg/can"
)

// Transport describes actions which can be performed against the network
// interface backing a bus.
type Transport interface {
	// Close takes the interface down and stops any drivers from servicing it.
	// Interfaces created by the transport are deleted.
	Close() error

	// GetName returns the kernel name of the interface.
	GetName() string

	// Send writes one frame to the interface. A frame sent to an interface which
	// is no longer up fails with can.ErrInterfaceDown.
	Send(ctx context.Context, frame can.Frame) error
}
