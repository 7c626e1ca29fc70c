// Package registry is the service directory buses are published into once
// they are up, so that clients can locate them by name.
package registry

import (
	"context"
	"errors"

	"github.com/jcodybaker/canctl/pkg/can"
)

var (
	// ErrNotFound is returned when no bus is registered under a name.
	ErrNotFound = errors.New("not registered")

	// ErrStaticEntry is returned when unpublishing a name declared in the
	// static manifest. The entry stays in place.
	ErrStaticEntry = errors.New("declared in static manifest")
)

// Bus is a published CAN bus.
type Bus interface {
	// Name returns the service name the bus is published under.
	Name() string

	// Config returns the configuration the bus was brought up with.
	Config() can.BusConfig

	// InstanceID returns an identifier unique to this bring-up of the bus.
	InstanceID() string

	// Send transmits frame. Once the bus is down every send fails with
	// can.ErrInterfaceDown.
	Send(ctx context.Context, frame can.Frame) error
}

// Registry is a name based directory of buses.
type Registry interface {
	// Publish registers bus under name, replacing any stale entry.
	Publish(ctx context.Context, name string, bus Bus) error

	// Lookup returns the bus registered under name, or ErrNotFound.
	Lookup(ctx context.Context, name string) (Bus, error)

	// Unpublish removes name. Names declared in a static manifest cannot be
	// removed and return ErrStaticEntry.
	Unpublish(ctx context.Context, name string) error
}
