package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/jcodybaker/canctl/pkg/can"
	"github.com/jcodybaker/canctl/pkg/interfaces"
	"github.com/jcodybaker/canctl/pkg/registry"
)

// Bus is the handle published for an up interface. It outlives the interface
// when the registry cannot drop it, and from then on reports the interface as
// down.
type Bus struct {
	config     can.BusConfig
	instanceID string

	mu        sync.RWMutex
	transport interfaces.Transport
}

var _ registry.Bus = &Bus{}

func newBus(config can.BusConfig, instanceID string, transport interfaces.Transport) *Bus {
	return &Bus{
		config:     config,
		instanceID: instanceID,
		transport:  transport,
	}
}

// Name returns the service name the bus is published under.
func (b *Bus) Name() string {
	return b.config.Name
}

// Config returns the configuration the bus was brought up with.
func (b *Bus) Config() can.BusConfig {
	return b.config
}

// InstanceID returns the identifier of this bring-up.
func (b *Bus) InstanceID() string {
	return b.instanceID
}

// Send transmits frame on the underlying interface. Once the bus has been
// brought down every call returns can.ErrInterfaceDown.
func (b *Bus) Send(ctx context.Context, frame can.Frame) error {
	if err := frame.Validate(); err != nil {
		return fmt.Errorf("sending on %q: %w", b.config.Name, err)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.transport == nil {
		return fmt.Errorf("sending on %q: %w", b.config.Name, can.ErrInterfaceDown)
	}
	if err := b.transport.Send(ctx, frame); err != nil {
		return fmt.Errorf("sending on %q: %w", b.config.Name, err)
	}
	return nil
}

// IsUp reports whether the bus still has a transport.
func (b *Bus) IsUp() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.transport != nil
}

// detach neuters the handle and returns the transport for the caller to close.
// In-flight sends finish before detach returns.
func (b *Bus) detach() interfaces.Transport {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.transport
	b.transport = nil
	return t
}
