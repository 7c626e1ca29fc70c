package registry

import (
	"context"

	"github.com/jcodybaker/canctl/pkg/can"
)

type testBus struct {
	name     string
	config   can.BusConfig
	instance string
	down     bool
}

func newTestBus(name string, id can.InterfaceID) *testBus {
	return &testBus{
		name:     name,
		config:   can.BusConfig{Name: name, Bitrate: 125000, InterfaceID: id},
		instance: "instance-" + name,
	}
}

func (b *testBus) Name() string          { return b.name }
func (b *testBus) Config() can.BusConfig { return b.config }
func (b *testBus) InstanceID() string    { return b.instance }

func (b *testBus) Send(context.Context, can.Frame) error {
	if b.down {
		return can.ErrInterfaceDown
	}
	return nil
}
