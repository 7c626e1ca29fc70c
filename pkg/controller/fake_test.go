package controller

import (
	"context"
	"sync"

	"github.com/jcodybaker/canctl/pkg/can"
	"github.com/jcodybaker/canctl/pkg/interfaces"
	"github.com/jcodybaker/canctl/pkg/registry"
)

type fakeTransport struct {
	sync.Mutex
	name   string
	closed bool
	sent   []can.Frame
	err    error
}

func (t *fakeTransport) GetName() string {
	return t.name
}

func (t *fakeTransport) Send(_ context.Context, frame can.Frame) error {
	t.Lock()
	defer t.Unlock()
	if t.closed {
		return can.ErrInterfaceDown
	}
	if t.err != nil {
		return t.err
	}
	t.sent = append(t.sent, frame)
	return nil
}

func (t *fakeTransport) Close() error {
	t.Lock()
	defer t.Unlock()
	t.closed = true
	return nil
}

func (t *fakeTransport) isClosed() bool {
	t.Lock()
	defer t.Unlock()
	return t.closed
}

type fakeOpener struct {
	sync.Mutex
	types  []can.InterfaceType
	err    error
	opened []*fakeTransport
	// block, when set, is waited on before Open returns.
	block chan struct{}
}

func newFakeOpener(types ...can.InterfaceType) *fakeOpener {
	if types == nil {
		types = can.AllInterfaceTypes()
	}
	return &fakeOpener{types: types}
}

func (o *fakeOpener) SupportedTypes() []can.InterfaceType {
	return o.types
}

func (o *fakeOpener) Open(ctx context.Context, config can.BusConfig) (interfaces.Transport, error) {
	if o.block != nil {
		select {
		case <-o.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	o.Lock()
	defer o.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	t := &fakeTransport{name: "vcan" + config.Name}
	o.opened = append(o.opened, t)
	return t, nil
}

func (o *fakeOpener) transports() []*fakeTransport {
	o.Lock()
	defer o.Unlock()
	return append([]*fakeTransport(nil), o.opened...)
}

// failingRegistry wraps a registry and fails every publish.
type failingRegistry struct {
	registry.Registry
	err error
}

func (r *failingRegistry) Publish(context.Context, string, registry.Bus) error {
	return r.err
}
