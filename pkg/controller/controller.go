// Package controller implements the CAN controller: it brings bus interfaces
// up and down and publishes the resulting buses into a service registry.
package controller

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/jcodybaker/canctl/pkg/can"
	"github.com/jcodybaker/canctl/pkg/interfaces"
	ctxlog "github.com/jcodybaker/canctl/pkg/log"
	"github.com/jcodybaker/canctl/pkg/registry"
)

// Opener acquires the transport behind a bus. *interfaces.Opener implements it.
type Opener interface {
	// SupportedTypes returns the interface types Open can bring up.
	SupportedTypes() []can.InterfaceType

	// Open acquires and brings up the transport selected by config.
	Open(ctx context.Context, config can.BusConfig) (interfaces.Transport, error)
}

var _ Opener = &interfaces.Opener{}

// entry is the state kept for a name. pending entries are being brought up or
// down and are not yet (or no longer) up. device is the interface id the name
// holds.
type entry struct {
	bus     *Bus
	device  string
	pending bool
}

// Controller tracks which buses are up. Lifecycle operations on a name are
// serialized; transports are acquired without holding the controller lock.
type Controller struct {
	sync.Mutex

	opener         Opener
	registry       registry.Registry
	ll             log.FieldLogger
	supported      []can.InterfaceType
	acquireTimeout time.Duration

	buses map[string]*entry
}

// New returns a Controller which brings interfaces up with opener and publishes
// them into reg.
func New(opener Opener, reg registry.Registry, opts ...OptionFunc) (*Controller, error) {
	if opener == nil {
		return nil, errors.New("opener is required")
	}
	if reg == nil {
		return nil, errors.New("registry is required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	c := &Controller{
		opener:         opener,
		registry:       reg,
		ll:             o.ll,
		acquireTimeout: o.acquireTimeout,
		buses:          make(map[string]*entry),
	}
	c.supported = supportedTypes(opener.SupportedTypes(), o.supportedTypes)
	return c, nil
}

// supportedTypes returns available, restricted to allowed when allowed is set.
func supportedTypes(available, allowed []can.InterfaceType) []can.InterfaceType {
	set := make(map[can.InterfaceType]struct{}, len(available))
	for _, t := range available {
		set[t] = struct{}{}
	}
	if allowed != nil {
		restricted := make(map[can.InterfaceType]struct{}, len(allowed))
		for _, t := range allowed {
			if _, ok := set[t]; ok {
				restricted[t] = struct{}{}
			}
		}
		set = restricted
	}
	out := make([]can.InterfaceType, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// GetSupportedInterfaceTypes returns the interface types this controller can
// bring up.
func (c *Controller) GetSupportedInterfaceTypes() []can.InterfaceType {
	return append(make([]can.InterfaceType, 0, len(c.supported)), c.supported...)
}

func (c *Controller) isSupported(t can.InterfaceType) bool {
	for _, s := range c.supported {
		if s == t {
			return true
		}
	}
	return false
}

// UpInterface brings up the interface described by config and publishes it
// under config.Name. The returned error carries a can.Result, see can.ResultOf.
// On failure nothing is left up or published.
func (c *Controller) UpInterface(ctx context.Context, config can.BusConfig) error {
	ll := c.ll.WithFields(log.Fields{
		"bus.name":    config.Name,
		"bus.bitrate": config.Bitrate,
	})
	if config.InterfaceID != nil {
		ll = ll.WithFields(log.Fields{
			"interface.type": config.InterfaceID.Type().String(),
			"interface.id":   config.InterfaceID.String(),
		})
	}
	err := c.upInterface(ctx, config, ll)
	if err != nil {
		ll.WithField("result", can.ResultOf(err).String()).WithError(err).Warn("failed to bring interface up")
		return err
	}
	return nil
}

// Validate runs the checks UpInterface makes before touching any state or
// device: the name, then whether the interface type is supported, then the
// shape of the interface id.
func (c *Controller) Validate(config can.BusConfig) error {
	if err := can.ValidateName(config.Name); err != nil {
		return err
	}
	if config.InterfaceID != nil {
		if t := config.InterfaceID.Type(); !c.isSupported(t) {
			return can.Errorf(can.NotSupported, "%s interfaces are not supported", t)
		}
	}
	return can.ValidateInterfaceID(config.InterfaceID)
}

func (c *Controller) upInterface(ctx context.Context, config can.BusConfig, ll log.FieldLogger) error {
	if err := c.Validate(config); err != nil {
		return err
	}

	if err := c.reserve(config.Name, config.InterfaceID.String()); err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			c.release(config.Name)
		}
	}()

	ll.Debugln("acquiring transport")
	acquireCtx, cancel := context.WithTimeout(ctx, c.acquireTimeout)
	defer cancel()
	transport, err := c.opener.Open(ctxlog.WithLogger(acquireCtx, ll), config)
	if err != nil {
		return resultFor(err)
	}

	bus := newBus(config, uuid.New().String(), transport)
	ll = ll.WithFields(log.Fields{
		"bus.instance":   bus.InstanceID(),
		"interface.name": transport.GetName(),
	})
	ll.Debugln("publishing bus")
	if err = c.registry.Publish(ctx, config.Name, bus); err != nil {
		bus.detach()
		if closeErr := transport.Close(); closeErr != nil {
			ll.WithError(closeErr).Warn("failed to release transport after publish failure")
		}
		return can.Errorf(can.UnknownError, "publishing %q: %w", config.Name, err)
	}

	c.commit(config.Name, bus)
	committed = true
	ll.Infoln("interface up")
	return nil
}

// reserve claims name and device for a bring-up, failing if either is already
// up or busy.
func (c *Controller) reserve(name, device string) error {
	c.Lock()
	defer c.Unlock()
	if e, ok := c.buses[name]; ok {
		if e.pending {
			return can.Errorf(can.InvalidState, "interface %q is changing state", name)
		}
		return can.Errorf(can.InvalidState, "interface %q is already up as %s", name, e.device)
	}
	for other, e := range c.buses {
		if e.device == device {
			return can.Errorf(can.InvalidState, "%s is already held by %q", device, other)
		}
	}
	c.buses[name] = &entry{device: device, pending: true}
	return nil
}

func (c *Controller) release(name string) {
	c.Lock()
	defer c.Unlock()
	delete(c.buses, name)
}

func (c *Controller) commit(name string, bus *Bus) {
	c.Lock()
	defer c.Unlock()
	c.buses[name] = &entry{bus: bus, device: bus.Config().InterfaceID.String()}
}

// resultFor maps a transport error to the Result reported to callers.
func resultFor(err error) error {
	var e *can.Error
	if errors.As(err, &e) {
		return err
	}
	r := can.UnknownError
	switch {
	case errors.Is(err, interfaces.ErrNoSuchDevice):
		r = can.BadInterfaceID
	case errors.Is(err, interfaces.ErrBadBitrate):
		r = can.BadBitrate
	case errors.Is(err, interfaces.ErrUnimplemented):
		r = can.NotSupported
	case errors.Is(err, interfaces.ErrDeviceBusy):
		r = can.InvalidState
	}
	return &can.Error{Result: r, Err: err}
}

// DownInterface brings down the interface published under name. It returns
// false if no such interface is up.
//
// The published handle is neutered before anything else, so sends through it
// fail with can.ErrInterfaceDown even when the registry cannot drop the name.
func (c *Controller) DownInterface(ctx context.Context, name string) bool {
	c.Lock()
	e, ok := c.buses[name]
	if !ok || e.pending {
		c.Unlock()
		return false
	}
	e.pending = true
	c.Unlock()

	ll := c.ll.WithFields(log.Fields{
		"bus.name":     name,
		"bus.instance": e.bus.InstanceID(),
	})
	transport := e.bus.detach()

	err := c.registry.Unpublish(ctx, name)
	switch {
	case err == nil:
	case errors.Is(err, registry.ErrStaticEntry):
		ll.Debug("registry entry is static; handle left in place reports interface down")
	default:
		ll.WithError(err).Warn("failed to unpublish bus")
	}

	if transport != nil {
		ll = ll.WithField("interface.name", transport.GetName())
		if err = transport.Close(); err != nil {
			ll.WithError(err).Warn("failed to release transport")
		}
	}

	c.release(name)
	ll.Infoln("interface down")
	return true
}

// List returns the configs of the interfaces which are currently up, by name.
func (c *Controller) List() []can.BusConfig {
	c.Lock()
	defer c.Unlock()
	out := make([]can.BusConfig, 0, len(c.buses))
	for _, e := range c.buses {
		if e.pending {
			continue
		}
		out = append(out, e.bus.Config())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close brings down every interface which is up.
func (c *Controller) Close(ctx context.Context) {
	for _, config := range c.List() {
		if !c.DownInterface(ctx, config.Name) {
			c.ll.WithField("bus.name", config.Name).Debug("interface went down during close")
		}
	}
}
