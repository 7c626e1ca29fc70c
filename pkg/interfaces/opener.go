package interfaces

import (
	"context"
	"fmt"
	"sync"

	"github.com/jcodybaker/canctl/pkg/can"
)

// Opener brings up the transport described by a bus config. A device can only
// be held by one open transport at a time.
type Opener struct {
	options Options

	mu      sync.Mutex
	claimed map[string]struct{}
}

// NewOpener returns an Opener using options.
func NewOpener(options Options) *Opener {
	return &Opener{
		options: options,
		claimed: make(map[string]struct{}),
	}
}

// SupportedTypes returns the interface types this opener can bring up on the
// current host.
func (o *Opener) SupportedTypes() []can.InterfaceType {
	return supportedTypes(&o.options)
}

// device is an interface id resolved to the kernel interface or tty it names.
type device struct {
	typ  can.InterfaceType
	name string
}

func (d device) key() string {
	if d.typ == can.SLCAN {
		return "tty:" + d.name
	}
	return "net:" + d.name
}

// Open acquires the transport selected by config.InterfaceID, configures its
// bitrate and brings it up. A device which cannot be found fails with
// ErrNoSuchDevice, an unusable bitrate with ErrBadBitrate, and a device held by
// another transport with ErrDeviceBusy. Nothing is left behind on failure.
func (o *Opener) Open(ctx context.Context, config can.BusConfig) (Transport, error) {
	dev, err := o.resolve(config.InterfaceID)
	if err != nil {
		return nil, err
	}
	release, err := o.claim(dev.key())
	if err != nil {
		return nil, err
	}
	var t Transport
	switch dev.typ {
	case can.Virtual:
		t, err = openVirtual(ctx, dev.name)
	case can.SLCAN:
		t, err = openSLCAN(ctx, &o.options, dev.name, config.Bitrate)
	default:
		t, err = openSocketCAN(ctx, dev.name, config.Bitrate)
	}
	if err != nil {
		release()
		return nil, err
	}
	return &claimedTransport{Transport: t, release: release}, nil
}

func (o *Opener) resolve(id can.InterfaceID) (device, error) {
	switch id := id.(type) {
	case can.VirtualID:
		return device{typ: can.Virtual, name: id.Ifname}, nil
	case can.SocketCANIfname:
		return device{typ: can.SocketCAN, name: id.Ifname}, nil
	case can.SocketCANSerial:
		ifname, err := findBySerial(o.options.sysfsRoot(), "net", id.SerialNo)
		if err != nil {
			return device{}, err
		}
		return device{typ: can.SocketCAN, name: ifname}, nil
	case can.SLCANTTY:
		return device{typ: can.SLCAN, name: id.TTYName}, nil
	case can.SLCANSerial:
		tty, err := findBySerial(o.options.sysfsRoot(), "tty", id.SerialNo)
		if err != nil {
			return device{}, err
		}
		return device{typ: can.SLCAN, name: "/dev/" + tty}, nil
	case can.IndexedID:
		ifname, err := o.indexedInterface(id.Index)
		if err != nil {
			return device{}, err
		}
		return device{typ: can.SocketCAN, name: ifname}, nil
	default:
		return device{}, fmt.Errorf("opening %T: %w", id, ErrUnimplemented)
	}
}

// claim marks key as held until the returned func is called.
func (o *Opener) claim(key string) (func(), error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.claimed == nil {
		o.claimed = make(map[string]struct{})
	}
	if _, ok := o.claimed[key]; ok {
		return nil, fmt.Errorf("claiming %s: %w", key, ErrDeviceBusy)
	}
	o.claimed[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.claimed, key)
		})
	}, nil
}

// claimedTransport gives its device back to the Opener once closed.
type claimedTransport struct {
	Transport
	release func()
}

func (t *claimedTransport) Close() error {
	defer t.release()
	return t.Transport.Close()
}

func (o *Opener) indexedInterface(index uint8) (string, error) {
	if int(index) >= len(o.options.IndexedInterfaces) {
		return "", fmt.Errorf("indexed interface %d of %d: %w", index, len(o.options.IndexedInterfaces), ErrNoSuchDevice)
	}
	return o.options.IndexedInterfaces[index], nil
}

func checkSocketCANBitrate(bitrate uint32) error {
	if bitrate == 0 || bitrate > maxSocketCANBitrate {
		return fmt.Errorf("socketcan bitrate %d: %w", bitrate, ErrBadBitrate)
	}
	return nil
}

// slcanBitrates maps the bitrates understood by the slcan protocol to the
// argument of its "S" command.
var slcanBitrates = map[uint32]int{
	10000:   0,
	20000:   1,
	50000:   2,
	100000:  3,
	125000:  4,
	250000:  5,
	500000:  6,
	800000:  7,
	1000000: 8,
}

func slcanBitrateCode(bitrate uint32) (int, error) {
	code, ok := slcanBitrates[bitrate]
	if !ok {
		return 0, fmt.Errorf("slcan bitrate %d: %w", bitrate, ErrBadBitrate)
	}
	return code, nil
}
