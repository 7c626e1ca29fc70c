//go:build linux
// +build linux

package interfaces

import (
	"context"
	"fmt"
	"strings"

	canlink "github.com/notnil/canbus"
	"go.uber.org/multierr"
)

// socketCANInterface is an existing can link. It is left in the up/down state
// it was found in once released.
type socketCANInterface struct {
	*linuxInterface
	wasUp bool
}

func openSocketCAN(ctx context.Context, ifname string, bitrate uint32) (Transport, error) {
	iface, err := newInterface(ifname)
	if err != nil {
		return nil, err
	}
	if kind := iface.link.Type(); kind != socketCANInterfaceKind {
		return nil, fmt.Errorf("interface %q is %q, not %s: %w", ifname, kind, socketCANInterfaceKind, ErrNoSuchDevice)
	}
	if err = checkSocketCANBitrate(bitrate); err != nil {
		return nil, err
	}
	wasUp, err := canlink.IsInterfaceUp(ifname)
	if err != nil {
		return nil, fmt.Errorf("reading flags of %q: %w", ifname, err)
	}
	s := &socketCANInterface{linuxInterface: iface, wasUp: wasUp}

	// Bit timing can only be changed while the link is down.
	if err = iface.EnsureDown(); err != nil {
		return nil, err
	}
	if err = setBitrate(ifname, bitrate); err != nil {
		return nil, s.restore(err)
	}
	if err = iface.EnsureUp(); err != nil {
		return nil, s.restore(err)
	}
	return s, nil
}

// restore puts the link back the way openSocketCAN found it and returns cause.
func (s *socketCANInterface) restore(cause error) error {
	if err := s.release(); err != nil {
		return fmt.Errorf("%w (restoring %q: %v)", cause, s.name, err)
	}
	return cause
}

func (s *socketCANInterface) release() error {
	err := s.closeSocket()
	if s.wasUp {
		return multierr.Append(err, canlink.RequireRootOrCapNetAdmin(canlink.SetInterfaceUp(s.name)))
	}
	return multierr.Append(err, s.EnsureDown())
}

// Close releases the raw socket and returns the link to its original state.
func (s *socketCANInterface) Close() error {
	return s.release()
}

func setBitrate(ifname string, bitrate uint32) error {
	err := canlink.ConfigureLinuxCANInterface(ifname, canlink.LinuxCANInterfaceOptions{
		Bitrate: &bitrate,
	})
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "Invalid argument") || strings.Contains(msg, "Numerical result out of range") {
		return fmt.Errorf("setting %q bitrate %d: %w", ifname, bitrate, ErrBadBitrate)
	}
	return fmt.Errorf("setting %q bitrate %d: %w", ifname, bitrate, err)
}
