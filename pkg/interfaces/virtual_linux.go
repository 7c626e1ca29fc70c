//go:build linux
// +build linux

package interfaces

import (
	"context"
	"errors"
	"fmt"
	"os"

	canlink "github.com/notnil/canbus"
	"github.com/vishvananda/netlink"
	"go.uber.org/multierr"
)

type virtualInterface struct {
	*linuxInterface
	// created is set when we added the link, and so must delete it.
	created bool
	// wasUp records the state of a reused link.
	wasUp bool
}

func openVirtual(ctx context.Context, ifname string) (Transport, error) {
	iface, err := newInterface(ifname)
	created := false
	if errors.Is(err, ErrNoSuchDevice) {
		err = addVirtualInterface(ifname)
		if err != nil {
			return nil, err
		}
		created = true
		iface, err = newInterface(ifname)
	}
	if err != nil {
		return nil, err
	}
	if kind := iface.link.Type(); kind != virtualInterfaceKind {
		return nil, fmt.Errorf("interface %q is %q, not %s: %w", ifname, kind, virtualInterfaceKind, ErrNoSuchDevice)
	}
	v := &virtualInterface{linuxInterface: iface, created: created}
	if !created {
		if v.wasUp, err = canlink.IsInterfaceUp(ifname); err != nil {
			return nil, fmt.Errorf("reading flags of %q: %w", ifname, err)
		}
	}
	if err = v.EnsureUp(); err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}

func addVirtualInterface(ifname string) error {
	err := netlink.LinkAdd(&vcanLink{name: ifname})
	if err != nil && !os.IsExist(err) {
		return fmt.Errorf("adding vcan link %q: %w", ifname, err)
	}
	return nil
}

// Close deletes the interface if we created it, otherwise returns it to the
// state it was found in.
func (v *virtualInterface) Close() error {
	err := v.closeSocket()
	if !v.created {
		if v.wasUp {
			return err
		}
		return multierr.Append(err, v.EnsureDown())
	}
	if delErr := netlink.LinkDel(v.link); delErr != nil && !os.IsNotExist(delErr) {
		err = multierr.Append(err, fmt.Errorf("deleting interface %q: %w", v.name, delErr))
	}
	return err
}

type vcanLink struct {
	name string
}

// Type implementes netlink.Link interface
func (v *vcanLink) Type() string {
	return virtualInterfaceKind
}

// Attrs implementes netlink.Link interface
func (v *vcanLink) Attrs() *netlink.LinkAttrs {
	attr := netlink.NewLinkAttrs()
	attr.Name = v.name
	return &attr
}
