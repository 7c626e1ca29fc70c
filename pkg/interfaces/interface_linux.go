//go:build linux
// +build linux

package interfaces

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
	"go.uber.org/multierr"

	"github.com/jcodybaker/canctl/pkg/can"
	"github.com/jcodybaker/canctl/pkg/log"
)

type linuxInterface struct {
	name string
	link netlink.Link

	mu   sync.Mutex
	sock *rawSocket
}

var _ Transport = &linuxInterface{}

func newInterface(name string) (*linuxInterface, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		var notFound netlink.LinkNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("finding interface %q: %w", name, ErrNoSuchDevice)
		}
		return nil, fmt.Errorf("finding interface %q: %w", name, err)
	}
	return &linuxInterface{
		name: name,
		link: link,
	}, nil
}

func waitForInterface(ctx context.Context, exit <-chan error, name string) (*linuxInterface, error) {
	updates := make(chan netlink.LinkUpdate) // netlink.LinkSubscribe... will close
	done := make(chan struct{})
	defer close(done)

	err := netlink.LinkSubscribeWithOptions(updates, done, netlink.LinkSubscribeOptions{
		ListExisting: true,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing link subscription: %w", err)
	}

	t := time.NewTimer(interfaceTimeout)
	defer t.Stop()

	ll := log.FromContext(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case update := <-updates:
			attr := update.Attrs()
			if attr == nil {
				return nil, errors.New("netlink update had nil link attributes")
			}
			if attr.Name == name {
				// SUCCESS
				return &linuxInterface{
					name: name,
					link: update.Link,
				}, nil
			}
			ll.WithFields(logrus.Fields{
				"interface.name":    attr.Name,
				"interface.desired": name,
			}).Debug("ignoring update about irrelevant interface")
			continue
		case err := <-exit:
			if err == nil {
				return nil, errors.New("userspace driver exited 0")
			}
			if eErr, ok := err.(*exec.ExitError); ok && eErr.ProcessState != nil {
				return nil, fmt.Errorf("userspace driver exited %d", eErr.ProcessState.ExitCode())
			}
			return nil, fmt.Errorf("monitoring userspace driver: %w", err)
		case <-t.C:
			return nil, errors.New("timeout")
		}
	}
}

// EnsureUp sets the interface to the "UP" state if it is not currently up, and
// opens the raw socket used to send frames.
func (i *linuxInterface) EnsureUp() error {
	err := netlink.LinkSetUp(i.link)
	if err != nil {
		return fmt.Errorf("setting link %q up: %w", i.name, err)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.sock != nil {
		return nil
	}
	i.sock, err = dialRaw(i.name)
	if err != nil {
		return fmt.Errorf("opening raw socket on %q: %w", i.name, err)
	}
	return nil
}

// EnsureDown sets the interface to the "DOWN" state if it is not currently down.
func (i *linuxInterface) EnsureDown() error {
	err := netlink.LinkSetDown(i.link)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("setting link %q down: %w", i.name, err)
	}
	return nil
}

func (i *linuxInterface) GetName() string {
	return i.name
}

// Send writes frame to the interface's raw socket.
func (i *linuxInterface) Send(ctx context.Context, frame can.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	i.mu.Lock()
	sock := i.sock
	i.mu.Unlock()
	if sock == nil {
		return can.ErrInterfaceDown
	}
	return sock.send(ctx, frame)
}

func (i *linuxInterface) closeSocket() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.sock == nil {
		return nil
	}
	err := i.sock.Close()
	i.sock = nil
	return err
}

// Close releases the raw socket and sets the interface down.
func (i *linuxInterface) Close() error {
	return multierr.Append(i.closeSocket(), i.EnsureDown())
}

func getAllInterfaces(desired string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("listing all interfaces: %w", err)
	}
	base := strings.TrimSuffix(desired, "+")
	for _, link := range links {
		attrs := link.Attrs()
		if attrs == nil {
			continue
		}
		if !strings.HasPrefix(attrs.Name, base) {
			continue
		}
		out[attrs.Name] = struct{}{}
	}
	return out, nil
}

func supportedTypes(options *Options) []can.InterfaceType {
	out := []can.InterfaceType{can.Virtual, can.SocketCAN}
	if _, err := exec.LookPath(options.slcandPath()); err == nil {
		out = append(out, can.SLCAN)
	}
	if len(options.IndexedInterfaces) > 0 {
		out = append(out, can.Indexed)
	}
	return out
}
