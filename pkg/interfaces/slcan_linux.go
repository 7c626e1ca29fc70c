//go:build linux
// +build linux

package interfaces

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/jcodybaker/canctl/pkg/log"
)

// slcanNames serializes slcan interface naming from picking a free name until
// its link appears, so concurrent opens never race for the same name.
var slcanNames sync.Mutex

type slcanInterface struct {
	*linuxInterface
	cmd        *exec.Cmd
	driverExit <-chan error
	closed     sync.Once
	closeErr   error
}

func openSLCAN(ctx context.Context, options *Options, tty string, bitrate uint32) (Transport, error) {
	if err := checkTTY(tty); err != nil {
		return nil, err
	}
	if _, err := slcanBitrateCode(bitrate); err != nil {
		return nil, err
	}
	cmd, exit, iface, err := startSlcand(ctx, options, tty, bitrate)
	if err != nil {
		return nil, err
	}
	s := &slcanInterface{
		linuxInterface: iface,
		cmd:            cmd,
		driverExit:     exit,
	}
	if err = s.EnsureUp(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func startSlcand(ctx context.Context, options *Options, tty string, bitrate uint32) (*exec.Cmd, <-chan error, *linuxInterface, error) {
	slcanNames.Lock()
	defer slcanNames.Unlock()

	name, err := nextFreeInterfaceName(slcanInterfacePattern)
	if err != nil {
		return nil, nil, nil, err
	}
	cmd, err := slcandCommand(options, tty, name, bitrate)
	if err != nil {
		return nil, nil, nil, err
	}
	log.FromContext(ctx).WithField("interface.name", name).
		Debugf("starting slcand: %s", strings.Join(cmd.Args, " "))
	if err = cmd.Start(); err != nil {
		return nil, nil, nil, fmt.Errorf("starting slcand: %w", err)
	}
	exit := cmdExit(cmd)
	iface, err := waitForInterface(ctx, exit, name)
	if err != nil {
		stopDriver(cmd, exit, driverShutdownTimeout)
		return nil, nil, nil, fmt.Errorf("waiting for interface %q to be created: %w", name, err)
	}
	return cmd, exit, iface, nil
}

// Close stops slcand, which detaches the tty and removes the interface.
func (s *slcanInterface) Close() error {
	s.closed.Do(func() {
		s.closeErr = multierr.Append(
			s.closeSocket(),
			stopDriver(s.cmd, s.driverExit, driverShutdownTimeout),
		)
	})
	return s.closeErr
}

func nextFreeInterfaceName(pattern string) (string, error) {
	existing, err := getAllInterfaces(pattern)
	if err != nil {
		return "", fmt.Errorf("listing existing interfaces: %w", err)
	}
	var name string
	for {
		name, err = nextInterfaceName(pattern, name)
		if err != nil {
			return "", err
		}
		if _, ok := existing[name]; !ok {
			return name, nil
		}
	}
}
