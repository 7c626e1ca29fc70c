//go:build linux
// +build linux

package interfaces

import (
	"context"
	"errors"
	"fmt"

	"github.com/notnil/canbus/canbus"
	"golang.org/x/sys/unix"

	"github.com/jcodybaker/canctl/pkg/can"
)

// rawSocket is a CAN_RAW socket bound to one interface.
type rawSocket struct {
	bus canbus.Bus
}

func dialRaw(ifname string) (*rawSocket, error) {
	bus, err := canbus.DialSocketCAN(ifname)
	if err != nil {
		return nil, fmt.Errorf("dialing socketcan on %q: %w", ifname, err)
	}
	return &rawSocket{bus: bus}, nil
}

func (s *rawSocket) send(ctx context.Context, frame can.Frame) error {
	return sendError(s.bus.Send(ctx, frame))
}

func (s *rawSocket) Close() error {
	return s.bus.Close()
}

// sendError maps a socket write failure onto the bus errors.
func sendError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, can.ErrInvalidID), errors.Is(err, can.ErrInvalidLen):
		return err
	case errors.Is(err, unix.ENETDOWN), errors.Is(err, unix.ENODEV),
		errors.Is(err, unix.EBADF), errors.Is(err, canbus.ErrClosed):
		return fmt.Errorf("%w: %v", can.ErrInterfaceDown, err)
	default:
		return fmt.Errorf("%w: %v", can.ErrTransmission, err)
	}
}
