//go:build !linux
// +build !linux

package interfaces

import (
	"context"
	"fmt"

	"github.com/jcodybaker/canctl/pkg/can"
)

func openVirtual(ctx context.Context, ifname string) (Transport, error) {
	return nil, fmt.Errorf("openVirtual: %w", ErrUnimplemented)
}

func openSocketCAN(ctx context.Context, ifname string, bitrate uint32) (Transport, error) {
	return nil, fmt.Errorf("openSocketCAN: %w", ErrUnimplemented)
}

func openSLCAN(ctx context.Context, options *Options, tty string, bitrate uint32) (Transport, error) {
	return nil, fmt.Errorf("openSLCAN: %w", ErrUnimplemented)
}

func supportedTypes(options *Options) []can.InterfaceType {
	return nil
}
