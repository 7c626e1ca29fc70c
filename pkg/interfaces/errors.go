package interfaces

import (
	"errors"
)

// ErrUnimplemented is returned when a transport cannot be used on this platform.
var ErrUnimplemented = errors.New("unimplemented on this platform")

// ErrNoSuchDevice is returned when an interface id doesn't resolve to a usable device.
var ErrNoSuchDevice = errors.New("no such device")

// ErrBadBitrate is returned when the device cannot run at the requested bitrate.
var ErrBadBitrate = errors.New("unsupported bitrate")

var errDriverNotFound = errors.New("driver not found")

// ErrDeviceBusy is returned when the device behind an interface id is already
// held by another open transport.
var ErrDeviceBusy = errors.New("device busy")
