package interfaces

import (
	"time"
)

const (
	defaultSlcandPath = "slcand"
	defaultSysfsRoot  = "/sys"

	// interfaceTimeout is the period we'll wait for a driver to create the interface.
	interfaceTimeout       = 10 * time.Second
	driverShutdownTimeout  = 10 * time.Second
	slcanInterfacePattern  = "slcan+"
	maxSocketCANBitrate    = 1000000
	virtualInterfaceKind   = "vcan"
	socketCANInterfaceKind = "can"
)

// Options configures how transports are brought up.
type Options struct {
	// IndexedInterfaces maps indexed interface ids to SocketCAN interface
	// names: index 0 is IndexedInterfaces[0] and so on. Indexed interfaces are
	// only supported when this is non-empty.
	IndexedInterfaces []string

	// SlcandPath is the path to the slcand userspace driver. Defaults to
	// "slcand" on $PATH.
	SlcandPath string

	// SlcandExtraArgs are extra arguments passed to slcand, shell quoted.
	SlcandExtraArgs string

	// SysfsRoot is where sysfs is mounted. Used to resolve serial numbers.
	SysfsRoot string
}

func (o *Options) slcandPath() string {
	if o.SlcandPath == "" {
		return defaultSlcandPath
	}
	return o.SlcandPath
}

func (o *Options) sysfsRoot() string {
	if o.SysfsRoot == "" {
		return defaultSysfsRoot
	}
	return o.SysfsRoot
}
