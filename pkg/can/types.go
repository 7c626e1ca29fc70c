package can

import (
	"fmt"
	"strings"
)

// InterfaceType identifies the kind of transport backing a bus. The numeric
// values are stable and may be used on the wire.
type InterfaceType uint8

const (
	// Virtual is a kernel vcan channel with no physical bus behind it.
	Virtual InterfaceType = iota
	// SocketCAN is a native Linux CAN network device (ex. can0).
	SocketCAN
	// SLCAN is a serial-line CAN adapter attached to a tty.
	SLCAN
	// Indexed is a device specific, numbered CAN interface.
	Indexed
)

var interfaceTypeNames = map[InterfaceType]string{
	Virtual:   "virtual",
	SocketCAN: "socketcan",
	SLCAN:     "slcan",
	Indexed:   "indexed",
}

func (t InterfaceType) String() string {
	if s, ok := interfaceTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("InterfaceType(%d)", uint8(t))
}

// AllInterfaceTypes returns every interface type known to this package.
func AllInterfaceTypes() []InterfaceType {
	return []InterfaceType{Virtual, SocketCAN, SLCAN, Indexed}
}

// InterfaceTypeFromString returns a valid InterfaceType, or a descriptive error if the
// token is unknown.
func InterfaceTypeFromString(s string) (InterfaceType, error) {
	for t, name := range interfaceTypeNames {
		if strings.EqualFold(s, name) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown interface type %q", s)
}
