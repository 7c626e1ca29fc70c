package can

import (
	"fmt"
)

const (
	// MaxNameLen is the longest service name a bus may be published under, in bytes.
	MaxNameLen = 32

	// maxIfnameLen is IFNAMSIZ less the trailing NUL.
	maxIfnameLen = 15
)

// BusConfig is a request to bring a bus up.
type BusConfig struct {
	// Name is the key the bus is published under in the service registry.
	Name    string
	Bitrate uint32
	// InterfaceID selects the transport.
	InterfaceID InterfaceID
}

func (c BusConfig) String() string {
	id := "<nil>"
	if c.InterfaceID != nil {
		id = c.InterfaceID.String()
	}
	return fmt.Sprintf("%s(%s @ %d bps)", c.Name, id, c.Bitrate)
}

// Validate runs the structural checks on the name and the interface id. It does
// not consider whether a controller supports the interface type, or whether
// the device exists.
func (c BusConfig) Validate() error {
	if err := ValidateName(c.Name); err != nil {
		return err
	}
	return ValidateInterfaceID(c.InterfaceID)
}

// ValidateName returns a BAD_SERVICE_NAME error if name cannot be published.
func ValidateName(name string) error {
	if name == "" {
		return Errorf(BadServiceName, "service name is empty")
	}
	if len(name) > MaxNameLen {
		return Errorf(BadServiceName, "service name %q is %d bytes, limit is %d", name, len(name), MaxNameLen)
	}
	return nil
}

// ValidateInterfaceID returns a BAD_INTERFACE_ID error if id is not well formed.
func ValidateInterfaceID(id InterfaceID) error {
	switch v := id.(type) {
	case VirtualID:
		return validateIfname("virtual interface name", v.Ifname)
	case SocketCANIfname:
		return validateIfname("socketcan interface name", v.Ifname)
	case SocketCANSerial:
		return validateSerials(v.SerialNo)
	case SLCANTTY:
		if v.TTYName == "" {
			return Errorf(BadInterfaceID, "slcan tty name is empty")
		}
		return nil
	case SLCANSerial:
		return validateSerials(v.SerialNo)
	case IndexedID:
		return nil
	case nil:
		return Errorf(BadInterfaceID, "interface id not set")
	default:
		return Errorf(BadInterfaceID, "unknown interface id %T", id)
	}
}

func validateIfname(what, name string) error {
	if name == "" {
		return Errorf(BadInterfaceID, "%s is empty", what)
	}
	if len(name) > maxIfnameLen {
		return Errorf(BadInterfaceID, "%s %q is longer than %d bytes", what, name, maxIfnameLen)
	}
	return nil
}

func validateSerials(serials []string) error {
	if len(serials) == 0 {
		return Errorf(BadInterfaceID, "serial number list is empty")
	}
	for i, s := range serials {
		if s == "" {
			return Errorf(BadInterfaceID, "serial number %d is empty", i)
		}
	}
	return nil
}
