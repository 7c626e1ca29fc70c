package can

import (
	"fmt"
	"strconv"
	"strings"
)

// InterfaceID describes how to reach the transport behind a bus. It is a closed
// set: Virtual, SocketCANIfname, SocketCANSerial, SLCANTTY, SLCANSerial and
// Indexed are the only implementations.
type InterfaceID interface {
	// Type returns the InterfaceType selected by this identifier.
	Type() InterfaceType
	String() string

	interfaceIDSealed()
}

// VirtualID selects a virtual (vcan) interface by name.
type VirtualID struct {
	Ifname string
}

// SocketCANIfname selects a SocketCAN device by its network interface name.
type SocketCANIfname struct {
	Ifname string
}

// SocketCANSerial selects a SocketCAN device by the serial number of the
// adapter backing it. Any of the listed serials may match.
type SocketCANSerial struct {
	SerialNo []string
}

// SLCANTTY selects a serial-line CAN adapter by its tty path.
type SLCANTTY struct {
	TTYName string
}

// SLCANSerial selects a serial-line CAN adapter by the serial number of the
// USB device providing the tty. Any of the listed serials may match.
type SLCANSerial struct {
	SerialNo []string
}

// IndexedID selects a device specific CAN interface by number.
type IndexedID struct {
	Index uint8
}

func (VirtualID) interfaceIDSealed()       {}
func (SocketCANIfname) interfaceIDSealed() {}
func (SocketCANSerial) interfaceIDSealed() {}
func (SLCANTTY) interfaceIDSealed()        {}
func (SLCANSerial) interfaceIDSealed()     {}
func (IndexedID) interfaceIDSealed()       {}

func (VirtualID) Type() InterfaceType       { return Virtual }
func (SocketCANIfname) Type() InterfaceType { return SocketCAN }
func (SocketCANSerial) Type() InterfaceType { return SocketCAN }
func (SLCANTTY) Type() InterfaceType        { return SLCAN }
func (SLCANSerial) Type() InterfaceType     { return SLCAN }
func (IndexedID) Type() InterfaceType       { return Indexed }

func (id VirtualID) String() string       { return "virtual:" + id.Ifname }
func (id SocketCANIfname) String() string { return "socketcan:" + id.Ifname }
func (id SocketCANSerial) String() string {
	return "socketcan-serial:" + strings.Join(id.SerialNo, ",")
}
func (id SLCANTTY) String() string { return "slcan:" + id.TTYName }
func (id SLCANSerial) String() string {
	return "slcan-serial:" + strings.Join(id.SerialNo, ",")
}
func (id IndexedID) String() string { return "indexed:" + strconv.Itoa(int(id.Index)) }

// ParseInterfaceID parses the "<kind>:<value>" form produced by InterfaceID.String.
// Serial numbers are comma separated. Only the form is checked here; use
// ValidateInterfaceID for the content.
func ParseInterfaceID(s string) (InterfaceID, error) {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return nil, fmt.Errorf("interface id %q: missing kind prefix", s)
	}
	kind, value := strings.ToLower(s[:i]), s[i+1:]
	switch kind {
	case "virtual":
		return VirtualID{Ifname: value}, nil
	case "socketcan":
		return SocketCANIfname{Ifname: value}, nil
	case "socketcan-serial":
		return SocketCANSerial{SerialNo: splitSerials(value)}, nil
	case "slcan":
		return SLCANTTY{TTYName: value}, nil
	case "slcan-serial":
		return SLCANSerial{SerialNo: splitSerials(value)}, nil
	case "indexed":
		idx, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("interface id %q: parsing index: %w", s, err)
		}
		return IndexedID{Index: uint8(idx)}, nil
	default:
		return nil, fmt.Errorf("interface id %q: unknown kind %q", s, kind)
	}
}

func splitSerials(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
