package can

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseInterfaceID(t *testing.T) {
	tcs := []struct {
		in          string
		expect      InterfaceID
		expectType  InterfaceType
		expectError string
	}{
		{in: "virtual:vcan70", expect: VirtualID{Ifname: "vcan70"}, expectType: Virtual},
		{in: "socketcan:can0", expect: SocketCANIfname{Ifname: "can0"}, expectType: SocketCAN},
		{
			in:         "socketcan-serial:1234,2345",
			expect:     SocketCANSerial{SerialNo: []string{"1234", "2345"}},
			expectType: SocketCAN,
		},
		{in: "slcan:/dev/ttyUSB0", expect: SLCANTTY{TTYName: "/dev/ttyUSB0"}, expectType: SLCAN},
		{
			in:         "SLCAN-Serial:dead,beef",
			expect:     SLCANSerial{SerialNo: []string{"dead", "beef"}},
			expectType: SLCAN,
		},
		{in: "indexed:0", expect: IndexedID{Index: 0}, expectType: Indexed},
		{in: "virtual:", expect: VirtualID{}, expectType: Virtual},
		{in: "vcan0", expectError: `interface id "vcan0": missing kind prefix`},
		{in: "pcan:usb0", expectError: `interface id "pcan:usb0": unknown kind "pcan"`},
		{in: "indexed:256", expectError: `interface id "indexed:256": parsing index: strconv.ParseUint: parsing "256": value out of range`},
	}
	for _, tc := range tcs {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			id, err := ParseInterfaceID(tc.in)
			if tc.expectError != "" {
				require.EqualError(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect, id)
			require.Equal(t, tc.expectType, id.Type())
		})
	}
}

func TestInterfaceIDStringRoundTrip(t *testing.T) {
	ids := []InterfaceID{
		VirtualID{Ifname: "vcan70"},
		SocketCANIfname{Ifname: "can0"},
		SocketCANSerial{SerialNo: []string{"1234", "2345"}},
		SLCANTTY{TTYName: "/dev/ttyUSB0"},
		SLCANSerial{SerialNo: []string{"dead", "beef"}},
		IndexedID{Index: 3},
	}
	for _, id := range ids {
		parsed, err := ParseInterfaceID(id.String())
		require.NoError(t, err)
		require.Equal(t, id, parsed)
	}
}

func TestInterfaceTypeFromString(t *testing.T) {
	for _, typ := range AllInterfaceTypes() {
		parsed, err := InterfaceTypeFromString(typ.String())
		require.NoError(t, err)
		require.Equal(t, typ, parsed)
	}
	parsed, err := InterfaceTypeFromString("SocketCAN")
	require.NoError(t, err)
	require.Equal(t, SocketCAN, parsed)

	_, err = InterfaceTypeFromString("pcan")
	require.EqualError(t, err, `unknown interface type "pcan"`)
	require.Equal(t, "InterfaceType(9)", InterfaceType(9).String())
}
