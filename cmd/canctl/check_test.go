package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jcodybaker/canctl/pkg/can"
	"github.com/jcodybaker/canctl/pkg/controller"
	"github.com/jcodybaker/canctl/pkg/registry"
)

func newTestController(opts ...controller.OptionFunc) (*controller.Controller, error) {
	return controller.New(stubOpener{}, registry.NewMemory(), opts...)
}

func TestCheckBuses(t *testing.T) {
	c, err := newTestController(
		controller.WithLogger(ll),
		controller.WithSupportedTypes([]can.InterfaceType{can.Virtual, can.SocketCAN}),
	)
	require.NoError(t, err)

	tcs := []struct {
		name     string
		entries  []busEntry
		expected []string
		failed   bool
	}{
		{
			name: "all good",
			entries: []busEntry{
				{Name: "chassis", Bitrate: 500000, Interface: "socketcan:can0"},
				{Name: "sim", Interface: "virtual:vcan0"},
			},
			expected: []string{"chassis", "OK", "sim", "OK"},
		},
		{
			name: "failures",
			entries: []busEntry{
				{Name: "", Interface: "virtual:vcan0"},
				{Name: "body", Interface: "slcan:/dev/ttyUSB0"},
				{Name: "chassis", Interface: "socketcan:"},
				{Name: "powertrain", Interface: "bogus"},
				{Name: "sim", Interface: "virtual:vcan0"},
				{Name: "sim", Interface: "virtual:vcan1"},
			},
			expected: []string{
				"BAD_SERVICE_NAME",
				"NOT_SUPPORTED",
				"BAD_INTERFACE_ID",
				"INVALID_STATE",
				"listed more than once",
			},
			failed: true,
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			err := checkBuses(&out, c, tc.entries)
			if tc.failed {
				require.ErrorIs(t, err, errCheckFailed)
			} else {
				require.NoError(t, err)
			}
			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			require.Len(t, lines, len(tc.entries)+1)
			require.True(t, strings.HasPrefix(lines[0], "NAME"))
			for _, s := range tc.expected {
				require.Contains(t, out.String(), s)
			}
		})
	}
}

func TestTypeNames(t *testing.T) {
	require.Equal(t, []string{"virtual", "slcan"}, typeNames([]can.InterfaceType{can.Virtual, can.SLCAN}))
	require.Empty(t, typeNames(nil))
}
