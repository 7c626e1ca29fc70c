package interfaces

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildSysfs lays out a minimal sysfs: one USB adapter (serial "1234")
// providing can0 and ttyUSB0, and a virtual vcan0 with no device link.
func buildSysfs(t *testing.T) string {
	root := t.TempDir()
	usbDev := filepath.Join(root, "devices", "pci0000:00", "usb1", "1-1")
	usbIface := filepath.Join(usbDev, "1-1:1.0")
	require.NoError(t, os.MkdirAll(filepath.Join(usbIface, "net", "can0"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(usbIface, "ttyUSB0"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(usbDev, "serial"), []byte("1234\n"), 0644))

	for _, d := range []string{"class/net/can0", "class/net/vcan0", "class/tty/ttyUSB0", "class/tty/tty0"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0755))
	}
	require.NoError(t, os.Symlink(usbIface, filepath.Join(root, "class/net/can0/device")))
	require.NoError(t, os.Symlink(filepath.Join(usbIface, "ttyUSB0"), filepath.Join(root, "class/tty/ttyUSB0/device")))
	return root
}

func TestFindBySerial(t *testing.T) {
	root := buildSysfs(t)
	tcs := []struct {
		name        string
		class       string
		serials     []string
		expect      string
		expectError error
	}{
		{
			name:    "net match",
			class:   "net",
			serials: []string{"1234"},
			expect:  "can0",
		},
		{
			name:    "net match second serial",
			class:   "net",
			serials: []string{"9999", "1234"},
			expect:  "can0",
		},
		{
			name:    "tty match",
			class:   "tty",
			serials: []string{"1234"},
			expect:  "ttyUSB0",
		},
		{
			name:        "no match",
			class:       "net",
			serials:     []string{"dead", "beef"},
			expectError: ErrNoSuchDevice,
		},
		{
			name:        "missing class",
			class:       "bluetooth",
			serials:     []string{"1234"},
			expectError: ErrNoSuchDevice,
		},
	}
	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			found, err := findBySerial(root, tc.class, tc.serials)
			if tc.expectError != nil {
				require.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect, found)
		})
	}
}

func TestAncestorSerialStopsAtRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "serial"), []byte("outside"), 0644))
	dir := filepath.Join(root, "devices", "platform")
	require.NoError(t, os.MkdirAll(dir, 0755))
	_, ok := ancestorSerial(root, dir)
	require.False(t, ok)
}
