//go:build linux && integration
// +build linux,integration

package interfaces

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netns"

	"github.com/jcodybaker/canctl/pkg/can"
)

func testInNetworkNamespace(t *testing.T, f func()) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	origns, _ := netns.Get()
	defer origns.Close()

	newns, _ := netns.New()
	defer newns.Close()

	defer netns.Set(origns)

	f()
}

func deleteLink(name string) {
	out, err := exec.Command("ip", "link", "delete", name).CombinedOutput()
	if err != nil && !strings.Contains(string(out), "Cannot find device") {
		panic(fmt.Errorf("failed: ip link delete %s: %w - %s", name, err, string(out)))
	}
}

func linkFlags(t *testing.T, name string) []string {
	out, err := exec.Command("ip", "link", "show", name).CombinedOutput()
	require.NoErrorf(t, err, "failed: ip link show %s: %s", name, string(out))
	flagRe := regexp.MustCompile(`<[_A-Z0-9,-]+>`)
	found := flagRe.Find(out)
	require.Greaterf(t, len(found), 2, "link status match is too short")
	return strings.Split(string(found[1:len(found)-1]), ",")
}

func TestWaitForInterface(t *testing.T) {
	tcs := []struct {
		name           string
		cmd            string
		contextTimeout time.Duration
		expectError    string
		expectIface    bool
		expectMaxWait  time.Duration
		expectMinWait  time.Duration
	}{
		{
			name:           "success",
			cmd:            "ip link add dev dummy type dummy && sleep 30",
			expectIface:    true,
			expectMaxWait:  5 * time.Second,
			contextTimeout: time.Minute,
		},
		{
			name:           "eventual success",
			cmd:            "sleep 5 && ip link add dev dummy type dummy && sleep 30",
			expectIface:    true,
			expectMinWait:  5 * time.Second,
			expectMaxWait:  8 * time.Second,
			contextTimeout: time.Minute,
		},
		{
			name:           "timeout",
			cmd:            "sleep 15 && ip link add dev dummy type dummy",
			expectIface:    false,
			expectError:    "timeout",
			expectMinWait:  9 * time.Second,
			expectMaxWait:  12 * time.Second,
			contextTimeout: time.Minute,
		},
		{
			name:           "context deadline exceeded",
			cmd:            "sleep 15",
			expectIface:    false,
			expectError:    "context deadline exceeded",
			expectMinWait:  4 * time.Second,
			expectMaxWait:  7 * time.Second,
			contextTimeout: 5 * time.Second,
		},
		{
			name:           "driver exits",
			cmd:            "false",
			expectIface:    false,
			expectError:    "userspace driver exited 1",
			expectMaxWait:  5 * time.Second,
			contextTimeout: time.Minute,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			testInNetworkNamespace(t, func() {
				defer deleteLink("dummy")

				ctx, cancel := context.WithTimeout(context.Background(), tc.contextTimeout)
				defer cancel()

				cmd := exec.CommandContext(ctx, "sh", "-c", tc.cmd)
				before := time.Now()
				cmd.Start()
				exit := cmdExit(cmd)

				iface, err := waitForInterface(ctx, exit, "dummy")
				after := time.Now()
				if tc.expectError == "" {
					require.NoError(t, err)
					require.NotNil(t, iface)
					require.Equal(t, "dummy", iface.GetName())
				} else {
					require.EqualError(t, err, tc.expectError)
				}

				duration := after.Sub(before)
				require.Less(t, duration.Seconds(), tc.expectMaxWait.Seconds())
				require.GreaterOrEqual(t, duration.Seconds(), tc.expectMinWait.Seconds())

				cancel()
				// Wait for process to exit.
				<-exit

				out, _ := exec.Command("ip", "link", "show", "dummy").CombinedOutput()
				if tc.expectIface {
					require.NotContains(t, string(out), "does not exist")
				} else {
					require.Contains(t, string(out), "does not exist")
				}
			})
		})
	}
}

func TestGetAllInterfaces(t *testing.T) {
	testInNetworkNamespace(t, func() {
		defer deleteLink("dummy")
		defer deleteLink("slcan0")

		out, err := exec.Command("ip", "link", "add", "dev", "dummy", "type", "dummy").CombinedOutput()
		require.NoErrorf(t, err, "failed: ip link add dev dummy type dummy: %s", string(out))
		out, err = exec.Command("ip", "link", "add", "dev", "slcan0", "type", "dummy").CombinedOutput()
		require.NoErrorf(t, err, "failed: ip link add dev slcan0 type dummy: %s", string(out))

		found, err := getAllInterfaces("slcan+")
		require.NoError(t, err)
		require.Equal(t, map[string]struct{}{"slcan0": {}}, found)

		name, err := nextFreeInterfaceName("slcan+")
		require.NoError(t, err)
		require.Equal(t, "slcan1", name)
	})
}

func TestNewInterface(t *testing.T) {
	testInNetworkNamespace(t, func() {
		defer deleteLink("dummy")

		_, err := newInterface("dummy")
		require.ErrorIs(t, err, ErrNoSuchDevice)

		out, err := exec.Command("ip", "link", "add", "dev", "dummy", "type", "dummy").CombinedOutput()
		require.NoErrorf(t, err, "failed: ip link add dev dummy type dummy: %s", string(out))

		iface, err := newInterface("dummy")
		require.NoError(t, err)
		require.Equal(t, "dummy", iface.GetName())
		require.NotNil(t, iface.link)
		attr := iface.link.Attrs()
		require.NotNil(t, attr)
		require.Equal(t, "dummy", attr.Name)
	})
}

func TestOpenVirtual(t *testing.T) {
	tcs := []struct {
		name         string
		setup        func(t *testing.T)
		expectExists bool
		expectUp     bool
	}{
		{
			name: "created",
		},
		{
			name: "existing",
			setup: func(t *testing.T) {
				out, err := exec.Command("ip", "link", "add", "dev", "vcan57", "type", "vcan").CombinedOutput()
				require.NoErrorf(t, err, "failed: ip link add dev vcan57 type vcan: %s", string(out))
			},
			expectExists: true,
		},
		{
			name: "existing and up",
			setup: func(t *testing.T) {
				out, err := exec.Command("ip", "link", "add", "dev", "vcan57", "type", "vcan").CombinedOutput()
				require.NoErrorf(t, err, "failed: ip link add dev vcan57 type vcan: %s", string(out))
				out, err = exec.Command("ip", "link", "set", "dev", "vcan57", "up").CombinedOutput()
				require.NoErrorf(t, err, "failed: ip link set dev vcan57 up: %s", string(out))
			},
			expectExists: true,
			expectUp:     true,
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			testInNetworkNamespace(t, func() {
				defer deleteLink("vcan57")
				if tc.setup != nil {
					tc.setup(t)
				}

				transport, err := openVirtual(context.Background(), "vcan57")
				require.NoError(t, err)
				require.Equal(t, "vcan57", transport.GetName())
				require.Contains(t, linkFlags(t, "vcan57"), "UP")

				require.NoError(t, transport.Send(context.Background(), can.Frame{}))

				require.NoError(t, transport.Close())
				out, _ := exec.Command("ip", "link", "show", "vcan57").CombinedOutput()
				switch {
				case tc.expectUp:
					require.Contains(t, linkFlags(t, "vcan57"), "UP")
				case tc.expectExists:
					require.NotContains(t, linkFlags(t, "vcan57"), "UP")
				default:
					require.Contains(t, string(out), "does not exist")
				}
				require.ErrorIs(t, transport.Send(context.Background(), can.Frame{}), can.ErrInterfaceDown)
			})
		})
	}
}

func TestOpenVirtualWrongKind(t *testing.T) {
	testInNetworkNamespace(t, func() {
		defer deleteLink("dummy")
		out, err := exec.Command("ip", "link", "add", "dev", "dummy", "type", "dummy").CombinedOutput()
		require.NoErrorf(t, err, "failed: ip link add dev dummy type dummy: %s", string(out))

		_, err = openVirtual(context.Background(), "dummy")
		require.ErrorIs(t, err, ErrNoSuchDevice)
	})
}

func TestOpenSocketCANMissing(t *testing.T) {
	testInNetworkNamespace(t, func() {
		_, err := openSocketCAN(context.Background(), "can87", 125000)
		require.ErrorIs(t, err, ErrNoSuchDevice)
	})
}

func TestOpenSocketCANNotCAN(t *testing.T) {
	testInNetworkNamespace(t, func() {
		defer deleteLink("vcan58")
		out, err := exec.Command("ip", "link", "add", "dev", "vcan58", "type", "vcan").CombinedOutput()
		require.NoErrorf(t, err, "failed: ip link add dev vcan58 type vcan: %s", string(out))

		_, err = openSocketCAN(context.Background(), "vcan58", 125000)
		require.ErrorIs(t, err, ErrNoSuchDevice)
	})
}
