package interfaces

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// findBySerial returns the name of the first device in sysfs class whose USB
// ancestor reports one of serials.
func findBySerial(sysfsRoot, class string, serials []string) (string, error) {
	root, err := filepath.EvalSymlinks(sysfsRoot)
	if err != nil {
		return "", fmt.Errorf("resolving sysfs root %q: %w", sysfsRoot, err)
	}
	want := make(map[string]struct{}, len(serials))
	for _, s := range serials {
		want[s] = struct{}{}
	}

	classDir := filepath.Join(root, "class", class)
	entries, err := os.ReadDir(classDir)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("no %s devices: %w", class, ErrNoSuchDevice)
	}
	if err != nil {
		return "", fmt.Errorf("listing %q: %w", classDir, err)
	}
	for _, entry := range entries {
		dev, err := filepath.EvalSymlinks(filepath.Join(classDir, entry.Name(), "device"))
		if err != nil {
			continue // virtual devices have no backing device.
		}
		serial, ok := ancestorSerial(root, dev)
		if !ok {
			continue
		}
		if _, ok := want[serial]; ok {
			return entry.Name(), nil
		}
	}
	return "", fmt.Errorf("%s device with serial number in [%s]: %w",
		class, strings.Join(serials, ","), ErrNoSuchDevice)
}

// ancestorSerial walks from dir towards root looking for a "serial" attribute.
func ancestorSerial(root, dir string) (string, bool) {
	for strings.HasPrefix(dir, root) && dir != root {
		b, err := os.ReadFile(filepath.Join(dir, "serial"))
		if err == nil {
			return strings.TrimSpace(string(b)), true
		}
		dir = filepath.Dir(dir)
	}
	return "", false
}
