package interfaces

import (
	"fmt"
	"strconv"
	"strings"
)

// nextInterfaceName returns the candidate after last for desired. A "+" suffix
// on desired numbers the interfaces (ex. slcan+ for slcan0, slcan1...).
func nextInterfaceName(desired, last string) (string, error) {
	if !strings.HasSuffix(desired, "+") {
		if last == "" {
			return desired, nil
		}
		// static interface name - since last != "" it must already exist.
		return "", fmt.Errorf("interface %q exists", last)
	}
	if last == "" {
		return strings.ReplaceAll(desired, "+", "0"), nil
	}
	base := desired[:len(desired)-1] // slcan+ = slcan
	num, err := strconv.ParseUint(strings.Replace(last, base, "", 1), 10, 64)
	if err != nil {
		return "", fmt.Errorf("generating interface name: %w", err)
	}
	num++
	name := fmt.Sprintf("%s%d", base, num)
	if len(name) > 15 {
		return "", fmt.Errorf("generating interface name: %q is too long", name)
	}
	return name, nil
}
