package deps

import (
	"bufio"
	"os"
	"strings"
)

// moduleLoaded checks /proc/modules for name, the same signal
// bd_utils_have_kernel_module's "already loaded" fast path uses before
// falling back to modinfo.
func moduleLoaded(name string) (bool, error) {
	f, err := os.Open("/proc/modules")
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 && fields[0] == name {
			return true, nil
		}
	}
	return false, scanner.Err()
}
