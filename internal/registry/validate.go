package registry

import (
	"fmt"
	"slices"
	"strings"
)

// validate performs a strict parity check between manifests and Go code.
func validate(manifests map[string]*manifest, funcs map[string]ModelFunc) error {
	var errs []string
	for name, m := range manifests {
		if _, ok := funcs[name]; !ok {
			errs = append(errs, fmt.Sprintf("model '%s': manifest %s has no registered Go function", name, m.Source))
		}
	}
	for name := range funcs {
		if _, ok := manifests[name]; !ok {
			errs = append(errs, fmt.Sprintf("model '%s': Go function is registered but no manifest declares it", name))
		}
	}

	if len(errs) > 0 {
		slices.Sort(errs)
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
