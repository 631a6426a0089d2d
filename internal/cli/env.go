package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes environment variables that supply flag defaults.
const EnvPrefix = "ATLASGRID_"

// envName maps a flag name such as "log-level" to ATLASGRID_LOG_LEVEL.
func envName(flag string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// applyEnv fills every flag the user did not set from its environment
// variable, if present.
func applyEnv(cmd *cobra.Command) error {
	var firstErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || firstErr != nil {
			return
		}
		val, ok := os.LookupEnv(envName(f.Name))
		if !ok {
			return
		}
		if err := f.Value.Set(val); err != nil {
			firstErr = fmt.Errorf("invalid %s=%q: %w", envName(f.Name), val, err)
		}
	})
	return firstErr
}
