package internal

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"
)

var (
	quietMode   atomic.Bool // Suppress informational output.
	debugMode   atomic.Bool // Emit debug logging with caller locations.
	verboseMode atomic.Bool // Emit timestamps alongside log records.
)

// Environment variables that override the baked-in output defaults. Useful
// for daemons started by a service manager, where editing CLI flags is
// inconvenient.
const (
	EnvQuiet   = "DOCBAKED_QUIET"
	EnvDebug   = "DOCBAKED_DEBUG"
	EnvVerbose = "DOCBAKED_VERBOSE"
)

// Seeds the output modes from linker flags, then lets the environment
// override them. rawQuiet, rawDebug, and rawVerbose are set via ldflags
// during a pipeline build and default to "false".
func init() {
	quietMode.Store(parseMode(rawQuiet, EnvQuiet))
	debugMode.Store(parseMode(rawDebug, EnvDebug))
	verboseMode.Store(parseMode(rawVerbose, EnvVerbose))
}

// Resolves one output mode from its ldflags default and environment
// override. Unparsable values are treated as unset.
func parseMode(raw, envKey string) bool {
	mode, _ := strconv.ParseBool(strings.TrimSpace(raw))

	if env, ok := os.LookupEnv(envKey); ok {
		if v, err := strconv.ParseBool(strings.TrimSpace(env)); err == nil {
			mode = v
		}
	}

	return mode
}

// Enables or disables quiet mode.
func SetQuiet(enabled bool) {
	quietMode.Store(enabled)
}

// Returns true if quiet mode is enabled.
func IsQuiet() bool {
	return quietMode.Load()
}

// Enables or disables debug mode.
func SetDebug(enabled bool) {
	debugMode.Store(enabled)
}

// Returns true if debug mode is enabled.
func IsDebug() bool {
	return debugMode.Load()
}

// Enables or disables verbose logging.
func SetVerbose(enabled bool) {
	verboseMode.Store(enabled)
}

// Returns true if verbose logging is enabled.
func IsVerbose() bool {
	return verboseMode.Load()
}
