// Package envutil provides utilities for environment variable handling.
//
// This package centralizes the management of winebox's internal environment
// variables used for process coordination (shim mode), and keeps them from
// leaking into Wine or the game process.
package envutil

import "strings"

// Environment variable names used by winebox for internal process coordination.
const (
	// ShimEnvVar triggers per-instance shim mode when set to "1".
	// The shim is a long-running parent process for detached runs.
	ShimEnvVar = "WINEBOX_SHIM"

	// StatePathEnvVar passes the instance state directory path.
	// Used by the shim process to locate config.json and state.json.
	StatePathEnvVar = "WINEBOX_STATE_PATH"

	// ShimNotifyFdEnvVar specifies the fd number for shim status notification.
	// The shim writes "OK" or "ERR: <message>" to this fd.
	ShimNotifyFdEnvVar = "WINEBOX_SHIM_NOTIFY_FD"
)

// internalEnvPrefixes lists all WINEBOX_* environment variable prefixes
// that must be filtered out before launching Wine or auxiliary services.
var internalEnvPrefixes = []string{
	ShimEnvVar + "=",
	StatePathEnvVar + "=",
	ShimNotifyFdEnvVar + "=",
}

// FilterWineboxEnv removes all WINEBOX_* environment variables from the list.
// This prevents internal coordination variables from leaking into child processes.
func FilterWineboxEnv(env []string) []string {
	filtered := make([]string, 0, len(env))
	for _, e := range env {
		if !IsWineboxEnv(e) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// IsWineboxEnv checks if the environment variable is a WINEBOX_* internal variable.
// The input should be in "KEY=VALUE" format.
func IsWineboxEnv(envVar string) bool {
	for _, prefix := range internalEnvPrefixes {
		if strings.HasPrefix(envVar, prefix) {
			return true
		}
	}
	return false
}

// SetEnvValue returns a copy of env with key set to value, replacing any
// existing entry for the same key.
func SetEnvValue(env []string, key, value string) []string {
	prefix := key + "="
	out := make([]string, 0, len(env)+1)
	for _, e := range env {
		if !strings.HasPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	return append(out, prefix+value)
}

// GetEnvValue returns the value of an environment variable from the list.
// Returns empty string if not found.
func GetEnvValue(env []string, key string) string {
	prefix := key + "="
	for _, e := range env {
		if strings.HasPrefix(e, prefix) {
			return strings.TrimPrefix(e, prefix)
		}
	}
	return ""
}
