package profile

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.lounge, or $LOUNGE_HOME when set.
func BaseDir() string {
	if dir := os.Getenv("LOUNGE_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lounge")
}

// Dir returns the profile-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "profiles", name)
}

// SocketPath returns the health socket path for a profile.
func SocketPath(name string) string {
	return filepath.Join(Dir(name), "lounged.sock")
}

// DeviceDBPath returns the protocol client's device store.
func DeviceDBPath(name string) string {
	return filepath.Join(Dir(name), "device.db")
}

// CacheDBPath returns the app-owned message cache.
func CacheDBPath(name string) string {
	return filepath.Join(Dir(name), "cache.db")
}

// LogDir returns the log directory for a profile.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the log file for the given binary.
func LogPath(name, binary string) string {
	return filepath.Join(LogDir(name), binary+".log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the profile directory tree with proper permissions.
func EnsureDir(name string) error {
	for _, d := range []string{Dir(name), LogDir(name)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
