package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	daemonName = "docbaked"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Path to the directory for runtime files (sockets, PIDs).
//
//	Linux:   $XDG_RUNTIME_DIR/docbaked or /run/user/<uid>/docbaked
//	macOS:   ~/Library/Caches/docbaked/run
func Runtime() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, daemonName)
	}
	return filepath.Join(xdg.CacheHome, daemonName, "run")
}

// Default path to the Unix domain socket for CLI-to-daemon communication.
//
//	Linux:   $XDG_RUNTIME_DIR/docbaked/docbaked.sock
//	macOS:   ~/Library/Caches/docbaked/run/docbaked.sock
func Socket() string {
	return filepath.Join(Runtime(), "docbaked.sock")
}

// Default path to the PID file.
//
//	Linux:   $XDG_RUNTIME_DIR/docbaked/docbaked.pid
//	macOS:   ~/Library/Caches/docbaked/run/docbaked.pid
func PIDFile() string {
	return filepath.Join(Runtime(), "docbaked.pid")
}

// Path to the workspace directory holding cloned theme snapshots.
//
//	Linux:   ~/.cache/docbaked/themes
//	macOS:   ~/Library/Caches/docbaked/themes
func ThemeWorkspace() string {
	return filepath.Join(xdg.CacheHome, daemonName, "themes")
}

// Default output directory for exported image archives.
//
//	Linux:   ~/.cache/docbaked/images
//	macOS:   ~/Library/Caches/docbaked/images
func ImageOutput() string {
	return filepath.Join(xdg.CacheHome, daemonName, "images")
}
