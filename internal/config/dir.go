// Package config loads, validates, and locates mdrebase configuration.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Dir returns the mdrebase configuration directory.
//
// Resolution:
//   - $MDREBASE_CONFIG_HOME if set (explicit override)
//   - $XDG_CONFIG_HOME/mdrebase if set (respects XDG on any platform)
//   - %AppData%/mdrebase on Windows
//   - ~/.config/mdrebase on macOS and Linux
func Dir() string {
	// Explicit override
	if dir := os.Getenv("MDREBASE_CONFIG_HOME"); dir != "" {
		return dir
	}

	// XDG override (works on any platform)
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mdrebase")
	}

	// Windows: use AppData
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "mdrebase")
		}
	}

	// macOS and Linux: ~/.config/mdrebase
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mdrebase")
}
