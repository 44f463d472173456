package resources

import (
	"os"
	"path/filepath"
	"runtime"
)

// defaultResourcesDir returns the per-user data directory for appName:
//
//	linux and other unixes: $XDG_DATA_HOME/<app>/resources, else ~/.local/share/<app>/resources
//	darwin:                 ~/Library/Application Support/<app>/resources
//	windows:                %APPDATA%\<app>\resources
func defaultResourcesDir(appName string) (string, error) {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, appName, "resources"), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", appName, "resources"), nil
	}

	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, "resources"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "resources"), nil
}
