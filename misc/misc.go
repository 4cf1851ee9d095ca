// Package misc keeps build time information about the program.
package misc

import (
	"os"
	"path/filepath"
	"strings"
)

// Set by linker flags: -X gssc/misc.version=... -X gssc/misc.gitHash=...
var (
	version = "dev"
	gitHash = "unknown"
	appName = ""
)

// GetAppName returns program name without extension.
func GetAppName() string {
	if appName != "" {
		return appName
	}
	name := filepath.Base(os.Args[0])
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
