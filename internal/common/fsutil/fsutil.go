// Package fsutil holds small path helpers shared by the config loader and the
// notification tool lookup.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// ToolPath returns the command to run for tool. Bare names are left for PATH
// lookup at launch; paths get '~' expanded. An unresolvable home keeps tool
// as given.
func ToolPath(tool string) string {
	tool = strings.TrimSpace(tool)
	if !strings.ContainsRune(tool, os.PathSeparator) && !strings.HasPrefix(tool, "~") {
		return tool
	}
	if p, err := ExpandHome(tool); err == nil {
		return filepath.Clean(p)
	}
	return tool
}
