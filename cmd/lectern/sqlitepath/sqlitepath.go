// Package sqlitepath resolves the local lectern database location shared by
// the CLI subcommands.
package sqlitepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveSQLitePath returns the explicit path when given, otherwise the
// default ~/.lectern/lectern.db, creating the directory if needed.
func ResolveSQLitePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}

	dir := filepath.Join(home, ".lectern")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create %s: %w", dir, err)
	}

	return filepath.Join(dir, "lectern.db"), nil
}
