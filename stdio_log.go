package main

import (
	"os"
	"path/filepath"
)

// openStdioLog opens path for appending, creating its directory. An empty
// path returns a nil file.
func openStdioLog(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
