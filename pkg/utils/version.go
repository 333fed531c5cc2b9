package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// VersionedPath returns the first non-existing path of the form
// dir/base-vN ext, starting at v1. The directory is created if needed.
// ext should include the leading dot (e.g. ".html").
func VersionedPath(dir, base, ext string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	for v := 1; ; v++ {
		path := filepath.Join(dir, fmt.Sprintf("%s-v%d%s", base, v, ext))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
	}
}
