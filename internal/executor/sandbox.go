package executor

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePath resolves path against baseDir and checks that the result stays
// inside it. It returns the resolved absolute path, or an error that must be
// treated as a hard stop for the file operation. With allowOutside set,
// absolute paths and escapes are accepted as-is.
func ValidatePath(path, baseDir string, allowOutside bool) (string, error) {
	if filepath.IsAbs(path) {
		if !allowOutside {
			return "", fmt.Errorf("absolute paths are not allowed for safety reasons: %s", path)
		}
		return filepath.Clean(path), nil
	}

	baseAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("resolve base directory: %w", err)
	}
	resolved := filepath.Join(baseAbs, path)

	if allowOutside {
		return resolved, nil
	}

	if filepath.VolumeName(resolved) != filepath.VolumeName(baseAbs) {
		return "", fmt.Errorf("path is on a different drive: %s", path)
	}
	if resolved != baseAbs && !strings.HasPrefix(resolved, baseAbs+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal outside working directory not allowed: %s", path)
	}
	return resolved, nil
}
