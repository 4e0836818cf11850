package app

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopherai-rag/internal/ragerr"
)

// ConfineToDir resolves path and returns its absolute form when it lies inside
// dir. Relative paths resolve against the working directory, like every other
// configured path. Symlinks are followed on both sides when they exist.
func ConfineToDir(dir, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: document path is empty", ragerr.ErrInvalidInput)
	}
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("%w: no data directory configured", ragerr.ErrInvalidInput)
	}

	root, err := resolve(dir)
	if err != nil {
		return "", err
	}
	target, err := resolve(path)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: document path %q is outside the data directory", ragerr.ErrInvalidInput, path)
	}
	return target, nil
}

func resolve(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ragerr.ErrInvalidInput, path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return abs, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ragerr.ErrInvalidInput, path, err)
	}
	return resolved, nil
}
